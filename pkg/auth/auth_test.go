package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-intake/pkg/auth"
)

func fixedClock() time.Time {
	return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
}

func TestStaticToken(t *testing.T) {
	a := auth.StaticToken{Token: "hunter2", Now: fixedClock}

	p, err := a.Authenticate(context.Background(), " hunter2 ")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	want := auth.Principal{Subject: "admin", SignedIn: fixedClock()}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Fatalf("principal mismatch (-want +got):\n%s", diff)
	}

	if _, err := a.Authenticate(context.Background(), "hunter3"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("want ErrInvalidCredentials, got %v", err)
	}
	if _, err := (auth.StaticToken{}).Authenticate(context.Background(), ""); !errors.Is(err, auth.ErrNotConfigured) {
		t.Fatalf("want ErrNotConfigured, got %v", err)
	}
}

func TestSession_SignInOut(t *testing.T) {
	s := auth.NewSession(auth.StaticToken{Token: "t0k", Now: fixedClock})

	var events []bool
	unsubscribe := s.Subscribe(func(ev auth.Event) { events = append(events, ev.SignedIn()) })

	if _, err := s.SignIn(context.Background(), "wrong"); err == nil {
		t.Fatalf("expected sign-in failure")
	}
	if _, ok := s.Current(); ok {
		t.Fatalf("failed sign-in produced a principal")
	}

	if _, err := s.SignIn(context.Background(), "t0k"); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if p, ok := s.Current(); !ok || p.Subject != "admin" {
		t.Fatalf("unexpected current %v %v", p, ok)
	}

	s.SignOut()
	s.SignOut()

	unsubscribe()
	unsubscribe()
	if _, err := s.SignIn(context.Background(), "t0k"); err != nil {
		t.Fatalf("sign in: %v", err)
	}

	if diff := cmp.Diff([]bool{true, false}, events); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_NoAuthenticator(t *testing.T) {
	s := auth.NewSession(nil)
	if _, err := s.SignIn(context.Background(), "x"); !errors.Is(err, auth.ErrNotConfigured) {
		t.Fatalf("want ErrNotConfigured, got %v", err)
	}
}
