package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-intake/internal/admin"
	"github.com/goliatone/go-intake/internal/store"
	"github.com/goliatone/go-intake/pkg/auth"
	"github.com/goliatone/go-intake/pkg/consultation"
)

type principalKey struct{}

// requireAdmin admits requests carrying a valid bearer token or a signed-in
// browser session.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token, ok := bearerToken(r); ok {
			if s.opts.authn == nil {
				writeError(w, http.StatusUnauthorized, "admin access is not configured")
				return
			}
			p, err := s.opts.authn.Authenticate(r.Context(), token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey{}, p)))
			return
		}
		if v, ok := s.visitors.lookup(r); ok {
			if p, ok := v.auth.Current(); ok {
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey{}, p)))
				return
			}
		}
		writeError(w, http.StatusUnauthorized, "sign in required")
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string `json:"token"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	v, err := s.visitors.get(w, r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "session unavailable")
		return
	}
	p, err := v.auth.SignIn(r.Context(), body.Token)
	switch {
	case errors.Is(err, auth.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "admin access is not configured")
		return
	case err != nil:
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if v, ok := s.visitors.lookup(r); ok {
		v.auth.SignOut()
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	p, _ := r.Context().Value(principalKey{}).(auth.Principal)
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleListConsultations(w http.ResponseWriter, r *http.Request) {
	status := consultation.Status(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		writeError(w, http.StatusBadRequest, "unknown status")
		return
	}
	recs, err := s.services.Consultations.List(r.Context(), status)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleGetConsultation(w http.ResponseWriter, r *http.Request) {
	rec, err := s.services.Consultations.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleSetConsultationStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status consultation.Status `json:"status"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rec, err := s.services.Consultations.SetStatus(r.Context(), r.PathValue("id"), body.Status)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteConsultation(w http.ResponseWriter, r *http.Request) {
	if err := s.services.Consultations.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleConsultationStream sends new and changed consultations as server-sent
// events until the client goes away.
func (s *Server) handleConsultationStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	changes, err := s.services.Records.Watch(r.Context())
	if err != nil {
		s.serviceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	for change := range changes {
		event := "consultation"
		var payload any = change.Value
		if change.Op == store.OpDelete {
			event = "consultation-deleted"
			payload = map[string]string{"id": change.Key}
		}
		raw, err := json.Marshal(payload)
		if err != nil {
			s.logger.Warn("encode stream event", "error", err)
			continue
		}
		if _, err := fmt.Fprintf(w, "event: %s\nid: %d\ndata: %s\n\n", event, change.Revision, raw); err != nil {
			return
		}
		flusher.Flush()
	}
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.services.Posts.List(r.Context(), r.URL.Query().Get("published") == "true")
	if err != nil {
		s.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var in admin.PostInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	post, err := s.services.Posts.Create(r.Context(), in)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	var in admin.PostInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	post, err := s.services.Posts.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (s *Server) handlePublishPost(w http.ResponseWriter, r *http.Request) {
	post, err := s.services.Posts.Publish(r.Context(), r.PathValue("id"))
	if err != nil {
		s.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (s *Server) handleUnpublishPost(w http.ResponseWriter, r *http.Request) {
	post, err := s.services.Posts.Unpublish(r.Context(), r.PathValue("id"))
	if err != nil {
		s.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	if err := s.services.Posts.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListSubscribers(w http.ResponseWriter, r *http.Request) {
	subs, err := s.services.Subscribers.List(r.Context())
	if err != nil {
		s.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

func (s *Server) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	if err := s.services.Subscribers.Unsubscribe(r.Context(), r.URL.Query().Get("email")); err != nil {
		s.serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListWork(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.services.Work.List(r.Context(), r.URL.Query().Get("project"))
	if err != nil {
		s.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleWorkTotal(w http.ResponseWriter, r *http.Request) {
	project := r.URL.Query().Get("project")
	total, err := s.services.Work.Total(r.Context(), project)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"project": project,
		"seconds": int64(total.Seconds()),
		"human":   total.String(),
	})
}

type workRequest struct {
	Project string `json:"project"`
	Note    string `json:"note,omitempty"`
}

func (s *Server) handleWorkStart(w http.ResponseWriter, r *http.Request) {
	var body workRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	session, err := s.services.Work.Start(r.Context(), body.Project, body.Note)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleWorkStop(w http.ResponseWriter, r *http.Request) {
	var body workRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	session, err := s.services.Work.Stop(r.Context(), body.Project)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// serviceError maps service and store errors to status codes. Unexpected
// errors are logged and reported generically.
func (s *Server) serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, admin.ErrAlreadySubscribed), errors.Is(err, admin.ErrSessionOpen),
		errors.Is(err, admin.ErrNoOpenSession), errors.Is(err, store.ErrConflict),
		errors.Is(err, store.ErrExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, admin.ErrInvalidStatus), errors.Is(err, admin.ErrInvalidEmail),
		errors.Is(err, admin.ErrEmptyTitle), errors.Is(err, admin.ErrEmptyProject):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
