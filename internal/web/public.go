package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/goliatone/go-intake/internal/admin"
)

func (s *Server) handlePublicPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.services.Posts.List(r.Context(), true)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) handlePublicPost(w http.ResponseWriter, r *http.Request) {
	post, err := s.services.Posts.GetBySlug(r.Context(), r.PathValue("slug"))
	if err != nil || !post.Published {
		if err == nil {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		s.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// handleSubscribe accepts a JSON body or a urlencoded form with an email.
func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var email string
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body struct {
			Email string `json:"email"`
		}
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		email = body.Email
	} else {
		email = r.PostFormValue("email")
	}

	sub, err := s.services.Subscribers.Subscribe(r.Context(), email)
	switch {
	case errors.Is(err, admin.ErrInvalidEmail):
		writeError(w, http.StatusBadRequest, "Please enter a valid email address.")
	case errors.Is(err, admin.ErrAlreadySubscribed):
		writeError(w, http.StatusConflict, "You are already subscribed.")
	case err != nil:
		s.serviceError(w, err)
	default:
		writeJSON(w, http.StatusCreated, sub)
	}
}
