package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/goliatone/go-intake/pkg/model"
	"github.com/goliatone/go-intake/pkg/notify"
)

// Encoder turns the session values into the record shape the persistence
// collaborator expects.
type Encoder[R any] func(values model.Values) (R, error)

// Inserter persists one record per successful submission.
type Inserter[R any] interface {
	Insert(ctx context.Context, record R) error
}

// InserterFunc adapts a function into an Inserter.
type InserterFunc[R any] func(ctx context.Context, record R) error

// Insert implements Inserter.
func (fn InserterFunc[R]) Insert(ctx context.Context, record R) error {
	return fn(ctx, record)
}

// Redirector performs the post-submission route transition.
type Redirector interface {
	Redirect(ctx context.Context, path string)
}

// RedirectFunc adapts a function into a Redirector.
type RedirectFunc func(ctx context.Context, path string)

// Redirect implements Redirector.
func (fn RedirectFunc) Redirect(ctx context.Context, path string) {
	if fn != nil {
		fn(ctx, path)
	}
}

// Default user-facing messages.
const (
	MessageFixFields = "Please fix the highlighted fields."
	MessageSuccess   = "Thanks! Your consultation request has been sent."
	MessageFailure   = "We could not send your request. Please try again."
	DefaultThankYou  = "/thank-you"
)

// SafeMessager lets persistence errors carry a message that is safe to show
// to the user.
type SafeMessager interface {
	SafeMessage() string
}

type controllerConfig struct {
	notifier       notify.Notifier
	redirector     Redirector
	thankYouPath   string
	successMessage string
	failureMessage string
	logger         *slog.Logger
}

// ControllerOption configures a Controller.
type ControllerOption func(*controllerConfig)

// WithNotifier sets the toast side channel.
func WithNotifier(n notify.Notifier) ControllerOption {
	return func(c *controllerConfig) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithRedirector sets the post-submission navigation collaborator.
func WithRedirector(r Redirector) ControllerOption {
	return func(c *controllerConfig) {
		if r != nil {
			c.redirector = r
		}
	}
}

// WithThankYouPath overrides the redirect target after success.
func WithThankYouPath(path string) ControllerOption {
	return func(c *controllerConfig) {
		if path != "" {
			c.thankYouPath = path
		}
	}
}

// WithMessages overrides the success and failure toasts.
func WithMessages(success, failure string) ControllerOption {
	return func(c *controllerConfig) {
		if success != "" {
			c.successMessage = success
		}
		if failure != "" {
			c.failureMessage = failure
		}
	}
}

// WithControllerLogger attaches a logger to the controller.
func WithControllerLogger(logger *slog.Logger) ControllerOption {
	return func(c *controllerConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Controller is the final gate: it validates the whole form, hands the
// encoded record to the inserter at most once at a time, and reports the
// outcome through the notifier and redirector.
type Controller[R any] struct {
	session  *Session
	encode   Encoder[R]
	inserter Inserter[R]
	cfg      controllerConfig
}

// NewController wires a submission controller to a session.
func NewController[R any](session *Session, encode Encoder[R], inserter Inserter[R], options ...ControllerOption) (*Controller[R], error) {
	if session == nil {
		return nil, errors.New("wizard: session is required")
	}
	if encode == nil {
		return nil, errors.New("wizard: encoder is required")
	}
	if inserter == nil {
		return nil, errors.New("wizard: inserter is required")
	}
	cfg := controllerConfig{
		notifier:       notify.Discard,
		redirector:     RedirectFunc(nil),
		thankYouPath:   DefaultThankYou,
		successMessage: MessageSuccess,
		failureMessage: MessageFailure,
		logger:         session.logger,
	}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Controller[R]{session: session, encode: encode, inserter: inserter, cfg: cfg}, nil
}

// Submit runs the submission sequence. A call made while another is in
// flight returns ErrSubmissionInFlight without touching state. Every other
// outcome leaves the session retryable: idle after a validation failure,
// failed after a persistence failure.
func (c *Controller[R]) Submit(ctx context.Context) error {
	s := c.session

	s.mu.Lock()
	if s.status == StatusSubmitting {
		s.mu.Unlock()
		return ErrSubmissionInFlight
	}
	if !s.form.IsLastStep(s.current) {
		s.mu.Unlock()
		return ErrNotLastStep
	}
	if !s.validateAllLocked() {
		from := s.setStatusLocked(StatusIdle)
		invalid := len(s.errors)
		s.mu.Unlock()
		s.emit(from, StatusIdle)
		c.cfg.logger.Info("submission rejected by validation", "form", s.form.ID(), "invalid_fields", invalid)
		c.cfg.notifier.Notify(ctx, notify.Notification{Severity: notify.SeverityError, Message: MessageFixFields})
		return ErrValidation
	}
	from := s.setStatusLocked(StatusSubmitting)
	values := s.values.Clone()
	s.mu.Unlock()
	s.emit(from, StatusSubmitting)

	err := c.persist(ctx, values)

	if err != nil {
		s.mu.Lock()
		s.setStatusLocked(StatusFailed)
		s.mu.Unlock()
		s.emit(StatusSubmitting, StatusFailed)
		c.cfg.logger.Error("submission failed", "form", s.form.ID(), "error", err)
		c.cfg.notifier.Notify(ctx, notify.Notification{Severity: notify.SeverityError, Message: c.userMessage(err)})
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}

	// Succeeded and the reset share one critical section.
	s.mu.Lock()
	s.setStatusLocked(StatusSucceeded)
	s.resetLocked()
	s.mu.Unlock()
	s.emit(StatusSubmitting, StatusSucceeded)
	s.emit(StatusSucceeded, StatusIdle)
	c.cfg.logger.Info("submission stored", "form", s.form.ID())
	c.cfg.notifier.Notify(ctx, notify.Notification{Severity: notify.SeveritySuccess, Message: c.cfg.successMessage})

	c.cfg.redirector.Redirect(ctx, c.cfg.thankYouPath)
	return nil
}

func (c *Controller[R]) persist(ctx context.Context, values model.Values) error {
	record, err := c.encode(values)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	return c.inserter.Insert(ctx, record)
}

func (c *Controller[R]) userMessage(err error) string {
	var safe SafeMessager
	if errors.As(err, &safe) {
		if msg := safe.SafeMessage(); msg != "" {
			return msg
		}
	}
	return c.cfg.failureMessage
}
