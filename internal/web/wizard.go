package web

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/goliatone/go-intake/pkg/consultation"
	"github.com/goliatone/go-intake/pkg/model"
	"github.com/goliatone/go-intake/pkg/notify"
	"github.com/goliatone/go-intake/pkg/wizard"
)

// fieldView is a field as the wizard template sees it.
type fieldView struct {
	Key         string       `json:"key"`
	Kind        string       `json:"kind"`
	Label       string       `json:"label"`
	Placeholder string       `json:"placeholder,omitempty"`
	Description string       `json:"description,omitempty"`
	Required    bool         `json:"required"`
	Hidden      bool         `json:"hidden"`
	VisibleWhen string       `json:"visible_when,omitempty"`
	Error       string       `json:"error,omitempty"`
	Text        string       `json:"text"`
	Number      float64      `json:"number"`
	Options     []optionView `json:"options,omitempty"`
	Min         float64      `json:"min"`
	Max         float64      `json:"max"`
	Step        float64      `json:"step"`
}

type optionView struct {
	Value   string `json:"value"`
	Label   string `json:"label"`
	Checked bool   `json:"checked"`
}

type stepView struct {
	Index  int    `json:"index"`
	Title  string `json:"title"`
	Active bool   `json:"active"`
	Open   bool   `json:"open"`
}

func buildFieldViews(snap wizard.Snapshot) []fieldView {
	out := make([]fieldView, 0, len(snap.Fields))
	for _, spec := range snap.Fields {
		value := snap.Values[spec.Key]
		fv := fieldView{
			Key:         spec.Key,
			Kind:        string(spec.Kind),
			Label:       spec.DisplayLabel(),
			Placeholder: spec.Placeholder,
			Description: spec.Description,
			Required:    spec.Required,
			Hidden:      snap.Hidden[spec.Key],
			VisibleWhen: spec.VisibleWhen,
			Error:       snap.Errors[spec.Key],
			Text:        value.Text,
		}
		for _, opt := range spec.Constraints.Options {
			fv.Options = append(fv.Options, optionView{
				Value:   opt.Value,
				Label:   spec.OptionLabel(opt.Value),
				Checked: value.Text == opt.Value || slices.Contains(value.Set, opt.Value),
			})
		}
		if n, ok := value.Number(); ok {
			fv.Number = n
		}
		if r := spec.Constraints.Range; r != nil {
			fv.Min, fv.Max, fv.Step = r.Min, r.Max, r.Step
		}
		out = append(out, fv)
	}
	return out
}

func (s *Server) buildStepViews(p wizard.Progress) []stepView {
	steps := s.form.Steps()
	out := make([]stepView, 0, len(steps))
	for i, step := range steps {
		out = append(out, stepView{
			Index:  i,
			Title:  step.Title,
			Active: i == p.Current,
			Open:   i < len(p.Reachable) && p.Reachable[i],
		})
	}
	return out
}

func (s *Server) handleWizard(w http.ResponseWriter, r *http.Request) {
	v, err := s.visitors.get(w, r)
	if err != nil {
		s.logger.Error("create session", "error", err)
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return
	}

	snap := v.wizard.Snapshot()
	data := map[string]any{
		"step":       snap.Step,
		"fields":     buildFieldViews(snap),
		"steps":      s.buildStepViews(snap.Progress),
		"progress":   snap.Progress,
		"status":     snap.Status,
		"submitting": snap.Status == wizard.StatusSubmitting,
		"toasts":     v.flash.Drain(),
	}
	s.render(w, http.StatusOK, "wizard", data)
}

func (s *Server) handleWizardAction(w http.ResponseWriter, r *http.Request) {
	v, err := s.visitors.get(w, r)
	if err != nil {
		s.logger.Error("create session", "error", err)
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if err := applyStepValues(v.wizard, r); err != nil {
		s.flashError(ctx, v, err)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	target := "/"
	switch action := r.PathValue("action"); action {
	case "next":
		err = v.wizard.Next()
	case "back":
		err = v.wizard.Back()
	case "jump":
		var index int
		index, err = strconv.Atoi(r.PostFormValue("step"))
		if err == nil {
			err = v.wizard.JumpTo(index)
		}
	case "submit":
		target, err = s.submit(ctx, v)
	default:
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.flashError(ctx, v, err)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// submit runs one submission for the visitor and returns where to send the
// browser next.
func (s *Server) submit(ctx context.Context, v *visitor) (string, error) {
	target := "/"
	controller, err := wizard.NewController(v.wizard, consultation.Encode, s.inserter,
		wizard.WithNotifier(notify.Multi(v.flash, notify.Log(s.logger))),
		wizard.WithRedirector(wizard.RedirectFunc(func(_ context.Context, path string) {
			target = path
		})),
		wizard.WithThankYouPath(s.opts.thankYouPath),
		wizard.WithControllerLogger(s.logger),
	)
	if err != nil {
		return target, err
	}

	err = controller.Submit(ctx)
	switch {
	case err == nil:
		return target, nil
	case errors.Is(err, wizard.ErrValidation), errors.Is(err, wizard.ErrPersist):
		// The controller has already notified the visitor.
		return target, nil
	default:
		return target, err
	}
}

// applyStepValues copies the posted values of the current step's fields into
// the session. Fields absent from the form are left as they are, except
// multi-selects, where no checked box means an empty set.
func applyStepValues(ws *wizard.Session, r *http.Request) error {
	snap := ws.Snapshot()
	for _, spec := range snap.Fields {
		var value model.Value
		switch spec.Kind {
		case model.KindMultiSelect:
			value = model.SetValue(r.PostForm[spec.Key]...)
		case model.KindRange:
			raw, ok := r.PostForm[spec.Key]
			if !ok || len(raw) == 0 {
				continue
			}
			n, err := strconv.ParseFloat(strings.TrimSpace(raw[0]), 64)
			if err != nil {
				continue
			}
			value = model.RangeValue(n)
		default:
			raw, ok := r.PostForm[spec.Key]
			if !ok || len(raw) == 0 {
				continue
			}
			value = model.TextValue(raw[0])
		}
		if err := ws.SetValue(spec.Key, value); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) flashError(ctx context.Context, v *visitor, err error) {
	message, ok := actionMessage(err)
	if !ok {
		s.logger.Error("wizard action failed", "error", err)
		message = "Something went wrong. Please try again."
	}
	v.flash.Notify(ctx, notify.Notification{Severity: notify.SeverityError, Message: message})
}

func actionMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, wizard.ErrStepInvalid):
		return wizard.MessageFixFields, true
	case errors.Is(err, wizard.ErrBusy), errors.Is(err, wizard.ErrSubmissionInFlight):
		return "Your request is being sent. Please wait.", true
	case errors.Is(err, wizard.ErrStepLocked):
		return "Please complete the earlier steps first.", true
	case errors.Is(err, wizard.ErrNotLastStep):
		return "Please complete every step before sending.", true
	case errors.Is(err, wizard.ErrFirstStep), errors.Is(err, wizard.ErrLastStep),
		errors.Is(err, wizard.ErrStepOutOfRange), errors.Is(err, strconv.ErrSyntax):
		return "That step is not available.", true
	default:
		return "", false
	}
}

func (s *Server) handleThankYou(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{}
	if v, ok := s.visitors.lookup(r); ok {
		data["toasts"] = v.flash.Drain()
	}
	s.render(w, http.StatusOK, "thank_you", data)
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data map[string]any) {
	var buf bytes.Buffer
	if err := s.views.render(&buf, name, data); err != nil {
		s.logger.Error("render failed", "template", name, "error", err)
		http.Error(w, "page unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
