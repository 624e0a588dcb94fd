package wizard

import "fmt"

// Progress describes where the session is in the step sequence.
type Progress struct {
	Current int  `json:"current"`
	Total   int  `json:"total"`
	Percent int  `json:"percent"`
	IsFirst bool `json:"isFirst"`
	IsLast  bool `json:"isLast"`
	// Reachable[i] reports whether JumpTo(i) would currently succeed.
	Reachable []bool `json:"reachable"`
}

// CurrentStep returns the zero-based index of the active step.
func (s *Session) CurrentStep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// StepCount returns the number of steps in the form.
func (s *Session) StepCount() int {
	return s.form.StepCount()
}

// IsLastStep reports whether the active step is the final one.
func (s *Session) IsLastStep() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form.IsLastStep(s.current)
}

// Progress reports the progress indicator state.
func (s *Session) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progressLocked()
}

// Next validates the current step and advances on success. On the last step
// it returns ErrLastStep; the forward action there is Submit.
func (s *Session) Next() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusSubmitting {
		return ErrBusy
	}
	if s.form.IsLastStep(s.current) {
		return ErrLastStep
	}
	if !s.validateStepLocked(s.current) {
		return ErrStepInvalid
	}
	s.current++
	return nil
}

// Back moves to the previous step without validating. Values are kept.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusSubmitting {
		return ErrBusy
	}
	if s.current == 0 {
		return ErrFirstStep
	}
	s.current--
	return nil
}

// JumpTo moves directly to index. Earlier steps are always reachable; a later
// step is reachable only when every step from the current one up to the target
// has validated successfully at least once in this session.
func (s *Session) JumpTo(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusSubmitting {
		return ErrBusy
	}
	if !s.form.HasStep(index) {
		return fmt.Errorf("%w: %d", ErrStepOutOfRange, index)
	}
	if !s.reachableLocked(index) {
		return fmt.Errorf("%w: %d", ErrStepLocked, index)
	}
	s.current = index
	return nil
}

func (s *Session) reachableLocked(index int) bool {
	if index <= s.current {
		return true
	}
	for i := s.current; i < index; i++ {
		if !s.validated[i] {
			return false
		}
	}
	return true
}

func (s *Session) progressLocked() Progress {
	total := s.form.StepCount()
	reachable := make([]bool, total)
	for i := range reachable {
		reachable[i] = s.reachableLocked(i)
	}
	percent := 0
	if total > 0 {
		percent = (s.current + 1) * 100 / total
	}
	return Progress{
		Current:   s.current,
		Total:     total,
		Percent:   percent,
		IsFirst:   s.current == 0,
		IsLast:    s.form.IsLastStep(s.current),
		Reachable: reachable,
	}
}
