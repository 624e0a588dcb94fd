package wizard

import "errors"

var (
	// ErrBusy is returned for mutations and navigation while a submission is
	// in flight.
	ErrBusy = errors.New("wizard: submission in progress")
	// ErrSubmissionInFlight is returned by Submit when a previous call has not
	// resolved yet. No state changes.
	ErrSubmissionInFlight = errors.New("wizard: submission already in flight")
	// ErrUnknownField signals a key that no step owns.
	ErrUnknownField = errors.New("wizard: unknown field")
	// ErrValueKind signals a value whose shape does not match the field kind.
	ErrValueKind = errors.New("wizard: value does not match field kind")
	// ErrStepInvalid is returned by Next when the current step fails validation.
	ErrStepInvalid = errors.New("wizard: current step has invalid fields")
	// ErrLastStep is returned by Next on the final step; the forward action
	// there is Submit.
	ErrLastStep = errors.New("wizard: already on the last step")
	// ErrFirstStep is returned by Back on the first step.
	ErrFirstStep = errors.New("wizard: already on the first step")
	// ErrStepOutOfRange signals an index outside 0..StepCount-1.
	ErrStepOutOfRange = errors.New("wizard: step index out of range")
	// ErrStepLocked is returned by JumpTo when an intermediate step has never
	// validated successfully.
	ErrStepLocked = errors.New("wizard: step not reachable yet")
	// ErrNotLastStep is returned by Submit before the final step is reached.
	ErrNotLastStep = errors.New("wizard: submit is only available on the last step")
	// ErrValidation is returned by Submit when the full form does not validate.
	ErrValidation = errors.New("wizard: form has invalid fields")
	// ErrPersist wraps failures from the encoder or inserter.
	ErrPersist = errors.New("wizard: could not save submission")
)
