package router

import (
	"errors"
	"sync/atomic"
)

// ErrAlreadyAcknowledged indicates a second acknowledgement attempt on an
// event. This is a contract violation by the handler, reported rather than
// crashed on; the first acknowledgement stands.
var ErrAlreadyAcknowledged = errors.New("interaction already acknowledged")

// Responder sends the actual acknowledgement to the transport.
type Responder interface {
	// Respond sends an immediate response.
	Respond(content string, ephemeral bool) error

	// Defer acknowledges the event without content, buying time for a
	// follow-up.
	Defer(ephemeral bool) error

	// FollowUp edits or follows a deferred acknowledgement with content.
	FollowUp(content string) error

	// Prompt asks the user for input. The answer arrives as a new modal
	// event carrying the given custom ID.
	Prompt(customID, title string, fields []PromptField) error
}

// PromptField describes one input field of a prompt.
type PromptField struct {
	// ID identifies the field in the answering event.
	ID string

	// Label is the field label shown to the user.
	Label string

	// Placeholder is the hint text shown while the field is empty.
	Placeholder string

	// Required marks the field as mandatory.
	Required bool

	// Paragraph requests a multi-line input.
	Paragraph bool
}

// Ack enforces the single-acknowledgement discipline over a Responder: each
// event may be acknowledged at most once, immediately or deferred.
// Follow-ups after a deferral are not acknowledgements and stay allowed.
type Ack struct {
	r    Responder
	done atomic.Bool
}

// NewAck wraps a responder with acknowledgement tracking.
func NewAck(r Responder) *Ack {
	return &Ack{r: r}
}

// Acknowledged reports whether the event has been acknowledged.
func (a *Ack) Acknowledged() bool {
	return a.done.Load()
}

// Respond sends an immediate response. A second acknowledgement attempt
// fails with ErrAlreadyAcknowledged and sends nothing.
func (a *Ack) Respond(content string, ephemeral bool) error {
	if !a.done.CompareAndSwap(false, true) {
		return ErrAlreadyAcknowledged
	}
	return a.r.Respond(content, ephemeral)
}

// Defer acknowledges the event without content.
func (a *Ack) Defer(ephemeral bool) error {
	if !a.done.CompareAndSwap(false, true) {
		return ErrAlreadyAcknowledged
	}
	return a.r.Defer(ephemeral)
}

// Prompt asks the user for input. Prompting is an acknowledgement, so a
// second attempt fails with ErrAlreadyAcknowledged.
func (a *Ack) Prompt(customID, title string, fields []PromptField) error {
	if !a.done.CompareAndSwap(false, true) {
		return ErrAlreadyAcknowledged
	}
	return a.r.Prompt(customID, title, fields)
}

// FollowUp sends content after a deferral. It requires a prior
// acknowledgement.
func (a *Ack) FollowUp(content string) error {
	if !a.done.Load() {
		return errors.New("follow-up before acknowledgement")
	}
	return a.r.FollowUp(content)
}
