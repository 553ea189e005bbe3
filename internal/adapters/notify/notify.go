// Package notify defines the outbound notification port. The engine only
// decides that a message is due and to whom; delivery belongs to the
// surrounding application.
package notify

import (
	"context"
	"sync"
	"time"
)

// Kind classifies a notification for the downstream dispatcher.
type Kind string

// Notification kinds emitted by the engine.
const (
	KindSlotOffer     Kind = "slot_offer"
	KindOfferVoided   Kind = "offer_voided"
	KindOfferAccepted Kind = "offer_accepted"
	KindShieldUsed    Kind = "shield_used"
	KindShieldRemoved Kind = "shield_removed"
	KindAdminAction   Kind = "admin_action"
)

// Message is one notification decision. Ref identifies the decision that
// produced it (an offer or usage id) so distinct decisions with identical
// wording are never collapsed by suppression.
type Message struct {
	PlayerID string
	Kind     Kind
	Ref      string
	Body     string
	At       time.Time
}

// Dispatcher delivers notification decisions to the outside world.
type Dispatcher interface {
	Notify(ctx context.Context, msg Message) error
}

// Recorder is an in-memory Dispatcher that stores messages for inspection,
// used in tests and as the default when no real dispatcher is wired.
type Recorder struct {
	mu   sync.Mutex
	msgs []Message
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Notify records the message.
func (r *Recorder) Notify(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return nil
}

// Messages returns a copy of everything recorded so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.msgs))
	copy(out, r.msgs)
	return out
}
