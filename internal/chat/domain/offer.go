package domain

import "fmt"

// OfferStatus negotiation payload status
type OfferStatus string

const (
	// OfferPending initial status of every offer
	OfferPending OfferStatus = "pending"
	// OfferAccepted terminal, accepted by the recipient
	OfferAccepted OfferStatus = "accepted"
	// OfferDeclined terminal, declined by the recipient
	OfferDeclined OfferStatus = "declined"
)

// IsTerminal accepted / declined never change again
func (s OfferStatus) IsTerminal() bool {
	return s == OfferAccepted || s == OfferDeclined
}

// IsDecision a value a recipient can respond with
func (s OfferStatus) IsDecision() bool {
	return s.IsTerminal()
}

// CanTransitionTo only pending -> accepted | declined is legal
func (s OfferStatus) CanTransitionTo(next OfferStatus) bool {
	return s == OfferPending && next.IsDecision()
}

// OfferDetails job offer / gig invite embedded in a message.
// Display fields are a snapshot taken when the offer is sent.
type OfferDetails struct {
	Kind        MessageType `bson:"kind" json:"kind"`
	ReferenceID string      `bson:"reference_id" json:"reference_id"`
	Title       string      `bson:"title" json:"title"`
	Date        string      `bson:"date" json:"date"`
	Time        string      `bson:"time" json:"time"`
	EndTime     string      `bson:"end_time,omitempty" json:"end_time,omitempty"`
	Location    string      `bson:"location" json:"location"`
	Studio      string      `bson:"studio" json:"studio"`
	StudioID    string      `bson:"studio_id" json:"studio_id"`
	Rate        string      `bson:"rate" json:"rate"`
	ClassType   string      `bson:"class_type,omitempty" json:"class_type,omitempty"`
	Description string      `bson:"description,omitempty" json:"description,omitempty"`

	Status      OfferStatus `bson:"status" json:"status"`
	RespondedBy string      `bson:"responded_by,omitempty" json:"responded_by,omitempty"`
	RespondedAt int64       `bson:"responded_at,omitempty" json:"responded_at,omitempty"`
}

// Validate shape check before the offer is stored
func (o OfferDetails) Validate() error {
	if !o.Kind.IsOffer() {
		return fmt.Errorf("%w: offer kind %q", ErrInvalidArgument, o.Kind)
	}
	if o.ReferenceID == "" {
		return fmt.Errorf("%w: offer reference id is required", ErrInvalidArgument)
	}
	if o.Title == "" {
		return fmt.Errorf("%w: offer title is required", ErrInvalidArgument)
	}
	return nil
}

// Noun "job offer" / "gig invite"
func (k MessageType) Noun() string {
	switch k {
	case MessageTypeJobOffer:
		return "job offer"
	case MessageTypeGigInvite:
		return "gig invite"
	}
	return "offer"
}

// DefaultCaption content line used when the sender attaches no note
func DefaultCaption(o OfferDetails) string {
	return fmt.Sprintf("Sent you a %s: %s", o.Kind.Noun(), o.Title)
}

// FollowUpText acknowledgement posted by the responder
func FollowUpText(kind MessageType, decision OfferStatus) string {
	if decision == OfferAccepted {
		return fmt.Sprintf("I've accepted the %s!", kind.Noun())
	}
	return fmt.Sprintf("I've declined the %s.", kind.Noun())
}
