package domain

import (
	"fmt"
	"sort"
)

// MessageType message type
type MessageType string

const (
	// MessageTypeText plain chat text
	MessageTypeText MessageType = "text"
	// MessageTypeJobOffer carries a job offer payload
	MessageTypeJobOffer MessageType = "job_offer"
	// MessageTypeGigInvite carries a gig invite payload
	MessageTypeGigInvite MessageType = "gig_invite"
	// MessageTypeApplicationUpdate system-ish notice about a job application
	MessageTypeApplicationUpdate MessageType = "application_update"
)

// IsOffer job_offer / gig_invite
func (t MessageType) IsOffer() bool {
	return t == MessageTypeJobOffer || t == MessageTypeGigInvite
}

// Valid known message type
func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeText, MessageTypeJobOffer, MessageTypeGigInvite, MessageTypeApplicationUpdate:
		return true
	}
	return false
}

// Message one entry of a conversation log
type Message struct {
	ID             string        `bson:"_id" json:"id"`
	ConversationID string        `bson:"conversation_id" json:"conversation_id"`
	SenderID       string        `bson:"sender_id" json:"sender_id"`
	SenderName     string        `bson:"sender_name" json:"sender_name"`
	Timestamp      int64         `bson:"timestamp" json:"timestamp"` // unix ms
	Type           MessageType   `bson:"type" json:"type"`
	Content        string        `bson:"content" json:"content"`
	Payload        *OfferDetails `bson:"payload,omitempty" json:"payload,omitempty"`
}

// Validate payload is present iff the type is an offer type
func (m *Message) Validate() error {
	if !m.Type.Valid() {
		return fmt.Errorf("%w: message type %q", ErrInvalidArgument, m.Type)
	}
	if m.Content == "" {
		return fmt.Errorf("%w: message content is required", ErrInvalidArgument)
	}
	if m.Type.IsOffer() {
		if m.Payload == nil {
			return fmt.Errorf("%w: %s requires a payload", ErrInvalidArgument, m.Type)
		}
		if m.Payload.Kind != m.Type {
			return fmt.Errorf("%w: payload kind %q does not match message type %q", ErrInvalidArgument, m.Payload.Kind, m.Type)
		}
		return m.Payload.Validate()
	}
	if m.Payload != nil {
		return fmt.Errorf("%w: %s must not carry a payload", ErrInvalidArgument, m.Type)
	}
	return nil
}

// Summary denormalized last message
func (m *Message) Summary() LastMessage {
	return LastMessage{
		Content:   m.Content,
		Timestamp: m.Timestamp,
		SenderID:  m.SenderID,
	}
}

// Clone deep copy
func (m Message) Clone() Message {
	out := m
	if m.Payload != nil {
		p := *m.Payload
		out.Payload = &p
	}
	return out
}

// Before total order (timestamp, id)
func (m *Message) Before(o *Message) bool {
	if m.Timestamp != o.Timestamp {
		return m.Timestamp < o.Timestamp
	}
	return m.ID < o.ID
}

// SortMessages ascending by (timestamp, id)
func SortMessages(msgs []Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Before(&msgs[j])
	})
}

// NextTimestamp keeps per-conversation timestamps strictly increasing,
// so commit order and (timestamp, id) order agree.
func NextTimestamp(now int64, last *LastMessage) int64 {
	if last != nil && now <= last.Timestamp {
		return last.Timestamp + 1
	}
	return now
}
