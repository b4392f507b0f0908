package domain

// ChangeKind what changed in the store
type ChangeKind string

const (
	// ChangeConversation conversation created or summary updated
	ChangeConversation ChangeKind = "conversation"
	// ChangeMessageAppended a message was appended
	ChangeMessageAppended ChangeKind = "message_appended"
	// ChangePayloadStatus an offer payload status changed
	ChangePayloadStatus ChangeKind = "payload_status"
)

// ChangeEvent published after a write is committed. Subscribers treat it
// as a signal and re-read the current state.
type ChangeEvent struct {
	Kind           ChangeKind `json:"kind"`
	ConversationID string     `json:"conversation_id"`
	MessageID      string     `json:"message_id,omitempty"`
	At             int64      `json:"at"`
}

// UserChannel channel of a user's conversation list
func UserChannel(userID string) string {
	return "chat:user:" + userID
}

// ConversationChannel channel of one conversation's messages
func ConversationChannel(conversationID string) string {
	return "chat:conversation:" + conversationID
}

// BookingEventType outbound booking event type
type BookingEventType string

const (
	// OfferResolved an offer was accepted or declined
	OfferResolved BookingEventType = "offer_resolved"
)

// BookingEvent tells the job board that a negotiation finished
type BookingEvent struct {
	Type           BookingEventType `json:"type"`
	ConversationID string           `json:"conversation_id"`
	MessageID      string           `json:"message_id"`
	Kind           MessageType      `json:"kind"`
	ReferenceID    string           `json:"reference_id"`
	StudioID       string           `json:"studio_id"`
	OfferedBy      string           `json:"offered_by"`
	RespondedBy    string           `json:"responded_by"`
	Status         OfferStatus      `json:"status"`
	ResolvedAt     int64            `json:"resolved_at"`
}

// ApplicationUpdate inbound notice from the job board about an application
type ApplicationUpdate struct {
	StudioID         string `json:"studio_id"`
	StudioName       string `json:"studio_name"`
	StudioAvatar     string `json:"studio_avatar"`
	InstructorID     string `json:"instructor_id"`
	InstructorName   string `json:"instructor_name"`
	InstructorAvatar string `json:"instructor_avatar"`
	Content          string `json:"content"`
}
