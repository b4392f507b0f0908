package domain

// Action websocket request action
type Action string

const (
	// SubscribeConversations websocket action subscribe_conversations
	SubscribeConversations Action = "subscribe_conversations"
	// UnsubscribeConversations websocket action unsubscribe_conversations
	UnsubscribeConversations Action = "unsubscribe_conversations"

	// EnterConversation websocket action enter_conversation
	EnterConversation Action = "enter_conversation"
	// LeaveConversation websocket action leave_conversation
	LeaveConversation Action = "leave_conversation"

	// SendMessage websocket action send_message
	SendMessage Action = "send_message"
	// SendOffer websocket action send_offer
	SendOffer Action = "send_offer"
	// RespondOffer websocket action respond_offer
	RespondOffer Action = "respond_offer"
	// MarkRead websocket action mark_read
	MarkRead Action = "mark_read"

	// GetUnread websocket action get_unread
	GetUnread Action = "get_unread"
	// ListMessages websocket action list_messages
	ListMessages Action = "list_messages"

	// ConversationsChanged server push, full conversation list
	ConversationsChanged Action = "conversations_changed"
	// MessagesChanged server push, full message list of one conversation
	MessagesChanged Action = "messages_changed"
)

// WSRequest websocket Request
type WSRequest struct {
	Action         string        `json:"action"`
	ConversationID string        `json:"conversation_id"`
	MessageID      string        `json:"message_id"`
	Content        string        `json:"content"`
	Decision       OfferStatus   `json:"decision"`
	Recipient      Participant   `json:"recipient"`
	Offer          *OfferDetails `json:"offer,omitempty"`
	Note           string        `json:"note"`

	// Kind / ReferenceID send_offer from the catalog when Offer is empty
	Kind        MessageType `json:"kind"`
	ReferenceID string      `json:"reference_id"`
	Grouped     bool        `json:"grouped"`
}

// WSResponse websocket Response
type WSResponse struct {
	Action    string                 `json:"action"`
	Success   bool                   `json:"success"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Error     string                 `json:"error,omitempty"`
	ErrorCode string                 `json:"error_code,omitempty"`
}
