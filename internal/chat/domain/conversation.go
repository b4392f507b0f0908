package domain

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"studio_marketplace/pkg"

	"golang.org/x/crypto/blake2b"
)

// CollectionName mongo collection / postgres table names
type CollectionName string

const (
	// Conversations 1 on 1 thread collection
	Conversations CollectionName = "conversations"
	// Messages message log collection
	Messages CollectionName = "messages"
)

// ParticipantDetails display snapshot of a participant at last write
type ParticipantDetails struct {
	DisplayName string `bson:"display_name" json:"display_name"`
	AvatarURL   string `bson:"avatar_url" json:"avatar_url"`
}

// LastMessage cached copy of the most recent message
type LastMessage struct {
	Content   string `bson:"content" json:"content"`
	Timestamp int64  `bson:"timestamp" json:"timestamp"`
	SenderID  string `bson:"sender_id" json:"sender_id"`
}

// Conversation 1 on 1 thread between exactly two participants
type Conversation struct {
	ID                 string                        `bson:"_id" json:"id"`
	Participants       []string                      `bson:"participants" json:"participants"`
	ParticipantDetails map[string]ParticipantDetails `bson:"participant_details" json:"participant_details"`
	LastMessage        *LastMessage                  `bson:"last_message,omitempty" json:"last_message,omitempty"`
	UnreadCount        map[string]int                `bson:"unread_count" json:"unread_count"`
	CreatedAt          int64                         `bson:"created_at" json:"created_at"`
}

// HasParticipant check userID belongs to the conversation
func (c *Conversation) HasParticipant(userID string) bool {
	return pkg.Contains(c.Participants, userID)
}

// Peer returns the other participant
func (c *Conversation) Peer(userID string) string {
	for _, p := range c.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}

// ActivityAt last message time, or creation time for an empty thread
func (c *Conversation) ActivityAt() int64 {
	if c.LastMessage != nil {
		return c.LastMessage.Timestamp
	}
	return c.CreatedAt
}

// Clone deep copy
func (c Conversation) Clone() Conversation {
	out := c
	out.Participants = append([]string(nil), c.Participants...)
	out.ParticipantDetails = make(map[string]ParticipantDetails, len(c.ParticipantDetails))
	for k, v := range c.ParticipantDetails {
		out.ParticipantDetails[k] = v
	}
	out.UnreadCount = make(map[string]int, len(c.UnreadCount))
	for k, v := range c.UnreadCount {
		out.UnreadCount[k] = v
	}
	if c.LastMessage != nil {
		lm := *c.LastMessage
		out.LastMessage = &lm
	}
	return out
}

// SortConversations most recent activity first, id as tiebreaker
func SortConversations(convs []Conversation) {
	sort.SliceStable(convs, func(i, j int) bool {
		ai, aj := convs[i].ActivityAt(), convs[j].ActivityAt()
		if ai != aj {
			return ai > aj
		}
		return convs[i].ID < convs[j].ID
	})
}

// ValidateUserID user ids are used as document keys (unread_count.<id>)
func ValidateUserID(userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: empty user id", ErrInvalidArgument)
	}
	if strings.ContainsAny(userID, ".\x00") || strings.HasPrefix(userID, "$") {
		return fmt.Errorf("%w: user id %q contains reserved characters", ErrInvalidArgument, userID)
	}
	return nil
}

// SortedPair validates and orders the two participants
func SortedPair(a, b string) ([2]string, error) {
	if err := ValidateUserID(a); err != nil {
		return [2]string{}, err
	}
	if err := ValidateUserID(b); err != nil {
		return [2]string{}, err
	}
	if a == b {
		return [2]string{}, fmt.Errorf("%w: a conversation needs two distinct participants", ErrInvalidArgument)
	}
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}, nil
}

// ConversationIDFor stable id for an unordered participant pair
func ConversationIDFor(a, b string) (string, error) {
	pair, err := SortedPair(a, b)
	if err != nil {
		return "", err
	}
	sum := blake2b.Sum256([]byte(pair[0] + "\x00" + pair[1]))
	return hex.EncodeToString(sum[:]), nil
}

// ConversationUnread unread counter of one conversation for one user
type ConversationUnread struct {
	ConversationID string `json:"conversation_id"`
	UnreadCount    int    `json:"unread_count"`
	LastActivityAt int64  `json:"last_activity_at"`
}

// UnreadSummary unread badge for a user
type UnreadSummary struct {
	Total         int                  `json:"total"`
	Conversations []ConversationUnread `json:"conversations"`
}
