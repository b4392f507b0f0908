package domain

// Participant identity snapshot of one side of a conversation
type Participant struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

// Details participant details stored on the conversation
func (p Participant) Details() ParticipantDetails {
	return ParticipantDetails{DisplayName: p.DisplayName, AvatarURL: p.AvatarURL}
}

// Session authenticated caller, taken from the token claims
type Session struct {
	UserID      string
	DisplayName string
	AvatarURL   string
}

// Participant session as conversation participant
func (s Session) Participant() Participant {
	return Participant{UserID: s.UserID, DisplayName: s.DisplayName, AvatarURL: s.AvatarURL}
}
