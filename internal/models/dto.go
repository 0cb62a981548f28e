package models

import "time"

// ChatMessage is the message shape sent to clients, over both the REST
// history endpoint and the realtime broadcast.
type ChatMessage struct {
	ID             uint      `json:"id"`
	GroupID        string    `json:"group_id"`
	UserID         string    `json:"user_id"`
	Content        string    `json:"content"`
	IsModerated    bool      `json:"is_moderated"`
	CreatedAt      time.Time `json:"created_at"`
	FullName       string    `json:"full_name,omitempty"`
	RegisterNumber string    `json:"register_number,omitempty"`
}

// NewChatMessage builds the client view of a stored message
func NewChatMessage(m *Message) ChatMessage {
	cm := ChatMessage{
		ID:          m.ID,
		GroupID:     m.GroupID,
		UserID:      m.UserID,
		Content:     m.Content,
		IsModerated: m.IsModerated,
		CreatedAt:   m.CreatedAt,
	}
	if m.User != nil {
		cm.FullName = m.User.FullName
		cm.RegisterNumber = m.User.RegisterNumber
	}
	return cm
}

// MessagePage is one page of group history, oldest first. NextCursor is set
// only when older messages remain; feed it back as the cursor of the next
// call to continue backwards.
type MessagePage struct {
	Messages   []ChatMessage `json:"messages"`
	HasMore    bool          `json:"has_more"`
	NextCursor *uint         `json:"next_cursor,omitempty"`
}

// LeaderboardEntry is one row of the solved-count ranking
type LeaderboardEntry struct {
	Rank           int    `json:"rank"`
	UserID         string `json:"user_id"`
	FullName       string `json:"full_name"`
	RegisterNumber string `json:"register_number"`
	Username       string `json:"username"`
	TotalSolved    int    `json:"total_solved"`
	EasySolved     int    `json:"easy_solved"`
	MediumSolved   int    `json:"medium_solved"`
	HardSolved     int    `json:"hard_solved"`
}

// CohortScope narrows batch operations to one cohort. The zero value means
// all active students.
type CohortScope struct {
	BatchStartYear int    `json:"batch_start_year,omitempty"`
	ClassSection   string `json:"class_section,omitempty"`
}
