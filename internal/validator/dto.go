package validator

// ===== CHAT DTOs =====

// SendMessageRequest is the payload for posting a message, over REST and the
// socket alike.
type SendMessageRequest struct {
	GroupID string `json:"group_id" validate:"required"`
	Content string `json:"content" validate:"required,message_content"`
}

// GetMessagesRequest drives the history endpoint. Before is the paging
// cursor returned by the previous call.
type GetMessagesRequest struct {
	GroupID string `json:"group_id" validate:"required"`
	Limit   int    `json:"limit" validate:"omitempty,min=1,max=200"`
	Before  *uint  `json:"before" validate:"omitempty,min=1"`
}

// ===== LEETCODE DTOs =====

// SyncProfileRequest links a student to their LeetCode profile and triggers
// an immediate sync.
type SyncProfileRequest struct {
	ProfileURL string `json:"profile_url" validate:"required,leetcode_url"`
}

// BatchSyncRequest scopes a full sync run. Zero values mean all active
// students.
type BatchSyncRequest struct {
	BatchStartYear int    `json:"batch_start_year" validate:"omitempty,min=2000,max=2100"`
	ClassSection   string `json:"class_section" validate:"omitempty,max=10"`
}

// LeaderboardRequest bounds the ranking query
type LeaderboardRequest struct {
	Limit          int    `json:"limit" validate:"omitempty,min=1,max=200"`
	BatchStartYear int    `json:"batch_start_year" validate:"omitempty,min=2000,max=2100"`
	ClassSection   string `json:"class_section" validate:"omitempty,max=10"`
}
