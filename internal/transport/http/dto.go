package http

import "time"

type ErrorResponse struct {
	Error string `json:"error"`
}

type MeetingItem struct {
	MeetingID string    `json:"meeting_id"`
	CreatorID string    `json:"creator_id"`
	Status    string    `json:"status"`
	Roster    []string  `json:"roster"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateMeetingResponse struct {
	MeetingID string `json:"meeting_id"`
}
