package response

import "time"

type SessionResponse struct {
	SessionID string    `json:"session_id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
}

type GetSessionsResponse struct {
	Sessions []SessionResponse `json:"sessions"`
}

type MessageResponse struct {
	ID        uint      `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Rating    int       `json:"rating"`
}

type GetSessionMessagesResponse struct {
	Messages []MessageResponse `json:"messages"`
}

type TenantResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Persona  string `json:"persona"`
	Language string `json:"language"`
}
