package request

type ChatRequest struct {
	// 会话ID，传"new"表示新建会话
	SessionID string `json:"session_id" binding:"required"`

	Message string `json:"message" binding:"required"`
}

type UpdateSessionTitleRequest struct {
	Title string `json:"title" binding:"required"`
}

type MessageFeedbackRequest struct {
	MessageID uint `json:"message_id" binding:"required"`

	// 1点赞，-1点踩
	Rating int `json:"rating" binding:"required,oneof=1 -1"`
}

type UpdateTenantRequest struct {
	Name     *string `json:"name"`
	Persona  *string `json:"persona"`
	Language *string `json:"language"`
}
