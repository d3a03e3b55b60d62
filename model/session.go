package model

import "time"

const DefaultSessionTitle = "新会话"

// NewSessionID 请求中表示新建会话的哨兵值
const NewSessionID = "new"

type Session struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	// 会话按最近活跃排序，每轮对话落库后刷新
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`

	TenantID  string `gorm:"not null;size:36;index" json:"tenant_id"`
	UserEmail string `gorm:"not null;index" json:"user_email"`
	SessionID string `gorm:"not null;uniqueIndex" json:"session_id"`
	Title     string `json:"title"`
}

func (Session) TableName() string {
	return "chat_session"
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message 建立联合索引 (session_id, created_at)
type Message struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index:idx_session_created" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	SessionID string    `gorm:"not null;index:idx_session_created" json:"session_id"`
	Role      string    `gorm:"not null" json:"role"`
	Content   string    `gorm:"type:text" json:"content"`

	// 用户反馈：1点赞，-1点踩，0未评价
	Rating int `gorm:"not null;default:0" json:"rating"`
}

func (Message) TableName() string {
	return "chat_message"
}
