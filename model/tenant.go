package model

import "time"

// Tenant 顾问账户，文档、会话与访问策略的归属方
type Tenant struct {
	ID        string    `gorm:"primarykey;size:36" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `gorm:"not null" json:"name"`

	// 智能体人设与指令，拼入系统提示词
	Persona string `gorm:"type:text" json:"persona"`

	// 语言偏好，用于OCR与语音转写
	Language string `gorm:"not null;default:zh" json:"language"`
}

func (Tenant) TableName() string {
	return "tenant"
}
