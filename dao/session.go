package dao

import (
	"consultant-agent-backend/model"
	"errors"
	"time"

	"gorm.io/gorm"
)

func CreateSession(session *model.Session) error {
	return DB.Create(session).Error
}

func GetSessionByID(sessionID string) (*model.Session, error) {
	var session model.Session
	if err := DB.Where("session_id = ?", sessionID).
		First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

// GetSessionsByTenantAndEmail 按最近活跃排序
func GetSessionsByTenantAndEmail(tenantID, email string) ([]model.Session, error) {
	var sessions []model.Session
	if err := DB.Where("tenant_id = ? AND user_email = ?", tenantID, email).
		Order("updated_at DESC").
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func DeleteSession(sessionID string) error {
	// 删除会话
	err := DB.Where("session_id = ?", sessionID).
		Delete(&model.Session{}).Error
	if err != nil {
		return err
	}

	// 删除会话内的对话记录
	err = DB.Where("session_id = ?", sessionID).
		Delete(&model.Message{}).Error
	if err != nil {
		return err
	}

	return nil
}

func GetMessagesBySessionID(sessionID string) ([]model.Message, error) {
	var messages []model.Message
	if err := DB.Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

func CreateMessage(message *model.Message) error {
	return DB.Create(message).Error
}

func GetMessageByID(id uint) (*model.Message, error) {
	var message model.Message
	if err := DB.Where("id = ?", id).First(&message).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &message, nil
}

func UpdateMessageRating(id uint, rating int) error {
	return DB.Model(&model.Message{}).
		Where("id = ?", id).
		Update("rating", rating).Error
}

func UpdateSessionTitle(sessionID, title string) error {
	return DB.Model(&model.Session{}).
		Where("session_id = ?", sessionID).
		Update("title", title).Error
}

// TouchSession 刷新会话活跃时间，使会话列表按最近对话排序
func TouchSession(sessionID string) error {
	return DB.Model(&model.Session{}).
		Where("session_id = ?", sessionID).
		Update("updated_at", time.Now()).Error
}
