package dao

import (
	"consultant-agent-backend/model"
	"errors"
	"time"

	"gorm.io/gorm"
)

func CreateDocument(doc *model.Document) error {
	return DB.Create(doc).Error
}

func GetDocumentByID(id string) (*model.Document, error) {
	var doc model.Document
	if err := DB.Where("id = ?", id).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

func GetDocumentsByTenant(tenantID string) ([]model.Document, error) {
	var docs []model.Document
	if err := DB.Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

func DeleteDocument(id string) error {
	return DB.Where("id = ?", id).Delete(&model.Document{}).Error
}

// ClaimDocument 将文档置为PROCESSING并清空上一轮的结果字段，
// 避免重跑失败后残留旧的摘要与字符数
func ClaimDocument(id string) error {
	return DB.Model(&model.Document{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        model.StatusProcessing,
			"error_message": "",
			"summary":       "",
			"char_count":    0,
		}).Error
}

// ResetDocument 重新处理前将文档置回PENDING
func ResetDocument(id string) error {
	return DB.Model(&model.Document{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        model.StatusPending,
			"error_message": "",
		}).Error
}

// CompleteDocument 处理成功，写入摘要与字符数
func CompleteDocument(id, summary string, charCount int) error {
	return DB.Model(&model.Document{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     model.StatusCompleted,
			"summary":    summary,
			"char_count": charCount,
		}).Error
}

// FailDocument 处理失败，记录可读的错误信息
func FailDocument(id, message string) error {
	return DB.Model(&model.Document{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        model.StatusFailed,
			"error_message": message,
		}).Error
}

// FailStaleProcessing 将超时滞留在PROCESSING的文档置为失败，返回处理的行数
func FailStaleProcessing(olderThan time.Duration) (int64, error) {
	deadline := time.Now().Add(-olderThan)
	result := DB.Model(&model.Document{}).
		Where("status = ? AND updated_at < ?", model.StatusProcessing, deadline).
		Updates(map[string]any{
			"status":        model.StatusFailed,
			"error_message": "processing timed out",
		})
	return result.RowsAffected, result.Error
}
