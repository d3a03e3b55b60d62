package model

import (
	"path/filepath"
	"strings"
	"time"
)

type MediaKind string

const (
	MediaKindText  MediaKind = "text"
	MediaKindAudio MediaKind = "audio"
	MediaKindVideo MediaKind = "video"
)

type Status string

const (
	// 文件上传完成，等待处理
	StatusPending Status = "PENDING"

	// worker已领取任务
	StatusProcessing Status = "PROCESSING"

	// 向量化处理完成
	StatusCompleted Status = "COMPLETED"

	// 向量化处理失败
	StatusFailed Status = "FAILED"
)

// Document 知识文件元数据
// 建立联合索引 (tenant_id, created_at)
type Document struct {
	ID        string    `gorm:"primarykey;size:36" json:"id"`
	CreatedAt time.Time `gorm:"not null;index:idx_tenant_created" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
	TenantID  string    `gorm:"not null;size:36;index:idx_tenant_created" json:"tenant_id"`
	FileName  string    `gorm:"not null" json:"file_name"`

	// 文件在OSS上的完整路径，不包含bucket名称
	StorageKey string `gorm:"not null" json:"storage_key"`

	MediaKind MediaKind `gorm:"not null;default:text" json:"media_kind"`

	// 文件处理状态
	Status Status `gorm:"not null;default:PENDING" json:"status"`

	// 提取文本的字符数与摘要，处理完成后写入
	CharCount int    `json:"char_count"`
	Summary   string `gorm:"type:text" json:"summary"`

	// 处理失败时的错误信息
	ErrorMessage string `gorm:"type:text" json:"error_message"`

	// 检索该文件所需的最低访问等级
	AccessLevel int `gorm:"not null;default:0" json:"access_level"`

	// 标签列表，JSON序列化存储
	Tags TagList `gorm:"type:text;serializer:json" json:"tags"`
}

func (Document) TableName() string {
	return "document"
}

type TagList []string

// IsTerminal 文档是否处于终态
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// MediaKindFromFileName 根据扩展名推断媒体类型，未知扩展名按文本处理
func MediaKindFromFileName(fileName string) MediaKind {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	switch ext {
	case "mp3", "wav", "m4a", "aac", "ogg":
		return MediaKindAudio
	case "mp4", "mov", "avi", "mkv", "webm":
		return MediaKindVideo
	default:
		return MediaKindText
	}
}
