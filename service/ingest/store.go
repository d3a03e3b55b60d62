package ingest

import (
	"consultant-agent-backend/dao"
	"consultant-agent-backend/model"
	"time"
)

// DocumentStore 流水线对文档元数据的读写，注入以便测试替换
type DocumentStore interface {
	Get(id string) (*model.Document, error)
	// Claim 置为PROCESSING并清空上一轮的摘要、字符数与错误信息
	Claim(id string) error
	Complete(id, summary string, charCount int) error
	Fail(id, message string) error
	FailStale(olderThan time.Duration) (int64, error)

	// Language 租户的语言偏好，用于OCR与转写
	Language(tenantID string) (string, error)
}

const defaultLanguage = "zh"

// DAODocumentStore 默认实现，落到dao层
type DAODocumentStore struct{}

var _ DocumentStore = DAODocumentStore{}

func (DAODocumentStore) Get(id string) (*model.Document, error) {
	return dao.GetDocumentByID(id)
}

func (DAODocumentStore) Claim(id string) error {
	return dao.ClaimDocument(id)
}

func (DAODocumentStore) Complete(id, summary string, charCount int) error {
	return dao.CompleteDocument(id, summary, charCount)
}

func (DAODocumentStore) Fail(id, message string) error {
	return dao.FailDocument(id, message)
}

func (DAODocumentStore) FailStale(olderThan time.Duration) (int64, error) {
	return dao.FailStaleProcessing(olderThan)
}

func (DAODocumentStore) Language(tenantID string) (string, error) {
	tenant, err := dao.GetTenantByID(tenantID)
	if err != nil {
		return "", err
	}
	if tenant == nil || tenant.Language == "" {
		return defaultLanguage, nil
	}
	return tenant.Language, nil
}
