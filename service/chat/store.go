package chat

import (
	"consultant-agent-backend/dao"
	"consultant-agent-backend/model"
)

// ChatStore 编排器对会话与消息的读写，注入以便测试替换
type ChatStore interface {
	GetSession(sessionID string) (*model.Session, error)
	CreateSession(session *model.Session) error
	Messages(sessionID string) ([]model.Message, error)
	AddMessage(message *model.Message) error
	Touch(sessionID string) error
	Tenant(tenantID string) (*model.Tenant, error)
}

// DAOChatStore 默认实现，落到dao层
type DAOChatStore struct{}

var _ ChatStore = DAOChatStore{}

func (DAOChatStore) GetSession(sessionID string) (*model.Session, error) {
	return dao.GetSessionByID(sessionID)
}

func (DAOChatStore) CreateSession(session *model.Session) error {
	return dao.CreateSession(session)
}

func (DAOChatStore) Messages(sessionID string) ([]model.Message, error) {
	return dao.GetMessagesBySessionID(sessionID)
}

func (DAOChatStore) AddMessage(message *model.Message) error {
	return dao.CreateMessage(message)
}

func (DAOChatStore) Touch(sessionID string) error {
	return dao.TouchSession(sessionID)
}

func (DAOChatStore) Tenant(tenantID string) (*model.Tenant, error) {
	return dao.GetTenantByID(tenantID)
}
