package controller

import "errors"

var (
	ErrParseRequest = errors.New("failed to parse request")

	ErrRegisterDocument  = errors.New("failed to register document")
	ErrGetDocuments      = errors.New("failed to get documents")
	ErrDeleteDocument    = errors.New("failed to delete document")
	ErrReprocessDocument = errors.New("failed to reprocess document")
	ErrDocumentNotFound  = errors.New("document not found")
	ErrGetPresignedURL   = errors.New("failed to get presigned url")
	ErrEnqueueIngest     = errors.New("failed to enqueue document processing")

	ErrCreateSession      = errors.New("failed to create a chat session")
	ErrGetSessions        = errors.New("failed to get chat sessions")
	ErrDeleteSession      = errors.New("failed to delete a chat session")
	ErrGetSessionMessages = errors.New("failed to get session messages")
	ErrUpdateSessionTitle = errors.New("failed to update session title")
	ErrSessionNotFound    = errors.New("session not found")

	ErrChatTurn        = errors.New("error while generating response")
	ErrUpdateFeedback  = errors.New("failed to save message feedback")
	ErrMessageNotFound = errors.New("message not found")

	ErrGetTenant    = errors.New("failed to get tenant")
	ErrUpdateTenant = errors.New("failed to update tenant")

	ErrAccessDenied = errors.New("access denied")
)
