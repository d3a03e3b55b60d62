package controller

import (
	"consultant-agent-backend/dao"
	"consultant-agent-backend/middleware"
	"consultant-agent-backend/model"
	"consultant-agent-backend/request"
	"consultant-agent-backend/response"
	"consultant-agent-backend/service/mq"
	"consultant-agent-backend/service/storage"
	"consultant-agent-backend/service/vectorindex"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const presignTTL = 15 * time.Minute

type DocumentController struct {
	store storage.ObjectStore
	queue *mq.Service
	index vectorindex.Index
}

func NewDocumentController(store storage.ObjectStore, queue *mq.Service, index vectorindex.Index) *DocumentController {
	return &DocumentController{
		store: store,
		queue: queue,
		index: index,
	}
}

// RegisterDocument 在前端将文件成功传输到OSS后调用。
// 创建PENDING文档并投递处理任务，不等待处理完成
func (dc *DocumentController) RegisterDocument(c *gin.Context) {
	var req request.RegisterDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error(ErrParseRequest.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrParseRequest.Error(),
		})
		return
	}

	grant := middleware.GetGrant(c)

	mediaKind := model.MediaKind(req.MediaKind)
	if mediaKind == "" {
		mediaKind = model.MediaKindFromFileName(req.FileName)
	}

	doc := &model.Document{
		ID:          uuid.New().String(),
		TenantID:    grant.TenantID,
		FileName:    req.FileName,
		StorageKey:  req.StorageKey,
		MediaKind:   mediaKind,
		Status:      model.StatusPending,
		AccessLevel: req.AccessLevel,
		Tags:        req.Tags,
	}
	if err := dao.CreateDocument(doc); err != nil {
		slog.Error(ErrRegisterDocument.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrRegisterDocument.Error(),
		})
		return
	}

	if err := dc.queue.EnqueueIngest(c.Request.Context(), doc.ID); err != nil {
		slog.Error(ErrEnqueueIngest.Error(), "document_id", doc.ID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrEnqueueIngest.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, response.Response{
		Data: response.RegisterDocumentResponse{
			ID:     doc.ID,
			Status: string(doc.Status),
		},
	})
}

func (dc *DocumentController) GetDocuments(c *gin.Context) {
	grant := middleware.GetGrant(c)
	docs, err := dao.GetDocumentsByTenant(grant.TenantID)
	if err != nil {
		slog.Error(ErrGetDocuments.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrGetDocuments.Error(),
		})
		return
	}

	var resp response.GetDocumentsResponse
	for _, doc := range docs {
		resp.Documents = append(resp.Documents, response.DocumentResponse{
			ID:           doc.ID,
			CreatedAt:    doc.CreatedAt,
			FileName:     doc.FileName,
			MediaKind:    string(doc.MediaKind),
			Status:       string(doc.Status),
			CharCount:    doc.CharCount,
			Summary:      doc.Summary,
			ErrorMessage: doc.ErrorMessage,
			AccessLevel:  doc.AccessLevel,
			Tags:         doc.Tags,
		})
	}

	c.JSON(http.StatusOK, response.Response{
		Data: resp,
	})
}

// ReprocessDocument 对FAILED/COMPLETED文档重新执行处理流水线
func (dc *DocumentController) ReprocessDocument(c *gin.Context) {
	doc, ok := dc.ownedDocument(c)
	if !ok {
		return
	}

	if err := dao.ResetDocument(doc.ID); err != nil {
		slog.Error(ErrReprocessDocument.Error(), "document_id", doc.ID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrReprocessDocument.Error(),
		})
		return
	}

	if err := dc.queue.EnqueueIngest(c.Request.Context(), doc.ID); err != nil {
		slog.Error(ErrEnqueueIngest.Error(), "document_id", doc.ID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrEnqueueIngest.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response.Response{
		Data: response.RegisterDocumentResponse{
			ID:     doc.ID,
			Status: string(model.StatusPending),
		},
	})
}

// DeleteDocument 删除chunk、OSS对象与元数据
func (dc *DocumentController) DeleteDocument(c *gin.Context) {
	doc, ok := dc.ownedDocument(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := dc.index.DeleteDocument(ctx, doc.TenantID, doc.ID); err != nil {
		slog.Error(ErrDeleteDocument.Error(), "document_id", doc.ID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrDeleteDocument.Error(),
		})
		return
	}
	if err := dc.store.Delete(ctx, doc.StorageKey); err != nil {
		slog.Error(ErrDeleteDocument.Error(), "document_id", doc.ID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrDeleteDocument.Error(),
		})
		return
	}
	if err := dao.DeleteDocument(doc.ID); err != nil {
		slog.Error(ErrDeleteDocument.Error(), "document_id", doc.ID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrDeleteDocument.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response.Response{})
}

// GetUploadURL 生成直传OSS的签名URL与存储key
func (dc *DocumentController) GetUploadURL(c *gin.Context) {
	grant := middleware.GetGrant(c)
	fileName := c.Query("file-name")
	if fileName == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrParseRequest.Error(),
		})
		return
	}

	storageKey := fmt.Sprintf("%s/%s-%s", grant.TenantID, uuid.New().String(), fileName)
	url, err := dc.store.PresignPut(c.Request.Context(), storageKey, presignTTL)
	if err != nil {
		slog.Error(ErrGetPresignedURL.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrGetPresignedURL.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response.Response{
		Data: response.PresignedURLResponse{
			URL:        url,
			StorageKey: storageKey,
		},
	})
}

func (dc *DocumentController) GetDownloadURL(c *gin.Context) {
	doc, ok := dc.ownedDocument(c)
	if !ok {
		return
	}

	url, err := dc.store.PresignGet(c.Request.Context(), doc.StorageKey, presignTTL)
	if err != nil {
		slog.Error(ErrGetPresignedURL.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrGetPresignedURL.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response.Response{
		Data: response.PresignedURLResponse{
			URL: url,
		},
	})
}

// ownedDocument 加载路径参数指定的文档并校验归属租户
func (dc *DocumentController) ownedDocument(c *gin.Context) (*model.Document, bool) {
	grant := middleware.GetGrant(c)
	doc, err := dao.GetDocumentByID(c.Param("id"))
	if err != nil {
		slog.Error(ErrGetDocuments.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrGetDocuments.Error(),
		})
		return nil, false
	}
	if doc == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, response.Response{
			Msg: ErrDocumentNotFound.Error(),
		})
		return nil, false
	}
	if doc.TenantID != grant.TenantID {
		// 越权访问显式拒绝，不伪装成"不存在数据"
		c.AbortWithStatusJSON(http.StatusForbidden, response.Response{
			Msg: ErrAccessDenied.Error(),
		})
		return nil, false
	}
	return doc, true
}
