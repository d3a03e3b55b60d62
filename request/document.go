package request

// RegisterDocumentRequest 在前端将文件成功传输到OSS后调用
type RegisterDocumentRequest struct {
	FileName    string   `json:"file_name" binding:"required"`
	StorageKey  string   `json:"storage_key" binding:"required"`
	MediaKind   string   `json:"media_kind"`
	Tags        []string `json:"tags"`
	AccessLevel int      `json:"access_level"`
}
