package response

import "time"

type DocumentResponse struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	FileName     string    `json:"file_name"`
	MediaKind    string    `json:"media_kind"`
	Status       string    `json:"status"`
	CharCount    int       `json:"char_count"`
	Summary      string    `json:"summary"`
	ErrorMessage string    `json:"error_message"`
	AccessLevel  int       `json:"access_level"`
	Tags         []string  `json:"tags"`
}

type GetDocumentsResponse struct {
	Documents []DocumentResponse `json:"documents"`
}

type RegisterDocumentResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type PresignedURLResponse struct {
	URL        string `json:"url"`
	StorageKey string `json:"storage_key,omitempty"`
}
