package ingest

import (
	"bytes"
	"consultant-agent-backend/utils"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// SmartParseClient 托管OCR/Markdown转换服务的客户端。
// 上传文件与语言参数，返回转换后的文本
type SmartParseClient struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

var _ SmartParser = &SmartParseClient{}

func NewSmartParseClient(endpoint, apiKey string, timeout time.Duration) *SmartParseClient {
	return &SmartParseClient{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: utils.NewHTTPClient(utils.WithTimeout(timeout)),
	}
}

type smartParseResponse struct {
	Text string `json:"text"`
}

func (c *SmartParseClient) Parse(ctx context.Context, data []byte, fileName, language string) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("failed to write form file: %v", err)
	}
	if err := writer.WriteField("language", language); err != nil {
		return "", fmt.Errorf("failed to write language field: %v", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart writer: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call smart parse service: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("smart parse service returned %s: %s", resp.Status, respBody)
	}

	var parsed smartParseResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse response: %v", err)
	}

	return parsed.Text, nil
}
