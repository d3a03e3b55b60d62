package transcription

import (
	"consultant-agent-backend/utils"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	modelName  = "paraformer-realtime-v2"
	sampleRate = 16000

	// 每帧发送的音频字节数
	audioFrameSize = 1024
)

type Header struct {
	Action       string `json:"action"`
	TaskID       string `json:"task_id"`
	Streaming    string `json:"streaming"`
	Event        string `json:"event"`
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

type Output struct {
	Sentence struct {
		BeginTime   int64  `json:"begin_time"`
		EndTime     *int64 `json:"end_time"`
		Text        string `json:"text"`
		SentenceEnd bool   `json:"sentence_end"`
	} `json:"sentence"`
}

type Payload struct {
	TaskGroup  string `json:"task_group"`
	Task       string `json:"task"`
	Function   string `json:"function"`
	Model      string `json:"model"`
	Parameters Params `json:"parameters"`
	Input      Input  `json:"input"`
	Output     Output `json:"output,omitempty"`
}

type Params struct {
	Format        string   `json:"format"`
	SampleRate    int      `json:"sample_rate"`
	LanguageHints []string `json:"language_hints"`
}

type Input struct {
}

type Event struct {
	Header  Header  `json:"header"`
	Payload Payload `json:"payload"`
}

// Client 全双工语音转写服务客户端
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

var _ Transcriber = &Client{}

func NewClient(endpoint, apiKey string) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		// 音频下载的时长由调用方的context控制，不设固定超时
		httpClient: utils.NewHTTPClient(utils.WithTimeout(0)),
	}
}

// Transcribe 拉取签名URL指向的音频，通过WebSocket流式送入转写服务，
// 汇总完整句子作为转写结果
func (c *Client) Transcribe(ctx context.Context, audioURL, language string) (string, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.apiKey)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.endpoint, header)
	if err != nil {
		return "", fmt.Errorf("failed to connect transcription service: %v", err)
	}
	defer conn.Close()

	// 缓冲为1：task-failed可能先于task-started到达，此时Transcribe不会
	// 去收taskStarted/taskDone，接收goroutine不能因此阻塞泄漏
	taskStarted := make(chan bool, 1)
	taskDone := make(chan bool, 1)
	taskErr := make(chan error, 1)
	var result strings.Builder

	// 异步接收WebSocket消息
	go startResultReceiver(conn, taskStarted, taskDone, taskErr, &result)

	// 发送run-task命令
	taskID, err := sendRunTaskCmd(conn, language)
	if err != nil {
		return "", fmt.Errorf("failed to send run-task cmd: %v", err)
	}

	// 等待task-started事件
	if err := waitForTaskStarted(ctx, taskStarted); err != nil {
		return "", fmt.Errorf("failed to wait for task started: %v", err)
	}

	// 发送音频数据
	if err := c.sendAudioData(ctx, conn, audioURL); err != nil {
		return "", fmt.Errorf("failed to send audio data: %v", err)
	}

	// 发送finish-task命令
	if err := sendFinishTaskCmd(conn, taskID); err != nil {
		return "", fmt.Errorf("failed to send finish-task cmd: %v", err)
	}

	select {
	case <-taskDone:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	select {
	case err := <-taskErr:
		return "", err
	default:
	}

	return result.String(), nil
}

func startResultReceiver(conn *websocket.Conn, taskStarted chan<- bool, taskDone chan<- bool, taskErr chan<- error, result *strings.Builder) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			slog.Error("Failed to read server message", "err", err)
			return
		}

		var event Event
		if err = json.Unmarshal(message, &event); err != nil {
			slog.Error("Failed to parse event", "err", err)
			continue
		}

		if handleEvent(event, taskStarted, taskDone, taskErr, result) {
			return
		}
	}
}

func sendRunTaskCmd(conn *websocket.Conn, language string) (string, error) {
	runTaskCmd, taskID, err := generateRunTaskCmd(language)
	if err != nil {
		return "", fmt.Errorf("failed to generate run-task cmd: %v", err)
	}

	err = conn.WriteMessage(websocket.TextMessage, []byte(runTaskCmd))
	if err != nil {
		return "", fmt.Errorf("failed to write message: %v", err)
	}

	return taskID, nil
}

func waitForTaskStarted(ctx context.Context, taskStarted chan bool) error {
	select {
	case <-taskStarted:
		slog.Debug("start task successfully")
	case <-time.After(10 * time.Second):
		return fmt.Errorf("timeout waiting for task-started")
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// sendAudioData 从签名URL流式读取音频并分帧发送
func (c *Client) sendAudioData(ctx context.Context, conn *websocket.Conn, audioURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create audio request: %v", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch audio: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected audio fetch status: %s", resp.Status)
	}

	buf := make([]byte, audioFrameSize)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if err := conn.WriteMessage(websocket.BinaryMessage, buf[:n]); err != nil {
				return fmt.Errorf("failed to send audio data: %v", err)
			}
		}

		if err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("error reading audio: %v", err)
		}
	}
	return nil
}

func sendFinishTaskCmd(conn *websocket.Conn, taskID string) error {
	finishTaskCmd, err := generateFinishTaskCmd(taskID)
	if err != nil {
		return fmt.Errorf("failed to generate finish-task cmd: %v", err)
	}

	err = conn.WriteMessage(websocket.TextMessage, []byte(finishTaskCmd))
	if err != nil {
		return fmt.Errorf("failed to write message: %v", err)
	}
	return nil
}

func handleEvent(event Event, taskStarted chan<- bool, taskDone chan<- bool, taskErr chan<- error, result *strings.Builder) bool {
	switch event.Header.Event {
	case "task-started":
		slog.Debug("receive task-started event")
		taskStarted <- true
	case "result-generated":
		// 若识别出完整的句子，将结果写入result
		if event.Payload.Output.Sentence.SentenceEnd {
			result.WriteString(event.Payload.Output.Sentence.Text)
		}
	case "task-finished":
		slog.Debug("task finished")
		taskDone <- true
		return true
	case "task-failed":
		taskErr <- taskFailedError(event)
		taskDone <- true
		return true
	default:
		slog.Info("unexpected event", "event", event)
	}
	return false
}

func taskFailedError(event Event) error {
	if event.Header.ErrorMessage != "" {
		return fmt.Errorf("transcription task failed: %s", event.Header.ErrorMessage)
	}
	return fmt.Errorf("transcription task failed due to unknown reason")
}

func generateRunTaskCmd(language string) (string, string, error) {
	taskID := uuid.New().String()
	runTaskCmd := Event{
		Header: Header{
			Action:    "run-task",
			TaskID:    taskID,
			Streaming: "duplex",
		},
		Payload: Payload{
			TaskGroup: "audio",
			Task:      "asr",
			Function:  "recognition",
			Model:     modelName,
			Parameters: Params{
				Format:        "wav",
				SampleRate:    sampleRate,
				LanguageHints: []string{language},
			},
			Input: Input{},
		},
	}
	runTaskCmdJSON, err := json.Marshal(runTaskCmd)
	return string(runTaskCmdJSON), taskID, err
}

func generateFinishTaskCmd(taskID string) (string, error) {
	finishTaskCmd := Event{
		Header: Header{
			Action:    "finish-task",
			TaskID:    taskID,
			Streaming: "duplex",
		},
		Payload: Payload{
			Input: Input{},
		},
	}
	finishTaskCmdJSON, err := json.Marshal(finishTaskCmd)
	return string(finishTaskCmdJSON), err
}
