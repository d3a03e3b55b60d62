package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Cfg 全局配置实例，由 Load 初始化
var Cfg *Config

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	MySQL      MySQLConfig      `yaml:"mysql"`
	JWT        JWTConfig        `yaml:"jwt"`
	OSS        OSSConfig        `yaml:"oss"`
	MQ         MQConfig         `yaml:"mq"`
	Milvus     MilvusConfig     `yaml:"milvus"`
	Model      ModelConfig      `yaml:"model"`
	SmartParse SmartParseConfig `yaml:"smart_parse"`
	Transcribe TranscribeConfig `yaml:"transcribe"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Chat       ChatConfig       `yaml:"chat"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type MySQLConfig struct {
	DSN string `yaml:"dsn"`
}

type JWTConfig struct {
	SecretKey string `yaml:"secret_key"`
}

type OSSConfig struct {
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	AccessKeySecret string `yaml:"access_key_secret"`
	BucketName      string `yaml:"bucket_name"`
}

type MQConfig struct {
	NameServer []string `yaml:"name_server"`
}

type MilvusConfig struct {
	Endpoint   string `yaml:"endpoint"`
	APIKey     string `yaml:"api_key"`
	Collection string `yaml:"collection"`
	VectorDim  int    `yaml:"vector_dim"`
}

type ModelConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	ChatModel      string `yaml:"chat_model"`
	EmbeddingModel string `yaml:"embedding_model"`
}

// SmartParseConfig OCR/Markdown转换服务，未配置Endpoint时该能力不可用
type SmartParseConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
}

// TranscribeConfig 语音转写服务，未配置Endpoint时该能力不可用
type TranscribeConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
}

type IngestConfig struct {
	WindowSize      int           `yaml:"window_size"`
	Overlap         int           `yaml:"overlap"`
	MinFastChars    int           `yaml:"min_fast_chars"`
	MinTextChars    int           `yaml:"min_text_chars"`
	SummaryChars    int           `yaml:"summary_chars"`
	StrategyTimeout time.Duration `yaml:"strategy_timeout"`
	StaleTimeout    time.Duration `yaml:"stale_timeout"`
}

type RetrievalConfig struct {
	TopK     int     `yaml:"top_k"`
	MinScore float32 `yaml:"min_score"`
}

type ChatConfig struct {
	// 客户端中断生成时是否持久化已生成的部分回答
	PersistPartial bool `yaml:"persist_partial"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %v", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %v", err)
	}

	cfg.applyDefaults()
	Cfg = cfg
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Milvus.Collection == "" {
		c.Milvus.Collection = "doc_chunk"
	}
	if c.Milvus.VectorDim == 0 {
		c.Milvus.VectorDim = 1024
	}
	if c.Ingest.WindowSize == 0 {
		c.Ingest.WindowSize = 1000
	}
	if c.Ingest.Overlap == 0 {
		c.Ingest.Overlap = 200
	}
	if c.Ingest.MinFastChars == 0 {
		c.Ingest.MinFastChars = 50
	}
	if c.Ingest.MinTextChars == 0 {
		c.Ingest.MinTextChars = 10
	}
	if c.Ingest.SummaryChars == 0 {
		c.Ingest.SummaryChars = 300
	}
	if c.Ingest.StrategyTimeout == 0 {
		c.Ingest.StrategyTimeout = 5 * time.Minute
	}
	if c.Ingest.StaleTimeout == 0 {
		c.Ingest.StaleTimeout = 30 * time.Minute
	}
	if c.Retrieval.TopK == 0 {
		c.Retrieval.TopK = 5
	}
	if c.Retrieval.MinScore == 0 {
		c.Retrieval.MinScore = 0.5
	}
}

// SmartParseEnabled 智能解析能力是否已配置，启动时决定一次
func (c *Config) SmartParseEnabled() bool {
	return c.SmartParse.Endpoint != ""
}

func (c *Config) TranscribeEnabled() bool {
	return c.Transcribe.Endpoint != ""
}
