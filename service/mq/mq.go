package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/apache/rocketmq-client-go/v2"
	c "github.com/apache/rocketmq-client-go/v2/consumer"
	"github.com/apache/rocketmq-client-go/v2/primitive"
	"github.com/apache/rocketmq-client-go/v2/producer"
	"github.com/apache/rocketmq-client-go/v2/rlog"
	"github.com/avast/retry-go/v4"
)

const (
	TopicDocumentIngest = "topic_document_ingest"
	TagIngest           = "tag_ingest"

	consumeGroupIngest = "cg_document_ingest"

	sendMessageAttempts  = 3
	maxReconsumeTimes    = 5
	consumeGoroutineNums = 10
)

// IngestMessage 注册/重新处理文档时投递的任务
type IngestMessage struct {
	DocumentID string `json:"document_id"`
}

// IngestHandler 消费侧的文档处理入口
type IngestHandler func(ctx context.Context, documentID string) error

// Service 消息队列服务。上传注册只负责投递任务，
// 处理由消费者异步执行，不阻塞上传方
type Service struct {
	producer rocketmq.Producer
	consumer rocketmq.PushConsumer
}

func New(nameServers []string) (*Service, error) {
	// 设置RocketMQ客户端（使用rlog）的日志级别
	rlog.SetLogLevel("warn")

	consumer, err := rocketmq.NewPushConsumer(
		c.WithNameServer(nameServers),
		c.WithGroupName(consumeGroupIngest),
		c.WithConsumerModel(c.Clustering),
		c.WithConsumeFromWhere(c.ConsumeFromLastOffset),
		c.WithMaxReconsumeTimes(maxReconsumeTimes),
		c.WithConsumeGoroutineNums(consumeGoroutineNums),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %v", err)
	}

	producer, err := rocketmq.NewProducer(
		producer.WithNameServer(nameServers),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %v", err)
	}

	return &Service{
		producer: producer,
		consumer: consumer,
	}, nil
}

// Run 订阅处理任务并启动生产者与消费者
func (s *Service) Run(handler IngestHandler) error {
	selector := c.MessageSelector{
		Type:       c.TAG,
		Expression: TagIngest,
	}

	err := s.consumer.Subscribe(TopicDocumentIngest, selector, func(ctx context.Context, messages ...*primitive.MessageExt) (c.ConsumeResult, error) {
		for _, msg := range messages {
			var ingestMsg IngestMessage
			if err := json.Unmarshal(msg.Body, &ingestMsg); err != nil {
				slog.Error("Failed to unmarshal ingest message",
					"msg_id", msg.MsgId,
					"err", err,
				)
				continue
			}

			if err := handler(ctx, ingestMsg.DocumentID); err != nil {
				slog.Error("Failed to process document",
					"document_id", ingestMsg.DocumentID,
					"msg_id", msg.MsgId,
					"err", err,
				)
				// 处理错误已收口为文档的FAILED状态，不重投
			}
		}
		return c.ConsumeSuccess, nil
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %v", TopicDocumentIngest, err)
	}

	if err := s.producer.Start(); err != nil {
		return fmt.Errorf("failed to start producer: %v", err)
	}

	if err := s.consumer.Start(); err != nil {
		return fmt.Errorf("failed to start consumer: %v", err)
	}
	return nil
}

// EnqueueIngest 投递文档处理任务
func (s *Service) EnqueueIngest(ctx context.Context, documentID string) error {
	payload, err := json.Marshal(IngestMessage{DocumentID: documentID})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %v", err)
	}

	msg := primitive.NewMessage(TopicDocumentIngest, payload).WithTag(TagIngest)

	err = retry.Do(
		func() error {
			_, err := s.producer.SendSync(ctx, msg)
			return err
		},
		retry.Attempts(sendMessageAttempts),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(n uint, err error) {
			slog.Warn("Retrying to send message",
				"attempt", n+1,
				"document_id", documentID,
				"err", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to send ingest message after retries: %v", err)
	}

	return nil
}

// Shutdown 关闭MQ服务
func (s *Service) Shutdown() {
	if s.producer != nil {
		s.producer.Shutdown()
	}
	if s.consumer != nil {
		s.consumer.Shutdown()
	}
}
