package kafka

import (
	"StudyBot/backend/go/internal/models"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

const DialogueEventTopic = "dialogue_events"

// EventPublisher 封装了向 Kafka 发送对话审计事件的逻辑。
type EventPublisher struct {
	writer *kafka.Writer
}

// NewEventPublisher 创建一个新的 EventPublisher 实例。
func NewEventPublisher(client *KafkaClient) *EventPublisher {
	// 为审计主题创建一个新的 writer 实例配置
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      client.Config.Brokers,
		Topic:        DialogueEventTopic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	})
	return &EventPublisher{writer: writer}
}

// PublishTurn 将 DialogueEvent 序列化为 JSON 并发送到 Kafka。
// 以 SenderID 作为分区键，保证同一用户的事件有序。
func (p *EventPublisher) PublishTurn(ctx context.Context, event *models.DialogueEvent) error {
	jsonData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal dialogue event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.SenderID),
		Value: jsonData,
	})
	if err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	return nil
}

// Close 关闭底层的 writer 连接。
func (p *EventPublisher) Close() error {
	return p.writer.Close()
}
