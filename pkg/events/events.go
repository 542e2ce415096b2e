package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// 换供应商事件类型
const (
	SwitchLocalCommitted = "switch.local_committed"
	SwitchDone           = "switch.done"
	SwitchFailed         = "switch.failed"
)

// SwitchEvent 换供应商状态变更事件
type SwitchEvent struct {
	Type         string    `json:"type"`
	OperationID  string    `json:"operation_id"`
	UserID       int64     `json:"user_id"`
	ProductID    int64     `json:"product_id"`
	FromSupplier string    `json:"from_supplier"`
	ToSupplier   string    `json:"to_supplier"`
	State        string    `json:"state"`
	Error        string    `json:"error,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Publisher 事件发布
type Publisher interface {
	PublishSwitch(ctx context.Context, evt SwitchEvent) error
	Close() error
}

// ==================== Kafka ====================

// messageWriter kafka.Writer 的最小接口，便于测试替换
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher 以 product_id 为 key 写入，同一商品的事件保持分区内有序
type KafkaPublisher struct {
	writer messageWriter
}

var _ Publisher = (*KafkaPublisher)(nil)

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

func (p *KafkaPublisher) PublishSwitch(ctx context.Context, evt SwitchEvent) error {
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}
	value, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(evt.ProductID, 10)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(evt.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write %s: %w", evt.Type, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// ==================== Noop / Memory ====================

// Noop 未配置 Kafka 时使用
type Noop struct{}

func (Noop) PublishSwitch(context.Context, SwitchEvent) error { return nil }
func (Noop) Close() error                                     { return nil }

// Memory 内存记录 (测试 / CLI 使用)
type Memory struct {
	mu     sync.Mutex
	events []SwitchEvent
}

func (m *Memory) PublishSwitch(_ context.Context, evt SwitchEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
	return nil
}

func (m *Memory) Close() error { return nil }

// Events 已发布事件的副本
func (m *Memory) Events() []SwitchEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SwitchEvent, len(m.events))
	copy(out, m.events)
	return out
}

// Types 已发布事件类型
func (m *Memory) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.Type)
	}
	return out
}
