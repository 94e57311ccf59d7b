package models

import "time"

// MutationKind 定义了一次对话轮次对 Fact 存储产生的变更类型。
type MutationKind string

const (
	MutationNone   MutationKind = "NONE"
	MutationUpsert MutationKind = "UPSERT_FACT"
	MutationDelete MutationKind = "DELETE_FACT"
)

// DialogueEvent 定义了发送到 Kafka 的对话审计记录的统一结构。
// 每处理完一个入站事件发布一条，供离线分析对话流转情况。
type DialogueEvent struct {
	EventID   string       `json:"event_id"`
	TraceID   string       `json:"trace_id"`
	SenderID  string       `json:"sender_id"`
	UserID    uint         `json:"user_id"`
	State     string       `json:"state"`      // 本轮开始时的状态
	NextState string       `json:"next_state"` // 本轮结束时的状态
	Intent    string       `json:"intent"`
	Mutation  MutationKind `json:"mutation"`
	Reply     string       `json:"reply"`
	Timestamp time.Time    `json:"timestamp"`
}
