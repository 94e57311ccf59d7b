package dialogue

import (
	"encoding/json"
	"fmt"
)

// State 是会话状态机的状态枚举。
// DEFAULT 是初始状态，也是每个子流程完成或被放弃后回到的静止状态，
// 没有显式的终止状态。
type State int

const (
	StateDefault State = iota
	StateWaitingForFactQuestion
	StateWaitingForFactAnswer
	StateWaitingForFactToChange
	StateWaitingForFactToDelete
	StateConfirmFactDelete
	StateWaitingForSilenceDuration
)

var stateNames = map[State]string{
	StateDefault:                   "DEFAULT",
	StateWaitingForFactQuestion:    "WAITING_FOR_FACT_QUESTION",
	StateWaitingForFactAnswer:      "WAITING_FOR_FACT_ANSWER",
	StateWaitingForFactToChange:    "WAITING_FOR_FACT_TO_CHANGE",
	StateWaitingForFactToDelete:    "WAITING_FOR_FACT_TO_DELETE",
	StateConfirmFactDelete:         "CONFIRM_FACT_DELETE",
	StateWaitingForSilenceDuration: "WAITING_FOR_SILENCE_DURATION",
}

var statesByName = func() map[string]State {
	m := make(map[string]State, len(stateNames))
	for s, name := range stateNames {
		m[name] = s
	}
	return m
}()

// String 返回状态的稳定字符串名，也是缓存序列化时使用的形式。
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// MarshalJSON 以字符串名序列化状态，保证缓存快照跨版本可读。
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON 从字符串名还原状态。未知的名字回退到 DEFAULT，
// 这与缓存条目缺失的降级行为一致，不会让一条坏快照阻断会话。
func (s *State) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("状态字段不是字符串: %w", err)
	}
	if parsed, ok := statesByName[name]; ok {
		*s = parsed
	} else {
		*s = StateDefault
	}
	return nil
}

// DraftFact 是收集问答过程中的未提交草稿。
// ID 仅在经由"修改 fact"路径进入时被设置；提交时有 ID 则更新，无 ID 则创建。
type DraftFact struct {
	ID         uint   `json:"id,omitempty"`
	Question   string `json:"question,omitempty"`
	Answer     string `json:"answer,omitempty"`
	Confidence *int   `json:"confidence,omitempty"`
}

// Empty 报告草稿是否为空。
func (d DraftFact) Empty() bool {
	return d.ID == 0 && d.Question == "" && d.Answer == "" && d.Confidence == nil
}

// Snapshot 是一个用户的会话状态快照，按发送者 ID 存入缓存。
// 缓存只对进行中的对话状态负责；已提交的 Fact 以存储为准，
// 快照丢失只会让对话退回 DEFAULT，不会损坏数据。
type Snapshot struct {
	UserID   uint      `json:"user_id"`
	SenderID string    `json:"sender_id"`
	State    State     `json:"state"`
	Draft    DraftFact `json:"draft"`
}

// NewSnapshot 构造一个处于 DEFAULT 状态、草稿为空的快照。
// 任何用户首次接触、以及缓存缺失/过期后的重建都走这里。
func NewSnapshot(userID uint, senderID string) *Snapshot {
	return &Snapshot{UserID: userID, SenderID: senderID, State: StateDefault}
}

// Encode 将快照序列化为 JSON。
func (s *Snapshot) Encode() ([]byte, error) {
	return json.Marshal(s)
}

// DecodeSnapshot 从 JSON 还原快照。
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("无法解析会话快照: %w", err)
	}
	return &snap, nil
}
