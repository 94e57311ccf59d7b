package nlp

import "encoding/json"

// Intent 是机器人理解的意图枚举。
// 上游 NLP 返回的是字符串，这里收敛为封闭枚举，未知字符串一律落到 IntentDefault。
type Intent int

const (
	IntentDefault Intent = iota
	IntentAddFact
	IntentChangeFact
	IntentDeleteFact
	IntentViewFacts
	IntentSilenceStudying
	IntentStudyNextFact
)

var intentNames = map[Intent]string{
	IntentDefault:         "default_intent",
	IntentAddFact:         "add_fact",
	IntentChangeFact:      "change_fact",
	IntentDeleteFact:      "delete_fact",
	IntentViewFacts:       "view_facts",
	IntentSilenceStudying: "silence_studying",
	IntentStudyNextFact:   "study_next_fact",
}

var intentsByName = func() map[string]Intent {
	m := make(map[string]Intent, len(intentNames))
	for i, name := range intentNames {
		m[name] = i
	}
	return m
}()

func (i Intent) String() string {
	if name, ok := intentNames[i]; ok {
		return name
	}
	return "default_intent"
}

// Candidate 是上游 NLP 对某个实体类别给出的一个候选结果。
type Candidate struct {
	Confidence float64         `json:"confidence"`
	Value      json.RawMessage `json:"value"`
}

// Entities 是入站事件随附的原始 NLP 实体载荷: 类别名 → 候选列表。
// 载荷缺失时传入 nil，效果等同于没有任何类别超过阈值。
type Entities map[string][]Candidate

// Classification 是归一化后的分类结果。
type Classification struct {
	Intent     Intent
	Confidence float64  // 被采纳的意图候选的置信度；无意图时为 0
	Greeting   bool     // 是否检测到问候
	Duration   *float64 // 时长实体（秒），缺失为 nil
}

// Classifier 将上游的原始实体载荷归一化为 Classification。
type Classifier struct {
	threshold float64
}

// NewClassifier 创建分类适配器。threshold 是置信度下限，
// 这是一个精确率/召回率的折衷常量，不是推导出来的。
func NewClassifier(threshold float64) *Classifier {
	return &Classifier{threshold: threshold}
}

// Classify 应用阈值策略：每个类别只看置信度最高的候选，且必须超过阈值才被采纳；
// 多个意图候选中选置信度最高且过阈值的那一个，都不过阈值则产出 default_intent。
func (c *Classifier) Classify(raw Entities) Classification {
	out := Classification{Intent: IntentDefault}
	if raw == nil {
		return out
	}

	// 意图：遍历全部候选取最高分。
	var bestName string
	var bestConfidence float64
	for _, cand := range raw["intent"] {
		if cand.Confidence > c.threshold && cand.Confidence > bestConfidence {
			var name string
			if err := json.Unmarshal(cand.Value, &name); err != nil {
				continue
			}
			bestName = name
			bestConfidence = cand.Confidence
		}
	}
	if bestName != "" {
		if intent, ok := intentsByName[bestName]; ok {
			out.Intent = intent
			out.Confidence = bestConfidence
		}
	}

	// 问候：只看类别的首位候选。
	if cand, ok := top(raw, "greetings"); ok && cand.Confidence > c.threshold {
		out.Greeting = true
	}

	// 时长：首位候选过阈值时解析为秒数。
	if cand, ok := top(raw, "duration"); ok && cand.Confidence > c.threshold {
		if seconds, ok := parseDurationSeconds(cand.Value); ok {
			out.Duration = &seconds
		}
	}

	return out
}

// top 返回某个类别的首位候选。
func top(raw Entities, category string) (Candidate, bool) {
	candidates := raw[category]
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	return candidates[0], true
}

// parseDurationSeconds 解析时长候选的 value。
// 上游可能给出裸数字，也可能给出 {"value": N} 或 {"normalized": {"value": N}} 的包装形式。
func parseDurationSeconds(value json.RawMessage) (float64, bool) {
	var bare float64
	if err := json.Unmarshal(value, &bare); err == nil {
		return bare, true
	}

	var wrapped struct {
		Value      *float64 `json:"value"`
		Normalized *struct {
			Value float64 `json:"value"`
		} `json:"normalized"`
	}
	if err := json.Unmarshal(value, &wrapped); err != nil {
		return 0, false
	}
	if wrapped.Normalized != nil {
		return wrapped.Normalized.Value, true
	}
	if wrapped.Value != nil {
		return *wrapped.Value, true
	}
	return 0, false
}
