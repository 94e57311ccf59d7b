package dialogue

import (
	"math/rand"
	"strings"
	"time"

	"StudyBot/backend/go/internal/bot_service/nlp"
	"StudyBot/backend/go/internal/models"
)

// Mutation 描述本轮需要对 Fact 存储执行的变更。
// 状态机只产出描述，真正的执行由 Driver 完成，保证 Step 本身无副作用。
type Mutation struct {
	Kind models.MutationKind
	Fact DraftFact // UPSERT 时为完整草稿；DELETE 时只需 ID
}

// Input 是一次状态转移的全部输入。
// Fact 的解析和列表属于 I/O，由 Driver 按当前状态预先完成后传入:
//   - Facts: DEFAULT 状态下 change/delete/view 意图需要的列表
//   - Resolved: WAITING_FOR_FACT_TO_CHANGE / TO_DELETE 状态下消息的解析结果
type Input struct {
	State    State
	Draft    DraftFact
	Message  string
	Class    nlp.Classification
	Facts    []*models.Fact
	Resolved *models.Fact
	UserName string
	Now      time.Time
	Rand     *rand.Rand
}

// Result 是一次状态转移的输出。
// ReplyOnFailure 在 Mutation 执行失败时替代 Reply；为空表示无需替换。
type Result struct {
	Next           State
	Draft          DraftFact
	Reply          string
	ReplyOnFailure string
	Mutation       Mutation
}

// confirmWords 是删除确认接受的词集（大小写无关）。
var confirmWords = map[string]struct{}{
	"yes": {}, "yea": {}, "yep": {}, "y": {},
}

// Step 是纯转移函数: 相同输入必然产生相同输出，除静音时间计算
// 显式使用传入的 Now 外不依赖任何外部状态。
func Step(in Input) Result {
	switch in.State {
	case StateDefault:
		return stepDefault(in)
	case StateWaitingForFactQuestion:
		draft := in.Draft
		draft.Question = in.Message
		return Result{Next: StateWaitingForFactAnswer, Draft: draft, Reply: replyPromptAnswer}
	case StateWaitingForFactAnswer:
		draft := in.Draft
		draft.Answer = in.Message
		return Result{
			Next:           StateDefault,
			Reply:          factSaved(draft),
			ReplyOnFailure: replySaveFailed,
			Mutation:       Mutation{Kind: models.MutationUpsert, Fact: draft},
		}
	case StateWaitingForFactToChange:
		if in.Resolved == nil {
			return Result{Next: StateDefault, Reply: replyNoSuchFact}
		}
		return Result{
			Next:  StateWaitingForFactQuestion,
			Draft: draftFromFact(in.Resolved),
			Reply: replyPromptQuestion,
		}
	case StateWaitingForFactToDelete:
		if in.Resolved == nil {
			return Result{Next: StateDefault, Reply: replyNoSuchFact}
		}
		return Result{
			Next:  StateConfirmFactDelete,
			Draft: draftFromFact(in.Resolved),
			Reply: confirmDelete(in.Resolved),
		}
	case StateConfirmFactDelete:
		if _, ok := confirmWords[strings.ToLower(strings.TrimSpace(in.Message))]; !ok {
			return Result{Next: StateDefault, Reply: replyDeleteFailed}
		}
		return Result{
			Next:           StateDefault,
			Reply:          replyDeleted,
			ReplyOnFailure: replyDeleteFailed,
			Mutation:       Mutation{Kind: models.MutationDelete, Fact: in.Draft},
		}
	case StateWaitingForSilenceDuration:
		if in.Class.Duration == nil {
			return Result{Next: StateDefault, Reply: replyNoDuration}
		}
		return Result{Next: StateDefault, Reply: silenceUntil(in.Now, *in.Class.Duration)}
	default:
		// 不可达；坏快照在反序列化时已经回退到 DEFAULT。
		return Result{Next: StateDefault, Reply: replyNotSure}
	}
}

// stepDefault 处理静止状态下的新一轮意图分发。
func stepDefault(in Input) Result {
	if in.Class.Greeting {
		return Result{Next: StateDefault, Reply: Greeting(in.Rand, in.UserName)}
	}

	switch in.Class.Intent {
	case nlp.IntentAddFact:
		// 草稿重置为空，开始新的收集流程。
		return Result{Next: StateWaitingForFactQuestion, Reply: replyPromptQuestion}
	case nlp.IntentChangeFact:
		return Result{
			Next:  StateWaitingForFactToChange,
			Reply: replyChangePrompt + "\n" + renderFactList(in.Facts),
		}
	case nlp.IntentDeleteFact:
		return Result{
			Next:  StateWaitingForFactToDelete,
			Reply: replyDeletePrompt + "\n" + renderFactList(in.Facts),
		}
	case nlp.IntentViewFacts:
		return Result{Next: StateDefault, Reply: renderFactListFull(in.Facts)}
	case nlp.IntentSilenceStudying:
		if in.Class.Duration != nil {
			return Result{Next: StateDefault, Reply: silenceUntil(in.Now, *in.Class.Duration)}
		}
		return Result{Next: StateWaitingForSilenceDuration, Reply: replyAskDuration}
	case nlp.IntentStudyNextFact:
		// 间隔重复的排课算法尚未实现，这里是显式的占位分支。
		return Result{Next: StateDefault, Reply: replyStudyNextSoon}
	default:
		return Result{Next: StateDefault, Reply: replyNotSure}
	}
}

// draftFromFact 把已存在的 Fact 拷贝为草稿。带上 ID 使后续提交走更新路径。
func draftFromFact(f *models.Fact) DraftFact {
	return DraftFact{
		ID:         f.ID,
		Question:   f.Question,
		Answer:     f.Answer,
		Confidence: f.Confidence,
	}
}
