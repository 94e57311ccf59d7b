package dialogue

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"StudyBot/backend/go/internal/models"
)

// 机器人的全部回复话术集中在这里，便于统一调整语气。
const (
	replyPromptQuestion = "What is the question?"
	replyPromptAnswer   = "And what is the answer?"
	replyNotSure        = "I'm not sure what you mean. You can say things like \"add a fact\" or \"show my facts\"."
	replyNoSuchFact     = "I don't have that fact. Back to the start!"
	replyNoFactsYet     = "You don't have any facts yet. Say \"add a fact\" to create one."
	replyDeleted        = "Done, the fact is gone."
	replyDeleteFailed   = "I didn't delete anything."
	replySaveFailed     = "Sorry, I couldn't save that fact."
	replyAskDuration    = "How long do you want to study?"
	replyNoDuration     = "Sorry, I couldn't get a duration out of that."
	replyStudyNextSoon  = "Studying with me isn't ready yet, but it's coming."
	replyChangePrompt   = "Which fact do you want to change? Send its number or the exact question."
	replyDeletePrompt   = "Which fact do you want to delete? Send its number or the exact question."
)

// greetingPhrases 是随机问候语模板，%s 为用户展示名。
// namelessGreetings 是展示名缺失（profile 拉取失败）时的退化形式，两表等长且一一对应。
var greetingPhrases = []string{
	"Hi %s! Ready to study?",
	"Hello %s, good to see you!",
	"Hey %s! What are we learning today?",
	"Welcome back, %s!",
}

var namelessGreetings = []string{
	"Hi! Ready to study?",
	"Hello, good to see you!",
	"Hey! What are we learning today?",
	"Welcome back!",
}

// Greeting 从话术表中随机挑选一条个性化问候。
func Greeting(r *rand.Rand, name string) string {
	i := r.Intn(len(greetingPhrases))
	if name == "" {
		return namelessGreetings[i]
	}
	return fmt.Sprintf(greetingPhrases[i], name)
}

// Welcome 是首次接触时的欢迎语。
func Welcome(name string) string {
	if name == "" {
		return "Hi! I'm StudyBot. Say \"add a fact\" and I'll remember it for you."
	}
	return fmt.Sprintf("Hi %s! I'm StudyBot. Say \"add a fact\" and I'll remember it for you.", name)
}

// confirmDelete 回显待删除的问答并请求确认。
func confirmDelete(f *models.Fact) string {
	return fmt.Sprintf("Delete this fact?\nQ: %s\nA: %s\nSay \"yes\" to confirm.", f.Question, f.Answer)
}

// factSaved 在提交成功后回显结果。草稿带 ID 说明走的是更新路径。
func factSaved(d DraftFact) string {
	verb := "Created"
	if d.ID != 0 {
		verb = "Updated"
	}
	return fmt.Sprintf("%s!\nQ: %s\nA: %s", verb, d.Question, d.Answer)
}

// silenceUntil 给出静音结束的绝对时间。
func silenceUntil(now time.Time, seconds float64) string {
	until := now.Add(time.Duration(seconds * float64(time.Second)))
	return fmt.Sprintf("Okay, I'll leave you alone until %s.", until.Format("15:04 on Jan 2"))
}

// renderFactList 渲染简洁的编号列表，用于修改/删除前的提示。
func renderFactList(facts []*models.Fact) string {
	if len(facts) == 0 {
		return replyNoFactsYet
	}
	var b strings.Builder
	for _, f := range facts {
		fmt.Fprintf(&b, "%d. %s\n", f.ID, f.Question)
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderFactListFull 渲染包含答案、掌握程度和最近复习时间的完整列表。
func renderFactListFull(facts []*models.Fact) string {
	if len(facts) == 0 {
		return replyNoFactsYet
	}
	var b strings.Builder
	for _, f := range facts {
		fmt.Fprintf(&b, "%d. Q: %s\n   A: %s\n", f.ID, f.Question, f.Answer)
		if f.Confidence != nil {
			fmt.Fprintf(&b, "   confidence: %d/5\n", *f.Confidence)
		}
		fmt.Fprintf(&b, "   last seen: %s\n", f.LastSeen.Format("Jan 2 2006"))
	}
	return strings.TrimRight(b.String(), "\n")
}
