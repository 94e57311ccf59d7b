package service

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"gorm.io/datatypes"

	"StudyBot/backend/go/internal/bot_service/cache"
	"StudyBot/backend/go/internal/bot_service/dialogue"
	"StudyBot/backend/go/internal/bot_service/messenger"
	"StudyBot/backend/go/internal/bot_service/nlp"
	"StudyBot/backend/go/internal/bot_service/store"
	"StudyBot/backend/go/internal/config"
	"StudyBot/backend/go/internal/database/kafka"
	"StudyBot/backend/go/internal/models"
	"StudyBot/backend/go/pkg/logger"
)

// IncomingEvent 是 webhook 层解析出的单个入站消息事件。
type IncomingEvent struct {
	TraceID  string
	SenderID string
	Text     string
	Entities nlp.Entities // 平台内置 NLP 附带的实体载荷，可能为 nil
}

// Service 是对话驱动器: 对每个入站事件完成
// 恢复状态 → 状态机转移 → 应用变更 → 回写缓存 → 发送回复 的完整闭环。
type Service struct {
	store      *store.Store
	cache      *cache.ConversationCache
	classifier *nlp.Classifier
	sender     messenger.Sender
	events     *kafka.EventPublisher // 可为 nil，审计是尽力而为的
	admin      config.AdminConfig

	// 按发送者互斥，保证同一用户的 恢复→转移→持久化 序列不会交错。
	locks sync.Map
}

// NewService 创建对话驱动器。events 传 nil 表示禁用 Kafka 审计。
func NewService(s *store.Store, c *cache.ConversationCache, cl *nlp.Classifier, sender messenger.Sender, events *kafka.EventPublisher, admin config.AdminConfig) *Service {
	return &Service{
		store:      s,
		cache:      c,
		classifier: cl,
		sender:     sender,
		events:     events,
		admin:      admin,
	}
}

// lockFor 返回某个发送者的互斥锁，按需创建。
func (s *Service) lockFor(senderID string) *sync.Mutex {
	actual, _ := s.locks.LoadOrStore(senderID, &sync.Mutex{})
	return actual.(*sync.Mutex)
}

// HandleEvent 处理一个入站事件。任何分支都会以一条回复（或空操作回复）收尾，
// 返回的错误仅用于记录，webhook 层无论如何都向平台确认成功。
func (s *Service) HandleEvent(ctx context.Context, ev IncomingEvent) error {
	log := logger.New("bot_service", ev.TraceID, ev.SenderID)

	mu := s.lockFor(ev.SenderID)
	mu.Lock()
	defer mu.Unlock()

	user, err := s.store.GetUserBySenderID(ctx, ev.SenderID)
	if errors.Is(err, store.ErrNotFound) {
		return s.handleFirstContact(ctx, log, ev)
	}
	if err != nil {
		log.WithPayload(map[string]interface{}{"error": err.Error()}).Error("查询用户失败")
		// 存储不可用时也要给用户一个回应。
		s.reply(ctx, log, ev.SenderID, "Sorry, something went wrong on my end. Try again in a bit.")
		return err
	}

	// 处理期间始终展示输入指示器，无论结果如何都在结束时关闭。
	s.action(ctx, log, ev.SenderID, messenger.ActionTypingOn)
	defer s.action(ctx, log, ev.SenderID, messenger.ActionTypingOff)

	snap := s.restore(ctx, log, user, ev.SenderID)
	class := s.classifier.Classify(ev.Entities)

	input := dialogue.Input{
		State:    snap.State,
		Draft:    snap.Draft,
		Message:  ev.Text,
		Class:    class,
		UserName: user.DisplayName(),
		Now:      time.Now(),
		Rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	s.prepareLookups(ctx, log, user.ID, ev.Text, class, &input)

	res := dialogue.Step(input)
	reply := s.applyMutation(ctx, log, user.ID, res)

	// 回写缓存并刷新 TTL。写失败只降级，不阻断本轮。
	snap.State = res.Next
	snap.Draft = res.Draft
	if err := s.cache.Set(ctx, ev.SenderID, snap); err != nil {
		log.WithPayload(map[string]interface{}{"error": err.Error()}).Warn("会话快照写入缓存失败")
	}

	s.publishTurn(ctx, log, ev, user.ID, input.State, res, class, reply)
	s.reply(ctx, log, ev.SenderID, reply)
	return nil
}

// handleFirstContact 处理首次接触: 建档、欢迎语、初始化 DEFAULT 状态，
// 本轮跳过状态机。
func (s *Service) handleFirstContact(ctx context.Context, log *logger.Logger, ev IncomingEvent) error {
	user := &models.User{SenderID: ev.SenderID}

	// 展示名来自外部 profile 查询，失败时退化为不带称呼的欢迎语。
	if profile, err := s.sender.GetProfile(ctx, ev.SenderID); err == nil {
		user.FirstName = profile.FirstName
		user.LastName = profile.LastName
		if raw, err := json.Marshal(profile); err == nil {
			user.Profile = datatypes.JSON(raw)
		}
	} else {
		log.WithPayload(map[string]interface{}{"error": err.Error()}).Warn("拉取用户 profile 失败")
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		log.WithPayload(map[string]interface{}{"error": err.Error()}).Error("创建用户失败")
		s.reply(ctx, log, ev.SenderID, "Sorry, something went wrong on my end. Try again in a bit.")
		return err
	}

	snap := dialogue.NewSnapshot(user.ID, ev.SenderID)
	if err := s.cache.Set(ctx, ev.SenderID, snap); err != nil {
		log.WithPayload(map[string]interface{}{"error": err.Error()}).Warn("会话快照写入缓存失败")
	}

	s.reply(ctx, log, ev.SenderID, dialogue.Welcome(user.DisplayName()))
	return nil
}

// restore 恢复会话状态: 缓存命中则反序列化，未命中/过期/缓存故障
// 都从存储侧的用户记录重建 DEFAULT 快照，两条路径汇合到相同的后续处理。
func (s *Service) restore(ctx context.Context, log *logger.Logger, user *models.User, senderID string) *dialogue.Snapshot {
	snap, err := s.cache.Get(ctx, senderID)
	if err != nil {
		log.WithPayload(map[string]interface{}{"error": err.Error()}).Warn("读取会话缓存失败，按未命中处理")
	}
	if snap == nil {
		return dialogue.NewSnapshot(user.ID, senderID)
	}
	// 防御旧快照: 用户 ID 以存储为准。
	snap.UserID = user.ID
	snap.SenderID = senderID
	return snap
}

// prepareLookups 按当前状态和意图预先完成状态机需要的存储查询，
// 保证 Step 本身保持纯函数。
func (s *Service) prepareLookups(ctx context.Context, log *logger.Logger, userID uint, text string, class nlp.Classification, input *dialogue.Input) {
	needList := input.State == dialogue.StateDefault &&
		(class.Intent == nlp.IntentChangeFact ||
			class.Intent == nlp.IntentDeleteFact ||
			class.Intent == nlp.IntentViewFacts)
	if needList {
		facts, err := s.store.ListFacts(ctx, userID)
		if err != nil {
			log.WithPayload(map[string]interface{}{"error": err.Error()}).Warn("列出 facts 失败")
		}
		input.Facts = facts
	}

	if input.State == dialogue.StateWaitingForFactToChange ||
		input.State == dialogue.StateWaitingForFactToDelete {
		fact, err := s.store.FindFact(ctx, userID, text)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			log.WithPayload(map[string]interface{}{"error": err.Error()}).Warn("解析 fact 失败")
		}
		input.Resolved = fact // 未解析到保持 nil
	}
}

// applyMutation 执行状态机产出的存储变更，并据结果选定最终回复。
// 存储层的 Validation/NotFound/Conflict 都收敛为失败话术，不向用户暴露细节。
func (s *Service) applyMutation(ctx context.Context, log *logger.Logger, userID uint, res dialogue.Result) string {
	switch res.Mutation.Kind {
	case models.MutationUpsert:
		draft := res.Mutation.Fact
		if _, err := s.store.UpsertFact(ctx, userID, draft.ID, draft.Question, draft.Answer, draft.Confidence); err != nil {
			log.WithPayload(map[string]interface{}{"error": err.Error()}).Warn("提交 fact 失败")
			return res.ReplyOnFailure
		}
	case models.MutationDelete:
		if err := s.store.DeleteFact(ctx, userID, res.Mutation.Fact.ID); err != nil {
			log.WithPayload(map[string]interface{}{"error": err.Error()}).Warn("删除 fact 失败")
			return res.ReplyOnFailure
		}
	}
	return res.Reply
}

// publishTurn 向 Kafka 发布本轮的审计事件，失败只记日志。
func (s *Service) publishTurn(ctx context.Context, log *logger.Logger, ev IncomingEvent, userID uint, from dialogue.State, res dialogue.Result, class nlp.Classification, reply string) {
	if s.events == nil {
		return
	}
	event := &models.DialogueEvent{
		EventID:   ev.TraceID,
		TraceID:   ev.TraceID,
		SenderID:  ev.SenderID,
		UserID:    userID,
		State:     from.String(),
		NextState: res.Next.String(),
		Intent:    class.Intent.String(),
		Mutation:  res.Mutation.Kind,
		Reply:     reply,
		Timestamp: time.Now(),
	}
	if event.Mutation == "" {
		event.Mutation = models.MutationNone
	}
	if err := s.events.PublishTurn(ctx, event); err != nil {
		log.WithPayload(map[string]interface{}{"error": err.Error()}).Warn("发布对话审计事件失败")
	}
}

// reply 发送最终回复，失败只记日志，绝不向上冒泡。
func (s *Service) reply(ctx context.Context, log *logger.Logger, senderID, text string) {
	if text == "" {
		return
	}
	if err := s.sender.SendText(ctx, senderID, text, messenger.TypeResponse); err != nil {
		log.WithPayload(map[string]interface{}{"error": err.Error()}).Error("发送回复失败")
	}
}

// action 切换输入指示器，失败只记日志。
func (s *Service) action(ctx context.Context, log *logger.Logger, senderID string, a messenger.SenderAction) {
	if err := s.sender.SendAction(ctx, senderID, a); err != nil {
		log.WithPayload(map[string]interface{}{"error": err.Error()}).Debug("切换输入指示器失败")
	}
}
