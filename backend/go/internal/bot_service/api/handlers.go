package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"StudyBot/backend/go/internal/bot_service/nlp"
	"StudyBot/backend/go/internal/bot_service/service"
	"StudyBot/backend/go/internal/config"
	"StudyBot/backend/go/internal/models"
	"StudyBot/backend/go/pkg/logger"
)

// DialogueService 是 Handler 需要的业务能力，接口化便于测试时注入假实现。
type DialogueService interface {
	HandleEvent(ctx context.Context, ev service.IncomingEvent) error
	AdminLogin(password string) (string, error)
	ListUserFacts(ctx context.Context, userID uint) ([]*models.Fact, error)
	DeleteUserFact(ctx context.Context, userID, factID uint) error
}

// Handler 封装了所有 API endpoint 的处理函数。
type Handler struct {
	service     DialogueService
	verifyToken string
}

// NewHandler 创建一个新的 Handler 实例。
func NewHandler(s DialogueService, cfg *config.MessengerConfig) *Handler {
	return &Handler{service: s, verifyToken: cfg.VerifyToken}
}

// --- Webhook Handlers ---

// VerifyWebhook 处理平台的验证握手: 共享密钥匹配时回显 challenge，否则拒绝。
func (h *Handler) VerifyWebhook(c *gin.Context) {
	if c.Query("hub.verify_token") == h.verifyToken {
		c.String(http.StatusOK, c.Query("hub.challenge"))
		return
	}
	c.String(http.StatusForbidden, "Error, wrong validation token")
}

// webhookPayload 对应平台推送的事件载荷结构。
type webhookPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		Messaging []struct {
			Sender struct {
				ID string `json:"id"`
			} `json:"sender"`
			Message *struct {
				Text string `json:"text"`
				NLP  *struct {
					Entities nlp.Entities `json:"entities"`
				} `json:"nlp"`
			} `json:"message"`
		} `json:"messaging"`
	} `json:"entry"`
}

// ReceiveWebhook 处理事件推送。
// 无论内部处理结果如何都返回 200 "ok"——平台会退订持续报错的 webhook，
// 因此任何失败都只能记日志消化掉。
func (h *Handler) ReceiveWebhook(c *gin.Context) {
	var payload webhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		logger.New("bot_service", "", "").
			WithPayload(map[string]interface{}{"error": err.Error()}).
			Warn("无法解析 webhook 载荷")
		c.String(http.StatusOK, "ok")
		return
	}

	for _, entry := range payload.Entry {
		for _, msg := range entry.Messaging {
			// 非文本事件（已读回执、投递确认等）确认后跳过。
			if msg.Message == nil || msg.Sender.ID == "" {
				continue
			}

			ev := service.IncomingEvent{
				TraceID:  uuid.NewString(),
				SenderID: msg.Sender.ID,
				Text:     msg.Message.Text,
			}
			if msg.Message.NLP != nil {
				ev.Entities = msg.Message.NLP.Entities
			}

			if err := h.service.HandleEvent(c.Request.Context(), ev); err != nil {
				logger.New("bot_service", ev.TraceID, ev.SenderID).
					WithPayload(map[string]interface{}{"error": err.Error()}).
					Error("处理入站事件失败")
			}
		}
	}

	c.String(http.StatusOK, "ok")
}

// --- Admin Handlers ---

// AdminLoginRequest 定义了管理员登录请求的 JSON 结构。
type AdminLoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// AdminLogin 处理管理员登录请求。
func (h *Handler) AdminLogin(c *gin.Context) {
	var req AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.service.AdminLogin(req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "wrong password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// ListUserFacts 返回某用户的全部问答记录。
func (h *Handler) ListUserFacts(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	facts, err := h.service.ListUserFacts(c.Request.Context(), uint(userID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"facts": facts})
}

// DeleteUserFact 删除某用户的一条问答记录。
func (h *Handler) DeleteUserFact(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	factID, err := strconv.ParseUint(c.Param("factID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fact id"})
		return
	}

	if err := h.service.DeleteUserFact(c.Request.Context(), uint(userID), uint(factID)); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "fact not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": factID})
}
