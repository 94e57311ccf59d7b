package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"StudyBot/backend/go/internal/config"
	pkghttp "StudyBot/backend/go/pkg/http"
)

// MessageType 是出站消息的用途标记。
type MessageType string

const (
	// TypeResponse 对用户消息的直接回复。
	TypeResponse MessageType = "RESPONSE"
	// TypeSubscription 非推广性的订阅消息。
	TypeSubscription MessageType = "NON_PROMOTIONAL_SUBSCRIPTION"
)

// SenderAction 是会话指示器动作。
type SenderAction string

const (
	ActionTypingOn  SenderAction = "typing_on"
	ActionTypingOff SenderAction = "typing_off"
)

// Profile 是 Graph API 返回的用户公开资料。
type Profile struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Sender 是对话服务需要的出站能力。接口化便于测试时注入假实现。
type Sender interface {
	SendText(ctx context.Context, recipientID, text string, msgType MessageType) error
	SendAction(ctx context.Context, recipientID string, action SenderAction) error
	GetProfile(ctx context.Context, senderID string) (*Profile, error)
}

// Client 是 Messenger Graph API 的出站客户端。
// 所有调用都带页面级访问令牌，经由带熔断的 HTTP 客户端发出。
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *pkghttp.Client
}

// NewClient 创建 Graph API 客户端。
func NewClient(cfg *config.MessengerConfig, httpClient *pkghttp.Client) *Client {
	return &Client{
		baseURL:     cfg.GraphBaseURL,
		accessToken: cfg.PageAccessToken,
		httpClient:  httpClient,
	}
}

// recipient 是出站请求中的接收者字段。
type recipient struct {
	ID string `json:"id"`
}

// SendText 向指定接收者发送一条文本消息。
func (c *Client) SendText(ctx context.Context, recipientID, text string, msgType MessageType) error {
	body := map[string]interface{}{
		"recipient":      recipient{ID: recipientID},
		"message":        map[string]string{"text": text},
		"messaging_type": string(msgType),
	}
	return c.post(ctx, "/me/messages", body)
}

// SendAction 切换输入状态指示器。
func (c *Client) SendAction(ctx context.Context, recipientID string, action SenderAction) error {
	body := map[string]interface{}{
		"recipient":     recipient{ID: recipientID},
		"sender_action": string(action),
	}
	return c.post(ctx, "/me/messages", body)
}

// GetProfile 拉取用户的展示名。
func (c *Client) GetProfile(ctx context.Context, senderID string) (*Profile, error) {
	endpoint := fmt.Sprintf("%s/%s?fields=first_name,last_name&access_token=%s",
		c.baseURL, url.PathEscape(senderID), url.QueryEscape(c.accessToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("构建 profile 请求失败: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile 请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("graph api 返回 %d: %s", resp.StatusCode, payload)
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("解析 profile 响应失败: %w", err)
	}
	return &profile, nil
}

// post 发送一个带访问令牌的 JSON POST 请求。
func (c *Client) post(ctx context.Context, path string, body interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("序列化请求体失败: %w", err)
	}

	endpoint := fmt.Sprintf("%s%s?access_token=%s", c.baseURL, path, url.QueryEscape(c.accessToken))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("构建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("graph api 请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("graph api 返回 %d: %s", resp.StatusCode, payload)
	}
	return nil
}
