package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	"golang.org/x/crypto/bcrypt"

	"StudyBot/backend/go/internal/models"
)

// --- Admin Operations ---

// ErrUnauthorized 管理员口令校验失败。
var ErrUnauthorized = errors.New("wrong admin password")

// AdminLogin 校验管理员口令并签发 JWT。
// 口令与配置中的 bcrypt 哈希比对，不存明文。
func (s *Service) AdminLogin(password string) (string, error) {
	if err := bcrypt.CompareHashAndPassword([]byte(s.admin.PasswordHash), []byte(password)); err != nil {
		return "", ErrUnauthorized
	}
	return s.generateJWT()
}

// generateJWT 为管理员签发一个带过期时间的 token。
func (s *Service) generateJWT() (string, error) {
	ttl := time.Duration(s.admin.TokenTTL) * time.Second
	if ttl <= 0 {
		ttl = time.Hour
	}

	claims := jwt.MapClaims{
		"sub": "admin",
		"exp": time.Now().Add(ttl).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.admin.JwtSecret))
	if err != nil {
		return "", fmt.Errorf("签发 JWT 失败: %w", err)
	}
	return signed, nil
}

// ListUserFacts 返回某用户的全部问答记录，供管理接口使用。
func (s *Service) ListUserFacts(ctx context.Context, userID uint) ([]*models.Fact, error) {
	if _, err := s.store.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.store.ListFacts(ctx, userID)
}

// DeleteUserFact 删除某用户的一条问答记录，供管理接口使用。
func (s *Service) DeleteUserFact(ctx context.Context, userID, factID uint) error {
	return s.store.DeleteFact(ctx, userID, factID)
}
