package store

import (
	"StudyBot/backend/go/internal/models"
	"context"
	"errors"

	"gorm.io/gorm"
)

// --- User Management ---

// GetUserBySenderID 通过页面级发送者 ID 查找用户。不存在时返回 ErrNotFound。
func (s *Store) GetUserBySenderID(ctx context.Context, senderID string) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).Where("sender_id = ?", senderID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// CreateUser 在首次收到某发送者的事件时创建用户记录。
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return s.DB.WithContext(ctx).Create(user).Error
}

// GetUserByID 通过内部 ID 查找用户，供管理接口使用。
func (s *Store) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}
