package store

import (
	"StudyBot/backend/go/internal/models"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// --- Fact Management ---

// CreateFact 为用户创建一条新的问答记录。
// 重复的问题（大小写无关）返回 ErrConflict，confidence 越界返回 ErrInvalid。
func (s *Store) CreateFact(ctx context.Context, userID uint, question, answer string, confidence *int) (*models.Fact, error) {
	if confidence != nil && (*confidence < 0 || *confidence > 5) {
		return nil, fmt.Errorf("confidence %d: %w", *confidence, ErrInvalid)
	}

	fact := &models.Fact{
		UserID:     userID,
		Question:   question,
		Answer:     answer,
		Confidence: confidence,
	}

	// 在事务中先查重再创建，配合唯一索引双重兜底。
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Fact{}).
			Where("user_id = ? AND question_key = ?", userID, strings.ToLower(question)).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrConflict
		}
		return tx.Create(fact).Error
	})
	if err != nil {
		if errors.Is(err, ErrConflict) || errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrConflict
		}
		return nil, err
	}

	return fact, nil
}

// UpdateFact 更新用户的一条问答记录，nil 字段保持原值。
// 目标不存在时返回 ErrNotFound。
func (s *Store) UpdateFact(ctx context.Context, userID, factID uint, question, answer *string) (*models.Fact, error) {
	var fact models.Fact
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).First(&fact, factID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if question != nil {
			fact.Question = *question
		}
		if answer != nil {
			fact.Answer = *answer
		}
		fact.LastSeen = time.Now()
		return tx.Save(&fact).Error
	})
	if err != nil {
		return nil, err
	}
	return &fact, nil
}

// UpsertFact 按草稿是否携带既有 ID 决定更新还是创建。
// 只有经由"修改 fact"路径进入的草稿才带 ID；无 ID 一律创建。
func (s *Store) UpsertFact(ctx context.Context, userID, factID uint, question, answer string, confidence *int) (*models.Fact, error) {
	if factID != 0 {
		return s.UpdateFact(ctx, userID, factID, &question, &answer)
	}
	return s.CreateFact(ctx, userID, question, answer, confidence)
}

// FindFact 按 "数字 ID 优先，问题文本兜底" 的规则解析用户输入。
// 两种查找都限定在当前用户范围内，不存在跨用户泄漏。找不到返回 ErrNotFound。
func (s *Store) FindFact(ctx context.Context, userID uint, idOrQuestion string) (*models.Fact, error) {
	trimmed := strings.TrimSpace(idOrQuestion)

	// 1. 尝试按数字 ID 解释。
	if id, err := strconv.ParseUint(trimmed, 10, 64); err == nil {
		var fact models.Fact
		err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&fact, uint(id)).Error
		if err == nil {
			return &fact, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		// 数字解释落空后仍然按问题文本兜底，用户的问题可能本身就是个数字。
	}

	// 2. 按问题文本精确匹配（大小写无关）。
	var fact models.Fact
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND question_key = ?", userID, strings.ToLower(trimmed)).
		First(&fact).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &fact, nil
}

// DeleteFact 删除用户的一条问答记录。目标不存在时返回 ErrNotFound。
// 物理删除而非软删除: 唯一索引覆盖 question_key，软删除的残留行会挡住同一问题的重建。
func (s *Store) DeleteFact(ctx context.Context, userID, factID uint) error {
	result := s.DB.WithContext(ctx).Unscoped().
		Where("user_id = ?", userID).
		Delete(&models.Fact{}, factID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListFacts 按创建顺序返回用户的全部问答记录。
func (s *Store) ListFacts(ctx context.Context, userID uint) ([]*models.Fact, error) {
	var facts []*models.Fact
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&facts).Error
	if err != nil {
		return nil, err
	}
	return facts, nil
}
