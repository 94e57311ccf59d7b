package store

import (
	"errors"

	"gorm.io/gorm"
)

// 存储层的错误分类。服务层用 errors.Is 判别后映射为面向用户的话术，
// 原始错误永远不会原样出现在回复里。
var (
	// ErrNotFound 目标记录不存在。
	ErrNotFound = errors.New("record not found")
	// ErrConflict 违反 (user_id, lower(question)) 唯一约束。
	ErrConflict = errors.New("duplicate question for user")
	// ErrInvalid 字段校验失败，例如 confidence 超出 [0, 5]。
	ErrInvalid = errors.New("invalid fact field")
)

// Store 封装了对 MySQL 的全部访问。
type Store struct {
	DB *gorm.DB
}

// NewStore 创建一个新的 Store 实例。
func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}
