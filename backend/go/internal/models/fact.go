package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Fact 代表用户提交的一条问答卡片。
// 不变式: (user_id, question_key) 唯一；Confidence 存在时取值范围 [0, 5]。
type Fact struct {
	gorm.Model

	UserID      uint      `gorm:"not null;uniqueIndex:idx_user_question"`           // 所属用户
	Question    string    `gorm:"not null;size:1024"`                               // 原始问题文本
	QuestionKey string    `gorm:"not null;size:1024;uniqueIndex:idx_user_question"` // 小写化的问题，用于大小写无关去重
	Answer      string    `gorm:"not null;size:4096"`                               // 答案文本
	Confidence  *int      // 掌握程度 0~5，可缺省
	LastSeen    time.Time // 最近一次复习时间，默认为创建时间
}

func (Fact) TableName() string {
	return "facts"
}

// BeforeSave 在任何写入前规范化派生字段并校验不变式。
// 校验放在模型层，保证无论哪条写入路径都不能越过 Confidence 的取值范围。
func (f *Fact) BeforeSave(tx *gorm.DB) error {
	f.QuestionKey = strings.ToLower(f.Question)
	if f.LastSeen.IsZero() {
		f.LastSeen = time.Now()
	}
	if f.Confidence != nil && (*f.Confidence < 0 || *f.Confidence > 5) {
		return fmt.Errorf("confidence %d 超出 [0, 5] 范围", *f.Confidence)
	}
	return nil
}
