package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User 代表与机器人对话过的一个 Messenger 用户。
// SenderID 是平台分配的页面级发送者 ID，首次收到事件时创建记录，作用域内永不删除。
type User struct {
	gorm.Model

	SenderID  string         `gorm:"uniqueIndex;not null;size:64"` // 页面级发送者 ID（不透明字符串）
	FirstName string         `gorm:"size:255"`                     // 来自 Graph API 的名字
	LastName  string         `gorm:"size:255"`                     // 来自 Graph API 的姓氏
	Profile   datatypes.JSON // Graph API 返回的原始 profile 快照

	// 一个用户独占其全部 Facts。删除用户时级联删除。
	Facts []*Fact `gorm:"constraint:OnDelete:CASCADE"`
}

// DisplayName 返回用于问候语的展示名。Profile 拉取失败时两个字段都为空，
// 此时返回空串，调用方应退化为不带称呼的问候。
func (u *User) DisplayName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	return u.FirstName
}

func (User) TableName() string {
	return "users"
}
