// Package store 定义数据库层的核心数据结构，避免在 handler 中散落 SQL 字段细节。
package store

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	UserStatusDisabled = 0
	UserStatusEnabled  = 1
)

type User struct {
	ID           int64
	Email        string
	Username     string
	PasswordHash []byte
	Role         string
	Status       int
	Balance      decimal.Decimal
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const (
	AnnouncementStatusDraft     = 0
	AnnouncementStatusPublished = 1
)

type Announcement struct {
	ID        int64
	Title     string
	Body      string
	Status    int
	CreatedAt time.Time
	UpdatedAt time.Time
}
