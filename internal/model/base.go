package model

import "time"

// BaseModel 通用审计字段（所有业务模型嵌入）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// ── 限时身份组时间单位 ──

// 与 guilds.limited_time_unit 列取值一致
const (
	TimeUnitHours  = "Hours"
	TimeUnitDays   = "Days"
	TimeUnitWeeks  = "Weeks"
	TimeUnitMonths = "Months"
)

