package model

import "time"

// AccessGrant OAuth 授权凭据 — 对应 access_grants
//
// Discord OAuth 回调时落库：grant code 本身只有约 1 分钟有效期，
// 但换到的 access token 存活更久。为防购买流程超过 1 分钟，
// 以 code 为键保存加密后的 access token，购买确认时按 code 取回。
//
// 记录只读不改：过期由调用方通过 IsExpired 判断，过期行保留可查（排障用），
// 清理交由外部定时任务。
type AccessGrant struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// OAuth 授权码（一次性，唯一键）
	Code          string `gorm:"type:varchar(255);not null;uniqueIndex:idx_access_grants_code" json:"code"`
	DiscordUserID string `gorm:"type:varchar(50);not null;index:idx_access_grants_discord_user" json:"discord_user_id"`
	// vault 加密后的 access token（ivHex:cipherHex 格式）
	EncryptedToken string    `gorm:"type:varchar(500);not null" json:"-"`
	ExpiresAt      time.Time `gorm:"not null"                   json:"expires_at"`

	BaseModel
}

// TableName 指定表名
func (AccessGrant) TableName() string { return "access_grants" }

// IsExpired 判断凭据是否已过期（严格晚于 expires_at 才算过期，等于不算）
func (g *AccessGrant) IsExpired() bool {
	return time.Now().After(g.ExpiresAt)
}

