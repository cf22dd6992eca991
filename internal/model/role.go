package model

// Role 可售身份组 — 对应 roles
//
// ID 即 Discord 身份组 ID，归属唯一 Guild。
type Role struct {
	ID      string  `gorm:"type:varchar(20);primaryKey"           json:"id"`
	Name    string  `gorm:"type:varchar(100);not null"            json:"name"`
	GuildID string  `gorm:"type:varchar(20);not null;index"       json:"guild_id"`
	// 售价（SOL 或 USDC，按所属 Guild 的币种）
	Amount float64 `gorm:"type:decimal(9,5);not null;default:0" json:"amount"`

	BaseModel
}

// TableName 指定表名
func (Role) TableName() string { return "roles" }
