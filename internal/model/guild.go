package model

// Guild Discord 服务器售卖配置 — 对应 guilds
//
// 由服务器 Owner 通过管理端创建；购买流程只读不写。
// Address 为收款钱包地址（Solana base58），UseUSDC 决定结算币种。
type Guild struct {
	// Discord 服务器 ID（雪花 ID，17-19 位数字）
	ID          string `gorm:"type:varchar(20);primaryKey"    json:"id"`
	Name        string `gorm:"type:varchar(100);not null"     json:"name"`
	Description string `gorm:"type:text"                      json:"description"`
	IconURL     string `gorm:"type:varchar(500)"              json:"icon_url"`
	Website     string `gorm:"type:varchar(500)"              json:"website"`

	// 收款钱包地址（base58）
	Address string `gorm:"type:varchar(50);not null" json:"address"`
	// true 使用 USDC 结算，false 使用 SOL
	UseUSDC bool `gorm:"column:use_usdc;not null;default:false" json:"use_usdc"`

	// ── 限时身份组策略（可选）──
	LimitedTimeRoles    bool   `gorm:"not null;default:false" json:"limited_time_roles"`
	LimitedTimeUnit     string `gorm:"type:varchar(10)"       json:"limited_time_unit,omitempty"`
	LimitedTimeQuantity int    `gorm:"default:0"              json:"limited_time_quantity,omitempty"`

	BaseModel

	// 关联
	Roles []Role `gorm:"foreignKey:GuildID;references:ID" json:"roles,omitempty"`
}

// TableName 指定表名
func (Guild) TableName() string { return "guilds" }

// FindRole 按 Discord 身份组 ID 查找可售身份组
func (g *Guild) FindRole(roleID string) *Role {
	for i := range g.Roles {
		if g.Roles[i].ID == roleID {
			return &g.Roles[i]
		}
	}
	return nil
}

// CurrencyLabel 结算币种展示名
func (g *Guild) CurrencyLabel() string {
	if g.UseUSDC {
		return "USDC"
	}
	return "SOL"
}

