package dto

// SaveGuildRequest 创建/更新服务器售卖配置请求
// 钱包签名证明调用者持有收款地址，由签名校验中间件消费
type SaveGuildRequest struct {
	// 收款钱包地址（base58）
	Address string `json:"address" binding:"required"`
	// 被签名的原始消息
	Message string `json:"message"`
	// base64 编码的 ed25519 分离签名
	Signature string    `json:"signature"`
	Data      GuildData `json:"data" binding:"required"`
}

// GuildData 服务器售卖配置载荷
type GuildData struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	Description         string     `json:"description"`
	IconURL             string     `json:"icon_url"`
	Website             string     `json:"website"`
	UseUSDC             bool       `json:"use_usdc"`
	LimitedTimeRoles    bool       `json:"limited_time_roles"`
	LimitedTimeUnit     string     `json:"limited_time_unit"`
	LimitedTimeQuantity int        `json:"limited_time_quantity"`
	Roles               []RoleData `json:"roles"`
}

// RoleData 可售身份组载荷
type RoleData struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}
