package dto

// LoginURLResponse 返回 Discord OAuth 授权链接
type LoginURLResponse struct {
	URL string `json:"url"`
}

// CallbackSuccessResponse 普通成员回调：凭据已落库
type CallbackSuccessResponse struct {
	Success bool `json:"success"`
}

// OwnerLoginResponse Owner 回调：会话 JWT + 可管理的服务器列表
type OwnerLoginResponse struct {
	Token    string       `json:"token"`
	UserID   string       `json:"userId"`
	Username string       `json:"username"`
	Guilds   []OwnerGuild `json:"guilds"`
}

// OwnerGuild Owner 可管理的 Discord 服务器
type OwnerGuild struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Image *string `json:"image"`
	// Bot 是否已进驻该服务器
	HasBot bool `json:"hasBot"`
	// 是否已在平台创建售卖配置
	Created bool `json:"created"`
}
