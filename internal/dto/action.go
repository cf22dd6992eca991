package dto

// Solana Action 协议载荷
//
// 消费方是声明式的 Blink 渲染客户端，不是常规前端：它按 body 渲染，
// 基本不看 HTTP 状态码，所以 confirm 终态（含失败）都走 200 + type=completed。

// Action GET 描述载荷
type Action struct {
	// "action" | "completed" | "external-link"
	Type        string       `json:"type"`
	Icon        string       `json:"icon,omitempty"`
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	// 渲染器要求该字段始终存在，未设置时输出 null
	Label        *string      `json:"label"`
	Disabled     bool         `json:"disabled,omitempty"`
	Links        *ActionLinks `json:"links,omitempty"`
	Error        *ActionError `json:"error,omitempty"`
	ExternalLink string       `json:"externalLink,omitempty"`
}

// ActionLinks 可点击子操作集合
type ActionLinks struct {
	Actions []LinkedAction `json:"actions"`
}

// LinkedAction 单个子操作（购买按钮 / 外链）
type LinkedAction struct {
	// "post" | "external-link"
	Type  string `json:"type"`
	Href  string `json:"href"`
	Label string `json:"label"`
}

// ActionError 渲染器展示的错误信息
type ActionError struct {
	Message string `json:"message"`
}

// Label 便捷构造 *string
func Label(s string) *string { return &s }

// ExternalLinkAction 纯跳转载荷（不含按钮与 label）
type ExternalLinkAction struct {
	Type         string `json:"type"`
	ExternalLink string `json:"externalLink"`
}

// ── POST 响应 ──

// TransactionResponse buy 调用的交易载荷
type TransactionResponse struct {
	// 恒为 "transaction"
	Type string `json:"type"`
	// base64 序列化的未签名交易，由用户钱包签名后上链
	Transaction string     `json:"transaction"`
	Message     string     `json:"message,omitempty"`
	Links       *PostLinks `json:"links,omitempty"`
}

// PostLinks 指向下一步操作
type PostLinks struct {
	Next NextAction `json:"next"`
}

// NextAction 下一步操作指引（confirm 端点）
type NextAction struct {
	Type string `json:"type"`
	Href string `json:"href"`
}

// ── 请求体 ──

// BuyRequest buy 调用请求体
type BuyRequest struct {
	// 付款人钱包地址
	Account string `json:"account" binding:"required"`
	// 平台官方 Bot 客户端的特例信任边界：为 true 时跳过授权凭据校验
	IsDiscordBot bool `json:"isDiscordBot"`
}

// ConfirmRequest confirm 调用请求体
type ConfirmRequest struct {
	// 链上交易签名
	Signature string `json:"signature" binding:"required"`
}

