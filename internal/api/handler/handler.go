package handler

import "github.com/barkprotocol/blinkshare/internal/service"

// Handler 所有 HTTP 处理器的聚合入口
type Handler struct {
	Blink  *BlinkHandler
	Login  *LoginHandler
	Guild  *GuildHandler
	Export *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Blink:  NewBlinkHandler(svc.Blink),
		Login:  NewLoginHandler(svc.Auth),
		Guild:  NewGuildHandler(svc.Guild),
		Export: NewExportHandler(svc.Export),
	}
}

