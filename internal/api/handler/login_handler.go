package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/barkprotocol/blinkshare/internal/service"
	"github.com/barkprotocol/blinkshare/pkg/response"
)

// LoginHandler Discord OAuth 登录模块 HTTP 处理器
type LoginHandler struct {
	authSvc service.AuthService
}

// NewLoginHandler 创建 LoginHandler
func NewLoginHandler(authSvc service.AuthService) *LoginHandler {
	return &LoginHandler{authSvc: authSvc}
}

// GetLoginURL 生成 Discord OAuth 授权链接
// GET /login?owner=true
// owner=true 走管理端授权（identify+guilds），否则为购买成员授权（identify+guilds.join）
func (h *LoginHandler) GetLoginURL(c *gin.Context) {
	owner := c.Query("owner") == "true"
	response.OK(c, h.authSvc.LoginURL(owner))
}

// Callback OAuth 回调
// GET /login/callback?code=&owner=
func (h *LoginHandler) Callback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		response.BadRequest(c, "Missing authorization code")
		return
	}

	if c.Query("owner") == "true" {
		result, err := h.authSvc.OwnerCallback(c.Request.Context(), code)
		if err != nil {
			response.Error(c, 500, "Failed to complete the authentication process")
			return
		}
		response.OK(c, result)
		return
	}

	result, err := h.authSvc.MemberCallback(c.Request.Context(), code)
	if err != nil {
		response.Error(c, 500, "Failed to complete the authentication process")
		return
	}
	response.OK(c, result)
}

