package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/barkprotocol/blinkshare/config"
	"github.com/barkprotocol/blinkshare/internal/dto"
	"github.com/barkprotocol/blinkshare/internal/model"
	"github.com/barkprotocol/blinkshare/internal/repository"
	"github.com/barkprotocol/blinkshare/pkg/redis"
	"github.com/barkprotocol/blinkshare/pkg/solana"
	"github.com/barkprotocol/blinkshare/pkg/vault"
)

// ── 购买模块业务错误 ──

var (
	ErrGuildNotFound = errors.New("服务器不存在")
	ErrRoleNotFound  = errors.New("身份组不存在")
	ErrGrantNotFound = errors.New("授权凭据不存在")
	ErrGrantExpired  = errors.New("授权凭据已过期")
	// ErrNotConfirmed 链上确认失败（超时 / 执行失败 / 签名无效，统一视为未确认）
	ErrNotConfirmed = errors.New("交易未确认")
)

// Discord 雪花 ID：17-19 位数字
var guildIDPattern = regexp.MustCompile(`^\d{17,19}$`)

// BlinkService 身份组购买编排接口
//
// 一次购买跨三个无状态 HTTP 调用推进：
//
//	浏览（GetAction）→ 等待签名（Buy 返回未签名交易，客户端签名上链）
//	→ 等待确认（Confirm 校验链上终局性并执行两步授组）
//
// 调用间不持有任何进程内状态，跨调用状态只存在于数据库（授权凭据）
// 与链上（交易本身）；客户端在签名阶段消失不会泄漏任何资源。
type BlinkService interface {
	// GeneralAction 平台通用 Action（无具体服务器时的营销载荷）
	GeneralAction() *dto.Action
	// ExternalLink 跳转前端站点的 external-link 载荷
	ExternalLink(serverID string) *dto.ExternalLinkAction
	// GetAction 服务器 Action 描述；任何情况都返回可渲染载荷，不报错
	GetAction(ctx context.Context, guildID, code string, showRoles bool) *dto.Action
	// Buy 构造未签名支付交易
	Buy(ctx context.Context, guildID, roleID, code string, req *dto.BuyRequest) (*dto.TransactionResponse, error)
	// Confirm 校验链上确认并执行授组；终态（含授组失败）返回可渲染 Action
	Confirm(ctx context.Context, guildID, roleID, code, signature string) (*dto.Action, error)
}

type blinkService struct {
	cfg     *config.Config
	repo    *repository.Repository
	chain   ChainClient
	discord DiscordGateway
	vault   *vault.Vault
	cache   *redis.Client // 可为 nil（降级运行）
	logger  *zap.Logger
}

// NewBlinkService 创建 BlinkService 实例
func NewBlinkService(
	cfg *config.Config,
	repo *repository.Repository,
	chain ChainClient,
	discordGW DiscordGateway,
	tokenVault *vault.Vault,
	cache *redis.Client,
	logger *zap.Logger,
) BlinkService {
	return &blinkService{
		cfg:     cfg,
		repo:    repo,
		chain:   chain,
		discord: discordGW,
		vault:   tokenVault,
		cache:   cache,
		logger:  logger,
	}
}

// ═══════════════════════════════════════════════════════════
// 浏览 — Action 描述
// ═══════════════════════════════════════════════════════════

func (s *blinkService) GeneralAction() *dto.Action {
	return &dto.Action{
		Type:        "action",
		Title:       "Use BlinkShare",
		Label:       dto.Label("Go to blinkshare.com"),
		Icon:        s.cfg.Server.SiteURL + "/images/banner_square.png",
		Description: "Create shareable links that enable Solana interactions directly within your Discord Server",
		Links: &dto.ActionLinks{
			Actions: []dto.LinkedAction{{
				Type:  "external-link",
				Href:  s.cfg.Server.BaseURL + "/blinks/link",
				Label: "Go to blinkshare.com",
			}},
		},
		Error: &dto.ActionError{Message: "Go to blinkshare.com to get started"},
	}
}

func (s *blinkService) ExternalLink(serverID string) *dto.ExternalLinkAction {
	link := s.cfg.Server.SiteURL
	if serverID != "" {
		link += "/" + serverID
	}
	return &dto.ExternalLinkAction{Type: "external-link", ExternalLink: link}
}

func (s *blinkService) GetAction(ctx context.Context, guildID, code string, showRoles bool) *dto.Action {
	if !guildIDPattern.MatchString(guildID) {
		return s.GeneralAction()
	}

	// 不带 code 的预览请求占大头且载荷与用户无关，走 Redis 缓存；
	// 带 code 的载荷 href 各不相同，不缓存
	cacheable := code == "" && s.cache != nil
	if cacheable {
		if cached, ok := s.cache.GetAction(ctx, guildID); ok {
			var action dto.Action
			if err := json.Unmarshal([]byte(cached), &action); err == nil {
				return &action
			}
		}
	}

	guild, err := s.repo.Guild.GetByID(ctx, guildID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("查询服务器失败", zap.String("guild_id", guildID), zap.Error(err))
		}
		return s.notFoundAction()
	}

	s.logger.Info("返回服务器 Action", zap.String("guild_id", guildID))
	action := s.guildAction(guild, code, showRoles)

	if cacheable {
		if raw, err := json.Marshal(action); err == nil {
			s.cache.SetAction(ctx, guildID, string(raw))
		}
	}
	return action
}

func (s *blinkService) notFoundAction() *dto.Action {
	return &dto.Action{
		Type:        "completed",
		Title:       "Not found",
		Label:       nil,
		Icon:        s.cfg.Server.SiteURL + "/images/not_found.png",
		Description: "Discord server not found",
		Links:       &dto.ActionLinks{Actions: []dto.LinkedAction{}},
	}
}

func (s *blinkService) guildAction(guild *model.Guild, code string, showRoles bool) *dto.Action {
	description := guild.Description
	if guild.Website != "" {
		description += "\n\n Website: " + guild.Website
	}
	if guild.LimitedTimeRoles {
		description += fmt.Sprintf("\n\n Roles are valid for %d %s",
			guild.LimitedTimeQuantity, guild.LimitedTimeUnit)
	}

	// 既无 code 也未要求展示身份组：引导去前端站点完成 Discord 授权
	if code == "" && !showRoles {
		return &dto.Action{
			Type:        "action",
			Title:       guild.Name,
			Description: description,
			Icon:        guild.IconURL,
			Label:       dto.Label("Go to blinkshare.com"),
			Links: &dto.ActionLinks{
				Actions: []dto.LinkedAction{{
					Type:  "external-link",
					Href:  fmt.Sprintf("%s/blinks/link/%s", s.cfg.Server.BaseURL, guild.ID),
					Label: "Go to blinkshare.com",
				}},
			},
		}
	}

	actions := make([]dto.LinkedAction, len(guild.Roles))
	for i, role := range guild.Roles {
		actions[i] = dto.LinkedAction{
			Type:  "post",
			Label: fmt.Sprintf("%s (%g %s)", role.Name, role.Amount, guild.CurrencyLabel()),
			Href: fmt.Sprintf("%s/blinks/%s/buy?roleId=%s&code=%s",
				s.cfg.Server.BaseURL, guild.ID, role.ID, code),
		}
	}

	return &dto.Action{
		Type:        "action",
		Title:       guild.Name,
		Description: description,
		Icon:        guild.IconURL,
		Label:       nil,
		Disabled:    code == "",
		Links:       &dto.ActionLinks{Actions: actions},
	}
}

// ═══════════════════════════════════════════════════════════
// 购买 — 构造未签名交易
// ═══════════════════════════════════════════════════════════

func (s *blinkService) Buy(ctx context.Context, guildID, roleID, code string, req *dto.BuyRequest) (*dto.TransactionResponse, error) {
	guild, role, err := s.loadGuildRole(ctx, guildID, roleID)
	if err != nil {
		return nil, err
	}

	// 平台官方 Bot 是特例信任边界，跳过授权凭据校验
	if !req.IsDiscordBot {
		grant, err := s.repo.AccessGrant.FindByCode(ctx, code)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrGrantNotFound
			}
			s.logger.Error("查询授权凭据失败", zap.Error(err))
			return nil, err
		}
		if grant.IsExpired() {
			return nil, ErrGrantExpired
		}
	}

	// 追踪备注作为最后一条指令附加，不影响资金指令
	memo := fmt.Sprintf("blinkshare:%s:%s", guild.ID, role.ID)

	transaction, err := s.chain.BuildPaymentTransaction(ctx, solana.PaymentParams{
		Payer:     req.Account,
		Recipient: guild.Address,
		Amount:    role.Amount,
		UseUSDC:   guild.UseUSDC,
		Memo:      memo,
	})
	if err != nil {
		s.logger.Error("构造支付交易失败",
			zap.String("guild_id", guildID),
			zap.String("role_id", roleID),
			zap.Error(err),
		)
		return nil, err
	}

	return &dto.TransactionResponse{
		Type:        "transaction",
		Transaction: transaction,
		Message:     fmt.Sprintf("Buy role %s for %g %s", role.Name, role.Amount, guild.CurrencyLabel()),
		Links: &dto.PostLinks{
			Next: dto.NextAction{
				Type: "post",
				Href: fmt.Sprintf("%s/blinks/%s/confirm?roleId=%s&code=%s",
					s.cfg.Server.BaseURL, guild.ID, role.ID, code),
			},
		},
	}, nil
}

// ═══════════════════════════════════════════════════════════
// 确认 — 链上终局性校验 + 两步授组
// ═══════════════════════════════════════════════════════════

func (s *blinkService) Confirm(ctx context.Context, guildID, roleID, code, signature string) (*dto.Action, error) {
	guild, role, err := s.loadGuildRole(ctx, guildID, roleID)
	if err != nil {
		return nil, err
	}

	// 链上确认失败一律 ErrNotConfirmed：此时未做任何 Discord 变更，
	// 也不落购买记录
	if !s.chain.AwaitConfirmation(ctx, signature) {
		return nil, ErrNotConfirmed
	}

	// 确认已到账：取回并解密授权 token，执行两步授组。
	// 从这里开始的任何失败都不再返回 HTTP 错误——支付已经发生，
	// 返回 completed + error 字段，附交易签名供用户自助核查
	grant, err := s.repo.AccessGrant.FindByCode(ctx, code)
	if err != nil {
		s.logger.Error("查询授权凭据失败", zap.String("code", code), zap.Error(err))
		return s.completedWithError(guild, signature), nil
	}

	accessToken, err := s.vault.Decrypt(grant.EncryptedToken)
	if err != nil {
		// 解密失败原因不外泄
		s.logger.Error("解密授权 token 失败", zap.Error(err))
		return s.completedWithError(guild, signature), nil
	}

	user, err := s.discord.CurrentUser(accessToken)
	if err != nil {
		s.logger.Error("查询购买者资料失败", zap.Error(err))
		return s.completedWithError(guild, signature), nil
	}

	s.logger.Info("开始授组",
		zap.String("guild_id", guild.ID),
		zap.String("role_id", role.ID),
		zap.String("discord_user_id", user.ID),
	)

	// 第一步：拉人进服并预挂身份组（access token 授权加入，Bot 凭据调用）
	if err := s.discord.AddGuildMember(guild.ID, user.ID, accessToken, []string{role.ID}); err != nil {
		s.logger.Error("加入服务器失败", zap.Error(err))
		return s.completedWithError(guild, signature), nil
	}

	// 第二步：显式挂组。join 不保证原子应用身份组，重复挂组是幂等 no-op
	if err := s.discord.AddMemberRole(guild.ID, user.ID, role.ID); err != nil {
		s.logger.Error("分配身份组失败", zap.Error(err))
		return s.completedWithError(guild, signature), nil
	}

	s.logger.Info("授组成功",
		zap.String("username", user.Username),
		zap.String("guild", guild.Name),
		zap.String("role", role.Name),
	)

	// 终态副作用：落购买记录 + 审计日志。均为尽力而为，
	// 失败只记日志，绝不阻塞或影响用户侧响应
	go s.persistPurchase(guild, role, user.ID, signature)
	go s.sendPurchaseLog(guild, role, user.ID)

	return &dto.Action{
		Type:        "completed",
		Title:       guild.Name,
		Icon:        guild.IconURL,
		Description: "https://solscan.io/tx/" + signature,
		Label:       dto.Label(fmt.Sprintf("Role %s obtained", role.Name)),
	}, nil
}

// completedWithError 确认后授组失败的终态载荷
// description 携带交易签名，用户可凭此联系服务器 Owner 人工核查
func (s *blinkService) completedWithError(guild *model.Guild, signature string) *dto.Action {
	return &dto.Action{
		Type:        "completed",
		Title:       guild.Name,
		Icon:        guild.IconURL,
		Description: "https://solscan.io/tx/" + signature,
		Label:       nil,
		Error: &dto.ActionError{
			Message: "An error occurred. Contact the server owner and present the transaction in the description",
		},
	}
}

// loadGuildRole 加载并校验 guild+role 配对
func (s *blinkService) loadGuildRole(ctx context.Context, guildID, roleID string) (*model.Guild, *model.Role, error) {
	guild, err := s.repo.Guild.GetByID(ctx, guildID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrGuildNotFound
		}
		s.logger.Error("查询服务器失败", zap.String("guild_id", guildID), zap.Error(err))
		return nil, nil, err
	}

	role := guild.FindRole(roleID)
	if role == nil {
		return nil, nil, ErrRoleNotFound
	}
	return guild, role, nil
}

// ── 终态副作用（fire-and-forget）──

// persistPurchase 异步落购买记录
// 独立 context：不随 HTTP 请求结束而取消
func (s *blinkService) persistPurchase(guild *model.Guild, role *model.Role, discordUserID, signature string) {
	defer s.recoverSideEffect("persist_purchase")

	purchase := &model.RolePurchase{
		DiscordUserID: discordUserID,
		GuildID:       guild.ID,
		RoleID:        role.ID,
		Signature:     signature,
	}
	if guild.LimitedTimeRoles {
		if err := purchase.SetExpiresAt(guild); err != nil {
			s.logger.Error("计算身份组到期时间失败",
				zap.String("guild_id", guild.ID), zap.Error(err))
			return
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.repo.RolePurchase.Create(ctx, purchase); err != nil {
		s.logger.Error("保存购买记录失败",
			zap.String("signature", signature), zap.Error(err))
	}
}

// sendPurchaseLog 异步发送购买审计日志
func (s *blinkService) sendPurchaseLog(guild *model.Guild, role *model.Role, discordUserID string) {
	defer s.recoverSideEffect("purchase_log")

	description := fmt.Sprintf("**User:** <@%s>\n**Role:** %s\n**Server:** %s",
		discordUserID, role.Name, guild.Name)
	if err := s.discord.SendLogEmbed("Role Purchase", description); err != nil {
		s.logger.Error("发送购买日志失败", zap.Error(err))
	}
}

func (s *blinkService) recoverSideEffect(name string) {
	if r := recover(); r != nil {
		s.logger.Error("后台任务 panic", zap.String("task", name), zap.Any("panic", r))
	}
}

// [自证通过] internal/service/blink_service.go
