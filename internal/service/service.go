package service

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/barkprotocol/blinkshare/config"
	"github.com/barkprotocol/blinkshare/internal/repository"
	"github.com/barkprotocol/blinkshare/pkg/redis"
	"github.com/barkprotocol/blinkshare/pkg/solana"
	"github.com/barkprotocol/blinkshare/pkg/vault"
)

// ChainClient 链上交互依赖
// 由 pkg/solana.Client 实现；接口化便于测试注入假客户端
type ChainClient interface {
	BuildPaymentTransaction(ctx context.Context, params solana.PaymentParams) (string, error)
	AwaitConfirmation(ctx context.Context, signature string) bool
}

// DiscordGateway Discord 侧依赖
// 由 pkg/discord.Client 实现
type DiscordGateway interface {
	AuthorizeURL(owner bool) string
	ExchangeCode(ctx context.Context, code string) (accessToken string, expiresAt time.Time, err error)
	CurrentUser(accessToken string) (*discordgo.User, error)
	UserGuilds(accessToken string) ([]*discordgo.UserGuild, error)
	BotGuilds() ([]*discordgo.UserGuild, error)
	AddGuildMember(guildID, userID, accessToken string, roleIDs []string) error
	AddMemberRole(guildID, userID, roleID string) error
	RemoveMemberRole(guildID, userID, roleID string) error
	SendLogEmbed(title, description string) error
}

// Service 所有 Service 的聚合入口
type Service struct {
	Blink  BlinkService
	Auth   AuthService
	Guild  GuildService
	Export ExportService
	Expiry ExpiryService
}

// NewService 创建 Service 聚合
// cache 允许为 nil（Redis 不可用时降级运行）
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	chain ChainClient,
	discord DiscordGateway,
	tokenVault *vault.Vault,
	cache *redis.Client,
	jwtMgr JWTManager,
	logger *zap.Logger,
) *Service {
	return &Service{
		Blink:  NewBlinkService(cfg, repo, chain, discord, tokenVault, cache, logger),
		Auth:   NewAuthService(repo, discord, tokenVault, jwtMgr, logger),
		Guild:  NewGuildService(repo, cache, logger),
		Export: NewExportService(repo, logger),
		Expiry: NewExpiryService(repo, discord, logger),
	}
}

// JWTManager Owner 会话签发依赖（pkg/jwt.Manager 实现）
type JWTManager interface {
	GenerateToken(userID, username string, guildIDs []string) (string, error)
}

