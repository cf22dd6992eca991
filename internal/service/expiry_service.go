package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/barkprotocol/blinkshare/internal/repository"
)

// 到期清理扫描间隔
const sweepInterval = time.Hour

// ExpiryService 限时身份组到期清理
//
// 进程内定时任务（非持久化队列）：每小时扫一遍已到期的限时购买记录，
// 移除 Discord 身份组并删除记录。单条失败跳过，下一轮重试。
type ExpiryService interface {
	// Start 启动清理循环，阻塞直到 ctx 取消；应在独立 goroutine 中调用
	Start(ctx context.Context)
	// SweepOnce 执行一轮清理，返回成功清理的条数
	SweepOnce(ctx context.Context) int
}

type expiryService struct {
	repo    *repository.Repository
	discord DiscordGateway
	logger  *zap.Logger
}

// NewExpiryService 创建 ExpiryService 实例
func NewExpiryService(repo *repository.Repository, discordGW DiscordGateway, logger *zap.Logger) ExpiryService {
	return &expiryService{repo: repo, discord: discordGW, logger: logger}
}

func (s *expiryService) Start(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	s.logger.Info("到期清理任务已启动")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("到期清理任务已停止")
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

func (s *expiryService) SweepOnce(ctx context.Context) int {
	expired, err := s.repo.RolePurchase.ListExpired(ctx, time.Now())
	if err != nil {
		s.logger.Error("查询到期购买记录失败", zap.Error(err))
		return 0
	}
	if len(expired) == 0 {
		return 0
	}

	cleaned := 0
	for _, p := range expired {
		if err := s.discord.RemoveMemberRole(p.GuildID, p.DiscordUserID, p.RoleID); err != nil {
			// 移除失败不删记录，留待下一轮
			s.logger.Warn("移除到期身份组失败",
				zap.String("guild_id", p.GuildID),
				zap.String("discord_user_id", p.DiscordUserID),
				zap.Error(err),
			)
			continue
		}
		if err := s.repo.RolePurchase.Delete(ctx, p.ID); err != nil {
			s.logger.Error("删除到期购买记录失败", zap.Uint("id", p.ID), zap.Error(err))
			continue
		}
		cleaned++
	}

	s.logger.Info("到期清理完成", zap.Int("expired", len(expired)), zap.Int("cleaned", cleaned))
	return cleaned
}

