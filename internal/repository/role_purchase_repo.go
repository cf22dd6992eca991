package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/barkprotocol/blinkshare/internal/model"
)

// RolePurchaseRepository 购买记录数据访问接口
type RolePurchaseRepository interface {
	Create(ctx context.Context, purchase *model.RolePurchase) error
	ListByGuild(ctx context.Context, guildID string) ([]model.RolePurchase, error)
	// ListExpired 查询到期时间早于 before 的限时购买记录（到期清理用）
	ListExpired(ctx context.Context, before time.Time) ([]model.RolePurchase, error)
	Delete(ctx context.Context, id uint) error
}

// rolePurchaseRepo RolePurchaseRepository 的 GORM 实现
type rolePurchaseRepo struct {
	db *gorm.DB
}

// NewRolePurchaseRepo 创建 RolePurchaseRepository 实例
func NewRolePurchaseRepo(db *gorm.DB) RolePurchaseRepository {
	return &rolePurchaseRepo{db: db}
}

func (r *rolePurchaseRepo) Create(ctx context.Context, purchase *model.RolePurchase) error {
	return r.db.WithContext(ctx).Create(purchase).Error
}

func (r *rolePurchaseRepo) ListByGuild(ctx context.Context, guildID string) ([]model.RolePurchase, error) {
	var purchases []model.RolePurchase
	err := r.db.WithContext(ctx).
		Preload("Role").
		Where("guild_id = ?", guildID).
		Order("created_at DESC").
		Find(&purchases).Error
	if err != nil {
		return nil, err
	}
	return purchases, nil
}

func (r *rolePurchaseRepo) ListExpired(ctx context.Context, before time.Time) ([]model.RolePurchase, error) {
	var purchases []model.RolePurchase
	err := r.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at < ?", before).
		Find(&purchases).Error
	if err != nil {
		return nil, err
	}
	return purchases, nil
}

func (r *rolePurchaseRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.RolePurchase{}, id).Error
}
