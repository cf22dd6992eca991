package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/barkprotocol/blinkshare/internal/model"
)

// AccessGrantRepository OAuth 授权凭据数据访问接口
type AccessGrantRepository interface {
	Save(ctx context.Context, grant *model.AccessGrant) error
	// FindByCode 按授权码查询；过期行照常返回，过期判断归调用方
	FindByCode(ctx context.Context, code string) (*model.AccessGrant, error)
	ListByDiscordUser(ctx context.Context, discordUserID string) ([]model.AccessGrant, error)
}

// accessGrantRepo AccessGrantRepository 的 GORM 实现
type accessGrantRepo struct {
	db *gorm.DB
}

// NewAccessGrantRepo 创建 AccessGrantRepository 实例
func NewAccessGrantRepo(db *gorm.DB) AccessGrantRepository {
	return &accessGrantRepo{db: db}
}

func (r *accessGrantRepo) Save(ctx context.Context, grant *model.AccessGrant) error {
	return r.db.WithContext(ctx).Create(grant).Error
}

func (r *accessGrantRepo) FindByCode(ctx context.Context, code string) (*model.AccessGrant, error) {
	var grant model.AccessGrant
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&grant).Error
	if err != nil {
		return nil, err
	}
	return &grant, nil
}

func (r *accessGrantRepo) ListByDiscordUser(ctx context.Context, discordUserID string) ([]model.AccessGrant, error) {
	var grants []model.AccessGrant
	err := r.db.WithContext(ctx).
		Where("discord_user_id = ?", discordUserID).
		Order("created_at DESC").
		Find(&grants).Error
	if err != nil {
		return nil, err
	}
	return grants, nil
}
