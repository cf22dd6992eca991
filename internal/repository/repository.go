package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Guild        GuildRepository
	AccessGrant  AccessGrantRepository
	RolePurchase RolePurchaseRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Guild:        NewGuildRepo(db),
		AccessGrant:  NewAccessGrantRepo(db),
		RolePurchase: NewRolePurchaseRepo(db),
	}
}

