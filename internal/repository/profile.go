package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/amanifadhili/encubation-management-system-sub001/internal/model"
	pkgerrors "github.com/amanifadhili/encubation-management-system-sub001/pkg/errors"
)

// ProfileRepository profiles 表的读写
type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetByOwner 不存在时返回 pkgerrors.ProfileNotFound
func (r *ProfileRepository) GetByOwner(ctx context.Context, owner string) (*model.Profile, error) {
	var p model.Profile
	err := r.db.WithContext(ctx).Where("owner_id = ?", owner).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.ProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}
	return &p, nil
}

// Create owner_id 冲突时（并发首次访问）不报错，返回已存在的记录
func (r *ProfileRepository) Create(ctx context.Context, p *model.Profile) (*model.Profile, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "owner_id"}}, DoNothing: true}).
		Create(p)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to create profile: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return r.GetByOwner(ctx, p.OwnerID)
	}
	return p, nil
}

// UpdateFunc 修改加锁后的资料，返回需要写回的列
type UpdateFunc func(p *model.Profile) (columns []string, err error)

// UpdateLocked 在事务内 SELECT ... FOR UPDATE 读取资料，只写回 fn 返回的列。
// 同一用户不同阶段的并发提交因此串行，且不会互相覆盖
func (r *ProfileRepository) UpdateLocked(ctx context.Context, owner string, fn UpdateFunc) (*model.Profile, error) {
	var updated model.Profile

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("owner_id = ?", owner).
			Take(&updated).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.ProfileNotFound
			}
			return fmt.Errorf("failed to lock profile: %w", err)
		}

		columns, err := fn(&updated)
		if err != nil {
			return err
		}
		if len(columns) == 0 {
			return nil
		}

		if err := tx.Model(&updated).Select(columns).Updates(&updated).Error; err != nil {
			return fmt.Errorf("failed to update profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
