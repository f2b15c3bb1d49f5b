package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Muelsyse030/XLetsChat/internal/model"
)

// GroupRepository 负责群组与成员关系的读写。
type GroupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// CreateGroup 建群并把群主写入成员表，同一事务完成。
func (r *GroupRepository) CreateGroup(ctx context.Context, ownerUID int64, name string) (int64, error) {
	g := model.Group{
		Name:       name,
		OwnerUID:   ownerUID,
		CreateTime: time.Now().Unix(),
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&g).Error; err != nil {
			return err
		}
		member := model.GroupMember{GroupID: g.GroupID, UID: ownerUID, CreateTime: g.CreateTime}
		return tx.Create(&member).Error
	})
	if err != nil {
		return 0, err
	}
	return g.GroupID, nil
}

// AddMember 添加群成员，重复添加保持幂等。
func (r *GroupRepository) AddMember(ctx context.Context, groupID, uid int64) error {
	member := model.GroupMember{GroupID: groupID, UID: uid, CreateTime: time.Now().Unix()}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&member).Error
}

// IsMember 判断 uid 是否在群内。
func (r *GroupRepository) IsMember(ctx context.Context, groupID, uid int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.GroupMember{}).
		Where("group_id = ? AND uid = ?", groupID, uid).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Members 返回群成员 uid 列表。
func (r *GroupRepository) Members(ctx context.Context, groupID int64) ([]int64, error) {
	var uids []int64
	err := r.db.WithContext(ctx).Model(&model.GroupMember{}).
		Where("group_id = ?", groupID).Order("uid ASC").Pluck("uid", &uids).Error
	if err != nil {
		return nil, err
	}
	return uids, nil
}
