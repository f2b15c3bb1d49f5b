package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Muelsyse030/XLetsChat/internal/model"
)

// ErrRequestResolved 表示好友申请已被处理过，Pending 是唯一可流转状态。
var ErrRequestResolved = errors.New("friend request already resolved")

// FriendRepository 负责好友申请生命周期与好友边的读写。
type FriendRepository struct {
	db *gorm.DB
}

func NewFriendRepository(db *gorm.DB) *FriendRepository {
	return &FriendRepository{db: db}
}

// CreateRequest 新建一条待处理的好友申请，返回申请 ID。
func (r *FriendRepository) CreateRequest(ctx context.Context, fromUID, toUID int64, reason string) (int64, error) {
	req := model.FriendRequest{
		FromUID:    fromUID,
		ToUID:      toUID,
		Reason:     reason,
		CreateTime: time.Now().Unix(),
		Status:     model.FriendRequestPending,
	}
	if err := r.db.WithContext(ctx).Create(&req).Error; err != nil {
		return 0, err
	}
	return req.ReqID, nil
}

// GetRequest 按 ID 查询申请。
func (r *FriendRepository) GetRequest(ctx context.Context, reqID int64) (*model.FriendRequest, error) {
	var req model.FriendRequest
	if err := r.db.WithContext(ctx).First(&req, reqID).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// PendingForUser 返回发给 uid 的全部待处理申请，按 ID 升序。
func (r *FriendRepository) PendingForUser(ctx context.Context, uid int64) ([]model.FriendRequest, error) {
	var reqs []model.FriendRequest
	err := r.db.WithContext(ctx).
		Where("to_uid = ? AND status = ?", uid, model.FriendRequestPending).
		Order("req_id ASC").Find(&reqs).Error
	if err != nil {
		return nil, err
	}
	return reqs, nil
}

// Resolve 处理一条申请：状态流转与两条好友边在同一事务内完成。
// 状态流转用条件更新做 CAS，申请已被处理时返回 ErrRequestResolved；
// 任一条边写入失败则整体回滚，申请保持 Pending 可重试。
func (r *FriendRepository) Resolve(ctx context.Context, reqID int64, accept bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req model.FriendRequest
		if err := tx.First(&req, reqID).Error; err != nil {
			return err
		}

		newStatus := model.FriendRequestRejected
		if accept {
			newStatus = model.FriendRequestAccepted
		}
		res := tx.Model(&model.FriendRequest{}).
			Where("req_id = ? AND status = ?", reqID, model.FriendRequestPending).
			Update("status", newStatus)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRequestResolved
		}

		if !accept {
			return nil
		}

		now := time.Now().Unix()
		edges := []model.Friend{
			{UID: req.FromUID, FriendUID: req.ToUID, CreateTime: now},
			{UID: req.ToUID, FriendUID: req.FromUID, CreateTime: now},
		}
		for i := range edges {
			// 已有同向边时跳过，接受操作保持幂等
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&edges[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// AreFriends 判断 a 是否已把 b 加为好友（单向边）。
func (r *FriendRepository) AreFriends(ctx context.Context, a, b int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Friend{}).
		Where("uid = ? AND friend_uid = ?", a, b).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListFriends 返回 uid 的好友列表。
func (r *FriendRepository) ListFriends(ctx context.Context, uid int64) ([]int64, error) {
	var friends []int64
	err := r.db.WithContext(ctx).Model(&model.Friend{}).
		Where("uid = ?", uid).Order("friend_uid ASC").Pluck("friend_uid", &friends).Error
	if err != nil {
		return nil, err
	}
	return friends, nil
}
