package service

import (
	"context"
	"errors"

	"github.com/Muelsyse030/XLetsChat/internal/model"
)

// ErrNotRecipient 表示处理人不是申请的接收方。
var ErrNotRecipient = errors.New("not the request recipient")

// FriendStore 描述好友图需要的存储能力。
type FriendStore interface {
	CreateRequest(ctx context.Context, fromUID, toUID int64, reason string) (int64, error)
	GetRequest(ctx context.Context, reqID int64) (*model.FriendRequest, error)
	PendingForUser(ctx context.Context, uid int64) ([]model.FriendRequest, error)
	Resolve(ctx context.Context, reqID int64, accept bool) error
	AreFriends(ctx context.Context, a, b int64) (bool, error)
	ListFriends(ctx context.Context, uid int64) ([]int64, error)
}

// FriendService 管理好友申请的生命周期：Pending → Accepted / Rejected，单向流转。
type FriendService struct {
	store FriendStore
}

func NewFriendService(store FriendStore) *FriendService {
	return &FriendService{store: store}
}

// SendRequest 发起好友申请。
func (s *FriendService) SendRequest(ctx context.Context, fromUID, toUID int64, reason string) (int64, error) {
	return s.store.CreateRequest(ctx, fromUID, toUID, reason)
}

// Respond 处理一条申请，只有接收方可以处理。
// 接受时两条好友边与状态流转构成一个原子单元（存储层事务保证）。
func (s *FriendService) Respond(ctx context.Context, uid, reqID int64, accept bool) error {
	req, err := s.store.GetRequest(ctx, reqID)
	if err != nil {
		return err
	}
	if req.ToUID != uid {
		return ErrNotRecipient
	}
	return s.store.Resolve(ctx, reqID, accept)
}

// Pending 返回发给 uid 的待处理申请。
func (s *FriendService) Pending(ctx context.Context, uid int64) ([]model.FriendRequest, error) {
	return s.store.PendingForUser(ctx, uid)
}

// ListFriends 返回 uid 的好友列表。
func (s *FriendService) ListFriends(ctx context.Context, uid int64) ([]int64, error) {
	return s.store.ListFriends(ctx, uid)
}

// AreFriends 判断双方是否为好友。
func (s *FriendService) AreFriends(ctx context.Context, a, b int64) (bool, error) {
	return s.store.AreFriends(ctx, a, b)
}
