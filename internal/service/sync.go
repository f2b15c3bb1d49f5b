package service

import (
	"context"

	"github.com/Muelsyse030/XLetsChat/internal/model"
)

// SyncPageSize 为单次同步的最大条数，客户端以短页作为追平信号。
const SyncPageSize = 100

// SyncStorage 描述游标拉取需要的存储能力。
type SyncStorage interface {
	ListSince(ctx context.Context, toUID, lastMsgID int64, limit int) ([]model.ChatMessage, error)
}

// SyncService 用消息 ID 作为游标向重连客户端补发积压消息。
type SyncService struct {
	store SyncStorage
}

func NewSyncService(store SyncStorage) *SyncService {
	return &SyncService{store: store}
}

// SyncMessages 返回发给 uid 且 msg_id 大于游标的消息，升序，单页上限 100。
// 客户端用收到的最大 msg_id 重复调用直到返回短页。
func (s *SyncService) SyncMessages(ctx context.Context, uid, lastMsgID int64) ([]model.ChatMessage, error) {
	return s.store.ListSince(ctx, uid, lastMsgID, SyncPageSize)
}
