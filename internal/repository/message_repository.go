package repository

import (
	"context"
	"errors"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"github.com/Muelsyse030/XLetsChat/internal/model"
)

// ErrDuplicateMsgID 用于消息 ID 冲突识别。
var ErrDuplicateMsgID = errors.New("duplicate msg_id")

// MessageRepository 负责单聊与群聊消息的持久化与游标拉取。
type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// DB 暴露底层 *gorm.DB，便于测试/复用。
func (r *MessageRepository) DB() *gorm.DB {
	return r.db
}

// SaveMessage 落库一条单聊消息。
func (r *MessageRepository) SaveMessage(ctx context.Context, msg *model.ChatMessage) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return ErrDuplicateMsgID
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateMsgID
		}
		return err
	}
	return nil
}

// ListSince 返回发给 uid 且 msg_id 大于游标的消息，按 msg_id 升序，最多 limit 条。
func (r *MessageRepository) ListSince(ctx context.Context, toUID, lastMsgID int64, limit int) ([]model.ChatMessage, error) {
	var msgs []model.ChatMessage
	err := r.db.WithContext(ctx).
		Where("to_uid = ? AND msg_id > ?", toUID, lastMsgID).
		Order("msg_id ASC").Limit(limit).Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// SaveGroupMessage 落库一条群聊消息（读扩散，只存一份）。
func (r *MessageRepository) SaveGroupMessage(ctx context.Context, msg *model.GroupMessage) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return ErrDuplicateMsgID
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateMsgID
		}
		return err
	}
	return nil
}

// ListGroupSince 返回群内 msg_id 大于游标的消息，按 msg_id 升序，最多 limit 条。
func (r *MessageRepository) ListGroupSince(ctx context.Context, groupID, lastMsgID int64, limit int) ([]model.GroupMessage, error) {
	var msgs []model.GroupMessage
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND msg_id > ?", groupID, lastMsgID).
		Order("msg_id ASC").Limit(limit).Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}
