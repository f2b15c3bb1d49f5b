package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/Muelsyse030/XLetsChat/internal/model"
)

// ErrNotGroupMember 表示操作者不在群内。
var ErrNotGroupMember = errors.New("not a group member")

// GroupStore 描述群组数据的读写能力。
type GroupStore interface {
	CreateGroup(ctx context.Context, ownerUID int64, name string) (int64, error)
	AddMember(ctx context.Context, groupID, uid int64) error
	IsMember(ctx context.Context, groupID, uid int64) (bool, error)
	Members(ctx context.Context, groupID int64) ([]int64, error)
}

// GroupMessageStore 描述群消息的读写能力。
type GroupMessageStore interface {
	SaveGroupMessage(ctx context.Context, msg *model.GroupMessage) error
	ListGroupSince(ctx context.Context, groupID, lastMsgID int64, limit int) ([]model.GroupMessage, error)
}

// GroupService 管理群组与群消息。
// 群聊走读扩散：消息只存一份，成员各自带游标拉取，不做在线推送。
type GroupService struct {
	groups GroupStore
	msgs   GroupMessageStore
	idgen  *MsgIDGenerator
}

func NewGroupService(groups GroupStore, msgs GroupMessageStore) *GroupService {
	return &GroupService{groups: groups, msgs: msgs, idgen: NewMsgIDGenerator()}
}

// CreateGroup 建群，群主自动入群。
func (s *GroupService) CreateGroup(ctx context.Context, ownerUID int64, name string) (int64, error) {
	return s.groups.CreateGroup(ctx, ownerUID, name)
}

// JoinGroup 加入群组。
func (s *GroupService) JoinGroup(ctx context.Context, groupID, uid int64) error {
	return s.groups.AddMember(ctx, groupID, uid)
}

// SendGroupMessage 发送群消息，成员资格闸口先于一切副作用。
func (s *GroupService) SendGroupMessage(ctx context.Context, fromUID, groupID int64, content string) (int64, int64, error) {
	ok, err := s.groups.IsMember(ctx, groupID, fromUID)
	if err != nil {
		return 0, 0, err
	}
	if !ok {
		return 0, 0, ErrNotGroupMember
	}

	msgID := s.idgen.Next()
	createTime := time.Now().Unix()
	msg := &model.GroupMessage{
		MsgID:      msgID,
		GroupID:    groupID,
		FromUID:    fromUID,
		Content:    content,
		CreateTime: createTime,
	}
	if err := s.msgs.SaveGroupMessage(ctx, msg); err != nil {
		log.Printf("群消息落库失败 msg_id=%d group=%d from=%d: %v", msgID, groupID, fromUID, err)
	}
	return msgID, createTime, nil
}

// SyncGroupMessages 带成员资格闸口的群消息游标拉取。
func (s *GroupService) SyncGroupMessages(ctx context.Context, uid, groupID, lastMsgID int64) ([]model.GroupMessage, error) {
	ok, err := s.groups.IsMember(ctx, groupID, uid)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotGroupMember
	}
	return s.msgs.ListGroupSince(ctx, groupID, lastMsgID, SyncPageSize)
}
