package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/Muelsyse030/XLetsChat/internal/model"
)

// ErrNotFriends 表示双方没有已接受的好友关系，发送被拒。
var ErrNotFriends = errors.New("not friends")

// MessageSaver 描述消息持久化需要实现的接口，便于测试替换。
type MessageSaver interface {
	SaveMessage(ctx context.Context, msg *model.ChatMessage) error
}

// FriendChecker 提供好友关系判定。
type FriendChecker interface {
	AreFriends(ctx context.Context, a, b int64) (bool, error)
}

// DeliveryPublisher 把投递事件交给队列，为 nil 时走进程内直推。
type DeliveryPublisher interface {
	PublishDelivery(ctx context.Context, evt DeliveryEvent) error
}

// MessageService 编排单聊发送链路：
// 好友关系闸口 → 持久化 → 投递（入队或直推）。
// 持久化成功即向调用方确认，推送相对调用方是 fire-and-forget。
type MessageService struct {
	msgs      MessageSaver
	friends   FriendChecker
	idgen     *MsgIDGenerator
	producer  DeliveryPublisher
	deliverer *Deliverer
}

func NewMessageService(msgs MessageSaver, friends FriendChecker, deliverer *Deliverer) *MessageService {
	return &MessageService{
		msgs:      msgs,
		friends:   friends,
		idgen:     NewMsgIDGenerator(),
		deliverer: deliverer,
	}
}

// WithProducer 注入投递队列生产者，启用"先入队再推送"的路径。
func (s *MessageService) WithProducer(producer DeliveryPublisher) *MessageService {
	s.producer = producer
	return s
}

// SendMessage 处理一次发送，成功返回消息 ID 与创建时间。
// 好友校验先于一切副作用；持久化失败降级为告警，发送继续——
// 这是刻意用持久性换存活性的选择，推送仍会尝试。
func (s *MessageService) SendMessage(ctx context.Context, fromUID, toUID int64, content string) (int64, int64, error) {
	ok, err := s.friends.AreFriends(ctx, fromUID, toUID)
	if err != nil {
		return 0, 0, err
	}
	if !ok {
		return 0, 0, ErrNotFriends
	}

	msgID := s.idgen.Next()
	createTime := time.Now().Unix()
	msg := &model.ChatMessage{
		MsgID:      msgID,
		FromUID:    fromUID,
		ToUID:      toUID,
		Content:    content,
		CreateTime: createTime,
	}
	if err := s.msgs.SaveMessage(ctx, msg); err != nil {
		log.Printf("消息落库失败 msg_id=%d from=%d to=%d: %v", msgID, fromUID, toUID, err)
	}

	evt := DeliveryEvent{
		MsgID:      msgID,
		FromUID:    fromUID,
		ToUID:      toUID,
		Content:    content,
		CreateTime: createTime,
	}
	s.dispatch(ctx, evt)
	return msgID, createTime, nil
}

// dispatch 把投递事件送往队列；无队列或入队失败时退化为进程内异步直推。
func (s *MessageService) dispatch(ctx context.Context, evt DeliveryEvent) {
	if s.producer != nil {
		if err := s.producer.PublishDelivery(ctx, evt); err == nil {
			return
		} else {
			log.Printf("投递事件入队失败 msg_id=%d，改为直推: %v", evt.MsgID, err)
		}
	}
	if s.deliverer == nil {
		return
	}
	go s.deliverer.Deliver(context.Background(), evt)
}
