package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Muelsyse030/XLetsChat/internal/presence"
	"github.com/Muelsyse030/XLetsChat/internal/protocol"
)

// pushTimeout 为单次远程推送的截止时间。
const pushTimeout = 2 * time.Second

// DeliveryEvent 表示一条已持久化、等待推送的消息。
type DeliveryEvent struct {
	MsgID      int64  `json:"msg_id"`
	FromUID    int64  `json:"from_uid"`
	ToUID      int64  `json:"to_uid"`
	Content    string `json:"content"`
	CreateTime int64  `json:"create_time"`
}

// PresenceLookup 提供按 uid 查询所在网关的能力。
type PresenceLookup interface {
	GetPresence(ctx context.Context, uid int64) (string, error)
}

// GatewayPusher 把封包后的消息推到指定网关。
type GatewayPusher interface {
	Push(ctx context.Context, addr string, toUID int64, payload []byte) (protocol.ErrCode, error)
}

// Deliverer 执行推送链路：目录查询 → 封包 → 远程推送。
// 任何一步失败都只记日志，消息已持久化，收件人靠同步补偿。
type Deliverer struct {
	presence PresenceLookup
	pusher   GatewayPusher
}

func NewDeliverer(presence PresenceLookup, pusher GatewayPusher) *Deliverer {
	return &Deliverer{presence: presence, pusher: pusher}
}

// Deliver 尽力把一条消息推给在线收件人。
func (d *Deliverer) Deliver(ctx context.Context, evt DeliveryEvent) {
	addr, err := d.presence.GetPresence(ctx, evt.ToUID)
	if errors.Is(err, presence.ErrNotFound) {
		// 离线不是错误，消息等对方同步拉取
		return
	}
	if err != nil {
		log.Printf("查询在线状态失败 to_uid=%d msg_id=%d: %v", evt.ToUID, evt.MsgID, err)
		return
	}

	body, err := json.Marshal(protocol.ChatMsg{
		MsgID:      evt.MsgID,
		FromUID:    evt.FromUID,
		ToUID:      evt.ToUID,
		Content:    evt.Content,
		CreateTime: evt.CreateTime,
	})
	if err != nil {
		log.Printf("推送封包失败 msg_id=%d: %v", evt.MsgID, err)
		return
	}
	framed := protocol.Encode(protocol.CmdPushMsg, 0, body)

	pushCtx, cancel := context.WithTimeout(ctx, pushTimeout)
	defer cancel()
	code, err := d.pusher.Push(pushCtx, addr, evt.ToUID, framed)
	if err != nil {
		log.Printf("推送失败 gateway=%s to_uid=%d msg_id=%d: %v", addr, evt.ToUID, evt.MsgID, err)
		return
	}
	if code == protocol.ErrNotFoundLocally {
		// 目录条目已过期（下线不清理），由同步兜底
		log.Printf("路由未命中 gateway=%s to_uid=%d msg_id=%d", addr, evt.ToUID, evt.MsgID)
	}
}

// DeliveryProducer 把投递事件发布到 RabbitMQ，使用持久化消息。
type DeliveryProducer struct {
	ch         *amqp.Channel
	exchange   string
	routingKey string
}

func NewDeliveryProducer(ch *amqp.Channel, exchange, routingKey string) *DeliveryProducer {
	return &DeliveryProducer{ch: ch, exchange: exchange, routingKey: routingKey}
}

func (p *DeliveryProducer) PublishDelivery(ctx context.Context, evt DeliveryEvent) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx,
		p.exchange,
		p.routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
}

// DeliveryConsumer 消费投递事件并执行推送。
type DeliveryConsumer struct {
	ch        *amqp.Channel
	queue     string
	deliverer *Deliverer
}

func NewDeliveryConsumer(ch *amqp.Channel, queue string, deliverer *Deliverer) *DeliveryConsumer {
	return &DeliveryConsumer{ch: ch, queue: queue, deliverer: deliverer}
}

// Start 启动消费循环（非阻塞），ctx 取消后退出。
func (c *DeliveryConsumer) Start(ctx context.Context) error {
	deliveries, err := c.ch.Consume(
		c.queue,
		"",
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,
	)
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-deliveries:
				if !ok {
					return
				}
				c.handleDelivery(ctx, msg)
			}
		}
	}()
	return nil
}

func (c *DeliveryConsumer) handleDelivery(parentCtx context.Context, msg amqp.Delivery) {
	var evt DeliveryEvent
	if err := json.Unmarshal(msg.Body, &evt); err != nil {
		log.Printf("解析投递事件失败: %v", err)
		_ = msg.Nack(false, false) // 丢弃坏消息
		return
	}

	ctx, cancel := context.WithTimeout(parentCtx, 5*time.Second)
	defer cancel()
	// Deliver 内部吸收所有失败：推送是尽力而为，消息已持久化
	c.deliverer.Deliver(ctx, evt)
	_ = msg.Ack(false)
}
