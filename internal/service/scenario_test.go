package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Muelsyse030/XLetsChat/internal/model"
	"github.com/Muelsyse030/XLetsChat/internal/protocol"
)

// memoryMsgStore 同时实现落库与游标拉取，供端到端场景用。
type memoryMsgStore struct {
	stubMsgRepo
}

func (s *memoryMsgStore) ListSince(ctx context.Context, toUID, lastMsgID int64, limit int) ([]model.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.ChatMessage
	for _, m := range s.saved {
		if m.ToUID == toUID && m.MsgID > lastMsgID {
			out = append(out, m)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// 跨网关投递的完整链路：user1 在 G1，user2 在 G2。
// user1 发消息，消息应落库并以二进制帧推到 G2；
// user2 断线后目录残留旧条目，推送命中过期路由被吸收，
// 重连后靠游标同步补回积压消息。
func TestCrossGatewayDeliveryAndCatchUp(t *testing.T) {
	ctx := context.Background()
	store := &memoryMsgStore{}
	dir := newFakePresence()
	pusher := &fakePusher{}

	deliverer := NewDeliverer(dir, pusher)
	// 不注入 deliverer，避免异步直推和断言交错，下面手动驱动投递
	msgSvc := NewMessageService(store, newStubFriends([2]int64{1, 2}), nil)
	syncSvc := NewSyncService(store)

	// 两人各自登录到不同网关
	dir.set(1, "g1:7100")
	dir.set(2, "g2:7100")

	msgID, _, err := msgSvc.SendMessage(ctx, 1, 2, "hello from g1")
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	// 无队列时直推是异步的，这里直接同步驱动一次投递
	deliverer.Deliver(ctx, DeliveryEvent{MsgID: msgID, FromUID: 1, ToUID: 2, Content: "hello from g1"})

	if pusher.count() == 0 {
		t.Fatalf("expected push to user2's gateway")
	}
	rec := pusher.pushes[len(pusher.pushes)-1]
	if rec.addr != "g2:7100" {
		t.Fatalf("push routed to %s, expected g2:7100", rec.addr)
	}
	h, body, err := protocol.Decode(rec.payload)
	if err != nil || h.CmdID != protocol.CmdPushMsg {
		t.Fatalf("expected valid push frame, err=%v cmd=0x%x", err, h.CmdID)
	}
	var pushed protocol.ChatMsg
	if err := json.Unmarshal(body, &pushed); err != nil || pushed.MsgID != msgID {
		t.Fatalf("push body mismatch: err=%v msg=%+v", err, pushed)
	}

	// user2 断线：网关只清本地会话，目录条目保留。
	// 此时再推送会命中过期路由，网关回 NotFoundLocally，逻辑层吸收。
	pusher.code = protocol.ErrNotFoundLocally
	staleID, _, err := msgSvc.SendMessage(ctx, 1, 2, "while offline")
	if err != nil {
		t.Fatalf("SendMessage while offline failed: %v", err)
	}
	deliverer.Deliver(ctx, DeliveryEvent{MsgID: staleID, FromUID: 1, ToUID: 2, Content: "while offline"})

	// 重连后带上次见到的最大 msg_id 同步，应只补回断线期间那条
	backlog, err := syncSvc.SyncMessages(ctx, 2, msgID)
	if err != nil {
		t.Fatalf("SyncMessages failed: %v", err)
	}
	if len(backlog) != 1 || backlog[0].MsgID != staleID {
		t.Fatalf("expected exactly the offline message, got %+v", backlog)
	}
}
