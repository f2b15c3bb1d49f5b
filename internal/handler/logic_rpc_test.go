package handler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Muelsyse030/XLetsChat/internal/model"
	"github.com/Muelsyse030/XLetsChat/internal/pool"
	"github.com/Muelsyse030/XLetsChat/internal/presence"
	"github.com/Muelsyse030/XLetsChat/internal/protocol"
	"github.com/Muelsyse030/XLetsChat/internal/repository"
	"github.com/Muelsyse030/XLetsChat/internal/service"
	"gorm.io/gorm"
)

// fakeDirConn 用内存 map 模拟目录操作用到的 Redis 连接。
type fakeDirConn struct {
	mu   sync.Mutex
	data map[string]string
}

func (c *fakeDirConn) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (c *fakeDirConn) Get(ctx context.Context, key string) *redis.StringCmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (c *fakeDirConn) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := c.data[k]; ok {
			delete(c.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (c *fakeDirConn) Ping(ctx context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (c *fakeDirConn) Close() error { return nil }

func newFakeDirectory() *presence.Directory {
	conn := &fakeDirConn{data: make(map[string]string)}
	p := pool.New(pool.Options[presence.Conn]{
		Name:    "fake-redis",
		MinSize: 1,
		MaxSize: 2,
		Factory: func() (presence.Conn, error) { return conn, nil },
	})
	return presence.NewDirectory(p)
}

// stubUserStore 固定一个用户，Password 字段即长连接令牌。
type stubUserStore struct {
	user model.User
}

func (s *stubUserStore) CreateUser(ctx context.Context, username, passwordHash, email string) (int64, error) {
	return s.user.ID, nil
}

func (s *stubUserStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if email != s.user.Email {
		return nil, gorm.ErrRecordNotFound
	}
	u := s.user
	return &u, nil
}

func (s *stubUserStore) FindByUID(ctx context.Context, uid int64) (*model.User, error) {
	if uid != s.user.ID {
		return nil, gorm.ErrRecordNotFound
	}
	u := s.user
	return &u, nil
}

type stubSaver struct {
	saved []model.ChatMessage
}

func (s *stubSaver) SaveMessage(ctx context.Context, msg *model.ChatMessage) error {
	s.saved = append(s.saved, *msg)
	return nil
}

type stubChecker struct{ ok bool }

func (s *stubChecker) AreFriends(ctx context.Context, a, b int64) (bool, error) {
	return s.ok, nil
}

type stubLister struct {
	msgs []model.ChatMessage
}

func (s *stubLister) ListSince(ctx context.Context, toUID, lastMsgID int64, limit int) ([]model.ChatMessage, error) {
	var out []model.ChatMessage
	for _, m := range s.msgs {
		if m.ToUID == toUID && m.MsgID > lastMsgID {
			out = append(out, m)
		}
	}
	return out, nil
}

func newTestLogic(friendOK bool) *Logic {
	users := &stubUserStore{user: model.User{ID: 1, Username: "u1", Password: "tok_1", Email: "u1@x.io"}}
	return NewLogic(
		service.NewAuthService(users),
		service.NewMessageService(&stubSaver{}, &stubChecker{ok: friendOK}, nil),
		nil,
		service.NewSyncService(&stubLister{msgs: []model.ChatMessage{
			{MsgID: 10, ToUID: 1, FromUID: 2, Content: "a"},
			{MsgID: 11, ToUID: 1, FromUID: 2, Content: "b"},
		}}),
		nil,
		nil,
		newFakeDirectory(),
	)
}

func TestLoginRegistersPresence(t *testing.T) {
	dir := newFakeDirectory()
	users := &stubUserStore{user: model.User{ID: 1, Password: "tok_1", Email: "u1@x.io"}}
	l := NewLogic(service.NewAuthService(users), nil, nil, nil, nil, nil, dir)

	var res protocol.LoginRes
	err := l.Login(&protocol.LoginReq{UID: 1, Token: "tok_1", GatewayAddr: "g1:7100"}, &res)
	if err != nil {
		t.Fatalf("Login must not return transport error, got %v", err)
	}
	if res.ErrCode != protocol.ErrSuccess || res.SessionID == "" || res.ServerTime == 0 {
		t.Fatalf("unexpected login response: %+v", res)
	}

	addr, err := dir.GetPresence(context.Background(), 1)
	if err != nil || addr != "g1:7100" {
		t.Fatalf("presence not registered: addr=%q err=%v", addr, err)
	}
}

func TestLoginRejectsBadToken(t *testing.T) {
	users := &stubUserStore{user: model.User{ID: 1, Password: "tok_1", Email: "u1@x.io"}}
	l := NewLogic(service.NewAuthService(users), nil, nil, nil, nil, nil, newFakeDirectory())

	var res protocol.LoginRes
	if err := l.Login(&protocol.LoginReq{UID: 1, Token: "wrong", GatewayAddr: "g1:7100"}, &res); err != nil {
		t.Fatalf("Login must not return transport error, got %v", err)
	}
	if res.ErrCode != protocol.ErrAuthFail {
		t.Fatalf("expected ErrAuthFail, got %d", res.ErrCode)
	}
}

func TestLoginRequiresGatewayAddr(t *testing.T) {
	l := newTestLogic(true)

	var res protocol.LoginRes
	if err := l.Login(&protocol.LoginReq{UID: 1, Token: "tok_1"}, &res); err != nil {
		t.Fatalf("Login must not return transport error, got %v", err)
	}
	if res.ErrCode != protocol.ErrBadRequest {
		t.Fatalf("expected ErrBadRequest, got %d", res.ErrCode)
	}
}

func TestSendMessageMapsNotFriends(t *testing.T) {
	l := newTestLogic(false)

	var res protocol.SendMsgRes
	if err := l.SendMessage(&protocol.SendMsgReq{FromUID: 1, ToUID: 2, Content: "hi"}, &res); err != nil {
		t.Fatalf("SendMessage must not return transport error, got %v", err)
	}
	if res.ErrCode != protocol.ErrNotFriends {
		t.Fatalf("expected ErrNotFriends, got %d", res.ErrCode)
	}
}

func TestSyncMessagesReturnsBacklog(t *testing.T) {
	l := newTestLogic(true)

	var res protocol.SyncRes
	if err := l.SyncMessages(&protocol.SyncReq{UID: 1, LastMsgID: 10}, &res); err != nil {
		t.Fatalf("SyncMessages must not return transport error, got %v", err)
	}
	if res.ErrCode != protocol.ErrSuccess || len(res.Msgs) != 1 || res.Msgs[0].MsgID != 11 {
		t.Fatalf("unexpected sync response: %+v", res)
	}
}

func TestErrCodeMapping(t *testing.T) {
	cases := []struct {
		err  error
		want protocol.ErrCode
	}{
		{nil, protocol.ErrSuccess},
		{service.ErrAuthFail, protocol.ErrAuthFail},
		{service.ErrNotFriends, protocol.ErrNotFriends},
		{service.ErrNotGroupMember, protocol.ErrNotGroupMember},
		{service.ErrNotRecipient, protocol.ErrBadRequest},
		{repository.ErrRequestResolved, protocol.ErrRequestResolved},
		{errors.New("boom"), protocol.ErrSystem},
	}
	for _, tc := range cases {
		if got := toErrCode(tc.err); got != tc.want {
			t.Fatalf("toErrCode(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
