package handler

import (
	"errors"
	"testing"
	"time"

	"github.com/Muelsyse030/XLetsChat/internal/protocol"
	"github.com/Muelsyse030/XLetsChat/internal/session"
)

// fakeFrameConn 记录写入的帧，可注入写失败。
type fakeFrameConn struct {
	frames [][]byte
	err    error
}

func (f *fakeFrameConn) SetWriteDeadline(t time.Time) error { return nil }

func (f *fakeFrameConn) WriteMessage(messageType int, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.frames = append(f.frames, data)
	return nil
}

func TestPushMessageNotFoundLocally(t *testing.T) {
	g := NewGateway(session.NewRegistry())

	var res protocol.PushMsgRes
	if err := g.PushMessage(&protocol.PushMsgReq{ToUID: 42, Payload: []byte{1}}, &res); err != nil {
		t.Fatalf("PushMessage must not return transport error, got %v", err)
	}
	if res.ErrCode != protocol.ErrNotFoundLocally {
		t.Fatalf("expected ErrNotFoundLocally, got %d", res.ErrCode)
	}
}

func TestPushMessageWritesFrame(t *testing.T) {
	reg := session.NewRegistry()
	conn := &fakeFrameConn{}
	s := session.New(conn)
	s.Bind(42, "sess_x")
	reg.Add(42, s)
	g := NewGateway(reg)

	payload := protocol.Encode(protocol.CmdPushMsg, 0, []byte(`{"msg_id":1}`))
	var res protocol.PushMsgRes
	if err := g.PushMessage(&protocol.PushMsgReq{ToUID: 42, Payload: payload}, &res); err != nil {
		t.Fatalf("PushMessage failed: %v", err)
	}
	if res.ErrCode != protocol.ErrSuccess {
		t.Fatalf("expected success, got %d: %s", res.ErrCode, res.ErrMsg)
	}
	if len(conn.frames) != 1 {
		t.Fatalf("expected one frame written, got %d", len(conn.frames))
	}
	h, _, err := protocol.Decode(conn.frames[0])
	if err != nil || h.CmdID != protocol.CmdPushMsg {
		t.Fatalf("written frame invalid: err=%v cmd=0x%x", err, h.CmdID)
	}
}

func TestPushMessageWriteFailure(t *testing.T) {
	reg := session.NewRegistry()
	s := session.New(&fakeFrameConn{err: errors.New("broken pipe")})
	s.Bind(7, "sess_y")
	reg.Add(7, s)
	g := NewGateway(reg)

	var res protocol.PushMsgRes
	if err := g.PushMessage(&protocol.PushMsgReq{ToUID: 7, Payload: []byte{1}}, &res); err != nil {
		t.Fatalf("PushMessage must not return transport error, got %v", err)
	}
	if res.ErrCode != protocol.ErrSystem {
		t.Fatalf("expected ErrSystem on write failure, got %d", res.ErrCode)
	}
}
