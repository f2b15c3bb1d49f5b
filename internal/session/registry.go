package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const writeTimeout = 10 * time.Second

// FrameConn 抽象会话底层连接的写能力，*websocket.Conn 天然满足。
type FrameConn interface {
	SetWriteDeadline(t time.Time) error
	WriteMessage(messageType int, data []byte) error
}

// Session 对应一条存活的客户端连接，连接建立时创建，断开时销毁。
// uid 在登录成功前为 0。
type Session struct {
	conn FrameConn

	uid       atomic.Int64
	sessionID string

	// gorilla/websocket 同一时刻只允许一个写者，
	// 读循环回包与推送来自不同 goroutine，这里串行化。
	writeMu sync.Mutex
}

func New(conn FrameConn) *Session {
	return &Session{conn: conn}
}

// Bind 在登录成功后绑定用户身份。
func (s *Session) Bind(uid int64, sessionID string) {
	s.sessionID = sessionID
	s.uid.Store(uid)
}

// UID 返回已认证的用户 ID，未登录为 0。
func (s *Session) UID() int64 { return s.uid.Load() }

func (s *Session) SessionID() string { return s.sessionID }

// WriteFrame 以二进制帧发送一个完整数据包。
func (s *Session) WriteFrame(data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteMessage(websocket.BinaryMessage, data)
}

// Registry 是单个网关进程内 uid → 存活会话的映射。
// 操作都是 O(1) 且持锁时间极短，单把互斥锁足够。
type Registry struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[int64]*Session)}
}

// Add 在该连接上的登录 RPC 成功后登记会话，同 uid 重复登录时覆盖。
func (r *Registry) Add(uid int64, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[uid] = s
}

// Remove 在断开时移除会话。只有当登记的还是同一个会话时才删除，
// 避免旧连接的延迟断开把新登录挤掉。
func (r *Registry) Remove(uid int64, s *Session) {
	if uid == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.sessions[uid]; ok && cur == s {
		delete(r.sessions, uid)
	}
}

// Get 查找本地会话；未命中不是错误，由调用方按路由未命中处理。
func (r *Registry) Get(uid int64) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[uid]
	return s, ok
}

// Count 返回当前在线会话数。
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
