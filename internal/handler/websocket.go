package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Muelsyse030/XLetsChat/internal/protocol"
	"github.com/Muelsyse030/XLetsChat/internal/rpc"
	"github.com/Muelsyse030/XLetsChat/internal/session"
)

const (
	readDeadline = 90 * time.Second // 允许心跳丢 2-3 次（30s/跳）
	readLimit    = int64(64 << 10)  // 单帧最大 64KB
	rpcTimeout   = 5 * time.Second
)

// WebSocketHandler 负责握手、会话登记以及二进制帧的读循环。
// 网关本身不做业务：解帧后按指令 ID 转发给逻辑层，再把响应原路封帧写回。
type WebSocketHandler struct {
	registry    *session.Registry
	logic       *rpc.LogicClient
	controlAddr string // 本网关控制面地址，登录时写入在线目录
	upgrader    websocket.Upgrader
}

func NewWebSocketHandler(registry *session.Registry, logic *rpc.LogicClient, controlAddr string) *WebSocketHandler {
	return &WebSocketHandler{
		registry:    registry,
		logic:       logic,
		controlAddr: controlAddr,
		upgrader: websocket.Upgrader{
			// 生产环境需校验 Origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HandleWebSocket 提供给 Gin 的路由函数。
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket 升级失败: %v", err)
		return
	}
	s := session.New(conn)
	go h.readLoop(s, conn)
}

// readLoop 读取客户端数据帧并分发，连接断开时只清本进程会话，
// 在线目录里的条目保留，过期路由由推送端的"本地未找到"吸收。
func (h *WebSocketHandler) readLoop(s *session.Session, conn *websocket.Conn) {
	defer func() {
		h.registry.Remove(s.UID(), s)
		_ = conn.Close()
		if uid := s.UID(); uid != 0 {
			log.Printf("连接关闭 uid=%d，当前在线: %d", uid, h.registry.Count())
		}
	}()

	conn.SetReadLimit(readLimit)
	_ = conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		// 客户端 Pong 刷新超时
		return conn.SetReadDeadline(time.Now().Add(readDeadline))
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.BinaryMessage {
			// 协议只走二进制帧，文本帧直接忽略
			continue
		}

		header, body, err := protocol.Decode(data)
		if err != nil {
			log.Printf("丢弃畸形帧 uid=%d: %v", s.UID(), err)
			continue
		}
		h.dispatch(s, header, body)
	}
}

// dispatch 按指令 ID 路由。除登录外的指令都要求会话已认证。
func (h *WebSocketHandler) dispatch(s *session.Session, header protocol.Header, body []byte) {
	if header.CmdID == protocol.CmdLoginReq {
		h.handleLogin(s, header.SeqID, body)
		return
	}

	uid := s.UID()
	if uid == 0 {
		h.reply(s, respCmd(header.CmdID), header.SeqID, errBody(protocol.ErrNotLoggedIn, "login first"))
		return
	}

	switch header.CmdID {
	case protocol.CmdSendMsgReq:
		h.handleSend(s, uid, header.SeqID, body)
	case protocol.CmdSyncReq:
		h.handleSync(s, uid, header.SeqID, body)
	case protocol.CmdUploadURLReq:
		h.handleUploadURL(s, uid, header.SeqID, body)
	case protocol.CmdGroupSendReq:
		h.handleGroupSend(s, uid, header.SeqID, body)
	case protocol.CmdGroupSyncReq:
		h.handleGroupSync(s, uid, header.SeqID, body)
	default:
		log.Printf("未知指令 cmd=0x%x uid=%d，丢弃", header.CmdID, uid)
	}
}

// respCmd 返回请求指令对应的响应指令 ID。
func respCmd(cmdID uint16) uint16 { return cmdID + 1 }

func errBody(code protocol.ErrCode, msg string) []byte {
	body, _ := json.Marshal(struct {
		ErrCode protocol.ErrCode `json:"err_code"`
		ErrMsg  string           `json:"err_msg,omitempty"`
	}{code, msg})
	return body
}

// reply 封帧写回，写失败交由读循环在连接出错时统一收尾。
func (h *WebSocketHandler) reply(s *session.Session, cmdID uint16, seqID uint32, body []byte) {
	if err := s.WriteFrame(protocol.Encode(cmdID, seqID, body)); err != nil {
		log.Printf("回包失败 uid=%d cmd=0x%x: %v", s.UID(), cmdID, err)
	}
}

// replyJSON 序列化响应体后封帧写回。
func (h *WebSocketHandler) replyJSON(s *session.Session, cmdID uint16, seqID uint32, res interface{}) {
	body, err := json.Marshal(res)
	if err != nil {
		log.Printf("响应序列化失败 cmd=0x%x: %v", cmdID, err)
		return
	}
	h.reply(s, cmdID, seqID, body)
}

func (h *WebSocketHandler) handleLogin(s *session.Session, seqID uint32, body []byte) {
	var req protocol.LoginReq
	if err := json.Unmarshal(body, &req); err != nil {
		h.reply(s, protocol.CmdLoginRes, seqID, errBody(protocol.ErrBadRequest, "bad login payload"))
		return
	}
	// 客户端不感知网关拓扑，控制面地址由网关代填
	req.GatewayAddr = h.controlAddr

	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()
	res, err := h.logic.Login(ctx, &req)
	if err != nil {
		log.Printf("登录 RPC 失败 uid=%d: %v", req.UID, err)
		h.reply(s, protocol.CmdLoginRes, seqID, errBody(protocol.ErrSystem, "logic unavailable"))
		return
	}

	if res.ErrCode == protocol.ErrSuccess {
		s.Bind(req.UID, res.SessionID)
		h.registry.Add(req.UID, s)
		log.Printf("登录成功 uid=%d，当前在线: %d", req.UID, h.registry.Count())
	}
	h.replyJSON(s, protocol.CmdLoginRes, seqID, res)
}

func (h *WebSocketHandler) handleSend(s *session.Session, uid int64, seqID uint32, body []byte) {
	var req protocol.SendMsgReq
	if err := json.Unmarshal(body, &req); err != nil {
		h.reply(s, protocol.CmdSendMsgRes, seqID, errBody(protocol.ErrBadRequest, "bad send payload"))
		return
	}
	// 发送方以会话身份为准，客户端携带的 from_uid 不可信
	req.FromUID = uid

	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()
	res, err := h.logic.SendMessage(ctx, &req)
	if err != nil {
		log.Printf("发送 RPC 失败 uid=%d: %v", uid, err)
		h.reply(s, protocol.CmdSendMsgRes, seqID, errBody(protocol.ErrSystem, "logic unavailable"))
		return
	}
	h.replyJSON(s, protocol.CmdSendMsgRes, seqID, res)
}

func (h *WebSocketHandler) handleSync(s *session.Session, uid int64, seqID uint32, body []byte) {
	var req protocol.SyncReq
	if err := json.Unmarshal(body, &req); err != nil {
		h.reply(s, protocol.CmdSyncRes, seqID, errBody(protocol.ErrBadRequest, "bad sync payload"))
		return
	}
	req.UID = uid

	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()
	res, err := h.logic.SyncMessages(ctx, &req)
	if err != nil {
		log.Printf("同步 RPC 失败 uid=%d: %v", uid, err)
		h.reply(s, protocol.CmdSyncRes, seqID, errBody(protocol.ErrSystem, "logic unavailable"))
		return
	}
	h.replyJSON(s, protocol.CmdSyncRes, seqID, res)
}

func (h *WebSocketHandler) handleUploadURL(s *session.Session, uid int64, seqID uint32, body []byte) {
	var req protocol.UploadURLReq
	if err := json.Unmarshal(body, &req); err != nil {
		h.reply(s, protocol.CmdUploadURLRes, seqID, errBody(protocol.ErrBadRequest, "bad upload payload"))
		return
	}
	req.UID = uid

	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()
	res, err := h.logic.GetUploadURL(ctx, &req)
	if err != nil {
		log.Printf("上传地址 RPC 失败 uid=%d: %v", uid, err)
		h.reply(s, protocol.CmdUploadURLRes, seqID, errBody(protocol.ErrSystem, "logic unavailable"))
		return
	}
	h.replyJSON(s, protocol.CmdUploadURLRes, seqID, res)
}

func (h *WebSocketHandler) handleGroupSend(s *session.Session, uid int64, seqID uint32, body []byte) {
	var req protocol.GroupSendReq
	if err := json.Unmarshal(body, &req); err != nil {
		h.reply(s, protocol.CmdGroupSendRes, seqID, errBody(protocol.ErrBadRequest, "bad group send payload"))
		return
	}
	req.FromUID = uid

	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()
	res, err := h.logic.SendGroupMessage(ctx, &req)
	if err != nil {
		log.Printf("群发送 RPC 失败 uid=%d: %v", uid, err)
		h.reply(s, protocol.CmdGroupSendRes, seqID, errBody(protocol.ErrSystem, "logic unavailable"))
		return
	}
	h.replyJSON(s, protocol.CmdGroupSendRes, seqID, res)
}

func (h *WebSocketHandler) handleGroupSync(s *session.Session, uid int64, seqID uint32, body []byte) {
	var req protocol.GroupSyncReq
	if err := json.Unmarshal(body, &req); err != nil {
		h.reply(s, protocol.CmdGroupSyncRes, seqID, errBody(protocol.ErrBadRequest, "bad group sync payload"))
		return
	}
	req.UID = uid

	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()
	res, err := h.logic.SyncGroupMessages(ctx, &req)
	if err != nil {
		log.Printf("群同步 RPC 失败 uid=%d: %v", uid, err)
		h.reply(s, protocol.CmdGroupSyncRes, seqID, errBody(protocol.ErrSystem, "logic unavailable"))
		return
	}
	h.replyJSON(s, protocol.CmdGroupSyncRes, seqID, res)
}
