package handler

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/Muelsyse030/XLetsChat/internal/model"
	"github.com/Muelsyse030/XLetsChat/internal/presence"
	"github.com/Muelsyse030/XLetsChat/internal/protocol"
	"github.com/Muelsyse030/XLetsChat/internal/repository"
	"github.com/Muelsyse030/XLetsChat/internal/service"
)

// handleTimeout 为单次控制面请求的处理截止时间。
const handleTimeout = 5 * time.Second

// Logic 是逻辑层控制面的 RPC 入口，网关以 Logic.* 调用。
// 方法级 error 始终为 nil（除非编解码故障），业务结果放响应体错误码。
type Logic struct {
	auth     *service.AuthService
	messages *service.MessageService
	friends  *service.FriendService
	sync     *service.SyncService
	groups   *service.GroupService
	uploads  *service.UploadService
	presence *presence.Directory
}

func NewLogic(
	auth *service.AuthService,
	messages *service.MessageService,
	friends *service.FriendService,
	syncSvc *service.SyncService,
	groups *service.GroupService,
	uploads *service.UploadService,
	dir *presence.Directory,
) *Logic {
	return &Logic{
		auth:     auth,
		messages: messages,
		friends:  friends,
		sync:     syncSvc,
		groups:   groups,
		uploads:  uploads,
		presence: dir,
	}
}

func handleCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), handleTimeout)
}

// toErrCode 把业务错误映射为统一错误码，未识别的一律归为系统错误。
func toErrCode(err error) protocol.ErrCode {
	switch {
	case err == nil:
		return protocol.ErrSuccess
	case errors.Is(err, service.ErrAuthFail):
		return protocol.ErrAuthFail
	case errors.Is(err, service.ErrNotFriends):
		return protocol.ErrNotFriends
	case errors.Is(err, service.ErrNotGroupMember):
		return protocol.ErrNotGroupMember
	case errors.Is(err, service.ErrNotRecipient):
		return protocol.ErrBadRequest
	case errors.Is(err, repository.ErrRequestResolved):
		return protocol.ErrRequestResolved
	default:
		return protocol.ErrSystem
	}
}

// Login 校验令牌并登记在线状态。目录写入失败不拦截登录，
// 代价只是本次在线期间收不到实时推送，消息照常落库可同步。
func (l *Logic) Login(req *protocol.LoginReq, res *protocol.LoginRes) error {
	ctx, cancel := handleCtx()
	defer cancel()

	if req.UID == 0 || req.GatewayAddr == "" {
		res.ErrCode = protocol.ErrBadRequest
		res.ErrMsg = "missing uid or gateway addr"
		return nil
	}
	if err := l.auth.CheckToken(ctx, req.UID, req.Token); err != nil {
		res.ErrCode = toErrCode(err)
		res.ErrMsg = "invalid credentials"
		return nil
	}

	if err := l.presence.SetPresence(ctx, req.UID, req.GatewayAddr); err != nil {
		log.Printf("在线状态写入失败 uid=%d gateway=%s: %v", req.UID, req.GatewayAddr, err)
	}

	res.ErrCode = protocol.ErrSuccess
	res.SessionID = "sess_" + uuid.NewString()
	res.ServerTime = service.ServerTime()
	return nil
}

// SendMessage 处理单聊发送。
func (l *Logic) SendMessage(req *protocol.SendMsgReq, res *protocol.SendMsgRes) error {
	ctx, cancel := handleCtx()
	defer cancel()

	if req.FromUID == 0 || req.ToUID == 0 || req.Content == "" {
		res.ErrCode = protocol.ErrBadRequest
		return nil
	}
	msgID, createTime, err := l.messages.SendMessage(ctx, req.FromUID, req.ToUID, req.Content)
	if err != nil {
		res.ErrCode = toErrCode(err)
		res.ErrMsg = err.Error()
		return nil
	}
	res.ErrCode = protocol.ErrSuccess
	res.MsgID = msgID
	res.CreateTime = createTime
	return nil
}

// SyncMessages 按游标补发积压消息。
func (l *Logic) SyncMessages(req *protocol.SyncReq, res *protocol.SyncRes) error {
	ctx, cancel := handleCtx()
	defer cancel()

	msgs, err := l.sync.SyncMessages(ctx, req.UID, req.LastMsgID)
	if err != nil {
		res.ErrCode = toErrCode(err)
		res.ErrMsg = err.Error()
		return nil
	}
	res.ErrCode = protocol.ErrSuccess
	res.Msgs = chatMsgs(msgs)
	return nil
}

// GetUploadURL 向对象存储申请文件位。
func (l *Logic) GetUploadURL(req *protocol.UploadURLReq, res *protocol.UploadURLRes) error {
	ctx, cancel := handleCtx()
	defer cancel()

	fid, url, err := l.uploads.AssignUploadURL(ctx)
	if err != nil {
		log.Printf("申请上传地址失败 uid=%d: %v", req.UID, err)
		res.ErrCode = protocol.ErrSystem
		res.ErrMsg = "storage unavailable"
		return nil
	}
	res.ErrCode = protocol.ErrSuccess
	res.Fid = fid
	res.UploadURL = url
	return nil
}

// SendFriendRequest 发起好友申请。
func (l *Logic) SendFriendRequest(req *protocol.FriendReqSendReq, res *protocol.FriendReqSendRes) error {
	ctx, cancel := handleCtx()
	defer cancel()

	if req.FromUID == 0 || req.ToUID == 0 || req.FromUID == req.ToUID {
		res.ErrCode = protocol.ErrBadRequest
		return nil
	}
	reqID, err := l.friends.SendRequest(ctx, req.FromUID, req.ToUID, req.Reason)
	if err != nil {
		res.ErrCode = toErrCode(err)
		res.ErrMsg = err.Error()
		return nil
	}
	res.ErrCode = protocol.ErrSuccess
	res.ReqID = reqID
	return nil
}

// RespondFriendRequest 处理好友申请，只有接收方可以处理。
func (l *Logic) RespondFriendRequest(req *protocol.FriendRespondReq, res *protocol.FriendRespondRes) error {
	ctx, cancel := handleCtx()
	defer cancel()

	err := l.friends.Respond(ctx, req.UID, req.ReqID, req.Accept)
	res.ErrCode = toErrCode(err)
	if err != nil {
		res.ErrMsg = err.Error()
	}
	return nil
}

// ListFriendRequests 返回发给 uid 的待处理申请。
func (l *Logic) ListFriendRequests(req *protocol.FriendPendingReq, res *protocol.FriendPendingRes) error {
	ctx, cancel := handleCtx()
	defer cancel()

	pending, err := l.friends.Pending(ctx, req.UID)
	if err != nil {
		res.ErrCode = toErrCode(err)
		res.ErrMsg = err.Error()
		return nil
	}
	res.ErrCode = protocol.ErrSuccess
	for _, r := range pending {
		res.Requests = append(res.Requests, protocol.FriendRequest{
			ReqID:      r.ReqID,
			FromUID:    r.FromUID,
			ToUID:      r.ToUID,
			Reason:     r.Reason,
			CreateTime: r.CreateTime,
			Status:     r.Status,
		})
	}
	return nil
}

// ListFriends 返回 uid 的好友列表。
func (l *Logic) ListFriends(req *protocol.FriendListReq, res *protocol.FriendListRes) error {
	ctx, cancel := handleCtx()
	defer cancel()

	friends, err := l.friends.ListFriends(ctx, req.UID)
	if err != nil {
		res.ErrCode = toErrCode(err)
		res.ErrMsg = err.Error()
		return nil
	}
	res.ErrCode = protocol.ErrSuccess
	res.Friends = friends
	return nil
}

// CreateGroup 建群。
func (l *Logic) CreateGroup(req *protocol.CreateGroupReq, res *protocol.CreateGroupRes) error {
	ctx, cancel := handleCtx()
	defer cancel()

	if req.OwnerUID == 0 || req.Name == "" {
		res.ErrCode = protocol.ErrBadRequest
		return nil
	}
	groupID, err := l.groups.CreateGroup(ctx, req.OwnerUID, req.Name)
	if err != nil {
		res.ErrCode = toErrCode(err)
		res.ErrMsg = err.Error()
		return nil
	}
	res.ErrCode = protocol.ErrSuccess
	res.GroupID = groupID
	return nil
}

// JoinGroup 入群。
func (l *Logic) JoinGroup(req *protocol.JoinGroupReq, res *protocol.JoinGroupRes) error {
	ctx, cancel := handleCtx()
	defer cancel()

	err := l.groups.JoinGroup(ctx, req.GroupID, req.UID)
	res.ErrCode = toErrCode(err)
	if err != nil {
		res.ErrMsg = err.Error()
	}
	return nil
}

// SendGroupMessage 发送群消息。
func (l *Logic) SendGroupMessage(req *protocol.GroupSendReq, res *protocol.GroupSendRes) error {
	ctx, cancel := handleCtx()
	defer cancel()

	if req.FromUID == 0 || req.GroupID == 0 || req.Content == "" {
		res.ErrCode = protocol.ErrBadRequest
		return nil
	}
	msgID, createTime, err := l.groups.SendGroupMessage(ctx, req.FromUID, req.GroupID, req.Content)
	if err != nil {
		res.ErrCode = toErrCode(err)
		res.ErrMsg = err.Error()
		return nil
	}
	res.ErrCode = protocol.ErrSuccess
	res.MsgID = msgID
	res.CreateTime = createTime
	return nil
}

// SyncGroupMessages 按游标拉取群消息。
func (l *Logic) SyncGroupMessages(req *protocol.GroupSyncReq, res *protocol.GroupSyncRes) error {
	ctx, cancel := handleCtx()
	defer cancel()

	msgs, err := l.groups.SyncGroupMessages(ctx, req.UID, req.GroupID, req.LastMsgID)
	if err != nil {
		res.ErrCode = toErrCode(err)
		res.ErrMsg = err.Error()
		return nil
	}
	res.ErrCode = protocol.ErrSuccess
	for _, m := range msgs {
		res.Msgs = append(res.Msgs, protocol.ChatMsg{
			MsgID:      m.MsgID,
			FromUID:    m.FromUID,
			ToUID:      m.GroupID,
			Content:    m.Content,
			CreateTime: m.CreateTime,
		})
	}
	return nil
}

func chatMsgs(msgs []model.ChatMessage) []protocol.ChatMsg {
	out := make([]protocol.ChatMsg, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, protocol.ChatMsg{
			MsgID:      m.MsgID,
			FromUID:    m.FromUID,
			ToUID:      m.ToUID,
			Content:    m.Content,
			CreateTime: m.CreateTime,
		})
	}
	return out
}
