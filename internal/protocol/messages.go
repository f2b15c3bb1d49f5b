package protocol

// 包体与控制面 RPC 共用的消息结构，统一走 JSON 序列化。
// 每个响应都带 ErrCode / ErrMsg，业务失败不是传输错误。

// ChatMsg 为单条聊天消息的传输形态。
type ChatMsg struct {
	MsgID      int64  `json:"msg_id"`
	FromUID    int64  `json:"from_uid"`
	ToUID      int64  `json:"to_uid"` // 群聊时为群 ID
	Content    string `json:"content"`
	CreateTime int64  `json:"create_time"`
}

type LoginReq struct {
	UID      int64  `json:"uid"`
	Token    string `json:"token"`
	DeviceID string `json:"device_id"`
	// GatewayAddr 由网关在转发 RPC 时填入自身控制面地址，客户端不需要携带。
	GatewayAddr string `json:"gateway_addr,omitempty"`
}

type LoginRes struct {
	ErrCode    ErrCode `json:"err_code"`
	ErrMsg     string  `json:"err_msg,omitempty"`
	SessionID  string  `json:"session_id,omitempty"`
	ServerTime int64   `json:"server_time,omitempty"`
}

type SendMsgReq struct {
	FromUID int64  `json:"from_uid"`
	ToUID   int64  `json:"to_uid"`
	Content string `json:"content"`
}

type SendMsgRes struct {
	ErrCode    ErrCode `json:"err_code"`
	ErrMsg     string  `json:"err_msg,omitempty"`
	MsgID      int64   `json:"msg_id,omitempty"`
	CreateTime int64   `json:"create_time,omitempty"`
}

type SyncReq struct {
	UID       int64 `json:"uid"`
	LastMsgID int64 `json:"last_msg_id"`
}

type SyncRes struct {
	ErrCode ErrCode   `json:"err_code"`
	ErrMsg  string    `json:"err_msg,omitempty"`
	Msgs    []ChatMsg `json:"msgs,omitempty"`
}

// PushMsgReq 为逻辑层调用网关控制面的推送请求，Payload 是完整的二进制数据包。
type PushMsgReq struct {
	ToUID   int64  `json:"to_uid"`
	Payload []byte `json:"payload"`
}

type PushMsgRes struct {
	ErrCode ErrCode `json:"err_code"`
	ErrMsg  string  `json:"err_msg,omitempty"`
}

type UploadURLReq struct {
	UID      int64  `json:"uid"`
	FileName string `json:"file_name"`
}

type UploadURLRes struct {
	ErrCode   ErrCode `json:"err_code"`
	ErrMsg    string  `json:"err_msg,omitempty"`
	Fid       string  `json:"fid,omitempty"`
	UploadURL string  `json:"upload_url,omitempty"`
}

type FriendRequest struct {
	ReqID      int64  `json:"req_id"`
	FromUID    int64  `json:"from_uid"`
	ToUID      int64  `json:"to_uid"`
	Reason     string `json:"reason"`
	CreateTime int64  `json:"create_time"`
	Status     int32  `json:"status"`
}

type FriendReqSendReq struct {
	FromUID int64  `json:"from_uid"`
	ToUID   int64  `json:"to_uid"`
	Reason  string `json:"reason"`
}

type FriendReqSendRes struct {
	ErrCode ErrCode `json:"err_code"`
	ErrMsg  string  `json:"err_msg,omitempty"`
	ReqID   int64   `json:"req_id,omitempty"`
}

type FriendRespondReq struct {
	UID    int64 `json:"uid"`
	ReqID  int64 `json:"req_id"`
	Accept bool  `json:"accept"`
}

type FriendRespondRes struct {
	ErrCode ErrCode `json:"err_code"`
	ErrMsg  string  `json:"err_msg,omitempty"`
}

type FriendListReq struct {
	UID int64 `json:"uid"`
}

type FriendListRes struct {
	ErrCode ErrCode `json:"err_code"`
	ErrMsg  string  `json:"err_msg,omitempty"`
	Friends []int64 `json:"friends,omitempty"`
}

type FriendPendingReq struct {
	UID int64 `json:"uid"`
}

type FriendPendingRes struct {
	ErrCode  ErrCode         `json:"err_code"`
	ErrMsg   string          `json:"err_msg,omitempty"`
	Requests []FriendRequest `json:"requests,omitempty"`
}

type CreateGroupReq struct {
	OwnerUID int64  `json:"owner_uid"`
	Name     string `json:"name"`
}

type CreateGroupRes struct {
	ErrCode ErrCode `json:"err_code"`
	ErrMsg  string  `json:"err_msg,omitempty"`
	GroupID int64   `json:"group_id,omitempty"`
}

type JoinGroupReq struct {
	GroupID int64 `json:"group_id"`
	UID     int64 `json:"uid"`
}

type JoinGroupRes struct {
	ErrCode ErrCode `json:"err_code"`
	ErrMsg  string  `json:"err_msg,omitempty"`
}

type GroupSendReq struct {
	FromUID int64  `json:"from_uid"`
	GroupID int64  `json:"group_id"`
	Content string `json:"content"`
}

type GroupSendRes struct {
	ErrCode    ErrCode `json:"err_code"`
	ErrMsg     string  `json:"err_msg,omitempty"`
	MsgID      int64   `json:"msg_id,omitempty"`
	CreateTime int64   `json:"create_time,omitempty"`
}

type GroupSyncReq struct {
	UID       int64 `json:"uid"`
	GroupID   int64 `json:"group_id"`
	LastMsgID int64 `json:"last_msg_id"`
}

type GroupSyncRes struct {
	ErrCode ErrCode   `json:"err_code"`
	ErrMsg  string    `json:"err_msg,omitempty"`
	Msgs    []ChatMsg `json:"msgs,omitempty"`
}
