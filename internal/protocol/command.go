package protocol

// 指令 ID。客户端请求与服务端响应成对出现，0x1005 为服务端主动推送。
const (
	CmdLoginReq      uint16 = 0x1001
	CmdLoginRes      uint16 = 0x1002
	CmdSendMsgReq    uint16 = 0x1003
	CmdSendMsgRes    uint16 = 0x1004
	CmdPushMsg       uint16 = 0x1005
	CmdSyncReq       uint16 = 0x1006
	CmdSyncRes       uint16 = 0x1007
	CmdUploadURLReq  uint16 = 0x1008
	CmdUploadURLRes  uint16 = 0x1009
	CmdGroupSendReq  uint16 = 0x100A
	CmdGroupSendRes  uint16 = 0x100B
	CmdGroupSyncReq  uint16 = 0x100C
	CmdGroupSyncRes  uint16 = 0x100D
)

// ErrCode 是跨层统一的业务错误码，0 表示成功。
// 业务结果只通过错误码表达，不会以传输层错误的形式抛给客户端。
type ErrCode int32

const (
	ErrSuccess         ErrCode = 0
	ErrAuthFail        ErrCode = 1
	ErrNotFriends      ErrCode = 2
	ErrSystem          ErrCode = 3
	ErrNotFoundLocally ErrCode = 4
	ErrNotLoggedIn     ErrCode = 5
	ErrBadRequest      ErrCode = 6
	ErrRequestResolved ErrCode = 7
	ErrNotGroupMember  ErrCode = 8
)
