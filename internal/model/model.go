package model

// 持久化模型。表名沿用 t_ 前缀，时间戳统一为 Unix 秒。

// User 为注册用户，Password 存 bcrypt 哈希。
type User struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	Username   string `gorm:"size:64"`
	Password   string `gorm:"size:128"`
	Email      string `gorm:"size:128;uniqueIndex"`
	CreateTime int64
}

func (User) TableName() string { return "t_user" }

// ChatMessage 为单聊消息。MsgID 由逻辑层基于墙钟生成，
// 既是主键也是同步游标，不使用数据库自增。
type ChatMessage struct {
	MsgID      int64 `gorm:"primaryKey;autoIncrement:false"`
	FromUID    int64 `gorm:"index"`
	ToUID      int64 `gorm:"index:idx_to_msg,priority:1"`
	Content    string
	CreateTime int64
}

func (ChatMessage) TableName() string { return "t_chat_msg" }

// GroupMessage 为群聊消息，读扩散：一条消息只存一份，按群 ID 拉取。
type GroupMessage struct {
	MsgID      int64 `gorm:"primaryKey;autoIncrement:false"`
	GroupID    int64 `gorm:"index:idx_group_msg,priority:1"`
	FromUID    int64
	Content    string
	CreateTime int64
}

func (GroupMessage) TableName() string { return "t_group_msg" }

// 好友申请状态，Pending 是唯一可流转状态。
const (
	FriendRequestPending  int32 = 0
	FriendRequestAccepted int32 = 1
	FriendRequestRejected int32 = 2
)

// FriendRequest 为好友申请记录。
type FriendRequest struct {
	ReqID      int64 `gorm:"primaryKey;autoIncrement"`
	FromUID    int64 `gorm:"index"`
	ToUID      int64 `gorm:"index"`
	Reason     string
	CreateTime int64
	Status     int32 `gorm:"default:0"`
}

func (FriendRequest) TableName() string { return "t_friend_request" }

// Friend 为单向好友边，接受申请时成对写入。
type Friend struct {
	ID         int64 `gorm:"primaryKey;autoIncrement"`
	UID        int64 `gorm:"uniqueIndex:uk_friend,priority:1"`
	FriendUID  int64 `gorm:"uniqueIndex:uk_friend,priority:2"`
	CreateTime int64
}

func (Friend) TableName() string { return "t_friend" }

// Group 为群组。
type Group struct {
	GroupID    int64 `gorm:"primaryKey;autoIncrement"`
	Name       string
	OwnerUID   int64
	CreateTime int64
}

func (Group) TableName() string { return "t_group" }

// GroupMember 为群成员关系。
type GroupMember struct {
	ID         int64 `gorm:"primaryKey;autoIncrement"`
	GroupID    int64 `gorm:"uniqueIndex:uk_group_member,priority:1"`
	UID        int64 `gorm:"uniqueIndex:uk_group_member,priority:2"`
	CreateTime int64
}

func (GroupMember) TableName() string { return "t_group_member" }

// All 返回需要迁移的全部模型。
func All() []interface{} {
	return []interface{}{
		&User{}, &ChatMessage{}, &GroupMessage{},
		&FriendRequest{}, &Friend{}, &Group{}, &GroupMember{},
	}
}
