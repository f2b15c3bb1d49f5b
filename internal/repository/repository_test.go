package repository

import (
	"context"
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Muelsyse030/XLetsChat/internal/model"
)

// newTestDB 用内存 SQLite 建表，仓储层查询保持方言无关，可直接复用。
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(model.All()...); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func TestSaveMessageAndListSince(t *testing.T) {
	repo := NewMessageRepository(newTestDB(t))
	ctx := context.Background()

	ids := []int64{101, 102, 103, 104, 105}
	for _, id := range ids {
		msg := &model.ChatMessage{MsgID: id, FromUID: 1, ToUID: 2, Content: "m", CreateTime: id}
		if err := repo.SaveMessage(ctx, msg); err != nil {
			t.Fatalf("SaveMessage(%d) failed: %v", id, err)
		}
	}
	// 其他收件人的消息不应混入
	other := &model.ChatMessage{MsgID: 106, FromUID: 1, ToUID: 9, Content: "x", CreateTime: 106}
	if err := repo.SaveMessage(ctx, other); err != nil {
		t.Fatalf("SaveMessage failed: %v", err)
	}

	msgs, err := repo.ListSince(ctx, 2, 102, 100)
	if err != nil {
		t.Fatalf("ListSince failed: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages after cursor 102, got %d", len(msgs))
	}
	for i, want := range []int64{103, 104, 105} {
		if msgs[i].MsgID != want {
			t.Fatalf("expected msg_id %d at index %d, got %d", want, i, msgs[i].MsgID)
		}
	}
}

func TestListSinceRespectsLimit(t *testing.T) {
	repo := NewMessageRepository(newTestDB(t))
	ctx := context.Background()

	for id := int64(1); id <= 10; id++ {
		msg := &model.ChatMessage{MsgID: id, FromUID: 1, ToUID: 2, Content: "m", CreateTime: id}
		if err := repo.SaveMessage(ctx, msg); err != nil {
			t.Fatalf("SaveMessage failed: %v", err)
		}
	}
	msgs, err := repo.ListSince(ctx, 2, 0, 4)
	if err != nil {
		t.Fatalf("ListSince failed: %v", err)
	}
	if len(msgs) != 4 || msgs[3].MsgID != 4 {
		t.Fatalf("expected first 4 messages, got %+v", msgs)
	}
}

func TestSaveMessageDuplicateID(t *testing.T) {
	db := newTestDB(t)
	db.Config.TranslateError = true
	repo := NewMessageRepository(db)
	ctx := context.Background()

	msg := &model.ChatMessage{MsgID: 7, FromUID: 1, ToUID: 2, Content: "m", CreateTime: 7}
	if err := repo.SaveMessage(ctx, msg); err != nil {
		t.Fatalf("first save failed: %v", err)
	}
	dup := &model.ChatMessage{MsgID: 7, FromUID: 1, ToUID: 2, Content: "m2", CreateTime: 8}
	if err := repo.SaveMessage(ctx, dup); !errors.Is(err, ErrDuplicateMsgID) {
		t.Fatalf("expected ErrDuplicateMsgID, got %v", err)
	}
}

func TestGroupMessageRoundTrip(t *testing.T) {
	repo := NewMessageRepository(newTestDB(t))
	ctx := context.Background()

	for id := int64(1); id <= 3; id++ {
		msg := &model.GroupMessage{MsgID: id, GroupID: 5, FromUID: 1, Content: "g", CreateTime: id}
		if err := repo.SaveGroupMessage(ctx, msg); err != nil {
			t.Fatalf("SaveGroupMessage failed: %v", err)
		}
	}
	msgs, err := repo.ListGroupSince(ctx, 5, 1, 100)
	if err != nil {
		t.Fatalf("ListGroupSince failed: %v", err)
	}
	if len(msgs) != 2 || msgs[0].MsgID != 2 || msgs[1].MsgID != 3 {
		t.Fatalf("unexpected group backlog: %+v", msgs)
	}
}

func TestFriendRequestAcceptCreatesBothEdges(t *testing.T) {
	repo := NewFriendRepository(newTestDB(t))
	ctx := context.Background()

	reqID, err := repo.CreateRequest(ctx, 1, 2, "hello")
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}

	pending, err := repo.PendingForUser(ctx, 2)
	if err != nil {
		t.Fatalf("PendingForUser failed: %v", err)
	}
	if len(pending) != 1 || pending[0].ReqID != reqID {
		t.Fatalf("expected one pending request, got %+v", pending)
	}

	if err := repo.Resolve(ctx, reqID, true); err != nil {
		t.Fatalf("Resolve(accept) failed: %v", err)
	}

	for _, pair := range [][2]int64{{1, 2}, {2, 1}} {
		ok, err := repo.AreFriends(ctx, pair[0], pair[1])
		if err != nil {
			t.Fatalf("AreFriends failed: %v", err)
		}
		if !ok {
			t.Fatalf("expected %d and %d to be friends", pair[0], pair[1])
		}
	}

	friends, err := repo.ListFriends(ctx, 1)
	if err != nil {
		t.Fatalf("ListFriends failed: %v", err)
	}
	if len(friends) != 1 || friends[0] != 2 {
		t.Fatalf("unexpected friend list: %v", friends)
	}
}

func TestFriendRequestResolveIsOneWay(t *testing.T) {
	repo := NewFriendRepository(newTestDB(t))
	ctx := context.Background()

	reqID, err := repo.CreateRequest(ctx, 1, 2, "hi")
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}
	if err := repo.Resolve(ctx, reqID, false); err != nil {
		t.Fatalf("Resolve(reject) failed: %v", err)
	}

	// 已处理的申请不允许再次流转
	if err := repo.Resolve(ctx, reqID, true); !errors.Is(err, ErrRequestResolved) {
		t.Fatalf("expected ErrRequestResolved, got %v", err)
	}

	ok, err := repo.AreFriends(ctx, 1, 2)
	if err != nil {
		t.Fatalf("AreFriends failed: %v", err)
	}
	if ok {
		t.Fatalf("rejected request must not create edges")
	}

	req, err := repo.GetRequest(ctx, reqID)
	if err != nil {
		t.Fatalf("GetRequest failed: %v", err)
	}
	if req.Status != model.FriendRequestRejected {
		t.Fatalf("expected status rejected, got %d", req.Status)
	}
}

func TestFriendRequestRejectLeavesNoPending(t *testing.T) {
	repo := NewFriendRepository(newTestDB(t))
	ctx := context.Background()

	reqID, err := repo.CreateRequest(ctx, 3, 4, "")
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}
	if err := repo.Resolve(ctx, reqID, false); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	pending, err := repo.PendingForUser(ctx, 4)
	if err != nil {
		t.Fatalf("PendingForUser failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending requests, got %+v", pending)
	}
}

func TestUserRepositoryCreateAndFind(t *testing.T) {
	db := newTestDB(t)
	db.Config.TranslateError = true
	repo := NewUserRepository(db)
	ctx := context.Background()

	uid, err := repo.CreateUser(ctx, "alice", "hash-a", "alice@example.com")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if uid == 0 {
		t.Fatalf("expected non-zero uid")
	}

	u, err := repo.FindByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("FindByEmail failed: %v", err)
	}
	if u.ID != uid || u.Username != "alice" {
		t.Fatalf("unexpected user: %+v", u)
	}

	if _, err := repo.CreateUser(ctx, "alice2", "hash-b", "alice@example.com"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestGroupMembership(t *testing.T) {
	repo := NewGroupRepository(newTestDB(t))
	ctx := context.Background()

	groupID, err := repo.CreateGroup(ctx, 1, "dev")
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	// 群主自动入群
	ok, err := repo.IsMember(ctx, groupID, 1)
	if err != nil || !ok {
		t.Fatalf("owner should be a member, ok=%v err=%v", ok, err)
	}

	if err := repo.AddMember(ctx, groupID, 2); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}
	// 重复添加幂等
	if err := repo.AddMember(ctx, groupID, 2); err != nil {
		t.Fatalf("AddMember twice failed: %v", err)
	}

	members, err := repo.Members(ctx, groupID)
	if err != nil {
		t.Fatalf("Members failed: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %v", members)
	}

	ok, err = repo.IsMember(ctx, groupID, 3)
	if err != nil {
		t.Fatalf("IsMember failed: %v", err)
	}
	if ok {
		t.Fatalf("uid 3 should not be a member")
	}
}
