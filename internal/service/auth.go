package service

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Muelsyse030/XLetsChat/internal/model"
)

// ErrAuthFail 表示凭证校验失败（用户不存在或口令/令牌不符）。
var ErrAuthFail = errors.New("auth failed")

// UserStore 描述认证需要的账号读写能力，便于测试替换。
type UserStore interface {
	CreateUser(ctx context.Context, username, passwordHash, email string) (int64, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByUID(ctx context.Context, uid int64) (*model.User, error)
}

// AuthService 封装注册与登录校验。
type AuthService struct {
	users UserStore
}

func NewAuthService(users UserStore) *AuthService {
	return &AuthService{users: users}
}

// Register 注册新用户，口令以 bcrypt 哈希落库。
func (s *AuthService) Register(ctx context.Context, username, password, email string) (int64, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}
	return s.users.CreateUser(ctx, username, string(hash), email)
}

// LoginByEmail 校验邮箱口令，成功返回用户与长连接登录用的令牌。
// 令牌即存储的凭证哈希：HTTP 登录发放，WebSocket 登录原样回传比对。
func (s *AuthService) LoginByEmail(ctx context.Context, email, password string) (*model.User, string, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrAuthFail
		}
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return nil, "", ErrAuthFail
	}
	return u, u.Password, nil
}

// CheckToken 校验长连接登录令牌。
func (s *AuthService) CheckToken(ctx context.Context, uid int64, token string) error {
	u, err := s.users.FindByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAuthFail
		}
		return err
	}
	if token == "" || u.Password != token {
		return ErrAuthFail
	}
	return nil
}

// ServerTime 返回登录响应里的服务端时间。
func ServerTime() int64 { return time.Now().Unix() }
