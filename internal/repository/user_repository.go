package repository

import (
	"context"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"github.com/Muelsyse030/XLetsChat/internal/model"
)

// ErrEmailTaken 表示邮箱已被注册。
var ErrEmailTaken = errors.New("email already registered")

// UserRepository 负责账号数据的读写。
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser 写入新用户，返回分配的 uid。邮箱唯一键冲突翻译为 ErrEmailTaken。
func (r *UserRepository) CreateUser(ctx context.Context, username, passwordHash, email string) (int64, error) {
	u := model.User{
		Username:   username,
		Password:   passwordHash,
		Email:      email,
		CreateTime: time.Now().Unix(),
	}
	if err := r.db.WithContext(ctx).Create(&u).Error; err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return 0, ErrEmailTaken
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, ErrEmailTaken
		}
		return 0, err
	}
	return u.ID, nil
}

// FindByEmail 按邮箱查询用户，未找到时返回 gorm.ErrRecordNotFound。
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByUID 按 uid 查询用户。
func (r *UserRepository) FindByUID(ctx context.Context, uid int64) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).First(&u, uid).Error; err != nil {
		return nil, err
	}
	return &u, nil
}
