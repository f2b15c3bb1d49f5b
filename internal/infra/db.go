package infra

import (
	"os"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// NewDB 创建 MySQL 连接句柄。
// 使用的环境变量：
//
//	LC_MYSQL_DSN 例：root:admin_pwd@tcp(127.0.0.1:3306)/letschat?charset=utf8mb4&parseTime=True&loc=Local
//
// database/sql 自带有界连接池，这里只设上限与存活期，取还逻辑不再另包一层。
func NewDB() (*gorm.DB, error) {
	dsn := os.Getenv("LC_MYSQL_DSN")
	if dsn == "" {
		dsn = "root:admin_pwd@tcp(127.0.0.1:3306)/letschat?charset=utf8mb4&parseTime=True&loc=Local"
	}
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(time.Hour)
	return db, nil
}
