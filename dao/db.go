package dao

import (
	"emmie-backend/config"
	"emmie-backend/model"
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// DB 全局数据库连接
var DB *gorm.DB

func Init() error {
	db, err := gorm.Open(mysql.Open(config.Cfg.MySQL.DSN), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect to mysql: %v", err)
	}

	if err := db.AutoMigrate(
		&model.User{},
		&model.Chat{},
		&model.Message{},
		&model.Feedback{},
		&model.Agent{},
		&model.Tool{},
		&model.AgentTool{},
		&model.Document{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %v", err)
	}

	DB = db
	return nil
}
