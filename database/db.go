package database

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/rehiy/modem-connect/logger"
	"github.com/rehiy/modem-connect/models"
)

var (
	db   *gorm.DB
	once sync.Once
)

// GetDB 获取数据库实例
func GetDB() *gorm.DB {
	return db
}

// Close 关闭数据库连接
func Close() error {
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			return sqlDB.Close()
		} else {
			return err
		}
	}
	return nil
}

// InitDB 初始化连接日志数据库
func InitDB(dbPath string) error {
	var err error
	once.Do(func() {
		// 创建目录
		dir := filepath.Dir(dbPath)
		if err = os.MkdirAll(dir, 0755); err != nil {
			return
		}

		// 连接数据库
		db, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		if err != nil {
			return
		}

		// 创建表
		err = db.AutoMigrate(
			&models.ConnectionEvent{},
			&models.SignalSample{},
		)
		if err != nil {
			err = fmt.Errorf("failed to auto migrate: %w", err)
			return
		}

		logger.App.Infof("Database initialized at: %s", dbPath)
	})
	return err
}
