package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/LuzuJ/Agro-RedConect-sub001/internal/common/config"

	_ "github.com/lib/pq"
)

// connMaxLifetime 连接最长复用时间
const connMaxLifetime = 30 * time.Minute

// Open 打开 PostgreSQL 连接池并 PING；失败时关闭连接池
func Open(ctx context.Context, cfg *config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	configurePool(db, cfg)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database %s:%d/%s: %w", cfg.Host, cfg.Port, cfg.Database, err)
	}
	return db, nil
}

func configurePool(db *sql.DB, cfg *config.DatabaseConfig) {
	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	}
	if cfg.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.MaxIdle)
	}
	db.SetConnMaxLifetime(connMaxLifetime)
}

// Close 关闭连接池（nil 安全）
func Close(db *sql.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}
