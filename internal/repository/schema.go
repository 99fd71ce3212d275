package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
)

// Schema PostgreSQL 建表语句（plants_plot_position_key 保证同一格子只有一株植物）
//
//go:embed schema.sql
var Schema string

// EnsureSchema 创建缺失的表和索引（语句均为 IF NOT EXISTS，可重复执行）
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
