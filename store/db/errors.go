package db

import "github.com/kochabx/curvebox/errors"

var (
	// ErrUnsupportedDriver 不支持的数据库驱动
	ErrUnsupportedDriver = errors.BadRequest("db: unsupported driver")
	// ErrNotInitialized 客户端未打开
	ErrNotInitialized = errors.New(500, "db: not initialized")
)
