package service

import (
	"context"
	"errors"
	"fmt"
	"kiriboka_backend/internal/util"
	"kiriboka_backend/pkg/logger"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxTxAttempts = 3

// runInTx 在事务中执行 fn，遇到唯一键冲突/死锁/锁等待时整体重试。
// fn 可能被执行多次，不能修改事务外的状态。
func runInTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = db.WithContext(ctx).Transaction(fn)
		if err == nil || !isRetryable(err) {
			return err
		}
		logger.Log.Warn("transaction conflict, retrying",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
	return fmt.Errorf("%w: %v", util.ErrConflict, err)
}

func isRetryable(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"deadlock", "database is locked", "could not serialize", "lock wait timeout", "busy"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
