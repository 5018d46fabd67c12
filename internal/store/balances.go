package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// BalanceScale 是余额的展示精度；存储侧保留原始精度，展示时统一截断。
const BalanceScale = int32(6)

func (s *Store) GetUserBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	u, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return u.Balance, nil
}

// AdjustUserBalance 以增量方式调整余额并返回调整后的值。
// 读改写放在同一事务里，避免并发调整互相覆盖。
func (s *Store) AdjustUserBalance(ctx context.Context, userID int64, delta decimal.Decimal) (decimal.Decimal, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("开启事务失败: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var curr decimal.Decimal
	if err := tx.QueryRowContext(ctx, `SELECT balance FROM users WHERE id=?`, userID).Scan(&curr); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, ErrNotFound
		}
		return decimal.Zero, fmt.Errorf("查询余额失败: %w", err)
	}
	next := curr.Add(delta)
	if _, err := tx.ExecContext(ctx, `
UPDATE users SET balance=?, updated_at=CURRENT_TIMESTAMP WHERE id=?
`, next.String(), userID); err != nil {
		return decimal.Zero, fmt.Errorf("更新余额失败: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return decimal.Zero, fmt.Errorf("提交事务失败: %w", err)
	}
	return next, nil
}
