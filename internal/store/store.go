// Package store 提供数据库读写的封装与基础约束，保证业务层只处理领域语义而不是 SQL 细节。
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

var ErrNotFound = errors.New("记录不存在")

type Store struct {
	db      *sql.DB
	dialect Dialect
}

func New(db *sql.DB) *Store {
	return &Store{
		db:      db,
		dialect: DialectSQLite,
	}
}

func (s *Store) SetDialect(d Dialect) {
	s.dialect = d
}

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("统计 users 失败: %w", err)
	}
	return n, nil
}

func (s *Store) CreateUser(ctx context.Context, email string, username string, passwordHash []byte, role string) (int64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)
	if email == "" || username == "" {
		return 0, errors.New("email/username 不能为空")
	}
	res, err := s.db.ExecContext(ctx, `
INSERT INTO users(email, username, password_hash, role, status, balance, created_at, updated_at)
VALUES(?, ?, ?, ?, ?, '0', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
`, email, username, passwordHash, role, UserStatusEnabled)
	if err != nil {
		return 0, fmt.Errorf("创建用户失败: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("获取用户 id 失败: %w", err)
	}
	return id, nil
}

const userColumns = `id, email, username, password_hash, role, status, balance, created_at, updated_at`

func (s *Store) scanUser(row *sql.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.Role, &u.Status, &u.Balance, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("扫描 users 失败: %w", err)
	}
	return u, nil
}

func (s *Store) GetUserByID(ctx context.Context, userID int64) (User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=?`, userID))
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email=?`, strings.ToLower(strings.TrimSpace(email))))
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username=?`, strings.TrimSpace(username)))
}

func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("查询 users 失败: %w", err)
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.Role, &u.Status, &u.Balance, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("扫描 users 失败: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历 users 失败: %w", err)
	}
	return out, nil
}

func (s *Store) UpdateUserProfile(ctx context.Context, userID int64, email string, username string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)
	if email == "" || username == "" {
		return errors.New("email/username 不能为空")
	}
	res, err := s.db.ExecContext(ctx, `
UPDATE users SET email=?, username=?, updated_at=CURRENT_TIMESTAMP WHERE id=?
`, email, username, userID)
	if err != nil {
		return fmt.Errorf("更新用户失败: %w", err)
	}
	return requireAffected(res)
}

func (s *Store) UpdateUserRole(ctx context.Context, userID int64, role string) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE users SET role=?, updated_at=CURRENT_TIMESTAMP WHERE id=?
`, role, userID)
	if err != nil {
		return fmt.Errorf("更新用户角色失败: %w", err)
	}
	return requireAffected(res)
}

func (s *Store) UpdateUserPasswordHash(ctx context.Context, userID int64, passwordHash []byte) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE users SET password_hash=?, updated_at=CURRENT_TIMESTAMP WHERE id=?
`, passwordHash, userID)
	if err != nil {
		return fmt.Errorf("更新用户密码失败: %w", err)
	}
	return requireAffected(res)
}

func (s *Store) DeleteUser(ctx context.Context, userID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id=?`, userID)
	if err != nil {
		return fmt.Errorf("删除用户失败: %w", err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("获取影响行数失败: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
