// Package store 提供公告的持久化：管理员发布，所有调用方可读已发布内容。
package store

import (
	"context"
	"errors"
	"fmt"
)

func (s *Store) CreateAnnouncement(ctx context.Context, title string, body string, status int) (int64, error) {
	switch status {
	case AnnouncementStatusDraft, AnnouncementStatusPublished:
	default:
		return 0, errors.New("status 不合法")
	}
	res, err := s.db.ExecContext(ctx, `
INSERT INTO announcements(title, body, status, created_at, updated_at)
VALUES(?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
`, title, body, status)
	if err != nil {
		return 0, fmt.Errorf("创建公告失败: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("获取公告 id 失败: %w", err)
	}
	return id, nil
}

func (s *Store) ListPublishedAnnouncements(ctx context.Context) ([]Announcement, error) {
	return s.listAnnouncements(ctx, true)
}

func (s *Store) ListAnnouncements(ctx context.Context) ([]Announcement, error) {
	return s.listAnnouncements(ctx, false)
}

func (s *Store) listAnnouncements(ctx context.Context, publishedOnly bool) ([]Announcement, error) {
	q := `
SELECT id, title, body, status, created_at, updated_at
FROM announcements
`
	if publishedOnly {
		q += `WHERE status=1
`
	}
	q += `ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("查询公告失败: %w", err)
	}
	defer rows.Close()

	var out []Announcement
	for rows.Next() {
		var a Announcement
		if err := rows.Scan(&a.ID, &a.Title, &a.Body, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("扫描公告失败: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历公告失败: %w", err)
	}
	return out, nil
}

func (s *Store) UpdateAnnouncement(ctx context.Context, id int64, title string, body string, status int) error {
	switch status {
	case AnnouncementStatusDraft, AnnouncementStatusPublished:
	default:
		return errors.New("status 不合法")
	}
	res, err := s.db.ExecContext(ctx, `
UPDATE announcements SET title=?, body=?, status=?, updated_at=CURRENT_TIMESTAMP WHERE id=?
`, title, body, status, id)
	if err != nil {
		return fmt.Errorf("更新公告失败: %w", err)
	}
	return requireAffected(res)
}

func (s *Store) DeleteAnnouncement(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM announcements WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("删除公告失败: %w", err)
	}
	return requireAffected(res)
}
