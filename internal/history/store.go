package history

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/iabetor/voxstudio/internal/database"
	"github.com/iabetor/voxstudio/internal/logger"
)

// ErrNotFound 表示历史记录不存在。
var ErrNotFound = errors.New("历史记录不存在")

// DefaultPreviewChars 是列表中显示的文本长度。
const DefaultPreviewChars = 80

// Record 是一次成功合成的历史记录。
type Record struct {
	ID          string
	Text        string
	VoiceID     string
	VoiceName   string
	Style       string
	Duration    time.Duration
	ArtifactKey string // 导出音频在对象存储中的 key
	CreatedAt   time.Time
}

// Preview 返回文本的前 n 个字符，超出部分以 "..." 结尾。
func (r *Record) Preview(n int) string {
	return Preview(r.Text, n)
}

// Preview 截取 text 的前 n 个字符（按 rune 计），n <= 0 时使用 DefaultPreviewChars。
func Preview(text string, n int) string {
	if n <= 0 {
		n = DefaultPreviewChars
	}
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return string(runes[:n]) + "..."
}

// Store 历史记录存储（SQLite）。
type Store struct {
	db  *database.DB
	now func() time.Time
}

// NewStore 创建历史记录存储，db 需已完成迁移。
func NewStore(db *database.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Add 保存一条记录，ID 与 CreatedAt 为空时自动生成。
func (s *Store) Add(r *Record) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now()
	}
	_, err := s.db.Exec(
		`INSERT INTO history (id, text, voice_id, voice_name, style, duration_ms, artifact_key, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Text, r.VoiceID, r.VoiceName, r.Style,
		r.Duration.Milliseconds(), r.ArtifactKey, r.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("保存历史记录失败: %w", err)
	}
	logger.Debugf("[history] 已保存 %s (%s, %.1fs)", r.ID, r.VoiceName, r.Duration.Seconds())
	return nil
}

const selectColumns = `SELECT id, text, voice_id, voice_name, style, duration_ms, artifact_key, created_at FROM history`

// List 按时间倒序返回最近的 limit 条记录，limit <= 0 表示全部。
func (s *Store) List(limit int) ([]*Record, error) {
	query := selectColumns + ` ORDER BY created_at DESC, rowid DESC`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("查询历史记录失败: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Get 根据 ID 获取记录，支持唯一的 ID 前缀。
func (s *Store) Get(id string) (*Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrNotFound
	}
	rows, err := s.db.Query(selectColumns+` WHERE id LIKE ? LIMIT 2`, id+"%")
	if err != nil {
		return nil, fmt.Errorf("查询历史记录失败: %w", err)
	}
	defer rows.Close()

	var found []*Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		found = append(found, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(found) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return found[0], nil
	}
	return nil, fmt.Errorf("ID 前缀 %q 匹配到多条记录", id)
}

// Delete 删除记录，返回被删除的记录以便调用方清理导出文件。
func (s *Store) Delete(id string) (*Record, error) {
	r, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.Exec(`DELETE FROM history WHERE id = ?`, r.ID); err != nil {
		return nil, fmt.Errorf("删除历史记录失败: %w", err)
	}
	logger.Infof("[history] 已删除 %s", r.ID)
	return r, nil
}

// Count 返回记录总数。
func (s *Store) Count() int {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM history`).Scan(&n); err != nil {
		logger.Warnf("[history] 统计失败: %v", err)
	}
	return n
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (*Record, error) {
	var (
		r          Record
		durationMs int64
		createdMs  int64
	)
	err := row.Scan(&r.ID, &r.Text, &r.VoiceID, &r.VoiceName, &r.Style, &durationMs, &r.ArtifactKey, &createdMs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("读取历史记录失败: %w", err)
	}
	r.Duration = time.Duration(durationMs) * time.Millisecond
	r.CreatedAt = time.UnixMilli(createdMs)
	return &r, nil
}
