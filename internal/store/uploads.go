package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Upload 会话最后一次上传的文件
type Upload struct {
	SessionID  string    `json:"-"`
	Filename   string    `json:"filename"`
	Path       string    `json:"-"`
	Size       int64     `json:"size"`
	Hash       string    `json:"sha256"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// SaveUpload 记录会话的上传（覆盖上一次）
func (s *Store) SaveUpload(u Upload) error {
	_, err := s.db.Exec(`
		INSERT INTO uploads (session_id, filename, file_path, file_size, file_hash)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			filename = excluded.filename,
			file_path = excluded.file_path,
			file_size = excluded.file_size,
			file_hash = excluded.file_hash,
			uploaded_at = CURRENT_TIMESTAMP
	`, u.SessionID, u.Filename, u.Path, u.Size, u.Hash)
	if err != nil {
		return fmt.Errorf("failed to save upload: %w", err)
	}
	return nil
}

// LastUpload 获取会话最后一次上传，不存在返回 ErrNotFound
func (s *Store) LastUpload(sessionID string) (*Upload, error) {
	u := &Upload{SessionID: sessionID}
	err := s.db.QueryRow(`
		SELECT filename, file_path, file_size, file_hash, uploaded_at
		FROM uploads WHERE session_id = ?
	`, sessionID).Scan(&u.Filename, &u.Path, &u.Size, &u.Hash, &u.UploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query upload: %w", err)
	}
	return u, nil
}

// ForgetUpload 删除会话的上传记录
func (s *Store) ForgetUpload(sessionID string) error {
	if _, err := s.db.Exec(`DELETE FROM uploads WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to forget upload: %w", err)
	}
	return nil
}
