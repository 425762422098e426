package api

import (
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"
)

// resultDownload 一次优化结果的工作簿，凭令牌下载一次
type resultDownload struct {
	sessionID string
	filename  string
	workbook  []byte
	expiresAt time.Time
}

type resultStore struct {
	mu    sync.Mutex
	items map[string]resultDownload
	now   func() time.Time
}

func newResultStore() *resultStore {
	return &resultStore{
		items: make(map[string]resultDownload),
		now:   time.Now,
	}
}

func (s *resultStore) put(sessionID, filename string, workbook []byte, ttl time.Duration) (token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.purgeExpiredLocked(now)

	token = newRandomToken(24)
	s.items[token] = resultDownload{
		sessionID: sessionID,
		filename:  filename,
		workbook:  workbook,
		expiresAt: now.Add(ttl),
	}
	return token
}

// take 取出并删除；过期或会话不符返回 false
func (s *resultStore) take(token, sessionID string) (resultDownload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.purgeExpiredLocked(now)

	v, ok := s.items[token]
	if !ok || v.sessionID != sessionID {
		return resultDownload{}, false
	}
	delete(s.items, token)
	return v, true
}

func (s *resultStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *resultStore) purgeExpiredLocked(now time.Time) {
	for k, v := range s.items {
		if now.After(v.expiresAt) {
			delete(s.items, k)
		}
	}
}

func newRandomToken(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
