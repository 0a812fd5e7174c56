package workflow

import (
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// SessionStore は ID ごとの Session を一定時間保持します。期限切れのセッションは実行中の処理をキャンセルします。
type SessionStore struct {
	mu    sync.Mutex
	cache *cache.Cache
}

// NewSessionStore は SessionStore を作成します。
func NewSessionStore() *SessionStore {
	c := cache.New(defaultSessionTTL, sessionCleanupInterval)
	c.OnEvicted(func(_ string, v interface{}) {
		if s, ok := v.(*Session); ok {
			s.Close()
		}
	})
	return &SessionStore{cache: c}
}

// Get は id のセッションを返します。存在しない場合は作成します。
// id が空の場合は新しい ID を採番します。
func (st *SessionStore) Get(id string) *Session {
	id = strings.TrimSpace(id)
	if id == "" {
		id = uuid.NewString()
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if v, ok := st.cache.Get(id); ok {
		s := v.(*Session)
		st.cache.SetDefault(id, s)
		return s
	}
	s := NewSession(id)
	st.cache.SetDefault(id, s)
	return s
}

// Delete はセッションを破棄します。
func (st *SessionStore) Delete(id string) {
	st.cache.Delete(id)
}
