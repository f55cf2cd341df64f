package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stophobia/restai/core"
	"github.com/stophobia/restai/storage"
)

// ChatRepository implements storage.ChatRepository for BadgerDB.
type ChatRepository struct {
	backend *Backend
}

var _ storage.ChatRepository = (*ChatRepository)(nil)

// NewChatRepository creates a new ChatRepository.
func NewChatRepository(backend *Backend) *ChatRepository {
	return &ChatRepository{backend: backend}
}

// Close is a no-op; the backend owns the database handle.
func (r *ChatRepository) Close() error {
	return nil
}

// GetSession retrieves a session by id.
func (r *ChatRepository) GetSession(ctx context.Context, id string) (*core.ChatSession, error) {
	var result *core.ChatSession
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeChatSessionKey(id))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			result, unmarshalErr = storage.UnmarshalChatSession(val)
			return unmarshalErr
		})
	}, false)
	return result, err
}

// PutSession stores or replaces a session.
func (r *ChatRepository) PutSession(ctx context.Context, session *core.ChatSession) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		if session.CreatedAt.IsZero() {
			session.CreatedAt = now
		}
		session.UpdatedAt = now

		key := makeChatSessionKey(session.Id)
		if err := tx.Set(key, storage.MarshalChatSession(session)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}
