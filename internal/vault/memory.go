package vault

import (
	"context"
	"iter"
	"sort"
	"sync"
	"time"

	"github.com/dimitrije/passop-api/internal/models"
	"github.com/google/uuid"
)

// MemoryStore is a concurrency-safe in-process CredentialStore.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*memoryRecord
	seq     uint64
	now     func() time.Time
}

type memoryRecord struct {
	cred models.Credential
	seq  uint64
}

var _ CredentialStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[uuid.UUID]*memoryRecord),
		now:     time.Now,
	}
}

func cloneCredential(c models.Credential) models.Credential {
	if c.URL != nil {
		u := *c.URL
		c.URL = &u
	}
	return c
}

func (s *MemoryStore) Create(ctx context.Context, owner Owner, fields NewCredential) (*models.Credential, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	s.seq++
	rec := &memoryRecord{
		seq: s.seq,
		cred: cloneCredential(models.Credential{
			ID:        uuid.New(),
			OwnerID:   owner.ID,
			Website:   fields.Website,
			Username:  fields.Username,
			Secret:    fields.SecretCiphertext,
			URL:       nonEmpty(fields.URL),
			CreatedAt: now,
			UpdatedAt: now,
		}),
	}
	s.records[rec.cred.ID] = rec

	out := cloneCredential(rec.cred)
	return &out, nil
}

func (s *MemoryStore) List(ctx context.Context, owner Owner) iter.Seq2[models.Credential, error] {
	return func(yield func(models.Credential, error) bool) {
		if err := ctx.Err(); err != nil {
			yield(models.Credential{}, err)
			return
		}

		s.mu.RLock()
		snapshot := make([]memoryRecord, 0)
		for _, rec := range s.records {
			if rec.cred.OwnerID == owner.ID {
				snapshot = append(snapshot, memoryRecord{cred: cloneCredential(rec.cred), seq: rec.seq})
			}
		}
		s.mu.RUnlock()

		sort.Slice(snapshot, func(i, j int) bool {
			a, b := snapshot[i], snapshot[j]
			if !a.cred.CreatedAt.Equal(b.cred.CreatedAt) {
				return a.cred.CreatedAt.After(b.cred.CreatedAt)
			}
			return a.seq > b.seq
		})

		for _, rec := range snapshot {
			if !yield(rec.cred, nil) {
				return
			}
		}
	}
}

func (s *MemoryStore) Get(ctx context.Context, owner Owner, id uuid.UUID) (*models.Credential, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.lookupLocked(owner, id)
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneCredential(rec.cred)
	return &out, nil
}

func (s *MemoryStore) Update(ctx context.Context, owner Owner, id uuid.UUID, patch CredentialPatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := patch.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.lookupLocked(owner, id)
	if !ok {
		return ErrNotFound
	}

	next := cloneCredential(rec.cred)
	if patch.Website != nil {
		next.Website = *patch.Website
	}
	if patch.Username != nil {
		next.Username = *patch.Username
	}
	if patch.SecretCiphertext != nil {
		next.Secret = *patch.SecretCiphertext
	}
	if patch.URL != nil {
		next.URL = nonEmpty(patch.URL)
	}
	next.UpdatedAt = s.now().UTC()
	rec.cred = next
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, owner Owner, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lookupLocked(owner, id); !ok {
		return ErrNotFound
	}
	delete(s.records, id)
	return nil
}

func (s *MemoryStore) lookupLocked(owner Owner, id uuid.UUID) (*memoryRecord, bool) {
	rec, ok := s.records[id]
	if !ok || !Authorize(owner, OwnerOf(&rec.cred)) {
		return nil, false
	}
	return rec, true
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}
