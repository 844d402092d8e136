package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vietlong-68/auth-service/internal/models"
	"github.com/vietlong-68/auth-service/internal/repositories"
)

// memoryStore backs the in-memory repository fakes used by the service
// tests. A single mutex stands in for the store's transactional isolation.
type memoryStore struct {
	mu          sync.Mutex
	active      map[string]*models.ActiveToken
	blacklisted map[string]*models.BlacklistedToken
	users       map[uuid.UUID]*models.User

	// error injection, returned by every method of the matching repo
	activeErr    error
	blacklistErr error
	userErr      error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		active:      make(map[string]*models.ActiveToken),
		blacklisted: make(map[string]*models.BlacklistedToken),
		users:       make(map[uuid.UUID]*models.User),
	}
}

func (s *memoryStore) addUser(u *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

type memActiveRepo struct{ s *memoryStore }

func (r *memActiveRepo) InsertIfAbsent(_ context.Context, token *models.ActiveToken) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.activeErr != nil {
		return false, r.s.activeErr
	}
	if _, ok := r.s.active[token.TokenID]; ok {
		return false, nil
	}
	cp := *token
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	r.s.active[token.TokenID] = &cp
	return true, nil
}

func (r *memActiveRepo) ExistsByTokenID(_ context.Context, tokenID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.activeErr != nil {
		return false, r.s.activeErr
	}
	_, ok := r.s.active[tokenID]
	return ok, nil
}

func (r *memActiveRepo) FindByTokenID(_ context.Context, tokenID string) (*models.ActiveToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.activeErr != nil {
		return nil, r.s.activeErr
	}
	token, ok := r.s.active[tokenID]
	if !ok {
		return nil, nil
	}
	cp := *token
	return &cp, nil
}

func (r *memActiveRepo) FindByUserID(_ context.Context, userID uuid.UUID) ([]*models.ActiveToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.activeErr != nil {
		return nil, r.s.activeErr
	}
	var tokens []*models.ActiveToken
	for _, token := range r.s.active {
		if token.UserID == userID {
			cp := *token
			tokens = append(tokens, &cp)
		}
	}
	return tokens, nil
}

func (r *memActiveRepo) DeleteByTokenID(_ context.Context, tokenID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.activeErr != nil {
		return r.s.activeErr
	}
	delete(r.s.active, tokenID)
	return nil
}

func (r *memActiveRepo) DeleteAllByUserID(_ context.Context, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.activeErr != nil {
		return r.s.activeErr
	}
	for id, token := range r.s.active {
		if token.UserID == userID {
			delete(r.s.active, id)
		}
	}
	return nil
}

func (r *memActiveRepo) DeleteExpiredBefore(_ context.Context, t time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.activeErr != nil {
		return 0, r.s.activeErr
	}
	var deleted int64
	for id, token := range r.s.active {
		if token.ExpiresAt.Before(t) {
			delete(r.s.active, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *memActiveRepo) DeleteOrphaned(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.activeErr != nil {
		return 0, r.s.activeErr
	}
	var deleted int64
	for id, token := range r.s.active {
		if _, ok := r.s.users[token.UserID]; !ok {
			delete(r.s.active, id)
			deleted++
		}
	}
	return deleted, nil
}

type memBlacklistRepo struct{ s *memoryStore }

func (r *memBlacklistRepo) InsertIfAbsent(_ context.Context, token *models.BlacklistedToken) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.blacklistErr != nil {
		return false, r.s.blacklistErr
	}
	if _, ok := r.s.blacklisted[token.TokenID]; ok {
		return false, nil
	}
	cp := *token
	if cp.BlacklistedAt.IsZero() {
		cp.BlacklistedAt = time.Now()
	}
	r.s.blacklisted[token.TokenID] = &cp
	return true, nil
}

func (r *memBlacklistRepo) ExistsByTokenID(_ context.Context, tokenID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.blacklistErr != nil {
		return false, r.s.blacklistErr
	}
	_, ok := r.s.blacklisted[tokenID]
	return ok, nil
}

func (r *memBlacklistRepo) FindByTokenID(_ context.Context, tokenID string) (*models.BlacklistedToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.blacklistErr != nil {
		return nil, r.s.blacklistErr
	}
	token, ok := r.s.blacklisted[tokenID]
	if !ok {
		return nil, nil
	}
	cp := *token
	return &cp, nil
}

func (r *memBlacklistRepo) Count(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.blacklistErr != nil {
		return 0, r.s.blacklistErr
	}
	return int64(len(r.s.blacklisted)), nil
}

func (r *memBlacklistRepo) CountExpiredBefore(_ context.Context, t time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.blacklistErr != nil {
		return 0, r.s.blacklistErr
	}
	var count int64
	for _, token := range r.s.blacklisted {
		if token.ExpiresAt.Before(t) {
			count++
		}
	}
	return count, nil
}

func (r *memBlacklistRepo) CountByUserID(_ context.Context, userID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.blacklistErr != nil {
		return 0, r.s.blacklistErr
	}
	var count int64
	for _, token := range r.s.blacklisted {
		if token.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (r *memBlacklistRepo) DeleteExpiredBefore(_ context.Context, t time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.blacklistErr != nil {
		return 0, r.s.blacklistErr
	}
	var deleted int64
	for id, token := range r.s.blacklisted {
		if token.ExpiresAt.Before(t) {
			delete(r.s.blacklisted, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *memBlacklistRepo) DeleteOrphaned(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.blacklistErr != nil {
		return 0, r.s.blacklistErr
	}
	var deleted int64
	for id, token := range r.s.blacklisted {
		if _, ok := r.s.users[token.UserID]; !ok {
			delete(r.s.blacklisted, id)
			deleted++
		}
	}
	return deleted, nil
}

type memUserRepo struct{ s *memoryStore }

func (r *memUserRepo) Create(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.userErr != nil {
		return r.s.userErr
	}
	cp := *user
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	r.s.users[user.ID] = &cp
	return nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.userErr != nil {
		return nil, r.s.userErr
	}
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.userErr != nil {
		return nil, r.s.userErr
	}
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) ExistsByID(_ context.Context, id uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.userErr != nil {
		return false, r.s.userErr
	}
	_, ok := r.s.users[id]
	return ok, nil
}

// memTxRunner hands the fake repositories straight to fn; the store mutex
// inside each repository call stands in for transactional isolation.
type memTxRunner struct{ s *memoryStore }

func (r *memTxRunner) InSerializableTx(
	_ context.Context,
	fn func(active repositories.ActiveTokenRepository, blacklist repositories.BlacklistedTokenRepository) error,
) error {
	return fn(&memActiveRepo{s: r.s}, &memBlacklistRepo{s: r.s})
}

func newLedgerForTest() (TokenLedgerService, *memoryStore) {
	store := newMemoryStore()
	ledger := NewTokenLedgerService(
		&memActiveRepo{s: store},
		&memBlacklistRepo{s: store},
		&memUserRepo{s: store},
		&memTxRunner{s: store},
	)
	return ledger, store
}
