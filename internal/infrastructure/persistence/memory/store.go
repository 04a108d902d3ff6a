// Package memory is the mock-data adapter: every repository port backed by
// maps and preloaded with the seed reference data.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/djishijima/hellbuild-v3/internal/application/port"
	"github.com/djishijima/hellbuild-v3/internal/domain/entity"
	"github.com/djishijima/hellbuild-v3/internal/infrastructure/persistence/seed"
)

type contextKey string

const txKey contextKey = "memory_tx"

// Store holds all tables. Reads and writes copy values so callers never share state with it.
type Store struct {
	mu         sync.RWMutex
	txMu       sync.Mutex
	approvals  map[string]*entity.ApprovalRecord
	codes      map[string]*entity.ApplicationCode
	recipients map[string]*entity.PaymentRecipient
	users      map[string]*entity.User
	history    []*entity.ApprovalHistory
	historySeq int64
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		approvals:  make(map[string]*entity.ApprovalRecord),
		codes:      make(map[string]*entity.ApplicationCode),
		recipients: make(map[string]*entity.PaymentRecipient),
		users:      make(map[string]*entity.User),
	}
}

// NewSeededStore creates a store holding the seed users, codes and recipients
func NewSeededStore() *Store {
	s := NewStore()
	now := time.Now().UTC()
	for _, u := range seed.Users(now) {
		s.users[u.ID] = u
	}
	for _, c := range seed.ApplicationCodes(now) {
		s.codes[c.ID] = c
	}
	for _, p := range seed.Recipients(now) {
		s.recipients[p.ID] = p
	}
	return s
}

type snapshot struct {
	approvals  map[string]*entity.ApprovalRecord
	codes      map[string]*entity.ApplicationCode
	recipients map[string]*entity.PaymentRecipient
	history    []*entity.ApprovalHistory
	historySeq int64
}

// WithTransaction implements port.TransactionManager. Transactions are
// serialized; a failed one restores the tables as they were when it began.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if ctx.Value(txKey) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	defer func() {
		if p := recover(); p != nil {
			s.restore(snap)
			panic(p)
		}
		if err != nil {
			s.restore(snap)
		}
	}()

	return fn(context.WithValue(ctx, txKey, true))
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := snapshot{
		approvals:  make(map[string]*entity.ApprovalRecord, len(s.approvals)),
		codes:      make(map[string]*entity.ApplicationCode, len(s.codes)),
		recipients: make(map[string]*entity.PaymentRecipient, len(s.recipients)),
		history:    append([]*entity.ApprovalHistory(nil), s.history...),
		historySeq: s.historySeq,
	}
	for k, v := range s.approvals {
		snap.approvals[k] = v
	}
	for k, v := range s.codes {
		snap.codes[k] = v
	}
	for k, v := range s.recipients {
		snap.recipients[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.approvals = snap.approvals
	s.codes = snap.codes
	s.recipients = snap.recipients
	s.history = snap.history
	s.historySeq = snap.historySeq
}

// Approvals returns the approval repository view
func (s *Store) Approvals() port.ApprovalRepository { return approvalRepo{s} }

// ApplicationCodes returns the application code repository view
func (s *Store) ApplicationCodes() port.ApplicationCodeRepository { return codeRepo{s} }

// Recipients returns the payment recipient repository view
func (s *Store) Recipients() port.RecipientRepository { return recipientRepo{s} }

// Users returns the user repository view
func (s *Store) Users() port.UserRepository { return userRepo{s} }

// History returns the history repository view
func (s *Store) History() port.HistoryRepository { return historyRepo{s} }

type approvalRepo struct{ s *Store }

func (r approvalRepo) Create(ctx context.Context, record *entity.ApprovalRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.approvals[record.ID]; exists {
		return fmt.Errorf("approval %s: %w", record.ID, port.ErrConflict)
	}
	r.s.approvals[record.ID] = record.Clone()
	return nil
}

func (r approvalRepo) Update(ctx context.Context, record *entity.ApprovalRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.approvals[record.ID]; !exists {
		return fmt.Errorf("approval %s: %w", record.ID, port.ErrNotFound)
	}
	r.s.approvals[record.ID] = record.Clone()
	return nil
}

func (r approvalRepo) GetByID(ctx context.Context, id string) (*entity.ApprovalRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.approvals[id].Clone(), nil
}

func (r approvalRepo) List(ctx context.Context) ([]*entity.ApprovalRecord, error) {
	r.s.mu.RLock()
	records := make([]*entity.ApprovalRecord, 0, len(r.s.approvals))
	for _, a := range r.s.approvals {
		records = append(records, a.Clone())
	}
	r.s.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return records[i].ID < records[j].ID
	})
	return records, nil
}

type codeRepo struct{ s *Store }

func (r codeRepo) Create(ctx context.Context, code *entity.ApplicationCode) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.codes {
		if c.Code == code.Code {
			return fmt.Errorf("application code %s: %w", code.Code, port.ErrConflict)
		}
	}
	c := *code
	r.s.codes[code.ID] = &c
	return nil
}

func (r codeRepo) GetByID(ctx context.Context, id string) (*entity.ApplicationCode, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if c, ok := r.s.codes[id]; ok {
		v := *c
		return &v, nil
	}
	return nil, nil
}

func (r codeRepo) GetByCode(ctx context.Context, code string) (*entity.ApplicationCode, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, c := range r.s.codes {
		if c.Code == code {
			v := *c
			return &v, nil
		}
	}
	return nil, nil
}

func (r codeRepo) List(ctx context.Context, includeInactive bool) ([]*entity.ApplicationCode, error) {
	r.s.mu.RLock()
	codes := make([]*entity.ApplicationCode, 0, len(r.s.codes))
	for _, c := range r.s.codes {
		if includeInactive || c.IsActive {
			v := *c
			codes = append(codes, &v)
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(codes, func(i, j int) bool { return codes[i].Code < codes[j].Code })
	return codes, nil
}

type recipientRepo struct{ s *Store }

func (r recipientRepo) Create(ctx context.Context, p *entity.PaymentRecipient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.recipients[p.ID]; exists {
		return fmt.Errorf("recipient %s: %w", p.ID, port.ErrConflict)
	}
	v := *p
	r.s.recipients[p.ID] = &v
	return nil
}

func (r recipientRepo) Update(ctx context.Context, p *entity.PaymentRecipient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.recipients[p.ID]; !exists {
		return fmt.Errorf("recipient %s: %w", p.ID, port.ErrNotFound)
	}
	v := *p
	r.s.recipients[p.ID] = &v
	return nil
}

func (r recipientRepo) GetByID(ctx context.Context, id string) (*entity.PaymentRecipient, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if p, ok := r.s.recipients[id]; ok {
		v := *p
		return &v, nil
	}
	return nil, nil
}

func (r recipientRepo) List(ctx context.Context, includeInactive bool) ([]*entity.PaymentRecipient, error) {
	r.s.mu.RLock()
	recipients := make([]*entity.PaymentRecipient, 0, len(r.s.recipients))
	for _, p := range r.s.recipients {
		if includeInactive || p.IsActive {
			v := *p
			recipients = append(recipients, &v)
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(recipients, func(i, j int) bool {
		return strings.Compare(recipients[i].RecipientName, recipients[j].RecipientName) < 0
	})
	return recipients, nil
}

func (r recipientRepo) SetActive(ctx context.Context, id string, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.recipients[id]
	if !ok {
		return fmt.Errorf("recipient %s: %w", id, port.ErrNotFound)
	}
	v := *p
	v.IsActive = active
	v.UpdatedAt = time.Now().UTC()
	r.s.recipients[id] = &v
	return nil
}

type userRepo struct{ s *Store }

// emailTaken mirrors the unique email index of the SQL stores. Caller holds the lock.
func (r userRepo) emailTaken(email, exceptID string) bool {
	for id, u := range r.s.users {
		if id != exceptID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (r userRepo) Create(ctx context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.users[u.ID]; exists || r.emailTaken(u.Email, "") {
		return fmt.Errorf("user %s: %w", u.Email, port.ErrConflict)
	}
	v := *u
	r.s.users[u.ID] = &v
	return nil
}

func (r userRepo) Update(ctx context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, exists := r.s.users[u.ID]
	if !exists {
		return fmt.Errorf("user %s: %w", u.ID, port.ErrNotFound)
	}
	if r.emailTaken(u.Email, u.ID) {
		return fmt.Errorf("user %s: %w", u.Email, port.ErrConflict)
	}
	v := *u
	v.CreatedAt = current.CreatedAt
	r.s.users[u.ID] = &v
	return nil
}

func (r userRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if u, ok := r.s.users[id]; ok {
		v := *u
		return &v, nil
	}
	return nil, nil
}

func (r userRepo) List(ctx context.Context) ([]*entity.User, error) {
	r.s.mu.RLock()
	users := make([]*entity.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		v := *u
		users = append(users, &v)
	}
	r.s.mu.RUnlock()

	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users, nil
}

type historyRepo struct{ s *Store }

func (r historyRepo) Create(ctx context.Context, h *entity.ApprovalHistory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.historySeq++
	h.ID = r.s.historySeq
	v := *h
	r.s.history = append(r.s.history, &v)
	return nil
}

func (r historyRepo) GetByRecordID(ctx context.Context, recordID string) ([]*entity.ApprovalHistory, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.ApprovalHistory
	for _, h := range r.s.history {
		if h.RecordID == recordID {
			v := *h
			out = append(out, &v)
		}
	}
	return out, nil
}

var _ port.TransactionManager = (*Store)(nil)
