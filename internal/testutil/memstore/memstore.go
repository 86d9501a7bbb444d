// Package memstore is an in-memory stand-in for the GORM repositories and
// transactor, used by service tests. A transaction holds one store-wide lock
// and rolls every collection back when fn returns an error.
package memstore

import (
	"bookflower-loyalty/domain"
	"bookflower-loyalty/entities"
	"bookflower-loyalty/internal/utils/database"
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type awardKey struct {
	userID  string
	bookRef string
	kind    string
}

type state struct {
	accounts     map[string]entities.PointAccount
	transactions []entities.PointTransaction
	streaks      map[string]entities.StreakRecord
	definitions  map[uuid.UUID]entities.CouponDefinition
	coupons      map[string]entities.IssuedCoupon
	awards       map[awardKey]entities.RewardAward
	events       map[string]entities.ProcessedEvent
}

type Store struct {
	mu     sync.Mutex
	state  state
	faults map[string]error
}

func New() *Store {
	return &Store{
		state: state{
			accounts:    map[string]entities.PointAccount{},
			streaks:     map[string]entities.StreakRecord{},
			definitions: map[uuid.UUID]entities.CouponDefinition{},
			coupons:     map[string]entities.IssuedCoupon{},
			awards:      map[awardKey]entities.RewardAward{},
			events:      map[string]entities.ProcessedEvent{},
		},
		faults: map[string]error{},
	}
}

func (s state) clone() state {
	c := state{
		accounts:     make(map[string]entities.PointAccount, len(s.accounts)),
		transactions: append([]entities.PointTransaction(nil), s.transactions...),
		streaks:      make(map[string]entities.StreakRecord, len(s.streaks)),
		definitions:  make(map[uuid.UUID]entities.CouponDefinition, len(s.definitions)),
		coupons:      make(map[string]entities.IssuedCoupon, len(s.coupons)),
		awards:       make(map[awardKey]entities.RewardAward, len(s.awards)),
		events:       make(map[string]entities.ProcessedEvent, len(s.events)),
	}
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.streaks {
		c.streaks[k] = v
	}
	for k, v := range s.definitions {
		c.definitions[k] = v
	}
	for k, v := range s.coupons {
		c.coupons[k] = v
	}
	for k, v := range s.awards {
		c.awards[k] = v
	}
	for k, v := range s.events {
		c.events[k] = v
	}
	return c
}

// WithinTransaction implements database.Transactor.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if database.InTransaction(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	if err := fn(database.BindTransaction(ctx, s)); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

// acquire locks the store unless ctx already runs inside one of its transactions.
func (s *Store) acquire(ctx context.Context) func() {
	if database.InTransaction(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// FailNext makes the next call to method return err.
func (s *Store) FailNext(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[method] = err
}

func (s *Store) fault(method string) error {
	err, ok := s.faults[method]
	if !ok {
		return nil
	}
	delete(s.faults, method)
	return err
}

// Ledger

func (s *Store) ensureAccount(userID string) entities.PointAccount {
	account, ok := s.state.accounts[userID]
	if !ok {
		account = entities.PointAccount{ID: uuid.New(), UserID: userID}
		s.state.accounts[userID] = account
	}
	return account
}

func (s *Store) GetAccount(ctx context.Context, userID string) (*entities.PointAccount, error) {
	defer s.acquire(ctx)()
	account := s.ensureAccount(userID)
	return &account, nil
}

func (s *Store) LockAccount(ctx context.Context, userID string) (*entities.PointAccount, error) {
	defer s.acquire(ctx)()
	account := s.ensureAccount(userID)
	return &account, nil
}

func (s *Store) SaveAccount(ctx context.Context, account *entities.PointAccount) error {
	defer s.acquire(ctx)()
	if err := s.fault("SaveAccount"); err != nil {
		return err
	}
	if account.AvailablePoints < 0 {
		return errors.New("check constraint: available_points >= 0")
	}
	s.state.accounts[account.UserID] = *account
	return nil
}

func (s *Store) CreateTransaction(ctx context.Context, tx *entities.PointTransaction) error {
	defer s.acquire(ctx)()
	if err := s.fault("CreateTransaction"); err != nil {
		return err
	}
	s.state.transactions = append(s.state.transactions, *tx)
	return nil
}

func (s *Store) GetTransactions(ctx context.Context, userID string, page, limit int) ([]*entities.PointTransaction, int64, error) {
	defer s.acquire(ctx)()

	var matched []*entities.PointTransaction
	for i := len(s.state.transactions) - 1; i >= 0; i-- {
		if tx := s.state.transactions[i]; tx.UserID == userID {
			matched = append(matched, &tx)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return paginate(matched, page, limit), int64(len(matched)), nil
}

func (s *Store) SumTransactions(ctx context.Context, userID string) (int, int, error) {
	defer s.acquire(ctx)()

	earned, used := 0, 0
	for _, tx := range s.state.transactions {
		if tx.UserID != userID {
			continue
		}
		switch tx.Kind {
		case entities.TransactionKindEarn:
			earned += tx.Amount
		case entities.TransactionKindUse:
			used += tx.Amount
		}
	}
	return earned, used, nil
}

// Transactions returns every transaction of userID in insertion order.
func (s *Store) Transactions(userID string) []entities.PointTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []entities.PointTransaction
	for _, tx := range s.state.transactions {
		if tx.UserID == userID {
			result = append(result, tx)
		}
	}
	return result
}

// PutAccount overwrites the stored account, bypassing the ledger.
func (s *Store) PutAccount(account entities.PointAccount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	s.state.accounts[account.UserID] = account
}

// Streaks

func (s *Store) ensureStreak(userID string) entities.StreakRecord {
	record, ok := s.state.streaks[userID]
	if !ok {
		record = entities.StreakRecord{ID: uuid.New(), UserID: userID}
		s.state.streaks[userID] = record
	}
	return record
}

func (s *Store) GetStreak(ctx context.Context, userID string) (*entities.StreakRecord, error) {
	defer s.acquire(ctx)()
	record := s.ensureStreak(userID)
	return &record, nil
}

func (s *Store) LockStreak(ctx context.Context, userID string) (*entities.StreakRecord, error) {
	defer s.acquire(ctx)()
	record := s.ensureStreak(userID)
	return &record, nil
}

func (s *Store) SaveStreak(ctx context.Context, record *entities.StreakRecord) error {
	defer s.acquire(ctx)()
	if err := s.fault("SaveStreak"); err != nil {
		return err
	}
	s.state.streaks[record.UserID] = *record
	return nil
}

// Coupons

func (s *Store) GetDefinitions(ctx context.Context) ([]*entities.CouponDefinition, error) {
	defer s.acquire(ctx)()
	if err := s.fault("GetDefinitions"); err != nil {
		return nil, err
	}

	result := make([]*entities.CouponDefinition, 0, len(s.state.definitions))
	for _, d := range s.state.definitions {
		result = append(result, &d)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].RequiredPoints != result[j].RequiredPoints {
			return result[i].RequiredPoints < result[j].RequiredPoints
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}

func (s *Store) GetDefinitionByID(ctx context.Context, id uuid.UUID) (*entities.CouponDefinition, error) {
	defer s.acquire(ctx)()
	d, ok := s.state.definitions[id]
	if !ok {
		return nil, domain.ErrCouponDefinitionNotFound
	}
	return &d, nil
}

func (s *Store) CreateDefinitionIfNotExists(ctx context.Context, definition *entities.CouponDefinition) (bool, error) {
	defer s.acquire(ctx)()
	for _, d := range s.state.definitions {
		if d.Name == definition.Name {
			return false, nil
		}
	}
	if definition.ID == uuid.Nil {
		definition.ID = uuid.New()
	}
	s.state.definitions[definition.ID] = *definition
	return true, nil
}

func (s *Store) UpdateDefinitionActive(ctx context.Context, id uuid.UUID, active bool) error {
	defer s.acquire(ctx)()
	d, ok := s.state.definitions[id]
	if !ok {
		return domain.ErrCouponDefinitionNotFound
	}
	d.IsActive = active
	s.state.definitions[id] = d
	return nil
}

func (s *Store) CreateIssuedCoupon(ctx context.Context, coupon *entities.IssuedCoupon) error {
	defer s.acquire(ctx)()
	if err := s.fault("CreateIssuedCoupon"); err != nil {
		return err
	}
	if _, ok := s.state.coupons[coupon.Code]; ok {
		return domain.ErrDuplicateCouponCode
	}
	stored := *coupon
	stored.Definition = nil
	s.state.coupons[coupon.Code] = stored
	return nil
}

func (s *Store) withDefinition(coupon entities.IssuedCoupon) *entities.IssuedCoupon {
	if d, ok := s.state.definitions[coupon.DefinitionID]; ok {
		coupon.Definition = &d
	}
	return &coupon
}

func (s *Store) GetIssuedCouponByCode(ctx context.Context, code string) (*entities.IssuedCoupon, error) {
	defer s.acquire(ctx)()
	coupon, ok := s.state.coupons[code]
	if !ok {
		return nil, domain.ErrCouponNotFound
	}
	return s.withDefinition(coupon), nil
}

func (s *Store) LockIssuedCouponByCode(ctx context.Context, code string) (*entities.IssuedCoupon, error) {
	defer s.acquire(ctx)()
	coupon, ok := s.state.coupons[code]
	if !ok {
		return nil, domain.ErrCouponNotFound
	}
	return &coupon, nil
}

func (s *Store) SaveIssuedCoupon(ctx context.Context, coupon *entities.IssuedCoupon) error {
	defer s.acquire(ctx)()
	stored, ok := s.state.coupons[coupon.Code]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Status = coupon.Status
	stored.UsedAt = coupon.UsedAt
	s.state.coupons[coupon.Code] = stored
	return nil
}

func (s *Store) GetUserCoupons(ctx context.Context, userID, status string, page, limit int) ([]*entities.IssuedCoupon, int64, error) {
	defer s.acquire(ctx)()

	var matched []*entities.IssuedCoupon
	for _, coupon := range s.state.coupons {
		if coupon.UserID != userID || (status != "" && coupon.Status != status) {
			continue
		}
		matched = append(matched, s.withDefinition(coupon))
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].IssuedAt.Equal(matched[j].IssuedAt) {
			return matched[i].IssuedAt.After(matched[j].IssuedAt)
		}
		return matched[i].Code < matched[j].Code
	})
	return paginate(matched, page, limit), int64(len(matched)), nil
}

func (s *Store) ExpireOverdueCoupons(ctx context.Context, userID string, now time.Time) (int64, error) {
	defer s.acquire(ctx)()

	var expired int64
	for code, coupon := range s.state.coupons {
		if coupon.UserID == userID && coupon.Status == entities.CouponStatusAvailable && coupon.ExpiresAt.Before(now) {
			coupon.Status = entities.CouponStatusExpired
			s.state.coupons[code] = coupon
			expired++
		}
	}
	return expired, nil
}

// PutCoupon stores coupon as is, bypassing issuance.
func (s *Store) PutCoupon(coupon entities.IssuedCoupon) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if coupon.ID == uuid.Nil {
		coupon.ID = uuid.New()
	}
	coupon.Definition = nil
	s.state.coupons[coupon.Code] = coupon
}

// Coupon returns the stored coupon for code.
func (s *Store) Coupon(code string) (entities.IssuedCoupon, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	coupon, ok := s.state.coupons[code]
	return coupon, ok
}

// Rewards

func (s *Store) LockAward(ctx context.Context, userID, bookRef, kind string) (*entities.RewardAward, error) {
	defer s.acquire(ctx)()

	key := awardKey{userID: userID, bookRef: bookRef, kind: kind}
	award, ok := s.state.awards[key]
	if !ok {
		award = entities.RewardAward{ID: uuid.New(), UserID: userID, BookRef: bookRef, Kind: kind}
		s.state.awards[key] = award
	}
	return &award, nil
}

func (s *Store) SaveAward(ctx context.Context, award *entities.RewardAward) error {
	defer s.acquire(ctx)()
	s.state.awards[awardKey{userID: award.UserID, bookRef: award.BookRef, kind: award.Kind}] = *award
	return nil
}

func (s *Store) MarkEventProcessed(ctx context.Context, event *entities.ProcessedEvent) (bool, error) {
	defer s.acquire(ctx)()
	if _, ok := s.state.events[event.EventID]; ok {
		return false, nil
	}
	s.state.events[event.EventID] = *event
	return true, nil
}

func paginate[T any](items []T, page, limit int) []T {
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := min(start+limit, len(items))
	return items[start:end]
}
