//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"saju-content-payments/internal/domain"
	"saju-content-payments/internal/domain/model"
	"saju-content-payments/internal/domain/ports/adapter"
	"saju-content-payments/internal/domain/ports/repository"
)

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// =============================
// Repositories
// =============================

// MockPaymentRepo is an in-memory PaymentRepository. The default
// behavior mimics the real repo's conditional status transitions;
// assign the Func fields to override individual methods.
type MockPaymentRepo struct {
	mu      sync.Mutex
	data    map[string]*model.Payment // by id
	byOrder map[string]string         // orderID -> id

	SaveFunc             func(ctx context.Context, tx repository.Tx, p *model.Payment) error
	FindByOrderIDFunc    func(ctx context.Context, tx repository.Tx, orderID string) (*model.Payment, error)
	MarkDoneFunc         func(ctx context.Context, tx repository.Tx, id, paymentKey, method string, approvedAt time.Time) (bool, error)
	MarkFailedFunc       func(ctx context.Context, tx repository.Tx, id, code, message string) (bool, error)
	MarkCanceledFunc     func(ctx context.Context, tx repository.Tx, id string, canceledAt time.Time, reason string) (bool, error)
	AttachPaymentKeyFunc func(ctx context.Context, tx repository.Tx, id, paymentKey string) error
}

var _ repository.PaymentRepository = (*MockPaymentRepo)(nil)

func NewMockPaymentRepo() *MockPaymentRepo {
	return &MockPaymentRepo{data: map[string]*model.Payment{}, byOrder: map[string]string{}}
}

func (r *MockPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, p)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.data[p.ID] = &cp
	r.byOrder[p.OrderID] = p.ID
	return nil
}

func (r *MockPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *MockPaymentRepo) FindByOrderID(ctx context.Context, tx repository.Tx, orderID string) (*model.Payment, error) {
	if r.FindByOrderIDFunc != nil {
		return r.FindByOrderIDFunc(ctx, tx, orderID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byOrder[orderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r.data[id]
	return &cp, nil
}

func (r *MockPaymentRepo) MarkDone(ctx context.Context, tx repository.Tx, id, paymentKey, method string, approvedAt time.Time) (bool, error) {
	if r.MarkDoneFunc != nil {
		return r.MarkDoneFunc(ctx, tx, id, paymentKey, method, approvedAt)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[id]
	if !ok || p.Status != model.PaymentStatusReady {
		return false, nil
	}
	p.Status = model.PaymentStatusDone
	p.PaymentKey = paymentKey
	p.Method = method
	at := approvedAt
	p.ApprovedAt = &at
	p.UpdatedAt = time.Now()
	return true, nil
}

func (r *MockPaymentRepo) MarkFailed(ctx context.Context, tx repository.Tx, id, code, message string) (bool, error) {
	if r.MarkFailedFunc != nil {
		return r.MarkFailedFunc(ctx, tx, id, code, message)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[id]
	if !ok || p.Status != model.PaymentStatusReady {
		return false, nil
	}
	p.Status = model.PaymentStatusFailed
	p.FailureCode = &code
	p.FailureMsg = &message
	p.UpdatedAt = time.Now()
	return true, nil
}

func (r *MockPaymentRepo) MarkCanceled(ctx context.Context, tx repository.Tx, id string, canceledAt time.Time, reason string) (bool, error) {
	if r.MarkCanceledFunc != nil {
		return r.MarkCanceledFunc(ctx, tx, id, canceledAt, reason)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[id]
	if !ok || p.Status != model.PaymentStatusDone {
		return false, nil
	}
	p.Status = model.PaymentStatusCanceled
	at := canceledAt
	p.CanceledAt = &at
	p.UpdatedAt = time.Now()
	return true, nil
}

func (r *MockPaymentRepo) AttachPaymentKey(ctx context.Context, tx repository.Tx, id, paymentKey string) error {
	if r.AttachPaymentKeyFunc != nil {
		return r.AttachPaymentKeyFunc(ctx, tx, id, paymentKey)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[id]
	if !ok || p.Status != model.PaymentStatusReady {
		return nil
	}
	p.PaymentKey = paymentKey
	p.UpdatedAt = time.Now()
	return nil
}

func (r *MockPaymentRepo) AttachDepositInfo(ctx context.Context, tx repository.Tx, id string, info map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[id]
	if !ok {
		return domain.ErrNotFound
	}
	if p.Meta == nil {
		p.Meta = map[string]interface{}{}
	}
	for k, v := range info {
		p.Meta[k] = v
	}
	return nil
}

func (r *MockPaymentRepo) ListReadyWithKeyOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Payment
	for _, p := range r.data {
		if p.Status == model.PaymentStatusReady && p.PaymentKey != "" && p.CreatedAt.Before(olderThan) {
			cp := *p
			out = append(out, &cp)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (r *MockPaymentRepo) SumByPeriod(ctx context.Context, tx repository.Tx, period string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum int64
	for _, p := range r.data {
		if p.Status == model.PaymentStatusDone {
			sum += p.Amount
		}
	}
	return sum, nil
}

// MockPurchaseRepo is an in-memory PurchaseRepository enforcing the
// same (user_id, payment_id) uniqueness the real table does.
type MockPurchaseRepo struct {
	mu   sync.Mutex
	data map[string]*model.Purchase // by id

	InsertFunc              func(ctx context.Context, tx repository.Tx, pu *model.Purchase) (string, bool, error)
	DeactivateByPaymentFunc func(ctx context.Context, tx repository.Tx, paymentID, reason string) (int64, error)
	DeactivateExpiredFunc   func(ctx context.Context, tx repository.Tx) (int64, error)
}

var _ repository.PurchaseRepository = (*MockPurchaseRepo)(nil)

func NewMockPurchaseRepo() *MockPurchaseRepo {
	return &MockPurchaseRepo{data: map[string]*model.Purchase{}}
}

func (r *MockPurchaseRepo) Insert(ctx context.Context, tx repository.Tx, pu *model.Purchase) (string, bool, error) {
	if r.InsertFunc != nil {
		return r.InsertFunc(ctx, tx, pu)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.data {
		if existing.UserID == pu.UserID && existing.PaymentID == pu.PaymentID {
			return existing.ID, false, nil
		}
	}
	cp := *pu
	r.data[pu.ID] = &cp
	return pu.ID, true, nil
}

func (r *MockPurchaseRepo) FindByUserAndPayment(ctx context.Context, tx repository.Tx, userID, paymentID string) (*model.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, pu := range r.data {
		if pu.UserID == userID && pu.PaymentID == paymentID {
			cp := *pu
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MockPurchaseRepo) FindActiveByContent(ctx context.Context, tx repository.Tx, userID, contentSlug string) (*model.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var newest *model.Purchase
	for _, pu := range r.data {
		if pu.UserID == userID && pu.ContentSlug == contentSlug && pu.IsActive {
			if newest == nil || pu.AccessGranted.After(newest.AccessGranted) {
				newest = pu
			}
		}
	}
	if newest == nil {
		return nil, domain.ErrNotFound
	}
	cp := *newest
	return &cp, nil
}

func (r *MockPurchaseRepo) DeactivateByPayment(ctx context.Context, tx repository.Tx, paymentID, reason string) (int64, error) {
	if r.DeactivateByPaymentFunc != nil {
		return r.DeactivateByPaymentFunc(ctx, tx, paymentID, reason)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, pu := range r.data {
		if pu.PaymentID == paymentID && pu.IsActive {
			pu.IsActive = false
			n++
		}
	}
	return n, nil
}

func (r *MockPurchaseRepo) DeactivateExpired(ctx context.Context, tx repository.Tx) (int64, error) {
	if r.DeactivateExpiredFunc != nil {
		return r.DeactivateExpiredFunc(ctx, tx)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	var n int64
	for _, pu := range r.data {
		if pu.IsActive && pu.AccessExpires != nil && pu.AccessExpires.Before(now) {
			pu.IsActive = false
			n++
		}
	}
	return n, nil
}

func (r *MockPurchaseRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Purchase
	for _, pu := range r.data {
		if pu.UserID == userID {
			cp := *pu
			out = append(out, &cp)
		}
	}
	return out, nil
}

// MockProductRepo is an in-memory ProductRepository.
type MockProductRepo struct {
	mu   sync.Mutex
	data map[string]*model.Product // by id
}

var _ repository.ProductRepository = (*MockProductRepo)(nil)

func NewMockProductRepo() *MockProductRepo {
	return &MockProductRepo{data: map[string]*model.Product{}}
}

func (r *MockProductRepo) Save(ctx context.Context, tx repository.Tx, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.data[p.ID] = &cp
	return nil
}

func (r *MockProductRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *MockProductRepo) FindBySlug(ctx context.Context, tx repository.Tx, slug string) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.data {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MockProductRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Product
	for _, p := range r.data {
		if p.Active {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

// MockNotificationLogRepo records notifications with the same
// (payment, kind) dedup the real table enforces.
type MockNotificationLogRepo struct {
	mu   sync.Mutex
	Sent map[string]string // "paymentID/kind" -> message
}

var _ repository.NotificationLogRepository = (*MockNotificationLogRepo)(nil)

func NewMockNotificationLogRepo() *MockNotificationLogRepo {
	return &MockNotificationLogRepo{Sent: map[string]string{}}
}

func (r *MockNotificationLogRepo) Save(ctx context.Context, tx repository.Tx, paymentID, userID, kind, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := paymentID + "/" + kind
	if _, ok := r.Sent[key]; ok {
		return nil
	}
	r.Sent[key] = message
	return nil
}

func (r *MockNotificationLogRepo) Exists(ctx context.Context, tx repository.Tx, paymentID, kind string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.Sent[paymentID+"/"+kind]
	return ok, nil
}

// =============================
// Adapters
// =============================

// MockPaymentGateway approves everything unless a Func field is set.
type MockPaymentGateway struct {
	ConfirmCalls int

	ConfirmFunc      func(ctx context.Context, paymentKey, orderID string, amount int64) (*adapter.ConfirmResult, error)
	CancelFunc       func(ctx context.Context, paymentKey, reason string) (*adapter.ConfirmResult, error)
	GetByOrderIDFunc func(ctx context.Context, orderID string) (*adapter.ConfirmResult, error)
}

var _ adapter.PaymentGateway = (*MockPaymentGateway)(nil)

func (g *MockPaymentGateway) Name() string { return "mock" }

func (g *MockPaymentGateway) Confirm(ctx context.Context, paymentKey, orderID string, amount int64) (*adapter.ConfirmResult, error) {
	g.ConfirmCalls++
	if g.ConfirmFunc != nil {
		return g.ConfirmFunc(ctx, paymentKey, orderID, amount)
	}
	now := time.Now()
	return &adapter.ConfirmResult{
		PaymentKey: paymentKey,
		OrderID:    orderID,
		Status:     "DONE",
		Method:     "MOCK",
		Amount:     amount,
		ApprovedAt: &now,
	}, nil
}

func (g *MockPaymentGateway) Cancel(ctx context.Context, paymentKey, reason string) (*adapter.ConfirmResult, error) {
	if g.CancelFunc != nil {
		return g.CancelFunc(ctx, paymentKey, reason)
	}
	return &adapter.ConfirmResult{PaymentKey: paymentKey, Status: "CANCELED"}, nil
}

func (g *MockPaymentGateway) GetByOrderID(ctx context.Context, orderID string) (*adapter.ConfirmResult, error) {
	if g.GetByOrderIDFunc != nil {
		return g.GetByOrderIDFunc(ctx, orderID)
	}
	return nil, domain.ErrNotFound
}

// MockTxManager runs the function immediately with NoTX; assign
// WithTxFunc to exercise rollback paths.
type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func NewMockTxManager() *MockTxManager { return &MockTxManager{} }

func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}
