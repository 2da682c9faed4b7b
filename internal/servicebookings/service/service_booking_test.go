package service

import (
	"context"
	bookingserrors "courtbook/internal/bookings/errors"
	"courtbook/internal/calendar"
	sberrors "courtbook/internal/servicebookings/errors"
	"courtbook/internal/servicebookings/validator"
	"courtbook/pkg/config"
	mongodb "courtbook/pkg/db/mongo"
	apperrors "courtbook/pkg/errors"
	"courtbook/pkg/logger"
	"courtbook/pkg/model"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	bookingID   = "507f1f77bcf86cd799439011"
	branchID    = "507f1f77bcf86cd799439012"
	waterID     = "507f1f77bcf86cd799439021"
	racketID    = "507f1f77bcf86cd799439022"
	towelID     = "507f1f77bcf86cd799439023"
	otherBranch = "507f1f77bcf86cd7994390ff"
)

// ────────────────────────────────────────────────
// In-memory stores
// ────────────────────────────────────────────────

// memStore keeps stock and service bookings together so a failed
// transaction can be rolled back as a unit. A non-nil commitErr fails every
// commit after fn has run.
type memStore struct {
	txMu      sync.Mutex
	mu        sync.Mutex
	services  map[string]*model.BranchService
	bookings  []*model.ServiceBooking
	commitErr error
}

func (m *memStore) stockOf(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.services[id].CurrentStock
}

func (m *memStore) FindByID(ctx context.Context, id string) (*model.BranchService, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	svc, ok := m.services[id]
	if !ok {
		return nil, sberrors.ErrServiceNotFound
	}
	cp := *svc
	return &cp, nil
}

func (m *memStore) FindByBranch(ctx context.Context, branchID string) ([]*model.BranchService, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.BranchService
	for _, svc := range m.services {
		if svc.BranchID == branchID {
			cp := *svc
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) DecrementStock(ctx context.Context, id string, quantity int) (*model.BranchService, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	svc := m.services[id]
	if svc.CurrentStock < quantity {
		return nil, sberrors.ErrInsufficientStock
	}
	svc.CurrentStock -= quantity
	cp := *svc
	return &cp, nil
}

type serviceBookingStore struct {
	*memStore
}

func (r serviceBookingStore) Create(ctx context.Context, sb *model.ServiceBooking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sb.ID = fmt.Sprintf("sb-%d", len(r.bookings)+1)
	r.bookings = append(r.bookings, sb)
	return nil
}

func (r serviceBookingStore) FindByID(ctx context.Context, id string) (*model.ServiceBooking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sb := range r.bookings {
		if sb.ID == id {
			return sb, nil
		}
	}
	return nil, sberrors.ErrNotFound
}

func (r serviceBookingStore) FindByCourtBooking(ctx context.Context, courtBookingID string) ([]*model.ServiceBooking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.ServiceBooking
	for _, sb := range r.bookings {
		if sb.CourtBookingID == courtBookingID {
			out = append(out, sb)
		}
	}
	return out, nil
}

// ExecuteTransaction serialises transactions and restores stock and bookings
// when fn fails.
func (r serviceBookingStore) ExecuteTransaction(ctx context.Context, fn mongodb.TransactionFunc) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	r.mu.Lock()
	stock := make(map[string]int, len(r.services))
	for id, svc := range r.services {
		stock[id] = svc.CurrentStock
	}
	n := len(r.bookings)
	r.mu.Unlock()

	err := fn(mongo.NewSessionContext(ctx, nil))
	if err == nil && r.commitErr != nil {
		err = r.commitErr
	}
	if err != nil {
		r.mu.Lock()
		for id, qty := range stock {
			r.services[id].CurrentStock = qty
		}
		r.bookings = r.bookings[:n]
		r.mu.Unlock()
		return err
	}
	return nil
}

type mockCourtBookings struct {
	findFunc func(ctx context.Context, id string) (*model.CourtBooking, error)
}

func (m *mockCourtBookings) FindByID(ctx context.Context, id string) (*model.CourtBooking, error) {
	return m.findFunc(ctx, id)
}

// ────────────────────────────────────────────────
// Fixture
// ────────────────────────────────────────────────

func newTestService(t *testing.T, status model.BookingStatus) (ServiceBookingService, *memStore) {
	t.Helper()

	store := &memStore{services: map[string]*model.BranchService{
		waterID: {
			ID:                waterID,
			BranchID:          branchID,
			Service:           model.Service{Name: "Water", StockType: model.StockPhysical},
			UnitPrice:         decimal.RequireFromString("10000"),
			CurrentStock:      10,
			MinStockThreshold: 5,
			Status:            model.ServiceActive,
		},
		racketID: {
			ID:        racketID,
			BranchID:  branchID,
			Service:   model.Service{Name: "Racket rental", StockType: model.StockUnlimited},
			UnitPrice: decimal.RequireFromString("25000"),
			Status:    model.ServiceActive,
		},
		towelID: {
			ID:           towelID,
			BranchID:     branchID,
			Service:      model.Service{Name: "Towel", StockType: model.StockPhysical},
			UnitPrice:    decimal.RequireFromString("5000"),
			CurrentStock: 1,
			Status:       model.ServiceActive,
		},
	}}

	courtBookings := &mockCourtBookings{findFunc: func(ctx context.Context, id string) (*model.CourtBooking, error) {
		if id != bookingID {
			return nil, bookingserrors.ErrNotFound
		}
		return &model.CourtBooking{ID: bookingID, BranchID: branchID, Status: status}, nil
	}}

	log := logger.New(logger.Config{Level: "error", Output: io.Discard, Service: "test"})
	cfg := &config.Config{WriteTimeout: time.Second, Log: log}
	svc := NewServiceBookingService(
		serviceBookingStore{store},
		store,
		courtBookings,
		validator.NewServiceBookingValidator(log),
		calendar.NewFixedClock(time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)),
		nil,
		cfg,
	)
	return svc, store
}

func attach(items ...model.AttachItem) *model.AttachServicesRequest {
	return &model.AttachServicesRequest{CourtBookingID: bookingID, Items: items}
}

// ────────────────────────────────────────────────
// Tests
// ────────────────────────────────────────────────

func TestAttachServices_Success(t *testing.T) {
	svc, store := newTestService(t, model.Confirmed)

	sb, err := svc.AttachServices(context.Background(), attach(
		model.AttachItem{BranchServiceID: waterID, Quantity: 4},
		model.AttachItem{BranchServiceID: racketID, Quantity: 2},
	))
	if err != nil {
		t.Fatalf("AttachServices: %v", err)
	}

	if !sb.Total.Equal(decimal.RequireFromString("90000")) {
		t.Errorf("Total = %s, want 90000", sb.Total)
	}
	if store.stockOf(waterID) != 6 {
		t.Errorf("water stock = %d, want 6", store.stockOf(waterID))
	}
	if store.stockOf(racketID) != 0 {
		t.Errorf("unlimited stock must not change, got %d", store.stockOf(racketID))
	}
	if len(sb.Warnings) != 0 {
		t.Errorf("unexpected warnings: %+v", sb.Warnings)
	}
}

func TestAttachServices_LowStockWarning(t *testing.T) {
	svc, _ := newTestService(t, model.Confirmed)

	sb, err := svc.AttachServices(context.Background(), attach(model.AttachItem{BranchServiceID: waterID, Quantity: 6}))
	if err != nil {
		t.Fatalf("AttachServices: %v", err)
	}
	if len(sb.Warnings) != 1 || sb.Warnings[0].CurrentStock != 4 || sb.Warnings[0].MinStockThreshold != 5 {
		t.Errorf("unexpected warnings: %+v", sb.Warnings)
	}
}

func TestAttachServices_MergesRepeatedItems(t *testing.T) {
	svc, store := newTestService(t, model.Confirmed)

	sb, err := svc.AttachServices(context.Background(), attach(
		model.AttachItem{BranchServiceID: waterID, Quantity: 2},
		model.AttachItem{BranchServiceID: waterID, Quantity: 3},
	))
	if err != nil {
		t.Fatalf("AttachServices: %v", err)
	}
	if len(sb.Items) != 1 || sb.Items[0].Quantity != 5 {
		t.Errorf("unexpected items: %+v", sb.Items)
	}
	if store.stockOf(waterID) != 5 {
		t.Errorf("water stock = %d, want 5", store.stockOf(waterID))
	}
}

func TestAttachServices_ShortfallAttachesNothing(t *testing.T) {
	svc, store := newTestService(t, model.Confirmed)

	_, err := svc.AttachServices(context.Background(), attach(
		model.AttachItem{BranchServiceID: waterID, Quantity: 3},
		model.AttachItem{BranchServiceID: towelID, Quantity: 2},
	))
	if !apperrors.IsCode(err, apperrors.CodeInsufficientStock) {
		t.Fatalf("expected INSUFFICIENT_STOCK, got: %v", err)
	}

	if store.stockOf(waterID) != 10 || store.stockOf(towelID) != 1 {
		t.Errorf("stock changed: water %d towel %d", store.stockOf(waterID), store.stockOf(towelID))
	}
	list, _ := svc.ListForCourtBooking(context.Background(), bookingID)
	if len(list) != 0 {
		t.Errorf("expected no service bookings, got %d", len(list))
	}
}

func TestAttachServices_CommitDeadlineIsTimeout(t *testing.T) {
	svc, store := newTestService(t, model.Confirmed)
	store.commitErr = fmt.Errorf("transaction failed: %w", context.DeadlineExceeded)

	_, err := svc.AttachServices(context.Background(), attach(model.AttachItem{BranchServiceID: waterID, Quantity: 2}))
	if !apperrors.IsCode(err, apperrors.CodeTimeout) {
		t.Fatalf("expected TIMEOUT, got: %v", err)
	}
	if store.stockOf(waterID) != 10 {
		t.Errorf("water stock = %d, want 10", store.stockOf(waterID))
	}
}

func TestAttachServices_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		status   model.BookingStatus
		req      *model.AttachServicesRequest
		mutate   func(store *memStore)
		wantCode string
	}{
		{
			name:     "cancelled booking",
			status:   model.Cancelled,
			req:      attach(model.AttachItem{BranchServiceID: waterID, Quantity: 1}),
			wantCode: apperrors.CodeInvalidStateTransition,
		},
		{
			name:     "unknown booking",
			status:   model.Confirmed,
			req:      &model.AttachServicesRequest{CourtBookingID: otherBranch, Items: []model.AttachItem{{BranchServiceID: waterID, Quantity: 1}}},
			wantCode: apperrors.CodeValidation,
		},
		{
			name:     "unknown service",
			status:   model.Confirmed,
			req:      attach(model.AttachItem{BranchServiceID: otherBranch, Quantity: 1}),
			wantCode: apperrors.CodeValidation,
		},
		{
			name:     "inactive service",
			status:   model.Confirmed,
			req:      attach(model.AttachItem{BranchServiceID: waterID, Quantity: 1}),
			mutate:   func(store *memStore) { store.services[waterID].Status = model.ServiceInactive },
			wantCode: apperrors.CodeValidation,
		},
		{
			name:     "service from another branch",
			status:   model.Confirmed,
			req:      attach(model.AttachItem{BranchServiceID: waterID, Quantity: 1}),
			mutate:   func(store *memStore) { store.services[waterID].BranchID = otherBranch },
			wantCode: apperrors.CodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestService(t, tt.status)
			if tt.mutate != nil {
				tt.mutate(store)
			}

			_, err := svc.AttachServices(context.Background(), tt.req)
			if !apperrors.IsCode(err, tt.wantCode) {
				t.Fatalf("expected %s, got: %v", tt.wantCode, err)
			}
			if store.stockOf(waterID) != 10 {
				t.Errorf("stock changed to %d", store.stockOf(waterID))
			}
		})
	}
}

func TestAttachServices_ConcurrentStockNeverNegative(t *testing.T) {
	svc, store := newTestService(t, model.Confirmed)

	const workers = 25
	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, short := 0, 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AttachServices(context.Background(), attach(model.AttachItem{BranchServiceID: waterID, Quantity: 1}))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case apperrors.IsCode(err, apperrors.CodeInsufficientStock):
				short++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok != 10 || short != workers-10 {
		t.Errorf("ok=%d short=%d, want 10 and %d", ok, short, workers-10)
	}
	if got := store.stockOf(waterID); got != 0 {
		t.Errorf("final stock = %d, want 0", got)
	}
}

func TestListBranchServices(t *testing.T) {
	svc, _ := newTestService(t, model.Confirmed)

	services, err := svc.ListBranchServices(context.Background(), branchID)
	if err != nil {
		t.Fatalf("ListBranchServices: %v", err)
	}
	if len(services) != 3 {
		t.Errorf("expected 3 services, got %d", len(services))
	}

	_, err = svc.ListBranchServices(context.Background(), "")
	if !apperrors.IsCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got: %v", err)
	}
}

func TestGetServiceBooking_NotFound(t *testing.T) {
	svc, _ := newTestService(t, model.Confirmed)

	_, err := svc.GetServiceBooking(context.Background(), "sb-404")
	if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Errorf("expected NOT_FOUND, got: %v", err)
	}
}
