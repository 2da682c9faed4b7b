package service

import (
	"context"
	catalogerrors "courtbook/internal/catalog/errors"
	apperrors "courtbook/pkg/errors"
	"courtbook/pkg/logger"
	"courtbook/pkg/model"
	"io"
	"testing"
)

// ────────────────────────────────────────────────
// Mock repositories
// ────────────────────────────────────────────────

type mockCourtRepository struct {
	courts map[string]*model.Court
	types  map[string]*model.CourtType
}

func (m *mockCourtRepository) FindByID(ctx context.Context, id string) (*model.Court, error) {
	if c, ok := m.courts[id]; ok {
		return c, nil
	}
	return nil, catalogerrors.ErrNotFound
}

func (m *mockCourtRepository) FindByBranch(ctx context.Context, branchID string) ([]*model.Court, error) {
	var out []*model.Court
	for _, c := range m.courts {
		if c.BranchID == branchID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockCourtRepository) FindType(ctx context.Context, id string) (*model.CourtType, error) {
	if ct, ok := m.types[id]; ok {
		return ct, nil
	}
	return nil, catalogerrors.ErrNotFound
}

type mockBranchRepository struct {
	branches map[string]*model.Branch
}

func (m *mockBranchRepository) FindByID(ctx context.Context, id string) (*model.Branch, error) {
	if b, ok := m.branches[id]; ok {
		return b, nil
	}
	return nil, catalogerrors.ErrNotFound
}

type mockCustomerRepository struct {
	findByIDFunc      func(ctx context.Context, id string) (*model.Customer, error)
	findByAccountFunc func(ctx context.Context, accountID string) ([]*model.Customer, error)
	awarded           map[string]int64
}

func (m *mockCustomerRepository) FindByID(ctx context.Context, id string) (*model.Customer, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, catalogerrors.ErrNotFound
}

func (m *mockCustomerRepository) FindByAccountID(ctx context.Context, accountID string) ([]*model.Customer, error) {
	if m.findByAccountFunc != nil {
		return m.findByAccountFunc(ctx, accountID)
	}
	return nil, nil
}

func (m *mockCustomerRepository) AddBonusPoints(ctx context.Context, id string, points int64) error {
	if m.awarded == nil {
		m.awarded = map[string]int64{}
	}
	m.awarded[id] += points
	return nil
}

func newTestService(customers *mockCustomerRepository) CatalogService {
	courts := &mockCourtRepository{
		courts: map[string]*model.Court{
			"c1": {ID: "c1", BranchID: "b1", CourtTypeID: "t60", Status: model.CourtActive},
			"c2": {ID: "c2", BranchID: "b1", CourtTypeID: "broken", Status: model.CourtActive},
			"c3": {ID: "c3", BranchID: "b1", CourtTypeID: "t0", Status: model.CourtActive},
		},
		types: map[string]*model.CourtType{
			"t60": {ID: "t60", Name: "Badminton", RentDurationMinutes: 60},
			"t0":  {ID: "t0", Name: "Unset"},
		},
	}
	branches := &mockBranchRepository{branches: map[string]*model.Branch{"b1": {ID: "b1", Name: "Central"}}}
	if customers == nil {
		customers = &mockCustomerRepository{}
	}
	log := logger.New(logger.Config{Level: "error", Output: io.Discard, Service: "test"})
	return NewCatalogService(courts, branches, customers, log)
}

// ────────────────────────────────────────────────
// Tests for ResolveCourt()
// ────────────────────────────────────────────────

func TestResolveCourt(t *testing.T) {
	tests := []struct {
		name     string
		courtID  string
		branchID string
		wantCode string
	}{
		{"resolves with branch", "c1", "b1", ""},
		{"resolves without branch", "c1", "", ""},
		{"unknown court", "missing", "b1", apperrors.CodeValidation},
		{"wrong branch", "c1", "b2", apperrors.CodeValidation},
		{"unknown court type", "c2", "b1", apperrors.CodeValidation},
		{"court type without grid", "c3", "b1", apperrors.CodeValidation},
	}

	svc := newTestService(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := svc.ResolveCourt(context.Background(), tt.courtID, tt.branchID)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if info.Court.ID != tt.courtID || info.Type.RentDurationMinutes != 60 || info.Branch.ID != "b1" {
					t.Errorf("unexpected court info: %+v", info)
				}
				return
			}
			if !apperrors.IsCode(err, tt.wantCode) {
				t.Errorf("expected %s, got %v", tt.wantCode, err)
			}
		})
	}
}

// ────────────────────────────────────────────────
// Tests for ResolveCustomer()
// ────────────────────────────────────────────────

func TestResolveCustomer(t *testing.T) {
	alice := &model.Customer{ID: "cust-1", AccountID: "acc-1", FullName: "Alice"}
	customers := &mockCustomerRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Customer, error) {
			switch id {
			case "cust-1":
				return alice, nil
			case "bad":
				return nil, catalogerrors.ErrInvalidID
			}
			return nil, catalogerrors.ErrNotFound
		},
		findByAccountFunc: func(ctx context.Context, accountID string) ([]*model.Customer, error) {
			switch accountID {
			case "acc-1":
				return []*model.Customer{alice}, nil
			case "acc-shared":
				return []*model.Customer{alice, {ID: "cust-2"}}, nil
			case "acc-slow":
				return nil, context.DeadlineExceeded
			}
			return nil, nil
		},
	}
	svc := newTestService(customers)

	tests := []struct {
		name     string
		ref      model.CustomerRef
		wantID   string
		wantCode string
	}{
		{"by customer id", model.CustomerByID("cust-1"), "cust-1", ""},
		{"by account id", model.CustomerByAccount("acc-1"), "cust-1", ""},
		{"unknown customer", model.CustomerByID("cust-9"), "", apperrors.CodeValidation},
		{"malformed customer id", model.CustomerByID("bad"), "", apperrors.CodeValidation},
		{"unknown account", model.CustomerByAccount("acc-9"), "", apperrors.CodeValidation},
		{"ambiguous account", model.CustomerByAccount("acc-shared"), "", apperrors.CodeValidation},
		{"lookup timeout", model.CustomerByAccount("acc-slow"), "", apperrors.CodeTimeout},
		{"unknown kind", model.CustomerRef{Kind: "phone", ID: "x"}, "", apperrors.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ResolveCustomer(context.Background(), tt.ref)
			if tt.wantCode != "" {
				if !apperrors.IsCode(err, tt.wantCode) {
					t.Errorf("expected %s, got %v", tt.wantCode, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.ID != tt.wantID {
				t.Errorf("customer = %s, want %s", got.ID, tt.wantID)
			}
		})
	}
}

func TestAwardPoints(t *testing.T) {
	customers := &mockCustomerRepository{}
	svc := newTestService(customers)

	if err := svc.AwardPoints(context.Background(), "cust-1", 1300); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.AwardPoints(context.Background(), "cust-1", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if customers.awarded["cust-1"] != 1300 {
		t.Errorf("awarded = %d, want 1300", customers.awarded["cust-1"])
	}
}

func TestGetCourt_ReadPathErrors(t *testing.T) {
	svc := newTestService(nil)

	if _, err := svc.GetCourt(context.Background(), "missing"); !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
	if _, err := svc.GetCourt(context.Background(), ""); !apperrors.IsCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
	courts, err := svc.ListCourts(context.Background(), "b1")
	if err != nil || len(courts) != 3 {
		t.Errorf("ListCourts = %d, %v; want 3 courts", len(courts), err)
	}
}
