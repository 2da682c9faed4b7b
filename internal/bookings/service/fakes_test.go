package service

import (
	"context"
	"courtbook/internal/availability"
	bookingserrors "courtbook/internal/bookings/errors"
	"courtbook/internal/bookings/repository"
	"courtbook/internal/bookings/validator"
	"courtbook/internal/calendar"
	catalogservice "courtbook/internal/catalog/service"
	"courtbook/internal/events"
	"courtbook/internal/pricing"
	"courtbook/pkg/config"
	mongodb "courtbook/pkg/db/mongo"
	apperrors "courtbook/pkg/errors"
	"courtbook/pkg/logger"
	"courtbook/pkg/model"
	"fmt"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	testCourtID    = "507f1f77bcf86cd799439011"
	testBranchID   = "507f1f77bcf86cd799439012"
	testTypeID     = "507f1f77bcf86cd799439013"
	testCustomerID = "cust-1"
)

var loc = time.FixedZone("ICT", 7*3600)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func at(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, loc)
}

// ────────────────────────────────────────────────
// In-memory booking repository
// ────────────────────────────────────────────────

// memBookingRepository writes straight through; writes on an expired context
// fail the way a driver call would. beforeInsert and txErr are set before a
// test starts issuing requests.
type memBookingRepository struct {
	mu           sync.Mutex
	seq          int
	bookings     map[string]*model.CourtBooking
	guards       map[string]int
	beforeInsert func(ctx context.Context) error
	txErr        error
}

func newMemBookingRepository() *memBookingRepository {
	return &memBookingRepository{
		bookings: map[string]*model.CourtBooking{},
		guards:   map[string]int{},
	}
}

func clone(b *model.CourtBooking) *model.CourtBooking {
	cp := *b
	cp.Slots = append([]model.BookingSlot(nil), b.Slots...)
	return &cp
}

func (m *memBookingRepository) seed(b *model.CourtBooking) *model.CourtBooking {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	b.ID = fmt.Sprintf("%024x", m.seq)
	b.LinkSlots()
	m.bookings[b.ID] = clone(b)
	return b
}

func (m *memBookingRepository) status(id string) model.BookingStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bookings[id].Status
}

func (m *memBookingRepository) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bookings)
}

func (m *memBookingRepository) CreateMany(ctx context.Context, bookings []*model.CourtBooking) error {
	if m.beforeInsert != nil {
		if err := m.beforeInsert(ctx); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range bookings {
		m.seq++
		b.ID = fmt.Sprintf("%024x", m.seq)
		b.LinkSlots()
		m.bookings[b.ID] = clone(b)
	}
	return nil
}

func (m *memBookingRepository) FindByID(ctx context.Context, id string) (*model.CourtBooking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	return clone(b), nil
}

func (m *memBookingRepository) findActive(match func(b *model.CourtBooking) bool, date time.Time) []*model.CourtBooking {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.CourtBooking
	for _, b := range m.bookings {
		if match(b) && b.Status.IsActive() && calendar.SameDay(date, b.BookingDate) {
			out = append(out, clone(b))
		}
	}
	return out
}

func (m *memBookingRepository) FindActiveByCourtAndDate(ctx context.Context, courtID string, date time.Time) ([]*model.CourtBooking, error) {
	return m.findActive(func(b *model.CourtBooking) bool { return b.CourtID == courtID }, date), nil
}

func (m *memBookingRepository) FindActiveByCustomerAndDate(ctx context.Context, customerID string, date time.Time) ([]*model.CourtBooking, error) {
	return m.findActive(func(b *model.CourtBooking) bool { return b.CustomerID == customerID }, date), nil
}

func (m *memBookingRepository) matching(f model.BookingFilter) []*model.CourtBooking {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.CourtBooking
	for _, b := range m.bookings {
		if f.BranchID != "" && b.BranchID != f.BranchID {
			continue
		}
		if f.CustomerID != "" && b.CustomerID != f.CustomerID {
			continue
		}
		if f.Status != nil && b.Status != *f.Status {
			continue
		}
		out = append(out, clone(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

func (m *memBookingRepository) Search(ctx context.Context, f model.BookingFilter, limit int, offset int64) ([]*model.CourtBooking, error) {
	return m.matching(f), nil
}

func (m *memBookingRepository) Count(ctx context.Context, f model.BookingFilter) (int64, error) {
	return int64(len(m.matching(f))), nil
}

func (m *memBookingRepository) UpdateSchedule(ctx context.Context, booking *model.CourtBooking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.bookings[booking.ID]
	if !ok || !cur.Status.IsActive() {
		return bookingserrors.ErrStatusChanged
	}
	m.bookings[booking.ID] = clone(booking)
	return nil
}

func (m *memBookingRepository) TransitionStatus(ctx context.Context, id string, from []model.BookingStatus, to model.BookingStatus, when time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.bookings[id]
	if !ok {
		return bookingserrors.ErrStatusChanged
	}
	for _, s := range from {
		if cur.Status == s {
			cur.Status = to
			cur.StatusChangedAt = &when
			return nil
		}
	}
	return bookingserrors.ErrStatusChanged
}

func (m *memBookingRepository) FindEndedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*model.CourtBooking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.CourtBooking
	for _, b := range m.bookings {
		if b.Status == model.Confirmed && !b.EndTime.After(cutoff) {
			out = append(out, clone(b))
		}
	}
	return out, nil
}

func (m *memBookingRepository) GuardSlots(ctx context.Context, keys []string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		m.guards[k]++
	}
	return nil
}

func (m *memBookingRepository) guardCount(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.guards[key]
}

func (m *memBookingRepository) ExecuteTransaction(ctx context.Context, fn mongodb.TransactionFunc) error {
	if m.txErr != nil {
		return m.txErr
	}
	return fn(mongo.NewSessionContext(ctx, nil))
}

// ────────────────────────────────────────────────
// Locks, invoices, catalog, events
// ────────────────────────────────────────────────

type memLockRepository struct {
	mu    sync.Mutex
	held  map[string]string
	taken int
}

func newMemLockRepository() *memLockRepository {
	return &memLockRepository{held: map[string]string{}}
}

func (m *memLockRepository) Acquire(ctx context.Context, key, token string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.held[key]; ok {
		return bookingserrors.ErrLockHeld
	}
	m.held[key] = token
	m.taken++
	return nil
}

func (m *memLockRepository) Release(ctx context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[key] == token {
		delete(m.held, key)
	}
	return nil
}

func (m *memLockRepository) outstanding() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.held)
}

// expiringLockRepository lets a lock lapse by wall clock, the way the Mongo
// and Redis backends do.
type expiringLockRepository struct {
	mu   sync.Mutex
	held map[string]expiringLock
}

type expiringLock struct {
	token   string
	expires time.Time
}

func newExpiringLockRepository() *expiringLockRepository {
	return &expiringLockRepository{held: map[string]expiringLock{}}
}

func (m *expiringLockRepository) Acquire(ctx context.Context, key, token string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	if l, ok := m.held[key]; ok && now.Before(l.expires) {
		return bookingserrors.ErrLockHeld
	}
	m.held[key] = expiringLock{token: token, expires: now.Add(ttl)}
	return nil
}

func (m *expiringLockRepository) Release(ctx context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[key].token == token {
		delete(m.held, key)
	}
	return nil
}

type memInvoiceRepository struct {
	mu       sync.Mutex
	invoices []*model.Invoice
}

func (m *memInvoiceRepository) Create(ctx context.Context, invoice *model.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	invoice.ID = fmt.Sprintf("inv-%d", len(m.invoices)+1)
	m.invoices = append(m.invoices, invoice)
	return nil
}

func (m *memInvoiceRepository) FindByCourtBooking(ctx context.Context, id string) ([]*model.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Invoice
	for _, inv := range m.invoices {
		if inv.CourtBookingID == id {
			out = append(out, inv)
		}
	}
	return out, nil
}

type mockServiceLines struct {
	findFunc func(ctx context.Context, courtBookingID string) ([]*model.ServiceBooking, error)
}

func (m *mockServiceLines) FindByCourtBooking(ctx context.Context, courtBookingID string) ([]*model.ServiceBooking, error) {
	if m.findFunc != nil {
		return m.findFunc(ctx, courtBookingID)
	}
	return nil, nil
}

type fakeCatalog struct {
	mu        sync.Mutex
	courts    map[string]*model.Court
	courtType *model.CourtType
	branch    *model.Branch
	customers map[string]*model.Customer
	awarded   map[string]int64
}

func (f *fakeCatalog) ResolveCourt(ctx context.Context, courtID, branchID string) (*catalogservice.CourtInfo, error) {
	court, ok := f.courts[courtID]
	if !ok {
		return nil, apperrors.UnknownReference("court", courtID)
	}
	if branchID != "" && branchID != court.BranchID {
		return nil, apperrors.Validation("court does not belong to branch", nil)
	}
	return &catalogservice.CourtInfo{Court: court, Type: f.courtType, Branch: f.branch}, nil
}

func (f *fakeCatalog) ResolveCustomer(ctx context.Context, ref model.CustomerRef) (*model.Customer, error) {
	if c, ok := f.customers[ref.ID]; ok {
		return c, nil
	}
	return nil, apperrors.UnknownReference("customer", ref.ID)
}

func (f *fakeCatalog) AwardPoints(ctx context.Context, customerID string, points int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.awarded[customerID] += points
	return nil
}

func (f *fakeCatalog) GetCourt(ctx context.Context, id string) (*model.Court, error) {
	if c, ok := f.courts[id]; ok {
		return c, nil
	}
	return nil, apperrors.NotFoundWithID("Court", id)
}

func (f *fakeCatalog) ListCourts(ctx context.Context, branchID string) ([]*model.Court, error) {
	var out []*model.Court
	for _, c := range f.courts {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeCatalog) GetBranch(ctx context.Context, id string) (*model.Branch, error) {
	if id != f.branch.ID {
		return nil, apperrors.NotFoundWithID("Branch", id)
	}
	return f.branch, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, evts ...events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evts...)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// ────────────────────────────────────────────────
// Fixture
// ────────────────────────────────────────────────

type fixture struct {
	svc       BookingService
	repo      *memBookingRepository
	locks     *memLockRepository
	invoices  *memInvoiceRepository
	services  *mockServiceLines
	catalog   *fakeCatalog
	clock     *calendar.FixedClock
	publisher *recordingPublisher
	cfg       *config.Config
	deps      Dependencies
}

func branchConfig() model.BranchConfig {
	return model.BranchConfig{
		LateTimeLimitMinutes: 15,
		CancelFeeBefore24h:   dec("10"),
		CancelFeeWithin24h:   dec("50"),
		NoShowFee:            dec("50000"),
		NightCharge:          dec("10000"),
		HolidayCharge:        dec("20000"),
		WeekendCharge:        dec("15000"),
		LoyaltyPointRate:     dec("1"),
	}
}

func newFixture(t *testing.T, mutate ...func(cfg *config.Config, bc *model.BranchConfig)) *fixture {
	t.Helper()

	log := logger.New(logger.Config{Level: "error", Output: io.Discard, Service: "test"})
	cfg := &config.Config{
		Location:           loc,
		WriteTimeout:       time.Second,
		ReadTimeout:        time.Second,
		MonthlyPricingMode: config.MonthlyPricingPerOccurrence,
		LockTTL:            time.Second,
		LockRetries:        3,
		LockRetryDelay:     time.Millisecond,
		Log:                log,
	}
	bc := branchConfig()
	for _, m := range mutate {
		m(cfg, &bc)
	}

	grid, err := calendar.NewGrid("05:00", "23:00")
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	night, err := calendar.NewNightWindow("18:00", "06:00")
	if err != nil {
		t.Fatalf("NewNightWindow: %v", err)
	}
	holidays, err := calendar.NewStaticHolidays([]string{"2025-01-29"})
	if err != nil {
		t.Fatalf("NewStaticHolidays: %v", err)
	}

	f := &fixture{
		repo:      newMemBookingRepository(),
		locks:     newMemLockRepository(),
		invoices:  &memInvoiceRepository{},
		services:  &mockServiceLines{},
		clock:     calendar.NewFixedClock(at(2025, 1, 1, 8, 0)),
		publisher: &recordingPublisher{},
		cfg:       cfg,
		catalog: &fakeCatalog{
			courts: map[string]*model.Court{
				testCourtID: {
					ID:              testCourtID,
					BranchID:        testBranchID,
					CourtTypeID:     testTypeID,
					Name:            "Court 1",
					BaseHourlyPrice: dec("100000"),
					Status:          model.CourtActive,
				},
			},
			courtType: &model.CourtType{ID: testTypeID, Name: "Badminton", RentDurationMinutes: 60},
			branch:    &model.Branch{ID: testBranchID, Name: "Central", Config: bc},
			customers: map[string]*model.Customer{
				testCustomerID: {ID: testCustomerID, FullName: "Nguyen Van A"},
			},
			awarded: map[string]int64{},
		},
	}

	f.deps = Dependencies{
		Repo:      f.repo,
		Locks:     f.locks,
		Invoices:  f.invoices,
		Services:  f.services,
		Catalog:   f.catalog,
		Checker:   availability.NewChecker(grid, f.repo),
		Pricing:   pricing.NewEngine(night, 0),
		Days:      calendar.NewClassifier([]time.Weekday{time.Saturday, time.Sunday}, holidays),
		Clock:     f.clock,
		Publisher: f.publisher,
		Validator: validator.NewBookingValidator(log),
		Config:    cfg,
	}
	f.svc = NewBookingService(f.deps)
	return f
}

// useLocks rebuilds the service on another lock backend.
func (f *fixture) useLocks(locks repository.LockRepository) {
	f.deps.Locks = locks
	f.svc = NewBookingService(f.deps)
}

func createRequest(date string, slots ...string) *model.CreateBookingRequest {
	req := &model.CreateBookingRequest{
		Customer: model.CustomerByID(testCustomerID),
		CourtID:  testCourtID,
		BranchID: testBranchID,
		Date:     date,
	}
	for i := 0; i+1 < len(slots); i += 2 {
		req.Slots = append(req.Slots, model.SlotInput{Start: slots[i], End: slots[i+1]})
	}
	return req
}

// seedBooking stores a confirmed one-slot booking directly in the repository.
func (f *fixture) seedBooking(courtID string, start time.Time, minutes int, grand string) *model.CourtBooking {
	b := &model.CourtBooking{
		CourtID:     courtID,
		BranchID:    testBranchID,
		CustomerID:  testCustomerID,
		BookingDate: calendar.Midnight(start),
		Type:        model.BookingTypeSingle,
		Status:      model.Confirmed,
		Price:       model.PriceBreakdown{GrandTotal: dec(grand)},
		CourtName:   "Court 1",
	}
	b.SetSlots([]model.BookingSlot{{Start: start, End: start.Add(time.Duration(minutes) * time.Minute)}})
	return f.repo.seed(b)
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	if !apperrors.IsCode(err, code) {
		t.Fatalf("expected %s error, got: %v", code, err)
	}
}
