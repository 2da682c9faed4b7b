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
	apperrors "courtbook/pkg/errors"
	"courtbook/pkg/middleware"
	"courtbook/pkg/model"
	"courtbook/pkg/sanitizer"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/mongo"
)

type BookingService interface {
	CreateBooking(ctx context.Context, req *model.CreateBookingRequest) ([]*model.CourtBooking, error)
	UpdateBooking(ctx context.Context, id string, req *model.UpdateBookingRequest) (*model.CourtBooking, error)
	CheckAvailability(ctx context.Context, req *model.AvailabilityRequest) (*model.AvailabilityResult, error)
	CalculatePrice(ctx context.Context, req *model.QuoteRequest) (*model.PriceQuote, error)
	CourtDaySchedule(ctx context.Context, courtID, date string) ([]model.GridSlot, error)
	GetBooking(ctx context.Context, id string) (*model.CourtBooking, error)
	ListBranchBookings(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.CourtBooking, int64, error)
	ListCustomerBookings(ctx context.Context, customerID, branchID string) ([]*model.CourtBooking, error)

	CancelBooking(ctx context.Context, id string, req *model.CancelRequest) (*model.Invoice, error)
	CompleteBooking(ctx context.Context, id string, req *model.SettleRequest) (*model.Invoice, error)
	MarkNoShow(ctx context.Context, id string, req *model.SettleRequest) (*model.Invoice, error)
	CompleteElapsed(ctx context.Context, limit int) (int, error)
}

// ServiceLineSource lists the services attached to a court booking so they
// can be billed when it completes.
type ServiceLineSource interface {
	FindByCourtBooking(ctx context.Context, courtBookingID string) ([]*model.ServiceBooking, error)
}

type Dependencies struct {
	Repo      repository.BookingRepository
	Locks     repository.LockRepository
	Invoices  repository.InvoiceRepository
	Services  ServiceLineSource
	Catalog   catalogservice.CatalogService
	Checker   *availability.Checker
	Pricing   *pricing.Engine
	Days      *calendar.Classifier
	Clock     calendar.Clock
	Publisher events.Publisher
	Validator *validator.BookingValidator
	Config    *config.Config
}

type bookingService struct {
	repo      repository.BookingRepository
	locks     repository.LockRepository
	invoices  repository.InvoiceRepository
	services  ServiceLineSource
	catalog   catalogservice.CatalogService
	checker   *availability.Checker
	pricing   *pricing.Engine
	days      *calendar.Classifier
	clock     calendar.Clock
	publisher events.Publisher
	validator *validator.BookingValidator
	cfg       *config.Config
}

func NewBookingService(deps Dependencies) BookingService {
	clock := deps.Clock
	if clock == nil {
		clock = calendar.SystemClock{}
	}
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &bookingService{
		repo:      deps.Repo,
		locks:     deps.Locks,
		invoices:  deps.Invoices,
		services:  deps.Services,
		catalog:   deps.Catalog,
		checker:   deps.Checker,
		pricing:   deps.Pricing,
		days:      deps.Days,
		clock:     clock,
		publisher: publisher,
		validator: deps.Validator,
		cfg:       deps.Config,
	}
}

// bookingPlan is a validated request laid out on the calendar: grid-aligned
// ranges, every occurrence date and how each of those days is classified.
type bookingPlan struct {
	info   *catalogservice.CourtInfo
	ranges []calendar.Range
	dates  []time.Time
	days   []calendar.DayInfo
}

func (p *bookingPlan) lockKeys() []string {
	keys := make([]string, 0, len(p.dates))
	for _, d := range p.dates {
		keys = append(keys, LockKey(p.info.Court.ID, d))
	}
	return keys
}

func (p *bookingPlan) availabilityRequest(excludeID string) availability.Request {
	return availability.Request{
		Court:            p.info.Court,
		RentDuration:     p.info.Type.RentDurationMinutes,
		Dates:            p.dates,
		Ranges:           p.ranges,
		ExcludeBookingID: excludeID,
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, req *model.CreateBookingRequest) ([]*model.CourtBooking, error) {
	s.sanitizeCreate(req)
	if err := s.validator.ValidateCreate(req); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return nil, apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}

	info, err := s.catalog.ResolveCourt(ctx, req.CourtID, req.BranchID)
	if err != nil {
		return nil, err
	}
	customer, err := s.catalog.ResolveCustomer(ctx, req.Customer)
	if err != nil {
		return nil, err
	}

	plan, err := s.preparePlan(ctx, info, req.Date, req.Slots, req.IsMonthly)
	if err != nil {
		return nil, err
	}
	if err := s.rejectPast(plan); err != nil {
		return nil, err
	}

	held, err := s.acquireLocks(ctx, plan.lockKeys())
	if err != nil {
		return nil, err
	}
	defer s.releaseLocks(ctx, held)

	txCtx, cancel := s.withinLocks(ctx, held)
	defer cancel()

	var created []*model.CourtBooking
	err = s.repo.ExecuteTransaction(txCtx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.GuardSlots(sessCtx, held.keys, s.clock.Now().UTC()); err != nil {
			return err
		}
		if err := s.ensureAvailable(sessCtx, plan.availabilityRequest("")); err != nil {
			return err
		}
		if err := s.checkCourtLimit(sessCtx, customer.ID, plan, ""); err != nil {
			return err
		}

		bookings := s.buildBookings(req, plan, customer)
		if err := s.repo.CreateMany(sessCtx, bookings); err != nil {
			return apperrors.Translate(err, "Failed to create booking")
		}
		created = bookings
		return nil
	})
	if err != nil {
		err = apperrors.Translate(err, "Failed to create booking")
		s.logMutationFailure("Failed to create booking", err, "court_id", req.CourtID, "date", req.Date)
		return nil, err
	}

	s.cfg.Log.Info("Booking created successfully",
		"court_id", info.Court.ID,
		"customer_id", customer.ID,
		"occurrences", len(created),
		"series_id", created[0].SeriesID,
		"first_id", created[0].ID,
	)
	s.notify(ctx, events.BookingCreated, created...)
	return created, nil
}

func (s *bookingService) UpdateBooking(ctx context.Context, id string, req *model.UpdateBookingRequest) (*model.CourtBooking, error) {
	if err := s.validator.ValidateUpdate(req); err != nil {
		s.cfg.Log.Warn("Booking update validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	existing, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if !existing.Status.IsActive() {
		return nil, apperrors.InvalidStateTransition(string(existing.Status), "update")
	}

	info, err := s.catalog.ResolveCourt(ctx, req.CourtID, req.BranchID)
	if err != nil {
		return nil, err
	}
	customer, err := s.catalog.ResolveCustomer(ctx, model.CustomerByID(existing.CustomerID))
	if err != nil {
		return nil, err
	}

	plan, err := s.preparePlan(ctx, info, req.Date, req.Slots, false)
	if err != nil {
		return nil, err
	}
	if err := s.rejectPast(plan); err != nil {
		return nil, err
	}

	held, err := s.acquireLocks(ctx, plan.lockKeys())
	if err != nil {
		return nil, err
	}
	defer s.releaseLocks(ctx, held)

	txCtx, cancel := s.withinLocks(ctx, held)
	defer cancel()

	var updated *model.CourtBooking
	err = s.repo.ExecuteTransaction(txCtx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.GuardSlots(sessCtx, held.keys, s.clock.Now().UTC()); err != nil {
			return err
		}
		if err := s.ensureAvailable(sessCtx, plan.availabilityRequest(id)); err != nil {
			return err
		}
		if err := s.checkCourtLimit(sessCtx, customer.ID, plan, id); err != nil {
			return err
		}

		merged := *existing
		merged.CourtID = info.Court.ID
		merged.BranchID = info.Branch.ID
		merged.CourtName = info.Court.Name
		merged.BookingDate = plan.dates[0]
		merged.SetSlots(bookingSlots(plan.ranges, plan.dates[0]))
		merged.Price = s.priceDay(plan, 0, customer.Level.DiscountRate).PriceBreakdown
		merged.UpdatedAt = s.clock.Now().UTC()

		if err := s.repo.UpdateSchedule(sessCtx, &merged); err != nil {
			if errors.Is(err, bookingserrors.ErrStatusChanged) {
				return errStatusChanged
			}
			return apperrors.Translate(err, "Failed to update booking")
		}
		merged.LinkSlots()
		updated = &merged
		return nil
	})
	if errors.Is(err, errStatusChanged) {
		return nil, s.staleTransition(ctx, id, "update")
	}
	if err != nil {
		err = apperrors.Translate(err, "Failed to update booking")
		s.logMutationFailure("Failed to update booking", err, "id", id)
		return nil, err
	}

	s.cfg.Log.Info("Booking updated successfully",
		"id", id,
		"court_id", updated.CourtID,
		"booking_date", updated.BookingDate,
	)
	s.notify(ctx, events.BookingUpdated, updated)
	return updated, nil
}

// CheckAvailability answers without locking; a positive answer is advisory
// until a create succeeds.
func (s *bookingService) CheckAvailability(ctx context.Context, req *model.AvailabilityRequest) (*model.AvailabilityResult, error) {
	if err := s.validator.ValidateAvailability(req); err != nil {
		return nil, apperrors.Validation("Invalid availability request", map[string]any{"error": err.Error()})
	}

	info, err := s.catalog.ResolveCourt(ctx, req.CourtID, "")
	if err != nil {
		return nil, err
	}
	date, err := calendar.ParseDate(req.Date, s.cfg.Location)
	if err != nil {
		return nil, apperrors.Validation(err.Error(), nil)
	}
	ranges, err := parseRanges(req.Slots)
	if err != nil {
		return nil, err
	}

	result, err := s.checker.Check(ctx, availability.Request{
		Court:        info.Court,
		RentDuration: info.Type.RentDurationMinutes,
		Dates:        occurrenceDates(date, req.IsMonthly),
		Ranges:       ranges,
	})
	if err != nil {
		return nil, apperrors.Translate(err, "Failed to check availability")
	}
	return &result, nil
}

func (s *bookingService) CalculatePrice(ctx context.Context, req *model.QuoteRequest) (*model.PriceQuote, error) {
	if err := s.validator.ValidateQuote(req); err != nil {
		return nil, apperrors.Validation("Invalid price request", map[string]any{"error": err.Error()})
	}

	info, err := s.catalog.ResolveCourt(ctx, req.CourtID, "")
	if err != nil {
		return nil, err
	}
	var discount decimal.Decimal
	if req.Customer != nil {
		customer, err := s.catalog.ResolveCustomer(ctx, *req.Customer)
		if err != nil {
			return nil, err
		}
		discount = customer.Level.DiscountRate
	}

	plan, err := s.preparePlan(ctx, info, req.Date, req.Slots, req.IsMonthly)
	if err != nil {
		return nil, err
	}

	quote := &model.PriceQuote{
		CourtID:     info.Court.ID,
		Occurrences: make([]model.OccurrencePrice, 0, len(plan.dates)),
	}
	for i, date := range plan.dates {
		price := s.priceDay(plan, i, discount).PriceBreakdown
		quote.Occurrences = append(quote.Occurrences, model.OccurrencePrice{Date: date, Price: price})
		quote.GrandTotal = quote.GrandTotal.Add(price.GrandTotal)
	}
	return quote, nil
}

func (s *bookingService) CourtDaySchedule(ctx context.Context, courtID, date string) ([]model.GridSlot, error) {
	if courtID == "" {
		return nil, apperrors.InvalidInput("Court ID cannot be empty")
	}
	day, err := calendar.ParseDate(date, s.cfg.Location)
	if err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	info, err := s.catalog.ResolveCourt(ctx, courtID, "")
	if err != nil {
		return nil, err
	}

	schedule, err := s.checker.DaySchedule(ctx, info.Court, info.Type.RentDurationMinutes, day)
	if err != nil {
		return nil, apperrors.Translate(err, "Failed to load court schedule")
	}
	return schedule, nil
}

func (s *bookingService) GetBooking(ctx context.Context, id string) (*model.CourtBooking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Translate(err, "Failed to retrieve booking")
	}

	return booking, nil
}

func (s *bookingService) ListBranchBookings(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.CourtBooking, int64, error) {
	if filter.BranchID == "" {
		return nil, 0, apperrors.InvalidInput("Branch ID cannot be empty")
	}
	if filter.Search != nil {
		q := sanitizer.TrimAndNormalize(*filter.Search)
		filter.Search = &q
	}

	var count int64
	var bookings []*model.CourtBooking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.Count(ctx, filter)
		if err != nil {
			s.cfg.Log.Error("Failed to count bookings", "branch_id", filter.BranchID, "error", err)
			errCount = apperrors.Translate(err, "Failed to count bookings")
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		bookings, err = s.repo.Search(ctx, filter, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to list bookings",
				"branch_id", filter.BranchID,
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Translate(err, "Failed to retrieve bookings")
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

func (s *bookingService) ListCustomerBookings(ctx context.Context, customerID, branchID string) ([]*model.CourtBooking, error) {
	if customerID == "" {
		return nil, apperrors.InvalidInput("Customer ID cannot be empty")
	}

	bookings, err := s.repo.Search(ctx, model.BookingFilter{CustomerID: customerID, BranchID: branchID}, 0, 0)
	if err != nil {
		return nil, apperrors.Translate(err, "Failed to retrieve customer bookings")
	}
	return bookings, nil
}

// --- Helpers ---

var errStatusChanged = errors.New("booking status changed concurrently")

func (s *bookingService) sanitizeCreate(req *model.CreateBookingRequest) {
	req.Type = sanitizer.TrimAndNormalize(req.Type)
	req.Customer.ID = strings.TrimSpace(req.Customer.ID)
	req.Date = strings.TrimSpace(req.Date)
}

func (s *bookingService) preparePlan(ctx context.Context, info *catalogservice.CourtInfo, dateStr string, slots []model.SlotInput, monthly bool) (*bookingPlan, error) {
	date, err := calendar.ParseDate(dateStr, s.cfg.Location)
	if err != nil {
		return nil, apperrors.Validation(err.Error(), nil)
	}

	ranges, err := parseRanges(slots)
	if err != nil {
		return nil, err
	}

	grid := s.checker.Grid()
	rent := info.Type.RentDurationMinutes
	for i, r := range ranges {
		if !grid.IsAligned(rent, r) {
			return nil, apperrors.Validation("Slot is not aligned to the court grid", map[string]any{
				"slot":          r.String(),
				"rent_duration": rent,
			})
		}
		if i > 0 && r.Start < ranges[i-1].End {
			return nil, apperrors.Validation("Requested slots overlap each other", map[string]any{
				"slot": r.String(),
			})
		}
	}

	plan := &bookingPlan{
		info:   info,
		ranges: ranges,
		dates:  occurrenceDates(date, monthly),
	}
	plan.days = make([]calendar.DayInfo, 0, len(plan.dates))
	for _, d := range plan.dates {
		day, err := s.days.ClassifyDay(ctx, d)
		if err != nil {
			return nil, apperrors.Translate(err, "Failed to classify booking date")
		}
		plan.days = append(plan.days, day)
	}
	return plan, nil
}

func (s *bookingService) rejectPast(plan *bookingPlan) error {
	first := plan.ranges[0].On(plan.dates[0])
	if first.Start.Before(s.clock.Now()) {
		return apperrors.Validation("Cannot book a slot that has already started", map[string]any{
			"start": first.Start.Format(time.RFC3339),
		})
	}
	return nil
}

func (s *bookingService) ensureAvailable(ctx context.Context, req availability.Request) error {
	result, err := s.checker.Check(ctx, req)
	if err != nil {
		return apperrors.Translate(err, "Failed to check availability")
	}
	if result.Available {
		return nil
	}
	return conflictError(result.Conflict)
}

// checkCourtLimit caps the distinct courts a customer holds on each date. The
// court being booked never counts against the limit.
func (s *bookingService) checkCourtLimit(ctx context.Context, customerID string, plan *bookingPlan, excludeID string) error {
	limit := plan.info.Branch.Config.MaxCourtsPerUser
	if limit <= 0 {
		return nil
	}

	for _, date := range plan.dates {
		held, err := s.repo.FindActiveByCustomerAndDate(ctx, customerID, date)
		if err != nil {
			return apperrors.Translate(err, "Failed to check customer bookings")
		}
		courts := map[string]struct{}{}
		for _, b := range held {
			if b.ID == excludeID || b.CourtID == plan.info.Court.ID {
				continue
			}
			courts[b.CourtID] = struct{}{}
		}
		if len(courts) >= limit {
			return apperrors.Conflict(fmt.Sprintf("Customer already holds %d court(s) on %s", len(courts), date.Format(calendar.DateLayout))).
				WithDetails(map[string]any{
					"customer_id":         customerID,
					"max_courts_per_user": limit,
				})
		}
	}
	return nil
}

// priceDay prices occurrence i. In frozen mode every occurrence reuses the
// first occurrence's price.
func (s *bookingService) priceDay(plan *bookingPlan, i int, discountPercent decimal.Decimal) pricing.Breakdown {
	if s.cfg.MonthlyPricingMode == config.MonthlyPricingFrozen {
		i = 0
	}
	date := plan.dates[i]
	slots := make([]calendar.Slot, 0, len(plan.ranges))
	for _, r := range plan.ranges {
		slots = append(slots, r.On(date))
	}
	return s.pricing.Calculate(pricing.Input{
		BaseHourlyPrice: plan.info.Court.BaseHourlyPrice,
		Config:          plan.info.Branch.Config,
		Slots:           slots,
		Day:             plan.days[i],
		DiscountPercent: discountPercent,
	})
}

func (s *bookingService) buildBookings(req *model.CreateBookingRequest, plan *bookingPlan, customer *model.Customer) []*model.CourtBooking {
	now := s.clock.Now().UTC().Truncate(time.Millisecond)

	bookingType := req.Type
	if bookingType == "" {
		bookingType = model.BookingTypeSingle
		if req.IsMonthly {
			bookingType = model.BookingTypeMonthly
		}
	}
	seriesID := ""
	if req.IsMonthly {
		seriesID = uuid.NewString()
	}

	bookings := make([]*model.CourtBooking, 0, len(plan.dates))
	for i, date := range plan.dates {
		b := &model.CourtBooking{
			CourtID:      plan.info.Court.ID,
			BranchID:     plan.info.Branch.ID,
			CustomerID:   customer.ID,
			CreatorID:    req.CreatorID,
			SeriesID:     seriesID,
			BookingDate:  date,
			Type:         bookingType,
			Status:       model.Confirmed,
			Price:        s.priceDay(plan, i, customer.Level.DiscountRate).PriceBreakdown,
			CourtName:    plan.info.Court.Name,
			CustomerName: customer.FullName,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		b.SetSlots(bookingSlots(plan.ranges, date))
		bookings = append(bookings, b)
	}
	return bookings
}

func (s *bookingService) notify(ctx context.Context, eventType string, bookings ...*model.CourtBooking) {
	evts := make([]events.Event, 0, len(bookings))
	requestID := middleware.RequestIDFromContext(ctx)
	for _, b := range bookings {
		evts = append(evts, events.Event{
			Type:          eventType,
			Key:           b.CourtID,
			Payload:       b,
			CorrelationID: requestID,
			OccurredAt:    s.clock.Now(),
		})
	}
	events.Notify(ctx, s.publisher, s.cfg.Log, s.cfg.WriteTimeout, evts...)
}

// staleTransition reports the status a concurrent writer left the booking in.
func (s *bookingService) staleTransition(ctx context.Context, id, action string) error {
	current, err := s.GetBooking(ctx, id)
	if err != nil {
		return err
	}
	s.cfg.Log.Warn("Booking status changed concurrently",
		"id", id,
		"action", action,
		"status", current.Status,
	)
	return apperrors.InvalidStateTransition(string(current.Status), action)
}

func (s *bookingService) logMutationFailure(msg string, err error, args ...any) {
	args = append(args, "error", err)
	switch {
	case apperrors.IsCode(err, apperrors.CodeConflict),
		apperrors.IsCode(err, apperrors.CodeValidation),
		apperrors.IsCode(err, apperrors.CodeInvalidStateTransition):
		s.cfg.Log.Warn(msg, args...)
	default:
		s.cfg.Log.Error(msg, args...)
	}
}

func parseRanges(slots []model.SlotInput) ([]calendar.Range, error) {
	ranges := make([]calendar.Range, 0, len(slots))
	for _, in := range slots {
		r, err := calendar.ParseRange(in.Start, in.End)
		if err != nil {
			return nil, apperrors.Validation(err.Error(), nil)
		}
		ranges = append(ranges, r)
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].Start < ranges[j].Start })
	return ranges, nil
}

func occurrenceDates(date time.Time, monthly bool) []time.Time {
	if monthly {
		return calendar.MonthlyOccurrences(date)
	}
	return []time.Time{date}
}

func bookingSlots(ranges []calendar.Range, date time.Time) []model.BookingSlot {
	slots := make([]model.BookingSlot, 0, len(ranges))
	for _, r := range ranges {
		s := r.On(date)
		slots = append(slots, model.BookingSlot{Start: s.Start, End: s.End})
	}
	return slots
}

func conflictError(c *model.AvailabilityConflict) error {
	if c == nil {
		return apperrors.Conflict("Requested slots are not available")
	}

	details := map[string]any{
		"date":   c.Date.Format(calendar.DateLayout),
		"start":  c.Slot.Start.Format("15:04"),
		"end":    c.Slot.End.Format("15:04"),
		"reason": c.Reason,
	}
	if c.BookingID != "" {
		details["booking_id"] = c.BookingID
	}

	switch c.Reason {
	case availability.ReasonOffGrid, availability.ReasonDuplicate:
		return apperrors.Validation("Requested slots are not valid for this court", details)
	case availability.ReasonCourtUnavailable:
		return apperrors.Conflict("Court is not available on the requested date").WithDetails(details)
	default:
		return apperrors.Conflict("Requested slot overlaps an existing booking").WithDetails(details)
	}
}
