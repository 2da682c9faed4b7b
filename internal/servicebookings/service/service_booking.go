package service

import (
	"context"
	bookingserrors "courtbook/internal/bookings/errors"
	"courtbook/internal/calendar"
	"courtbook/internal/events"
	sberrors "courtbook/internal/servicebookings/errors"
	"courtbook/internal/servicebookings/repository"
	"courtbook/internal/servicebookings/validator"
	"courtbook/pkg/config"
	apperrors "courtbook/pkg/errors"
	"courtbook/pkg/middleware"
	"courtbook/pkg/model"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/mongo"
)

type ServiceBookingService interface {
	AttachServices(ctx context.Context, req *model.AttachServicesRequest) (*model.ServiceBooking, error)
	GetServiceBooking(ctx context.Context, id string) (*model.ServiceBooking, error)
	ListForCourtBooking(ctx context.Context, courtBookingID string) ([]*model.ServiceBooking, error)
	ListBranchServices(ctx context.Context, branchID string) ([]*model.BranchService, error)
}

// CourtBookingSource loads the court booking services are attached to.
type CourtBookingSource interface {
	FindByID(ctx context.Context, id string) (*model.CourtBooking, error)
}

type serviceBookingService struct {
	repo          repository.ServiceBookingRepository
	stock         repository.BranchServiceRepository
	courtBookings CourtBookingSource
	validator     *validator.ServiceBookingValidator
	clock         calendar.Clock
	publisher     events.Publisher
	cfg           *config.Config
}

func NewServiceBookingService(
	repo repository.ServiceBookingRepository,
	stock repository.BranchServiceRepository,
	courtBookings CourtBookingSource,
	validator *validator.ServiceBookingValidator,
	clock calendar.Clock,
	publisher events.Publisher,
	cfg *config.Config,
) ServiceBookingService {
	if clock == nil {
		clock = calendar.SystemClock{}
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &serviceBookingService{
		repo:          repo,
		stock:         stock,
		courtBookings: courtBookings,
		validator:     validator,
		clock:         clock,
		publisher:     publisher,
		cfg:           cfg,
	}
}

// AttachServices records every item or none. Physical stock is decremented
// inside the transaction, so a shortfall on any item rolls back the others.
func (s *serviceBookingService) AttachServices(ctx context.Context, req *model.AttachServicesRequest) (*model.ServiceBooking, error) {
	if err := s.validator.ValidateAttach(req); err != nil {
		s.cfg.Log.Warn("Service attachment validation failed", "error", err)
		return nil, apperrors.Validation("Service attachment validation failed", map[string]any{"error": err.Error()})
	}

	booking, err := s.courtBookings.FindByID(ctx, req.CourtBookingID)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) || errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.UnknownReference("court booking", req.CourtBookingID)
		}
		return nil, apperrors.Translate(err, "Failed to load court booking")
	}
	if !booking.Status.IsActive() {
		return nil, apperrors.InvalidStateTransition(string(booking.Status), "attach services to")
	}

	items := mergeItems(req.Items)

	var created *model.ServiceBooking
	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		sb := &model.ServiceBooking{
			CourtBookingID: booking.ID,
			BranchID:       booking.BranchID,
			EmployeeID:     req.EmployeeID,
			Items:          make([]model.ServiceBookingItem, 0, len(items)),
			CreatedAt:      s.clock.Now().UTC(),
		}

		for _, item := range items {
			line, warning, err := s.reserve(sessCtx, booking.BranchID, item)
			if err != nil {
				return err
			}
			sb.Items = append(sb.Items, line)
			sb.Total = sb.Total.Add(line.LineTotal)
			if warning != nil {
				sb.Warnings = append(sb.Warnings, *warning)
			}
		}

		if err := s.repo.Create(sessCtx, sb); err != nil {
			return apperrors.Translate(err, "Failed to create service booking")
		}
		created = sb
		return nil
	})
	if err != nil {
		err = apperrors.Translate(err, "Failed to attach services")
		if apperrors.IsCode(err, apperrors.CodeInsufficientStock) || apperrors.IsCode(err, apperrors.CodeValidation) {
			s.cfg.Log.Warn("Service attachment rejected", "court_booking_id", req.CourtBookingID, "error", err)
		} else {
			s.cfg.Log.Error("Failed to attach services", "court_booking_id", req.CourtBookingID, "error", err)
		}
		return nil, err
	}

	for _, w := range created.Warnings {
		s.cfg.Log.Warn("Service stock below minimum threshold",
			"branch_service_id", w.BranchServiceID,
			"service", w.ServiceName,
			"current_stock", w.CurrentStock,
			"min_stock_threshold", w.MinStockThreshold,
		)
	}
	s.cfg.Log.Info("Services attached successfully",
		"id", created.ID,
		"court_booking_id", created.CourtBookingID,
		"items", len(created.Items),
		"total", created.Total.String(),
	)

	events.Notify(ctx, s.publisher, s.cfg.Log, s.cfg.WriteTimeout, events.Event{
		Type:          events.ServicesAttached,
		Key:           created.CourtBookingID,
		Payload:       created,
		CorrelationID: middleware.RequestIDFromContext(ctx),
		OccurredAt:    created.CreatedAt,
	})
	return created, nil
}

// reserve validates one item against the branch catalogue and takes its stock.
func (s *serviceBookingService) reserve(ctx context.Context, branchID string, item model.AttachItem) (model.ServiceBookingItem, *model.StockWarning, error) {
	svc, err := s.stock.FindByID(ctx, item.BranchServiceID)
	if err != nil {
		if errors.Is(err, sberrors.ErrServiceNotFound) || errors.Is(err, sberrors.ErrInvalidID) {
			return model.ServiceBookingItem{}, nil, apperrors.UnknownReference("branch service", item.BranchServiceID)
		}
		return model.ServiceBookingItem{}, nil, apperrors.Translate(err, "Failed to load branch service")
	}
	if svc.BranchID != branchID {
		return model.ServiceBookingItem{}, nil, apperrors.Validation("Service is not offered at the booking's branch", map[string]any{
			"branch_service_id": svc.ID,
			"branch_id":         branchID,
		})
	}
	if svc.Status != model.ServiceActive {
		return model.ServiceBookingItem{}, nil, apperrors.Validation(fmt.Sprintf("Service %s is not active", svc.Service.Name), map[string]any{
			"branch_service_id": svc.ID,
		})
	}

	var warning *model.StockWarning
	if svc.TracksStock() {
		updated, err := s.stock.DecrementStock(ctx, svc.ID, item.Quantity)
		if err != nil {
			if errors.Is(err, sberrors.ErrInsufficientStock) {
				return model.ServiceBookingItem{}, nil, apperrors.InsufficientStock(
					fmt.Sprintf("Not enough %s in stock", svc.Service.Name),
					map[string]any{
						"branch_service_id": svc.ID,
						"requested":         item.Quantity,
						"available":         svc.CurrentStock,
					},
				)
			}
			return model.ServiceBookingItem{}, nil, apperrors.Translate(err, "Failed to update stock")
		}
		if updated.CurrentStock < updated.MinStockThreshold {
			warning = &model.StockWarning{
				BranchServiceID:   updated.ID,
				ServiceName:       updated.Service.Name,
				CurrentStock:      updated.CurrentStock,
				MinStockThreshold: updated.MinStockThreshold,
			}
		}
	}

	return model.ServiceBookingItem{
		BranchServiceID: svc.ID,
		ServiceName:     svc.Service.Name,
		Quantity:        item.Quantity,
		UnitPrice:       svc.UnitPrice,
		LineTotal:       svc.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
	}, warning, nil
}

func (s *serviceBookingService) GetServiceBooking(ctx context.Context, id string) (*model.ServiceBooking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Service booking ID cannot be empty")
	}

	sb, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sberrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Service booking", id)
		}
		if errors.Is(err, sberrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid service booking ID format")
		}
		return nil, apperrors.Translate(err, "Failed to retrieve service booking")
	}
	return sb, nil
}

func (s *serviceBookingService) ListForCourtBooking(ctx context.Context, courtBookingID string) ([]*model.ServiceBooking, error) {
	if courtBookingID == "" {
		return nil, apperrors.InvalidInput("Court booking ID cannot be empty")
	}

	bookings, err := s.repo.FindByCourtBooking(ctx, courtBookingID)
	if err != nil {
		return nil, apperrors.Translate(err, "Failed to retrieve service bookings")
	}
	return bookings, nil
}

func (s *serviceBookingService) ListBranchServices(ctx context.Context, branchID string) ([]*model.BranchService, error) {
	if branchID == "" {
		return nil, apperrors.InvalidInput("Branch ID cannot be empty")
	}

	services, err := s.stock.FindByBranch(ctx, branchID)
	if err != nil {
		return nil, apperrors.Translate(err, "Failed to retrieve branch services")
	}
	return services, nil
}

// mergeItems sums repeated services into one line and orders lines by id so
// concurrent attachments touch stock documents in the same order.
func mergeItems(items []model.AttachItem) []model.AttachItem {
	byID := make(map[string]int, len(items))
	for _, it := range items {
		byID[it.BranchServiceID] += it.Quantity
	}
	merged := make([]model.AttachItem, 0, len(byID))
	for id, qty := range byID {
		merged = append(merged, model.AttachItem{BranchServiceID: id, Quantity: qty})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].BranchServiceID < merged[j].BranchServiceID })
	return merged
}
