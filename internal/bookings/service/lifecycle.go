package service

import (
	"context"
	bookingserrors "courtbook/internal/bookings/errors"
	"courtbook/internal/calendar"
	"courtbook/internal/events"
	"courtbook/internal/pricing"
	apperrors "courtbook/pkg/errors"
	"courtbook/pkg/model"
	"courtbook/pkg/sanitizer"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/mongo"
)

const feeWindow = 24 * time.Hour

// CancelBooking charges the before-24h rate when cancelled more than a day
// ahead of the start, and the within-24h rate otherwise.
func (s *bookingService) CancelBooking(ctx context.Context, id string, req *model.CancelRequest) (*model.Invoice, error) {
	if req == nil {
		req = &model.CancelRequest{}
	}
	req.Method = sanitizer.TrimAndNormalize(req.Method)
	req.Reason = sanitizer.TrimAndNormalize(req.Reason)
	if err := s.validator.ValidateCancel(req); err != nil {
		return nil, apperrors.Validation("Invalid cancel request", map[string]any{"error": err.Error()})
	}

	booking, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if !booking.Status.IsActive() {
		s.cfg.Log.Warn("Rejected cancellation", "id", id, "status", booking.Status)
		return nil, apperrors.InvalidStateTransition(string(booking.Status), "cancel")
	}

	branch, err := s.catalog.GetBranch(ctx, booking.BranchID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	rate := branch.Config.CancelFeeWithin24h
	if now.Before(booking.StartTime.Add(-feeWindow)) {
		rate = branch.Config.CancelFeeBefore24h
	}
	fee, refundable := s.pricing.CancellationFee(booking.Price.GrandTotal, rate)

	invoice := &model.Invoice{
		CourtBookingID: booking.ID,
		BranchID:       booking.BranchID,
		EmployeeID:     req.EmployeeID,
		Type:           model.InvoiceCourtCancel,
		Lines: []model.InvoiceLine{
			{Kind: model.LineRefund, Description: "Refund", Amount: refundable},
			{Kind: model.LineCancelFee, Description: fmt.Sprintf("Cancellation fee (%s%%)", rate.String()), Amount: fee},
		},
		Total:      booking.Price.GrandTotal,
		Fee:        fee,
		Refundable: refundable,
		Method:     orDefault(req.Method, model.DefaultPaymentMethod),
		Reason:     orDefault(req.Reason, model.DefaultCancelReason),
		CreatedAt:  now.UTC(),
	}

	if err := s.settle(ctx, booking, model.ActiveStatuses, model.Cancelled, "cancel", invoice, 0); err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Booking cancelled successfully",
		"id", id,
		"fee", fee.String(),
		"refundable", refundable.String(),
	)
	booking.Status = model.Cancelled
	s.notify(ctx, events.BookingCancelled, booking)
	return invoice, nil
}

// CompleteBooking bills the court and any attached services once the booking
// has ended, and credits the customer's loyalty points.
func (s *bookingService) CompleteBooking(ctx context.Context, id string, req *model.SettleRequest) (*model.Invoice, error) {
	if req == nil {
		req = &model.SettleRequest{}
	}
	req.Method = sanitizer.TrimAndNormalize(req.Method)
	if err := s.validator.ValidateSettle(req); err != nil {
		return nil, apperrors.Validation("Invalid completion request", map[string]any{"error": err.Error()})
	}

	booking, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.Status != model.Confirmed {
		return nil, apperrors.InvalidStateTransition(string(booking.Status), "complete")
	}
	now := s.clock.Now()
	if now.Before(booking.EndTime) {
		return nil, apperrors.InvalidStateTransition(string(booking.Status), "complete").
			WithDetails(map[string]any{"ends_at": booking.EndTime.Format(time.RFC3339)})
	}

	branch, err := s.catalog.GetBranch(ctx, booking.BranchID)
	if err != nil {
		return nil, err
	}

	lines := []model.InvoiceLine{{
		Kind:        model.LineCourt,
		Description: fmt.Sprintf("Court %s on %s", booking.CourtName, booking.BookingDate.In(s.cfg.Location).Format(calendar.DateLayout)),
		Amount:      booking.Price.GrandTotal,
	}}
	if s.services != nil {
		attached, err := s.services.FindByCourtBooking(ctx, booking.ID)
		if err != nil {
			return nil, apperrors.Translate(err, "Failed to load attached services")
		}
		for _, sb := range attached {
			for _, item := range sb.Items {
				lines = append(lines, model.InvoiceLine{
					Kind:        model.LineService,
					Description: fmt.Sprintf("%s x%d", item.ServiceName, item.Quantity),
					Amount:      item.LineTotal,
				})
			}
		}
	}

	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Amount)
	}
	invoice := &model.Invoice{
		CourtBookingID: booking.ID,
		BranchID:       booking.BranchID,
		EmployeeID:     req.EmployeeID,
		Type:           model.InvoiceCourtCompletion,
		Lines:          lines,
		Total:          total,
		Method:         orDefault(req.Method, model.DefaultPaymentMethod),
		CreatedAt:      now.UTC(),
	}
	points := pricing.LoyaltyPoints(booking.Price.GrandTotal, branch.Config.LoyaltyPointRate)

	if err := s.settle(ctx, booking, []model.BookingStatus{model.Confirmed}, model.Completed, "complete", invoice, points); err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Booking completed successfully",
		"id", id,
		"total", total.String(),
		"loyalty_points", points,
	)
	booking.Status = model.Completed
	s.notify(ctx, events.BookingCompleted, booking)
	return invoice, nil
}

// MarkNoShow is allowed once the late-arrival allowance after the start has
// passed.
func (s *bookingService) MarkNoShow(ctx context.Context, id string, req *model.SettleRequest) (*model.Invoice, error) {
	if req == nil {
		req = &model.SettleRequest{}
	}
	req.Method = sanitizer.TrimAndNormalize(req.Method)
	if err := s.validator.ValidateSettle(req); err != nil {
		return nil, apperrors.Validation("Invalid no-show request", map[string]any{"error": err.Error()})
	}

	booking, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.Status != model.Confirmed {
		return nil, apperrors.InvalidStateTransition(string(booking.Status), "mark as no-show")
	}

	branch, err := s.catalog.GetBranch(ctx, booking.BranchID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	deadline := booking.StartTime.Add(time.Duration(branch.Config.LateTimeLimitMinutes) * time.Minute)
	if !now.After(deadline) {
		return nil, apperrors.InvalidStateTransition(string(booking.Status), "mark as no-show").
			WithDetails(map[string]any{"allowed_after": deadline.Format(time.RFC3339)})
	}

	fee := branch.Config.NoShowFee
	if fee.IsNegative() {
		fee = decimal.Zero
	}
	invoice := &model.Invoice{
		CourtBookingID: booking.ID,
		BranchID:       booking.BranchID,
		EmployeeID:     req.EmployeeID,
		Type:           model.InvoiceCourtNoShow,
		Lines: []model.InvoiceLine{
			{Kind: model.LineNoShowFee, Description: "No-show fee", Amount: fee},
		},
		Total:     fee,
		Fee:       fee,
		Method:    orDefault(req.Method, model.DefaultPaymentMethod),
		CreatedAt: now.UTC(),
	}

	if err := s.settle(ctx, booking, []model.BookingStatus{model.Confirmed}, model.NoShow, "mark as no-show", invoice, 0); err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Booking marked as no-show", "id", id, "fee", fee.String())
	booking.Status = model.NoShow
	s.notify(ctx, events.BookingNoShow, booking)
	return invoice, nil
}

// CompleteElapsed completes up to limit confirmed bookings whose end time has
// passed. Bookings settled concurrently are skipped.
func (s *bookingService) CompleteElapsed(ctx context.Context, limit int) (int, error) {
	due, err := s.repo.FindEndedBefore(ctx, s.clock.Now(), limit)
	if err != nil {
		return 0, apperrors.Translate(err, "Failed to find elapsed bookings")
	}

	completed := 0
	for _, b := range due {
		if err := apperrors.FromContext(ctx, "Completion sweep interrupted"); err != nil {
			return completed, err
		}
		_, err := s.CompleteBooking(ctx, b.ID, &model.SettleRequest{})
		switch {
		case err == nil:
			completed++
		case apperrors.IsCode(err, apperrors.CodeInvalidStateTransition):
			s.cfg.Log.Debug("Skipped booking during completion sweep", "id", b.ID, "error", err)
		default:
			s.cfg.Log.Error("Failed to complete elapsed booking", "id", b.ID, "error", err)
		}
	}
	return completed, nil
}

// settle moves the booking out of one of `from` and stores its invoice in one
// transaction. Loyalty points are credited in the same transaction.
func (s *bookingService) settle(ctx context.Context, booking *model.CourtBooking, from []model.BookingStatus, to model.BookingStatus, action string, invoice *model.Invoice, points int64) error {
	at := invoice.CreatedAt
	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.TransitionStatus(sessCtx, booking.ID, from, to, at); err != nil {
			if errors.Is(err, bookingserrors.ErrStatusChanged) {
				return errStatusChanged
			}
			return apperrors.Translate(err, "Failed to update booking status")
		}
		if err := s.invoices.Create(sessCtx, invoice); err != nil {
			return apperrors.Translate(err, "Failed to create invoice")
		}
		if points > 0 {
			if err := s.catalog.AwardPoints(sessCtx, booking.CustomerID, points); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, errStatusChanged) {
		return s.staleTransition(ctx, booking.ID, action)
	}
	if err != nil {
		err = apperrors.Translate(err, "Failed to "+action+" booking")
		s.logMutationFailure("Failed to "+action+" booking", err, "id", booking.ID)
		return err
	}
	booking.StatusChangedAt = &at
	return nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
