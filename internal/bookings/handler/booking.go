package handler

import (
	"net/http"
	"time"

	"courtbook/internal/bookings/service"
	"courtbook/internal/calendar"
	apperrors "courtbook/pkg/errors"
	httputil "courtbook/pkg/http"
	"courtbook/pkg/logger"
	"courtbook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	service  service.BookingService
	location *time.Location
	log      *logger.Logger
}

func NewBookingHandler(service service.BookingService, location *time.Location, log *logger.Logger) *BookingHandler {
	if location == nil {
		location = time.UTC
	}
	return &BookingHandler{
		service:  service,
		location: location,
		log:      log,
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.CreateBookingRequest
	if !h.decode(w, r, "Create", &req) {
		return
	}

	bookings, err := h.service.CreateBooking(r.Context(), &req)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, bookings); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.GetBooking(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.UpdateBookingRequest
	if !h.decode(w, r, "Update", &req) {
		return
	}

	booking, err := h.service.UpdateBooking(r.Context(), ps.ByName("id"), &req)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.CancelRequest
	if r.ContentLength != 0 && !h.decode(w, r, "Cancel", &req) {
		return
	}

	invoice, err := h.service.CancelBooking(r.Context(), ps.ByName("id"), &req)
	if err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	if err := httputil.WriteSuccess(w, invoice); err != nil {
		h.log.Error("failed to write success response", "handler", "Cancel", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Complete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.SettleRequest
	if r.ContentLength != 0 && !h.decode(w, r, "Complete", &req) {
		return
	}

	invoice, err := h.service.CompleteBooking(r.Context(), ps.ByName("id"), &req)
	if err != nil {
		h.writeError(w, "Complete", err)
		return
	}

	if err := httputil.WriteSuccess(w, invoice); err != nil {
		h.log.Error("failed to write success response", "handler", "Complete", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) NoShow(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.SettleRequest
	if r.ContentLength != 0 && !h.decode(w, r, "NoShow", &req) {
		return
	}

	invoice, err := h.service.MarkNoShow(r.Context(), ps.ByName("id"), &req)
	if err != nil {
		h.writeError(w, "NoShow", err)
		return
	}

	if err := httputil.WriteSuccess(w, invoice); err != nil {
		h.log.Error("failed to write success response", "handler", "NoShow", "operation", "WriteSuccess", "error", err)
	}
}

// ListByBranch accepts optional status, date_from, date_to and search query
// parameters; all given filters must match.
func (h *BookingHandler) ListByBranch(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListByBranch", err)
		return
	}

	filter, err := h.parseFilter(r)
	if err != nil {
		h.writeError(w, "ListByBranch", err)
		return
	}
	filter.BranchID = ps.ByName("branch_id")

	bookings, total, err := h.service.ListBranchBookings(r.Context(), filter, limit, offset)
	if err != nil {
		h.writeError(w, "ListByBranch", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, int(offset)); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListByBranch", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) ListByCustomer(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	bookings, err := h.service.ListCustomerBookings(r.Context(), ps.ByName("customer_id"), r.URL.Query().Get("branch_id"))
	if err != nil {
		h.writeError(w, "ListByCustomer", err)
		return
	}

	if err := httputil.WriteSuccess(w, bookings); err != nil {
		h.log.Error("failed to write success response", "handler", "ListByCustomer", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Availability(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.AvailabilityRequest
	if !h.decode(w, r, "Availability", &req) {
		return
	}

	result, err := h.service.CheckAvailability(r.Context(), &req)
	if err != nil {
		h.writeError(w, "Availability", err)
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "Availability", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Quote(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.QuoteRequest
	if !h.decode(w, r, "Quote", &req) {
		return
	}

	quote, err := h.service.CalculatePrice(r.Context(), &req)
	if err != nil {
		h.writeError(w, "Quote", err)
		return
	}

	if err := httputil.WriteSuccess(w, quote); err != nil {
		h.log.Error("failed to write success response", "handler", "Quote", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) CourtSchedule(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	date := r.URL.Query().Get("date")
	if date == "" {
		h.writeError(w, "CourtSchedule", apperrors.InvalidInput("'date' query parameter is required"))
		return
	}

	schedule, err := h.service.CourtDaySchedule(r.Context(), ps.ByName("court_id"), date)
	if err != nil {
		h.writeError(w, "CourtSchedule", err)
		return
	}

	if err := httputil.WriteSuccess(w, schedule); err != nil {
		h.log.Error("failed to write success response", "handler", "CourtSchedule", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.Create)
	router.GET("/api/v1/bookings/id/:id", h.GetByID)
	router.PUT("/api/v1/bookings/id/:id", h.Update)
	router.POST("/api/v1/bookings/id/:id/cancel", h.Cancel)
	router.POST("/api/v1/bookings/id/:id/complete", h.Complete)
	router.POST("/api/v1/bookings/id/:id/no-show", h.NoShow)
	router.GET("/api/v1/bookings/branch/:branch_id", h.ListByBranch)
	router.GET("/api/v1/bookings/customer/:customer_id", h.ListByCustomer)
	router.POST("/api/v1/availability", h.Availability)
	router.POST("/api/v1/pricing/quote", h.Quote)
	router.GET("/api/v1/courts/:court_id/schedule", h.CourtSchedule)
}

func (h *BookingHandler) parseFilter(r *http.Request) (model.BookingFilter, error) {
	query := r.URL.Query()
	var filter model.BookingFilter

	if v := query.Get("status"); v != "" {
		status := model.BookingStatus(v)
		switch status {
		case model.Pending, model.Confirmed, model.Cancelled, model.Completed, model.NoShow:
			filter.Status = &status
		default:
			return filter, apperrors.InvalidInput("invalid status parameter: " + v)
		}
	}
	if v := query.Get("date_from"); v != "" {
		d, err := calendar.ParseDate(v, h.location)
		if err != nil {
			return filter, apperrors.InvalidInput("invalid date_from parameter, must be YYYY-MM-DD")
		}
		filter.DateFrom = &d
	}
	if v := query.Get("date_to"); v != "" {
		d, err := calendar.ParseDate(v, h.location)
		if err != nil {
			return filter, apperrors.InvalidInput("invalid date_to parameter, must be YYYY-MM-DD")
		}
		filter.DateTo = &d
	}
	if v := query.Get("search"); v != "" {
		filter.Search = &v
	}
	return filter, nil
}

func (h *BookingHandler) decode(w http.ResponseWriter, r *http.Request, handler string, v any) bool {
	if err := httputil.DecodeJSON(r, v); err != nil {
		h.writeError(w, handler, err)
		return false
	}
	return true
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}
