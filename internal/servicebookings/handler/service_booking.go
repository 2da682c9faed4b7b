package handler

import (
	"net/http"

	"courtbook/internal/servicebookings/service"
	httputil "courtbook/pkg/http"
	"courtbook/pkg/logger"
	"courtbook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ServiceBookingHandler struct {
	service service.ServiceBookingService
	log     *logger.Logger
}

func NewServiceBookingHandler(service service.ServiceBookingService, log *logger.Logger) *ServiceBookingHandler {
	return &ServiceBookingHandler{
		service: service,
		log:     log,
	}
}

func (h *ServiceBookingHandler) Attach(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.AttachServicesRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Attach", err)
		return
	}

	sb, err := h.service.AttachServices(r.Context(), &req)
	if err != nil {
		h.writeError(w, "Attach", err)
		return
	}

	if err := httputil.WriteCreated(w, sb); err != nil {
		h.log.Error("failed to write created response", "handler", "Attach", "operation", "WriteCreated", "error", err)
	}
}

func (h *ServiceBookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	sb, err := h.service.GetServiceBooking(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, sb); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ServiceBookingHandler) ListByCourtBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	list, err := h.service.ListForCourtBooking(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "ListByCourtBooking", err)
		return
	}

	if err := httputil.WriteSuccess(w, list); err != nil {
		h.log.Error("failed to write success response", "handler", "ListByCourtBooking", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ServiceBookingHandler) ListBranchServices(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	services, err := h.service.ListBranchServices(r.Context(), ps.ByName("branch_id"))
	if err != nil {
		h.writeError(w, "ListBranchServices", err)
		return
	}

	if err := httputil.WriteSuccess(w, services); err != nil {
		h.log.Error("failed to write success response", "handler", "ListBranchServices", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ServiceBookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/service-bookings", h.Attach)
	router.GET("/api/v1/service-bookings/id/:id", h.GetByID)
	router.GET("/api/v1/bookings/id/:id/services", h.ListByCourtBooking)
	router.GET("/api/v1/branches/:branch_id/services", h.ListBranchServices)
}

func (h *ServiceBookingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}
