package handler

import (
	"net/http"

	"courtbook/internal/catalog/service"
	httputil "courtbook/pkg/http"
	"courtbook/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type CatalogHandler struct {
	service service.CatalogService
	log     *logger.Logger
}

func NewCatalogHandler(service service.CatalogService, log *logger.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		log:     log,
	}
}

func (h *CatalogHandler) GetCourt(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	court, err := h.service.GetCourt(r.Context(), ps.ByName("court_id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetCourt", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, court); err != nil {
		h.log.Error("failed to write success response", "handler", "GetCourt", "operation", "WriteSuccess", "error", err)
	}
}

func (h *CatalogHandler) ListCourts(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	courts, err := h.service.ListCourts(r.Context(), ps.ByName("branch_id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListCourts", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, courts); err != nil {
		h.log.Error("failed to write success response", "handler", "ListCourts", "operation", "WriteSuccess", "error", err)
	}
}

func (h *CatalogHandler) GetBranch(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	branch, err := h.service.GetBranch(r.Context(), ps.ByName("branch_id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetBranch", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, branch); err != nil {
		h.log.Error("failed to write success response", "handler", "GetBranch", "operation", "WriteSuccess", "error", err)
	}
}

func (h *CatalogHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/branches/:branch_id", h.GetBranch)
	router.GET("/api/v1/branches/:branch_id/courts", h.ListCourts)
	router.GET("/api/v1/courts/:court_id", h.GetCourt)
}
