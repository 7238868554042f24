package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/rl1809/restaurant/internal/core/domain"
	"github.com/rl1809/restaurant/internal/core/process"
	"github.com/rl1809/restaurant/internal/core/projection"
	"github.com/rl1809/restaurant/internal/core/service"
)

type OrderService interface {
	Execute(ctx context.Context, id *domain.OrderID, cmd domain.OrderCommand) (domain.OrderID, error)
	Get(ctx context.Context, id domain.OrderID) (domain.OrderView, error)
}

type TableService interface {
	Execute(ctx context.Context, id *domain.TableID, cmd domain.TableCommand) (domain.TableID, error)
	Get(ctx context.Context, id domain.TableID) (domain.TableView, error)
}

type HTTPHandler struct {
	orders   OrderService
	tables   TableService
	validate *validator.Validate
	log      *slog.Logger
}

type CreateOrderRequest struct {
	TableID string `json:"table_id" validate:"required,uuid"`
}

type AddProductsRequest struct {
	// An empty batch is accepted and recorded.
	Products map[string]domain.Quantity `json:"products" validate:"required"`
}

type TableNameRequest struct {
	Name domain.TableName `json:"name"`
}

type IDResponse struct {
	ID string `json:"id"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func NewHTTPHandler(orders OrderService, tables TableService, log *slog.Logger) *HTTPHandler {
	return &HTTPHandler{
		orders:   orders,
		tables:   tables,
		validate: validator.New(),
		log:      log,
	}
}

func (h *HTTPHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if !h.decode(w, r, &req) {
		return
	}
	table, err := domain.ParseTableID(req.TableID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	id, err := h.orders.Execute(r.Context(), nil, domain.CreateOrder{Table: table})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, IDResponse{ID: id.String()})
}

func (h *HTTPHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderIDParam(w, r)
	if !ok {
		return
	}
	view, err := h.orders.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *HTTPHandler) AddProducts(w http.ResponseWriter, r *http.Request) {
	id, ok := orderIDParam(w, r)
	if !ok {
		return
	}
	var req AddProductsRequest
	if !h.decode(w, r, &req) {
		return
	}

	products := make(map[domain.ProductID]domain.Quantity, len(req.Products))
	for raw, qty := range req.Products {
		productID, err := domain.ParseProductID(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		products[productID] = qty
	}

	h.executeOrder(w, r, id, domain.AddProducts{Products: products})
}

func (h *HTTPHandler) SettleOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderIDParam(w, r)
	if !ok {
		return
	}
	h.executeOrder(w, r, id, domain.SettleOrder{})
}

func (h *HTTPHandler) executeOrder(w http.ResponseWriter, r *http.Request, id domain.OrderID, cmd domain.OrderCommand) {
	if _, err := h.orders.Execute(r.Context(), &id, cmd); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, IDResponse{ID: id.String()})
}

func (h *HTTPHandler) RegisterTable(w http.ResponseWriter, r *http.Request) {
	var req TableNameRequest
	if !h.decode(w, r, &req) {
		return
	}
	id, err := h.tables.Execute(r.Context(), nil, domain.RegisterTable{Name: req.Name})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, IDResponse{ID: id.String()})
}

func (h *HTTPHandler) GetTable(w http.ResponseWriter, r *http.Request) {
	id, ok := tableIDParam(w, r)
	if !ok {
		return
	}
	view, err := h.tables.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *HTTPHandler) RenameTable(w http.ResponseWriter, r *http.Request) {
	id, ok := tableIDParam(w, r)
	if !ok {
		return
	}
	var req TableNameRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.executeTable(w, r, id, domain.RenameTable{Name: req.Name})
}

func (h *HTTPHandler) DeregisterTable(w http.ResponseWriter, r *http.Request) {
	id, ok := tableIDParam(w, r)
	if !ok {
		return
	}
	h.executeTable(w, r, id, domain.DeregisterTable{})
}

func (h *HTTPHandler) executeTable(w http.ResponseWriter, r *http.Request, id domain.TableID, cmd domain.TableCommand) {
	if _, err := h.tables.Execute(r.Context(), &id, cmd); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, IDResponse{ID: id.String()})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return false
	}
	return true
}

func orderIDParam(w http.ResponseWriter, r *http.Request) (domain.OrderID, bool) {
	id, err := domain.ParseOrderID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return domain.OrderID{}, false
	}
	return id, true
}

func tableIDParam(w http.ResponseWriter, r *http.Request) (domain.TableID, bool) {
	id, err := domain.ParseTableID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return domain.TableID{}, false
	}
	return id, true
}

// statusFor maps a service error to its HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, projection.ErrEmptyHistory), errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrRequiredID), errors.Is(err, service.ErrFormation):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, service.ErrKernel):
		return http.StatusConflict, "rejected"
	case errors.Is(err, service.ErrCorruptHistory):
		return http.StatusInternalServerError, "corrupt_history"
	case errors.Is(err, process.ErrTerminated):
		return http.StatusGone, "terminated"
	case errors.Is(err, service.ErrIO):
		return http.StatusBadGateway, "upstream_unavailable"
	case errors.Is(err, service.ErrProcess):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (h *HTTPHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, "error", err)
	}
	writeError(w, status, code, err.Error())
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
