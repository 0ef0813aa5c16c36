// Package v1 is the HTTP CRUD surface for order management. It is an
// external collaborator of the matching subsystem, not part of it: it
// depends on a narrow OrderService interface so any Repository-compatible
// store can back it without the router knowing the concrete type.
package v1

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/ojo-network/cond-matcher/orders"
	"github.com/ojo-network/cond-matcher/repository"
)

// OrderService is the capability surface the router depends on. It mirrors
// repository.Repository; any Repository implementation satisfies it.
type OrderService interface {
	Create(ctx context.Context, n orders.NewOrder) (orders.Order, error)
	GetByID(ctx context.Context, id string) (orders.Order, error)
	List(ctx context.Context, q repository.ListQuery) ([]orders.Order, error)
	SetStatus(ctx context.Context, id string, status orders.Status) (orders.Order, error)
	Delete(ctx context.Context, id string) error
}

// CreateOrderRequest is the JSON body of POST /orders. Price and Quantity
// are decimal strings; decoding through the wire as strings avoids binary
// float rounding before the value ever reaches math.LegacyDec.
type CreateOrderRequest struct {
	Pair     string `json:"pair"`
	Side     string `json:"side"`
	Price    string `json:"price"`
	Quantity string `json:"quantity"`
}

// SetStatusRequest is the JSON body of PUT /orders/{id}/status.
type SetStatusRequest struct {
	Status string `json:"status"`
}

// OrderResponse is the JSON representation of an orders.Order.
type OrderResponse struct {
	ID        string `json:"id"`
	Pair      string `json:"pair"`
	Side      string `json:"side"`
	Price     string `json:"price"`
	Quantity  string `json:"quantity"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at_ms"`
	UpdatedAt int64  `json:"updated_at_ms"`
}

func toResponse(o orders.Order) OrderResponse {
	return OrderResponse{
		ID:        o.ID,
		Pair:      o.Pair,
		Side:      o.Side.String(),
		Price:     o.Price.String(),
		Quantity:  o.Quantity.String(),
		Status:    o.Status.String(),
		CreatedAt: o.CreatedAt.UnixMilli(),
		UpdatedAt: o.UpdatedAt.UnixMilli(),
	}
}

// writeError maps a repository error onto an HTTP status code: NotFound
// becomes 404, everything else is an internal error. The HTTP boundary is
// the only place repository errors become user-visible.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func (rt *Router) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	price, err := parsePositiveDec(req.Price)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid price: " + err.Error()})
		return
	}
	qty, err := parsePositiveDec(req.Quantity)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid quantity: " + err.Error()})
		return
	}

	side, err := parseSide(req.Side)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if req.Pair == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "pair is required"})
		return
	}

	created, err := rt.svc.Create(r.Context(), orders.NewOrder{
		Pair:     req.Pair,
		Side:     side,
		Price:    price,
		Quantity: qty,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toResponse(created))
}

func (rt *Router) handleListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	query := repository.ListQuery{
		Pair: q.Get("pair"),
	}

	if statusStr := q.Get("status"); statusStr != "" {
		status, err := parseStatus(statusStr)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		query.Status = status
	}
	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		query.Limit = n
	}
	if offset := q.Get("offset"); offset != "" {
		n, err := strconv.Atoi(offset)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid offset"})
			return
		}
		query.Offset = n
	}

	items, err := rt.svc.List(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]OrderResponse, 0, len(items))
	for _, o := range items {
		resp = append(resp, toResponse(o))
	}

	writeJSON(w, http.StatusOK, resp)
}

func (rt *Router) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	o, err := rt.svc.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(o))
}

func (rt *Router) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req SetStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	status, err := parseStatus(req.Status)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	updated, err := rt.svc.SetStatus(r.Context(), id, status)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(updated))
}

func (rt *Router) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := rt.svc.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": StatusAvailable})
}
