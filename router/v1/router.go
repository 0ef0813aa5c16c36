package v1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"cosmossdk.io/math"
	"github.com/gorilla/mux"
	"github.com/justinas/alice"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/ojo-network/cond-matcher/orders"
)

const (
	// APIPathPrefix is mounted in front of every route this router serves.
	APIPathPrefix = "/api/v1"

	// StatusAvailable is the body of a healthy /healthz response.
	StatusAvailable = "available"
)

// Router wires OrderService onto an HTTP mux. It is a thin collaborator
// around the matching subsystem, not part of it.
type Router struct {
	logger zerolog.Logger
	svc    OrderService

	allowedOrigins []string
	verboseCORS    bool
}

// New returns a Router serving svc, with CORS configured from allowedOrigins.
func New(logger zerolog.Logger, svc OrderService, allowedOrigins []string, verboseCORS bool) *Router {
	return &Router{
		logger:         logger.With().Str("module", "router").Logger(),
		svc:            svc,
		allowedOrigins: allowedOrigins,
		verboseCORS:    verboseCORS,
	}
}

// RegisterRoutes mounts every handler under pathPrefix on r.
func (rt *Router) RegisterRoutes(r *mux.Router, pathPrefix string) {
	corsOpts := cors.New(cors.Options{
		AllowedOrigins: rt.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		Debug:          rt.verboseCORS,
	})

	chain := alice.New(corsOpts.Handler, rt.loggingMiddleware)

	sub := r.PathPrefix(pathPrefix).Subrouter()

	sub.Handle("/healthz", chain.ThenFunc(rt.handleHealthz)).Methods(http.MethodGet)

	sub.Handle("/orders", chain.ThenFunc(rt.handleCreateOrder)).Methods(http.MethodPost)
	sub.Handle("/orders", chain.ThenFunc(rt.handleListOrders)).Methods(http.MethodGet)
	sub.Handle("/orders/{id}", chain.ThenFunc(rt.handleGetOrder)).Methods(http.MethodGet)
	sub.Handle("/orders/{id}/status", chain.ThenFunc(rt.handleSetStatus)).Methods(http.MethodPut)
	sub.Handle("/orders/{id}", chain.ThenFunc(rt.handleDeleteOrder)).Methods(http.MethodDelete)
}

func (rt *Router) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		rt.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("handled request")
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func parsePositiveDec(s string) (math.LegacyDec, error) {
	d, err := math.LegacyNewDecFromStr(s)
	if err != nil {
		return math.LegacyDec{}, err
	}
	if !d.IsPositive() {
		return math.LegacyDec{}, fmt.Errorf("must be strictly positive")
	}
	return d, nil
}

func parseStatus(s string) (orders.Status, error) {
	switch orders.Status(s) {
	case orders.StatusNew, orders.StatusOpen, orders.StatusPartiallyFilled,
		orders.StatusFilled, orders.StatusCancelled:
		return orders.Status(s), nil
	default:
		return "", fmt.Errorf("invalid status %q", s)
	}
}

func parseSide(s string) (orders.Side, error) {
	switch orders.Side(s) {
	case orders.SideBuy:
		return orders.SideBuy, nil
	case orders.SideSell:
		return orders.SideSell, nil
	default:
		return "", fmt.Errorf("invalid side %q", s)
	}
}
