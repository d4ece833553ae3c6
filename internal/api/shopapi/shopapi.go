package shopapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ZenGummies/ShopBox/internal/apperr"
	"github.com/ZenGummies/ShopBox/internal/auth"
	"github.com/ZenGummies/ShopBox/internal/models"
	"github.com/ZenGummies/ShopBox/internal/services/orders"
	"github.com/ZenGummies/ShopBox/internal/services/tracking"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// Seeder provisions the operator account. Seeding is idempotent so the
// endpoint can be hit on every deploy.
type Seeder interface {
	EnsureAdminUser(ctx context.Context, email, name string) (*models.User, bool, error)
}

// Diagnostics reports which integrations are configured. Booleans only;
// secret values never leave the process.
type Diagnostics struct {
	DBConfigured    bool `json:"dbConfigured"`
	RedisConfigured bool `json:"redisConfigured"`
	KafkaConfigured bool `json:"kafkaConfigured"`
	PixelConfigured bool `json:"pixelConfigured"`
	CAPIConfigured  bool `json:"capiConfigured"`
	PushConfigured  bool `json:"pushConfigured"`
}

type API struct {
	orders     *orders.Service
	tracking   *tracking.Service
	gate       *auth.Gate
	sessions   *auth.Sessions
	seeder     Seeder
	diag       Diagnostics
	adminEmail string
	adminName  string
	validate   *validator.Validate
}

func New(
	ordersSvc *orders.Service,
	trackingSvc *tracking.Service,
	gate *auth.Gate,
	sessions *auth.Sessions,
	seeder Seeder,
	diag Diagnostics,
	adminEmail, adminName string,
) *API {
	return &API{
		orders:     ordersSvc,
		tracking:   trackingSvc,
		gate:       gate,
		sessions:   sessions,
		seeder:     seeder,
		diag:       diag,
		adminEmail: adminEmail,
		adminName:  adminName,
		validate:   validator.New(),
	}
}

func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", a.handleLogin)
		r.Post("/orders", a.handleCreateOrder)
		r.Post("/tracking-events", a.handleTrackingEvent)
		r.Post("/seed/admin", a.handleSeedAdmin)
		r.Get("/diagnostics", a.handleDiagnostics)

		r.Group(func(r chi.Router) {
			r.Use(a.requireAdmin)
			r.Get("/orders", a.handleListOrders)
			r.Get("/orders/summary", a.handleOrdersSummary)
			r.Put("/orders/{id}", a.handleUpdateOrder)
			r.Delete("/orders/{id}", a.handleDeleteOrder)
			r.Post("/notifications/test", a.handleTestNotification)
		})
	})

	return r
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !a.decodeValid(w, r, &req) {
		return
	}

	u, err := a.gate.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	token, err := a.sessions.Issue(u.Email, u.Role)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"role":  u.Role,
	})
}

func (a *API) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if !a.decodeValid(w, r, &req) {
		return
	}

	o, err := a.orders.Create(r.Context(), models.OrderCreateInput{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Bundle:     req.Bundle,
		BundleName: req.BundleName,
		Price:      req.Price,
		Gummies:    req.Gummies,
		Days:       req.Days,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"order":   toOrderJSON(o),
	})
}

func (a *API) handleListOrders(w http.ResponseWriter, r *http.Request) {
	list, err := a.orders.List(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"orders": toOrderListJSON(list),
	})
}

func (a *API) handleOrdersSummary(w http.ResponseWriter, r *http.Request) {
	list, err := a.orders.List(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders.Summarize(list, time.Now()))
}

func (a *API) handleUpdateOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req updateOrderRequest
	if !a.decodeValid(w, r, &req) {
		return
	}

	var patch models.OrderPatch
	if req.Status != nil {
		st := models.OrderStatus(*req.Status)
		patch.Status = &st
	}
	patch.Notes = req.Notes

	o, err := a.orders.Update(r.Context(), id, patch)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"order":   toOrderJSON(o),
	})
}

func (a *API) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := a.orders.Delete(r.Context(), id); err != nil {
		writeAppError(w, err)
		return
	}
	if c, ok := claimsFromContext(r.Context()); ok {
		slog.Info("order deleted", "id", id, "by", c.Email)
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (a *API) handleTrackingEvent(w http.ResponseWriter, r *http.Request) {
	var req trackingEventRequest
	if !a.decodeValid(w, r, &req) {
		return
	}

	in := req.toRelayInput()
	// Fill the technical fields from the request itself when the client
	// did not send them. PII is never inferred this way.
	if in.UserData.ClientIPAddress == "" {
		in.UserData.ClientIPAddress = clientIP(r)
	}
	if in.UserData.ClientUserAgent == "" {
		in.UserData.ClientUserAgent = r.UserAgent()
	}

	ev, err := a.tracking.Relay(r.Context(), in)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"eventId": ev.EventID,
	})
}

func (a *API) handleTestNotification(w http.ResponseWriter, r *http.Request) {
	if err := a.orders.EnqueueTestPush(r.Context()); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (a *API) handleSeedAdmin(w http.ResponseWriter, r *http.Request) {
	u, created, err := a.seeder.EnsureAdminUser(r.Context(), a.adminEmail, a.adminName)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"created": created,
		"email":   u.Email,
	})
}

func (a *API) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.diag)
}

// decodeValid decodes the JSON body into dst and runs struct validation.
// On failure it writes the 400 itself and returns false.
func (a *API) decodeValid(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := a.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		f := verrs[0]
		if f.Tag() == "email" {
			return "invalid email address"
		}
		name := f.Field()
		return strings.ToLower(name[:1]) + name[1:] + " is required"
	}
	return "invalid request"
}

func parseID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return 0, false
	}
	return id, true
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   msg,
	})
}

// writeAppError maps service errors to HTTP. Internal detail goes to the
// log; the client sees only the public message.
func writeAppError(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "error", err.Error())
	}
	writeError(w, status, apperr.PublicMessage(err))
}
