package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/vogiaan1904/ticketbottle-concert/internal/delivery"
	"github.com/vogiaan1904/ticketbottle-concert/internal/service"
	pkgErrors "github.com/vogiaan1904/ticketbottle-concert/pkg/errors"
	"github.com/vogiaan1904/ticketbottle-concert/pkg/logger"
	"github.com/vogiaan1904/ticketbottle-concert/pkg/metrics"
	"github.com/vogiaan1904/ticketbottle-concert/pkg/response"
)

const tokenHeader = "X-Queue-Token"

type HTTPHandler struct {
	tokens    service.TokenService
	bookings  service.BookingService
	scheduler service.QueueScheduler
	metrics   *metrics.Metrics
	l         logger.Logger
	validator *validator.Validate
}

func NewHTTPHandler(
	tokens service.TokenService,
	bookings service.BookingService,
	scheduler service.QueueScheduler,
	m *metrics.Metrics,
	l logger.Logger,
) *HTTPHandler {
	return &HTTPHandler{
		tokens:    tokens,
		bookings:  bookings,
		scheduler: scheduler,
		metrics:   m,
		l:         l,
		validator: newValidator(),
	}
}

func (h *HTTPHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.HealthCheck)
	r.Handle("/metrics", h.metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/tokens", h.IssueToken)
		r.Get("/tokens/{token}", h.GetTokenStatus)
		r.Post("/tokens/{token}/complete", h.CompleteToken)

		r.Get("/queue", h.GetQueueInfo)
		r.Get("/queue/scheduler", h.GetSchedulerStatus)

		r.Get("/users/{userId}/balance", h.GetBalance)
		r.Post("/users/{userId}/balance", h.ChargeBalance)

		r.Post("/seats/{seatId}/reserve", h.ReserveSeat)
		r.Post("/reservations/{reservationId}/pay", h.Pay)
		r.Post("/reservations/{reservationId}/cancel", h.CancelReservation)
	})

	return r
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, r, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": "concert-service",
	})
}

func (h *HTTPHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req issueTokenRequest
	if !h.decode(w, r, &req) {
		return
	}

	out, err := h.tokens.Issue(r.Context(), req.UserID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusCreated, out)
}

func (h *HTTPHandler) GetTokenStatus(w http.ResponseWriter, r *http.Request) {
	out, err := h.tokens.Status(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, out)
}

func (h *HTTPHandler) CompleteToken(w http.ResponseWriter, r *http.Request) {
	tok := chi.URLParam(r, "token")
	if err := h.tokens.Complete(r.Context(), tok); err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, map[string]string{"token": tok})
}

func (h *HTTPHandler) GetQueueInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.tokens.QueueInfo(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, info)
}

func (h *HTTPHandler) GetSchedulerStatus(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, r, http.StatusOK, h.scheduler.GetStatus())
}

func (h *HTTPHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	bal, err := h.bookings.GetBalance(r.Context(), userID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, balanceResponse{UserID: userID, Balance: bal})
}

func (h *HTTPHandler) ChargeBalance(w http.ResponseWriter, r *http.Request) {
	var req chargeBalanceRequest
	if !h.decode(w, r, &req) {
		return
	}

	userID := chi.URLParam(r, "userId")
	bal, err := h.bookings.ChargeBalance(r.Context(), userID, req.Amount)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, balanceResponse{UserID: userID, Balance: bal})
}

func (h *HTTPHandler) ReserveSeat(w http.ResponseWriter, r *http.Request) {
	tok, ok := h.queueToken(w, r)
	if !ok {
		return
	}

	var req reserveSeatRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.bookings.ReserveSeat(r.Context(), service.ReserveSeatInput{
		Token:  tok,
		SeatID: chi.URLParam(r, "seatId"),
		Price:  req.Price,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusCreated, res)
}

func (h *HTTPHandler) Pay(w http.ResponseWriter, r *http.Request) {
	tok, ok := h.queueToken(w, r)
	if !ok {
		return
	}

	p, err := h.bookings.Pay(r.Context(), service.PayInput{
		Token:         tok,
		ReservationID: chi.URLParam(r, "reservationId"),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, p)
}

func (h *HTTPHandler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	tok, ok := h.queueToken(w, r)
	if !ok {
		return
	}

	res, err := h.bookings.CancelReservation(r.Context(), service.CancelReservationInput{
		Token:         tok,
		ReservationID: chi.URLParam(r, "reservationId"),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, res)
}

// Helper functions

// queueToken reads the caller's queue token from X-Queue-Token or a bearer
// Authorization header.
func (h *HTTPHandler) queueToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	tok := strings.TrimSpace(r.Header.Get(tokenHeader))
	if tok == "" {
		if v, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
			tok = strings.TrimSpace(v)
		}
	}
	if tok == "" {
		h.respondError(w, r, delivery.ErrMissingToken)
		return "", false
	}
	return tok, true
}

func (h *HTTPHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.respondError(w, r, delivery.InvalidRequest("Invalid request body"))
		return false
	}

	if err := h.validator.Struct(v); err != nil {
		h.respondError(w, r, delivery.InvalidRequest(validationMessage(err)))
		return false
	}

	return true
}

func (h *HTTPHandler) respondJSON(w http.ResponseWriter, r *http.Request, statusCode int, data any) {
	if err := response.OK(w, statusCode, data); err != nil {
		h.l.Errorf(r.Context(), "delivery.http.respondJSON: %v", err)
	}
}

func (h *HTTPHandler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	be, ok := err.(*pkgErrors.BusinessError)
	if !ok {
		be = delivery.MapError(err)
	}

	var out error = err
	if be != nil {
		h.l.Debugf(r.Context(), "delivery.http.respondError: %s %s: %v", r.Method, r.URL.Path, err)
		out = be.HTTP()
	} else {
		h.l.Errorf(r.Context(), "delivery.http.respondError: %s %s: %v", r.Method, r.URL.Path, err)
	}

	if werr := response.Error(w, out); werr != nil {
		h.l.Errorf(r.Context(), "delivery.http.respondError: %v", werr)
	}
}
