package relay

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/exp/slog"

	"github.com/rafinno25/applepay-poc/internal/metrics"
	"github.com/rafinno25/applepay-poc/relay/models"
)

// API is the HTTP surface of the relay service.
type API struct {
	service *Service
	cfg     *Config
	logger  *slog.Logger
	started time.Time
}

func NewAPI(logger *slog.Logger, cfg *Config, service *Service) *API {
	return &API{
		service: service,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "api")),
		started: time.Now(),
	}
}

func (a *API) AppendRoutes(r chi.Router) {
	r.Get("/config", a.getConfig)
	r.Post("/validate", a.validateMerchant)
	r.Post("/process", a.processPayment)
	r.Post("/webhook", a.webhook)
	r.Get("/health", a.health)
}

func (a *API) getConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"merchantId":    a.cfg.MerchantID,
		"paymentAmount": a.cfg.DefaultPaymentAmount,
	})
}

func (a *API) validateMerchant(w http.ResponseWriter, r *http.Request) {
	var req models.ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, NewValidationError(FieldError{Field: "body", Message: "must be valid JSON"}))
		return
	}

	session, err := a.service.Validate(r.Context(), req.ValidationURL, requestDomain(r))
	if err != nil {
		a.writeError(w, err)
		return
	}

	metrics.ValidationsTotal.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, models.ValidateResponse{
		Success:         true,
		MerchantSession: session,
	})
}

func (a *API) processPayment(w http.ResponseWriter, r *http.Request) {
	var req models.ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, NewValidationError(FieldError{Field: "body", Message: "must be valid JSON"}))
		return
	}

	resp, err := a.service.Process(r.Context(), &req)
	if err != nil {
		a.writeError(w, err)
		return
	}

	metrics.TransactionsTotal.WithLabelValues("approved").Inc()
	writeJSON(w, http.StatusOK, resp)
}

// webhook acknowledges every gateway notification with 200 so the sender
// never enters a retry storm. Signatures are logged but not verified.
func (a *API) webhook(w http.ResponseWriter, r *http.Request) {
	var event struct {
		EventType string `json:"eventType"`
	}
	// Malformed bodies are still acknowledged.
	_ = json.NewDecoder(r.Body).Decode(&event)

	attrs := []interface{}{slog.String("eventType", event.EventType)}
	if a.cfg.WebhookSignatureKey != "" {
		attrs = append(attrs, slog.Bool("signed", r.Header.Get("X-ANET-Signature") != ""))
	}
	a.logger.Info("webhook received", attrs...)

	writeJSON(w, http.StatusOK, map[string]interface{}{"received": true})
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(a.started).Seconds(),
	})
}

type errorBody struct {
	Type    ErrorKind        `json:"type"`
	Message string           `json:"message"`
	Errors  []FieldError     `json:"errors,omitempty"`
	Gateway []GatewayMessage `json:"gatewayMessages,omitempty"`
	Detail  string           `json:"detail,omitempty"`
}

type errorEnvelope struct {
	Success bool      `json:"success"`
	Error   errorBody `json:"error"`
}

// writeError renders any failure as the one stable error envelope. Internal
// detail is only included in development mode.
func (a *API) writeError(w http.ResponseWriter, err error) {
	relayErr := &RelayError{Kind: KindUnknown, Message: "internal error", cause: err}
	var re *RelayError
	if errors.As(err, &re) {
		relayErr = re
	}

	a.logger.Error("request failed", slog.String("kind", string(relayErr.Kind)), slog.Any("err", err))
	metrics.RelayErrorsTotal.WithLabelValues(string(relayErr.Kind)).Inc()

	body := errorBody{
		Type:    relayErr.Kind,
		Message: relayErr.Message,
		Errors:  relayErr.Fields,
		Gateway: relayErr.Gateway,
	}
	if a.cfg.Development() {
		body.Detail = relayErr.Detail
	}

	writeJSON(w, relayErr.HTTPStatus(), errorEnvelope{Success: false, Error: body})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// requestDomain extracts the host the relay was invoked on; Apple expects
// it without a port.
func requestDomain(r *http.Request) string {
	host := r.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}
