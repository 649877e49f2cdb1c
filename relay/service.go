package relay

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"golang.org/x/exp/slog"

	"github.com/rafinno25/applepay-poc/relay/applepay"
	"github.com/rafinno25/applepay-poc/relay/authorizenet"
	"github.com/rafinno25/applepay-poc/relay/models"
)

// OpaqueDataDescriptor identifies the Apple Pay in-app encryption scheme to
// the gateway.
const OpaqueDataDescriptor = "COMMON.APPLE.INAPP.PAYMENT"

// gatewayFieldLimit is the gateway's maximum length for refId, invoice
// number and customer id.
const gatewayFieldLimit = 20

const gatewayTimeout = 30 * time.Second

// MerchantValidator performs the mutual-TLS handshake with the wallet
// provider.
type MerchantValidator interface {
	ValidateMerchant(ctx context.Context, validationURL, domainName string) (json.RawMessage, error)
}

// GatewayClient posts transaction requests to the payment gateway.
type GatewayClient interface {
	CreateTransaction(ctx context.Context, req *authorizenet.TransactionRequest) (authorizenet.Response, error)
}

// Service glues the two halves of the relay together: merchant validation
// against the wallet provider and token translation into gateway
// transactions.
type Service struct {
	cfg       *Config
	validator MerchantValidator
	gateway   GatewayClient
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(logger *slog.Logger, cfg *Config, validator MerchantValidator, gateway GatewayClient) *Service {
	return &Service{
		cfg:       cfg,
		validator: validator,
		gateway:   gateway,
		logger:    logger.With(slog.String("component", "relay")),
		now:       time.Now,
	}
}

// Validate relays a merchant validation request. The returned session
// object is passed through untouched. domainName is the host this
// invocation arrived on.
func (s *Service) Validate(ctx context.Context, validationURL, domainName string) (json.RawMessage, error) {
	if validationURL == "" {
		return nil, NewValidationError(FieldError{Field: "validationURL", Message: "is required"})
	}

	session, err := s.validator.ValidateMerchant(ctx, validationURL, domainName)
	if err != nil {
		return nil, s.classifyValidationFailure(err)
	}

	s.logger.Info("merchant validated", slog.String("domain", domainName))
	return session, nil
}

func (s *Service) classifyValidationFailure(err error) *RelayError {
	var certErr *applepay.CertificateError
	if errors.As(err, &certErr) {
		return NewCertificateError(certErr.Path, certErr)
	}
	if errors.Is(err, applepay.ErrMalformedURL) {
		return NewValidationError(FieldError{Field: "validationURL", Message: "must be a well-formed URL"})
	}
	var statusErr *applepay.StatusError
	if errors.As(err, &statusErr) {
		relayErr := &RelayError{
			Kind:    KindGatewayError,
			Message: "merchant validation rejected by wallet provider",
			Detail:  statusErr.Error(),
			cause:   statusErr,
		}
		if statusErr.Status == 200 {
			relayErr.Message = "merchant validation returned an unparseable session"
		}
		return relayErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewNetworkError("merchant validation timed out", err)
	}
	return NewNetworkError("merchant validation failed", err)
}

// Process translates a sealed payment token into a gateway transaction and
// normalizes the outcome.
func (s *Service) Process(ctx context.Context, req *models.ProcessRequest) (*models.ProcessResponse, error) {
	if err := validateProcessRequest(req); err != nil {
		return nil, err
	}

	dataValue, err := encodeOpaqueData(req.PaymentToken.PaymentData)
	if err != nil {
		return nil, &RelayError{Kind: KindUnknown, Message: "encoding payment token", cause: err}
	}

	order := req.OrderInfo
	if order == nil {
		order = &models.OrderInfo{}
	}
	reference := order.InvoiceNumber
	if reference == "" {
		reference = fmt.Sprintf("APL%d", s.now().Unix())
	}
	description := order.Description
	if description == "" {
		description = "Apple Pay transaction"
	}

	txReq := &authorizenet.TransactionRequest{
		MerchantAuthentication: authorizenet.MerchantAuthentication{
			Name:           s.cfg.APILoginID,
			TransactionKey: s.cfg.TransactionKey,
		},
		RefID: truncate(reference, gatewayFieldLimit),
		Transaction: authorizenet.Transaction{
			TransactionType: authorizenet.TransactionTypeAuthCapture,
			Amount:          fmt.Sprintf("%.2f", req.Amount),
			Payment: authorizenet.Payment{
				OpaqueData: authorizenet.OpaqueData{
					DataDescriptor: OpaqueDataDescriptor,
					DataValue:      dataValue,
				},
			},
			Order: &authorizenet.Order{
				InvoiceNumber: truncate(reference, gatewayFieldLimit),
				Description:   description,
			},
			Customer: &authorizenet.Customer{
				// Possibly lossy for long user ids; callers still get a
				// recognizable prefix.
				ID:    truncate(req.UserID, gatewayFieldLimit),
				Email: order.CustomerEmail,
			},
		},
	}

	ctx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()

	resp, err := s.gateway.CreateTransaction(ctx, txReq)
	if err != nil {
		// The partial response, if any, was already parsed by the
		// transport so its diagnostics survive.
		return nil, &RelayError{
			Kind:    KindNetwork,
			Message: "gateway request failed",
			Gateway: toGatewayMessages(resp.AllMessages()),
			cause:   err,
		}
	}

	if !resp.OK() {
		return nil, NewGatewayError("gateway rejected transaction", toGatewayMessages(resp.AllMessages()))
	}
	if !resp.Approved() {
		return nil, NewDeclinedError(toGatewayMessages(resp.Errors))
	}

	s.logger.Info("transaction approved",
		slog.String("transId", resp.TransID),
		slog.String("authCode", resp.AuthCode),
		slog.Float64("amount", req.Amount))

	return &models.ProcessResponse{
		Success: true,
		Transaction: models.Transaction{
			ID:           resp.TransID,
			AuthCode:     resp.AuthCode,
			Amount:       req.Amount,
			Status:       "approved",
			ResponseCode: resp.ResponseCode,
		},
		Details: "Transaction approved by Authorize.Net",
	}, nil
}

// validateProcessRequest collects every violated field, not just the first.
func validateProcessRequest(req *models.ProcessRequest) error {
	var fields []FieldError
	switch {
	case req.PaymentToken == nil:
		fields = append(fields, FieldError{Field: "paymentToken", Message: "is required"})
	case req.PaymentToken.PaymentData == nil:
		fields = append(fields, FieldError{Field: "paymentToken.paymentData", Message: "is required"})
	}
	if req.Amount <= 0 || math.IsNaN(req.Amount) || math.IsInf(req.Amount, 0) {
		fields = append(fields, FieldError{Field: "amount", Message: "must be a positive number"})
	}
	if req.UserID == "" {
		fields = append(fields, FieldError{Field: "userId", Message: "is required"})
	}
	if len(fields) > 0 {
		return NewValidationError(fields...)
	}
	return nil
}

// encodeOpaqueData serializes the whole paymentData object and base64s it.
// The gateway needs header, signature and version alongside data to
// decrypt, so encoding only the data field would break decryption.
func encodeOpaqueData(data *models.PaymentData) (string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("marshaling paymentData: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func toGatewayMessages(msgs []authorizenet.Message) []GatewayMessage {
	out := make([]GatewayMessage, len(msgs))
	for i, m := range msgs {
		out[i] = GatewayMessage{Code: m.Code, Text: m.Text}
	}
	return out
}
