package relay

import (
	"fmt"
	"strings"
)

// ErrorKind tags a failure for the caller: validation and certificate
// problems are not retryable, network problems are, a decline means the
// gateway understood us and said no.
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindCertificate  ErrorKind = "certificate"
	KindNetwork      ErrorKind = "network"
	KindDeclined     ErrorKind = "gateway_declined"
	KindGatewayError ErrorKind = "gateway_error"
	KindUnknown      ErrorKind = "unknown"
)

// FieldError reports one violated input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// GatewayMessage is one (code, text) pair extracted from a gateway response,
// envelope-level or transaction-level.
type GatewayMessage struct {
	Code string `json:"code"`
	Text string `json:"text"`
}

// RelayError is the single error shape crossing the relay/translator
// boundary. Detail carries upstream status lines, attempted file paths and
// similar diagnostics; it is only exposed to callers in development mode.
type RelayError struct {
	Kind    ErrorKind
	Message string
	Fields  []FieldError
	Gateway []GatewayMessage
	Detail  string
	cause   error
}

func (e *RelayError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *RelayError) Unwrap() error { return e.cause }

// HTTPStatus maps the taxonomy onto response codes.
func (e *RelayError) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return 400
	case KindDeclined:
		return 402
	case KindCertificate:
		return 500
	case KindNetwork:
		return 502
	case KindGatewayError:
		return 502
	default:
		return 500
	}
}

func NewValidationError(fields ...FieldError) *RelayError {
	msgs := make([]string, len(fields))
	for i, f := range fields {
		msgs[i] = f.Field + ": " + f.Message
	}
	return &RelayError{
		Kind:    KindValidation,
		Message: "invalid request: " + strings.Join(msgs, "; "),
		Fields:  fields,
	}
}

func NewCertificateError(path string, err error) *RelayError {
	return &RelayError{
		Kind:    KindCertificate,
		Message: "merchant certificate not found or unreadable",
		Detail:  "path: " + path,
		cause:   err,
	}
}

func NewNetworkError(msg string, err error) *RelayError {
	return &RelayError{
		Kind:    KindNetwork,
		Message: msg,
		cause:   err,
	}
}

func NewDeclinedError(msgs []GatewayMessage) *RelayError {
	return &RelayError{
		Kind:    KindDeclined,
		Message: "transaction declined: " + joinGatewayMessages(msgs),
		Gateway: msgs,
	}
}

func NewGatewayError(msg string, msgs []GatewayMessage) *RelayError {
	return &RelayError{
		Kind:    KindGatewayError,
		Message: msg + ": " + joinGatewayMessages(msgs),
		Gateway: msgs,
	}
}

func joinGatewayMessages(msgs []GatewayMessage) string {
	if len(msgs) == 0 {
		return "no details provided"
	}
	parts := make([]string, len(msgs))
	for i, m := range msgs {
		parts[i] = fmt.Sprintf("[%s] %s", m.Code, m.Text)
	}
	return strings.Join(parts, ", ")
}
