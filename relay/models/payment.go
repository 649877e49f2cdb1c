package models

import "encoding/json"

// PaymentDataHeader carries the key material the gateway needs to decrypt
// the sealed payload. All three fields must survive re-encoding.
type PaymentDataHeader struct {
	PublicKeyHash      string `json:"publicKeyHash,omitempty"`
	EphemeralPublicKey string `json:"ephemeralPublicKey,omitempty"`
	TransactionID      string `json:"transactionId,omitempty"`
}

// PaymentData is the encrypted payload of an Apple Pay token. The gateway
// decrypts it with data, signature, header and version together; shipping
// only the data field produces an undecryptable payload.
type PaymentData struct {
	Data      string            `json:"data"`
	Signature string            `json:"signature,omitempty"`
	Header    PaymentDataHeader `json:"header"`
	Version   string            `json:"version,omitempty"`
}

// PaymentMethod is descriptive card metadata attached to the token.
type PaymentMethod struct {
	DisplayName string `json:"displayName,omitempty"`
	Network     string `json:"network,omitempty"`
	Type        string `json:"type,omitempty"`
}

// SealedPaymentToken is the single-use credential produced by the wallet
// for one transaction attempt.
type SealedPaymentToken struct {
	PaymentData           *PaymentData  `json:"paymentData"`
	PaymentMethod         PaymentMethod `json:"paymentMethod,omitempty"`
	TransactionIdentifier string        `json:"transactionIdentifier,omitempty"`
}

// OrderInfo is optional caller-supplied order metadata.
type OrderInfo struct {
	InvoiceNumber string `json:"invoiceNumber,omitempty"`
	Description   string `json:"description,omitempty"`
	CustomerEmail string `json:"customerEmail,omitempty"`
}

// ValidateRequest drives the merchant validation relay.
type ValidateRequest struct {
	ValidationURL string `json:"validationURL"`
}

// ValidateResponse returns the Apple-issued merchant session verbatim.
// MerchantSession is kept as raw JSON so no field is reinterpreted or
// reordered on the way through.
type ValidateResponse struct {
	Success         bool            `json:"success"`
	MerchantSession json.RawMessage `json:"merchantSession"`
}

// ProcessRequest drives the payment token translator.
type ProcessRequest struct {
	PaymentToken *SealedPaymentToken `json:"paymentToken"`
	Amount       float64             `json:"amount"`
	UserID       string              `json:"userId"`
	OrderInfo    *OrderInfo          `json:"orderInfo,omitempty"`
}

// ProcessResponse is the success shape for a settled authorization.
type ProcessResponse struct {
	Success     bool        `json:"success"`
	Transaction Transaction `json:"transaction"`
	Details     string      `json:"details,omitempty"`
}

// Transaction is the normalized gateway outcome exposed to callers.
type Transaction struct {
	ID           string  `json:"id"`
	AuthCode     string  `json:"authCode"`
	Amount       float64 `json:"amount"`
	Status       string  `json:"status"`
	ResponseCode string  `json:"responseCode"`
}
