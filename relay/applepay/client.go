package applepay

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"golang.org/x/exp/slog"
)

// ErrMalformedURL marks a validation URL that is not a well-formed
// absolute URL. The URL is otherwise opaque and never allowlisted.
var ErrMalformedURL = errors.New("malformed validation URL")

// CertificateError reports a missing or unreadable merchant credential
// file. Path is the path that was attempted, so operators can spot
// deployment misconfiguration from the error alone.
type CertificateError struct {
	Path string
	Err  error
}

func (e *CertificateError) Error() string {
	return fmt.Sprintf("merchant certificate not found: %s: %v", e.Path, e.Err)
}

func (e *CertificateError) Unwrap() error { return e.Err }

// StatusError reports a non-200 answer from the validation endpoint,
// carrying the raw body for diagnostics.
type StatusError struct {
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("merchant validation status=%d body=%s", e.Status, e.Body)
}

// Client performs the merchant validation handshake: a mutual-TLS POST of
// the merchant identity to an Apple-issued one-time URL. The certificate
// and key are read fresh on every call; nothing is cached.
type Client struct {
	certPath    string
	keyPath     string
	merchantID  string
	displayName string
	timeout     time.Duration
	logger      *slog.Logger
}

func NewClient(logger *slog.Logger, certPath, keyPath, merchantID, displayName string) *Client {
	return &Client{
		certPath:    certPath,
		keyPath:     keyPath,
		merchantID:  merchantID,
		displayName: displayName,
		timeout:     10 * time.Second,
		logger:      logger.With(slog.String("component", "applepay")),
	}
}

type validationBody struct {
	MerchantIdentifier string `json:"merchantIdentifier"`
	DomainName         string `json:"domainName"`
	DisplayName        string `json:"displayName"`
}

// ValidateMerchant posts the merchant identity to validationURL and returns
// the session object byte-for-byte. The URL is opaque and supplied by the
// wallet provider per attempt; it is only checked for well-formedness.
// domainName is the host the relay was invoked on, not a configured value.
func (c *Client) ValidateMerchant(ctx context.Context, validationURL, domainName string) (json.RawMessage, error) {
	u, err := url.Parse(validationURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrMalformedURL, validationURL)
	}

	certPEM, err := os.ReadFile(c.certPath)
	if err != nil {
		return nil, &CertificateError{Path: c.certPath, Err: err}
	}
	keyPEM, err := os.ReadFile(c.keyPath)
	if err != nil {
		return nil, &CertificateError{Path: c.keyPath, Err: err}
	}
	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, &CertificateError{Path: c.certPath, Err: fmt.Errorf("parsing key pair: %w", err)}
	}

	body, err := json.Marshal(validationBody{
		MerchantIdentifier: c.merchantID,
		DomainName:         domainName,
		DisplayName:        c.displayName,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling validation body: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, validationURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building validation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	hc := &http.Client{
		Timeout: c.timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				Certificates: []tls.Certificate{cert},
				MinVersion:   tls.VersionTLS12,
			},
		},
	}

	c.logger.Info("validating merchant", slog.String("host", u.Host), slog.String("domain", domainName))

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("posting merchant validation: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading validation response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Status: resp.StatusCode, Body: raw}
	}
	if !json.Valid(raw) {
		return nil, &StatusError{Status: resp.StatusCode, Body: raw}
	}

	return json.RawMessage(raw), nil
}
