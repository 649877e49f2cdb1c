package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"github.com/rafinno25/applepay-poc/relay/models"
)

// guardTimeout bounds how long the re-entrancy guard stays set when the
// wallet never delivers a validation callback. Without it a stuck attempt
// would block retries forever.
const guardTimeout = 2000 * time.Millisecond

var (
	ErrMissingUserID      = errors.New("userId is required")
	ErrMissingMerchantID  = errors.New("merchantId is required")
	ErrInitiationInFlight = errors.New("a payment attempt is already initiating")
	ErrNoActiveSession    = errors.New("no active payment session")
	ErrValidationNotDone  = errors.New("authorization before merchant validation")
)

// WalletSession is the wallet runtime's handle for one payment attempt.
type WalletSession interface {
	Begin() error
	Abort() error
	CompleteValidation(merchantSession json.RawMessage) error
	CompletePayment(success bool) error
}

// Wallet creates wallet sessions from payment attempts.
type Wallet interface {
	NewSession(s *Session) (WalletSession, error)
}

// Backend is the relay backend the controller talks to.
type Backend interface {
	Validate(ctx context.Context, validationURL string) (json.RawMessage, error)
	Process(ctx context.Context, token *models.SealedPaymentToken, amount float64, userID string) error
}

// Controller drives one payment attempt from user intent to a terminal
// outcome, enforcing single-flight semantics. Wallet callbacks arrive as
// Handle* calls; each checks the current state before acting, so a stray
// callback after teardown is a no-op error rather than a crash.
type Controller struct {
	mu sync.Mutex

	wallet  Wallet
	backend Backend
	logger  *slog.Logger

	session       *Session
	walletSession WalletSession

	initiating bool
	guard      *time.Timer
	guardAfter time.Duration

	CurrencyCode      string
	CountryCode       string
	SupportedNetworks []string
}

func NewController(logger *slog.Logger, wallet Wallet, backend Backend) *Controller {
	return &Controller{
		wallet:            wallet,
		backend:           backend,
		logger:            logger.With(slog.String("component", "session")),
		guardAfter:        guardTimeout,
		CurrencyCode:      "USD",
		CountryCode:       "US",
		SupportedNetworks: []string{"visa", "masterCard", "amex", "discover"},
	}
}

// Initiate starts a new payment attempt. Precondition failures return
// before anything is contacted. An existing non-terminal session is torn
// down first; aborting it is best-effort.
func (c *Controller) Initiate(userID string, amount float64, merchantID string) error {
	if userID == "" {
		return ErrMissingUserID
	}
	if merchantID == "" {
		return ErrMissingMerchantID
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initiating {
		return ErrInitiationInFlight
	}
	if c.session != nil && !c.session.Status.Terminal() {
		c.logger.Info("tearing down previous session", slog.String("id", c.session.ID))
		c.teardownLocked()
	}

	c.initiating = true
	c.guard = time.AfterFunc(c.guardAfter, c.guardExpired)

	s := &Session{
		ID:                 uuid.New().String(),
		UserID:             userID,
		MerchantIdentifier: merchantID,
		Amount:             amount,
		CurrencyCode:       c.CurrencyCode,
		CountryCode:        c.CountryCode,
		SupportedNetworks:  c.SupportedNetworks,
		Status:             StatusInitiating,
	}

	ws, err := c.wallet.NewSession(s)
	if err != nil {
		c.failLocked()
		return fmt.Errorf("creating wallet session: %w", err)
	}
	c.session = s
	c.walletSession = ws

	if err := ws.Begin(); err != nil {
		c.failLocked()
		return fmt.Errorf("beginning wallet session: %w", err)
	}

	c.logger.Info("payment attempt started",
		slog.String("id", s.ID),
		slog.String("user", userID),
		slog.Float64("amount", amount))

	return nil
}

// HandleValidateMerchant is the wallet's merchant-validation callback. It
// calls the backend exactly once per invocation and forwards the opaque
// session object back into the wallet.
func (c *Controller) HandleValidateMerchant(ctx context.Context, validationURL string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil || c.session.Status != StatusInitiating {
		return ErrNoActiveSession
	}

	c.clearGuardLocked()
	c.session.Status = StatusValidating

	merchantSession, err := c.backend.Validate(ctx, validationURL)
	if err != nil {
		c.failLocked()
		return fmt.Errorf("validating merchant: %w", err)
	}

	if err := c.walletSession.CompleteValidation(merchantSession); err != nil {
		c.failLocked()
		return fmt.Errorf("completing validation: %w", err)
	}

	return nil
}

// HandleAuthorized is the wallet's payment-authorization callback. A failed
// backend call still acknowledges completion to the wallet so the payment
// sheet dismisses, then surfaces the error.
func (c *Controller) HandleAuthorized(ctx context.Context, token *models.SealedPaymentToken) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return ErrNoActiveSession
	}
	if c.session.Status != StatusValidating {
		return ErrValidationNotDone
	}

	c.session.Status = StatusAuthorizing
	err := c.backend.Process(ctx, token, c.session.Amount, c.session.UserID)
	c.session.Status = StatusCompleting

	if err != nil {
		// Required acknowledgement even though the backend failed.
		if ackErr := c.walletSession.CompletePayment(false); ackErr != nil {
			c.logger.Error("acknowledging failed payment", "err", ackErr)
		}
		c.session.Status = StatusFailed
		c.clearLocked()
		return fmt.Errorf("processing payment: %w", err)
	}

	if ackErr := c.walletSession.CompletePayment(true); ackErr != nil {
		c.logger.Error("acknowledging successful payment", "err", ackErr)
	}
	c.session.Status = StatusSucceeded
	c.logger.Info("payment succeeded", slog.String("id", c.session.ID))
	c.clearLocked()

	return nil
}

// HandleCancel is the wallet's cancellation callback. No backend call is
// made; the session and guard are simply cleared.
func (c *Controller) HandleCancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		c.session.Status = StatusCancelled
	}
	c.clearGuardLocked()
	c.clearLocked()
}

// Status returns the current attempt status, StatusIdle when no attempt
// exists.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return StatusIdle
	}
	return c.session.Status
}

func (c *Controller) guardExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initiating {
		c.logger.Info("initiation guard expired without validation callback")
		c.initiating = false
	}
}

// teardownLocked aborts the wallet session best-effort and discards the
// reference. Correctness depends only on the reference being cleared.
func (c *Controller) teardownLocked() {
	if c.walletSession != nil {
		if err := c.walletSession.Abort(); err != nil {
			c.logger.Info("aborting previous wallet session", slog.Any("err", err))
		}
	}
	c.clearGuardLocked()
	c.session = nil
	c.walletSession = nil
}

func (c *Controller) failLocked() {
	if c.walletSession != nil {
		if err := c.walletSession.Abort(); err != nil {
			c.logger.Info("aborting wallet session", slog.Any("err", err))
		}
	}
	if c.session != nil {
		c.session.Status = StatusFailed
	}
	c.clearGuardLocked()
	c.clearLocked()
}

// clearLocked drops the session references so a new attempt can start.
func (c *Controller) clearLocked() {
	c.session = nil
	c.walletSession = nil
}

func (c *Controller) clearGuardLocked() {
	c.initiating = false
	if c.guard != nil {
		c.guard.Stop()
		c.guard = nil
	}
}
