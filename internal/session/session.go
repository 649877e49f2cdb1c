package session

// Status is the lifecycle state of one payment attempt.
type Status string

const (
	StatusIdle        Status = "idle"
	StatusInitiating  Status = "initiating"
	StatusValidating  Status = "validating"
	StatusAuthorizing Status = "authorizing"
	StatusCompleting  Status = "completing"
	StatusCancelled   Status = "cancelled"
	StatusFailed      Status = "failed"
	StatusSucceeded   Status = "succeeded"
)

// Terminal reports whether the session can never progress again. A new
// attempt may begin once the current session is terminal or cleared.
func (s Status) Terminal() bool {
	switch s {
	case StatusCancelled, StatusFailed, StatusSucceeded:
		return true
	}
	return false
}

// Session is one user-initiated payment attempt. It is owned exclusively by
// the Controller and never reused across attempts.
type Session struct {
	ID                 string
	UserID             string
	MerchantIdentifier string
	Amount             float64
	CurrencyCode       string
	CountryCode        string
	SupportedNetworks  []string
	Status             Status
}
