package authorizenet

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"golang.org/x/exp/slog"
)

const (
	SandboxURL    = "https://apitest.authorize.net/xml/v1/request.api"
	ProductionURL = "https://api.authorize.net/xml/v1/request.api"
)

// Client posts transaction requests to the gateway. It is stateless apart
// from read-only configuration and safe for concurrent use.
type Client struct {
	endpoint string
	http     *resty.Client
	breaker  *gobreaker.CircuitBreaker
	logger   *slog.Logger
}

type result struct {
	resp Response
	raw  []byte
}

func NewClient(logger *slog.Logger, endpoint string, timeout time.Duration) *Client {
	logger = logger.With(slog.String("component", "authorizenet"))

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     "authorizenet",
		Interval: 15 * time.Second,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && ratio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})

	return &Client{
		endpoint: endpoint,
		http: resty.New().
			SetTimeout(timeout).
			SetRetryCount(0),
		breaker: breaker,
		logger:  logger,
	}
}

// CreateTransaction sends the request and returns the tolerantly-parsed
// response. On a transport failure whatever partial body came back is still
// parsed, so the caller sees any diagnostics the gateway managed to send.
func (c *Client) CreateTransaction(ctx context.Context, req *TransactionRequest) (Response, error) {
	body, err := req.Marshal()
	if err != nil {
		return Response{}, fmt.Errorf("marshaling transaction request: %w", err)
	}

	res, err := c.breaker.Execute(func() (interface{}, error) {
		httpResp, err := c.http.R().
			SetContext(ctx).
			SetHeader("Content-Type", "text/xml").
			SetBody(body).
			Post(c.endpoint)
		if err != nil {
			var raw []byte
			if httpResp != nil {
				raw = httpResp.Body()
			}
			return result{resp: ParseResponse(raw), raw: raw}, fmt.Errorf("posting transaction: %w", err)
		}
		return result{resp: ParseResponse(httpResp.Body()), raw: httpResp.Body()}, nil
	})

	if err != nil {
		parsed := Response{}
		if r, ok := res.(result); ok {
			parsed = r.resp
		}
		return parsed, err
	}

	r := res.(result)
	c.logger.Debug("gateway response",
		slog.String("resultCode", r.resp.ResultCode),
		slog.String("responseCode", r.resp.ResponseCode),
		slog.String("transId", r.resp.TransID))

	return r.resp, nil
}
