package authorizenet

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard))
}

func testRequest() *TransactionRequest {
	return &TransactionRequest{
		MerchantAuthentication: MerchantAuthentication{Name: "login", TransactionKey: "key"},
		Transaction: Transaction{
			TransactionType: TransactionTypeAuthCapture,
			Amount:          "10.00",
			Payment: Payment{OpaqueData: OpaqueData{
				DataDescriptor: "COMMON.APPLE.INAPP.PAYMENT",
				DataValue:      "AB==",
			}},
		},
	}
}

func TestCreateTransaction_Approved(t *testing.T) {
	var received []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "text/xml")
		w.Write([]byte(approvedDoc))
	}))
	defer srv.Close()

	c := NewClient(testLogger(), srv.URL, 5*time.Second)

	resp, err := c.CreateTransaction(context.Background(), testRequest())
	require.NoError(t, err)

	require.True(t, resp.OK())
	require.True(t, resp.Approved())
	require.Equal(t, "T1", resp.TransID)

	require.Contains(t, string(received), "<transactionKey>key</transactionKey>")
	require.Contains(t, string(received), "<dataValue>AB==</dataValue>")
}

func TestCreateTransaction_ParsesBodyOnTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := NewClient(testLogger(), srv.URL, time.Second)

	resp, err := c.CreateTransaction(context.Background(), testRequest())
	require.Error(t, err)
	require.Equal(t, Response{}, resp)
}

func TestCreateTransaction_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server can watch the connection and cancel
		// r.Context() when the client disconnects; with an unread POST body
		// the disconnect is never observed and Close deadlocks.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := NewClient(testLogger(), srv.URL, 5*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.CreateTransaction(ctx, testRequest())
	require.Error(t, err)
}
