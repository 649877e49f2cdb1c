package applepay

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard))
}

// writeTestKeyPair generates a throwaway self-signed identity and writes it
// as PEM files, standing in for the merchant certificate and key.
func writeTestKeyPair(t *testing.T, dir string) (certPath, keyPath string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "merchant.com.example"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	require.NoError(t, err)

	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	certPath = filepath.Join(dir, "merchant_id.pem")
	keyPath = filepath.Join(dir, "merchant_id.key")
	require.NoError(t, os.WriteFile(certPath,
		pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0600))
	require.NoError(t, os.WriteFile(keyPath,
		pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0600))
	return certPath, keyPath
}

func TestValidateMerchant_CertificateNotFound(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.pem")
	c := NewClient(testLogger(), missing, missing, "merchant.com.example", "Demo")

	_, err := c.ValidateMerchant(context.Background(), "https://apple.example/start", "example.com")

	var certErr *CertificateError
	require.ErrorAs(t, err, &certErr)
	require.Equal(t, missing, certErr.Path)
}

func TestValidateMerchant_MalformedURL(t *testing.T) {
	dir := t.TempDir()
	certPath, keyPath := writeTestKeyPair(t, dir)
	c := NewClient(testLogger(), certPath, keyPath, "merchant.com.example", "Demo")

	_, err := c.ValidateMerchant(context.Background(), "not a url", "example.com")
	require.ErrorIs(t, err, ErrMalformedURL)
}

func TestValidateMerchant_PostsIdentityAndPassesSessionThrough(t *testing.T) {
	certPath, keyPath := writeTestKeyPair(t, t.TempDir())

	session := `{"epochTimestamp":1234,"nonce":"abc"}`
	var got validationBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(session))
	}))
	defer srv.Close()

	c := NewClient(testLogger(), certPath, keyPath, "merchant.com.example", "Demo Store")

	raw, err := c.ValidateMerchant(context.Background(), srv.URL, "shop.example.com")
	require.NoError(t, err)

	require.JSONEq(t, session, string(raw))
	require.Equal(t, "merchant.com.example", got.MerchantIdentifier)
	require.Equal(t, "shop.example.com", got.DomainName)
	require.Equal(t, "Demo Store", got.DisplayName)
}

func TestValidateMerchant_Non200(t *testing.T) {
	certPath, keyPath := writeTestKeyPair(t, t.TempDir())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad merchant", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(testLogger(), certPath, keyPath, "merchant.com.example", "Demo")

	_, err := c.ValidateMerchant(context.Background(), srv.URL, "example.com")

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusBadRequest, statusErr.Status)
	require.Contains(t, string(statusErr.Body), "bad merchant")
}

func TestValidateMerchant_UnparseableSession(t *testing.T) {
	certPath, keyPath := writeTestKeyPair(t, t.TempDir())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	c := NewClient(testLogger(), certPath, keyPath, "merchant.com.example", "Demo")

	_, err := c.ValidateMerchant(context.Background(), srv.URL, "example.com")

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusOK, statusErr.Status)
}
