package relay_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rafinno25/applepay-poc/relay"
	"github.com/rafinno25/applepay-poc/relay/authorizenet"
)

func TestConfigValidate_RequiredCredentials(t *testing.T) {
	cases := []struct {
		name  string
		strip func(*relay.Config)
	}{
		{"merchant id", func(c *relay.Config) { c.MerchantID = "" }},
		{"api login id", func(c *relay.Config) { c.APILoginID = "" }},
		{"transaction key", func(c *relay.Config) { c.TransactionKey = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.strip(cfg)
			require.Error(t, cfg.Validate())
		})
	}

	require.NoError(t, testConfig().Validate())
}

func TestConfigValidate_GatewayMode(t *testing.T) {
	cfg := testConfig()
	cfg.GatewayMode = "staging"
	require.Error(t, cfg.Validate())
}

func TestConfig_GatewayURL(t *testing.T) {
	cfg := testConfig()
	require.Equal(t, authorizenet.SandboxURL, cfg.GatewayURL())

	cfg.GatewayMode = "production"
	require.Equal(t, authorizenet.ProductionURL, cfg.GatewayURL())
}

func TestConfig_Development(t *testing.T) {
	cfg := testConfig()
	require.True(t, cfg.Development())

	cfg.Environment = "production"
	require.False(t, cfg.Development())
}
