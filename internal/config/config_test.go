package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rxtech-lab/argo-ingest/pkg/errors"
	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type ConfigTestSuite struct {
	suite.Suite
	dir string
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) SetupTest() {
	suite.dir = suite.T().TempDir()
}

func (suite *ConfigTestSuite) writeFile(name, content string) string {
	path := filepath.Join(suite.dir, name)
	suite.Require().NoError(os.WriteFile(path, []byte(content), 0600))

	return path
}

func (suite *ConfigTestSuite) TestDefaultIsValid() {
	cfg := Default()
	suite.NoError(cfg.Validate())
	suite.Equal("data/raw", cfg.RawDataDir)
	suite.Equal("yahoo", cfg.Provider)
	suite.Equal(4, cfg.Concurrency)
	suite.InDelta(10.0, cfg.SECRequestsPerSecond, 1e-9)
}

func (suite *ConfigTestSuite) TestLoadWithoutFile() {
	cfg, err := Load("")
	suite.Require().NoError(err)
	suite.Equal(Default().TickersFile, cfg.TickersFile)
}

func (suite *ConfigTestSuite) TestLoadYAMLOverridesDefaults() {
	path := suite.writeFile("config.yaml", `
rawDataDir: /tmp/raw
provider: binance
priceFormat: parquet
concurrency: 8
skipFundamentals: true
`)

	cfg, err := Load(path)
	suite.Require().NoError(err)
	suite.Equal("/tmp/raw", cfg.RawDataDir)
	suite.Equal("binance", cfg.Provider)
	suite.Equal("parquet", cfg.PriceFormat)
	suite.Equal(8, cfg.Concurrency)
	suite.True(cfg.SkipFundamentals)
	// untouched keys keep their defaults
	suite.Equal("prices.csv", cfg.PriceDataFilename)
}

func (suite *ConfigTestSuite) TestEnvironmentOverridesFile() {
	path := suite.writeFile("config.yaml", "concurrency: 8\n")
	suite.T().Setenv("ARGO_INGEST_CONCURRENCY", "2")
	suite.T().Setenv("ARGO_INGEST_RAW_DATA_DIR", "/env/raw")
	suite.T().Setenv("SEC_USER_AGENT", "tester test@example.com")

	cfg, err := Load(path)
	suite.Require().NoError(err)
	suite.Equal(2, cfg.Concurrency)
	suite.Equal("/env/raw", cfg.RawDataDir)
	suite.Equal("tester test@example.com", cfg.SECUserAgent)
}

func (suite *ConfigTestSuite) TestPolygonRequiresAPIKey() {
	path := suite.writeFile("config.yaml", "provider: polygon\n")
	suite.T().Setenv("POLYGON_API_KEY", "")

	_, err := Load(path)
	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeInvalidConfiguration, errors.GetCode(err))

	suite.T().Setenv("POLYGON_API_KEY", "secret")

	cfg, err := Load(path)
	suite.Require().NoError(err)
	suite.Equal("secret", cfg.PolygonAPIKey)
}

func (suite *ConfigTestSuite) TestValidate() {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "unknown provider", mutate: func(c *Config) { c.Provider = "bloomberg" }},
		{name: "unknown format", mutate: func(c *Config) { c.PriceFormat = "xlsx" }},
		{name: "zero concurrency", mutate: func(c *Config) { c.Concurrency = 0 }},
		{name: "sec rate too high", mutate: func(c *Config) { c.SECRequestsPerSecond = 11 }},
		{name: "missing user agent", mutate: func(c *Config) { c.SECUserAgent = "" }},
		{name: "unknown interval", mutate: func(c *Config) { c.Interval = "7m" }},
		{name: "unknown log level", mutate: func(c *Config) { c.LogLevel = "trace" }},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			suite.Require().Error(err)
			suite.Equal(errors.ErrCodeInvalidConfiguration, errors.GetCode(err))
		})
	}
}

func (suite *ConfigTestSuite) TestUserAgentOptionalWhenSkippingFundamentals() {
	cfg := Default()
	cfg.SkipFundamentals = true
	cfg.SECUserAgent = ""
	suite.NoError(cfg.Validate())
}

func (suite *ConfigTestSuite) TestLoadMissingFile() {
	_, err := Load(filepath.Join(suite.dir, "missing.yaml"))
	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeInvalidConfiguration, errors.GetCode(err))
}

func (suite *ConfigTestSuite) TestLoadMalformedFile() {
	path := suite.writeFile("broken.yaml", "concurrency: [1, 2\n")
	_, err := Load(path)
	suite.Require().Error(err)
}

func (suite *ConfigTestSuite) TestSchema() {
	schema, err := Schema()
	suite.Require().NoError(err)
	suite.Contains(schema, `"title": "argo-ingest-config"`)
	suite.Contains(schema, `"rawDataDir"`)
	suite.Contains(schema, `"priceFormat"`)
	suite.NotContains(schema, "PolygonAPIKey")
}

func (suite *ConfigTestSuite) TestToYAMLRoundTrip() {
	cfg := Default()
	cfg.PolygonAPIKey = "secret"

	data, err := cfg.ToYAML()
	suite.Require().NoError(err)
	suite.NotContains(string(data), "secret")

	var decoded Config
	suite.Require().NoError(yaml.Unmarshal(data, &decoded))
	suite.Equal(cfg.RawDataDir, decoded.RawDataDir)
	suite.Equal(cfg.Concurrency, decoded.Concurrency)
}
