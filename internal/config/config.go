package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Operator      OperatorConfig      `yaml:"operator"`
	Session       SessionConfig       `yaml:"session"`
	Google        GoogleConfig        `yaml:"google"`
	SearchConsole SearchConsoleConfig `yaml:"search_console"`
	GoogleAds     GoogleAdsConfig     `yaml:"google_ads"`
	Meta          MetaConfig          `yaml:"meta"`
	Redis         RedisConfig         `yaml:"redis"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port        int      `yaml:"port"`
	Host        string   `yaml:"host"`
	Environment string   `yaml:"environment"` // "development" or "production"
	CORSOrigins []string `yaml:"cors_origins"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// IsDevelopment reports whether the server runs against the development redirect target
func (c ServerConfig) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, "development")
}

// OperatorConfig holds the single dashboard operator's login
type OperatorConfig struct {
	Username     string `yaml:"username"`
	Name         string `yaml:"name"`
	PasswordHash string `yaml:"password_hash"` // bcrypt
}

// SessionConfig holds operator session cookie settings
type SessionConfig struct {
	CookieName       string `yaml:"cookie_name"`
	MaxAgeSeconds    int    `yaml:"max_age_seconds"`
	StateTTLSeconds  int    `yaml:"state_ttl_seconds"`
	CleanupIntervalS int    `yaml:"cleanup_interval_seconds"`
	SecureCookie     bool   `yaml:"secure_cookie"`
}

// MaxAge returns the session lifetime as a duration
func (c SessionConfig) MaxAge() time.Duration {
	return time.Duration(c.MaxAgeSeconds) * time.Second
}

// StateTTL returns how long an OAuth state value stays valid
func (c SessionConfig) StateTTL() time.Duration {
	return time.Duration(c.StateTTLSeconds) * time.Second
}

// CleanupInterval returns how often expired sessions are swept
func (c SessionConfig) CleanupInterval() time.Duration {
	return time.Duration(c.CleanupIntervalS) * time.Second
}

// GoogleConfig holds the OAuth client shared by Search Console and Google Ads
type GoogleConfig struct {
	ClientID           string `yaml:"client_id"`
	ClientSecret       string `yaml:"client_secret"`
	AuthURL            string `yaml:"auth_url"`
	TokenURL           string `yaml:"token_url"`
	RedirectURIDev     string `yaml:"redirect_uri_dev"`
	RedirectURIProd    string `yaml:"redirect_uri_prod"`
	SearchConsoleScope string `yaml:"search_console_scope"`
	AdsScope           string `yaml:"ads_scope"`
}

// SearchConsoleConfig holds Search Console API configuration
type SearchConsoleConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	PageCap        int    `yaml:"page_cap"`
	CursorCeiling  int    `yaml:"cursor_ceiling"`
}

// Timeout returns the configured timeout as a duration
func (c SearchConsoleConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// GoogleAdsConfig holds Google Ads API configuration
type GoogleAdsConfig struct {
	BaseURL         string `yaml:"base_url"`
	APIVersion      string `yaml:"api_version"`
	DeveloperToken  string `yaml:"developer_token"`
	CustomerID      string `yaml:"customer_id"`
	LoginCustomerID string `yaml:"login_customer_id"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
	LookbackDays    int    `yaml:"lookback_days"`
}

// Timeout returns the configured timeout as a duration
func (c GoogleAdsConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Configured reports whether the developer token / customer id pair is present
func (c GoogleAdsConfig) Configured() bool {
	return c.DeveloperToken != "" && c.CustomerID != ""
}

// MetaConfig holds Meta Marketing API configuration
type MetaConfig struct {
	BaseURL        string   `yaml:"base_url"`
	GraphVersion   string   `yaml:"graph_version"`
	AccessToken    string   `yaml:"access_token"`
	AccountIDs     []string `yaml:"account_ids"`
	LookbackDays   int      `yaml:"lookback_days"`
	Concurrency    int      `yaml:"concurrency"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration
func (c MetaConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RedisConfig holds the optional Redis used for OAuth state and refresh locks
type RedisConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// RedirectURI returns the single OAuth redirect target for this process.
// It is resolved once at startup from the server environment.
func (c *Config) RedirectURI() string {
	if c.Server.IsDevelopment() {
		return c.Google.RedirectURIDev
	}
	return c.Google.RedirectURIProd
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Environment == "" {
		cfg.Server.Environment = "production"
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"http://localhost:5173", "http://localhost:8080"}
	}
	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = "dashboard_session"
	}
	if cfg.Session.MaxAgeSeconds == 0 {
		cfg.Session.MaxAgeSeconds = 8 * 60 * 60
	}
	if cfg.Session.StateTTLSeconds == 0 {
		cfg.Session.StateTTLSeconds = 600
	}
	if cfg.Session.CleanupIntervalS == 0 {
		cfg.Session.CleanupIntervalS = 300
	}
	if cfg.Google.AuthURL == "" {
		cfg.Google.AuthURL = "https://accounts.google.com/o/oauth2/auth"
	}
	if cfg.Google.TokenURL == "" {
		cfg.Google.TokenURL = "https://oauth2.googleapis.com/token"
	}
	if cfg.Google.RedirectURIDev == "" {
		cfg.Google.RedirectURIDev = "http://localhost:8080/oauth/callback"
	}
	if cfg.Google.SearchConsoleScope == "" {
		cfg.Google.SearchConsoleScope = "https://www.googleapis.com/auth/webmasters.readonly"
	}
	if cfg.Google.AdsScope == "" {
		cfg.Google.AdsScope = "https://www.googleapis.com/auth/adwords"
	}
	if cfg.SearchConsole.BaseURL == "" {
		cfg.SearchConsole.BaseURL = "https://searchconsole.googleapis.com"
	}
	if cfg.SearchConsole.TimeoutSeconds == 0 {
		cfg.SearchConsole.TimeoutSeconds = 60
	}
	if cfg.SearchConsole.PageCap == 0 {
		cfg.SearchConsole.PageCap = 25000
	}
	if cfg.SearchConsole.CursorCeiling == 0 {
		cfg.SearchConsole.CursorCeiling = 2500000
	}
	if cfg.GoogleAds.BaseURL == "" {
		cfg.GoogleAds.BaseURL = "https://googleads.googleapis.com"
	}
	if cfg.GoogleAds.APIVersion == "" {
		cfg.GoogleAds.APIVersion = "v17"
	}
	if cfg.GoogleAds.TimeoutSeconds == 0 {
		cfg.GoogleAds.TimeoutSeconds = 60
	}
	if cfg.GoogleAds.LookbackDays == 0 {
		cfg.GoogleAds.LookbackDays = 30
	}
	if cfg.Meta.BaseURL == "" {
		cfg.Meta.BaseURL = "https://graph.facebook.com"
	}
	if cfg.Meta.GraphVersion == "" {
		cfg.Meta.GraphVersion = "v19.0"
	}
	if cfg.Meta.LookbackDays == 0 {
		cfg.Meta.LookbackDays = 7
	}
	if cfg.Meta.Concurrency == 0 {
		cfg.Meta.Concurrency = 4
	}
	if cfg.Meta.TimeoutSeconds == 0 {
		cfg.Meta.TimeoutSeconds = 30
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "dashboard"
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// A .env file is loaded first if present, so secrets can live in .env locally.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("GOOGLE_CLIENT_ID"); v != "" {
		cfg.Google.ClientID = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_SECRET"); v != "" {
		cfg.Google.ClientSecret = v
	}
	if v := os.Getenv("OAUTH_REDIRECT_URI"); v != "" {
		cfg.Google.RedirectURIProd = v
	}
	if v := os.Getenv("OAUTH_REDIRECT_URI_DEV"); v != "" {
		cfg.Google.RedirectURIDev = v
	}
	if v := os.Getenv("GOOGLE_ADS_DEVELOPER_TOKEN"); v != "" {
		cfg.GoogleAds.DeveloperToken = v
	}
	if v := os.Getenv("GOOGLE_ADS_CUSTOMER_ID"); v != "" {
		cfg.GoogleAds.CustomerID = v
	}
	if v := os.Getenv("GOOGLE_ADS_LOGIN_CUSTOMER_ID"); v != "" {
		cfg.GoogleAds.LoginCustomerID = v
	}
	if v := os.Getenv("META_ACCESS_TOKEN"); v != "" {
		cfg.Meta.AccessToken = v
	}
	if v := os.Getenv("META_ACCOUNT_IDS"); v != "" {
		cfg.Meta.AccountIDs = splitList(v)
	}
	if v := os.Getenv("OPERATOR_USERNAME"); v != "" {
		cfg.Operator.Username = v
	}
	if v := os.Getenv("OPERATOR_PASSWORD_HASH"); v != "" {
		cfg.Operator.PasswordHash = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("ENVIRONMENT"); v != "" {
		cfg.Server.Environment = v
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
