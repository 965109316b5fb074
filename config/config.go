// Package config loads the service configuration from YAML files with
// environment variable overrides.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/slighter12/go-lib/database/postgres"
)

const (
	defaultPath               = "."
	defaultMaxRequestBodySize = "100KB"
	defaultVerifyTimeout      = 5 * time.Second
	defaultLandingPath        = "/dashboard"
)

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port               int    `json:"port" yaml:"port"`
		BaseURL            string `json:"baseUrl" yaml:"baseUrl"`
		StaticDir          string `json:"staticDir" yaml:"staticDir"`
		MaxRequestBodySize string `json:"maxRequestBodySize" yaml:"maxRequestBodySize"`
		Timeouts           struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
	} `json:"http" yaml:"http"`

	Postgres *postgres.DBConn `json:"postgres" yaml:"postgres" mapstructure:"postgres"`

	// Supabase configures the hosted identity provider. URL and AnonKey are
	// mandatory: a missing value aborts startup instead of degrading into a
	// non-functional mock.
	Supabase *SupabaseConfig `json:"supabase" yaml:"supabase"`

	// Routes drives the route classifier. The public/protected/auth path
	// lists are configuration on purpose: hard-coding them is how the rules
	// drift between copies of the guard.
	Routes *RoutesConfig `json:"routes" yaml:"routes"`

	// QRCode configuration for client share codes.
	QRCode *QRCodeConfig `json:"qrcode" yaml:"qrcode"`

	// PubSub configuration for domain event publishing.
	PubSub *PubSubConfig `json:"pubsub" yaml:"pubsub"`
}

// SupabaseConfig defines the identity provider connection.
type SupabaseConfig struct {
	// URL is the project base URL, e.g. https://xyzcompany.supabase.co.
	URL string `json:"url" yaml:"url"`

	// AnonKey is the public API key sent as the apikey header.
	AnonKey string `json:"anonKey" yaml:"anonKey"`

	// VerifyTimeout bounds the authoritative session verification call.
	// A timed-out verification is treated as "no session".
	VerifyTimeout time.Duration `json:"verifyTimeout" yaml:"verifyTimeout"`
}

// RoutesConfig defines route classification and redirect behavior.
type RoutesConfig struct {
	// PublicPaths are exact-match public paths (typically just "/").
	PublicPaths []string `json:"publicPaths" yaml:"publicPaths"`

	// AuthPrefixes are the authentication pages (login, register, password
	// recovery). They are public, and additionally redirect authenticated
	// users away.
	AuthPrefixes []string `json:"authPrefixes" yaml:"authPrefixes"`

	// ProtectedPrefixes are the application shell paths that require a
	// verified session.
	ProtectedPrefixes []string `json:"protectedPrefixes" yaml:"protectedPrefixes"`

	// DefaultLanding is where authenticated users land when no redirectTo
	// is present.
	DefaultLanding string `json:"defaultLanding" yaml:"defaultLanding"`

	// AlwaysRedirectAuthenticatedFromAuthPages controls whether a logged-in
	// user visiting /login is always redirected away, or only when a
	// redirectTo parameter is present.
	AlwaysRedirectAuthenticatedFromAuthPages bool `json:"alwaysRedirectAuthenticatedFromAuthPages" yaml:"alwaysRedirectAuthenticatedFromAuthPages"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// QRCodeConfig defines QR code generation configuration.
type QRCodeConfig struct {
	Size                 int    `json:"size" yaml:"size"`
	ErrorCorrectionLevel string `json:"errorCorrectionLevel" yaml:"errorCorrectionLevel"`
	BaseURL              string `json:"baseUrl" yaml:"baseUrl"`
}

// PubSubConfig defines Pub/Sub configuration for event publishing.
type PubSubConfig struct {
	// Provider type: "local" for local HTTP or "google" for Google Pub/Sub.
	Provider string `json:"provider" yaml:"provider"`

	// Google Cloud project ID (for google provider).
	ProjectID string `json:"projectId" yaml:"projectId"`

	// Pub/Sub topic ID (for google provider).
	TopicID string `json:"topicId" yaml:"topicId"`

	// Local HTTP endpoint for development (for local provider).
	LocalEndpoint string `json:"localEndpoint" yaml:"localEndpoint"`
}

// LoadWithEnv loads .yaml files through koanf.
func LoadWithEnv[T any](currEnv string, configPath ...string) (*T, error) {
	cfg := new(T)
	koanfInstance := koanf.New(".")

	// Build list of paths to search for config file
	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			abs := filepath.Join(pwd, path)
			searchPaths = append(searchPaths, abs)
		}
	}

	// Try to find and load the config file
	var configFile string
	var found bool
	for _, path := range searchPaths {
		candidate := filepath.Join(path, currEnv+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate
			found = true

			break
		}
	}

	if !found {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", currEnv)
	}

	// Load YAML config file
	if err := koanfInstance.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", currEnv)
	}

	existingConfigMap := koanfInstance.Raw()

	// Load environment variables
	if err := koanfInstance.Load(env.Provider(".", env.Opt{
		TransformFunc: func(k, v string) (string, any) {
			// Convert ENV_VAR_NAME to path and align each segment with existing YAML keys.
			// Example: SUPABASE_ANONKEY -> supabase.anonKey (not supabase.anonkey)
			key := canonicalizeEnvKey(k, existingConfigMap)

			return key, v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	// Unmarshal into the config struct (case-insensitive to match env vars)
	if err := koanfInstance.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				// Case-insensitive matching for env var overrides
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", currEnv)
	}

	return cfg, nil
}

func New() (*Config, error) {
	cfg, err := LoadWithEnv[Config]("config", "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.HTTP.MaxRequestBodySize) == "" {
		cfg.HTTP.MaxRequestBodySize = defaultMaxRequestBodySize
	}

	// The identity provider is not optional: without it every protected
	// route would fail closed and login would be impossible. Surface the
	// misconfiguration at startup, loudly.
	if cfg.Supabase == nil || strings.TrimSpace(cfg.Supabase.URL) == "" {
		return nil, errors.New("supabase.url is required")
	}
	if strings.TrimSpace(cfg.Supabase.AnonKey) == "" {
		return nil, errors.New("supabase.anonKey is required")
	}
	if cfg.Supabase.VerifyTimeout <= 0 {
		cfg.Supabase.VerifyTimeout = defaultVerifyTimeout
	}

	cfg.Routes = withRouteDefaults(cfg.Routes)

	// Build replicas from environment variables (POSTGRES_REPLICAS_0_HOST, POSTGRES_REPLICAS_0_PORT, etc.)
	if cfg.Postgres != nil {
		cfg.Postgres.Replicas = buildReplicasFromEnv()
	}

	return cfg, nil
}

// withRouteDefaults fills in the original application's route lists when the
// YAML leaves them unset.
func withRouteDefaults(routes *RoutesConfig) *RoutesConfig {
	if routes == nil {
		routes = &RoutesConfig{AlwaysRedirectAuthenticatedFromAuthPages: true}
	}
	if len(routes.PublicPaths) == 0 {
		routes.PublicPaths = []string{"/"}
	}
	if len(routes.AuthPrefixes) == 0 {
		routes.AuthPrefixes = []string{"/login", "/register", "/forgot-password", "/reset-password"}
	}
	if len(routes.ProtectedPrefixes) == 0 {
		routes.ProtectedPrefixes = []string{"/dashboard"}
	}
	if strings.TrimSpace(routes.DefaultLanding) == "" {
		routes.DefaultLanding = defaultLandingPath
	}

	return routes
}

func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	if len(current) == 0 {
		return "", nil, false
	}

	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}

		child, _ := value.(map[string]any)

		return key, child, true
	}

	return "", nil, false
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}

	return normalized.String()
}

// buildReplicasFromEnv builds the replicas slice from environment variables.
// Environment variable format: POSTGRES_REPLICAS_{index}_{field}
// Example: POSTGRES_REPLICAS_0_HOST, POSTGRES_REPLICAS_0_PORT, POSTGRES_REPLICAS_0_USERNAME, POSTGRES_REPLICAS_0_PASSWORD
func buildReplicasFromEnv() []postgres.ConnectionConfig {
	var replicas []postgres.ConnectionConfig

	for i := 0; ; i++ {
		prefix := "POSTGRES_REPLICAS_" + strconv.Itoa(i) + "_"

		host := os.Getenv(prefix + "HOST")
		port := os.Getenv(prefix + "PORT")
		if host == "" || port == "" {
			// No more replicas or incomplete configuration.
			break
		}

		replica := postgres.ConnectionConfig{
			Host:     host,
			Port:     port,
			UserName: os.Getenv(prefix + "USERNAME"),
			Password: os.Getenv(prefix + "PASSWORD"),
		}

		replicas = append(replicas, replica)
	}

	return replicas
}
