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
	defaultPurgeRetentionDays = 30
	defaultPurgeBatchSize     = 100
	defaultStatsTTL           = 5 * time.Minute
	defaultCacheTTL           = time.Hour
	defaultCacheCleanup       = 10 * time.Minute
	defaultTokenDuration      = 15 * time.Minute
	defaultExportFormat       = "json"
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
		MaxRequestBodySize string `json:"maxRequestBodySize" yaml:"maxRequestBodySize"`
		Timeouts           struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
	} `json:"http" yaml:"http"`

	Postgres *postgres.DBConn `json:"postgres" yaml:"postgres" mapstructure:"postgres"`

	SecretKey struct {
		Access string `json:"access" yaml:"access"`
	} `json:"secretKey" yaml:"secretKey"`

	// Auth configuration for admin API tokens
	Auth *AuthConfig `json:"auth" yaml:"auth"`

	// Schema configuration for definition rules and purge retention
	Schema *SchemaConfig `json:"schema" yaml:"schema"`

	// Cache configuration for the shared definition cache
	Cache *CacheConfig `json:"cache" yaml:"cache"`

	// PubSub configuration for schema event publishing
	PubSub *PubSubConfig `json:"pubsub" yaml:"pubsub"`

	// Export configuration for import/export documents
	Export *ExportConfig `json:"export" yaml:"export"`
}

// AuthConfig defines admin token configuration
type AuthConfig struct {
	TokenDuration time.Duration `json:"tokenDuration" yaml:"tokenDuration"`
	Issuer        string        `json:"issuer" yaml:"issuer"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// SchemaConfig defines the deployment-specific definition rules
type SchemaConfig struct {
	// Names that cannot be used for definitions (replaces the built-in list when set)
	ReservedWords []string `json:"reservedWords" yaml:"reservedWords"`

	// Name prefixes reserved by the host system (replaces the built-in list when set)
	ForbiddenPrefixes []string `json:"forbiddenPrefixes" yaml:"forbiddenPrefixes"`

	// How a required but non-public definition is reported: off, warn or error
	RequiredPublicPolicy string `json:"requiredPublicPolicy" yaml:"requiredPublicPolicy"`

	// Maximum number of choices a definition may carry
	MaxChoices int `json:"maxChoices" yaml:"maxChoices"`

	// Days between a dependent-data delete and the purge of the stored values
	PurgeRetentionDays int `json:"purgeRetentionDays" yaml:"purgeRetentionDays"`

	// Maximum number of due purges executed per run
	PurgeBatchSize int `json:"purgeBatchSize" yaml:"purgeBatchSize"`

	// How often the purge worker looks for due purges; zero disables the ticker
	PurgeInterval time.Duration `json:"purgeInterval" yaml:"purgeInterval"`

	// Lifetime of cached aggregate statistics
	StatsTTL time.Duration `json:"statsTtl" yaml:"statsTtl"`
}

// CacheConfig defines the in-process cache settings
type CacheConfig struct {
	DefaultTTL      time.Duration `json:"defaultTtl" yaml:"defaultTtl"`
	CleanupInterval time.Duration `json:"cleanupInterval" yaml:"cleanupInterval"`
}

// PubSubConfig defines Pub/Sub configuration for event publishing
type PubSubConfig struct {
	// Provider type: "local" for local HTTP or "google" for Google Pub/Sub
	Provider string `json:"provider" yaml:"provider"`

	// Google Cloud project ID (for google provider)
	ProjectID string `json:"projectId" yaml:"projectId"`

	// Pub/Sub topic ID (for google provider)
	TopicID string `json:"topicId" yaml:"topicId"`

	// Local HTTP endpoint for development (for local provider)
	LocalEndpoint string `json:"localEndpoint" yaml:"localEndpoint"`

	// Audience expected in push request OIDC tokens; empty disables verification
	PushAudience string `json:"pushAudience" yaml:"pushAudience"`
}

// ExportConfig defines where import/export documents are stored
type ExportConfig struct {
	// gocloud.dev bucket URL, e.g. file:///var/lib/attrschema or gs://bucket
	BucketURL string `json:"bucketUrl" yaml:"bucketUrl"`

	// Document encoding: json or yaml
	Format string `json:"format" yaml:"format"`

	// Origin stamped into exported documents
	Origin string `json:"origin" yaml:"origin"`
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
			// Example: POSTGRES_SSLMODE -> postgres.sslMode (not postgres.sslmode)
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

	applyDefaults(cfg)

	// Build replicas from environment variables (POSTGRES_REPLICAS_0_HOST, POSTGRES_REPLICAS_0_PORT, etc.)
	if cfg.Postgres != nil {
		cfg.Postgres.Replicas = buildReplicasFromEnv()
	}

	return cfg, nil
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

// applyDefaults fills unset sections so consumers never see nil pointers.
func applyDefaults(cfg *Config) {
	if cfg.Auth == nil {
		cfg.Auth = &AuthConfig{}
	}
	if cfg.Auth.TokenDuration <= 0 {
		cfg.Auth.TokenDuration = defaultTokenDuration
	}

	if cfg.Schema == nil {
		cfg.Schema = &SchemaConfig{}
	}
	if cfg.Schema.PurgeRetentionDays <= 0 {
		cfg.Schema.PurgeRetentionDays = defaultPurgeRetentionDays
	}
	if cfg.Schema.PurgeBatchSize <= 0 {
		cfg.Schema.PurgeBatchSize = defaultPurgeBatchSize
	}
	if cfg.Schema.StatsTTL <= 0 {
		cfg.Schema.StatsTTL = defaultStatsTTL
	}
	if cfg.Schema.RequiredPublicPolicy == "" {
		cfg.Schema.RequiredPublicPolicy = "off"
	}

	if cfg.Cache == nil {
		cfg.Cache = &CacheConfig{}
	}
	if cfg.Cache.DefaultTTL <= 0 {
		cfg.Cache.DefaultTTL = defaultCacheTTL
	}
	if cfg.Cache.CleanupInterval <= 0 {
		cfg.Cache.CleanupInterval = defaultCacheCleanup
	}

	if cfg.PubSub == nil {
		cfg.PubSub = &PubSubConfig{}
	}

	if cfg.Export == nil {
		cfg.Export = &ExportConfig{}
	}
	if cfg.Export.Format == "" {
		cfg.Export.Format = defaultExportFormat
	}
}

// PurgeRetention returns the retention window as a duration.
func (c *SchemaConfig) PurgeRetention() time.Duration {
	if c == nil || c.PurgeRetentionDays <= 0 {
		return defaultPurgeRetentionDays * 24 * time.Hour
	}

	return time.Duration(c.PurgeRetentionDays) * 24 * time.Hour
}
