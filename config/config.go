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

const defaultPath = "."

// Defaults applied when the corresponding config values are omitted.
const (
	DefaultTokenURI     = "https://oauth2.googleapis.com/token"
	DefaultPushScope    = "https://www.googleapis.com/auth/firebase.messaging"
	DefaultPushEndpoint = "https://fcm.googleapis.com"
	DefaultSendTimeout  = 5 * time.Second
	DefaultSweepBatch   = 50
)

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port     int `json:"port" yaml:"port"`
		Timeouts struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
	} `json:"http" yaml:"http"`

	Postgres *postgres.DBConn `json:"postgres" yaml:"postgres" mapstructure:"postgres"`

	// Push configuration for the provider credential exchange and fan-out
	Push *PushConfig `json:"push" yaml:"push"`

	// Sweep configuration for the scheduled-notification sweep
	Sweep *SweepConfig `json:"sweep" yaml:"sweep"`

	// PubSub configuration for dispatch event publishing
	PubSub *PubSubConfig `json:"pubsub" yaml:"pubsub"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// PushConfig defines the service-account credential and provider endpoints
// used by the push pipeline.
type PushConfig struct {
	// ProjectID is the push provider project the send endpoint is scoped to.
	ProjectID string `json:"projectId" yaml:"projectId"`

	// ClientEmail is the service-account identity (iss/sub of the assertion).
	ClientEmail string `json:"clientEmail" yaml:"clientEmail"`

	// PrivateKey is the PEM-encoded RSA signing key. PrivateKeyFile may be
	// set instead to read the key from disk at startup.
	PrivateKey     string `json:"privateKey" yaml:"privateKey"`
	PrivateKeyFile string `json:"privateKeyFile" yaml:"privateKeyFile"`

	// TokenURI is the OAuth2 token endpoint for the JWT-bearer exchange.
	TokenURI string `json:"tokenUri" yaml:"tokenUri"`

	// Scope is the requested push-send authority.
	Scope string `json:"scope" yaml:"scope"`

	// Endpoint is the base URL of the provider's send API.
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// SendTimeout bounds each per-device send and the token exchange so a
	// hung provider connection cannot stall a whole sweep batch.
	SendTimeout time.Duration `json:"sendTimeout" yaml:"sendTimeout"`
}

// SweepConfig defines configuration for the scheduled-notification sweep.
type SweepConfig struct {
	// BatchSize caps how many due notifications one sweep invocation selects.
	BatchSize int `json:"batchSize" yaml:"batchSize"`

	// Audience, when set, enables Google OIDC validation of the bearer token
	// on the sweep trigger endpoint (Cloud Scheduler style invocations).
	Audience string `json:"audience" yaml:"audience"`
}

// PubSubConfig defines Pub/Sub configuration for dispatch event publishing
type PubSubConfig struct {
	// Provider type: "local" for local HTTP or "google" for Google Pub/Sub
	Provider string `json:"provider" yaml:"provider"`

	// Google Cloud project ID (for google provider)
	ProjectID string `json:"projectId" yaml:"projectId"`

	// Pub/Sub topic ID (for google provider)
	TopicID string `json:"topicId" yaml:"topicId"`

	// Local HTTP endpoint for development (for local provider)
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
			// Example: PUSH_CLIENTEMAIL -> push.clientEmail (not push.clientemail)
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

	applyPushDefaults(cfg.Push)
	applySweepDefaults(cfg.Sweep)

	if cfg.Postgres != nil {
		// Build replicas from environment variables (POSTGRES_REPLICAS_0_HOST, etc.)
		cfg.Postgres.Replicas = buildReplicasFromEnv()
	}

	return cfg, nil
}

func applyPushDefaults(push *PushConfig) {
	if push == nil {
		return
	}

	if strings.TrimSpace(push.TokenURI) == "" {
		push.TokenURI = DefaultTokenURI
	}
	if strings.TrimSpace(push.Scope) == "" {
		push.Scope = DefaultPushScope
	}
	if strings.TrimSpace(push.Endpoint) == "" {
		push.Endpoint = DefaultPushEndpoint
	}
	if push.SendTimeout <= 0 {
		push.SendTimeout = DefaultSendTimeout
	}
}

func applySweepDefaults(sweep *SweepConfig) {
	if sweep == nil {
		return
	}

	if sweep.BatchSize <= 0 {
		sweep.BatchSize = DefaultSweepBatch
	}
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
// Example: POSTGRES_REPLICAS_0_HOST, POSTGRES_REPLICAS_0_PORT
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
