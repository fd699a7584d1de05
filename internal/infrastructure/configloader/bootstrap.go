package configloader

import (
	"encoding/json"
	"fmt"
	"time"
)

// Duration 支持在 YAML 中以 "5s"、"250ms" 形式书写时长。
type Duration time.Duration

// UnmarshalJSON 解析字符串时长或纳秒整数。
func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		if v == "" {
			*d = 0
			return nil
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse duration %q: %w", v, err)
		}
		*d = Duration(parsed)
	case float64:
		*d = Duration(time.Duration(v))
	case nil:
		*d = 0
	default:
		return fmt.Errorf("invalid duration %v", raw)
	}
	return nil
}

// Std 转换为 time.Duration。
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// bootstrap 对应 configs/config.yaml 的文件结构。
type bootstrap struct {
	Server        serverFile        `json:"server"`
	Data          dataFile          `json:"data"`
	Auth          authFile          `json:"auth"`
	RateLimit     rateLimitFile     `json:"rate_limit"`
	Webhooks      webhooksFile      `json:"webhooks"`
	VideoProvider videoProviderFile `json:"video_provider"`
	Storage       storageFile       `json:"storage"`
	LLM           llmFile           `json:"llm"`
	Secrets       secretsFile       `json:"secrets"`
	Observability observabilityFile `json:"observability"`
	Messaging     messagingFile     `json:"messaging"`
}

type serverFile struct {
	HTTP struct {
		Network string   `json:"network"`
		Addr    string   `json:"addr"`
		Timeout Duration `json:"timeout"`
	} `json:"http"`
	Handlers struct {
		DefaultTimeout Duration `json:"default_timeout"`
		CommandTimeout Duration `json:"command_timeout"`
		QueryTimeout   Duration `json:"query_timeout"`
	} `json:"handlers"`
	MetadataKeys []string `json:"metadata_keys"`
	PublicURL    string   `json:"public_url"`
	MaxBatchSize int      `json:"max_batch_size"`
}

type dataFile struct {
	Postgres struct {
		DSN                       string   `json:"dsn"`
		MaxOpenConns              int      `json:"max_open_conns"`
		MinOpenConns              int      `json:"min_open_conns"`
		MaxConnLifetime           Duration `json:"max_conn_lifetime"`
		MaxConnIdleTime           Duration `json:"max_conn_idle_time"`
		HealthCheckPeriod         Duration `json:"health_check_period"`
		Schema                    string   `json:"schema"`
		PreparedStatementsEnabled bool     `json:"prepared_statements_enabled"`
		PoolMetricsEnabled        bool     `json:"pool_metrics_enabled"`
		Transaction               struct {
			DefaultIsolation string   `json:"default_isolation"`
			DefaultTimeout   Duration `json:"default_timeout"`
			LockTimeout      Duration `json:"lock_timeout"`
			MaxRetries       int      `json:"max_retries"`
			MetricsEnabled   bool     `json:"metrics_enabled"`
		} `json:"transaction"`
	} `json:"postgres"`
	Redis struct {
		URL       string `json:"url"`
		KeyPrefix string `json:"key_prefix"`
	} `json:"redis"`
}

type authFile struct {
	Issuer         string   `json:"issuer"`
	Audience       string   `json:"audience"`
	PublicKeyPEM   string   `json:"public_key_pem"`
	HMACSecret     string   `json:"hmac_secret"`
	CookieName     string   `json:"cookie_name"`
	ClockSkew      Duration `json:"clock_skew"`
	TrustedGateway bool     `json:"trusted_gateway"`
}

type rateLimitFile struct {
	Requests int      `json:"requests"`
	Window   Duration `json:"window"`
	Backend  string   `json:"backend"`
}

type webhooksFile struct {
	IdentitySecret string   `json:"identity_secret"`
	VideoSecret    string   `json:"video_secret"`
	Tolerance      Duration `json:"tolerance"`
}

type videoProviderFile struct {
	Endpoint    string   `json:"endpoint"`
	TokenID     string   `json:"token_id"`
	TokenSecret string   `json:"token_secret"`
	StreamBase  string   `json:"stream_base"`
	ImageBase   string   `json:"image_base"`
	CORSOrigin  string   `json:"cors_origin"`
	Timeout     Duration `json:"timeout"`
}

type storageFile struct {
	Endpoint        string `json:"endpoint"`
	Region          string `json:"region"`
	Bucket          string `json:"bucket"`
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
	PublicBaseURL   string `json:"public_base_url"`
	UsePathStyle    bool   `json:"use_path_style"`
	MaxUploadBytes  int64  `json:"max_upload_bytes"`
}

type llmFile struct {
	BaseURL    string   `json:"base_url"`
	Model      string   `json:"model"`
	ImageModel string   `json:"image_model"`
	APIKey     string   `json:"api_key"`
	Timeout    Duration `json:"timeout"`
}

type secretsFile struct {
	EncryptionKey string `json:"encryption_key"`
	APIKeyCookie  string `json:"api_key_cookie"`
}

type observabilityFile struct {
	GlobalAttributes map[string]string `json:"global_attributes"`
	Tracing          struct {
		Enabled            bool              `json:"enabled"`
		Exporter           string            `json:"exporter"`
		Endpoint           string            `json:"endpoint"`
		Headers            map[string]string `json:"headers"`
		Insecure           bool              `json:"insecure"`
		SamplingRatio      float64           `json:"sampling_ratio"`
		BatchTimeout       Duration          `json:"batch_timeout"`
		ExportTimeout      Duration          `json:"export_timeout"`
		MaxQueueSize       int               `json:"max_queue_size"`
		MaxExportBatchSize int               `json:"max_export_batch_size"`
		Required           bool              `json:"required"`
		Attributes         map[string]string `json:"attributes"`
	} `json:"tracing"`
	Metrics struct {
		Enabled             bool              `json:"enabled"`
		Exporter            string            `json:"exporter"`
		Endpoint            string            `json:"endpoint"`
		Headers             map[string]string `json:"headers"`
		Insecure            bool              `json:"insecure"`
		Interval            Duration          `json:"interval"`
		DisableRuntimeStats bool              `json:"disable_runtime_stats"`
		Required            bool              `json:"required"`
		ResourceAttributes  map[string]string `json:"resource_attributes"`
	} `json:"metrics"`
}

type messagingFile struct {
	Schema string     `json:"schema"`
	PubSub pubSubFile `json:"pubsub"`
	Outbox struct {
		BatchSize      int      `json:"batch_size"`
		TickInterval   Duration `json:"tick_interval"`
		InitialBackoff Duration `json:"initial_backoff"`
		MaxBackoff     Duration `json:"max_backoff"`
		MaxAttempts    int      `json:"max_attempts"`
		PublishTimeout Duration `json:"publish_timeout"`
		Workers        int      `json:"workers"`
		LockTTL        Duration `json:"lock_ttl"`
		LoggingEnabled *bool    `json:"logging_enabled"`
		MetricsEnabled *bool    `json:"metrics_enabled"`
	} `json:"outbox"`
	Inbox struct {
		SourceService  string `json:"source_service"`
		MaxConcurrency int    `json:"max_concurrency"`
		LoggingEnabled *bool  `json:"logging_enabled"`
		MetricsEnabled *bool  `json:"metrics_enabled"`
	} `json:"inbox"`
}

type pubSubFile struct {
	ProjectID           string   `json:"project_id"`
	TopicID             string   `json:"topic_id"`
	SubscriptionID      string   `json:"subscription_id"`
	OrderingKeyEnabled  bool     `json:"ordering_key_enabled"`
	LoggingEnabled      bool     `json:"logging_enabled"`
	MetricsEnabled      bool     `json:"metrics_enabled"`
	EmulatorEndpoint    string   `json:"emulator_endpoint"`
	PublishTimeout      Duration `json:"publish_timeout"`
	ExactlyOnceDelivery bool     `json:"exactly_once_delivery"`
	Receive             struct {
		NumGoroutines          int      `json:"num_goroutines"`
		MaxOutstandingMessages int      `json:"max_outstanding_messages"`
		MaxOutstandingBytes    int      `json:"max_outstanding_bytes"`
		MaxExtension           Duration `json:"max_extension"`
		MaxExtensionPeriod     Duration `json:"max_extension_period"`
	} `json:"receive"`
}
