// Package configloader 提供配置加载与归一化能力，供 Wire 装配使用。
package configloader

import "time"

// RuntimeConfig 聚合应用在运行期所需的配置片段。
type RuntimeConfig struct {
	Service       ServiceInfo
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Auth          AuthConfig
	RateLimit     RateLimitConfig
	Webhooks      WebhookConfig
	VideoProvider VideoProviderConfig
	Storage       StorageConfig
	LLM           LLMConfig
	Secrets       SecretsConfig
	Observability ObservabilityConfig
	Messaging     MessagingConfig
}

// ServiceInfo 描述服务标识与运行环境。
type ServiceInfo struct {
	Name        string
	Version     string
	Environment string
	InstanceID  string
}

// ServerConfig 收敛入站 HTTP 服务所需的网络配置。
type ServerConfig struct {
	Network      string
	Address      string `validate:"required"`
	Timeout      time.Duration
	Handlers     HandlerTimeoutConfig
	MetadataKeys []string
	PublicURL    string `validate:"omitempty,url"`
	MaxBatchSize int    `validate:"min=1,max=100"`
}

// HandlerTimeoutConfig 定义不同类型 Handler 的超时策略。
type HandlerTimeoutConfig struct {
	Default time.Duration
	Command time.Duration
	Query   time.Duration
}

// DatabaseConfig 包含 PostgreSQL 连接池及事务默认值。
type DatabaseConfig struct {
	DSN               string `validate:"required"`
	MaxOpenConns      int    `validate:"min=0"`
	MinOpenConns      int    `validate:"min=0"`
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
	Schema            string
	PreparedStmts     bool
	PoolMetrics       bool
	Transaction       TransactionConfig
}

// TransactionConfig 指定事务默认隔离级别与超时策略。
type TransactionConfig struct {
	DefaultIsolation string
	DefaultTimeout   time.Duration
	LockTimeout      time.Duration
	MaxRetries       int
	MetricsEnabled   bool
}

// RedisConfig 配置限流使用的 Redis。URL 为空时限流回退为进程内实现。
type RedisConfig struct {
	URL       string
	KeyPrefix string
}

// AuthConfig 配置会话令牌校验。PublicKeyPEM 与 HMACSecret 至少提供一个才启用会话校验。
type AuthConfig struct {
	Issuer         string
	Audience       string
	PublicKeyPEM   string
	HMACSecret     string
	CookieName     string
	ClockSkew      time.Duration
	TrustedGateway bool
}

// RateLimitConfig 配置受保护过程的滑动窗口限流。
type RateLimitConfig struct {
	Requests int           `validate:"min=1"`
	Window   time.Duration `validate:"gt=0"`
	Backend  string        `validate:"oneof=redis memory"`
}

// WebhookConfig 配置外部平台回调的签名密钥。
type WebhookConfig struct {
	IdentitySecret string
	VideoSecret    string
	Tolerance      time.Duration
}

// VideoProviderConfig 配置视频平台 API。
type VideoProviderConfig struct {
	Endpoint    string `validate:"omitempty,url"`
	TokenID     string
	TokenSecret string
	StreamBase  string `validate:"omitempty,url"`
	ImageBase   string `validate:"omitempty,url"`
	CORSOrigin  string
	Timeout     time.Duration
}

// StorageConfig 配置 S3 兼容对象存储。
type StorageConfig struct {
	Endpoint        string `validate:"omitempty,url"`
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string `validate:"omitempty,url"`
	UsePathStyle    bool
	MaxUploadBytes  int64 `validate:"min=0"`
}

// LLMConfig 配置生成标题、描述与缩略图的模型服务。API Key 由用户提供。
type LLMConfig struct {
	BaseURL    string `validate:"omitempty,url"`
	Model      string
	ImageModel string
	APIKey     string // 用户未保存 API Key 时使用的服务端 Key
	Timeout    time.Duration
}

// SecretsConfig 配置 API Key Cookie 的加密密钥与 Cookie 名。
type SecretsConfig struct {
	EncryptionKey string
	APIKeyCookie  string
}

// ObservabilityConfig 聚合 tracing 与 metrics 的配置。
type ObservabilityConfig struct {
	GlobalAttributes map[string]string
	Tracing          TracingConfig
	Metrics          MetricsConfig
}

// TracingConfig 描述 OpenTelemetry 追踪导出的行为。
type TracingConfig struct {
	Enabled            bool
	Exporter           string
	Endpoint           string
	Headers            map[string]string
	Insecure           bool
	SamplingRatio      float64 `validate:"min=0,max=1"`
	BatchTimeout       time.Duration
	ExportTimeout      time.Duration
	MaxQueueSize       int
	MaxExportBatchSize int
	Required           bool
	Attributes         map[string]string
}

// MetricsConfig 描述 OpenTelemetry 指标导出的行为。
type MetricsConfig struct {
	Enabled             bool
	Exporter            string
	Endpoint            string
	Headers             map[string]string
	Insecure            bool
	Interval            time.Duration
	DisableRuntimeStats bool
	Required            bool
	ResourceAttributes  map[string]string
}

// MessagingConfig 汇总工作流投递相关配置。
type MessagingConfig struct {
	Schema string
	PubSub PubSubConfig
	Outbox OutboxPublisherConfig
	Inbox  InboxConfig
}

// PubSubConfig 提供与 GCP Pub/Sub 兼容的设置。
type PubSubConfig struct {
	ProjectID           string
	TopicID             string
	SubscriptionID      string
	OrderingKeyEnabled  bool
	LoggingEnabled      bool
	MetricsEnabled      bool
	EmulatorEndpoint    string
	PublishTimeout      time.Duration
	ExactlyOnceDelivery bool
	Receive             PubSubReceiveConfig
}

// PubSubReceiveConfig 控制订阅者拉取行为。
type PubSubReceiveConfig struct {
	NumGoroutines          int
	MaxOutstandingMessages int
	MaxOutstandingBytes    int
	MaxExtension           time.Duration
	MaxExtensionPeriod     time.Duration
}

// OutboxPublisherConfig 配置 Outbox 发布器的运行参数。
type OutboxPublisherConfig struct {
	BatchSize      int
	TickInterval   time.Duration
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxAttempts    int
	PublishTimeout time.Duration
	Workers        int
	LockTTL        time.Duration
	LoggingEnabled *bool
	MetricsEnabled *bool
}

// InboxConfig 配置工作流任务的 Inbox 消费行为。
type InboxConfig struct {
	SourceService  string
	MaxConcurrency int
	LoggingEnabled *bool
	MetricsEnabled *bool
}
