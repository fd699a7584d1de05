package configloader

import (
	"github.com/bionicotaku/lingo-utils/gclog"
	"github.com/bionicotaku/lingo-utils/gcpubsub"
	obswire "github.com/bionicotaku/lingo-utils/observability"
	outboxcfg "github.com/bionicotaku/lingo-utils/outbox/config"
	"github.com/bionicotaku/lingo-utils/pgxpoolx"
	txconfig "github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"

	"github.com/sanidhyy/yt-clone/internal/controllers"
	"github.com/sanidhyy/yt-clone/internal/infrastructure/identity"
	"github.com/sanidhyy/yt-clone/internal/infrastructure/llm"
	"github.com/sanidhyy/yt-clone/internal/infrastructure/objectstore"
	"github.com/sanidhyy/yt-clone/internal/infrastructure/ratelimit"
	"github.com/sanidhyy/yt-clone/internal/infrastructure/videoprovider"
	"github.com/sanidhyy/yt-clone/internal/services"
)

// ProviderSet 暴露配置加载相关的依赖注入入口。
var ProviderSet = wire.NewSet(
	LoadRuntimeConfig,
	ProvideServiceInfo,
	ProvideLoggerConfig,
	ProvideObservabilityConfig,
	ProvideObservabilityInfo,
	ProvideServerConfig,
	ProvideDatabaseConfig,
	ProvidePgxConfig,
	ProvideTxConfig,
	ProvideMessagingConfig,
	ProvidePubSubConfig,
	ProvidePubSubDependencies,
	ProvideOutboxConfig,
	ProvideHandlerTimeouts,
	ProvideRPCConfig,
	ProvideWebhookSecrets,
	ProvideIdentityConfig,
	ProvideRateLimitConfig,
	ProvideStorageConfig,
	ProvideVideoProviderConfig,
	ProvideLLMConfig,
	ProvideSecretsConfig,
)

// LoadRuntimeConfig 调用 Load 并供 Wire 使用。
func LoadRuntimeConfig(params Params) (RuntimeConfig, error) {
	return Load(params)
}

// ProvideServiceInfo 返回服务元信息。
func ProvideServiceInfo(cfg RuntimeConfig) ServiceInfo {
	return cfg.Service
}

// ProvideLoggerConfig 构造 gclog.Config。
func ProvideLoggerConfig(info ServiceInfo) gclog.Config {
	return gclog.Config{
		Service:              info.Name,
		Version:              info.Version,
		Environment:          info.Environment,
		InstanceID:           info.InstanceID,
		EnableSourceLocation: true,
		StaticLabels: map[string]string{
			"service.id": info.InstanceID,
		},
	}
}

// ProvideObservabilityConfig 将 ObservabilityConfig 转换为 obswire.ObservabilityConfig。
func ProvideObservabilityConfig(cfg RuntimeConfig) obswire.ObservabilityConfig {
	tracing := cfg.Observability.Tracing
	metrics := cfg.Observability.Metrics

	var tracingCfg *obswire.TracingConfig
	if tracing.Enabled || tracing.Endpoint != "" || tracing.Exporter != "" {
		tracingCfg = &obswire.TracingConfig{
			Enabled:            tracing.Enabled,
			Exporter:           tracing.Exporter,
			Endpoint:           tracing.Endpoint,
			Headers:            tracing.Headers,
			Insecure:           tracing.Insecure,
			SamplingRatio:      tracing.SamplingRatio,
			Attributes:         tracing.Attributes,
			BatchTimeout:       tracing.BatchTimeout,
			ExportTimeout:      tracing.ExportTimeout,
			MaxQueueSize:       tracing.MaxQueueSize,
			MaxExportBatchSize: tracing.MaxExportBatchSize,
			Required:           tracing.Required,
		}
	}

	var metricsCfg *obswire.MetricsConfig
	if metrics.Enabled || metrics.Exporter != "" || metrics.Endpoint != "" {
		metricsCfg = &obswire.MetricsConfig{
			Enabled:             metrics.Enabled,
			Exporter:            metrics.Exporter,
			Endpoint:            metrics.Endpoint,
			Headers:             metrics.Headers,
			Insecure:            metrics.Insecure,
			Interval:            metrics.Interval,
			ResourceAttributes:  metrics.ResourceAttributes,
			DisableRuntimeStats: metrics.DisableRuntimeStats,
			Required:            metrics.Required,
		}
	}

	return obswire.ObservabilityConfig{
		Tracing:          tracingCfg,
		Metrics:          metricsCfg,
		GlobalAttributes: cfg.Observability.GlobalAttributes,
	}
}

// ProvideObservabilityInfo 转换为 obswire.ServiceInfo。
func ProvideObservabilityInfo(info ServiceInfo) obswire.ServiceInfo {
	return obswire.ServiceInfo{
		Name:        info.Name,
		Version:     info.Version,
		Environment: info.Environment,
	}
}

// ProvideServerConfig 返回服务端 HTTP 配置。
func ProvideServerConfig(cfg RuntimeConfig) ServerConfig {
	return cfg.Server
}

// ProvideDatabaseConfig 返回数据库配置。
func ProvideDatabaseConfig(cfg RuntimeConfig) DatabaseConfig {
	return cfg.Database
}

// ProvidePgxConfig 将 DatabaseConfig 转换为 pgxpoolx.Config。
func ProvidePgxConfig(dbCfg DatabaseConfig) pgxpoolx.Config {
	enablePrepared := dbCfg.PreparedStmts
	metricsEnabled := dbCfg.PoolMetrics
	return pgxpoolx.Config{
		DSN:                dbCfg.DSN,
		MaxConns:           int32(dbCfg.MaxOpenConns),
		MinConns:           int32(dbCfg.MinOpenConns),
		MaxConnLifetime:    dbCfg.MaxConnLifetime,
		MaxConnIdleTime:    dbCfg.MaxConnIdleTime,
		HealthCheckPeriod:  dbCfg.HealthCheckPeriod,
		Schema:             dbCfg.Schema,
		EnablePreparedStmt: &enablePrepared,
		MetricsEnabled:     &metricsEnabled,
	}
}

// ProvideTxConfig 构造 txmanager.Config。
func ProvideTxConfig(cfg RuntimeConfig) txconfig.Config {
	tx := cfg.Database.Transaction
	return txconfig.Config{
		DefaultIsolation: tx.DefaultIsolation,
		DefaultTimeout:   tx.DefaultTimeout,
		LockTimeout:      tx.LockTimeout,
		MaxRetries:       tx.MaxRetries,
		MetricsEnabled:   boolPtr(tx.MetricsEnabled),
	}
}

// ProvideHandlerTimeouts 将 Server 层配置映射为控制层使用的超时策略。
func ProvideHandlerTimeouts(cfg RuntimeConfig) controllers.HandlerTimeouts {
	handlers := cfg.Server.Handlers
	return controllers.HandlerTimeouts{
		Default: handlers.Default,
		Command: handlers.Command,
		Query:   handlers.Query,
	}
}

// ProvideRPCConfig 返回 RPC 入口的批量与 Cookie 设置。
func ProvideRPCConfig(cfg RuntimeConfig) controllers.RPCConfig {
	return controllers.RPCConfig{
		MaxBatchSize: cfg.Server.MaxBatchSize,
		APIKeyCookie: cfg.Secrets.APIKeyCookie,
		SecureCookie: cfg.Service.Environment != defaultEnvironment,
	}
}

// ProvideWebhookSecrets 返回回调签名密钥。
func ProvideWebhookSecrets(cfg RuntimeConfig) controllers.WebhookSecrets {
	return controllers.WebhookSecrets{
		Identity:  cfg.Webhooks.IdentitySecret,
		Video:     cfg.Webhooks.VideoSecret,
		Tolerance: cfg.Webhooks.Tolerance,
	}
}

// ProvideIdentityConfig 构造会话校验配置。
func ProvideIdentityConfig(cfg RuntimeConfig) identity.Config {
	auth := cfg.Auth
	return identity.Config{
		Issuer:         auth.Issuer,
		Audience:       auth.Audience,
		PublicKeyPEM:   auth.PublicKeyPEM,
		HMACSecret:     auth.HMACSecret,
		CookieName:     auth.CookieName,
		ClockSkew:      auth.ClockSkew,
		TrustedGateway: auth.TrustedGateway,
	}
}

// ProvideRateLimitConfig 合并限流窗口与 Redis 连接。
func ProvideRateLimitConfig(cfg RuntimeConfig) ratelimit.Config {
	return ratelimit.Config{
		Requests:  cfg.RateLimit.Requests,
		Window:    cfg.RateLimit.Window,
		Backend:   cfg.RateLimit.Backend,
		RedisURL:  cfg.Redis.URL,
		KeyPrefix: cfg.Redis.KeyPrefix + ":",
	}
}

// ProvideStorageConfig 构造对象存储配置。
func ProvideStorageConfig(cfg RuntimeConfig) objectstore.Config {
	s := cfg.Storage
	return objectstore.Config{
		Endpoint:        s.Endpoint,
		Region:          s.Region,
		Bucket:          s.Bucket,
		AccessKeyID:     s.AccessKeyID,
		SecretAccessKey: s.SecretAccessKey,
		PublicBaseURL:   s.PublicBaseURL,
		UsePathStyle:    s.UsePathStyle,
		MaxUploadBytes:  s.MaxUploadBytes,
	}
}

// ProvideVideoProviderConfig 构造视频平台客户端配置。CORS 来源缺省取站点地址。
func ProvideVideoProviderConfig(cfg RuntimeConfig) videoprovider.Config {
	v := cfg.VideoProvider
	origin := v.CORSOrigin
	if origin == "*" && cfg.Server.PublicURL != "" {
		origin = cfg.Server.PublicURL
	}
	return videoprovider.Config{
		Endpoint:    v.Endpoint,
		TokenID:     v.TokenID,
		TokenSecret: v.TokenSecret,
		StreamBase:  v.StreamBase,
		ImageBase:   v.ImageBase,
		CORSOrigin:  origin,
		Timeout:     v.Timeout,
	}
}

// ProvideLLMConfig 构造模型客户端配置。
func ProvideLLMConfig(cfg RuntimeConfig) llm.Config {
	return llm.Config{
		BaseURL:    cfg.LLM.BaseURL,
		Model:      cfg.LLM.Model,
		ImageModel: cfg.LLM.ImageModel,
		Timeout:    cfg.LLM.Timeout,
	}
}

// ProvideSecretsConfig 返回 API Key 加密配置。
func ProvideSecretsConfig(cfg RuntimeConfig) services.SecretsConfig {
	return services.SecretsConfig{
		EncryptionKey:  cfg.Secrets.EncryptionKey,
		FallbackAPIKey: cfg.LLM.APIKey,
	}
}

// ProvideMessagingConfig 返回消息相关配置。
func ProvideMessagingConfig(cfg RuntimeConfig) MessagingConfig {
	return cfg.Messaging
}

// ProvidePubSubConfig 将 MessagingConfig 转换为 gcpubsub.Config。
func ProvidePubSubConfig(msg MessagingConfig) gcpubsub.Config {
	ps := msg.PubSub
	if ps.ProjectID == "" {
		return gcpubsub.Config{}
	}
	result := gcpubsub.Config{
		ProjectID:           ps.ProjectID,
		TopicID:             ps.TopicID,
		SubscriptionID:      ps.SubscriptionID,
		PublishTimeout:      ps.PublishTimeout,
		OrderingKeyEnabled:  boolPtr(ps.OrderingKeyEnabled),
		EnableLogging:       boolPtr(ps.LoggingEnabled),
		EnableMetrics:       boolPtr(ps.MetricsEnabled),
		EmulatorEndpoint:    ps.EmulatorEndpoint,
		ExactlyOnceDelivery: ps.ExactlyOnceDelivery,
		Receive: gcpubsub.ReceiveConfig{
			NumGoroutines:          ps.Receive.NumGoroutines,
			MaxOutstandingMessages: ps.Receive.MaxOutstandingMessages,
			MaxOutstandingBytes:    ps.Receive.MaxOutstandingBytes,
			MaxExtension:           ps.Receive.MaxExtension,
			MaxExtensionPeriod:     ps.Receive.MaxExtensionPeriod,
		},
	}
	return result.Normalize()
}

// ProvidePubSubDependencies 注入 Pub/Sub 依赖。
func ProvidePubSubDependencies(logger log.Logger) gcpubsub.Dependencies {
	return gcpubsub.Dependencies{Logger: logger}
}

// ProvideOutboxConfig 构造 outboxcfg.Config。工作流任务只有一个 Inbox。
func ProvideOutboxConfig(msg MessagingConfig) outboxcfg.Config {
	cfg := outboxcfg.Config{
		Schema: msg.Schema,
		Publisher: outboxcfg.PublisherConfig{
			BatchSize:      msg.Outbox.BatchSize,
			TickInterval:   msg.Outbox.TickInterval,
			InitialBackoff: msg.Outbox.InitialBackoff,
			MaxBackoff:     msg.Outbox.MaxBackoff,
			MaxAttempts:    msg.Outbox.MaxAttempts,
			PublishTimeout: msg.Outbox.PublishTimeout,
			Workers:        msg.Outbox.Workers,
			LockTTL:        msg.Outbox.LockTTL,
			LoggingEnabled: msg.Outbox.LoggingEnabled,
			MetricsEnabled: msg.Outbox.MetricsEnabled,
		},
		Inbox: outboxcfg.InboxConfig{
			SourceService:  msg.Inbox.SourceService,
			MaxConcurrency: msg.Inbox.MaxConcurrency,
			LoggingEnabled: msg.Inbox.LoggingEnabled,
			MetricsEnabled: msg.Inbox.MetricsEnabled,
		},
	}

	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return cfg
}

func boolPtr(v bool) *bool {
	return &v
}
