package configloader

import (
	"strings"
	"time"
)

const (
	defaultHandlerTimeout = 5 * time.Second
	defaultQueryTimeout   = 3 * time.Second
	defaultHTTPAddr       = ":3000"
	defaultMaxBatchSize   = 20
	defaultRateRequests   = 10
	defaultRateWindow     = 10 * time.Second
	defaultWebhookSkew    = 5 * time.Minute
	defaultProviderAPI    = "https://api.mux.com"
	defaultStreamBase     = "https://stream.mux.com"
	defaultImageBase      = "https://image.mux.com"
	defaultLLMModel       = "gpt-4o"
	defaultImageModel     = "dall-e-3"
	defaultAPIKeyCookie   = "openai_api_key"
	defaultSessionCookie  = "__session"
)

func fromBootstrap(b *bootstrap) RuntimeConfig {
	if b == nil {
		return RuntimeConfig{}
	}
	return RuntimeConfig{
		Server:        serverFromFile(b.Server),
		Database:      databaseFromFile(b.Data),
		Redis:         RedisConfig{URL: b.Data.Redis.URL, KeyPrefix: firstNonEmpty(b.Data.Redis.KeyPrefix, "ratelimit")},
		Auth:          authFromFile(b.Auth),
		RateLimit:     rateLimitFromFile(b.RateLimit, b.Data.Redis.URL),
		Webhooks:      webhooksFromFile(b.Webhooks),
		VideoProvider: videoProviderFromFile(b.VideoProvider),
		Storage:       storageFromFile(b.Storage),
		LLM:           llmFromFile(b.LLM),
		Secrets: SecretsConfig{
			EncryptionKey: b.Secrets.EncryptionKey,
			APIKeyCookie:  firstNonEmpty(b.Secrets.APIKeyCookie, defaultAPIKeyCookie),
		},
		Observability: observabilityFromFile(b.Observability),
		Messaging:     messagingFromFile(b.Messaging),
	}
}

func serverFromFile(s serverFile) ServerConfig {
	server := ServerConfig{
		Network:      s.HTTP.Network,
		Address:      firstNonEmpty(s.HTTP.Addr, defaultHTTPAddr),
		Timeout:      s.HTTP.Timeout.Std(),
		MetadataKeys: append([]string(nil), s.MetadataKeys...),
		PublicURL:    strings.TrimRight(s.PublicURL, "/"),
		MaxBatchSize: s.MaxBatchSize,
	}
	if server.MaxBatchSize <= 0 {
		server.MaxBatchSize = defaultMaxBatchSize
	}
	handlers := HandlerTimeoutConfig{
		Default: defaultHandlerTimeout,
		Query:   defaultQueryTimeout,
	}
	if d := s.Handlers.DefaultTimeout.Std(); d > 0 {
		handlers.Default = d
	}
	handlers.Command = firstNonZero(s.Handlers.CommandTimeout.Std(), handlers.Default)
	handlers.Query = firstNonZero(s.Handlers.QueryTimeout.Std(), handlers.Query, handlers.Default)
	server.Handlers = handlers
	return server
}

func databaseFromFile(d dataFile) DatabaseConfig {
	pg := d.Postgres
	return DatabaseConfig{
		DSN:               pg.DSN,
		MaxOpenConns:      pg.MaxOpenConns,
		MinOpenConns:      pg.MinOpenConns,
		MaxConnLifetime:   pg.MaxConnLifetime.Std(),
		MaxConnIdleTime:   pg.MaxConnIdleTime.Std(),
		HealthCheckPeriod: pg.HealthCheckPeriod.Std(),
		Schema:            pg.Schema,
		PreparedStmts:     pg.PreparedStatementsEnabled,
		PoolMetrics:       pg.PoolMetricsEnabled,
		Transaction: TransactionConfig{
			DefaultIsolation: pg.Transaction.DefaultIsolation,
			DefaultTimeout:   pg.Transaction.DefaultTimeout.Std(),
			LockTimeout:      pg.Transaction.LockTimeout.Std(),
			MaxRetries:       pg.Transaction.MaxRetries,
			MetricsEnabled:   pg.Transaction.MetricsEnabled,
		},
	}
}

func authFromFile(a authFile) AuthConfig {
	return AuthConfig{
		Issuer:         a.Issuer,
		Audience:       a.Audience,
		PublicKeyPEM:   a.PublicKeyPEM,
		HMACSecret:     a.HMACSecret,
		CookieName:     firstNonEmpty(a.CookieName, defaultSessionCookie),
		ClockSkew:      a.ClockSkew.Std(),
		TrustedGateway: a.TrustedGateway,
	}
}

// rateLimitFromFile 未显式指定后端时，有 Redis 地址即使用 Redis。
func rateLimitFromFile(r rateLimitFile, redisURL string) RateLimitConfig {
	cfg := RateLimitConfig{
		Requests: r.Requests,
		Window:   r.Window.Std(),
		Backend:  strings.ToLower(strings.TrimSpace(r.Backend)),
	}
	if cfg.Requests <= 0 {
		cfg.Requests = defaultRateRequests
	}
	if cfg.Window <= 0 {
		cfg.Window = defaultRateWindow
	}
	if cfg.Backend == "" {
		cfg.Backend = "memory"
		if redisURL != "" {
			cfg.Backend = "redis"
		}
	}
	return cfg
}

func webhooksFromFile(w webhooksFile) WebhookConfig {
	return WebhookConfig{
		IdentitySecret: w.IdentitySecret,
		VideoSecret:    w.VideoSecret,
		Tolerance:      firstNonZero(w.Tolerance.Std(), defaultWebhookSkew),
	}
}

func videoProviderFromFile(v videoProviderFile) VideoProviderConfig {
	return VideoProviderConfig{
		Endpoint:    strings.TrimRight(firstNonEmpty(v.Endpoint, defaultProviderAPI), "/"),
		TokenID:     v.TokenID,
		TokenSecret: v.TokenSecret,
		StreamBase:  strings.TrimRight(firstNonEmpty(v.StreamBase, defaultStreamBase), "/"),
		ImageBase:   strings.TrimRight(firstNonEmpty(v.ImageBase, defaultImageBase), "/"),
		CORSOrigin:  firstNonEmpty(v.CORSOrigin, "*"),
		Timeout:     firstNonZero(v.Timeout.Std(), 10*time.Second),
	}
}

func storageFromFile(s storageFile) StorageConfig {
	cfg := StorageConfig{
		Endpoint:        s.Endpoint,
		Region:          firstNonEmpty(s.Region, "auto"),
		Bucket:          s.Bucket,
		AccessKeyID:     s.AccessKeyID,
		SecretAccessKey: s.SecretAccessKey,
		PublicBaseURL:   strings.TrimRight(s.PublicBaseURL, "/"),
		UsePathStyle:    s.UsePathStyle,
		MaxUploadBytes:  s.MaxUploadBytes,
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 4 << 20
	}
	return cfg
}

func llmFromFile(l llmFile) LLMConfig {
	return LLMConfig{
		BaseURL:    l.BaseURL,
		Model:      firstNonEmpty(l.Model, defaultLLMModel),
		ImageModel: firstNonEmpty(l.ImageModel, defaultImageModel),
		APIKey:     l.APIKey,
		Timeout:    firstNonZero(l.Timeout.Std(), 60*time.Second),
	}
}

func observabilityFromFile(o observabilityFile) ObservabilityConfig {
	return ObservabilityConfig{
		GlobalAttributes: o.GlobalAttributes,
		Tracing: TracingConfig{
			Enabled:            o.Tracing.Enabled,
			Exporter:           o.Tracing.Exporter,
			Endpoint:           o.Tracing.Endpoint,
			Headers:            o.Tracing.Headers,
			Insecure:           o.Tracing.Insecure,
			SamplingRatio:      o.Tracing.SamplingRatio,
			BatchTimeout:       o.Tracing.BatchTimeout.Std(),
			ExportTimeout:      o.Tracing.ExportTimeout.Std(),
			MaxQueueSize:       o.Tracing.MaxQueueSize,
			MaxExportBatchSize: o.Tracing.MaxExportBatchSize,
			Required:           o.Tracing.Required,
			Attributes:         o.Tracing.Attributes,
		},
		Metrics: MetricsConfig{
			Enabled:             o.Metrics.Enabled,
			Exporter:            o.Metrics.Exporter,
			Endpoint:            o.Metrics.Endpoint,
			Headers:             o.Metrics.Headers,
			Insecure:            o.Metrics.Insecure,
			Interval:            o.Metrics.Interval.Std(),
			DisableRuntimeStats: o.Metrics.DisableRuntimeStats,
			Required:            o.Metrics.Required,
			ResourceAttributes:  o.Metrics.ResourceAttributes,
		},
	}
}

func messagingFromFile(m messagingFile) MessagingConfig {
	ps := m.PubSub
	return MessagingConfig{
		Schema: firstNonEmpty(m.Schema, "public"),
		PubSub: PubSubConfig{
			ProjectID:           ps.ProjectID,
			TopicID:             ps.TopicID,
			SubscriptionID:      ps.SubscriptionID,
			OrderingKeyEnabled:  ps.OrderingKeyEnabled,
			LoggingEnabled:      ps.LoggingEnabled,
			MetricsEnabled:      ps.MetricsEnabled,
			EmulatorEndpoint:    ps.EmulatorEndpoint,
			PublishTimeout:      ps.PublishTimeout.Std(),
			ExactlyOnceDelivery: ps.ExactlyOnceDelivery,
			Receive: PubSubReceiveConfig{
				NumGoroutines:          ps.Receive.NumGoroutines,
				MaxOutstandingMessages: ps.Receive.MaxOutstandingMessages,
				MaxOutstandingBytes:    ps.Receive.MaxOutstandingBytes,
				MaxExtension:           ps.Receive.MaxExtension.Std(),
				MaxExtensionPeriod:     ps.Receive.MaxExtensionPeriod.Std(),
			},
		},
		Outbox: OutboxPublisherConfig{
			BatchSize:      m.Outbox.BatchSize,
			TickInterval:   m.Outbox.TickInterval.Std(),
			InitialBackoff: m.Outbox.InitialBackoff.Std(),
			MaxBackoff:     m.Outbox.MaxBackoff.Std(),
			MaxAttempts:    m.Outbox.MaxAttempts,
			PublishTimeout: m.Outbox.PublishTimeout.Std(),
			Workers:        m.Outbox.Workers,
			LockTTL:        m.Outbox.LockTTL.Std(),
			LoggingEnabled: m.Outbox.LoggingEnabled,
			MetricsEnabled: m.Outbox.MetricsEnabled,
		},
		Inbox: InboxConfig{
			SourceService:  firstNonEmpty(m.Inbox.SourceService, "yt-clone"),
			MaxConcurrency: m.Inbox.MaxConcurrency,
			LoggingEnabled: m.Inbox.LoggingEnabled,
			MetricsEnabled: m.Inbox.MetricsEnabled,
		},
	}
}

func firstNonZero(values ...time.Duration) time.Duration {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
