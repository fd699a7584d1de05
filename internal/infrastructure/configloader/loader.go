package configloader

import (
	"fmt"
	"net"
	"os"
	"path/filepath"

	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/file"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Params 控制配置加载的输入参数。
type Params struct {
	ConfPath string
}

const (
	defaultConfPath       = "configs/config.yaml"
	envConfPath           = "CONF_PATH"
	envDatabaseURL        = "DATABASE_URL"
	envPort               = "PORT"
	envRedisURL           = "REDIS_URL"
	envEncryptionKey      = "ENCRYPTION_KEY"
	envLLMAPIKey          = "OPENAI_API_KEY"
	envIdentitySecret     = "IDENTITY_WEBHOOK_SECRET"
	envVideoSecret        = "VIDEO_WEBHOOK_SECRET"
	envProviderTokenID    = "VIDEO_PROVIDER_TOKEN_ID"
	envProviderSecret     = "VIDEO_PROVIDER_TOKEN_SECRET"
	envSessionPublicKey   = "SESSION_PUBLIC_KEY"
	envSessionSecret      = "SESSION_SECRET"
	envStorageKeyID       = "STORAGE_ACCESS_KEY_ID"
	envStorageSecret      = "STORAGE_SECRET_ACCESS_KEY"
	envStorageBucket      = "STORAGE_BUCKET"
	envServiceName        = "SERVICE_NAME"
	envServiceVersion     = "SERVICE_VERSION"
	envEnvironment        = "APP_ENV"
	defaultServiceName    = "yt-clone"
	defaultServiceVersion = "dev"
	defaultEnvironment    = "development"
)

// Load 解析配置文件并返回归一化的 RuntimeConfig。
func Load(params Params) (RuntimeConfig, error) {
	confPath := resolveConfPath(params.ConfPath)
	if err := loadEnvFiles(confPath); err != nil {
		return RuntimeConfig{}, fmt.Errorf("load env files: %w", err)
	}

	boot, err := loadBootstrap(confPath)
	if err != nil {
		return RuntimeConfig{}, err
	}

	runtime := fromBootstrap(boot)
	runtime.Service = buildServiceInfo()

	if err := validator.New().Struct(runtime); err != nil {
		return RuntimeConfig{}, fmt.Errorf("validate config: %w", err)
	}
	return runtime, nil
}

func resolveConfPath(explicit string) string {
	switch {
	case explicit != "":
		return explicit
	case os.Getenv(envConfPath) != "":
		return os.Getenv(envConfPath)
	default:
		return defaultConfPath
	}
}

func loadEnvFiles(confPath string) error {
	dirs := candidateDirs(confPath)
	var files []string
	seen := map[string]struct{}{}
	for _, dir := range dirs {
		for _, name := range []string{".env.local", ".env"} {
			fp := filepath.Join(dir, name)
			if _, err := os.Stat(fp); err != nil {
				continue
			}
			if _, ok := seen[fp]; ok {
				continue
			}
			files = append(files, fp)
			seen[fp] = struct{}{}
		}
	}
	if len(files) == 0 {
		return nil
	}
	return godotenv.Overload(files...)
}

func candidateDirs(confPath string) []string {
	var dirs []string
	add := func(path string) {
		if path == "" {
			return
		}
		clean := filepath.Clean(path)
		for _, exist := range dirs {
			if exist == clean {
				return
			}
		}
		dirs = append(dirs, clean)
	}

	if info, err := os.Stat(confPath); err == nil {
		if info.IsDir() {
			add(confPath)
		} else {
			add(filepath.Dir(confPath))
		}
	}

	if cwd, err := os.Getwd(); err == nil {
		add(cwd)
	}
	return dirs
}

func loadBootstrap(confPath string) (*bootstrap, error) {
	c := config.New(config.WithSource(file.NewSource(confPath)))
	if err := c.Load(); err != nil {
		return nil, fmt.Errorf("load config %q: %w", confPath, err)
	}
	defer c.Close()

	var boot bootstrap
	if err := c.Scan(&boot); err != nil {
		return nil, fmt.Errorf("scan config %q: %w", confPath, err)
	}
	applyEnvOverrides(&boot)
	return &boot, nil
}

func buildServiceInfo() ServiceInfo {
	return ServiceInfo{
		Name:        firstNonEmpty(os.Getenv(envServiceName), defaultServiceName),
		Version:     firstNonEmpty(os.Getenv(envServiceVersion), defaultServiceVersion),
		Environment: resolveEnvironment(os.Getenv(envEnvironment)),
		InstanceID:  hostnameOrDefault(),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func resolveEnvironment(raw string) string {
	switch raw {
	case "", "dev", "development":
		return defaultEnvironment
	case "staging":
		return "staging"
	case "prod", "production":
		return "production"
	default:
		return raw
	}
}

func hostnameOrDefault() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "unknown-instance"
	}
	return host
}

// applyEnvOverrides 用环境变量覆盖密钥与连接串，避免把它们写进配置文件。
func applyEnvOverrides(b *bootstrap) {
	if b == nil {
		return
	}
	override := func(target *string, key string) {
		if v := os.Getenv(key); v != "" {
			*target = v
		}
	}
	override(&b.Data.Postgres.DSN, envDatabaseURL)
	override(&b.Data.Redis.URL, envRedisURL)
	override(&b.Secrets.EncryptionKey, envEncryptionKey)
	override(&b.LLM.APIKey, envLLMAPIKey)
	override(&b.Webhooks.IdentitySecret, envIdentitySecret)
	override(&b.Webhooks.VideoSecret, envVideoSecret)
	override(&b.VideoProvider.TokenID, envProviderTokenID)
	override(&b.VideoProvider.TokenSecret, envProviderSecret)
	override(&b.Auth.PublicKeyPEM, envSessionPublicKey)
	override(&b.Auth.HMACSecret, envSessionSecret)
	override(&b.Storage.AccessKeyID, envStorageKeyID)
	override(&b.Storage.SecretAccessKey, envStorageSecret)
	override(&b.Storage.Bucket, envStorageBucket)
	if port := os.Getenv(envPort); port != "" {
		b.Server.HTTP.Addr = replacePort(b.Server.HTTP.Addr, port)
	}
}

func replacePort(addr, port string) string {
	if addr == "" {
		return ":" + port
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return ":" + port
	}
	return net.JoinHostPort(host, port)
}
