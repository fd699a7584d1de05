package services

import (
	"context"
	"strings"

	"github.com/sanidhyy/yt-clone/internal/secretbox"

	"github.com/go-kratos/kratos/v2/log"
)

// SecretsConfig 描述 API Key 加密与兜底所需的密钥。
type SecretsConfig struct {
	// EncryptionKey 为加密 Cookie 中 API Key 的服务端密钥。
	EncryptionKey string
	// FallbackAPIKey 为用户未保存 API Key 时使用的服务端 Key，可为空。
	FallbackAPIKey string
}

const (
	apiKeyPrefix    = "sk-"
	apiKeyMinLength = 12
)

// AISettingsService 管理用户自带的大模型 API Key。明文只在请求内出现，持久化形式是加密后的 Cookie 值。
type AISettingsService struct {
	secrets SecretsConfig
	log     *log.Helper
}

// NewAISettingsService 构造 AISettingsService。
func NewAISettingsService(secrets SecretsConfig, logger log.Logger) *AISettingsService {
	return &AISettingsService{secrets: secrets, log: log.NewHelper(logger)}
}

// Save 校验并加密 API Key，返回应写入 Cookie 的密文。
func (s *AISettingsService) Save(ctx context.Context, apiKey string) (string, error) {
	apiKey = strings.TrimSpace(apiKey)
	if !strings.HasPrefix(apiKey, apiKeyPrefix) || len(apiKey) < apiKeyMinLength {
		return "", badRequest("Invalid API key!")
	}
	encrypted, err := secretbox.Encrypt(apiKey, s.secrets.EncryptionKey)
	if err != nil {
		s.log.WithContext(ctx).Errorf("encrypt api key failed: err=%v", err)
		return "", internalError("Failed to save API key!", err)
	}
	return encrypted, nil
}

// HasKey 判断 Cookie 中的密文能否解出有效 Key。
func (s *AISettingsService) HasKey(encrypted string) bool {
	return secretbox.Decrypt(encrypted, s.secrets.EncryptionKey) != ""
}

// ResolveAPIKey 解密 Cookie 中的 Key，解不出时回退到服务端 Key。两者都没有时返回空串。
func (s *AISettingsService) ResolveAPIKey(encrypted string) string {
	if key := secretbox.Decrypt(encrypted, s.secrets.EncryptionKey); key != "" {
		return key
	}
	return s.secrets.FallbackAPIKey
}
