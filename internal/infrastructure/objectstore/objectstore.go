// Package objectstore 将缩略图、预览图与横幅写入 S3 兼容的对象存储，并返回可公开访问的 URL。
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

var (
	// ErrDisabled 表示未配置存储桶。
	ErrDisabled = errors.New("objectstore: storage not configured")
	// ErrTooLarge 表示对象超过上传上限。
	ErrTooLarge = errors.New("objectstore: object exceeds size limit")
	// ErrEmptyKey 表示对象键为空。
	ErrEmptyKey = errors.New("objectstore: object key is required")
)

// Config 描述存储桶与访问凭证。
type Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
	UsePathStyle    bool
	MaxUploadBytes  int64
}

// Object 为已写入的对象。
type Object struct {
	Key string
	URL string
}

// API 为 Store 依赖的 S3 操作子集。
type API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Store 封装对象写入与删除。
type Store struct {
	api      API
	bucket   string
	baseURL  string
	maxBytes int64
	log      *log.Helper
}

// New 根据配置构造 Store。未配置 Bucket 时返回禁用状态的 Store。
func New(ctx context.Context, cfg Config, logger log.Logger) (*Store, error) {
	helper := log.NewHelper(logger)
	if strings.TrimSpace(cfg.Bucket) == "" {
		helper.Warn("object storage disabled: bucket not configured")
		return &Store{log: helper}, nil
	}
	region := cfg.Region
	if region == "" {
		region = "auto"
	}
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return NewWithAPI(client, cfg, logger), nil
}

// NewWithAPI 使用给定的 S3 客户端构造 Store。
func NewWithAPI(api API, cfg Config, logger log.Logger) *Store {
	baseURL := strings.TrimRight(cfg.PublicBaseURL, "/")
	if baseURL == "" && cfg.Endpoint != "" {
		baseURL = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	return &Store{
		api:      api,
		bucket:   cfg.Bucket,
		baseURL:  baseURL,
		maxBytes: cfg.MaxUploadBytes,
		log:      log.NewHelper(logger),
	}
}

// Enabled 报告存储是否可用。
func (s *Store) Enabled() bool {
	return s != nil && s.api != nil && s.bucket != ""
}

// MaxUploadBytes 返回单个对象的上限，0 表示不限制。
func (s *Store) MaxUploadBytes() int64 {
	if s == nil {
		return 0
	}
	return s.maxBytes
}

// Put 写入对象。
func (s *Store) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (Object, error) {
	if !s.Enabled() {
		return Object{}, ErrDisabled
	}
	if key == "" {
		return Object{}, ErrEmptyKey
	}
	if s.maxBytes > 0 && size > s.maxBytes {
		return Object{}, ErrTooLarge
	}
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}
	if _, err := s.api.PutObject(ctx, input); err != nil {
		return Object{}, fmt.Errorf("put object %s: %w", key, err)
	}
	return Object{Key: key, URL: s.URL(key)}, nil
}

// PutBytes 写入内存中的对象。
func (s *Store) PutBytes(ctx context.Context, key, contentType string, data []byte) (Object, error) {
	return s.Put(ctx, key, contentType, bytes.NewReader(data), int64(len(data)))
}

// Delete 删除对象，空键视为无操作。
func (s *Store) Delete(ctx context.Context, key string) error {
	if !s.Enabled() {
		return ErrDisabled
	}
	if key == "" {
		return nil
	}
	_, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

// DeleteQuietly 尽力删除一组对象，失败只记录日志。
func (s *Store) DeleteQuietly(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := s.Delete(ctx, key); err != nil {
			s.log.WithContext(ctx).Warnf("best-effort delete failed: key=%s err=%v", key, err)
		}
	}
}

// URL 返回对象的公开地址。
func (s *Store) URL(key string) string {
	if s == nil || s.baseURL == "" {
		return key
	}
	return s.baseURL + "/" + strings.TrimLeft(key, "/")
}

// NewKey 生成 "<prefix>/<owner>/<random><ext>" 形式的对象键。
func NewKey(prefix, owner, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return path.Join(prefix, owner, uuid.NewString()+ext)
}
