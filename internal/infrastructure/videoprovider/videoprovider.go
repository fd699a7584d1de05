// Package videoprovider 封装第三方视频平台的直传、资产查询与图片/字幕下载接口。
package videoprovider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	httpclient "github.com/sanidhyy/yt-clone/internal/infrastructure/http_client"

	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// ErrDisabled 表示未配置视频平台凭证。
var ErrDisabled = errors.New("videoprovider: provider not configured")

// Config 描述视频平台的端点与凭证。
type Config struct {
	Endpoint     string
	TokenID      string
	TokenSecret  string
	StreamBase   string
	ImageBase    string
	CORSOrigin   string
	Timeout      time.Duration
	MetadataKeys []string
}

// Upload 为直传会话。
type Upload struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	Status  string `json:"status"`
	AssetID string `json:"asset_id"`
}

// PlaybackID 为播放标识。
type PlaybackID struct {
	ID     string `json:"id"`
	Policy string `json:"policy"`
}

// Track 为资产下的音视频或字幕轨道。
type Track struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	Status       string `json:"status"`
	TextSource   string `json:"text_source"`
	LanguageCode string `json:"language_code"`
}

// Asset 为转码后的视频资产。Duration 单位为秒。
type Asset struct {
	ID          string       `json:"id"`
	Status      string       `json:"status"`
	Duration    float64      `json:"duration"`
	PlaybackIDs []PlaybackID `json:"playback_ids"`
	Tracks      []Track      `json:"tracks"`
	UploadID    string       `json:"upload_id"`
	Passthrough string       `json:"passthrough"`
}

// PlaybackID 返回首个播放标识。
func (a Asset) PlaybackID() string {
	if len(a.PlaybackIDs) == 0 {
		return ""
	}
	return a.PlaybackIDs[0].ID
}

// DurationMillis 返回四舍五入后的毫秒时长。
func (a Asset) DurationMillis() int64 {
	if a.Duration <= 0 {
		return 0
	}
	return int64(a.Duration*1000 + 0.5)
}

type envelope[T any] struct {
	Data T `json:"data"`
}

type createUploadRequest struct {
	CORSOrigin       string           `json:"cors_origin"`
	NewAssetSettings newAssetSettings `json:"new_asset_settings"`
}

type newAssetSettings struct {
	Passthrough      string            `json:"passthrough"`
	PlaybackPolicies []string          `json:"playback_policies"`
	Inputs           []assetInput      `json:"inputs"`
	StaticRenditions []staticRendition `json:"static_renditions"`
}

type assetInput struct {
	GeneratedSubtitles []generatedSubtitle `json:"generated_subtitles"`
}

type generatedSubtitle struct {
	LanguageCode string `json:"language_code"`
	Name         string `json:"name"`
}

type staticRendition struct {
	Resolution string `json:"resolution"`
}

// Client 调用视频平台。
type Client struct {
	api        *khttp.Client
	stream     *khttp.Client
	image      *khttp.Client
	corsOrigin string
	log        *log.Helper
}

// NewClient 构造 Client。未配置凭证时返回的 Client 所有远程调用均返回 ErrDisabled。
func NewClient(ctx context.Context, cfg Config, logger log.Logger) (*Client, func(), error) {
	c := &Client{corsOrigin: cfg.CORSOrigin, log: log.NewHelper(logger)}
	if cfg.TokenID == "" || cfg.TokenSecret == "" {
		c.log.Warn("video provider disabled: credentials not configured")
		return c, func() {}, nil
	}

	var cleanups []func()
	cleanup := func() {
		for _, fn := range cleanups {
			fn()
		}
	}
	api, apiCleanup, err := httpclient.NewClient(ctx, httpclient.Config{
		Endpoint: cfg.Endpoint, Timeout: cfg.Timeout, MetadataKeys: cfg.MetadataKeys,
	}, logger, httpclient.BasicAuth(cfg.TokenID, cfg.TokenSecret))
	if err != nil {
		return nil, nil, fmt.Errorf("video provider api client: %w", err)
	}
	cleanups = append(cleanups, apiCleanup)

	stream, streamCleanup, err := httpclient.NewClient(ctx, httpclient.Config{
		Endpoint: cfg.StreamBase, Timeout: cfg.Timeout, Raw: true,
	}, logger)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("video provider stream client: %w", err)
	}
	cleanups = append(cleanups, streamCleanup)

	image, imageCleanup, err := httpclient.NewClient(ctx, httpclient.Config{
		Endpoint: cfg.ImageBase, Timeout: cfg.Timeout, Raw: true,
	}, logger)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("video provider image client: %w", err)
	}
	cleanups = append(cleanups, imageCleanup)

	c.api, c.stream, c.image = api, stream, image
	return c, cleanup, nil
}

// Enabled 报告是否可调用平台 API。
func (c *Client) Enabled() bool {
	return c != nil && c.api != nil
}

// CreateUpload 申请一个直传地址，passthrough 回传给后续回调。
func (c *Client) CreateUpload(ctx context.Context, passthrough string) (Upload, error) {
	if !c.Enabled() {
		return Upload{}, ErrDisabled
	}
	req := createUploadRequest{
		CORSOrigin: c.corsOrigin,
		NewAssetSettings: newAssetSettings{
			Passthrough:      passthrough,
			PlaybackPolicies: []string{"public"},
			Inputs: []assetInput{{
				GeneratedSubtitles: []generatedSubtitle{{LanguageCode: "en", Name: "English"}},
			}},
			StaticRenditions: []staticRendition{{Resolution: "highest"}},
		},
	}
	var reply envelope[Upload]
	if err := c.api.Invoke(ctx, http.MethodPost, "/video/v1/uploads", req, &reply); err != nil {
		return Upload{}, fmt.Errorf("create upload: %w", err)
	}
	return reply.Data, nil
}

// GetUpload 查询直传会话。
func (c *Client) GetUpload(ctx context.Context, uploadID string) (Upload, error) {
	if !c.Enabled() {
		return Upload{}, ErrDisabled
	}
	var reply envelope[Upload]
	if err := c.api.Invoke(ctx, http.MethodGet, "/video/v1/uploads/"+url.PathEscape(uploadID), nil, &reply); err != nil {
		return Upload{}, fmt.Errorf("get upload %s: %w", uploadID, err)
	}
	return reply.Data, nil
}

// GetAsset 查询资产详情。
func (c *Client) GetAsset(ctx context.Context, assetID string) (Asset, error) {
	if !c.Enabled() {
		return Asset{}, ErrDisabled
	}
	var reply envelope[Asset]
	if err := c.api.Invoke(ctx, http.MethodGet, "/video/v1/assets/"+url.PathEscape(assetID), nil, &reply); err != nil {
		return Asset{}, fmt.Errorf("get asset %s: %w", assetID, err)
	}
	return reply.Data, nil
}

// DeleteAsset 删除资产，资产不存在视为成功。
func (c *Client) DeleteAsset(ctx context.Context, assetID string) error {
	if !c.Enabled() {
		return ErrDisabled
	}
	var reply httpclient.Discard
	err := c.api.Invoke(ctx, http.MethodDelete, "/video/v1/assets/"+url.PathEscape(assetID), nil, &reply)
	if err != nil && !httpclient.IsNotFound(err) {
		return fmt.Errorf("delete asset %s: %w", assetID, err)
	}
	return nil
}

// FetchTranscript 下载字幕轨道的纯文本。
func (c *Client) FetchTranscript(ctx context.Context, playbackID, trackID string) (string, error) {
	if c == nil || c.stream == nil {
		return "", ErrDisabled
	}
	var body httpclient.Body
	path := fmt.Sprintf("/%s/text/%s.txt", url.PathEscape(playbackID), url.PathEscape(trackID))
	if err := c.stream.Invoke(ctx, http.MethodGet, path, nil, &body); err != nil {
		return "", fmt.Errorf("fetch transcript %s: %w", trackID, err)
	}
	return string(body.Data), nil
}

// 平台生成的静态图片名。
const (
	ImageThumbnail = "thumbnail.jpg"
	ImagePreview   = "animated.gif"
)

// FetchImage 下载平台生成的静态图片。
func (c *Client) FetchImage(ctx context.Context, playbackID, name string) ([]byte, string, error) {
	if c == nil || c.image == nil {
		return nil, "", ErrDisabled
	}
	var body httpclient.Body
	path := "/" + url.PathEscape(playbackID) + "/" + name
	if err := c.image.Invoke(ctx, http.MethodGet, path, nil, &body); err != nil {
		return nil, "", fmt.Errorf("fetch image %s: %w", name, err)
	}
	contentType := body.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(body.Data)
	}
	return body.Data, contentType, nil
}
