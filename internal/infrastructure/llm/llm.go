// Package llm 调用 OpenAI 兼容接口生成视频标题、描述与缩略图。
//
// API Key 由调用方逐次传入，客户端不持有任何用户凭证。
package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	openai "github.com/sashabaranov/go-openai"
)

var (
	// ErrMissingAPIKey 表示调用方未提供 API Key。
	ErrMissingAPIKey = errors.New("llm: api key is required")
	// ErrEmptyResponse 表示模型未返回内容。
	ErrEmptyResponse = errors.New("llm: empty response")
)

// Config 描述模型与接口地址。
type Config struct {
	BaseURL    string
	Model      string
	ImageModel string
	Timeout    time.Duration
}

// Client 生成文本与图片。
type Client struct {
	cfg Config
	log *log.Helper
}

// NewClient 构造 Client。
func NewClient(cfg Config, logger log.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = openai.GPT4o
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = openai.CreateImageModelDallE3
	}
	return &Client{cfg: cfg, log: log.NewHelper(logger)}
}

func (c *Client) api(apiKey string) (*openai.Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	conf := openai.DefaultConfig(apiKey)
	if c.cfg.BaseURL != "" {
		conf.BaseURL = c.cfg.BaseURL
	}
	return openai.NewClientWithConfig(conf), nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.cfg.Timeout)
}

// GenerateText 以 system 提示词约束模型，对 input 生成一段文本。
func (c *Client) GenerateText(ctx context.Context, apiKey, system, input string) (string, error) {
	api, err := c.api(apiKey)
	if err != nil {
		return "", err
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: input},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	c.log.WithContext(ctx).Debugf("chat completion done: model=%s tokens=%d", resp.Model, resp.Usage.TotalTokens)
	return text, nil
}

// GenerateImage 依据 prompt 生成 1792x1024 的图片并返回 PNG 字节。
func (c *Client) GenerateImage(ctx context.Context, apiKey, prompt string) ([]byte, error) {
	api, err := c.api(apiKey)
	if err != nil {
		return nil, err
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := api.CreateImage(ctx, openai.ImageRequest{
		Model:          c.cfg.ImageModel,
		Prompt:         prompt,
		N:              1,
		Size:           openai.CreateImageSize1792x1024,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return nil, fmt.Errorf("create image: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, ErrEmptyResponse
	}
	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return data, nil
}

// 生成标题与描述的系统提示词。
const (
	TitleSystemPrompt = `Your task is to generate an SEO-focused title for a YouTube video based on its transcript. Please follow these guidelines:
- Be concise but descriptive, using relevant keywords to improve discoverability.
- Highlight the most compelling or unique aspect of the video content.
- Avoid jargon or overly complex language unless it directly supports searchability.
- Use action-oriented phrasing or clear value propositions where applicable.
- Ensure the title is 3-8 words long and no more than 100 characters.
- ONLY return the title as plain text. Do not add quotes or any additional formatting.`

	DescriptionSystemPrompt = `Your task is to summarize the transcript of a video. Please follow these guidelines:
- Be brief. Condense the content into a summary that captures the key points and main ideas without losing important details.
- Avoid jargon or overly complex language unless necessary for the context.
- Focus on the most critical information, ignoring filler, repetitive statements, or irrelevant tangents.
- ONLY return the summary, no other text, annotations, or comments.
- Aim for a summary that is 3-5 sentences long and no more than 200 characters.`
)
