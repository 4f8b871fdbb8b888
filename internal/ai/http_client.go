package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the collaborator's REST endpoint.
	DefaultBaseURL = "https://generativelanguage.googleapis.com"

	// DefaultModel handles text and structured calls.
	DefaultModel = "gemini-2.5-flash"

	imageModel = "gemini-2.5-flash-image-preview"
	videoModel = "veo-3.0-generate-preview"

	// DefaultPollInterval spaces out long-running operation polls.
	DefaultPollInterval = 10 * time.Second

	maxResponseBytes = 64 * 1024 * 1024
)

// HTTPClient talks to the collaborator's generateContent and long-running
// operation endpoints.
type HTTPClient struct {
	baseURL      string
	apiKey       string
	model        string
	pollInterval time.Duration
	httpClient   *http.Client
	logger       *slog.Logger
}

func NewHTTPClient(baseURL, apiKey, model string, pollInterval time.Duration, logger *slog.Logger) *HTTPClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &HTTPClient{
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		model:        model,
		pollInterval: pollInterval,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: logger,
	}
}

// Wire shapes of the generateContent endpoint.

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generationConfig struct {
	ResponseMIMEType   string         `json:"responseMimeType,omitempty"`
	ResponseSchema     map[string]any `json:"responseSchema,omitempty"`
	ResponseModalities []string       `json:"responseModalities,omitempty"`
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func mediaPart(data []byte, mimeType string) part {
	return part{InlineData: &inlineData{
		MimeType: mimeType,
		Data:     base64.StdEncoding.EncodeToString(data),
	}}
}

func (c *HTTPClient) RecommendFilter(ctx context.Context, videoData []byte, mimeType string, choices []string) (string, error) {
	instruction := fmt.Sprintf(
		"You are a colorist. Judge this video's mood, content and lighting, and pick the single most flattering visual filter. Answer with one of: %s.",
		strings.Join(choices, ", "),
	)
	req := generateRequest{
		Contents: []content{{Parts: []part{mediaPart(videoData, mimeType), {Text: instruction}}}},
		GenerationConfig: &generationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema: map[string]any{
				"type": "OBJECT",
				"properties": map[string]any{
					"filter": map[string]any{"type": "STRING", "enum": choices},
				},
				"required": []string{"filter"},
			},
		},
	}

	resp, err := c.generate(ctx, c.model, req)
	if err != nil {
		return "", err
	}

	var out struct {
		Filter string `json:"filter"`
	}
	if err := json.Unmarshal([]byte(stripFences(firstText(resp))), &out); err != nil {
		return "", fmt.Errorf("unparseable recommendation: %w", err)
	}
	if out.Filter == "" {
		return "", ErrNoOutput
	}
	return out.Filter, nil
}

func (c *HTTPClient) GeneratePromptFromImage(ctx context.Context, imageData []byte, mimeType string) (string, error) {
	return c.describe(ctx, imageData, mimeType,
		"Describe this image as a vivid, single-paragraph prompt for generating a music video scene. Respond with the prompt only.")
}

func (c *HTTPClient) GenerateAudioPromptFromVideo(ctx context.Context, videoData []byte, mimeType string) (string, error) {
	return c.describe(ctx, videoData, mimeType,
		"Watch this video and write a short prompt describing the soundtrack that would fit it: genre, mood, tempo, instrumentation. Respond with the prompt only.")
}

func (c *HTTPClient) describe(ctx context.Context, data []byte, mimeType, instruction string) (string, error) {
	req := generateRequest{
		Contents: []content{{Parts: []part{mediaPart(data, mimeType), {Text: instruction}}}},
	}
	resp, err := c.generate(ctx, c.model, req)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(firstText(resp))
	if text == "" {
		return "", ErrNoOutput
	}
	return text, nil
}

func (c *HTTPClient) GenerateVideoDetails(ctx context.Context, videoData []byte, mimeType string) (*VideoDetails, error) {
	req := generateRequest{
		Contents: []content{{Parts: []part{
			mediaPart(videoData, mimeType),
			{Text: "Generate publishing metadata for this video: Suno style tags, a YouTube title, a YouTube description and a list of hashtags."},
		}}},
		GenerationConfig: &generationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema: map[string]any{
				"type": "OBJECT",
				"properties": map[string]any{
					"sunoStyleTags":      map[string]any{"type": "STRING"},
					"youtubeTitle":       map[string]any{"type": "STRING"},
					"youtubeDescription": map[string]any{"type": "STRING"},
					"youtubeHashtags":    map[string]any{"type": "ARRAY", "items": map[string]any{"type": "STRING"}},
				},
				"required": []string{"sunoStyleTags", "youtubeTitle", "youtubeDescription", "youtubeHashtags"},
			},
		},
	}

	resp, err := c.generate(ctx, c.model, req)
	if err != nil {
		return nil, err
	}

	var details VideoDetails
	if err := json.Unmarshal([]byte(stripFences(firstText(resp))), &details); err != nil {
		return nil, fmt.Errorf("unparseable video details: %w", err)
	}
	return &details, nil
}

func (c *HTTPClient) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	req := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"IMAGE", "TEXT"},
		},
	}

	resp, err := c.generate(ctx, imageModel, req)
	if err != nil {
		return nil, err
	}

	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			if p.InlineData == nil || p.InlineData.Data == "" {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("undecodable image payload: %w", err)
			}
			return data, nil
		}
	}
	return nil, ErrNoOutput
}

func (c *HTTPClient) GenerateVideo(ctx context.Context, prompt string, imageData []byte, mimeType string) ([]byte, error) {
	instance := map[string]any{"prompt": prompt}
	if len(imageData) > 0 {
		instance["image"] = map[string]any{
			"bytesBase64Encoded": base64.StdEncoding.EncodeToString(imageData),
			"mimeType":           mimeType,
		}
	}
	return c.generateLongRunning(ctx, instance)
}

func (c *HTTPClient) GenerateSpeakingVideo(ctx context.Context, imageData []byte, mimeType, script string) ([]byte, error) {
	prompt := fmt.Sprintf(
		"The person in this image speaks directly to the camera, naturally lip-synced, saying: %q. Static framing, no camera movement.",
		script,
	)
	return c.GenerateVideo(ctx, prompt, imageData, mimeType)
}

// operation mirrors the long-running video job resource.
type operation struct {
	Name     string `json:"name"`
	Done     bool   `json:"done"`
	Response *struct {
		GenerateVideoResponse *struct {
			GeneratedSamples []struct {
				Video struct {
					URI string `json:"uri"`
				} `json:"video"`
			} `json:"generatedSamples"`
		} `json:"generateVideoResponse"`
	} `json:"response"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// generateLongRunning starts a video job and polls it to completion. Polls
// are spaced by the configured interval and stop as soon as ctx is done.
func (c *HTTPClient) generateLongRunning(ctx context.Context, instance map[string]any) ([]byte, error) {
	body := map[string]any{"instances": []any{instance}}
	url := fmt.Sprintf("%s/v1beta/models/%s:predictLongRunning?key=%s", c.baseURL, videoModel, c.apiKey)

	var op operation
	if err := c.post(ctx, url, body, &op); err != nil {
		return nil, err
	}

	c.logger.Info("video generation started", "operation", op.Name)

	for !op.Done {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}

		pollURL := fmt.Sprintf("%s/v1beta/%s?key=%s", c.baseURL, op.Name, c.apiKey)
		if err := c.get(ctx, pollURL, &op); err != nil {
			return nil, err
		}
	}

	if op.Error != nil {
		return nil, &CollaboratorError{StatusCode: op.Error.Code, Body: op.Error.Message}
	}
	if op.Response == nil || op.Response.GenerateVideoResponse == nil ||
		len(op.Response.GenerateVideoResponse.GeneratedSamples) == 0 {
		return nil, ErrNoOutput
	}

	uri := op.Response.GenerateVideoResponse.GeneratedSamples[0].Video.URI
	if uri == "" {
		return nil, ErrNoOutput
	}
	return c.download(ctx, uri)
}

// download fetches the finished file from its signed URI. The key travels as
// a query parameter, matching how the collaborator signs the link.
func (c *HTTPClient) download(ctx context.Context, uri string) ([]byte, error) {
	sep := "?"
	if strings.Contains(uri, "?") {
		sep = "&"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri+sep+"key="+c.apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("create download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &CollaboratorError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
}

func (c *HTTPClient) generate(ctx context.Context, model string, req generateRequest) (*generateResponse, error) {
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, model, c.apiKey)

	var resp generateResponse
	if err := c.post(ctx, url, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) post(ctx context.Context, url string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal collaborator payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *HTTPClient) get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, out)
}

func (c *HTTPClient) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read collaborator response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(respBody) > 4096 {
			respBody = respBody[:4096]
		}
		return &CollaboratorError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode collaborator response: %w", err)
	}
	return nil
}

// firstText concatenates the text parts of the first candidate.
func firstText(resp *generateResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

// stripFences removes a markdown code fence wrapper, which the collaborator
// sometimes adds around JSON answers despite the response MIME type.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
