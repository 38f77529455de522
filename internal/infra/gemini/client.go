package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kellyjoo3/pickandcook/internal/infra/metrics"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// Client 는 Generative Language generateContent 요청을 수행한다.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
}

// NewClient 는 Gemini 클라이언트를 생성한다.
func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout + 5*time.Second}
	return &Client{http: httpClient, baseURL: baseURL, apiKey: apiKey}
}

// GenerateContentRequest 는 요청 본문을 기술한다.
type GenerateContentRequest struct {
	Contents []Content `json:"contents"`
}

// Content 는 대화의 한 턴이다.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part 는 텍스트 조각이다.
type Part struct {
	Text string `json:"text"`
}

// GenerateContentResponse 는 모델 응답을 기술한다.
type GenerateContentResponse struct {
	Candidates    []Candidate    `json:"candidates"`
	UsageMetadata *UsageMetadata `json:"usageMetadata,omitempty"`
}

// Candidate 는 생성된 후보 응답이다.
type Candidate struct {
	Content Content `json:"content"`
}

// UsageMetadata 는 토큰 사용 통계를 기술한다.
type UsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// GenerateText 는 단일 프롬프트로 :generateContent 를 호출해 첫 후보의
// 텍스트를 반환한다.
func (c *Client) GenerateText(ctx context.Context, model, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("gemini: api key is empty")
	}
	reqBody := GenerateContentRequest{
		Contents: []Content{{Role: "user", Parts: []Part{{Text: prompt}}}},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("gemini: marshal request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/v1beta/%s:generateContent", c.baseURL, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gemini: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		metrics.ObserveNetworkRequest("gemini", "generate_content", model, start, err)
		return "", fmt.Errorf("gemini: do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ObserveNetworkRequest("gemini", "generate_content", model, start, err)
		return "", fmt.Errorf("gemini: read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		err = fmt.Errorf("gemini: unexpected status %d", resp.StatusCode)
		var apiErr apiErrorResponse
		if uerr := json.Unmarshal(respBody, &apiErr); uerr == nil && apiErr.Error.Message != "" {
			err = fmt.Errorf("gemini: %s", apiErr.Error.Message)
		}
		metrics.ObserveNetworkRequest("gemini", "generate_content", model, start, err)
		return "", err
	}
	var parsed GenerateContentResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		metrics.ObserveNetworkRequest("gemini", "generate_content", model, start, err)
		return "", fmt.Errorf("gemini: decode response: %w", err)
	}
	metrics.ObserveNetworkRequest("gemini", "generate_content", model, start, nil)
	if parsed.UsageMetadata != nil {
		metrics.ObserveLLMGeneration(model, time.Since(start), parsed.UsageMetadata.PromptTokenCount, parsed.UsageMetadata.CandidatesTokenCount, parsed.UsageMetadata.TotalTokenCount)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: 후보 응답 없음")
	}
	var sb strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}
