package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type GeminiConfig struct {
	BaseURL string
	Model   string
	APIKey  string
	Timeout time.Duration
}

func ReadGeminiConfig() *GeminiConfig {
	return &GeminiConfig{
		BaseURL: viper.GetString("gemini.base_url"),
		Model:   viper.GetString("gemini.model"),
		APIKey:  viper.GetString("gemini.api_key"),
		Timeout: viper.GetDuration("gemini.timeout"),
	}
}

// Generator produces raw model text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// GeminiClient calls the generateContent endpoint of the generative language API.
type GeminiClient struct {
	client *http.Client
	config *GeminiConfig
	logger *zap.Logger
}

// NewGeminiClient creates a new Gemini HTTP client
func NewGeminiClient(config *GeminiConfig, logger *zap.Logger) *GeminiClient {
	return &GeminiClient{
		client: &http.Client{Timeout: config.Timeout},
		config: config,
		logger: logger,
	}
}

func (g *GeminiClient) endpoint() string {
	return fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		g.config.BaseURL, g.config.Model, url.QueryEscape(g.config.APIKey))
}

// Generate sends one generateContent request and returns the first candidate's text verbatim.
func (g *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	payloadBytes, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", status.Errorf(codes.Internal, "Failed to marshal request: %v", err)
	}

	// Create the HTTP request
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint(), bytes.NewBuffer(payloadBytes))
	if err != nil {
		return "", status.Errorf(codes.Internal, "Failed to create HTTP request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := g.client.Do(httpReq)
	if err != nil {
		g.logger.Error("Gemini request failed", zap.Error(err))
		return "", status.Errorf(codes.Unavailable, "Failed to send HTTP request: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", status.Errorf(codes.Unavailable, "Failed to read response body: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		g.logger.Error("Gemini returned non-200 status",
			zap.Int("status", resp.StatusCode),
			zap.Duration("elapsed", time.Since(start)))
		return "", status.Errorf(codes.Unavailable, "Gemini returned non-200 status: %d, body: %s", resp.StatusCode, string(body))
	}

	var out generateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", status.Errorf(codes.Internal, "Failed to unmarshal response JSON: %v", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", status.Errorf(codes.Internal, "Gemini response has no candidates")
	}

	g.logger.Debug("Gemini request completed", zap.Duration("elapsed", time.Since(start)))
	return out.Candidates[0].Content.Parts[0].Text, nil
}
