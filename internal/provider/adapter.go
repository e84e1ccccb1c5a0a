package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/recoverlens/recovery-engine/pkg/config"
	"github.com/recoverlens/recovery-engine/pkg/logger"
	"github.com/recoverlens/recovery-engine/pkg/types"
)

// invocationPayload is the wire request sent to an analysis backend
type invocationPayload struct {
	Model    string            `json:"model,omitempty"`
	Modality types.Modality    `json:"modality"`
	Text     string            `json:"text,omitempty"`
	Images   []string          `json:"images,omitempty"`
	Context  map[string]string `json:"context,omitempty"`
}

// HTTPAdapter wraps one JSON-over-HTTP analysis backend. It is safe for
// concurrent use.
type HTTPAdapter struct {
	provider types.Provider
	endpoint string
	model    string
	apiKey   string
	discount float64
	client   *http.Client
	limiter  *rate.Limiter
	logger   *logger.Logger
}

// NewHTTPAdapter creates an adapter from one provider's static configuration
func NewHTTPAdapter(cfg config.ProviderConfig, discount float64, log *logger.Logger) (*HTTPAdapter, error) {
	capabilities := make([]types.Modality, 0, len(cfg.Capabilities))
	for _, c := range cfg.Capabilities {
		capabilities = append(capabilities, types.Modality(c))
	}

	adapter := &HTTPAdapter{
		provider: types.Provider{
			Name:         cfg.Name,
			Capabilities: capabilities,
			Reliability:  cfg.Reliability,
		},
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		discount: discount,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		logger: log,
	}

	if cfg.APIKeyEnv != "" {
		adapter.apiKey = os.Getenv(cfg.APIKeyEnv)
		if adapter.apiKey == "" {
			return nil, fmt.Errorf("provider %s: environment variable %s is not set", cfg.Name, cfg.APIKeyEnv)
		}
	}

	if cfg.RateLimitPerMin > 0 {
		adapter.limiter = rate.NewLimiter(rate.Limit(float64(cfg.RateLimitPerMin)/60.0), cfg.RateLimitPerMin)
	}

	return adapter, nil
}

// Provider returns the static identity of the wrapped backend
func (a *HTTPAdapter) Provider() types.Provider {
	return a.provider
}

// Invoke runs one analysis call against the backend. Transport and auth
// failures return a structured provider error; a successful transport with an
// unparsable payload falls back to heuristic extraction with discounted
// confidence instead of failing.
func (a *HTTPAdapter) Invoke(ctx context.Context, req *types.AnalysisRequest) (*types.ProviderResult, error) {
	start := time.Now()

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, types.NewProviderError(types.ErrorTypeTimeout, types.ErrCodeProviderTimeout,
				fmt.Sprintf("provider %s: rate limit wait aborted", a.provider.Name), err)
		}
	}

	raw, err := a.call(ctx, req)
	if err != nil {
		return nil, err
	}

	latency := time.Since(start).Milliseconds()

	analysis, parseErr := parseStructured(raw)
	if parseErr != nil {
		// Unparsable payload on a successful transport: mine the raw text
		// instead and discount the confidence.
		a.logger.WithProvider(a.provider.Name).WithError(parseErr).
			Debug("Structured decode failed, using fallback extraction")

		extracted := ExtractFromText(string(raw))
		return &types.ProviderResult{
			Provider:     a.provider,
			Confidence:   a.provider.Reliability * a.discount,
			Analysis:     extracted,
			UsedFallback: true,
			LatencyMS:    latency,
			Timestamp:    time.Now(),
		}, nil
	}

	return &types.ProviderResult{
		Provider:   a.provider,
		Confidence: a.provider.Reliability,
		Analysis:   *analysis,
		LatencyMS:  latency,
		Timestamp:  time.Now(),
	}, nil
}

// call performs the HTTP round trip and maps transport failures onto the
// structured error taxonomy
func (a *HTTPAdapter) call(ctx context.Context, req *types.AnalysisRequest) ([]byte, error) {
	payload := invocationPayload{
		Model:    a.model,
		Modality: req.Modality,
		Text:     req.Text,
		Images:   req.Images,
		Context:  req.Context,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError,
			fmt.Sprintf("provider %s: failed to encode request", a.provider.Name), err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError,
			fmt.Sprintf("provider %s: failed to build request", a.provider.Name), err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, types.NewProviderError(types.ErrorTypeTimeout, types.ErrCodeProviderTimeout,
				fmt.Sprintf("provider %s: call cancelled or timed out", a.provider.Name), err)
		}
		return nil, types.NewProviderError(types.ErrorTypeExternal, types.ErrCodeProviderUnreachable,
			fmt.Sprintf("provider %s: transport failure", a.provider.Name), err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, types.NewProviderError(types.ErrorTypeExternal, types.ErrCodeProviderUnreachable,
			fmt.Sprintf("provider %s: failed to read response", a.provider.Name), err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, types.NewProviderError(types.ErrorTypeAuthentication, types.ErrCodeProviderAuth,
			fmt.Sprintf("provider %s: authentication rejected (%d)", a.provider.Name, resp.StatusCode), nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, types.NewProviderError(types.ErrorTypeRateLimit, types.ErrCodeProviderRateLimited,
			fmt.Sprintf("provider %s: rate limited", a.provider.Name), nil)
	case resp.StatusCode >= 400:
		return nil, types.NewProviderError(types.ErrorTypeExternal, types.ErrCodeProviderUnreachable,
			fmt.Sprintf("provider %s: unexpected status %d", a.provider.Name, resp.StatusCode), nil)
	}

	return raw, nil
}

// parseStructured decodes a provider payload into the normalized schema.
// Providers that wrap JSON in surrounding prose are tolerated by slicing out
// the outermost object.
func parseStructured(raw []byte) (*types.StructuredAnalysis, error) {
	var analysis types.StructuredAnalysis
	if err := json.Unmarshal(raw, &analysis); err == nil && analysisNonEmpty(&analysis) {
		return &analysis, nil
	}

	text := string(raw)
	begin := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if begin < 0 || end <= begin {
		return nil, types.NewParseError("payload contains no JSON object", nil)
	}

	if err := json.Unmarshal([]byte(text[begin:end+1]), &analysis); err != nil {
		return nil, types.NewParseError("embedded JSON object is malformed", err)
	}
	if !analysisNonEmpty(&analysis) {
		return nil, types.NewParseError("decoded payload carries no analysis fields", nil)
	}

	return &analysis, nil
}

// analysisNonEmpty reports whether a decode produced anything usable. A
// zero-value decode of arbitrary JSON must not be mistaken for a real result.
func analysisNonEmpty(a *types.StructuredAnalysis) bool {
	return len(a.Findings) > 0 || len(a.Recommendations) > 0 || a.RiskTier != ""
}
