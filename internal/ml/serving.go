package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"resumatch/internal/breaker"
	"resumatch/internal/config"
	"resumatch/internal/errors"
)

const maxServingResponse = 1 << 20

// ServingLoader connects to a TensorFlow Serving style REST endpoint. Loading
// checks that the model version is AVAILABLE and, for LSTM models, reads the
// tokenizer the model was trained with.
type ServingLoader struct {
	cfg    config.MLConfig
	kind   Kind
	client *http.Client
	logger *errors.Logger
}

// NewServingLoader creates a loader from configuration. client may be nil.
func NewServingLoader(cfg config.MLConfig, client *http.Client, logger *errors.Logger) *ServingLoader {
	if client == nil {
		client = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &ServingLoader{cfg: cfg, kind: ParseKind(cfg.Kind), client: client, logger: logger}
}

type modelStatusResponse struct {
	ModelVersionStatus []struct {
		Version string `json:"version"`
		State   string `json:"state"`
		Status  struct {
			ErrorCode    string `json:"error_code"`
			ErrorMessage string `json:"error_message"`
		} `json:"status"`
	} `json:"model_version_status"`
}

// Load implements Loader.
func (l *ServingLoader) Load(ctx context.Context) (Predictor, error) {
	version, err := l.checkAvailable(ctx)
	if err != nil {
		return nil, err
	}

	p := &servingPredictor{
		loader:  l,
		url:     l.endpoint(":predict"),
		maxLen:  l.cfg.MaxSequenceLength,
		breaker: breaker.New[float64]("ML-"+string(l.kind), l.cfg.CircuitBreaker, l.logger),
	}
	if p.maxLen <= 0 {
		p.maxLen = 500
		if l.kind == KindTransformer {
			p.maxLen = 512
		}
	}

	if l.kind == KindLSTM {
		tok, err := LoadTokenizer(l.cfg.TokenizerFile)
		if err != nil {
			return nil, err
		}
		p.tokenizer = tok
	}

	if l.logger != nil {
		l.logger.Info("Model serving endpoint ready",
			"kind", l.kind,
			"model", l.cfg.ModelName,
			"version", version,
			"max_sequence_length", p.maxLen)
	}
	return p, nil
}

func (l *ServingLoader) endpoint(suffix string) string {
	base := strings.TrimRight(l.cfg.Endpoint, "/")
	return fmt.Sprintf("%s/v1/models/%s%s", base, url.PathEscape(l.cfg.ModelName), suffix)
}

func (l *ServingLoader) checkAvailable(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.endpoint(""), nil)
	if err != nil {
		return "", err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("model status request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("model status returned HTTP %d", resp.StatusCode)
	}

	var status modelStatusResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxServingResponse)).Decode(&status); err != nil {
		return "", fmt.Errorf("invalid model status response: %w", err)
	}
	for _, v := range status.ModelVersionStatus {
		if strings.EqualFold(v.State, "AVAILABLE") {
			return v.Version, nil
		}
	}
	return "", fmt.Errorf("model %s has no AVAILABLE version", l.cfg.ModelName)
}

type servingPredictor struct {
	loader    *ServingLoader
	url       string
	maxLen    int
	tokenizer *Tokenizer
	breaker   *breaker.Breaker[float64]
}

type predictRequest struct {
	Instances []map[string]any `json:"instances"`
}

type predictResponse struct {
	Predictions json.RawMessage `json:"predictions"`
	Error       string          `json:"error"`
}

// Predict implements Predictor.
func (p *servingPredictor) Predict(ctx context.Context, resumeText, jobText string) (float64, error) {
	ctx, span := otel.Tracer("resumatch/ml").Start(ctx, "ml.predict")
	defer span.End()
	span.SetAttributes(
		attribute.String("ml.kind", string(p.loader.kind)),
		attribute.String("ml.model", p.loader.cfg.ModelName),
	)

	body, err := json.Marshal(predictRequest{Instances: []map[string]any{p.instance(resumeText, jobText)}})
	if err != nil {
		return 0, err
	}

	start := time.Now()
	v, err := p.breaker.Execute(func() (float64, error) {
		return p.post(ctx, body)
	})
	span.SetAttributes(attribute.Int64("ml.duration_ms", time.Since(start).Milliseconds()))
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	span.SetAttributes(attribute.Float64("ml.raw_score", v))
	return v, nil
}

func (p *servingPredictor) instance(resumeText, jobText string) map[string]any {
	cfg := p.loader.cfg
	if p.tokenizer != nil {
		return map[string]any{
			cfg.ResumeInput: PadPost(p.tokenizer.Sequence(resumeText), p.maxLen),
			cfg.JobInput:    PadPost(p.tokenizer.Sequence(jobText), p.maxLen),
		}
	}
	// The transformer signature tokenizes server side; truncating by words
	// keeps the request bounded.
	combined := resumeText + " [SEP] " + jobText
	return map[string]any{cfg.TextInput: truncateWords(combined, p.maxLen)}
}

func (p *servingPredictor) post(ctx context.Context, body []byte) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.loader.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("predict request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var out predictResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxServingResponse)).Decode(&out); err != nil {
		return 0, fmt.Errorf("invalid predict response (HTTP %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || out.Error != "" {
		return 0, fmt.Errorf("predict returned HTTP %d: %s", resp.StatusCode, out.Error)
	}
	return firstScalar(out.Predictions)
}

// firstScalar digs the first number out of predictions shaped [[x]], [x] or
// [{"...": [x]}]. Multi-output objects yield the output with the smallest name.
func firstScalar(raw json.RawMessage) (float64, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, fmt.Errorf("invalid predictions: %w", err)
	}
	for depth := 0; depth < 8; depth++ {
		switch t := v.(type) {
		case float64:
			return t, nil
		case []any:
			if len(t) == 0 {
				return 0, fmt.Errorf("empty predictions")
			}
			v = t[0]
		case map[string]any:
			if len(t) == 0 {
				return 0, fmt.Errorf("empty prediction object")
			}
			v = t[slices.Min(slices.Collect(maps.Keys(t)))]
		default:
			return 0, fmt.Errorf("unexpected prediction type %T", v)
		}
	}
	return 0, fmt.Errorf("predictions nested too deeply")
}

func truncateWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}
