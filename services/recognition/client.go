package recognition

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const (
	predictPath = "/predict/"
	extractPath = "/extract_features_from_urls/"
)

// Recognizer identifies buildings from photos and extracts feature vectors.
type Recognizer interface {
	// Identify returns the building id the classifier predicts for an image.
	Identify(ctx context.Context, filename string, image []byte) (string, error)
	// ExtractFeatures returns one feature vector per URL, index-aligned.
	ExtractFeatures(ctx context.Context, urls []string) ([][]float64, error)
}

// Options configures an HTTPClient.
type Options struct {
	BaseURL         string
	Timeout         time.Duration
	MaxRetries      int
	InitialInterval time.Duration
}

// HTTPClient talks to the recognition service over HTTP.
type HTTPClient struct {
	baseURL         string
	httpClient      *http.Client
	maxRetries      int
	initialInterval time.Duration
	breaker         *gobreaker.CircuitBreaker
	logger          *zap.Logger
}

func NewHTTPClient(opts Options, logger *zap.Logger) *HTTPClient {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = 500 * time.Millisecond
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "recognition",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Recognition circuit state changed",
				zap.String("breaker", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})

	return &HTTPClient{
		baseURL:         strings.TrimRight(opts.BaseURL, "/"),
		httpClient:      &http.Client{Timeout: opts.Timeout},
		maxRetries:      opts.MaxRetries,
		initialInterval: opts.InitialInterval,
		breaker:         breaker,
		logger:          logger,
	}
}

type predictResponse struct {
	PredictedID interface{} `json:"predicted_id"`
}

type extractResponse struct {
	Features [][]float64 `json:"features"`
}

func (c *HTTPClient) Identify(ctx context.Context, filename string, image []byte) (string, error) {
	if len(image) == 0 {
		return "", &ServiceError{Op: "predict", Err: errors.New("empty image")}
	}

	var out predictResponse
	err := c.call(ctx, "predict", predictPath, func(w *multipart.Writer) error {
		part, err := w.CreateFormFile("file", filename)
		if err != nil {
			return err
		}
		_, err = part.Write(image)
		return err
	}, &out)
	if err != nil {
		return "", err
	}

	id := predictedID(out.PredictedID)
	if id == "" {
		return "", ErrNoMatch
	}
	return id, nil
}

func (c *HTTPClient) ExtractFeatures(ctx context.Context, urls []string) ([][]float64, error) {
	if len(urls) == 0 {
		return [][]float64{}, nil
	}

	var out extractResponse
	err := c.call(ctx, "extract", extractPath, func(w *multipart.Writer) error {
		for _, u := range urls {
			if err := w.WriteField("urls", u); err != nil {
				return err
			}
		}
		return nil
	}, &out)
	if err != nil {
		return nil, err
	}

	if len(out.Features) != len(urls) {
		return nil, &ServiceError{
			Op:  "extract",
			Err: fmt.Errorf("got %d feature vectors for %d urls", len(out.Features), len(urls)),
		}
	}
	return out.Features, nil
}

// predictedID accepts the numeric or string ids the classifier may return.
func predictedID(v interface{}) string {
	switch id := v.(type) {
	case string:
		return strings.TrimSpace(id)
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		return ""
	}
}

// call posts a multipart form built by fill and decodes the JSON reply into out.
// Transport errors and 5xx replies are retried; everything else fails at once.
func (c *HTTPClient) call(ctx context.Context, op, path string, fill func(*multipart.Writer) error, out interface{}) error {
	attempt := 0
	operation := func() error {
		attempt++
		body, contentType, err := buildForm(fill)
		if err != nil {
			return backoff.Permanent(&ServiceError{Op: op, Err: err})
		}

		res, err := c.breaker.Execute(func() (interface{}, error) {
			return c.post(ctx, op, path, body, contentType)
		})
		if err != nil {
			var svcErr *ServiceError
			switch {
			case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
				return backoff.Permanent(&ServiceError{Op: op, Err: err})
			case ctx.Err() != nil:
				return backoff.Permanent(&ServiceError{Op: op, Err: ctx.Err()})
			case errors.As(err, &svcErr) && !svcErr.transient():
				return backoff.Permanent(svcErr)
			}
			c.logger.Warn("Recognition call failed", zap.String("op", op), zap.Int("attempt", attempt), zap.Error(err))
			return err
		}

		r := res.(*reply)
		if r.status >= 400 {
			return backoff.Permanent(&ServiceError{Op: op, StatusCode: r.status, Err: errors.New(snippet(r.payload))})
		}
		if err := json.Unmarshal(r.payload, out); err != nil {
			return backoff.Permanent(&ServiceError{Op: op, Err: fmt.Errorf("decode response: %w", err)})
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.maxRetries)), ctx)

	err := backoff.Retry(operation, policy)
	if err == nil {
		return nil
	}
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}
	return &ServiceError{Op: op, Err: err}
}

type reply struct {
	status  int
	payload []byte
}

// post sends one request. Only transport failures and 5xx replies come back as
// errors, so the breaker never trips on rejected input.
func (c *HTTPClient) post(ctx context.Context, op, path string, body []byte, contentType string) (interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, &ServiceError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ServiceError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, &ServiceError{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode >= 500 {
		return nil, &ServiceError{Op: op, StatusCode: resp.StatusCode, Err: errors.New(snippet(payload))}
	}
	return &reply{status: resp.StatusCode, payload: payload}, nil
}

func buildForm(fill func(*multipart.Writer) error) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := fill(w); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func snippet(payload []byte) string {
	s := strings.TrimSpace(string(payload))
	if s == "" {
		return "empty response"
	}
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
