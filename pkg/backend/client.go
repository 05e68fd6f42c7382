// Package backend talks to the commerce API that owns orders, products and
// published reviews. Reads fail open, the write fails closed.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/retry"

	"ai-review-be/internal/pkg/logger"
)

const (
	createPath          = "/api/feedbacks"
	doneProductPath     = "/api/feedbacks/product/%s/done"
	doneOrderItemPath   = "/api/feedbacks/order-item/%s/done"
	eligibilityPath     = "/api/feedbacks/eligibility?orderItemId=%s"
	mePath              = "/api/me"
	defaultReadTimeout  = 5 * time.Second
	defaultWriteTimeout = 10 * time.Second
)

// Default reasons when the backend refuses without saying why.
const (
	ReasonProductReviewed   = "이미 해당 상품으로 작성하셨습니다."
	ReasonOrderItemReviewed = "이미 해당 주문에 대한 피드백이 등록되었습니다."
	ReasonNotEligible       = "피드백 작성 조건을 충족하지 않습니다."
)

// ErrAuthRequired is returned by Submit when no token is available.
var ErrAuthRequired = errors.New("인증이 필요합니다.")

// SubmitError carries the backend's own rejection message.
type SubmitError struct {
	StatusCode int
	Reason     string
}

func (e *SubmitError) Error() string {
	return e.Reason
}

// Reason returns the text to show a user for a failed submission.
func Reason(err error) string {
	var se *SubmitError
	if errors.As(err, &se) {
		return se.Reason
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

type Config struct {
	BaseURL      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	ReadAttempts int
}

type Client struct {
	baseURL      string
	readClient   *http.Client
	writeClient  *http.Client
	readRetryCfg retry.Config
	logger       logger.ILogger
}

func NewClient(cfg Config, log logger.ILogger) *Client {
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if cfg.ReadAttempts < 1 {
		cfg.ReadAttempts = 2
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		readClient:  &http.Client{Timeout: cfg.ReadTimeout},
		writeClient: &http.Client{Timeout: cfg.WriteTimeout},
		readRetryCfg: retry.Config{
			MaxAttempts:   cfg.ReadAttempts,
			InitialDelay:  100 * time.Millisecond,
			BackoffPolicy: retry.BackoffExponential,
		},
		logger: log,
	}
}

// Bearer normalizes a token to the "Bearer <token>" form. Blank input stays blank.
func Bearer(token string) string {
	t := strings.TrimSpace(token)
	if t == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(t), "bearer ") {
		return "Bearer " + strings.TrimSpace(t[len("bearer "):])
	}
	return "Bearer " + t
}

// RawToken strips the scheme, which is how tokens are kept in the context.
func RawToken(token string) string {
	b := Bearer(token)
	if b == "" {
		return ""
	}
	return strings.TrimPrefix(b, "Bearer ")
}

type readResult struct {
	status int
	body   []byte
}

// get performs a GET. Transport errors are retried; any HTTP status is a result.
func (c *Client) get(ctx context.Context, path, token string) (readResult, error) {
	r := retry.New[readResult](c.readRetryCfg)
	return r.Do(ctx, func(ctx context.Context) (readResult, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return readResult{}, fmt.Errorf("create request: %w", err)
		}
		if b := Bearer(token); b != "" {
			req.Header.Set("Authorization", b)
		}
		resp, err := c.readClient.Do(req)
		if err != nil {
			return readResult{}, fmt.Errorf("backend request failed: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return readResult{}, fmt.Errorf("read response: %w", err)
		}
		return readResult{status: resp.StatusCode, body: body}, nil
	})
}

// getObject fetches path and decodes a JSON object, unwrapping a "data"
// envelope. Misses are reported as ok=false.
func (c *Client) getObject(ctx context.Context, path, token string) (map[string]interface{}, bool) {
	res, err := c.get(ctx, path, token)
	if err != nil {
		c.logger.Warn("BACKEND", "Read failed", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
		return nil, false
	}
	if res.status != http.StatusOK {
		c.logger.Debug("BACKEND", "Read returned non-200", map[string]interface{}{
			"path":   path,
			"status": res.status,
		})
		return nil, false
	}
	obj := map[string]interface{}{}
	if len(bytes.TrimSpace(res.body)) == 0 {
		return obj, true
	}
	if err := json.Unmarshal(res.body, &obj); err != nil {
		c.logger.Warn("BACKEND", "Read returned invalid JSON", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
		return nil, false
	}
	if data, ok := obj["data"].(map[string]interface{}); ok {
		obj = data
	}
	return obj, true
}

func truthy(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(t, "true")
	case float64:
		return t != 0
	default:
		return false
	}
}

func stringField(obj map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		switch v := obj[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return fmt.Sprintf("%v", v)
		}
	}
	return ""
}
