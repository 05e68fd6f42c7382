package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"ai-review-be/pkg/store"
)

const (
	submissionType = "AI"
	DefaultScore   = 4
)

// Reference is an external id. Numeric ids are sent as JSON numbers.
type Reference string

func (r Reference) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(r), 10, 64); err == nil {
		return []byte(strconv.FormatInt(n, 10)), nil
	}
	return json.Marshal(string(r))
}

// Submission is the create-review payload.
type Submission struct {
	OrderItemID  Reference `json:"orderItemId"`
	Type         string    `json:"type"`
	OverallScore int       `json:"overallScore"`
	ScoresJSON   string    `json:"scoresJson"`
	Content      string    `json:"content"`
	ImagesJSON   string    `json:"imagesJson"`
}

type scores struct {
	PriceFeel store.PriceFeel `json:"priceFeel"`
	Recommend store.Recommend `json:"recommend"`
}

// BuildSubmission turns the confirmed draft into a payload. Scores outside
// [1,5] become DefaultScore here and nowhere else.
func BuildSubmission(c *store.InterviewContext, attachments []string) Submission {
	draft := store.Draft{PriceFeel: store.PriceUnknown, Recommend: store.RecommendUnknown}
	if c.Draft != nil {
		draft = *c.Draft
	}

	score := draft.OverallScore
	if score < 1 || score > 5 {
		score = DefaultScore
	}

	scoresJSON, err := json.Marshal(scores{
		PriceFeel: store.NormalizePriceFeel(string(draft.PriceFeel)),
		Recommend: store.NormalizeRecommend(string(draft.Recommend)),
	})
	if err != nil {
		scoresJSON = []byte("{}")
	}

	images := make([]string, 0, len(attachments))
	for _, a := range attachments {
		if a = strings.TrimSpace(a); a != "" {
			images = append(images, a)
		}
	}
	imagesJSON, err := json.Marshal(images)
	if err != nil {
		imagesJSON = []byte("[]")
	}

	return Submission{
		OrderItemID:  Reference(c.OrderReference),
		Type:         submissionType,
		OverallScore: score,
		ScoresJSON:   string(scoresJSON),
		Content:      strings.TrimSpace(draft.Content),
		ImagesJSON:   string(imagesJSON),
	}
}

type SubmitResult struct {
	StatusCode int
	Body       json.RawMessage
}

// Submit posts the review once. Any failure comes back as a *SubmitError
// holding the backend's message, or ErrAuthRequired without a token.
func (c *Client) Submit(ctx context.Context, s Submission, token string) (SubmitResult, error) {
	// 1. Auth is checked before any I/O
	bearer := Bearer(token)
	if bearer == "" {
		return SubmitResult{}, ErrAuthRequired
	}

	payload, err := json.Marshal(s)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("marshal submission: %w", err)
	}

	// 2. Send
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+createPath, bytes.NewReader(payload))
	if err != nil {
		return SubmitResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer)

	resp, err := c.writeClient.Do(req)
	if err != nil {
		c.logger.Error("BACKEND", "Submit request failed", map[string]interface{}{
			"error": err.Error(),
		})
		return SubmitResult{}, &SubmitError{Reason: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return SubmitResult{}, &SubmitError{StatusCode: resp.StatusCode, Reason: err.Error()}
	}

	// 3. Interpret
	c.logger.Info("BACKEND", "Submit answered", map[string]interface{}{
		"status": resp.StatusCode,
		"order":  string(s.OrderItemID),
	})
	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		return SubmitResult{StatusCode: resp.StatusCode, Body: body}, nil
	}
	return SubmitResult{}, &SubmitError{StatusCode: resp.StatusCode, Reason: responseMessage(resp.StatusCode, body)}
}

// responseMessage prefers the backend's "message" or "error" field, then the
// raw body, then the status line.
func responseMessage(status int, body []byte) string {
	var obj map[string]interface{}
	if err := json.Unmarshal(body, &obj); err == nil {
		if msg := stringField(obj, "message", "error"); msg != "" {
			return msg
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return fmt.Sprintf("HTTP %d", status)
}
