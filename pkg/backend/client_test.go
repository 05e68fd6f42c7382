package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-review-be/internal/pkg/logger"
	"ai-review-be/pkg/store"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL, ReadTimeout: time.Second, ReadAttempts: 1}, logger.NewNopLogger())
}

func TestBearer(t *testing.T) {
	tests := []struct {
		in, bearer, raw string
	}{
		{"", "", ""},
		{"   ", "", ""},
		{"abc", "Bearer abc", "abc"},
		{"Bearer abc", "Bearer abc", "abc"},
		{"bearer   abc ", "Bearer abc", "abc"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.bearer, Bearer(tt.in), tt.in)
		assert.Equal(t, tt.raw, RawToken(tt.in), tt.in)
	}
}

func TestCheckEligible(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantOK     bool
		wantReason string
	}{
		{
			name: "all guards pass",
			handler: func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/api/feedbacks/eligibility" {
					w.Write([]byte(`{"ok":true}`))
					return
				}
				w.Write([]byte(`{"done":false}`))
			},
			wantOK: true,
		},
		{
			name: "product already reviewed",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"done":true}`))
			},
			wantOK:     false,
			wantReason: ReasonProductReviewed,
		},
		{
			name: "order item already reviewed",
			handler: func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/api/feedbacks/order-item/11/done" {
					w.Write([]byte(`{"data":{"done":true}}`))
					return
				}
				w.Write([]byte(`{"done":false}`))
			},
			wantOK:     false,
			wantReason: ReasonOrderItemReviewed,
		},
		{
			name: "eligibility refusal carries backend reason",
			handler: func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/api/feedbacks/eligibility" {
					w.Write([]byte(`{"ok":false,"reason":"배송 완료 후 작성할 수 있어요."}`))
					return
				}
				w.Write([]byte(`{"done":false}`))
			},
			wantOK:     false,
			wantReason: "배송 완료 후 작성할 수 있어요.",
		},
		{
			name: "eligibility refusal without reason",
			handler: func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/api/feedbacks/eligibility" {
					w.Write([]byte(`{"ok":false}`))
					return
				}
				w.WriteHeader(http.StatusNotFound)
			},
			wantOK:     false,
			wantReason: ReasonNotEligible,
		},
		{
			name: "server errors fail open",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantOK: true,
		},
		{
			name: "garbage fails open",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`<html>`))
			},
			wantOK: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.handler)
			got := c.CheckEligible(context.Background(), "11", "22", "tok")
			assert.Equal(t, tt.wantOK, got.OK)
			assert.Equal(t, tt.wantReason, got.Reason)
		})
	}
}

func TestCheckEligibleUnreachableFailsOpen(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://127.0.0.1:1", ReadTimeout: 200 * time.Millisecond, ReadAttempts: 1}, logger.NewNopLogger())
	assert.True(t, c.CheckEligible(context.Background(), "11", "22", "tok").OK)
}

func TestCheckEligibleSendsBearer(t *testing.T) {
	var auth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	})
	c.CheckEligible(context.Background(), "11", "", "raw-token")
	assert.Equal(t, "Bearer raw-token", auth)
}

func TestProductMeta(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/products/5":
			w.WriteHeader(http.StatusNotFound)
		case "/api/product/5":
			w.Write([]byte(`{"data":{"product":{"productName":"무선 이어폰","categoryName":"전자제품"}}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})
	meta := c.ProductMeta(context.Background(), "5", "", "tok")
	assert.Equal(t, ProductMeta{Name: "무선 이어폰", Category: "전자제품"}, meta)
}

func TestProductMetaMiss(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":1}`))
	})
	assert.True(t, c.ProductMeta(context.Background(), "5", "9", "tok").IsZero())
}

func TestMe(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"user":{"gender":"female","birthDate":"1995-03-02"}}}`))
	})
	p := c.Me(context.Background(), "tok")
	require.NotNil(t, p)
	assert.Equal(t, "FEMALE", p.Gender)
	assert.NotEmpty(t, p.AgeRange)
}

func TestAgeRange(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		birth, want string
	}{
		{"1995-03-02", "30s"},
		{"1995-07-02", "20s"},
		{"1980", "40s"},
		{"2020-01-01", ""},
		{"", ""},
		{"abcd", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AgeRange(tt.birth, now), tt.birth)
	}
}

func TestBuildSubmissionScoreDefault(t *testing.T) {
	tests := []struct {
		score, want int
	}{
		{0, DefaultScore},
		{-3, DefaultScore},
		{6, DefaultScore},
		{1, 1},
		{5, 5},
		{3, 3},
	}
	for _, tt := range tests {
		c := store.NewContext("u1")
		c.OrderReference = "77"
		c.Draft = &store.Draft{Content: "좋아요", OverallScore: tt.score, PriceFeel: store.PriceFair, Recommend: store.RecommendYes}
		s := BuildSubmission(c, nil)
		assert.Equal(t, tt.want, s.OverallScore, "score %d", tt.score)
	}
}

func TestBuildSubmissionPayload(t *testing.T) {
	c := store.NewContext("u1")
	c.OrderReference = "77"
	c.Draft = &store.Draft{Content: " 잘 쓰고 있어요 ", OverallScore: 5, PriceFeel: "cheap", Recommend: "yes"}

	s := BuildSubmission(c, []string{"a.png", " ", "b.png"})
	raw, err := json.Marshal(s)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, float64(77), got["orderItemId"])
	assert.Equal(t, "AI", got["type"])
	assert.Equal(t, "잘 쓰고 있어요", got["content"])
	assert.JSONEq(t, `{"priceFeel":"CHEAP","recommend":"YES"}`, got["scoresJson"].(string))
	assert.JSONEq(t, `["a.png","b.png"]`, got["imagesJson"].(string))
}

func TestReferenceMarshalNonNumeric(t *testing.T) {
	raw, err := json.Marshal(Reference("ord-1"))
	require.NoError(t, err)
	assert.Equal(t, `"ord-1"`, string(raw))
}

func TestSubmit(t *testing.T) {
	var body map[string]interface{}
	var auth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/feedbacks", r.URL.Path)
		auth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &body)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":1}`))
	})

	res, err := c.Submit(context.Background(), Submission{OrderItemID: "3", Type: "AI", OverallScore: 4, Content: "x"}, "tok")
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Equal(t, "Bearer tok", auth)
	assert.Equal(t, "x", body["content"])
}

func TestSubmitFailsClosed(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantReason string
	}{
		{"message field", http.StatusBadRequest, `{"message":"이미 등록된 리뷰입니다."}`, "이미 등록된 리뷰입니다."},
		{"error field", http.StatusUnauthorized, `{"error":"Unauthorized"}`, "Unauthorized"},
		{"plain body", http.StatusConflict, `duplicate`, "duplicate"},
		{"empty body", http.StatusInternalServerError, ``, "HTTP 500"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			_, err := c.Submit(context.Background(), Submission{OrderItemID: "3"}, "tok")
			require.Error(t, err)

			var se *SubmitError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.status, se.StatusCode)
			assert.Equal(t, tt.wantReason, Reason(err))
			assert.Equal(t, 1, calls, "writes are never retried")
		})
	}
}

func TestSubmitWithoutToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected without a token")
	})
	_, err := c.Submit(context.Background(), Submission{}, "  ")
	assert.ErrorIs(t, err, ErrAuthRequired)
	assert.Equal(t, "인증이 필요합니다.", Reason(err))
}
