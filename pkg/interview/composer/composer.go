package composer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"ai-review-be/internal/pkg/logger"
	"ai-review-be/pkg/llm"
	"ai-review-be/pkg/store"
)

// ErrNoopRevision means the revision produced nothing usable; the original
// draft is returned unchanged alongside it.
var ErrNoopRevision = errors.New("composer: revision produced no content")

// Input is everything drafting may look at. Answers is the only source of
// facts; chat history never reaches the model.
type Input struct {
	Item     string
	Category string
	Persona  *store.Persona
	Answers  []store.QA
}

type Composer struct {
	llmProvider llm.LLMProvider
	logger      logger.ILogger
}

func NewComposer(llmProvider llm.LLMProvider, log logger.ILogger) *Composer {
	return &Composer{llmProvider: llmProvider, logger: log}
}

// Compose drafts a review. With no usable answers the draft is empty and the
// caller must not surface it.
func (c *Composer) Compose(ctx context.Context, in Input) store.Draft {
	answers := usableAnswers(in.Answers)
	if len(answers) == 0 {
		return store.Draft{PriceFeel: store.PriceUnknown, Recommend: store.RecommendUnknown}
	}
	in.Answers = answers
	if c.llmProvider == nil {
		return templateDraft(in)
	}

	raw, err := llm.Complete(ctx, c.llmProvider, composeSystemPrompt, buildComposePrompt(in), 0.3, 700)
	if err != nil {
		c.logger.Warn("COMPOSER", "Draft generation failed, using template summary", map[string]interface{}{"error": err.Error()})
		return templateDraft(in)
	}

	draft, err := parseDraft(raw)
	if err != nil {
		c.logger.Warn("COMPOSER", "Draft output unparseable, keeping raw text", map[string]interface{}{"error": err.Error()})
		return store.Draft{Content: raw, OverallScore: 0, PriceFeel: store.PriceUnknown, Recommend: store.RecommendUnknown}
	}
	if strings.TrimSpace(draft.Content) == "" {
		return templateDraft(in)
	}
	return draft
}

// Revise applies a free-text instruction. An empty instruction or an empty
// result returns the original draft with ErrNoopRevision.
func (c *Composer) Revise(ctx context.Context, draft store.Draft, persona *store.Persona, instruction string) (store.Draft, error) {
	if strings.TrimSpace(instruction) == "" || draft.IsEmpty() || c.llmProvider == nil {
		return draft, ErrNoopRevision
	}

	raw, err := llm.Complete(ctx, c.llmProvider, reviseSystemPrompt, buildRevisePrompt(draft, persona, instruction), 0.2, 700)
	if err != nil {
		c.logger.Warn("COMPOSER", "Revision failed", map[string]interface{}{"error": err.Error()})
		return draft, fmt.Errorf("%w: %v", ErrNoopRevision, err)
	}

	revised, err := parseDraft(raw)
	if err != nil {
		// Plain text reply: treat it as the new content, keep derived fields.
		revised = store.Draft{
			Content:      strings.TrimSpace(raw),
			OverallScore: draft.OverallScore,
			PriceFeel:    draft.PriceFeel,
			Recommend:    draft.Recommend,
		}
	}
	if revised.IsEmpty() {
		return draft, ErrNoopRevision
	}
	return revised, nil
}

const composeSystemPrompt = "너는 상품 리뷰 에디터다. 구매자가 직접 쓴 것처럼 자연스럽고 간결한 한국어로 작성한다. " +
	"주어진 문답에 없는 사실은 절대 지어내지 않는다. 지정된 JSON 한 줄 외에는 출력하지 않는다."

const reviseSystemPrompt = "너는 상품 리뷰 에디터다. 공손하고 간결한 톤을 유지하며 지시에 따라 리뷰를 고친다. " +
	"지정된 JSON 한 줄 외에는 출력하지 않는다."

const draftFormat = `{"content": "...", "overallScore": 1~5, "priceFeel": "CHEAP|FAIR|EXPENSIVE|UNKNOWN", "recommend": "YES|NO|UNKNOWN"}`

func buildComposePrompt(in Input) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[상품] %s\n[카테고리] %s\n", in.Item, store.NormalizeCategory(in.Category)))
	if !in.Persona.IsZero() {
		sb.WriteString(fmt.Sprintf("[작성자] 연령대 %s, 성별 %s (말투 참고용)\n", in.Persona.AgeRange, in.Persona.Gender))
	}
	sb.WriteString("\n[인터뷰 문답]\n")
	for _, qa := range in.Answers {
		sb.WriteString(fmt.Sprintf("Q: %s\nA: %s\n", qa.Question, qa.Answer))
	}
	sb.WriteString("\n[작성 규칙]\n")
	sb.WriteString("- 3~6문장 분량의 리뷰 본문을 content에 쓴다.\n")
	sb.WriteString("- overallScore는 답변에서 느껴지는 만족도를 1~5 정수로.\n")
	sb.WriteString("- priceFeel, recommend는 답변에 근거가 없으면 UNKNOWN.\n\n")
	sb.WriteString("출력 형식: " + draftFormat)
	return sb.String()
}

func buildRevisePrompt(draft store.Draft, persona *store.Persona, instruction string) string {
	var sb strings.Builder
	current, _ := json.Marshal(draft)
	sb.WriteString(fmt.Sprintf("[현재 리뷰]\n%s\n\n", current))
	if !persona.IsZero() {
		sb.WriteString(fmt.Sprintf("[작성자] 연령대 %s, 성별 %s (말투 참고용)\n\n", persona.AgeRange, persona.Gender))
	}
	sb.WriteString(fmt.Sprintf("[수정 지시]\n%s\n\n", instruction))
	sb.WriteString("지시와 관련 없는 내용은 유지하고, 지시가 점수나 추천 여부를 바꾸라고 하면 해당 필드도 고친다.\n")
	sb.WriteString("출력 형식: " + draftFormat)
	return sb.String()
}

type draftResponse struct {
	Content      string          `json:"content"`
	OverallScore json.RawMessage `json:"overallScore"`
	PriceFeel    string          `json:"priceFeel"`
	Recommend    json.RawMessage `json:"recommend"`
}

func parseDraft(raw string) (store.Draft, error) {
	jsonStr := llm.ExtractJSON(raw)
	if jsonStr == "" {
		return store.Draft{}, fmt.Errorf("no json object in draft output")
	}
	var resp draftResponse
	if err := json.Unmarshal([]byte(jsonStr), &resp); err != nil {
		return store.Draft{}, fmt.Errorf("decode draft output: %w", err)
	}
	return store.Draft{
		Content:      strings.TrimSpace(resp.Content),
		OverallScore: parseScore(resp.OverallScore),
		PriceFeel:    store.NormalizePriceFeel(resp.PriceFeel),
		Recommend:    parseRecommend(resp.Recommend),
	}, nil
}

// parseScore accepts numbers or numeric strings. The value is kept as the
// model produced it; clamping happens at submission.
func parseScore(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int(f)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &f); err == nil {
			return int(f)
		}
	}
	return 0
}

func parseRecommend(raw json.RawMessage) store.Recommend {
	if len(raw) == 0 {
		return store.RecommendUnknown
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		if b {
			return store.RecommendYes
		}
		return store.RecommendNo
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return store.NormalizeRecommend(s)
	}
	return store.RecommendUnknown
}

func usableAnswers(answers []store.QA) []store.QA {
	out := make([]store.QA, 0, len(answers))
	for _, qa := range answers {
		if strings.TrimSpace(qa.Answer) != "" {
			out = append(out, qa)
		}
	}
	return out
}

// templateDraft stitches the answers into a plain summary when the model is
// unavailable. Derived fields stay UNKNOWN and the score stays 0.
func templateDraft(in Input) store.Draft {
	var sb strings.Builder
	if in.Item != "" {
		sb.WriteString(fmt.Sprintf("%s 사용 후기입니다.", in.Item))
	} else {
		sb.WriteString("사용 후기입니다.")
	}
	seen := map[string]bool{}
	for _, qa := range in.Answers {
		a := strings.TrimSpace(qa.Answer)
		key := store.NormalizeText(a)
		if seen[key] {
			continue
		}
		seen[key] = true
		if !strings.HasSuffix(a, ".") && !strings.HasSuffix(a, "!") && !strings.HasSuffix(a, "?") {
			a += "."
		}
		sb.WriteString(" " + a)
	}
	return store.Draft{
		Content:   sb.String(),
		PriceFeel: store.PriceUnknown,
		Recommend: store.RecommendUnknown,
	}
}
