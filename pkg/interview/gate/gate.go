package gate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ai-review-be/internal/pkg/logger"
	"ai-review-be/pkg/interview/lexicon"
	"ai-review-be/pkg/llm"
)

// Verdict sources.
const (
	SourceHeuristic = "heuristic"
	SourceJudge     = "judge"
	SourceFallback  = "fallback"
)

// Verdict is the outcome of screening one answer.
type Verdict struct {
	OK        bool   `json:"ok"`
	ReaskText string `json:"reask"`
	Tip       string `json:"tip"`
	Source    string `json:"-"`
}

// Gate decides whether an answer to the pending question is usable. Cheap
// lexicon checks run first; the model is only consulted when they are
// inconclusive, and anything but a clean verdict from it counts as a reject.
type Gate struct {
	llmProvider llm.LLMProvider
	lexicon     *lexicon.Lexicon
	logger      logger.ILogger
}

func NewGate(llmProvider llm.LLMProvider, lx *lexicon.Lexicon, log logger.ILogger) *Gate {
	if lx == nil {
		lx = lexicon.Default()
	}
	return &Gate{llmProvider: llmProvider, lexicon: lx, logger: log}
}

func (g *Gate) Evaluate(ctx context.Context, question, answer string, prior []string) Verdict {
	// 1. Heuristic fast path
	if strings.TrimSpace(answer) == "" || g.lexicon.IsFiller(answer) {
		return Verdict{OK: false, ReaskText: question, Source: SourceHeuristic}
	}
	if slot, ok := g.lexicon.MatchTopic(question, answer); ok {
		g.logger.Debug("GATE", "Lexicon fast-pass", map[string]interface{}{"slot": slot})
		return Verdict{OK: true, Source: SourceHeuristic}
	}

	// 2. Model judge
	if g.llmProvider == nil {
		return Verdict{OK: false, ReaskText: question, Source: SourceFallback}
	}
	raw, err := llm.Complete(ctx, g.llmProvider, judgeSystemPrompt, buildJudgePrompt(question, answer, prior), 0.0, 220)
	if err != nil {
		g.logger.Warn("GATE", "Judge call failed, rejecting answer", map[string]interface{}{"error": err.Error()})
		return Verdict{OK: false, ReaskText: question, Source: SourceFallback}
	}

	v, err := parseVerdict(raw)
	if err != nil {
		g.logger.Warn("GATE", "Judge output unparseable, rejecting answer", map[string]interface{}{
			"error": err.Error(),
			"raw":   raw,
		})
		return Verdict{OK: false, ReaskText: question, Source: SourceFallback}
	}
	if !v.OK && strings.TrimSpace(v.ReaskText) == "" {
		v.ReaskText = question
	}
	v.Source = SourceJudge
	return v
}

const judgeSystemPrompt = "너는 한국어 상품 리뷰 인터뷰의 답변 심사관이다. 지정된 JSON 한 줄 외에는 아무것도 출력하지 않는다."

func buildJudgePrompt(question, answer string, prior []string) string {
	var sb strings.Builder
	sb.WriteString("[판정 기준]\n")
	sb.WriteString("- 질문과 직접 관련된 구체적 속성, 효과, 경험, 사유가 하나라도 있으면 ok=true.\n")
	sb.WriteString("- 가격이나 가성비 언급, 다른 제품과의 비교도 충분한 답변으로 본다.\n")
	sb.WriteString("- '모르겠어요', '패스', 잡담, 이모지나 단타 반응만 있으면 ok=false.\n")
	sb.WriteString("- ok=false일 때만 reask에 한 문장 재질문, tip에 답변 예시 1~2개를 넣는다.\n\n")
	sb.WriteString(`출력 형식: {"ok": true|false, "reask": "...", "tip": "..."}` + "\n\n")
	sb.WriteString(fmt.Sprintf("[질문] %s\n", question))
	sb.WriteString(fmt.Sprintf("[이번 답변] %s\n", answer))
	sb.WriteString("[이전에 같은 질문에 대한 답변]\n")
	if len(prior) == 0 {
		sb.WriteString("- (없음)\n")
	}
	for _, p := range prior {
		sb.WriteString("- " + p + "\n")
	}
	return sb.String()
}

// judgeResponse keeps OK as a pointer so a missing key is a parse failure
// rather than an implicit false or true.
type judgeResponse struct {
	OK    *bool  `json:"ok"`
	Reask string `json:"reask"`
	Tip   string `json:"tip"`
	Tips  string `json:"tips"`
}

func parseVerdict(raw string) (Verdict, error) {
	jsonStr := llm.ExtractJSON(raw)
	if jsonStr == "" {
		return Verdict{}, fmt.Errorf("no json object in judge output")
	}
	var resp judgeResponse
	if err := json.Unmarshal([]byte(jsonStr), &resp); err != nil {
		return Verdict{}, fmt.Errorf("decode judge output: %w", err)
	}
	if resp.OK == nil {
		return Verdict{}, fmt.Errorf("judge output missing ok")
	}
	tip := resp.Tip
	if tip == "" {
		tip = resp.Tips
	}
	return Verdict{OK: *resp.OK, ReaskText: strings.TrimSpace(resp.Reask), Tip: strings.TrimSpace(tip)}, nil
}
