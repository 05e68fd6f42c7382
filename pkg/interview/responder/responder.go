package responder

import (
	"context"
	"fmt"
	"strings"

	"ai-review-be/internal/pkg/logger"
	"ai-review-be/pkg/llm"
	"ai-review-be/pkg/store"
)

const maxPreambleSentences = 2

// Input is what the reply reacts to and the question it must end with.
type Input struct {
	UserText string
	Question string
	Item     string
	Category string
	Stage    store.Stage
	Persona  *store.Persona
	Tip      string
}

// Responder writes acknowledge-then-ask replies: a short reaction to the
// user's literal message followed by exactly one question, verbatim.
type Responder struct {
	llmProvider llm.LLMProvider
	logger      logger.ILogger
}

func NewResponder(llmProvider llm.LLMProvider, log logger.ILogger) *Responder {
	return &Responder{llmProvider: llmProvider, logger: log}
}

// Refocus never fails: when the model is unavailable the reply is the
// question alone.
func (r *Responder) Refocus(ctx context.Context, in Input) string {
	question := strings.TrimSpace(in.Question)
	if r.llmProvider == nil || strings.TrimSpace(in.UserText) == "" {
		return question
	}
	raw, err := llm.Complete(ctx, r.llmProvider, refocusSystemPrompt, buildRefocusPrompt(in), 0.35, 320)
	if err != nil {
		r.logger.Warn("INTERVIEW", "Refocus generation failed, asking plainly", map[string]interface{}{"error": err.Error()})
		return question
	}
	return Sanitize(raw, question)
}

const refocusSystemPrompt = "역할: 전자상거래 구매자 리뷰 인터뷰어(한국어). 말투는 친근하고 담백하게. " +
	"이모지는 가끔만 쓰고, 농담이 보이면 한 번 정도 짧게 받아준 뒤 바로 흐름을 이어간다. " +
	"마지막 문장은 주어진 질문 한 문장으로만 끝낸다."

func buildRefocusPrompt(in Input) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("사용자 메시지:\n%s\n\n", in.UserText))
	sb.WriteString(fmt.Sprintf("참고 정보: 상품=%q, 카테고리=%q, 단계=%s", in.Item, in.Category, in.Stage))
	if !in.Persona.IsZero() {
		sb.WriteString(fmt.Sprintf(", 사용자 연령대=%s, 성별=%s", in.Persona.AgeRange, in.Persona.Gender))
	}
	sb.WriteString("\n\n")
	if in.Tip != "" {
		sb.WriteString(fmt.Sprintf("답변 예시 힌트(자연스럽게 한 번만 녹여도 됨): %s\n\n", in.Tip))
	}
	sb.WriteString("위 메시지에 1~2문장으로 공감이나 짧은 리액션을 한 뒤, 아래 질문을 그대로 물어보세요.\n")
	sb.WriteString(fmt.Sprintf("질문(그대로 한 문장): %s\n", in.Question))
	sb.WriteString("중요: 질문 뒤에는 아무것도 쓰지 말 것. '다음 질문:' 같은 접두사나 꼬리표 금지. 사용자가 말하지 않은 재고, 배송 같은 내용은 추측하지 말 것.")
	return sb.String()
}

// Sanitize enforces the reply shape on raw model output: at most two
// non-question sentences of preamble, then the question, then nothing.
func Sanitize(raw, question string) string {
	question = strings.TrimSpace(question)
	text := strings.Trim(strings.TrimSpace(raw), "\"'")

	if idx := strings.Index(text, question); question != "" && idx >= 0 {
		text = text[:idx]
	}

	kept := make([]string, 0, maxPreambleSentences)
	for _, sentence := range splitSentences(text) {
		if len(kept) == maxPreambleSentences {
			break
		}
		if isQuestionLike(sentence) {
			continue
		}
		kept = append(kept, sentence)
	}

	preamble := strings.Join(kept, " ")
	if preamble == "" {
		return question
	}
	if question == "" {
		return preamble
	}
	return preamble + " " + question
}

func splitSentences(text string) []string {
	var out []string
	var cur strings.Builder
	flush := func() {
		s := strings.TrimSpace(cur.String())
		if s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}
	runes := []rune(text)
	for i, r := range runes {
		if r == '\n' {
			flush()
			continue
		}
		cur.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == '…' {
			// keep runs like "?!" or "..." together
			if i+1 < len(runes) && strings.ContainsRune(".!?…", runes[i+1]) {
				continue
			}
			flush()
		}
	}
	flush()
	return out
}

func isQuestionLike(sentence string) bool {
	if strings.ContainsAny(sentence, "?？") {
		return true
	}
	s := strings.ToLower(sentence)
	return strings.HasPrefix(s, "질문") || strings.Contains(s, "다음 질문") || strings.HasPrefix(s, "q:")
}
