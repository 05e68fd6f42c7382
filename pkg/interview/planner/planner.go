package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ai-review-be/internal/pkg/logger"
	"ai-review-be/pkg/interview/lexicon"
	"ai-review-be/pkg/llm"
	"ai-review-be/pkg/store"
)

// Plan sources.
const (
	SourceModel    = "model"
	SourceTemplate = "template"
)

type Config struct {
	SufficientSlots int
	MaxSlots        int
}

// Input is the transcript state the planner reasons over.
type Input struct {
	Item           string
	Category       string
	Answers        []store.QA
	AskedSlots     []store.Slot
	AskedQuestions []string
}

// Plan is the next step of the interview. Covered is the covered-slot set
// after merging whatever the model recognised in the transcript.
type Plan struct {
	NeedMore     bool
	NextQuestion string
	Slot         store.Slot
	MissingSlots []store.Slot
	Covered      []store.Slot
	Source       string
}

type Planner struct {
	llmProvider llm.LLMProvider
	lexicon     *lexicon.Lexicon
	templates   Templates
	config      Config
	logger      logger.ILogger
}

func NewPlanner(llmProvider llm.LLMProvider, lx *lexicon.Lexicon, templates Templates, cfg Config, log logger.ILogger) *Planner {
	if lx == nil {
		lx = lexicon.Default()
	}
	if templates == nil {
		templates = DefaultTemplates()
	}
	if cfg.SufficientSlots <= 0 {
		cfg.SufficientSlots = 4
	}
	if cfg.MaxSlots < cfg.SufficientSlots {
		cfg.MaxSlots = cfg.SufficientSlots
	}
	return &Planner{
		llmProvider: llmProvider,
		lexicon:     lx,
		templates:   templates,
		config:      cfg,
		logger:      log,
	}
}

// PlanNext asks the model for the next question and falls back to the
// template table whenever its proposal repeats a question or a covered slot.
func (p *Planner) PlanNext(ctx context.Context, in Input) Plan {
	covered := append([]store.Slot(nil), in.AskedSlots...)
	if len(covered) >= p.config.MaxSlots {
		return Plan{NeedMore: false, Covered: covered, Source: SourceTemplate}
	}

	proposal, err := p.propose(ctx, in)
	if err != nil {
		p.logger.Warn("PLANNER", "Model plan unavailable, using templates", map[string]interface{}{"error": err.Error()})
		return p.templatePlan(in, covered, nil, true)
	}

	for _, s := range proposal.coveredSlots() {
		covered = addSlot(covered, s)
	}
	missing := proposal.missingSlots(covered)

	if len(covered) >= p.config.MaxSlots {
		return Plan{NeedMore: false, Covered: covered, MissingSlots: missing, Source: SourceModel}
	}
	if !proposal.NeedMore && len(covered) >= p.config.SufficientSlots {
		return Plan{NeedMore: false, Covered: covered, MissingSlots: missing, Source: SourceModel}
	}

	question := strings.TrimSpace(proposal.Question)
	slot, ok := store.ParseSlot(proposal.Slot)
	if !ok {
		slot, ok = p.lexicon.QuestionSlot(question)
	}
	if ok && question != "" && !wasAsked(in.AskedQuestions, question) && !hasSlot(covered, slot) {
		return Plan{
			NeedMore:     true,
			NextQuestion: question,
			Slot:         slot,
			MissingSlots: missing,
			Covered:      covered,
			Source:       SourceModel,
		}
	}

	p.logger.Debug("PLANNER", "Rejected model question", map[string]interface{}{
		"question": question,
		"slot":     proposal.Slot,
	})
	plan := p.templatePlan(in, covered, missing, false)
	plan.MissingSlots = missing
	return plan
}

// templatePlan walks missing slots first, then the category order, and asks
// the first unused template of the first uncovered slot. Without a model
// verdict, stopAtSufficient ends the interview on the threshold alone.
func (p *Planner) templatePlan(in Input, covered, missing []store.Slot, stopAtSufficient bool) Plan {
	plan := Plan{Covered: covered, Source: SourceTemplate}
	if stopAtSufficient && len(covered) >= p.config.SufficientSlots {
		return plan
	}
	candidates := append(append([]store.Slot(nil), missing...), store.OrderedSlots(in.Category)...)
	for _, slot := range candidates {
		if hasSlot(covered, slot) {
			continue
		}
		if q, ok := p.templates.firstUnused(slot, in.AskedQuestions); ok {
			plan.NeedMore = true
			plan.NextQuestion = q
			plan.Slot = slot
			return plan
		}
	}
	return plan
}

// Reask returns a fresh phrasing for the same slot: the gate's suggestion if
// it is new, else the next unused template. False when every phrasing is spent.
func (p *Planner) Reask(slot store.Slot, lastQuestion, gateReask string, asked []string) (string, bool) {
	gateReask = strings.TrimSpace(gateReask)
	if gateReask != "" && !wasAsked(asked, gateReask) && store.NormalizeText(gateReask) != store.NormalizeText(lastQuestion) {
		return gateReask, true
	}
	if slot == "" {
		slot, _ = p.lexicon.QuestionSlot(lastQuestion)
	}
	seen := append(append([]string(nil), asked...), lastQuestion)
	if q, ok := p.templates.firstUnused(slot, seen); ok {
		return q, true
	}
	// Templates spent: soften the primary phrasing instead.
	base := lastQuestion
	if list := p.templates[slot]; len(list) > 0 {
		base = list[0]
	}
	if strings.TrimSpace(base) == "" {
		return "", false
	}
	for _, prefix := range reaskPrefixes {
		if q := prefix + base; !wasAsked(seen, q) {
			return q, true
		}
	}
	return "", false
}

var reaskPrefixes = []string{
	"조금만 더 구체적으로 여쭤볼게요. ",
	"짧게 한 가지만 알려주셔도 좋아요. ",
}

type proposal struct {
	NeedMore bool     `json:"needMore"`
	Question string   `json:"question"`
	Slot     string   `json:"slot"`
	Missing  []string `json:"missingSlots"`
	Covered  []string `json:"coveredSlots"`
}

func (pr proposal) coveredSlots() []store.Slot {
	var out []store.Slot
	for _, raw := range pr.Covered {
		if s, ok := store.ParseSlot(raw); ok {
			out = append(out, s)
		}
	}
	return out
}

func (pr proposal) missingSlots(covered []store.Slot) []store.Slot {
	var out []store.Slot
	for _, raw := range pr.Missing {
		if s, ok := store.ParseSlot(raw); ok && !hasSlot(covered, s) && !hasSlot(out, s) {
			out = append(out, s)
		}
	}
	return out
}

func (p *Planner) propose(ctx context.Context, in Input) (proposal, error) {
	if p.llmProvider == nil {
		return proposal{}, fmt.Errorf("no model configured")
	}
	raw, err := llm.Complete(ctx, p.llmProvider, plannerSystemPrompt, p.buildPrompt(in), 0.2, 300)
	if err != nil {
		return proposal{}, err
	}
	jsonStr := llm.ExtractJSON(raw)
	if jsonStr == "" {
		return proposal{}, fmt.Errorf("no json object in planner output")
	}
	var pr proposal
	if err := json.Unmarshal([]byte(jsonStr), &pr); err != nil {
		return proposal{}, fmt.Errorf("decode planner output: %w", err)
	}
	return pr, nil
}

const plannerSystemPrompt = "너는 상품 리뷰 인터뷰의 질문 설계자다. 지정된 JSON 한 줄 외에는 아무것도 출력하지 않는다."

func (p *Planner) buildPrompt(in Input) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[상품] %s\n[카테고리] %s\n\n", in.Item, store.NormalizeCategory(in.Category)))

	sb.WriteString("[지금까지의 문답]\n")
	if len(in.Answers) == 0 {
		sb.WriteString("(없음)\n")
	}
	for _, qa := range in.Answers {
		sb.WriteString(fmt.Sprintf("Q: %s\nA: %s\n", qa.Question, qa.Answer))
	}

	sb.WriteString("\n[이미 한 질문 - 절대 반복 금지]\n")
	for _, q := range in.AskedQuestions {
		sb.WriteString("- " + q + "\n")
	}

	slots := make([]string, 0, len(store.SlotPriority))
	for _, s := range store.OrderedSlots(in.Category) {
		slots = append(slots, string(s))
	}
	covered := make([]string, 0, len(in.AskedSlots))
	for _, s := range in.AskedSlots {
		covered = append(covered, string(s))
	}
	sb.WriteString(fmt.Sprintf("\n[슬롯 목록] %s\n", strings.Join(slots, ", ")))
	sb.WriteString(fmt.Sprintf("[이미 다룬 슬롯 - 다시 묻지 말 것] %s\n\n", strings.Join(covered, ", ")))

	sb.WriteString("[규칙]\n")
	sb.WriteString("- 아직 다루지 않은 슬롯 하나에 대해 짧은 질문 한 문장을 만든다.\n")
	sb.WriteString(fmt.Sprintf("- 서로 다른 슬롯이 %d개 이상 충분히 다뤄졌으면 needMore=false.\n", p.config.SufficientSlots))
	sb.WriteString("- coveredSlots에는 문답에서 실제로 충분히 다뤄진 슬롯만 넣는다.\n\n")
	sb.WriteString(`출력 형식: {"needMore": true|false, "question": "...", "slot": "...", "missingSlots": ["..."], "coveredSlots": ["..."]}`)
	return sb.String()
}

func hasSlot(list []store.Slot, s store.Slot) bool {
	for _, have := range list {
		if have == s {
			return true
		}
	}
	return false
}

func addSlot(list []store.Slot, s store.Slot) []store.Slot {
	if hasSlot(list, s) {
		return list
	}
	return append(list, s)
}
