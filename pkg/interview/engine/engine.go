// Package engine runs one interview turn: intent checks, the stage logic for
// the current stage and every transition that turn causes.
package engine

import (
	"context"
	"errors"
	"strings"

	"ai-review-be/internal/pkg/logger"
	"ai-review-be/pkg/backend"
	"ai-review-be/pkg/interview/composer"
	"ai-review-be/pkg/interview/gate"
	"ai-review-be/pkg/interview/lexicon"
	"ai-review-be/pkg/interview/planner"
	"ai-review-be/pkg/interview/responder"
	"ai-review-be/pkg/interview/stage"
	"ai-review-be/pkg/store"
)

var ErrNoDraft = errors.New("engine: no draft awaiting confirmation")

const DefaultReaskLimit = 3

type Config struct {
	ReaskLimit int
}

// Submitter publishes a confirmed draft. Errors are shown to the user via
// backend.Reason; backend.ErrAuthRequired is the one hard stop.
type Submitter interface {
	Submit(ctx context.Context, c *store.InterviewContext, attachments []string) error
}

// Recorder observes turn internals. Implementations must be safe for
// concurrent use.
type Recorder interface {
	GateVerdict(source string, ok bool)
	ForcedAdvance()
}

type nopRecorder struct{}

func (nopRecorder) GateVerdict(string, bool) {}
func (nopRecorder) ForcedAdvance()           {}

// Reply is what one turn produces. Question is the trailing question when
// the reply asks one.
type Reply struct {
	Message    string
	Question   string
	Stage      store.Stage
	DraftReady bool
	Draft      *store.Draft
	Submitted  bool
	Reset      bool
}

type Engine struct {
	gate      *gate.Gate
	planner   *planner.Planner
	responder *responder.Responder
	composer  *composer.Composer
	lexicon   *lexicon.Lexicon
	submitter Submitter
	recorder  Recorder
	config    Config
	logger    logger.ILogger
}

type Option func(*Engine)

func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

func WithSubmitter(s Submitter) Option {
	return func(e *Engine) {
		e.submitter = s
	}
}

func NewEngine(
	g *gate.Gate,
	p *planner.Planner,
	r *responder.Responder,
	c *composer.Composer,
	lx *lexicon.Lexicon,
	cfg Config,
	log logger.ILogger,
	opts ...Option,
) *Engine {
	if lx == nil {
		lx = lexicon.Default()
	}
	if cfg.ReaskLimit <= 0 {
		cfg.ReaskLimit = DefaultReaskLimit
	}
	e := &Engine{
		gate:      g,
		planner:   p,
		responder: r,
		composer:  c,
		lexicon:   lx,
		recorder:  nopRecorder{},
		config:    cfg,
		logger:    log,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Begin moves a fresh context into QNA and poses the first question.
func (e *Engine) Begin(ctx context.Context, c *store.InterviewContext) Reply {
	return e.begin(ctx, c, greeting(c.SubjectItem))
}

func (e *Engine) begin(ctx context.Context, c *store.InterviewContext, preamble string) Reply {
	if c.Stage != store.StageStart {
		c.ResetInterview()
	}
	e.transition(c, stage.EventBegin)

	question, slot := e.nextQuestion(ctx, c)
	c.Ask(question, slot)
	return Reply{Message: preamble + question, Question: question, Stage: c.Stage}
}

// Handle processes one user message against the context in place.
func (e *Engine) Handle(ctx context.Context, c *store.InterviewContext, text string) Reply {
	text = strings.TrimSpace(text)

	// 1. Global intents
	switch e.lexicon.DetectIntent(text) {
	case lexicon.IntentReset:
		e.transition(c, stage.EventReset)
		c.ResetInterview()
		e.logger.Info("INTERVIEW", "Session reset by user", map[string]interface{}{"user_id": c.UserID})
		reply := e.begin(ctx, c, msgReset)
		reply.Reset = true
		return reply
	case lexicon.IntentExit:
		if c.Stage == store.StageDone {
			return e.doneReply(c)
		}
		e.transition(c, stage.EventExit)
		return Reply{Message: msgFarewell, Stage: c.Stage, Draft: c.Draft}
	case lexicon.IntentFrustration:
		if c.Stage == store.StageQnA {
			c.CoverSlot(c.PendingSlot)
			c.PendingAttempts = nil
			return e.advance(ctx, c, text)
		}
	}

	// 2. Stage logic
	switch c.Stage {
	case store.StageStart:
		return e.Begin(ctx, c)
	case store.StageQnA:
		return e.answer(ctx, c, text)
	case store.StageCompose:
		return e.compose(ctx, c, text)
	case store.StageConfirm:
		return e.confirm(ctx, c, text)
	default:
		return e.doneReply(c)
	}
}

// answer screens a reply to the pending question.
func (e *Engine) answer(ctx context.Context, c *store.InterviewContext, text string) Reply {
	question := c.LastQuestion
	slot := c.PendingSlot

	verdict := e.gate.Evaluate(ctx, question, text, c.PendingAttempts)
	e.recorder.GateVerdict(verdict.Source, verdict.OK)

	if verdict.OK {
		c.RecordAnswer(question, text, slot)
		c.CoverSlot(slot)
		c.PendingAttempts = nil
		return e.advance(ctx, c, text)
	}

	if c.ReaskCounts == nil {
		c.ReaskCounts = map[store.Slot]int{}
	}
	if c.ReaskCounts[slot] >= e.config.ReaskLimit {
		return e.forceAdvance(ctx, c, text)
	}
	c.ReaskCounts[slot]++

	// Low-signal text is kept once so the draft can still use it.
	if e.lexicon.IsGeneric(text) {
		if text != "" && !c.HasRecorded(slot, text) {
			c.RecordAnswer(question, text, slot)
		}
	} else {
		c.PendingAttempts = append(c.PendingAttempts, text)
	}

	alt, ok := e.planner.Reask(slot, question, verdict.ReaskText, c.AskedQuestions)
	if !ok {
		return e.forceAdvance(ctx, c, text)
	}
	c.Ask(alt, slot)

	e.logger.Debug("INTERVIEW", "Re-asking pending slot", map[string]interface{}{
		"user_id": c.UserID,
		"slot":    slot,
		"count":   c.ReaskCounts[slot],
		"source":  verdict.Source,
	})
	return e.ask(ctx, c, text, alt, verdict.Tip)
}

// forceAdvance gives up on the pending slot and drafts with what is there.
func (e *Engine) forceAdvance(ctx context.Context, c *store.InterviewContext, text string) Reply {
	slot := c.PendingSlot
	if text != "" && !c.HasRecorded(slot, text) {
		c.RecordAnswer(c.LastQuestion, text, slot)
	}
	c.CoverSlot(slot)
	c.PendingAttempts = nil
	e.recorder.ForcedAdvance()
	e.logger.Info("INTERVIEW", "Re-ask limit reached, moving on to draft", map[string]interface{}{
		"user_id": c.UserID,
		"slot":    slot,
	})
	return e.compose(ctx, c, text)
}

// advance asks the planner what comes next after an accepted answer.
func (e *Engine) advance(ctx context.Context, c *store.InterviewContext, text string) Reply {
	plan := e.planner.PlanNext(ctx, e.planInput(c))
	for _, s := range plan.Covered {
		c.CoverSlot(s)
	}
	if !plan.NeedMore || plan.NextQuestion == "" {
		return e.compose(ctx, c, text)
	}
	c.Ask(plan.NextQuestion, plan.Slot)
	return e.ask(ctx, c, text, plan.NextQuestion, "")
}

func (e *Engine) ask(ctx context.Context, c *store.InterviewContext, text, question, tip string) Reply {
	msg := e.responder.Refocus(ctx, responder.Input{
		UserText: text,
		Question: question,
		Item:     c.SubjectItem,
		Category: c.Category,
		Stage:    c.Stage,
		Persona:  c.Persona,
		Tip:      tip,
	})
	return Reply{Message: msg, Question: question, Stage: c.Stage}
}

// compose drafts from the recorded answers. An empty draft sends the session
// back to QNA with a new question.
func (e *Engine) compose(ctx context.Context, c *store.InterviewContext, text string) Reply {
	if c.Stage == store.StageQnA {
		e.transition(c, stage.EventSufficient)
	}

	draft := e.composer.Compose(ctx, composer.Input{
		Item:     c.SubjectItem,
		Category: c.Category,
		Persona:  c.Persona,
		Answers:  c.Answers,
	})

	c.Draft = &draft
	if draft.IsEmpty() || !e.transition(c, stage.EventComposed) {
		c.Draft = nil
		e.transition(c, stage.EventComposeFailed)
		question, slot := e.nextQuestion(ctx, c)
		c.Ask(question, slot)
		return Reply{Message: msgNeedMore + question, Question: question, Stage: c.Stage}
	}
	e.logger.Info("INTERVIEW", "Draft composed", map[string]interface{}{
		"user_id": c.UserID,
		"answers": len(c.Answers),
		"score":   draft.OverallScore,
	})
	return e.draftReply(c, msgDraftReady+draft.Content+msgConfirmPrompt)
}

// nextQuestion returns a question for QNA even when the planner has nothing
// left to ask, so the session never stalls without one.
func (e *Engine) nextQuestion(ctx context.Context, c *store.InterviewContext) (string, store.Slot) {
	plan := e.planner.PlanNext(ctx, e.planInput(c))
	if plan.NextQuestion != "" && !c.WasAsked(plan.NextQuestion) {
		return plan.NextQuestion, plan.Slot
	}
	if q, ok := e.planner.Reask(store.SlotOther, "", "", c.AskedQuestions); ok {
		return q, store.SlotOther
	}
	return msgFreeForm, store.SlotOther
}

func (e *Engine) confirm(ctx context.Context, c *store.InterviewContext, text string) Reply {
	switch {
	case e.lexicon.IsDecline(text):
		return e.draftReply(c, msgAskInstruction)
	case e.lexicon.IsAccept(text):
		reply, _ := e.Accept(ctx, c, nil)
		return reply
	default:
		reply, _ := e.Revise(ctx, c, text)
		return reply
	}
}

// Accept submits the confirmed draft. A failed submission leaves the session
// in CONFIRM.
func (e *Engine) Accept(ctx context.Context, c *store.InterviewContext, attachments []string) (Reply, error) {
	if c.Stage != store.StageConfirm || c.Draft.IsEmpty() {
		return Reply{Message: msgNoDraft, Stage: c.Stage}, ErrNoDraft
	}
	if e.submitter == nil {
		return e.draftReply(c, msgSubmitFailed+"게시 기능이 설정되지 않았어요."), errors.New("engine: no submitter configured")
	}

	if err := e.submitter.Submit(ctx, c, attachments); err != nil {
		e.logger.Warn("INTERVIEW", "Submission failed", map[string]interface{}{
			"user_id": c.UserID,
			"error":   err.Error(),
		})
		if errors.Is(err, backend.ErrAuthRequired) {
			return e.draftReply(c, backend.ErrAuthRequired.Error()), err
		}
		return e.draftReply(c, msgSubmitFailed+backend.Reason(err)), err
	}

	e.transition(c, stage.EventSubmitted)
	e.logger.Info("INTERVIEW", "Review submitted", map[string]interface{}{
		"user_id": c.UserID,
		"order":   c.OrderReference,
	})
	return Reply{Message: msgSubmitted, Stage: c.Stage, Draft: c.Draft, Submitted: true}, nil
}

// Revise applies an edit instruction to the draft and stays in CONFIRM.
func (e *Engine) Revise(ctx context.Context, c *store.InterviewContext, instruction string) (Reply, error) {
	if c.Stage != store.StageConfirm || c.Draft.IsEmpty() {
		return Reply{Message: msgNoDraft, Stage: c.Stage}, ErrNoDraft
	}
	revised, err := e.composer.Revise(ctx, *c.Draft, c.Persona, instruction)
	if err != nil {
		return e.draftReply(c, msgReviseNoop), err
	}
	c.Draft = &revised
	return e.draftReply(c, msgRevised+revised.Content+msgConfirmPrompt), nil
}

func (e *Engine) draftReply(c *store.InterviewContext, msg string) Reply {
	var draft *store.Draft
	if c.Draft != nil {
		d := *c.Draft
		draft = &d
	}
	return Reply{Message: msg, Stage: c.Stage, DraftReady: !draft.IsEmpty(), Draft: draft}
}

func (e *Engine) doneReply(c *store.InterviewContext) Reply {
	return Reply{Message: msgAlreadyDone, Stage: c.Stage, Draft: c.Draft}
}

// transition fires event and reports whether the stage moved.
func (e *Engine) transition(c *store.InterviewContext, event string) bool {
	from := c.Stage
	next, err := stage.Next(from, event, stage.Facts{DraftReady: !c.Draft.IsEmpty()})
	if err != nil {
		e.logger.Warn("INTERVIEW", "Transition rejected", map[string]interface{}{
			"user_id": c.UserID,
			"event":   event,
			"error":   err.Error(),
		})
		return false
	}
	c.Stage = next
	e.logger.Debug("INTERVIEW", "Stage transition", map[string]interface{}{
		"user_id": c.UserID,
		"from":    from,
		"to":      next,
		"event":   event,
	})
	return true
}

func (e *Engine) planInput(c *store.InterviewContext) planner.Input {
	return planner.Input{
		Item:           c.SubjectItem,
		Category:       c.Category,
		Answers:        c.Answers,
		AskedSlots:     c.AskedSlots,
		AskedQuestions: c.AskedQuestions,
	}
}
