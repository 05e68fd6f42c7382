package service

import (
	"context"
	"errors"
	"fmt"

	"ai-review-be/internal/dto"
	"ai-review-be/internal/pkg/logger"
	"ai-review-be/pkg/backend"
	"ai-review-be/pkg/events"
	"ai-review-be/pkg/interview/composer"
	"ai-review-be/pkg/interview/contextstore"
	"ai-review-be/pkg/interview/engine"
	"ai-review-be/pkg/store"
)

var ErrNotEligible = errors.New("interview: not eligible to review")

// NotEligibleError carries the backend's reason for refusing a session.
type NotEligibleError struct {
	Reason string
}

func (e *NotEligibleError) Error() string {
	return e.Reason
}

func (e *NotEligibleError) Unwrap() error {
	return ErrNotEligible
}

// ReviewBackend is the part of the commerce API the interview needs.
type ReviewBackend interface {
	CheckEligible(ctx context.Context, orderRef, productRef, token string) backend.Eligibility
	ProductMeta(ctx context.Context, productRef, orderRef, token string) backend.ProductMeta
	Me(ctx context.Context, token string) *store.Persona
	Submit(ctx context.Context, s backend.Submission, token string) (backend.SubmitResult, error)
}

// TurnRecorder counts service-level outcomes.
type TurnRecorder interface {
	Turn(operation, stage string)
	Submission(success bool)
}

type nopTurnRecorder struct{}

func (nopTurnRecorder) Turn(string, string) {}
func (nopTurnRecorder) Submission(bool)     {}

type IInterviewService interface {
	CreateSession(ctx context.Context, userID, bearer string, req *dto.CreateSessionRequest) (*dto.TurnResponse, error)
	Reply(ctx context.Context, userID, bearer string, req *dto.ReplyRequest) (*dto.TurnResponse, error)
	AcceptDraft(ctx context.Context, userID, bearer string, req *dto.AcceptDraftRequest) (*dto.AcceptDraftResponse, error)
	ReviseDraft(ctx context.Context, userID, bearer string, req *dto.ReviseDraftRequest) (*dto.TurnResponse, error)
	GetSession(ctx context.Context, userID string) (*dto.SessionResponse, error)
}

type interviewService struct {
	store     contextstore.Store
	engine    *engine.Engine
	backend   ReviewBackend
	publisher events.Publisher
	recorder  TurnRecorder
	locks     *keyedMutex
	logger    logger.ILogger
}

func NewInterviewService(
	contextStore contextstore.Store,
	eng *engine.Engine,
	reviewBackend ReviewBackend,
	publisher events.Publisher,
	recorder TurnRecorder,
	log logger.ILogger,
) IInterviewService {
	if recorder == nil {
		recorder = nopTurnRecorder{}
	}
	return &interviewService{
		store:     contextStore,
		engine:    eng,
		backend:   reviewBackend,
		publisher: publisher,
		recorder:  recorder,
		locks:     newKeyedMutex(),
		logger:    log,
	}
}

// NewBackendSubmitter adapts the backend client to engine.Submitter. The
// payload is built from the context and sent with its stored token.
func NewBackendSubmitter(b ReviewBackend) engine.Submitter {
	return &backendSubmitter{backend: b}
}

type backendSubmitter struct {
	backend ReviewBackend
}

func (s *backendSubmitter) Submit(ctx context.Context, c *store.InterviewContext, attachments []string) error {
	_, err := s.backend.Submit(ctx, backend.BuildSubmission(c, attachments), c.AccessToken)
	return err
}

func (s *interviewService) CreateSession(ctx context.Context, userID, bearer string, req *dto.CreateSessionRequest) (*dto.TurnResponse, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	token := backend.RawToken(bearer)

	// 1. Eligibility
	if el := s.backend.CheckEligible(ctx, req.OrderReference, req.ProductReference, token); !el.OK {
		s.logger.Info("INTERVIEW", "Session refused", map[string]interface{}{
			"user_id": userID,
			"order":   req.OrderReference,
			"reason":  el.Reason,
		})
		return nil, &NotEligibleError{Reason: el.Reason}
	}

	// 2. Subject and persona
	item, category := req.Item, req.Category
	if item == "" || category == "" {
		meta := s.backend.ProductMeta(ctx, req.ProductReference, req.OrderReference, token)
		if item == "" {
			item = meta.Name
		}
		if category == "" {
			category = meta.Category
		}
	}

	c := store.NewContext(userID)
	c.SubjectItem = item
	c.Category = store.NormalizeCategory(category)
	c.OrderReference = req.OrderReference
	c.ProductReference = req.ProductReference
	c.AccessToken = token
	c.Persona = s.backend.Me(ctx, token)

	// 3. First question
	reply := s.engine.Begin(ctx, c)
	if err := s.store.Set(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.publish(ctx, events.InterviewStarted, c, map[string]interface{}{
		"item":     c.SubjectItem,
		"category": c.Category,
	})
	s.recorder.Turn("create", string(reply.Stage))
	s.logger.Info("INTERVIEW", "Session created", map[string]interface{}{
		"user_id":  userID,
		"order":    c.OrderReference,
		"category": c.Category,
	})
	return toTurnResponse(reply), nil
}

func (s *interviewService) Reply(ctx context.Context, userID, bearer string, req *dto.ReplyRequest) (*dto.TurnResponse, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	c := s.store.Get(ctx, userID)
	s.refreshToken(c, bearer)
	before := c.Stage

	reply := s.engine.Handle(ctx, c, req.Text)
	s.save(ctx, c)
	s.afterTurn(ctx, c, before, reply)
	s.recorder.Turn("reply", string(reply.Stage))
	return toTurnResponse(reply), nil
}

func (s *interviewService) AcceptDraft(ctx context.Context, userID, bearer string, req *dto.AcceptDraftRequest) (*dto.AcceptDraftResponse, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	c := s.store.Get(ctx, userID)
	s.refreshToken(c, bearer)
	before := c.Stage

	reply, err := s.engine.Accept(ctx, c, req.Attachments)
	s.recorder.Turn("accept", string(reply.Stage))
	switch {
	case errors.Is(err, engine.ErrNoDraft):
		return nil, err
	case errors.Is(err, backend.ErrAuthRequired):
		s.recorder.Submission(false)
		return nil, err
	case err != nil:
		s.recorder.Submission(false)
		s.save(ctx, c)
		return &dto.AcceptDraftResponse{OK: false, Message: reply.Message, Stage: string(reply.Stage)}, nil
	}

	s.recorder.Submission(true)
	s.save(ctx, c)
	s.afterTurn(ctx, c, before, reply)
	return &dto.AcceptDraftResponse{OK: true, Message: reply.Message, Stage: string(reply.Stage)}, nil
}

func (s *interviewService) ReviseDraft(ctx context.Context, userID, bearer string, req *dto.ReviseDraftRequest) (*dto.TurnResponse, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	c := s.store.Get(ctx, userID)
	s.refreshToken(c, bearer)

	reply, err := s.engine.Revise(ctx, c, req.Instruction)
	s.recorder.Turn("revise", string(reply.Stage))
	if errors.Is(err, engine.ErrNoDraft) {
		return nil, err
	}
	if err != nil && !errors.Is(err, composer.ErrNoopRevision) {
		return nil, err
	}
	if err == nil {
		s.save(ctx, c)
	}
	return toTurnResponse(reply), nil
}

func (s *interviewService) GetSession(ctx context.Context, userID string) (*dto.SessionResponse, error) {
	c := s.store.Get(ctx, userID)

	slots := make([]string, 0, len(c.AskedSlots))
	for _, slot := range c.AskedSlots {
		slots = append(slots, string(slot))
	}
	return &dto.SessionResponse{
		Stage:        string(c.Stage),
		Item:         c.SubjectItem,
		Category:     c.Category,
		AnswersCount: len(c.Answers),
		AskedSlots:   slots,
		LastQuestion: c.LastQuestion,
		Draft:        dto.NewDraftResponse(c.Draft),
		UpdatedAt:    c.UpdatedAt,
	}, nil
}

// refreshToken lets the bearer of the current request replace the stored one.
func (s *interviewService) refreshToken(c *store.InterviewContext, bearer string) {
	if tok := backend.RawToken(bearer); tok != "" {
		c.AccessToken = tok
	}
}

// save keeps the turn going when persistence fails; the next turn then
// starts from whatever the store still has.
func (s *interviewService) save(ctx context.Context, c *store.InterviewContext) {
	if err := s.store.Set(ctx, c); err != nil {
		s.logger.Error("STORE", "Failed to save session", map[string]interface{}{
			"user_id": c.UserID,
			"error":   err.Error(),
		})
	}
}

func (s *interviewService) afterTurn(ctx context.Context, c *store.InterviewContext, before store.Stage, reply engine.Reply) {
	switch {
	case reply.Reset:
		s.publish(ctx, events.InterviewReset, c, nil)
	case reply.Submitted:
		data := map[string]interface{}{"order": c.OrderReference}
		if c.Draft != nil {
			data["score"] = backend.BuildSubmission(c, nil).OverallScore
		}
		s.publish(ctx, events.ReviewSubmitted, c, data)
	case before != store.StageConfirm && c.Stage == store.StageConfirm:
		data := map[string]interface{}{"answers": len(c.Answers)}
		if c.Draft != nil {
			data["score"] = c.Draft.OverallScore
		}
		s.publish(ctx, events.DraftComposed, c, data)
	}
}

// publish is best effort; a failed event never fails the turn.
func (s *interviewService) publish(ctx context.Context, eventType string, c *store.InterviewContext, data map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	if data == nil {
		data = map[string]interface{}{}
	}
	data["user_id"] = c.UserID
	data["stage"] = string(c.Stage)

	if err := s.publisher.Publish(ctx, events.NewEvent(eventType, data)); err != nil {
		s.logger.Warn("EVENTS", "Failed to publish event", map[string]interface{}{
			"type":  eventType,
			"error": err.Error(),
		})
	}
}

func toTurnResponse(r engine.Reply) *dto.TurnResponse {
	return &dto.TurnResponse{
		Message:    r.Message,
		Question:   r.Question,
		Stage:      string(r.Stage),
		DraftReady: r.DraftReady,
		Draft:      dto.NewDraftResponse(r.Draft),
	}
}
