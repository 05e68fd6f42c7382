package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-review-be/internal/dto"
	"ai-review-be/internal/pkg/logger"
	"ai-review-be/internal/repository/memory"
	"ai-review-be/pkg/backend"
	"ai-review-be/pkg/events"
	"ai-review-be/pkg/interview/composer"
	"ai-review-be/pkg/interview/contextstore"
	"ai-review-be/pkg/interview/engine"
	"ai-review-be/pkg/interview/gate"
	"ai-review-be/pkg/interview/lexicon"
	"ai-review-be/pkg/interview/planner"
	"ai-review-be/pkg/interview/responder"
	"ai-review-be/pkg/llm"
	"ai-review-be/pkg/llm/llmtest"
	"ai-review-be/pkg/store"
)

type fakeBackend struct {
	mu          sync.Mutex
	eligibility backend.Eligibility
	meta        backend.ProductMeta
	persona     *store.Persona
	submitErr   error
	submitted   []backend.Submission
	tokens      []string
}

func (f *fakeBackend) CheckEligible(context.Context, string, string, string) backend.Eligibility {
	return f.eligibility
}

func (f *fakeBackend) ProductMeta(context.Context, string, string, string) backend.ProductMeta {
	return f.meta
}

func (f *fakeBackend) Me(context.Context, string) *store.Persona {
	return f.persona
}

func (f *fakeBackend) Submit(_ context.Context, s backend.Submission, token string) (backend.SubmitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, s)
	f.tokens = append(f.tokens, token)
	if token == "" {
		return backend.SubmitResult{}, backend.ErrAuthRequired
	}
	if f.submitErr != nil {
		return backend.SubmitResult{}, f.submitErr
	}
	return backend.SubmitResult{StatusCode: 201}, nil
}

type recordingPublisher struct {
	mu    sync.Mutex
	types []string
}

func (r *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = append(r.types, e.EventType())
	return nil
}

type fixture struct {
	svc       IInterviewService
	store     contextstore.Store
	backend   *fakeBackend
	publisher *recordingPublisher
}

func newFixture(t *testing.T, provider llm.LLMProvider) *fixture {
	t.Helper()
	log := logger.NewNopLogger()
	lx := lexicon.Default()
	be := &fakeBackend{eligibility: backend.Eligibility{OK: true}}

	cs, err := contextstore.NewTieredStore(log, contextstore.Tier{Name: "memory", Repo: memory.NewSessionRepository(time.Hour)})
	require.NoError(t, err)

	eng := engine.NewEngine(
		gate.NewGate(provider, lx, log),
		planner.NewPlanner(provider, lx, nil, planner.Config{SufficientSlots: 4, MaxSlots: 7}, log),
		responder.NewResponder(provider, log),
		composer.NewComposer(provider, log),
		lx,
		engine.Config{ReaskLimit: 3},
		log,
		engine.WithSubmitter(NewBackendSubmitter(be)),
	)
	pub := &recordingPublisher{}
	return &fixture{
		svc:       NewInterviewService(cs, eng, be, pub, nil, log),
		store:     cs,
		backend:   be,
		publisher: pub,
	}
}

func (f *fixture) create(t *testing.T, req *dto.CreateSessionRequest) *dto.TurnResponse {
	t.Helper()
	res, err := f.svc.CreateSession(context.Background(), "u1", "Bearer tok-1", req)
	require.NoError(t, err)
	return res
}

func TestCreateSessionReturnsFirstQuestion(t *testing.T) {
	f := newFixture(t, llmtest.Failing())

	res := f.create(t, &dto.CreateSessionRequest{OrderReference: "11", ProductReference: "22", Item: "earbuds", Category: "electronics"})

	assert.NotEmpty(t, res.Question)
	assert.Equal(t, string(store.StageQnA), res.Stage)

	c := f.store.Get(context.Background(), "u1")
	assert.Equal(t, store.StageQnA, c.Stage)
	assert.Equal(t, "tok-1", c.AccessToken)
	assert.Equal(t, store.CategoryElectronics, c.Category)
	assert.Equal(t, []string{events.InterviewStarted}, f.publisher.types)
}

func TestCreateSessionFillsMetaAndPersona(t *testing.T) {
	f := newFixture(t, llmtest.Failing())
	f.backend.meta = backend.ProductMeta{Name: "수분 크림", Category: "화장품"}
	f.backend.persona = &store.Persona{Gender: "FEMALE", AgeRange: "30s"}

	f.create(t, &dto.CreateSessionRequest{OrderReference: "11", ProductReference: "22"})

	c := f.store.Get(context.Background(), "u1")
	assert.Equal(t, "수분 크림", c.SubjectItem)
	assert.Equal(t, store.CategoryBeauty, c.Category)
	require.NotNil(t, c.Persona)
	assert.Equal(t, "30s", c.Persona.AgeRange)
}

func TestCreateSessionNotEligible(t *testing.T) {
	f := newFixture(t, llmtest.Failing())
	f.backend.eligibility = backend.Eligibility{OK: false, Reason: backend.ReasonOrderItemReviewed}

	res, err := f.svc.CreateSession(context.Background(), "u1", "tok", &dto.CreateSessionRequest{OrderReference: "11"})

	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrNotEligible)
	assert.Equal(t, backend.ReasonOrderItemReviewed, err.Error())
	assert.Equal(t, store.StageStart, f.store.Get(context.Background(), "u1").Stage)
}

func TestFullInterviewSubmits(t *testing.T) {
	f := newFixture(t, llmtest.Failing())
	ctx := context.Background()
	f.create(t, &dto.CreateSessionRequest{OrderReference: "11", Item: "무선 이어폰", Category: "electronics"})

	for _, text := range []string{
		"쓰던 이어폰이 고장나서 새로 필요했어요",
		"소리가 선명하고 좋았어요",
		"케이스가 조금 아쉬워요",
		"가격은 적당했어요",
	} {
		_, err := f.svc.Reply(ctx, "u1", "", &dto.ReplyRequest{Text: text})
		require.NoError(t, err)
	}

	session, err := f.svc.GetSession(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, string(store.StageConfirm), session.Stage)
	require.NotNil(t, session.Draft)
	assert.Equal(t, 4, session.AnswersCount)

	res, err := f.svc.AcceptDraft(ctx, "u1", "Bearer fresh", &dto.AcceptDraftRequest{Attachments: []string{"a.png"}})
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, string(store.StageDone), res.Stage)

	require.Len(t, f.backend.submitted, 1)
	assert.Equal(t, "fresh", f.backend.tokens[0])
	assert.Equal(t, backend.DefaultScore, f.backend.submitted[0].OverallScore)
	assert.Equal(t, backend.Reference("11"), f.backend.submitted[0].OrderItemID)
	assert.Equal(t, []string{events.InterviewStarted, events.DraftComposed, events.ReviewSubmitted}, f.publisher.types)
}

func TestAcceptDraftBackendFailureStaysInConfirm(t *testing.T) {
	f := newFixture(t, llmtest.Failing())
	ctx := context.Background()
	f.backend.submitErr = &backend.SubmitError{StatusCode: 400, Reason: "이미 등록된 리뷰입니다."}
	seedConfirm(t, f)

	res, err := f.svc.AcceptDraft(ctx, "u1", "", &dto.AcceptDraftRequest{})

	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Contains(t, res.Message, "이미 등록된 리뷰입니다.")
	assert.Equal(t, store.StageConfirm, f.store.Get(ctx, "u1").Stage)
}

func TestAcceptDraftWithoutTokenIsHardStop(t *testing.T) {
	f := newFixture(t, llmtest.Failing())
	ctx := context.Background()
	c := seedConfirm(t, f)
	c.AccessToken = ""
	require.NoError(t, f.store.Set(ctx, c))

	res, err := f.svc.AcceptDraft(ctx, "u1", "", &dto.AcceptDraftRequest{})

	assert.Nil(t, res)
	assert.ErrorIs(t, err, backend.ErrAuthRequired)
	assert.Equal(t, store.StageConfirm, f.store.Get(ctx, "u1").Stage)
}

func TestAcceptDraftWithoutDraft(t *testing.T) {
	f := newFixture(t, llmtest.Failing())
	f.create(t, &dto.CreateSessionRequest{OrderReference: "11"})

	_, err := f.svc.AcceptDraft(context.Background(), "u1", "", &dto.AcceptDraftRequest{})
	assert.ErrorIs(t, err, engine.ErrNoDraft)
	assert.Empty(t, f.backend.submitted)
}

func TestDeclineInConfirmDoesNotSubmit(t *testing.T) {
	f := newFixture(t, llmtest.Failing())
	ctx := context.Background()
	seedConfirm(t, f)

	res, err := f.svc.Reply(ctx, "u1", "", &dto.ReplyRequest{Text: "아니오"})

	require.NoError(t, err)
	assert.Equal(t, string(store.StageConfirm), res.Stage)
	assert.True(t, res.DraftReady)
	assert.Empty(t, f.backend.submitted)
}

func TestReviseDraft(t *testing.T) {
	f := newFixture(t, llmtest.Returning("더 짧아진 리뷰입니다."))
	ctx := context.Background()
	seedConfirm(t, f)

	res, err := f.svc.ReviseDraft(ctx, "u1", "", &dto.ReviseDraftRequest{Instruction: "더 짧게"})

	require.NoError(t, err)
	require.NotNil(t, res.Draft)
	assert.Equal(t, "더 짧아진 리뷰입니다.", res.Draft.Content)
	assert.Equal(t, 5, res.Draft.OverallScore)
	assert.Equal(t, "더 짧아진 리뷰입니다.", f.store.Get(ctx, "u1").Draft.Content)
}

func TestReviseDraftNoopKeepsDraft(t *testing.T) {
	f := newFixture(t, llmtest.Failing())
	ctx := context.Background()
	seedConfirm(t, f)

	res, err := f.svc.ReviseDraft(ctx, "u1", "", &dto.ReviseDraftRequest{Instruction: "더 짧게"})

	require.NoError(t, err)
	assert.Equal(t, "원래 초안입니다.", res.Draft.Content)
}

func TestResetPublishesEvent(t *testing.T) {
	f := newFixture(t, llmtest.Failing())
	seedConfirm(t, f)

	res, err := f.svc.Reply(context.Background(), "u1", "", &dto.ReplyRequest{Text: "처음부터"})

	require.NoError(t, err)
	assert.Equal(t, string(store.StageQnA), res.Stage)
	assert.Contains(t, f.publisher.types, events.InterviewReset)
}

func TestConsumerCountsAndAudits(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()
	counter := &countingEvents{seen: make(chan string, 4)}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	consumer := NewConsumerService(pubSub, events.Topic, logger.NewNopLogger(), counter)
	require.NoError(t, consumer.Consume(ctx))

	require.NoError(t, events.NewBusPublisher(pubSub, events.Topic).Publish(ctx, events.NewEvent(events.ReviewSubmitted, nil)))

	select {
	case got := <-counter.seen:
		assert.Equal(t, events.ReviewSubmitted, got)
	case <-time.After(2 * time.Second):
		t.Fatal("event not consumed")
	}
}

type countingEvents struct {
	seen chan string
}

func (c *countingEvents) Event(eventType string) {
	c.seen <- eventType
}

func seedConfirm(t *testing.T, f *fixture) *store.InterviewContext {
	t.Helper()
	c := store.NewContext("u1")
	c.Stage = store.StageConfirm
	c.OrderReference = "11"
	c.AccessToken = "tok"
	c.Answers = []store.QA{{Question: "좋았던 점?", Answer: "음질이 좋아요", Slot: store.SlotPros}}
	c.Draft = &store.Draft{Content: "원래 초안입니다.", OverallScore: 5, PriceFeel: store.PriceFair, Recommend: store.RecommendYes}
	require.NoError(t, f.store.Set(context.Background(), c))
	return c
}
