package composer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-review-be/internal/pkg/logger"
	"ai-review-be/pkg/llm/llmtest"
	"ai-review-be/pkg/store"
)

func fourSlotAnswers() []store.QA {
	return []store.QA{
		{Question: "이 제품을 구매하신 이유는 무엇인가요?", Answer: "쓰던 이어폰이 고장나서 바꿨어요", Slot: store.SlotReason},
		{Question: "사용하시면서 가장 좋았던 점은 무엇인가요?", Answer: "사운드가 좋았어요", Slot: store.SlotPros},
		{Question: "사용하시면서 아쉬웠던 점은 무엇인가요?", Answer: "케이스가 조금 커요", Slot: store.SlotCons},
		{Question: "가격은 어떠셨나요?", Answer: "이 가격이면 적당해요", Slot: store.SlotPrice},
	}
}

func newComposer(fake *llmtest.Fake) *Composer {
	return NewComposer(fake, logger.NewNopLogger())
}

func TestCompose_ValidDraft(t *testing.T) {
	fake := llmtest.Returning(`{"content":"음질이 좋아서 만족스러운 이어폰입니다. 케이스가 조금 큰 점은 아쉬워요.","overallScore":4,"priceFeel":"fair","recommend":"YES"}`)
	d := newComposer(fake).Compose(context.Background(), Input{Item: "wireless earbuds", Category: "electronics", Answers: fourSlotAnswers()})

	assert.NotEmpty(t, d.Content)
	assert.GreaterOrEqual(t, d.OverallScore, 1)
	assert.LessOrEqual(t, d.OverallScore, 5)
	assert.Equal(t, store.PriceFair, d.PriceFeel)
	assert.Equal(t, store.RecommendYes, d.Recommend)

	prompt := fake.LastUserPrompt()
	for _, qa := range fourSlotAnswers() {
		assert.Contains(t, prompt, qa.Answer)
	}
}

func TestCompose_LenientFieldTypes(t *testing.T) {
	fake := llmtest.Returning(`여기 있어요: {"content":"좋아요","overallScore":"5","priceFeel":"비쌈","recommend":false}`)
	d := newComposer(fake).Compose(context.Background(), Input{Answers: fourSlotAnswers()})

	assert.Equal(t, 5, d.OverallScore)
	assert.Equal(t, store.PriceUnknown, d.PriceFeel)
	assert.Equal(t, store.RecommendNo, d.Recommend)
}

func TestCompose_UnparseableKeepsRawText(t *testing.T) {
	raw := "음질이 좋고 가격도 적당한 이어폰이에요."
	d := newComposer(llmtest.Returning(raw)).Compose(context.Background(), Input{Answers: fourSlotAnswers()})

	assert.Equal(t, store.Draft{Content: raw, OverallScore: 0, PriceFeel: store.PriceUnknown, Recommend: store.RecommendUnknown}, d)
}

func TestCompose_ModelFailureUsesTemplate(t *testing.T) {
	d := newComposer(llmtest.Failing()).Compose(context.Background(), Input{Item: "wireless earbuds", Answers: fourSlotAnswers()})

	assert.Contains(t, d.Content, "wireless earbuds")
	assert.Contains(t, d.Content, "사운드가 좋았어요")
	assert.Equal(t, 0, d.OverallScore)
	assert.Equal(t, store.RecommendUnknown, d.Recommend)
}

func TestCompose_NoAnswersGivesEmptyDraft(t *testing.T) {
	fake := llmtest.Returning(`{"content":"지어낸 리뷰"}`)
	d := newComposer(fake).Compose(context.Background(), Input{Answers: []store.QA{{Question: "q", Answer: "  "}}})

	assert.True(t, d.IsEmpty())
	assert.Equal(t, 0, fake.Calls())
}

func TestRevise_NoopCases(t *testing.T) {
	original := store.Draft{Content: "좋은 이어폰입니다.", OverallScore: 4, PriceFeel: store.PriceFair, Recommend: store.RecommendYes}

	tests := []struct {
		name        string
		fake        *llmtest.Fake
		instruction string
	}{
		{"empty instruction", llmtest.Returning(`{"content":"바뀜"}`), "   "},
		{"empty content result", llmtest.Returning(`{"content":"","overallScore":5}`), "더 짧게"},
		{"model failure", llmtest.Failing(), "더 짧게"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := newComposer(tt.fake).Revise(context.Background(), original, nil, tt.instruction)
			assert.ErrorIs(t, err, ErrNoopRevision)
			assert.Equal(t, original, got)
		})
	}
}

func TestRevise_Applies(t *testing.T) {
	original := store.Draft{Content: "좋은 이어폰입니다.", OverallScore: 4, PriceFeel: store.PriceFair, Recommend: store.RecommendYes}

	got, err := newComposer(llmtest.Returning(`{"content":"음질 최고!","overallScore":5,"priceFeel":"FAIR","recommend":"YES"}`)).
		Revise(context.Background(), original, nil, "점수 5점으로")
	require.NoError(t, err)
	assert.Equal(t, "음질 최고!", got.Content)
	assert.Equal(t, 5, got.OverallScore)

	got, err = newComposer(llmtest.Returning("음질이 정말 좋은 이어폰입니다.")).
		Revise(context.Background(), original, nil, "더 자연스럽게")
	require.NoError(t, err)
	assert.Equal(t, "음질이 정말 좋은 이어폰입니다.", got.Content)
	assert.Equal(t, 4, got.OverallScore)
	assert.Equal(t, store.RecommendYes, got.Recommend)
}
