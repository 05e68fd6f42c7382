package dto

import (
	"time"

	"ai-review-be/pkg/store"
)

type CreateSessionRequest struct {
	OrderReference   string `json:"order_reference" validate:"required,max=64"`
	ProductReference string `json:"product_reference" validate:"omitempty,max=64"`
	Item             string `json:"item" validate:"omitempty,max=200"`
	Category         string `json:"category" validate:"omitempty,max=50"`
}

type ReplyRequest struct {
	Text string `json:"text" validate:"max=2000"`
}

type AcceptDraftRequest struct {
	Attachments []string `json:"attachments" validate:"omitempty,max=10,dive,max=2048"`
}

type ReviseDraftRequest struct {
	Instruction string `json:"instruction" validate:"required,max=1000"`
}

type DraftResponse struct {
	Content      string `json:"content"`
	OverallScore int    `json:"overall_score"`
	PriceFeel    string `json:"price_feel"`
	Recommend    string `json:"recommend"`
}

func NewDraftResponse(d *store.Draft) *DraftResponse {
	if d.IsEmpty() {
		return nil
	}
	return &DraftResponse{
		Content:      d.Content,
		OverallScore: d.OverallScore,
		PriceFeel:    string(d.PriceFeel),
		Recommend:    string(d.Recommend),
	}
}

type TurnResponse struct {
	Message    string         `json:"message"`
	Question   string         `json:"question,omitempty"`
	Stage      string         `json:"stage"`
	DraftReady bool           `json:"draft_ready"`
	Draft      *DraftResponse `json:"draft,omitempty"`
}

type AcceptDraftResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	Stage   string `json:"stage"`
}

type SessionResponse struct {
	Stage        string         `json:"stage"`
	Item         string         `json:"item"`
	Category     string         `json:"category"`
	AnswersCount int            `json:"answers_count"`
	AskedSlots   []string       `json:"asked_slots"`
	LastQuestion string         `json:"last_question,omitempty"`
	Draft        *DraftResponse `json:"draft,omitempty"`
	UpdatedAt    time.Time      `json:"updated_at"`
}
