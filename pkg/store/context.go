package store

import (
	"strings"
	"time"
)

// Stage is the interview phase of a session.
type Stage string

const (
	StageStart   Stage = "START"
	StageQnA     Stage = "QNA"
	StageCompose Stage = "COMPOSE"
	StageConfirm Stage = "CONFIRM"
	StageDone    Stage = "DONE"
)

// Slot is a semantic topic bucket the interview tries to cover.
type Slot string

const (
	SlotReason       Slot = "reason"
	SlotPros         Slot = "pros"
	SlotCons         Slot = "cons"
	SlotPrice        Slot = "price"
	SlotRecommend    Slot = "recommend"
	SlotDurability   Slot = "durability"
	SlotBattery      Slot = "battery"
	SlotFit          Slot = "fit"
	SlotConnectivity Slot = "connectivity"
	SlotSound        Slot = "sound"
	SlotDesign       Slot = "design"
	SlotUsability    Slot = "usability"
	SlotOther        Slot = "other"
)

// SlotPriority is the fixed order used whenever the core picks a slot itself.
var SlotPriority = []Slot{
	SlotReason,
	SlotPros,
	SlotCons,
	SlotPrice,
	SlotRecommend,
	SlotDurability,
	SlotDesign,
	SlotSound,
	SlotBattery,
	SlotConnectivity,
	SlotFit,
	SlotUsability,
	SlotOther,
}

// ParseSlot maps free text to a known slot. Unknown values return false.
func ParseSlot(raw string) (Slot, bool) {
	s := Slot(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range SlotPriority {
		if s == known {
			return s, true
		}
	}
	return "", false
}

type PriceFeel string

const (
	PriceCheap     PriceFeel = "CHEAP"
	PriceFair      PriceFeel = "FAIR"
	PriceExpensive PriceFeel = "EXPENSIVE"
	PriceUnknown   PriceFeel = "UNKNOWN"
)

// NormalizePriceFeel folds model output into the closed set.
func NormalizePriceFeel(raw string) PriceFeel {
	switch PriceFeel(strings.ToUpper(strings.TrimSpace(raw))) {
	case PriceCheap:
		return PriceCheap
	case PriceFair:
		return PriceFair
	case PriceExpensive:
		return PriceExpensive
	default:
		return PriceUnknown
	}
}

type Recommend string

const (
	RecommendYes     Recommend = "YES"
	RecommendNo      Recommend = "NO"
	RecommendUnknown Recommend = "UNKNOWN"
)

// NormalizeRecommend folds model output into the closed set.
func NormalizeRecommend(raw string) Recommend {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "YES", "TRUE", "Y":
		return RecommendYes
	case "NO", "FALSE", "N":
		return RecommendNo
	default:
		return RecommendUnknown
	}
}

// QA is one recorded answer. Slot is the topic the question targeted.
type QA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Slot     Slot   `json:"slot,omitempty"`
}

// Persona only steers LLM tone. It never takes part in gating.
type Persona struct {
	Gender   string `json:"gender,omitempty"`
	AgeRange string `json:"ageRange,omitempty"`
}

func (p *Persona) IsZero() bool {
	return p == nil || (p.Gender == "" && p.AgeRange == "")
}

// Draft is the structured review pending confirmation.
type Draft struct {
	Content      string    `json:"content"`
	OverallScore int       `json:"overallScore"`
	PriceFeel    PriceFeel `json:"priceFeel"`
	Recommend    Recommend `json:"recommend"`
}

func (d *Draft) IsEmpty() bool {
	return d == nil || strings.TrimSpace(d.Content) == ""
}

// InterviewContext is the per-user session record.
type InterviewContext struct {
	UserID           string       `json:"userId"`
	Stage            Stage        `json:"stage"`
	SubjectItem      string       `json:"subjectItem"`
	Category         string       `json:"category"`
	Answers          []QA         `json:"answers"`
	LastQuestion     string       `json:"lastQuestion"`
	PendingSlot      Slot         `json:"pendingSlot,omitempty"`
	AskedSlots       []Slot       `json:"askedSlots"`
	AskedQuestions   []string     `json:"askedQuestions"`
	ReaskCounts      map[Slot]int `json:"reaskCounts"`
	PendingAttempts  []string     `json:"pendingAttempts,omitempty"`
	Persona          *Persona     `json:"persona,omitempty"`
	Draft            *Draft       `json:"draft,omitempty"`
	OrderReference   string       `json:"orderReference"`
	ProductReference string       `json:"productReference"`
	AccessToken      string       `json:"accessToken,omitempty"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
}

// NewContext returns the documented default context for a user.
func NewContext(userID string) *InterviewContext {
	return &InterviewContext{
		UserID:      userID,
		Stage:       StageStart,
		Category:    CategoryGeneral,
		Answers:     []QA{},
		AskedSlots:  []Slot{},
		ReaskCounts: map[Slot]int{},
	}
}

// HasSlot reports whether the slot is already covered.
func (c *InterviewContext) HasSlot(s Slot) bool {
	for _, have := range c.AskedSlots {
		if have == s {
			return true
		}
	}
	return false
}

// CoverSlot adds a slot to the covered set. The set never shrinks.
func (c *InterviewContext) CoverSlot(s Slot) {
	if s == "" || c.HasSlot(s) {
		return
	}
	c.AskedSlots = append(c.AskedSlots, s)
}

// RecordAnswer appends to the transcript.
func (c *InterviewContext) RecordAnswer(question, answer string, slot Slot) {
	c.Answers = append(c.Answers, QA{Question: question, Answer: answer, Slot: slot})
}

// HasRecorded reports whether the same answer text is already recorded for slot.
func (c *InterviewContext) HasRecorded(slot Slot, answer string) bool {
	key := NormalizeText(answer)
	for _, qa := range c.Answers {
		if qa.Slot == slot && NormalizeText(qa.Answer) == key {
			return true
		}
	}
	return false
}

// WasAsked compares case- and whitespace-insensitively against every posed question.
func (c *InterviewContext) WasAsked(question string) bool {
	key := NormalizeText(question)
	if key == "" {
		return false
	}
	for _, q := range c.AskedQuestions {
		if NormalizeText(q) == key {
			return true
		}
	}
	return false
}

// Ask makes question the pending question for slot.
func (c *InterviewContext) Ask(question string, slot Slot) {
	c.LastQuestion = question
	c.PendingSlot = slot
	c.AskedQuestions = append(c.AskedQuestions, question)
}

// ResetInterview clears everything gathered so far but keeps the submission
// correlation fields and persona.
func (c *InterviewContext) ResetInterview() {
	c.Stage = StageStart
	c.Answers = []QA{}
	c.AskedSlots = []Slot{}
	c.AskedQuestions = nil
	c.ReaskCounts = map[Slot]int{}
	c.PendingAttempts = nil
	c.LastQuestion = ""
	c.PendingSlot = ""
	c.Draft = nil
}

// NormalizeText lowercases and collapses whitespace.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
