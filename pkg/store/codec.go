package store

import (
	"encoding/json"
	"fmt"
	"strings"
)

// wireContext mirrors InterviewContext on the wire and additionally accepts
// the legacy key spellings older writers used.
type wireContext struct {
	InterviewContext

	LegacyItem        string          `json:"item,omitempty"`
	LegacyProductName string          `json:"product_name,omitempty"`
	LegacyOrderItemID json.RawMessage `json:"order_item_id,omitempty"`
	LegacyProductID   json.RawMessage `json:"product_id,omitempty"`
	LegacyAccessToken string          `json:"access_token,omitempty"`
	LegacySummary     string          `json:"summary_text,omitempty"`
	LegacyUserID      json.RawMessage `json:"user_id,omitempty"`
}

// legacyStages maps stage names from the fixed-step flow onto the current stages.
var legacyStages = map[string]Stage{
	"PRODUCT":        StageQnA,
	"PROS":           StageQnA,
	"CONS":           StageQnA,
	"PRICE":          StageQnA,
	"RECOMMEND":      StageQnA,
	"SCORE":          StageQnA,
	"SUMMARY":        StageCompose,
	"EDIT_OR_ACCEPT": StageConfirm,
}

// EncodeContext serializes a context using canonical field names only.
func EncodeContext(c *InterviewContext) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("encode context: nil context")
	}
	return json.Marshal(c)
}

// DecodeContext parses a stored payload, folding alias keys into their
// canonical fields and repairing missing collections.
func DecodeContext(data []byte) (*InterviewContext, error) {
	var w wireContext
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode context: %w", err)
	}
	c := w.InterviewContext

	if c.SubjectItem == "" {
		c.SubjectItem = firstNonEmpty(w.LegacyItem, w.LegacyProductName)
	}
	if c.OrderReference == "" {
		c.OrderReference = rawScalar(w.LegacyOrderItemID)
	}
	if c.ProductReference == "" {
		c.ProductReference = rawScalar(w.LegacyProductID)
	}
	if c.UserID == "" {
		c.UserID = rawScalar(w.LegacyUserID)
	}
	if c.AccessToken == "" {
		c.AccessToken = w.LegacyAccessToken
	}
	if c.Draft == nil && strings.TrimSpace(w.LegacySummary) != "" {
		c.Draft = &Draft{Content: w.LegacySummary, PriceFeel: PriceUnknown, Recommend: RecommendUnknown}
	}

	c.Stage = normalizeStage(string(c.Stage))
	c.Category = NormalizeCategory(c.Category)
	if c.Answers == nil {
		c.Answers = []QA{}
	}
	if c.AskedSlots == nil {
		c.AskedSlots = []Slot{}
	}
	if c.ReaskCounts == nil {
		c.ReaskCounts = map[Slot]int{}
	}
	// A draft outside CONFIRM/DONE is stale state; drop it.
	if c.Stage != StageConfirm && c.Stage != StageDone {
		c.Draft = nil
	}
	return &c, nil
}

func normalizeStage(raw string) Stage {
	s := strings.ToUpper(strings.TrimSpace(raw))
	switch Stage(s) {
	case StageStart, StageQnA, StageCompose, StageConfirm, StageDone:
		return Stage(s)
	}
	if legacy, ok := legacyStages[s]; ok {
		return legacy
	}
	return StageStart
}

// rawScalar renders a JSON number or string as plain text.
func rawScalar(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
