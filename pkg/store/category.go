package store

import "strings"

// Canonical category labels.
const (
	CategoryElectronics = "electronics"
	CategoryBeauty      = "beauty"
	CategoryService     = "service"
	CategoryMealKit     = "mealkit"
	CategoryGeneral     = "general"
)

// categoryAliases is checked in order; the first alias contained in the raw
// label wins.
var categoryAliases = []struct {
	alias    string
	category string
}{
	{"electronics", CategoryElectronics},
	{"appliance", CategoryElectronics},
	{"전자", CategoryElectronics},
	{"가전", CategoryElectronics},
	{"beauty", CategoryBeauty},
	{"cosmetic", CategoryBeauty},
	{"화장품", CategoryBeauty},
	{"뷰티", CategoryBeauty},
	{"service", CategoryService},
	{"software", CategoryService},
	{"subscription", CategoryService},
	{"무형", CategoryService},
	{"구독", CategoryService},
	{"mealkit", CategoryMealKit},
	{"meal", CategoryMealKit},
	{"foodkit", CategoryMealKit},
	{"밀키트", CategoryMealKit},
}

// NormalizeCategory maps a free-form label to the closed category set,
// falling back to general.
func NormalizeCategory(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return CategoryGeneral
	}
	for _, a := range categoryAliases {
		if strings.Contains(s, a.alias) {
			return a.category
		}
	}
	return CategoryGeneral
}

// CategorySlots lists the slots worth probing for a category, in the order
// they should be asked after the common ones.
var CategorySlots = map[string][]Slot{
	CategoryElectronics: {SlotSound, SlotBattery, SlotConnectivity, SlotDesign, SlotDurability},
	CategoryBeauty:      {SlotFit, SlotDesign, SlotDurability},
	CategoryService:     {SlotUsability, SlotPrice},
	CategoryMealKit:     {SlotUsability, SlotDesign},
	CategoryGeneral:     {SlotDurability, SlotDesign, SlotUsability},
}

// CommonSlots are probed for every category before the category specific ones.
var CommonSlots = []Slot{SlotReason, SlotPros, SlotCons, SlotPrice, SlotRecommend}

// OrderedSlots returns the probing order for a category without duplicates,
// ending with the remaining slots in priority order.
func OrderedSlots(category string) []Slot {
	seen := make(map[Slot]bool, len(SlotPriority))
	out := make([]Slot, 0, len(SlotPriority))
	add := func(list []Slot) {
		for _, s := range list {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	add(CommonSlots)
	add(CategorySlots[NormalizeCategory(category)])
	add(SlotPriority)
	return out
}
