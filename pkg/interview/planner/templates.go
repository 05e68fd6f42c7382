package planner

import "ai-review-be/pkg/store"

// Templates holds the fallback phrasings per slot. The first entry is the
// primary question; the rest are alternatives used for re-asks.
type Templates map[store.Slot][]string

func DefaultTemplates() Templates {
	return Templates{
		store.SlotReason: {
			"이 제품을 구매하신 이유는 무엇인가요?",
			"구매 결정에 가장 큰 요인은 무엇이었나요?",
			"여러 제품 중에서 이 제품을 고르신 계기가 있을까요?",
		},
		store.SlotPros: {
			"사용하시면서 가장 좋았던 점은 무엇인가요?",
			"다른 제품과 비교했을 때 좋았던 점은 무엇인가요?",
			"이 제품의 장점을 하나만 꼽는다면 무엇일까요?",
		},
		store.SlotCons: {
			"사용하시면서 아쉬웠던 점은 무엇인가요?",
			"다른 제품과 비교했을 때 아쉬웠던 점이 있었나요?",
			"개선되었으면 하는 단점이 있다면 알려주세요.",
		},
		store.SlotPrice: {
			"가격은 어떠셨나요? 저렴, 적당, 비쌈 중 어떤 느낌이었나요?",
			"가격 대비 품질이나 기능이 합리적이라고 느끼셨나요?",
			"지불하신 비용만큼의 가치가 있었나요?",
		},
		store.SlotRecommend: {
			"지인에게 이 제품을 추천하시겠어요? 이유도 함께 알려주세요.",
			"재구매 의사가 있으신가요? 그렇게 생각하신 이유도 알려주세요.",
			"주변 사람이 이 제품을 고민한다면 추천하시겠어요?",
		},
		store.SlotDurability: {
			"내구성은 어떠셨나요? 사용하면서 고장이나 흠집은 없었나요?",
			"오래 써도 튼튼할 것 같다고 느끼셨나요?",
			"지금까지 써보신 기간 동안 내구성 면에서 문제는 없었나요?",
		},
		store.SlotBattery: {
			"배터리는 얼마나 오래 가던가요?",
			"충전 속도나 사용 시간은 어떠셨나요?",
			"배터리 성능에서 아쉬운 점은 없었나요?",
		},
		store.SlotConnectivity: {
			"블루투스 연결은 안정적이었나요?",
			"기기와 페어링하는 과정은 어땠나요?",
			"사용 중에 연결이 끊기는 일은 없었나요?",
		},
		store.SlotSound: {
			"음질은 어떠셨나요?",
			"소리의 선명함이나 저음은 기대에 맞았나요?",
			"사운드 면에서 인상적이었던 부분이 있나요?",
		},
		store.SlotDesign: {
			"디자인이나 외형(색상, 크기, 마감 품질)은 어땠나요?",
			"포장이나 패키지 디자인은 마음에 드셨나요?",
			"실제로 받아보신 외형이 사진과 비교해 어땠나요?",
		},
		store.SlotFit: {
			"본인의 피부 타입과 잘 맞았나요? (건성/지성/복합성/민감성 중)",
			"착용감이나 사이즈는 잘 맞았나요?",
			"피부에 자극이나 트러블은 없었나요?",
		},
		store.SlotUsability: {
			"사용법을 익히는 데 어려움은 없었나요?",
			"설명서나 레시피는 이해하기 쉬웠나요?",
			"보관하거나 사용하기에 편리했나요?",
		},
		store.SlotOther: {
			"마지막으로 다른 구매자에게 꼭 전하고 싶은 점이 있을까요?",
			"그 밖에 기억에 남는 경험이 있다면 알려주세요.",
			"혹시 더 이야기하고 싶은 점이 있으신가요?",
		},
	}
}

// firstUnused returns the first phrasing for slot not yet asked.
func (t Templates) firstUnused(slot store.Slot, asked []string) (string, bool) {
	for _, q := range t[slot] {
		if !wasAsked(asked, q) {
			return q, true
		}
	}
	return "", false
}

func wasAsked(asked []string, question string) bool {
	key := store.NormalizeText(question)
	if key == "" {
		return true
	}
	for _, q := range asked {
		if store.NormalizeText(q) == key {
			return true
		}
	}
	return false
}
