// Package lexicon holds the keyword tables the interview uses for intent
// detection and cheap answer screening. Tables are plain data so they can be
// swapped per locale or domain without touching the state machine.
package lexicon

import (
	"strings"
	"unicode"

	"ai-review-be/pkg/store"
)

type Intent string

const (
	IntentNone        Intent = ""
	IntentReset       Intent = "RESET"
	IntentExit        Intent = "EXIT"
	IntentFrustration Intent = "FRUSTRATION"
)

// IntentRule fires when the normalized text equals one of Exact or contains
// one of Contains. Contains entries should be imperative forms so an answer
// that merely mentions a keyword does not trigger the intent.
type IntentRule struct {
	Intent   Intent
	Exact    []string
	Contains []string
}

// TopicRule accepts an answer when the question carries one of QuestionCues
// and the answer carries one of AnswerKeys.
type TopicRule struct {
	Slot         store.Slot
	QuestionCues []string
	AnswerKeys   []string
}

type Lexicon struct {
	Intents []IntentRule
	Fillers map[string]bool
	Vague   map[string]bool
	Topics  []TopicRule
	// CONFIRM stage replies. AcceptPhrases are whole utterances compared with
	// spaces and punctuation removed. Text carrying an EditMarker is never an
	// acceptance.
	AcceptExact   map[string]bool
	AcceptPhrases map[string]bool
	EditMarkers   []string
	DeclineExact  map[string]bool
}

func set(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// Default returns the Korean/English tables used in production.
func Default() *Lexicon {
	return &Lexicon{
		Intents: []IntentRule{
			{
				Intent:   IntentReset,
				Exact: []string{
					"처음", "처음부터", "처음부터 다시", "리셋", "다시 시작", "새로 시작", "reset", "restart",
				},
				Contains: []string{
					"처음부터 다시 할", "처음부터 다시 해", "처음부터 다시 시작", "처음부터 할게", "처음부터 해 주세요", "처음부터 해주세요",
					"다시 시작할게", "다시 시작해 주세요", "다시 시작해주세요", "다시 시작하고 싶",
					"새로 시작할게", "새로 시작해 주세요", "새로 시작해주세요", "새로 시작하고 싶",
				},
			},
			{
				Intent:   IntentExit,
				Exact:    []string{"그만", "끝", "종료", "exit", "quit"},
				Contains: []string{"그만할게", "그만 할게", "그만하고 싶", "종료할게", "종료해"},
			},
			{
				Intent:   IntentFrustration,
				Contains: []string{"이미 말", "아까 말", "말했잖", "말했는데", "같은 질문", "또 물어", "already answered", "already said", "same question"},
			},
		},
		Fillers: set(
			"모르겠어요", "모르겠어", "모르겠음", "몰라요", "몰라", "글쎄", "글쎄요",
			"음", "음음", "흠", "어", "엥", "ㅋㅋ", "ㅎㅎ", "ㅇㅇ", "ㄴㄴ", "ㅇㅋ",
			"패스", "다음", "넘어가", "넘어가요", "스킵", "그냥", "그냥요", "없어요", "없음",
			"idk", "pass", "skip", "next", "dunno", "no idea", "hmm", "lol", "haha", "hehe", "lmao",
		),
		Vague: set(
			"좋아요", "좋았어요", "괜찮아요", "괜찮았어요", "그냥 그래요", "그저 그래요",
			"보통", "보통이에요", "나쁘지 않아요", "무난해요", "괜찮음", "좋음", "만족", "so so", "fine", "good", "ok",
		),
		Topics: []TopicRule{
			{
				Slot:         store.SlotReason,
				QuestionCues: []string{"구매 결정", "결정", "요인", "계기", "중요하게", "중요한 점", "구매하신 이유"},
				AnswerKeys:   []string{"떨어졌", "소진", "필요", "세일", "할인", "브랜드", "리뷰", "재구매", "가격", "가성비", "품질", "추천", "선물", "고장", "바꾸"},
			},
			{
				Slot:         store.SlotPros,
				QuestionCues: []string{"좋았", "장점", "만족스러"},
				AnswerKeys:   []string{"좋았", "만족", "가성비", "편리", "편했", "빠르", "예쁘", "튼튼", "부드럽", "잘 닦", "향이 좋", "추천", "깔끔", "선명", "가볍"},
			},
			{
				Slot:         store.SlotCons,
				QuestionCues: []string{"아쉬", "단점", "불편", "불만"},
				AnswerKeys: []string{
					"아쉬", "불편", "느리", "약하", "무겁", "세지", "잘 안", "비쌈", "비싸", "끈적", "자극", "트러블", "끊",
					"작아", "작았", "작은", "작네", "커서", "커요", "컸", "없어", "없었", "없네", "없는", "새요", "새서", "새는", "샜",
				},
			},
			{
				Slot:         store.SlotPrice,
				QuestionCues: []string{"가격", "가성비", "비용", "요금"},
				AnswerKeys:   []string{"가격", "비싸", "비쌈", "저렴", "싸", "적당", "합리", "가성비", "할인", "원", "만원"},
			},
			{
				Slot:         store.SlotRecommend,
				QuestionCues: []string{"추천", "재구매", "지인"},
				AnswerKeys:   []string{"추천", "재구매", "의향", "할 것", "할거", "할게", "안 할", "안할", "지인", "친구", "가족", "사고 싶"},
			},
			{
				Slot:         store.SlotDurability,
				QuestionCues: []string{"내구", "튼튼", "오래"},
				AnswerKeys:   []string{"튼튼", "견고", "약하", "부서", "고장", "멀쩡", "오래", "흠집", "긁", "벗겨"},
			},
			{
				Slot:         store.SlotSound,
				QuestionCues: []string{"음질", "소리", "사운드"},
				AnswerKeys:   []string{"음질", "소리", "사운드", "베이스", "저음", "고음", "노이즈", "선명", "깨끗", "울림"},
			},
			{
				Slot:         store.SlotBattery,
				QuestionCues: []string{"배터리", "충전"},
				AnswerKeys:   []string{"배터리", "충전", "시간", "하루", "금방", "오래"},
			},
			{
				Slot:         store.SlotConnectivity,
				QuestionCues: []string{"연결", "블루투스", "페어링"},
				AnswerKeys:   []string{"연결", "끊", "블루투스", "페어링", "안정", "딜레이", "지연"},
			},
			{
				Slot:         store.SlotDesign,
				QuestionCues: []string{"디자인", "외형", "패키지", "용기", "포장"},
				AnswerKeys:   []string{"디자인", "예쁘", "색", "크기", "마감", "고급", "심플", "귀엽", "깔끔", "패키지", "포장", "펌프", "튜브"},
			},
			{
				Slot:         store.SlotFit,
				QuestionCues: []string{"피부", "착용", "사이즈", "잘 맞"},
				AnswerKeys:   []string{"건성", "지성", "복합", "민감", "맞", "착용", "편하", "자극", "트러블", "사이즈", "핏"},
			},
			{
				Slot:         store.SlotUsability,
				QuestionCues: []string{"사용법", "사용하기", "레시피", "보관", "익히", "설명서"},
				AnswerKeys:   []string{"쉽", "어렵", "편리", "편해", "간단", "복잡", "직관", "보관", "냉장", "냉동", "헷갈"},
			},
		},
		AcceptExact: set("네", "예", "응", "넵", "넹", "ㅇㅇ", "좋아요", "좋아", "ok", "okay", "yes", "y"),
		AcceptPhrases: set(
			"네좋아요", "좋습니다", "네좋습니다", "괜찮아요", "네괜찮아요",
			"그대로", "그대로요", "이대로", "이대로요", "그대로해주세요", "이대로해주세요",
			"게시", "게시해주세요", "게시해줘", "게시할게요", "네게시해주세요",
			"그대로게시", "그대로게시해주세요", "그대로게시해줘", "그대로게시할게요", "이대로게시해주세요", "네그대로게시해주세요",
			"등록", "등록해주세요", "등록해줘", "등록할게요", "네등록해주세요",
			"그대로등록", "그대로등록해주세요", "그대로등록해줘", "이대로등록해주세요",
			"올려주세요", "올려줘", "그대로올려주세요", "그대로올려줘", "이대로올려주세요",
			"제출", "제출해주세요", "제출할게요", "그대로제출해주세요",
			"확정", "확정해주세요", "확정할게요",
		),
		EditMarkers:  []string{"빼", "짧게", "길게", "줄여", "늘려", "고쳐", "바꿔", "수정", "추가", "넣어", "지워", "삭제", "두고", "말고", "대신", "전에"},
		DeclineExact: set("아니오", "아니요", "아니", "아뇨", "no", "nope", "n", "수정", "수정할게요", "수정할래요", "수정해주세요", "수정해 주세요", "고칠래요"),
	}
}

// Normalize lowercases, collapses whitespace and trims trailing punctuation.
func Normalize(s string) string {
	s = store.NormalizeText(s)
	return strings.TrimRightFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsSpace(r)
	})
}

// DetectIntent returns the first matching global intent.
func (l *Lexicon) DetectIntent(text string) Intent {
	t := Normalize(text)
	if t == "" {
		return IntentNone
	}
	for _, rule := range l.Intents {
		for _, e := range rule.Exact {
			if t == e {
				return rule.Intent
			}
		}
		for _, c := range rule.Contains {
			if strings.Contains(t, c) {
				return rule.Intent
			}
		}
	}
	return IntentNone
}

// IsFiller reports answers carrying no information at all: empty text, the
// closed filler set, bare jamo or laughter, punctuation only.
func (l *Lexicon) IsFiller(answer string) bool {
	t := Normalize(answer)
	if t == "" || l.Fillers[t] {
		return true
	}
	return onlyNoise(t)
}

// IsGeneric is looser than IsFiller: short, vague or filler-only turns that
// say nothing specific about the product.
func (l *Lexicon) IsGeneric(answer string) bool {
	if l.IsFiller(answer) {
		return true
	}
	t := Normalize(answer)
	if l.Vague[t] {
		return true
	}
	return meaningfulRunes(t) <= 1
}

// MatchTopic reports whether the answer hits the lexicon of a topic the
// question is about.
func (l *Lexicon) MatchTopic(question, answer string) (store.Slot, bool) {
	q := strings.ToLower(question)
	a := strings.ToLower(answer)
	for _, rule := range l.Topics {
		if !containsAny(q, rule.QuestionCues) {
			continue
		}
		if containsAny(a, rule.AnswerKeys) {
			return rule.Slot, true
		}
	}
	return "", false
}

// QuestionSlot guesses the slot a free-form question targets.
func (l *Lexicon) QuestionSlot(question string) (store.Slot, bool) {
	q := strings.ToLower(question)
	for _, rule := range l.Topics {
		if containsAny(q, rule.QuestionCues) {
			return rule.Slot, true
		}
	}
	return "", false
}

// IsAccept reports a short standalone agreement to post the draft as is.
// Anything longer is treated as an edit instruction by the caller.
func (l *Lexicon) IsAccept(text string) bool {
	t := Normalize(text)
	if t == "" || l.DeclineExact[t] || containsAny(t, l.EditMarkers) {
		return false
	}
	return l.AcceptExact[t] || l.AcceptPhrases[compact(t)]
}

func (l *Lexicon) IsDecline(text string) bool {
	return l.DeclineExact[Normalize(text)]
}

func containsAny(s string, keys []string) bool {
	for _, k := range keys {
		if k != "" && strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// compact drops spaces, punctuation and symbols.
func compact(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return -1
		}
		return r
	}, s)
}

// laughSyllables are the syllables repeated in typed laughter (크크, 하하, 히히).
var laughSyllables = map[rune]bool{
	'크': true, '킄': true, '키': true, '캬': true, '하': true, '히': true,
	'호': true, '흐': true, '헤': true, '푸': true,
}

// isLaughter reports text made only of repeated laughter syllables or jamo.
func isLaughter(s string) bool {
	n := 0
	for _, r := range compact(s) {
		if !laughSyllables[r] && !isJamo(r) {
			return false
		}
		n++
	}
	return n >= 2
}

func onlyNoise(s string) bool {
	if isLaughter(s) {
		return true
	}
	for _, r := range s {
		switch {
		case unicode.IsSpace(r), unicode.IsPunct(r), unicode.IsSymbol(r):
		case isJamo(r):
		default:
			return false
		}
	}
	return true
}

func meaningfulRunes(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

// isJamo covers standalone compatibility jamo such as ㅋ, ㅎ, ㅠ.
func isJamo(r rune) bool {
	return r >= 0x3131 && r <= 0x318E
}
