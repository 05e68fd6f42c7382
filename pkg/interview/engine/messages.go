package engine

import "fmt"

// User-facing copy.
const (
	msgReset          = "처음부터 다시 진행할게요. "
	msgFarewell       = "대화를 종료할게요. 언제든 다시 시작하실 수 있어요!"
	msgAlreadyDone    = "리뷰 작성이 이미 끝났어요. 새로 작성하시려면 '처음부터'라고 말씀해 주세요."
	msgNeedMore       = "리뷰를 쓰기에는 내용이 조금 부족해요. "
	msgFreeForm       = "이 상품에 대해 기억나는 점을 자유롭게 한두 문장으로 말씀해 주세요."
	msgDraftReady     = "말씀해 주신 내용으로 리뷰 초안을 만들었어요.\n\n"
	msgRevised        = "요청하신 대로 고쳐 봤어요.\n\n"
	msgConfirmPrompt  = "\n\n이대로 게시할까요, 아니면 수정할까요?"
	msgAskInstruction = "어떤 부분을 어떻게 고치면 좋을지 알려주세요. 예: '더 짧게', '가격 이야기는 빼 주세요'"
	msgReviseNoop     = "수정 내용을 반영하지 못했어요. 어떻게 고칠지 조금 더 구체적으로 알려주세요."
	msgNoDraft        = "아직 게시할 리뷰 초안이 없어요."
	msgSubmitFailed   = "게시에 실패했어요: "
	msgSubmitted      = "게시 완료! 참여해 주셔서 감사합니다."
)

func greeting(item string) string {
	if item == "" {
		return "리뷰 작성을 도와드릴게요. "
	}
	return fmt.Sprintf("%s 리뷰 작성을 도와드릴게요. ", item)
}
