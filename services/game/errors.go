package game

import (
	"Nhauzo/services/store"
	"errors"
)

var (
	ErrValidation       = errors.New("invalid input")
	ErrNotAllowed       = errors.New("action not allowed for this player")
	ErrWrongPhase       = errors.New("action not allowed in the current phase")
	ErrAlreadySubmitted = errors.New("input already submitted")
	ErrSpinInProgress   = errors.New("a spin is already running")
	ErrUnknownPlayer    = errors.New("player is not in the room")
	ErrGateClosed       = errors.New("the duel has not started yet")
	ErrInvalidRoom      = errors.New("inconsistent room document")
	// ErrStale is returned for timer events whose token no longer matches
	// the document. Callers treat it as a no-op.
	ErrStale = errors.New("stale authority event")
)

// UserMessage returns the text shown to players for err
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, store.ErrRoomNotFound):
		return "Phòng không tồn tại"
	case errors.Is(err, ErrUnknownPlayer):
		return "Bạn không còn ở trong phòng"
	case errors.Is(err, ErrNotAllowed):
		return "Bạn không có quyền thực hiện thao tác này"
	case errors.Is(err, ErrWrongPhase):
		return "Không thể thực hiện lúc này"
	case errors.Is(err, ErrAlreadySubmitted):
		return "Bạn đã chọn rồi"
	case errors.Is(err, ErrSpinInProgress):
		return "Vòng quay đang quay"
	case errors.Is(err, ErrGateClosed):
		return "Chưa bắt đầu, đợi một chút!"
	case errors.Is(err, ErrValidation):
		return "Dữ liệu không hợp lệ"
	default:
		return "Có lỗi xảy ra, vui lòng thử lại"
	}
}
