package dialogue

import (
	"errors"
	"fmt"

	"github.com/MikeSquared-Agency/coach/internal/inference"
)

var (
	ErrEmptyInput        = errors.New("message is empty")
	ErrMissingCredential = errors.New("credential is required")
	ErrBusy              = errors.New("a turn is already in progress")
)

// InferenceError reports a failed call to the inference backend. The turn
// that triggered it has been rolled back.
type InferenceError struct {
	Phase Phase
	Err   error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference failed during %s: %v", e.Phase, e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

// UserMessage renders err as a human-readable message for display.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyInput):
		return "メッセージを入力してください。"
	case errors.Is(err, ErrMissingCredential):
		return "Hugging Face APIトークンを入力してください。"
	case errors.Is(err, ErrBusy):
		return "前の応答を待っています。少し待ってから再度お試しください。"
	case errors.Is(err, inference.ErrUnauthorized):
		return "AIとの通信中にエラーが発生しました。\nAPIトークンが無効です。正しいトークンを入力してください。"
	case errors.Is(err, inference.ErrServiceUnavailable):
		return "AIとの通信中にエラーが発生しました。\nモデルが現在読み込み中です。少し待ってから再度お試しください。"
	default:
		return "AIとの通信中にエラーが発生しました。\nエラー詳細: " + err.Error()
	}
}
