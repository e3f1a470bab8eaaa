package errors

import (
	stderrors "errors"
	"fmt"
)

// token 相关错误
var (
	ErrTokenGeneratorNotInitialized = stderrors.New("token generator is not initialized")
	ErrInvalidToken                 = stderrors.New("invalid token")
	ErrUserIDNotFound               = stderrors.New("user id not found in token")
)

// SkipMessageError 消费者返回该错误时直接 ack，不再重新入队
type SkipMessageError struct {
	Reason string
}

func (e *SkipMessageError) Error() string {
	return fmt.Sprintf("skip message: %s", e.Reason)
}
