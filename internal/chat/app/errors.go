package app

import (
	"errors"
	"fmt"

	"studio_marketplace/internal/chat/domain"
	errprocess "studio_marketplace/pkg/err"
)

var errorCodes = []struct {
	err  error
	code errprocess.Code
}{
	{domain.ErrInvalidArgument, errprocess.CodeInvalidArgument},
	{domain.ErrNotFound, errprocess.CodeNotFound},
	{domain.ErrForbidden, errprocess.CodeForbidden},
	{domain.ErrWrongType, errprocess.CodeWrongType},
	{domain.ErrStaleState, errprocess.CodeStaleState},
	{domain.ErrStoreUnavailable, errprocess.CodeStoreUnavailable},
}

// toAppError map a use case error onto a client facing code
func toAppError(err error) *errprocess.AppError {
	if appErr, ok := errprocess.As(err); ok {
		return appErr
	}
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return errprocess.New(ec.code, err.Error(), err)
		}
	}
	return errprocess.New(errprocess.CodeInternal, "internal error", err)
}

func errUnknownAction(action string) error {
	return fmt.Errorf("%w: unknown action %q", domain.ErrInvalidArgument, action)
}
