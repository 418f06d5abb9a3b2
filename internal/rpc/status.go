package rpc

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/chirper/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// wireErrors lists every sentinel that crosses the wire. The status message
// is the sentinel's text, which is how the client recovers the sentinel.
var wireErrors = []struct {
	err  error
	code codes.Code
}{
	{common.ErrEmailInUse, codes.AlreadyExists},
	{common.ErrAlreadyExists, codes.AlreadyExists},
	{common.ErrIdentityNotFound, codes.NotFound},
	{common.ErrNotFound, codes.NotFound},
	{common.ErrPermissionDenied, codes.PermissionDenied},
	{common.ErrInvalidQuery, codes.InvalidArgument},
	{common.ErrWeakPassword, codes.InvalidArgument},
	{common.ErrInvalidEmail, codes.InvalidArgument},
	{common.ErrWrongCredential, codes.Unauthenticated},
	{common.ErrTokenExpired, codes.Unauthenticated},
	{common.ErrInvalidToken, codes.Unauthenticated},
	{common.ErrUnauthenticated, codes.Unauthenticated},
}

// ToStatus converts a service error into a gRPC status error. Unknown errors
// become Internal without leaking their text.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	for _, we := range wireErrors {
		if errors.Is(err, we.err) {
			return status.Error(we.code, we.err.Error())
		}
	}
	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	return status.Error(codes.Internal, common.ErrInternal.Error())
}

// FromStatus maps a gRPC status error back to a sentinel. Unmapped statuses
// keep their raw message.
func FromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	for _, we := range wireErrors {
		if st.Code() == we.code && st.Message() == we.err.Error() {
			return we.err
		}
	}
	switch st.Code() {
	case codes.Unavailable:
		return fmt.Errorf("%w: %s", common.ErrUnavailable, st.Message())
	case codes.Canceled:
		return context.Canceled
	case codes.DeadlineExceeded:
		return context.DeadlineExceeded
	case codes.Internal:
		if st.Message() == common.ErrInternal.Error() {
			return common.ErrInternal
		}
	}
	return errors.New(st.Message())
}
