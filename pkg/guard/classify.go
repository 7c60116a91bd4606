package guard

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Classify names the kind of transport failure for log lines. It has no
// effect on behaviour: every failure takes the guard Offline.
func Classify(err error) string {
	if err == nil {
		return "ok"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "cancelled"
	}
	if errors.Is(err, ErrNotAcknowledged) {
		return "rejected"
	}

	st, ok := status.FromError(err)
	if !ok {
		return "local"
	}
	switch st.Code() {
	case codes.Unavailable:
		return "unreachable"
	case codes.DeadlineExceeded:
		return "timeout"
	case codes.Canceled:
		return "cancelled"
	case codes.ResourceExhausted:
		return "message too large"
	case codes.Unimplemented:
		return "not a dashboard server"
	default:
		return st.Code().String()
	}
}
