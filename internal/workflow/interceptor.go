package workflow

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/interceptor"
	"go.temporal.io/sdk/temporal"
)

// NewErrorTypingInterceptor returns a worker interceptor that stamps
// failed activities with the activity name as the error type. The
// Temporal UI then shows "CreateRemoteMailbox" instead of a generic
// ApplicationError, which is what an operator scans for when a
// provisioning run goes red.
func NewErrorTypingInterceptor() interceptor.WorkerInterceptor {
	return &errorTypingInterceptor{}
}

type errorTypingInterceptor struct {
	interceptor.WorkerInterceptorBase
}

func (i *errorTypingInterceptor) InterceptActivity(
	ctx context.Context,
	next interceptor.ActivityInboundInterceptor,
) interceptor.ActivityInboundInterceptor {
	return &errorTypingActivityInbound{next: next}
}

type errorTypingActivityInbound struct {
	interceptor.ActivityInboundInterceptorBase
	next interceptor.ActivityInboundInterceptor
}

func (i *errorTypingActivityInbound) Init(outbound interceptor.ActivityOutboundInterceptor) error {
	return i.next.Init(outbound)
}

func (i *errorTypingActivityInbound) ExecuteActivity(
	ctx context.Context,
	in *interceptor.ExecuteActivityInput,
) (interface{}, error) {
	result, err := i.next.ExecuteActivity(ctx, in)
	if err == nil {
		return result, nil
	}

	// Keep errors that already carry a type.
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) && appErr.Type() != "" {
		return result, err
	}

	name := activity.GetInfo(ctx).ActivityType.Name
	return result, temporal.NewApplicationError(err.Error(), name, err)
}
