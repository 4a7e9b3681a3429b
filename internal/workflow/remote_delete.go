package workflow

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/edvin/mailhub/internal/model"
)

// DeleteRemoteMailboxWorkflow removes a mailbox from its backend after
// the local row is already gone. Deletion is idempotent on the backend
// side, so transient failures get a patient retry schedule; a workflow
// that still fails marks an orphaned remote mailbox for the operator.
func DeleteRemoteMailboxWorkflow(ctx workflow.Context, job model.RemoteDeleteJob) error {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:    5,
			InitialInterval:    5 * time.Second,
			MaximumInterval:    1 * time.Minute,
			BackoffCoefficient: 2.0,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	err := workflow.ExecuteActivity(ctx, "DeleteRemoteMailbox", job).Get(ctx, nil)
	if err != nil {
		workflow.GetLogger(ctx).Error("remote mailbox cleanup failed",
			"address", job.Address, "provider", job.Provider, "error", err)
		return err
	}
	return nil
}
