package workflow

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/edvin/mailhub/internal/activity"
	"github.com/edvin/mailhub/internal/model"
)

// ChangeMailboxPasswordWorkflow applies an escrowed password to the
// mailbox backend. The account status is untouched; only the backend
// credential changes.
func ChangeMailboxPasswordWorkflow(ctx workflow.Context, job model.PasswordChangeJob) error {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:    3,
			InitialInterval:    1 * time.Second,
			MaximumInterval:    10 * time.Second,
			BackoffCoefficient: 2.0,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var account model.EmailAccount
	err := workflow.ExecuteActivity(ctx, "GetEmailAccountByID", job.AccountID).Get(ctx, &account)
	if err != nil {
		return err
	}

	// Single attempt: the escrow token is consumed on first read, so a
	// second attempt could never apply the same password again.
	remoteCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	})
	return workflow.ExecuteActivity(remoteCtx, "ChangeRemotePassword", activity.ChangeRemotePasswordParams{
		Account: account,
		Token:   job.Token,
	}).Get(ctx, nil)
}
