package workflow

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/edvin/mailhub/internal/activity"
	"github.com/edvin/mailhub/internal/model"
)

// ProvisionEmailAccountWorkflow drives an email account from pending to
// active: claim the row, create the mailbox on the backend, record the
// result. A rerun against an already active account is a no-op, and a
// backend failure parks the account in failed for a later retry.
func ProvisionEmailAccountWorkflow(ctx workflow.Context, job model.ProvisionJob) error {
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

	// Claim the account for this run.
	var claim activity.BeginProvisioningResult
	err := workflow.ExecuteActivity(ctx, "BeginProvisioning", job.AccountID).Get(ctx, &claim)
	if err != nil {
		return err
	}
	if claim.AlreadyDone {
		return nil
	}

	// Create the mailbox on the backend. Single attempt: a remote
	// failure parks the account in failed and an operator re-enqueues.
	// A re-enqueue is safe, a spent escrow token makes the activity
	// generate a fresh password and an already existing mailbox gets its
	// password realigned.
	remoteCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	})
	var created activity.CreateRemoteMailboxResult
	err = workflow.ExecuteActivity(remoteCtx, "CreateRemoteMailbox", activity.CreateRemoteMailboxParams{
		Account: claim.Account,
		Token:   job.Token,
	}).Get(ctx, &created)
	if err != nil {
		_ = setAccountFailed(ctx, job.AccountID, err)
		return err
	}

	// Record the mailbox and announce the account as active. Parking
	// the account on failure keeps it retryable; a rerun realigns the
	// mailbox that now exists remotely.
	err = workflow.ExecuteActivity(ctx, "SetProvisioned", activity.SetProvisionedParams{
		AccountID:    job.AccountID,
		ExternalID:   created.ExternalID,
		DisplayToken: created.DisplayToken,
	}).Get(ctx, nil)
	if err != nil {
		_ = setAccountFailed(ctx, job.AccountID, err)
		return err
	}
	return nil
}
