package workflow

import (
	"go.temporal.io/sdk/workflow"

	"github.com/edvin/mailhub/internal/activity"
)

// setAccountFailed parks the account in failed with an error message.
// It returns any error but callers typically ignore it since the primary
// error is more important.
func setAccountFailed(ctx workflow.Context, accountID string, err error) error {
	return workflow.ExecuteActivity(ctx, "SetProvisioningFailed", activity.SetProvisioningFailedParams{
		AccountID: accountID,
		Reason:    err.Error(),
	}).Get(ctx, nil)
}
