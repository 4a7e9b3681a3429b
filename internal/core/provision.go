package core

import (
	"context"
	"fmt"

	temporalclient "go.temporal.io/sdk/client"
)

const taskQueue = "mailhub-tasks"

// Workflow names registered by the worker. Dispatch is by name so the
// API binary never imports workflow code.
const (
	WorkflowProvision      = "ProvisionEmailAccountWorkflow"
	WorkflowRemoteDelete   = "DeleteRemoteMailboxWorkflow"
	WorkflowPasswordChange = "ChangeMailboxPasswordWorkflow"
)

// workflowID builds a human-readable Temporal workflow ID from a resource
// type prefix and the resource's unique ID.
func workflowID(prefix, id string) string {
	return fmt.Sprintf("%s-%s", prefix, id)
}

// startWorkflow executes a Temporal workflow on the shared task queue.
// Deterministic IDs double as dedup: starting the same workflow while a
// previous run is still open fails instead of racing it.
func startWorkflow(ctx context.Context, tc temporalclient.Client, workflowName, wfID string, arg any) error {
	_, err := tc.ExecuteWorkflow(ctx, temporalclient.StartWorkflowOptions{
		ID:        wfID,
		TaskQueue: taskQueue,
	}, workflowName, arg)
	return err
}
