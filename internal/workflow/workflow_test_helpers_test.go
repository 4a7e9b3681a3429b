package workflow

import (
	"github.com/stretchr/testify/mock"
	"go.temporal.io/sdk/testsuite"

	"github.com/edvin/mailhub/internal/activity"
)

// registerActivities registers activity structs with the test workflow
// environment so that parameter and return types can be deserialized correctly
// by the Temporal test framework. In unit tests, all activities are mocked via
// OnActivity, but the framework still needs the type information for proper
// serialization/deserialization of activity parameters and return values.
func registerActivities(env *testsuite.TestWorkflowEnvironment) {
	env.RegisterActivity(&activity.AccountDB{})
	env.RegisterActivity(&activity.Provision{})
}

// matchFailedReason returns a mock.MatchedBy matcher for
// SetProvisioningFailedParams that checks the account ID and that a
// reason is present. The exact message includes Temporal activity error
// wrapping that is not predictable in tests.
func matchFailedReason(accountID string) interface{} {
	return mock.MatchedBy(func(params activity.SetProvisioningFailedParams) bool {
		return params.AccountID == accountID && params.Reason != ""
	})
}
