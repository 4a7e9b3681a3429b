package workflow

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.temporal.io/sdk/testsuite"
)

// ---------- CleanupAuditLogsWorkflow ----------

type CleanupAuditLogsWorkflowTestSuite struct {
	suite.Suite
	testsuite.WorkflowTestSuite
	env *testsuite.TestWorkflowEnvironment
}

func (s *CleanupAuditLogsWorkflowTestSuite) SetupTest() {
	s.env = s.NewTestWorkflowEnvironment()
	registerActivities(s.env)
}

func (s *CleanupAuditLogsWorkflowTestSuite) AfterTest(suiteName, testName string) {
	s.env.AssertExpectations(s.T())
}

func (s *CleanupAuditLogsWorkflowTestSuite) TestSuccess() {
	s.env.OnActivity("DeleteOldAuditLogs", mock.Anything, 90).Return(int64(42), nil)

	s.env.ExecuteWorkflow(CleanupAuditLogsWorkflow, 90)
	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
}

func (s *CleanupAuditLogsWorkflowTestSuite) TestDeleteFails() {
	s.env.OnActivity("DeleteOldAuditLogs", mock.Anything, 90).Return(int64(0), fmt.Errorf("db error"))

	s.env.ExecuteWorkflow(CleanupAuditLogsWorkflow, 90)
	s.True(s.env.IsWorkflowCompleted())
	s.Error(s.env.GetWorkflowError())
}

func TestCleanupAuditLogsWorkflowTestSuite(t *testing.T) {
	suite.Run(t, new(CleanupAuditLogsWorkflowTestSuite))
}
