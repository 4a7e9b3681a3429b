package core

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	temporalmocks "go.temporal.io/sdk/mocks"

	"github.com/edvin/mailhub/internal/model"
	"github.com/edvin/mailhub/internal/tokenstore"
)

func membershipScan(m model.Membership) func(dest ...any) error {
	return func(dest ...any) error {
		*(dest[0].(*string)) = m.ID
		*(dest[1].(*string)) = m.CustomerID
		*(dest[2].(*string)) = m.PlanName
		*(dest[3].(*string)) = m.Status
		*(dest[4].(*time.Time)) = m.CreatedAt
		*(dest[5].(*time.Time)) = m.UpdatedAt
		return nil
	}
}

func testMembership(status string) model.Membership {
	now := time.Now().Truncate(time.Microsecond)
	return model.Membership{
		ID:         "mem-1",
		CustomerID: "cust-1",
		PlanName:   "business-plus",
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestMembershipService_Create(t *testing.T) {
	db := &mockDB{}
	svc := NewMembershipService(db, nil)
	ctx := context.Background()

	db.On("QueryRow", ctx, sqlContains("FROM customers"), mock.Anything).Return(boolRow(true))
	db.On("QueryRow", ctx, sqlContains("INSERT INTO memberships"), mock.Anything).Return(timestampsRow())

	m := &model.Membership{CustomerID: "cust-1", PlanName: "business-plus"}
	require.NoError(t, svc.Create(ctx, m))
	assert.NotEmpty(t, m.ID)
	assert.Equal(t, model.MembershipActive, m.Status)
	db.AssertExpectations(t)
}

func TestMembershipService_Create_CustomerMissing(t *testing.T) {
	db := &mockDB{}
	svc := NewMembershipService(db, nil)
	ctx := context.Background()

	db.On("QueryRow", ctx, sqlContains("FROM customers"), mock.Anything).Return(boolRow(false))

	err := svc.Create(ctx, &model.Membership{CustomerID: "cust-404", PlanName: "basic"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCustomerNotFound)
}

func TestMembershipService_GetByID_NotFound(t *testing.T) {
	db := &mockDB{}
	svc := NewMembershipService(db, nil)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(noRowsRow())

	_, err := svc.GetByID(ctx, "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMembershipNotFound)
}

func TestMembershipService_Cancel(t *testing.T) {
	db := &mockDB{}
	svc := NewMembershipService(db, nil)
	ctx := context.Background()

	db.On("QueryRow", ctx, sqlContains("UPDATE memberships"), mock.Anything).Return(&mockRow{scanFunc: membershipScan(testMembership(model.MembershipCanceled))})

	m, err := svc.Cancel(ctx, "mem-1")
	require.NoError(t, err)
	assert.Equal(t, model.MembershipCanceled, m.Status)
}

func TestMembershipService_Cancel_AlreadyCanceled(t *testing.T) {
	db := &mockDB{}
	svc := NewMembershipService(db, nil)
	ctx := context.Background()

	db.On("QueryRow", ctx, sqlContains("UPDATE memberships"), mock.Anything).Return(noRowsRow())
	db.On("QueryRow", ctx, sqlContains("FROM memberships WHERE id"), mock.Anything).Return(&mockRow{scanFunc: membershipScan(testMembership(model.MembershipCanceled))})

	_, err := svc.Cancel(ctx, "mem-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStatusConflict)
	assert.Contains(t, err.Error(), "already canceled")
}

func TestMembershipService_Delete_CascadesMailboxes(t *testing.T) {
	db := &mockDB{}
	tc := &temporalmocks.Client{}
	accounts := newTestAccountService(db, tc, tokenstore.NewMemory(""))
	svc := NewMembershipService(db, accounts)
	ctx := context.Background()

	db.On("QueryRow", ctx, sqlContains("FROM memberships"), mock.Anything).Return(&mockRow{scanFunc: membershipScan(testMembership(model.MembershipActive))})
	deleted := newMockRows(func(dest ...any) error {
		*(dest[0].(*string)) = "acct-1"
		*(dest[1].(*string)) = "info@example.com"
		*(dest[2].(*string)) = "purelymail"
		return nil
	})
	db.On("Query", ctx, sqlContains("DELETE FROM email_accounts WHERE membership_id"), mock.Anything).Return(deleted, nil)
	db.On("Exec", ctx, sqlContains("DELETE FROM memberships"), mock.Anything).Return(pgconn.NewCommandTag("DELETE 1"), nil)
	tc.On("ExecuteWorkflow", ctx, mock.Anything, WorkflowRemoteDelete, mock.Anything).Return(&temporalmocks.WorkflowRun{}, nil)

	require.NoError(t, svc.Delete(ctx, "mem-1"))
	db.AssertExpectations(t)
	tc.AssertExpectations(t)
}

func TestMembershipService_ListByCustomer(t *testing.T) {
	db := &mockDB{}
	svc := NewMembershipService(db, nil)
	ctx := context.Background()

	rows := newMockRows(membershipScan(testMembership(model.MembershipActive)))
	db.On("Query", ctx, sqlContains("WHERE customer_id"), []any{"cust-1", 11}).Return(rows, nil)

	memberships, hasMore, err := svc.ListByCustomer(ctx, "cust-1", 10, "")
	require.NoError(t, err)
	assert.Len(t, memberships, 1)
	assert.False(t, hasMore)
}
