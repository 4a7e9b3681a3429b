package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	temporalmocks "go.temporal.io/sdk/mocks"

	"github.com/edvin/mailhub/internal/core"
	"github.com/edvin/mailhub/internal/events"
	"github.com/edvin/mailhub/internal/model"
	"github.com/edvin/mailhub/internal/tokenstore"
)

func newEmailAccountHandler() *EmailAccount {
	return NewEmailAccount(nil, nil)
}

// --- Create ---

func TestEmailAccountCreate_InvalidJSON(t *testing.T) {
	h := newEmailAccountHandler()
	rec := httptest.NewRecorder()
	r := newRequestRaw(http.MethodPost, "/customers/"+validID+"/email-accounts", "{bad json")
	r = withChiURLParam(r, "customerID", validID)

	h.Create(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "invalid JSON")
}

func TestEmailAccountCreate_EmptyCustomerID(t *testing.T) {
	h := newEmailAccountHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/customers//email-accounts", map[string]any{
		"address": "sales@example.com",
	})
	r = withChiURLParam(r, "customerID", "")

	h.Create(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "missing required ID")
}

func TestEmailAccountCreate_MissingAddress(t *testing.T) {
	h := newEmailAccountHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/customers/"+validID+"/email-accounts", map[string]any{
		"membership_id": validID2,
	})
	r = withChiURLParam(r, "customerID", validID)

	h.Create(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "validation error")
}

func TestEmailAccountCreate_InvalidAddress(t *testing.T) {
	tests := []struct {
		name    string
		address string
	}{
		{"no at sign", "salesexample.com"},
		{"no domain", "sales@"},
		{"spaces", "sales me@example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newEmailAccountHandler()
			rec := httptest.NewRecorder()
			r := newRequest(http.MethodPost, "/customers/"+validID+"/email-accounts", map[string]any{
				"address": tt.address,
			})
			r = withChiURLParam(r, "customerID", validID)

			h.Create(rec, r)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decodeErrorResponse(rec)
			assert.Contains(t, body["error"], "validation error")
		})
	}
}

func TestEmailAccountCreate_InvalidProviderSlug(t *testing.T) {
	tests := []struct {
		name string
		slug string
	}{
		{"uppercase", "PurelyMail"},
		{"spaces", "purely mail"},
		{"starts with digit", "1mail"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newEmailAccountHandler()
			rec := httptest.NewRecorder()
			r := newRequest(http.MethodPost, "/customers/"+validID+"/email-accounts", map[string]any{
				"address":  "sales@example.com",
				"provider": tt.slug,
			})
			r = withChiURLParam(r, "customerID", validID)

			h.Create(rec, r)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decodeErrorResponse(rec)
			assert.Contains(t, body["error"], "validation error")
		})
	}
}

func TestEmailAccountCreate_InvalidPurchaseType(t *testing.T) {
	h := newEmailAccountHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/customers/"+validID+"/email-accounts", map[string]any{
		"address":       "sales@example.com",
		"purchase_type": "free-tier",
	})
	r = withChiURLParam(r, "customerID", validID)

	h.Create(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "validation error")
}

func TestEmailAccountCreate_ShortPassword(t *testing.T) {
	h := newEmailAccountHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/customers/"+validID+"/email-accounts", map[string]any{
		"address":  "sales@example.com",
		"password": "short",
	})
	r = withChiURLParam(r, "customerID", validID)

	h.Create(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "validation error")
}

func TestEmailAccountCreate_NegativeQuota(t *testing.T) {
	h := newEmailAccountHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/customers/"+validID+"/email-accounts", map[string]any{
		"address":  "sales@example.com",
		"quota_mb": -100,
	})
	r = withChiURLParam(r, "customerID", validID)

	h.Create(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "validation error")
}

func TestEmailAccountCreate_MinimalBodyParsing(t *testing.T) {
	// Address alone is a valid request. It fails at the nil service, not
	// at validation.
	h := newEmailAccountHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/customers/"+validID+"/email-accounts", map[string]any{
		"address": "sales@example.com",
	})
	r = withChiURLParam(r, "customerID", validID)

	func() {
		defer func() { recover() }()
		h.Create(rec, r)
	}()

	assert.NotEqual(t, http.StatusBadRequest, rec.Code)
}

func TestEmailAccountCreate_FullBodyParsing(t *testing.T) {
	h := newEmailAccountHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/customers/"+validID+"/email-accounts", map[string]any{
		"address":       "sales@example.com",
		"membership_id": validID2,
		"site_id":       "site-9",
		"provider":      "purelymail",
		"quota_mb":      2048,
		"purchase_type": "per_account_purchase",
		"payment_id":    "pay_123",
		"password":      "correct-horse-battery",
	})
	r = withChiURLParam(r, "customerID", validID)

	func() {
		defer func() { recover() }()
		h.Create(rec, r)
	}()

	assert.NotEqual(t, http.StatusBadRequest, rec.Code)
}

// --- ListByCustomer ---

func TestEmailAccountListByCustomer_EmptyCustomerID(t *testing.T) {
	h := newEmailAccountHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodGet, "/customers//email-accounts", nil)
	r = withChiURLParam(r, "customerID", "")

	h.ListByCustomer(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- Get / Delete ---

func TestEmailAccountGet_EmptyID(t *testing.T) {
	h := newEmailAccountHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodGet, "/email-accounts/", nil)
	r = withChiURLParam(r, "id", "")

	h.Get(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "missing required ID")
}

func TestEmailAccountDelete_EmptyID(t *testing.T) {
	h := newEmailAccountHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodDelete, "/email-accounts/", nil)
	r = withChiURLParam(r, "id", "")

	h.Delete(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- Suspend / Reactivate / Retry ---

func TestEmailAccountSuspend_EmptyID(t *testing.T) {
	h := newEmailAccountHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/email-accounts//suspend", nil)
	r = withChiURLParam(r, "id", "")

	h.Suspend(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEmailAccountSuspend_NoBodyPassesValidation(t *testing.T) {
	// The reason body is optional. An empty request reaches the service.
	h := newEmailAccountHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/email-accounts/"+validID+"/suspend", nil)
	r = withChiURLParam(r, "id", validID)

	func() {
		defer func() { recover() }()
		h.Suspend(rec, r)
	}()

	assert.NotEqual(t, http.StatusBadRequest, rec.Code)
}

func TestEmailAccountSuspend_ReasonTooLong(t *testing.T) {
	h := newEmailAccountHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/email-accounts/"+validID+"/suspend", map[string]any{
		"reason": strings.Repeat("x", 501),
	})
	r = withChiURLParam(r, "id", validID)

	h.Suspend(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "validation error")
}

func TestEmailAccountReactivate_EmptyID(t *testing.T) {
	h := newEmailAccountHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/email-accounts//reactivate", nil)
	r = withChiURLParam(r, "id", "")

	h.Reactivate(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEmailAccountRetry_EmptyID(t *testing.T) {
	h := newEmailAccountHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/email-accounts//retry", nil)
	r = withChiURLParam(r, "id", "")

	h.Retry(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- ChangePassword / RevealPassword ---

func TestEmailAccountChangePassword_EmptyID(t *testing.T) {
	h := newEmailAccountHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/email-accounts//password", nil)
	r = withChiURLParam(r, "id", "")

	h.ChangePassword(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEmailAccountChangePassword_ShortPassword(t *testing.T) {
	h := newEmailAccountHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/email-accounts/"+validID+"/password", map[string]any{
		"password": "short",
	})
	r = withChiURLParam(r, "id", validID)

	h.ChangePassword(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "validation error")
}

func TestEmailAccountChangePassword_NoBodyPassesValidation(t *testing.T) {
	// Omitting the password asks the platform to generate one.
	h := newEmailAccountHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/email-accounts/"+validID+"/password", nil)
	r = withChiURLParam(r, "id", validID)

	func() {
		defer func() { recover() }()
		h.ChangePassword(rec, r)
	}()

	assert.NotEqual(t, http.StatusBadRequest, rec.Code)
}

func TestEmailAccountRevealPassword_EmptyID(t *testing.T) {
	h := newEmailAccountHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/email-accounts//password/reveal", map[string]any{
		"token": "tok",
	})
	r = withChiURLParam(r, "id", "")

	h.RevealPassword(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEmailAccountRevealPassword_MissingToken(t *testing.T) {
	h := newEmailAccountHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/email-accounts/"+validID+"/password/reveal", map[string]any{})
	r = withChiURLParam(r, "id", validID)

	h.RevealPassword(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "validation error")
}

func TestEmailAccountRevealPassword_InvalidJSON(t *testing.T) {
	h := newEmailAccountHandler()
	rec := httptest.NewRecorder()
	r := newRequestRaw(http.MethodPost, "/email-accounts/"+validID+"/password/reveal", "{bad")
	r = withChiURLParam(r, "id", validID)

	h.RevealPassword(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "invalid JSON")
}

// --- ConnectionSettings / Usage ---

func TestEmailAccountConnectionSettings_EmptyID(t *testing.T) {
	h := newEmailAccountHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodGet, "/email-accounts//connection-settings", nil)
	r = withChiURLParam(r, "id", "")

	h.ConnectionSettings(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEmailAccountUsage_EmptyID(t *testing.T) {
	h := newEmailAccountHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodGet, "/email-accounts//usage", nil)
	r = withChiURLParam(r, "id", "")

	h.Usage(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- Full path over a mocked database ---

func newEmailAccountService(t *testing.T, db core.DB, tc *temporalmocks.Client) *core.EmailAccountService {
	t.Helper()
	reg := newProviderRegistry(t, &stubAdapter{id: "stub", enabled: true, configured: true})
	bus := events.NewBus(zerolog.Nop())
	tokens := tokenstore.NewMemory("test-secret")
	return core.NewEmailAccountService(db, tc, reg, tokens, bus, zerolog.Nop(), "stub", time.Minute)
}

// scanAccountRow writes a full email account row in column order.
func scanAccountRow(id, customerID, address, status string) func(dest ...any) error {
	now := time.Now()
	domain := address[strings.Index(address, "@")+1:]
	return func(dest ...any) error {
		*(dest[0].(*string)) = id          // ID
		*(dest[1].(*string)) = customerID  // CustomerID
		*(dest[2].(**string)) = nil        // MembershipID
		*(dest[3].(**string)) = nil        // SiteID
		*(dest[4].(*string)) = address     // Address
		*(dest[5].(*string)) = domain      // Domain
		*(dest[6].(*string)) = "stub"      // Provider
		*(dest[7].(**string)) = nil        // ExternalID
		*(dest[8].(*int64)) = int64(1024)  // QuotaMB
		*(dest[9].(*string)) = model.PurchasePerAccount
		*(dest[10].(**string)) = nil       // PaymentID
		*(dest[11].(*string)) = status     // Status
		*(dest[12].(**string)) = nil       // StatusMessage
		*(dest[13].(*time.Time)) = now     // CreatedAt
		*(dest[14].(*time.Time)) = now     // UpdatedAt
		return nil
	}
}

func TestEmailAccountGet_Success(t *testing.T) {
	db := &handlerMockDB{}
	tc := &temporalmocks.Client{}
	h := NewEmailAccount(newEmailAccountService(t, db, tc), nil)

	row := &handlerMockRow{scanFunc: scanAccountRow(validID, validID2, "sales@example.com", model.StatusActive)}
	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(row).Once()

	rec := httptest.NewRecorder()
	r := newRequest(http.MethodGet, "/email-accounts/"+validID, nil)
	r = withChiURLParam(r, "id", validID)

	h.Get(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "sales@example.com", body["address"])
	assert.Equal(t, model.StatusActive, body["status"])
	db.AssertExpectations(t)
}

func TestEmailAccountGet_NotFound(t *testing.T) {
	db := &handlerMockDB{}
	tc := &temporalmocks.Client{}
	h := NewEmailAccount(newEmailAccountService(t, db, tc), nil)

	row := &handlerMockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(row).Once()

	rec := httptest.NewRecorder()
	r := newRequest(http.MethodGet, "/email-accounts/"+validID, nil)
	r = withChiURLParam(r, "id", validID)

	h.Get(rec, r)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEmailAccountSuspend_Success(t *testing.T) {
	db := &handlerMockDB{}
	tc := &temporalmocks.Client{}
	h := NewEmailAccount(newEmailAccountService(t, db, tc), nil)

	// Compare-and-set UPDATE returns the suspended row.
	row := &handlerMockRow{scanFunc: scanAccountRow(validID, validID2, "sales@example.com", model.StatusSuspended)}
	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(row).Once()

	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/email-accounts/"+validID+"/suspend", map[string]any{
		"reason": "payment overdue",
	})
	r = withChiURLParam(r, "id", validID)

	h.Suspend(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, model.StatusSuspended, body["status"])
	db.AssertExpectations(t)
}

func TestEmailAccountCreate_Accepted(t *testing.T) {
	db := &handlerMockDB{}
	tc := &temporalmocks.Client{}
	h := NewEmailAccount(newEmailAccountService(t, db, tc), nil)

	// Feature flag lookup: no row means enabled.
	flagRow := &handlerMockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(flagRow).Once()

	// Customer exists.
	existsRow := &handlerMockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*bool)) = true
		return nil
	}}
	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(existsRow).Once()

	// Address not taken.
	takenRow := &handlerMockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*bool)) = false
		return nil
	}}
	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(takenRow).Once()

	// INSERT returning timestamps.
	insertRow := &handlerMockRow{scanFunc: func(dest ...any) error {
		now := time.Now()
		*(dest[0].(*time.Time)) = now
		*(dest[1].(*time.Time)) = now
		return nil
	}}
	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(insertRow).Once()

	wfRun := &temporalmocks.WorkflowRun{}
	tc.On("ExecuteWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(wfRun, nil).Once()

	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/customers/"+validID2+"/email-accounts", map[string]any{
		"address":       "sales@example.com",
		"provider":      "stub",
		"purchase_type": "per_account_purchase",
		"payment_id":    "pay_123",
		"password":      "correct-horse-battery",
	})
	r = withChiURLParam(r, "customerID", validID2)

	h.Create(rec, r)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "sales@example.com", body["address"])
	assert.Equal(t, model.StatusPending, body["status"])
	db.AssertExpectations(t)
	tc.AssertExpectations(t)
}

func TestEmailAccountCreate_DuplicateAddress(t *testing.T) {
	db := &handlerMockDB{}
	tc := &temporalmocks.Client{}
	h := NewEmailAccount(newEmailAccountService(t, db, tc), nil)

	flagRow := &handlerMockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(flagRow).Once()

	existsRow := &handlerMockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*bool)) = true
		return nil
	}}
	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(existsRow).Once()

	takenRow := &handlerMockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*bool)) = true
		return nil
	}}
	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(takenRow).Once()

	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/customers/"+validID2+"/email-accounts", map[string]any{
		"address":       "sales@example.com",
		"provider":      "stub",
		"purchase_type": "per_account_purchase",
	})
	r = withChiURLParam(r, "customerID", validID2)

	h.Create(rec, r)

	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "sales@example.com")
}
