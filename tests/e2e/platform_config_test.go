package e2e

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlatformKillSwitch(t *testing.T) {
	domain := testDomain(t)
	customerID := createTestCustomer(t, "e2e-kill-switch")

	// Flip the platform-wide mailbox switch off.
	resp, body := httpPut(t, coreAPIURL+"/platform/config", map[string]interface{}{
		"email_accounts_enabled": "false",
	})
	require.Equal(t, 200, resp.StatusCode, "set config: %s", body)
	t.Cleanup(func() {
		httpPut(t, coreAPIURL+"/platform/config", map[string]interface{}{
			"email_accounts_enabled": "true",
		})
	})

	// Creation is refused while the switch is off.
	resp, body = httpPost(t, fmt.Sprintf("%s/customers/%s/email-accounts", coreAPIURL, customerID), map[string]interface{}{
		"address":       "killswitch@" + domain,
		"provider":      testProvider(),
		"purchase_type": "per_account_purchase",
		"payment_id":    "pay_e2e_0002",
	})
	require.Equal(t, 422, resp.StatusCode, "create should be disabled: %s", body)

	// Reads keep working.
	resp, body = httpGet(t, fmt.Sprintf("%s/customers/%s", coreAPIURL, customerID))
	require.Equal(t, 200, resp.StatusCode, body)

	// Switch back on; creation flows again.
	resp, body = httpPut(t, coreAPIURL+"/platform/config", map[string]interface{}{
		"email_accounts_enabled": "true",
	})
	require.Equal(t, 200, resp.StatusCode, "restore config: %s", body)

	resp, body = httpPost(t, fmt.Sprintf("%s/customers/%s/email-accounts", coreAPIURL, customerID), map[string]interface{}{
		"address":       "killswitch@" + domain,
		"provider":      testProvider(),
		"purchase_type": "per_account_purchase",
		"payment_id":    "pay_e2e_0002",
	})
	require.Equal(t, 202, resp.StatusCode, "create after re-enable: %s", body)
	acctID, _ := parseJSON(t, body)["id"].(string)
	waitForStatus(t, coreAPIURL+"/email-accounts/"+acctID, "active", provisionTimeout)
}
