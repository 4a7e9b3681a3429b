package model

// Jobs passed from the API process to the Temporal worker. The services
// dispatch workflows with these payloads and the workflow package declares
// matching parameters, so both sides agree on one wire shape.

// ProvisionJob drives the mailbox provisioning pipeline. Token is the
// one-time handle to the escrowed password; the password itself never
// rides through workflow history. An empty token makes the worker
// generate a fresh password instead.
type ProvisionJob struct {
	AccountID string `json:"account_id"`
	Token     string `json:"token"`
}

// RemoteDeleteJob asks the worker to remove a mailbox at the provider
// after the local row is already gone. The address and provider ID are
// all that survives the deletion.
type RemoteDeleteJob struct {
	Address  string `json:"address"`
	Provider string `json:"provider"`
}

// PasswordChangeJob carries a password rotation to the worker. The new
// password is escrowed under Token.
type PasswordChangeJob struct {
	AccountID string `json:"account_id"`
	Token     string `json:"token"`
}
