// Package api provides the mailbox platform REST API.
//
//	@title						Mailhub API
//	@version					1.0
//	@description				Multi-tenant email account provisioning API
//	@BasePath					/api/v1
//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						X-API-Key
package api
