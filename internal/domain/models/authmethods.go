// internal/domain/models/authmethods.go
package models

// Account providers. EMAIL accounts use the email address as provider id.
// Other providers are stored as opaque upper-case strings.
const (
	ProviderEmail  = "EMAIL"
	ProviderGoogle = "GOOGLE"
)
