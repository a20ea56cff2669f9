// internal/app/system/limits/limits.go
package limits

// Request and field size limits.
const (
	// MaxJSONBody caps every JSON request body.
	MaxJSONBody = 1 << 20 // 1 MB

	// MaxNameLength bounds user, workspace and project names.
	MaxNameLength = 255
)
