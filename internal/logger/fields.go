package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// ============================================
// Tracing fields (propagated through the call chain)
// ============================================

const (
	// FieldRequestID is the HTTP request ID (UUID)
	FieldRequestID = "request_id"

	// FieldCycleID identifies one ingestion cycle across all providers
	FieldCycleID = "cycle_id"

	// FieldComponent is the component/module name
	FieldComponent = "component"

	// FieldProvider is the job offer provider
	FieldProvider = "provider"

	// FieldOriginalID is the provider-side job identifier
	FieldOriginalID = "original_id"
)

// ============================================
// Metric fields (used for aggregation and alerting)
// ============================================

const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldCount is a generic count field
	FieldCount = "count"

	// FieldStatus is the operation status
	FieldStatus = "status"
)
