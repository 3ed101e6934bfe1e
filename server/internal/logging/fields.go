// Package logging provides structured logging utilities for the
// NebulaFleet control plane.
package logging

// Standard field names for consistent logging across the application.
const (
	// FieldNodeID is the unique identifier for a node.
	FieldNodeID = "node_id"

	// FieldCAID is the unique identifier for a certificate authority.
	FieldCAID = "ca_id"

	// FieldCertID is the unique identifier for a host certificate.
	FieldCertID = "cert_id"

	// FieldPoolID is the unique identifier for an IP pool.
	FieldPoolID = "pool_id"

	// FieldTokenID is the unique identifier for a token.
	FieldTokenID = "token_id"

	// FieldRequestID is a unique identifier for each HTTP request.
	FieldRequestID = "request_id"

	// FieldDuration is the duration of an operation in milliseconds.
	FieldDuration = "duration_ms"

	// FieldStatusCode is the HTTP status code of a response.
	FieldStatusCode = "status_code"

	// FieldMethod is the HTTP method of a request.
	FieldMethod = "method"

	// FieldPath is the URL path of an HTTP request.
	FieldPath = "path"

	// FieldRemoteAddr is the client's remote address.
	FieldRemoteAddr = "remote_addr"

	// FieldUserAgent is the client's user agent string.
	FieldUserAgent = "user_agent"

	// FieldError is the error message or description.
	FieldError = "error"

	// FieldComponent identifies the component or service generating the log.
	FieldComponent = "component"

	// FieldOperation identifies the specific operation being performed.
	FieldOperation = "operation"
)
