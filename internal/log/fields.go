// ABOUTME: Canonical structured log field names
// ABOUTME: Keeps field keys consistent across packages
package log

const (
	FieldService   = "service"
	FieldComponent = "component"
	FieldSessionID = "session_id"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"

	// Stream fields
	FieldURL     = "url"
	FieldSeq     = "seq"
	FieldFraming = "framing"
	FieldBytes   = "bytes"
)
