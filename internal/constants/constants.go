package constants

// Session and request context keys
const (
	SessionCookieName   = "kanban_session"
	ContextKeyPhone     = "phone_number"
	ContextKeyRequestID = "request_id"
)

// Pagination bounds
const (
	MinPageSize     = 1
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// Field limits
const (
	MinPasswordLength = 8
	MaxTitleLength    = 200
	MinNameLength     = 2
	MaxNameLength     = 100
	MinPhoneDigits    = 10
	MaxPhoneDigits    = 15
)

// Advice thresholds
const (
	StatusOverflowThreshold = 10
	AssigneeOverloadAbove   = 3
	AssigneeUnderloadBelow  = 3
)
