package common

import "time"

// Cookie names shared by the HTTP layer and its tests.
const (
	SessionCookieName = "my-session"
	WarningCookieName = "warning"
	FlashCookieName   = "flash"
)

// DateLayout is the wire format of project dates in forms and templates.
const DateLayout = "2006-01-02"

// DefaultNoticeMaxAge is the advisory lifetime of the warning cookie.
const DefaultNoticeMaxAge = 5 * time.Second
