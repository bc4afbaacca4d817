package errs

// Error codes of the socket core. Token and protocol failures close the
// connection; authorization and not-found failures are frame- or
// attach-level depending on where they surface.
const (
	CodeProtocol     = 1001
	CodeTokenExpired = 1101
	CodeTokenInvalid = 1102
	CodeUnauthorized = 1201
	CodeNotFound     = 1301
	CodeStorage      = 1401
)

var (
	ErrMalformedFrame = NewCodeError(CodeProtocol, "malformed frame")
	ErrTokenExpired   = NewCodeError(CodeTokenExpired, "token expired")
	ErrTokenInvalid   = NewCodeError(CodeTokenInvalid, "invalid token")
	ErrNotRoomMember  = NewCodeError(CodeUnauthorized, "user not in room")
	ErrBlocked        = NewCodeError(CodeUnauthorized, "user is blocked")
	ErrRoomInactive   = NewCodeError(CodeUnauthorized, "room is not active")
	ErrRoomNotFound   = NewCodeError(CodeNotFound, "room not found")
	ErrUserNotFound   = NewCodeError(CodeNotFound, "user not found")
	ErrInvalidID      = NewCodeError(CodeNotFound, "invalid id")
	ErrStorage        = NewCodeError(CodeStorage, "storage failure")
)
