package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest    = "E_PROTO_BAD_REQUEST"
	ErrUnsupportedVersion = "E_UNSUPPORTED_VERSION"
	ErrUnsupportedMessage = "E_UNSUPPORTED_MESSAGE"

	// Window routing/state.
	ErrUnknownWindow = "E_UNKNOWN_WINDOW"
	ErrWindowClosed  = "E_WINDOW_CLOSED"
	ErrViewerOffline = "E_VIEWER_OFFLINE"

	// Interaction layer.
	ErrBadRequest   = "E_BAD_REQUEST"
	ErrNoPermission = "E_NO_PERMISSION"
	ErrRateLimit    = "E_RATE_LIMIT"
	ErrInternal     = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest:    {},
	ErrUnsupportedVersion: {},
	ErrUnsupportedMessage: {},
	ErrUnknownWindow:      {},
	ErrWindowClosed:       {},
	ErrViewerOffline:      {},
	ErrBadRequest:         {},
	ErrNoPermission:       {},
	ErrRateLimit:          {},
	ErrInternal:           {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
