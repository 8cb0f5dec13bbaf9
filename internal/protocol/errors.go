package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"
	ErrProtoVersion    = "E_PROTO_VERSION"

	// Session layer.
	ErrWorldFull = "E_WORLD_FULL"

	// Action layer.
	ErrBadAction = "E_BAD_ACTION"
	ErrInternal  = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrProtoVersion:    {},
	ErrWorldFull:       {},
	ErrBadAction:       {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
