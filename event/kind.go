package event

// Kind identifies one registrable device-input channel. The set is closed;
// names outside it are rejected by ParseKind.
type Kind string

const (
	KindPointerDown Kind = "pointerDown"
	KindPointerUp   Kind = "pointerUp"
	KindPointerMove Kind = "pointerMove"
	KindKey         Kind = "key"
	KindTextInput   Kind = "textInput"
	KindAnimate     Kind = "animate"
)

// kinds is the registration-table order. RemoveAll walks it so teardown is
// deterministic.
var kinds = []Kind{
	KindPointerDown,
	KindPointerUp,
	KindPointerMove,
	KindKey,
	KindTextInput,
	KindAnimate,
}

// ParseKind resolves a kind name sent by the guest. Matching is exact; the
// second result reports whether the name is recognized.
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindPointerDown, KindPointerUp, KindPointerMove, KindKey, KindTextInput, KindAnimate:
		return Kind(s), true
	}
	return "", false
}
