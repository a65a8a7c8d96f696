package dialog

// EventKind distinguishes the inbound payloads the dialogue reacts to.
type EventKind int

const (
	// KindOther covers every update that is neither text nor a location.
	KindOther EventKind = iota
	// KindText is a plain text message.
	KindText
	// KindLocation is a shared map location.
	KindLocation
)

// Event is one inbound chat update, normalized away from the transport types.
type Event struct {
	ChatID    int64
	FirstName string
	LastName  string

	Kind EventKind
	Text string
	Lat  float64
	Lon  float64
}
