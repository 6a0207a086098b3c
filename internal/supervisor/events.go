package supervisor

// logChannelCapacity bounds the channel connecting a child's stdout/stderr
// readers to its log writer, per spec.md §5.
const logChannelCapacity = 10

// eventChannelCapacity bounds the channel carrying the single Logged
// completion event (and, at the top level, the single CtrlC event).
const eventChannelCapacity = 1

// event is the supervisor's internal coordination signal set: a child's
// log writer reports Logged once it has drained and fsynced every
// buffered line; the top-level run loop reports CtrlC on the first
// interrupt signal.
type event int

const (
	eventLogged event = iota
	eventCtrlC
)
