package flod

// EventKind is an event tag that should be used to differentiate between different event types.
// See Event docs for more info.
type EventKind int

const (
	// EventUnknown is a sentinel value.
	// You should never receive an event of this kind.
	EventUnknown EventKind = iota

	// EventNote is emitted every time a channel starts to play some note.
	// Note, Instrument and Volume describe the started note.
	EventNote

	// EventLoop is emitted when the song reaches its end (or jumps back
	// to an already played order) and continues from the loop target.
	// Order and Row point to that target.
	EventLoop

	// EventSongEnd is emitted once when a play-once song is over.
	// The sequencer is stopped right after it.
	EventSongEnd

	// EventSync tells the application to reset its time counter to 0.
	// It's emitted by Stream.Rewind.
	EventSync
)

func (k EventKind) String() string {
	switch k {
	case EventNote:
		return "note"
	case EventLoop:
		return "loop"
	case EventSongEnd:
		return "song end"
	case EventSync:
		return "sync"
	default:
		return "unknown"
	}
}

// Event holds a single playback event data.
// This object is an argument to the event handler functions.
//
// Every event has a Frame and a Time value. This is a moment when this
// event happened in relation to the playback start. The events are emitted
// while the audio is being rendered, which happens ahead of the actual output,
// so the application needs to handle these events in the right moment.
//
// The handler is called while the sequencer is locked:
// it must not call the Sequencer (or Stream) methods.
type Event struct {
	Kind EventKind

	// Channel is an event channel ID; -1 for channel-independent events.
	Channel int

	// The playback cursor position.
	Order int
	Row   int

	Note       int
	Instrument int
	Volume     int

	// Frame is the number of output frames rendered before this event.
	Frame int64

	// Time represents the playback offset in seconds.
	// Time=2.5 means that this event happened somewhere around 2.5 seconds.
	Time float64
}
