package flod

import (
	"errors"
	"sync"
)

// State is a sequencer playback state.
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "stopped"
	}
}

// Cursor is a playback position.
type Cursor struct {
	Order   int
	Pattern int
	Row     int

	// Tick is the tick inside the current row.
	// It can go past the song speed while a pattern delay is running.
	Tick int
}

// Sequencer steps through the song patterns and updates the channels.
//
// It doesn't have its own clock: ticks are requested by a Mixer
// as it renders the frames. All methods are safe for concurrent use;
// the mixer holds the same lock during the whole render call.
type Sequencer struct {
	mu sync.Mutex

	state    State
	song     *Song
	playOnce bool
	handler  func(Event)

	channels []channel

	cursor       Cursor
	pattern      *Pattern
	speed        int
	tempo        int
	globalVolume int

	// Flow control requested by the current row.
	positionJump bool
	jumpOrder    int
	patternBreak bool
	breakRow     int
	loopJump     bool
	loopRow      int
	patternDelay int
	stopSong     bool

	visited []bool
	ended   bool

	// The tick clock; it's driven by the mixer.
	sampleRate int
	tickFrames int
	tickRem    int
	frame      int64
}

func NewSequencer() *Sequencer {
	return &Sequencer{}
}

// Play starts the song from the beginning.
// The previous song (if any) is stopped.
func (s *Sequencer) Play(song *Song) error {
	if song == nil {
		return errors.New("nil song")
	}
	if len(song.Orders) == 0 || song.NumChannels <= 0 {
		return errors.New("song has no orders or channels")
	}
	for _, o := range song.Orders {
		if o < 0 || o >= len(song.Patterns) {
			return errors.New("song order references a missing pattern")
		}
		p := &song.Patterns[o]
		if p.NumRows <= 0 || p.NumChannels != song.NumChannels || len(p.Cells) != p.NumRows*p.NumChannels {
			return errors.New("song pattern has an invalid layout")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.song = song
	s.state = Playing
	s.ended = false

	if cap(s.channels) < song.NumChannels {
		s.channels = make([]channel, song.NumChannels)
	}
	s.channels = s.channels[:song.NumChannels]
	for i := range s.channels {
		panning := 128
		if i < len(song.DefaultPanning) {
			panning = song.DefaultPanning[i]
		}
		s.channels[i].Reset(i, panning)
	}

	s.speed = max(song.InitialSpeed, 1)
	s.tempo = max(song.InitialTempo, 1)
	s.globalVolume = clamp(song.InitialGlobalVolume, 0, 64)
	s.clearFlow()
	s.patternDelay = 0

	if cap(s.visited) < len(song.Orders) {
		s.visited = make([]bool, len(song.Orders))
	}
	s.visited = s.visited[:len(song.Orders)]
	clear(s.visited)
	s.cursor = Cursor{Order: -1}
	s.enterOrder(0, 0)
	s.cursor.Tick = 0

	s.tickFrames = 0
	s.tickRem = 0
	s.frame = 0

	return nil
}

// Stop halts the playback and drops the song and channel state.
func (s *Sequencer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stop()
}

func (s *Sequencer) stop() {
	s.state = Stopped
	s.song = nil
	s.pattern = nil
	s.channels = s.channels[:0]
	s.tickFrames = 0
}

// Pause suspends the playback, keeping the cursor.
func (s *Sequencer) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Playing {
		s.state = Paused
	}
}

// Resume continues a paused playback.
func (s *Sequencer) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Paused {
		s.state = Playing
	}
}

func (s *Sequencer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Sequencer) Cursor() Cursor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Song returns the song being played, nil when stopped.
func (s *Sequencer) Song() *Song {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.song
}

// SetPlayOnce selects the end of song policy.
// By default a song loops forever; in play-once mode the sequencer
// emits EventSongEnd and stops after a single pass.
func (s *Sequencer) SetPlayOnce(once bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playOnce = once
}

// SetEventHandler installs an event listener.
// See Event docs for the handler restrictions.
func (s *Sequencer) SetEventHandler(f func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = f
}

// Speed returns the current number of ticks per row.
func (s *Sequencer) Speed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speed
}

// Tempo returns the current BPM.
func (s *Sequencer) Tempo() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tempo
}

func (s *Sequencer) GlobalVolume() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.globalVolume
}

// ChannelStates returns a snapshot of every channel.
func (s *Sequencer) ChannelStates() []ChannelState {
	s.mu.Lock()
	defer s.mu.Unlock()
	states := make([]ChannelState, len(s.channels))
	for i := range s.channels {
		states[i] = s.channels[i].State()
	}
	return states
}

func (s *Sequencer) emit(e Event) {
	if s.handler == nil {
		return
	}
	e.Frame = s.frame
	if s.sampleRate != 0 {
		e.Time = float64(s.frame) / float64(s.sampleRate)
	}
	s.handler(e)
}

// startTick runs the next tick and measures its length in frames.
// It reports false if there is nothing to play.
func (s *Sequencer) startTick() bool {
	if s.state != Playing {
		return false
	}
	if s.ended {
		cursor := s.cursor
		s.stop()
		s.emit(Event{Kind: EventSongEnd, Channel: -1, Order: cursor.Order, Row: cursor.Row})
		return false
	}
	s.runTick()
	s.tickFrames = max(framesPerTick(s.sampleRate, s.tempo, &s.tickRem), 1)
	return true
}

func (s *Sequencer) runTick() {
	if s.cursor.Tick == 0 {
		s.processRow()
	} else {
		rowTick := s.cursor.Tick % s.speed
		for i := range s.channels {
			s.tickEffects(&s.channels[i], rowTick)
		}
	}
	for i := range s.channels {
		s.updateChannel(&s.channels[i])
	}

	s.cursor.Tick++
	if s.cursor.Tick >= s.speed*(1+s.patternDelay) {
		s.cursor.Tick = 0
		s.patternDelay = 0
		s.nextRow()
	}
}

func (s *Sequencer) processRow() {
	s.clearFlow()
	row := s.pattern.Row(s.cursor.Row)
	for i := range s.channels {
		if i >= len(row) {
			break
		}
		s.processCell(&s.channels[i], row[i])
	}
}

func (s *Sequencer) clearFlow() {
	s.positionJump = false
	s.patternBreak = false
	s.loopJump = false
	s.stopSong = false
}

func (s *Sequencer) nextRow() {
	order := s.cursor.Order
	row := s.cursor.Row + 1
	jumped := false

	switch {
	case s.stopSong:
		s.endPass(s.song.RestartOrder, 0)
		return
	case s.loopJump:
		row = s.loopRow
	case s.positionJump || s.patternBreak:
		jumped = true
		order++
		row = 0
		if s.positionJump {
			order = s.jumpOrder
		}
		if s.patternBreak {
			row = s.breakRow
		}
	}

	if !jumped && row >= s.pattern.NumRows {
		order++
		row = 0
	}

	if order >= len(s.song.Orders) {
		s.endPass(s.song.RestartOrder, row)
		return
	}
	if (jumped || order != s.cursor.Order) && s.visited[order] {
		s.endPass(order, row)
		return
	}
	s.enterOrder(order, row)
}

// endPass handles the end of a song pass.
// In the loop mode the playback continues at the given position.
func (s *Sequencer) endPass(order, row int) {
	if s.playOnce {
		s.ended = true
		return
	}
	if order < 0 || order >= len(s.song.Orders) {
		order = 0
	}
	clear(s.visited)
	s.enterOrder(order, row)
	s.emit(Event{Kind: EventLoop, Channel: -1, Order: order, Row: s.cursor.Row})
}

func (s *Sequencer) enterOrder(order, row int) {
	if order != s.cursor.Order {
		for i := range s.channels {
			s.channels[i].loopRow = 0
			s.channels[i].loopCount = 0
		}
	}
	s.visited[order] = true
	s.cursor.Order = order
	s.cursor.Pattern = s.song.Orders[order]
	s.pattern = &s.song.Patterns[s.cursor.Pattern]
	if row >= s.pattern.NumRows {
		row = 0
	}
	s.cursor.Row = row
}
