package flod

import (
	"encoding/binary"
	"errors"
	"io"
)

// Stream wraps a song playback, making it possible to Read() its PCM bytes.
//
// The Read() method produces 16-bit little endian PCM bytes; this is what ebiten/audio
// and oto packages expect. Use Stream as an io.Reader argument for audio.NewPlayer().
type Stream struct {
	seq   *Sequencer
	mixer *Mixer

	song        *Song
	mixerConfig MixerConfig

	buf     []int16
	bytePos int

	settings streamSettings
}

type streamSettings struct {
	volumeScaling float64
	loop          bool
	eventHandler  func(e Event)
}

// StreamInfo contains a stream information like bytes per tick, etc.
type StreamInfo struct {
	// BytesPerTick tells how much bytes the current tempo needs to fit a single tick.
	// Read can be called with any slice size, but a slice that is
	// smaller than a tick makes the events less precise.
	BytesPerTick uint

	// MemoryUsage approximates the loaded song size in bytes.
	MemoryUsage uint
}

// LoadModuleConfig configures the module playback.
//
// These settings can't be changed after a module is loaded.
//
// Some extra configurations are available via Stream methods:
//   - Stream.SetVolume()
//   - Stream.SetLooping()
//
// These extra configuration methods can be used even after a module is loaded.
type LoadModuleConfig struct {
	// LinearInterpolation enables the sub-sample interpolation that will
	// make some music sound smoother.
	//
	// The best way to figure out whether you need it or not is to listen to the results.
	// Most tracker players have linear interpolation (lerp) enabled by default.
	//
	// A zero value means "no interpolation".
	//
	// This should not be confused with volume ramping.
	// The volume ramping is always enabled and can't be turned off.
	LinearInterpolation bool

	// BPM sets the playback speed.
	// Higher BPM will make the music play faster.
	//
	// A zero value will use the module default BPM value.
	BPM uint

	// Tempo (called "Spd" in MilkyTracker) specifies the number of ticks per pattern row.
	// Perhaps a bit counter-intuitively, higher values make
	// the song play slower as there are more resolution steps inside a
	// single pattern row.
	//
	// A zero value will use the module default value.
	Tempo uint

	// The sound device sample rate.
	// If you're using Ebitengine, it's the same value that
	// was used to create an audio context.
	//
	// A zero value will assume a sample rate of 44100.
	SampleRate uint

	// Mono makes the stream produce a single channel PCM.
	Mono bool
}

// NewStream allocates a stream that can load and play modules.
// Use LoadModule or Play method to start the playback.
func NewStream() *Stream {
	return &Stream{
		seq: NewSequencer(),
		settings: streamSettings{
			volumeScaling: 0.8,
		},
	}
}

// SetEventHandler installs an event listener to the stream.
//
// f is called on every playback event.
// Events are produced when the song is being rendered.
// Therefore, calling Read() may produce multiple events.
func (s *Stream) SetEventHandler(f func(e Event)) {
	s.settings.eventHandler = f
	s.seq.SetEventHandler(f)
}

// SetVolume adjusts the global volume scaling for the stream.
// The default value is 0.8; a value of 0 disables the sound.
// The value is clamped in [0, 1].
func (s *Stream) SetVolume(v float64) {
	s.settings.volumeScaling = clamp(v, 0, 1)
	if s.mixer != nil {
		s.mixer.SetVolume(s.settings.volumeScaling)
	}
}

// SetLooping selects the end of song behavior.
// When looping is enabled, the song continues from its restart
// position and Read will never return EOF.
//
// Note: prefer this option to the InfiniteLoop provided by Ebitengine audio.
// The native looping respects the song restart position.
func (s *Stream) SetLooping(loop bool) {
	s.settings.loop = loop
	s.seq.SetPlayOnce(!loop)
}

// LoadModule loads a module from its file bytes and starts playing it.
//
// Loading a module involves its parsing and decoding of all samples.
// You want to load modules as rarely as possible and then play
// the resulting songs via Play.
func (s *Stream) LoadModule(data []byte, config LoadModuleConfig) error {
	song, err := Load(data)
	if err != nil {
		return err
	}
	return s.Play(song, config)
}

// Play starts the song playback from the beginning.
// The song is not modified, so it can be shared between streams.
func (s *Stream) Play(song *Song, config LoadModuleConfig) error {
	if song == nil {
		return errors.New("nil song")
	}
	if config.BPM != 0 || config.Tempo != 0 {
		// A shallow copy is enough: only the initial values differ.
		copied := *song
		if config.BPM != 0 {
			copied.InitialTempo = int(config.BPM)
		}
		if config.Tempo != 0 {
			copied.InitialSpeed = int(config.Tempo)
		}
		song = &copied
	}

	mixerConfig := MixerConfig{
		SampleRate:          int(config.SampleRate),
		Mono:                config.Mono,
		LinearInterpolation: config.LinearInterpolation,
	}
	if s.mixer == nil || s.mixerConfig != mixerConfig {
		s.mixer = NewMixer(s.seq, mixerConfig)
		s.mixerConfig = mixerConfig
	}
	s.mixer.SetVolume(s.settings.volumeScaling)
	s.seq.SetPlayOnce(!s.settings.loop)

	if err := s.seq.Play(song); err != nil {
		return err
	}
	s.song = song
	s.bytePos = 0
	return nil
}

// Sequencer returns the underlying sequencer.
// It can be used to query the playback cursor and channel states.
func (s *Stream) Sequencer() *Sequencer { return s.seq }

// Seek partially implements io.Seeker.
//
// You can use it for two things:
//  1. (0, SeekStart) for rewind
//  2. (0, SeekCurrent) to get the byte pos inside the stream
func (s *Stream) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		if offset == 0 {
			s.Rewind()
			return 0, nil
		}

	case io.SeekCurrent:
		if offset == 0 {
			return int64(s.bytePos), nil
		}
	}

	return 0, errors.New("unsupported Seek call")
}

// Read puts next PCM bytes into provided slice.
//
// The output is 16-bit little endian PCM, stereo unless
// the Mono option was used. Only whole frames are written.
//
// A paused stream produces silence.
// When a play-once song is over (or the stream is stopped),
// the remaining bytes are returned along with io.EOF.
func (s *Stream) Read(b []byte) (int, error) {
	if s.mixer == nil {
		return 0, io.EOF
	}

	nch := s.mixer.NumChannels()
	frameSize := 2 * nch
	frames := len(b) / frameSize
	if frames == 0 {
		return 0, nil
	}
	if cap(s.buf) < frames*nch {
		s.buf = make([]int16, frames*nch)
	}
	buf := s.buf[:frames*nch]

	n := s.mixer.RenderInto(buf)
	eof := false
	if n < frames {
		if s.seq.State() == Paused {
			// The rest of buf is already zeroed.
			n = frames
		} else {
			eof = true
		}
	}

	for i, v := range buf[:n*nch] {
		binary.LittleEndian.PutUint16(b[i*2:], uint16(v))
	}
	written := n * frameSize
	s.bytePos += written

	if eof {
		return written, io.EOF
	}
	return written, nil
}

// Rewind prepares the stream to play the song right from the start.
// Doing rewind is relatively cheap.
func (s *Stream) Rewind() {
	if s.settings.eventHandler != nil {
		s.settings.eventHandler(Event{Kind: EventSync, Channel: -1})
	}
	s.bytePos = 0
	if s.song != nil {
		// The song was validated by the first Play.
		_ = s.seq.Play(s.song)
	}
}

func (s *Stream) Pause()  { s.seq.Pause() }
func (s *Stream) Resume() { s.seq.Resume() }

// Stop ends the playback; Read returns io.EOF after that.
// Use Rewind to start over.
func (s *Stream) Stop() { s.seq.Stop() }

// GetInfo returns stream-related info.
// See StreamInfo for more details.
func (s *Stream) GetInfo() StreamInfo {
	var info StreamInfo
	info.MemoryUsage = songSize(s.song)
	if s.mixer != nil {
		rem := 0
		frames := framesPerTick(s.mixer.SampleRate(), max(s.seq.Tempo(), 1), &rem)
		info.BytesPerTick = uint(frames * 2 * s.mixer.NumChannels())
	}
	return info
}
