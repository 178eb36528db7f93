package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/quasilyte/flod"
)

/*
note indexes
C  = 0
C# = 1
D  = 2
D# = 3
E  = 4
F  = 5
F# = 6
G  = 7
G# = 8
A  = 9
A# = 10
B  = 11

D#5 = 52
octave := 5-1
(octave × 12) + note_index + 1 = 52
*/

// This simple CLI tool plays the specified module using Ebitengine audio player.
// Keys 1-9 play a D#5 note with the matching instrument.

const sampleRate = 44100

func main() {
	flag.Usage = func() {
		fmt.Printf("usage: go run ./cmd/ebitengine-example path/to/music.mod\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if len(flag.Args()) < 1 {
		panic("expected at least 1 command-line argument")
	}
	filename := flag.Args()[0]

	data, err := os.ReadFile(filename)
	if err != nil {
		panic(fmt.Errorf("read module file: %v", err))
	}
	song, err := flod.Load(data)
	if err != nil {
		panic(fmt.Errorf("load module: %v", err))
	}

	stream := flod.NewStream()
	stream.SetLooping(true)
	if err := stream.Play(song, flod.LoadModuleConfig{SampleRate: sampleRate}); err != nil {
		panic(fmt.Sprintf("play module: %v", err))
	}

	// Create a sound player using the Ebitengine audio context.
	// You can have multiple players, but only one audio context.
	// See Ebitengine docs to learn more.
	audioContext := audio.NewContext(sampleRate)
	player, err := audioContext.NewPlayer(stream)
	if err != nil {
		panic(err)
	}

	g := &game{
		song:     song,
		stream:   stream,
		player:   player,
		filename: filename,
		paused:   true,
	}

	g.synth = flod.NewSynthesizer(flod.SynthesizerConfig{
		NumChannels: 2,
		SampleRate:  sampleRate,
	})
	if err := g.synth.LoadInstruments(song); err != nil {
		panic(err)
	}
	{
		player, err := audioContext.NewPlayer(g.synth)
		if err != nil {
			panic(err)
		}
		g.synthPlayer = player
	}

	if err := ebiten.RunGame(g); err != nil {
		panic(err)
	}
}

type game struct {
	song   *flod.Song
	stream *flod.Stream
	player *audio.Player

	synth       *flod.Synthesizer
	synthPlayer *audio.Player

	filename string
	paused   bool
}

var instrumentKeys = []ebiten.Key{
	ebiten.Key1, ebiten.Key2, ebiten.Key3,
	ebiten.Key4, ebiten.Key5, ebiten.Key6,
	ebiten.Key7, ebiten.Key8, ebiten.Key9,
}

func (g *game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
		if g.player.IsPlaying() {
			g.player.Pause()
		} else {
			g.player.Play()
		}
	}

	for i, k := range instrumentKeys {
		if !inpututil.IsKeyJustPressed(k) || i >= len(g.song.Instruments) {
			continue
		}
		err := g.synth.PlayNote(0, flod.Cell{
			Note:       52,
			Instrument: uint8(i + 1),
		})
		if err != nil {
			return err
		}
		g.synthPlayer.Rewind()
		g.synthPlayer.Play()
	}

	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	var b strings.Builder
	if g.paused {
		b.WriteString("Paused... press SPACE\n")
	} else {
		fmt.Fprintf(&b, "Playing %s...\n", g.filename)
	}
	seq := g.stream.Sequencer()
	cursor := seq.Cursor()
	fmt.Fprintf(&b, "%s [%s]\n", g.song.Title, g.song.Format)
	fmt.Fprintf(&b, "order %d/%d pattern %d row %d\n", cursor.Order, len(g.song.Orders), cursor.Pattern, cursor.Row)
	fmt.Fprintf(&b, "speed %d tempo %d\n", seq.Speed(), seq.Tempo())
	for i, ch := range seq.ChannelStates() {
		if !ch.Active {
			fmt.Fprintf(&b, "%2d: ---\n", i)
			continue
		}
		fmt.Fprintf(&b, "%2d: note %2d inst %2d vol %2d\n", i, ch.Note, ch.Instrument, ch.Volume)
	}
	ebitenutil.DebugPrint(screen, b.String())
}

func (g *game) Layout(_, _ int) (int, int) {
	return 640, 480
}
