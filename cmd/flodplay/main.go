package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/quasilyte/flod"
	"gopkg.in/yaml.v3"
)

// This CLI tool plays a module file with oto,
// prints its summary or renders it into a WAV file.

func main() {
	log.SetFlags(0)
	log.SetPrefix("flodplay: ")

	var (
		configPath    = flag.String("config", "", "path to an INI config file")
		sampleRate    = flag.Int("sample-rate", 0, "output sample rate")
		volume        = flag.Float64("volume", 0, "master volume in [0, 1]")
		loop          = flag.Bool("loop", false, "follow the song restart position instead of stopping at the end")
		loops         = flag.Int("loops", 0, "when -loop, stop after N loops (0 = loop forever)")
		interpolation = flag.Bool("lerp", false, "enable the linear interpolation")
		mono          = flag.Bool("mono", false, "produce a single channel output")
		info          = flag.Bool("info", false, "print the song summary as YAML and exit")
		wavPath       = flag.String("wav", "", "render one song pass into the WAV file instead of playing it")
		duration      = flag.Duration("duration", 0, "with -wav, limit the rendered length")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: flodplay [flags] path/to/music.mod\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	filename := flag.Arg(0)

	config, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	// The explicitly set flags override the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "sample-rate":
			config.Player.SampleRate = *sampleRate
		case "volume":
			config.Player.Volume = *volume
		case "loop":
			config.Player.Loop = *loop
		case "loops":
			config.Player.Loops = *loops
		case "lerp":
			config.Player.Interpolation = *interpolation
		case "mono":
			config.Player.Mono = *mono
		}
	})

	data, err := os.ReadFile(filename)
	if err != nil {
		log.Fatalf("read module: %v", err)
	}
	song, err := flod.Load(data)
	if err != nil {
		log.Fatalf("load %s: %v", filename, err)
	}

	switch {
	case *info:
		if err := printInfo(song); err != nil {
			log.Fatal(err)
		}
	case *wavPath != "":
		if err := exportWAV(song, *wavPath, config, *duration); err != nil {
			log.Fatal(err)
		}
	default:
		if err := play(song, config); err != nil {
			log.Fatal(err)
		}
	}
}

type songInfo struct {
	Title         string           `yaml:"title"`
	Format        string           `yaml:"format"`
	Tracker       string           `yaml:"tracker,omitempty"`
	Channels      int              `yaml:"channels"`
	Orders        int              `yaml:"orders"`
	Patterns      int              `yaml:"patterns"`
	Speed         int              `yaml:"speed"`
	Tempo         int              `yaml:"tempo"`
	LinearPeriods bool             `yaml:"linear_periods"`
	Instruments   []instrumentInfo `yaml:"instruments,omitempty"`
}

type instrumentInfo struct {
	Number  int    `yaml:"number"`
	Name    string `yaml:"name"`
	Samples int    `yaml:"samples"`
}

func printInfo(song *flod.Song) error {
	info := songInfo{
		Title:         song.Title,
		Format:        song.Format.String(),
		Tracker:       song.Tracker,
		Channels:      song.NumChannels,
		Orders:        len(song.Orders),
		Patterns:      len(song.Patterns),
		Speed:         song.InitialSpeed,
		Tempo:         song.InitialTempo,
		LinearPeriods: song.LinearPeriods,
	}
	for i, inst := range song.Instruments {
		if len(inst.Samples) == 0 && inst.Name == "" {
			continue
		}
		info.Instruments = append(info.Instruments, instrumentInfo{
			Number:  i + 1,
			Name:    inst.Name,
			Samples: len(inst.Samples),
		})
	}
	data, err := yaml.Marshal(&info)
	if err != nil {
		return fmt.Errorf("encode info: %v", err)
	}
	_, err = os.Stdout.Write(data)
	return err
}

func exportWAV(song *flod.Song, filename string, config *playerConfig, limit time.Duration) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	err = flod.ExportWAV(f, song, flod.ExportConfig{
		SampleRate:          config.Player.SampleRate,
		LinearInterpolation: config.Player.Interpolation,
		MaxDuration:         limit,
	})
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	return err
}

func play(song *flod.Song, config *playerConfig) error {
	numChannels := 2
	if config.Player.Mono {
		numChannels = 1
	}
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   config.Player.SampleRate,
		ChannelCount: numChannels,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return fmt.Errorf("audio context: %v", err)
	}
	<-ready

	// The handler runs on the audio thread under the sequencer lock,
	// so it only forwards the events.
	events := make(chan flod.Event, 16)
	stream := flod.NewStream()
	stream.SetLooping(config.Player.Loop)
	stream.SetVolume(config.Player.Volume)
	stream.SetEventHandler(func(e flod.Event) {
		if e.Kind != flod.EventLoop && e.Kind != flod.EventSongEnd {
			return
		}
		select {
		case events <- e:
		default:
		}
	})
	err = stream.Play(song, flod.LoadModuleConfig{
		SampleRate:          uint(config.Player.SampleRate),
		LinearInterpolation: config.Player.Interpolation,
		Mono:                config.Player.Mono,
	})
	if err != nil {
		return err
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	player := ctx.NewPlayer(stream)
	defer player.Close()
	player.Play()
	log.Printf("playing %q (%s, %d channels)", song.Title, song.Format, song.NumChannels)

	loopCount := 0
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for player.IsPlaying() {
		select {
		case e := <-events:
			switch e.Kind {
			case flod.EventLoop:
				loopCount++
				log.Printf("loop %d completed", loopCount)
				if config.Player.Loops > 0 && loopCount >= config.Player.Loops {
					stream.Stop()
				}
			case flod.EventSongEnd:
				log.Printf("playback completed")
			}
		case <-interrupt:
			stream.Stop()
			player.Pause()
			return nil
		case <-ticker.C:
		}
	}
	return player.Err()
}
