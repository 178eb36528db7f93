package main

import (
	"fmt"

	"gopkg.in/ini.v1"
)

// defaultConfig is loaded before the user config file,
// so the file only needs to list the keys it overrides.
var defaultConfig = []byte(`
[Player]
SampleRate    = 44100
Volume        = 0.8
Loop          = false
Loops         = 1
Interpolation = false
Mono          = false
`)

type playerConfig struct {
	Player struct {
		SampleRate    int     `ini:"SampleRate"`
		Volume        float64 `ini:"Volume"`
		Loop          bool    `ini:"Loop"`
		Loops         int     `ini:"Loops"`
		Interpolation bool    `ini:"Interpolation"`
		Mono          bool    `ini:"Mono"`
	} `ini:"Player"`
}

func loadConfig(filename string) (*playerConfig, error) {
	options := ini.LoadOptions{
		SkipUnrecognizableLines: true,
	}
	sources := []interface{}{defaultConfig}
	if filename != "" {
		sources = append(sources, filename)
	}
	iniFile, err := ini.LoadSources(options, sources[0], sources[1:]...)
	if err != nil {
		return nil, fmt.Errorf("read config: %v", err)
	}
	var c playerConfig
	if err := iniFile.MapTo(&c); err != nil {
		return nil, fmt.Errorf("map config: %v", err)
	}
	return &c, nil
}
