// ABOUTME: YAML configuration for the wallpaper audio runtime
// ABOUTME: Loads the file with environment expansion and applies defaults
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/livepaper/livepaper-go/pkg/audio"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Audio      AudioConfig       `yaml:"audio"`
	Assets     AssetsConfig      `yaml:"assets"`
	Wallpapers []WallpaperConfig `yaml:"wallpapers"`
	Monitor    MonitorConfig     `yaml:"monitor"`
	Log        LogConfig         `yaml:"log"`
}

type AudioConfig struct {
	Driver     string `yaml:"driver"`
	SampleRate int    `yaml:"sample_rate"`
	Channels   int    `yaml:"channels"`
	Encoding   string `yaml:"encoding"`
	BufferMs   int    `yaml:"buffer_ms"`
	Volume     int    `yaml:"volume"`
	Muted      bool   `yaml:"muted"`
}

type AssetsConfig struct {
	Dir string `yaml:"dir"`
}

// WallpaperConfig is one wallpaper whose soundtrack should play. Tone
// plays a sine at that frequency when no path is set.
type WallpaperConfig struct {
	Name   string  `yaml:"name"`
	Path   string  `yaml:"path"`
	Tone   float64 `yaml:"tone"`
	Volume int     `yaml:"volume"`
	Loop   bool    `yaml:"loop"`
}

type MonitorConfig struct {
	Addr string `yaml:"addr"`
	MDNS bool   `yaml:"mdns"`
	Name string `yaml:"name"`
	// Audio is the codec used to stream the mix to listeners ("opus",
	// "pcm"); empty disables the feed
	Audio string `yaml:"audio"`
}

type LogConfig struct {
	File string `yaml:"file"`
}

// Default returns the configuration used without a config file
func Default() *Config {
	cfg := &Config{
		Audio: AudioConfig{
			Volume: 100,
		},
	}
	cfg.setDefaults()
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	// volume is pre-set so an explicit 0 survives unmarshalling
	cfg := Config{Audio: AudioConfig{Volume: 100}}
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// UnmarshalYAML defaults wallpapers to full volume and looping
func (w *WallpaperConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain WallpaperConfig
	p := plain{Volume: 100, Loop: true}
	if err := value.Decode(&p); err != nil {
		return err
	}
	*w = WallpaperConfig(p)
	return nil
}

func (c *Config) setDefaults() {
	if c.Audio.Driver == "" {
		c.Audio.Driver = "oto"
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 48000
	}
	if c.Audio.Channels == 0 {
		c.Audio.Channels = 2
	}
	if c.Audio.Encoding == "" {
		c.Audio.Encoding = "s16"
	}
	if c.Audio.BufferMs == 0 {
		c.Audio.BufferMs = 20
	}
	if c.Assets.Dir == "" {
		c.Assets.Dir = "."
	}
	if c.Monitor.Name == "" {
		c.Monitor.Name = "livepaper"
	}
	if c.Log.File == "" {
		c.Log.File = "livepaper.log"
	}
}

// Validate checks value ranges the defaults cannot fix
func (c *Config) Validate() error {
	if _, err := c.Audio.Format(); err != nil {
		return fmt.Errorf("audio: %w", err)
	}
	if c.Audio.BufferMs < 0 {
		return fmt.Errorf("audio: buffer_ms must not be negative, got %d", c.Audio.BufferMs)
	}
	if c.Audio.Volume < 0 || c.Audio.Volume > 100 {
		return fmt.Errorf("audio: volume must be 0-100, got %d", c.Audio.Volume)
	}

	switch strings.ToLower(c.Monitor.Audio) {
	case "", "opus", "pcm":
	default:
		return fmt.Errorf("monitor: unsupported audio codec %q", c.Monitor.Audio)
	}

	for i, w := range c.Wallpapers {
		if w.Path == "" && w.Tone <= 0 {
			return fmt.Errorf("wallpapers[%d]: path or tone is required", i)
		}
		if w.Volume < 0 || w.Volume > 100 {
			return fmt.Errorf("wallpapers[%d]: volume must be 0-100, got %d", i, w.Volume)
		}
	}
	return nil
}

// Format builds the requested device format
func (a AudioConfig) Format() (audio.Format, error) {
	enc, err := audio.ParseEncoding(a.Encoding)
	if err != nil {
		return audio.Format{}, err
	}

	format := audio.Format{
		Encoding:   enc,
		SampleRate: a.SampleRate,
		Channels:   a.Channels,
	}
	if err := format.Validate(); err != nil {
		return audio.Format{}, err
	}
	return format, nil
}
