package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// APIKeyEnv names the environment variable holding the generation API key.
const APIKeyEnv = "MUREKA_API_KEY"

// Config captures the assembly and generation settings for a project.
type Config struct {
	Version         int            `yaml:"version"`
	TargetDurationS float64        `yaml:"target_duration_s"`
	Video           VideoConfig    `yaml:"video"`
	Music           MusicConfig    `yaml:"music"`
	Output          OutputConfig   `yaml:"output"`
	Encoding        EncodingConfig `yaml:"encoding"`
	Generate        GenerateConfig `yaml:"generate"`
}

// VideoConfig describes where clips are discovered.
type VideoConfig struct {
	Dir        string `yaml:"dir"`
	Extension  string `yaml:"extension"`
	Recursive  bool   `yaml:"recursive,omitempty"`
	ProbeLimit int    `yaml:"probe_concurrency"`
}

// MusicConfig describes the background track pool.
type MusicConfig struct {
	Dir       string  `yaml:"dir"`
	Extension string  `yaml:"extension"`
	Genre     string  `yaml:"genre,omitempty"`
	Recursive bool    `yaml:"recursive,omitempty"`
	Volume    float64 `yaml:"volume"`
	Disabled  bool    `yaml:"disabled,omitempty"`
}

// OutputConfig controls where the final video is written.
type OutputConfig struct {
	Dir          string `yaml:"dir"`
	NameTemplate string `yaml:"name_template"`
	Manifest     *bool  `yaml:"manifest,omitempty"`
}

// EncodingConfig holds ffmpeg encoder settings for re-encode and mix passes.
type EncodingConfig struct {
	VideoCodec   string `yaml:"video_codec"`
	AudioCodec   string `yaml:"audio_codec"`
	AudioBitrate string `yaml:"audio_bitrate"`
	Preset       string `yaml:"preset,omitempty"`
	SampleRate   int    `yaml:"sample_rate,omitempty"`
}

// GenerateConfig configures the remote music-generation service.
type GenerateConfig struct {
	Endpoint      string  `yaml:"endpoint"`
	StatusURL     string  `yaml:"status_endpoint"`
	Model         string  `yaml:"model"`
	Prompt        string  `yaml:"prompt"`
	PollIntervalS float64 `yaml:"poll_interval_s"`
	TimeoutS      float64 `yaml:"timeout_s,omitempty"`
	OutputDir     string  `yaml:"output_dir"`
}

// PollInterval returns the status poll interval as a duration.
func (g GenerateConfig) PollInterval() time.Duration {
	return time.Duration(g.PollIntervalS * float64(time.Second))
}

// Timeout returns the overall generation timeout, zero meaning none.
func (g GenerateConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutS * float64(time.Second))
}

// ManifestEnabled reports whether a timeline manifest is written next to
// the output.
func (o OutputConfig) ManifestEnabled() bool {
	if o.Manifest == nil {
		return true
	}
	return *o.Manifest
}

// MusicSubdir returns the music directory for the configured genre.
func (m MusicConfig) MusicSubdir() string {
	genre := NormalizeGenre(m.Genre)
	if genre == "" {
		return m.Dir
	}
	return filepath.Join(m.Dir, genre)
}

// NormalizeGenre lowercases and trims a genre label.
func NormalizeGenre(genre string) string {
	return strings.ToLower(strings.TrimSpace(genre))
}

// ErrInvalidGenre is returned for genres that cannot name a single folder.
var ErrInvalidGenre = errors.New("genre is not a valid folder name")

// ValidateGenre checks that genre, once normalized, names exactly one folder
// below the music directory. The empty genre is valid and means no subfolder.
func ValidateGenre(genre string) error {
	g := NormalizeGenre(genre)
	if strings.ContainsAny(g, `/\`) || g == "." || g == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidGenre, genre)
	}
	return nil
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Version:         1,
		TargetDurationS: 3600,
		Video: VideoConfig{
			Dir:        "clips",
			Extension:  ".mp4",
			ProbeLimit: 4,
		},
		Music: MusicConfig{
			Dir:       "audio/generated",
			Extension: ".mp3",
			Volume:    0.3,
		},
		Output: OutputConfig{
			Dir:          "output/videos",
			NameTemplate: "{date}_final_video",
			Manifest:     boolPtr(true),
		},
		Encoding: EncodingConfig{
			VideoCodec:   "libx264",
			AudioCodec:   "aac",
			AudioBitrate: "192k",
			Preset:       "medium",
		},
		Generate: GenerateConfig{
			Endpoint:      "https://api.mureka.ai/v1/instrumental/generate",
			StatusURL:     "https://api.mureka.ai/v1/instrumental/query",
			Model:         "auto",
			Prompt:        "Generate an instrumental at ~74 BPM with warm Rhodes-style chords (flat and ambient), deep sustained sub bass, light drums, NO melody, NO movement. Static, minimal, background-focused.",
			PollIntervalS: 5,
			OutputDir:     "audio/generated",
		},
	}
}

// Load reads the YAML configuration from disk if it exists, otherwise returns
// the default configuration.
func Load(path string) (Config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			cfg.ApplyDefaults()
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults ensures nested fields fall back to sensible defaults when the
// YAML omits them.
func (c *Config) ApplyDefaults() {
	defaults := Default()

	if c.Version == 0 {
		c.Version = defaults.Version
	}
	if c.TargetDurationS == 0 {
		c.TargetDurationS = defaults.TargetDurationS
	}
	if c.Video.Dir == "" {
		c.Video.Dir = defaults.Video.Dir
	}
	if c.Video.Extension == "" {
		c.Video.Extension = defaults.Video.Extension
	}
	if c.Video.ProbeLimit <= 0 {
		c.Video.ProbeLimit = defaults.Video.ProbeLimit
	}
	if c.Music.Dir == "" {
		c.Music.Dir = defaults.Music.Dir
	}
	if c.Music.Extension == "" {
		c.Music.Extension = defaults.Music.Extension
	}
	if c.Music.Volume == 0 {
		c.Music.Volume = defaults.Music.Volume
	}
	if c.Output.Dir == "" {
		c.Output.Dir = defaults.Output.Dir
	}
	if c.Output.NameTemplate == "" {
		c.Output.NameTemplate = defaults.Output.NameTemplate
	}
	if c.Output.Manifest == nil {
		c.Output.Manifest = boolPtr(true)
	}
	if c.Encoding.VideoCodec == "" {
		c.Encoding.VideoCodec = defaults.Encoding.VideoCodec
	}
	if c.Encoding.AudioCodec == "" {
		c.Encoding.AudioCodec = defaults.Encoding.AudioCodec
	}
	if c.Encoding.AudioBitrate == "" {
		c.Encoding.AudioBitrate = defaults.Encoding.AudioBitrate
	}
	if c.Generate.Endpoint == "" {
		c.Generate.Endpoint = defaults.Generate.Endpoint
	}
	if c.Generate.StatusURL == "" {
		c.Generate.StatusURL = defaults.Generate.StatusURL
	}
	if c.Generate.Model == "" {
		c.Generate.Model = defaults.Generate.Model
	}
	if c.Generate.Prompt == "" {
		c.Generate.Prompt = defaults.Generate.Prompt
	}
	if c.Generate.PollIntervalS == 0 {
		c.Generate.PollIntervalS = defaults.Generate.PollIntervalS
	}
	if c.Generate.OutputDir == "" {
		c.Generate.OutputDir = defaults.Generate.OutputDir
	}
}

// Marshal returns the YAML encoding of the configuration.
func (c Config) Marshal() ([]byte, error) {
	buf, err := yaml.Marshal(&c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return buf, nil
}

// LoadEnv loads a .env file into the process environment when present.
// Variables already set take precedence.
func LoadEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat env file: %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// APIKey returns the generation API key from the environment.
func APIKey() string {
	return strings.TrimSpace(os.Getenv(APIKeyEnv))
}

func boolPtr(v bool) *bool {
	return &v
}
