package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/retry"
)

// DefaultSettingsFile is the settings path used when --settings is not given.
const DefaultSettingsFile = "sitegen.yaml"

// Settings is the builder configuration. It is distinct from the catalog
// (config.json), which holds site content and is reloaded on every build.
type Settings struct {
	Catalog     string          `yaml:"catalog" validate:"required"`
	ArticlesDir string          `yaml:"articles_dir" validate:"required"`
	Templates   TemplatesConfig `yaml:"templates"`
	Output      OutputConfig    `yaml:"output"`
	Build       BuildConfig     `yaml:"build"`
	Publish     PublishConfig   `yaml:"publish"`
	Watch       WatchConfig     `yaml:"watch"`
	History     HistoryConfig   `yaml:"history"`
	Metrics     MetricsConfig   `yaml:"metrics"`
	Notify      NotifyConfig    `yaml:"notify"`
}

// TemplatesConfig locates the page templates.
type TemplatesConfig struct {
	Dir     string `yaml:"dir" validate:"required"`
	Index   string `yaml:"index" validate:"required"`
	Article string `yaml:"article" validate:"required"`
}

// OutputConfig controls where sites are written.
type OutputConfig struct {
	// BaseDirectory is the parent of every site directory; the site identifier names the child.
	BaseDirectory string `yaml:"base_directory" validate:"required"`
	// Preserve lists top-level entries carried over from the previous output (VCS metadata).
	Preserve []string `yaml:"preserve,omitempty"`
	// StaticDir is copied verbatim into the site before pages are written.
	StaticDir string `yaml:"static_dir,omitempty"`
}

// BuildConfig tunes the build pipeline.
type BuildConfig struct {
	RenderWorkers int `yaml:"render_workers" validate:"gte=1,lte=64"`
}

// Publish methods.
const (
	PublishMethodExec  = "exec"
	PublishMethodGoGit = "go-git"
)

// PublishConfig controls the version-control push after a build.
type PublishConfig struct {
	Enabled     *bool  `yaml:"enabled,omitempty"`
	Method      string `yaml:"method" validate:"oneof=exec go-git"`
	GitBinary   string `yaml:"git_binary,omitempty"`
	Remote      string `yaml:"remote" validate:"required"`
	Branch      string `yaml:"branch" validate:"required"`
	Timeout     string `yaml:"timeout" validate:"duration"`
	AuthorName  string `yaml:"author_name,omitempty"`
	AuthorEmail string `yaml:"author_email,omitempty" validate:"omitempty,email"`
	// PushRetries is how many times a transient push failure is retried.
	PushRetries  int    `yaml:"push_retries" validate:"gte=0,lte=10"`
	RetryBackoff string `yaml:"retry_backoff,omitempty" validate:"omitempty,oneof=fixed linear exponential"`
	RetryDelay   string `yaml:"retry_delay,omitempty" validate:"omitempty,duration"`
}

// IsEnabled reports whether publishing runs after a build (default true).
func (p PublishConfig) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// TimeoutDuration returns the per-step publish timeout.
func (p PublishConfig) TimeoutDuration() time.Duration {
	return mustDuration(p.Timeout, 2*time.Minute)
}

// RetryPolicy returns the push retry policy.
func (p PublishConfig) RetryPolicy() retry.Policy {
	return retry.NewPolicy(retry.Backoff(p.RetryBackoff), mustDuration(p.RetryDelay, 2*time.Second), 30*time.Second, p.PushRetries)
}

// Watch backends.
const (
	WatchBackendFSNotify = "fsnotify"
	WatchBackendPoll     = "poll"
)

// WatchConfig controls the change watcher.
type WatchConfig struct {
	Backend      string `yaml:"backend" validate:"oneof=fsnotify poll"`
	PollInterval string `yaml:"poll_interval" validate:"duration"`
	QuietWindow  string `yaml:"quiet_window" validate:"duration"`
	MaxDelay     string `yaml:"max_delay" validate:"duration"`
	// RebuildEvery schedules an unconditional rebuild; empty disables it.
	RebuildEvery string `yaml:"rebuild_every,omitempty" validate:"omitempty,duration"`
}

func (w WatchConfig) PollIntervalDuration() time.Duration {
	return mustDuration(w.PollInterval, 500*time.Millisecond)
}

func (w WatchConfig) QuietWindowDuration() time.Duration {
	return mustDuration(w.QuietWindow, 300*time.Millisecond)
}

func (w WatchConfig) MaxDelayDuration() time.Duration {
	return mustDuration(w.MaxDelay, 5*time.Second)
}

func (w WatchConfig) RebuildEveryDuration() time.Duration {
	return mustDuration(w.RebuildEvery, 0)
}

// HistoryConfig enables the SQLite build history. Empty path disables it.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"`
}

// MetricsConfig enables the Prometheus listener. Empty address disables it.
type MetricsConfig struct {
	Listen string `yaml:"listen,omitempty" validate:"omitempty,hostname_port"`
}

// NotifyConfig enables NATS build notifications. Empty URL disables them.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url,omitempty" validate:"omitempty,url"`
	Subject string `yaml:"subject,omitempty"`
}

// Load reads settings from path. A missing file yields the defaults so that a
// bare `sitegen example.com` works from a site checkout without a settings file.
func Load(path string) (*Settings, error) {
	// .env files are optional
	_ = loadEnvFile()

	settings := &Settings{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), settings); err != nil {
			return nil, ferrors.SettingsError("cannot parse settings file").
				WithCause(err).
				WithContext("path", path).
				Build()
		}
	case os.IsNotExist(err):
		// defaults only
	default:
		return nil, ferrors.SettingsError("cannot read settings file").
			WithCause(err).
			WithContext("path", path).
			Build()
	}

	applyDefaults(settings)
	if err := Validate(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// Default returns settings with every default applied.
func Default() *Settings {
	s := &Settings{}
	applyDefaults(s)
	return s
}

func applyDefaults(s *Settings) {
	if s.Catalog == "" {
		s.Catalog = "config.json"
	}
	if s.ArticlesDir == "" {
		s.ArticlesDir = "articles"
	}
	if s.Templates.Dir == "" {
		s.Templates.Dir = "."
	}
	if s.Templates.Index == "" {
		s.Templates.Index = "index_template.html"
	}
	if s.Templates.Article == "" {
		s.Templates.Article = "article_template.html"
	}
	if s.Output.BaseDirectory == "" {
		s.Output.BaseDirectory = "."
	}
	if s.Output.Preserve == nil {
		s.Output.Preserve = []string{".git"}
	}
	if s.Build.RenderWorkers == 0 {
		s.Build.RenderWorkers = 4
	}
	if s.Publish.Method == "" {
		s.Publish.Method = PublishMethodExec
	}
	if s.Publish.GitBinary == "" {
		s.Publish.GitBinary = "git"
	}
	if s.Publish.Remote == "" {
		s.Publish.Remote = "origin"
	}
	if s.Publish.Branch == "" {
		s.Publish.Branch = "master"
	}
	if s.Publish.Timeout == "" {
		s.Publish.Timeout = "2m"
	}
	if s.Watch.Backend == "" {
		s.Watch.Backend = WatchBackendFSNotify
	}
	if s.Watch.PollInterval == "" {
		s.Watch.PollInterval = "500ms"
	}
	if s.Watch.QuietWindow == "" {
		s.Watch.QuietWindow = "300ms"
	}
	if s.Watch.MaxDelay == "" {
		s.Watch.MaxDelay = "5s"
	}
	if s.Notify.Subject == "" {
		s.Notify.Subject = "sitegen.builds"
	}
}

func mustDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

// Init writes an example settings file.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return ferrors.SettingsError("settings file already exists (use --force to overwrite)").
			WithContext("path", path).
			Build()
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}
	return nil
}
