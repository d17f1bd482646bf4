// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/ini.v1"
)

const (
	FormatVersion      = "0.1.0"
	DefaultDescription = "Cogit repository"

	CompressionNone = "none"
	CompressionZstd = "zstd"

	AlgorithmLinear = "linear"
	AlgorithmLCS    = "lcs"
)

// Config is the repository configuration stored in .cogit/config.
type Config struct {
	Core struct {
		Version     string
		Created     time.Time
		Description string
	}

	Objects struct {
		Compression string // none, zstd
		CacheSize   int
	}

	Log struct {
		Level string // debug, info, warn, error
	}

	Diff struct {
		Context   int
		Algorithm string // linear, lcs
	}

	Embeddings struct {
		Enabled    bool
		Model      string
		BaseURL    string
		Timeout    time.Duration
		QueueSize  int
		Extensions []string
		// APIKey comes from the environment only and is never saved.
		APIKey string
	}

	Server struct {
		Host string
		Port int
	}
}

var defaultExtensions = []string{
	".rs", ".py", ".js", ".ts", ".java", ".cpp", ".c", ".h",
	".go", ".rb", ".php", ".swift", ".kt", ".scala", ".clj",
	".sh", ".bash", ".sql", ".html", ".css", ".json", ".xml",
	".yaml", ".yml", ".toml",
}

// Default returns the configuration written by init.
func Default() *Config {
	var c Config
	c.Core.Version = FormatVersion
	c.Core.Created = time.Now().UTC()
	c.Core.Description = DefaultDescription
	c.Objects.Compression = CompressionNone
	c.Objects.CacheSize = 1000
	c.Log.Level = "warn"
	c.Diff.Context = 3
	c.Diff.Algorithm = AlgorithmLinear
	c.Embeddings.Model = "text-embedding-3-small"
	c.Embeddings.BaseURL = "https://api.openai.com/v1"
	c.Embeddings.Timeout = 30 * time.Second
	c.Embeddings.QueueSize = 16
	c.Embeddings.Extensions = append([]string(nil), defaultExtensions...)
	c.Server.Host = "127.0.0.1"
	c.Server.Port = 7070
	return &c
}

// Load reads the ini file at path. A missing file yields the defaults.
// Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	c := Default()

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			c.applyEnv()
			return c, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	core := file.Section("core")
	c.Core.Version = core.Key("version").MustString(c.Core.Version)
	c.Core.Created = core.Key("created").MustTime(c.Core.Created)
	c.Core.Description = core.Key("description").MustString(c.Core.Description)

	objects := file.Section("objects")
	c.Objects.Compression = objects.Key("compression").In(c.Objects.Compression,
		[]string{CompressionNone, CompressionZstd})
	c.Objects.CacheSize = objects.Key("cache_size").MustInt(c.Objects.CacheSize)

	c.Log.Level = file.Section("log").Key("level").MustString(c.Log.Level)

	diff := file.Section("diff")
	c.Diff.Context = diff.Key("context").MustInt(c.Diff.Context)
	c.Diff.Algorithm = diff.Key("algorithm").In(c.Diff.Algorithm,
		[]string{AlgorithmLinear, AlgorithmLCS})

	emb := file.Section("embeddings")
	c.Embeddings.Enabled = emb.Key("enabled").MustBool(c.Embeddings.Enabled)
	c.Embeddings.Model = emb.Key("model").MustString(c.Embeddings.Model)
	c.Embeddings.BaseURL = emb.Key("base_url").MustString(c.Embeddings.BaseURL)
	c.Embeddings.Timeout = emb.Key("timeout").MustDuration(c.Embeddings.Timeout)
	c.Embeddings.QueueSize = emb.Key("queue_size").MustInt(c.Embeddings.QueueSize)
	if emb.HasKey("extensions") {
		c.Embeddings.Extensions = emb.Key("extensions").Strings(",")
	}

	server := file.Section("server")
	c.Server.Host = server.Key("host").MustString(c.Server.Host)
	c.Server.Port = server.Key("port").MustInt(c.Server.Port)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	c.applyEnv()
	return c, nil
}

func (c *Config) applyEnv() {
	if level := os.Getenv("COGIT_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	for _, name := range []string{"COGIT_OPENAI_API_KEY", "OPENAI_API_KEY"} {
		if key := strings.TrimSpace(os.Getenv(name)); key != "" {
			c.Embeddings.APIKey = key
			break
		}
	}
}

// Validate rejects values the engine cannot work with.
func (c *Config) Validate() error {
	if c.Objects.CacheSize <= 0 {
		return fmt.Errorf("objects.cache_size must be positive, got %d", c.Objects.CacheSize)
	}
	if c.Diff.Context < 0 {
		return fmt.Errorf("diff.context must not be negative, got %d", c.Diff.Context)
	}
	if c.Embeddings.QueueSize <= 0 {
		return fmt.Errorf("embeddings.queue_size must be positive, got %d", c.Embeddings.QueueSize)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}

// Save writes the configuration to path atomically.
func (c *Config) Save(path string) error {
	file := ini.Empty()

	core := file.Section("core")
	core.Key("version").SetValue(c.Core.Version)
	core.Key("created").SetValue(c.Core.Created.UTC().Format(time.RFC3339))
	core.Key("description").SetValue(c.Core.Description)

	objects := file.Section("objects")
	objects.Key("compression").SetValue(c.Objects.Compression)
	objects.Key("cache_size").SetValue(fmt.Sprint(c.Objects.CacheSize))

	file.Section("log").Key("level").SetValue(c.Log.Level)

	diff := file.Section("diff")
	diff.Key("context").SetValue(fmt.Sprint(c.Diff.Context))
	diff.Key("algorithm").SetValue(c.Diff.Algorithm)

	emb := file.Section("embeddings")
	emb.Key("enabled").SetValue(fmt.Sprint(c.Embeddings.Enabled))
	emb.Key("model").SetValue(c.Embeddings.Model)
	emb.Key("base_url").SetValue(c.Embeddings.BaseURL)
	emb.Key("timeout").SetValue(c.Embeddings.Timeout.String())
	emb.Key("queue_size").SetValue(fmt.Sprint(c.Embeddings.QueueSize))
	emb.Key("extensions").SetValue(strings.Join(c.Embeddings.Extensions, ","))

	server := file.Section("server")
	server.Key("host").SetValue(c.Server.Host)
	server.Key("port").SetValue(fmt.Sprint(c.Server.Port))

	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-tmp-*")
	if err != nil {
		return fmt.Errorf("write config: tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := file.WriteTo(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write config: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: close: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: rename: %w", err)
	}
	return nil
}

// Address returns host:port for the API server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
