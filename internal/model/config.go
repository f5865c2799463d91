package model

type Config struct {
	Tasks   TasksConfig   `yaml:"tasks"`
	Legacy  LegacyConfig  `yaml:"legacy"`
	Watcher WatcherConfig `yaml:"watcher"`
	Logging LoggingConfig `yaml:"logging"`
}

type TasksConfig struct {
	// Path to the JSONL task file, relative to the workspace dir when not absolute.
	Path string `yaml:"path"`
}

type LegacyConfig struct {
	// SQLitePath points at the flat key-value preference database left behind
	// by the previous installation. Empty means no legacy source.
	SQLitePath string `yaml:"sqlite_path,omitempty"`
	// FilePath points at a flat YAML key-value file; used when SQLitePath is empty.
	FilePath string `yaml:"file_path,omitempty"`
}

type WatcherConfig struct {
	DebounceMs int `yaml:"debounce_ms"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

func DefaultConfig() Config {
	return Config{
		Tasks:   TasksConfig{Path: "tasks/tasks.jsonl"},
		Watcher: WatcherConfig{DebounceMs: 200},
		Logging: LoggingConfig{Level: "info"},
	}
}
