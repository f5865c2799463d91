// Package setup handles taskprefs workspace initialization.
package setup

import (
	"fmt"
	"os"
	"path/filepath"

	yamlv3 "gopkg.in/yaml.v3"

	"github.com/hmiyake/taskprefs/internal/model"
	atomicyaml "github.com/hmiyake/taskprefs/internal/yaml"
)

// Run initializes the workspace directory structure. It is idempotent:
// existing directories and files are left untouched, so re-running after a
// partial init completes the skeleton without clobbering user state.
func Run(workspaceDir string) error {
	absDir, err := filepath.Abs(workspaceDir)
	if err != nil {
		return fmt.Errorf("resolve workspace dir: %w", err)
	}

	dirs := []string{
		"prefs",
		"tasks",
		"locks",
		"logs",
		"quarantine",
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(absDir, d), 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", d, err)
		}
	}

	configPath := filepath.Join(absDir, "config.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := model.DefaultConfig()
		if err := atomicyaml.AtomicWrite(configPath, &cfg); err != nil {
			return fmt.Errorf("write config.yaml: %w", err)
		}
	}

	tasksPath := filepath.Join(absDir, "tasks", "tasks.jsonl")
	if _, err := os.Stat(tasksPath); os.IsNotExist(err) {
		if err := os.WriteFile(tasksPath, nil, 0644); err != nil {
			return fmt.Errorf("create tasks.jsonl: %w", err)
		}
	}

	return nil
}

// LoadConfig reads config.yaml from the workspace, falling back to defaults
// when the file does not exist.
func LoadConfig(workspaceDir string) (model.Config, error) {
	cfg := model.DefaultConfig()

	content, err := os.ReadFile(filepath.Join(workspaceDir, "config.yaml"))
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config.yaml: %w", err)
	}
	if err := yamlv3.Unmarshal(content, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config.yaml: %w", err)
	}
	return cfg, nil
}

// TasksPath resolves the configured task file path against the workspace dir.
func TasksPath(workspaceDir string, cfg model.Config) string {
	p := cfg.Tasks.Path
	if p == "" {
		p = model.DefaultConfig().Tasks.Path
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(workspaceDir, p)
}
