package main

import (
	"os"
	"path/filepath"

	"github.com/sunholo/ailang/internal/manifest"
)

// loadProjectConfig reads ./ailang.yaml if present, returning nil (not an error) when
// the file is simply absent — a bare `ailang` invocation with no project manifest is
// the common case.
func loadProjectConfig() *manifest.ProjectConfig {
	cfg, err := manifest.LoadProjectConfig("ailang.yaml")
	if err != nil {
		return nil
	}
	return cfg
}

// resolveStdlibPath locates the Std crate's source directory: an ailang.yaml
// stdlib_path override wins first, then AILANG_STDLIB, then a "stdlib" directory in
// the parent of the running executable's directory, adapted from the teacher's internal/module/loader.go
// getStdlibPath(). godotenv has already loaded .ailang.env/.env by the time this runs
// (see main.go), so a project-local env file behaves the same as an exported shell var.
func resolveStdlibPath(cfg *manifest.ProjectConfig) string {
	if cfg != nil && cfg.StdlibPath != "" {
		return cfg.StdlibPath
	}
	if stdlib := os.Getenv("AILANG_STDLIB"); stdlib != "" {
		return stdlib
	}
	if exe, err := os.Executable(); err == nil {
		stdlib := filepath.Join(filepath.Dir(exe), "..", "stdlib")
		if info, err := os.Stat(stdlib); err == nil && info.IsDir() {
			return stdlib
		}
	}
	return ""
}
