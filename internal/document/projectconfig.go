package document

import (
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const projectConfigFileName = ".gcode.toml"

// projectConfig is the schema of a workspace's .gcode.toml, resolved
// as the third precedence layer in §4.4.
type projectConfig struct {
	Project struct {
		DefaultFlavor string `toml:"default_flavor"`
	} `toml:"project"`
}

// findProjectConfigFlavor walks from the document's containing
// directory up to the filesystem root looking for a .gcode.toml, and
// returns the flavor name it names, if any. The search stops at the
// first config file found, whether or not it names a flavor the
// registry recognizes — the caller falls through to the next
// precedence layer on a registry miss.
func findProjectConfigFlavor(uri string) (string, bool) {
	path := filePathFromURI(uri)
	if path == "" {
		return "", false
	}

	dir := filepath.Dir(path)
	for {
		candidate := filepath.Join(dir, projectConfigFileName)
		if cfg, ok := loadProjectConfig(candidate); ok {
			if cfg.Project.DefaultFlavor != "" {
				return cfg.Project.DefaultFlavor, true
			}
			return "", false
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func loadProjectConfig(path string) (projectConfig, bool) {
	var cfg projectConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return projectConfig{}, false
	}
	return cfg, true
}

// filePathFromURI strips a file:// scheme down to a filesystem path.
// URIs the server cannot resolve to a local path (e.g. untitled:
// buffers) yield "", disabling the project-config layer for them.
func filePathFromURI(uri string) string {
	const scheme = "file://"
	if !strings.HasPrefix(uri, scheme) {
		return ""
	}
	return strings.TrimPrefix(uri, scheme)
}
