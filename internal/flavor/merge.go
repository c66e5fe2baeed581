package flavor

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// loadSingleFile decodes one flavor document that is not part of a
// fragment directory.
func loadSingleFile(path string) (Flavor, error) {
	var ff file
	if _, err := toml.DecodeFile(path, &ff); err != nil {
		return Flavor{}, fmt.Errorf("decoding flavor file %s: %w", path, err)
	}
	if ff.Flavor.Name == "" {
		return Flavor{}, fmt.Errorf("flavor file %s: missing [flavor] name", path)
	}
	return fromFile(ff), nil
}

// loadFragmentDir merges every NN-*.toml (or any *.toml) file in dir in
// lexicographic order, per §4.3: later fragments override earlier
// [[commands]] entries with matching names and append otherwise.
// Exactly one fragment must supply the [flavor] block; fragments that
// disagree on the flavor name are a conflict error.
func loadFragmentDir(dir string) (Flavor, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Flavor{}, fmt.Errorf("reading fragment dir %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".toml") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	if len(names) == 0 {
		return Flavor{}, fmt.Errorf("fragment dir %s contains no .toml fragments", dir)
	}

	merged := Flavor{Commands: make(map[string]CommandDef)}
	metaSource := ""

	for _, name := range names {
		path := filepath.Join(dir, name)
		var ff file
		if _, err := toml.DecodeFile(path, &ff); err != nil {
			return Flavor{}, fmt.Errorf("decoding fragment %s: %w", path, err)
		}

		if ff.Flavor.Name != "" {
			if metaSource != "" {
				if !strings.EqualFold(merged.Name, ff.Flavor.Name) {
					return Flavor{}, fmt.Errorf(
						"fragment dir %s: conflicting flavor names %q (from %s) and %q (from %s)",
						dir, merged.Name, metaSource, ff.Flavor.Name, name)
				}
				return Flavor{}, fmt.Errorf(
					"fragment dir %s: both %s and %s supply a [flavor] block", dir, metaSource, name)
			}
			merged.Name = ff.Flavor.Name
			if ff.Flavor.Version != "" {
				merged.Version = ff.Flavor.Version
			}
			if ff.Flavor.Description != "" {
				merged.Description = ff.Flavor.Description
			}
			metaSource = name
		}

		for _, cmd := range ff.Commands {
			merged.Commands[strings.ToUpper(cmd.Name)] = cmd
		}
	}

	if metaSource == "" {
		return Flavor{}, fmt.Errorf("fragment dir %s: no fragment supplies a [flavor] block", dir)
	}

	return merged, nil
}
