// Package config loads maple.toml: the compilation target and the pass
// pipeline settings.
package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"maple/internal/target"
)

// Pipeline selects the passes run over every function.
type Pipeline struct {
	Fold          bool
	Lower         bool
	Jobs          int
	BuiltinExpect bool
}

// Config is a fully resolved configuration.
type Config struct {
	Target   target.Target
	Pipeline Pipeline
}

// Default targets x86_64 and runs both passes with GOMAXPROCS workers.
func Default() Config {
	return Config{
		Target: target.X86_64LinuxGNU(),
		Pipeline: Pipeline{
			Fold:          true,
			Lower:         true,
			BuiltinExpect: true,
		},
	}
}

type fileConfig struct {
	Target struct {
		Triple   string `toml:"triple"`
		PtrSize  int    `toml:"ptr-size"`
		PtrAlign int    `toml:"ptr-align"`
	} `toml:"target"`
	Pipeline struct {
		Fold          bool `toml:"fold"`
		Lower         bool `toml:"lower"`
		Jobs          int  `toml:"jobs"`
		BuiltinExpect bool `toml:"builtin-expect"`
	} `toml:"pipeline"`
}

// Load reads a config file. Keys missing from the file keep their Default
// values; a known triple supplies its own pointer size and alignment.
func Load(path string) (Config, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	cfg, err := resolve(raw, meta)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse is Load over an in-memory document.
func Parse(doc string) (Config, error) {
	var raw fileConfig
	meta, err := toml.Decode(doc, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse TOML: %w", err)
	}
	return resolve(raw, meta)
}

func resolve(raw fileConfig, meta toml.MetaData) (Config, error) {
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}

	cfg := Default()
	if meta.IsDefined("target", "triple") {
		triple := strings.TrimSpace(raw.Target.Triple)
		if triple == "" {
			return Config{}, fmt.Errorf("[target].triple is empty")
		}
		if known, ok := target.Known(triple); ok {
			cfg.Target = known
		} else {
			// Unknown triples must spell out their pointer layout.
			if !meta.IsDefined("target", "ptr-size") {
				return Config{}, fmt.Errorf("unknown target %q needs [target].ptr-size", triple)
			}
			cfg.Target = target.Target{Triple: triple}
		}
	}
	if meta.IsDefined("target", "ptr-size") {
		cfg.Target.PtrSize = raw.Target.PtrSize
		if !meta.IsDefined("target", "ptr-align") {
			cfg.Target.PtrAlign = raw.Target.PtrSize
		}
	}
	if meta.IsDefined("target", "ptr-align") {
		cfg.Target.PtrAlign = raw.Target.PtrAlign
	}
	if err := cfg.Target.Validate(); err != nil {
		return Config{}, err
	}

	if meta.IsDefined("pipeline", "fold") {
		cfg.Pipeline.Fold = raw.Pipeline.Fold
	}
	if meta.IsDefined("pipeline", "lower") {
		cfg.Pipeline.Lower = raw.Pipeline.Lower
	}
	if meta.IsDefined("pipeline", "builtin-expect") {
		cfg.Pipeline.BuiltinExpect = raw.Pipeline.BuiltinExpect
	}
	if meta.IsDefined("pipeline", "jobs") {
		if raw.Pipeline.Jobs < 0 {
			return Config{}, fmt.Errorf("[pipeline].jobs must not be negative, got %d", raw.Pipeline.Jobs)
		}
		cfg.Pipeline.Jobs = raw.Pipeline.Jobs
	}
	return cfg, nil
}
