package config

import (
	"context"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment conventions.
const (
	EnvPrefix     = "DIAG_"
	EnvConfigFile = "DIAG_CONFIG"
)

// sections are config groups whose env vars map to nested keys.
var sections = []string{"crm", "smtp", "site"} //nolint:gochecknoglobals // static key mapping

// regionTables maps env var stems to region table keys, e.g.
// DIAG_PIPELINE_GT -> regions.pipelines.GT.
var regionTables = []struct{ stem, key string }{ //nolint:gochecknoglobals // static key mapping
	{"phone_min_digits_", "regions.phone_min_digits."},
	{"phone_prefix_", "regions.phone_prefixes."},
	{"pipeline_", "regions.pipelines."},
	{"stage_", "regions.stages."},
}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if DIAG_CONFIG is set
//  3. env (prefix DIAG_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", EnvKey), nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	// Region maps are decoded empty and merged afterwards so an override
	// such as regions.pipelines.gt replaces the GT default instead of
	// sitting next to it.
	cfg := *base
	cfg.Regions = Regions{Default: base.Regions.Default}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	cfg.Regions = mergeRegions(base.Regions, cfg.Regions)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// EnvKey maps an environment variable name to a koanf key:
//
//	DIAG_ADDR              -> addr
//	DIAG_CRM_API_TOKEN     -> crm.api_token
//	DIAG_STAGE_HN          -> regions.stages.HN
//	DIAG_REGIONS_DEFAULT   -> regions.default
//	DIAG_CONFIG            -> "" (skipped)
func EnvKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if s == "config" {
		return ""
	}
	for _, rt := range regionTables {
		if code, ok := strings.CutPrefix(s, rt.stem); ok && code != "" {
			return rt.key + strings.ToUpper(code)
		}
	}
	if rest, ok := strings.CutPrefix(s, "regions_"); ok {
		return "regions." + rest
	}
	for _, sec := range sections {
		if rest, ok := strings.CutPrefix(s, sec+"_"); ok {
			return sec + "." + rest
		}
	}
	return s
}

// mergeRegions returns base with override applied. Region codes and alias
// labels are upper-cased, and map values of override always win. When an
// override spells the same key in two cases, the upper-case spelling wins.
func mergeRegions(base, override Regions) Regions {
	out := Regions{
		Default:        strings.ToUpper(strings.TrimSpace(override.Default)),
		Aliases:        mergeUpper(base.Aliases, override.Aliases),
		Pipelines:      mergeUpper(base.Pipelines, override.Pipelines),
		Stages:         mergeUpper(base.Stages, override.Stages),
		PhonePrefixes:  mergeUpper(base.PhonePrefixes, override.PhonePrefixes),
		PhoneMinDigits: mergeUpper(base.PhoneMinDigits, override.PhoneMinDigits),
	}
	for label, code := range out.Aliases {
		out.Aliases[label] = strings.ToUpper(code)
	}
	return out
}

func mergeUpper[V any](base, override map[string]V) map[string]V {
	out := make(map[string]V, len(base)+len(override))
	for k, v := range base {
		out[strings.ToUpper(k)] = v
	}
	// Reverse sort puts lower-case spellings first so "GT" lands after "gt".
	keys := slices.Sorted(maps.Keys(override))
	slices.Reverse(keys)
	for _, k := range keys {
		out[strings.ToUpper(k)] = override[k]
	}
	return out
}
