package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/cardsweep/cardsweep/constant"
	"github.com/cardsweep/cardsweep/key"
	"github.com/cardsweep/cardsweep/where"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Section groups keys sharing a prefix.
type Section struct {
	Name  string
	Title string
}

// Sections are listed in the order a harvest consumes them.
var Sections = []Section{
	{"scrape", "Page range and politeness"},
	{"wait", "Readiness budgets"},
	{"retry", "Failure policy"},
	{"output", "Output persistence"},
	{"resume", "Resume"},
	{"extract", "Extraction rules"},
	{"site", "Site topology"},
	{"browser", "Browser engine"},
	{"logs", "Logging"},
	{"icons", "Icons"},
	{"cli", "Command line"},
}

// SectionOf returns the section name of k.
func SectionOf(k string) string {
	name, _, _ := strings.Cut(k, ".")
	return name
}

// IsSection reports whether name is a known section.
func IsSection(name string) bool {
	return lo.ContainsBy(Sections, func(s Section) bool { return s.Name == name })
}

// Fields returns the fields of section sorted by key.
func Fields(section string) []Field {
	fields := lo.Filter(lo.Values(Default), func(f Field, _ int) bool { return SectionOf(f.Key) == section })
	sort.Slice(fields, func(i, j int) bool { return fields[i].Key < fields[j].Key })
	return fields
}

// Path returns the location of the configuration file.
func Path() string {
	return filepath.Join(where.Config(), constant.Cardsweep+".toml")
}

// choices restricts string keys, and every element of list keys, to known values.
var choices = map[string][]string{
	key.BrowserEngine:         {"rod", "http"},
	key.BrowserBlockResources: {"images", "fonts", "media", "stylesheets"},
	key.LogsLevel:             {"panic", "fatal", "error", "warn", "info", "debug", "trace"},
	key.IconsVariant:          {"emoji", "kaomoji", "plain", "squares", "nerd"},
}

// Parse converts raw command line values to the type of the default of k.
func Parse(k string, raw []string) (any, error) {
	field, ok := Default[k]
	if !ok {
		return nil, fmt.Errorf("unknown key %s", k)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%s: value is required", k)
	}

	allowed := func(v string) error {
		if options, ok := choices[k]; ok && !lo.Contains(options, v) {
			return fmt.Errorf("%s: %q is not one of %s", k, v, strings.Join(options, ", "))
		}
		return nil
	}

	switch field.Value.(type) {
	case string:
		return raw[0], allowed(raw[0])
	case int:
		n, err := strconv.Atoi(raw[0])
		if err != nil {
			return nil, fmt.Errorf("%s: invalid integer %q", k, raw[0])
		}
		if n < 0 {
			return nil, fmt.Errorf("%s: must not be negative", k)
		}
		return n, nil
	case bool:
		b, err := strconv.ParseBool(raw[0])
		if err != nil {
			return nil, fmt.Errorf("%s: invalid boolean %q", k, raw[0])
		}
		return b, nil
	case []string:
		values := lo.Compact(lo.FlatMap(raw, func(v string, _ int) []string {
			return lo.Map(strings.Split(v, ","), func(s string, _ int) string { return strings.TrimSpace(s) })
		}))
		for _, v := range values {
			if err := allowed(v); err != nil {
				return nil, err
			}
		}
		return values, nil
	default:
		return nil, fmt.Errorf("%s: unsupported type %T", k, field.Value)
	}
}

// Set assigns raw to k and validates the whole configuration.
// The previous value is restored when validation fails.
func Set(k string, raw []string) (any, error) {
	v, err := Parse(k, raw)
	if err != nil {
		return nil, err
	}

	previous := viper.Get(k)
	viper.Set(k, v)
	if err := Validate(); err != nil {
		viper.Set(k, previous)
		return nil, err
	}
	return v, nil
}

// Reset restores keys to their defaults.
func Reset(keys ...string) {
	for _, k := range keys {
		if field, ok := Default[k]; ok {
			viper.Set(k, field.Value)
		}
	}
}

// Save writes the configuration file, creating it when missing.
func Save() error {
	err := viper.WriteConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return viper.SafeWriteConfig()
	}
	return err
}
