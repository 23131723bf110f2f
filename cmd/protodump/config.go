package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// protodump config.toml key mapping.
type fileConfig struct {
	ProtoDirs     []string `toml:"proto_dirs"`
	Schema        []string `toml:"schema"`
	Message       string   `toml:"message"`
	Input         string   `toml:"input_format"`
	Format        string   `toml:"format"`
	Deterministic bool     `toml:"deterministic"`
	ProtoNames    bool     `toml:"json_proto_names"`
	EnumsAsInts   bool     `toml:"json_enums_as_ints"`
	LogLevel      string   `toml:"log_level"`
	LogFormat     string   `toml:"log_format"`
}

type config struct {
	protoDirs     []string
	schema        []string
	message       string
	input         string
	format        string
	deterministic bool
	protoNames    bool
	enumsAsInts   bool
	logLevel      string
	logFormat     string
}

func defaultConfig() config {
	return config{
		protoDirs: []string{"."},
		input:     "binary",
		format:    "text",
		logLevel:  "warn",
		logFormat: "console",
	}
}

// loadConfig overlays the keys present in the TOML file at path onto cfg.
func loadConfig(path string, cfg config) (config, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return config{}, fmt.Errorf("load protodump config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return config{}, fmt.Errorf("load protodump config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("proto_dirs") {
		cfg.protoDirs = raw.ProtoDirs
	}
	if meta.IsDefined("schema") {
		cfg.schema = raw.Schema
	}
	if meta.IsDefined("message") {
		cfg.message = strings.TrimSpace(raw.Message)
	}
	if meta.IsDefined("input_format") {
		cfg.input = strings.TrimSpace(raw.Input)
	}
	if meta.IsDefined("format") {
		cfg.format = strings.TrimSpace(raw.Format)
	}
	if meta.IsDefined("deterministic") {
		cfg.deterministic = raw.Deterministic
	}
	if meta.IsDefined("json_proto_names") {
		cfg.protoNames = raw.ProtoNames
	}
	if meta.IsDefined("json_enums_as_ints") {
		cfg.enumsAsInts = raw.EnumsAsInts
	}
	if meta.IsDefined("log_level") {
		cfg.logLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("log_format") {
		cfg.logFormat = strings.TrimSpace(raw.LogFormat)
	}
	return cfg, nil
}

func (c config) validate() error {
	switch c.input {
	case "binary", "json":
	default:
		return fmt.Errorf("input format %q: want binary or json", c.input)
	}
	switch c.format {
	case "text", "json", "binary":
	default:
		return fmt.Errorf("output format %q: want text, json or binary", c.format)
	}
	return nil
}
