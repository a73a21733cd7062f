package models

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

type Config struct {
	Arch string `toml:"arch"`

	// generic fallback behavior
	FallbackArgs    int    `toml:"fallback_args"`
	UnhandledReturn uint64 `toml:"unhandled_return"`
	FaultReturn     uint64 `toml:"fault_return"`

	MaxDepth     int `toml:"max_depth"`
	MaxStringLen int `toml:"max_string_len"`

	// address space layout
	MapBase   uint64 `toml:"map_base"`
	CodeBase  uint64 `toml:"code_base"`
	StackBase uint64 `toml:"stack_base"`
	StackSize uint64 `toml:"stack_size"`

	TraceCalls bool `toml:"trace_calls"`
	Strsize    int  `toml:"strsize"`
	Color      bool `toml:"color"`
	Verbose    bool `toml:"verbose"`
}

func DefaultConfig() *Config {
	return &Config{
		Arch:            "x86",
		FallbackArgs:    4,
		UnhandledReturn: 1,
		FaultReturn:     ^uint64(0),
		MaxDepth:        64,
		MaxStringLen:    0x10000,
		MapBase:         0x10000000,
		CodeBase:        0x400000,
		StackBase:       0x60000000,
		StackSize:       0x100000,
		Strsize:         30,
	}
}

// LoadConfig overlays a TOML file onto the defaults.
func LoadConfig(path string) (*Config, error) {
	c := DefaultConfig()
	if _, err := toml.DecodeFile(path, c); err != nil {
		return nil, errors.Wrapf(err, "failed to load config %s", path)
	}
	return c, nil
}

// ParseConfig is LoadConfig for an in-memory document.
func ParseConfig(data string) (*Config, error) {
	c := DefaultConfig()
	if _, err := toml.Decode(data, c); err != nil {
		return nil, errors.Wrap(err, "failed to parse config")
	}
	return c, nil
}
