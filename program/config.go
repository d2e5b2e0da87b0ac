package program

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// defaultMaxChildDepth bounds recursive child-contract analysis (spec.md §5,
// §9: "suggested: 8"; never guess a larger value without evidence).
const defaultMaxChildDepth = 8

// Config configures one Analyze invocation. The zero value is valid: a zero
// MaxChildDepth is treated as defaultMaxChildDepth.
type Config struct {
	// MaxChildDepth bounds recursive child-program discovery (spec.md §4.5,
	// §9). Zero means defaultMaxChildDepth; negative is a configuration
	// error.
	MaxChildDepth int
}

func (c Config) normalize() Config {
	if c.MaxChildDepth == 0 {
		c.MaxChildDepth = defaultMaxChildDepth
	}
	return c
}

// LoadConfig reads a TOML-encoded Config from path, grounded on the pack's
// go-ethereum-style use of github.com/BurntSushi/toml for node/genesis
// configuration. This is optional sugar: Analyze never performs I/O itself.
func LoadConfig(path string) (Config, error) {
	var c Config
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return Config{}, errors.Wrapf(err, "program: loading config from %s", path)
	}
	return c, nil
}
