package codec

import (
	"os"
	"sync/atomic"
)

// DefaultRecursionLimit bounds message nesting while decoding.
const DefaultRecursionLimit = 100

// Config controls optional encode/decode behaviors.
// The zero value plus DefaultRecursionLimit matches the defaults.
type Config struct {
	// Deterministic: when true, map entries are emitted sorted by key in every
	// format. When false (default), map order follows Go map iteration.
	Deterministic bool

	// JSONUseProtoNames: when true, JSON output uses the .proto field names
	// instead of their lowerCamelCase JSON names.
	JSONUseProtoNames bool

	// JSONEnumsAsInts: when true, JSON output writes enum numbers even when a
	// symbolic name exists.
	JSONEnumsAsInts bool

	// IgnoreUnknownFields: when true, JSON decoding skips members that name no
	// known field and enum strings that name no known value. When false
	// (default), both are errors.
	IgnoreUnknownFields bool

	// DiscardUnknownFields: when true, binary decoding drops fields the message
	// does not consume instead of keeping them in its unknown field storage.
	DiscardUnknownFields bool

	// RecursionLimit caps message nesting depth during decode. Zero means
	// DefaultRecursionLimit.
	RecursionLimit int
}

func (c Config) recursionLimit() int {
	if c.RecursionLimit <= 0 {
		return DefaultRecursionLimit
	}
	return c.RecursionLimit
}

var config atomic.Pointer[Config]

// SetConfig sets the package-wide configuration. Visitors and decoders copy
// the configuration when they are created.
func SetConfig(c Config) { config.Store(&c) }

// CurrentConfig returns the package-wide configuration.
func CurrentConfig() Config {
	if c := config.Load(); c != nil {
		return *c
	}
	return Config{}
}

func init() {
	// Optional env toggles for test harnesses; defaults remain unchanged if unset.
	var c Config
	if envBool("PROTORUN_DETERMINISTIC") {
		c.Deterministic = true
	}
	if envBool("PROTORUN_JSON_PROTO_NAMES") {
		c.JSONUseProtoNames = true
	}
	if envBool("PROTORUN_JSON_ENUMS_AS_INTS") {
		c.JSONEnumsAsInts = true
	}
	if envBool("PROTORUN_IGNORE_UNKNOWN_FIELDS") {
		c.IgnoreUnknownFields = true
	}
	if envBool("PROTORUN_DISCARD_UNKNOWN") {
		c.DiscardUnknownFields = true
	}
	SetConfig(c)
}

func envBool(name string) bool {
	v := os.Getenv(name)
	return v == "1" || v == "true"
}
