package common

import (
	"fmt"
	"path/filepath"
	"strings"
)

// --------------------------------------------------------------------------
// Enumerations
// --------------------------------------------------------------------------

// Engine names, the values match the db.Implementation names
const (
	EngineMemory = "memory"
	EngineFile   = "file"
	EngineBadger = "badger"
)

// Codec names, used by the file engine
const (
	CodecJSON   = "json"
	CodecGOB    = "gob"
	CodecBinary = "binary"
)

// --------------------------------------------------------------------------
// Configuration struct
// --------------------------------------------------------------------------

// Config is the application scoped context of all preference stores of a process
type Config struct {
	// Storage
	DataDir string // Root directory, stores live in DataDir/datastore
	Engine  string // One of EngineMemory, EngineFile, EngineBadger
	Codec   string // Codec of the file engine (json, gob, binary)

	// Logging configuration
	LogLevel string
}

// DefaultConfig returns a config using file stores with the binary codec in ./data
func DefaultConfig() Config {
	return Config{
		DataDir:  "data",
		Engine:   EngineFile,
		Codec:    CodecBinary,
		LogLevel: "info",
	}
}

// Validate checks the config for invalid values
func (c *Config) Validate() error {
	switch c.Engine {
	case EngineMemory:
	case EngineFile, EngineBadger:
		if c.DataDir == "" {
			return fmt.Errorf("engine %s requires a data directory", c.Engine)
		}
	default:
		return fmt.Errorf("invalid engine %q. must be one of %s, %s, %s", c.Engine, EngineMemory, EngineFile, EngineBadger)
	}

	if c.Engine == EngineFile {
		switch c.Codec {
		case CodecJSON, CodecGOB, CodecBinary:
		default:
			return fmt.Errorf("invalid codec %q. must be one of %s, %s, %s", c.Codec, CodecJSON, CodecGOB, CodecBinary)
		}
	}

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// String returns a formatted string representation of the configuration
func (c *Config) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// Storage
	addSection("Storage")
	addField("Engine", c.Engine)
	if c.Engine != EngineMemory {
		dir := c.DataDir
		if abs, err := filepath.Abs(dir); err == nil {
			dir = abs
		}
		addField("Data Directory", dir)
	}
	if c.Engine == EngineFile {
		addField("Codec", c.Codec)
	}

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}
