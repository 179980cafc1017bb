package logger

import (
	"os"
	"time"
)

const defaultTimestampFormat = time.RFC3339

// LoggerConfig provides configuration for a logger.
type LoggerConfig struct {
	Level      string
	Formatter  string
	OutputFile string
	TextFormat *TextFormatConfig
	JSONFormat *JSONFormatConfig
}

// TextFormatConfig provides configuration for the text log formatter.
type TextFormatConfig struct {
	ForceColors      bool
	DisableColors    bool
	DisableTimestamp bool
	FullTimestamp    bool
	TimestampFormat  string
	DisableSorting   bool
	Indent           string
}

// JSONFormatConfig provides configuration for the JSON log formatter.
type JSONFormatConfig struct {
	DisableTimestamp bool
	TimestampFormat  string
}

// DefaultConfig returns a LoggerConfig instance with default values.
func DefaultConfig() *LoggerConfig {
	return &LoggerConfig{
		Level:     "info",
		Formatter: "text",
		TextFormat: &TextFormatConfig{
			FullTimestamp:   true,
			TimestampFormat: defaultTimestampFormat,
		},
	}
}

// DebugConfig returns a LoggerConfig instance with default values useful
// for testing/debugging.
func DebugConfig() *LoggerConfig {
	return &LoggerConfig{
		Level:     "debug",
		Formatter: "text",
		TextFormat: &TextFormatConfig{
			ForceColors:     true,
			FullTimestamp:   true,
			TimestampFormat: defaultTimestampFormat,
		},
	}
}

// Configure configures the logging level, formatter and output path.
func (l *Logger) Configure(conf *LoggerConfig) {
	if conf == nil {
		conf = DefaultConfig()
	}
	l.SetLevel(conf.Level)

	switch conf.Formatter {
	case "json":
		l.SetFormatter(&jsonFormatter{conf: conf.JSONFormat})

	// Default to text
	default:
		tf := conf.TextFormat
		if tf == nil {
			tf = DefaultConfig().TextFormat
		}
		l.SetFormatter(&textFormatter{
			TextFormatConfig: *tf,
			json:             jsonFormatter{conf: conf.JSONFormat},
		})
	}

	if conf.OutputFile != "" {
		logFile, err := os.OpenFile(
			conf.OutputFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666,
		)
		if err != nil {
			l.Error("Can't open log output file", "output", conf.OutputFile)
		} else {
			l.SetOutput(logFile)
		}
	}
}
