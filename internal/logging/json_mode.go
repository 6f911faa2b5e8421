package logging

import (
	"log/slog"
)

// SetupJSONMode initializes logging for commands invoked with --json.
// Search and index results in JSON mode are written to stdout for
// machine consumption, so logging must never touch stdout or stderr:
// any stray write would corrupt the JSON stream for a calling script.
func SetupJSONMode() (func(), error) {
	cfg := Config{
		Level:         "info",
		FilePath:      DefaultLogPath(),
		MaxSizeMB:     10,
		MaxFiles:      5,
		WriteToStderr: false,
	}

	logger, cleanup, err := Setup(cfg)
	if err != nil {
		return nil, err
	}

	slog.SetDefault(logger)
	return cleanup, nil
}
