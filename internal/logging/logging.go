package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"ludo-server/internal/config"
)

var writer io.Writer = os.Stdout

// Writer returns the destination Init configured; the HTTP request logger
// writes to the same place.
func Writer() io.Writer {
	return writer
}

// Init configures the global zerolog logger. When cfg.File is set, output is
// mirrored to a rotating file so a runaway table does not fill the disk.
func Init(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var output io.Writer = os.Stdout
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: os.Stdout}
	}
	if cfg.File != "" {
		if fw, err := newRotatingWriter(cfg.File, cfg.MaxMB); err == nil {
			output = io.MultiWriter(output, fw)
		}
	}

	writer = output
	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(output).With().Timestamp().Logger()
	if cfg.SampleEvery > 1 {
		logger = logger.Sample(&zerolog.BasicSampler{N: uint32(cfg.SampleEvery)})
	}
	log.Logger = logger
}
