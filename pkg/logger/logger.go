// Package logger provides the package-global structured logger used by
// default throughout this module. Types that need a logger accept one via
// a setter (Demodulator.SetLogger) instead of reaching for this global
// directly, but Log remains
// the sane zero-configuration default for simple callers.
package logger

import (
	"os"

	"github.com/rs/zerolog"
	logger "github.com/rs/zerolog/log"
)

var Log = logger.With().Caller().Logger().Output(zerolog.ConsoleWriter{Out: os.Stderr})

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
}
