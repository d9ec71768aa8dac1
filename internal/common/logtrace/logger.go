package logtrace

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func InitLogger() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// SetLogLevel sets the global level. Unknown levels leave the current level untouched.
func SetLogLevel(level string) {
	if level == "" {
		return
	}
	l, err := zerolog.ParseLevel(level)
	if err != nil {
		log.Warn().Str("log_level", level).Msg("unknown log level")
		return
	}
	zerolog.SetGlobalLevel(l)
}
