package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/singer-io/tap-stripe/constants"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

var log zerolog.Logger

func init() {
	// usable before Init for early failures; console only
	log = zerolog.New(console()).With().Timestamp().Logger()
}

func console() zerolog.ConsoleWriter {
	// stdout is reserved for protocol messages
	return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
}

// Init wires the console writer together with a rotating file sink under the
// config folder. Uses CONFIG_FOLDER from viper.
func Init() {
	writers := []io.Writer{console()}

	configFolder := viper.GetString(constants.ConfigFolder)
	if configFolder != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   filepath.Join(configFolder, "logs", "tap-stripe.log"),
			MaxSize:    100, // MB
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		})
	}

	log = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()
}

func Debugf(format string, args ...any) {
	log.Debug().Msgf(format, args...)
}

func Infof(format string, args ...any) {
	log.Info().Msgf(format, args...)
}

func Warnf(format string, args ...any) {
	log.Warn().Msgf(format, args...)
}

func Errorf(format string, args ...any) {
	log.Error().Msgf(format, args...)
}

func Info(args ...any) {
	log.Info().Msg(fmt.Sprint(args...))
}

func Fatal(err error) {
	log.Fatal().Err(err).Send()
}

func Fatalf(format string, args ...any) {
	log.Fatal().Msgf(format, args...)
}
