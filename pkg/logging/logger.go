package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/johnstilia/commitscope/pkg/clip"
)

// New creates a logger writing to w. format "json" emits one JSON object per
// line; anything else uses the human-readable console writer.
func New(w io.Writer, level, format string) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}

	logLevel, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		logLevel = zerolog.InfoLevel
	}

	output := w
	if format != "json" {
		output = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	return zerolog.New(output).Level(logLevel).With().Timestamp().Logger()
}

// Section logs a multi-line block under a title, one info event per line.
func Section(log zerolog.Logger, title, body string) {
	SectionAt(log, zerolog.InfoLevel, title, body)
}

// SectionAt is Section at the given level.
func SectionAt(log zerolog.Logger, level zerolog.Level, title, body string) {
	if log.GetLevel() > level {
		return
	}
	log.WithLevel(level).Msgf("[%s]", title)
	start := 0
	for i := 0; i <= len(body); i++ {
		if i == len(body) || body[i] == '\n' {
			line := body[start:i]
			if n := len(line); n > 0 && line[n-1] == '\r' {
				line = line[:n-1]
			}
			log.WithLevel(level).Msg(line)
			start = i + 1
		}
	}
}

// Truncate clips s to at most max bytes without splitting a rune. max <= 0
// disables clipping.
func Truncate(s string, max int) string {
	return clip.Bytes(s, max)
}
