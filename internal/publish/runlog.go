package publish

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// runLog is the per-product publish log. A nil *runLog discards everything.
type runLog struct {
	path string
	id   string
}

func runLogPath(dir string, channelID int64, messageID int) string {
	return filepath.Join(dir, fmt.Sprintf("publish_%d_%d.log", channelID, messageID))
}

// startRunLog truncates the product's log file and writes a header.
func startRunLog(dir string, channelID int64, messageID int) *runLog {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Error().Err(err).Str("dir", dir).Msg("failed to create publish log dir")
		return nil
	}

	l := &runLog{path: runLogPath(dir, channelID, messageID), id: uuid.NewString()}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		log.Error().Err(err).Str("path", l.path).Msg("failed to start publish log")
		return nil
	}
	defer f.Close()

	fmt.Fprintf(f, "=== Publish Log ===\nRun: %s\nChannel: %d\nMessage: %d\nStarted: %s\n\n",
		l.id, channelID, messageID, time.Now().Format("2006-01-02 15:04:05"))
	return l
}

func (l *runLog) append(prefix, format string, args ...any) {
	if l == nil {
		return
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		log.Error().Err(err).Str("path", l.path).Msg("failed to write publish log")
		return
	}
	defer f.Close()

	fmt.Fprintf(f, "[%s] %s %s\n", time.Now().Format("15:04:05"), prefix, fmt.Sprintf(format, args...))
}

func (l *runLog) Info(format string, args ...any)  { l.append("INFO ", format, args...) }
func (l *runLog) Warn(format string, args ...any)  { l.append("WARN ", format, args...) }
func (l *runLog) Error(format string, args ...any) { l.append("ERROR", format, args...) }
func (l *runLog) API(format string, args ...any)   { l.append("API  ", format, args...) }
