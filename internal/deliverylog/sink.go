package deliverylog

import (
	"context"

	"github.com/blockedby/autorecruit/internal/logger"
	"github.com/blockedby/autorecruit/internal/models"
)

// FileSink re-exports a log to disk after every entry so an interrupted run
// still leaves a complete CSV behind.
type FileSink struct {
	path string
	log  *Log
	lg   *logger.Logger
}

// NewFileSink returns a sink writing l to path.
func NewFileSink(path string, l *Log, lg *logger.Logger) *FileSink {
	if lg == nil {
		lg = logger.Nop()
	}
	return &FileSink{path: path, log: l, lg: lg}
}

// RunStarted writes the (possibly empty) log so the file exists from the start.
func (s *FileSink) RunStarted(_ context.Context, _ models.Run) {
	s.flush()
}

// EntryLogged snapshots the log.
func (s *FileSink) EntryLogged(_ context.Context, _ models.Run, _ models.LogEntry) {
	s.flush()
}

// RunFinished snapshots the final log.
func (s *FileSink) RunFinished(_ context.Context, _ models.Run) {
	s.flush()
}

func (s *FileSink) flush() {
	if err := s.log.ExportFile(s.path); err != nil {
		s.lg.Warn().Err(err).Str("path", s.path).Msg("could not save delivery log")
	}
}
