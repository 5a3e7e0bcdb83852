package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// stage times one step of a command (scanning, enrichment) and logs its
// outcome as structured fields.
type stage struct {
	logger *log.Logger
	name   string
	start  time.Time
	now    func() time.Time
}

func startStage(l *log.Logger, name string) *stage {
	return &stage{logger: l, name: name, start: time.Now(), now: time.Now}
}

// done logs the stage name with keyvals and the elapsed time, rounded to
// the millisecond.
func (s *stage) done(keyvals ...any) {
	elapsed := s.now().Sub(s.start).Round(time.Millisecond)
	s.logger.Info(s.name, append(keyvals, "elapsed", elapsed)...)
}

type ctxKey struct{}

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// loggerFromContext falls back to log.Default when ctx carries no logger.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
