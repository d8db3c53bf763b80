package factory

import (
	"fmt"
	"strings"

	"github.com/svcwrap/svcwrap/internal/history"
	"github.com/svcwrap/svcwrap/internal/history/postgres"
	"github.com/svcwrap/svcwrap/internal/history/sqlite"
)

// NewSink builds a history sink from a DSN. The backend is chosen by the
// scheme; a bare path is treated as a SQLite file.
func NewSink(dsn string) (history.Sink, error) {
	d := strings.TrimSpace(dsn)
	lower := strings.ToLower(d)
	switch {
	case strings.HasPrefix(lower, "sqlite://"):
		return sqlite.New(d)
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return postgres.New(d)
	case d == "":
		return nil, fmt.Errorf("empty history DSN")
	case !strings.Contains(d, "://"):
		return sqlite.New(d)
	default:
		return nil, fmt.Errorf("unsupported history DSN: %s", dsn)
	}
}
