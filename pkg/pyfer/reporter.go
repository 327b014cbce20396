package pyfer

import (
	"log"
	"os"
)

// Reporter is the diagnostics sink. UnitCreated is notified once per unit
// and must not block the analysis.
type Reporter interface {
	UnitCreated(u *FunctionUnit)
}

type logReporter struct {
	l *log.Logger
}

// NewLogReporter wraps a standard logger as a Reporter.
func NewLogReporter(l *log.Logger) Reporter {
	return &logReporter{l: l}
}

func (r *logReporter) UnitCreated(u *FunctionUnit) {
	r.l.Printf("unit created: %s", u.Name())
}

// NopReporter discards all notifications.
type NopReporter struct{}

func (NopReporter) UnitCreated(*FunctionUnit) {}

func defaultReporter() Reporter {
	return NewLogReporter(log.New(os.Stderr, "[pyfer] ", log.LstdFlags))
}
