package pyfer

import (
	"fmt"

	"pyfer/pkg/token"
)

// EngineError is an internal invariant violation. It is raised by assert and
// recovered at the CLI boundary; it never crosses the analysis API on a
// healthy run.
type EngineError struct {
	msg string
}

func (e *EngineError) Error() string { return e.msg }

func assert(pred bool, msg string) {
	if !pred {
		panic(&EngineError{msg: msg})
	}
}

func assertf(pred bool, format string, args ...any) {
	if !pred {
		panic(&EngineError{msg: fmt.Sprintf(format, args...)})
	}
}

// AnalysisError is one positioned diagnostic. Analysis degrades instead of
// failing, so these come almost entirely from the parser.
type AnalysisError struct {
	Pos token.Position
	Err error
}

func (e AnalysisError) Error() string { return fmt.Sprintf("%s: %v", e.Pos, e.Err) }
