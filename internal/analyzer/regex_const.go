package analyzer

import (
	"github.com/clj-lang/clj/internal/regex"
	"github.com/clj-lang/clj/internal/value"
)

// compileConstantRegex compiles a #"..." literal to a Pattern constant at
// analysis time, so a malformed pattern is an analysis-stage error rather
// than a runtime surprise.
func compileConstantRegex(src string) (value.Value, error) {
	p, err := regex.Compile(src)
	if err != nil {
		return nil, err
	}
	return p, nil
}
