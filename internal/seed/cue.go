package seed

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaSource []byte

// FixtureError reports the first problem CUE found in a fixture, with its
// position when one is known.
type FixtureError struct {
	Message string
	Pos     string
}

func (e *FixtureError) Error() string {
	if e.Pos != "" {
		return fmt.Sprintf("%s: %s", e.Pos, e.Message)
	}
	return e.Message
}

// ParseCUE decodes a CUE fixture after unifying it with the fixture schema.
// filename is only used in error positions.
func ParseCUE(filename string, data []byte) (*Fixture, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("fixture schema: %w", err)
	}

	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	v = schema.LookupPath(cue.ParsePath("#Fixture")).Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var fx Fixture
	if err := v.Decode(&fx); err != nil {
		return nil, fmt.Errorf("failed to decode CUE fixture: %w", err)
	}
	return &fx, nil
}

func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &FixtureError{Message: err.Error()}
	}

	first := errs[0]
	fe := &FixtureError{Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		fe.Pos = positions[0].String()
	}
	return fe
}
