package scenario

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaCUE string

// ValidateVariation checks v against the embedded CUE schema.
//
// A cue.Context is not safe for concurrent use, so each call compiles the
// schema in its own context.
func ValidateVariation(v Variation) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile variation schema: %w", err)
	}

	data := ctx.Encode(v)
	if err := data.Err(); err != nil {
		return fmt.Errorf("encode variation: %w", err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Variation")).Unify(data)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("schema: %s", errors.Details(err, nil))
	}
	return nil
}
