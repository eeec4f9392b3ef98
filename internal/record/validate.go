package record

import (
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaCUE string

var (
	schemaOnce sync.Once
	schemaVal  cue.Value
	schemaErr  error
)

// schema compiles the embedded deposit schema once per process.
func schema() (cue.Value, error) {
	schemaOnce.Do(func() {
		ctx := cuecontext.New()
		v := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
		if err := v.Err(); err != nil {
			schemaErr = fmt.Errorf("compile deposit schema: %w", err)
			return
		}
		schemaVal = v.LookupPath(cue.ParsePath("#Record"))
		if err := schemaVal.Err(); err != nil {
			schemaErr = fmt.Errorf("lookup #Record: %w", err)
		}
	})
	return schemaVal, schemaErr
}

// Validate checks a deposit payload against the embedded schema and verifies
// that the natural key field is present in custom fields. The natural key is
// the idempotency anchor for the upsert; a record without it could never be
// found again and must not be uploaded.
func Validate(r *Record, keyField string) error {
	if r == nil {
		return fmt.Errorf("nil record")
	}
	if keyField != "" && r.CustomFields.String(keyField) == "" {
		return fmt.Errorf("custom field %q (natural key) is missing or empty", keyField)
	}
	// Checked here as well as in the schema: a nil slice encodes as an
	// absent field, which an open schema treats as incomplete, not invalid.
	if len(r.Metadata.Creators) == 0 {
		return fmt.Errorf("metadata.creators is empty")
	}

	s, err := schema()
	if err != nil {
		return err
	}
	v := s.Context().Encode(r)
	if err := v.Err(); err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	unified := s.Unify(v)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return fmt.Errorf("record schema: %s", cueerrors.Details(err, nil))
	}
	return nil
}
