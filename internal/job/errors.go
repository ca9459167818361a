package job

import "errors"

// Sentinel errors for every error kind this package's operations can
// return. Call sites wrap these with fmt.Errorf("...: %w", ...) so callers
// can still match with errors.Is.
var (
	ErrDuplicateJobName      = errors.New("job: duplicate job name")
	ErrInvalidJob            = errors.New("job: invalid job")
	ErrBadJobFunction        = errors.New("job: bad job function")
	ErrOverrideNotApplicable = errors.New("job: override not applicable")
	ErrNoCompatibleRunner    = errors.New("job: no compatible runner available")
	ErrScopeArityMismatch    = errors.New("job: scope arity mismatch")
	ErrScopeKeyCollision     = errors.New("job: scope key collision")
)
