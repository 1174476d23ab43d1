package contract

import "errors"

var (
	// ErrModelInvoke covers transport failures and unusable model output.
	ErrModelInvoke = errors.New("model invoke failed")
	// ErrSchemaViolation marks a plan that parsed but failed structural checks.
	ErrSchemaViolation = errors.New("route plan violates schema")
	ErrPromptMissing   = errors.New("required prompt is missing")
	ErrValidation      = errors.New("validation failed")
)

// FailureKind labels err for traces: "schema_violation", "model_invoke",
// "validation" or "unknown".
func FailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSchemaViolation):
		return "schema_violation"
	case errors.Is(err, ErrModelInvoke):
		return "model_invoke"
	case errors.Is(err, ErrValidation):
		return "validation"
	default:
		return "unknown"
	}
}
