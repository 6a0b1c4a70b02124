package domain

import "fmt"

// FailureKind distingue los tres tipos de discrepancia.
type FailureKind string

const (
	FailureMismatch FailureKind = "mismatch"
	FailureMissing  FailureKind = "missing"
	FailureSpurious FailureKind = "spurious"
)

// ValidationFailure es una discrepancia entre ground truth y salida observada.
// Expected solo tiene sentido en Mismatch y Missing; Actual en Mismatch y Spurious.
type ValidationFailure struct {
	Kind     FailureKind `json:"kind"`
	Token    string      `json:"token"`
	Expected int         `json:"expected,omitempty"`
	Actual   int         `json:"actual,omitempty"`
}

func MismatchFailure(token string, expected, actual int) ValidationFailure {
	return ValidationFailure{Kind: FailureMismatch, Token: token, Expected: expected, Actual: actual}
}

func MissingFailure(token string, expected int) ValidationFailure {
	return ValidationFailure{Kind: FailureMissing, Token: token, Expected: expected}
}

func SpuriousFailure(token string, actual int) ValidationFailure {
	return ValidationFailure{Kind: FailureSpurious, Token: token, Actual: actual}
}

// String da el formato de una línea del informe de fallos.
func (f ValidationFailure) String() string {
	switch f.Kind {
	case FailureMismatch:
		return fmt.Sprintf("FAIL: %s %d Expected: %d", f.Token, f.Actual, f.Expected)
	case FailureMissing:
		return fmt.Sprintf("FAIL: %s missing, expected count: %d", f.Token, f.Expected)
	case FailureSpurious:
		return fmt.Sprintf("FAIL: Unexpected %s %d", f.Token, f.Actual)
	default:
		return fmt.Sprintf("FAIL: %s (%s)", f.Token, f.Kind)
	}
}
