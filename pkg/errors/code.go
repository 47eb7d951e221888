// Package errors provides a package-prefixed error-code taxonomy shared by
// every component of the core: a validated Code, an *Error carrying
// structured context, and predicate helpers for the remediation-oriented
// error groups described by the catalog and commit contracts.
package errors

import (
	"fmt"
	"regexp"
	"strings"
)

// Code is a validated "package.name" error identifier.
type Code struct {
	value string
}

// Common error codes shared across packages.
var (
	CommonInternal      = MustNewCode("common.internal")
	CommonNotFound      = MustNewCode("common.not_found")
	CommonValidation    = MustNewCode("common.validation")
	CommonConflict      = MustNewCode("common.conflict")
	CommonUnsupported   = MustNewCode("common.unsupported")
	CommonInvalidInput  = MustNewCode("common.invalid_input")
	CommonAlreadyExists = MustNewCode("common.already_exists")
	CommonNotEmpty      = MustNewCode("common.not_empty")
)

var codeRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*\.[a-z][a-z0-9_]*$`)

// NewCode validates and creates a Code.
func NewCode(s string) (Code, error) {
	if !codeRegex.MatchString(s) {
		return Code{}, fmt.Errorf("invalid code format %q: must be 'package.name' (lowercase, underscores, dots only)", s)
	}
	return Code{value: s}, nil
}

// MustNewCode creates a Code or panics. Used for package-level var
// declarations where the literal is known at compile time.
func MustNewCode(s string) Code {
	code, err := NewCode(s)
	if err != nil {
		panic(err)
	}
	return code
}

func (c Code) String() string { return c.value }

// Package returns the prefix before the first dot.
func (c Code) Package() string {
	if idx := strings.Index(c.value, "."); idx != -1 {
		return c.value[:idx]
	}
	return ""
}

// Name returns the suffix after the first dot.
func (c Code) Name() string {
	if idx := strings.Index(c.value, "."); idx != -1 {
		return c.value[idx+1:]
	}
	return c.value
}

// Equals reports whether two codes are the same.
func (c Code) Equals(other Code) bool {
	return c.value == other.value
}
