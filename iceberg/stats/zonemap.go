package stats

import "github.com/dot-do/iceberg-sub003/iceberg"

// Operator is a predicate comparison operator usable against a zone map.
type Operator int

const (
	OpEQ Operator = iota
	OpNE
	OpLT
	OpLE
	OpGT
	OpGE
)

// CanSkip reports whether a file whose column range is [min, max] can be
// skipped (pruned) for the predicate `column op value`, per §4.3.
func CanSkip(t iceberg.Type, op Operator, min, max, value any) bool {
	switch op {
	case OpEQ:
		return iceberg.Compare(t, value, min) < 0 || iceberg.Compare(t, value, max) > 0
	case OpNE:
		return iceberg.Compare(t, min, max) == 0 && iceberg.Compare(t, min, value) == 0
	case OpLT:
		return iceberg.Compare(t, min, value) >= 0
	case OpLE:
		return iceberg.Compare(t, min, value) > 0
	case OpGT:
		return iceberg.Compare(t, max, value) <= 0
	case OpGE:
		return iceberg.Compare(t, max, value) < 0
	default:
		return false
	}
}
