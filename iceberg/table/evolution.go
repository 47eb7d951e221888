package table

import (
	"github.com/dot-do/iceberg-sub003/iceberg"
	pkgerrors "github.com/dot-do/iceberg-sub003/pkg/errors"
)

var (
	codeUnknownColumn  = pkgerrors.MustNewCode("table.unknown_column")
	codeDuplicateField = pkgerrors.MustNewCode("table.duplicate_field")
	codeBadMove        = pkgerrors.MustNewCode("table.bad_move")
)

// FieldIDManager allocates fresh field ids above the table's last-column-id,
// mirroring the incremental id assignment schema evolution requires.
type FieldIDManager struct {
	next int
}

// NewFieldIDManager seeds a manager from the table's current last-column-id.
func NewFieldIDManager(lastColumnID int) *FieldIDManager {
	return &FieldIDManager{next: lastColumnID + 1}
}

// Next returns the next unused field id and advances the counter.
func (m *FieldIDManager) Next() int {
	id := m.next
	m.next++
	return id
}

// SchemaEvolver builds a new Schema (at the schema id passed to Finish) from
// a base schema by applying a sequence of field-preserving edits. Each method
// returns the evolver so edits can be chained; call Finish to obtain the
// resulting schema.
type SchemaEvolver struct {
	base       *iceberg.Schema
	fields     []iceberg.NestedField
	ids        *FieldIDManager
	tableEmpty bool
	err        error
}

// NewSchemaEvolver starts evolving base, allocating new field ids above
// lastColumnID. tableEmpty should be false whenever the table already has
// committed snapshots, so AddColumn can enforce that a required field added
// to a non-empty table carries an initial-default.
func NewSchemaEvolver(base *iceberg.Schema, lastColumnID int, tableEmpty bool) *SchemaEvolver {
	fields := make([]iceberg.NestedField, len(base.Struct.FieldList))
	copy(fields, base.Struct.FieldList)
	return &SchemaEvolver{base: base, fields: fields, ids: NewFieldIDManager(lastColumnID), tableEmpty: tableEmpty}
}

func (e *SchemaEvolver) indexOf(name string) int {
	for i, f := range e.fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

func (e *SchemaEvolver) fail(err error) *SchemaEvolver {
	if e.err == nil {
		e.err = err
	}
	return e
}

// AddColumn appends a new top-level field, allocating a fresh field id. A
// required field added to a non-empty table must carry an initialDefault
// (§4.5); optional fields are always backward-compatible and may omit one.
func (e *SchemaEvolver) AddColumn(name string, typ iceberg.Type, required bool, doc string, initialDefault any) *SchemaEvolver {
	if e.err != nil {
		return e
	}
	if e.indexOf(name) >= 0 {
		return e.fail(pkgerrors.Newf(codeDuplicateField, pkgerrors.KindValidation, "column %q already exists", name))
	}
	if required && !e.tableEmpty && initialDefault == nil {
		return e.fail(pkgerrors.Newf(iceberg.CodeMissingDefault, pkgerrors.KindValidation,
			"column %q: required column added to a non-empty table needs an initial-default", name))
	}
	e.fields = append(e.fields, iceberg.NestedField{
		ID:             e.ids.Next(),
		Name:           name,
		Type:           typ,
		Required:       required,
		Doc:            doc,
		InitialDefault: initialDefault,
	})
	return e
}

// DropColumn removes a top-level field by name.
func (e *SchemaEvolver) DropColumn(name string) *SchemaEvolver {
	if e.err != nil {
		return e
	}
	i := e.indexOf(name)
	if i < 0 {
		return e.fail(pkgerrors.Newf(codeUnknownColumn, pkgerrors.KindNotFound, "column %q not found", name))
	}
	if e.base.IsIdentifierField(e.fields[i].ID) {
		return e.fail(pkgerrors.Newf(iceberg.CodeIdentifierDropped, pkgerrors.KindValidation, "column %q is an identifier field and cannot be dropped", name))
	}
	e.fields = append(e.fields[:i], e.fields[i+1:]...)
	return e
}

// RenameColumn changes a field's name while preserving its id, so that stats,
// partition specs, and sort orders anchored on the field id remain valid.
func (e *SchemaEvolver) RenameColumn(oldName, newName string) *SchemaEvolver {
	if e.err != nil {
		return e
	}
	i := e.indexOf(oldName)
	if i < 0 {
		return e.fail(pkgerrors.Newf(codeUnknownColumn, pkgerrors.KindNotFound, "column %q not found", oldName))
	}
	if newName != oldName && e.indexOf(newName) >= 0 {
		return e.fail(pkgerrors.Newf(codeDuplicateField, pkgerrors.KindValidation, "column %q already exists", newName))
	}
	e.fields[i].Name = newName
	return e
}

// UpdateColumnType widens a field's type, rejecting any change that is not
// an allowed promotion.
func (e *SchemaEvolver) UpdateColumnType(name string, newType iceberg.Type) *SchemaEvolver {
	if e.err != nil {
		return e
	}
	i := e.indexOf(name)
	if i < 0 {
		return e.fail(pkgerrors.Newf(codeUnknownColumn, pkgerrors.KindNotFound, "column %q not found", name))
	}
	old := e.fields[i].Type
	if old.Equals(newType) {
		return e
	}
	if !iceberg.PromotionAllowed(old, newType) {
		return e.fail(pkgerrors.Newf(iceberg.CodeInvalidPromotion, pkgerrors.KindValidation, "column %q: %s cannot be promoted to %s", name, old, newType))
	}
	e.fields[i].Type = newType
	return e
}

// MakeColumnOptional drops a field's required flag.
func (e *SchemaEvolver) MakeColumnOptional(name string) *SchemaEvolver {
	return e.setRequired(name, false)
}

// MakeColumnRequired sets a field's required flag. The caller is responsible
// for ensuring a write-default exists when promoting an optional field to
// required on a non-empty table.
func (e *SchemaEvolver) MakeColumnRequired(name string) *SchemaEvolver {
	return e.setRequired(name, true)
}

func (e *SchemaEvolver) setRequired(name string, required bool) *SchemaEvolver {
	if e.err != nil {
		return e
	}
	i := e.indexOf(name)
	if i < 0 {
		return e.fail(pkgerrors.Newf(codeUnknownColumn, pkgerrors.KindNotFound, "column %q not found", name))
	}
	e.fields[i].Required = required
	return e
}

// UpdateColumnDoc changes a field's documentation string.
func (e *SchemaEvolver) UpdateColumnDoc(name, doc string) *SchemaEvolver {
	if e.err != nil {
		return e
	}
	i := e.indexOf(name)
	if i < 0 {
		return e.fail(pkgerrors.Newf(codeUnknownColumn, pkgerrors.KindNotFound, "column %q not found", name))
	}
	e.fields[i].Doc = doc
	return e
}

// MovePosition names where MoveColumn places a field.
type MovePosition int

const (
	MoveFirst MovePosition = iota
	MoveLast
	MoveBefore
	MoveAfter
)

// MoveColumn repositions a top-level field. ref is required for MoveBefore
// and MoveAfter and names the field to move relative to.
func (e *SchemaEvolver) MoveColumn(name string, pos MovePosition, ref string) *SchemaEvolver {
	if e.err != nil {
		return e
	}
	i := e.indexOf(name)
	if i < 0 {
		return e.fail(pkgerrors.Newf(codeUnknownColumn, pkgerrors.KindNotFound, "column %q not found", name))
	}
	f := e.fields[i]
	rest := append(append([]iceberg.NestedField{}, e.fields[:i]...), e.fields[i+1:]...)

	switch pos {
	case MoveFirst:
		e.fields = append([]iceberg.NestedField{f}, rest...)
	case MoveLast:
		e.fields = append(rest, f)
	case MoveBefore, MoveAfter:
		refIdx := -1
		for j, rf := range rest {
			if rf.Name == ref {
				refIdx = j
				break
			}
		}
		if refIdx < 0 {
			return e.fail(pkgerrors.Newf(codeBadMove, pkgerrors.KindNotFound, "reference column %q not found", ref))
		}
		insertAt := refIdx
		if pos == MoveAfter {
			insertAt = refIdx + 1
		}
		out := make([]iceberg.NestedField, 0, len(rest)+1)
		out = append(out, rest[:insertAt]...)
		out = append(out, f)
		out = append(out, rest[insertAt:]...)
		e.fields = out
	}
	return e
}

// Finish returns the evolved schema at newSchemaID, or the first
// error encountered during the edit chain.
func (e *SchemaEvolver) Finish(newSchemaID int) (*iceberg.Schema, error) {
	if e.err != nil {
		return nil, e.err
	}
	return &iceberg.Schema{
		SchemaID:      newSchemaID,
		Struct:        iceberg.StructType{FieldList: e.fields},
		IdentifierIDs: e.base.IdentifierIDs,
	}, nil
}
