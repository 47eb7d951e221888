package table

import "github.com/dot-do/iceberg-sub003/iceberg"

// FieldChange describes how one field differs between two schema versions.
type FieldChange struct {
	FieldID            int
	Name               string
	TypeChanged        bool
	NullabilityChanged bool
	DocChanged         bool
}

// SchemaComparison is the result of diffing two schemas by field id.
type SchemaComparison struct {
	Added   []iceberg.NestedField
	Removed []iceberg.NestedField
	Renamed map[int][2]string // field id -> [oldName, newName]
	Changed []FieldChange
}

// CompareSchemas diffs from against to by field id, so a rename (same id,
// different name) is reported distinctly from an add+drop pair.
func CompareSchemas(from, to *iceberg.Schema) SchemaComparison {
	cmp := SchemaComparison{Renamed: map[int][2]string{}}
	fromByID := map[int]iceberg.NestedField{}
	for _, f := range from.Struct.FieldList {
		fromByID[f.ID] = f
	}
	toByID := map[int]iceberg.NestedField{}
	for _, f := range to.Struct.FieldList {
		toByID[f.ID] = f
	}

	for id, tf := range toByID {
		ff, ok := fromByID[id]
		if !ok {
			cmp.Added = append(cmp.Added, tf)
			continue
		}
		var change FieldChange
		changed := false
		if ff.Name != tf.Name {
			cmp.Renamed[id] = [2]string{ff.Name, tf.Name}
		}
		if !ff.Type.Equals(tf.Type) {
			change.TypeChanged = true
			changed = true
		}
		if ff.Required != tf.Required {
			change.NullabilityChanged = true
			changed = true
		}
		if ff.Doc != tf.Doc {
			change.DocChanged = true
			changed = true
		}
		if changed {
			change.FieldID = id
			change.Name = tf.Name
			cmp.Changed = append(cmp.Changed, change)
		}
	}
	for id, ff := range fromByID {
		if _, ok := toByID[id]; !ok {
			cmp.Removed = append(cmp.Removed, ff)
		}
	}
	return cmp
}

// IsBackwardCompatible reports whether readers of `to` can still read data
// written under `from`: no field may be removed or narrowed, and no
// optional-to-required promotion may occur.
func IsBackwardCompatible(from, to *iceberg.Schema) bool {
	cmp := CompareSchemas(from, to)
	if len(cmp.Removed) > 0 {
		return false
	}
	for _, c := range cmp.Changed {
		if c.NullabilityChanged {
			if f, ok := to.FieldByID(c.FieldID); ok && f.Required {
				return false
			}
		}
		if c.TypeChanged {
			ff, _ := from.FieldByID(c.FieldID)
			tf, _ := to.FieldByID(c.FieldID)
			if !iceberg.PromotionAllowed(ff.Type, tf.Type) {
				return false
			}
		}
	}
	return true
}

// IsForwardCompatible reports whether writers using `from` can still write
// data valid under `to`: every field required in `to` must exist, with a
// compatible type, in `from`.
func IsForwardCompatible(from, to *iceberg.Schema) bool {
	for _, tf := range to.Struct.FieldList {
		ff, ok := from.FieldByID(tf.ID)
		if !ok {
			if tf.Required {
				return false
			}
			continue
		}
		if !ff.Type.Equals(tf.Type) && !iceberg.PromotionAllowed(ff.Type, tf.Type) {
			return false
		}
	}
	return true
}

// IsFullyCompatible reports whether the evolution from `from` to `to` is
// both backward and forward compatible.
func IsFullyCompatible(from, to *iceberg.Schema) bool {
	return IsBackwardCompatible(from, to) && IsForwardCompatible(from, to)
}
