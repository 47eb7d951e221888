package iceberg

import "fmt"

// NestedField is a named, identified member of a struct, the element of a
// list, or the key/value of a map. Ids are stable across renames and form
// the projection key for schema evolution.
type NestedField struct {
	ID             int
	Name           string
	Type           Type
	Required       bool
	Doc            string
	InitialDefault any // immutable once set
	WriteDefault   any // may evolve
}

func (f NestedField) String() string {
	req := "optional"
	if f.Required {
		req = "required"
	}
	return fmt.Sprintf("%d: %s: %s %s", f.ID, f.Name, req, f.Type)
}

// StructType is an ordered collection of fields.
type StructType struct {
	FieldList []NestedField
}

func (s StructType) ID() TypeID            { return TypeStruct }
func (s StructType) Fields() []NestedField { return s.FieldList }
func (s StructType) String() string {
	return fmt.Sprintf("struct<%d fields>", len(s.FieldList))
}
func (s StructType) Equals(other Type) bool {
	o, ok := other.(StructType)
	if !ok || len(o.FieldList) != len(s.FieldList) {
		return false
	}
	for i, f := range s.FieldList {
		of := o.FieldList[i]
		if f.ID != of.ID || f.Name != of.Name || f.Required != of.Required || !f.Type.Equals(of.Type) {
			return false
		}
	}
	return true
}

// FieldByID returns the field with the given id, if present.
func (s StructType) FieldByID(id int) (NestedField, bool) {
	for _, f := range s.FieldList {
		if f.ID == id {
			return f, true
		}
	}
	return NestedField{}, false
}

// FieldByName returns the field with the given name, if present.
func (s StructType) FieldByName(name string) (NestedField, bool) {
	for _, f := range s.FieldList {
		if f.Name == name {
			return f, true
		}
	}
	return NestedField{}, false
}

// ListType is a homogeneous sequence with an identified element.
type ListType struct {
	ElementID       int
	Element         Type
	ElementRequired bool
}

func (l ListType) ID() TypeID { return TypeList }
func (l ListType) Fields() []NestedField {
	return []NestedField{{ID: l.ElementID, Name: "element", Type: l.Element, Required: l.ElementRequired}}
}
func (l ListType) String() string { return fmt.Sprintf("list<%s>", l.Element) }
func (l ListType) Equals(other Type) bool {
	o, ok := other.(ListType)
	return ok && o.ElementID == l.ElementID && o.ElementRequired == l.ElementRequired && o.Element.Equals(l.Element)
}

// MapType is a key/value association with identified key and value.
type MapType struct {
	KeyID         int
	Key           Type
	ValueID       int
	Value         Type
	ValueRequired bool
}

func (m MapType) ID() TypeID { return TypeMap }
func (m MapType) Fields() []NestedField {
	return []NestedField{
		{ID: m.KeyID, Name: "key", Type: m.Key, Required: true},
		{ID: m.ValueID, Name: "value", Type: m.Value, Required: m.ValueRequired},
	}
}
func (m MapType) String() string { return fmt.Sprintf("map<%s, %s>", m.Key, m.Value) }
func (m MapType) Equals(other Type) bool {
	o, ok := other.(MapType)
	return ok && o.KeyID == m.KeyID && o.ValueID == m.ValueID && o.ValueRequired == m.ValueRequired &&
		o.Key.Equals(m.Key) && o.Value.Equals(m.Value)
}

// Schema is a table's (or view's) top-level struct plus its schema id and
// the set of field ids that together form the table's identifier (primary
// key-like constraint used to forbid dropping identifier fields).
type Schema struct {
	SchemaID      int
	Struct        StructType
	IdentifierIDs []int
}

// NewSchema builds a Schema from an ordered field list.
func NewSchema(schemaID int, fields ...NestedField) *Schema {
	return &Schema{SchemaID: schemaID, Struct: StructType{FieldList: fields}}
}

// FieldByID delegates to the root struct.
func (s *Schema) FieldByID(id int) (NestedField, bool) { return s.Struct.FieldByID(id) }

// FieldByName delegates to the root struct.
func (s *Schema) FieldByName(name string) (NestedField, bool) { return s.Struct.FieldByName(name) }

// HighestFieldID walks the full nested shape and returns the maximum
// assigned field id, used to seed last-column-id.
func (s *Schema) HighestFieldID() int {
	max := 0
	var walk func(t Type)
	walkField := func(f NestedField) {
		if f.ID > max {
			max = f.ID
		}
		walk(f.Type)
	}
	walk = func(t Type) {
		if nt, ok := t.(NestedType); ok {
			for _, f := range nt.Fields() {
				walkField(f)
			}
		}
	}
	for _, f := range s.Struct.FieldList {
		walkField(f)
	}
	return max
}

// IsIdentifierField reports whether fieldID is part of the schema's
// identifier field set.
func (s *Schema) IsIdentifierField(fieldID int) bool {
	for _, id := range s.IdentifierIDs {
		if id == fieldID {
			return true
		}
	}
	return false
}
