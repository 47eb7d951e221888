// Package iceberg implements the table-format's type algebra, schema model,
// partition specs, sort orders, and the data-model structs (data files,
// manifest entries, manifest files, snapshots, refs, table metadata) shared
// by every other package in this module.
package iceberg

import (
	"fmt"
	"regexp"
)

// TypeID discriminates the primitive/complex type universe.
type TypeID int

const (
	TypeBoolean TypeID = iota
	TypeInt
	TypeLong
	TypeFloat
	TypeDouble
	TypeDecimal
	TypeDate
	TypeTime
	TypeTimestamp
	TypeTimestampTZ
	TypeTimestampNs
	TypeTimestampTZNs
	TypeString
	TypeUUID
	TypeFixed
	TypeBinary
	TypeVariant
	TypeUnknown
	TypeGeometry
	TypeGeography
	TypeStruct
	TypeList
	TypeMap
)

// GeoAlgorithm is the edge-interpolation algorithm for geography values.
type GeoAlgorithm string

const (
	AlgSpherical GeoAlgorithm = "spherical"
	AlgVincenty  GeoAlgorithm = "vincenty"
	AlgThomas    GeoAlgorithm = "thomas"
	AlgAndoyer   GeoAlgorithm = "andoyer"
	AlgKarney    GeoAlgorithm = "karney"
)

const (
	DefaultCRS       = "OGC:CRS84"
	DefaultAlgorithm = AlgSpherical
)

// Type is the common interface implemented by every primitive and complex
// type value. Complex types (StructType, ListType, MapType) additionally
// implement NestedType.
type Type interface {
	ID() TypeID
	String() string
	Equals(other Type) bool
}

// primitiveType is a Type with no nested fields.
type primitiveType struct {
	id  TypeID
	str string
}

func (p primitiveType) ID() TypeID     { return p.id }
func (p primitiveType) String() string { return p.str }
func (p primitiveType) Equals(other Type) bool {
	o, ok := other.(primitiveType)
	return ok && o.id == p.id
}

var (
	BooleanType      Type = primitiveType{TypeBoolean, "boolean"}
	IntType          Type = primitiveType{TypeInt, "int"}
	LongType         Type = primitiveType{TypeLong, "long"}
	FloatType        Type = primitiveType{TypeFloat, "float"}
	DoubleType       Type = primitiveType{TypeDouble, "double"}
	DateType         Type = primitiveType{TypeDate, "date"}
	TimeType         Type = primitiveType{TypeTime, "time"}
	TimestampType    Type = primitiveType{TypeTimestamp, "timestamp"}
	TimestampTZType  Type = primitiveType{TypeTimestampTZ, "timestamptz"}
	TimestampNsType  Type = primitiveType{TypeTimestampNs, "timestamp_ns"}
	TimestampTZNs    Type = primitiveType{TypeTimestampTZNs, "timestamptz_ns"}
	StringType       Type = primitiveType{TypeString, "string"}
	UUIDType         Type = primitiveType{TypeUUID, "uuid"}
	BinaryType       Type = primitiveType{TypeBinary, "binary"}
	VariantType      Type = primitiveType{TypeVariant, "variant"}
	UnknownType      Type = primitiveType{TypeUnknown, "unknown"}
)

// DecimalType is a fixed-point decimal with precision and scale.
type DecimalType struct {
	Precision int
	Scale     int
}

func (d DecimalType) ID() TypeID     { return TypeDecimal }
func (d DecimalType) String() string { return fmt.Sprintf("decimal(%d, %d)", d.Precision, d.Scale) }
func (d DecimalType) Equals(other Type) bool {
	o, ok := other.(DecimalType)
	return ok && o.Precision == d.Precision && o.Scale == d.Scale
}

// FixedType is a fixed-length byte array.
type FixedType struct{ Length int }

func (f FixedType) ID() TypeID     { return TypeFixed }
func (f FixedType) String() string { return fmt.Sprintf("fixed[%d]", f.Length) }
func (f FixedType) Equals(other Type) bool {
	o, ok := other.(FixedType)
	return ok && o.Length == f.Length
}

// GeometryType is a geospatial planar type parameterized by CRS.
type GeometryType struct{ CRS string }

func (g GeometryType) ID() TypeID     { return TypeGeometry }
func (g GeometryType) String() string { return fmt.Sprintf("geometry(%s)", g.CRS) }
func (g GeometryType) Equals(other Type) bool {
	o, ok := other.(GeometryType)
	return ok && o.CRS == g.CRS
}

// GeographyType is a geospatial spherical type parameterized by CRS and edge
// interpolation algorithm.
type GeographyType struct {
	CRS       string
	Algorithm GeoAlgorithm
}

func (g GeographyType) ID() TypeID { return TypeGeography }
func (g GeographyType) String() string {
	return fmt.Sprintf("geography(%s, %s)", g.CRS, g.Algorithm)
}
func (g GeographyType) Equals(other Type) bool {
	o, ok := other.(GeographyType)
	return ok && o.CRS == g.CRS && o.Algorithm == g.Algorithm
}

// NewGeometryType returns a GeometryType defaulting CRS to DefaultCRS.
func NewGeometryType(crs string) GeometryType {
	if crs == "" {
		crs = DefaultCRS
	}
	return GeometryType{CRS: crs}
}

// NewGeographyType returns a GeographyType defaulting CRS and algorithm.
func NewGeographyType(crs string, alg GeoAlgorithm) GeographyType {
	if crs == "" {
		crs = DefaultCRS
	}
	if alg == "" {
		alg = DefaultAlgorithm
	}
	return GeographyType{CRS: crs, Algorithm: alg}
}

var geoAlgPattern = regexp.MustCompile(`^(spherical|vincenty|thomas|andoyer|karney)$`)

// ValidGeoAlgorithm reports whether alg is one of the recognized edge
// interpolation algorithms.
func ValidGeoAlgorithm(alg string) bool { return geoAlgPattern.MatchString(alg) }

// IsGeospatial reports whether t is a geometry or geography type.
func IsGeospatial(t Type) bool {
	return t.ID() == TypeGeometry || t.ID() == TypeGeography
}

// IsFloatingPoint reports whether t is float or double.
func IsFloatingPoint(t Type) bool {
	return t.ID() == TypeFloat || t.ID() == TypeDouble
}

// IsNumeric reports whether t supports ordered numeric comparison.
func IsNumeric(t Type) bool {
	switch t.ID() {
	case TypeInt, TypeLong, TypeFloat, TypeDouble, TypeDecimal,
		TypeDate, TypeTime, TypeTimestamp, TypeTimestampTZ, TypeTimestampNs, TypeTimestampTZNs:
		return true
	default:
		return false
	}
}

// RequiresNullDefault reports whether a field of type t must carry a null
// default per the unknown/variant/geospatial constraint.
func RequiresNullDefault(t Type) bool {
	switch t.ID() {
	case TypeUnknown, TypeVariant, TypeGeometry, TypeGeography:
		return true
	default:
		return false
	}
}

// NestedType is implemented by struct/list/map types, which carry child
// fields with their own stable ids.
type NestedType interface {
	Type
	Fields() []NestedField
}
