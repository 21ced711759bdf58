// Package inference - Typed attributes handed to operator creators.
package inference

import "fmt"

// FieldType is the declared element type of a PluginField.
type FieldType int32

// FieldType values use the engine's numbering.
const (
	FieldTypeFloat16 FieldType = 0
	FieldTypeFloat32 FieldType = 1
	FieldTypeFloat64 FieldType = 2
	FieldTypeInt8    FieldType = 3
	FieldTypeInt16   FieldType = 4
	FieldTypeInt32   FieldType = 5
	FieldTypeChar    FieldType = 6
	FieldTypeDims    FieldType = 7
	FieldTypeUnknown FieldType = 8
)

var fieldTypeNames = map[FieldType]string{
	FieldTypeFloat16: "float16",
	FieldTypeFloat32: "float32",
	FieldTypeFloat64: "float64",
	FieldTypeInt8:    "int8",
	FieldTypeInt16:   "int16",
	FieldTypeInt32:   "int32",
	FieldTypeChar:    "char",
	FieldTypeDims:    "dims",
	FieldTypeUnknown: "unknown",
}

// String implements fmt.Stringer.
func (t FieldType) String() string {
	if name, ok := fieldTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("FieldType(%d)", int32(t))
}

// PluginField is one named, typed attribute.
//
// Creators advertise their fields with a nil Data; builders hand them back filled in. Scalar
// Data holds the Go value of the declared type (int32 for FieldTypeInt32, float32 for
// FieldTypeFloat32, ...).
type PluginField struct {
	Name   string
	Type   FieldType
	Data   any
	Length int
}

// FieldCollection is the ordered list of attributes of one operator.
type FieldCollection []PluginField

// Int32Field returns a scalar int32 attribute.
func Int32Field(name string, v int32) PluginField {
	return PluginField{Name: name, Type: FieldTypeInt32, Data: v, Length: 1}
}

// Float32Field returns a scalar float32 attribute.
func Float32Field(name string, v float32) PluginField {
	return PluginField{Name: name, Type: FieldTypeFloat32, Data: v, Length: 1}
}

// BoolField returns a boolean attribute encoded as an int32, 0 or 1.
func BoolField(name string, v bool) PluginField {
	if v {
		return Int32Field(name, 1)
	}
	return Int32Field(name, 0)
}

// DeclareField returns the advertised (empty) form of an attribute.
func DeclareField(name string, t FieldType) PluginField {
	return PluginField{Name: name, Type: t, Length: 1}
}

// Lookup returns the first field with the given name.
func (fc FieldCollection) Lookup(name string) (PluginField, bool) {
	for _, field := range fc {
		if field.Name == name {
			return field, true
		}
	}
	return PluginField{}, false
}

// Names returns the field names in order.
func (fc FieldCollection) Names() []string {
	names := make([]string, len(fc))
	for i, field := range fc {
		names[i] = field.Name
	}
	return names
}
