package schema

import "strings"

// DataType is one of the closed set of inferred field types.
type DataType string

const (
	DataTypeText      DataType = "text"
	DataTypeDate      DataType = "date"
	DataTypeReference DataType = "reference"
	DataTypeURL       DataType = "url"
	DataTypeNumber    DataType = "number"
	DataTypeCheckbox  DataType = "checkbox"
	DataTypeEmail     DataType = "email"
	DataTypePhone     DataType = "phone"
)

// InferDataType derives a field's data type from its name, per the
// first-match-wins rules below.
func InferDataType(fieldName string) DataType {
	name := strings.ToLower(fieldName)

	switch {
	case strings.Contains(name, "phone"):
		// Exception: checked before "number" so "Phone Number" doesn't
		// fall into the number bucket.
		return DataTypeText
	case strings.Contains(name, "date"), strings.Contains(name, "time"):
		return DataTypeDate
	case strings.Contains(name, "url"), strings.Contains(name, "link"):
		return DataTypeURL
	case strings.Contains(name, "count"), strings.Contains(name, "number"), strings.Contains(name, "amount"):
		return DataTypeNumber
	case strings.Contains(name, "status"), strings.Contains(name, "type"), strings.Contains(name, "category"):
		return DataTypeReference
	case hasWordPrefix(fieldName, "is"), hasWordPrefix(fieldName, "has"):
		return DataTypeCheckbox
	case strings.Contains(name, "enabled"), strings.Contains(name, "completed"):
		return DataTypeCheckbox
	default:
		return DataTypeText
	}
}

// hasWordPrefix reports whether name starts with prefix (compared
// case-insensitively) followed by a non-lowercase-letter boundary
// (camelCase or separator), so "isActive" and "is_active" match but
// "island" does not.
func hasWordPrefix(name, prefix string) bool {
	if !strings.HasPrefix(strings.ToLower(name), prefix) {
		return false
	}
	if len(name) == len(prefix) {
		return true
	}
	next := name[len(prefix)]
	return next < 'a' || next > 'z'
}
