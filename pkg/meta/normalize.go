package meta

import "strings"

// Normalized parameter type names.
const (
	TypeString     = "string"
	TypeInt        = "int"
	TypeFloat      = "float"
	TypeBool       = "bool"
	TypeFile       = "file_type"
	TypeCustomType = "custom_type"
)

var typeAliases = map[string]string{}

func init() {
	register := func(target string, names ...string) {
		for _, n := range names {
			typeAliases[n] = target
		}
	}
	register(TypeString, "string", "str", "aazstrarg", "aazresourcelocationarg", "aazresourcegroupnamearg",
		"aazresourceidarg", "aazpaginationtokenarg", "aazfilearg")
	register(TypeInt, "int", "aazintarg", "aazpaginationlimitarg")
	register(TypeFloat, "float", "aazfloatarg", "float32", "float64")
	register(TypeBool, "boolean", "bool", "aazboolarg", "aazgenericupdateforcestringarg")
}

// NormalizeType maps a raw or AAZ type name onto string, int, float or bool.
// Names outside the known alias sets are returned unchanged.
func NormalizeType(t string) string {
	if n, ok := typeAliases[strings.ToLower(strings.TrimSpace(t))]; ok {
		return n
	}
	return t
}

// TypesEquivalent reports whether a and b normalize to the same type.
func TypesEquivalent(a, b string) bool {
	return NormalizeType(a) == NormalizeType(b)
}

// rawArgType classifies a loader-reported type name the way snapshots store
// it before normalization: primitive names pass through, everything else is a
// custom type.
func rawArgType(t string) string {
	switch t {
	case "str", "int", "float", "bool", TypeFile:
		return t
	case "":
		return ""
	}
	return TypeCustomType
}

// normalizeParameter rewrites Type and AAZType in place.
func normalizeParameter(p *ParameterNode) {
	if p.Type != "" {
		p.Type = NormalizeType(p.Type)
	}
	if p.AAZType != "" {
		p.AAZType = NormalizeType(p.AAZType)
	}
}
