package value

import "strings"

// Kind identifies a value type. List kinds hold one or more comma-separated
// items of their scalar counterpart.
type Kind int

const (
	KindInvalid Kind = iota
	KindText
	KindTextList
	KindDate
	KindDateList
	KindTime
	KindTimeList
	KindDateTime
	KindDateTimeList
	KindDateAndOrTime
	KindDateAndOrTimeList
	KindTimestamp
	KindTimestampList
	KindBoolean
	KindIntegerList
	KindFloatList
	KindURI
	KindUTCOffset
	KindLanguageTag
	KindStructuredText
	KindIanaValuespec
)

var kindNames = map[Kind]string{
	KindText:              "text",
	KindTextList:          "text-list",
	KindDate:              "date",
	KindDateList:          "date-list",
	KindTime:              "time",
	KindTimeList:          "time-list",
	KindDateTime:          "date-time",
	KindDateTimeList:      "date-time-list",
	KindDateAndOrTime:     "date-and-or-time",
	KindDateAndOrTimeList: "date-and-or-time-list",
	KindTimestamp:         "timestamp",
	KindTimestampList:     "timestamp-list",
	KindBoolean:           "boolean",
	KindIntegerList:       "integer-list",
	KindFloatList:         "float-list",
	KindURI:               "uri",
	KindUTCOffset:         "utc-offset",
	KindLanguageTag:       "language-tag",
	KindStructuredText:    "structured-text",
	KindIanaValuespec:     "iana-valuespec",
}

// valueParamNames maps VALUE parameter tokens to kinds. Integer and float
// are always list-valued.
var valueParamNames = map[string]Kind{
	"text":             KindText,
	"uri":              KindURI,
	"date":             KindDate,
	"time":             KindTime,
	"date-time":        KindDateTime,
	"date-and-or-time": KindDateAndOrTime,
	"timestamp":        KindTimestamp,
	"boolean":          KindBoolean,
	"integer":          KindIntegerList,
	"float":            KindFloatList,
	"utc-offset":       KindUTCOffset,
	"language-tag":     KindLanguageTag,
}

var listKinds = map[Kind]Kind{
	KindText:          KindTextList,
	KindDate:          KindDateList,
	KindTime:          KindTimeList,
	KindDateTime:      KindDateTimeList,
	KindDateAndOrTime: KindDateAndOrTimeList,
	KindTimestamp:     KindTimestampList,
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "invalid"
}

// ParseKind maps a VALUE parameter token to its kind, ignoring case.
// Unregistered tokens map to KindIanaValuespec with ok set to false.
func ParseKind(token string) (kind Kind, ok bool) {
	if k, found := valueParamNames[strings.ToLower(token)]; found {
		return k, true
	}
	return KindIanaValuespec, false
}

// KindFromName maps a kind name such as "text-list" or "structured-text"
// back to its Kind, ignoring case. VALUE tokens are accepted as well.
func KindFromName(name string) (Kind, bool) {
	lowered := strings.ToLower(name)
	for kind, kindName := range kindNames {
		if kindName == lowered {
			return kind, true
		}
	}
	if kind, ok := valueParamNames[lowered]; ok {
		return kind, true
	}
	return KindInvalid, false
}

// IsList reports whether k holds comma-separated items.
func (k Kind) IsList() bool {
	switch k {
	case KindTextList, KindDateList, KindTimeList, KindDateTimeList,
		KindDateAndOrTimeList, KindTimestampList, KindIntegerList, KindFloatList:
		return true
	}
	return false
}

// IsTemporal reports whether k is one of the date and time kinds.
func (k Kind) IsTemporal() bool {
	return k >= KindDate && k <= KindTimestampList
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// Scalar returns the item kind of a list kind, or k itself.
func (k Kind) Scalar() Kind {
	for scalar, list := range listKinds {
		if list == k {
			return scalar
		}
	}
	return k
}

// List returns the list flavour of a scalar kind, or k itself when no list
// flavour exists.
func (k Kind) List() Kind {
	if list, ok := listKinds[k]; ok {
		return list
	}
	return k
}

// ParamName returns the VALUE parameter token that selects k, or "" for
// kinds without a registered token.
func (k Kind) ParamName() string {
	switch k {
	case KindTextList, KindStructuredText:
		return "text"
	case KindIntegerList:
		return "integer"
	case KindFloatList:
		return "float"
	case KindIanaValuespec, KindInvalid:
		return ""
	}
	return k.Scalar().String()
}
