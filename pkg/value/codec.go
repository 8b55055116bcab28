package value

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/language"
)

var (
	integerPattern = regexp.MustCompile(`^[+-]?\d+$`)
	floatPattern   = regexp.MustCompile(`^[+-]?\d+(\.\d+)?$`)
)

// Decode parses raw as a value of the given kind. Text kinds are unescaped;
// URI and IanaValuespec values are taken verbatim.
func Decode(kind Kind, raw string) (Value, error) {
	switch kind {
	case KindText:
		text, err := Unescape(raw)
		if err != nil {
			return nil, newError(kind, raw, err.Error())
		}
		return Text(text), nil

	case KindTextList:
		items, err := decodeList(raw)
		if err != nil {
			return nil, newError(kind, raw, err.Error())
		}
		return TextList(items), nil

	case KindStructuredText:
		return decodeStructured(raw)

	case KindURI:
		if raw == "" {
			return nil, newError(kind, raw, "empty uri")
		}
		if _, err := url.Parse(raw); err != nil {
			return nil, newError(kind, raw, "malformed uri")
		}
		return URI(raw), nil

	case KindLanguageTag:
		if err := checkLanguageTag(raw); err != nil {
			return nil, newError(kind, raw, err.Error())
		}
		return LanguageTag(raw), nil

	case KindIanaValuespec:
		return IanaValuespec(raw), nil

	case KindBoolean:
		switch strings.ToUpper(raw) {
		case "TRUE":
			return Boolean(true), nil
		case "FALSE":
			return Boolean(false), nil
		}
		return nil, newError(kind, raw, "expected TRUE or FALSE")

	case KindIntegerList:
		return decodeIntegers(raw)

	case KindFloatList:
		return decodeFloats(raw)

	case KindUTCOffset:
		offset, err := parseOffset(raw)
		if err != nil {
			return nil, newError(kind, raw, err.Error())
		}
		return offset, nil

	case KindDate, KindTime, KindDateTime, KindDateAndOrTime, KindTimestamp:
		d, err := parseScalarTemporal(kind, raw)
		if err != nil {
			return nil, newError(kind, raw, err.Error())
		}
		return NewTemporal(kind, d), nil

	case KindDateList, KindTimeList, KindDateTimeList, KindDateAndOrTimeList, KindTimestampList:
		scalar := kind.Scalar()
		pieces := strings.Split(raw, ",")
		items := make([]DateTime, len(pieces))
		for i, piece := range pieces {
			d, err := parseScalarTemporal(scalar, piece)
			if err != nil {
				return nil, newError(kind, raw, err.Error())
			}
			items[i] = d
		}
		return NewTemporal(kind, items...), nil
	}

	return nil, newError(kind, raw, "unsupported value kind")
}

func decodeStructured(raw string) (Value, error) {
	components := splitUnescaped(raw, ';')
	structured := make(StructuredText, len(components))
	for i, component := range components {
		items, err := decodeList(component)
		if err != nil {
			return nil, newError(KindStructuredText, raw, err.Error())
		}
		structured[i] = items
	}
	return structured, nil
}

func decodeIntegers(raw string) (Value, error) {
	pieces := strings.Split(raw, ",")
	integers := make(IntegerList, len(pieces))
	for i, piece := range pieces {
		if !integerPattern.MatchString(piece) {
			return nil, newError(KindIntegerList, raw, "not an integer")
		}
		n, err := strconv.ParseInt(piece, 10, 64)
		if err != nil {
			return nil, newError(KindIntegerList, raw, "integer out of range")
		}
		integers[i] = n
	}
	return integers, nil
}

func decodeFloats(raw string) (Value, error) {
	pieces := strings.Split(raw, ",")
	floats := make(FloatList, len(pieces))
	for i, piece := range pieces {
		if !floatPattern.MatchString(piece) {
			return nil, newError(KindFloatList, raw, "not a float")
		}
		f, err := strconv.ParseFloat(piece, 64)
		if err != nil {
			return nil, newError(KindFloatList, raw, "float out of range")
		}
		floats[i] = f
	}
	return floats, nil
}

// checkLanguageTag accepts well-formed BCP 47 tags, including those with
// subtags the registry does not know.
func checkLanguageTag(raw string) error {
	if raw == "" {
		return errors.New("empty language tag")
	}
	_, err := language.Parse(raw)
	if err == nil {
		return nil
	}
	var unknownSubtag language.ValueError
	if errors.As(err, &unknownSubtag) {
		return nil
	}
	return errors.New("malformed language tag")
}

// Encode renders v as raw value text.
func Encode(v Value) (string, error) {
	switch typed := v.(type) {
	case Text:
		if strings.ContainsRune(string(typed), '\r') {
			return "", newError(KindText, string(typed), "carriage return cannot be encoded")
		}
		return Escape(string(typed)), nil

	case TextList:
		if err := checkList(typed); err != nil {
			return "", newError(KindTextList, "", err.Error())
		}
		return encodeList(typed), nil

	case StructuredText:
		if len(typed) == 0 {
			return "", newError(KindStructuredText, "", "no components")
		}
		components := make([]string, len(typed))
		for i, component := range typed {
			if err := checkList(component); err != nil {
				return "", newError(KindStructuredText, "", fmt.Sprintf("component %d: %v", i, err))
			}
			components[i] = encodeList(component)
		}
		return strings.Join(components, ";"), nil

	case URI:
		if typed == "" || strings.ContainsAny(string(typed), "\r\n") {
			return "", newError(KindURI, string(typed), "uri cannot be encoded")
		}
		if _, err := url.Parse(string(typed)); err != nil {
			return "", newError(KindURI, string(typed), "malformed uri")
		}
		return string(typed), nil

	case LanguageTag:
		if err := checkLanguageTag(string(typed)); err != nil {
			return "", newError(KindLanguageTag, string(typed), err.Error())
		}
		return string(typed), nil

	case IanaValuespec:
		if strings.ContainsAny(string(typed), "\r\n") {
			return "", newError(KindIanaValuespec, string(typed), "line break in raw value")
		}
		return string(typed), nil

	case Boolean:
		if typed {
			return "TRUE", nil
		}
		return "FALSE", nil

	case IntegerList:
		if len(typed) == 0 {
			return "", newError(KindIntegerList, "", "empty integer list")
		}
		encoded := make([]string, len(typed))
		for i, n := range typed {
			encoded[i] = strconv.FormatInt(n, 10)
		}
		return strings.Join(encoded, ","), nil

	case FloatList:
		if len(typed) == 0 {
			return "", newError(KindFloatList, "", "empty float list")
		}
		encoded := make([]string, len(typed))
		for i, f := range typed {
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return "", newError(KindFloatList, "", "float is not finite")
			}
			encoded[i] = strconv.FormatFloat(f, 'f', -1, 64)
		}
		return strings.Join(encoded, ","), nil

	case UTCOffset:
		if err := typed.check(); err != nil {
			return "", newError(KindUTCOffset, "", err.Error())
		}
		return typed.String(), nil

	case Temporal:
		return encodeTemporal(typed)
	}

	return "", newError(KindInvalid, "", "unsupported value type")
}

// checkList rejects lists whose encoding decodes to a different list. A
// single empty item encodes like the empty list; use an empty slice. A
// carriage return has no escape.
func checkList(items []string) error {
	if len(items) == 1 && items[0] == "" {
		return errors.New("single empty item cannot be encoded")
	}
	for _, item := range items {
		if strings.ContainsRune(item, '\r') {
			return errors.New("carriage return cannot be encoded")
		}
	}
	return nil
}

func encodeTemporal(t Temporal) (string, error) {
	if !t.Type.IsTemporal() {
		return "", newError(t.Type, "", "not a temporal kind")
	}
	if len(t.Values) == 0 || (!t.Type.IsList() && len(t.Values) != 1) {
		return "", newError(t.Type, "", "wrong number of items")
	}
	scalar := t.Type.Scalar()
	encoded := make([]string, len(t.Values))
	for i, d := range t.Values {
		item, err := formatScalarTemporal(scalar, d)
		if err != nil {
			return "", newError(t.Type, "", err.Error())
		}
		encoded[i] = item
	}
	return strings.Join(encoded, ","), nil
}
