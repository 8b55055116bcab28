package value

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Field is a bit set naming the components present in a DateTime.
type Field uint8

const (
	FieldYear Field = 1 << iota
	FieldMonth
	FieldDay
	FieldHour
	FieldMinute
	FieldSecond
)

const (
	dateFields = FieldYear | FieldMonth | FieldDay
	timeFields = FieldHour | FieldMinute | FieldSecond
)

// DateTime is a possibly truncated or reduced-precision date and/or time.
// Fields records which components were present, so 19850412 stays a date
// and --0412 stays a month-day. A nil Zone means local ("floating") time.
// Zone is a pointer, so compare values with Equal rather than ==.
type DateTime struct {
	Year   int
	Month  int // 1-12
	Day    int // 1-31
	Hour   int
	Minute int
	Second int
	Fields Field
	Zone   *UTCOffset
}

// Date creates a complete calendar date.
func Date(year, month, day int) DateTime {
	return DateTime{Year: year, Month: month, Day: day, Fields: dateFields}
}

// Clock creates a complete time of day. zone may be nil.
func Clock(hour, minute, second int, zone *UTCOffset) DateTime {
	return DateTime{Hour: hour, Minute: minute, Second: second, Fields: timeFields, Zone: zone}
}

// Timestamp creates a complete date and time.
func Timestamp(year, month, day, hour, minute, second int, zone *UTCOffset) DateTime {
	return DateTime{
		Year: year, Month: month, Day: day,
		Hour: hour, Minute: minute, Second: second,
		Fields: dateFields | timeFields,
		Zone:   zone,
	}
}

// UTC is the zero offset.
func UTC() *UTCOffset {
	return &UTCOffset{}
}

// Has reports whether every field in f is present.
func (d DateTime) Has(f Field) bool {
	return d.Fields&f == f
}

// HasDate reports whether any date component is present.
func (d DateTime) HasDate() bool {
	return d.Fields&dateFields != 0
}

// HasTime reports whether any time component is present.
func (d DateTime) HasTime() bool {
	return d.Fields&timeFields != 0
}

// Time converts a value carrying a complete date to a time.Time. Missing
// time components are zero; floating values are placed in time.Local.
func (d DateTime) Time() (time.Time, bool) {
	if !d.Has(dateFields) {
		return time.Time{}, false
	}
	location := time.Local
	if d.Zone != nil {
		if d.Zone.IsUTC() {
			location = time.UTC
		} else {
			location = time.FixedZone(d.Zone.String(), d.Zone.Seconds())
		}
	}
	return time.Date(d.Year, time.Month(d.Month), d.Day, d.Hour, d.Minute, d.Second, 0, location), true
}

// FromTime creates a complete timestamp from t, keeping its offset.
// Sub-minute offsets are truncated.
func FromTime(t time.Time) DateTime {
	_, offsetSeconds := t.Zone()
	zone := offsetFromSeconds(offsetSeconds)
	return Timestamp(t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second(), &zone)
}

// Before reports whether d is strictly earlier than other. Both must carry a
// complete date.
func (d DateTime) Before(other DateTime) bool {
	a, okA := d.Time()
	b, okB := other.Time()
	return okA && okB && a.Before(b)
}

// Equal reports whether d and other carry the same fields and the same zone.
func (d DateTime) Equal(other DateTime) bool {
	if d.Zone == nil || other.Zone == nil {
		if d.Zone != other.Zone {
			return false
		}
	} else if *d.Zone != *other.Zone {
		return false
	}
	d.Zone, other.Zone = nil, nil
	return d == other
}

// UTCOffset is a signed hour and minute offset from UTC.
type UTCOffset struct {
	Negative bool
	Hours    int
	Minutes  int
}

// IsUTC reports whether the offset is zero.
func (o UTCOffset) IsUTC() bool {
	return o.Hours == 0 && o.Minutes == 0
}

// Seconds returns the signed offset in seconds.
func (o UTCOffset) Seconds() int {
	seconds := o.Hours*3600 + o.Minutes*60
	if o.Negative {
		return -seconds
	}
	return seconds
}

// String formats the offset as +HHMM or -HHMM.
func (o UTCOffset) String() string {
	sign := '+'
	if o.Negative {
		sign = '-'
	}
	return fmt.Sprintf("%c%02d%02d", sign, o.Hours, o.Minutes)
}

// check rejects out-of-range fields and the negative zero offset, which
// has no distinct encoding.
func (o UTCOffset) check() error {
	if o.Hours < 0 || o.Hours > 23 || o.Minutes < 0 || o.Minutes > 59 {
		return fmt.Errorf("utc offset out of range")
	}
	if o.Negative && o.IsUTC() {
		return fmt.Errorf("negative zero utc offset")
	}
	return nil
}

func offsetFromSeconds(seconds int) UTCOffset {
	var offset UTCOffset
	if seconds < 0 {
		offset.Negative = true
		seconds = -seconds
	}
	offset.Hours = seconds / 3600
	offset.Minutes = seconds % 3600 / 60
	if offset.IsUTC() {
		offset.Negative = false
	}
	return offset
}

// Accepted forms: RFC 6350 basic format plus ISO 8601 extended input.
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(?P<year>\d{4})(?P<month>\d{2})(?P<day>\d{2})$`),
	regexp.MustCompile(`^(?P<year>\d{4})-(?P<month>\d{2})-(?P<day>\d{2})$`),
	regexp.MustCompile(`^(?P<year>\d{4})-(?P<month>\d{2})$`),
	regexp.MustCompile(`^(?P<year>\d{4})$`),
	regexp.MustCompile(`^--(?P<month>\d{2})(?P<day>\d{2})?$`),
	regexp.MustCompile(`^--(?P<month>\d{2})-(?P<day>\d{2})$`),
	regexp.MustCompile(`^---(?P<day>\d{2})$`),
}

const zonePattern = `(?P<zone>[Zz]|[+-]\d{2}(?::?\d{2})?)?`

var timePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(?P<hour>\d{2})(?:(?P<minute>\d{2})(?P<second>\d{2})?)?` + zonePattern + `$`),
	regexp.MustCompile(`^(?P<hour>\d{2}):(?P<minute>\d{2})(?::(?P<second>\d{2}))?` + zonePattern + `$`),
	regexp.MustCompile(`^-(?P<minute>\d{2})(?P<second>\d{2})?` + zonePattern + `$`),
	regexp.MustCompile(`^--(?P<second>\d{2})` + zonePattern + `$`),
}

var offsetPattern = regexp.MustCompile(`^([+-])(\d{2})(?::?(\d{2}))?$`)

// Permitted field combinations for each RFC 6350 production.
var (
	dateShapes         = []Field{FieldYear, dateFields, FieldYear | FieldMonth, FieldMonth, FieldMonth | FieldDay, FieldDay}
	dateNoReducShapes  = []Field{dateFields, FieldMonth | FieldDay, FieldDay}
	dateCompleteShapes = []Field{dateFields}
	timeShapes         = []Field{FieldHour, FieldHour | FieldMinute, timeFields, FieldMinute, FieldMinute | FieldSecond, FieldSecond}
	timeNoTruncShapes  = []Field{FieldHour, FieldHour | FieldMinute, timeFields}
	timeCompleteShapes = []Field{timeFields}
)

func shapeIn(fields Field, shapes []Field) bool {
	for _, shape := range shapes {
		if fields == shape {
			return true
		}
	}
	return false
}

// matchPatterns fills d from the first pattern matching raw.
func matchPatterns(patterns []*regexp.Regexp, raw string) (DateTime, bool, error) {
	for _, pattern := range patterns {
		match := pattern.FindStringSubmatch(raw)
		if match == nil {
			continue
		}
		var d DateTime
		for i, groupName := range pattern.SubexpNames() {
			if i == 0 || groupName == "" || match[i] == "" {
				continue
			}
			if groupName == "zone" {
				zone, err := parseZone(match[i])
				if err != nil {
					return DateTime{}, false, err
				}
				d.Zone = zone
				continue
			}
			n, _ := strconv.Atoi(match[i])
			switch groupName {
			case "year":
				d.Year, d.Fields = n, d.Fields|FieldYear
			case "month":
				d.Month, d.Fields = n, d.Fields|FieldMonth
			case "day":
				d.Day, d.Fields = n, d.Fields|FieldDay
			case "hour":
				d.Hour, d.Fields = n, d.Fields|FieldHour
			case "minute":
				d.Minute, d.Fields = n, d.Fields|FieldMinute
			case "second":
				d.Second, d.Fields = n, d.Fields|FieldSecond
			}
		}
		return d, true, nil
	}
	return DateTime{}, false, nil
}

func parseZone(raw string) (*UTCOffset, error) {
	if raw == "Z" || raw == "z" {
		return UTC(), nil
	}
	offset, err := parseOffset(raw)
	if err != nil {
		return nil, err
	}
	return &offset, nil
}

func parseOffset(raw string) (UTCOffset, error) {
	match := offsetPattern.FindStringSubmatch(raw)
	if match == nil {
		return UTCOffset{}, fmt.Errorf("not a utc offset")
	}
	var offset UTCOffset
	offset.Negative = match[1] == "-"
	offset.Hours, _ = strconv.Atoi(match[2])
	if match[3] != "" {
		offset.Minutes, _ = strconv.Atoi(match[3])
	}
	if offset.Hours > 23 || offset.Minutes > 59 {
		return UTCOffset{}, fmt.Errorf("utc offset out of range")
	}
	if offset.IsUTC() {
		offset.Negative = false
	}
	return offset, nil
}

func parseDate(raw string, shapes []Field) (DateTime, error) {
	d, ok, err := matchPatterns(datePatterns, raw)
	if err != nil {
		return DateTime{}, err
	}
	if !ok || !shapeIn(d.Fields, shapes) {
		return DateTime{}, fmt.Errorf("not a permitted date form")
	}
	return d, nil
}

func parseTime(raw string, shapes []Field) (DateTime, error) {
	d, ok, err := matchPatterns(timePatterns, raw)
	if err != nil {
		return DateTime{}, err
	}
	if !ok || !shapeIn(d.Fields, shapes) {
		return DateTime{}, fmt.Errorf("not a permitted time form")
	}
	return d, nil
}

func parseDateAndTime(raw string, dates, times []Field) (DateTime, error) {
	designator := strings.IndexAny(raw, "Tt")
	if designator < 0 {
		return DateTime{}, fmt.Errorf("missing time designator 'T'")
	}
	d, err := parseDate(raw[:designator], dates)
	if err != nil {
		return DateTime{}, err
	}
	clock, err := parseTime(raw[designator+1:], times)
	if err != nil {
		return DateTime{}, err
	}
	d.Hour, d.Minute, d.Second = clock.Hour, clock.Minute, clock.Second
	d.Fields |= clock.Fields
	d.Zone = clock.Zone
	return d, nil
}

// parseScalarTemporal decodes one item of a temporal kind.
func parseScalarTemporal(kind Kind, raw string) (DateTime, error) {
	var d DateTime
	var err error
	switch kind {
	case KindDate:
		d, err = parseDate(raw, dateShapes)
	case KindTime:
		d, err = parseTime(raw, timeShapes)
	case KindDateTime:
		d, err = parseDateAndTime(raw, dateNoReducShapes, timeNoTruncShapes)
	case KindTimestamp:
		d, err = parseDateAndTime(raw, dateCompleteShapes, timeCompleteShapes)
	case KindDateAndOrTime:
		switch {
		case strings.HasPrefix(raw, "T") || strings.HasPrefix(raw, "t"):
			d, err = parseTime(raw[1:], timeShapes)
		case strings.ContainsAny(raw, "Tt"):
			d, err = parseDateAndTime(raw, dateNoReducShapes, timeNoTruncShapes)
		default:
			d, err = parseDate(raw, dateShapes)
		}
	default:
		return DateTime{}, fmt.Errorf("%s is not a temporal kind", kind)
	}
	if err != nil {
		return DateTime{}, err
	}
	if err := checkRanges(d); err != nil {
		return DateTime{}, err
	}
	return d, nil
}

func checkRanges(d DateTime) error {
	if d.Fields&FieldMonth != 0 && (d.Month < 1 || d.Month > 12) {
		return fmt.Errorf("month %d out of range", d.Month)
	}
	if d.Fields&FieldDay != 0 {
		maxDay := 31
		if d.Fields&FieldMonth != 0 {
			year := 2000 // leap year when the year is unknown
			if d.Fields&FieldYear != 0 {
				year = d.Year
			}
			maxDay = daysIn(d.Month, year)
		}
		if d.Day < 1 || d.Day > maxDay {
			return fmt.Errorf("day %d out of range", d.Day)
		}
	}
	if d.Fields&FieldYear != 0 && (d.Year < 0 || d.Year > 9999) {
		return fmt.Errorf("year %d out of range", d.Year)
	}
	if d.Fields&FieldHour != 0 && (d.Hour < 0 || d.Hour > 23) {
		return fmt.Errorf("hour %d out of range", d.Hour)
	}
	if d.Fields&FieldMinute != 0 && (d.Minute < 0 || d.Minute > 59) {
		return fmt.Errorf("minute %d out of range", d.Minute)
	}
	// 60 allows for leap seconds.
	if d.Fields&FieldSecond != 0 && (d.Second < 0 || d.Second > 60) {
		return fmt.Errorf("second %d out of range", d.Second)
	}
	if d.Zone != nil {
		if !d.HasTime() {
			return fmt.Errorf("zone without time")
		}
		if err := d.Zone.check(); err != nil {
			return fmt.Errorf("zone: %w", err)
		}
	}
	return nil
}

func daysIn(month, year int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// formatScalarTemporal encodes one item in basic format, checking that its
// fields form a permitted shape for kind.
func formatScalarTemporal(kind Kind, d DateTime) (string, error) {
	if err := checkRanges(d); err != nil {
		return "", err
	}
	dateShape := d.Fields & dateFields
	timeShape := d.Fields & timeFields

	switch kind {
	case KindDate:
		if timeShape == 0 && shapeIn(dateShape, dateShapes) {
			return formatDate(d), nil
		}
	case KindTime:
		if dateShape == 0 && shapeIn(timeShape, timeShapes) {
			return formatTime(d), nil
		}
	case KindDateTime:
		if shapeIn(dateShape, dateNoReducShapes) && shapeIn(timeShape, timeNoTruncShapes) {
			return formatDate(d) + "T" + formatTime(d), nil
		}
	case KindTimestamp:
		if dateShape == dateFields && timeShape == timeFields {
			return formatDate(d) + "T" + formatTime(d), nil
		}
	case KindDateAndOrTime:
		switch {
		case timeShape == 0 && shapeIn(dateShape, dateShapes):
			return formatDate(d), nil
		case dateShape == 0 && shapeIn(timeShape, timeShapes):
			return "T" + formatTime(d), nil
		case shapeIn(dateShape, dateNoReducShapes) && shapeIn(timeShape, timeNoTruncShapes):
			return formatDate(d) + "T" + formatTime(d), nil
		}
	default:
		return "", fmt.Errorf("%s is not a temporal kind", kind)
	}
	return "", fmt.Errorf("fields %06b are not a permitted %s form", d.Fields, kind)
}

func formatDate(d DateTime) string {
	switch {
	case d.Has(dateFields):
		return fmt.Sprintf("%04d%02d%02d", d.Year, d.Month, d.Day)
	case d.Has(FieldYear | FieldMonth):
		return fmt.Sprintf("%04d-%02d", d.Year, d.Month)
	case d.Has(FieldYear):
		return fmt.Sprintf("%04d", d.Year)
	case d.Has(FieldMonth | FieldDay):
		return fmt.Sprintf("--%02d%02d", d.Month, d.Day)
	case d.Has(FieldMonth):
		return fmt.Sprintf("--%02d", d.Month)
	default:
		return fmt.Sprintf("---%02d", d.Day)
	}
}

func formatTime(d DateTime) string {
	var clock string
	switch {
	case d.Has(timeFields):
		clock = fmt.Sprintf("%02d%02d%02d", d.Hour, d.Minute, d.Second)
	case d.Has(FieldHour | FieldMinute):
		clock = fmt.Sprintf("%02d%02d", d.Hour, d.Minute)
	case d.Has(FieldHour):
		clock = fmt.Sprintf("%02d", d.Hour)
	case d.Has(FieldMinute | FieldSecond):
		clock = fmt.Sprintf("-%02d%02d", d.Minute, d.Second)
	case d.Has(FieldMinute):
		clock = fmt.Sprintf("-%02d", d.Minute)
	default:
		clock = fmt.Sprintf("--%02d", d.Second)
	}
	if d.Zone == nil {
		return clock
	}
	if d.Zone.IsUTC() {
		return clock + "Z"
	}
	return clock + d.Zone.String()
}
