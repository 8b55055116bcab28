package vcard

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/coolbeans/vcard/pkg/catalog"
	"github.com/coolbeans/vcard/pkg/contentline"
	"github.com/coolbeans/vcard/pkg/fold"
	"github.com/coolbeans/vcard/pkg/param"
	"github.com/coolbeans/vcard/pkg/value"
)

// card joins lines with CRLF and terminates the last one.
func card(lines ...string) string {
	return strings.Join(lines, "\r\n") + "\r\n"
}

func mustParse(t *testing.T, text string) *Document {
	t.Helper()
	doc, err := ParseString(text)
	if err != nil {
		t.Fatalf("ParseString failed: %v", err)
	}
	return doc
}

func parseErr(t *testing.T, text string) *ParseError {
	t.Helper()
	_, err := ParseString(text)
	if err == nil {
		t.Fatal("expected parse error")
	}
	var parseError *ParseError
	if !errors.As(err, &parseError) {
		t.Fatalf("expected *ParseError, got %T: %v", err, err)
	}
	return parseError
}

func TestParseEndToEnd(t *testing.T) {
	input := card(
		"BEGIN:VCARD",
		"VERSION:4.0",
		"FN:J. Doe",
		"N:Doe;J.;;;",
		"END:VCARD",
	)
	doc := mustParse(t, input)

	if doc.Version() != "4.0" {
		t.Errorf("expected version 4.0, got %q", doc.Version())
	}
	if doc.Len() != 3 {
		t.Fatalf("expected 3 properties, got %d", doc.Len())
	}

	fns := doc.Get(catalog.FN)
	if len(fns) != 1 || fns[0].Value != value.Text("J. Doe") {
		t.Errorf("unexpected FN properties %+v", fns)
	}

	n, ok := doc.First(catalog.N)
	if !ok {
		t.Fatal("expected N property")
	}
	wantN := value.StructuredText{{"Doe"}, {"J."}, {}, {}, {}}
	if !reflect.DeepEqual(n.Value, wantN) {
		t.Errorf("expected N %#v, got %#v", wantN, n.Value)
	}

	serialized, err := Serialize(doc)
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	if serialized != input {
		t.Errorf("serialization changed the card:\n got %q\nwant %q", serialized, input)
	}
}

func TestParseStructuredDecomposition(t *testing.T) {
	doc := mustParse(t, card("BEGIN:VCARD", "VERSION:4.0", "FN:John Public", "N:Public;Smith;John;;", "END:VCARD"))
	n, _ := doc.First(catalog.N)
	want := value.StructuredText{{"Public"}, {"Smith"}, {"John"}, {}, {}}
	if !reflect.DeepEqual(n.Value, want) {
		t.Errorf("expected %#v, got %#v", want, n.Value)
	}
}

func TestParseProperties(t *testing.T) {
	input := card(
		"begin:vcard",
		"VERSION:4.0",
		"FN:Simon Perreault",
		"N:Perreault;Simon;;;ing. jr,M.Sc.",
		"BDAY:--0203",
		"ANNIVERSARY:20090808T1430-0500",
		"GENDER:M",
		"LANG;PREF=1:fr",
		"LANG;PREF=2:en",
		"ORG;TYPE=work:Viagenie",
		"ADR;TYPE=work:;Suite D2-630;2875 Laurier;Quebec;QC;G1V 2M2;Canada",
		"TEL;VALUE=uri;TYPE=work,voice;PREF=1:tel:+1-418-656-9254;ext=102",
		"EMAIL;TYPE=work:simon.perreault@viagenie.ca",
		"item1.URL:http://nomis80.org",
		"TZ;VALUE=utc-offset:-0500",
		"NICKNAME:Si,Nomis",
		"NOTE:line one\\nline two\\, with comma",
		"REV:20090808T143000Z",
		"X-ABUID:5AD380FD-B2DE-4261-BA99-DE1D1DB52FBE",
		"end:vcard",
	)
	doc := mustParse(t, input)

	tests := []struct {
		propertyType catalog.PropertyType
		want         value.Value
	}{
		{catalog.N, value.StructuredText{{"Perreault"}, {"Simon"}, {}, {}, {"ing. jr", "M.Sc."}}},
		{catalog.Bday, value.NewTemporal(value.KindDateAndOrTime, value.DateTime{Month: 2, Day: 3, Fields: value.FieldMonth | value.FieldDay})},
		{catalog.Gender, value.StructuredText{{"M"}}},
		{catalog.Lang, value.LanguageTag("fr")},
		{catalog.Org, value.StructuredText{{"Viagenie"}}},
		{catalog.Tel, value.URI("tel:+1-418-656-9254;ext=102")},
		{catalog.Email, value.Text("simon.perreault@viagenie.ca")},
		{catalog.URL, value.URI("http://nomis80.org")},
		{catalog.TZ, value.UTCOffset{Negative: true, Hours: 5}},
		{catalog.Nickname, value.TextList{"Si", "Nomis"}},
		{catalog.Note, value.Text("line one\nline two, with comma")},
		{"X-ABUID", value.Text("5AD380FD-B2DE-4261-BA99-DE1D1DB52FBE")},
	}
	for _, tt := range tests {
		t.Run(string(tt.propertyType), func(t *testing.T) {
			prop, ok := doc.First(tt.propertyType)
			if !ok {
				t.Fatalf("missing %s", tt.propertyType)
			}
			if !reflect.DeepEqual(prop.Value, tt.want) {
				t.Errorf("expected %#v, got %#v", tt.want, prop.Value)
			}
		})
	}

	langs := doc.Get(catalog.Lang)
	if len(langs) != 2 {
		t.Fatalf("expected 2 LANG properties, got %d", len(langs))
	}
	if pref, ok := langs[1].Params.Pref(); !ok || pref != 2 {
		t.Errorf("expected second LANG PREF=2, got %d", pref)
	}

	tel, _ := doc.First(catalog.Tel)
	if !tel.Params.HasType("voice") || !tel.Params.HasType("WORK") {
		t.Errorf("unexpected TEL types %v", tel.Params.Types())
	}

	url, _ := doc.First(catalog.URL)
	if url.Group != "item1" {
		t.Errorf("expected group item1, got %q", url.Group)
	}
	if grouped := doc.Group("ITEM1"); len(grouped) != 1 {
		t.Errorf("expected one property in item1, got %d", len(grouped))
	}

	rev, _ := doc.First(catalog.Rev)
	revTime, ok := rev.Value.(value.Temporal).Values[0].Time()
	if !ok || revTime.Hour() != 14 || revTime.Minute() != 30 {
		t.Errorf("unexpected REV time %v", revTime)
	}
}

func TestParseFoldedInput(t *testing.T) {
	input := "BEGIN:VCARD\r\n" +
		"VERSION:4.0\r\n" +
		"FN:Folded\r\n" +
		" \tName\r\n" +
		"NOTE:This is a long\n" +
		"  description that spans lines\r\n" +
		"END:VCARD\r\n"
	doc := mustParse(t, input)
	if doc.FormattedName() != "Folded\tName" {
		t.Errorf("unexpected FN %q", doc.FormattedName())
	}
	note, _ := doc.First(catalog.Note)
	if note.Value != value.Text("This is a long description that spans lines") {
		t.Errorf("unexpected NOTE %q", note.Value)
	}
}

func TestParseSkipsLeadingBlankLinesAndTrailingContent(t *testing.T) {
	input := "\r\n\r\n" + card("BEGIN:VCARD", "VERSION:4.0", "FN:A", "END:VCARD") + "not a content line\r\n"
	doc := mustParse(t, input)
	if doc.FormattedName() != "A" {
		t.Errorf("unexpected FN %q", doc.FormattedName())
	}
}

func TestParseBareLineFeeds(t *testing.T) {
	doc := mustParse(t, "BEGIN:VCARD\nVERSION:4.0\nFN:LF Only\nEND:VCARD")
	if doc.FormattedName() != "LF Only" {
		t.Errorf("unexpected FN %q", doc.FormattedName())
	}
}

func TestParseCardinality(t *testing.T) {
	t.Run("missing_fn", func(t *testing.T) {
		parseError := parseErr(t, card("BEGIN:VCARD", "VERSION:4.0", "END:VCARD"))
		if parseError.Component != ComponentCardinality {
			t.Errorf("expected cardinality component, got %s", parseError.Component)
		}
		var cardinalityErr *CardinalityError
		if !errors.As(parseError, &cardinalityErr) {
			t.Fatalf("expected *CardinalityError, got %T", parseError.Err)
		}
		if cardinalityErr.Error() != "FN: AtLeastOne, found 0" {
			t.Errorf("unexpected message %q", cardinalityErr.Error())
		}
	})

	t.Run("two_uids", func(t *testing.T) {
		parseError := parseErr(t, card("BEGIN:VCARD", "VERSION:4.0", "FN:A",
			"UID:urn:uuid:1", "UID:urn:uuid:2", "END:VCARD"))
		var cardinalityErr *CardinalityError
		if !errors.As(parseError, &cardinalityErr) {
			t.Fatalf("expected *CardinalityError, got %v", parseError)
		}
		if cardinalityErr.Type != catalog.UID || cardinalityErr.Rule != catalog.AtMostOne || cardinalityErr.Found != 2 {
			t.Errorf("unexpected error %+v", cardinalityErr)
		}
		if parseError.Property != "UID" {
			t.Errorf("expected property UID, got %q", parseError.Property)
		}
	})

	t.Run("five_tels", func(t *testing.T) {
		lines := []string{"BEGIN:VCARD", "VERSION:4.0", "FN:A"}
		for i := 0; i < 5; i++ {
			lines = append(lines, "TEL:+1-555-000"+string(rune('0'+i)))
		}
		lines = append(lines, "END:VCARD")
		doc := mustParse(t, card(lines...))
		if got := len(doc.Get(catalog.Tel)); got != 5 {
			t.Errorf("expected 5 TEL properties, got %d", got)
		}
	})

	t.Run("missing_version", func(t *testing.T) {
		var cardinalityErr *CardinalityError
		if !errors.As(parseErr(t, card("BEGIN:VCARD", "FN:A", "END:VCARD")), &cardinalityErr) {
			t.Fatal("expected *CardinalityError")
		}
		if cardinalityErr.Type != catalog.Version || cardinalityErr.Rule != catalog.ExactlyOne {
			t.Errorf("unexpected error %+v", cardinalityErr)
		}
	})
}

func TestParseGrammarErrors(t *testing.T) {
	tests := map[string]struct {
		line   string
		lineNo int
	}{
		"no_colon":   {"FN;TYPE=work", 3},
		"empty_name": {":value", 3},
		"blank_line": {"", 3},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			parseError := parseErr(t, card("BEGIN:VCARD", "VERSION:4.0", tt.line, "FN:A", "END:VCARD"))
			if parseError.Component != ComponentGrammar {
				t.Errorf("expected grammar component, got %s", parseError.Component)
			}
			if parseError.Line != tt.lineNo {
				t.Errorf("expected line %d, got %d", tt.lineNo, parseError.Line)
			}
			var grammarErr *contentline.Error
			if !errors.As(parseError, &grammarErr) {
				t.Errorf("expected *contentline.Error, got %T", parseError.Err)
			}
		})
	}
}

func TestParseComponentErrors(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		component Component
		target    any
	}{
		{"bad_param", "TEL;TYPE:123", ComponentParam, new(*param.Error)},
		{"value_not_allowed", "TEL;VALUE=date:19850412", ComponentParam, new(*param.Error)},
		{"bad_escape", `NOTE:a\qb`, ComponentValue, new(*value.Error)},
		{"bad_date", "BDAY:circa 1800", ComponentValue, new(*value.Error)},
		{"short_n", "N:Doe;J.", ComponentValue, new(*value.Error)},
		{"long_adr", "ADR:;;;;;;;", ComponentValue, new(*value.Error)},
		{"bad_lang", "LANG:not a tag", ComponentValue, new(*value.Error)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parseError := parseErr(t, card("BEGIN:VCARD", "VERSION:4.0", "FN:A", tt.line, "END:VCARD"))
			if parseError.Component != tt.component {
				t.Errorf("expected %s component, got %s (%v)", tt.component, parseError.Component, parseError)
			}
			if parseError.Line != 4 {
				t.Errorf("expected line 4, got %d", parseError.Line)
			}
			if !errors.As(parseError, tt.target) {
				t.Errorf("unexpected wrapped error %T", parseError.Err)
			}
		})
	}
}

func TestParseTextOverride(t *testing.T) {
	doc := mustParse(t, card("BEGIN:VCARD", "VERSION:4.0", "FN:A", "BDAY;VALUE=text:circa 1800", "END:VCARD"))
	bday, _ := doc.First(catalog.Bday)
	if bday.Value != value.Text("circa 1800") {
		t.Errorf("unexpected BDAY %#v", bday.Value)
	}
}

func TestParseStructuralErrors(t *testing.T) {
	tests := map[string]struct {
		input  string
		lineNo int
	}{
		"missing_begin":   {card("VERSION:4.0", "FN:A", "END:VCARD"), 1},
		"begin_not_vcard": {card("BEGIN:VCALENDAR", "END:VCALENDAR"), 1},
		"nested_begin":    {card("BEGIN:VCARD", "VERSION:4.0", "BEGIN:VCARD", "END:VCARD"), 3},
		"end_not_vcard":   {card("BEGIN:VCARD", "VERSION:4.0", "FN:A", "END:VCALENDAR"), 4},
		"missing_end":     {card("BEGIN:VCARD", "VERSION:4.0", "FN:A"), 3},
		"empty_input":     {"", 0},
		"wrong_version":   {card("BEGIN:VCARD", "VERSION:3.0", "FN:A", "END:VCARD"), 4},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			parseError := parseErr(t, tt.input)
			if parseError.Component != ComponentStructural {
				t.Errorf("expected structural component, got %s (%v)", parseError.Component, parseError)
			}
			if parseError.Line != tt.lineNo {
				t.Errorf("expected line %d, got %d", tt.lineNo, parseError.Line)
			}
			var structuralErr *StructuralError
			if !errors.As(parseError, &structuralErr) {
				t.Errorf("expected *StructuralError, got %T", parseError.Err)
			}
		})
	}
}

func TestParseFoldErrors(t *testing.T) {
	tests := map[string]struct {
		input  string
		lineNo int
	}{
		"leading_continuation":     {" BEGIN:VCARD\r\n", 1},
		"continuation_after_blank": {"BEGIN:VCARD\r\n\r\n continued\r\n", 3},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			parseError := parseErr(t, tt.input)
			if parseError.Component != ComponentFold {
				t.Errorf("expected fold component, got %s", parseError.Component)
			}
			if parseError.Line != tt.lineNo {
				t.Errorf("expected line %d, got %d", tt.lineNo, parseError.Line)
			}
			var foldErr *fold.Error
			if !errors.As(parseError, &foldErr) {
				t.Errorf("expected *fold.Error, got %T", parseError.Err)
			}
		})
	}
}

func TestParseWithExtensionCatalog(t *testing.T) {
	cat, err := catalog.New(catalog.WithExtension(catalog.Entry{
		Type:        "X-SCORE",
		Cardinality: catalog.AtMostOne,
		Default:     value.KindIntegerList,
	}))
	if err != nil {
		t.Fatalf("catalog.New failed: %v", err)
	}
	parser := NewParser(cat)

	doc, err := parser.Parse(strings.NewReader(card("BEGIN:VCARD", "VERSION:4.0", "FN:A", "X-SCORE:10,-3", "END:VCARD")))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	score, _ := doc.First("X-SCORE")
	if !reflect.DeepEqual(score.Value, value.IntegerList{10, -3}) {
		t.Errorf("unexpected X-SCORE %#v", score.Value)
	}

	_, err = parser.Parse(strings.NewReader(card("BEGIN:VCARD", "VERSION:4.0", "FN:A", "X-SCORE:1", "X-SCORE:2", "END:VCARD")))
	var cardinalityErr *CardinalityError
	if !errors.As(err, &cardinalityErr) || cardinalityErr.Type != "X-SCORE" {
		t.Errorf("expected X-SCORE cardinality error, got %v", err)
	}
}

func TestAssemble(t *testing.T) {
	parser := NewParser(nil)
	line, err := contentline.Parse(`home.TEL;TYPE=home;PREF=1:+1 555 0100`)
	if err != nil {
		t.Fatalf("contentline.Parse failed: %v", err)
	}
	prop, err := parser.Assemble(line)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if prop.Group != "home" || prop.Type != catalog.Tel || prop.Value != value.Text("+1 555 0100") {
		t.Errorf("unexpected property %+v", prop)
	}
	if pref, ok := prop.Params.Pref(); !ok || pref != 1 {
		t.Errorf("expected PREF=1, got %d", pref)
	}
}

func TestAssembleParameterSections(t *testing.T) {
	parser := NewParser(nil)

	t.Run("no_params", func(t *testing.T) {
		prop, err := parser.Assemble(contentline.Line{Name: "FN", Value: "x"})
		if err != nil {
			t.Fatalf("Assemble failed: %v", err)
		}
		if prop.Type != catalog.FN || prop.Value != value.Text("x") || len(prop.Params) != 0 {
			t.Errorf("unexpected property %+v", prop)
		}
	})

	t.Run("empty_section", func(t *testing.T) {
		_, err := parser.Assemble(contentline.Line{Name: "FN", HasParams: true, Value: "x"})
		var parseErr *ParseError
		if !errors.As(err, &parseErr) || parseErr.Component != ComponentParam {
			t.Fatalf("expected param error, got %v", err)
		}
		var paramErr *param.Error
		if !errors.As(err, &paramErr) {
			t.Errorf("expected *param.Error, got %T", parseErr.Err)
		}
	})

	t.Run("envelope_lines", func(t *testing.T) {
		for _, text := range []string{"BEGIN:VCARD", "VERSION:4.0", "END:VCARD"} {
			line, err := contentline.Parse(text)
			if err != nil {
				t.Fatalf("contentline.Parse(%q) failed: %v", text, err)
			}
			if _, err := parser.Assemble(line); err != nil {
				t.Errorf("Assemble(%q) failed: %v", text, err)
			}
		}
	})
}
