package catalog

import "github.com/coolbeans/vcard/pkg/value"

var (
	textOnly       = []value.Kind{value.KindText}
	uriOnly        = []value.Kind{value.KindURI}
	uriOrText      = []value.Kind{value.KindURI, value.KindText}
	textListOnly   = []value.Kind{value.KindTextList}
	structuredOnly = []value.Kind{value.KindStructuredText}
	dateOrText     = []value.Kind{
		value.KindDateAndOrTime, value.KindDate, value.KindDateTime,
		value.KindTimestamp, value.KindTime, value.KindText,
	}
)

func entry(propertyType PropertyType, cardinality Cardinality, defaultKind value.Kind, allowed []value.Kind) Entry {
	return Entry{Type: propertyType, Cardinality: cardinality, Default: defaultKind, Allowed: allowed}
}

func structured(propertyType PropertyType, cardinality Cardinality, components Shape) Entry {
	return Entry{
		Type:        propertyType,
		Cardinality: cardinality,
		Default:     value.KindStructuredText,
		Allowed:     structuredOnly,
		Components:  components,
	}
}

// standardEntries is the RFC 6350 section 6 property table.
var standardEntries = map[PropertyType]Entry{
	Begin:   entry(Begin, ExactlyOne, value.KindText, textOnly),
	End:     entry(End, ExactlyOne, value.KindText, textOnly),
	Source:  entry(Source, Arbitrary, value.KindURI, uriOnly),
	Kind:    entry(Kind, AtMostOne, value.KindText, textOnly),
	XML:     entry(XML, Arbitrary, value.KindText, textOnly),
	Version: entry(Version, ExactlyOne, value.KindText, textOnly),

	// Identification.
	FN:          entry(FN, AtLeastOne, value.KindText, textOnly),
	N:           structured(N, AtMostOne, Shape{Min: 5, Max: 5}),
	Nickname:    entry(Nickname, Arbitrary, value.KindTextList, textListOnly),
	Photo:       entry(Photo, Arbitrary, value.KindURI, uriOnly),
	Bday:        entry(Bday, AtMostOne, value.KindDateAndOrTime, dateOrText),
	Anniversary: entry(Anniversary, AtMostOne, value.KindDateAndOrTime, dateOrText),
	Gender:      structured(Gender, AtMostOne, Shape{Min: 1, Max: 2}),

	// Delivery addressing and communications.
	Adr:   structured(Adr, Arbitrary, Shape{Min: 7, Max: 7}),
	Tel:   entry(Tel, Arbitrary, value.KindText, uriOrText),
	Email: entry(Email, Arbitrary, value.KindText, textOnly),
	IMPP:  entry(IMPP, Arbitrary, value.KindURI, uriOnly),
	Lang:  entry(Lang, Arbitrary, value.KindLanguageTag, []value.Kind{value.KindLanguageTag}),

	// Geographical.
	TZ:  entry(TZ, Arbitrary, value.KindText, []value.Kind{value.KindText, value.KindURI, value.KindUTCOffset}),
	Geo: entry(Geo, Arbitrary, value.KindURI, uriOnly),

	// Organizational.
	Title:   entry(Title, Arbitrary, value.KindText, textOnly),
	Role:    entry(Role, Arbitrary, value.KindText, textOnly),
	Logo:    entry(Logo, Arbitrary, value.KindURI, uriOnly),
	Org:     structured(Org, Arbitrary, Shape{Min: 1, Max: -1}),
	Member:  entry(Member, Arbitrary, value.KindURI, uriOnly),
	Related: entry(Related, Arbitrary, value.KindURI, uriOrText),

	// Explanatory.
	Categories:   entry(Categories, Arbitrary, value.KindTextList, textListOnly),
	Note:         entry(Note, Arbitrary, value.KindText, textOnly),
	ProdID:       entry(ProdID, AtMostOne, value.KindText, textOnly),
	Rev:          entry(Rev, AtMostOne, value.KindTimestamp, []value.Kind{value.KindTimestamp}),
	Sound:        entry(Sound, Arbitrary, value.KindURI, uriOnly),
	UID:          entry(UID, AtMostOne, value.KindURI, uriOrText),
	ClientPIDMap: structured(ClientPIDMap, Arbitrary, Shape{Min: 2, Max: 2}),
	URL:          entry(URL, Arbitrary, value.KindURI, uriOnly),

	// Security and calendar.
	Key:       entry(Key, Arbitrary, value.KindURI, uriOrText),
	FBURL:     entry(FBURL, Arbitrary, value.KindURI, uriOnly),
	CalAdrURI: entry(CalAdrURI, Arbitrary, value.KindURI, uriOnly),
	CalURI:    entry(CalURI, Arbitrary, value.KindURI, uriOnly),
}
