// internal/locale/table.go
//
// Static synonym table.
//
// Order is significant.  Resolve walks this slice front to back during the
// partial-match pass, so primary language names come before aliases, and
// aliases before the two-letter ISO codes that would otherwise match inside
// longer words.  Keys are folded (see Fold) when the table is indexed, so
// accented spellings may be written naturally here.

package locale

var (
	unitedStates = Detail{LanguageCode: "en", CountryCode: "US", CountryName: "United States"}
	brazil       = Detail{LanguageCode: "pt", CountryCode: "BR", CountryName: "Brazil"}
	spain        = Detail{LanguageCode: "es", CountryCode: "ES", CountryName: "Spain"}
	japan        = Detail{LanguageCode: "ja", CountryCode: "JP", CountryName: "Japan"}
	china        = Detail{LanguageCode: "zh", CountryCode: "CN", CountryName: "China"}
	india        = Detail{LanguageCode: "hi", CountryCode: "IN", CountryName: "India"}
	france       = Detail{LanguageCode: "fr", CountryCode: "FR", CountryName: "France"}
	germany      = Detail{LanguageCode: "de", CountryCode: "DE", CountryName: "Germany"}
	russia       = Detail{LanguageCode: "ru", CountryCode: "RU", CountryName: "Russia"}
	saudiArabia  = Detail{LanguageCode: "ar", CountryCode: "SA", CountryName: "Saudi Arabia"}
	italy        = Detail{LanguageCode: "it", CountryCode: "IT", CountryName: "Italy"}
	southKorea   = Detail{LanguageCode: "ko", CountryCode: "KR", CountryName: "South Korea"}
	netherlands  = Detail{LanguageCode: "nl", CountryCode: "NL", CountryName: "Netherlands"}
	turkey       = Detail{LanguageCode: "tr", CountryCode: "TR", CountryName: "Turkey"}
	vietnam      = Detail{LanguageCode: "vi", CountryCode: "VN", CountryName: "Vietnam"}
	poland       = Detail{LanguageCode: "pl", CountryCode: "PL", CountryName: "Poland"}
	ukraine      = Detail{LanguageCode: "uk", CountryCode: "UA", CountryName: "Ukraine"}
	romania      = Detail{LanguageCode: "ro", CountryCode: "RO", CountryName: "Romania"}
	greece       = Detail{LanguageCode: "el", CountryCode: "GR", CountryName: "Greece"}
	sweden       = Detail{LanguageCode: "sv", CountryCode: "SE", CountryName: "Sweden"}
	czechia      = Detail{LanguageCode: "cs", CountryCode: "CZ", CountryName: "Czech Republic"}
	hungary      = Detail{LanguageCode: "hu", CountryCode: "HU", CountryName: "Hungary"}
	denmark      = Detail{LanguageCode: "da", CountryCode: "DK", CountryName: "Denmark"}
	finland      = Detail{LanguageCode: "fi", CountryCode: "FI", CountryName: "Finland"}
	norway       = Detail{LanguageCode: "no", CountryCode: "NO", CountryName: "Norway"}
	israel       = Detail{LanguageCode: "he", CountryCode: "IL", CountryName: "Israel"}
	thailand     = Detail{LanguageCode: "th", CountryCode: "TH", CountryName: "Thailand"}
	indonesia    = Detail{LanguageCode: "id", CountryCode: "ID", CountryName: "Indonesia"}
	malaysia     = Detail{LanguageCode: "ms", CountryCode: "MY", CountryName: "Malaysia"}
	vatican      = Detail{LanguageCode: "la", CountryCode: "VA", CountryName: "Vatican City"}
)

// DefaultTable is the built-in synonym list.
var DefaultTable = []Entry{
	// Primary language names.
	{"english", unitedStates},
	{"portuguese", brazil},
	{"spanish", spain},
	{"japanese", japan},
	{"chinese", china},
	{"hindi", india},
	{"french", france},
	{"german", germany},
	{"russian", russia},
	{"arabic", saudiArabia},
	{"italian", italy},
	{"korean", southKorea},
	{"dutch", netherlands},
	{"turkish", turkey},
	{"vietnamese", vietnam},
	{"polish", poland},
	{"ukrainian", ukraine},
	{"romanian", romania},
	{"greek", greece},
	{"swedish", sweden},
	{"czech", czechia},
	{"hungarian", hungary},
	{"danish", denmark},
	{"finnish", finland},
	{"norwegian", norway},
	{"hebrew", israel},
	{"thai", thailand},
	{"indonesian", indonesia},
	{"malay", malaysia},

	// Aliases and native spellings.
	{"português", brazil},
	{"portugues", brazil},
	{"español", spain},
	{"espanhol", spain},
	{"japonês", japan},
	{"japones", japan},
	{"日本語", japan},
	{"chinês", china},
	{"chines", china},
	{"mandarin", china},
	{"français", france},
	{"deutsch", germany},
	{"alemão", germany},
	{"italiano", italy},
	{"latin", vatican},
	{"latim", vatican},

	// ISO 639-1 codes.
	{"en", unitedStates},
	{"pt", brazil},
	{"es", spain},
	{"ja", japan},
	{"zh", china},
	{"hi", india},
	{"fr", france},
	{"de", germany},
	{"ru", russia},
	{"ar", saudiArabia},
	{"it", italy},
	{"ko", southKorea},
	{"nl", netherlands},
	{"la", vatican},
}

// countryAliases are extra spellings accepted for a submitted country.  Names
// and ISO codes already present in the table need no alias.
var countryAliases = map[string]Detail{
	"usa":                      unitedStates,
	"united states of america": unitedStates,
	"america":                  unitedStates,
	"brasil":                   brazil,
	"espana":                   spain,
	"deutschland":              germany,
	"korea":                    southKorea,
	"holland":                  netherlands,
	"turkiye":                  turkey,
	"czechia":                  czechia,
}

// Default is returned when nothing matches.
var Default = unitedStates
