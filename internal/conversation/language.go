package conversation

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Lang is a language the assistant can switch to by voice.
type Lang struct {
	Name string // spoken name, lowercase: "spanish"
	Code string // BCP 47 tag: "es-ES"
}

// Languages lists the switchable languages in match order.
var Languages = []Lang{
	{"english", "en-US"},
	{"spanish", "es-ES"},
	{"hindi", "hi-IN"},
	{"french", "fr-FR"},
	{"german", "de-DE"},
	{"japanese", "ja-JP"},
	{"korean", "ko-KR"},
}

// DefaultLanguage is the language at startup.
const DefaultLanguage = "en-US"

var titler = cases.Title(language.English)

// DisplayName returns "Spanish" for "es-ES". Unknown codes are returned
// unchanged.
func DisplayName(code string) string {
	for _, l := range Languages {
		if l.Code == code {
			return titler.String(l.Name)
		}
	}
	return code
}

// LookupLanguage finds a language by name or code.
func LookupLanguage(nameOrCode string) (Lang, bool) {
	for _, l := range Languages {
		if l.Name == nameOrCode || l.Code == nameOrCode {
			return l, true
		}
	}
	tag, err := language.Parse(nameOrCode)
	if err != nil {
		return Lang{}, false
	}
	for _, l := range Languages {
		if language.MustParse(l.Code) == tag {
			return l, true
		}
	}
	return Lang{}, false
}
