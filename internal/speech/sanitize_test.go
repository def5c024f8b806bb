package speech

import (
	"reflect"
	"strings"
	"testing"
	"unicode"
	"unicode/utf8"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Hello world.", "Hello world."},
		{"bold", "This is **very** important.", "This is very important."},
		{"underscore bold", "This is __very__ important.", "This is very important."},
		{"italic", "An *emphasized* word.", "An emphasized word."},
		{"inline code", "Run `ls` now.", "Run ls now."},
		{"fenced code", "Try ```\nfmt.Println\n``` today", "Try fmt.Println today"},
		{"heading", "## Results\nAll good.", "Results All good."},
		{"link", "See [the docs](https://example.com) first.", "See the docs first."},
		{"bullets", "- apples\n- pears", "apples pears"},
		{"numbered", "1. first\n2. second", "first second"},
		{"blockquote", "> quoted text", "quoted text"},
		{"entities", "Fish &amp; chips", "Fish chips"},
		{"symbols", "Save 50% now! #deal @store", "Save 50 now! deal store"},
		{"whitespace", "  lots \t of \n\n space  ", "lots of space"},
		{"unicode letters", "Cambiando a español.", "Cambiando a español."},
		{"empty", "", ""},
		{"only symbols", "*** ### ~~~", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.in); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{
		"**Bold** and _italic_ with `code`.",
		"@1 thing",
		"# 5 apples",
		"> - nested *list* item",
		"Price: $5.00 (approx.) & tax!",
		"line one\nline two\n\n\nline three",
		"[a](b) [c](d)",
		"¿Qué tal? ¡Bien!",
	}
	for _, in := range inputs {
		once := Sanitize(in)
		if twice := Sanitize(once); twice != once {
			t.Errorf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestSanitizeAllowList(t *testing.T) {
	in := "Mixed: <tag> {braces} [brackets] |pipes| ~tilde~ ^caret^ \"quotes\" 'apos' ;semi; =eq= +plus+ /slash\\"
	out := Sanitize(in)
	for _, r := range out {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || strings.ContainsRune(".,!?", r) {
			continue
		}
		t.Fatalf("Sanitize left %q in %q", r, out)
	}
	if strings.Contains(out, "  ") {
		t.Errorf("Sanitize left a double space in %q", out)
	}
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Hello. How are you?", []string{"Hello.", "How are you?"}},
		{"One! Two? Three.", []string{"One!", "Two?", "Three."}},
		{"No terminal punctuation", []string{"No terminal punctuation"}},
		{"Version 1.2 is out.", []string{"Version 1.2 is out."}},
		{"Wait...   what?", []string{"Wait...", "what?"}},
		{"", nil},
		{"   ", nil},
	}

	for _, tt := range tests {
		got := SplitSentences(tt.in)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitSentences(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSentencesNonEmpty(t *testing.T) {
	for _, in := range []string{"**Hi.** There!", "a. . b", "?! ?!", "- . -"} {
		for _, s := range Sentences(in) {
			if strings.TrimSpace(s) == "" || s != strings.TrimSpace(s) {
				t.Errorf("Sentences(%q) produced %q", in, s)
			}
		}
	}
}

func TestSentencesMarkdown(t *testing.T) {
	got := Sentences("## Tip\n**Drink** water. Then _rest_!")
	want := []string{"Tip Drink water.", "Then rest!"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Sentences = %q, want %q", got, want)
	}
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	in := strings.Repeat("नमस्ते ", 20)
	got := truncate(in, 25)
	if !utf8.ValidString(got) {
		t.Fatalf("truncate produced invalid UTF-8: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != 25 {
		t.Errorf("truncate kept %d runes, want 25", n)
	}
	if got := truncate("short", 25); got != "short" {
		t.Errorf("truncate(short) = %q", got)
	}
}
