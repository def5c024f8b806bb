package speech

import (
	"reflect"
	"testing"

	"github.com/hammamikhairi/viki/internal/logger"
)

func TestPrimarySubtag(t *testing.T) {
	tests := map[string]string{
		"en-US": "en",
		"es-ES": "es",
		"hi-IN": "hi",
		"ja-JP": "ja",
		"pt_BR": "pt",
		"DE":    "de",
		"":      "",
		"  ":    "",
	}
	for in, want := range tests {
		if got := PrimarySubtag(in); got != want {
			t.Errorf("PrimarySubtag(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSelectVoiceByLanguage(t *testing.T) {
	b := newFakeBackend(0)
	b.voices = []Voice{
		{ID: "en-us", Name: "English", Languages: []string{"en-US"}},
		{ID: "es", Name: "Spanish", Languages: []string{"es"}},
		{ID: "fr-fr", Name: "French", Languages: []string{"fr-FR"}},
	}
	e := NewEngine(b, logger.New(logger.LevelOff, nil))

	e.SelectVoice("es-ES")
	if b.selected != "es" || e.Voice() != "es" {
		t.Errorf("selected %q (engine %q), want es", b.selected, e.Voice())
	}

	e.SelectVoice("fr-FR")
	if b.selected != "fr-fr" {
		t.Errorf("selected %q, want fr-fr", b.selected)
	}
}

func TestSelectVoiceKeepsCurrentWhenNoMatch(t *testing.T) {
	b := newFakeBackend(0)
	b.voices = []Voice{{ID: "en-us", Languages: []string{"en-US"}}}
	e := NewEngine(b, logger.New(logger.LevelOff, nil))

	e.SelectVoice("en-US")
	e.SelectVoice("ko-KR")

	if b.selected != "en-us" {
		t.Errorf("selected %q, want en-us kept", b.selected)
	}
}

func TestSelectVoiceWithoutVoices(t *testing.T) {
	e := NewEngine(nil, logger.New(logger.LevelOff, nil))
	e.SelectVoice("hi-IN")
	if e.Voice() != "" {
		t.Errorf("voice = %q, want empty", e.Voice())
	}
}

func TestVoiceMatchesIDFallback(t *testing.T) {
	v := Voice{ID: "HKEY\\Speech\\TTS_MS_DE-DE_HEDDA"}
	if v.matches("de") != true {
		t.Error("expected ID containing the subtag to match")
	}
}

func TestVoiceMatchesName(t *testing.T) {
	v := Voice{ID: "voice-3", Name: "Microsoft Helena Desktop - Spanish (es)"}
	if !v.matches("es") {
		t.Error("expected the name to carry the language")
	}
	if v.matches("ja") {
		t.Error("unexpected match for ja")
	}
}

func TestSelectVoiceByName(t *testing.T) {
	b := newFakeBackend(0)
	b.voices = []Voice{
		{ID: "voice-1", Name: "Microsoft David - English"},
		{ID: "voice-3", Name: "Microsoft Helena Desktop - Spanish (es)"},
	}
	e := NewEngine(b, logger.New(logger.LevelOff, nil))

	e.SelectVoice("es-ES")
	if b.selected != "voice-3" {
		t.Errorf("selected %q, want voice-3", b.selected)
	}
}

func TestParseVoiceList(t *testing.T) {
	espeak := []byte(`Pty Language       Age/Gender VoiceName          File                 Other Languages
 5  af              --/M      Afrikaans          gmw/af
 5  en-us           --/M      English_(America)  gmw/en-US            (en 3)
 5  es              --/M      Spanish_(Spain)    roa/es
`)
	got := parseVoiceList(espeak)
	want := []Voice{
		{ID: "af", Name: "Afrikaans", Languages: []string{"af"}},
		{ID: "en-us", Name: "English_(America)", Languages: []string{"en-us"}},
		{ID: "es", Name: "Spanish_(Spain)", Languages: []string{"es"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("espeak voices = %+v, want %+v", got, want)
	}

	say := []byte(`Alex                en_US    # Most people recognize me by my voice.
Monica              es_MX    # Hola, me llamo Monica.
`)
	got = parseVoiceList(say)
	want = []Voice{
		{ID: "Alex", Name: "Alex", Languages: []string{"en_US"}},
		{ID: "Monica", Name: "Monica", Languages: []string{"es_MX"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("say voices = %+v, want %+v", got, want)
	}
}

func TestExecBackendExpand(t *testing.T) {
	b := &ExecBackend{
		sayArgv: []string{"espeak-ng", "-s", "{rate}", "-a", "{amplitude}", "-v", "{voice}", "{text}"},
		rate:    150,
		volume:  0.5,
	}

	got := b.expand("Hi there.")
	want := []string{"espeak-ng", "-s", "150", "-a", "100", "Hi there."}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expand without voice = %q, want %q", got, want)
	}

	b.voice = "es"
	got = b.expand("Hola.")
	want = []string{"espeak-ng", "-s", "150", "-a", "100", "-v", "es", "Hola."}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expand with voice = %q, want %q", got, want)
	}
}

func TestCommandRendererExpand(t *testing.T) {
	r := &CommandRenderer{argv: []string{"piper", "--model", "{voice}", "--length_scale", "{scale}", "--output_file", "-"}}
	argv, viaArg := r.expand("voices/en_US-amy.onnx", 175, "Hello.")
	if viaArg {
		t.Error("text should go to stdin without {text}")
	}
	want := []string{"piper", "--model", "voices/en_US-amy.onnx", "--length_scale", "1.00", "--output_file", "-"}
	if !reflect.DeepEqual(argv, want) {
		t.Errorf("argv = %q, want %q", argv, want)
	}

	r = &CommandRenderer{argv: []string{"say", "-o", "/dev/stdout", "{text}"}}
	argv, viaArg = r.expand("", 175, "Hi.")
	if !viaArg || argv[len(argv)-1] != "Hi." {
		t.Errorf("argv = %q, viaArg = %v", argv, viaArg)
	}
}

func TestVoiceFromID(t *testing.T) {
	tests := map[string]string{
		"voices/es_ES-davefx-medium.onnx": "es",
		"hi_IN-pratham-medium.onnx":       "hi",
		"ja-JP-NanamiNeural":              "ja",
	}
	for id, want := range tests {
		v := voiceFromID(id)
		if !v.matches(want) {
			t.Errorf("voiceFromID(%q) = %+v, want language %s", id, v, want)
		}
	}
}

func TestBuildSSMLEscapesText(t *testing.T) {
	got := buildSSML("es-ES-ElviraNeural", 175, "Tom & Jerry <3")
	want := `<speak version='1.0' xml:lang='es-ES'><voice xml:lang='es-ES' name='es-ES-ElviraNeural'><prosody rate='+0%'>Tom &amp; Jerry &lt;3</prosody></voice></speak>`
	if got != want {
		t.Errorf("buildSSML =\n%s\nwant\n%s", got, want)
	}
}
