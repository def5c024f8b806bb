// Package conversation turns what the user said into an action and the
// line to speak back. Rules are tried in a fixed order; the first match
// wins.
package conversation

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hammamikhairi/viki/internal/domain"
	"github.com/hammamikhairi/viki/internal/launcher"
	"github.com/hammamikhairi/viki/internal/logger"
	"github.com/hammamikhairi/viki/internal/speech"
)

// webPrefix marks a custom-command target that opens in the browser.
const webPrefix = "web://"

// maxReminderSeconds is the longest delay a time.Duration can hold,
// capped to what an int holds on this platform.
const maxReminderSeconds = min(math.MaxInt64/int64(time.Second), math.MaxInt)

var (
	reRemind        = regexp.MustCompile(`remind me (?:to )?(.+?) in (\d+) (seconds?|minutes?|hours?)\b`)
	reCancelRemind  = regexp.MustCompile(`\b(?:cancel|clear|delete) (?:all )?(?:my )?reminders?\b`)
	reListReminders = regexp.MustCompile(`\b(?:how many|list|show)(?: my)? reminders\b`)
)

// Option configures the Assistant.
type Option func(*Assistant)

// WithChat enables the AI fallback and chat mode.
func WithChat(c domain.ChatBackend) Option {
	return func(a *Assistant) { a.chat = c }
}

// WithReminders enables reminder commands.
func WithReminders(r domain.ReminderScheduler) Option {
	return func(a *Assistant) { a.reminders = r }
}

// WithCommands enables the user's custom commands.
func WithCommands(c domain.CommandSource) Option {
	return func(a *Assistant) { a.commands = c }
}

// WithVoices switches TTS voices when the language changes.
func WithVoices(v domain.VoiceSelector) Option {
	return func(a *Assistant) { a.voices = v }
}

// WithLanguage sets the starting language code.
func WithLanguage(code string) Option {
	return func(a *Assistant) {
		if l, ok := LookupLanguage(code); ok {
			a.language = l.Code
		}
	}
}

// WithClock replaces time.Now. Tests pin it.
func WithClock(now func() time.Time) Option {
	return func(a *Assistant) { a.now = now }
}

// query is one normalized user utterance plus the custom commands read
// for its dispatch cycle.
type query struct {
	raw      string
	lower    string
	commands map[string]string
}

type rule struct {
	name   string
	match  func(q query) bool
	handle func(ctx context.Context, q query) domain.Result
}

// Assistant dispatches queries. Safe for concurrent use.
type Assistant struct {
	speaker   domain.Speaker
	launcher  domain.Launcher
	voices    domain.VoiceSelector
	commands  domain.CommandSource
	chat      domain.ChatBackend
	reminders domain.ReminderScheduler
	log       *logger.Logger
	now       func() time.Time
	stat      func(string) (os.FileInfo, error)

	mu       sync.Mutex
	language string
	chatMode bool

	rules []rule
}

// New creates an assistant. speaker and launcher are required.
func New(speaker domain.Speaker, launcher domain.Launcher, log *logger.Logger, opts ...Option) *Assistant {
	a := &Assistant{
		speaker:  speaker,
		launcher: launcher,
		log:      log,
		now:      time.Now,
		stat:     os.Stat,
		language: DefaultLanguage,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.rules = a.buildRules()
	return a
}

// Language returns the current language code.
func (a *Assistant) Language() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.language
}

// ChatMode reports whether every query goes to the AI.
func (a *Assistant) ChatMode() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.chatMode
}

// Handle runs one dispatch cycle.
func (a *Assistant) Handle(ctx context.Context, input string) domain.Result {
	q := query{raw: strings.TrimSpace(input)}
	q.lower = strings.ToLower(q.raw)
	if q.lower == "" {
		return domain.Result{Kind: domain.ResultNone}
	}

	if a.commands != nil {
		q.commands = a.commands.Commands()
	}

	a.log.Debug("query: %q", q.lower)
	for _, r := range a.rules {
		if r.match(q) {
			a.log.Debug("matched rule: %s", r.name)
			return r.handle(ctx, q)
		}
	}
	return a.askAI(ctx, q)
}

func (a *Assistant) buildRules() []rule {
	return []rule{
		{"language", a.matchLanguage, a.switchLanguage},
		{"start chat", contains("start chat"), a.startChat},
		{"end chat", contains("end chat", "exit chat"), a.endChat},
		{"reset chat", contains("reset chat"), a.resetChat},
		{"set reminder", a.remindersOn(matches(reRemind)), a.setReminder},
		{"cancel reminders", a.remindersOn(matches(reCancelRemind)), a.cancelReminders},
		{"list reminders", a.remindersOn(matches(reListReminders)), a.listReminders},
		{"stop", contains(speech.StopPhrases...), a.interrupt},
		{"chat mode", func(query) bool { return a.ChatMode() }, a.askAI},
		{"show chat history", contains("show chat history"), a.showHistory},
		{"custom command", a.matchCustom, a.runCustom},
		{"hello", contains("hello"), say(speech.LineHello)},
		{"name", contains("what's your name", "what is your name"), say(speech.LineName)},
		{"time", contains("what is the time", "what time is it"), a.tellTime},
		{"google", contains("open google"), a.openSite("https://www.google.com", speech.LineOpening("Google"))},
		{"notepad", contains("open notepad"), a.startApp("notepad.exe", "Notepad")},
		{"calculator", contains("open calculator"), a.startApp("calc.exe", "Calculator")},
		{"word", contains("open word"), a.startApp("winword.exe", "Microsoft Word")},
		{"excel", contains("open excel"), a.startApp("excel.exe", "Microsoft Excel")},
		{"chrome", contains("open chrome"), a.openChrome},
		{"youtube", contains("open youtube"), a.openSite("https://www.youtube.com/", speech.LineOpening("YouTube"))},
		{"workout", contains("time for workout", "start workout"), a.openSite("https://workout.lol/", speech.LineWorkout())},
		{"openai", words("open ai", "open openai"), a.openSite("https://openai.com/", speech.LineOpening("OpenAI website"))},
		{"play music", contains("play music"), say(speech.LineWhichSong)},
		{"search", a.matchSearch, a.search},
		{"wikipedia", contains("wikipedia"), say(speech.LineWikipedia)},
		{"exit", words("exit", "quit", "goodbye"), a.exit},
	}
}

// ── Matchers ─────────────────────────────────────────────────────

func contains(phrases ...string) func(query) bool {
	return func(q query) bool {
		for _, p := range phrases {
			if strings.Contains(q.lower, p) {
				return true
			}
		}
		return false
	}
}

// words matches phrases on word boundaries only.
func words(phrases ...string) func(query) bool {
	return func(q query) bool {
		padded := " " + q.lower + " "
		for _, p := range phrases {
			if strings.Contains(padded, " "+p+" ") {
				return true
			}
		}
		return false
	}
}

func matches(re *regexp.Regexp) func(query) bool {
	return func(q query) bool { return re.MatchString(q.lower) }
}

func (a *Assistant) remindersOn(m func(query) bool) func(query) bool {
	return func(q query) bool { return a.reminders != nil && m(q) }
}

func say(line func() string) func(context.Context, query) domain.Result {
	return func(context.Context, query) domain.Result { return domain.Speak(line()) }
}

// ── Language ─────────────────────────────────────────────────────

func (a *Assistant) matchLanguage(q query) bool {
	_, _, ok := findLanguage(q.lower)
	return ok
}

// findLanguage reports the requested language and whether it was asked
// for in Spanish.
func findLanguage(lower string) (Lang, bool, bool) {
	for _, l := range Languages {
		if strings.Contains(lower, "switch to "+l.Name) {
			return l, false, true
		}
		if l.Name == "spanish" && strings.Contains(lower, "habla en "+l.Name) {
			return l, true, true
		}
	}
	return Lang{}, false, false
}

func (a *Assistant) switchLanguage(_ context.Context, q query) domain.Result {
	l, spanish, _ := findLanguage(q.lower)
	a.speaker.StopCurrentSpeech()

	a.mu.Lock()
	from := DisplayName(a.language)
	a.language = l.Code
	a.mu.Unlock()

	if a.voices != nil {
		a.voices.SelectVoice(l.Code)
	}
	a.log.Info("language: %s -> %s", from, l.Code)

	if spanish {
		return domain.Speak(speech.LineLanguageSwitchedSpanish(from))
	}
	return domain.Speak(speech.LineLanguageSwitched(from, DisplayName(l.Code)))
}

// ── Chat ─────────────────────────────────────────────────────────

func (a *Assistant) startChat(context.Context, query) domain.Result {
	a.speaker.StopCurrentSpeech()
	if a.chat == nil {
		return domain.Speak(speech.LineAIDisabled())
	}
	a.setChatMode(true)
	return domain.Speak(speech.LineChatOn())
}

func (a *Assistant) endChat(context.Context, query) domain.Result {
	a.speaker.StopCurrentSpeech()
	a.setChatMode(false)
	return domain.Speak(speech.LineChatOff())
}

func (a *Assistant) resetChat(context.Context, query) domain.Result {
	a.speaker.StopCurrentSpeech()
	if a.chat != nil {
		a.chat.ResetHistory()
	}
	return domain.Speak(speech.LineChatReset())
}

func (a *Assistant) setChatMode(on bool) {
	a.mu.Lock()
	a.chatMode = on
	a.mu.Unlock()
	a.log.Info("chat mode: %v", on)
}

func (a *Assistant) showHistory(context.Context, query) domain.Result {
	a.speaker.StopCurrentSpeech()
	if a.chat == nil {
		return domain.Speak(speech.LineNoChatHistory())
	}
	turns := a.chat.History()
	if len(turns) == 0 {
		return domain.Speak(speech.LineNoChatHistory())
	}
	roles := make([]string, len(turns))
	texts := make([]string, len(turns))
	for i, t := range turns {
		roles[i], texts[i] = t.Role, t.Text
	}
	return domain.Speak(speech.LineChatHistory(roles, texts))
}

func (a *Assistant) askAI(ctx context.Context, q query) domain.Result {
	if a.chat == nil {
		return domain.Speak(speech.LineAIDisabled())
	}
	return domain.Speak(a.chat.Reply(ctx, q.raw))
}

// ── Stop / exit ──────────────────────────────────────────────────

func (a *Assistant) interrupt(context.Context, query) domain.Result {
	a.speaker.StopCurrentSpeech()
	return domain.Result{Kind: domain.ResultInterrupted}
}

func (a *Assistant) exit(context.Context, query) domain.Result {
	a.speaker.StopCurrentSpeech()
	return domain.Result{Kind: domain.ResultExit, Text: speech.LineBye()}
}

// ── Reminders ────────────────────────────────────────────────────

func (a *Assistant) setReminder(_ context.Context, q query) domain.Result {
	m := reRemind.FindStringSubmatch(q.lower)
	n, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return domain.Speak(speech.LineReminderTooFar())
	}
	var unit int64 = 1
	switch {
	case strings.HasPrefix(m[3], "minute"):
		unit = 60
	case strings.HasPrefix(m[3], "hour"):
		unit = 3600
	}
	if n > maxReminderSeconds/unit {
		return domain.Speak(speech.LineReminderTooFar())
	}
	return domain.Speak(a.reminders.Set(m[1], int(n*unit)))
}

func (a *Assistant) cancelReminders(context.Context, query) domain.Result {
	return domain.Speak(speech.LineRemindersCancelled(a.reminders.CancelAll()))
}

func (a *Assistant) listReminders(context.Context, query) domain.Result {
	return domain.Speak(speech.LineRemindersActive(a.reminders.Active()))
}

// ── Custom commands ──────────────────────────────────────────────

// customTriggers returns the triggers, longest first so the most
// specific one wins when several appear in a query.
func customTriggers(cmds map[string]string) []string {
	keys := make([]string, 0, len(cmds))
	for k := range cmds {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}

func findCustom(q query) (string, string, bool) {
	padded := " " + q.lower + " "
	for _, k := range customTriggers(q.commands) {
		trigger := strings.ToLower(strings.TrimSpace(k))
		if trigger == "" {
			continue
		}
		if q.lower == trigger || strings.Contains(padded, " "+trigger+" ") {
			return k, q.commands[k], true
		}
	}
	return "", "", false
}

func (a *Assistant) matchCustom(q query) bool {
	_, _, ok := findCustom(q)
	return ok
}

func (a *Assistant) runCustom(_ context.Context, q query) domain.Result {
	trigger, target, ok := findCustom(q)
	if !ok {
		return domain.Speak(speech.LineDidNotCatch())
	}
	a.log.Info("custom command %q -> %s", trigger, target)

	if strings.HasPrefix(target, webPrefix) {
		u := strings.TrimPrefix(target, webPrefix)
		if err := a.launcher.OpenURL(u); err != nil {
			return domain.Speak(speech.LineOpenFailed(u, err))
		}
		return domain.Speak(fmt.Sprintf("Opening web application %s", u))
	}

	path, err := launcher.ExpandPath(target)
	if err != nil {
		a.log.Warn("custom command %q: %v", trigger, err)
		return domain.Speak(speech.LinePathMissing(target))
	}
	info, err := a.stat(path)
	if err != nil || info.IsDir() {
		return domain.Speak(speech.LinePathMissing(target))
	}
	name := filepath.Base(path)
	if err := a.launcher.Start(path); err != nil {
		return domain.Speak(speech.LineOpenFailed(name, err))
	}
	return domain.Speak(speech.LineOpening(name))
}

// ── Built-ins ────────────────────────────────────────────────────

func (a *Assistant) tellTime(context.Context, query) domain.Result {
	return domain.Speak(speech.LineTime(a.now()))
}

func (a *Assistant) openSite(u, reply string) func(context.Context, query) domain.Result {
	return func(context.Context, query) domain.Result {
		if err := a.launcher.OpenURL(u); err != nil {
			a.log.Warn("open %s: %v", u, err)
			return domain.Speak(speech.LineOpenFailed(u, err))
		}
		return domain.Speak(reply)
	}
}

func (a *Assistant) startApp(program, name string) func(context.Context, query) domain.Result {
	return func(context.Context, query) domain.Result {
		if err := a.launcher.Start(program); err != nil {
			a.log.Warn("start %s: %v", program, err)
			return domain.Speak(speech.LineNotInstalled(name))
		}
		return domain.Speak(speech.LineOpening(name))
	}
}

const chromePath = `C:\Program Files\Google\Chrome\Application\chrome.exe`

func (a *Assistant) openChrome(context.Context, query) domain.Result {
	if err := a.launcher.Start(chromePath); err != nil {
		a.log.Warn("start chrome: %v", err)
		return domain.Speak(speech.LineChromeMissing())
	}
	return domain.Speak(speech.LineOpening("Google Chrome"))
}

func (a *Assistant) matchSearch(q query) bool {
	return strings.Contains(q.lower, "search") && len(strings.Fields(q.lower)) > 1
}

func (a *Assistant) search(_ context.Context, q query) domain.Result {
	term := strings.Join(strings.Fields(strings.ReplaceAll(q.lower, "search", "")), " ")
	if term == "" {
		return domain.Speak(speech.LineNoSearchTerm())
	}
	u := "https://www.google.com/search?q=" + url.QueryEscape(term)
	if err := a.launcher.OpenURL(u); err != nil {
		a.log.Warn("open search: %v", err)
	}
	return domain.Speak(speech.LineSearching(term))
}
