package speech

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/hammamikhairi/viki/internal/domain"
	"github.com/hammamikhairi/viki/internal/logger"
	"github.com/mattn/go-shellwords"
)

// Compile-time interface checks.
var (
	_ Backend  = (*ExecBackend)(nil)
	_ Resetter = (*ExecBackend)(nil)
)

// Defaults for ExecBackend, matching espeak-ng.
const (
	DefaultSayCommand    = "espeak-ng -s {rate} -a {amplitude} -v {voice} {text}"
	DefaultVoicesCommand = "espeak-ng --voices"
	DefaultRate          = 175
	DefaultVolume        = 1.0
)

// ExecBackend speaks each sentence by running an external program that
// plays audio itself (espeak-ng, say, festival...). The command line is a
// template; these placeholders are substituted per argument:
//
//	{text}       the sentence
//	{rate}       words per minute
//	{volume}     volume in [0, 1]
//	{amplitude}  volume scaled to espeak's 0-200
//	{voice}      selected voice ID; dropped with its flag when empty
//
// Stop kills the running process, which truncates the sentence.
type ExecBackend struct {
	sayArgv    []string
	voicesArgv []string
	log        *logger.Logger

	mu      sync.Mutex
	rate    int
	volume  float64
	voice   string
	pending string
	cmd     *exec.Cmd
	killed  bool
}

// NewExecBackend parses the say and voices command lines. An empty
// voicesCommand disables voice listing.
func NewExecBackend(sayCommand, voicesCommand string, log *logger.Logger) (*ExecBackend, error) {
	if strings.TrimSpace(sayCommand) == "" {
		sayCommand = DefaultSayCommand
	}
	sayArgv, err := shellwords.Parse(sayCommand)
	if err != nil {
		return nil, fmt.Errorf("tts: parsing say command: %w", err)
	}
	if len(sayArgv) == 0 {
		return nil, domain.ErrEmptyCommand
	}
	if _, err := exec.LookPath(sayArgv[0]); err != nil {
		return nil, fmt.Errorf("tts: %s: %w", sayArgv[0], domain.ErrBackendUnavailable)
	}

	var voicesArgv []string
	if strings.TrimSpace(voicesCommand) != "" {
		voicesArgv, err = shellwords.Parse(voicesCommand)
		if err != nil {
			return nil, fmt.Errorf("tts: parsing voices command: %w", err)
		}
	}

	log.Debug("tts: exec backend %q", sayArgv[0])
	return &ExecBackend{
		sayArgv:    sayArgv,
		voicesArgv: voicesArgv,
		log:        log,
		rate:       DefaultRate,
		volume:     DefaultVolume,
	}, nil
}

// ConfigureRate sets words per minute.
func (b *ExecBackend) ConfigureRate(wpm int) error {
	if wpm <= 0 {
		return fmt.Errorf("tts: invalid rate %d", wpm)
	}
	b.mu.Lock()
	b.rate = wpm
	b.mu.Unlock()
	return nil
}

// ConfigureVolume sets the volume, clamped to [0, 1].
func (b *ExecBackend) ConfigureVolume(v float64) error {
	if math.IsNaN(v) {
		return errors.New("tts: invalid volume")
	}
	b.mu.Lock()
	b.volume = math.Max(0, math.Min(1, v))
	b.mu.Unlock()
	return nil
}

// SelectVoice stores the voice ID passed to {voice}.
func (b *ExecBackend) SelectVoice(id string) error {
	b.mu.Lock()
	b.voice = id
	b.mu.Unlock()
	return nil
}

// ListVoices runs the voices command and parses its table.
func (b *ExecBackend) ListVoices() ([]Voice, error) {
	if len(b.voicesArgv) == 0 {
		return nil, domain.ErrNoVoices
	}
	out, err := exec.Command(b.voicesArgv[0], b.voicesArgv[1:]...).Output()
	if err != nil {
		return nil, fmt.Errorf("tts: listing voices: %w", err)
	}
	voices := parseVoiceList(out)
	if len(voices) == 0 {
		return nil, domain.ErrNoVoices
	}
	return voices, nil
}

// Say queues a sentence for the next RunAndWait.
func (b *ExecBackend) Say(sentence string) error {
	b.mu.Lock()
	b.pending = sentence
	b.mu.Unlock()
	return nil
}

// RunAndWait runs the command for the queued sentence and waits for it.
// A process killed by Stop is not an error.
func (b *ExecBackend) RunAndWait() error {
	b.mu.Lock()
	text := b.pending
	b.pending = ""
	if text == "" {
		b.mu.Unlock()
		return nil
	}
	argv := b.expand(text)
	cmd := exec.Command(argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		b.mu.Unlock()
		return fmt.Errorf("starting %s: %w", argv[0], err)
	}
	b.cmd = cmd
	b.killed = false
	b.mu.Unlock()

	err := cmd.Wait()

	b.mu.Lock()
	killed := b.killed
	b.cmd = nil
	b.mu.Unlock()

	if err != nil && !killed {
		return fmt.Errorf("%s: %w", argv[0], err)
	}
	return nil
}

// Stop drops the queued sentence and kills the running process.
func (b *ExecBackend) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = ""
	if b.cmd == nil || b.cmd.Process == nil || b.killed {
		return nil
	}
	b.killed = true
	if err := b.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("killing %s: %w", b.sayArgv[0], err)
	}
	return nil
}

// Reset kills anything left running.
func (b *ExecBackend) Reset() error {
	return b.Stop()
}

// expand substitutes placeholders into the say template. Callers hold mu.
func (b *ExecBackend) expand(text string) []string {
	amplitude := int(math.Round(b.volume * 200))
	repl := strings.NewReplacer(
		"{rate}", strconv.Itoa(b.rate),
		"{volume}", strconv.FormatFloat(b.volume, 'f', 2, 64),
		"{amplitude}", strconv.Itoa(amplitude),
		"{voice}", b.voice,
	)

	argv := make([]string, 0, len(b.sayArgv))
	for i, arg := range b.sayArgv {
		switch {
		case arg == "{text}":
			argv = append(argv, text)
		case arg == "{voice}" && b.voice == "":
			// Drop the flag that introduced the empty voice too.
			if i > 0 && strings.HasPrefix(b.sayArgv[i-1], "-") && len(argv) > 0 {
				argv = argv[:len(argv)-1]
			}
		default:
			argv = append(argv, strings.ReplaceAll(repl.Replace(arg), "{text}", text))
		}
	}
	return argv
}

// parseVoiceList understands the two common table layouts:
//
//	espeak-ng --voices:  "Pty Language Age/Gender VoiceName File Other"
//	say -v '?':          "Alex    en_US    # Most people recognize me..."
func parseVoiceList(out []byte) []Voice {
	var voices []Voice
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "Pty") {
			continue
		}

		if head, _, ok := strings.Cut(line, "#"); ok {
			fields := strings.Fields(head)
			if len(fields) < 2 {
				continue
			}
			lang := fields[len(fields)-1]
			name := strings.Join(fields[:len(fields)-1], " ")
			voices = append(voices, Voice{ID: name, Name: name, Languages: []string{lang}})
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		if _, err := strconv.Atoi(fields[0]); err != nil {
			continue
		}
		voices = append(voices, Voice{ID: fields[1], Name: fields[3], Languages: []string{fields[1]}})
	}
	return voices
}
