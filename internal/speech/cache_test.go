package speech

import (
	"bytes"
	"context"
	"encoding/binary"
	"sync"
	"testing"

	"github.com/hammamikhairi/viki/internal/logger"
)

func TestAudioCacheMemory(t *testing.T) {
	c := NewAudioCache("", false, 2, logger.New(logger.LevelOff, nil))

	if _, ok := c.Get("en", "hi"); ok {
		t.Fatal("empty cache hit")
	}
	c.Put("en", "hi", []byte("a"))
	c.Put("es", "hi", []byte("b"))
	if got, ok := c.Get("en", "hi"); !ok || string(got) != "a" {
		t.Errorf("Get(en) = %q, %v", got, ok)
	}
	if got, _ := c.Get("es", "hi"); string(got) != "b" {
		t.Errorf("voices share a clip: %q", got)
	}

	c.Put("en", "third", []byte("c"))
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2 after eviction", c.Len())
	}
	if _, ok := c.Get("en", "hi"); ok {
		t.Error("oldest clip survived eviction")
	}

	hits, misses := c.Stats()
	if hits != 2 || misses != 2 {
		t.Errorf("stats = %d hits, %d misses", hits, misses)
	}
}

func TestAudioCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewAudioCache("", false, 2, logger.New(logger.LevelOff, nil))

	c.Put("en", "a", []byte("a"))
	c.Put("en", "b", []byte("b"))
	c.Get("en", "a")
	c.Put("en", "c", []byte("c"))

	if _, ok := c.Get("en", "a"); !ok {
		t.Error("recently read clip was evicted")
	}
	if _, ok := c.Get("en", "b"); ok {
		t.Error("least recently used clip survived")
	}
	if _, ok := c.Get("en", "c"); !ok {
		t.Error("newest clip missing")
	}
}

func TestAudioCacheDisk(t *testing.T) {
	dir := t.TempDir()
	log := logger.New(logger.LevelOff, nil)

	w := NewAudioCache(dir, true, 0, log)
	w.Put("en", "persist me", []byte("wav"))

	r := NewAudioCache(dir, false, 0, log)
	if got, ok := r.Get("en", "persist me"); !ok || string(got) != "wav" {
		t.Errorf("disk Get = %q, %v", got, ok)
	}
}

// makeWAV builds a minimal PCM WAV with an extra chunk before data.
func makeWAV(rate, channels int, pcm []byte) []byte {
	var b bytes.Buffer
	le := binary.LittleEndian
	b.WriteString("RIFF")
	binary.Write(&b, le, uint32(0))
	b.WriteString("WAVE")

	b.WriteString("fmt ")
	binary.Write(&b, le, uint32(16))
	binary.Write(&b, le, uint16(1))
	binary.Write(&b, le, uint16(channels))
	binary.Write(&b, le, uint32(rate))
	binary.Write(&b, le, uint32(rate*channels*2))
	binary.Write(&b, le, uint16(channels*2))
	binary.Write(&b, le, uint16(16))

	b.WriteString("LIST")
	binary.Write(&b, le, uint32(3))
	b.WriteString("abc\x00")

	b.WriteString("data")
	binary.Write(&b, le, uint32(len(pcm)))
	b.Write(pcm)
	return b.Bytes()
}

func TestExtractPCM(t *testing.T) {
	pcm := []byte{1, 2, 3, 4}
	got, format, err := extractPCM(makeWAV(22050, 1, pcm))
	if err != nil {
		t.Fatalf("extractPCM: %v", err)
	}
	if !bytes.Equal(got, pcm) {
		t.Errorf("pcm = %v, want %v", got, pcm)
	}
	if format.rate != 22050 || format.channels != 1 {
		t.Errorf("format = %+v", format)
	}

	if _, _, err := extractPCM([]byte("not a wav")); err == nil {
		t.Error("garbage accepted as WAV")
	}
}

type recordingSpeaker struct {
	mu     sync.Mutex
	spoken []string
}

func (r *recordingSpeaker) Speak(text string) {
	r.mu.Lock()
	r.spoken = append(r.spoken, text)
	r.mu.Unlock()
}
func (r *recordingSpeaker) StopCurrentSpeech() {}
func (r *recordingSpeaker) IsSpeaking() bool   { return false }

type recordingNotifier struct {
	normal, urgent []string
}

func (r *recordingNotifier) Notify(_ context.Context, msg string) error {
	r.normal = append(r.normal, msg)
	return nil
}

func (r *recordingNotifier) NotifyUrgent(_ context.Context, msg string) error {
	r.urgent = append(r.urgent, msg)
	return nil
}

func TestSpeakingNotifier(t *testing.T) {
	sp := &recordingSpeaker{}
	text := &recordingNotifier{}
	n := NewSpeakingNotifier(text, sp)

	n.NotifyUrgent(context.Background(), "\x1b[31m[Reminder] stretch\x1b[0m")
	n.Notify(context.Background(), "hello")

	if len(text.urgent) != 1 || len(text.normal) != 1 {
		t.Errorf("printed urgent=%v normal=%v", text.urgent, text.normal)
	}
	if len(sp.spoken) != 2 || sp.spoken[0] != "stretch" || sp.spoken[1] != "hello" {
		t.Errorf("spoken = %q", sp.spoken)
	}
}
