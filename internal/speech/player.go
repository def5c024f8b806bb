package speech

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/hammamikhairi/viki/internal/logger"
)

// Player plays 16-bit PCM WAV data through the system audio device.
// Only one oto context may exist per process, so create a single Player.
type Player struct {
	ctx      *oto.Context
	log      *logger.Logger
	rate     int
	channels int

	mu     sync.Mutex
	volume float64
	active *oto.Player // nil when idle
}

// NewPlayer opens the audio device at the given sample rate and channel
// count. WAV data passed to Play must match.
func NewPlayer(sampleRate, channels int, log *logger.Logger) (*Player, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("audio: %w", err)
	}
	<-ready

	log.Debug("audio player initialized (rate=%d, channels=%d)", sampleRate, channels)
	return &Player{ctx: ctx, log: log, rate: sampleRate, channels: channels, volume: 1}, nil
}

// SetVolume sets the playback volume in [0, 1] for this and later clips.
func (p *Player) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = v
	if p.active != nil {
		p.active.SetVolume(v)
	}
}

// Play blocks until the WAV clip finishes, Stop is called or ctx is done.
func (p *Player) Play(ctx context.Context, wav []byte) error {
	pcm, format, err := extractPCM(wav)
	if err != nil {
		return err
	}
	if format.rate != p.rate || format.channels != p.channels {
		p.log.Warn("audio: clip is %d Hz/%d ch, device is %d Hz/%d ch",
			format.rate, format.channels, p.rate, p.channels)
	}

	player := p.ctx.NewPlayer(bytes.NewReader(pcm))

	p.mu.Lock()
	player.SetVolume(p.volume)
	p.active = player
	p.mu.Unlock()

	player.Play()
	for player.IsPlaying() {
		if ctx.Err() != nil {
			player.Pause()
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	p.mu.Lock()
	p.active = nil
	p.mu.Unlock()

	return player.Close()
}

// Stop interrupts the clip being played, if any. Safe to call
// concurrently and when idle.
func (p *Player) Stop() {
	p.mu.Lock()
	active := p.active
	p.mu.Unlock()

	if active != nil {
		active.Pause()
		p.log.Debug("audio player: interrupted")
	}
}

type wavFormat struct {
	rate     int
	channels int
}

// extractPCM walks the RIFF chunks and returns the raw PCM payload along
// with the sample rate and channel count from the fmt chunk.
func extractPCM(wav []byte) ([]byte, wavFormat, error) {
	var format wavFormat
	if len(wav) < 12 || string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		return nil, format, errors.New("audio: not a valid WAV file")
	}

	pos := 12
	for pos+8 <= len(wav) {
		id := string(wav[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(wav[pos+4 : pos+8]))
		body := pos + 8

		switch id {
		case "fmt ":
			if body+8 <= len(wav) {
				format.channels = int(binary.LittleEndian.Uint16(wav[body+2 : body+4]))
				format.rate = int(binary.LittleEndian.Uint32(wav[body+4 : body+8]))
			}
		case "data":
			end := body + size
			// Streaming encoders write 0 or 0xFFFFFFFF when the size is unknown.
			if size == 0 || end > len(wav) || end < body {
				end = len(wav)
			}
			return wav[body:end], format, nil
		}

		pos = body + size
		if size%2 != 0 {
			pos++
		}
	}
	return nil, format, errors.New("audio: data chunk not found in WAV")
}
