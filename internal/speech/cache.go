package speech

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"

	"github.com/hammamikhairi/viki/internal/logger"
)

// AudioCache keeps synthesized WAV clips in memory and, optionally, on
// disk. Keys are sha256(voice + ":" + text), so switching language never
// replays a clip in the wrong voice.
//
// The disk directory is always read when set; writeDisk controls whether
// new clips are persisted to it.
type AudioCache struct {
	log       *logger.Logger
	dir       string
	writeDisk bool
	maxItems  int

	mu      sync.RWMutex
	entries map[string][]byte
	order   []string // least recently used first
	hits    int64
	misses  int64
}

// NewAudioCache creates a cache. An empty dir keeps everything in
// memory. maxItems <= 0 means unbounded.
func NewAudioCache(dir string, writeDisk bool, maxItems int, log *logger.Logger) *AudioCache {
	if dir != "" && writeDisk {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Error("cache: creating %s: %v", dir, err)
			writeDisk = false
		}
	}
	return &AudioCache{
		log:       log,
		dir:       dir,
		writeDisk: writeDisk,
		maxItems:  maxItems,
		entries:   make(map[string][]byte),
	}
}

// Get returns the clip for text in voice, checking memory then disk.
func (c *AudioCache) Get(voice, text string) ([]byte, bool) {
	key := cacheKey(voice, text)

	c.mu.Lock()
	data, ok := c.entries[key]
	if ok {
		c.touch(key)
	}
	c.mu.Unlock()
	if ok {
		c.count(true)
		c.log.Debug("cache hit (mem): %s", truncate(text, 40))
		return data, true
	}

	if c.dir != "" {
		if data, err := os.ReadFile(c.path(key)); err == nil {
			c.store(key, data)
			c.count(true)
			c.log.Debug("cache hit (disk): %s", truncate(text, 40))
			return data, true
		}
	}

	c.count(false)
	return nil, false
}

// Put stores a clip in memory and, when enabled, on disk.
func (c *AudioCache) Put(voice, text string, wav []byte) {
	key := cacheKey(voice, text)
	c.store(key, wav)

	if c.dir == "" || !c.writeDisk {
		return
	}
	if err := os.WriteFile(c.path(key), wav, 0o644); err != nil {
		c.log.Error("cache: disk write %s: %v", key[:12], err)
	}
}

// Len returns the number of clips held in memory.
func (c *AudioCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns hit and miss counts.
func (c *AudioCache) Stats() (hits, misses int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

func (c *AudioCache) store(key string, wav []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		c.touch(key)
	} else {
		c.order = append(c.order, key)
	}
	c.entries[key] = wav
	for c.maxItems > 0 && len(c.order) > c.maxItems {
		delete(c.entries, c.order[0])
		c.order = c.order[1:]
	}
}

// touch moves key to the most recently used end. Callers hold mu.
func (c *AudioCache) touch(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(append(c.order[:i:i], c.order[i+1:]...), key)
			return
		}
	}
}

func (c *AudioCache) count(hit bool) {
	c.mu.Lock()
	if hit {
		c.hits++
	} else {
		c.misses++
	}
	c.mu.Unlock()
}

func (c *AudioCache) path(key string) string {
	return filepath.Join(c.dir, key+".wav")
}

func cacheKey(voice, text string) string {
	h := sha256.Sum256([]byte(voice + ":" + text))
	return hex.EncodeToString(h[:])
}
