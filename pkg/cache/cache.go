package cache

import (
	"compress/gzip"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const defaultTTL = 7 * 24 * time.Hour

// Cache stores serialized trained models on disk, keyed by a fingerprint of
// everything that determines the model: classifier, training data, class
// weights, and seed.
type Cache struct {
	Dir string
	TTL time.Duration
}

func New(dir string, ttl time.Duration) (*Cache, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, ".proval", "cache")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &Cache{Dir: dir, TTL: ttl}, nil
}

type cacheEntry struct {
	Model      []byte    `json:"model"`
	CachedAt   time.Time `json:"cached_at"`
	Classifier string    `json:"classifier"`
}

// Key fingerprints a training call. Models are deterministic given these
// inputs, so equal keys imply interchangeable models.
func Key(classifier string, x [][]float64, y []int, weights map[int]float64, seed int64) string {
	h := sha256.New()
	h.Write([]byte(classifier))
	h.Write([]byte{0})

	var buf [8]byte
	writeFloat := func(v float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}
	writeInt := func(v int64) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		h.Write(buf[:])
	}

	writeInt(int64(len(x)))
	for _, row := range x {
		writeInt(int64(len(row)))
		for _, v := range row {
			writeFloat(v)
		}
	}
	writeInt(int64(len(y)))
	for _, label := range y {
		writeInt(int64(label))
	}

	labels := make([]int, 0, len(weights))
	for label := range weights {
		labels = append(labels, label)
	}
	sort.Ints(labels)
	writeInt(int64(len(labels)))
	for _, label := range labels {
		writeInt(int64(label))
		writeFloat(weights[label])
	}

	writeInt(seed)
	return hex.EncodeToString(h.Sum(nil))
}

func (c *Cache) path(k string) string {
	return filepath.Join(c.Dir, k+".json.gz")
}

// Get returns the cached model bytes for the key, expiring stale entries.
func (c *Cache) Get(k string) ([]byte, bool) {
	p := c.path(k)
	f, err := os.Open(p)
	if err != nil {
		return nil, false
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, false
	}
	defer gz.Close()
	var e cacheEntry
	if err := json.NewDecoder(gz).Decode(&e); err != nil {
		return nil, false
	}
	if c.TTL > 0 && time.Since(e.CachedAt) > c.TTL {
		_ = os.Remove(p)
		return nil, false
	}
	return e.Model, true
}

// Set stores model bytes under the key. The write lands atomically so a
// concurrent Get never observes a partial entry.
func (c *Cache) Set(k, classifier string, model []byte) error {
	p := c.path(k)
	e := cacheEntry{Model: model, CachedAt: time.Now(), Classifier: classifier}
	f, err := os.CreateTemp(c.Dir, "tmp-*.json.gz")
	if err != nil {
		return err
	}
	gz := gzip.NewWriter(f)
	if err := json.NewEncoder(gz).Encode(e); err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}
	if err := gz.Close(); err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return err
	}
	if err := os.Rename(f.Name(), p); err != nil {
		os.Remove(f.Name())
		return err
	}
	return nil
}
