package rag

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

var ErrIndexNotFound = errors.New("rag index not found")

const maxIndexLineBytes = 16 << 20

// Record is one chunk of the persisted index. The JSONL layout is shared with
// the offline indexer.
type Record struct {
	DocID      string    `json:"doc_id"`
	Path       string    `json:"path"`
	ChunkID    int       `json:"chunk_id"`
	StartChar  int       `json:"start_char"`
	EndChar    int       `json:"end_char"`
	Text       string    `json:"text"`
	Embedding  []float64 `json:"embedding"`
	Collection string    `json:"collection,omitempty"`
}

// IndexLoader reads the JSONL index, caching the parsed rows.
type IndexLoader struct {
	path  string
	cache *cache.Cache
}

func NewIndexLoader(path string, ttl time.Duration) *IndexLoader {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &IndexLoader{
		path:  strings.TrimSpace(path),
		cache: cache.New(ttl, 2*ttl),
	}
}

func (l *IndexLoader) Path() string {
	return l.path
}

func (l *IndexLoader) Load() ([]Record, error) {
	if v, ok := l.cache.Get(l.path); ok {
		return v.([]Record), nil
	}

	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrIndexNotFound, l.path)
		}
		return nil, fmt.Errorf("open rag index: %w", err)
	}
	defer f.Close()

	rows, err := ReadRecords(f)
	if err != nil {
		return nil, err
	}
	l.cache.SetDefault(l.path, rows)
	return rows, nil
}

// Invalidate drops the cached rows, e.g. after the indexer rewrote the file.
func (l *IndexLoader) Invalidate() {
	l.cache.Delete(l.path)
}

func ReadRecords(r io.Reader) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxIndexLineBytes)

	var rows []Record
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("decode rag index line %d: %w", line, err)
		}
		rows = append(rows, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan rag index: %w", err)
	}
	return rows, nil
}

func WriteRecords(w io.Writer, rows []Record) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for i := range rows {
		if err := enc.Encode(&rows[i]); err != nil {
			return fmt.Errorf("encode rag record %d: %w", i, err)
		}
	}
	return nil
}
