package rag

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/rs/zerolog/log"
)

const (
	DefaultChunkChars   = 1200
	DefaultChunkOverlap = 200
	defaultEmbedBatch   = 64
)

// Document is one source file read by the indexer.
type Document struct {
	DocID      string
	Path       string
	Text       string
	Collection string
}

type Chunk struct {
	ChunkID   int
	StartChar int
	EndChar   int
	Text      string
}

type IndexerOption func(*Indexer)

func WithChunking(chars, overlap int) IndexerOption {
	return func(ix *Indexer) {
		if chars > 0 {
			ix.chunkChars = chars
		}
		if overlap >= 0 && overlap < ix.chunkChars {
			ix.overlap = overlap
		}
	}
}

func WithEmbedBatch(n int) IndexerOption {
	return func(ix *Indexer) {
		if n > 0 {
			ix.batch = n
		}
	}
}

// Indexer builds the JSONL index consumed by Retriever.
type Indexer struct {
	embedder   embedding.Embedder
	chunkChars int
	overlap    int
	batch      int
}

func NewIndexer(embedder embedding.Embedder, opts ...IndexerOption) (*Indexer, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	ix := &Indexer{
		embedder:   embedder,
		chunkChars: DefaultChunkChars,
		overlap:    DefaultChunkOverlap,
		batch:      defaultEmbedBatch,
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix, nil
}

// ReadDocuments collects .md and .txt files under root. The first directory
// level below root is used as the collection name.
func ReadDocuments(root string) ([]Document, error) {
	var docs []Document
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".md", ".txt":
		default:
			return nil
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		docs = append(docs, Document{
			DocID:      d.Name(),
			Path:       path,
			Text:       strings.ToValidUTF8(string(raw), ""),
			Collection: collectionOf(root, path),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs, nil
}

func collectionOf(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return ""
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[0]
}

// ChunkText splits text into overlapping windows measured in characters.
// Offsets are character offsets into the original text.
func ChunkText(text string, size, overlap int) []Chunk {
	runes := []rune(text)
	if size <= 0 {
		size = DefaultChunkChars
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	var chunks []Chunk
	step := size - overlap
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		piece := strings.TrimSpace(string(runes[start:end]))
		if piece != "" {
			chunks = append(chunks, Chunk{
				ChunkID:   len(chunks),
				StartChar: start,
				EndChar:   end,
				Text:      piece,
			})
		}
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// Build chunks and embeds every document.
func (ix *Indexer) Build(ctx context.Context, docs []Document) ([]Record, error) {
	var rows []Record
	for _, doc := range docs {
		for _, c := range ChunkText(doc.Text, ix.chunkChars, ix.overlap) {
			rows = append(rows, Record{
				DocID:      doc.DocID,
				Path:       doc.Path,
				ChunkID:    c.ChunkID,
				StartChar:  c.StartChar,
				EndChar:    c.EndChar,
				Text:       c.Text,
				Collection: doc.Collection,
			})
		}
	}

	for start := 0; start < len(rows); start += ix.batch {
		end := start + ix.batch
		if end > len(rows) {
			end = len(rows)
		}
		texts := make([]string, 0, end-start)
		for i := start; i < end; i++ {
			texts = append(texts, rows[i].Text)
		}
		vectors, err := ix.embedder.EmbedStrings(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed chunks %d-%d: %w", start, end, err)
		}
		if len(vectors) != len(texts) {
			return nil, fmt.Errorf("embed chunks %d-%d: got %d vectors for %d texts", start, end, len(vectors), len(texts))
		}
		for i, v := range vectors {
			rows[start+i].Embedding = v
		}
	}
	return rows, nil
}

// BuildFile indexes docsDir and writes the result to outPath.
func (ix *Indexer) BuildFile(ctx context.Context, docsDir, outPath string) (int, error) {
	docs, err := ReadDocuments(docsDir)
	if err != nil {
		return 0, fmt.Errorf("read documents: %w", err)
	}
	rows, err := ix.Build(ctx, docs)
	if err != nil {
		return 0, err
	}

	if dir := filepath.Dir(outPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("create index dir: %w", err)
		}
	}
	tmp := outPath + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("create index: %w", err)
	}
	if err := WriteRecords(f, rows); err != nil {
		f.Close()
		return 0, err
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close index: %w", err)
	}
	if err := os.Rename(tmp, outPath); err != nil {
		return 0, fmt.Errorf("replace index: %w", err)
	}

	log.Info().
		Int("documents", len(docs)).
		Int("chunks", len(rows)).
		Str("path", outPath).
		Msg("rag index written")
	return len(rows), nil
}
