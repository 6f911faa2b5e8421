package chunk

import (
	"context"
	"errors"
)

// ErrParseFailed is returned when tree-sitter fails to parse a file whose
// language is otherwise supported.
var ErrParseFailed = errors.New("chunk: parse failed")

// MinChunkBytes is the minimum content length for an AST-extracted chunk;
// anything shorter is dropped as noise (SPEC_FULL §4.1).
const MinChunkBytes = 50

// ChunkType classifies what kind of source construct a CodeChunk spans.
type ChunkType string

const (
	ChunkTypeFunction ChunkType = "Function"
	ChunkTypeClass    ChunkType = "Class"
	ChunkTypeMethod   ChunkType = "Method"
	ChunkTypeStruct   ChunkType = "Struct"
	ChunkTypeImpl     ChunkType = "Impl"
	ChunkTypeModule   ChunkType = "Module"
	ChunkTypeBlock    ChunkType = "Block"
)

// CodeChunk is a retrievable unit of source, either extracted from an AST
// node or carved out by the sliding-window fallback.
type CodeChunk struct {
	FilePath  string
	Language  string
	ChunkType ChunkType
	Name      string // empty when the grammar has no "name" child
	StartByte uint32
	EndByte   uint32
	StartLine int // 1-indexed
	EndLine   int // 1-indexed, inclusive
	Content   string
}

// FileInput is input to a Chunker.
type FileInput struct {
	Path     string // relative to the indexed root
	Content  []byte
	Language string
}

// Chunker splits a file into CodeChunks.
type Chunker interface {
	// Chunk splits a file into chunks, falling back to the sliding window
	// when the language is unknown or the AST parse yields nothing.
	Chunk(ctx context.Context, file *FileInput) ([]*CodeChunk, error)

	// SupportedExtensions returns file extensions this chunker can AST-parse.
	SupportedExtensions() []string
}

// LanguageConfig holds the tree-sitter grammar and node-kind table for one
// supported language (SPEC_FULL §4.1's table).
type LanguageConfig struct {
	Name       string
	Extensions []string

	// NodeKindToChunkType maps a tree-sitter node kind to the ChunkType it
	// should be emitted as.
	NodeKindToChunkType map[string]ChunkType

	// NameField is the grammar's field name for a node's identifier child.
	NameField string
}

// ChunkTypeFor looks up the ChunkType for a node kind, if this language
// extracts chunks for that kind.
func (c *LanguageConfig) ChunkTypeFor(nodeKind string) (ChunkType, bool) {
	t, ok := c.NodeKindToChunkType[nodeKind]
	return t, ok
}
