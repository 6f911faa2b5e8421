package chunk

import (
	"context"
	"fmt"
)

// CodeChunkerOptions configures sliding-window fallback sizing
// (SPEC_FULL §4.1).
type CodeChunkerOptions struct {
	MaxChunkSize int     // bytes per chunk, default 2000
	OverlapRatio float64 // in [0,1), default 0.2
}

// DefaultCodeChunkerOptions returns SPEC_FULL's defaults.
func DefaultCodeChunkerOptions() CodeChunkerOptions {
	return CodeChunkerOptions{MaxChunkSize: 2000, OverlapRatio: 0.2}
}

// CodeChunker implements AST-aware chunking with a sliding-window
// fallback, using tree-sitter for the grammars in LanguageRegistry.
type CodeChunker struct {
	parser   *Parser
	registry *LanguageRegistry
	options  CodeChunkerOptions
}

// NewCodeChunker creates a chunker with default options.
func NewCodeChunker() *CodeChunker {
	return NewCodeChunkerWithOptions(DefaultCodeChunkerOptions())
}

// NewCodeChunkerWithOptions creates a chunker with explicit sizing.
func NewCodeChunkerWithOptions(opts CodeChunkerOptions) *CodeChunker {
	if opts.MaxChunkSize <= 0 {
		opts.MaxChunkSize = 2000
	}
	if opts.OverlapRatio < 0 || opts.OverlapRatio >= 1 {
		opts.OverlapRatio = 0.2
	}

	registry := DefaultRegistry()
	return &CodeChunker{
		parser:   NewParserWithRegistry(registry),
		registry: registry,
		options:  opts,
	}
}

// Close releases chunker resources.
func (c *CodeChunker) Close() {
	if c.parser != nil {
		c.parser.Close()
	}
}

// SupportedExtensions returns extensions with an AST grammar.
func (c *CodeChunker) SupportedExtensions() []string {
	return c.registry.SupportedExtensions()
}

// Chunk splits a file into CodeChunks, following SPEC_FULL §4.1: detect
// language, attempt AST extraction, and fall back to the sliding window
// when the language is unknown or extraction yields nothing.
func (c *CodeChunker) Chunk(ctx context.Context, file *FileInput) ([]*CodeChunk, error) {
	if len(file.Content) == 0 {
		return nil, nil
	}

	if _, supported := c.registry.GetByName(file.Language); !supported {
		return c.slidingWindow(file), nil
	}

	tree, err := c.parser.Parse(ctx, file.Content, file.Language)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParseFailed, file.Path, err)
	}

	chunks := c.extractAST(tree, file)
	if len(chunks) == 0 {
		return c.slidingWindow(file), nil
	}

	return chunks, nil
}

// extractAST walks the parse tree depth-first, emitting a chunk for every
// node whose kind is in the language's node-kind table. Recursion
// continues into children after emitting, so nested functions/methods
// are also emitted independently.
func (c *CodeChunker) extractAST(tree *Tree, file *FileInput) []*CodeChunk {
	config, ok := c.registry.GetByName(file.Language)
	if !ok {
		return nil
	}

	var chunks []*CodeChunk

	tree.Root.Walk(func(n *Node) bool {
		if chunkType, ok := config.ChunkTypeFor(n.Type); ok {
			content := n.GetContent(tree.Source)
			if len(content) >= MinChunkBytes {
				chunks = append(chunks, &CodeChunk{
					FilePath:  file.Path,
					Language:  file.Language,
					ChunkType: chunkType,
					Name:      n.Name,
					StartByte: n.StartByte,
					EndByte:   n.EndByte,
					StartLine: int(n.StartPoint.Row) + 1,
					EndLine:   int(n.EndPoint.Row) + 1,
					Content:   content,
				})
			}
		}
		return true
	})

	return chunks
}

// slidingWindow implements the fixed-size fallback chunker: step =
// max_chunk_size - overlap, stopping once the remainder is smaller than
// max_chunk_size/4 to avoid tiny trailing chunks.
func (c *CodeChunker) slidingWindow(file *FileInput) []*CodeChunk {
	content := file.Content
	if len(content) == 0 {
		return nil
	}

	maxSize := c.options.MaxChunkSize
	overlap := int(float64(maxSize) * c.options.OverlapRatio)
	step := maxSize - overlap
	if step <= 0 {
		step = maxSize
	}
	minRemainder := maxSize / 4

	var chunks []*CodeChunk
	n := 0

	for start := 0; start < len(content); start += step {
		end := start + maxSize
		if end > len(content) {
			end = len(content)
		}

		if end-start < minRemainder && start > 0 {
			break
		}

		n++
		chunks = append(chunks, &CodeChunk{
			FilePath:  file.Path,
			Language:  file.Language,
			ChunkType: ChunkTypeBlock,
			Name:      fmt.Sprintf("block_%d", n),
			StartByte: uint32(start),
			EndByte:   uint32(end),
			StartLine: lineNumberAt(content, start),
			EndLine:   lineNumberAt(content, end-1),
			Content:   string(content[start:end]),
		})

		if end >= len(content) {
			break
		}
	}

	return chunks
}

// lineNumberAt returns the 1-indexed line number of a byte offset.
func lineNumberAt(content []byte, offset int) int {
	if offset >= len(content) {
		offset = len(content) - 1
	}
	if offset < 0 {
		return 1
	}

	line := 1
	for i := 0; i < offset && i < len(content); i++ {
		if content[i] == '\n' {
			line++
		}
	}
	return line
}
