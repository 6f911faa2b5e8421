package chunk

import (
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// LanguageRegistry manages supported languages and their node-kind tables.
type LanguageRegistry struct {
	mu          sync.RWMutex
	configs     map[string]*LanguageConfig
	extToLang   map[string]string
	tsLanguages map[string]*sitter.Language
}

// NewLanguageRegistry creates a registry with the five grammars SPEC_FULL
// §4.1 names: Rust, Python, JS/TS/TSX, Go.
func NewLanguageRegistry() *LanguageRegistry {
	r := &LanguageRegistry{
		configs:     make(map[string]*LanguageConfig),
		extToLang:   make(map[string]string),
		tsLanguages: make(map[string]*sitter.Language),
	}

	r.registerRust()
	r.registerPython()
	r.registerJavaScript()
	r.registerTypeScript()
	r.registerGo()

	return r
}

// GetByExtension returns the language configuration for a file extension.
func (r *LanguageRegistry) GetByExtension(ext string) (*LanguageConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	langName, ok := r.extToLang[ext]
	if !ok {
		return nil, false
	}

	config, ok := r.configs[langName]
	return config, ok
}

// GetByName returns the language configuration by name.
func (r *LanguageRegistry) GetByName(name string) (*LanguageConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	config, ok := r.configs[name]
	return config, ok
}

// GetTreeSitterLanguage returns the tree-sitter grammar for a language name.
func (r *LanguageRegistry) GetTreeSitterLanguage(name string) (*sitter.Language, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lang, ok := r.tsLanguages[name]
	return lang, ok
}

// SupportedExtensions returns all extensions with an AST grammar.
func (r *LanguageRegistry) SupportedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.extToLang))
	for ext := range r.extToLang {
		exts = append(exts, ext)
	}
	return exts
}

func (r *LanguageRegistry) registerLanguage(config *LanguageConfig, tsLang *sitter.Language) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.configs[config.Name] = config
	r.tsLanguages[config.Name] = tsLang

	for _, ext := range config.Extensions {
		r.extToLang[ext] = config.Name
	}
}

func (r *LanguageRegistry) registerRust() {
	config := &LanguageConfig{
		Name:       "rust",
		Extensions: []string{".rs"},
		NodeKindToChunkType: map[string]ChunkType{
			"function_item": ChunkTypeFunction,
			"impl_item":     ChunkTypeImpl,
			"struct_item":   ChunkTypeStruct,
			"mod_item":      ChunkTypeModule,
		},
		NameField: "name",
	}
	r.registerLanguage(config, rust.GetLanguage())
}

func (r *LanguageRegistry) registerPython() {
	config := &LanguageConfig{
		Name:       "python",
		Extensions: []string{".py"},
		NodeKindToChunkType: map[string]ChunkType{
			"function_definition": ChunkTypeFunction,
			"class_definition":    ChunkTypeClass,
		},
		NameField: "name",
	}
	r.registerLanguage(config, python.GetLanguage())
}

func (r *LanguageRegistry) registerJavaScript() {
	nodeKinds := map[string]ChunkType{
		"function_declaration": ChunkTypeFunction,
		"arrow_function":       ChunkTypeFunction,
		"function":             ChunkTypeFunction,
		"class_declaration":    ChunkTypeClass,
		"method_definition":    ChunkTypeMethod,
	}

	jsConfig := &LanguageConfig{
		Name:                "javascript",
		Extensions:          []string{".js", ".mjs"},
		NodeKindToChunkType: nodeKinds,
		NameField:           "name",
	}
	r.registerLanguage(jsConfig, javascript.GetLanguage())

	jsxConfig := &LanguageConfig{
		Name:                "jsx",
		Extensions:          []string{".jsx"},
		NodeKindToChunkType: nodeKinds,
		NameField:           "name",
	}
	r.registerLanguage(jsxConfig, javascript.GetLanguage())
}

func (r *LanguageRegistry) registerTypeScript() {
	nodeKinds := map[string]ChunkType{
		"function_declaration": ChunkTypeFunction,
		"arrow_function":       ChunkTypeFunction,
		"function":             ChunkTypeFunction,
		"class_declaration":    ChunkTypeClass,
		"method_definition":    ChunkTypeMethod,
	}

	tsConfig := &LanguageConfig{
		Name:                "typescript",
		Extensions:          []string{".ts"},
		NodeKindToChunkType: nodeKinds,
		NameField:           "name",
	}
	r.registerLanguage(tsConfig, typescript.GetLanguage())

	tsxConfig := &LanguageConfig{
		Name:                "tsx",
		Extensions:          []string{".tsx"},
		NodeKindToChunkType: nodeKinds,
		NameField:           "name",
	}
	r.registerLanguage(tsxConfig, tsx.GetLanguage())
}

func (r *LanguageRegistry) registerGo() {
	config := &LanguageConfig{
		Name:       "go",
		Extensions: []string{".go"},
		NodeKindToChunkType: map[string]ChunkType{
			"function_declaration": ChunkTypeFunction,
			"method_declaration":   ChunkTypeFunction,
			"type_declaration":     ChunkTypeStruct,
		},
		NameField: "name",
	}
	r.registerLanguage(config, golang.GetLanguage())
}

// defaultRegistry is the global language registry.
var defaultRegistry = NewLanguageRegistry()

// DefaultRegistry returns the global language registry.
func DefaultRegistry() *LanguageRegistry {
	return defaultRegistry
}
