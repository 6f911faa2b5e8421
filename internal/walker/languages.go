package walker

import "strings"

// languageByExt is SPEC_FULL §6's supported-extensions table for lexical
// indexing: "rs→rust, py→python, ts|tsx→typescript, js|jsx→javascript,
// go→go, java→java, c|h→c, cpp|hpp|cc→cpp, rb→ruby, md→markdown,
// toml→toml, yaml|yml→yaml, json→json".
var languageByExt = map[string]string{
	".rs":   "rust",
	".py":   "python",
	".ts":   "typescript",
	".tsx":  "typescript",
	".js":   "javascript",
	".jsx":  "javascript",
	".go":   "go",
	".java": "java",
	".c":    "c",
	".h":    "c",
	".cpp":  "cpp",
	".hpp":  "cpp",
	".cc":   "cpp",
	".rb":   "ruby",
	".md":   "markdown",
	".toml": "toml",
	".yaml": "yaml",
	".yml":  "yaml",
	".json": "json",
}

// DetectLanguage maps a file's extension to its language name; empty string
// for extensions outside SPEC_FULL's supported set.
func DetectLanguage(path string) string {
	ext := extensionOf(path)
	return languageByExt[ext]
}

func extensionOf(path string) string {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 {
		return ""
	}
	slashIdx := strings.LastIndexByte(path, '/')
	if slashIdx > idx {
		return ""
	}
	return strings.ToLower(path[idx:])
}
