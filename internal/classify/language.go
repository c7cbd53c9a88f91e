package classify

import (
	"path"
	"path/filepath"
	"strings"
)

// Unknown is the language reported when nothing identifies the file.
const Unknown = "unknown"

var languageByExt = map[string]string{
	".py":       "python",
	".pyw":      "python",
	".ipynb":    "jupyter",
	".go":       "go",
	".js":       "javascript",
	".mjs":      "javascript",
	".ts":       "typescript",
	".tsx":      "typescript",
	".jsx":      "javascript",
	".rb":       "ruby",
	".rs":       "rust",
	".java":     "java",
	".kt":       "kotlin",
	".swift":    "swift",
	".c":        "c",
	".h":        "c",
	".cpp":      "cpp",
	".cc":       "cpp",
	".cs":       "csharp",
	".php":      "php",
	".sh":       "shell",
	".bash":     "shell",
	".zsh":      "shell",
	".ps1":      "powershell",
	".sql":      "sql",
	".r":        "r",
	".lua":      "lua",
	".html":     "html",
	".htm":      "html",
	".css":      "css",
	".scss":     "css",
	".md":       "markdown",
	".markdown": "markdown",
	".rst":      "restructuredtext",
	".txt":      "text",
	".json":     "json",
	".yaml":     "yaml",
	".yml":      "yaml",
	".toml":     "toml",
	".xml":      "xml",
	".rss":      "xml",
	".atom":     "xml",
	".csv":      "csv",
	".tsv":      "csv",
	".pdf":      "pdf",
	".env":      "dotenv",
}

// codeLanguages lists languages that count as source code.
var codeLanguages = map[string]bool{
	"python": true, "go": true, "javascript": true, "typescript": true,
	"ruby": true, "rust": true, "java": true, "kotlin": true, "swift": true,
	"c": true, "cpp": true, "csharp": true, "php": true, "shell": true,
	"powershell": true, "sql": true, "r": true, "lua": true,
}

// shebangs maps interpreter names found on a "#!" line to languages.
var shebangs = map[string]string{
	"python": "python",
	"bash":   "shell",
	"sh":     "shell",
	"zsh":    "shell",
	"node":   "javascript",
	"nodejs": "javascript",
	"ruby":   "ruby",
}

// DetectLanguage guesses the language from the extension, then from a
// shebang line and a few content signatures.
func DetectLanguage(path, content string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := languageByExt[ext]; ok {
		return lang
	}
	if strings.EqualFold(filepath.Base(path), "Dockerfile") {
		return "dockerfile"
	}
	if strings.EqualFold(filepath.Base(path), "Makefile") {
		return "make"
	}

	if strings.HasPrefix(content, "#!") {
		line := content
		if i := strings.IndexByte(content, '\n'); i >= 0 {
			line = content[:i]
		}
		if lang, ok := shebangs[interpreter(line)]; ok {
			return lang
		}
	}

	trimmed := strings.TrimSpace(content)
	switch {
	case strings.HasPrefix(trimmed, "package ") && strings.Contains(trimmed, "func "):
		return "go"
	case strings.Contains(trimmed, "def ") && strings.Contains(trimmed, "import "):
		return "python"
	case strings.HasPrefix(strings.ToLower(trimmed), "<!doctype html") || strings.HasPrefix(strings.ToLower(trimmed), "<html"):
		return "html"
	case strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "["):
		return "json"
	}
	return Unknown
}

// IsCode reports whether lang is a programming language.
func IsCode(lang string) bool {
	return codeLanguages[lang]
}

// interpreter returns the program named by a shebang line, looking through
// "env" and dropping version suffixes so "python3.11" reads as "python".
func interpreter(line string) string {
	fields := strings.Fields(strings.TrimPrefix(line, "#!"))
	if len(fields) == 0 {
		return ""
	}
	name := path.Base(fields[0])
	if name == "env" {
		name = ""
		for _, f := range fields[1:] {
			if !strings.HasPrefix(f, "-") && !strings.Contains(f, "=") {
				name = path.Base(f)
				break
			}
		}
	}
	return strings.TrimRight(name, "0123456789.")
}
