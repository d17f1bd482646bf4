package embedding

import (
	"path"
	"strings"
)

var ignoredFiles = map[string]bool{
	"README.md":          true,
	"CHANGELOG.md":       true,
	"LICENSE":            true,
	"LICENSE.txt":        true,
	"CONTRIBUTING.md":    true,
	"CODE_OF_CONDUCT.md": true,
	"SECURITY.md":        true,
}

// Filter selects the files worth embedding: visible source files with an
// allowed extension.
type Filter struct {
	extensions map[string]bool
}

func NewFilter(extensions []string) *Filter {
	f := &Filter{extensions: make(map[string]bool, len(extensions))}
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		f.extensions[ext] = true
	}
	return f
}

func (f *Filter) IsCodeFile(name string) bool {
	base := path.Base(name)
	if strings.HasPrefix(base, ".") || ignoredFiles[base] {
		return false
	}
	return f.extensions[strings.ToLower(path.Ext(base))]
}
