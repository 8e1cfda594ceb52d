// Package notes maintains a searchable index over a markdown vault
// and serves mention candidates from it.
package notes

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"github.com/zeebo/xxh3"
	"gopkg.in/yaml.v3"
)

// Note is one indexed markdown file.
type Note struct {
	ID      string
	Path    string // vault-relative
	Title   string
	Tags    []string
	ModTime time.Time
	Hash    uint64
}

var frontmatterRE = regexp.MustCompile(`(?ms)\A---\n(.+?)\n---`)

// parseNote extracts identity and metadata from a note's content.
// Title comes from frontmatter, else the first markdown heading, else
// the file name; the ID comes from a frontmatter `id` field, else a
// hash of the vault-relative path so it stays stable across edits.
func parseNote(relPath string, content []byte, modTime time.Time) Note {
	n := Note{
		Path:    filepath.ToSlash(relPath),
		ModTime: modTime,
		Hash:    xxh3.Hash(content),
	}

	var meta struct {
		ID    string   `yaml:"id"`
		Title string   `yaml:"title"`
		Tags  []string `yaml:"tags"`
	}
	body := content
	if m := frontmatterRE.FindSubmatch(content); len(m) == 2 {
		// The heading fallback must not see frontmatter; a key: value
		// line above --- parses as a setext heading.
		body = content[len(m[0]):]
		if err := yaml.Unmarshal(m[1], &meta); err == nil {
			n.ID = strings.TrimSpace(meta.ID)
			n.Title = strings.TrimSpace(meta.Title)
			n.Tags = meta.Tags
		}
	}
	if n.Title == "" {
		n.Title = firstHeading(body)
	}
	if n.Title == "" {
		base := filepath.Base(relPath)
		n.Title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if n.ID == "" {
		n.ID = fmt.Sprintf("%016x", xxh3.HashString(n.Path))
	}
	return n
}

// firstHeading returns the text of the first heading in the document.
func firstHeading(source []byte) string {
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))
	var title string
	_ = ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := node.(*ast.Heading); ok {
			title = string(h.Text(source))
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(title)
}
