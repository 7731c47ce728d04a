// Package markdown extracts the structural outline and plain text of generated markdown documents.
package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Heading is a heading found in the document, in document order.
type Heading struct {
	Level int
	Text  string
	// Line is the 1-based line number of the heading.
	Line int
	// Start is the byte offset of the first byte of the heading's line.
	Start int
	// End is the byte offset just past the heading's line (including the newline).
	End int
}

// Link is an inline link.
type Link struct {
	Text        string
	Destination string
	Line        int
}

// Outline is the parsed structure of a document.
type Outline struct {
	Source   []byte
	Headings []Heading
	Links    []Link
}

// Parse parses a markdown document into its outline.
// Headings inside code blocks are not reported.
func Parse(doc string) *Outline {
	source := []byte(doc)
	root := goldmark.DefaultParser().Parse(text.NewReader(source))

	outline := &Outline{Source: source}
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			offset, ok := firstSegmentStart(node)
			if !ok {
				return ast.WalkSkipChildren, nil
			}
			start := lineStart(source, offset)
			end := lineEnd(source, offset)
			if !bytes.HasPrefix(bytes.TrimLeft(source[start:], " "), []byte("#")) {
				// setext heading: the underline belongs to the heading
				end = lineEnd(source, end)
			}
			outline.Headings = append(outline.Headings, Heading{
				Level: node.Level,
				Text:  strings.TrimSpace(string(node.Text(source))),
				Line:  lineNumber(source, offset),
				Start: start,
				End:   end,
			})
		case *ast.Link:
			line := 0
			if offset, ok := inlineStart(node); ok {
				line = lineNumber(source, offset)
			}
			outline.Links = append(outline.Links, Link{
				Text:        string(node.Text(source)),
				Destination: string(node.Destination),
				Line:        line,
			})
		}
		return ast.WalkContinue, nil
	})

	return outline
}

// SectionBody returns the body text under the heading at index i, up to the next heading
// of the same or a higher level (lower number), or the end of the document.
func (o *Outline) SectionBody(i int) string {
	if i < 0 || i >= len(o.Headings) {
		return ""
	}
	h := o.Headings[i]
	end := len(o.Source)
	for _, next := range o.Headings[i+1:] {
		if next.Level <= h.Level {
			end = next.Start
			break
		}
	}
	if h.End >= end {
		return ""
	}
	return strings.TrimSpace(string(o.Source[h.End:end]))
}

// HeadingsAtLevel returns the indexes of headings with the given level.
func (o *Outline) HeadingsAtLevel(level int) []int {
	var idx []int
	for i, h := range o.Headings {
		if h.Level == level {
			idx = append(idx, i)
		}
	}
	return idx
}

func firstSegmentStart(n ast.Node) (int, bool) {
	lines := n.Lines()
	if lines != nil && lines.Len() > 0 {
		return lines.At(0).Start, true
	}
	return inlineStart(n)
}

// inlineStart finds the first text segment under an inline node.
func inlineStart(n ast.Node) (int, bool) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			return t.Segment.Start, true
		}
		if off, ok := inlineStart(c); ok {
			return off, true
		}
	}
	return 0, false
}

func lineStart(source []byte, offset int) int {
	if offset > len(source) {
		offset = len(source)
	}
	return bytes.LastIndexByte(source[:offset], '\n') + 1
}

func lineEnd(source []byte, offset int) int {
	if offset > len(source) {
		return len(source)
	}
	idx := bytes.IndexByte(source[offset:], '\n')
	if idx < 0 {
		return len(source)
	}
	return offset + idx + 1
}

func lineNumber(source []byte, offset int) int {
	if offset > len(source) {
		offset = len(source)
	}
	return bytes.Count(source[:offset], []byte{'\n'}) + 1
}
