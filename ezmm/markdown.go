package ezmm

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// FromMarkdown normalizes markdown into a MultimodalSequence. Text between
// media references is collected into markdown-formatted text spans; every
// image reference becomes a Media item at its position in the document, so the
// resulting sequence interleaves text and media in document order.
//
// When keepLinks is false, hyperlinks are reduced to their hypertext and bare
// autolinks are dropped, matching how retrieved text is usually consumed.
func FromMarkdown(source string, keepLinks bool) *MultimodalSequence {
	src := []byte(source)

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	n := &normalizer{
		source:    src,
		keepLinks: keepLinks,
		seq:       NewSequence(),
	}

	n.blocks(doc)
	n.flush()

	return n.seq
}

// MediaURLs returns the media asset URLs referenced by the markdown, in
// document order.
func MediaURLs(source string) []string {
	var urls []string
	for _, item := range FromMarkdown(source, true).Items {
		if m, ok := item.(Media); ok {
			urls = append(urls, m.URL)
		}
	}

	return urls
}

// StripLinks reduces the hyperlinks in markdown text to their hypertext and
// drops bare autolinks. Media references are dropped too, so this is only for
// text that carries none.
func StripLinks(source string) string {
	return FromMarkdown(source, false).Text()
}

// KindFromURL classifies a media URL as image or video by its file extension.
// Markdown media references are images by construction, so image is the
// default.
func KindFromURL(rawURL string) Kind {
	u, err := url.Parse(rawURL)
	if err != nil {
		return KindImage
	}

	switch strings.ToLower(path.Ext(u.Path)) {
	case ".mp4", ".webm", ".mov", ".m4v", ".mkv", ".avi", ".m3u8", ".mpd":
		return KindVideo
	default:
		return KindImage
	}
}

// normalizer walks the goldmark AST, re-emitting markdown text into the
// current span and splitting the span at every media reference.
type normalizer struct {
	source    []byte
	keepLinks bool

	seq  *MultimodalSequence
	text strings.Builder
}

// flush terminates the current text span, if non-blank.
func (n *normalizer) flush() {
	span := strings.TrimSpace(n.text.String())
	n.text.Reset()

	if span != "" {
		n.seq.Append(TextSpan(span))
	}
}

// blockBreak separates adjacent blocks with a blank line.
func (n *normalizer) blockBreak() {
	s := n.text.String()
	if s != "" && !strings.HasSuffix(s, "\n\n") {
		n.text.WriteString("\n\n")
	}
}

// rawLines re-emits a block's source lines verbatim (code blocks).
func (n *normalizer) rawLines(node ast.Node) {
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		n.text.Write(seg.Value(n.source))
	}
}

func (n *normalizer) blocks(parent ast.Node) {
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		n.block(c)
	}
}

func (n *normalizer) block(node ast.Node) {
	switch v := node.(type) {
	case *ast.Heading:
		n.text.WriteString(strings.Repeat("#", v.Level) + " ")
		n.inlines(v)
		n.blockBreak()
	case *ast.Paragraph, *ast.TextBlock:
		n.inlines(node)
		n.blockBreak()
	case *ast.Blockquote:
		n.blocks(v)
	case *ast.List:
		n.list(v)
		n.blockBreak()
	case *ast.FencedCodeBlock:
		n.text.WriteString("```")
		if lang := v.Language(n.source); lang != nil {
			n.text.Write(lang)
		}
		n.text.WriteString("\n")
		n.rawLines(v)
		n.text.WriteString("```")
		n.blockBreak()
	case *ast.CodeBlock:
		n.rawLines(v)
		n.blockBreak()
	case *ast.ThematicBreak:
		n.text.WriteString("---")
		n.blockBreak()
	case *ast.HTMLBlock:
		// Raw HTML carries no normalizable content.
	default:
		if node.Type() == ast.TypeBlock {
			n.blocks(node)
			n.blockBreak()
		}
	}
}

func (n *normalizer) list(l *ast.List) {
	index := l.Start
	for item := l.FirstChild(); item != nil; item = item.NextSibling() {
		if l.IsOrdered() {
			n.text.WriteString(fmt.Sprintf("%d. ", index))
			index++
		} else {
			n.text.WriteString("- ")
		}

		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			switch c.(type) {
			case *ast.TextBlock, *ast.Paragraph:
				n.inlines(c)
			default:
				n.block(c)
			}
		}

		if !strings.HasSuffix(n.text.String(), "\n") {
			n.text.WriteString("\n")
		}
	}
}

func (n *normalizer) inlines(parent ast.Node) {
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		n.inline(c)
	}
}

func (n *normalizer) inline(node ast.Node) {
	switch v := node.(type) {
	case *ast.Text:
		n.text.Write(v.Segment.Value(n.source))
		if v.HardLineBreak() || v.SoftLineBreak() {
			n.text.WriteString("\n")
		}
	case *ast.String:
		n.text.Write(v.Value)
	case *ast.CodeSpan:
		n.text.WriteString("`")
		n.inlines(v)
		n.text.WriteString("`")
	case *ast.Emphasis:
		marker := strings.Repeat("*", v.Level)
		n.text.WriteString(marker)
		n.inlines(v)
		n.text.WriteString(marker)
	case *ast.Link:
		if n.keepLinks {
			n.text.WriteString("[")
			n.inlines(v)
			n.text.WriteString("](" + string(v.Destination) + ")")
		} else {
			n.inlines(v)
		}
	case *ast.AutoLink:
		if n.keepLinks {
			n.text.Write(v.URL(n.source))
		}
	case *ast.Image:
		// Split the current span here: the media item takes the image's
		// position in the document. Alt text is dropped with the reference.
		n.flush()
		dest := string(v.Destination)
		n.seq.Append(Media{Kind: KindFromURL(dest), URL: dest})
	case *ast.RawHTML:
		// Skipped, like HTML blocks.
	default:
		n.inlines(node)
	}
}
