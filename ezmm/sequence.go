// Package ezmm provides the multimodal sequence representation: an ordered
// interleaving of markdown text spans and media references that preserves the
// layout of the source document.
package ezmm

import (
	"fmt"
	"strings"
)

type Kind = string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// Item is a single element of a MultimodalSequence: either a TextSpan or a Media.
type Item interface {
	item()
}

// TextSpan is a markdown-formatted run of text.
type TextSpan string

func (TextSpan) item() {}

// Media references an image or video by URL. Path is set once the asset has
// been downloaded to local storage.
type Media struct {
	Kind Kind
	URL  string
	Path string
}

func (Media) item() {}

// MultimodalSequence is an ordered sequence of text and media items. The
// insertion order is meaningful: it reconstructs the original document layout.
type MultimodalSequence struct {
	Items []Item
}

func NewSequence(items ...Item) *MultimodalSequence {
	return &MultimodalSequence{Items: items}
}

func (s *MultimodalSequence) Append(items ...Item) {
	s.Items = append(s.Items, items...)
}

func (s *MultimodalSequence) Len() int {
	return len(s.Items)
}

// Text returns all text spans concatenated in order.
func (s *MultimodalSequence) Text() string {
	var spans []string
	for _, item := range s.Items {
		if t, ok := item.(TextSpan); ok {
			spans = append(spans, string(t))
		}
	}

	return strings.Join(spans, "\n\n")
}

func (s *MultimodalSequence) HasImages() bool {
	return s.hasKind(KindImage)
}

func (s *MultimodalSequence) HasVideos() bool {
	return s.hasKind(KindVideo)
}

func (s *MultimodalSequence) hasKind(kind Kind) bool {
	for _, item := range s.Items {
		if m, ok := item.(Media); ok && m.Kind == kind {
			return true
		}
	}

	return false
}

// String renders the sequence as markdown, with media items as references.
// Downloaded media are referenced by their local path, otherwise by URL.
func (s *MultimodalSequence) String() string {
	var builder strings.Builder
	for i, item := range s.Items {
		if i > 0 {
			builder.WriteString("\n\n")
		}

		switch v := item.(type) {
		case TextSpan:
			builder.WriteString(string(v))
		case Media:
			ref := v.URL
			if v.Path != "" {
				ref = v.Path
			}

			if v.Kind == KindImage {
				builder.WriteString(fmt.Sprintf("![%s](%s)", v.Kind, ref))
			} else {
				builder.WriteString(fmt.Sprintf("[%s](%s)", v.Kind, ref))
			}
		}
	}

	return builder.String()
}
