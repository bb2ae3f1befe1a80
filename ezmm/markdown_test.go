package ezmm

import (
	"reflect"
	"strings"
	"testing"
)

func TestFromMarkdownInterleaving(t *testing.T) {
	md := "# Title\nBody text ![img](https://x/img.png)"

	seq := FromMarkdown(md, false)

	if len(seq.Items) != 2 {
		t.Fatalf("expected 2 items, got %d: %#v", len(seq.Items), seq.Items)
	}

	span, ok := seq.Items[0].(TextSpan)
	if !ok {
		t.Fatalf("expected leading text span, got %T", seq.Items[0])
	}
	if !strings.Contains(string(span), "# Title") || !strings.Contains(string(span), "Body text") {
		t.Errorf("unexpected text span: %q", span)
	}

	media, ok := seq.Items[1].(Media)
	if !ok {
		t.Fatalf("expected trailing media, got %T", seq.Items[1])
	}
	if media.Kind != KindImage || media.URL != "https://x/img.png" {
		t.Errorf("unexpected media: %#v", media)
	}
}

func TestFromMarkdownSplitsAroundMedia(t *testing.T) {
	md := "before ![a](https://x/a.png) after"

	seq := FromMarkdown(md, false)

	kinds := make([]string, 0, len(seq.Items))
	for _, item := range seq.Items {
		switch item.(type) {
		case TextSpan:
			kinds = append(kinds, "text")
		case Media:
			kinds = append(kinds, "media")
		}
	}

	if !reflect.DeepEqual(kinds, []string{"text", "media", "text"}) {
		t.Errorf("unexpected item kinds: %v", kinds)
	}
}

func TestFromMarkdownStripsHyperlinks(t *testing.T) {
	md := "See [the docs](https://example.com/docs) and <https://example.com/raw>."

	seq := FromMarkdown(md, false)

	text := seq.Text()
	if strings.Contains(text, "example.com") {
		t.Errorf("hyperlink URL not stripped: %q", text)
	}
	if !strings.Contains(text, "the docs") {
		t.Errorf("hypertext lost: %q", text)
	}

	kept := FromMarkdown(md, true).Text()
	if !strings.Contains(kept, "[the docs](https://example.com/docs)") {
		t.Errorf("hyperlink lost with keepLinks: %q", kept)
	}
}

func TestStripLinks(t *testing.T) {
	got := StripLinks("Read [the blog](https://telegram.org/blog) for **details**.")

	if strings.Contains(got, "telegram.org") {
		t.Errorf("hyperlink URL not stripped: %q", got)
	}
	if !strings.Contains(got, "the blog") || !strings.Contains(got, "**details**") {
		t.Errorf("text mangled: %q", got)
	}
}

func TestFromMarkdownDeterministicOrdering(t *testing.T) {
	md := "a ![x](https://x/1.png) b\n\nc ![y](https://x/2.mp4) d"

	first := FromMarkdown(md, false)
	second := FromMarkdown(md, false)

	if !reflect.DeepEqual(first.Items, second.Items) {
		t.Error("normalization is not deterministic")
	}
}

func TestMediaURLs(t *testing.T) {
	md := "![a](https://x/a.png)\n\ntext\n\n![b](https://x/b.jpg)"

	urls := MediaURLs(md)
	if !reflect.DeepEqual(urls, []string{"https://x/a.png", "https://x/b.jpg"}) {
		t.Errorf("unexpected media URLs: %v", urls)
	}
}

func TestKindFromURL(t *testing.T) {
	cases := []struct {
		url  string
		want Kind
	}{
		{"https://x/a.png", KindImage},
		{"https://x/a.jpg?width=640", KindImage},
		{"https://x/a.mp4", KindVideo},
		{"https://x/stream.m3u8", KindVideo},
		{"https://x/no-extension", KindImage},
		{"https://x/a.webm#t=3", KindVideo},
		{"https://x/path/to/b.jpeg", KindImage},
	}

	for _, c := range cases {
		if got := KindFromURL(c.url); got != c.want {
			t.Errorf("KindFromURL(%q) = %q, want %q", c.url, got, c.want)
		}
	}
}
