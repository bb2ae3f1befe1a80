package ezmm

import (
	"strings"
	"testing"
)

func TestSequenceText(t *testing.T) {
	seq := NewSequence(
		TextSpan("# Title"),
		Media{Kind: KindImage, URL: "https://example.com/a.png"},
		TextSpan("Body text"),
	)

	if got := seq.Text(); got != "# Title\n\nBody text" {
		t.Errorf("unexpected text: %q", got)
	}
}

func TestSequenceKinds(t *testing.T) {
	seq := NewSequence(TextSpan("hello"))
	if seq.HasImages() || seq.HasVideos() {
		t.Error("text-only sequence reports media")
	}

	seq.Append(Media{Kind: KindImage, URL: "https://example.com/a.png"})
	if !seq.HasImages() {
		t.Error("expected images")
	}
	if seq.HasVideos() {
		t.Error("unexpected videos")
	}

	seq.Append(Media{Kind: KindVideo, URL: "https://example.com/a.mp4"})
	if !seq.HasVideos() {
		t.Error("expected videos")
	}
}

func TestSequenceString(t *testing.T) {
	seq := NewSequence(
		TextSpan("Body"),
		Media{Kind: KindImage, URL: "https://example.com/a.png"},
		Media{Kind: KindVideo, URL: "https://example.com/a.mp4", Path: "/tmp/a.mp4"},
	)

	out := seq.String()
	if !strings.Contains(out, "![image](https://example.com/a.png)") {
		t.Errorf("missing image reference: %q", out)
	}

	// Downloaded media are referenced by their local path.
	if !strings.Contains(out, "[video](/tmp/a.mp4)") {
		t.Errorf("missing local video reference: %q", out)
	}
}
