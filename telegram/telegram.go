// Package telegram retrieves public channel messages through the t.me embed
// page. Public messages need no credentials; private channels and direct
// chats are not reachable this way.
package telegram

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/pkg/errors"
	"golang.org/x/net/html"

	"github.com/mempirate/scrapemm/ezmm"
	"github.com/mempirate/scrapemm/util"
)

const DefaultEndpoint = "https://t.me"

var (
	// ErrNotFound is returned for deleted, private or nonexistent messages.
	ErrNotFound = errors.New("message not found")
	// ErrBadResponse is returned when the embed page cannot be parsed.
	ErrBadResponse = errors.New("malformed embed page")
)

var (
	messageRegex    = regexp.MustCompile(`^/(?:s/)?([A-Za-z][A-Za-z0-9_]{2,})/(\d+)/?$`)
	backgroundRegex = regexp.MustCompile(`background-image:\s*url\('([^']+)'\)`)
)

// MessageRef extracts the channel handle and message ID from a t.me URL.
func MessageRef(u *url.URL) (channel, id string, ok bool) {
	matches := messageRegex.FindStringSubmatch(u.Path)
	if matches == nil {
		return "", "", false
	}

	return matches[1], matches[2], true
}

type Client struct {
	// HTTP is the transport used to fetch embed pages.
	HTTP *http.Client
	// Endpoint is the t.me base URL, overridable for tests.
	Endpoint string
}

func NewClient() *Client {
	return &Client{
		HTTP:     &http.Client{},
		Endpoint: DefaultEndpoint,
	}
}

// Message is a single public channel message.
type Message struct {
	Channel string
	ID      string
	// Author is the channel's display name.
	Author string
	// Text is the message body, converted to markdown.
	Text   string
	Photos []string
	Videos []string
	Views  string
	Date   string
}

// GetMessage fetches and parses the embed page of a public channel message.
func (c *Client) GetMessage(ctx context.Context, channel, id string) (*Message, error) {
	embedURL := fmt.Sprintf("%s/%s/%s?embed=1&mode=tme", c.Endpoint, channel, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, embedURL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", util.UserAgent)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch embed page for %s/%s", channel, id)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch embed page for %s/%s: %s", channel, id, resp.Status)
	}

	root, err := html.Parse(resp.Body)
	if err != nil {
		return nil, errors.Wrap(ErrBadResponse, err.Error())
	}

	return parseEmbed(root, channel, id)
}

func parseEmbed(root *html.Node, channel, id string) (*Message, error) {
	if findNode(root, withClass("tgme_widget_message_error")) != nil {
		return nil, errors.Wrapf(ErrNotFound, "%s/%s", channel, id)
	}

	widget := findNode(root, withClass("tgme_widget_message"))
	if widget == nil {
		return nil, errors.Wrapf(ErrBadResponse, "no message widget in embed page for %s/%s", channel, id)
	}

	msg := &Message{Channel: channel, ID: id}

	if owner := findNode(widget, withClass("tgme_widget_message_owner_name")); owner != nil {
		msg.Author = strings.TrimSpace(innerText(owner))
	}

	// A reply preview carries its own text div; the message body is the last one.
	texts := findAllNodes(widget, withClass("tgme_widget_message_text"))
	if len(texts) > 0 {
		markdown, err := md.ConvertString(innerHTML(texts[len(texts)-1]))
		if err != nil {
			return nil, errors.Wrap(ErrBadResponse, err.Error())
		}
		msg.Text = strings.TrimSpace(markdown)
	}

	for _, photo := range findAllNodes(widget, withClass("tgme_widget_message_photo_wrap")) {
		if m := backgroundRegex.FindStringSubmatch(attrVal(photo, "style")); m != nil {
			msg.Photos = append(msg.Photos, m[1])
		}
	}

	for _, video := range findAllNodes(widget, withElement("video")) {
		if src := attrVal(video, "src"); src != "" {
			msg.Videos = append(msg.Videos, src)
		}
	}

	if views := findNode(widget, withClass("tgme_widget_message_views")); views != nil {
		msg.Views = strings.TrimSpace(innerText(views))
	}

	if t := findNode(widget, withElement("time")); t != nil {
		msg.Date = attrVal(t, "datetime")
	}

	if msg.Text == "" && len(msg.Photos) == 0 && len(msg.Videos) == 0 {
		return nil, errors.Wrapf(ErrBadResponse, "embed page for %s/%s has no content", channel, id)
	}

	return msg, nil
}

// Sequence renders the message as a multimodal sequence: a header block with
// channel, date and view count, the message text, then photos and videos.
func (m *Message) Sequence() *ezmm.MultimodalSequence {
	posted := m.Date
	if ts, err := time.Parse(time.RFC3339, m.Date); err == nil {
		posted = ts.Format("January 02, 2006 at 15:04")
	}

	header := fmt.Sprintf(`**Post on Telegram**
Channel: %s (@%s)
Posted on: %s
Views: %s`, m.Author, m.Channel, posted, m.Views)

	seq := ezmm.NewSequence(ezmm.TextSpan(header))
	if m.Text != "" {
		seq.Append(ezmm.TextSpan(m.Text))
	}
	for _, u := range m.Photos {
		seq.Append(ezmm.Media{Kind: ezmm.KindImage, URL: u})
	}
	for _, u := range m.Videos {
		seq.Append(ezmm.Media{Kind: ezmm.KindVideo, URL: u})
	}

	return seq
}

type matchFunc func(*html.Node) bool

func withClass(class string) matchFunc {
	return func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}

		for _, c := range strings.Fields(attrVal(n, "class")) {
			if c == class {
				return true
			}
		}

		return false
	}
}

func withElement(name string) matchFunc {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == name
	}
}

func findNode(n *html.Node, match matchFunc) *html.Node {
	if match(n) {
		return n
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findNode(c, match); found != nil {
			return found
		}
	}

	return nil
}

func findAllNodes(n *html.Node, match matchFunc) []*html.Node {
	var nodes []*html.Node
	if match(n) {
		nodes = append(nodes, n)
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		nodes = append(nodes, findAllNodes(c, match)...)
	}

	return nodes
}

func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}

	return ""
}

func innerText(n *html.Node) string {
	var builder strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			builder.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)

	return builder.String()
}

func innerHTML(n *html.Node) string {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		html.Render(&buf, c)
	}

	return buf.String()
}
