// Package twitter is a narrow X API v2 client for reading single posts.
// Requires "Basic" API access; "Free" access does not include reading posts.
package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/mempirate/scrapemm/ezmm"
)

const DefaultEndpoint = "https://api.x.com/2/"

var (
	// ErrUnauthorized is returned when the API rejects the bearer token.
	ErrUnauthorized = errors.New("bearer token rejected")
	// ErrBadResponse is returned when the API response cannot be decoded.
	ErrBadResponse = errors.New("malformed API response")
)

var (
	statusRegex = regexp.MustCompile(`(?i)^/\w+/status(?:es)?/(\d+)`)
	tcoRegex    = regexp.MustCompile(`https?://t\.co/\S+`)
)

// PostID extracts the post ID from a twitter.com or x.com status URL.
func PostID(u *url.URL) (string, bool) {
	matches := statusRegex.FindStringSubmatch(u.Path)
	if matches == nil {
		return "", false
	}

	return matches[1], true
}

type Client struct {
	// HTTP is the transport used for API calls. Defaults to a plain client.
	HTTP *http.Client
	// Endpoint is the API base URL, overridable for tests.
	Endpoint string

	token string
}

func NewClient(token string) *Client {
	return &Client{
		HTTP:     &http.Client{},
		Endpoint: DefaultEndpoint,
		token:    token,
	}
}

type tweetJSON struct {
	Data struct {
		ID        string `json:"id"`
		Text      string `json:"text"`
		NoteTweet struct {
			Text string `json:"text"`
		} `json:"note_tweet"`
		// time.RFC3339 (ISO 8601)
		CreatedAt   string `json:"created_at"`
		AuthorID    string `json:"author_id"`
		Attachments struct {
			MediaKeys []string `json:"media_keys"`
		} `json:"attachments"`
		PublicMetrics Metrics `json:"public_metrics"`
	} `json:"data"`
	Includes struct {
		Users []struct {
			ID       string `json:"id"`
			Name     string `json:"name"`
			Username string `json:"username"`
		} `json:"users"`
		Media []struct {
			MediaKey        string `json:"media_key"`
			Type            string `json:"type"`
			URL             string `json:"url"`
			PreviewImageURL string `json:"preview_image_url"`
			Variants        []videoVariant `json:"variants"`
		} `json:"media"`
	} `json:"includes"`
}

type Metrics struct {
	Likes       int `json:"like_count"`
	Retweets    int `json:"retweet_count"`
	Replies     int `json:"reply_count"`
	Impressions int `json:"impression_count"`
}

// Medium is a single media attachment of a post, already resolved to a
// downloadable URL.
type Medium struct {
	Kind ezmm.Kind
	URL  string
}

type Tweet struct {
	ID        string
	Text      string
	Username  string
	Name      string
	CreatedAt string
	Metrics   Metrics
	Media     []Medium
}

// GetTweet returns a post by ID, with its author and resolved media
// attachments. Photos are referenced by their direct URL; for videos and
// animated GIFs, the MP4 variant with the highest bitrate is chosen.
func (c *Client) GetTweet(ctx context.Context, id string) (*Tweet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint+"tweets/"+id, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Add("Authorization", "Bearer "+c.token)

	q := req.URL.Query()
	q.Set("tweet.fields", "note_tweet,created_at,author_id,public_metrics")
	q.Set("expansions", "author_id,attachments.media_keys")
	q.Set("media.fields", "url,variants,type,preview_image_url")
	req.URL.RawQuery = q.Encode()

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get post")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, errors.Wrapf(ErrUnauthorized, "failed to get post %s: %s", id, resp.Status)
	default:
		return nil, fmt.Errorf("failed to get post %s: %s", id, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	var tweet tweetJSON
	if err := json.Unmarshal(body, &tweet); err != nil {
		return nil, errors.Wrap(ErrBadResponse, err.Error())
	}

	if tweet.Data.ID == "" || len(tweet.Includes.Users) == 0 {
		return nil, errors.Wrapf(ErrBadResponse, "post %s missing data or author", id)
	}

	// The long-form note text supersedes the truncated text.
	text := tweet.Data.Text
	if tweet.Data.NoteTweet.Text != "" {
		text = tweet.Data.NoteTweet.Text
	}

	// Strip t.co short links; they only point at the attachments.
	text = strings.TrimSpace(tcoRegex.ReplaceAllString(text, ""))

	var media []Medium
	for _, m := range tweet.Includes.Media {
		switch m.Type {
		case "photo":
			media = append(media, Medium{Kind: ezmm.KindImage, URL: m.URL})
		case "video", "animated_gif":
			if u := bestVariant(m.Variants); u != "" {
				media = append(media, Medium{Kind: ezmm.KindVideo, URL: u})
			} else if m.PreviewImageURL != "" {
				media = append(media, Medium{Kind: ezmm.KindImage, URL: m.PreviewImageURL})
			}
		}
	}

	return &Tweet{
		ID:        tweet.Data.ID,
		Text:      text,
		Username:  tweet.Includes.Users[0].Username,
		Name:      tweet.Includes.Users[0].Name,
		CreatedAt: tweet.Data.CreatedAt,
		Metrics:   tweet.Data.PublicMetrics,
		Media:     media,
	}, nil
}

type videoVariant struct {
	BitRate     int    `json:"bit_rate"`
	ContentType string `json:"content_type"`
	URL         string `json:"url"`
}

// bestVariant returns the MP4 variant URL with the highest bitrate.
func bestVariant(variants []videoVariant) string {
	best := ""
	bestRate := -1
	for _, v := range variants {
		if v.ContentType == "video/mp4" && v.BitRate > bestRate {
			best = v.URL
			bestRate = v.BitRate
		}
	}

	return best
}

// Sequence renders the post as a multimodal sequence: a header block with
// author, date and metrics, the post text, then the media attachments.
func (t *Tweet) Sequence() *ezmm.MultimodalSequence {
	posted := t.CreatedAt
	if ts, err := time.Parse(time.RFC3339, t.CreatedAt); err == nil {
		posted = ts.Format("January 02, 2006 at 15:04")
	}

	header := fmt.Sprintf(`**Post on X**
Author: %s, @%s
Posted on: %s
Likes: %d - Retweets: %d - Replies: %d - Views: %d
%s`, t.Name, t.Username, posted, t.Metrics.Likes, t.Metrics.Retweets, t.Metrics.Replies, t.Metrics.Impressions, t.Text)

	seq := ezmm.NewSequence(ezmm.TextSpan(header))
	for _, m := range t.Media {
		seq.Append(ezmm.Media{Kind: m.Kind, URL: m.URL})
	}

	return seq
}
