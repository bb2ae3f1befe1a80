// Package platform classifies source URLs into the closed set of platforms
// the retriever knows how to dispatch on.
package platform

import (
	"net/url"

	"github.com/mempirate/scrapemm/util"
)

type Platform int

const (
	// Web is any URL not matching a known platform; it is handled by the
	// generic scraping backend.
	Web Platform = iota
	XTwitter
	Telegram

	// Recognized but pending platforms. Classification succeeds, retrieval
	// does not.
	Facebook
	Instagram
	Threads
)

var domains = map[string]Platform{
	"twitter.com":   XTwitter,
	"x.com":         XTwitter,
	"t.co":          XTwitter,
	"t.me":          Telegram,
	"telegram.me":   Telegram,
	"telegram.dog":  Telegram,
	"facebook.com":  Facebook,
	"fb.com":        Facebook,
	"fb.watch":      Facebook,
	"instagram.com": Instagram,
	"instagr.am":    Instagram,
	"threads.net":   Threads,
	"threads.com":   Threads,
}

// Classify maps a URL to its platform by domain. Subdomains are ignored, so
// mobile.twitter.com and www.instagram.com classify like their parents.
func Classify(u *url.URL) Platform {
	if p, ok := domains[util.GetDomain(u.Host, false)]; ok {
		return p
	}

	return Web
}

// Supported reports whether a retrieval path exists for the platform.
func (p Platform) Supported() bool {
	switch p {
	case Web, XTwitter, Telegram:
		return true
	default:
		return false
	}
}

func (p Platform) String() string {
	switch p {
	case Web:
		return "web"
	case XTwitter:
		return "x_twitter"
	case Telegram:
		return "telegram"
	case Facebook:
		return "facebook"
	case Instagram:
		return "instagram"
	case Threads:
		return "threads"
	default:
		return "unknown"
	}
}
