// Package media downloads media assets and optionally stores them on disk,
// deduplicated by source URL.
package media

import (
	"context"
	"io"
	"mime"
	"net/http"

	"github.com/pkg/errors"

	"github.com/mempirate/scrapemm/util"
)

// Download fetches the content at the given URL and returns it together with
// the content type from the response header.
func Download(ctx context.Context, client *http.Client, rawURL string) (body []byte, ct string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", err
	}

	req.Header.Set("User-Agent", util.UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to download file")
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", errors.Errorf("failed to download file: %s", resp.Status)
	}

	ct, _, err = mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to parse content type")
	}

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to read file")
	}

	return
}
