package media

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

const BUCKET_NAME = "media"

// Store is an on-disk media store. Assets are written under content-addressed
// names and a persistent index maps source URLs to stored files, so repeated
// retrievals of the same asset don't re-download it.
type Store struct {
	dir string
	db  *bolt.DB
}

// NewStore opens (or creates) a media store rooted at dir.
// It is up to the caller to close the store when it is no longer needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create media directory")
	}

	db, err := bolt.Open(filepath.Join(dir, "index.db"), 0600, nil)
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(BUCKET_NAME))
		return err
	})

	if err != nil {
		return nil, errors.Wrap(err, "failed to create default bucket")
	}

	return &Store{
		dir: dir,
		db:  db,
	}, nil
}

// Lookup returns the local path of a previously stored asset. A stale index
// entry whose file has since been removed counts as a miss.
func (s *Store) Lookup(url string) (path string, exists bool) {
	s.db.View(func(tx *bolt.Tx) error {
		val := tx.Bucket([]byte(BUCKET_NAME)).Get([]byte(url))
		if val != nil {
			path = filepath.Join(s.dir, string(val))
			exists = true
		}

		return nil
	})

	if exists {
		if _, err := os.Stat(path); err != nil {
			return "", false
		}
	}

	return
}

// Put stores the asset content under a content-addressed name and indexes it
// by source URL. Returns the local path.
func (s *Store) Put(url string, content []byte, contentType string) (string, error) {
	sum := sha256.Sum256(content)
	name := hex.EncodeToString(sum[:8]) + extension(contentType)

	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", errors.Wrap(err, "failed to write media file")
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(BUCKET_NAME)).Put([]byte(url), []byte(name))
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to index media file")
	}

	return path, nil
}

// Fetch returns the local path for the asset at the given URL, downloading
// and storing it on an index miss.
func (s *Store) Fetch(ctx context.Context, client *http.Client, url string) (string, error) {
	if path, ok := s.Lookup(url); ok {
		return path, nil
	}

	body, ct, err := Download(ctx, client, url)
	if err != nil {
		return "", err
	}

	return s.Put(url, body, ct)
}

// Len returns the number of indexed assets.
func (s *Store) Len() int {
	var count int
	s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket([]byte(BUCKET_NAME)).Stats().KeyN
		return nil
	})

	return count
}

// Close closes the index database.
func (s *Store) Close() error {
	return s.db.Close()
}

func extension(contentType string) string {
	// Preferred extensions for the common media types; mime.ExtensionsByType
	// is platform-dependent and unordered.
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "video/mp4":
		return ".mp4"
	case "video/webm":
		return ".webm"
	}

	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}

	return ".bin"
}
