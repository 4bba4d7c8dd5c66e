// Package local is an object store on the local file system. The service serves the root
// directory under the configured base URL, so the download URLs it hands out are real URLs.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"gitlab.com/dirk.krummacker/contacts-app/internal/objstore"
)

// chunkSize is the size of the pieces the upload is copied in, and so the granularity of the
// reported progress.
const chunkSize = 32 * 1024

// ErrInvalidKey is returned for keys that would leave the root directory.
var ErrInvalidKey = errors.New("local: invalid object key")

// Store writes objects below a root directory.
type Store struct {
	root    string
	baseURL string
}

// New creates the root directory if needed and returns the store.
func New(root string, baseURL string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	return &Store{root: root, baseURL: baseURL}, nil
}

// Root returns the directory the objects are stored in.
func (s *Store) Root() string {
	return s.root
}

// UploadResumable copies r into a temporary file next to the target and renames it into place
// once all bytes have arrived, so a failed upload never leaves a partial object behind.
func (s *Store) UploadResumable(ctx context.Context, key string, r io.Reader, size int64, contentType string) *objstore.Upload {
	path, err := s.path(key)
	if err != nil {
		return objstore.Failed(err)
	}
	obj := objstore.Object{Key: key, Size: size, ContentType: contentType}
	return objstore.Start(ctx, obj, func(ctx context.Context, report func(n int)) error {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
		if err != nil {
			return err
		}
		defer os.Remove(tmp.Name())
		defer tmp.Close()

		written, err := copyChunks(ctx, tmp, r, report)
		if err != nil {
			return err
		}
		if written != size {
			return fmt.Errorf("local: uploaded %d of %d bytes: %w", written, size, io.ErrUnexpectedEOF)
		}
		if err := tmp.Close(); err != nil {
			return err
		}
		return os.Rename(tmp.Name(), path)
	})
}

// ResolveDownloadURL returns the URL of the object below the base URL.
func (s *Store) ResolveDownloadURL(ctx context.Context, obj objstore.Object) (string, error) {
	path, err := s.path(obj.Key)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return url.JoinPath(s.baseURL, obj.Key)
}

func (s *Store) path(key string) (string, error) {
	rel := filepath.FromSlash(key)
	if key == "" || !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.root, rel), nil
}

func copyChunks(ctx context.Context, dst io.Writer, src io.Reader, report func(n int)) (int64, error) {
	buf := make([]byte, chunkSize)
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return written, err
			}
			written += int64(n)
			report(n)
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, readErr
		}
	}
}
