// Package filestore keeps uploaded submission files, on local disk or in a Backblaze B2 bucket.
package filestore

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"

	"github.com/trezcool/coursehub/core"
)

const (
	BackendLocal = "local"
	BackendB2    = "b2"
)

var (
	ErrNotFound        = core.NewNotFoundError("file")
	ErrUnsupportedType = errors.New("unsupported file type")

	// AllowedTypes are the content types a submission may have.
	AllowedTypes = []string{"image/jpeg", "image/png", "application/pdf", "text/plain"}
)

type Storage interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) error
	// Open returns the file content & its content type; the caller must close the reader.
	Open(ctx context.Context, name string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, name string) error
}

// New builds the Storage selected by conf.Storage.Backend.
func New(ctx context.Context, conf *core.Config) (Storage, error) {
	switch conf.Storage.Backend {
	case "", BackendLocal:
		return NewLocal(conf.Storage.MediaDir)
	case BackendB2:
		return NewB2(ctx, conf.Storage.B2Account, conf.Storage.B2Key, conf.Storage.B2Bucket)
	}
	return nil, errors.Errorf("unknown storage backend: %q", conf.Storage.Backend)
}

// validName rejects names that could escape the storage root.
func validName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}

// DetectType sniffs r and returns the nearest allowed content type, with its extension.
// Descendants of an allowed type (e.g. text/csv under text/plain) map to that type.
func DetectType(r io.Reader) (string, string, error) {
	mtype, err := mimetype.DetectReader(r)
	if err != nil {
		return "", "", errors.Wrap(err, "detecting file type")
	}
	for m := mtype; m != nil; m = m.Parent() {
		for _, allowed := range AllowedTypes {
			if m.Is(allowed) {
				return allowed, m.Extension(), nil
			}
		}
	}
	return "", "", ErrUnsupportedType
}
