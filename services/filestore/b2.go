package filestore

import (
	"context"
	"io"

	"github.com/kurin/blazer/b2"
	"github.com/pkg/errors"
)

type B2 struct {
	client *b2.Client
	bucket *b2.Bucket
}

var _ Storage = (*B2)(nil)

func NewB2(ctx context.Context, account, key, bucketName string) (*B2, error) {
	client, err := b2.NewClient(ctx, account, key)
	if err != nil {
		return nil, errors.Wrap(err, "creating b2 client")
	}
	bucket, err := client.Bucket(ctx, bucketName)
	if err != nil {
		return nil, errors.Wrap(err, "getting b2 bucket")
	}
	return &B2{client: client, bucket: bucket}, nil
}

func (s *B2) Save(ctx context.Context, name, contentType string, r io.Reader) error {
	if !validName(name) {
		return errors.Errorf("invalid file name: %q", name)
	}
	w := s.bucket.Object(name).NewWriter(ctx, b2.WithAttrsOption(&b2.Attrs{ContentType: contentType}))
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return errors.Wrap(err, "writing object")
	}
	return errors.Wrap(w.Close(), "closing object writer")
}

func (s *B2) Open(ctx context.Context, name string) (io.ReadCloser, string, error) {
	if !validName(name) {
		return nil, "", ErrNotFound
	}
	obj := s.bucket.Object(name)
	attrs, err := obj.Attrs(ctx)
	if err != nil {
		if b2.IsNotExist(err) {
			return nil, "", ErrNotFound
		}
		return nil, "", errors.Wrap(err, "getting object attrs")
	}
	return obj.NewReader(ctx), attrs.ContentType, nil
}

func (s *B2) Delete(ctx context.Context, name string) error {
	if !validName(name) {
		return ErrNotFound
	}
	if err := s.bucket.Object(name).Delete(ctx); err != nil {
		if b2.IsNotExist(err) {
			return ErrNotFound
		}
		return errors.Wrap(err, "deleting object")
	}
	return nil
}
