package files

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
)

const Scheme = "s3://"

type FileStorage struct {
	cl     *minio.Client
	Bucket string
}

type Config struct {
	Url      string
	Login    string
	Password string
	Bucket   string
	Secure   bool
}

func NewFileStorage(cfg Config) (*FileStorage, error) {
	client, err := minio.New(cfg.Url, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Login, cfg.Password, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create minio client")
	}
	return &FileStorage{cl: client, Bucket: cfg.Bucket}, nil
}

// Object addresses a file in the storage. An empty Bucket means the
// storage default.
type Object struct {
	Bucket string
	Key    string
}

func IsObjectRef(ref string) bool {
	return strings.HasPrefix(ref, Scheme)
}

// ParseObjectRef splits s3://bucket/key. A reference without a slash after
// the scheme is a key in the default bucket.
func ParseObjectRef(ref string) (Object, error) {
	if !IsObjectRef(ref) {
		return Object{}, errors.Errorf("%q is not an %s reference", ref, Scheme)
	}
	rest := strings.TrimPrefix(ref, Scheme)
	bucket, key, found := strings.Cut(rest, "/")
	if !found {
		bucket, key = "", rest
	}
	if key == "" {
		return Object{}, errors.Errorf("%q has no object key", ref)
	}
	return Object{Bucket: bucket, Key: key}, nil
}

func (s *FileStorage) bucket(obj Object) string {
	if obj.Bucket != "" {
		return obj.Bucket
	}
	return s.Bucket
}

// GetFile returns the object contents. The caller closes the reader.
func (s *FileStorage) GetFile(ctx context.Context, obj Object) (io.ReadCloser, error) {
	file, err := s.cl.GetObject(ctx, s.bucket(obj), obj.Key, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get %s", obj.Key)
	}
	// GetObject is lazy, Stat surfaces a missing object right away
	if _, err := file.Stat(); err != nil {
		file.Close()
		return nil, errors.Wrapf(err, "failed to stat %s", obj.Key)
	}
	return file, nil
}

func (s *FileStorage) PutFile(ctx context.Context, obj Object, data []byte, contentType string) error {
	_, err := s.cl.PutObject(ctx, s.bucket(obj), obj.Key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return errors.Wrapf(err, "failed to put %s", obj.Key)
	}
	return nil
}
