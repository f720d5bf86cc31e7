// Package s3 implements objstore.Store against any S3-compatible
// endpoint using minio-go.
package s3

import (
	"bytes"
	"context"
	"strings"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/janboddez/indieauth/internal/objstore"
)

// Config controls the S3 backend.
type Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	Secure    bool
	// BaseURL overrides the public URL prefix for stored objects.
	// Empty means <scheme>://<endpoint>/<bucket>.
	BaseURL string
}

type Store struct {
	client *minio.Client
	cfg    Config
}

func New(cfg Config) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}
	return &Store{client: client, cfg: cfg}, nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]objstore.ObjectInfo, error) {
	var out []objstore.ObjectInfo
	for obj := range s.client.ListObjects(ctx, s.cfg.Bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		out = append(out, objstore.ObjectInfo{Path: obj.Key, ModTime: obj.LastModified})
	}
	return out, nil
}

func (s *Store) Put(ctx context.Context, path string, data []byte, contentType string) error {
	opts := minio.PutObjectOptions{ContentType: contentType}
	_, err := s.client.PutObject(ctx, s.cfg.Bucket, path, bytes.NewReader(data), int64(len(data)), opts)
	return err
}

// Move is copy+remove; S3 has no rename.
func (s *Store) Move(ctx context.Context, from, to string) error {
	src := minio.CopySrcOptions{Bucket: s.cfg.Bucket, Object: from}
	dst := minio.CopyDestOptions{Bucket: s.cfg.Bucket, Object: to}
	if _, err := s.client.CopyObject(ctx, dst, src); err != nil {
		return err
	}
	return s.client.RemoveObject(ctx, s.cfg.Bucket, from, minio.RemoveObjectOptions{})
}

func (s *Store) URL(path string) string {
	if s.cfg.BaseURL != "" {
		return strings.TrimRight(s.cfg.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
	}
	scheme := "http"
	if s.cfg.Secure {
		scheme = "https"
	}
	return scheme + "://" + s.cfg.Endpoint + "/" + s.cfg.Bucket + "/" + strings.TrimLeft(path, "/")
}
