// Package minio is an object store on any S3 compatible server, using the MinIO client.
package minio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"gitlab.com/dirk.krummacker/contacts-app/internal/config"
	"gitlab.com/dirk.krummacker/contacts-app/internal/objstore"
)

// Store uploads objects into a single bucket.
type Store struct {
	client    *minio.Client
	bucket    string
	region    string
	publicURL string
}

// New creates the client. It does not contact the server, see EnsureBucket.
func New(cfg config.MinioConfig) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("minio: bucket is required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}
	return &Store{client: client, bucket: cfg.Bucket, region: cfg.Region, publicURL: cfg.PublicURL}, nil
}

// EnsureBucket creates the bucket unless it exists already, and allows anonymous reads of its
// objects. The download URLs stored with the contacts rely on that.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return err
		}
	}
	policy, err := readOnlyPolicy(s.bucket)
	if err != nil {
		return err
	}
	if err := s.client.SetBucketPolicy(ctx, s.bucket, policy); err != nil {
		return fmt.Errorf("set policy of %s: %w", s.bucket, err)
	}
	return nil
}

type policyStatement struct {
	Effect    string              `json:"Effect"`
	Principal map[string][]string `json:"Principal"`
	Action    []string            `json:"Action"`
	Resource  []string            `json:"Resource"`
}

type bucketPolicy struct {
	Version   string            `json:"Version"`
	Statement []policyStatement `json:"Statement"`
}

// readOnlyPolicy returns the bucket policy that lets anyone get the objects of bucket, but not
// list or change them.
func readOnlyPolicy(bucket string) (string, error) {
	b, err := json.Marshal(bucketPolicy{
		Version: "2012-10-17",
		Statement: []policyStatement{{
			Effect:    "Allow",
			Principal: map[string][]string{"AWS": {"*"}},
			Action:    []string{"s3:GetObject"},
			Resource:  []string{"arn:aws:s3:::" + bucket + "/*"},
		}},
	})
	return string(b), err
}

// UploadResumable uploads r with PutObject. The client splits large objects into parts and
// retries failed parts on its own.
func (s *Store) UploadResumable(ctx context.Context, key string, r io.Reader, size int64, contentType string) *objstore.Upload {
	obj := objstore.Object{Key: key, Size: size, ContentType: contentType}
	return objstore.Start(ctx, obj, func(ctx context.Context, report func(n int)) error {
		_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
			ContentType: contentType,
			Progress:    progressReader(report),
		})
		return err
	})
}

// ResolveDownloadURL checks that the object exists and returns its permanent URL.
func (s *Store) ResolveDownloadURL(ctx context.Context, obj objstore.Object) (string, error) {
	if _, err := s.client.StatObject(ctx, s.bucket, obj.Key, minio.StatObjectOptions{}); err != nil {
		return "", err
	}
	return s.objectURL(obj.Key)
}

// objectURL is the URL of key below the configured public URL, or, without one, the path style
// URL of the object on the server.
func (s *Store) objectURL(key string) (string, error) {
	if s.publicURL != "" {
		return url.JoinPath(s.publicURL, key)
	}
	return s.client.EndpointURL().JoinPath(s.bucket, key).String(), nil
}

// progressReader is handed to the client as PutObjectOptions.Progress. The client reads from it
// a slice as long as each piece it has sent.
type progressReader func(n int)

func (p progressReader) Read(b []byte) (int, error) {
	p(len(b))
	return len(b), nil
}
