// Package location resolves archive locations given on the command line
// to blob stores.
//
// Supported forms:
//
//	./caches/shot010                       local directory
//	file:///abs/caches/shot010             local directory
//	s3://bucket/caches/shot010             Amazon S3 (default AWS credential chain)
//	s3://bucket/caches/shot010?ddb=table   S3 with DynamoDB commits
//	minio://host:9000/bucket/caches/shot010?secure=true
//
// MinIO credentials come from MINIO_ACCESS_KEY and MINIO_SECRET_KEY.
package location

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hupe1980/meshcache/blobstore"
	"github.com/hupe1980/meshcache/blobstore/minio"
	"github.com/hupe1980/meshcache/blobstore/s3"
)

// Scheme names a storage backend.
type Scheme string

const (
	SchemeFile  Scheme = "file"
	SchemeS3    Scheme = "s3"
	SchemeMinIO Scheme = "minio"
)

// Location is a parsed archive location.
type Location struct {
	Scheme Scheme
	// Path is the local directory for SchemeFile.
	Path   string
	Host   string
	Bucket string
	Prefix string
	// DDBTable enables DynamoDB commits for SchemeS3.
	DDBTable string
	Secure   bool
}

// Parse parses an archive location.
func Parse(loc string) (Location, error) {
	if loc == "" {
		return Location{}, fmt.Errorf("location: empty")
	}
	if !strings.Contains(loc, "://") {
		return Location{Scheme: SchemeFile, Path: loc}, nil
	}
	u, err := url.Parse(loc)
	if err != nil {
		return Location{}, fmt.Errorf("location: %w", err)
	}

	switch Scheme(u.Scheme) {
	case SchemeFile:
		return Location{Scheme: SchemeFile, Path: u.Host + u.Path}, nil
	case SchemeS3:
		if u.Host == "" {
			return Location{}, fmt.Errorf("location: %s: missing bucket", loc)
		}
		return Location{
			Scheme:   SchemeS3,
			Bucket:   u.Host,
			Prefix:   strings.Trim(u.Path, "/"),
			DDBTable: u.Query().Get("ddb"),
		}, nil
	case SchemeMinIO:
		parts := strings.SplitN(strings.Trim(u.Path, "/"), "/", 2)
		if u.Host == "" || parts[0] == "" {
			return Location{}, fmt.Errorf("location: %s: want minio://host/bucket/prefix", loc)
		}
		l := Location{Scheme: SchemeMinIO, Host: u.Host, Bucket: parts[0]}
		if len(parts) == 2 {
			l.Prefix = parts[1]
		}
		if s := u.Query().Get("secure"); s != "" {
			if l.Secure, err = strconv.ParseBool(s); err != nil {
				return Location{}, fmt.Errorf("location: %s: secure: %w", loc, err)
			}
		}
		return l, nil
	default:
		return Location{}, fmt.Errorf("location: unsupported scheme %q", u.Scheme)
	}
}

// String formats the location for diagnostics.
func (l Location) String() string {
	switch l.Scheme {
	case SchemeS3:
		return "s3://" + l.Bucket + "/" + l.Prefix
	case SchemeMinIO:
		return "minio://" + l.Host + "/" + l.Bucket + "/" + l.Prefix
	default:
		return l.Path
	}
}

// Open resolves loc to a blob store.
func Open(ctx context.Context, loc string) (blobstore.BlobStore, Location, error) {
	l, err := Parse(loc)
	if err != nil {
		return nil, l, err
	}
	store, err := l.Store(ctx)
	return store, l, err
}

// Store builds the blob store for l.
func (l Location) Store(ctx context.Context) (blobstore.BlobStore, error) {
	switch l.Scheme {
	case SchemeFile:
		return blobstore.NewLocalStore(l.Path), nil
	case SchemeS3:
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("location: load aws config: %w", err)
		}
		store := s3.NewStore(awss3.NewFromConfig(cfg), l.Bucket, l.Prefix)
		if l.DDBTable == "" {
			return store, nil
		}
		return s3.NewDDBCommitStore(store, dynamodb.NewFromConfig(cfg), l.DDBTable, ""), nil
	case SchemeMinIO:
		store, err := minio.Dial(minio.Endpoint{
			Host:      l.Host,
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			Secure:    l.Secure,
			Region:    os.Getenv("MINIO_REGION"),
		}, l.Bucket, l.Prefix)
		if err != nil {
			return nil, fmt.Errorf("location: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("location: unsupported scheme %q", l.Scheme)
	}
}
