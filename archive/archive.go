// Package archive keeps a durable JSON copy of every published post in
// object storage, independent of the live database.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"contentorbit/config"
	"contentorbit/types"
)

// ObjectStore is the narrow S3 surface the archive needs
type ObjectStore interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Archive writes post snapshots under bucket/prefix
type Archive struct {
	store  ObjectStore
	bucket string
	prefix string
}

// New builds the archive from the standard AWS config chain. Returns
// nil without error when no bucket is configured.
func New(ctx context.Context, cfg config.S3Config) (*Archive, error) {
	if cfg.Bucket == "" {
		return nil, nil
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Archive{
		store:  s3.NewFromConfig(awsCfg),
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

// snapshot is the archived document: the post record plus every
// generated artifact, so a post can be reconstructed or audited later.
type snapshot struct {
	Post       *types.PublishedPost    `json:"post"`
	Content    *types.GeneratedContent `json:"content,omitempty"`
	ArchivedAt time.Time               `json:"archived_at"`
}

// ArchivePost uploads one published post snapshot
func (a *Archive) ArchivePost(ctx context.Context, post *types.PublishedPost, content *types.GeneratedContent) error {
	doc, err := json.MarshalIndent(snapshot{
		Post:       post,
		Content:    content,
		ArchivedAt: time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	_, err = a.store.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(a.key(post)),
		Body:        bytes.NewReader(doc),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload snapshot: %w", err)
	}
	return nil
}

// key shards snapshots by publish month: prefix/2026/08/<id>.json
func (a *Archive) key(post *types.PublishedPost) string {
	ts := post.CreatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return path.Join(a.prefix, ts.UTC().Format("2006/01"), post.ID+".json")
}
