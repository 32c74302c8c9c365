package depot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"statarchive/internal/manifest"
)

// S3 stores archives in an S3 bucket using the same layout as the local
// depot, rooted at an optional key prefix.
type S3 struct {
	client *s3.Client
	bucket string
	prefix string
}

func NewS3(ctx context.Context, bucket, prefix, region string) (*S3, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 depot: bucket required")
	}
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3 depot: load aws config: %w", err)
	}
	return &S3{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		prefix: prefix,
	}, nil
}

func (d *S3) key(parts ...string) string {
	if d.prefix != "" {
		parts = append([]string{d.prefix}, parts...)
	}
	return path.Join(parts...)
}

func (d *S3) Baseline(ctx context.Context, dataset string) (*manifest.DataPackage, error) {
	key := d.key(dataset, "datapackage.json")
	out, err := d.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &d.bucket,
		Key:    &key,
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, nil
		}
		return nil, fmt.Errorf("s3 depot: get baseline %s: %w", key, err)
	}
	defer out.Body.Close()

	raw, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 depot: read baseline %s: %w", key, err)
	}
	var dp manifest.DataPackage
	if err := json.Unmarshal(raw, &dp); err != nil {
		return nil, fmt.Errorf("s3 depot: parse baseline %s: %w", key, err)
	}
	if err := dp.Validate(); err != nil {
		return nil, fmt.Errorf("s3 depot: baseline %s: %w", key, err)
	}
	return &dp, nil
}

func (d *S3) Publish(ctx context.Context, dataset, version string, files []string, dp *manifest.DataPackage) error {
	for _, src := range files {
		if err := d.putFile(ctx, d.key(dataset, version, filepath.Base(src)), src); err != nil {
			return err
		}
	}

	raw, err := json.MarshalIndent(dp, "", "  ")
	if err != nil {
		return fmt.Errorf("s3 depot: encode datapackage: %w", err)
	}
	raw = append(raw, '\n')
	if err := d.putBytes(ctx, d.key(dataset, version, "datapackage.json"), raw); err != nil {
		return err
	}

	// Promote to baseline last, so a failed publish never leaves a baseline
	// pointing at missing objects.
	return d.putBytes(ctx, d.key(dataset, "datapackage.json"), raw)
}

func (d *S3) putFile(ctx context.Context, key, src string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("s3 depot: open %s: %w", src, err)
	}
	defer f.Close()

	contentType := manifest.MediaType(src)
	input := &s3.PutObjectInput{
		Bucket: &d.bucket,
		Key:    &key,
		Body:   f,
	}
	if contentType != "" {
		input.ContentType = &contentType
	}
	if _, err := d.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("s3 depot: put %s: %w", key, err)
	}
	return nil
}

func (d *S3) putBytes(ctx context.Context, key string, raw []byte) error {
	contentType := "application/json"
	if _, err := d.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &d.bucket,
		Key:         &key,
		Body:        bytes.NewReader(raw),
		ContentType: &contentType,
	}); err != nil {
		return fmt.Errorf("s3 depot: put %s: %w", key, err)
	}
	return nil
}
