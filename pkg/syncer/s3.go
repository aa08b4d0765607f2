// Package syncer pulls dataset files from an S3-compatible bucket
// (Cloudflare R2 in the original deployment) into the local data
// directory. It is a pre-serve convenience: the bridge itself never
// reads from object storage at query time.
package syncer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dredgelabs/dredge/pkg/config"
	"github.com/dredgelabs/dredge/pkg/log"
)

// Syncer downloads .db objects under a bucket prefix.
type Syncer struct {
	client *s3.Client
	bucket string
	prefix string
	logger *log.Logger
}

// New builds a syncer from the S3 section of the bridge config.
func New(ctx context.Context, cfg config.S3Config) (*Syncer, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("s3 sync not configured: bucket and credentials required")
	}

	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return &Syncer{
		client: s3.NewFromConfig(awsCfg, s3Opts...),
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		logger: log.ForComponent("syncer"),
	}, nil
}

// Sync downloads every .db object under the prefix that is missing
// locally or whose size differs. Returns the local paths written.
// Per-object failures are logged and skipped; only listing errors
// abort the sync.
func (s *Syncer) Sync(ctx context.Context, dataDir string) ([]string, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	var downloaded []string

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return downloaded, fmt.Errorf("listing objects: %w", err)
		}

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if !strings.HasSuffix(key, ".db") {
				continue
			}

			localPath := filepath.Join(dataDir, path.Base(key))
			if upToDate(localPath, aws.ToInt64(obj.Size)) {
				s.logger.Debugf("%s up to date, skipping", path.Base(key))
				continue
			}

			if err := s.download(ctx, key, localPath); err != nil {
				s.logger.Errorf("downloading %s: %v", key, err)
				continue
			}
			s.logger.Infof("downloaded %s (%d bytes)", path.Base(key), aws.ToInt64(obj.Size))
			downloaded = append(downloaded, localPath)
		}
	}

	return downloaded, nil
}

// download writes the object to a temp file first so a failed transfer
// never replaces a good dataset.
func (s *Syncer) download(ctx context.Context, key, localPath string) error {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	tmp := localPath + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, localPath)
}

func upToDate(localPath string, remoteSize int64) bool {
	info, err := os.Stat(localPath)
	if err != nil {
		return false
	}
	return info.Size() == remoteSize
}
