package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/ignite/affiliate-crm/internal/domain"
)

// S3Snapshots uploads a dated backup of the affiliate collection after every
// save, plus a rolling "latest" copy for easy restore.
type S3Snapshots struct {
	client *s3.Client
	bucket string
}

// NewS3Snapshots creates an S3 snapshot writer.
func NewS3Snapshots(ctx context.Context, bucket, region, profile string) (*S3Snapshots, error) {
	var cfg aws.Config
	var err error

	if profile != "" {
		cfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(region),
			awsconfig.WithSharedConfigProfile(profile),
		)
	} else {
		cfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &S3Snapshots{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
	}, nil
}

// Upload writes the collection to affiliates/<date>.json and affiliates/latest.json.
func (s *S3Snapshots) Upload(ctx context.Context, affiliates []domain.AffiliateAccount) error {
	data, err := json.Marshal(affiliates)
	if err != nil {
		return fmt.Errorf("marshaling affiliates: %w", err)
	}

	dated := fmt.Sprintf("affiliates/%s.json", time.Now().UTC().Format("2006-01-02"))
	for _, key := range []string{dated, "affiliates/latest.json"} {
		_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String("application/json"),
		})
		if err != nil {
			return fmt.Errorf("uploading snapshot %s: %w", key, err)
		}
	}

	return nil
}

// Restore fetches the latest snapshot from S3.
func (s *S3Snapshots) Restore(ctx context.Context) ([]domain.AffiliateAccount, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String("affiliates/latest.json"),
	})
	if err != nil {
		return nil, fmt.Errorf("fetching snapshot: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var affiliates []domain.AffiliateAccount
	if err := json.Unmarshal(data, &affiliates); err != nil {
		return nil, fmt.Errorf("unmarshaling snapshot: %w", err)
	}
	return affiliates, nil
}
