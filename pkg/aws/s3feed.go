package aws

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sfmovies/locations-service/pkg/feed"
	"github.com/sfmovies/locations-service/pkg/telemetry"
	"github.com/sfmovies/locations-service/pkg/types"
)

// GetObjectAPI is the subset of the S3 client used to read feed snapshots.
type GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Feed reads a snapshot of the open data dump from an S3 object, in the
// same JSON format as the DataSF endpoint.
type S3Feed struct {
	bucket   string
	key      string
	s3Client GetObjectAPI
}

var _ types.FeedSource = (*S3Feed)(nil)

// Fetch implements types.FeedSource.
func (s *S3Feed) Fetch(ctx context.Context) ([]types.RawRecord, error) {
	ctx, span := telemetry.StartSpan(ctx, "S3Feed.Fetch")
	defer span.End()

	output, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		telemetry.Error(span, err, "getting feed snapshot")
		var noSuchKeyError *s3types.NoSuchKey
		if errors.As(err, &noSuchKeyError) {
			return nil, &types.ProviderError{Provider: "feed", Data: fmt.Sprintf("no snapshot at s3://%s/%s", s.bucket, s.key), Err: err}
		}
		return nil, &types.ProviderError{Provider: "feed", Err: err}
	}
	defer output.Body.Close()

	records, err := feed.Decode(output.Body)
	if err != nil {
		telemetry.Error(span, err, "decoding feed snapshot")
		return nil, &types.ProviderError{Provider: "feed", Err: err}
	}
	return records, nil
}

func NewS3FeedWithClient(client GetObjectAPI, bucket string, key string) *S3Feed {
	return &S3Feed{s3Client: client, bucket: bucket, key: key}
}

func NewS3Feed(cfg aws.Config, bucket string, key string) *S3Feed {
	return NewS3FeedWithClient(s3.NewFromConfig(cfg), bucket, key)
}
