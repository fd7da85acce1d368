package adapters

import (
	"bytes"
	"context"
	"fmt"

	"github.com/Lerfilm/opendrama-sub004/application/ports/outbound"
	"github.com/Lerfilm/opendrama-sub004/config"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type s3AnchorStore struct {
	s3Svc    *s3.S3
	s3Config *config.S3Config
	fetcher  ContentFetcher
}

// NewS3AnchorStore mirrors anchor frames into the media bucket. Provider
// URLs expire quickly, so anything the chain depends on gets copied here
// before the next segment submits.
func NewS3AnchorStore(s3Svc *s3.S3, s3Config *config.S3Config, fetcher ContentFetcher) outbound.AnchorStorePort {
	return &s3AnchorStore{
		s3Svc:    s3Svc,
		s3Config: s3Config,
		fetcher:  fetcher,
	}
}

func (s *s3AnchorStore) SaveBytes(ctx context.Context, scriptID string, segmentID string, image []byte) (string, error) {
	itemPath := s.getS3ItemPath(scriptID, segmentID)

	putInput := &s3.PutObjectInput{
		Bucket:        aws.String(s.s3Config.BucketName),
		Key:           aws.String(itemPath),
		Body:          bytes.NewReader(image),
		ContentLength: aws.Int64(int64(len(image))),
		ContentType:   aws.String("image/jpeg"),
	}

	_, err := s.s3Svc.PutObjectWithContext(ctx, putInput)
	if err != nil {
		log.Error().
			Err(err).
			Str("bucket", s.s3Config.BucketName).
			Str("segmentID", segmentID).
			Msg("Failed to upload anchor to S3")
		return "", err
	}

	s3Url := fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.s3Config.BucketName, itemPath)
	log.Debug().
		Str("s3Url", s3Url).
		Msg("Successfully uploaded anchor to S3")

	return s3Url, nil
}

func (s *s3AnchorStore) MirrorURL(ctx context.Context, scriptID string, segmentID string, sourceURL string) (string, error) {
	image, err := s.fetcher.FetchURL(ctx, sourceURL)
	if err != nil {
		log.Error().
			Err(err).
			Str("sourceURL", sourceURL).
			Msg("Failed to download anchor for mirroring")
		return "", err
	}
	return s.SaveBytes(ctx, scriptID, segmentID, image)
}

func (s *s3AnchorStore) getS3ItemPath(scriptID string, segmentID string) string {
	return fmt.Sprintf("script/%s/anchors/%s/%s.jpg", scriptID, segmentID, uuid.NewString())
}
