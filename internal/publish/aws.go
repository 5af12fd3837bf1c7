package publish

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudfront/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3API is the subset of the S3 client used by S3Store.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Store implements Store on an S3 bucket.
type S3Store struct {
	client s3API
	bucket string
}

// NewS3Store creates an S3Store for bucket.
func NewS3Store(client s3API, bucket string) *S3Store {
	return &S3Store{client: client, bucket: bucket}
}

// Put uploads body under key.
func (s *S3Store) Put(ctx context.Context, key string, body io.Reader, contentType, cacheControl string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         body,
		ContentType:  aws.String(contentType),
		CacheControl: aws.String(cacheControl),
	})
	if err != nil {
		return fmt.Errorf("s3 PutObject %q: %w", key, err)
	}
	return nil
}

// Delete removes the object at key.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 DeleteObject %q: %w", key, err)
	}
	return nil
}

// List pages through every object under prefix.
func (s *S3Store) List(ctx context.Context, prefix string) (map[string]string, error) {
	objects := make(map[string]string)
	input := &s3.ListObjectsV2Input{Bucket: aws.String(s.bucket)}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}

	for {
		out, err := s.client.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("s3 ListObjectsV2: %w", err)
		}
		for _, obj := range out.Contents {
			objects[aws.ToString(obj.Key)] = strings.Trim(aws.ToString(obj.ETag), `"`)
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		input.ContinuationToken = out.NextContinuationToken
	}
	return objects, nil
}

// cloudFrontAPI is the subset of the CloudFront client used by
// CloudFrontInvalidator.
type cloudFrontAPI interface {
	CreateInvalidation(ctx context.Context, params *cloudfront.CreateInvalidationInput, optFns ...func(*cloudfront.Options)) (*cloudfront.CreateInvalidationOutput, error)
}

// CloudFrontInvalidator implements Invalidator with CloudFront
// invalidation batches.
type CloudFrontInvalidator struct {
	client cloudFrontAPI
	now    func() time.Time
}

// NewCloudFrontInvalidator creates a CloudFrontInvalidator.
func NewCloudFrontInvalidator(client cloudFrontAPI) *CloudFrontInvalidator {
	return &CloudFrontInvalidator{client: client, now: time.Now}
}

// Invalidate submits one invalidation batch for paths.
func (c *CloudFrontInvalidator) Invalidate(ctx context.Context, distribution string, paths []string) error {
	qty := int32(len(paths))
	_, err := c.client.CreateInvalidation(ctx, &cloudfront.CreateInvalidationInput{
		DistributionId: aws.String(distribution),
		InvalidationBatch: &cftypes.InvalidationBatch{
			CallerReference: aws.String(fmt.Sprintf("folio-%d", c.now().UnixNano())),
			Paths: &cftypes.Paths{
				Quantity: &qty,
				Items:    paths,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("cloudfront CreateInvalidation: %w", err)
	}
	return nil
}

// NewAWS builds an S3Store and CloudFrontInvalidator from the default AWS
// credential chain. region overrides the configured region when set.
func NewAWS(ctx context.Context, bucket, region string) (*S3Store, *CloudFrontInvalidator, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return NewS3Store(s3.NewFromConfig(cfg), bucket),
		NewCloudFrontInvalidator(cloudfront.NewFromConfig(cfg)),
		nil
}
