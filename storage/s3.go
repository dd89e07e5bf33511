package storage

import (
	"bytes"
	"context"
	"fmt"

	"aletheon/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// NewS3Client erstellt einen Client für den S3-kompatiblen Objektspeicher.
func NewS3Client(cfg *config.Config) (*s3.Client, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:               cfg.S3URL,
				SigningRegion:     cfg.S3Region,
				HostnameImmutable: true,
			}, nil
		},
	)
	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3Key, cfg.S3Secret, "")),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(awsCfg), nil
}

// Bucket kapselt Upload und öffentliche URLs für genau einen Bucket.
type Bucket struct {
	Client *s3.Client
	Config *config.Config
}

// NewBucket erstellt einen Bucket-Wrapper um einen S3-Client.
func NewBucket(client *s3.Client, cfg *config.Config) *Bucket {
	return &Bucket{Client: client, Config: cfg}
}

// Upload lädt ein Objekt hoch und gibt die öffentliche URL zurück.
func (b *Bucket) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := b.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.Config.S3Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", err
	}
	return b.PublicURL(key), nil
}

// PublicURL gibt die öffentliche URL eines Objekts zurück.
func (b *Bucket) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", b.Config.S3URL, b.Config.S3Bucket, key)
}
