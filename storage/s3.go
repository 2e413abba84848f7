package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"feed-report/config"
)

// ObjectPutter ist der Teil des S3-Clients, den der Report-Export braucht.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Target beschreibt Endpoint und Bucket, unter dem Objekte abgelegt werden.
type Target struct {
	Endpoint string
	Bucket   string
}

// TargetFromConfig liest Endpoint und Bucket aus der Service-Konfiguration.
func TargetFromConfig(cfg *config.Config) Target {
	return Target{Endpoint: cfg.S3URL, Bucket: cfg.S3Bucket}
}

// Credentials bündelt die Zugangsdaten eines S3-kompatiblen Endpoints.
type Credentials struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// NewS3Client erstellt einen S3-Client für einen S3-kompatiblen Endpoint (Strato, MinIO, AWS).
func NewS3Client(ctx context.Context, creds Credentials) (*s3.Client, error) {
	if creds.Endpoint == "" {
		return nil, errors.New("s3 endpoint must not be empty")
	}
	region := creds.Region
	if region == "" {
		region = "us-east-1"
	}

	resolver := aws.EndpointResolverWithOptionsFunc(
		func(service, r string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:               creds.Endpoint,
				SigningRegion:     region,
				HostnameImmutable: true,
			}, nil
		},
	)
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(creds.AccessKey, creds.SecretKey, "")),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(awsCfg), nil
}

// NewS3ClientFromConfig erstellt den Client für den Report-Export.
func NewS3ClientFromConfig(ctx context.Context, cfg *config.Config) (*s3.Client, error) {
	return NewS3Client(ctx, Credentials{
		Endpoint:  cfg.S3URL,
		Region:    cfg.S3Region,
		AccessKey: cfg.S3Key,
		SecretKey: cfg.S3Secret,
	})
}

// UploadFile lädt Daten ins S3 hoch und gibt den Link zurück.
func UploadFile(ctx context.Context, client ObjectPutter, target Target, key string, data []byte, contentType string) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(target.Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return ObjectURL(target, key), nil
}

// ObjectURL baut den pfadbasierten Link auf ein Objekt.
func ObjectURL(target Target, key string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(target.Endpoint, "/"), target.Bucket, key)
}
