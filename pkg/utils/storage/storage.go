package storage

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"socksflow_backend/pkg/config"
)

const MaxFileSize = 5 * 1024 * 1024 // 5MB

var (
	s3Client *s3.Client
	bucket   string
	region   string

	allowedTypes = map[string]bool{
		"image/jpeg": true,
		"image/png":  true,
	}
)

func Init(cfg config.StorageConfig) error {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(), opts...)
	if err != nil {
		return fmt.Errorf("unable to load SDK config: %v", err)
	}

	s3Client = s3.NewFromConfig(awsCfg)
	bucket = cfg.Bucket
	region = cfg.Region
	return nil
}

// UploadAvatar stores a user avatar under a slugged key and returns the
// public URL.
func UploadAvatar(file *multipart.FileHeader, userID uint, userName string) (string, error) {
	if s3Client == nil {
		return "", fmt.Errorf("storage is not initialized")
	}

	if file.Size > MaxFileSize {
		return "", fmt.Errorf("file size too large. Maximum size is %d bytes", MaxFileSize)
	}

	contentType := file.Header.Get("Content-Type")
	if !allowedTypes[contentType] {
		return "", fmt.Errorf("invalid file type. Allowed types are: jpeg, png")
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	key := fmt.Sprintf("users/%d/%s/avatars/%s%s",
		userID,
		slug.Make(userName),
		uuid.New().String(),
		filepath.Ext(file.Filename),
	)

	_, err = s3Client.PutObject(context.TODO(), &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        src,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("could not upload to S3: %v", err)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, region, key), nil
}
