package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	cfg "github.com/kavyarc11/postpilot/configs"
	"github.com/kavyarc11/postpilot/internal/models"
)

// MediaService resolves a post's media reference to a URL the target
// platform's servers can fetch. Public assets keep their stored URL;
// private objects get a short-lived presigned GET against the R2 bucket.
type MediaService struct {
	config cfg.Config
}

func NewMediaService(cfg cfg.Config) *MediaService {
	return &MediaService{config: cfg}
}

func (r *MediaService) r2Client() (*s3.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(r.config.R2.AccessKey, r.config.R2.SecretKey, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", r.config.R2.AccountID))
	}), nil
}

func (r *MediaService) ResolveURL(ctx context.Context, dp *models.DuePost) (string, error) {
	if dp.MediaURL != "" {
		return dp.MediaURL, nil
	}

	if dp.MediaKey == "" {
		return "", errors.New("post has no media attached")
	}

	if r.config.R2.PublicBaseURL != "" {
		return fmt.Sprintf("%s/%s", r.config.R2.PublicBaseURL, dp.MediaKey), nil
	}

	client, err := r.r2Client()
	if err != nil {
		return "", err
	}

	presigner := s3.NewPresignClient(client)
	req, err := presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.config.R2.BucketName),
		Key:    aws.String(dp.MediaKey),
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	return req.URL, nil
}
