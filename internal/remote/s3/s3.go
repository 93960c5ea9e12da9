// Package s3 stores the logs document as an object in an S3-compatible
// bucket. The object ETag is the version token and writes are conditional
// on it.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/dmitrijs2005/zyntracker/internal/common"
	"github.com/dmitrijs2005/zyntracker/internal/models"
)

// metadata key carrying the change description (x-amz-meta-change)
const changeMetadataKey = "change"

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

type Options struct {
	Endpoint    string // empty means AWS
	Region      string
	Bucket      string
	AccessKeyID string
	PathStyle   bool
}

// Client keeps one S3 client; the secret key comes from the sync token of
// each call.
type Client struct {
	api         *s3.Client
	bucket      string
	accessKeyID string
}

func New(ctx context.Context, opts Options) (*Client, error) {
	if opts.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	if opts.AccessKeyID == "" {
		return nil, errors.New("s3 access key id is required")
	}

	cfg, err := loadDefaultAWSConfig(ctx, config.WithRegion(opts.Region))
	if err != nil {
		return nil, err
	}

	api := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.PathStyle
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})

	return &Client{api: api, bucket: opts.Bucket, accessKeyID: opts.AccessKeyID}, nil
}

// Key is the object key of the document addressed by cfg.
func Key(cfg models.SyncConfig) string {
	return path.Join(cfg.Owner, cfg.Repo, cfg.Branch, cfg.Path)
}

func (c *Client) withToken(token string) func(*s3.Options) {
	return func(o *s3.Options) {
		o.Credentials = credentials.NewStaticCredentialsProvider(c.accessKeyID, token, "")
	}
}

func (c *Client) Fetch(ctx context.Context, cfg models.SyncConfig) ([]models.LogEntry, models.VersionToken, error) {
	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(Key(cfg)),
	}, c.withToken(cfg.Token))
	if err != nil {
		if isNotFound(err) {
			return []models.LogEntry{}, "", nil
		}
		return nil, "", remoteError(err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", common.NewRemoteError(0, "", err)
	}

	entries, err := models.DecodeEntries(body)
	if err != nil {
		return nil, "", common.NewRemoteError(0, "remote logs object is not a JSON array", err)
	}
	return entries, models.VersionToken(aws.ToString(out.ETag)), nil
}

func (c *Client) Push(ctx context.Context, cfg models.SyncConfig, entries []models.LogEntry, token models.VersionToken, message string) (models.VersionToken, error) {
	body, err := models.EncodeEntries(entries)
	if err != nil {
		return "", fmt.Errorf("encode logs: %w", err)
	}

	in := &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(Key(cfg)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
		Metadata:    map[string]string{changeMetadataKey: message},
	}
	if token != "" {
		in.IfMatch = aws.String(string(token))
	} else {
		in.IfNoneMatch = aws.String("*")
	}

	out, err := c.api.PutObject(ctx, in, c.withToken(cfg.Token))
	if err != nil {
		re := remoteError(err)
		switch re.Status {
		case http.StatusPreconditionFailed, http.StatusConflict:
			re.Conflict = true
		}
		return "", re
	}
	return models.VersionToken(aws.ToString(out.ETag)), nil
}

func statusOf(err error) int {
	var re *awshttp.ResponseError
	if errors.As(err, &re) {
		return re.HTTPStatusCode()
	}
	return 0
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchBucket" {
		return false
	}
	return statusOf(err) == http.StatusNotFound
}

func remoteError(err error) *common.RemoteError {
	var message string
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		message = apiErr.ErrorMessage()
		if message == "" {
			message = apiErr.ErrorCode()
		}
	}
	return common.NewRemoteError(statusOf(err), message, err)
}
