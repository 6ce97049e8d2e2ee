package patient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type s3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// s3Repo keeps the document as a single S3 object that is replaced
// wholesale on every save.
type s3Repo struct {
	client s3API
	bucket string
	key    string
	codec  Codec
}

func NewS3Repo(client *s3.Client, bucket, key string, codec Codec) Backend {
	return &s3Repo{client: client, bucket: bucket, key: key, codec: codec}
}

func (r *s3Repo) Name() string { return "s3" }

func (r *s3Repo) Load(ctx context.Context) (*Store, error) {
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("%w: s3://%s/%s does not exist", ErrStorage, r.bucket, r.key)
		}
		return nil, fmt.Errorf("%w: get s3://%s/%s: %w", ErrStorage, r.bucket, r.key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read s3://%s/%s: %w", ErrStorage, r.bucket, r.key, err)
	}
	return r.codec.Decode(data)
}

func (r *s3Repo) Save(ctx context.Context, s *Store) error {
	data, err := r.codec.Encode(s)
	if err != nil {
		return err
	}
	contentType := "application/json"
	if r.codec.Sealer != nil {
		contentType = "text/plain"
	}
	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(r.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		ACL:         types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return fmt.Errorf("%w: put s3://%s/%s: %w", ErrStorage, r.bucket, r.key, err)
	}
	return nil
}

func (r *s3Repo) Init(ctx context.Context) error {
	_, err := r.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.key),
	})
	if err == nil {
		return nil
	}
	var nf *types.NotFound
	if !errors.As(err, &nf) {
		return fmt.Errorf("%w: head s3://%s/%s: %w", ErrStorage, r.bucket, r.key, err)
	}
	return r.Save(ctx, NewStore())
}
