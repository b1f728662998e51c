package objectstore

import (
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// S3ObjectStore keeps objects in one S3 bucket.
type S3ObjectStore struct {
	Client s3iface.S3API
	Bucket string
}

// NewS3ObjectStore builds a store from the default AWS credential chain.
// A non-empty `region` overrides the configured one.
func NewS3ObjectStore(bucket, region string) (*S3ObjectStore, error) {
	config := aws.NewConfig()
	if region != "" {
		config = config.WithRegion(region)
	}
	sess, err := session.NewSession(config)
	if err != nil {
		return nil, fmt.Errorf("creating AWS session: %w", err)
	}
	return &S3ObjectStore{Client: s3.New(sess), Bucket: bucket}, nil
}

func (store *S3ObjectStore) PutObject(key string, data io.ReadSeeker) error {
	if _, err := store.Client.PutObject(&s3.PutObjectInput{
		Bucket: aws.String(store.Bucket),
		Key:    aws.String(key),
		Body:   data,
	}); err != nil {
		return fmt.Errorf(
			"putting object in bucket `%s` at key `%s`: %w",
			store.Bucket,
			key,
			err,
		)
	}
	return nil
}

func (store *S3ObjectStore) GetObject(key string) (io.ReadCloser, error) {
	rsp, err := store.Client.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(store.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, &ObjectNotFoundErr{Bucket: store.Bucket, Key: key}
		}
		return nil, fmt.Errorf(
			"getting object from bucket `%s` at key `%s`: %w",
			store.Bucket,
			key,
			err,
		)
	}
	return rsp.Body, nil
}

func (store *S3ObjectStore) ListObjects(prefix string) ([]string, error) {
	var keys []string
	if err := store.Client.ListObjectsPages(
		&s3.ListObjectsInput{
			Bucket: aws.String(store.Bucket),
			Prefix: aws.String(prefix),
		},
		func(rsp *s3.ListObjectsOutput, lastPage bool) bool {
			for _, object := range rsp.Contents {
				keys = append(keys, aws.StringValue(object.Key))
			}
			return true
		},
	); err != nil {
		return keys, fmt.Errorf(
			"listing objects in bucket `%s` with prefix `%s`: %w",
			store.Bucket,
			prefix,
			err,
		)
	}
	return keys, nil
}

func (store *S3ObjectStore) DeleteObject(key string) error {
	if _, err := store.Client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(store.Bucket),
		Key:    aws.String(key),
	}); err != nil {
		if isNotFound(err) {
			return &ObjectNotFoundErr{Bucket: store.Bucket, Key: key}
		}
		return fmt.Errorf(
			"deleting object from bucket `%s` at key `%s`: %w",
			store.Bucket,
			key,
			err,
		)
	}
	return nil
}

func isNotFound(err error) bool {
	if err, ok := err.(awserr.Error); ok {
		return err.Code() == s3.ErrCodeNoSuchKey
	}
	return false
}
