// Package gridfs stores listing photos in MongoDB GridFS.
package gridfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/neomorfeo/rentwise/internal/domain"
)

const bucketName = "photos"

var _ domain.FileStorage = (*Storage)(nil)

// Storage implements domain.FileStorage. Files are stored under their key
// as GridFS filename and served from baseURL.
type Storage struct {
	bucket  *gridfs.Bucket
	baseURL string
}

// Connect opens a MongoDB client for uri and verifies it with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}
	return client, nil
}

// New creates a storage on the photos bucket of database db.
func New(db *mongo.Database, baseURL string) (*Storage, error) {
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName(bucketName))
	if err != nil {
		return nil, fmt.Errorf("opening gridfs bucket: %w", err)
	}
	return &Storage{bucket: bucket, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *Storage) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	opts := options.GridFSUpload().SetMetadata(bson.D{{Key: "content_type", Value: contentType}})
	stream, err := s.bucket.OpenUploadStream(key, opts)
	if err != nil {
		return "", fmt.Errorf("opening upload stream for %s: %w", key, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := stream.SetWriteDeadline(deadline); err != nil {
			_ = stream.Abort()
			return "", fmt.Errorf("setting upload deadline: %w", err)
		}
	}

	if _, err := io.Copy(stream, body); err != nil {
		_ = stream.Abort()
		return "", fmt.Errorf("uploading %s: %w", key, err)
	}
	if err := stream.Close(); err != nil {
		return "", fmt.Errorf("finishing upload of %s: %w", key, err)
	}
	return s.url(key), nil
}

// Delete removes every revision stored under key. Deleting a missing key
// is not an error.
func (s *Storage) Delete(ctx context.Context, key string) error {
	ids, err := s.revisions(ctx, key)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := s.bucket.DeleteContext(ctx, id); err != nil && !errors.Is(err, gridfs.ErrFileNotFound) {
			return fmt.Errorf("deleting %s: %w", key, err)
		}
	}
	return nil
}

func (s *Storage) URL(ctx context.Context, key string) (string, error) {
	ids, err := s.revisions(ctx, key)
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "", &domain.NotFoundError{Entity: "file", ID: key}
	}
	return s.url(key), nil
}

// Download writes the latest revision of key to w and returns its content type.
func (s *Storage) Download(ctx context.Context, key string, w io.Writer) (string, error) {
	stream, err := s.bucket.OpenDownloadStreamByName(key)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return "", &domain.NotFoundError{Entity: "file", ID: key}
	}
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", key, err)
	}
	defer stream.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = stream.SetReadDeadline(deadline)
	}

	contentType := "application/octet-stream"
	var meta struct {
		ContentType string `bson:"content_type"`
	}
	if raw := stream.GetFile().Metadata; raw != nil && bson.Unmarshal(raw, &meta) == nil && meta.ContentType != "" {
		contentType = meta.ContentType
	}

	if _, err := io.Copy(w, stream); err != nil {
		return "", fmt.Errorf("reading %s: %w", key, err)
	}
	return contentType, nil
}

func (s *Storage) revisions(ctx context.Context, key string) ([]primitive.ObjectID, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := s.bucket.FindContext(ctx, bson.D{{Key: "filename", Value: key}})
	if err != nil {
		return nil, fmt.Errorf("looking up %s: %w", key, err)
	}
	var files []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &files); err != nil {
		return nil, fmt.Errorf("decoding %s revisions: %w", key, err)
	}
	ids := make([]primitive.ObjectID, 0, len(files))
	for _, f := range files {
		ids = append(ids, f.ID)
	}
	return ids, nil
}

func (s *Storage) url(key string) string {
	return s.baseURL + "/" + key
}
