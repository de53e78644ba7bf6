// Package storage saves uploaded images either on the local filesystem or
// in the Firebase storage bucket.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const (
	PostImages      = "post-images"
	ProfilePictures = "profile-pictures"
)

// ErrNotImage is returned when an upload is not an image.
var ErrNotImage = errors.New("uploaded file is not an image")

// ImageStore persists an image and returns the public reference stored on
// the owning record.
type ImageStore interface {
	Save(ctx context.Context, namespace string, ownerID uint, filename string, r io.Reader) (string, error)
}

// ObjectName builds "{namespace}/{ownerID}-{uuid}{ext}" keeping the
// lowercased extension of the client's filename.
func ObjectName(namespace string, ownerID uint, filename string) string {
	ext := strings.ToLower(path.Ext(filepath.Base(filename)))
	return fmt.Sprintf("%s/%d-%s%s", namespace, ownerID, uuid.NewString(), ext)
}

// SniffImage reads the head of r and rejects anything that is not an image.
// The returned reader yields the full content.
func SniffImage(r io.Reader) (io.Reader, *mimetype.MIME, error) {
	head := make([]byte, 3072)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, nil, err
	}
	head = head[:n]

	mt := mimetype.Detect(head)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, mt, ErrNotImage
	}
	return io.MultiReader(bytes.NewReader(head), r), mt, nil
}

// LocalImageStore writes images below root and serves them from baseURL.
type LocalImageStore struct {
	root    string
	baseURL string
}

func NewLocalImageStore(root, baseURL string) *LocalImageStore {
	return &LocalImageStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *LocalImageStore) Save(ctx context.Context, namespace string, ownerID uint, filename string, r io.Reader) (string, error) {
	body, _, err := SniffImage(r)
	if err != nil {
		return "", err
	}

	name := ObjectName(namespace, ownerID, filename)
	dst := filepath.Join(s.root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create image dir: %w", err)
	}

	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(dst)
		return "", fmt.Errorf("write image file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close image file: %w", err)
	}
	return s.baseURL + "/" + name, nil
}

// BucketImageStore uploads images to a Cloud Storage bucket.
type BucketImageStore struct {
	bucket     *gcs.BucketHandle
	bucketName string
}

func NewBucketImageStore(bucket *gcs.BucketHandle, bucketName string) *BucketImageStore {
	return &BucketImageStore{bucket: bucket, bucketName: bucketName}
}

func (s *BucketImageStore) Save(ctx context.Context, namespace string, ownerID uint, filename string, r io.Reader) (string, error) {
	body, mt, err := SniffImage(r)
	if err != nil {
		return "", err
	}

	name := ObjectName(namespace, ownerID, filename)
	w := s.bucket.Object(name).NewWriter(ctx)
	w.ContentType = mt.String()
	if _, err := io.Copy(w, body); err != nil {
		w.Close()
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize %s: %w", name, err)
	}
	return PublicURL(s.bucketName, name), nil
}

func PublicURL(bucketName, objectName string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucketName, objectName)
}
