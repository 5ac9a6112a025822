package storage

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"backcheck_api/internal/pkg/config"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/google/uuid"
)

// UploadResult describes a stored object.
type UploadResult struct {
	URL          string `json:"url"`
	Filename     string `json:"filename"` // object key including folder
	OriginalName string `json:"originalName"`
	Size         int64  `json:"size"`
	ETag         string `json:"etag"`
}

// FileStorage is the object-storage collaborator used for result documents,
// payment receipts and QR images. Paths are object keys, bytes never touch
// the database.
type FileStorage interface {
	// UploadFile stores the file under folder. customName overrides the
	// generated unique name when non-empty.
	UploadFile(file *multipart.FileHeader, folder, customName string) (*UploadResult, error)
	// DeleteFile removes an object; deleting a missing object is not an error.
	DeleteFile(path string) error
	// FileURL returns the public URL for an object key.
	FileURL(path string) string
}

// AliyunOSSStorage implements FileStorage on Aliyun OSS.
type AliyunOSSStorage struct {
	client *oss.Client
	bucket *oss.Bucket
	config config.OSSConfig
}

func NewAliyunOSSStorage() (*AliyunOSSStorage, error) {
	cfg := config.GlobalConfig.OSS
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, err
	}

	bucket, err := client.Bucket(cfg.BucketName)
	if err != nil {
		return nil, err
	}

	return &AliyunOSSStorage{
		client: client,
		bucket: bucket,
		config: cfg,
	}, nil
}

func (s *AliyunOSSStorage) UploadFile(file *multipart.FileHeader, folder, customName string) (*UploadResult, error) {
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	name := customName
	if name == "" {
		// Unique name: YYYYMMDD/uuid.ext
		ext := filepath.Ext(file.Filename)
		name = fmt.Sprintf("%s/%s%s", time.Now().Format("20060102"), uuid.New().String(), ext)
	}

	key := name
	if folder != "" {
		key = folder + "/" + name
	}

	if err := s.bucket.PutObject(key, src); err != nil {
		return nil, err
	}

	result := &UploadResult{
		URL:          s.FileURL(key),
		Filename:     key,
		OriginalName: file.Filename,
		Size:         file.Size,
	}

	// ETag is informational only; a failed meta lookup is not an upload failure.
	if meta, err := s.bucket.GetObjectDetailedMeta(key); err == nil {
		result.ETag = strings.Trim(meta.Get("Etag"), `"`)
	}

	return result, nil
}

func (s *AliyunOSSStorage) DeleteFile(path string) error {
	return s.bucket.DeleteObject(path)
}

func (s *AliyunOSSStorage) FileURL(path string) string {
	// Assumes public-read bucket or CDN in front; private buckets would need
	// signed URLs here.
	return fmt.Sprintf("https://%s.%s/%s", s.config.BucketName, s.config.Endpoint, path)
}
