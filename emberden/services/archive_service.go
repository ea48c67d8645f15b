package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ArchiveService copies submitted artwork into the community's Spaces
// bucket so reward records outlive the original hosting. Content
// validation happened upstream; this service only stores bytes.
type ArchiveService struct {
	client      *s3.Client
	http        *http.Client
	bucket      string
	region      string
	ArchiveRoot string
}

func NewArchiveService(spacesKey, spacesSecret, region, bucket, archiveRoot string) *ArchiveService {
	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL: fmt.Sprintf("https://%s.digitaloceanspaces.com", region),
		}, nil
	})

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithEndpointResolverWithOptions(resolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(spacesKey, spacesSecret, "")),
		config.WithRegion(region),
	)
	if err != nil {
		panic(fmt.Sprintf("Unable to load Spaces config: %v", err))
	}

	return &ArchiveService{
		client:      s3.NewFromConfig(cfg),
		http:        &http.Client{Timeout: 30 * time.Second},
		bucket:      bucket,
		region:      region,
		ArchiveRoot: strings.TrimPrefix(archiveRoot, "/"),
	}
}

// archiveKey builds <root>/<year>/<submissionID><ext>, taking the
// extension from the source URL. CDN query strings are stripped first;
// an extensionless URL defaults to .png.
func archiveKey(root, submissionID, sourceURL string, year int) string {
	if i := strings.IndexByte(sourceURL, '?'); i >= 0 {
		sourceURL = sourceURL[:i]
	}
	ext := path.Ext(sourceURL)
	if ext == "" {
		ext = ".png"
	}
	return fmt.Sprintf("%s/%d/%s%s", root, year, submissionID, ext)
}

// keyFromArchiveURL recovers the object key from a public archive URL.
func keyFromArchiveURL(archivedURL string) (string, error) {
	idx := strings.Index(archivedURL, ".digitaloceanspaces.com/")
	if idx < 0 {
		return "", fmt.Errorf("not an archive URL: %s", archivedURL)
	}
	return archivedURL[idx+len(".digitaloceanspaces.com/"):], nil
}

// ArchiveFromURL fetches the artwork at sourceURL and stores a copy,
// returning the archive URL.
func (s *ArchiveService) ArchiveFromURL(ctx context.Context, submissionID, sourceURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", fmt.Errorf("invalid artwork URL %s: %w", sourceURL, err)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch artwork %s: %w", sourceURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch artwork %s: status %d", sourceURL, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return s.ArchiveArtwork(ctx, submissionID, sourceURL, resp.Body, contentType)
}

// ArchiveArtwork stores one submission's artwork and returns the public
// URL.
func (s *ArchiveService) ArchiveArtwork(ctx context.Context, submissionID, sourceURL string, body io.Reader, contentType string) (string, error) {
	key := archiveKey(s.ArchiveRoot, submissionID, sourceURL, time.Now().Year())

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		Body:        body,
		ContentType: &contentType,
		ACL:         "public-read",
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive artwork %s: %w", submissionID, err)
	}

	return fmt.Sprintf("https://%s.%s.digitaloceanspaces.com/%s", s.bucket, s.region, key), nil
}

// DeleteArtwork removes an archived file, used when a submission is
// rejected after staging.
func (s *ArchiveService) DeleteArtwork(ctx context.Context, archivedURL string) error {
	key, err := keyFromArchiveURL(archivedURL)
	if err != nil {
		return err
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		return fmt.Errorf("failed to delete archived artwork (%s): %w", key, err)
	}
	return nil
}

func (s *ArchiveService) GetBucket() string {
	return s.bucket
}

func (s *ArchiveService) GetRegion() string {
	return s.region
}
