package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/wolfman30/docconnect-ai/pkg/logging"
)

const keyPrefix = "transcripts/v1/"

// S3API is the part of the S3 client the store calls.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Store keeps transcripts and a monthly JSONL manifest in one bucket.
type Store struct {
	client S3API
	bucket string
	logger *logging.Logger
}

// NewStore returns a store that is disabled when bucket or client is empty.
func NewStore(client S3API, bucket string, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{client: client, bucket: bucket, logger: logger}
}

func (s *Store) Enabled() bool {
	return s != nil && s.client != nil && s.bucket != ""
}

// TranscriptKey is the object key of a session archived at t.
func TranscriptKey(sessionID string, t time.Time) string {
	return keyPrefix + "by-date/" + t.UTC().Format("2006/01/02") + "/" + sessionID + ".json"
}

func manifestKey(t time.Time) string {
	return keyPrefix + "manifests/" + t.UTC().Format("2006-01") + ".jsonl"
}

func newManifestEntry(t *Transcript, key string, at time.Time) ManifestEntry {
	return ManifestEntry{
		SessionID:         t.SessionID,
		S3Key:             key,
		Category:          t.Labels.ConversationCategory,
		MedicalRisk:       t.Labels.MedicalAdviceRisk,
		InjectionDetected: t.Labels.PromptInjectionDetected,
		ArchivedAt:        at.Format(time.RFC3339),
		MessageCount:      t.MessageCount,
		Outcome:           t.Outcome,
		Redactions:        t.Redactions.Total(),
	}
}

// ArchiveTranscript stores t and records it in the month's manifest. Only the
// transcript write can fail the call; manifest problems are logged.
func (s *Store) ArchiveTranscript(ctx context.Context, t *Transcript) (*ManifestEntry, error) {
	if !s.Enabled() {
		return nil, nil
	}
	at := t.ArchivedAt.UTC()
	if t.ArchivedAt.IsZero() {
		at = time.Now().UTC()
	}

	body, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("archive: marshal transcript: %w", err)
	}
	key := TranscriptKey(t.SessionID, at)
	if err := s.put(ctx, key, "application/json", body); err != nil {
		return nil, err
	}

	entry := newManifestEntry(t, key, at)
	if err := s.appendManifest(ctx, manifestKey(at), entry); err != nil {
		s.logger.Warn("manifest not updated", "error", err, "session_id", t.SessionID)
	}
	s.logger.Info("transcript archived", "session_id", t.SessionID, "s3_key", key, "category", entry.Category)
	return &entry, nil
}

func (s *Store) put(ctx context.Context, key, contentType string, body []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("archive: put %s: %w", key, err)
	}
	return nil
}

// get returns nil without error when key does not exist.
func (s *Store) get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err != nil {
		var noKey *s3types.NoSuchKey
		var notFound *s3types.NotFound
		if errors.As(err, &noKey) || errors.As(err, &notFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("archive: get %s: %w", key, err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// appendManifest rewrites the manifest object with entry added; S3 objects
// cannot be appended to in place.
func (s *Store) appendManifest(ctx context.Context, key string, entry ManifestEntry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("archive: marshal manifest entry: %w", err)
	}
	manifest, err := s.get(ctx, key)
	if err != nil {
		return err
	}
	if n := len(manifest); n > 0 && manifest[n-1] != '\n' {
		manifest = append(manifest, '\n')
	}
	manifest = append(append(manifest, line...), '\n')
	return s.put(ctx, key, "application/x-ndjson", manifest)
}
