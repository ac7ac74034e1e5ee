package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/quantex-labs/crossbot/internal/domain"
)

// PositionArchiveStore provides read access to closed positions for archival
// purposes. The Postgres position store satisfies it implicitly.
type PositionArchiveStore interface {
	ListClosedBefore(ctx context.Context, before time.Time) ([]domain.Position, error)
}

// BlobWriter is the upload surface the archiver needs.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}

// Archiver queries the position store for closed positions older than a
// cutoff, serializes them to JSONL, and uploads the result to S3.
//
// Deletion of the archived records from the primary store is intentionally
// NOT performed here -- that is a separate, explicit step to be executed
// after the archive has been verified.
type Archiver struct {
	writer BlobWriter
	store  PositionArchiveStore
	prefix string
}

// NewArchiver creates an Archiver that writes archive files under the given
// key prefix, e.g. "archive/positions".
func NewArchiver(writer BlobWriter, store PositionArchiveStore, prefix string) *Archiver {
	return &Archiver{
		writer: writer,
		store:  store,
		prefix: strings.TrimSuffix(prefix, "/"),
	}
}

// ArchivePositions queries all closed positions with an exit time before the
// cutoff, serializes them to JSONL, and uploads the file to S3 at
// {prefix}/YYYY-MM.jsonl. It returns the count of archived records; zero
// records means no upload.
func (a *Archiver) ArchivePositions(ctx context.Context, before time.Time) (int64, error) {
	positions, err := a.store.ListClosedBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive positions query: %w", err)
	}
	if len(positions) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(positions)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive positions marshal: %w", err)
	}

	path := a.archivePath(before)
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: archive positions upload: %w", err)
	}

	return int64(len(positions)), nil
}

// archivePath builds the S3 key for an archive file, partitioned by the
// year-month of the cutoff time, e.g. archive/positions/2026-08.jsonl.
func (a *Archiver) archivePath(before time.Time) string {
	return fmt.Sprintf("%s/%s.jsonl", a.prefix, before.Format("2006-01"))
}

// marshalJSONL serialises a slice of values as newline-delimited JSON (JSONL).
// Each element is marshalled as a single compact JSON line followed by '\n'.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
