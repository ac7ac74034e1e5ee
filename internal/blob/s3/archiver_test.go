package s3blob

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/quantex-labs/crossbot/internal/domain"
)

type fakeWriter struct {
	path        string
	contentType string
	body        []byte
	calls       int
}

func (f *fakeWriter) Put(_ context.Context, path string, data io.Reader, contentType string) error {
	f.calls++
	f.path = path
	f.contentType = contentType
	body, err := io.ReadAll(data)
	f.body = body
	return err
}

type fakeArchiveStore struct {
	positions []domain.Position
}

func (f *fakeArchiveStore) ListClosedBefore(_ context.Context, _ time.Time) ([]domain.Position, error) {
	return f.positions, nil
}

func closedPosition(id string, pnl float64) domain.Position {
	exit := time.Date(2026, 7, 10, 12, 0, 0, 0, time.UTC)
	price := 40000.0
	return domain.Position{
		ID:         id,
		Instrument: "BTCUSDT",
		Status:     domain.PositionStatusClosed,
		Side:       domain.SideLong,
		Quantity:   1,
		EntryPrice: price,
		ExitPrice:  &price,
		ExitTime:   &exit,
		ProfitLoss: &pnl,
	}
}

func TestArchivePositions(t *testing.T) {
	writer := &fakeWriter{}
	store := &fakeArchiveStore{positions: []domain.Position{
		closedPosition("pos-1", 10),
		closedPosition("pos-2", -5),
	}}
	archiver := NewArchiver(writer, store, "archive/positions")

	cutoff := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	count, err := archiver.ArchivePositions(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("ArchivePositions: %v", err)
	}

	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
	if writer.path != "archive/positions/2026-08.jsonl" {
		t.Errorf("path = %q", writer.path)
	}
	if writer.contentType != "application/x-ndjson" {
		t.Errorf("content type = %q", writer.contentType)
	}

	// Each line must be a standalone JSON document.
	scanner := bufio.NewScanner(bytes.NewReader(writer.body))
	var lines int
	for scanner.Scan() {
		var pos domain.Position
		if err := json.Unmarshal(scanner.Bytes(), &pos); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", lines+1, err)
		}
		lines++
	}
	if lines != 2 {
		t.Errorf("got %d JSONL lines, want 2", lines)
	}
}

func TestArchivePositionsEmptySkipsUpload(t *testing.T) {
	writer := &fakeWriter{}
	archiver := NewArchiver(writer, &fakeArchiveStore{}, "archive/positions")

	count, err := archiver.ArchivePositions(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("ArchivePositions: %v", err)
	}
	if count != 0 || writer.calls != 0 {
		t.Errorf("empty result must not upload (count=%d calls=%d)", count, writer.calls)
	}
}
