package export

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/querybot/querybot/internal/storage"
)

type Published struct {
	Key         string `json:"key"`
	Size        int64  `json:"size"`
	Format      Format `json:"format"`
	DownloadURL string `json:"download_url"`
	Rows        int    `json:"rows"`
}

// Publisher uploads encoded results to the object store and returns a
// presigned download link.
type Publisher struct {
	store    storage.ObjectStore
	expiry   time.Duration
	sequence atomic.Int64
	now      func() time.Time
}

func NewPublisher(store storage.ObjectStore, linkExpiry time.Duration) *Publisher {
	if linkExpiry <= 0 {
		linkExpiry = 15 * time.Minute
	}
	return &Publisher{store: store, expiry: linkExpiry, now: time.Now}
}

func (p *Publisher) Publish(ctx context.Context, sessionID string, format Format, table Table) (Published, error) {
	if p.store == nil {
		return Published{}, fmt.Errorf("export store is not configured")
	}
	key := storage.ExportKey{
		SessionID: sessionID,
		At:        p.now(),
		Sequence:  int(p.sequence.Add(1)),
		Extension: format.Extension(),
	}
	if err := key.Validate(); err != nil {
		return Published{}, fmt.Errorf("build export key: %w", err)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, format, table); err != nil {
		return Published{}, fmt.Errorf("encode %s export: %w", format, err)
	}
	size := int64(buf.Len())
	info, err := p.store.Put(ctx, storage.Object{
		Key:         key.String(),
		Body:        &buf,
		Size:        size,
		ContentType: format.ContentType(),
		Metadata: map[string]string{
			"session-id": sessionID,
			"format":     string(format),
			"rows":       strconv.Itoa(len(table.Rows)),
		},
	})
	if err != nil {
		return Published{}, fmt.Errorf("upload export: %w", err)
	}
	link, err := p.store.PresignGet(ctx, key.String(), storage.LinkOptions{Expiry: p.expiry, DownloadName: key.DownloadName()})
	if err != nil {
		return Published{}, fmt.Errorf("presign export: %w", err)
	}
	if info.Key == "" {
		info.Key = key.String()
	}
	return Published{Key: info.Key, Size: size, Format: format, DownloadURL: link, Rows: len(table.Rows)}, nil
}

// WriteFile encodes table into a local file; the format follows the file
// extension.
func WriteFile(path string, table Table) (Format, error) {
	format := FormatForPath(path)
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	if err := Encode(file, format, table); err != nil {
		_ = file.Close()
		return "", fmt.Errorf("encode %s export: %w", format, err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close export file: %w", err)
	}
	return format, nil
}
