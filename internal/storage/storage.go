// Package storage is where exported query results are published.
package storage

import (
	"context"
	"io"
	"time"
)

// Object is one export upload. Metadata is stored as user metadata on the
// object; keys are lower-case.
type Object struct {
	Key         string
	Body        io.Reader
	Size        int64
	ContentType string
	Metadata    map[string]string
}

type ObjectInfo struct {
	Key  string `json:"key"`
	Size int64  `json:"size"`
	ETag string `json:"etag,omitempty"`
}

// LinkOptions shape a presigned download. DownloadName, when set, becomes the
// file name the browser saves.
type LinkOptions struct {
	Expiry       time.Duration
	DownloadName string
}

type ObjectStore interface {
	Put(ctx context.Context, object Object) (ObjectInfo, error)
	PresignGet(ctx context.Context, key string, opts LinkOptions) (string, error)
}
