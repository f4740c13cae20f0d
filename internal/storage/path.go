package storage

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var segmentPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}$`)

// ExportKey addresses one exported result:
// exports/YYYY/MM/DD/<session>/<seq>-<HHMMSS>.<ext>
// Keys sort by day, then session, then order of export.
type ExportKey struct {
	SessionID string
	At        time.Time
	Sequence  int
	Extension string
}

func (k ExportKey) Validate() error {
	if !segmentPattern.MatchString(k.SessionID) {
		return fmt.Errorf("invalid session id: %q", k.SessionID)
	}
	if !segmentPattern.MatchString(k.Extension) || strings.Contains(k.Extension, ".") {
		return fmt.Errorf("invalid extension: %q", k.Extension)
	}
	if k.Sequence < 0 {
		return fmt.Errorf("sequence must be >= 0, got %d", k.Sequence)
	}
	return nil
}

func (k ExportKey) String() string {
	ts := k.At.UTC()
	return fmt.Sprintf("exports/%s/%s/%06d-%s.%s",
		ts.Format("2006/01/02"), k.SessionID, k.Sequence, ts.Format("150405"), k.Extension)
}

// DownloadName is the file name offered to whoever opens the link.
func (k ExportKey) DownloadName() string {
	return "query_results." + k.Extension
}
