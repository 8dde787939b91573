package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/okian/bookarena/internal/domain/model"
	"github.com/okian/bookarena/pkg/metrics"
)

const (
	exportPrefix  = "book_rankings_"
	dateLayout    = "2006-01-02"
	dirPermission = 0o755
)

var exportHeader = []string{"Rank", "Title", "Author", "Rating", "Score", "Confidence"}

// WriteRankings writes ranked as CSV with a header row.
func WriteRankings(w io.Writer, ranked []model.Ranked) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, r := range ranked {
		if err := cw.Write([]string{
			strconv.Itoa(r.Rank),
			r.Title,
			r.Author,
			strconv.FormatFloat(r.Rating, 'f', -1, 64),
			strconv.Itoa(r.Skill),
			strconv.FormatFloat(r.Confidence, 'f', 2, 64),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportPath returns the first free file name for a dated export in dir:
// book_rankings_YYYY-MM-DD.csv, then _2, _3 and so on.
func ExportPath(dir string, now time.Time) (string, error) {
	base := exportPrefix + now.Format(dateLayout)
	for n := 1; ; n++ {
		name := base + ".csv"
		if n > 1 {
			name = fmt.Sprintf("%s_%d.csv", base, n)
		}
		path := filepath.Join(dir, name)
		_, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			return path, nil
		}
		if err != nil {
			return "", err
		}
	}
}

// Export writes ranked to a new dated file under dir and returns its path.
func Export(dir string, ranked []model.Ranked, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, dirPermission); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path, err := ExportPath(dir, now)
	if err != nil {
		return "", err
	}

	// O_EXCL keeps a concurrent export from being overwritten.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	if err := WriteRankings(f, ranked); err != nil {
		f.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	metrics.RecordExport()
	return path, nil
}
