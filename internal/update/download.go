package update

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/simblock-app/simblock/internal/release"
)

const (
	// progressInterval bounds how often the progress callback fires, so a
	// fast stream does not flood the consumer with per-chunk reports.
	progressInterval = 200 * time.Millisecond

	percentMax = 100
)

// download streams the asset to a temporary path and verifies the byte count
// against the size declared in the release metadata. On any failure the
// partial file is removed; the live binary is never touched at this stage.
//
//nolint:gosec // G304/G704: URL and temp path come from release metadata, not user input
func (p *Pipeline) download(
	ctx context.Context,
	asset release.Asset,
	progress ProgressFunc,
) (string, error) {
	tmpFile, err := os.CreateTemp("", "simblock-download-*")
	if err != nil {
		return "", errors.Wrap(err, "creating temp file")
	}

	tmpPath := tmpFile.Name()

	if closeErr := tmpFile.Close(); closeErr != nil {
		return "", errors.Wrap(closeErr, "closing temp file")
	}

	if dlErr := p.downloadTo(ctx, asset, tmpPath, progress); dlErr != nil {
		removeFile(tmpPath)

		return "", dlErr
	}

	return tmpPath, nil
}

func (p *Pipeline) downloadTo(
	ctx context.Context,
	asset release.Asset,
	destPath string,
	progress ProgressFunc,
) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, asset.DownloadURL, nil)
	if err != nil {
		return errors.Wrap(err, "creating request")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "downloading asset")
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close on response body

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("download failed: HTTP %d", resp.StatusCode)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return errors.Wrap(err, "creating destination file")
	}

	reader := &progressReader{
		reader:   resp.Body,
		total:    asset.Size,
		callback: progress,
	}

	written, copyErr := io.Copy(out, reader)

	if closeErr := out.Close(); closeErr != nil && copyErr == nil {
		copyErr = closeErr
	}

	if copyErr != nil {
		return errors.Wrap(copyErr, "writing download to file")
	}

	// The declared size is the only integrity signal the channel offers;
	// a short or long stream means the artifact must not be installed.
	if written != asset.Size {
		return errors.Wrapf(
			ErrDownloadIncomplete,
			"declared %d bytes, received %d", asset.Size, written,
		)
	}

	reader.finish()

	return nil
}

// progressReader wraps an io.Reader and reports rate-limited progress.
type progressReader struct {
	reader   io.Reader
	total    int64
	received int64
	callback ProgressFunc
	last     time.Time
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.received += int64(n)

	if r.callback != nil && time.Since(r.last) >= progressInterval {
		r.last = time.Now()
		r.callback(clampPercent(r.received, r.total), r.received, r.total)
	}

	return n, err
}

// finish emits the terminal 100% report once the stream has been verified.
func (r *progressReader) finish() {
	if r.callback != nil {
		r.callback(clampPercent(r.total, r.total), r.received, r.total)
	}
}

// clampPercent converts byte counts to a percentage clamped to [0,100],
// tolerating inconsistent inputs.
func clampPercent(received, total int64) float64 {
	if total <= 0 {
		return 0
	}

	pct := float64(received) / float64(total) * percentMax

	switch {
	case pct < 0:
		return 0
	case pct > percentMax:
		return percentMax
	default:
		return pct
	}
}

// removeFile removes a file, ignoring errors.
//
//nolint:gosec // G703: paths are pipeline-owned temp and backup files
func removeFile(path string) {
	_ = os.Remove(path)
}
