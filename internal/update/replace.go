package update

import (
	"time"

	"github.com/cockroachdb/errors"
)

const (
	// defaultReplaceAttempts bounds the retries against a locked live binary.
	defaultReplaceAttempts = 5

	// defaultReplaceBackoff is the pause between replace attempts. Locks
	// held by antivirus scanners typically clear within a few hundred ms.
	defaultReplaceBackoff = 250 * time.Millisecond
)

// ReplaceFunc swaps the staged binary into the live path. The default is
// atomicReplace; tests inject failures through WithReplaceFunc.
type ReplaceFunc func(stagedPath, livePath string) error

// swap moves the staged binary into the live path, retrying a bounded number
// of times with backoff against transient file-in-use and permission errors.
func (p *Pipeline) swap(stagedPath, livePath string) error {
	var lastErr error

	for attempt := range p.replaceAttempts {
		if attempt > 0 {
			time.Sleep(p.replaceBackoff)
		}

		lastErr = p.replace(stagedPath, livePath)
		if lastErr == nil {
			return nil
		}

		p.log.Debug("replace attempt failed",
			"attempt", attempt+1,
			"error", lastErr,
		)
	}

	return errors.Wrapf(lastErr, "replacing binary after %d attempts", p.replaceAttempts)
}
