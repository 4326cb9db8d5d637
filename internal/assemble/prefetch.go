package assemble

import (
	"context"
	stderrors "errors"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/zeebo/blake3"

	"github.com/distkit/distkit/internal/errors"
	"github.com/distkit/distkit/internal/fsutil"
	"github.com/distkit/distkit/internal/log"
	"github.com/distkit/distkit/internal/manifest"
	"github.com/distkit/distkit/internal/tier"
)

const (
	// prefetchAttempts bounds retries for a retryable download failure
	prefetchAttempts = 3

	// prefetchBackoff is the fixed delay between retry attempts
	prefetchBackoff = 2 * time.Second
)

// ComponentSource fetches one optional component into a destination
// directory.
type ComponentSource interface {
	// Fetch places the component's files under destDir.
	Fetch(ctx context.Context, component tier.ComponentSpec, destDir string) error
}

// NewComponentSource returns an HTTP source for http(s) URLs and a local
// directory source otherwise.
func NewComponentSource(source string) ComponentSource {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return &HTTPSource{BaseURL: strings.TrimRight(source, "/")}
	}
	return &LocalSource{Dir: source}
}

// LocalSource copies components from a directory with one subdirectory per
// component ID.
type LocalSource struct {
	Dir string
}

// Fetch implements ComponentSource.
func (s *LocalSource) Fetch(_ context.Context, component tier.ComponentSpec, destDir string) error {
	srcDir := filepath.Join(s.Dir, component.ID)
	if !fsutil.DirExists(srcDir) {
		return errors.NewDownloadFailureError(component.ID,
			fmt.Errorf("component directory not found: %s", srcDir))
	}
	return fsutil.CopyTree(srcDir, destDir)
}

// HTTPSource downloads component archives from <BaseURL>/<id>.tar.gz.
type HTTPSource struct {
	BaseURL string

	// Client overrides http.DefaultClient when set
	Client *http.Client
}

// Fetch implements ComponentSource.
func (s *HTTPSource) Fetch(ctx context.Context, component tier.ComponentSpec, destDir string) error {
	url := fmt.Sprintf("%s/%s.tar.gz", s.BaseURL, component.ID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return errors.NewDownloadFailureError(component.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.NewDownloadFailureError(component.ID,
			fmt.Errorf("unexpected status %s from %s", resp.Status, url))
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("failed to create component directory: %w", err)
	}

	out, err := os.Create(filepath.Join(destDir, component.ID+".tar.gz"))
	if err != nil {
		return fmt.Errorf("failed to create component archive: %w", err)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return errors.NewDownloadFailureError(component.ID, err)
	}
	return out.Close()
}

// PrefetchResult records what the prefetcher actually delivered versus what
// was requested, so partial tiers are explicit in the manifest.
type PrefetchResult struct {
	Included []tier.ComponentSpec
	Missing  []string
}

// Prefetcher fetches the resolved components into the package. Components
// are independent, so fetches fan out in parallel; assembly state is only
// touched through each component's own destination directory.
type Prefetcher struct {
	Source    ComponentSource
	Checksums map[string]string
	Logger    *log.Logger

	// Backoff overrides the fixed retry delay (tests shorten it)
	Backoff time.Duration
}

// Prefetch fetches every component. A per-component download failure is a
// warning recorded in the result, not a fatal error; a checksum mismatch is
// fatal and aborts assembly.
func (p *Prefetcher) Prefetch(ctx context.Context, layout manifest.Layout, components []tier.ComponentSpec) (*PrefetchResult, error) {
	logger := p.Logger
	if logger == nil {
		logger = log.DefaultLogger()
	}
	backoff := p.Backoff
	if backoff <= 0 {
		backoff = prefetchBackoff
	}

	type outcome struct {
		component tier.ComponentSpec
		err       error
	}

	outcomes := make([]outcome, len(components))
	var wg sync.WaitGroup

	for i, component := range components {
		wg.Add(1)
		go func(i int, component tier.ComponentSpec) {
			defer wg.Done()
			err := p.fetchOne(ctx, component, layout.ComponentPath(component.ID), backoff)
			outcomes[i] = outcome{component: component, err: err}
		}(i, component)
	}
	wg.Wait()

	result := &PrefetchResult{}
	for _, o := range outcomes {
		if o.err == nil {
			result.Included = append(result.Included, o.component)
			continue
		}

		var dkErr *errors.DistkitError
		if stderrors.As(o.err, &dkErr) && dkErr.Code == errors.ErrCodeChecksumMismatch {
			return nil, o.err
		}

		logger.WithError(o.err).Warn("component prefetch failed, continuing without it",
			"component", o.component.ID)
		// A partial fetch must not be mistaken for an included component.
		os.RemoveAll(layout.ComponentPath(o.component.ID))
		result.Missing = append(result.Missing, o.component.ID)
	}

	sort.Strings(result.Missing)
	return result, nil
}

// fetchOne retries retryable failures with a fixed backoff, then verifies
// the expected checksum if one is declared.
func (p *Prefetcher) fetchOne(ctx context.Context, component tier.ComponentSpec, destDir string, backoff time.Duration) error {
	var lastErr error
	for attempt := 1; attempt <= prefetchAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			// A failed attempt may leave a partial tree behind.
			os.RemoveAll(destDir)
		}

		lastErr = p.Source.Fetch(ctx, component, destDir)
		if lastErr == nil {
			break
		}

		var dkErr *errors.DistkitError
		if !stderrors.As(lastErr, &dkErr) || dkErr.Code != errors.ErrCodeDownloadFailure {
			return lastErr
		}
	}
	if lastErr != nil {
		return lastErr
	}

	if expected, ok := p.Checksums[component.ID]; ok {
		actual, err := hashComponentDir(destDir)
		if err != nil {
			return fmt.Errorf("failed to hash component %s: %w", component.ID, err)
		}
		if actual != expected {
			return errors.NewChecksumMismatchError(component.ID, expected, actual)
		}
	}
	return nil
}

// hashComponentDir computes a deterministic blake3 digest over a component
// directory: file paths and contents, in sorted path order.
func hashComponentDir(dir string) (string, error) {
	hasher := blake3.New()

	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	sort.Strings(paths)

	for _, path := range paths {
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return "", err
		}
		hasher.Write([]byte(filepath.ToSlash(rel)))
		hasher.Write([]byte{0})

		f, err := os.Open(path)
		if err != nil {
			return "", err
		}
		if _, err := io.Copy(hasher, f); err != nil {
			f.Close()
			return "", err
		}
		f.Close()
	}

	return "blake3:" + hex.EncodeToString(hasher.Sum(nil)), nil
}
