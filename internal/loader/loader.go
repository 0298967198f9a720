// SPDX-License-Identifier: MPL-2.0

// Package loader runs the full pack pipeline for one load session: parse
// and validate every candidate manifest, resolve the load order, decode
// compiled artifacts on a bounded worker pool, and merge the results into
// a fresh registry strictly in resolved order. A session either produces
// a frozen registry or fails as a whole; no partial registry ever escapes.
package loader

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/emberdeck/packwright/internal/packfile"
	"github.com/emberdeck/packwright/internal/registry"
	"github.com/emberdeck/packwright/internal/resolver"
	"github.com/emberdeck/packwright/pkg/manifest"
)

// DefaultWorkers is the decode pool size when Options.Workers is zero.
const DefaultWorkers = 4

// Options configures a load session.
type Options struct {
	// Host carries the engine version and capability set packs are gated
	// against.
	Host resolver.Host
	// Workers bounds the decode pool. Zero means DefaultWorkers.
	Workers int
	// Logger receives session progress. Nil means a stderr logger.
	Logger *log.Logger
}

// Loader runs load sessions over compiled pack artifacts.
type Loader struct {
	opts   Options
	logger *log.Logger
}

// New creates a loader with the given options.
func New(opts Options) *Loader {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			Prefix: "loader",
		})
	}
	return &Loader{opts: opts, logger: logger}
}

// decodeResult carries one decoded pack tagged with its position in the
// resolved order, so the merge step can re-sequence out-of-order arrivals.
type decodeResult struct {
	pos      int
	contents *packfile.PackContents
}

// Load runs one full session over the given artifact paths and returns
// the aggregated report. On success the report carries a frozen registry;
// on failure the returned error is also recorded as a report entry, so
// callers render one artifact for both outcomes.
func (l *Loader) Load(ctx context.Context, artifactPaths []string) (*Report, error) {
	started := time.Now()
	report := &Report{}
	defer func() {
		report.Duration = time.Since(started)
	}()

	manifests, pathByID, err := l.readManifests(artifactPaths, report)
	if err != nil {
		report.addError(packIDOf(err), err)
		return report, err
	}

	ordered, err := resolver.Resolve(manifests, l.opts.Host)
	if err != nil {
		report.addError(packIDOf(err), err)
		return report, err
	}
	for _, m := range ordered {
		report.Packs = append(report.Packs, m.ID)
	}
	l.logger.Debug("load order resolved", "packs", report.Packs)

	reg := registry.New()
	if err := l.decodeAndMerge(ctx, ordered, pathByID, reg); err != nil {
		report.addError(packIDOf(err), err)
		return report, err
	}

	if err := reg.Finalize(); err != nil {
		report.addError(packIDOf(err), err)
		return report, err
	}

	report.Registry = reg
	l.logger.Info("pack set loaded",
		"packs", len(ordered),
		"records", reg.Len(),
		"duration", time.Since(started).Round(time.Millisecond))
	return report, nil
}

// readManifests opens each artifact just long enough to extract and
// validate its manifest. Warnings land in the report; error-severity
// issues abort the session.
func (l *Loader) readManifests(artifactPaths []string, report *Report) ([]*manifest.PackManifest, map[string]string, error) {
	manifests := make([]*manifest.PackManifest, 0, len(artifactPaths))
	pathByID := make(map[string]string, len(artifactPaths))

	for _, path := range artifactPaths {
		r, err := packfile.Open(path)
		if err != nil {
			return nil, nil, err
		}
		m, err := r.Manifest()
		_ = r.Close()
		if err != nil {
			return nil, nil, err
		}

		issues := manifest.Validate(m)
		for _, issue := range issues {
			if issue.Severity == manifest.SeverityWarning {
				report.addWarning(m.ID, KindManifest, issue.String())
			}
		}
		if manifest.HasErrors(issues) {
			return nil, nil, &packError{PackID: m.ID, Err: &manifest.InvalidManifestError{
				Path:   path,
				Reason: fmt.Sprintf("validation failed: %v", issues),
			}}
		}

		manifests = append(manifests, m)
		pathByID[m.ID] = path
	}
	return manifests, pathByID, nil
}

// decodeAndMerge decodes artifacts on a bounded pool and merges them into
// the registry strictly in resolved order. Decode results arriving out of
// order are buffered by position and released only once every earlier
// position has merged; duplicate-id errors stay deterministic that way.
func (l *Loader) decodeAndMerge(ctx context.Context, ordered []*manifest.PackManifest, pathByID map[string]string, reg *registry.Registry) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	decoders, dctx := errgroup.WithContext(ctx)
	decoders.SetLimit(l.opts.Workers)

	// Submission and Wait run on one goroutine: Go blocks once the pool is
	// full, and the merge loop below must already be draining results by
	// then or the pool would stall.
	results := make(chan decodeResult)
	decodeErr := make(chan error, 1)
	go func() {
		for i, m := range ordered {
			decoders.Go(func() error {
				contents, err := l.decodePack(m, pathByID[m.ID])
				if err != nil {
					return err
				}
				select {
				case results <- decodeResult{pos: i, contents: contents}:
					return nil
				case <-dctx.Done():
					return dctx.Err()
				}
			})
		}
		decodeErr <- decoders.Wait()
		close(results)
	}()

	pending := make(map[int]*packfile.PackContents, len(ordered))
	next := 0
	var mergeErr error
	for res := range results {
		if mergeErr != nil {
			continue
		}
		pending[res.pos] = res.contents
		for {
			contents, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			if err := reg.Merge(contents.Manifest.ID, contents.Descriptors); err != nil {
				mergeErr = err
				cancel()
				break
			}
			l.logger.Debug("pack merged",
				"pack", contents.Manifest.ID,
				"position", next,
				"records", len(contents.Descriptors))
			next++
		}
	}

	if err := <-decodeErr; err != nil && mergeErr == nil {
		return err
	}
	if mergeErr != nil {
		return mergeErr
	}
	if next != len(ordered) {
		return fmt.Errorf("merge stalled at position %d of %d", next, len(ordered))
	}
	return nil
}

// decodePack reads one artifact and checks that its embedded manifest
// matches the manifest the resolver ordered. Errors are attributed to the
// resolved pack the artifact belongs to.
func (l *Loader) decodePack(m *manifest.PackManifest, path string) (*packfile.PackContents, error) {
	contents, err := packfile.ReadPack(path)
	if err != nil {
		return nil, &packError{PackID: m.ID, Err: err}
	}
	if contents.Manifest.ID != m.ID {
		return nil, &packError{PackID: m.ID, Err: &packfile.CorruptArtifactError{
			Path:   path,
			Reason: fmt.Sprintf("manifest id %q does not match resolved pack %q", contents.Manifest.ID, m.ID),
		}}
	}
	return contents, nil
}
