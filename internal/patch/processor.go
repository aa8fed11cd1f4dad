package patch

import (
	"errors"
	"log"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/rspfix/internal/capability"
	"github.com/standardbeagle/rspfix/internal/config"
	"github.com/standardbeagle/rspfix/internal/debug"
	rsperrors "github.com/standardbeagle/rspfix/internal/errors"
	"github.com/standardbeagle/rspfix/internal/fsys"
	"github.com/standardbeagle/rspfix/internal/projdoc"
	"github.com/standardbeagle/rspfix/pkg/pathutil"
)

// FileKind distinguishes the two document types the processor handles.
type FileKind int

const (
	KindProject FileKind = iota
	KindSolution
)

func (k FileKind) String() string {
	if k == KindSolution {
		return "solution"
	}
	return "project"
}

// Options control a processing run.
type Options struct {
	DryRun bool // compute changes without writing
}

// FileResult is the outcome for one file.
type FileResult struct {
	Path    string
	Kind    FileKind
	Changed bool   // output differs from input
	Written bool   // output was written to disk
	Hash    uint64 // xxhash of the content now on disk (or that would be, in dry-run)
	Notices []error
	Err     error
}

// Report collects the results of a run.
type Report struct {
	Files []FileResult
}

// Changed returns the number of files whose content changed.
func (r Report) Changed() int {
	n := 0
	for _, f := range r.Files {
		if f.Changed {
			n++
		}
	}
	return n
}

// Errors returns the per-file failures.
func (r Report) Errors() []error {
	var errs []error
	for _, f := range r.Files {
		if f.Err != nil {
			errs = append(errs, f.Err)
		}
	}
	return errs
}

// Processor discovers and patches the files of one project.
type Processor struct {
	fs    fsys.FS
	cfg   *config.Config
	probe capability.Probe
	opts  Options
}

// NewProcessor creates a processor.
func NewProcessor(fs fsys.FS, cfg *config.Config, probe capability.Probe, opts Options) *Processor {
	return &Processor{fs: fs, cfg: cfg, probe: probe, opts: opts}
}

// Config returns the configuration the processor was built with.
func (p *Processor) Config() *config.Config {
	return p.cfg
}

// Run patches every discovered project and solution. Failures are logged
// and recorded per file; one bad file never stops the batch.
func (p *Processor) Run() Report {
	var report Report

	projects, solutions, err := p.Discover()
	if err != nil {
		log.Printf("WARNING: discovery failed: %v", err)
		report.Files = append(report.Files, FileResult{Path: p.cfg.Project.Root, Err: err})
		return report
	}

	patcher := p.newPatcher()
	for _, path := range projects {
		report.Files = append(report.Files, p.processProject(patcher, path))
	}
	for _, path := range solutions {
		report.Files = append(report.Files, p.processSolution(patcher, path))
	}
	return report
}

// ProcessFiles patches only the given files, classifying each by the
// discovery patterns. Paths that match neither kind are ignored.
func (p *Processor) ProcessFiles(paths []string) Report {
	var report Report
	patcher := p.newPatcher()
	for _, path := range paths {
		kind, ok := p.Classify(path)
		if !ok {
			continue
		}
		if kind == KindSolution {
			report.Files = append(report.Files, p.processSolution(patcher, path))
		} else {
			report.Files = append(report.Files, p.processProject(patcher, path))
		}
	}
	return report
}

// newPatcher asks the probe once per run. A failing probe degrades to
// unknown capabilities rather than aborting.
func (p *Processor) newPatcher() *Patcher {
	caps, err := p.probe.Capabilities()
	if err != nil {
		log.Printf("WARNING: capability probe failed, assuming an unknown engine: %v", err)
		caps = capability.Capabilities{}
	}
	return NewPatcher(p.fs, p.cfg, caps)
}

// Discover returns the project and solution files under the root, sorted,
// with exclusions applied.
func (p *Processor) Discover() (projects, solutions []string, err error) {
	projects, err = p.glob(p.cfg.Discovery.Projects)
	if err != nil {
		return nil, nil, err
	}
	solutions, err = p.glob(p.cfg.Discovery.Solutions)
	if err != nil {
		return nil, nil, err
	}
	debug.LogPatch("discovered %d projects, %d solutions\n", len(projects), len(solutions))
	return projects, solutions, nil
}

func (p *Processor) glob(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, pattern := range patterns {
		matches, err := p.fs.Glob(p.cfg.Project.Root, pattern)
		if err != nil {
			return nil, rsperrors.NewConfigError("discovery", pattern, err)
		}
		for _, m := range matches {
			if !seen[m] && !p.excluded(m) {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

func (p *Processor) excluded(path string) bool {
	rel, ok := pathutil.ToSlashRelative(path, p.cfg.Project.Root)
	if !ok {
		return true
	}
	for _, pattern := range p.cfg.Discovery.Exclude {
		if match, _ := doublestar.Match(pattern, rel); match {
			return true
		}
	}
	return false
}

// Classify reports whether path is a project or a solution according to the
// discovery patterns.
func (p *Processor) Classify(path string) (FileKind, bool) {
	rel, ok := pathutil.ToSlashRelative(path, p.cfg.Project.Root)
	if !ok || p.excluded(path) {
		return 0, false
	}
	if matchAny(p.cfg.Discovery.Projects, rel) {
		return KindProject, true
	}
	if matchAny(p.cfg.Discovery.Solutions, rel) {
		return KindSolution, true
	}
	return 0, false
}

func matchAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if match, _ := doublestar.Match(pattern, rel); match {
			return true
		}
	}
	return false
}

func (p *Processor) processProject(patcher *Patcher, path string) FileResult {
	result := FileResult{Path: path, Kind: KindProject}
	rel := pathutil.ToRelative(path, p.cfg.Project.Root)
	debug.LogPatch("post-processing %s\n", rel)

	data, err := p.fs.ReadFile(path)
	if err != nil {
		return p.fail(result, rel, rsperrors.NewFileError("read", path, err))
	}

	doc, err := projdoc.Parse(data)
	if err != nil {
		var parseErr *rsperrors.DocumentParseError
		if errors.As(err, &parseErr) {
			err = parseErr.WithPath(path)
		}
		return p.fail(result, rel, err)
	}

	result.Notices = patcher.PatchProject(path, doc)
	for _, n := range result.Notices {
		log.Printf("WARNING: %s: %v", rel, n)
	}

	return p.store(result, rel, data, doc.Bytes())
}

func (p *Processor) processSolution(patcher *Patcher, path string) FileResult {
	result := FileResult{Path: path, Kind: KindSolution}
	rel := pathutil.ToRelative(path, p.cfg.Project.Root)
	debug.LogPatch("post-processing %s\n", rel)

	data, err := p.fs.ReadFile(path)
	if err != nil {
		return p.fail(result, rel, rsperrors.NewFileError("read", path, err))
	}

	out, _ := patcher.RewriteSolution(data)
	return p.store(result, rel, data, out)
}

// store writes out when its hash differs from the input's.
func (p *Processor) store(result FileResult, rel string, in, out []byte) FileResult {
	result.Hash = xxhash.Sum64(out)
	if result.Hash == xxhash.Sum64(in) {
		debug.LogPatch("%s unchanged\n", rel)
		return result
	}
	result.Changed = true

	if p.opts.DryRun {
		log.Printf("would update %s", rel)
		return result
	}
	if err := p.fs.WriteFile(result.Path, out); err != nil {
		result.Hash = xxhash.Sum64(in)
		return p.fail(result, rel, rsperrors.NewFileError("write", result.Path, err))
	}
	result.Written = true
	log.Printf("updated %s", rel)
	return result
}

func (p *Processor) fail(result FileResult, rel string, err error) FileResult {
	log.Printf("WARNING: skipping %s: %v", rel, err)
	result.Err = err
	return result
}
