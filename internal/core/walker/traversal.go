package walker

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Change is one specifier rewrite made during a traversal.
type Change struct {
	Path string
	Line int
	From string
	To   string
}

// Report summarizes one traversal.
type Report struct {
	RunID        string
	FilesScanned int
	// Files lists every scanned file, sorted.
	Files        []string
	Skipped      int
	Changes      []Change
	Duration     time.Duration
	// DryRun is set when Changes were computed but not written.
	DryRun bool
}

// Traversal is the state owned by a single Run: the visited set, the
// visited directory set (symlink loops) and the report. Every recursive
// step receives the same *Traversal.
type Traversal struct {
	id string

	mu          sync.Mutex
	visited     map[string]bool
	visitedDirs map[string]bool
	report      Report
}

func newTraversal() *Traversal {
	id := uuid.NewString()
	return &Traversal{
		id:          id,
		visited:     make(map[string]bool),
		visitedDirs: make(map[string]bool),
		report:      Report{RunID: id},
	}
}

// claimFile records key as visited and reports whether the caller is the
// first to do so. Check and insert happen under one lock so two tasks can
// never both process the same file.
func (t *Traversal) claimFile(key, path string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.visited[key] {
		return false
	}
	t.visited[key] = true
	t.report.FilesScanned++
	t.report.Files = append(t.report.Files, path)
	return true
}

func (t *Traversal) claimDir(path string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.visitedDirs[path] {
		return false
	}
	t.visitedDirs[path] = true
	return true
}

func (t *Traversal) recordChange(c Change) {
	t.mu.Lock()
	t.report.Changes = append(t.report.Changes, c)
	t.mu.Unlock()
}

func (t *Traversal) recordSkip() {
	t.mu.Lock()
	t.report.Skipped++
	t.mu.Unlock()
}

func (t *Traversal) snapshot() Report {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := t.report
	r.Changes = append([]Change(nil), t.report.Changes...)
	r.Files = append([]string(nil), t.report.Files...)
	sort.Strings(r.Files)
	return r
}
