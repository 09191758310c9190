package export

import (
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// Artifact describes one generated export file.
type Artifact struct {
	Name    string    `json:"name"`
	Path    string    `json:"-"`
	URL     string    `json:"url"`
	Size    int64     `json:"size"`
	Rows    int       `json:"rows,omitempty"`
	Created time.Time `json:"created"`
}

// Registry tracks generated artifacts ordered by creation time (oldest
// first), so the retention sweep can harvest expired ones from the front.
type Registry struct {
	mu        sync.RWMutex
	artifacts []Artifact
}

func NewRegistry() *Registry {
	return &Registry{artifacts: make([]Artifact, 0)}
}

// Add inserts the artifact, keeping creation order.
func (r *Registry) Add(a Artifact) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.artifacts = append(r.artifacts, a)
	sort.Slice(r.artifacts, func(i, j int) bool {
		return r.artifacts[i].Created.Before(r.artifacts[j].Created)
	})
}

// List returns a copy of all tracked artifacts, oldest first.
func (r *Registry) List() []Artifact {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Artifact, len(r.artifacts))
	copy(out, r.artifacts)
	return out
}

// Expired removes and returns every artifact created at or before cutoff.
func (r *Registry) Expired(cutoff time.Time) []Artifact {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := sort.Search(len(r.artifacts), func(i int) bool {
		return r.artifacts[i].Created.After(cutoff)
	})

	expired := make([]Artifact, idx)
	copy(expired, r.artifacts[:idx])
	r.artifacts = r.artifacts[idx:]
	return expired
}

// Rebuild scans dir for previously generated CSV artifacts and registers
// them with their file modification time, so retention and the listing
// survive a restart. Returns how many files were picked up.
func (r *Registry) Rebuild(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	count := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".csv" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		r.Add(Artifact{
			Name:    entry.Name(),
			Path:    filepath.Join(dir, entry.Name()),
			URL:     "data/" + entry.Name(),
			Size:    info.Size(),
			Created: info.ModTime(),
		})
		count++
	}
	return count, nil
}
