package dataverse

import (
	"sync"
	"time"

	"github.com/christopherklint97/timegrid/internal/week"
)

// ProjectCache holds the project list for ttl. Projects and their tasks change
// rarely compared to time entries.
type ProjectCache struct {
	mu        sync.RWMutex
	projects  []week.Project
	fetchedAt time.Time
	ttl       time.Duration
}

func NewProjectCache(ttl time.Duration) *ProjectCache {
	return &ProjectCache{ttl: ttl}
}

func (c *ProjectCache) Get() []week.Project {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.projects == nil || time.Since(c.fetchedAt) > c.ttl {
		return nil
	}

	result := make([]week.Project, len(c.projects))
	copy(result, c.projects)
	return result
}

func (c *ProjectCache) Set(projects []week.Project) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.projects = make([]week.Project, len(projects))
	copy(c.projects, projects)
	c.fetchedAt = time.Now()
}

func (c *ProjectCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.projects = nil
}
