package memory

import (
	"context"
	"sync"
	"time"

	"github.com/awonak/pool-party/internal/domain"
)

// SiteStore keeps site settings in memory, seeded from configuration.
type SiteStore struct {
	mu   sync.RWMutex
	site domain.Site
}

func NewSiteStore(site domain.Site) *SiteStore {
	return &SiteStore{site: site}
}

func (s *SiteStore) GetSite(_ context.Context) (domain.Site, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.site, nil
}

func (s *SiteStore) SaveSite(_ context.Context, site domain.Site) (domain.Site, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	site.UpdatedAt = time.Now().UTC()
	s.site = site
	return site, nil
}

var _ domain.SiteRepository = (*SiteStore)(nil)
