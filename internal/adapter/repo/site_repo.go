package repo

import (
	"context"

	"github.com/awonak/pool-party/internal/domain"
	"github.com/awonak/pool-party/internal/infra"
	"github.com/awonak/pool-party/internal/sqlinline"
)

// SiteRepositoryPG stores the single site_instance row.
type SiteRepositoryPG struct {
	sql      infra.SQLExecutor
	fallback domain.Site
}

// NewSiteRepository creates a SiteRepositoryPG. fallback is returned until a
// row has been saved.
func NewSiteRepository(sql infra.SQLExecutor, fallback domain.Site) *SiteRepositoryPG {
	return &SiteRepositoryPG{sql: sql, fallback: fallback}
}

func (r *SiteRepositoryPG) GetSite(ctx context.Context) (domain.Site, error) {
	var s domain.Site
	if err := r.sql.QueryRow(ctx, sqlinline.QSelectSite).Scan(&s.Title, &s.Headline, &s.UpdatedAt); err != nil {
		if infra.IsNoRows(err) {
			return r.fallback, nil
		}
		return domain.Site{}, err
	}
	return s, nil
}

func (r *SiteRepositoryPG) SaveSite(ctx context.Context, site domain.Site) (domain.Site, error) {
	var s domain.Site
	if err := r.sql.QueryRow(ctx, sqlinline.QUpsertSite, site.Title, site.Headline).Scan(&s.Title, &s.Headline, &s.UpdatedAt); err != nil {
		return domain.Site{}, err
	}
	return s, nil
}

var _ domain.SiteRepository = (*SiteRepositoryPG)(nil)
