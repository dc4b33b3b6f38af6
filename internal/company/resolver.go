package company

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/dealflow/internal/normalize"
)

// Resolver handles company deduplication and identity resolution.
type Resolver struct {
	store Store
}

// NewResolver creates a company resolver.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Store exposes the backing store for collaborators that share it.
func (r *Resolver) Store() Store {
	return r.store
}

// ResolveID finds the company a raw name and/or domain refers to.
// Cascade:
//  1. Normalized-name exact match, then name alias (case/trim-insensitive).
//  2. Domain candidates (normalized, registrable, www-prefixed) against
//     stored primary domains and domain aliases.
//
// Returns "" when nothing matches.
func (r *Resolver) ResolveID(ctx context.Context, name, domain string) (string, error) {
	if name != "" {
		key := normalize.CompanyName(name)
		if key != "" {
			c, err := r.store.GetByNormalizedName(ctx, key)
			if err != nil {
				return "", eris.Wrap(err, "resolve: by normalized name")
			}
			if c != nil {
				zap.L().Debug("resolve: matched by normalized name",
					zap.String("name", name),
					zap.String("company_id", c.ID),
				)
				return c.ID, nil
			}
		}
		id, err := r.store.FindNameAlias(ctx, name)
		if err != nil {
			return "", eris.Wrap(err, "resolve: by name alias")
		}
		if id != "" {
			zap.L().Debug("resolve: matched by name alias",
				zap.String("name", name),
				zap.String("company_id", id),
			)
			return id, nil
		}
	}

	if domain != "" {
		candidates := normalize.DomainCandidates(domain)
		if len(candidates) > 0 {
			c, err := r.store.FindByDomainCandidates(ctx, candidates)
			if err != nil {
				return "", eris.Wrap(err, "resolve: by domain")
			}
			if c != nil {
				zap.L().Debug("resolve: matched by domain",
					zap.String("domain", domain),
					zap.String("company_id", c.ID),
				)
				return c.ID, nil
			}
		}
	}

	return "", nil
}

// CreateOptions carries optional fields for a company created on resolution
// miss.
type CreateOptions struct {
	Domain     string
	WebsiteURL string
	City       string
}

// GetOrCreateByName resolves a company by name (and optional domain), creating
// it when no match exists. New companies default to prospect, visible, with a
// manual classification at full confidence. Hits still run through the upsert
// so a later caller fills fields the record lacks (domain, website, city) and
// the alias index picks up newly learned domain candidates. The canonical name
// is written to the alias index along with every domain candidate.
func (r *Resolver) GetOrCreateByName(ctx context.Context, name string, opts CreateOptions) (*Company, bool, error) {
	key := normalize.CompanyName(name)
	if key == "" {
		return nil, false, ErrEmptyName
	}

	id, err := r.ResolveID(ctx, name, opts.Domain)
	if err != nil {
		return nil, false, err
	}

	confidence := 1.0
	c := &Company{
		CanonicalName:            name,
		NormalizedName:           key,
		PrimaryDomain:            normalize.Domain(opts.Domain),
		WebsiteURL:               opts.WebsiteURL,
		City:                     opts.City,
		EntityType:               TypeProspect,
		IncludeInPrimaryView:     true,
		ClassificationSource:     SourceManual,
		ClassificationConfidence: &confidence,
	}
	if id != "" {
		// Key the upsert on the resolved record, not the incoming spelling:
		// an alias or domain hit may carry a different normalized name.
		existing, err := r.store.GetCompany(ctx, id)
		if err != nil {
			return nil, false, err
		}
		if existing == nil {
			return nil, false, ErrNotFound
		}
		c.CanonicalName = existing.CanonicalName
		c.NormalizedName = existing.NormalizedName
	}
	created, err := r.store.UpsertByNormalizedName(ctx, c)
	if err != nil {
		return nil, false, eris.Wrap(err, "resolve: upsert company")
	}

	if err := r.seedAliases(ctx, c); err != nil {
		return nil, false, err
	}

	if created {
		zap.L().Info("resolve: created company",
			zap.String("company_id", c.ID),
			zap.String("name", name),
			zap.String("domain", c.PrimaryDomain),
		)
	}
	return c, created, nil
}

// UpsertClassification finds or creates a company by name/domain and applies
// an explicit (manual) classification.
func (r *Resolver) UpsertClassification(ctx context.Context, name, domain string, entityType EntityType, include bool, confidence *float64) (*Company, error) {
	c, _, err := r.GetOrCreateByName(ctx, name, CreateOptions{Domain: domain})
	if err != nil {
		return nil, err
	}
	if err := r.store.UpdateClassification(ctx, c.ID, entityType, include, SourceManual, confidence); err != nil {
		return nil, err
	}
	return r.store.GetCompany(ctx, c.ID)
}

// seedAliases writes the canonical name and every domain candidate so lookups
// by historical spellings keep resolving to this record.
func (r *Resolver) seedAliases(ctx context.Context, c *Company) error {
	if err := r.store.AddAlias(ctx, c.ID, c.CanonicalName, AliasName); err != nil {
		return err
	}
	for _, cand := range normalize.DomainCandidates(c.PrimaryDomain) {
		if err := r.store.AddAlias(ctx, c.ID, cand, AliasDomain); err != nil {
			return err
		}
	}
	return nil
}
