package company

import "context"

// Store defines persistence operations for companies and the alias index.
type Store interface {
	// Companies
	GetCompany(ctx context.Context, id string) (*Company, error)
	GetByNormalizedName(ctx context.Context, key string) (*Company, error)
	FindByDomainCandidates(ctx context.Context, candidates []string) (*Company, error)
	UpsertByNormalizedName(ctx context.Context, c *Company) (bool, error)
	UpdateClassification(ctx context.Context, id string, entityType EntityType, include bool, source string, confidence *float64) error
	ListCompanies(ctx context.Context) ([]Company, error)

	// Alias index
	AddAlias(ctx context.Context, companyID, value string, typ AliasType) error
	FindNameAlias(ctx context.Context, rawName string) (string, error)

	// Classification signals
	Signals(ctx context.Context, companyID string) (Signals, error)
}
