// Package company implements company identity: the alias index, the
// find-or-create resolver, heuristic classification, and the merge engine
// that collapses duplicates without losing linked history.
package company

import (
	"time"

	"github.com/rotisserie/eris"
)

// Company is the golden record for an organization.
type Company struct {
	ID             string `json:"id" db:"id"`
	CanonicalName  string `json:"canonical_name" db:"canonical_name"`
	NormalizedName string `json:"normalized_name" db:"normalized_name"`
	PrimaryDomain  string `json:"primary_domain,omitempty" db:"primary_domain"`
	WebsiteURL     string `json:"website_url,omitempty" db:"website_url"`

	// Classification
	EntityType               EntityType `json:"entity_type" db:"entity_type"`
	IncludeInPrimaryView     bool       `json:"include_in_primary_view" db:"include_in_primary_view"`
	ClassificationSource     string     `json:"classification_source" db:"classification_source"`
	ClassificationConfidence *float64   `json:"classification_confidence,omitempty" db:"classification_confidence"`

	// Pipeline fields
	Stage         string `json:"stage,omitempty" db:"stage"`
	Priority      string `json:"priority,omitempty" db:"priority"`
	Valuation     string `json:"valuation,omitempty" db:"valuation"`
	Round         string `json:"round,omitempty" db:"round"`
	PipelineStage string `json:"pipeline_stage,omitempty" db:"pipeline_stage"`
	City          string `json:"city,omitempty" db:"city"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// EntityType is the classifier's best guess at what kind of organization a
// company record represents.
type EntityType string

// Entity types.
const (
	TypeProspect  EntityType = "prospect"
	TypeVCFund    EntityType = "vc_fund"
	TypePortfolio EntityType = "portfolio"
	TypeCustomer  EntityType = "customer"
	TypePartner   EntityType = "partner"
	TypeVendor    EntityType = "vendor"
	TypeOther     EntityType = "other"
	TypeUnknown   EntityType = "unknown"
)

// Classification sources.
const (
	SourceManual = "manual"
	SourceAuto   = "auto"
)

// Alias is a historical or alternate name/domain that still resolves to a
// company's current id. Append-only; reassigned (not deleted) on merge.
type Alias struct {
	CompanyID string    `json:"company_id" db:"company_id"`
	Value     string    `json:"alias_value" db:"alias_value"`
	Type      AliasType `json:"alias_type" db:"alias_type"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// AliasType distinguishes name aliases from domain aliases.
type AliasType string

// Alias types.
const (
	AliasName   AliasType = "name"
	AliasDomain AliasType = "domain"
)

// Domain errors. Merge misuse is a caller bug, not a data-quality issue, so
// these surface instead of being swallowed.
var (
	ErrNotFound    = eris.New("company: not found")
	ErrSameCompany = eris.New("company: target and source are the same")
	ErrEmptyName   = eris.New("company: name is empty")
)
