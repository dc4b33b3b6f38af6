package company

import (
	"context"
	_ "embed"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/dealflow/internal/normalize"
)

//go:embed lexicon.yaml
var defaultLexicon []byte

// Signals are the linked-entity counts the classifier scores on.
type Signals struct {
	HasMemo      bool
	HasDeal      bool
	HasNotes     bool
	StagePresent bool
	MeetingCount int
}

// Classification is the classifier's verdict for one company.
type Classification struct {
	EntityType    EntityType
	IncludeInView bool
	Confidence    float64
}

// Classifier assigns a best-effort entity type to companies. One-shot batch
// scorer: run once over historical data and again when linked-entity counts
// change meaningfully.
type Classifier struct {
	store       Store
	terms       []string
	minMeetings int
}

type lexiconFile struct {
	Terms []string `yaml:"terms"`
}

// NewClassifier creates a classifier with the embedded lexicon. minMeetings
// is the meeting-count threshold above which a company counts as engaged;
// zero selects the default of 3.
func NewClassifier(store Store, minMeetings int) (*Classifier, error) {
	return newClassifier(store, minMeetings, defaultLexicon)
}

// NewClassifierFromFile creates a classifier with a lexicon loaded from a
// yaml file, for installs that maintain their own term list.
func NewClassifierFromFile(store Store, minMeetings int, path string) (*Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "classify: read lexicon %s", path)
	}
	return newClassifier(store, minMeetings, data)
}

func newClassifier(store Store, minMeetings int, lexicon []byte) (*Classifier, error) {
	var lf lexiconFile
	if err := yaml.Unmarshal(lexicon, &lf); err != nil {
		return nil, eris.Wrap(err, "classify: parse lexicon")
	}
	if len(lf.Terms) == 0 {
		return nil, eris.New("classify: lexicon has no terms")
	}
	if minMeetings <= 0 {
		minMeetings = 3
	}
	terms := make([]string, 0, len(lf.Terms))
	for _, t := range lf.Terms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			terms = append(terms, t)
		}
	}
	return &Classifier{store: store, terms: terms, minMeetings: minMeetings}, nil
}

// Infer scores one company. Engagement signals win over the lexicon; an
// unrecognized shape falls through to unknown rather than failing.
func (cl *Classifier) Infer(name, domain string, sig Signals) Classification {
	if sig.HasMemo || sig.HasDeal || sig.HasNotes || sig.StagePresent || sig.MeetingCount >= cl.minMeetings {
		return Classification{EntityType: TypeProspect, IncludeInView: true, Confidence: 0.9}
	}

	text := strings.ToLower(name + " " + normalize.Domain(domain))
	for _, term := range cl.terms {
		if strings.Contains(text, term) {
			return Classification{EntityType: TypeVCFund, IncludeInView: false, Confidence: 0.9}
		}
	}

	return Classification{EntityType: TypeUnknown, IncludeInView: false, Confidence: 0.4}
}

// ReclassifyAll re-scores every auto-classified company. Manual
// classifications are never downgraded back to auto. Returns the number of
// companies updated.
func (cl *Classifier) ReclassifyAll(ctx context.Context) (int, error) {
	companies, err := cl.store.ListCompanies(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "classify: list companies")
	}

	updated := 0
	for i := range companies {
		c := &companies[i]
		if c.ClassificationSource == SourceManual {
			continue
		}
		sig, err := cl.store.Signals(ctx, c.ID)
		if err != nil {
			return updated, eris.Wrapf(err, "classify: signals for %s", c.ID)
		}
		verdict := cl.Infer(c.CanonicalName, c.PrimaryDomain, sig)
		sameConf := c.ClassificationConfidence != nil && *c.ClassificationConfidence == verdict.Confidence
		if verdict.EntityType == c.EntityType && verdict.IncludeInView == c.IncludeInPrimaryView && sameConf {
			continue
		}
		conf := verdict.Confidence
		if err := cl.store.UpdateClassification(ctx, c.ID, verdict.EntityType, verdict.IncludeInView, SourceAuto, &conf); err != nil {
			return updated, err
		}
		zap.L().Debug("classify: updated company",
			zap.String("company_id", c.ID),
			zap.String("entity_type", string(verdict.EntityType)),
			zap.Float64("confidence", verdict.Confidence),
		)
		updated++
	}

	zap.L().Info("classify: batch complete",
		zap.Int("scanned", len(companies)),
		zap.Int("updated", updated),
	)
	return updated, nil
}
