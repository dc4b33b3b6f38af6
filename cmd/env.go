package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/dealflow/internal/company"
	"github.com/sells-group/dealflow/internal/contact"
	"github.com/sells-group/dealflow/internal/ingest"
	"github.com/sells-group/dealflow/internal/link"
	"github.com/sells-group/dealflow/internal/store"
)

// env wires the engine's components over one open store handle.
type env struct {
	db        *store.DB
	companies *company.SQLiteStore
	resolver  *company.Resolver
	merger    *company.Merger
	contacts  *contact.SQLiteStore
	syncer    *contact.Syncer
	links     *link.Maintainer
	ingestor  *ingest.Ingestor
}

// openEnv opens the store at the configured path and builds the component
// graph. The caller owns the handle and must Close it.
func openEnv(ctx context.Context) (*env, error) {
	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "env: migrate")
	}

	companies := company.NewSQLiteStore(db)
	resolver := company.NewResolver(companies)
	contacts := contact.NewSQLiteStore(db)
	syncer := contact.NewSyncer(db, contacts, resolver)
	links := link.NewMaintainer(db)

	return &env{
		db:        db,
		companies: companies,
		resolver:  resolver,
		merger:    company.NewMerger(db),
		contacts:  contacts,
		syncer:    syncer,
		links:     links,
		ingestor:  ingest.New(db, resolver, syncer, contacts, links),
	}, nil
}

func (e *env) classifier() (*company.Classifier, error) {
	if cfg.Classify.LexiconPath != "" {
		return company.NewClassifierFromFile(e.companies, cfg.Classify.MinMeetings, cfg.Classify.LexiconPath)
	}
	return company.NewClassifier(e.companies, cfg.Classify.MinMeetings)
}

func (e *env) Close() {
	_ = e.db.Close()
}
