package cli

import (
	"context"

	"go.uber.org/zap"

	"github.com/roach88/nodeql/internal/catalog"
	"github.com/roach88/nodeql/internal/domain"
	"github.com/roach88/nodeql/internal/engine"
	"github.com/roach88/nodeql/internal/index"
	"github.com/roach88/nodeql/internal/logger"
	"github.com/roach88/nodeql/internal/store"
)

// session holds the catalog, backends and engine one command runs with.
type session struct {
	catalog *catalog.Catalog
	store   *store.Store
	index   *index.Index
	engine  *engine.Engine
	logger  logger.Logger
}

// openSession loads the catalog and opens the configured store and index.
// Without an index path the index lives in memory and is rebuilt from the
// store before the session is returned.
func openSession(ctx context.Context, s Settings) (*session, error) {
	if s.Catalog == "" {
		return nil, NewExitError(ExitCommandError, "no catalog configured: set --catalog or NODEQL_CATALOG")
	}

	log, err := logger.NewLogger(s.LogFormat, s.LogLevel)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid log settings", err)
	}

	loaded, errs := catalog.Load(s.Catalog, catalog.LoadModeFailFast)
	if len(errs) > 0 {
		return nil, WrapExitError(ExitCommandError, "failed to load catalog", errs[0])
	}

	sess := &session{catalog: loaded.Catalog, logger: log}
	if s.PostgresDSN != "" {
		sess.store, err = store.OpenPostgres(ctx, s.PostgresDSN, store.WithLogger(log))
	} else {
		sess.store, err = store.Open(s.SQLitePath, store.WithLogger(log))
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open store", err)
	}

	indexOpts := []index.Option{index.WithLogger(log), index.WithPageSize(s.PageSize)}
	inMemory := s.IndexPath == ""
	if inMemory {
		sess.index, err = index.NewMemOnly(indexOpts...)
	} else {
		sess.index, err = index.Open(s.IndexPath, indexOpts...)
	}
	if err != nil {
		sess.Close()
		return nil, WrapExitError(ExitCommandError, "failed to open index", err)
	}

	sess.engine, err = engine.New(loaded.Catalog, sess.store,
		engine.WithIndex(sess.index),
		engine.WithLogger(log),
		engine.WithConcurrency(s.Concurrency),
	)
	if err != nil {
		sess.Close()
		return nil, WrapExitError(ExitCommandError, "failed to create engine", err)
	}

	if inMemory {
		n, err := sess.engine.Rebuild(ctx)
		if err != nil {
			sess.Close()
			return nil, WrapExitError(ExitFailure, "failed to build index", err)
		}
		log.DebugWithContext(ctx, "built in-memory index", zap.Int("nodes", n))
	}
	return sess, nil
}

// viewingType looks up a "<graph>.<Type>" name.
func (s *session) viewingType(name string) (domain.TypeID, error) {
	t, ok := s.catalog.TypeByName(name)
	if !ok {
		return domain.TypeID{}, &engine.QueryError{
			Code:    engine.ErrCodeUnknownType,
			Message: "no type named " + name,
		}
	}
	return t.ID, nil
}

func (s *session) Close() {
	if s.index != nil {
		s.index.Close()
	}
	if s.store != nil {
		s.store.Close()
	}
}
