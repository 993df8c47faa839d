package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/oefquery/internal/compiler"
	"github.com/roach88/oefquery/internal/directory"
	"github.com/roach88/oefquery/internal/store"
)

// Spec entry kinds accepted by encode and decode.
const (
	KindModel       = "model"
	KindDescription = "description"
	KindQuery       = "query"
	KindConstraint  = "constraint"
	KindExpression  = "expression"
)

// loadSpecs compiles the specs in dir, failing fast. Failures are reported
// through formatter and returned as an ExitError.
func loadSpecs(formatter *OutputFormatter, dir string) (*compiler.Specs, error) {
	specs, errs := compiler.LoadDir(dir, compiler.LoadModeFailFast)
	if len(errs) == 0 {
		formatter.VerboseLog("Compiled %d model(s), %d description(s), %d query(ies) from %s",
			len(specs.Models), len(specs.Descriptions), len(specs.Queries), dir)
		return specs, nil
	}

	var loadErr *compiler.LoadError
	if errors.As(errs[0], &loadErr) {
		return nil, formatter.Fail(ExitCommandError, loadErr.Code, loadErr.Message, nil)
	}
	return nil, formatter.Fail(ExitCommandError, ErrCodeCompileFailed, errs[0].Error(), nil)
}

// unknownName reports a spec name that is not in the compiled specs.
func unknownName(formatter *OutputFormatter, kind, name, dir string) error {
	return formatter.Fail(ExitCommandError, ErrCodeUnknownName,
		fmt.Sprintf("no %s named %q in %s", kind, name, dir), nil)
}

// parseKind validates a --kind flag.
func parseKind(formatter *OutputFormatter, kind string) (store.Kind, error) {
	k := store.Kind(kind)
	if !k.Valid() {
		return "", formatter.Fail(ExitCommandError, ErrCodeInvalidArgs,
			fmt.Sprintf("invalid kind %q: must be %s or %s", kind, store.KindAgent, store.KindService), nil)
	}
	return k, nil
}

// openDirectory opens the configured database and a directory over it.
// The caller closes the returned store.
func openDirectory(ctx context.Context, opts *RootOptions, formatter *OutputFormatter, logger *slog.Logger) (*directory.Directory, *store.Store, error) {
	formatter.VerboseLog("Opening directory database %s", opts.DB)

	st, err := store.Open(opts.DB)
	if err != nil {
		return nil, nil, formatter.Fail(ExitCommandError, ErrCodeDirectory,
			fmt.Sprintf("failed to open database: %v", err), nil)
	}

	dir, err := directory.New(ctx, st,
		directory.WithLogger(logger),
		directory.WithCacheTTL(opts.CacheTTL),
	)
	if err != nil {
		st.Close()
		return nil, nil, formatter.Fail(ExitCommandError, ErrCodeDirectory, err.Error(), nil)
	}
	return dir, st, nil
}
