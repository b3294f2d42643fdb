package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/varsearch/internal/dashboard"
	logpkg "github.com/kailas-cloud/varsearch/internal/logger"
)

// formFlags holds the filter form as given on the command line.
type formFlags struct {
	query   string
	filters []string
	limit   int
}

func (f *formFlags) register(cmd *cobra.Command, withLimit bool) {
	cmd.Flags().StringVarP(&f.query, "query", "q", "", "free-text query")
	cmd.Flags().StringArrayVarP(&f.filters, "filter", "f", nil, "field filter as name=value (repeatable)")
	if withLimit {
		cmd.Flags().IntVarP(&f.limit, "limit", "n", 0, "page size (0 uses the configured default)")
	}
}

// apply copies the flags into the session form.
func (f *formFlags) apply(s *dashboard.Session) error {
	values, err := parseFilters(f.filters)
	if err != nil {
		return err
	}
	s.SetQuery(f.query)
	for _, name := range values.names {
		s.SetValue(name, values.raw[name])
	}
	if f.limit > 0 {
		s.SetLimit(f.limit)
	}
	return nil
}

type parsedFilters struct {
	names []string
	raw   map[string]string
}

// parseFilters splits name=value pairs. A later pair for the same name wins.
func parseFilters(pairs []string) (parsedFilters, error) {
	out := parsedFilters{raw: make(map[string]string, len(pairs))}
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return parsedFilters{}, fmt.Errorf("invalid --filter %q: want name=value", p)
		}
		if _, seen := out.raw[name]; !seen {
			out.names = append(out.names, name)
		}
		out.raw[name] = value
	}
	return out, nil
}

// loadSchema fetches the field catalog. Failure is reported on w and the
// command continues with an empty schema.
func loadSchema(ctx context.Context, s *dashboard.Session, w io.Writer) {
	if _, err := s.LoadSchema(ctx); err != nil {
		logpkg.FromContext(ctx).Debug("continuing without schema", zap.Error(err))
		fmt.Fprintf(w, "Warning: %v\n", err)
	}
}

// waitSearch blocks until the search settles and returns its outcome.
func waitSearch(ctx context.Context, s *dashboard.Session, done <-chan struct{}) error {
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return s.Snapshot().Search.Err
}
