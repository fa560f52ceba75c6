package federation

import (
	"context"
	"log/slog"

	"fedsearch/internal/repository"
)

// Hydrator turns ids into objects with one fetch per id.
type Hydrator struct {
	Logger *slog.Logger
}

// Hydrate fetches the objects for ids in order. A missing object is logged
// and skipped. A fetch error aborts the remaining fetches and is returned as
// a *TransportError.
func (h Hydrator) Hydrate(ctx context.Context, domain repository.Domain, conn repository.Connection, user repository.User, class repository.ClassDescriptor, ids []int) ([]repository.Object, error) {
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}

	objects := make([]repository.Object, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, &TransportError{Domain: domain, Stage: StageHydrate, Err: err}
		}
		obj, err := conn.FetchByID(ctx, user, id, class)
		if err != nil {
			return nil, &TransportError{Domain: domain, Stage: StageHydrate, Err: err}
		}
		if obj == nil {
			logger.Warn("no object found for id", "id", id, "class", class.Table)
			continue
		}
		if obj.Domain == "" {
			obj.Domain = domain
		}
		objects = append(objects, *obj)
	}
	return objects, nil
}
