package clockify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
)

const pageSize = 50

// fetchAllPages requests pages until one comes back short, or until a full
// page starts with an id that was already collected (the API repeating its
// last page).
func fetchAllPages[T any](ctx context.Context, fetchPage func(ctx context.Context, page int) ([]T, error), id func(T) string) ([]T, error) {
	var all []T
	seen := make(map[string]struct{})
	for page := 1; ; page++ {
		items, err := fetchPage(ctx, page)
		if err != nil {
			return nil, err
		}
		if len(items) < pageSize {
			return append(all, items...), nil
		}
		if _, repeated := seen[id(items[0])]; repeated {
			return all, nil
		}
		for _, item := range items {
			seen[id(item)] = struct{}{}
		}
		all = append(all, items...)
	}
}

func fetchList[T any](ctx context.Context, c *HTTPClient, kind, endpointPath string, id func(T) string) ([]T, error) {
	items, err := fetchAllPages(ctx, func(ctx context.Context, page int) ([]T, error) {
		query := url.Values{}
		query.Set("page", strconv.Itoa(page))
		query.Set("page-size", strconv.Itoa(pageSize))
		var out []T
		if err := c.doJSON(ctx, http.MethodGet, endpointPath, c.admin(), query, nil, &out); err != nil {
			return nil, err
		}
		return out, nil
	}, id)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}

	c.log.Debug("clockify list refreshed", slog.String("kind", kind), slog.Int("count", len(items)))
	if err := c.dump.Write("clockify_"+kind, items); err != nil {
		c.log.Warn("dump list failed", slog.String("kind", kind), slog.Any("error", err))
	}
	return items, nil
}
