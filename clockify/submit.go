package clockify

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"strconv"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// EntryState tracks one entry through AddEntry.
type EntryState int

const (
	StateNew EntryState = iota
	StateIDsResolved
	StateDuplicate
	StateSubmitted
	StateCreated
	StateSubmitFailed
	StateIdentitySwitchFailed
	StateResolveFailed
	StateQueryFailed
)

func (s EntryState) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateIDsResolved:
		return "ids_resolved"
	case StateDuplicate:
		return "duplicate"
	case StateSubmitted:
		return "submitted"
	case StateCreated:
		return "created"
	case StateSubmitFailed:
		return "submit_failed"
	case StateIdentitySwitchFailed:
		return "identity_switch_failed"
	case StateResolveFailed:
		return "resolve_failed"
	case StateQueryFailed:
		return "query_failed"
	default:
		return "unknown"
	}
}

func (s EntryState) Outcome() Outcome {
	switch s {
	case StateCreated:
		return OutcomeCreated
	case StateDuplicate:
		return OutcomeAlreadyExists
	default:
		return OutcomeFailed
	}
}

type EntryResult struct {
	Entry   *TimeEntry
	State   EntryState
	Created *RemoteEntry
	Err     error
}

func (r EntryResult) Outcome() Outcome {
	return r.State.Outcome()
}

// GetTimeEntries returns the first page of entries matching q, requested
// with the api key of the queried user.
func (c *HTTPClient) GetTimeEntries(ctx context.Context, q *EntryQuery) ([]RemoteEntry, error) {
	fetchPage, err := c.entryPager(ctx, q)
	if err != nil {
		return nil, err
	}
	out, err := fetchPage(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("get time entries: %w", err)
	}
	return out, nil
}

// FindTimeEntries pages through every entry matching q.
func (c *HTTPClient) FindTimeEntries(ctx context.Context, q *EntryQuery) ([]RemoteEntry, error) {
	fetchPage, err := c.entryPager(ctx, q)
	if err != nil {
		return nil, err
	}
	out, err := fetchAllPages(ctx, fetchPage, func(entry RemoteEntry) string { return entry.ID })
	if err != nil {
		return nil, fmt.Errorf("get time entries: %w", err)
	}
	return out, nil
}

func (c *HTTPClient) entryPager(ctx context.Context, q *EntryQuery) (func(context.Context, int) ([]RemoteEntry, error), error) {
	as, err := c.IdentityByEmail(q.Email)
	if err != nil {
		return nil, err
	}
	params, err := q.Params(ctx, c)
	if err != nil {
		return nil, err
	}

	endpointPath := fmt.Sprintf("/workspaces/%s/user/%s/time-entries", q.WorkspaceID, q.UserID)
	return func(ctx context.Context, page int) ([]RemoteEntry, error) {
		query := maps.Clone(params)
		query.Set("page", strconv.Itoa(page))
		query.Set("page-size", strconv.Itoa(pageSize))
		var out []RemoteEntry
		if err := c.doJSON(ctx, http.MethodGet, endpointPath, as, query, nil, &out); err != nil {
			return nil, err
		}
		return out, nil
	}, nil
}

// AddEntry resolves, deduplicates and creates one entry as its owner.
func (c *HTTPClient) AddEntry(ctx context.Context, entry *TimeEntry) EntryResult {
	result := EntryResult{Entry: entry, State: StateNew}

	as, err := c.IdentityByEmail(entry.Email)
	if err != nil {
		result.State = StateIdentitySwitchFailed
		result.Err = err
		return result
	}
	if err := entry.ProcessIDs(ctx, c, as); err != nil {
		result.State = StateResolveFailed
		result.Err = err
		return result
	}
	result.State = StateIDsResolved

	candidates, err := c.FindTimeEntries(ctx, NewEntryQuery(entry))
	if err != nil {
		result.State = StateQueryFailed
		result.Err = err
		return result
	}
	var tagName func(string) string
	if entry.TagNames != nil {
		tagName, err = c.tagNameLookup(ctx, entry.WorkspaceID)
		if err != nil {
			result.State = StateQueryFailed
			result.Err = err
			return result
		}
	}
	if IsDuplicate(entry, candidates, tagName) {
		result.State = StateDuplicate
		return result
	}

	result.State = StateSubmitted
	var created RemoteEntry
	endpointPath := fmt.Sprintf("/workspaces/%s/time-entries", entry.WorkspaceID)
	if err := c.doJSON(ctx, http.MethodPost, endpointPath, as, nil, entry.ToRequest(), &created); err != nil {
		result.State = StateSubmitFailed
		result.Err = err
		return result
	}
	result.State = StateCreated
	result.Created = &created
	return result
}

// AddEntries submits entries on a bounded worker pool and returns one
// result per entry in input order.
func (c *HTTPClient) AddEntries(ctx context.Context, entries []*TimeEntry) []EntryResult {
	results := make([]EntryResult, len(entries))
	total := len(entries)
	var done atomic.Int64

	var g errgroup.Group
	g.SetLimit(c.poolSize)
	for i, entry := range entries {
		g.Go(func() error {
			results[i] = c.AddEntry(ctx, entry)
			n := done.Add(1)

			attrs := []any{
				slog.String("outcome", results[i].Outcome().String()),
				slog.String("progress", fmt.Sprintf("%d/%d", n, total)),
				slog.String("description", entry.Description),
			}
			if results[i].Err != nil {
				attrs = append(attrs, slog.String("state", results[i].State.String()), slog.Any("error", results[i].Err))
				c.log.Warn("entry not added", attrs...)
				return nil
			}
			c.log.Info("entry processed", attrs...)
			return nil
		})
	}
	_ = g.Wait()
	return results
}
