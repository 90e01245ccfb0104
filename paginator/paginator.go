// Package paginator drives paginated API actions: it invokes an action
// repeatedly, advancing through a caller-supplied next-page computation, and
// aggregates the items of every page under a stable total count.
package paginator

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/teco-project/teco-go/tcerr"
)

// Pager describes one paginated action over a request type Req, a response
// type Resp and the item type the pages carry.
type Pager[Req, Resp, Item any] struct {
	// Request is the request of the first page.
	Request Req

	// Execute performs one page call, typically a closure over
	// Client.Execute and the service config.
	Execute func(ctx context.Context, req Req, logger logrus.FieldLogger) (Resp, error)

	// Items extracts the items of one response.
	Items func(Resp) []Item

	// TotalCount extracts the advertised size of the whole result set; ok
	// is false when the response carries none.
	TotalCount func(Resp) (total int64, ok bool)

	// Next derives the request of the page after (req, resp), returning
	// false when resp ends the sequence.
	Next func(req Req, resp Resp) (Req, bool)

	// Logger receives the per-page logs, logrus.StandardLogger when nil.
	Logger logrus.FieldLogger
}

// All fetches every page serially, starting from p.Request, and returns the
// recorded total count with the accumulated items. Page n+1 is not issued
// before page n is fully decoded and validated.
//
// Pages advertising a total count must agree on it: a change mid-pagination
// means the result set moved underneath the caller, and All fails with
// tcerr.ErrTotalCountChanged rather than return a torn aggregate.
func All[Req, Resp, Item any](ctx context.Context, p Pager[Req, Resp, Item]) (int64, []Item, error) {
	logger := p.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	var (
		items []Item
		total *int64
	)
	req := p.Request
	for seq := 0; ; seq++ {
		if err := ctx.Err(); err != nil {
			return 0, nil, err
		}

		resp, err := p.Execute(ctx, req, logger.WithField("tc-pagination-seq", seq))
		if err != nil {
			return 0, nil, fmt.Errorf("fetching page %d: %w", seq, err)
		}

		page := p.Items(resp)
		if len(page) == 0 {
			return recordedTotal(total), items, nil
		}

		if t, ok := p.TotalCount(resp); ok {
			if total != nil && *total != t {
				return 0, nil, fmt.Errorf("page %d advertises %d items in total after %d: %w",
					seq, t, *total, tcerr.ErrTotalCountChanged)
			}
			total = &t
		}

		items = append(items, page...)

		next, ok := p.Next(req, resp)
		if !ok {
			return recordedTotal(total), items, nil
		}
		req = next
	}
}

func recordedTotal(total *int64) int64 {
	if total == nil {
		return 0
	}
	return *total
}
