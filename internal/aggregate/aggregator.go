// Package aggregate merges the tab listings of several mediators into one
// addressable listing.
//
// Each live mediator gets a letter by its rank in the port list ('a' for
// the lowest live port, 'b' for the next, …) and every line it returns is
// prefixed with that letter:
//
//	a.1.1	GMail	https://mail.google.com
//	a.1.2	news	https://news.ycombinator.com
//	b.3.7	Go	https://go.dev
//
// Fetches run concurrently but the output is assembled only after every
// fetch has finished, in port order. The same inputs therefore always
// produce byte-identical output.
package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shinji-kodama/brotab/internal/model"
)

// TabLister fetches the raw tab listing of the mediator on one port.
// *mediator.Client satisfies it.
type TabLister interface {
	ListTabs(ctx context.Context, port model.Port) (string, error)
}

// Aggregator fans out one ListTabs call per port and joins the results.
type Aggregator struct {
	lister TabLister
	logger *slog.Logger
}

// New creates an Aggregator. A nil logger falls back to slog.Default().
func New(lister TabLister, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{lister: lister, logger: logger}
}

// FetchFunc retrieves one mediator's raw response body.
type FetchFunc func(ctx context.Context, port model.Port) (string, error)

// fetchResult is the outcome of one fetch, stored at the port's index.
type fetchResult struct {
	body string
	err  error
}

// Collect fetches every port's listing concurrently and returns one
// ClientListing per port, in input order.
//
// The call is all-or-nothing: if any fetch fails, no listing is returned.
// The reported failure is the one with the lowest index, so the diagnostic
// does not depend on which fetch happened to fail first. Fetches are not
// cancelled when a sibling fails; Collect returns only after all of them
// have finished.
func (a *Aggregator) Collect(ctx context.Context, ports []model.Port) ([]model.ClientListing, error) {
	return a.CollectWith(ctx, ports, a.lister.ListTabs, SplitLines)
}

// CollectWith is Collect with a caller-chosen request and body splitter,
// e.g. the mediator's active-tab endpoint and SplitIDs. Ordering, letter
// assignment and failure semantics are the same as Collect's.
func (a *Aggregator) CollectWith(ctx context.Context, ports []model.Port, fetch FetchFunc, split func(string) []string) ([]model.ClientListing, error) {
	// Letters are assigned up front so that a 27th mediator is rejected
	// before any request goes out.
	clients, err := model.ClientsForPorts(ports)
	if err != nil {
		return nil, err
	}

	results := make([]fetchResult, len(clients))
	start := time.Now()

	// A plain errgroup.Group, not WithContext: one failing mediator must
	// not cancel the requests still in flight to the others.
	var g errgroup.Group
	for i, c := range clients {
		g.Go(func() error {
			body, err := fetch(ctx, c.Port)
			// Each goroutine owns results[i]; the slot index, not the
			// completion order, decides where the body ends up.
			results[i] = fetchResult{body: body, err: err}
			return err
		})
	}

	// Wait is the join point: nothing is assembled until every fetch has
	// returned, successful or not.
	if waitErr := g.Wait(); waitErr != nil {
		// Wait reports whichever error came first in time. Scan the slots
		// instead so the lowest-ranked failing client is reported.
		for i, r := range results {
			if r.err != nil {
				return nil, &model.FetchError{Client: clients[i].ID, Port: clients[i].Port, Err: r.err}
			}
		}
		return nil, waitErr
	}

	listings := make([]model.ClientListing, len(clients))
	for i, c := range clients {
		listings[i] = model.ClientListing{Client: c, Tabs: split(results[i].body)}
		a.logger.Debug("collected tabs",
			slog.String("client", c.ID.String()),
			slog.Int("port", int(c.Port)),
			slog.Int("tabs", len(listings[i].Tabs)),
		)
	}
	a.logger.Debug("aggregation complete",
		slog.Int("clients", len(listings)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return listings, nil
}

// Aggregate is Collect followed by Format.
func (a *Aggregator) Aggregate(ctx context.Context, ports []model.Port) (string, error) {
	listings, err := a.Collect(ctx, ports)
	if err != nil {
		return "", err
	}
	return Format(listings), nil
}

// Format flattens listings into "<letter>.<record>" lines joined by "\n",
// grouped by client in slice order. A client without records contributes
// no lines at all. There is no trailing newline.
func Format(listings []model.ClientListing) string {
	return strings.Join(Lines(listings), "\n")
}

// Lines is Format without the final join.
func Lines(listings []model.ClientListing) []string {
	var lines []string
	for _, l := range listings {
		lines = append(lines, l.Lines()...)
	}
	return lines
}

// SplitLines splits a mediator body into records. "\n" separates records
// and a "\r" before it is dropped. A single trailing newline does not
// start an extra empty record, so an empty body has no records. Empty
// lines in the middle of a body are kept, because they are part of the
// mediator's response.
func SplitLines(body string) []string {
	if body == "" {
		return nil
	}
	body = strings.TrimSuffix(body, "\n")
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// SplitIDs splits a comma-separated id list such as "1.4,3.9" as returned
// by the active-tab endpoint. Blank entries are dropped, so an empty body
// has no ids.
func SplitIDs(body string) []string {
	var ids []string
	for _, id := range strings.Split(body, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// WindowCount is the number of tabs in one browser window.
type WindowCount struct {
	// Window is "<letter>.<window>", e.g. "a.1".
	Window string
	Tabs   int
}

// Windows counts tabs per "<letter>.<window>" key. Windows appear in the
// order their first tab appears in listings, so the result is grouped by
// client in port order. A record without a window part is skipped.
func Windows(listings []model.ClientListing) []WindowCount {
	var counts []WindowCount
	index := make(map[string]int)
	for _, l := range listings {
		for _, tab := range l.Tabs {
			id, _, _ := strings.Cut(tab, "\t")
			window, _, ok := strings.Cut(id, ".")
			if !ok || window == "" {
				continue
			}
			key := l.ID.Prefix() + window
			i, seen := index[key]
			if !seen {
				i = len(counts)
				index[key] = i
				counts = append(counts, WindowCount{Window: key})
			}
			counts[i].Tabs++
		}
	}
	return counts
}

// Describe summarizes a listing for log output, e.g. "a:3 b:0 c:12".
func Describe(listings []model.ClientListing) string {
	parts := make([]string, len(listings))
	for i, l := range listings {
		parts[i] = fmt.Sprintf("%s:%d", l.ID, len(l.Tabs))
	}
	return strings.Join(parts, " ")
}
