package view

import (
	"context"

	"github.com/labstack/gommon/log"

	"simple-mercari-web/internal/api"
)

// ReloadRequest identifies one request to refresh the item list. Requests
// are numbered in increasing order, so a repeated request can be told apart
// from a new one.
type ReloadRequest uint64

type State int

const (
	Idle State = iota
	Fetching
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Fetching:
		return "fetching"
	}
	return "unknown"
}

type ItemFetcher interface {
	FetchItems(ctx context.Context) (*api.ItemListResponse, error)
}

// LoadResult is the outcome of one Fetch, to be handed to Apply.
type LoadResult struct {
	Request ReloadRequest
	Items   []api.Item
	Err     error
}

// ItemList holds the items of the last successful load. It is not safe for
// concurrent use; only Fetch may run on another goroutine.
type ItemList struct {
	fetcher         ItemFetcher
	onLoadCompleted func(ReloadRequest)

	items     []api.Item
	begun     ReloadRequest
	completed ReloadRequest
	inflight  int
	err       error
}

func NewItemList(fetcher ItemFetcher, onLoadCompleted func(ReloadRequest)) *ItemList {
	return &ItemList{fetcher: fetcher, onLoadCompleted: onLoadCompleted}
}

// Begin reports whether req needs a fetch. Only a request newer than every
// request already begun does; the list is Fetching until its result is
// applied.
func (l *ItemList) Begin(req ReloadRequest) bool {
	if req <= l.begun {
		return false
	}
	l.begun = req
	l.inflight++
	return true
}

// Fetch calls the backend. It does not touch the list's state.
func (l *ItemList) Fetch(ctx context.Context, req ReloadRequest) LoadResult {
	res, err := l.fetcher.FetchItems(ctx)
	if err != nil {
		return LoadResult{Request: req, Err: err}
	}
	return LoadResult{Request: req, Items: res.Items}
}

// Apply records the result of a Fetch. A success replaces the items and
// fires the completion callback once; a failure keeps the previous items
// and is returned. A result older than the newest one applied, successful
// or not, is discarded.
func (l *ItemList) Apply(res LoadResult) error {
	if l.inflight > 0 {
		l.inflight--
	}
	if res.Request < l.completed {
		log.Debugf("Discard stale load %d, already have %d", res.Request, l.completed)
		return nil
	}
	l.completed = res.Request
	if res.Err != nil {
		log.Errorf("GET error: %v", res.Err)
		l.err = res.Err
		return res.Err
	}

	log.Debugf("GET success: %d items", len(res.Items))
	l.items = append(make([]api.Item, 0, len(res.Items)), res.Items...)
	l.err = nil
	if l.onLoadCompleted != nil {
		l.onLoadCompleted(res.Request)
	}
	return nil
}

// Load runs Begin, Fetch and Apply in turn.
func (l *ItemList) Load(ctx context.Context, req ReloadRequest) error {
	if !l.Begin(req) {
		return nil
	}
	return l.Apply(l.Fetch(ctx, req))
}

// Visible returns the items matching query, recomputed on every call.
func (l *ItemList) Visible(query string) []api.Item {
	return FilterItems(l.items, query)
}

func (l *ItemList) Items() []api.Item {
	return append([]api.Item(nil), l.items...)
}

func (l *ItemList) State() State {
	if l.inflight > 0 {
		return Fetching
	}
	return Idle
}

// Err is the error of the latest failed load, cleared by a success for a
// newer request.
func (l *ItemList) Err() error {
	return l.err
}
