package view

import (
	"context"

	"simple-mercari-web/internal/api"
)

type Client interface {
	ItemFetcher
	ItemPoster
	ImageURL(imageName string) string
}

type ItemCard struct {
	api.Item
	ImageURL string
	Match    bool
}

// Page is what a renderer needs to draw the shell. Items holds the cards
// matching Query; All holds every card in list order, for renderers that
// filter on their own.
type Page struct {
	Query          string
	Items          []ItemCard
	All            []ItemCard
	Total          int
	Loading        bool
	LoadErr        error
	ListingMessage string
	ListingErr     error
}

// Shell owns the view state shared by the listing form and the item list:
// the reload requests and the search query.
type Shell struct {
	client      Client
	reload      ReloadRequest
	acked       ReloadRequest
	searchQuery string

	Listing  *Listing
	ItemList *ItemList
}

// NewShell starts with one pending reload so the first Sync fetches.
func NewShell(client Client) *Shell {
	s := &Shell{client: client, reload: 1}
	s.Listing = NewListing(client, func() { s.RequestReload() }, s.SetSearchQuery)
	s.ItemList = NewItemList(client, s.acknowledge)
	return s
}

func (s *Shell) RequestReload() ReloadRequest {
	s.reload++
	return s.reload
}

// PendingReload returns the newest reload request and whether the item list
// has yet to complete it.
func (s *Shell) PendingReload() (ReloadRequest, bool) {
	return s.reload, s.reload > s.acked
}

func (s *Shell) acknowledge(req ReloadRequest) {
	if req > s.acked {
		s.acked = req
	}
}

// BeginSync starts the pending reload on the item list, if any is due.
func (s *Shell) BeginSync() (ReloadRequest, bool) {
	req, pending := s.PendingReload()
	if !pending || !s.ItemList.Begin(req) {
		return 0, false
	}
	return req, true
}

// Sync loads the pending reload, if any is due.
func (s *Shell) Sync(ctx context.Context) error {
	req, ok := s.BeginSync()
	if !ok {
		return nil
	}
	return s.ItemList.Apply(s.ItemList.Fetch(ctx, req))
}

func (s *Shell) SearchQuery() string { return s.searchQuery }

func (s *Shell) SetSearchQuery(q string) { s.searchQuery = q }

func (s *Shell) Page() Page {
	card := func(item api.Item) ItemCard {
		return ItemCard{
			Item:     item,
			ImageURL: s.client.ImageURL(item.ImageName),
			Match:    Matches(item, s.searchQuery),
		}
	}
	visible := s.ItemList.Visible(s.searchQuery)
	cards := make([]ItemCard, 0, len(visible))
	for _, item := range visible {
		cards = append(cards, card(item))
	}
	all := make([]ItemCard, 0, len(s.ItemList.items))
	for _, item := range s.ItemList.items {
		all = append(all, card(item))
	}
	return Page{
		Query:          s.searchQuery,
		Items:          cards,
		All:            all,
		Total:          len(all),
		Loading:        s.ItemList.State() == Fetching,
		LoadErr:        s.ItemList.Err(),
		ListingMessage: s.Listing.Message(),
		ListingErr:     s.Listing.Err(),
	}
}
