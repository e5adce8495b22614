package view

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/gommon/log"

	"simple-mercari-web/internal/api"
)

var (
	ErrNameRequired     = errors.New("name is required")
	ErrCategoryRequired = errors.New("category is required")
	ErrImageRequired    = errors.New("image is required")
)

type ItemPoster interface {
	PostItem(ctx context.Context, input api.CreateItemInput) (*http.Response, error)
}

type SubmitResult struct {
	Name    string
	Message string
	Err     error
}

// Listing is the submission form. Completed submissions are reported
// through onListingCompleted; typed search text through setSearchQuery.
type Listing struct {
	poster             ItemPoster
	onListingCompleted func()
	setSearchQuery     func(string)

	message string
	err     error
}

func NewListing(poster ItemPoster, onListingCompleted func(), setSearchQuery func(string)) *Listing {
	return &Listing{
		poster:             poster,
		onListingCompleted: onListingCompleted,
		setSearchQuery:     setSearchQuery,
	}
}

func Validate(input api.CreateItemInput) error {
	switch {
	case input.Name == "":
		return ErrNameRequired
	case input.Category == "":
		return ErrCategoryRequired
	case input.Image == nil:
		return ErrImageRequired
	}
	return nil
}

// SetSearchQuery hands q to the parent as typed.
func (l *Listing) SetSearchQuery(q string) {
	if l.setSearchQuery != nil {
		l.setSearchQuery(q)
	}
}

// Post sends input to the backend without touching the form's state. The
// image is closed afterwards when it is an io.Closer.
func (l *Listing) Post(ctx context.Context, input api.CreateItemInput) SubmitResult {
	if c, ok := input.Image.(io.Closer); ok {
		defer c.Close()
	}
	if err := Validate(input); err != nil {
		return SubmitResult{Name: input.Name, Err: err}
	}

	resp, err := l.poster.PostItem(ctx, input)
	if err != nil {
		return SubmitResult{Name: input.Name, Err: err}
	}
	defer resp.Body.Close()

	if err := api.CheckResponse(resp); err != nil {
		return SubmitResult{Name: input.Name, Err: err}
	}

	var body api.Response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		log.Debugf("POST response is not a message: %v", err)
	}
	return SubmitResult{Name: input.Name, Message: body.Message}
}

// Resolve records res. Only a successful submission fires the completion
// callback; a failure is kept for display and returned.
func (l *Listing) Resolve(res SubmitResult) error {
	if res.Err != nil {
		log.Errorf("POST error: %v", res.Err)
		l.err = res.Err
		l.message = ""
		return res.Err
	}

	log.Infof("POST success: %s", res.Name)
	l.err = nil
	l.message = res.Message
	if l.onListingCompleted != nil {
		l.onListingCompleted()
	}
	return nil
}

func (l *Listing) Submit(ctx context.Context, input api.CreateItemInput) error {
	return l.Resolve(l.Post(ctx, input))
}

func (l *Listing) Message() string { return l.message }
func (l *Listing) Err() error      { return l.err }
