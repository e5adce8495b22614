package api

import "io"

type (
	Item struct {
		ID        int    `json:"id"`
		Name      string `json:"name"`
		Category  string `json:"category"`
		ImageName string `json:"image_name"`
	}
	ItemListResponse struct {
		Items []Item `json:"items"`
	}
	// CreateItemInput is consumed by exactly one PostItem call.
	CreateItemInput struct {
		Name      string
		Category  string
		Image     io.Reader
		ImageName string
	}
	// Response is the message body the backend answers writes with.
	Response struct {
		Message string `json:"message"`
	}
)
