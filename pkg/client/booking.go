package client

import (
	"fmt"
	"net/url"
	"tourdesk/pkg/model"
)

type BookingClient struct {
	httpClient *HttpClient
}

func NewBookingClient(httpClient *HttpClient) *BookingClient {
	return &BookingClient{
		httpClient: httpClient,
	}
}

func (c *BookingClient) Create(draft model.BookingDraft) (*Response, error) {
	return c.httpClient.POST("/bookings", draft)
}

func (c *BookingClient) Get(id string) (*Response, error) {
	return c.httpClient.GET("/bookings/" + url.PathEscape(id))
}

func (c *BookingClient) Update(id string, patch model.BookingPatch) (*Response, error) {
	return c.httpClient.PUT("/bookings/"+url.PathEscape(id), patch)
}

func (c *BookingClient) Cancel(id string) (*Response, error) {
	return c.httpClient.DELETE("/bookings/" + url.PathEscape(id))
}

func (c *BookingClient) Purge(id string) (*Response, error) {
	return c.httpClient.DELETE("/bookings/" + url.PathEscape(id) + "?purge=true")
}

func (c *BookingClient) List(filter model.BookingFilter, limit int, offset int64) (*Response, error) {
	q := url.Values{}
	if filter.ResourceID != "" {
		q.Set("resource_id", filter.ResourceID)
	}
	if filter.CrewID != "" {
		q.Set("crew_id", filter.CrewID)
	}
	if filter.DateFrom != "" {
		q.Set("date_from", filter.DateFrom)
	}
	if filter.DateTo != "" {
		q.Set("date_to", filter.DateTo)
	}
	if filter.Status != "" {
		q.Set("status", string(filter.Status))
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", limit))
	}
	if offset > 0 {
		q.Set("offset", fmt.Sprintf("%d", offset))
	}

	path := "/bookings"
	if encoded := q.Encode(); encoded != "" {
		path += "?" + encoded
	}
	return c.httpClient.GET(path)
}
