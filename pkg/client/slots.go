package client

import (
	"context"
	"net/url"

	"slotbook/pkg/model"
)

type SlotClient struct {
	httpClient *HttpClient
}

func NewSlotClient(baseUrl string) *SlotClient {
	return &SlotClient{
		httpClient: NewHttpClient(baseUrl),
	}
}

// FetchSlots asks the vendor service for the bookable time labels of a day.
// An empty, non-nil slice means the day has no slots.
func (c *SlotClient) FetchSlots(ctx context.Context, serviceID string, date model.CalendarDate) ([]string, error) {
	q := url.Values{}
	q.Set("date", date.String())

	path := "/api/v1/services/" + url.PathEscape(serviceID) + "/slots?" + q.Encode()
	resp, err := c.httpClient.GET(ctx, path)
	if err != nil {
		return nil, err
	}

	slots := []string{}
	if err := decodeEnvelope(resp, &slots); err != nil {
		return nil, err
	}
	if slots == nil {
		slots = []string{}
	}
	return slots, nil
}
