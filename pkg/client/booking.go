package client

import (
	"context"
	"fmt"

	"slotbook/pkg/model"
)

const HeaderIdempotencyKey = "Idempotency-Key"

type BookingClient struct {
	httpClient *HttpClient
}

func NewBookingClient(baseUrl string) *BookingClient {
	return &BookingClient{
		httpClient: NewHttpClient(baseUrl),
	}
}

// Submit hands a booking to the persistence collaborator. idempotencyKey lets
// the collaborator recognise a replay of the same submission.
func (c *BookingClient) Submit(ctx context.Context, req model.BookingRequest, idempotencyKey string) (*model.BookingConfirmation, error) {
	headers := map[string]string{}
	if idempotencyKey != "" {
		headers[HeaderIdempotencyKey] = idempotencyKey
	}

	resp, err := c.httpClient.POSTWithHeaders(ctx, "/api/v1/bookings", req, headers)
	if err != nil {
		return nil, err
	}

	var confirmation model.BookingConfirmation
	if err := decodeEnvelope(resp, &confirmation); err != nil {
		return nil, err
	}
	if confirmation.OrderID == "" {
		return nil, fmt.Errorf("booking response is missing an order id:\n%s", resp.ToString())
	}
	return &confirmation, nil
}
