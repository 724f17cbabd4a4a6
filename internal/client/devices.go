package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fivetwenty-io/fmc-client/pkg/fmc"
)

// DevicesClient implements fmc.DevicesClient.
type DevicesClient struct {
	client *Client
}

// NewDevicesClient creates a new devices client.
func NewDevicesClient(c *Client) *DevicesClient {
	return &DevicesClient{
		client: c,
	}
}

// List implements fmc.DevicesClient.List.
func (c *DevicesClient) List(ctx context.Context) ([]*fmc.Record, error) {
	pages, err := c.client.ListResources(ctx, fmc.ResourceDevices, fmc.TypeDeviceRecords)
	if err != nil {
		return nil, err
	}

	devices, err := pages.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}

	return devices, nil
}

// Get implements fmc.DevicesClient.Get.
func (c *DevicesClient) Get(ctx context.Context, id string) (*fmc.Record, error) {
	device, err := c.client.requestJSON(ctx, http.MethodGet, target{
		resource: fmc.ResourceDevices,
		objType:  fmc.TypeDeviceRecords,
		id:       id,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("getting device: %w", err)
	}

	return device, nil
}
