package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fivetwenty-io/fmc-client/pkg/fmc"
)

// TaskStatusesClient implements fmc.TaskStatusesClient.
type TaskStatusesClient struct {
	client *Client
}

// NewTaskStatusesClient creates a new task statuses client.
func NewTaskStatusesClient(c *Client) *TaskStatusesClient {
	return &TaskStatusesClient{
		client: c,
	}
}

// Get implements fmc.TaskStatusesClient.Get.
func (c *TaskStatusesClient) Get(ctx context.Context, id string) (*fmc.Record, error) {
	task, err := c.client.requestJSON(ctx, http.MethodGet, target{
		resource: fmc.ResourceJob,
		objType:  fmc.TypeTaskStatuses,
		id:       id,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("getting task status: %w", err)
	}

	return task, nil
}
