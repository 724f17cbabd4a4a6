package client

import (
	"context"

	"github.com/fivetwenty-io/fmc-client/pkg/fmc"
)

// AuditRecordsClient implements fmc.AuditRecordsClient.
type AuditRecordsClient struct {
	client *Client
}

// NewAuditRecordsClient creates a new audit records client.
func NewAuditRecordsClient(c *Client) *AuditRecordsClient {
	return &AuditRecordsClient{
		client: c,
	}
}

// List implements fmc.AuditRecordsClient.List. Records are fetched lazily.
func (c *AuditRecordsClient) List(ctx context.Context) fmc.Paginator {
	path, _ := c.client.collectionPath(fmc.ResourceAudit, fmc.TypeAuditRecords)

	return newPaginator(c.client, path)
}
