package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/fivetwenty-io/fmc-client/internal/constants"
	"github.com/fivetwenty-io/fmc-client/pkg/fmc"
)

// AccessPoliciesClient implements fmc.AccessPoliciesClient.
type AccessPoliciesClient struct {
	client *Client
}

// NewAccessPoliciesClient creates a new access policies client.
func NewAccessPoliciesClient(c *Client) *AccessPoliciesClient {
	return &AccessPoliciesClient{
		client: c,
	}
}

func accessPolicy(id string) target {
	return target{resource: fmc.ResourcePolicy, objType: fmc.TypeAccessPolicies, id: id}
}

// Create implements fmc.AccessPoliciesClient.Create.
func (c *AccessPoliciesClient) Create(ctx context.Context, data *fmc.Record) (*fmc.Record, error) {
	if data == nil {
		return nil, fmc.ErrInvalidObjectSpec
	}

	if data.Name == "" {
		return nil, fmc.ErrEmptyName
	}

	payload := data.CreatePayload()
	if payload.Type == "" {
		payload.Type = "AccessPolicy"
	}

	policy, err := c.client.requestJSON(ctx, http.MethodPost, accessPolicy(""), payload)
	if err != nil {
		return nil, fmt.Errorf("creating access policy: %w", err)
	}

	return policy, nil
}

// Get implements fmc.AccessPoliciesClient.Get.
func (c *AccessPoliciesClient) Get(ctx context.Context, id string) (*fmc.Record, error) {
	policy, err := c.client.requestJSON(ctx, http.MethodGet, accessPolicy(id), nil)
	if err != nil {
		return nil, fmt.Errorf("getting access policy: %w", err)
	}

	return policy, nil
}

// List implements fmc.AccessPoliciesClient.List.
func (c *AccessPoliciesClient) List(ctx context.Context) ([]*fmc.Record, error) {
	pages, err := c.client.ListPolicies(ctx, fmc.TypeAccessPolicies)
	if err != nil {
		return nil, err
	}

	policies, err := pages.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing access policies: %w", err)
	}

	return policies, nil
}

// Rules implements fmc.AccessPoliciesClient.Rules.
func (c *AccessPoliciesClient) Rules(ctx context.Context, policyID string) (fmc.Paginator, error) {
	if policyID == "" {
		return nil, fmc.ErrIDRequired
	}

	path, err := c.client.collectionPath(fmc.ResourcePolicy, fmc.TypeAccessPolicies)
	if err != nil {
		return nil, err
	}

	return newPaginator(c.client, path+"/"+url.PathEscape(policyID)+constants.AccessRulesPath), nil
}
