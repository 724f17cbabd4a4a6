package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/fivetwenty-io/fmc-client/internal/constants"
	"github.com/fivetwenty-io/fmc-client/internal/http"
	"github.com/fivetwenty-io/fmc-client/pkg/fmc"
)

// target addresses a request: a collection, one record by id, or an absolute URL.
type target struct {
	resource fmc.Resource
	objType  fmc.ObjectType
	id       string
	url      string
}

// collectionPath returns the listing path of a (resource, type) pair.
func (c *Client) collectionPath(resource fmc.Resource, objType fmc.ObjectType) (string, error) {
	err := fmc.ValidateResourceType(resource, objType)
	if err != nil {
		return "", err
	}

	prefix := constants.ConfigPath
	if resource == fmc.ResourceAudit {
		prefix = constants.PlatformPath
	}

	return fmt.Sprintf("%s/domain/%s/%s/%s", prefix, c.domain, resource, objType), nil
}

func (c *Client) resolve(t target) (string, error) {
	if t.url != "" {
		return t.url, nil
	}

	path, err := c.collectionPath(t.resource, t.objType)
	if err != nil {
		return "", err
	}

	if t.id != "" {
		path += "/" + url.PathEscape(t.id)
	}

	return path, nil
}

// requestJSON resolves a target into one HTTP call and decodes the record in
// the response. An empty body is ErrEmptyResponse.
func (c *Client) requestJSON(ctx context.Context, method string, t target, payload *fmc.Record) (*fmc.Record, error) {
	err := c.checkOpen()
	if err != nil {
		return nil, err
	}

	err = http.ValidateMethod(method)
	if err != nil {
		return nil, err
	}

	path, err := c.resolve(t)
	if err != nil {
		return nil, err
	}

	req := &http.Request{Method: method, Path: path}
	if payload != nil {
		req.Body = payload
	}

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil, fmt.Errorf("%s %s: %w", method, path, fmc.ErrEmptyResponse)
	}

	var rec fmc.Record

	err = json.Unmarshal(resp.Body, &rec)
	if err != nil {
		return nil, fmt.Errorf("parsing %s %s response: %w", method, path, err)
	}

	return &rec, nil
}

// ListResources implements fmc.Client.ListResources.
func (c *Client) ListResources(ctx context.Context, resource fmc.Resource, objType fmc.ObjectType) (fmc.Paginator, error) {
	path, err := c.collectionPath(resource, objType)
	if err != nil {
		return nil, err
	}

	return newPaginator(c, path), nil
}

// ListPolicies implements fmc.Client.ListPolicies.
func (c *Client) ListPolicies(ctx context.Context, objType fmc.ObjectType) (fmc.Paginator, error) {
	return c.ListResources(ctx, fmc.ResourcePolicy, objType)
}

// NewResourceTable implements fmc.Client.NewResourceTable.
func (c *Client) NewResourceTable(resource fmc.Resource, objType fmc.ObjectType) (fmc.ResourceTable, error) {
	err := fmc.ValidateResourceType(resource, objType)
	if err != nil {
		return nil, err
	}

	return newResourceTable(c, resource, objType), nil
}
