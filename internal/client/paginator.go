package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/fivetwenty-io/fmc-client/internal/constants"
	"github.com/fivetwenty-io/fmc-client/pkg/fmc"
)

// Paginator implements fmc.Paginator over an expanded FMC listing.
// It is not safe for concurrent use.
type Paginator struct {
	client *Client
	next   string
	done   bool
	buf    []*fmc.Record
}

func newPaginator(c *Client, listURL string) *Paginator {
	return &Paginator{client: c, next: listURL}
}

// withExpanded makes sure the listing returns full records. FMC drops the
// parameter from paging.next links.
func withExpanded(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	query := parsed.Query()
	if query.Get(constants.ExpandedParam) == "true" {
		return raw
	}

	query.Set(constants.ExpandedParam, "true")
	parsed.RawQuery = query.Encode()

	return parsed.String()
}

// Next implements fmc.Paginator.Next.
func (p *Paginator) Next(ctx context.Context) (*fmc.Record, error) {
	for len(p.buf) == 0 {
		if p.done {
			return nil, fmc.ErrNoMoreItems
		}

		err := p.fetch(ctx)
		if err != nil {
			p.done = true

			return nil, err
		}
	}

	item := p.buf[0]
	p.buf = p.buf[1:]

	return item, nil
}

func (p *Paginator) fetch(ctx context.Context) error {
	err := p.client.checkOpen()
	if err != nil {
		return err
	}

	pageURL := withExpanded(p.next)

	resp, err := p.client.httpClient.Get(ctx, pageURL, nil)
	if err != nil {
		return fmt.Errorf("listing %s: %w", pageURL, err)
	}

	if len(bytes.TrimSpace(resp.Body)) == 0 {
		p.done = true

		return nil
	}

	var page fmc.ListResponse

	err = json.Unmarshal(resp.Body, &page)
	if err != nil {
		return fmt.Errorf("parsing listing %s: %w", pageURL, err)
	}

	if page.Paging.Count == 0 {
		p.done = true

		return nil
	}

	p.buf = page.Items

	if len(page.Paging.Next) > 0 && page.Paging.Next[0] != "" {
		p.next = page.Paging.Next[0]
	} else {
		p.done = true
	}

	return nil
}

// ForEach implements fmc.Paginator.ForEach.
func (p *Paginator) ForEach(ctx context.Context, fn func(*fmc.Record) error) error {
	for {
		item, err := p.Next(ctx)
		if errors.Is(err, fmc.ErrNoMoreItems) {
			return nil
		}

		if err != nil {
			return err
		}

		err = fn(item)
		if err != nil {
			return err
		}
	}
}

// All implements fmc.Paginator.All.
func (p *Paginator) All(ctx context.Context) ([]*fmc.Record, error) {
	var out []*fmc.Record

	err := p.ForEach(ctx, func(rec *fmc.Record) error {
		out = append(out, rec)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}
