package odoo

import (
	"context"
	"fmt"
)

// LeadModel is the remote model every derived operation targets.
const LeadModel = "crm.lead"

// Domain is an ordered sequence of search criteria. The client passes it to
// the server opaquely and neither interprets nor validates it.
type Domain []any

// Cond builds one (field, operator, value) triple for a Domain.
func Cond(field, operator string, value any) []any {
	return []any{field, operator, value}
}

// SearchOptions carries the optional search keywords. Fields left at their
// zero value are omitted from the outgoing call entirely.
type SearchOptions struct {
	Offset int
	Limit  int
	Order  string
}

func (o SearchOptions) apply(kwargs map[string]any) {
	if o.Offset != 0 {
		kwargs["offset"] = o.Offset
	}
	if o.Limit != 0 {
		kwargs["limit"] = o.Limit
	}
	if o.Order != "" {
		kwargs["order"] = o.Order
	}
}

// CreateLead creates one lead and returns the remote-assigned identifier.
func (c *Client) CreateLead(ctx context.Context, values map[string]any) (int64, error) {
	result, err := c.ExecuteKw(ctx, LeadModel, "create", []any{values}, nil)
	if err != nil {
		return 0, err
	}

	id, ok := toInt64(result)
	if !ok || id == 0 {
		return 0, fmt.Errorf("odoo: create returned unexpected result %v", result)
	}
	return id, nil
}

// ReadLead fetches one lead. A nil map with a nil error means the identifier
// did not resolve. An empty fields slice reads all fields.
func (c *Client) ReadLead(ctx context.Context, id int64, fields []string) (map[string]any, error) {
	if fields == nil {
		fields = []string{}
	}

	result, err := c.ExecuteKw(ctx, LeadModel, "read", []any{[]int64{id}}, map[string]any{"fields": fields})
	if err != nil {
		return nil, err
	}

	records, ok := result.([]any)
	if !ok || len(records) == 0 {
		return nil, nil
	}
	record, ok := records[0].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("odoo: read returned unexpected record %T", records[0])
	}
	return record, nil
}

// UpdateLead writes values onto one lead and reports the remote success flag.
func (c *Client) UpdateLead(ctx context.Context, id int64, values map[string]any) (bool, error) {
	result, err := c.ExecuteKw(ctx, LeadModel, "write", []any{[]int64{id}, values}, nil)
	if err != nil {
		return false, err
	}
	ok, _ := result.(bool)
	return ok, nil
}

// DeleteLead unlinks one lead and reports the remote success flag.
func (c *Client) DeleteLead(ctx context.Context, id int64) (bool, error) {
	result, err := c.ExecuteKw(ctx, LeadModel, "unlink", []any{[]int64{id}}, nil)
	if err != nil {
		return false, err
	}
	ok, _ := result.(bool)
	return ok, nil
}

// SearchLeads returns the identifiers matching domain.
func (c *Client) SearchLeads(ctx context.Context, domain Domain, opts SearchOptions) ([]int64, error) {
	if domain == nil {
		domain = Domain{}
	}

	kwargs := map[string]any{}
	opts.apply(kwargs)

	result, err := c.ExecuteKw(ctx, LeadModel, "search", []any{domain}, kwargs)
	if err != nil {
		return nil, err
	}

	raw, ok := result.([]any)
	if !ok {
		return nil, fmt.Errorf("odoo: search returned unexpected result %T", result)
	}

	ids := make([]int64, 0, len(raw))
	for _, item := range raw {
		id, ok := toInt64(item)
		if !ok {
			return nil, fmt.Errorf("odoo: search returned non-numeric id %v", item)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// SearchReadLeads searches and reads matching leads in one round trip.
func (c *Client) SearchReadLeads(ctx context.Context, domain Domain, fields []string, opts SearchOptions) ([]map[string]any, error) {
	if domain == nil {
		domain = Domain{}
	}
	if fields == nil {
		fields = []string{}
	}

	kwargs := map[string]any{"fields": fields}
	opts.apply(kwargs)

	result, err := c.ExecuteKw(ctx, LeadModel, "search_read", []any{domain}, kwargs)
	if err != nil {
		return nil, err
	}

	raw, ok := result.([]any)
	if !ok {
		return nil, fmt.Errorf("odoo: search_read returned unexpected result %T", result)
	}

	records := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		record, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("odoo: search_read returned unexpected record %T", item)
		}
		records = append(records, record)
	}
	return records, nil
}
