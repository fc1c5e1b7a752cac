package odoo

import (
	"context"
	"fmt"
	"log"
)

// BatchPolicy decides how a batch reacts to a per-item failure. There is no
// server-side atomic bulk operation behind these helpers: every item is an
// independent single-record call, and nothing is rolled back.
type BatchPolicy int

const (
	// BestEffort attempts every item and reports per-item outcomes.
	BestEffort BatchPolicy = iota
	// FailFast stops at the first failing item and returns its error
	// alongside the results accumulated so far.
	FailFast
)

// LeadUpdate pairs one lead identifier with the values to write, keeping
// batch updates ordered.
type LeadUpdate struct {
	ID     int64
	Values map[string]any
}

// BatchCreateLeads creates leads one at a time in input order. The returned
// slice holds the identifiers of the creations that succeeded, in order.
func (c *Client) BatchCreateLeads(ctx context.Context, items []map[string]any, policy BatchPolicy) ([]int64, error) {
	ids := make([]int64, 0, len(items))
	for i, values := range items {
		id, err := c.CreateLead(ctx, values)
		if err != nil {
			log.Printf("[odoo] batch create item %d failed: %v", i, err)
			if policy == FailFast {
				return ids, fmt.Errorf("batch create item %d: %w", i, err)
			}
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// BatchUpdateLeads writes each update in input order and maps every input
// identifier to its own success flag.
func (c *Client) BatchUpdateLeads(ctx context.Context, updates []LeadUpdate, policy BatchPolicy) (map[int64]bool, error) {
	results := make(map[int64]bool, len(updates))
	for _, update := range updates {
		ok, err := c.UpdateLead(ctx, update.ID, update.Values)
		if err != nil {
			log.Printf("[odoo] batch update lead %d failed: %v", update.ID, err)
			results[update.ID] = false
			if policy == FailFast {
				return results, fmt.Errorf("batch update lead %d: %w", update.ID, err)
			}
			continue
		}
		results[update.ID] = ok
	}
	return results, nil
}

// BatchDeleteLeads unlinks each lead in input order and maps every input
// identifier to its own success flag.
func (c *Client) BatchDeleteLeads(ctx context.Context, ids []int64, policy BatchPolicy) (map[int64]bool, error) {
	results := make(map[int64]bool, len(ids))
	for _, id := range ids {
		ok, err := c.DeleteLead(ctx, id)
		if err != nil {
			log.Printf("[odoo] batch delete lead %d failed: %v", id, err)
			results[id] = false
			if policy == FailFast {
				return results, fmt.Errorf("batch delete lead %d: %w", id, err)
			}
			continue
		}
		results[id] = ok
	}
	return results, nil
}
