// Command crmdemo exercises the ERP client end to end against a local Odoo
// instance: authentication, CRUD, search and batch operations over both
// transports. It takes no flags and writes progress to stdout plus an
// append-only log file.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/linyuhan/crmbridge/internal/odoo"
)

const (
	demoURL      = "http://localhost:8069"
	demoDatabase = "odoo"
	demoUsername = "admin"
	demoPassword = "admin"
	demoLogFile  = "odoo_api.log"
)

func main() {
	logFile, err := os.OpenFile(demoLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Fatalf("failed to open log file: %v", err)
	}
	defer logFile.Close()

	log.SetOutput(io.MultiWriter(os.Stdout, logFile))

	if err := run(context.Background()); err != nil {
		log.Fatalf("demonstration failed: %v", err)
	}
}

func run(ctx context.Context) error {
	log.Println("================================================================")
	log.Println("ODOO CRM API DEMONSTRATION")
	log.Println("================================================================")

	protocols := []string{odoo.ProtocolXMLRPC, odoo.ProtocolJSONRPC}

	clients := make(map[string]*odoo.Client, len(protocols))
	for _, protocol := range protocols {
		client, err := odoo.New(odoo.Config{
			URL:      demoURL,
			Database: demoDatabase,
			Username: demoUsername,
			Password: demoPassword,
			Protocol: protocol,
			Timeout:  30 * time.Second,
		})
		if err != nil {
			return fmt.Errorf("build %s client: %w", protocol, err)
		}
		clients[protocol] = client
	}

	// 1. Authentication over both transports.
	log.Println("--- 1. Authentication")
	for _, protocol := range protocols {
		client := clients[protocol]
		if err := client.Authenticate(ctx); err != nil {
			log.Printf("[demo] %s authentication failed: %v", protocol, err)
			continue
		}
		log.Printf("[demo] %s authentication succeeded, uid=%d", protocol, client.UID())
	}

	createdIDs := make([]int64, 0, 8)

	// 2. Single-record CRUD over each transport.
	log.Println("--- 2. CRUD operations")
	for _, protocol := range protocols {
		client := clients[protocol]
		stamp := time.Now().Format("2006-01-02 15:04:05")
		leadID, err := client.CreateLead(ctx, map[string]any{
			"name":         fmt.Sprintf("Test Lead %s %s", protocol, stamp),
			"partner_name": "Test Company",
			"contact_name": "John Doe",
			"email_from":   "john.doe@example.com",
			"phone":        "+1234567890",
			"description":  fmt.Sprintf("Test lead created via %s", protocol),
		})
		if err != nil {
			log.Printf("[demo] %s create failed: %v", protocol, err)
			continue
		}
		log.Printf("[demo] %s created lead id=%d", protocol, leadID)
		createdIDs = append(createdIDs, leadID)

		record, err := client.ReadLead(ctx, leadID, []string{"name", "contact_name", "email_from", "phone"})
		switch {
		case err != nil:
			log.Printf("[demo] %s read failed: %v", protocol, err)
		case record == nil:
			log.Printf("[demo] %s lead %d not found", protocol, leadID)
		default:
			log.Printf("[demo] %s read lead %d: %v", protocol, leadID, record)
		}

		ok, err := client.UpdateLead(ctx, leadID, map[string]any{
			"name":        fmt.Sprintf("Updated Test Lead %s %s", protocol, stamp),
			"description": fmt.Sprintf("Lead updated via %s", protocol),
		})
		if err != nil || !ok {
			log.Printf("[demo] %s update failed: ok=%v err=%v", protocol, ok, err)
		} else {
			log.Printf("[demo] %s updated lead %d", protocol, leadID)
		}
	}

	// 3. Search and filter.
	log.Println("--- 3. Search and filter operations")
	domain := odoo.Domain{odoo.Cond("name", "like", "Test Lead")}

	ids, err := clients[odoo.ProtocolXMLRPC].SearchLeads(ctx, domain, odoo.SearchOptions{Limit: 5, Order: "id desc"})
	if err != nil {
		log.Printf("[demo] xmlrpc search failed: %v", err)
	} else {
		log.Printf("[demo] xmlrpc search found %d leads: %v", len(ids), ids)
	}

	records, err := clients[odoo.ProtocolJSONRPC].SearchReadLeads(ctx, domain,
		[]string{"id", "name", "contact_name", "email_from"},
		odoo.SearchOptions{Limit: 5, Order: "id desc"})
	if err != nil {
		log.Printf("[demo] jsonrpc search_read failed: %v", err)
	} else {
		log.Printf("[demo] jsonrpc search_read found %d leads", len(records))
		for _, record := range records {
			log.Printf("[demo]   - %v: %v", record["id"], record["name"])
		}
	}

	// 4. Batch operations: best-effort, per-item outcomes.
	log.Println("--- 4. Batch operations")
	stamp := time.Now().Format("2006-01-02 15:04:05")
	batchItems := []map[string]any{
		{
			"name":         "Batch Lead 1 " + stamp,
			"partner_name": "Batch Company 1",
			"contact_name": "Batch Contact 1",
			"email_from":   "batch1@example.com",
			"description":  "Batch lead 1",
		},
		{
			"name":         "Batch Lead 2 " + stamp,
			"partner_name": "Batch Company 2",
			"contact_name": "Batch Contact 2",
			"email_from":   "batch2@example.com",
			"description":  "Batch lead 2",
		},
	}

	batchIDs, err := clients[odoo.ProtocolXMLRPC].BatchCreateLeads(ctx, batchItems, odoo.BestEffort)
	if err != nil {
		log.Printf("[demo] batch create failed: %v", err)
	}
	log.Printf("[demo] batch created %d of %d leads: %v", len(batchIDs), len(batchItems), batchIDs)
	createdIDs = append(createdIDs, batchIDs...)

	updates := make([]odoo.LeadUpdate, 0, len(batchIDs))
	for i, id := range batchIDs {
		updates = append(updates, odoo.LeadUpdate{
			ID:     id,
			Values: map[string]any{"description": fmt.Sprintf("Updated batch lead %d", i+1)},
		})
	}
	updateResults, err := clients[odoo.ProtocolXMLRPC].BatchUpdateLeads(ctx, updates, odoo.BestEffort)
	if err != nil {
		log.Printf("[demo] batch update failed: %v", err)
	}
	log.Printf("[demo] batch updated %d of %d leads", countSuccesses(updateResults), len(updates))

	// 5. Cleanup over JSON-RPC.
	log.Println("--- 5. Cleanup")
	deleteResults, err := clients[odoo.ProtocolJSONRPC].BatchDeleteLeads(ctx, createdIDs, odoo.BestEffort)
	if err != nil {
		log.Printf("[demo] batch delete failed: %v", err)
	}
	log.Printf("[demo] batch deleted %d of %d leads", countSuccesses(deleteResults), len(createdIDs))

	log.Println("================================================================")
	log.Println("DEMONSTRATION COMPLETE")
	log.Println("================================================================")
	return nil
}

func countSuccesses(results map[int64]bool) int {
	count := 0
	for _, ok := range results {
		if ok {
			count++
		}
	}
	return count
}
