package notify

import (
	"fmt"
	"strings"

	"rentledger/internal/maintenance/domain"
)

// RenderFiled renders the notification text for a newly filed request.
func RenderFiled(req *domain.Request) string {
	var b strings.Builder
	b.WriteString("[Maintenance] New request\n")
	fmt.Fprintf(&b, "Property: %s\n", req.PropertyID)
	if req.UnitID != "" {
		fmt.Fprintf(&b, "Unit: %s\n", req.UnitID)
	}
	fmt.Fprintf(&b, "Priority: %s\n", req.Priority)
	fmt.Fprintf(&b, "Title: %s", req.Title)
	if req.Description != "" {
		fmt.Fprintf(&b, "\nDetail: %s", truncate(req.Description, 200))
	}
	return b.String()
}

// RenderStatus renders the notification text for a status change.
func RenderStatus(req *domain.Request) string {
	var b strings.Builder
	b.WriteString("[Maintenance] Status update\n")
	fmt.Fprintf(&b, "Request: %s\n", req.ID)
	fmt.Fprintf(&b, "Property: %s\n", req.PropertyID)
	fmt.Fprintf(&b, "Status: %s", req.Status)
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
