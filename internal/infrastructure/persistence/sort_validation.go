package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// TicketSortFields maps the public ticket sort keys to columns
var TicketSortFields = map[string]string{
	"id":         "id",
	"updated":    "updated_at",
	"event_date": "event_date",
	"name":       "name",
}

// ticketSortKeys is the whitelist view of TicketSortFields
var ticketSortKeys = func() map[string]bool {
	out := make(map[string]bool, len(TicketSortFields))
	for k := range TicketSortFields {
		out[k] = true
	}
	return out
}()

// TicketOrderClause turns "field" or "-field" into an ORDER BY clause.
// Unknown fields fall back to newest id first.
func TicketOrderClause(orderBy string) string {
	orderBy = strings.TrimSpace(orderBy)
	dir := "ASC"
	if strings.HasPrefix(orderBy, "-") {
		dir = "DESC"
		orderBy = orderBy[1:]
	}
	field := ValidateSortField(orderBy, ticketSortKeys, "")
	if field == "" {
		return "id DESC"
	}
	column := TicketSortFields[field]
	if column == "id" {
		return "id " + ValidateSortOrder(dir)
	}
	return column + " " + ValidateSortOrder(dir) + ", id DESC"
}
