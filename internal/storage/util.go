package storage

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

const defaultListLimit = 20

// generateID generates a new UUID
func generateID() string {
	return uuid.New().String()
}

func encodeArgs(args []string) string {
	if len(args) == 0 {
		return "[]"
	}
	data, err := json.Marshal(args)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func decodeArgs(raw string) []string {
	var args []string
	if err := json.Unmarshal([]byte(raw), &args); err != nil || len(args) == 0 {
		return nil
	}
	return args
}

func normalizeLimit(p PaginationParams) int {
	if p.Limit <= 0 {
		return defaultListLimit
	}
	return p.Limit
}

// whereClause builds the filter clause; placeholder renders the n-th bind
// parameter in the driver's syntax.
func whereClause(filter RunFilter, placeholder func(n int) string) (string, []any) {
	var conds []string
	var args []any
	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		conds = append(conds, column+" = "+placeholder(len(args)))
	}
	add("task", filter.Task)
	add("network", filter.Network)
	add("state", filter.State)

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
