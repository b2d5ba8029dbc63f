package service

import (
	"encoding/json"

	"siteops/internal/model"
)

// ResolveManagerIDs normalizes the two manager storage shapes into one list.
// The serialized manager_ids list, when it parses to a non-empty list, is
// authoritative; otherwise the legacy single manager_id column applies.
// Malformed JSON falls through to the legacy field rather than erroring:
// this gates authorization, and a broken list should not lock managers out.
func ResolveManagerIDs(p *model.Project) []int {
	if p.ManagerIDsJSON != "" {
		var ids []int
		if err := json.Unmarshal([]byte(p.ManagerIDsJSON), &ids); err == nil && len(ids) > 0 {
			return ids
		}
	}
	if p.ManagerID != 0 {
		return []int{p.ManagerID}
	}
	return []int{}
}

// IsProjectManager tests userID against the project's resolved manager list.
func IsProjectManager(userID int, p *model.Project) bool {
	for _, id := range ResolveManagerIDs(p) {
		if id == userID {
			return true
		}
	}
	return false
}

// EncodeManagerIDs serializes a manager list for the manager_ids column.
// An empty list stores as the empty string so resolution falls back to the
// legacy column.
func EncodeManagerIDs(ids []int) string {
	if len(ids) == 0 {
		return ""
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return ""
	}
	return string(b)
}
