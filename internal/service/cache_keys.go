package service

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/taskgram/api/internal/store"
)

// taskCacheKey is the item-read cache key: task:{owner}:{id}.
func taskCacheKey(ownerID int64, id uuid.UUID) string {
	return fmt.Sprintf("task:%d:%s", ownerID, id)
}

// taskListCacheKey is the list-read cache key:
// tasks:all:{owner}:{canonicalized filters}.
func taskListCacheKey(ownerID int64, filters store.TaskFilters) string {
	return fmt.Sprintf("tasks:all:%d:%s", ownerID, canonicalFilters(filters))
}

// filterDescriptor fixes the field order of the canonical filter encoding.
// Two List calls with the same filters must map to the same cache entry, so
// the encoding cannot depend on caller argument order; absent fields are
// omitted and the no-filter descriptor is exactly "{}". Write-path
// invalidation relies on that literal matching.
type filterDescriptor struct {
	Status      string `json:"status,omitempty"`
	Priority    string `json:"priority,omitempty"`
	DueDateFrom string `json:"dueDateFrom,omitempty"`
	DueDateTo   string `json:"dueDateTo,omitempty"`
}

func canonicalFilters(filters store.TaskFilters) string {
	desc := filterDescriptor{}
	if filters.Status != nil {
		desc.Status = string(*filters.Status)
	}
	if filters.Priority != nil {
		desc.Priority = string(*filters.Priority)
	}
	if filters.DueDateFrom != nil {
		desc.DueDateFrom = filters.DueDateFrom.UTC().Format(time.RFC3339)
	}
	if filters.DueDateTo != nil {
		desc.DueDateTo = filters.DueDateTo.UTC().Format(time.RFC3339)
	}

	// Marshal of a struct cannot fail; field order follows the declaration.
	encoded, _ := json.Marshal(desc)
	return string(encoded)
}
