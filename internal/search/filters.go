package search

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/models"
)

// Scope is a composable, side-effect-free document predicate. The owner
// restriction is always applied: a scope matches documents owned by OwnerID
// or, when IncludePublic is set, documents flagged public. Building the same
// scope twice yields an equivalent predicate.
type Scope struct {
	OwnerID       string
	SourceKinds   []string
	Tags          []string
	DateFrom      *time.Time
	DateTo        *time.Time
	IncludePublic bool
	// Custom holds field=value equality filters (language, source_name).
	Custom map[string]string
}

// customFields whitelists the columns custom filters may reference.
var customFields = map[string]string{
	"language":    "language",
	"source_name": "source_name",
	"source_kind": "source_kind",
}

// NewScope builds the base owner scope.
func NewScope(ownerID string) Scope {
	return Scope{OwnerID: ownerID}
}

// Where renders the scope as a SQL predicate with positional arguments
// starting at $startIdx. The rendering is deterministic: custom filter keys
// are applied in sorted order.
func (s Scope) Where(startIdx int) (string, []interface{}) {
	var conds []string
	var args []interface{}
	idx := startIdx

	next := func(v interface{}) string {
		args = append(args, v)
		p := fmt.Sprintf("$%d", idx)
		idx++
		return p
	}

	if s.IncludePublic {
		conds = append(conds, fmt.Sprintf("(owner_id = %s OR is_public)", next(s.OwnerID)))
	} else {
		conds = append(conds, fmt.Sprintf("owner_id = %s", next(s.OwnerID)))
	}

	if len(s.SourceKinds) > 0 {
		conds = append(conds, fmt.Sprintf("source_kind = ANY(%s)", next(s.SourceKinds)))
	}
	if len(s.Tags) > 0 {
		conds = append(conds, fmt.Sprintf("tags && %s", next(s.Tags)))
	}
	if s.DateFrom != nil {
		conds = append(conds, fmt.Sprintf("created_at >= %s", next(*s.DateFrom)))
	}
	if s.DateTo != nil {
		conds = append(conds, fmt.Sprintf("created_at <= %s", next(*s.DateTo)))
	}

	keys := make([]string, 0, len(s.Custom))
	for k := range s.Custom {
		if _, ok := customFields[k]; ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		conds = append(conds, fmt.Sprintf("%s = %s", customFields[k], next(s.Custom[k])))
	}

	return strings.Join(conds, " AND "), args
}

// Matches is the in-memory equivalent of Where, used when filtering an
// already-loaded candidate set.
func (s Scope) Matches(doc models.Document) bool {
	owned := doc.OwnerID == s.OwnerID
	if !owned && !(s.IncludePublic && doc.IsPublic) {
		return false
	}
	if len(s.SourceKinds) > 0 && !containsAny(s.SourceKinds, doc.SourceKind) {
		return false
	}
	if len(s.Tags) > 0 && !overlaps(s.Tags, doc.Tags) {
		return false
	}
	if s.DateFrom != nil && doc.CreatedAt.Before(*s.DateFrom) {
		return false
	}
	if s.DateTo != nil && doc.CreatedAt.After(*s.DateTo) {
		return false
	}
	for k, v := range s.Custom {
		switch k {
		case "language":
			if doc.Language != v {
				return false
			}
		case "source_name":
			if doc.SourceName != v {
				return false
			}
		case "source_kind":
			if doc.SourceKind != v {
				return false
			}
		}
	}
	return true
}

func containsAny(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func overlaps(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
