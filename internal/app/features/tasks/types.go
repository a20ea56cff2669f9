// internal/app/features/tasks/types.go
package tasks

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/ag863k/Flowmatic-pm/internal/app/system/apperr"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// optional distinguishes an absent JSON field from an explicit null.
type optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func (o *optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Null = true
		return nil
	}
	return json.Unmarshal(b, &o.Value)
}

type taskRequest struct {
	Title       optional[string] `json:"title"`
	Description optional[string] `json:"description"`
	Priority    optional[string] `json:"priority"`
	Status      optional[string] `json:"status"`
	AssignedTo  optional[string] `json:"assignedTo"`
	DueDate     optional[string] `json:"dueDate"`
}

// assignee parses assignedTo. A null or empty value means unassigned.
func (req taskRequest) assignee() (*primitive.ObjectID, error) {
	if !req.AssignedTo.Set || req.AssignedTo.Null || strings.TrimSpace(req.AssignedTo.Value) == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(req.AssignedTo.Value))
	if err != nil {
		return nil, apperr.BadRequestf("Invalid assignedTo")
	}
	return &id, nil
}

// dueDate parses dueDate as RFC 3339 or a plain YYYY-MM-DD date.
func (req taskRequest) dueDate() (*time.Time, error) {
	if !req.DueDate.Set || req.DueDate.Null || strings.TrimSpace(req.DueDate.Value) == "" {
		return nil, nil
	}
	t, err := parseDate(req.DueDate.Value)
	if err != nil {
		return nil, apperr.BadRequestf("Invalid dueDate")
	}
	return &t, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse("2006-01-02", s)
}

// upper normalizes an enum value such as a status or priority.
func upper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// splitList reads a comma-separated query value.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
