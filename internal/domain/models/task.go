package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Task statuses.
const (
	TaskBacklog    = "BACKLOG"
	TaskTodo       = "TODO"
	TaskInProgress = "IN_PROGRESS"
	TaskInReview   = "IN_REVIEW"
	TaskDone       = "DONE"
)

// Task priorities.
const (
	PriorityLow    = "LOW"
	PriorityMedium = "MEDIUM"
	PriorityHigh   = "HIGH"
)

// TaskStatuses is the canonical status list, in board order.
var TaskStatuses = []string{TaskBacklog, TaskTodo, TaskInProgress, TaskInReview, TaskDone}

// TaskPriorities is the canonical priority list, lowest first.
var TaskPriorities = []string{PriorityLow, PriorityMedium, PriorityHigh}

// Task is a unit of work inside a project.
type Task struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	TaskCode    string              `bson:"task_code" json:"taskCode"`
	Title       string              `bson:"title" json:"title"`
	Description string              `bson:"description,omitempty" json:"description"`
	Project     primitive.ObjectID  `bson:"project" json:"project"`
	Workspace   primitive.ObjectID  `bson:"workspace" json:"workspace"`
	Status      string              `bson:"status" json:"status"`
	Priority    string              `bson:"priority" json:"priority"`
	AssignedTo  *primitive.ObjectID `bson:"assigned_to,omitempty" json:"assignedTo"`
	CreatedBy   primitive.ObjectID  `bson:"created_by" json:"createdBy"`
	DueDate     *time.Time          `bson:"due_date,omitempty" json:"dueDate"`
	CreatedAt   time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updated_at" json:"updatedAt"`
}

// IsValidTaskStatus reports whether s is a known task status.
func IsValidTaskStatus(s string) bool {
	switch s {
	case TaskBacklog, TaskTodo, TaskInProgress, TaskInReview, TaskDone:
		return true
	}
	return false
}

// IsValidTaskPriority reports whether p is a known task priority.
func IsValidTaskPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}
