// internal/app/store/tasks/taskstore.go
package taskstore

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/ag863k/Flowmatic-pm/internal/app/system/normalize"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/paging"
	"github.com/ag863k/Flowmatic-pm/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound    = errors.New("task not found")
	errBadStatus   = errors.New("invalid task status")
	errBadPriority = errors.New("invalid task priority")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("tasks")}
}

// NewTaskCode returns a short public identifier such as "task-3f9a1c".
func NewTaskCode() string {
	return "task-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
}

// IsValidationErr reports whether err came from field validation.
func IsValidationErr(err error) bool {
	return errors.Is(err, errBadStatus) || errors.Is(err, errBadPriority)
}

// Create inserts a task. Status defaults to TODO and priority to MEDIUM.
func (s *Store) Create(ctx context.Context, t models.Task) (models.Task, error) {
	if t.Status == "" {
		t.Status = models.TaskTodo
	}
	if t.Priority == "" {
		t.Priority = models.PriorityMedium
	}
	if !models.IsValidTaskStatus(t.Status) {
		return models.Task{}, errBadStatus
	}
	if !models.IsValidTaskPriority(t.Priority) {
		return models.Task{}, errBadPriority
	}

	now := time.Now().UTC()
	t.ID = primitive.NewObjectID()
	t.Title = normalize.Name(t.Title)
	t.Description = normalize.Text(t.Description)
	t.CreatedAt = now
	t.UpdatedAt = now

	for attempt := 0; attempt < 3; attempt++ {
		t.TaskCode = NewTaskCode()
		_, err := s.c.InsertOne(ctx, t)
		if err == nil {
			return t, nil
		}
		if !wafflemongo.IsDup(err) {
			return models.Task{}, err
		}
	}
	return models.Task{}, errors.New("could not allocate a unique task code")
}

// GetInProject loads a task that belongs to projectID.
func (s *Store) GetInProject(ctx context.Context, projectID, taskID primitive.ObjectID) (models.Task, error) {
	var t models.Task
	if err := s.c.FindOne(ctx, bson.M{"_id": taskID, "project": projectID}).Decode(&t); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Task{}, ErrNotFound
		}
		return models.Task{}, err
	}
	return t, nil
}

// Update holds task changes. Nil pointers leave the field alone;
// ClearAssignee and ClearDueDate unset those fields.
type Update struct {
	Title         *string
	Description   *string
	Status        *string
	Priority      *string
	AssignedTo    *primitive.ObjectID
	ClearAssignee bool
	DueDate       *time.Time
	ClearDueDate  bool
}

// UpdateInProject applies upd and returns the updated task.
func (s *Store) UpdateInProject(ctx context.Context, projectID, taskID primitive.ObjectID, upd Update) (models.Task, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	unset := bson.M{}

	if upd.Title != nil {
		set["title"] = normalize.Name(*upd.Title)
	}
	if upd.Description != nil {
		set["description"] = normalize.Text(*upd.Description)
	}
	if upd.Status != nil {
		if !models.IsValidTaskStatus(*upd.Status) {
			return models.Task{}, errBadStatus
		}
		set["status"] = *upd.Status
	}
	if upd.Priority != nil {
		if !models.IsValidTaskPriority(*upd.Priority) {
			return models.Task{}, errBadPriority
		}
		set["priority"] = *upd.Priority
	}
	switch {
	case upd.ClearAssignee:
		unset["assigned_to"] = ""
	case upd.AssignedTo != nil:
		set["assigned_to"] = *upd.AssignedTo
	}
	switch {
	case upd.ClearDueDate:
		unset["due_date"] = ""
	case upd.DueDate != nil:
		set["due_date"] = upd.DueDate.UTC()
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": taskID, "project": projectID}, update)
	if err != nil {
		return models.Task{}, err
	}
	if res.MatchedCount == 0 {
		return models.Task{}, ErrNotFound
	}
	return s.GetInProject(ctx, projectID, taskID)
}

// DeleteInWorkspace removes a task that belongs to workspaceID.
func (s *Store) DeleteInWorkspace(ctx context.Context, workspaceID, taskID primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": taskID, "workspace": workspaceID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Filter narrows a task listing. Zero values match everything.
type Filter struct {
	ProjectID  *primitive.ObjectID
	Status     []string
	Priority   []string
	AssignedTo []primitive.ObjectID
	Keyword    string
	DueDate    *time.Time
}

func (f Filter) match(workspaceID primitive.ObjectID) bson.M {
	m := bson.M{"workspace": workspaceID}
	if f.ProjectID != nil {
		m["project"] = *f.ProjectID
	}
	if len(f.Status) > 0 {
		m["status"] = bson.M{"$in": f.Status}
	}
	if len(f.Priority) > 0 {
		m["priority"] = bson.M{"$in": f.Priority}
	}
	if len(f.AssignedTo) > 0 {
		m["assigned_to"] = bson.M{"$in": f.AssignedTo}
	}
	if kw := strings.TrimSpace(f.Keyword); kw != "" {
		m["title"] = primitive.Regex{Pattern: regexp.QuoteMeta(kw), Options: "i"}
	}
	if f.DueDate != nil {
		m["due_date"] = f.DueDate.UTC()
	}
	return m
}

// Assignee is the public subset of the assigned user.
type Assignee struct {
	ID             primitive.ObjectID `bson:"_id" json:"_id"`
	Name           string             `bson:"name" json:"name"`
	ProfilePicture *string            `bson:"profile_picture" json:"profilePicture"`
}

// ProjectRef is the project subset shown with a task.
type ProjectRef struct {
	ID    *primitive.ObjectID `bson:"_id" json:"_id"`
	Emoji string              `bson:"emoji" json:"emoji"`
	Name  string              `bson:"name" json:"name"`
}

// ListRow is a task joined with its assignee and project.
type ListRow struct {
	ID          primitive.ObjectID `bson:"_id" json:"_id"`
	TaskCode    string             `bson:"task_code" json:"taskCode"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Workspace   primitive.ObjectID `bson:"workspace" json:"workspace"`
	Status      string             `bson:"status" json:"status"`
	Priority    string             `bson:"priority" json:"priority"`
	AssignedTo  *Assignee          `bson:"assigned_to" json:"assignedTo"`
	Project     ProjectRef         `bson:"project" json:"project"`
	CreatedBy   primitive.ObjectID `bson:"created_by" json:"createdBy"`
	DueDate     *time.Time         `bson:"due_date" json:"dueDate"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updatedAt"`
}

// ListInWorkspace returns one page of matching tasks, newest first, with the
// total match count.
func (s *Store) ListInWorkspace(ctx context.Context, workspaceID primitive.ObjectID, f Filter, p paging.Params) ([]ListRow, int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: f.match(workspaceID)}},
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$facet", Value: bson.M{
			"rows": bson.A{
				bson.M{"$skip": p.Skip()},
				bson.M{"$limit": p.Limit()},
				bson.M{"$lookup": bson.M{
					"from":         "users",
					"localField":   "assigned_to",
					"foreignField": "_id",
					"as":           "assigned_to",
					"pipeline":     bson.A{bson.M{"$project": bson.M{"name": 1, "profile_picture": 1}}},
				}},
				bson.M{"$lookup": bson.M{
					"from":         "projects",
					"localField":   "project",
					"foreignField": "_id",
					"as":           "project",
					"pipeline":     bson.A{bson.M{"$project": bson.M{"emoji": 1, "name": 1}}},
				}},
				bson.M{"$set": bson.M{
					"assigned_to": bson.M{"$ifNull": bson.A{
						bson.M{"$arrayElemAt": bson.A{"$assigned_to", 0}}, nil,
					}},
					"project": bson.M{"$ifNull": bson.A{
						bson.M{"$arrayElemAt": bson.A{"$project", 0}},
						bson.M{"_id": nil, "emoji": "📋", "name": "Unknown Project"},
					}},
				}},
			},
			"total": bson.A{bson.M{"$count": "n"}},
		}}},
	}

	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var out []struct {
		Rows  []ListRow `bson:"rows"`
		Total []struct {
			N int64 `bson:"n"`
		} `bson:"total"`
	}
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}

	rows := []ListRow{}
	var total int64
	if len(out) > 0 {
		if out[0].Rows != nil {
			rows = out[0].Rows
		}
		if len(out[0].Total) > 0 {
			total = out[0].Total[0].N
		}
	}
	return rows, total, nil
}
