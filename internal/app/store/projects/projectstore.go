// internal/app/store/projects/projectstore.go
package projectstore

import (
	"context"
	"errors"
	"time"

	"github.com/ag863k/Flowmatic-pm/internal/app/system/normalize"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/paging"
	"github.com/ag863k/Flowmatic-pm/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var ErrNotFound = errors.New("project not found")

type Store struct {
	c     *mongo.Collection
	tasks *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:     db.Collection("projects"),
		tasks: db.Collection("tasks"),
	}
}

// Create inserts a project. An empty emoji gets the default.
func (s *Store) Create(ctx context.Context, p models.Project) (models.Project, error) {
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.Name = normalize.Name(p.Name)
	p.Description = normalize.Text(p.Description)
	if p.Emoji == "" {
		p.Emoji = models.DefaultProjectEmoji
	}
	p.CreatedAt = now
	p.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Project{}, err
	}
	return p, nil
}

// GetInWorkspace loads a project only if it belongs to workspaceID.
func (s *Store) GetInWorkspace(ctx context.Context, workspaceID, projectID primitive.ObjectID) (models.Project, error) {
	var p models.Project
	err := s.c.FindOne(ctx, bson.M{"_id": projectID, "workspace": workspaceID}).Decode(&p)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Project{}, ErrNotFound
		}
		return models.Project{}, err
	}
	return p, nil
}

// Update holds optional project changes. Empty fields are left alone.
type Update struct {
	Emoji       string
	Name        string
	Description string
}

// UpdateInWorkspace applies upd and returns the updated project.
func (s *Store) UpdateInWorkspace(ctx context.Context, workspaceID, projectID primitive.ObjectID, upd Update) (models.Project, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Emoji != "" {
		set["emoji"] = upd.Emoji
	}
	if n := normalize.Name(upd.Name); n != "" {
		set["name"] = n
	}
	if d := normalize.Text(upd.Description); d != "" {
		set["description"] = d
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": projectID, "workspace": workspaceID}, bson.M{"$set": set})
	if err != nil {
		return models.Project{}, err
	}
	if res.MatchedCount == 0 {
		return models.Project{}, ErrNotFound
	}
	return s.GetInWorkspace(ctx, workspaceID, projectID)
}

// DeleteWithTasks removes the project and every task in it. Call inside a
// transaction so the two deletes land together.
func (s *Store) DeleteWithTasks(ctx context.Context, workspaceID, projectID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": projectID, "workspace": workspaceID})
	if err != nil {
		return 0, err
	}
	if res.DeletedCount == 0 {
		return 0, ErrNotFound
	}
	tr, err := s.tasks.DeleteMany(ctx, bson.M{"project": projectID})
	if err != nil {
		return 0, err
	}
	return tr.DeletedCount, nil
}

// Creator is the public subset of the creating user.
type Creator struct {
	ID             *primitive.ObjectID `bson:"_id" json:"_id"`
	Name           string              `bson:"name" json:"name"`
	ProfilePicture *string             `bson:"profile_picture" json:"profilePicture"`
}

// ListRow is a project joined with its creator. A deleted creator shows as
// "Unknown User".
type ListRow struct {
	ID          primitive.ObjectID `bson:"_id" json:"_id"`
	Emoji       string             `bson:"emoji" json:"emoji"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Workspace   primitive.ObjectID `bson:"workspace" json:"workspace"`
	CreatedBy   Creator            `bson:"created_by" json:"createdBy"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updatedAt"`
}

// ListInWorkspace returns one page of the workspace's projects, newest first,
// with the total count.
func (s *Store) ListInWorkspace(ctx context.Context, workspaceID primitive.ObjectID, p paging.Params) ([]ListRow, int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"workspace": workspaceID}}},
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$facet", Value: bson.M{
			"rows": bson.A{
				bson.M{"$skip": p.Skip()},
				bson.M{"$limit": p.Limit()},
				bson.M{"$lookup": bson.M{
					"from":         "users",
					"localField":   "created_by",
					"foreignField": "_id",
					"as":           "created_by",
					"pipeline":     bson.A{bson.M{"$project": bson.M{"name": 1, "profile_picture": 1}}},
				}},
				bson.M{"$set": bson.M{"created_by": bson.M{"$ifNull": bson.A{
					bson.M{"$arrayElemAt": bson.A{"$created_by", 0}},
					bson.M{"_id": nil, "name": "Unknown User", "profile_picture": nil},
				}}}},
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

// Analytics summarises a project's tasks.
type Analytics struct {
	TotalTasks     int64 `json:"totalTasks"`
	OverdueTasks   int64 `json:"overdueTasks"`
	CompletedTasks int64 `json:"completedTasks"`
}

// TaskAnalytics counts all, overdue (past due and not DONE) and completed
// tasks in projectID as of now.
func (s *Store) TaskAnalytics(ctx context.Context, projectID primitive.ObjectID, now time.Time) (Analytics, error) {
	count := func(extra bson.M) bson.A {
		stages := bson.A{}
		if len(extra) > 0 {
			stages = append(stages, bson.M{"$match": extra})
		}
		return append(stages, bson.M{"$count": "n"})
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"project": projectID}}},
		{{Key: "$facet", Value: bson.M{
			"total":     count(nil),
			"overdue":   count(bson.M{"due_date": bson.M{"$lt": now}, "status": bson.M{"$ne": models.TaskDone}}),
			"completed": count(bson.M{"status": models.TaskDone}),
		}}},
	}

	cur, err := s.tasks.Aggregate(ctx, pipeline)
	if err != nil {
		return Analytics{}, err
	}
	defer cur.Close(ctx)

	type n struct {
		N int64 `bson:"n"`
	}
	var out []struct {
		Total     []n `bson:"total"`
		Overdue   []n `bson:"overdue"`
		Completed []n `bson:"completed"`
	}
	if err := cur.All(ctx, &out); err != nil {
		return Analytics{}, err
	}

	var a Analytics
	if len(out) > 0 {
		first := func(xs []n) int64 {
			if len(xs) == 0 {
				return 0
			}
			return xs[0].N
		}
		a.TotalTasks = first(out[0].Total)
		a.OverdueTasks = first(out[0].Overdue)
		a.CompletedTasks = first(out[0].Completed)
	}
	return a, nil
}
