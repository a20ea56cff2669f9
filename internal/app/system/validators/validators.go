// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/ag863k/Flowmatic-pm/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. Creating collections up front also means no transaction has to
// create one implicitly. On servers that don't support collMod/validators
// (e.g. some DocumentDB versions), we log and skip.
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll, logger); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema, logger); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				logger.Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("users", usersSchema())
	ensure("accounts", accountsSchema())
	ensure("workspaces", workspacesSchema())
	ensure("roles", rolesSchema())
	ensure("members", membersSchema())
	ensure("projects", projectsSchema())
	ensure("tasks", tasksSchema())

	// No validators; the collections still have to exist.
	ensure("oauth_states", nil)
	ensure("audit_events", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{"name": name})
	if err != nil {
		return false, err
	}
	return len(names) > 0, nil
}

// ensureCollection idempotently makes sure name exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string, logger *zap.Logger) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		return false, nil
	}
	if err := db.CreateCollection(ctx, name); err != nil {
		if isNamespaceExistsErr(err) {
			return false, nil
		}
		logger.Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	logger.Info("created collection", zap.String("collection", name))
	return true, nil
}

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M, logger *zap.Logger) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	logger.Debug("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "email", "is_active"},
			"properties": bson.M{
				"name":              nonBlank,
				"email":             nonBlank,
				"password_hash":     bson.M{"bsonType": "string"},
				"profile_picture":   bson.M{"bsonType": bson.A{"string", "null"}},
				"current_workspace": bson.M{"bsonType": bson.A{"objectId", "null"}},
				"is_active":         bson.M{"bsonType": "bool"},
				"last_login":        bson.M{"bsonType": bson.A{"date", "null"}},
			},
		},
	}
}

func accountsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"user_id", "provider", "provider_id"},
			"properties": bson.M{
				"user_id": bson.M{"bsonType": "objectId"},
				// Providers beyond EMAIL/GOOGLE are accepted as opaque strings.
				"provider":    nonBlank,
				"provider_id": nonBlank,
			},
		},
	}
}

func workspacesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "owner", "invite_code"},
			"properties": bson.M{
				"name":        nonBlank,
				"name_ci":     bson.M{"bsonType": "string"},
				"description": bson.M{"bsonType": "string"},
				"owner":       bson.M{"bsonType": "objectId"},
				"invite_code": nonBlank,
			},
		},
	}
}

func rolesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "permissions"},
			"properties": bson.M{
				"name":        nonBlank,
				"permissions": bson.M{"bsonType": "array", "items": bson.M{"bsonType": "string"}},
			},
		},
	}
}

func membersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"user_id", "workspace_id", "role"},
			"properties": bson.M{
				"user_id":      bson.M{"bsonType": "objectId"},
				"workspace_id": bson.M{"bsonType": "objectId"},
				"role":         bson.M{"bsonType": "objectId"},
				"joined_at":    bson.M{"bsonType": "date"},
			},
		},
	}
}

func projectsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "workspace", "created_by"},
			"properties": bson.M{
				"name":       nonBlank,
				"emoji":      bson.M{"bsonType": "string"},
				"workspace":  bson.M{"bsonType": "objectId"},
				"created_by": bson.M{"bsonType": "objectId"},
			},
		},
	}
}

func tasksSchema() bson.M {
	statuses := bson.A{}
	for _, s := range models.TaskStatuses {
		statuses = append(statuses, s)
	}
	priorities := bson.A{}
	for _, p := range models.TaskPriorities {
		priorities = append(priorities, p)
	}

	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"title", "project", "workspace", "status", "priority"},
			"properties": bson.M{
				"task_code":   bson.M{"bsonType": "string"},
				"title":       nonBlank,
				"project":     bson.M{"bsonType": "objectId"},
				"workspace":   bson.M{"bsonType": "objectId"},
				"status":      bson.M{"enum": statuses},
				"priority":    bson.M{"enum": priorities},
				"assigned_to": bson.M{"bsonType": bson.A{"objectId", "null"}},
				"due_date":    bson.M{"bsonType": bson.A{"date", "null"}},
			},
		},
	}
}
