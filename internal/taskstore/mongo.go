package taskstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"github.com/ShayCichocki/tasktalk/pkg/models"
)

const (
	// DefaultMongoURI matches a local development server.
	DefaultMongoURI = "mongodb://localhost:27017/agentic_tasks"
	defaultMongoDB  = "agentic_tasks"
	tasksCollection = "tasks"
)

// MongoStore keeps tasks in a MongoDB collection. Ids are ObjectID hex strings.
type MongoStore struct {
	client *mongo.Client
	tasks  *mongo.Collection
	now    func() time.Time
}

var _ Store = (*MongoStore)(nil)

// mongoTask is the stored document.
type mongoTask struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	models.Task `bson:",inline"`
}

// NewMongoStore connects to uri. The database is taken from the URI path,
// defaulting to agentic_tasks. The connection is established lazily.
func NewMongoStore(ctx context.Context, uri string) (*MongoStore, error) {
	if uri == "" {
		uri = DefaultMongoURI
	}
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return nil, fmt.Errorf("parse mongodb uri: %w", err)
	}
	dbName := cs.Database
	if dbName == "" {
		dbName = defaultMongoDB
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	return &MongoStore{
		client: client,
		tasks:  client.Database(dbName).Collection(tasksCollection),
		now:    time.Now,
	}, nil
}

// Close disconnects from the server.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping checks the server is reachable.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Create inserts a validated task and returns its ObjectID hex.
func (s *MongoStore) Create(ctx context.Context, task models.Task) (string, error) {
	task, err := prepare(task)
	if err != nil {
		return "", err
	}
	task.CreatedAt = s.now()

	res, err := s.tasks.InsertOne(ctx, mongoTask{Task: task})
	if err != nil {
		return "", fmt.Errorf("insert task: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("insert task: unexpected id type %T", res.InsertedID)
	}
	return oid.Hex(), nil
}

// CompleteByID sets status to completed. A single update is atomic per document.
func (s *MongoStore) CompleteByID(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.ErrInvalidID
	}
	res, err := s.tasks.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"status": models.TaskStatusCompleted, "completedAt": s.now()}},
	)
	if err != nil {
		return fmt.Errorf("complete task %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Get loads one task.
func (s *MongoStore) Get(ctx context.Context, id string) (*models.Task, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrInvalidID
	}
	var doc mongoTask
	if err := s.tasks.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	task := doc.Task
	task.ID = doc.ID.Hex()
	return &task, nil
}
