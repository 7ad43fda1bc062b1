package projects

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Filter narrows project queries.
type Filter struct {
	Status      string
	SubmittedBy *primitive.ObjectID
	Skip        int64
	Limit       int64
}

// Repository is the project document store. Find results are sorted newest
// first and have the submitter identity populated.
type Repository interface {
	Create(ctx context.Context, project *Project) error
	Update(ctx context.Context, project *Project) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Project, error)
	Find(ctx context.Context, filter Filter) ([]*Project, error)
	Count(ctx context.Context, filter Filter) (int64, error)
	NextSequence(ctx context.Context) (int64, error)
}

type mongoRepository struct {
	projects *mongo.Collection
	users    *mongo.Collection
}

// NewRepository creates a Mongo-backed project repository.
func NewRepository(db *mongo.Database) Repository {
	return &mongoRepository{
		projects: db.Collection("projects"),
		users:    db.Collection("users"),
	}
}

func (r *mongoRepository) Create(ctx context.Context, project *Project) error {
	now := time.Now()
	project.CreatedAt = now
	project.UpdatedAt = now
	if project.ID.IsZero() {
		project.ID = primitive.NewObjectID()
	}

	if _, err := r.projects.InsertOne(ctx, project); err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}
	return nil
}

func (r *mongoRepository) Update(ctx context.Context, project *Project) error {
	project.UpdatedAt = time.Now()

	res, err := r.projects.ReplaceOne(ctx, bson.M{"_id": project.ID}, project)
	if err != nil {
		return fmt.Errorf("failed to update project %s: %w", project.ProjectID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*Project, error) {
	var project Project
	err := r.projects.FindOne(ctx, bson.M{"_id": id}).Decode(&project)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch project: %w", err)
	}

	if err := r.populateSubmitters(ctx, []*Project{&project}); err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *mongoRepository) Find(ctx context.Context, filter Filter) ([]*Project, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if filter.Skip > 0 {
		opts.SetSkip(filter.Skip)
	}
	if filter.Limit > 0 {
		opts.SetLimit(filter.Limit)
	}

	cursor, err := r.projects.Find(ctx, buildQuery(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer cursor.Close(ctx)

	var results []*Project
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode projects: %w", err)
	}

	if err := r.populateSubmitters(ctx, results); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *mongoRepository) Count(ctx context.Context, filter Filter) (int64, error) {
	count, err := r.projects.CountDocuments(ctx, buildQuery(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count projects: %w", err)
	}
	return count, nil
}

// NextSequence returns the next human-readable id sequence number. Derived
// from the collection count like the original registry; gaps after races are
// tolerated because the timestamp suffix keeps ids unique.
func (r *mongoRepository) NextSequence(ctx context.Context) (int64, error) {
	count, err := r.projects.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count projects for id sequence: %w", err)
	}
	return count + 1, nil
}

func buildQuery(filter Filter) bson.M {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.SubmittedBy != nil {
		query["submittedBy"] = *filter.SubmittedBy
	}
	return query
}

// populateSubmitters joins the submitter identity fields from the users
// collection in one batched query.
func (r *mongoRepository) populateSubmitters(ctx context.Context, results []*Project) error {
	if len(results) == 0 {
		return nil
	}

	idSet := make(map[primitive.ObjectID]struct{}, len(results))
	ids := make([]primitive.ObjectID, 0, len(results))
	for _, p := range results {
		if _, seen := idSet[p.SubmittedByID]; !seen && !p.SubmittedByID.IsZero() {
			idSet[p.SubmittedByID] = struct{}{}
			ids = append(ids, p.SubmittedByID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	opts := options.Find().SetProjection(bson.M{
		"name":         1,
		"email":        1,
		"role":         1,
		"organization": 1,
	})
	cursor, err := r.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return fmt.Errorf("failed to load submitters: %w", err)
	}
	defer cursor.Close(ctx)

	var submitters []Submitter
	if err := cursor.All(ctx, &submitters); err != nil {
		return fmt.Errorf("failed to decode submitters: %w", err)
	}

	byID := make(map[primitive.ObjectID]*Submitter, len(submitters))
	for i := range submitters {
		byID[submitters[i].ID] = &submitters[i]
	}
	for _, p := range results {
		p.Submitter = byID[p.SubmittedByID]
	}
	return nil
}
