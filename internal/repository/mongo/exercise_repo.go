package mongo

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"muscledynamics/workout-planner/internal/domain"
	"muscledynamics/workout-planner/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const exerciseCollectionName = "exercises"

// exerciseDoc is the stored shape of an exercise. NameLower is the sort key
// for the case-insensitive name order; tag fields are matched exactly.
type exerciseDoc struct {
	domain.Exercise `bson:",inline"`
	NameLower       string `bson:"nameLower"`
}

func newExerciseDoc(ex domain.Exercise) exerciseDoc {
	return exerciseDoc{Exercise: ex, NameLower: strings.ToLower(ex.Name)}
}

// mongoExerciseRepository implements repository.ExerciseRepository
type mongoExerciseRepository struct {
	db         *mongo.Database
	collection *mongo.Collection
}

// NewMongoExerciseRepository creates a new Exercise repository backed by MongoDB.
func NewMongoExerciseRepository(db *mongo.Database) repository.ExerciseRepository {
	return &mongoExerciseRepository{
		db:         db,
		collection: db.Collection(exerciseCollectionName),
	}
}

// BuildExerciseFilter translates criteria into a query document. A record
// matches when any selected muscle appears in its primary or secondary list,
// its equipment is one of the selected kinds, and (if set) the difficulty is equal.
func BuildExerciseFilter(criteria domain.SelectionCriteria) bson.M {
	filter := bson.M{}
	if len(criteria.Muscles) > 0 {
		filter["$or"] = bson.A{
			bson.M{"primaryMuscles": bson.M{"$in": criteria.Muscles}},
			bson.M{"secondaryMuscles": bson.M{"$in": criteria.Muscles}},
		}
	}
	if len(criteria.Equipment) > 0 {
		tags := make([]string, len(criteria.Equipment))
		for i, e := range criteria.Equipment {
			tags[i] = string(e)
		}
		filter["equipment"] = bson.M{"$in": tags}
	}
	if criteria.Difficulty != "" {
		filter["difficulty"] = string(criteria.Difficulty)
	}
	return filter
}

// ExerciseSort is the deterministic result order: best rated first, then by
// lower-cased name, with the id as the final tie-break.
func ExerciseSort() bson.D {
	return bson.D{
		{Key: "rating", Value: -1},
		{Key: "nameLower", Value: 1},
		{Key: "_id", Value: 1},
	}
}

// findOptions pages through ExerciseSort. No collation is set so tag filters
// compare exactly and CountDocuments sees the same matches.
func findOptions(page domain.Pagination) *options.FindOptions {
	return options.Find().
		SetSort(ExerciseSort()).
		SetSkip(int64(page.Offset)).
		SetLimit(int64(page.Limit))
}

// Find returns one page of matching exercises and the total match count.
func (r *mongoExerciseRepository) Find(ctx context.Context, criteria domain.SelectionCriteria, page domain.Pagination) ([]domain.Exercise, int64, error) {
	filter := BuildExerciseFilter(criteria)

	cursor, err := r.collection.Find(ctx, filter, findOptions(page))
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	exercises := []domain.Exercise{}
	if err = cursor.All(ctx, &exercises); err != nil {
		return nil, 0, err
	}
	if err = cursor.Err(); err != nil {
		return nil, 0, err
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	return exercises, total, nil
}

// GetByID retrieves an exercise by its ID.
func (r *mongoExerciseRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	var exercise domain.Exercise
	filter := bson.M{"_id": id}

	err := r.collection.FindOne(ctx, filter).Decode(&exercise)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &exercise, nil
}

func (r *mongoExerciseRepository) DistinctMuscles(ctx context.Context) ([]string, error) {
	primary, err := r.distinctStrings(ctx, "primaryMuscles")
	if err != nil {
		return nil, err
	}
	secondary, err := r.distinctStrings(ctx, "secondaryMuscles")
	if err != nil {
		return nil, err
	}
	return mergeSorted(primary, secondary), nil
}

func (r *mongoExerciseRepository) DistinctEquipment(ctx context.Context) ([]string, error) {
	tags, err := r.distinctStrings(ctx, "equipment")
	if err != nil {
		return nil, err
	}
	return mergeSorted(tags), nil
}

func (r *mongoExerciseRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

// InsertMany stores new records, assigning ids and timestamps.
func (r *mongoExerciseRepository) InsertMany(ctx context.Context, exercises []domain.Exercise) (int, error) {
	if len(exercises) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	docs := make([]interface{}, len(exercises))
	for i := range exercises {
		if exercises[i].ID.IsZero() {
			exercises[i].ID = primitive.NewObjectID()
		}
		exercises[i].CreatedAt = now
		exercises[i].UpdatedAt = now
		docs[i] = newExerciseDoc(exercises[i])
	}

	result, err := r.collection.InsertMany(ctx, docs)
	if err != nil {
		if result != nil && len(result.InsertedIDs) > 0 {
			return len(result.InsertedIDs), fmt.Errorf("%w: %v", repository.ErrInsertFailed, err)
		}
		return 0, err
	}
	return len(result.InsertedIDs), nil
}

func (r *mongoExerciseRepository) Ping(ctx context.Context) error {
	return r.db.Client().Ping(ctx, readpref.Primary())
}

func (r *mongoExerciseRepository) distinctStrings(ctx context.Context, field string) ([]string, error) {
	values, err := r.collection.Distinct(ctx, field, bson.M{})
	if err != nil {
		return nil, err
	}
	tags := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			tags = append(tags, s)
		}
	}
	return tags, nil
}

// mergeSorted unions the given tag lists and sorts the result.
func mergeSorted(lists ...[]string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, list := range lists {
		for _, s := range list {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

// EnsureExerciseIndexes creates necessary indexes for the exercises collection.
func EnsureExerciseIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "primaryMuscles", Value: 1}, {Key: "equipment", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "secondaryMuscles", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    ExerciseSort(),
			Options: options.Index().SetName("exercise_rank_name_lower"),
		},
		{
			Keys:    bson.D{{Key: "name", Value: "text"}, {Key: "description", Value: "text"}},
			Options: options.Index().SetName("exercise_text_search"),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}

// ExerciseCollection returns the catalog collection of db.
func ExerciseCollection(db *mongo.Database) *mongo.Collection {
	return db.Collection(exerciseCollectionName)
}
