package categories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"prodexa/internal/catalog"
	"prodexa/internal/db"
)

const (
	CategoriesCollection    = "categories"
	SubCategoriesCollection = "subcategories"
)

type categoryDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	NameKey     string             `bson:"nameKey"`
	Description string             `bson:"description"`
	IsActive    bool               `bson:"isActive"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d *categoryDoc) toCategory() *Category {
	return &Category{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Description: d.Description,
		IsActive:    d.IsActive,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type subCategoryDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	NameKey     string             `bson:"nameKey"`
	Description string             `bson:"description"`
	Category    primitive.ObjectID `bson:"category"`
	IsActive    bool               `bson:"isActive"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d *subCategoryDoc) toSubCategory() *SubCategory {
	return &SubCategory{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Description: d.Description,
		CategoryID:  d.Category.Hex(),
		IsActive:    d.IsActive,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type MongoRepository struct {
	categories    *mongo.Collection
	subcategories *mongo.Collection
}

func NewMongoRepository(database *mongo.Database) Store {
	return &MongoRepository{
		categories:    database.Collection(CategoriesCollection),
		subcategories: database.Collection(SubCategoriesCollection),
	}
}

// EnsureIndexes creates the unique name indexes the duplicate-name guard
// relies on when two writers race past the pre-check.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	_, err := database.Collection(CategoriesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "nameKey", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_category_name"),
	})
	if err != nil {
		return fmt.Errorf("categories index: %w", err)
	}

	_, err = database.Collection(SubCategoriesCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "nameKey", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_subcategory_name"),
		},
		{
			Keys: bson.D{{Key: "category", Value: 1}, {Key: "isActive", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("subcategories index: %w", err)
	}
	return nil
}

// ------------------------------------
// Categories
// ------------------------------------
func (r *MongoRepository) CreateCategory(ctx context.Context, c *Category) (*Category, error) {
	now := time.Now().UTC()
	doc := categoryDoc{
		ID:          primitive.NewObjectID(),
		Name:        c.Name,
		NameKey:     catalog.NameKey(c.Name),
		Description: c.Description,
		IsActive:    c.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := r.categories.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, duplicateCategory(c.Name)
		}
		return nil, fmt.Errorf("create category: %w", err)
	}
	return doc.toCategory(), nil
}

func (r *MongoRepository) GetCategoryByID(ctx context.Context, id string) (*Category, error) {
	oid, ok := db.ObjectID(id)
	if !ok {
		return nil, categoryNotFound(id)
	}

	var doc categoryDoc
	if err := r.categories.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, categoryNotFound(id)
		}
		return nil, fmt.Errorf("get category by id: %w", err)
	}
	return doc.toCategory(), nil
}

func (r *MongoRepository) ListCategories(ctx context.Context, activeOnly bool) ([]*Category, error) {
	filter := bson.M{}
	if activeOnly {
		filter["isActive"] = true
	}
	opts := options.Find().SetSort(bson.D{{Key: "nameKey", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.categories.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []categoryDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}

	list := make([]*Category, 0, len(docs))
	for i := range docs {
		list = append(list, docs[i].toCategory())
	}
	return list, nil
}

func (r *MongoRepository) UpdateCategory(ctx context.Context, c *Category) (*Category, error) {
	oid, ok := db.ObjectID(c.ID)
	if !ok {
		return nil, categoryNotFound(c.ID)
	}

	update := bson.M{"$set": bson.M{
		"name":        c.Name,
		"nameKey":     catalog.NameKey(c.Name),
		"description": c.Description,
		"isActive":    c.IsActive,
		"updatedAt":   time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc categoryDoc
	if err := r.categories.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, categoryNotFound(c.ID)
		case mongo.IsDuplicateKeyError(err):
			return nil, duplicateCategory(c.Name)
		}
		return nil, fmt.Errorf("update category: %w", err)
	}
	return doc.toCategory(), nil
}

func (r *MongoRepository) DeactivateCategory(ctx context.Context, id string) error {
	oid, ok := db.ObjectID(id)
	if !ok {
		return categoryNotFound(id)
	}
	res, err := r.categories.UpdateByID(ctx, oid, bson.M{"$set": bson.M{"isActive": false, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("deactivate category: %w", err)
	}
	if res.MatchedCount == 0 {
		return categoryNotFound(id)
	}
	return nil
}

func (r *MongoRepository) CategoryNames(ctx context.Context) ([]catalog.NamedRecord, error) {
	return names(ctx, r.categories, bson.M{})
}

func (r *MongoRepository) CountActiveSubCategories(ctx context.Context, categoryID string) (int, error) {
	oid, ok := db.ObjectID(categoryID)
	if !ok {
		return 0, nil
	}
	n, err := r.subcategories.CountDocuments(ctx, bson.M{"category": oid, "isActive": true})
	if err != nil {
		return 0, fmt.Errorf("count subcategories: %w", err)
	}
	return int(n), nil
}

// ------------------------------------
// Subcategories
// ------------------------------------
func (r *MongoRepository) CreateSubCategory(ctx context.Context, s *SubCategory) (*SubCategory, error) {
	parent, err := r.GetCategoryByID(ctx, s.CategoryID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	oid, _ := db.ObjectID(parent.ID)
	doc := subCategoryDoc{
		ID:          primitive.NewObjectID(),
		Name:        s.Name,
		NameKey:     catalog.NameKey(s.Name),
		Description: s.Description,
		Category:    oid,
		IsActive:    s.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := r.subcategories.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, duplicateSubCategory(s.Name, s.CategoryID)
		}
		return nil, fmt.Errorf("create subcategory: %w", err)
	}

	out := doc.toSubCategory()
	out.Category = &Ref{ID: parent.ID, Name: parent.Name}
	return out, nil
}

func (r *MongoRepository) GetSubCategoryByID(ctx context.Context, id string) (*SubCategory, error) {
	oid, ok := db.ObjectID(id)
	if !ok {
		return nil, subCategoryNotFound(id)
	}

	var doc subCategoryDoc
	if err := r.subcategories.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, subCategoryNotFound(id)
		}
		return nil, fmt.Errorf("get subcategory by id: %w", err)
	}

	out := []*SubCategory{doc.toSubCategory()}
	if err := r.populate(ctx, out); err != nil {
		return nil, err
	}
	return out[0], nil
}

func (r *MongoRepository) ListSubCategories(ctx context.Context, categoryID string, activeOnly bool) ([]*SubCategory, error) {
	filter := bson.M{}
	if categoryID != "" {
		oid, ok := db.ObjectID(categoryID)
		if !ok {
			return nil, nil
		}
		filter["category"] = oid
	}
	if activeOnly {
		filter["isActive"] = true
	}
	opts := options.Find().SetSort(bson.D{{Key: "nameKey", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.subcategories.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list subcategories: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []subCategoryDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode subcategories: %w", err)
	}

	list := make([]*SubCategory, 0, len(docs))
	for i := range docs {
		list = append(list, docs[i].toSubCategory())
	}
	if err := r.populate(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *MongoRepository) UpdateSubCategory(ctx context.Context, s *SubCategory) (*SubCategory, error) {
	oid, ok := db.ObjectID(s.ID)
	if !ok {
		return nil, subCategoryNotFound(s.ID)
	}
	parent, err := r.GetCategoryByID(ctx, s.CategoryID)
	if err != nil {
		return nil, err
	}
	parentOID, _ := db.ObjectID(parent.ID)

	update := bson.M{"$set": bson.M{
		"name":        s.Name,
		"nameKey":     catalog.NameKey(s.Name),
		"description": s.Description,
		"category":    parentOID,
		"isActive":    s.IsActive,
		"updatedAt":   time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc subCategoryDoc
	if err := r.subcategories.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, subCategoryNotFound(s.ID)
		case mongo.IsDuplicateKeyError(err):
			return nil, duplicateSubCategory(s.Name, s.CategoryID)
		}
		return nil, fmt.Errorf("update subcategory: %w", err)
	}

	out := doc.toSubCategory()
	out.Category = &Ref{ID: parent.ID, Name: parent.Name}
	return out, nil
}

func (r *MongoRepository) DeactivateSubCategory(ctx context.Context, id string) error {
	oid, ok := db.ObjectID(id)
	if !ok {
		return subCategoryNotFound(id)
	}
	res, err := r.subcategories.UpdateByID(ctx, oid, bson.M{"$set": bson.M{"isActive": false, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("deactivate subcategory: %w", err)
	}
	if res.MatchedCount == 0 {
		return subCategoryNotFound(id)
	}
	return nil
}

func (r *MongoRepository) SubCategoryNames(ctx context.Context, categoryID string) ([]catalog.NamedRecord, error) {
	oid, ok := db.ObjectID(categoryID)
	if !ok {
		return nil, nil
	}
	return names(ctx, r.subcategories, bson.M{"category": oid})
}

// populate fills the parent category reference with one $in lookup.
func (r *MongoRepository) populate(ctx context.Context, list []*SubCategory) error {
	if len(list) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(list))
	var ids []string
	for _, s := range list {
		if !seen[s.CategoryID] {
			seen[s.CategoryID] = true
			ids = append(ids, s.CategoryID)
		}
	}
	oids, _ := db.ObjectIDs(ids...)

	refs, err := names(ctx, r.categories, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return err
	}
	byID := make(map[string]string, len(refs))
	for _, ref := range refs {
		byID[ref.ID] = ref.Name
	}
	for _, s := range list {
		if name, ok := byID[s.CategoryID]; ok {
			s.Category = &Ref{ID: s.CategoryID, Name: name}
		}
	}
	return nil
}

func names(ctx context.Context, coll *mongo.Collection, filter bson.M) ([]catalog.NamedRecord, error) {
	opts := options.Find().SetProjection(bson.M{"name": 1})
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list names: %w", err)
	}
	defer cursor.Close(ctx)

	var out []catalog.NamedRecord
	for cursor.Next(ctx) {
		var doc struct {
			ID   primitive.ObjectID `bson:"_id"`
			Name string             `bson:"name"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode name: %w", err)
		}
		out = append(out, catalog.NamedRecord{ID: doc.ID.Hex(), Name: doc.Name})
	}
	return out, cursor.Err()
}
