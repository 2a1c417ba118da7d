package products

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
	"prodexa/internal/domain/categories"
)

const ProductsCollection = "products"

type productDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Description string             `bson:"description"`
	Category    primitive.ObjectID `bson:"category"`
	SubCategory primitive.ObjectID `bson:"subcategory"`
	Variants    []Variant          `bson:"variants"`
	Images      []string           `bson:"images"`
	Rating      float64            `bson:"rating"`
	ReviewCount int                `bson:"reviewCount"`
	IsActive    bool               `bson:"isActive"`
	IsFeatured  bool               `bson:"isFeatured"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d *productDoc) toProduct() *Product {
	p := &Product{
		ID:            d.ID.Hex(),
		Name:          d.Name,
		Description:   d.Description,
		CategoryID:    d.Category.Hex(),
		SubCategoryID: d.SubCategory.Hex(),
		Variants:      d.Variants,
		Images:        d.Images,
		Rating:        d.Rating,
		ReviewCount:   d.ReviewCount,
		IsActive:      d.IsActive,
		IsFeatured:    d.IsFeatured,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
	return p.withDerived()
}

func newProductDoc(p *Product) (*productDoc, error) {
	cat, ok := db.ObjectID(p.CategoryID)
	if !ok {
		return nil, catalog.NotFound(catalog.KindCategory, p.CategoryID)
	}
	sub, ok := db.ObjectID(p.SubCategoryID)
	if !ok {
		return nil, catalog.NotFound(catalog.KindSubCategory, p.SubCategoryID)
	}
	return &productDoc{
		Name:        p.Name,
		Description: p.Description,
		Category:    cat,
		SubCategory: sub,
		Variants:    p.Variants,
		Images:      p.Images,
		Rating:      p.Rating,
		ReviewCount: p.ReviewCount,
		IsActive:    p.IsActive,
		IsFeatured:  p.IsFeatured,
	}, nil
}

type MongoRepository struct {
	products      *mongo.Collection
	categories    *mongo.Collection
	subcategories *mongo.Collection
}

func NewMongoRepository(database *mongo.Database) Store {
	return &MongoRepository{
		products:      database.Collection(ProductsCollection),
		categories:    database.Collection(categories.CategoriesCollection),
		subcategories: database.Collection(categories.SubCategoriesCollection),
	}
}

// EnsureIndexes creates the weighted text index and the filter indexes used by
// product listings.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	_, err := database.Collection(ProductsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "name", Value: "text"}, {Key: "description", Value: "text"}},
			Options: options.Index().
				SetName("product_text").
				SetWeights(bson.D{{Key: "name", Value: 10}, {Key: "description", Value: 2}}),
		},
		{Keys: bson.D{{Key: "isActive", Value: 1}, {Key: "category", Value: 1}, {Key: "subcategory", Value: 1}}},
		{Keys: bson.D{{Key: "variants.price", Value: 1}}},
		{Keys: bson.D{{Key: "isFeatured", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("products index: %w", err)
	}
	return nil
}

func (r *MongoRepository) CreateProduct(ctx context.Context, p *Product) (*Product, error) {
	doc, err := newProductDoc(p)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	doc.ID = primitive.NewObjectID()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if _, err := r.products.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	out := []*Product{doc.toProduct()}
	if err := r.populate(ctx, out); err != nil {
		return nil, err
	}
	return out[0], nil
}

func (r *MongoRepository) GetProductByID(ctx context.Context, id string) (*Product, error) {
	oid, ok := db.ObjectID(id)
	if !ok {
		return nil, productNotFound(id)
	}

	var doc productDoc
	err := r.products.FindOne(ctx, bson.M{"_id": oid, "isActive": true}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, productNotFound(id)
		}
		return nil, fmt.Errorf("get product by id: %w", err)
	}

	out := []*Product{doc.toProduct()}
	if err := r.populate(ctx, out); err != nil {
		return nil, err
	}
	return out[0], nil
}

func (r *MongoRepository) GetProductsByIDs(ctx context.Context, ids []string) ([]*Product, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, ok := db.ObjectID(id); ok {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return nil, nil
	}

	list, err := r.find(ctx, bson.M{"_id": bson.M{"$in": oids}, "isActive": true}, options.Find())
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*Product, len(list))
	for _, p := range list {
		byID[p.ID] = p
	}
	ordered := make([]*Product, 0, len(list))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
			delete(byID, id)
		}
	}
	return ordered, nil
}

func (r *MongoRepository) ListProducts(ctx context.Context, q catalog.ProductQuery) ([]*Product, int, error) {
	filter, ok := MongoFilter(q)
	if !ok {
		return nil, 0, nil
	}

	total, err := r.products.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	opts := options.Find().
		SetSort(MongoSort(q)).
		SetSkip(int64(q.Skip())).
		SetLimit(int64(q.Limit()))

	list, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return list, int(total), nil
}

func (r *MongoRepository) ListFeatured(ctx context.Context, limit int) ([]*Product, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	return r.find(ctx, bson.M{"isActive": true, "isFeatured": true}, opts)
}

func (r *MongoRepository) UpdateProduct(ctx context.Context, p *Product) (*Product, error) {
	oid, ok := db.ObjectID(p.ID)
	if !ok {
		return nil, productNotFound(p.ID)
	}
	doc, err := newProductDoc(p)
	if err != nil {
		return nil, err
	}

	update := bson.M{"$set": bson.M{
		"name":        doc.Name,
		"description": doc.Description,
		"category":    doc.Category,
		"subcategory": doc.SubCategory,
		"variants":    doc.Variants,
		"images":      doc.Images,
		"rating":      doc.Rating,
		"reviewCount": doc.ReviewCount,
		"isFeatured":  doc.IsFeatured,
		"updatedAt":   time.Now().UTC(),
	}}
	return r.findOneAndUpdate(ctx, oid, p.ID, update)
}

func (r *MongoRepository) SetFeatured(ctx context.Context, id string, featured bool) (*Product, error) {
	oid, ok := db.ObjectID(id)
	if !ok {
		return nil, productNotFound(id)
	}
	update := bson.M{"$set": bson.M{"isFeatured": featured, "updatedAt": time.Now().UTC()}}
	return r.findOneAndUpdate(ctx, oid, id, update)
}

func (r *MongoRepository) DeactivateProduct(ctx context.Context, id string) error {
	oid, ok := db.ObjectID(id)
	if !ok {
		return productNotFound(id)
	}
	res, err := r.products.UpdateOne(ctx,
		bson.M{"_id": oid, "isActive": true},
		bson.M{"$set": bson.M{"isActive": false, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("deactivate product: %w", err)
	}
	if res.MatchedCount == 0 {
		return productNotFound(id)
	}
	return nil
}

func (r *MongoRepository) findOneAndUpdate(ctx context.Context, oid primitive.ObjectID, id string, update bson.M) (*Product, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc productDoc
	err := r.products.FindOneAndUpdate(ctx, bson.M{"_id": oid, "isActive": true}, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, productNotFound(id)
		}
		return nil, fmt.Errorf("update product: %w", err)
	}

	out := []*Product{doc.toProduct()}
	if err := r.populate(ctx, out); err != nil {
		return nil, err
	}
	return out[0], nil
}

func (r *MongoRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*Product, error) {
	cursor, err := r.products.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []productDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}

	list := make([]*Product, 0, len(docs))
	for i := range docs {
		list = append(list, docs[i].toProduct())
	}
	if err := r.populate(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// populate fills category and subcategory names with one $in query per
// collection.
func (r *MongoRepository) populate(ctx context.Context, list []*Product) error {
	if len(list) == 0 {
		return nil
	}
	catIDs := make(map[primitive.ObjectID]bool)
	subIDs := make(map[primitive.ObjectID]bool)
	for _, p := range list {
		if oid, ok := db.ObjectID(p.CategoryID); ok {
			catIDs[oid] = true
		}
		if oid, ok := db.ObjectID(p.SubCategoryID); ok {
			subIDs[oid] = true
		}
	}

	catNames, err := refNames(ctx, r.categories, catIDs)
	if err != nil {
		return err
	}
	subNames, err := refNames(ctx, r.subcategories, subIDs)
	if err != nil {
		return err
	}

	for _, p := range list {
		if name, ok := catNames[p.CategoryID]; ok {
			p.Category = &categories.Ref{ID: p.CategoryID, Name: name}
		}
		if name, ok := subNames[p.SubCategoryID]; ok {
			p.SubCategory = &categories.Ref{ID: p.SubCategoryID, Name: name}
		}
	}
	return nil
}

func refNames(ctx context.Context, coll *mongo.Collection, ids map[primitive.ObjectID]bool) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	in := make([]primitive.ObjectID, 0, len(ids))
	for oid := range ids {
		in = append(in, oid)
	}

	cursor, err := coll.Find(ctx, bson.M{"_id": bson.M{"$in": in}}, options.Find().SetProjection(bson.M{"name": 1}))
	if err != nil {
		return nil, fmt.Errorf("populate %s: %w", coll.Name(), err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var ref struct {
			ID   primitive.ObjectID `bson:"_id"`
			Name string             `bson:"name"`
		}
		if err := cursor.Decode(&ref); err != nil {
			return nil, fmt.Errorf("decode %s: %w", coll.Name(), err)
		}
		out[ref.ID.Hex()] = ref.Name
	}
	return out, cursor.Err()
}
