package products

import (
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"prodexa/internal/catalog"
	"prodexa/internal/db"
)

var mongoSortFields = map[catalog.SortField]string{
	catalog.SortCreatedAt:   "createdAt",
	catalog.SortRating:      "rating",
	catalog.SortReviewCount: "reviewCount",
	catalog.SortName:        "name",
	catalog.SortPrice:       "variants.price",
}

// MongoFilter translates q into a filter on the products collection. It
// reports false when q names ids that can never match a stored ObjectID, so
// the caller can skip the round trip.
func MongoFilter(q catalog.ProductQuery) (bson.M, bool) {
	filter := bson.M{"isActive": true}

	if q.FeaturedOnly {
		filter["isFeatured"] = true
	}

	if q.CategoryID != "" {
		oid, ok := db.ObjectID(q.CategoryID)
		if !ok {
			return nil, false
		}
		filter["category"] = oid
	}

	if len(q.SubCategoryIDs) > 0 {
		oids := make([]primitive.ObjectID, 0, len(q.SubCategoryIDs))
		for _, id := range q.SubCategoryIDs {
			if oid, ok := db.ObjectID(id); ok {
				oids = append(oids, oid)
			}
		}
		if len(oids) == 0 {
			return nil, false
		}
		filter["subcategory"] = bson.M{"$in": oids}
	}

	if q.HasPriceFilter() {
		price := bson.M{}
		if q.MinPrice != nil {
			price["$gte"] = *q.MinPrice
		}
		if q.MaxPrice != nil {
			price["$lte"] = *q.MaxPrice
		}
		// both bounds must hold for the same variant
		filter["variants"] = bson.M{"$elemMatch": bson.M{"price": price}}
	}

	if q.Search != "" {
		if q.SearchMode == catalog.SearchText {
			// $text ORs plain words
			if terms := q.SearchTerms(); len(terms) > 0 {
				filter["$text"] = bson.M{"$search": strings.Join(terms, " ")}
			}
		} else {
			pattern := primitive.Regex{Pattern: regexp.QuoteMeta(q.Search), Options: "i"}
			filter["$or"] = bson.A{
				bson.M{"name": pattern},
				bson.M{"description": pattern},
			}
		}
	}

	return filter, true
}

// MongoSort orders by the requested field with _id as a tie-breaker.
func MongoSort(q catalog.ProductQuery) bson.D {
	field, ok := mongoSortFields[q.SortBy]
	if !ok {
		field = mongoSortFields[catalog.SortCreatedAt]
	}
	dir := 1
	if q.SortDesc {
		dir = -1
	}
	return bson.D{{Key: field, Value: dir}, {Key: "_id", Value: dir}}
}
