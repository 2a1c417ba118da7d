package storage

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"

	"prodexa/internal/catalog"
	"prodexa/internal/domain/categories"
	"prodexa/internal/domain/products"
	"prodexa/internal/domain/users"
	"prodexa/internal/domain/wishlist"
)

type Container struct {
	Categories categories.Store
	Products   products.Store
	Users      users.Store
	Wishlist   wishlist.Store

	CategoryGuard    *catalog.NameGuard
	SubCategoryGuard *catalog.NameGuard
}

// New wires a container from already built stores. The name guards read from
// the categories store.
func New(cats categories.Store, prods products.Store, us users.Store, wl wishlist.Store) *Container {
	return &Container{
		Categories:       cats,
		Products:         prods,
		Users:            us,
		Wishlist:         wl,
		CategoryGuard:    catalog.NewCategoryGuard(categories.CategoryNameSource(cats)),
		SubCategoryGuard: catalog.NewSubCategoryGuard(categories.SubCategoryNameSource(cats)),
	}
}

func NewMongoContainer(db *mongo.Database) *Container {
	return New(
		categories.NewMongoRepository(db),
		products.NewMongoRepository(db),
		users.NewMongoRepository(db),
		wishlist.NewMongoRepository(db),
	)
}

func NewPostgresContainer(db *pgxpool.Pool) *Container {
	return New(
		categories.NewRepository(db),
		products.NewRepository(db),
		users.NewRepository(db),
		wishlist.NewRepository(db),
	)
}

// NewMemoryContainer keeps everything in process memory. Data is lost on
// restart.
func NewMemoryContainer() *Container {
	cats := categories.NewMemoryRepository()
	return New(
		cats,
		products.NewMemoryRepository(cats),
		users.NewMemoryRepository(),
		wishlist.NewMemoryRepository(),
	)
}

// EnsureMongoIndexes creates every index the Mongo repositories rely on.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	for _, ensure := range []func(context.Context, *mongo.Database) error{
		categories.EnsureIndexes,
		products.EnsureIndexes,
		users.EnsureIndexes,
	} {
		if err := ensure(ctx, db); err != nil {
			return err
		}
	}
	return nil
}
