package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/glcc/command-center/internal/core/domain"
	"github.com/glcc/command-center/internal/core/ports"
)

const collectionPackages = "packages"

type PackageRepository struct {
	col *mongo.Collection
}

func NewPackageRepository(db *mongo.Database) *PackageRepository {
	return &PackageRepository{col: db.Collection(collectionPackages)}
}

// Create inserts a new package document, assigning its id.
func (r *PackageRepository) Create(ctx context.Context, p *domain.Package) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if p.ID == "" {
		p.ID = primitive.NewObjectID().Hex()
	}
	if _, err := r.col.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicatePackage
		}
		return err
	}
	return nil
}

func (r *PackageRepository) FindByID(ctx context.Context, id string) (*domain.Package, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var p domain.Package
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPackageNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PackageRepository) FindByTrackingNumber(ctx context.Context, trackingNumber string) (*domain.Package, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var p domain.Package
	if err := r.col.FindOne(ctx, bson.M{"tracking_number": trackingNumber}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPackageNotFound
		}
		return nil, err
	}
	return &p, nil
}

// List returns packages ordered by creation time, newest first.
func (r *PackageRepository) List(ctx context.Context, filter ports.ListPackagesFilter) ([]*domain.Package, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := bson.M{}
	if filter.ActiveOnly {
		query["active"] = true
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(filter.Skip))
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var packages []*domain.Package
	if err := cursor.All(ctx, &packages); err != nil {
		return nil, err
	}
	return packages, nil
}

// Update applies the user-editable fields and returns the updated document.
func (r *PackageRepository) Update(ctx context.Context, id string, upd ports.PackageUpdate) (*domain.Package, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Alias != nil {
		set["alias"] = *upd.Alias
	}
	if upd.Active != nil {
		set["active"] = *upd.Active
	}
	if upd.NotifyEnabled != nil {
		set["notify_enabled"] = *upd.NotifyEnabled
	}

	var p domain.Package
	err := r.col.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPackageNotFound
		}
		return nil, err
	}
	return &p, nil
}

// UpdateStatus atomically records a successful lookup and resets the
// consecutive not-found counter.
func (r *PackageRepository) UpdateStatus(ctx context.Context, id string, status domain.PackageStatus, trackingData string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"last_status":      status,
		"tracking_data":    trackingData,
		"not_found_streak": 0,
		"updated_at":       time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrPackageNotFound
	}
	return nil
}

// MarkNotFound stores the consecutive miss count, deactivating the package
// when the policy says so.
func (r *PackageRepository) MarkNotFound(ctx context.Context, id string, streak int, active bool) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"not_found_streak": streak,
		"active":           active,
		"updated_at":       time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrPackageNotFound
	}
	return nil
}

func (r *PackageRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrPackageNotFound
	}
	return nil
}

// EnsureIndexes creates the necessary indexes on the packages collection.
// tracking_number is unique: one package per shipment.
func (r *PackageRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "tracking_number", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "active", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
