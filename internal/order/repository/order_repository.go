package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/domain"
	apperrors "storefront/internal/errors"
	"storefront/internal/infrastructure/mongodb"
)

const orderNotFound = "Order not found"

type orderItemDocument struct {
	ProductID string  `bson:"productId"`
	Name      string  `bson:"name"`
	Price     float64 `bson:"price"`
	Quantity  int     `bson:"quantity"`
	Total     float64 `bson:"total"`
}

type addressDocument struct {
	Street  string `bson:"street"`
	City    string `bson:"city"`
	State   string `bson:"state"`
	ZipCode string `bson:"zipCode"`
	Country string `bson:"country"`
}

type orderDocument struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty"`
	OrderNumber     string              `bson:"orderNumber"`
	CustomerID      string              `bson:"customerId"`
	Items           []orderItemDocument `bson:"items"`
	Status          string              `bson:"status"`
	Subtotal        float64             `bson:"subtotal"`
	Tax             float64             `bson:"tax"`
	Shipping        float64             `bson:"shipping"`
	Total           float64             `bson:"total"`
	ShippingAddress addressDocument     `bson:"shippingAddress"`
	Notes           string              `bson:"notes,omitempty"`
	CreatedAt       time.Time           `bson:"createdAt"`
	UpdatedAt       time.Time           `bson:"updatedAt"`
}

func newOrderDocument(o *domain.Order) orderDocument {
	items := make([]orderItemDocument, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemDocument(it)
	}

	return orderDocument{
		OrderNumber:     o.OrderNumber,
		CustomerID:      o.CustomerID,
		Items:           items,
		Status:          string(o.Status),
		Subtotal:        o.Subtotal,
		Tax:             o.Tax,
		Shipping:        o.Shipping,
		Total:           o.Total,
		ShippingAddress: addressDocument(o.ShippingAddress),
		Notes:           o.Notes,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func (d orderDocument) toDomain() domain.Order {
	items := make([]domain.OrderItem, len(d.Items))
	for i, it := range d.Items {
		items[i] = domain.OrderItem(it)
	}

	return domain.Order{
		ID:              d.ID.Hex(),
		OrderNumber:     d.OrderNumber,
		CustomerID:      d.CustomerID,
		Items:           items,
		Status:          domain.OrderStatus(d.Status),
		Subtotal:        d.Subtotal,
		Tax:             d.Tax,
		Shipping:        d.Shipping,
		Total:           d.Total,
		ShippingAddress: domain.ShippingAddress(d.ShippingAddress),
		Notes:           d.Notes,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

type MongoOrderRepository struct {
	collection *mongo.Collection
}

func NewMongoOrderRepository(db *mongo.Database) *MongoOrderRepository {
	return &MongoOrderRepository{collection: db.Collection(mongodb.OrdersCollection)}
}

func (r *MongoOrderRepository) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	doc := newOrderDocument(order)

	res, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperrors.NewConflictError("Order number already exists")
		}
		return nil, fmt.Errorf("inserting order: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("inserting order: unexpected id type %T", res.InsertedID)
	}
	doc.ID = oid

	created := doc.toDomain()
	return &created, nil
}

func (r *MongoOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	oid, ok := mongodb.ObjectID(id)
	if !ok {
		return nil, apperrors.NewNotFoundError(orderNotFound)
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *MongoOrderRepository) findOne(ctx context.Context, filter bson.M) (*domain.Order, error) {
	var doc orderDocument
	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.NewNotFoundError(orderNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying order: %w", err)
	}

	order := doc.toDomain()
	return &order, nil
}

func (r *MongoOrderRepository) FindMany(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int64, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = string(filter.Status)
	}
	if filter.CustomerID != "" {
		query["customerId"] = filter.CustomerID
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("counting orders: %w", err)
	}

	dir := mongodb.SortDirection(filter.SortOrder)
	opts := options.Find().
		SetSort(bson.D{{Key: filter.SortBy, Value: dir}, {Key: "_id", Value: dir}}).
		SetSkip(filter.Skip()).
		SetLimit(int64(filter.Limit))

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("querying orders: %w", err)
	}

	var docs []orderDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decoding orders: %w", err)
	}

	orders := make([]domain.Order, len(docs))
	for i, d := range docs {
		orders[i] = d.toDomain()
	}

	return orders, total, nil
}

// ApplyUpdate writes update only if the order is still in expected. When the
// order has moved on in the meantime a ConflictError is returned.
func (r *MongoOrderRepository) ApplyUpdate(ctx context.Context, id string, expected domain.OrderStatus, update domain.OrderUpdate) (*domain.Order, error) {
	oid, ok := mongodb.ObjectID(id)
	if !ok {
		return nil, apperrors.NewNotFoundError(orderNotFound)
	}

	set := bson.M{"updatedAt": update.UpdatedAt}
	if update.Status != nil {
		set["status"] = string(*update.Status)
	}
	if update.Notes != nil {
		set["notes"] = *update.Notes
	}
	if update.ShippingAddress != nil {
		set["shippingAddress"] = addressDocument(*update.ShippingAddress)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc orderDocument
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "status": string(expected)},
		bson.M{"$set": set},
		opts,
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, r.missOrConflict(ctx, oid)
	}
	if err != nil {
		return nil, fmt.Errorf("updating order: %w", err)
	}

	order := doc.toDomain()
	return &order, nil
}

func (r *MongoOrderRepository) missOrConflict(ctx context.Context, oid primitive.ObjectID) error {
	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": oid}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("checking order existence: %w", err)
	}
	if n == 0 {
		return apperrors.NewNotFoundError(orderNotFound)
	}
	return apperrors.NewConflictError("Order was modified concurrently, please retry")
}

func (r *MongoOrderRepository) Delete(ctx context.Context, id string) error {
	oid, ok := mongodb.ObjectID(id)
	if !ok {
		return apperrors.NewNotFoundError(orderNotFound)
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("deleting order: %w", err)
	}
	if res.DeletedCount == 0 {
		return apperrors.NewNotFoundError(orderNotFound)
	}
	return nil
}

type statusBucket struct {
	Status string  `bson:"_id"`
	Count  int64   `bson:"count"`
	Sum    float64 `bson:"sum"`
}

// Stats aggregates order counts and revenue per status, optionally for one
// customer.
func (r *MongoOrderRepository) Stats(ctx context.Context, customerID string) (*domain.OrderStats, error) {
	match := bson.M{}
	if customerID != "" {
		match["customerId"] = customerID
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$status",
			"count": bson.M{"$sum": 1},
			"sum":   bson.M{"$sum": "$total"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregating order stats: %w", err)
	}

	var buckets []statusBucket
	if err := cursor.All(ctx, &buckets); err != nil {
		return nil, fmt.Errorf("decoding order stats: %w", err)
	}

	stats := &domain.OrderStats{StatusCounts: make(map[domain.OrderStatus]int64)}
	for _, b := range buckets {
		stats.TotalOrders += b.Count
		stats.TotalRevenue += b.Sum
		stats.StatusCounts[domain.OrderStatus(b.Status)] = b.Count
	}
	if stats.TotalOrders > 0 {
		stats.AverageOrderValue = stats.TotalRevenue / float64(stats.TotalOrders)
	}

	return stats, nil
}
