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

const paymentNotFound = "Payment not found"

type paymentDocument struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	OrderID       string             `bson:"orderId"`
	Amount        float64            `bson:"amount"`
	Currency      string             `bson:"currency"`
	PaymentMethod string             `bson:"paymentMethod"`
	Status        string             `bson:"status"`
	CustomerID    string             `bson:"customerId"`
	Description   string             `bson:"description,omitempty"`
	TransactionID string             `bson:"transactionId,omitempty"`
	FailureReason string             `bson:"failureReason,omitempty"`
	Metadata      bson.M             `bson:"metadata,omitempty"`
	ProcessedAt   *time.Time         `bson:"processedAt,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
}

func newPaymentDocument(p *domain.Payment) paymentDocument {
	return paymentDocument{
		OrderID:       p.OrderID,
		Amount:        p.Amount,
		Currency:      p.Currency,
		PaymentMethod: string(p.Method),
		Status:        string(p.Status),
		CustomerID:    p.CustomerID,
		Description:   p.Description,
		TransactionID: p.TransactionID,
		FailureReason: p.FailureReason,
		Metadata:      p.Metadata,
		ProcessedAt:   p.ProcessedAt,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func (d paymentDocument) toDomain() domain.Payment {
	return domain.Payment{
		ID:            d.ID.Hex(),
		OrderID:       d.OrderID,
		Amount:        d.Amount,
		Currency:      d.Currency,
		Method:        domain.PaymentMethod(d.PaymentMethod),
		Status:        domain.PaymentStatus(d.Status),
		CustomerID:    d.CustomerID,
		Description:   d.Description,
		TransactionID: d.TransactionID,
		FailureReason: d.FailureReason,
		Metadata:      d.Metadata,
		ProcessedAt:   d.ProcessedAt,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

type refundDocument struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	PaymentID     string             `bson:"paymentId"`
	Amount        float64            `bson:"amount"`
	Reason        string             `bson:"reason"`
	Status        string             `bson:"status"`
	TransactionID string             `bson:"transactionId,omitempty"`
	FailureReason string             `bson:"failureReason,omitempty"`
	Metadata      bson.M             `bson:"metadata,omitempty"`
	ProcessedAt   *time.Time         `bson:"processedAt,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
}

func (d refundDocument) toDomain() domain.Refund {
	return domain.Refund{
		ID:            d.ID.Hex(),
		PaymentID:     d.PaymentID,
		Amount:        d.Amount,
		Reason:        d.Reason,
		Status:        domain.PaymentStatus(d.Status),
		TransactionID: d.TransactionID,
		FailureReason: d.FailureReason,
		Metadata:      d.Metadata,
		ProcessedAt:   d.ProcessedAt,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

type MongoPaymentRepository struct {
	payments *mongo.Collection
	refunds  *mongo.Collection
}

func NewMongoPaymentRepository(db *mongo.Database) *MongoPaymentRepository {
	return &MongoPaymentRepository{
		payments: db.Collection(mongodb.PaymentsCollection),
		refunds:  db.Collection(mongodb.RefundsCollection),
	}
}

func (r *MongoPaymentRepository) Create(ctx context.Context, payment *domain.Payment) (*domain.Payment, error) {
	doc := newPaymentDocument(payment)

	res, err := r.payments.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperrors.NewConflictError("Payment already exists for this order")
		}
		return nil, fmt.Errorf("inserting payment: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("inserting payment: unexpected id type %T", res.InsertedID)
	}
	doc.ID = oid

	created := doc.toDomain()
	return &created, nil
}

func (r *MongoPaymentRepository) FindByID(ctx context.Context, id string) (*domain.Payment, error) {
	oid, ok := mongodb.ObjectID(id)
	if !ok {
		return nil, apperrors.NewNotFoundError(paymentNotFound)
	}

	var doc paymentDocument
	err := r.payments.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.NewNotFoundError(paymentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying payment: %w", err)
	}

	payment := doc.toDomain()
	return &payment, nil
}

// FindActiveByOrderID returns the most recent payment for orderID that is not
// failed, or nil when there is none.
func (r *MongoPaymentRepository) FindActiveByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	filter := bson.M{
		"orderId": orderID,
		"status":  bson.M{"$ne": string(domain.PaymentStatusFailed)},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	var doc paymentDocument
	err := r.payments.FindOne(ctx, filter, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying payment by order: %w", err)
	}

	payment := doc.toDomain()
	return &payment, nil
}

func (r *MongoPaymentRepository) FindMany(ctx context.Context, filter domain.PaymentFilter) ([]domain.Payment, int64, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = string(filter.Status)
	}
	if filter.Method != "" {
		query["paymentMethod"] = string(filter.Method)
	}
	if filter.CustomerID != "" {
		query["customerId"] = filter.CustomerID
	}
	if filter.OrderID != "" {
		query["orderId"] = filter.OrderID
	}

	total, err := r.payments.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("counting payments: %w", err)
	}

	dir := mongodb.SortDirection(filter.SortOrder)
	opts := options.Find().
		SetSort(bson.D{{Key: filter.SortBy, Value: dir}, {Key: "_id", Value: dir}}).
		SetSkip(filter.Skip()).
		SetLimit(int64(filter.Limit))

	cursor, err := r.payments.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("querying payments: %w", err)
	}

	var docs []paymentDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decoding payments: %w", err)
	}

	payments := make([]domain.Payment, len(docs))
	for i, d := range docs {
		payments[i] = d.toDomain()
	}

	return payments, total, nil
}

// Transition applies update only while the payment is still in expected and
// returns the updated payment. A payment that exists in another status yields
// a ConflictError.
func (r *MongoPaymentRepository) Transition(ctx context.Context, id string, expected domain.PaymentStatus, update domain.PaymentUpdate) (*domain.Payment, error) {
	oid, ok := mongodb.ObjectID(id)
	if !ok {
		return nil, apperrors.NewNotFoundError(paymentNotFound)
	}

	set := bson.M{"updatedAt": update.UpdatedAt}
	if update.Status != nil {
		set["status"] = string(*update.Status)
	}
	if update.TransactionID != nil {
		set["transactionId"] = *update.TransactionID
	}
	if update.FailureReason != nil {
		set["failureReason"] = *update.FailureReason
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.Metadata != nil {
		set["metadata"] = update.Metadata
	}
	if update.ProcessedAt != nil {
		set["processedAt"] = *update.ProcessedAt
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc paymentDocument
	err := r.payments.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "status": string(expected)},
		bson.M{"$set": set},
		opts,
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, r.missOrConflict(ctx, oid)
	}
	if err != nil {
		return nil, fmt.Errorf("updating payment: %w", err)
	}

	payment := doc.toDomain()
	return &payment, nil
}

func (r *MongoPaymentRepository) missOrConflict(ctx context.Context, oid primitive.ObjectID) error {
	n, err := r.payments.CountDocuments(ctx, bson.M{"_id": oid}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("checking payment existence: %w", err)
	}
	if n == 0 {
		return apperrors.NewNotFoundError(paymentNotFound)
	}
	return apperrors.NewConflictError("Payment was modified concurrently, please retry")
}

func (r *MongoPaymentRepository) CreateRefund(ctx context.Context, refund *domain.Refund) (*domain.Refund, error) {
	doc := refundDocument{
		PaymentID:     refund.PaymentID,
		Amount:        refund.Amount,
		Reason:        refund.Reason,
		Status:        string(refund.Status),
		TransactionID: refund.TransactionID,
		FailureReason: refund.FailureReason,
		Metadata:      refund.Metadata,
		ProcessedAt:   refund.ProcessedAt,
		CreatedAt:     refund.CreatedAt,
		UpdatedAt:     refund.UpdatedAt,
	}

	res, err := r.refunds.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("inserting refund: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("inserting refund: unexpected id type %T", res.InsertedID)
	}
	doc.ID = oid

	created := doc.toDomain()
	return &created, nil
}

func (r *MongoPaymentRepository) FindRefundsByPaymentID(ctx context.Context, paymentID string) ([]domain.Refund, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.refunds.Find(ctx, bson.M{"paymentId": paymentID}, opts)
	if err != nil {
		return nil, fmt.Errorf("querying refunds: %w", err)
	}

	var docs []refundDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding refunds: %w", err)
	}

	refunds := make([]domain.Refund, len(docs))
	for i, d := range docs {
		refunds[i] = d.toDomain()
	}
	return refunds, nil
}

type paymentBucket struct {
	Key   string  `bson:"_id"`
	Count int64   `bson:"count"`
	Sum   float64 `bson:"sum"`
}

type paymentFacets struct {
	ByStatus []paymentBucket `bson:"byStatus"`
	ByMethod []paymentBucket `bson:"byMethod"`
}

// Stats aggregates payment totals with status and method breakdowns in a
// single round trip.
func (r *MongoPaymentRepository) Stats(ctx context.Context, customerID string) (*domain.PaymentStats, error) {
	match := bson.M{}
	if customerID != "" {
		match["customerId"] = customerID
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$facet", Value: bson.M{
			"byStatus": bson.A{
				bson.M{"$group": bson.M{"_id": "$status", "count": bson.M{"$sum": 1}, "sum": bson.M{"$sum": "$amount"}}},
			},
			"byMethod": bson.A{
				bson.M{"$group": bson.M{"_id": "$paymentMethod", "count": bson.M{"$sum": 1}}},
			},
		}}},
	}

	cursor, err := r.payments.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregating payment stats: %w", err)
	}

	var facets []paymentFacets
	if err := cursor.All(ctx, &facets); err != nil {
		return nil, fmt.Errorf("decoding payment stats: %w", err)
	}

	stats := &domain.PaymentStats{
		StatusCounts: make(map[domain.PaymentStatus]int64),
		MethodCounts: make(map[domain.PaymentMethod]int64),
	}
	if len(facets) == 0 {
		return stats, nil
	}

	for _, b := range facets[0].ByStatus {
		stats.TotalPayments += b.Count
		stats.TotalAmount += b.Sum
		stats.StatusCounts[domain.PaymentStatus(b.Key)] = b.Count
	}
	for _, b := range facets[0].ByMethod {
		stats.MethodCounts[domain.PaymentMethod(b.Key)] = b.Count
	}
	if stats.TotalPayments > 0 {
		stats.AverageAmount = stats.TotalAmount / float64(stats.TotalPayments)
	}

	return stats, nil
}
