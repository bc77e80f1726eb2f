package repository

import (
	"context"
	"errors"

	"github.com/docflow/review-service/internal/document"
	ierr "github.com/docflow/review-service/internal/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo implements Store on MongoDB. WithDocument runs in a session
// transaction (replica set required) whose first write bumps the document's
// version, so a second transaction on the same document hits a write
// conflict and is retried by the driver against the committed state.
type MongoRepo struct {
	docs      *mongo.Collection
	approvals *mongo.Collection
}

func NewMongoRepo(db *mongo.Database) *MongoRepo {
	return &MongoRepo{
		docs:      db.Collection("documents"),
		approvals: db.Collection("approvals"),
	}
}

// EnsureIndexes creates the uniqueness constraint on (documentId, approverId)
// and the listing indexes. Safe to call repeatedly.
func (m *MongoRepo) EnsureIndexes(ctx context.Context) error {
	_, err := m.approvals.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "documentId", Value: 1}, {Key: "approverId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uq_approvals_document_approver"),
		},
		{Keys: bson.D{{Key: "approverId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return mongoError("create approval indexes", err)
	}
	_, err = m.docs.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "creatorId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return mongoError("create document indexes", err)
	}
	return nil
}

func (m *MongoRepo) Ping(ctx context.Context) error {
	if err := m.docs.Database().Client().Ping(ctx, nil); err != nil {
		return mongoError("ping", err)
	}
	return nil
}

func (m *MongoRepo) CreateDocument(ctx context.Context, d *document.Document) error {
	d.Version = 1
	if _, err := m.docs.InsertOne(ctx, d); err != nil {
		return mongoError("insert document", err)
	}
	return nil
}

func (m *MongoRepo) GetDocument(ctx context.Context, id string) (*document.Document, error) {
	var d document.Document
	if err := m.docs.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, mongoError("get document", err)
	}
	return &d, nil
}

func (m *MongoRepo) ListDocuments(ctx context.Context, f document.Filter) ([]*document.Document, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.CreatorID != "" {
		filter["creatorId"] = f.CreatorID
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := m.docs.Find(ctx, filter, opts)
	if err != nil {
		return nil, mongoError("list documents", err)
	}
	out := []*document.Document{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, mongoError("decode documents", err)
	}
	return out, nil
}

func (m *MongoRepo) GetApproval(ctx context.Context, id string) (*document.Approval, error) {
	var a document.Approval
	if err := m.approvals.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrApprovalNotFound
		}
		return nil, mongoError("get approval", err)
	}
	return &a, nil
}

func (m *MongoRepo) ListApprovals(ctx context.Context, f document.ApprovalFilter) ([]*document.Approval, error) {
	filter := bson.M{}
	if f.DocumentID != "" {
		filter["documentId"] = f.DocumentID
	}
	if f.ApproverID != "" {
		filter["approverId"] = f.ApproverID
	}
	if f.Action != "" {
		filter["action"] = f.Action
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := m.approvals.Find(ctx, filter, opts)
	if err != nil {
		return nil, mongoError("list approvals", err)
	}
	out := []*document.Approval{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, mongoError("decode approvals", err)
	}
	return out, nil
}

func (m *MongoRepo) CountApprovals(ctx context.Context, approverID string) (document.Stats, error) {
	var st document.Stats
	match := bson.M{}
	if approverID != "" {
		match["approverId"] = approverID
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": "$action", "n": bson.M{"$sum": 1}}}},
	}
	cur, err := m.approvals.Aggregate(ctx, pipeline)
	if err != nil {
		return st, mongoError("count approvals", err)
	}
	var groups []struct {
		Action document.Action `bson:"_id"`
		N      int64           `bson:"n"`
	}
	if err := cur.All(ctx, &groups); err != nil {
		return st, mongoError("decode approval counts", err)
	}
	for _, g := range groups {
		switch g.Action {
		case document.ActionApproved:
			st.Approved += g.N
		case document.ActionRejected:
			st.Rejected += g.N
		}
	}
	st.Total = st.Approved + st.Rejected
	return st, nil
}

func (m *MongoRepo) WithDocument(ctx context.Context, id string, fn func(ctx context.Context, tx Tx, doc *document.Document) error) error {
	sess, err := m.docs.Database().Client().StartSession()
	if err != nil {
		return mongoError("start session", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		var doc document.Document
		lock := m.docs.FindOneAndUpdate(sc,
			bson.M{"_id": id},
			bson.M{"$inc": bson.M{"version": 1}},
			options.FindOneAndUpdate().SetReturnDocument(options.After))
		if err := lock.Decode(&doc); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, ErrNotFound
			}
			// transient labels must survive for the driver's retry loop
			return nil, err
		}
		return nil, fn(sc, &mongoTx{repo: m}, &doc)
	})
	if err != nil {
		// business errors from fn are already classified
		if ierr.CodeFromErr(err) != ierr.ErrCodeInternal {
			return err
		}
		return mongoError("transaction", err)
	}
	return nil
}

type mongoTx struct {
	repo *MongoRepo
}

func (t *mongoTx) SaveDocument(ctx context.Context, doc *document.Document) error {
	res, err := t.repo.docs.UpdateOne(ctx,
		bson.M{"_id": doc.ID},
		bson.M{
			"$set": bson.M{"title": doc.Title, "content": doc.Content, "status": doc.Status, "updatedAt": doc.UpdatedAt},
			"$inc": bson.M{"version": 1},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	doc.Version++
	return nil
}

func (t *mongoTx) DeleteDocument(ctx context.Context, id string) error {
	if _, err := t.repo.approvals.DeleteMany(ctx, bson.M{"documentId": id}); err != nil {
		return err
	}
	res, err := t.repo.docs.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *mongoTx) FindApproval(ctx context.Context, documentID, approverID string) (*document.Approval, error) {
	var a document.Approval
	err := t.repo.approvals.FindOne(ctx, bson.M{"documentId": documentID, "approverId": approverID}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (t *mongoTx) InsertApproval(ctx context.Context, a *document.Approval) error {
	_, err := t.repo.approvals.InsertOne(ctx, a)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateDecision
	}
	return err
}

// mongoError classifies a driver error for callers outside a transaction.
func mongoError(op string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateDecision
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.HasErrorLabel("TransientTransactionError") {
		return ierr.WithError(err).WithMessage(op).WithHint("Conflicting write, retry the request").Mark(ierr.ErrConflict)
	}
	return ierr.WithError(err).WithMessage(op).WithHint("Storage temporarily unavailable").Mark(ierr.ErrUnavailable)
}
