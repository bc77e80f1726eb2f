package users

import (
	"context"
	"sync"
	"time"

	"github.com/docflow/review-service/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepository persists the profiles seen in access tokens.
type UserRepository interface {
	// Upsert stores u by id. CreatedAt is kept from the first write.
	Upsert(ctx context.Context, u *models.User) error
	// GetMany returns the known profiles among ids. Unknown ids are absent.
	GetMany(ctx context.Context, ids []string) (map[string]*models.User, error)
}

// MemoryUserRepository keeps profiles in process.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]models.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: map[string]models.User{}}
}

func (r *MemoryUserRepository) Upsert(ctx context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *u
	if prev, ok := r.users[u.ID]; ok {
		c.CreatedAt = prev.CreatedAt
	} else if c.CreatedAt.IsZero() {
		c.CreatedAt = c.UpdatedAt
	}
	r.users[u.ID] = c
	return nil
}

func (r *MemoryUserRepository) GetMany(ctx context.Context, ids []string) (map[string]*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]*models.User, len(ids))
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			c := u
			out[id] = &c
		}
	}
	return out, nil
}

// MongoUserRepository implements UserRepository using MongoDB. The subject
// is the document _id.
type MongoUserRepository struct {
	col *mongo.Collection
}

// NewMongoUserRepository creates a new repository for the given collection
func NewMongoUserRepository(col *mongo.Collection) *MongoUserRepository {
	return &MongoUserRepository{col: col}
}

func (r *MongoUserRepository) Upsert(ctx context.Context, u *models.User) error {
	now := time.Now().UTC()
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = now
	}
	update := bson.M{
		"$set": bson.M{
			"name":      u.Name,
			"email":     u.Email,
			"role":      u.Role,
			"updatedAt": u.UpdatedAt,
		},
		"$setOnInsert": bson.M{"createdAt": u.UpdatedAt},
	}
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": u.ID}, update, options.Update().SetUpsert(true))
	return err
}

func (r *MongoUserRepository) GetMany(ctx context.Context, ids []string) (map[string]*models.User, error) {
	out := make(map[string]*models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var list []*models.User
	if err := cur.All(ctx, &list); err != nil {
		return nil, err
	}
	for _, u := range list {
		out[u.ID] = u
	}
	return out, nil
}

// PostgresUserRepository implements UserRepository on the users table.
type PostgresUserRepository struct {
	db *pgxpool.Pool
}

func NewPostgresUserRepository(db *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Upsert(ctx context.Context, u *models.User) error {
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (id, name, email, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, email = EXCLUDED.email, role = EXCLUDED.role, updated_at = EXCLUDED.updated_at`,
		u.ID, u.Name, u.Email, string(u.Role), u.UpdatedAt)
	return err
}

func (r *PostgresUserRepository) GetMany(ctx context.Context, ids []string) (map[string]*models.User, error) {
	out := make(map[string]*models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(ctx,
		"SELECT id, name, email, role, created_at, updated_at FROM users WHERE id = ANY($1)", ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var u models.User
		var role string
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		u.Role = models.Role(role)
		out[u.ID] = &u
	}
	return out, rows.Err()
}
