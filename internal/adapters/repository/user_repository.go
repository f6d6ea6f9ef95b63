package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/AchilleasB/blood-quest/donation-service/internal/core/domain"
	"github.com/AchilleasB/blood-quest/donation-service/internal/core/ports"
)

type UserRepository struct {
	users *Collection
}

var _ ports.UserRepository = (*UserRepository)(nil)

func NewUserRepository(g *Gateway) *UserRepository {
	return &UserRepository{users: g.Collection(UsersCollection)}
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	if err := r.users.FindOne(ctx, bson.M{"email": email}, &user); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("user not found")
		}
		return nil, err
	}
	if err := checkUser(user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Insert(ctx context.Context, user domain.User) error {
	_, err := r.users.InsertOne(ctx, user)
	return err
}

// List returns all users, or only those with status when it is set.
func (r *UserRepository) List(ctx context.Context, status domain.UserStatus) ([]domain.User, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	users := []domain.User{}
	if err := r.users.Find(ctx, filter, &users); err != nil {
		return nil, err
	}
	for _, u := range users {
		if err := checkUser(u); err != nil {
			return nil, err
		}
	}
	return users, nil
}

// UpsertProfile writes only the non-empty profile fields.
func (r *UserRepository) UpsertProfile(ctx context.Context, email string, p domain.Profile) error {
	set := bson.M{}
	setIf(set, "name", p.Name)
	setIf(set, "avatar", p.Avatar)
	setIf(set, "bloodGroup", p.BloodGroup)
	setIf(set, "district", p.District)
	setIf(set, "upazila", p.Upazila)
	if len(set) == 0 {
		return domain.Validation("nothing to update")
	}

	_, err := r.users.UpdateOne(ctx, bson.M{"email": email}, bson.M{"$set": set}, true)
	return err
}

func (r *UserRepository) SetStatus(ctx context.Context, email string, status domain.UserStatus) error {
	if !status.Valid() {
		return domain.Validation("unknown user status " + string(status))
	}
	return r.setField(ctx, email, "status", status)
}

func (r *UserRepository) SetRole(ctx context.Context, email string, role domain.Role) error {
	if !role.Valid() {
		return domain.Validation("unknown role " + string(role))
	}
	return r.setField(ctx, email, "role", role)
}

func (r *UserRepository) CountByRole(ctx context.Context, role domain.Role) (int64, error) {
	return r.users.CountDocuments(ctx, bson.M{"role": role})
}

func (r *UserRepository) setField(ctx context.Context, email, field string, value any) error {
	matched, err := r.users.UpdateOne(ctx, bson.M{"email": email}, bson.M{"$set": bson.M{field: value}}, false)
	if err != nil {
		return err
	}
	if matched == 0 {
		return domain.NotFound("user not found")
	}
	return nil
}

// checkUser rejects stored values outside the closed role and status sets.
func checkUser(u domain.User) error {
	if !u.Role.Valid() || !u.Status.Valid() {
		return domain.Upstream("corrupt user record "+u.Email, errors.New("role or status outside the allowed values"))
	}
	return nil
}

func setIf(m bson.M, key, value string) {
	if value != "" {
		m[key] = value
	}
}
