package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AchilleasB/blood-quest/donation-service/internal/core/domain"
	"github.com/AchilleasB/blood-quest/donation-service/internal/core/ports"
)

type DonationRequestRepository struct {
	requests *Collection
}

var _ ports.DonationRequestRepository = (*DonationRequestRepository)(nil)

func NewDonationRequestRepository(g *Gateway) *DonationRequestRepository {
	return &DonationRequestRepository{requests: g.Collection(RequestsCollection)}
}

var errRequestNotFound = domain.NotFound("donation request not found")

func (r *DonationRequestRepository) Insert(ctx context.Context, req domain.DonationRequest) (string, error) {
	if !req.Status.Valid() {
		return "", domain.Validation("unknown donation request status " + string(req.Status))
	}
	req.ID = ""
	return r.requests.InsertOne(ctx, req)
}

func (r *DonationRequestRepository) FindByID(ctx context.Context, id string) (*domain.DonationRequest, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var req domain.DonationRequest
	if err := r.requests.FindOne(ctx, byID(oid), &req); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, errRequestNotFound
		}
		return nil, err
	}
	if err := checkRequest(req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *DonationRequestRepository) Find(ctx context.Context, f domain.RequestFilter) ([]domain.DonationRequest, error) {
	filter := bson.M{}
	setIf(filter, "requesterEmail", f.RequesterEmail)
	setIf(filter, "status", string(f.Status))
	setIf(filter, "bloodGroup", f.BloodGroup)
	setIf(filter, "district", f.District)
	setIf(filter, "upazila", f.Upazila)
	return r.find(ctx, filter)
}

func (r *DonationRequestRepository) FindRecent(ctx context.Context, requesterEmail string, limit int64) ([]domain.DonationRequest, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "donationDate", Value: -1}}).
		SetLimit(limit)
	return r.find(ctx, bson.M{"requesterEmail": requesterEmail}, opts)
}

func (r *DonationRequestRepository) Update(ctx context.Context, id string, patch domain.RequestPatch) error {
	if patch.Empty() {
		return domain.Validation("nothing to update")
	}
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	matched, err := r.requests.UpdateOne(ctx, byID(oid), bson.M{"$set": patch}, false)
	if err != nil {
		return err
	}
	if matched == 0 {
		return errRequestNotFound
	}
	return nil
}

// UpsertStatus writes status with upsert semantics; a missing document is
// created holding only its id and status.
func (r *DonationRequestRepository) UpsertStatus(ctx context.Context, id string, status domain.RequestStatus) error {
	if !status.Valid() {
		return domain.Validation("unknown donation request status " + string(status))
	}
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	_, err = r.requests.UpdateOne(ctx, byID(oid), bson.M{"$set": bson.M{"status": status}}, true)
	return err
}

func (r *DonationRequestRepository) UpsertDonor(ctx context.Context, id string, donor domain.DonorAssignment, status domain.RequestStatus) error {
	if !status.Valid() {
		return domain.Validation("unknown donation request status " + string(status))
	}
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	update := bson.M{"$set": bson.M{
		"donorName":  donor.DonorName,
		"donorEmail": donor.DonorEmail,
		"status":     status,
	}}
	_, err = r.requests.UpdateOne(ctx, byID(oid), update, true)
	return err
}

func (r *DonationRequestRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	deleted, err := r.requests.DeleteOne(ctx, byID(oid))
	if err != nil {
		return err
	}
	if deleted == 0 {
		return errRequestNotFound
	}
	return nil
}

func (r *DonationRequestRepository) EstimatedCount(ctx context.Context) (int64, error) {
	return r.requests.EstimatedCount(ctx)
}

func (r *DonationRequestRepository) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]domain.DonationRequest, error) {
	out := []domain.DonationRequest{}
	if err := r.requests.Find(ctx, filter, &out, opts...); err != nil {
		return nil, err
	}
	for _, req := range out {
		if err := checkRequest(req); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func checkRequest(req domain.DonationRequest) error {
	if !req.Status.Valid() {
		return domain.Upstream("corrupt donation request "+req.ID, errors.New("status outside the allowed values"))
	}
	return nil
}
