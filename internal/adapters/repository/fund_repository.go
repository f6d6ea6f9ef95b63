package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AchilleasB/blood-quest/donation-service/internal/core/domain"
	"github.com/AchilleasB/blood-quest/donation-service/internal/core/ports"
)

type FundRepository struct {
	funds *Collection
}

var _ ports.FundRepository = (*FundRepository)(nil)

func NewFundRepository(g *Gateway) *FundRepository {
	return &FundRepository{funds: g.Collection(FundsCollection)}
}

func (r *FundRepository) Insert(ctx context.Context, fund domain.Fund) (string, error) {
	fund.ID = ""
	return r.funds.InsertOne(ctx, fund)
}

func (r *FundRepository) List(ctx context.Context) ([]domain.Fund, error) {
	funds := []domain.Fund{}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if err := r.funds.Find(ctx, bson.M{}, &funds, opts); err != nil {
		return nil, err
	}
	return funds, nil
}

// sumAmountsPipeline coerces the text amount to a double. Amounts that do
// not convert count as 0 instead of failing the whole aggregation.
var sumAmountsPipeline = mongo.Pipeline{
	{{Key: "$group", Value: bson.D{
		{Key: "_id", Value: nil},
		{Key: "total", Value: bson.D{{Key: "$sum", Value: bson.D{
			{Key: "$convert", Value: bson.D{
				{Key: "input", Value: "$amount"},
				{Key: "to", Value: "double"},
				{Key: "onError", Value: 0},
				{Key: "onNull", Value: 0},
			}},
		}}}},
	}}},
}

func (r *FundRepository) SumAmounts(ctx context.Context) (float64, error) {
	var rows []struct {
		Total float64 `bson:"total"`
	}
	if err := r.funds.Aggregate(ctx, sumAmountsPipeline, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}
