package domain

import (
	"math"
	"regexp"
	"strconv"
	"time"
)

// Fund is an append-only record of a completed payment. Amount keeps the
// decimal text the client submitted; aggregation coerces it to a double.
type Fund struct {
	ID            string    `bson:"_id,omitempty" json:"_id,omitempty"`
	Amount        string    `bson:"amount" json:"amount"`
	DonorEmail    string    `bson:"donorEmail" json:"donorEmail"`
	DonorName     string    `bson:"donorName,omitempty" json:"donorName,omitempty"`
	TransactionID string    `bson:"transactionId,omitempty" json:"transactionId,omitempty"`
	Timestamp     time.Time `bson:"timestamp" json:"timestamp"`
}

type Dashboard struct {
	TotalUsers         int64   `json:"totalUsers"`
	TotalFundingAmount float64 `json:"totalFundingAmount"`
	TotalRequests      int64   `json:"totalRequests"`
}

// decimalAmount is the only text form the document store's $convert reads
// back as the same double.
var decimalAmount = regexp.MustCompile(`^\d+(\.\d+)?$`)

// ParseAmount reads a positive fund amount written as plain base-10 text,
// such as "25" or "10.50".
func ParseAmount(s string) (float64, error) {
	if !decimalAmount.MatchString(s) {
		return 0, Validation("amount must be a positive decimal number")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || v <= 0 {
		return 0, Validation("amount must be a positive decimal number")
	}
	return v, nil
}
