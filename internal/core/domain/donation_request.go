package domain

import "time"

type RequestStatus string

const (
	RequestPending    RequestStatus = "pending"
	RequestInProgress RequestStatus = "inprogress"
	RequestDone       RequestStatus = "done"
	RequestCanceled   RequestStatus = "canceled"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestInProgress, RequestDone, RequestCanceled:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further lifecycle step is expected from s.
func (s RequestStatus) Terminal() bool {
	return s == RequestDone || s == RequestCanceled
}

func ParseRequestStatus(s string) (RequestStatus, error) {
	st := RequestStatus(s)
	if !st.Valid() {
		return "", Validation("unknown donation request status " + quote(s))
	}
	return st, nil
}

type DonationRequest struct {
	ID             string        `bson:"_id,omitempty" json:"_id,omitempty"`
	RequesterName  string        `bson:"requesterName,omitempty" json:"requesterName,omitempty"`
	RequesterEmail string        `bson:"requesterEmail" json:"requesterEmail"`
	RecipientName  string        `bson:"recipientName" json:"recipientName"`
	District       string        `bson:"district" json:"district"`
	Upazila        string        `bson:"upazila" json:"upazila"`
	HospitalName   string        `bson:"hospitalName,omitempty" json:"hospitalName,omitempty"`
	FullAddress    string        `bson:"fullAddress,omitempty" json:"fullAddress,omitempty"`
	BloodGroup     string        `bson:"bloodGroup" json:"bloodGroup"`
	DonationDate   string        `bson:"donationDate" json:"donationDate"`
	DonationTime   string        `bson:"donationTime" json:"donationTime"`
	RequestMessage string        `bson:"requestMessage,omitempty" json:"requestMessage,omitempty"`
	Status         RequestStatus `bson:"status" json:"status"`
	DonorName      string        `bson:"donorName,omitempty" json:"donorName,omitempty"`
	DonorEmail     string        `bson:"donorEmail,omitempty" json:"donorEmail,omitempty"`
	CreatedAt      time.Time     `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
}

// RequestPatch carries the editable fields of a request. Nil fields are left
// untouched. Status is not editable here; it only moves through ChangeStatus.
type RequestPatch struct {
	RecipientName  *string `bson:"recipientName,omitempty" json:"recipientName,omitempty"`
	District       *string `bson:"district,omitempty" json:"district,omitempty"`
	Upazila        *string `bson:"upazila,omitempty" json:"upazila,omitempty"`
	HospitalName   *string `bson:"hospitalName,omitempty" json:"hospitalName,omitempty"`
	FullAddress    *string `bson:"fullAddress,omitempty" json:"fullAddress,omitempty"`
	BloodGroup     *string `bson:"bloodGroup,omitempty" json:"bloodGroup,omitempty"`
	DonationDate   *string `bson:"donationDate,omitempty" json:"donationDate,omitempty"`
	DonationTime   *string `bson:"donationTime,omitempty" json:"donationTime,omitempty"`
	RequestMessage *string `bson:"requestMessage,omitempty" json:"requestMessage,omitempty"`
}

func (p RequestPatch) Empty() bool {
	return p == RequestPatch{}
}

// RequestFilter narrows a listing. Zero-valued fields do not filter.
type RequestFilter struct {
	RequesterEmail string
	Status         RequestStatus
	BloodGroup     string
	District       string
	Upazila        string
}

// DonorAssignment records who took a pending request.
type DonorAssignment struct {
	DonorName  string `bson:"donorName"`
	DonorEmail string `bson:"donorEmail"`
}
