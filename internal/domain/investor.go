package domain

import "time"

// KycStatus is the verification state of an investor's KYC submission.
type KycStatus string

// KYC status constants.
const (
	KycStatusPending  KycStatus = "PENDING"
	KycStatusInReview KycStatus = "IN_REVIEW"
	KycStatusApproved KycStatus = "APPROVED"
	KycStatusRejected KycStatus = "REJECTED"
)

// Decided reports whether an admin decision has already been recorded.
// APPROVED and REJECTED are terminal at the dashboard layer; the core API
// remains the real gate.
func (s KycStatus) Decided() bool {
	return s == KycStatusApproved || s == KycStatusRejected
}

// Valid reports whether the value is a known KYC status.
func (s KycStatus) Valid() bool {
	switch s {
	case KycStatusPending, KycStatusInReview, KycStatusApproved, KycStatusRejected:
		return true
	}
	return false
}

// ValidKycStatuses returns all known KYC statuses.
func ValidKycStatuses() []KycStatus {
	return []KycStatus{KycStatusPending, KycStatusInReview, KycStatusApproved, KycStatusRejected}
}

// KycData holds the identity documents and review trail of a KYC submission.
type KycData struct {
	FullName         string     `json:"fullName,omitempty"`
	Nationality      string     `json:"nationality,omitempty"`
	BirthDate        string     `json:"birthDate,omitempty"`
	DocumentFrontURL string     `json:"documentFrontUrl,omitempty"`
	DocumentBackURL  string     `json:"documentBackUrl,omitempty"`
	SelfieURL        string     `json:"selfieUrl,omitempty"`
	SubmittedAt      *time.Time `json:"submittedAt,omitempty"`
	ReviewedAt       *time.Time `json:"reviewedAt,omitempty"`
	ReviewComment    string     `json:"reviewComment,omitempty"`
}

// Investor is a platform user who invests in projects and goes through KYC.
type Investor struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	Phone          string    `json:"phone,omitempty"`
	DocumentType   string    `json:"documentType"`
	DocumentNumber string    `json:"documentNumber"`
	WalletAddress  string    `json:"walletAddress,omitempty"`
	KycStatus      KycStatus `json:"kycStatus"`
	KycData        *KycData  `json:"kycData,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Reviewable reports whether the dashboard should offer approve/reject actions.
func (i *Investor) Reviewable() bool {
	return !i.KycStatus.Decided()
}
