// Package routing maps an authenticated account to its landing destination.
package routing

import "github.com/korelearn/tutor-management/internal/core/datamodel/account"

type Destination string

const (
	DestStudentDashboard    Destination = "/dashboard"
	DestTutorDashboard      Destination = "/tutor/dashboard"
	DestTutorPendingReview  Destination = "/tutor/dashboard?view=pending_review"
	DestRegistrationPayment Destination = "/tutor/register/payment"
)

// Resolve is pure and total: every (role, tutorStatus) pair yields exactly
// one destination and unknown roles fall back to the student dashboard. It
// is called after authentication with a freshly fetched account.
func Resolve(role, tutorStatus string) Destination {
	switch role {
	case account.RoleTutor, account.RoleTutorApplicant:
		switch tutorStatus {
		case account.StatusApproved:
			return DestTutorDashboard
		case account.StatusPendingReview:
			return DestTutorPendingReview
		case account.StatusPendingPayment:
			return DestRegistrationPayment
		default:
			return DestTutorDashboard
		}
	case account.RoleStudent:
		return DestStudentDashboard
	default:
		return DestStudentDashboard
	}
}
