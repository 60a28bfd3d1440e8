package domain

const (
	TontineStatusForming   = "forming"
	TontineStatusActive    = "active"
	TontineStatusCompleted = "completed"
	TontineStatusCancelled = "cancelled"
)

const (
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
)

const (
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
	InviteStatusDeclined = "declined"
	InviteStatusExpired  = "expired"
)

const (
	ContributionStatusPending   = "pending"
	ContributionStatusCompleted = "completed"
	ContributionStatusLate      = "late"
)

const (
	PayoutStatusPending = "pending"
	PayoutStatusPaid    = "paid"
)

// ValidFrequency reports whether f is one of the supported contribution cycles.
func ValidFrequency(f string) bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}
