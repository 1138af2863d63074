package enums

// SubscriptionStatus mirrors the billing provider's subscription state.
// The raw provider string is persisted as-is; only "active" grants
// dynamic access, every other value (including unknown ones) denies it.
type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusTrialing SubscriptionStatus = "trialing"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
	SubscriptionStatusRevoked  SubscriptionStatus = "revoked"
	SubscriptionStatusUnpaid   SubscriptionStatus = "unpaid"
)

// String implements fmt.Stringer.
func (s SubscriptionStatus) String() string {
	return string(s)
}

// GrantsAccess reports whether the status entitles the user to dynamic
// QR features. Exact, case-sensitive match on "active".
func (s SubscriptionStatus) GrantsAccess() bool {
	return s == SubscriptionStatusActive
}
