// Package constants centralizes database table names so models and
// migrations cannot drift apart.
package constants

const (
	TablePlans               = "plans"
	TableSubscriptions       = "subscriptions"
	TableSubscriptionHistory = "subscription_history"
	TablePayments            = "payments"
	TablePlanRequests        = "plan_requests"
	TableUsagePeriods        = "usage_periods"
)
