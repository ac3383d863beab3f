// Package analytics aggregates diary emotions into per-unit statistics,
// trends and alerts.
package analytics
