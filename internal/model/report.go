package model

import "time"

// ReportStatus is the lifecycle state of a spam report.
type ReportStatus string

const (
	// ReportStatusOpen marks a report awaiting staff review.
	ReportStatusOpen ReportStatus = "OPEN"
	// ReportStatusResolved is terminal; resolved reports cannot transition.
	ReportStatusResolved ReportStatus = "RESOLVED"
)

// SpamReport is a reporter's fraud claim against one ledger entry. At most
// one open report exists per (reporter, transaction) pair; a repeated
// report from the same reporter retracts the first.
type SpamReport struct {
	Timestamp       time.Time
	ID              string
	TransactionID   string
	ReporterID      string
	ReportedOwnerID string
	Reason          string
	Status          ReportStatus
}
