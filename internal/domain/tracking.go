package domain

import (
	"fmt"
	"strings"
	"time"
)

type PackageStatus string

const (
	StatusCreated  PackageStatus = "CREATED"
	StatusSent     PackageStatus = "SENT"
	StatusReceived PackageStatus = "RECEIVED"
	StatusDone     PackageStatus = "DONE"
	StatusReturned PackageStatus = "RETURNED"
)

// DefaultPollStatuses are the statuses polled when no filter is given.
var DefaultPollStatuses = []PackageStatus{StatusSent, StatusReceived}

func ParsePackageStatus(s string) (PackageStatus, error) {
	switch PackageStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusCreated:
		return StatusCreated, nil
	case StatusSent:
		return StatusSent, nil
	case StatusReceived:
		return StatusReceived, nil
	case StatusDone:
		return StatusDone, nil
	case StatusReturned:
		return StatusReturned, nil
	}
	return "", fmt.Errorf("unknown package status %q", s)
}

// RepollDelay is the minimum age of last_tracking_update before a package
// in the given status becomes eligible for another provider poll. There is
// no upper bound: a package staler than the delay stays eligible until it
// is actually polled.
func RepollDelay(status PackageStatus) time.Duration {
	switch status {
	case StatusSent:
		return 3 * time.Hour
	case StatusReceived:
		return 12 * time.Hour
	default:
		return 12 * time.Hour
	}
}

// Package is the tracked shipment as the order platform stores it. Only
// TrackingNumber, Status and LastTrackingUpdate matter to the sync
// pipeline; the rest of the row belongs to the order domain.
type Package struct {
	ID                 int64
	TrackingNumber     *string
	Status             PackageStatus
	LastTrackingUpdate *time.Time
}

// Trackable reports whether the package can be polled at all.
func (p Package) Trackable() bool {
	return p.TrackingNumber != nil && *p.TrackingNumber != ""
}

// TrackingEvent is one historical operation reported by the postal
// provider. Rows are append-only and deduplicated by
// (PackageID, OperationDate, OperationTypeID, ItemBarcode).
type TrackingEvent struct {
	PackageID        int64
	OperationDate    time.Time
	OperationTypeID  int
	OperationType    string
	OperationAttrID  int
	OperationAttr    string
	IndexFrom        string
	IndexTo          string
	AddressTo        string
	CountryFrom      string
	CountryTo        string
	ItemBarcode      string
	MassGrams        int64
	PaymentMinor     int64
	DeclaredValMinor int64
}

// PostalOrderEvent is one cash-on-delivery money transfer event tied to a
// shipment. Append-only, deduplicated by (Number, EventDateTime, EventTypeID).
type PostalOrderEvent struct {
	PackageID         int64
	Number            string
	EventDateTime     time.Time
	EventTypeID       int
	EventName         string
	IndexTo           string
	IndexEvent        string
	SumPaymentForward int64
	CountryFromID     int
	CountryToID       int
}

// TrackingBundle is everything one provider poll yields for a package.
type TrackingBundle struct {
	History      []TrackingEvent
	PostalOrders []PostalOrderEvent
}
