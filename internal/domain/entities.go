package domain

import "time"

// Slot is one of the two fixed daily delivery windows.
type Slot string

const (
	SlotMorning Slot = "morning"
	SlotEvening Slot = "evening"
)

// Article is one harvested document. URL is globally unique across sources.
type Article struct {
	ID            int64
	URL           string
	Source        string
	Title         string
	Content       string
	PublishedAt   time.Time
	DateInferred  bool
	HTMLObjectKey string
	CollectedAt   time.Time

	// RawHTML is carried between the crawl and store stages for archival
	// and is never persisted in the database row itself.
	RawHTML string
}

// Summary is the synthesized digest for one calendar date.
type Summary struct {
	ID          int64
	Date        time.Time
	Title       string
	Text        string
	NewsCount   int
	Theme       string
	ObjectKey   string
	GeneratedAt time.Time
}

// Preference holds one subscriber's delivery settings. Absence of a record
// is a meaningful state: such recipients receive the morning run only.
type Preference struct {
	Email         string
	Subscribed    bool
	PreferredSlot Slot
	UpdatedAt     time.Time
}

// DeliveryStatus marks the outcome of one send attempt.
type DeliveryStatus string

const (
	DeliverySent   DeliveryStatus = "sent"
	DeliveryFailed DeliveryStatus = "failed"
)

// DeliveryRecord is one row of the append-only delivery log.
type DeliveryRecord struct {
	SummaryDate time.Time
	Recipient   string
	Status      DeliveryStatus
	Error       string
	CreatedAt   time.Time
}

// RunJob is one trigger event: the nominal hour selects the delivery slot.
type RunJob struct {
	Hour int       `json:"hour"`
	Date time.Time `json:"date"`
}
