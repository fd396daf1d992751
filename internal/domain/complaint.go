package domain

import "time"

// ComplaintStatus enumerates complaint states.
type ComplaintStatus string

const (
	ComplaintStatusPending  ComplaintStatus = "pending"
	ComplaintStatusResolved ComplaintStatus = "resolved"
)

// Valid reports whether s is a known status.
func (s ComplaintStatus) Valid() bool {
	return s == ComplaintStatusPending || s == ComplaintStatusResolved
}

// ComplaintPriority enumerates handling urgency.
type ComplaintPriority string

const (
	ComplaintPriorityLow    ComplaintPriority = "low"
	ComplaintPriorityMedium ComplaintPriority = "medium"
	ComplaintPriorityHigh   ComplaintPriority = "high"
)

// Valid reports whether p is a known priority.
func (p ComplaintPriority) Valid() bool {
	switch p {
	case ComplaintPriorityLow, ComplaintPriorityMedium, ComplaintPriorityHigh:
		return true
	}
	return false
}

// RiskCategory is the assessed risk of a complaint.
type RiskCategory string

const (
	RiskLow      RiskCategory = "low"
	RiskMedium   RiskCategory = "medium"
	RiskHigh     RiskCategory = "high"
	RiskCritical RiskCategory = "critical"
)

// Valid reports whether c is a known risk category.
func (c RiskCategory) Valid() bool {
	switch c {
	case RiskLow, RiskMedium, RiskHigh, RiskCritical:
		return true
	}
	return false
}

// Priority collapses the risk category onto the three-level priority scale.
func (c RiskCategory) Priority() ComplaintPriority {
	if c == RiskCritical {
		return ComplaintPriorityHigh
	}
	return ComplaintPriority(c)
}

// Complaint is an issue reported by or on behalf of a resident.
type Complaint struct {
	ID                   string
	ResidentID           string
	Title                string
	Category             string
	DateOfReport         *time.Time
	LocationOfIncident   string
	Content              string
	Priority             ComplaintPriority
	PriorityRiskCategory RiskCategory
	SitioID              *string
	Status               ComplaintStatus
	ResolutionNote       *string
	ResolvedBy           *string
	ResolvedAt           *time.Time
	ResolutionImage      *string
	CreatedAt            time.Time
	UpdatedAt            time.Time

	Resident    *UserSummary
	Resolver    *UserSummary
	Attachments []Attachment
}

// SetPriority changes the handling priority and keeps the risk category on
// the same level. A critical risk survives a change to high.
func (c *Complaint) SetPriority(p ComplaintPriority) {
	c.Priority = p
	if c.PriorityRiskCategory.Priority() != p {
		c.PriorityRiskCategory = RiskCategory(p)
	}
}

// ToggleResolution flips between resolved and pending. Resolving stamps the
// resolver, time and optional image; reverting clears them. The note is kept
// in both directions.
func (c *Complaint) ToggleResolution(actorID, note string, image *string, at time.Time) {
	c.ResolutionNote = &note
	if c.Status == ComplaintStatusResolved {
		c.Status = ComplaintStatusPending
		c.ResolvedBy = nil
		c.ResolvedAt = nil
		c.ResolutionImage = nil
		return
	}
	c.Status = ComplaintStatusResolved
	c.ResolvedBy = &actorID
	c.ResolvedAt = &at
	c.ResolutionImage = image
}

// Attachment references a file stored for a complaint.
type Attachment struct {
	ID          string
	ComplaintID string
	StorageKey  string
	FileName    string
	MimeType    string
	SizeBytes   int64
	CreatedAt   time.Time
}
