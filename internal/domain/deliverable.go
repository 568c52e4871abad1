package domain

import "fmt"

// DeliverableKind tells which queue table a deliverable came from.
type DeliverableKind string

const (
	DeliverableItem      DeliverableKind = "item"
	DeliverableScheduled DeliverableKind = "scheduled"
)

// DeliverableRef identifies a queued row.
type DeliverableRef struct {
	Kind DeliverableKind
	ID   int64
}

func (r DeliverableRef) String() string {
	return fmt.Sprintf("%s/%d", r.Kind, r.ID)
}

// Deliverable is a claimed queue row. Exactly one of Item or Scheduled is set.
type Deliverable struct {
	Ref       DeliverableRef
	Item      *DiscoveredItem
	Scheduled *ScheduledContent
}

// Label names the deliverable for logs and metrics.
func (d Deliverable) Label() string {
	if d.Scheduled != nil {
		return string(d.Scheduled.Kind)
	}
	if d.Item != nil {
		return string(d.Item.Category)
	}
	return string(d.Ref.Kind)
}
