package domain

import "time"

// PlanLine is one (batch, quantity) step of a reservation plan.
type PlanLine struct {
	BatchID  string
	Quantity int
}

// Plan is the FEFO selection for one request. It is a hint: stock is only
// claimed when the plan is committed.
type Plan struct {
	ProductID   int
	WarehouseID int
	Quantity    int
	Lines       []PlanLine
}

func (p Plan) Total() int {
	total := 0
	for _, l := range p.Lines {
		total += l.Quantity
	}
	return total
}

type ReservationStatus string

const (
	ReservationCommitted ReservationStatus = "COMMITTED"
	ReservationFulfilled ReservationStatus = "FULFILLED"
	ReservationCancelled ReservationStatus = "CANCELLED"
)

func (s ReservationStatus) IsTerminal() bool {
	return s == ReservationFulfilled || s == ReservationCancelled
}

// Reservation is a committed plan, tracked by ID until it is fulfilled or
// cancelled.
type Reservation struct {
	ID          string
	ProductID   int
	WarehouseID int
	Quantity    int
	Lines       []PlanLine
	Status      ReservationStatus
	ExpiresAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (r Reservation) Plan() Plan {
	return Plan{
		ProductID:   r.ProductID,
		WarehouseID: r.WarehouseID,
		Quantity:    r.Quantity,
		Lines:       r.Lines,
	}
}

func (r Reservation) IsExpired(now time.Time) bool {
	return r.Status == ReservationCommitted && r.ExpiresAt != nil && !now.Before(*r.ExpiresAt)
}
