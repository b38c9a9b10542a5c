package models

import "time"

// Plan is a purchased tier. It determines the photo allowance for a
// submission and how long a finished gift stays viewable.
type Plan string

const (
	PlanMomentum    Plan = "momentum"
	PlanEverlasting Plan = "everlasting"
)

func (p Plan) Valid() bool {
	return p == PlanMomentum || p == PlanEverlasting
}

// AccessWindow is the viewability window granted when a gift of this
// plan is completed.
func (p Plan) AccessWindow() time.Duration {
	switch p {
	case PlanEverlasting:
		return 14 * 24 * time.Hour
	default:
		return 7 * 24 * time.Hour
	}
}

func (p Plan) PhotoLimit() int {
	if p == PlanEverlasting {
		return 50
	}
	return 4
}

// RevisionLimit is how many times the purchaser may ask for the song to
// be redone after delivery.
func (p Plan) RevisionLimit() int {
	if p == PlanEverlasting {
		return 2
	}
	return 0
}

type Occasion string

const (
	OccasionBirthday    Occasion = "birthday"
	OccasionAnniversary Occasion = "anniversary"
	OccasionValentines  Occasion = "valentines"
)

func (o Occasion) Valid() bool {
	switch o {
	case OccasionBirthday, OccasionAnniversary, OccasionValentines:
		return true
	}
	return false
}
