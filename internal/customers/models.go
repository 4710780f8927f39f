package customers

import (
	"encoding/json"
	"fmt"
	"time"
)

// Membership is the loyalty tier of a customer.
type Membership string

const (
	MembershipBronze Membership = "bronze"
	MembershipSilver Membership = "silver"
	MembershipGold   Membership = "gold"

	DefaultMembership = MembershipBronze
)

func ParseMembership(s string) (Membership, error) {
	switch m := Membership(s); m {
	case MembershipBronze, MembershipSilver, MembershipGold:
		return m, nil
	}
	return "", fmt.Errorf("unknown membership %q", s)
}

const dateLayout = "2006-01-02"

// Date is a calendar date serialized as YYYY-MM-DD.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

func (d Date) String() string { return d.Format(dateLayout) }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

type Customer struct {
	ID         int64      `json:"id"`
	UserID     string     `json:"user_id"`
	Phone      string     `json:"phone"`
	BirthDate  *Date      `json:"birth_date"`
	Membership Membership `json:"membership"`
}

type CustomerUpdate struct {
	Phone     string `json:"phone" validate:"max=255"`
	BirthDate *Date  `json:"birth_date"`
}
