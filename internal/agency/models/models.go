package models

import (
	"math"
	"time"
)

// Agency owns one or more clients. AgencyID is the caller-chosen identifying key.
type Agency struct {
	AgencyID    string    `json:"agencyId" bson:"agencyId"`
	Name        string    `json:"name" bson:"name"`
	Address1    string    `json:"address1" bson:"address1"`
	Address2    string    `json:"address2,omitempty" bson:"address2,omitempty"`
	State       string    `json:"state" bson:"state"`
	City        string    `json:"city" bson:"city"`
	PhoneNumber string    `json:"phoneNumber" bson:"phoneNumber"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Client is a billable entity belonging to exactly one agency.
type Client struct {
	ClientID    string    `json:"clientId" bson:"clientId"`
	AgencyID    string    `json:"agencyId" bson:"agencyId"`
	Name        string    `json:"name" bson:"name"`
	Email       string    `json:"email" bson:"email"`
	PhoneNumber string    `json:"phoneNumber" bson:"phoneNumber"`
	TotalBill   float64   `json:"totalBill" bson:"totalBill"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Summary aggregates the clients created by one onboarding.
type Summary struct {
	TotalClients       int     `json:"totalClients"`
	TotalBusinessValue float64 `json:"totalBusinessValue"`
	AverageClientValue float64 `json:"averageClientValue"`
}

// Summarize totals the bills and rounds the average half away from zero.
// An empty slice yields a zero Summary.
func Summarize(clients []*Client) Summary {
	var total float64
	for _, c := range clients {
		total += c.TotalBill
	}
	s := Summary{TotalClients: len(clients), TotalBusinessValue: total}
	if len(clients) > 0 {
		s.AverageClientValue = math.Round(total / float64(len(clients)))
	}
	return s
}

// OnboardResult is returned after an agency and its clients are created.
type OnboardResult struct {
	Agency  *Agency   `json:"agency"`
	Clients []*Client `json:"clients"`
	Summary Summary   `json:"summary"`
}

// TopClient is one (agency, highest-billing client) row.
type TopClient struct {
	AgencyName string  `json:"agencyName" bson:"agencyName"`
	ClientName string  `json:"clientName" bson:"clientName"`
	TotalBill  float64 `json:"totalBill" bson:"totalBill"`
}

// ClientPatch is a partial client update. Nil fields are left unchanged.
type ClientPatch struct {
	AgencyID    *string
	Name        *string
	Email       *string
	PhoneNumber *string
	TotalBill   *float64
}

// Apply writes the set fields onto c and stamps UpdatedAt.
func (p ClientPatch) Apply(c *Client, now time.Time) {
	if p.AgencyID != nil {
		c.AgencyID = *p.AgencyID
	}
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
	if p.PhoneNumber != nil {
		c.PhoneNumber = *p.PhoneNumber
	}
	if p.TotalBill != nil {
		c.TotalBill = *p.TotalBill
	}
	c.UpdatedAt = now
}
