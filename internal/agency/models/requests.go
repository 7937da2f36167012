package models

import (
	"strings"
	"time"

	"agencyhub/pkg/platform/validation"
)

type AgencyInput struct {
	AgencyID    string `json:"agencyId" validate:"required,min=2,max=20"`
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Address1    string `json:"address1" validate:"required"`
	Address2    string `json:"address2"`
	State       string `json:"state" validate:"required"`
	City        string `json:"city" validate:"required"`
	PhoneNumber string `json:"phoneNumber" validate:"required,mobile"`
}

func (in *AgencyInput) normalize() {
	in.AgencyID = strings.TrimSpace(in.AgencyID)
	in.Name = strings.TrimSpace(in.Name)
	in.Address1 = strings.TrimSpace(in.Address1)
	in.Address2 = strings.TrimSpace(in.Address2)
	in.State = strings.TrimSpace(in.State)
	in.City = strings.TrimSpace(in.City)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
}

// ToAgency builds the record to persist.
func (in AgencyInput) ToAgency(now time.Time) *Agency {
	return &Agency{
		AgencyID:    in.AgencyID,
		Name:        in.Name,
		Address1:    in.Address1,
		Address2:    in.Address2,
		State:       in.State,
		City:        in.City,
		PhoneNumber: in.PhoneNumber,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

type ClientInput struct {
	ClientID    string   `json:"clientId" validate:"required,min=2,max=20"`
	Name        string   `json:"name" validate:"required,min=2,max=100"`
	Email       string   `json:"email" validate:"required,email"`
	PhoneNumber string   `json:"phoneNumber" validate:"required,mobile"`
	TotalBill   *float64 `json:"totalBill" validate:"required,gte=0"`
}

func (in *ClientInput) normalize() {
	in.ClientID = strings.TrimSpace(in.ClientID)
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
}

// ToClient builds the record to persist, stamped with its parent agency.
func (in ClientInput) ToClient(agencyID string, now time.Time) *Client {
	var bill float64
	if in.TotalBill != nil {
		bill = *in.TotalBill
	}
	return &Client{
		ClientID:    in.ClientID,
		AgencyID:    agencyID,
		Name:        in.Name,
		Email:       in.Email,
		PhoneNumber: in.PhoneNumber,
		TotalBill:   bill,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// OnboardRequest accepts either a clients array or a single client.
type OnboardRequest struct {
	Agency  *AgencyInput  `json:"agency" validate:"required"`
	Clients []ClientInput `json:"clients" validate:"required,min=1,dive"`
	Client  *ClientInput  `json:"client,omitempty" validate:"-"`
}

var onboardMessages = validation.Messages{
	"agency":                "Agency details are required",
	"agency.agencyId":       "Agency ID is required (2-20 characters)",
	"agency.name":           "Agency name is required (2-100 characters)",
	"agency.address1":       "Agency address1 is required",
	"agency.state":          "Agency state is required",
	"agency.city":           "Agency city is required",
	"agency.phoneNumber":    "Valid agency phone number is required",
	"clients":               "Clients must be an array with at least one client",
	"clients.*.clientId":    "Client ID is required (2-20 characters)",
	"clients.*.name":        "Client name is required (2-100 characters)",
	"clients.*.email":       "Valid client email is required",
	"clients.*.phoneNumber": "Valid client phone number is required",
	"clients.*.totalBill":   "Client total bill must be a positive number",
}

// Normalize folds the single-client form into Clients and trims every field.
func (r *OnboardRequest) Normalize() {
	if len(r.Clients) == 0 && r.Client != nil {
		r.Clients = []ClientInput{*r.Client}
	}
	r.Client = nil
	if r.Agency != nil {
		r.Agency.normalize()
	}
	for i := range r.Clients {
		r.Clients[i].normalize()
	}
}

func (r *OnboardRequest) Validate() error {
	return validation.Struct(r, onboardMessages)
}

// UpdateClientRequest is the body of a client update. Every field is optional.
type UpdateClientRequest struct {
	ClientID    *string  `json:"clientId" validate:"-"`
	AgencyID    *string  `json:"agencyId" validate:"omitnil,min=1"`
	Name        *string  `json:"name" validate:"omitnil,min=2,max=100"`
	Email       *string  `json:"email" validate:"omitnil,email"`
	PhoneNumber *string  `json:"phoneNumber" validate:"omitnil,mobile"`
	TotalBill   *float64 `json:"totalBill" validate:"omitnil,gte=0"`
}

var updateMessages = validation.Messages{
	"agencyId":    "Agency ID cannot be empty if provided",
	"name":        "Name must be 2-100 characters if provided",
	"email":       "Valid email is required if provided",
	"phoneNumber": "Valid phone number is required if provided",
	"totalBill":   "Total bill must be a positive number if provided",
}

func (r *UpdateClientRequest) Normalize() {
	trim := func(p *string) {
		if p != nil {
			*p = strings.TrimSpace(*p)
		}
	}
	trim(r.ClientID)
	trim(r.AgencyID)
	trim(r.Name)
	trim(r.PhoneNumber)
	if r.Email != nil {
		*r.Email = strings.ToLower(strings.TrimSpace(*r.Email))
	}
}

// Validate checks field rules. clientId is immutable: a body naming a
// different id than the path is rejected.
func (r *UpdateClientRequest) Validate(clientID string) error {
	if r.ClientID != nil && *r.ClientID != clientID {
		return validation.Field("clientId", "immutable", "Client ID cannot be changed")
	}
	return validation.Struct(r, updateMessages)
}

func (r UpdateClientRequest) Patch() ClientPatch {
	return ClientPatch{
		AgencyID:    r.AgencyID,
		Name:        r.Name,
		Email:       r.Email,
		PhoneNumber: r.PhoneNumber,
		TotalBill:   r.TotalBill,
	}
}
