package models

import (
	"github.com/voisilab/voisimap/internal/marker"
	"github.com/voisilab/voisimap/internal/ppn"
)

// PPN is a map-ready PPN record including its marker descriptor.
type PPN struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	City     string            `json:"city,omitempty"`
	Address  string            `json:"address,omitempty"`
	Zone     string            `json:"zone"`
	Status   string            `json:"status"`
	Point    Point             `json:"point"`
	Contact  *Contact          `json:"contact,omitempty"`
	Services []string          `json:"services,omitempty"`
	Marker   marker.Descriptor `json:"marker"`
}

// Contact holds the public contact details of a PPN.
type Contact struct {
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Manager string `json:"manager,omitempty"`
}

// PPNList is the response for the PPN collection.
type PPNList struct {
	Items []PPN `json:"items"`
}

// PPNFromDomain converts a catalog record into its API shape, attaching the
// marker descriptor the client renders.
func PPNFromDomain(p *ppn.PPN) PPN {
	out := PPN{
		ID:       p.ID,
		Name:     p.Name,
		City:     p.City,
		Address:  p.Address,
		Zone:     string(p.Zone),
		Status:   string(p.Status),
		Point:    Point{Lat: p.Coordinate.Lat, Lon: p.Coordinate.Lon},
		Services: p.Services,
		Marker:   marker.ForPPN(p.Zone, p.Status),
	}
	if p.Contact != (ppn.Contact{}) {
		out.Contact = &Contact{
			Email:   p.Contact.Email,
			Phone:   p.Contact.Phone,
			Manager: p.Contact.Manager,
		}
	}
	return out
}
