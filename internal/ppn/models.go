// Package ppn provides the catalog of Voisilab physical network locations
// (PPNs) shown on the public map.
package ppn

import (
	"errors"
	"time"

	"github.com/voisilab/voisimap/pkg/geo"
)

// Repository errors.
var (
	ErrNotFound = errors.New("ppn not found")
)

// Zone classifies a PPN's setting and determines its marker base color.
type Zone string

const (
	ZoneUrban Zone = "Urban"
	ZoneRural Zone = "Rural"
	ZoneMixed Zone = "Mixed"
)

// Status is a PPN's operational status and determines its marker accent.
type Status string

const (
	StatusActive  Status = "active"
	StatusPending Status = "pending"
)

// Contact holds the contact details of a PPN.
type Contact struct {
	Email   string
	Phone   string
	Manager string
}

// PPN is a physical fablab-network location record. Coordinates are supplied
// by the content API and are not trusted; see Service.
type PPN struct {
	ID         string
	Name       string
	City       string
	Address    string
	Zone       Zone
	Status     Status
	Coordinate geo.Coordinate
	Contact    Contact
	Services   []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
