package model

import "time"

// LocationData is the user's last known location, kept only while the
// location permission is enabled.
type LocationData struct {
	Latitude  *float64   `json:"latitude"`
	Longitude *float64   `json:"longitude"`
	Address   string     `json:"address,omitempty"`
	City      string     `json:"city,omitempty"`
	State     string     `json:"state,omitempty"`
	Country   string     `json:"country,omitempty"`
	ZipCode   string     `json:"zipCode,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// LocationPermission couples the toggle with its dependent data.
// Disabling is a destructive reset: GrantedAt and LastKnownLocation
// are cleared together.
type LocationPermission struct {
	Enabled           bool         `json:"enabled"`
	LastKnownLocation LocationData `json:"lastKnownLocation"`
	GrantedAt         *time.Time   `json:"grantedAt"`
}

// ContactPermission carries ShareWithPartners, which is wiped when the
// category is disabled.
type ContactPermission struct {
	Enabled           bool       `json:"enabled"`
	ShareWithPartners bool       `json:"shareWithPartners"`
	GrantedAt         *time.Time `json:"grantedAt"`
}

// Toggle is a plain enabled/grantedAt pair used by the categories
// without dependent data.
type Toggle struct {
	Enabled   bool       `json:"enabled"`
	GrantedAt *time.Time `json:"grantedAt"`
}

// NotificationPermissions splits the notification category into its
// three delivery channels.
type NotificationPermissions struct {
	Push  Toggle `json:"push"`
	Email Toggle `json:"email"`
	SMS   Toggle `json:"sms"`
}

// Permission mirrors the 'permissions' table: exactly one row per user,
// lazily created with defaults on first access.
type Permission struct {
	ID            uint64
	UserID        uint64
	Location      LocationPermission
	Contact       ContactPermission
	Camera        Toggle
	Notifications NotificationPermissions
	Storage       Toggle
	Analytics     Toggle
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// DefaultPermissions returns the record created on first access:
// push, email and storage on; sms, location, contact, camera and
// analytics off.
func DefaultPermissions(userID uint64, now time.Time) *Permission {
	granted := now
	return &Permission{
		UserID: userID,
		Notifications: NotificationPermissions{
			Push:  Toggle{Enabled: true, GrantedAt: &granted},
			Email: Toggle{Enabled: true, GrantedAt: &granted},
			SMS:   Toggle{Enabled: false},
		},
		Storage: Toggle{Enabled: true, GrantedAt: &granted},
	}
}

// SetLocationEnabled flips the location category.  Enabling stamps
// GrantedAt; disabling clears it and wipes the stored location.
func (p *Permission) SetLocationEnabled(enabled bool, now time.Time) {
	p.Location.Enabled = enabled
	if enabled {
		p.Location.GrantedAt = &now
		return
	}
	p.Location.GrantedAt = nil
	p.Location.LastKnownLocation = LocationData{}
}

// SetContactEnabled flips the contact category; disabling also revokes
// partner sharing.
func (p *Permission) SetContactEnabled(enabled bool, now time.Time) {
	p.Contact.Enabled = enabled
	if enabled {
		p.Contact.GrantedAt = &now
		return
	}
	p.Contact.GrantedAt = nil
	p.Contact.ShareWithPartners = false
}

// Set flips a plain toggle category.
func (t *Toggle) Set(enabled bool, now time.Time) {
	t.Enabled = enabled
	if enabled {
		t.GrantedAt = &now
	} else {
		t.GrantedAt = nil
	}
}
