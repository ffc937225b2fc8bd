package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultPermissions(t *testing.T) {
	now := time.Now().UTC()
	p := DefaultPermissions(42, now)

	require.Equal(t, uint64(42), p.UserID)
	require.True(t, p.Notifications.Push.Enabled)
	require.True(t, p.Notifications.Email.Enabled)
	require.False(t, p.Notifications.SMS.Enabled)
	require.True(t, p.Storage.Enabled)
	require.False(t, p.Location.Enabled)
	require.False(t, p.Contact.Enabled)
	require.False(t, p.Camera.Enabled)
	require.False(t, p.Analytics.Enabled)
	require.NotNil(t, p.Notifications.Push.GrantedAt)
	require.Nil(t, p.Camera.GrantedAt)
}

func TestSetLocationEnabled_DisableWipesData(t *testing.T) {
	now := time.Now().UTC()
	lat, lon := 19.076, 72.8777
	p := DefaultPermissions(1, now)

	p.SetLocationEnabled(true, now)
	p.Location.LastKnownLocation = LocationData{Latitude: &lat, Longitude: &lon, City: "Mumbai", UpdatedAt: &now}

	p.SetLocationEnabled(false, now)
	require.False(t, p.Location.Enabled)
	require.Nil(t, p.Location.GrantedAt)
	require.Equal(t, LocationData{}, p.Location.LastKnownLocation)

	// Re-enabling does not resurrect the wiped location.
	p.SetLocationEnabled(true, now)
	require.Nil(t, p.Location.LastKnownLocation.Latitude)
}

func TestSetContactEnabled_DisableRevokesSharing(t *testing.T) {
	now := time.Now().UTC()
	p := DefaultPermissions(1, now)

	p.SetContactEnabled(true, now)
	p.Contact.ShareWithPartners = true

	p.SetContactEnabled(false, now)
	require.False(t, p.Contact.Enabled)
	require.False(t, p.Contact.ShareWithPartners)
	require.Nil(t, p.Contact.GrantedAt)
}

func TestNotificationExpired(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	require.False(t, (&Notification{}).Expired(now), "no expiry means never expired")
	require.True(t, (&Notification{ExpiresAt: &past}).Expired(now))
	require.False(t, (&Notification{ExpiresAt: &future}).Expired(now))
}
