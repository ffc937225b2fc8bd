package model

import (
	"errors"
	"time"
)

// Roles assignable to a user account.  Everyone starts as RoleUser;
// only another admin can promote an account.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Lockout policy: after MaxLoginAttempts consecutive failures the
// account is locked for LockDuration.
const (
	MaxLoginAttempts = 5
	LockDuration     = 2 * time.Hour
)

// OTP errors returned by VerifyOTP.  Handlers translate these into
// their HTTP equivalents (410 for expired, 400 for mismatch).
var (
	ErrOTPExpired = errors.New("otp expired")
	ErrOTPInvalid = errors.New("invalid otp")
	ErrOTPMissing = errors.New("no otp issued")
)

// Address is the user's postal address, stored as a JSON sub-document
// in the users table.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
	ZipCode string `json:"zipCode"`
}

// NotificationPrefs are the user's channel opt-ins kept on the profile.
// The permission ledger holds the authoritative per-channel grants;
// these mirror the UI toggles on the settings page.
type NotificationPrefs struct {
	Email bool `json:"email"`
	SMS   bool `json:"sms"`
	Push  bool `json:"push"`
}

// Preferences holds general app preferences.
type Preferences struct {
	Language      string            `json:"language"`
	Currency      string            `json:"currency"`
	Theme         string            `json:"theme"`
	Notifications NotificationPrefs `json:"notifications"`
}

// TravelPreferences holds booking defaults applied when the user
// searches or checks out.
type TravelPreferences struct {
	DefaultSearchLocation string `json:"defaultSearchLocation"`
	PreferredAirline      string `json:"preferredAirline"`
	SeatPreference        string `json:"seatPreference"`
	MealPreference        string `json:"mealPreference"`
	BaggagePreference     string `json:"baggagePreference"`
	ClassPreference       string `json:"classPreference"`
}

// User mirrors the 'users' table.  PasswordHash is never serialized;
// handlers build explicit response types.
type User struct {
	ID             uint64
	Name           string
	Email          string
	Mobile         string
	PasswordHash   string
	ProfilePicture string
	DateOfBirth    *time.Time
	Gender         string
	Address        Address
	Preferences    Preferences
	TravelPrefs    TravelPreferences

	// One-shot OTP state for password reset.  Code and ExpiresAt are
	// set together by forgot-password; VerifiedAt is stamped when the
	// code is consumed and gates reset-password.
	OTPCode       *string
	OTPExpiresAt  *time.Time
	OTPVerifiedAt *time.Time

	IsEmailVerified  bool
	IsMobileVerified bool
	Role             string
	IsActive         bool

	LoginAttempts int
	LockUntil     *time.Time
	LastLogin     *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DefaultPreferences returns the preference set assigned at registration.
func DefaultPreferences() Preferences {
	return Preferences{
		Language: "en",
		Currency: "INR",
		Theme:    "dark",
		Notifications: NotificationPrefs{
			Email: true,
			SMS:   false,
			Push:  true,
		},
	}
}

// DefaultTravelPreferences returns the travel defaults assigned at registration.
func DefaultTravelPreferences() TravelPreferences {
	return TravelPreferences{
		SeatPreference:    "window",
		MealPreference:    "vegetarian",
		BaggagePreference: "standard",
		ClassPreference:   "economy",
	}
}

// IsLocked reports whether the account is locked out at the given instant.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockUntil != nil && u.LockUntil.After(now)
}

// LockRemainingMinutes returns how many whole minutes of the lock
// window remain, rounded up so the client never sees 0 while locked.
func (u *User) LockRemainingMinutes(now time.Time) int {
	if !u.IsLocked(now) {
		return 0
	}
	rem := u.LockUntil.Sub(now)
	mins := int(rem / time.Minute)
	if rem%time.Minute != 0 {
		mins++
	}
	return mins
}

// NextLockState computes the lockout counters after one more failed
// login attempt.  If a previous lock has already expired, the counter
// restarts at 1 (this attempt counts).  Reaching MaxLoginAttempts sets
// a fresh lock window.
func (u *User) NextLockState(now time.Time) (attempts int, lockUntil *time.Time) {
	if u.LockUntil != nil && !u.LockUntil.After(now) {
		return 1, nil
	}
	attempts = u.LoginAttempts + 1
	lockUntil = u.LockUntil
	if attempts >= MaxLoginAttempts && !u.IsLocked(now) {
		t := now.Add(LockDuration)
		lockUntil = &t
	}
	return attempts, lockUntil
}

// VerifyOTP checks a candidate code against the stored OTP state.  The
// expiry check runs before the comparison so an expired-but-correct
// code still reports expiry.
func (u *User) VerifyOTP(code string, now time.Time) error {
	if u.OTPCode == nil || *u.OTPCode == "" {
		return ErrOTPMissing
	}
	if u.OTPExpiresAt == nil || now.After(*u.OTPExpiresAt) {
		return ErrOTPExpired
	}
	if *u.OTPCode != code {
		return ErrOTPInvalid
	}
	return nil
}

// CanResetPassword reports whether a successful OTP verification was
// stamped within the allowed window.
func (u *User) CanResetPassword(now time.Time, window time.Duration) bool {
	return u.OTPVerifiedAt != nil && now.Sub(*u.OTPVerifiedAt) <= window
}
