package models

import "time"

// Presence represents the attendance state recorded for a day.
type Presence string

const (
	PresencePresent Presence = "present"
	PresenceSick    Presence = "sick"
	PresenceExcused Presence = "excused"
	PresenceAbsent  Presence = "absent"
)

// Valid returns true when the presence is a supported value.
func (p Presence) Valid() bool {
	switch p {
	case PresencePresent, PresenceSick, PresenceExcused, PresenceAbsent:
		return true
	default:
		return false
	}
}

// AttendanceRecord is a daily attendance entry awaiting supervisor approval.
type AttendanceRecord struct {
	Submission
	Date     time.Time  `db:"date" json:"date"`
	CheckIn  *time.Time `db:"check_in" json:"check_in,omitempty"`
	CheckOut *time.Time `db:"check_out" json:"check_out,omitempty"`
	Presence Presence   `db:"presence" json:"presence"`
	Activity *string    `db:"activity" json:"activity,omitempty"`
}
