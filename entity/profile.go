package entity

import (
	kazisync "github.com/Tafakari-Ltd/kazibuddy-sync"
	"github.com/Tafakari-Ltd/kazibuddy-sync/id"
)

// VerificationStatus tracks identity verification of a profile.
type VerificationStatus string

const (
	VerificationUnverified VerificationStatus = "unverified"
	VerificationPending    VerificationStatus = "pending"
	VerificationVerified   VerificationStatus = "verified"
)

// WorkerProfile is the profile a worker must complete before applying
// to jobs.
type WorkerProfile struct {
	kazisync.Entity

	ID           id.WorkerID        `json:"id"`
	UserID       id.UserID          `json:"user_id"`
	FullName     string             `json:"full_name"`
	Bio          string             `json:"bio"`
	Phone        string             `json:"phone"`
	Location     string             `json:"location"`
	Skills       []string           `json:"skills,omitempty"`
	HourlyRate   float64            `json:"hourly_rate"`
	Verification VerificationStatus `json:"verification_status"`
}

// Completion is the derived profile completeness percentage. It is not
// stored; list joins recompute it from whichever fields they carry.
func (w *WorkerProfile) Completion() int {
	fields := []bool{
		w.FullName != "",
		w.Bio != "",
		w.Phone != "",
		w.Location != "",
		len(w.Skills) > 0,
		w.HourlyRate > 0,
	}
	return percentDone(fields)
}

// EmployerProfile is the profile an employer completes before posting
// jobs.
type EmployerProfile struct {
	kazisync.Entity

	ID           id.EmployerID      `json:"id"`
	UserID       id.UserID          `json:"user_id"`
	CompanyName  string             `json:"company_name"`
	Bio          string             `json:"bio"`
	Phone        string             `json:"phone"`
	Location     string             `json:"location"`
	Website      string             `json:"website,omitempty"`
	Verification VerificationStatus `json:"verification_status"`
}

// Completion is the derived profile completeness percentage.
func (e *EmployerProfile) Completion() int {
	fields := []bool{
		e.CompanyName != "",
		e.Bio != "",
		e.Phone != "",
		e.Location != "",
		e.Website != "",
	}
	return percentDone(fields)
}

func percentDone(fields []bool) int {
	if len(fields) == 0 {
		return 0
	}
	done := 0
	for _, set := range fields {
		if set {
			done++
		}
	}
	return done * 100 / len(fields)
}
