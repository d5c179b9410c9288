package entity

import (
	kazisync "github.com/Tafakari-Ltd/kazibuddy-sync"
	"github.com/Tafakari-Ltd/kazibuddy-sync/id"
)

// Category is a job category.
type Category struct {
	kazisync.Entity

	ID          id.CategoryID `json:"id"`
	Name        string        `json:"name"`
	Slug        string        `json:"slug"`
	Description string        `json:"description,omitempty"`
	JobCount    int           `json:"job_count,omitempty"`
}
