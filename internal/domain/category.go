package domain

import (
	"strings"

	"github.com/google/uuid"
)

// ActivityCategory is a named classification backed by content-filter tags
// and application names. A category can back goals of many users.
type ActivityCategory struct {
	ID           uuid.UUID
	Name         string
	Tags         []string
	Applications []string
}

// MatchesAnyTag reports whether the category's tag set intersects the given tags.
func (c ActivityCategory) MatchesAnyTag(tags []string) bool {
	for _, candidate := range tags {
		for _, tag := range c.Tags {
			if strings.EqualFold(tag, candidate) {
				return true
			}
		}
	}
	return false
}

// MatchesApplication reports whether the category covers the application name,
// compared case-insensitively.
func (c ActivityCategory) MatchesApplication(application string) bool {
	for _, app := range c.Applications {
		if strings.EqualFold(app, application) {
			return true
		}
	}
	return false
}
