// Package classify maps raw activity signals onto activity categories and
// from there onto the goals they may violate.
package classify

import (
	"context"
	"sort"

	"example.com/analysisengine/internal/domain"
)

// Classifier resolves category matches against the full category configuration.
type Classifier struct {
	categories domain.ActivityCategoryProvider
}

// NewClassifier constructs a Classifier over the given provider.
func NewClassifier(categories domain.ActivityCategoryProvider) *Classifier {
	return &Classifier{categories: categories}
}

// MatchingCategoriesForTags returns the categories whose tag set intersects
// the event's category tags.
func (c *Classifier) MatchingCategoriesForTags(ctx context.Context, tags []string) ([]domain.ActivityCategory, error) {
	all, err := c.categories.GetAllActivityCategories(ctx)
	if err != nil {
		return nil, err
	}
	var matched []domain.ActivityCategory
	for _, category := range all {
		if category.MatchesAnyTag(tags) {
			matched = append(matched, category)
		}
	}
	return matched, nil
}

// MatchingCategoriesForApp returns the categories covering the application
// name, compared case-insensitively.
func (c *Classifier) MatchingCategoriesForApp(ctx context.Context, application string) ([]domain.ActivityCategory, error) {
	all, err := c.categories.GetAllActivityCategories(ctx)
	if err != nil {
		return nil, err
	}
	var matched []domain.ActivityCategory
	for _, category := range all {
		if category.MatchesApplication(application) {
			matched = append(matched, category)
		}
	}
	return matched, nil
}

// RelevantTags returns the sorted union of all tags across all known
// categories, used by external event sources to pre-filter traffic. Tags keep
// the form they were configured with; matching is case-insensitive anyway.
func (c *Classifier) RelevantTags(ctx context.Context) ([]string, error) {
	all, err := c.categories.GetAllActivityCategories(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	tags := []string{}
	for _, category := range all {
		for _, tag := range category.Tags {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)
	return tags, nil
}

// GoalsForCategories returns the user's goals whose activity category is in
// the matched set. An empty result means the event is irrelevant for the user
// and must not touch cache, store, or messaging.
func GoalsForCategories(user *domain.UserAnonymized, categories []domain.ActivityCategory) []domain.GoalInfo {
	matched := make(map[string]struct{}, len(categories))
	for _, category := range categories {
		matched[category.ID.String()] = struct{}{}
	}
	var goals []domain.GoalInfo
	for _, goal := range user.Goals {
		if _, ok := matched[goal.ActivityCategoryID.String()]; ok {
			goals = append(goals, goal)
		}
	}
	return goals
}
