// Package taskview computes the derived, display-ready view of a task set:
// filtering by completion state and sorting by position, due date, or title.
// It never mutates stored order; the same input and criteria always produce
// the same output.
package taskview

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/mmo1994/SurnaturToDo/apperr"
	"github.com/mmo1994/SurnaturToDo/models"
)

// Filter selects which tasks appear in the view.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

// Sort selects the view's ordering.
type Sort string

const (
	SortPosition Sort = "position"
	SortDueDate  Sort = "due_date"
	SortTitle    Sort = "title"
)

// ParseFilter validates a filter name. The empty string means FilterAll.
func ParseFilter(s string) (Filter, error) {
	switch Filter(s) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterActive, FilterCompleted:
		return Filter(s), nil
	default:
		return "", apperr.Newf(apperr.InvalidInput, "invalid filter: %q", s)
	}
}

// ParseSort validates a sort name. The empty string means SortPosition.
func ParseSort(s string) (Sort, error) {
	switch Sort(s) {
	case "", SortPosition:
		return SortPosition, nil
	case SortDueDate, SortTitle:
		return Sort(s), nil
	default:
		return "", apperr.Newf(apperr.InvalidInput, "invalid sort: %q", s)
	}
}

// Apply returns a new slice holding the filtered, sorted view. The input
// slice is left untouched. Sorting is stable, so equal keys keep their
// relative input order.
func Apply(todos []models.Todo, filter Filter, sortBy Sort) []models.Todo {
	out := make([]models.Todo, 0, len(todos))
	for _, t := range todos {
		switch filter {
		case FilterActive:
			if t.Completed {
				continue
			}
		case FilterCompleted:
			if !t.Completed {
				continue
			}
		}
		out = append(out, t)
	}

	switch sortBy {
	case SortDueDate:
		sort.SliceStable(out, func(i, j int) bool {
			a, b := out[i].DueDate, out[j].DueDate
			// Tasks without a due date sort last.
			if a == nil {
				return false
			}
			if b == nil {
				return true
			}
			return a.Before(*b)
		})
	case SortTitle:
		c := collate.New(language.Und)
		sort.SliceStable(out, func(i, j int) bool {
			return c.CompareString(out[i].Title, out[j].Title) < 0
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Position < out[j].Position
		})
	}
	return out
}
