package model

import "fmt"

type SortOrder string

const (
	// SortOrderUnspecified marks a record that predates the structured
	// schema; migration rewrites it before anything else observes it.
	SortOrderUnspecified           SortOrder = ""
	SortOrderNone                  SortOrder = "none"
	SortOrderByDeadline            SortOrder = "by_deadline"
	SortOrderByPriority            SortOrder = "by_priority"
	SortOrderByDeadlineAndPriority SortOrder = "by_deadline_and_priority"
)

var validSortOrders = map[SortOrder]bool{
	SortOrderUnspecified:           true,
	SortOrderNone:                  true,
	SortOrderByDeadline:            true,
	SortOrderByPriority:            true,
	SortOrderByDeadlineAndPriority: true,
}

func (s SortOrder) Valid() bool {
	return validSortOrders[s]
}

// DeadlineEnabled reports whether the order sorts by deadline.
func (s SortOrder) DeadlineEnabled() bool {
	return s == SortOrderByDeadline || s == SortOrderByDeadlineAndPriority
}

// PriorityEnabled reports whether the order sorts by priority.
func (s SortOrder) PriorityEnabled() bool {
	return s == SortOrderByPriority || s == SortOrderByDeadlineAndPriority
}

// WithDeadline returns the order with deadline sorting switched on or off,
// preserving the priority component.
func (s SortOrder) WithDeadline(enable bool) SortOrder {
	if enable {
		if s == SortOrderByPriority {
			return SortOrderByDeadlineAndPriority
		}
		return SortOrderByDeadline
	}
	if s == SortOrderByDeadlineAndPriority {
		return SortOrderByPriority
	}
	return SortOrderNone
}

// WithPriority returns the order with priority sorting switched on or off,
// preserving the deadline component.
func (s SortOrder) WithPriority(enable bool) SortOrder {
	if enable {
		if s == SortOrderByDeadline {
			return SortOrderByDeadlineAndPriority
		}
		return SortOrderByPriority
	}
	if s == SortOrderByDeadlineAndPriority {
		return SortOrderByDeadline
	}
	return SortOrderNone
}

func ParseSortOrder(s string) (SortOrder, error) {
	order := SortOrder(s)
	if !validSortOrders[order] {
		return "", fmt.Errorf("unknown sort order %q", s)
	}
	return order, nil
}
