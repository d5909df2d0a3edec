// Package locking serialises scheduling decisions per resource-day and
// crew-day. Every key is acquired in sorted order, so two requests touching
// overlapping key sets cannot deadlock.
package locking

import (
	"context"
	"fmt"
	"sort"
	"tourdesk/pkg/model"
)

type ReleaseFunc func()

type Locker interface {
	// Acquire blocks until every key is held or ctx is done. On failure no key
	// stays held and the error wraps ErrLockTimeout.
	Acquire(ctx context.Context, keys []string) (ReleaseFunc, error)
}

func ResourceKey(resourceID, date string) string {
	return fmt.Sprintf("resource:%s:%s", resourceID, date)
}

func CrewKey(crewID, date string) string {
	return fmt.Sprintf("crew:%s:%s", crewID, date)
}

// KeysFor returns the sorted, de-duplicated lock keys covering every booking.
// Nil bookings are skipped.
func KeysFor(bookings ...*model.Booking) []string {
	set := make(map[string]struct{})
	for _, b := range bookings {
		if b == nil {
			continue
		}
		set[ResourceKey(b.Resource.ID, b.Window.Date)] = struct{}{}
		for _, c := range b.Crew {
			set[CrewKey(c.ID, b.Window.Date)] = struct{}{}
		}
	}
	return sortedKeys(set)
}

func normalize(keys []string) []string {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return sortedKeys(set)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
