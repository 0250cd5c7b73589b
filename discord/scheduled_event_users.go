package discord

import (
	"fmt"
	"net/http"
	"strconv"
)

// scheduled_event_users.go contains the paginator over the users
// subscribed to a scheduled event.

// scheduledEventUsersPageLimit is the maximum page size the users
// endpoint accepts.
const scheduledEventUsersPageLimit = 100

// UsersOptions controls a Users traversal. Limit caps the total number of
// users yielded; zero or negative means the event's user count when
// known, otherwise unbounded. Before and After anchor the traversal at an
// exclusive user ID boundary. OldestFirst overrides the direction implied
// by the anchors: without it the traversal runs oldest-to-newest when
// After is set and newest-to-oldest otherwise.
type UsersOptions struct {
	Limit       int32
	Before      *UserID
	After       *UserID
	OldestFirst *bool
}

// ScheduledEventUsersIterator lazily walks the users subscribed to a
// scheduled event, fetching pages on demand. Not safe for concurrent use,
// and a single traversal only: once exhausted it stays exhausted.
//
//	iterator := ev.Users(session, state, discord.UsersOptions{})
//	for iterator.Next() {
//	    user := iterator.User()
//	    ...
//	}
//	if err := iterator.Err(); err != nil {
//	    ...
//	}
type ScheduledEventUsersIterator struct {
	session *Session
	state   StateProvider
	event   *ScheduledEvent

	filter func(UserID) bool
	buffer []*User
	user   *User
	err    error

	cursor    UserID
	limit     int32
	forward   bool
	hasCursor bool
	unlimited bool
	done      bool
}

// Users returns an iterator over the users subscribed to this event.
// Pages are fetched lazily as the iterator advances; no request happens
// until the first Next call.
func (ev *ScheduledEvent) Users(s *Session, state StateProvider, options UsersOptions) *ScheduledEventUsersIterator {
	it := &ScheduledEventUsersIterator{
		session: s,
		state:   state,
		event:   ev,
	}

	if options.OldestFirst != nil {
		it.forward = *options.OldestFirst
	} else {
		it.forward = options.After != nil
	}

	if it.forward {
		if options.After != nil {
			it.cursor = *options.After
			it.hasCursor = true
		}
	} else {
		if options.Before != nil {
			it.cursor = *options.Before
			it.hasCursor = true
		}
	}

	// Boundaries stay exclusive on both sides regardless of which one
	// anchors the requests, so records outside them are discarded even
	// when the server returned them anyway.
	if options.Before != nil || options.After != nil {
		before, after := options.Before, options.After

		it.filter = func(id UserID) bool {
			if after != nil && id <= *after {
				return false
			}

			if before != nil && id >= *before {
				return false
			}

			return true
		}
	}

	switch {
	case options.Limit > 0:
		it.limit = options.Limit
	case ev.UserCount > 0:
		it.limit = ev.UserCount
	default:
		it.unlimited = true
	}

	return it
}

// Next advances the iterator to the next user, fetching a new page when
// the current one is drained. Returns false when the traversal is over,
// either exhausted or failed; check Err to tell the two apart.
func (it *ScheduledEventUsersIterator) Next() bool {
	if it.err != nil {
		return false
	}

	for len(it.buffer) == 0 {
		if it.done {
			return false
		}

		err := it.fetchPage()
		if err != nil {
			it.err = err
			it.done = true

			return false
		}
	}

	it.user = it.buffer[0]
	it.buffer = it.buffer[1:]

	return true
}

// User returns the user the iterator is positioned on. Only valid after a
// Next call that returned true.
func (it *ScheduledEventUsersIterator) User() *User {
	return it.user
}

// Err returns the error that terminated the traversal, if any.
func (it *ScheduledEventUsersIterator) Err() error {
	return it.err
}

func (it *ScheduledEventUsersIterator) fetchPage() error {
	pageSize := int32(scheduledEventUsersPageLimit)
	if !it.unlimited && it.limit < pageSize {
		pageSize = it.limit
	}

	if pageSize <= 0 {
		it.done = true

		return nil
	}

	endpoint := EndpointGuildScheduledEventUsers(it.event.GuildID.String(), it.event.ID.String()) +
		"?limit=" + strconv.FormatInt(int64(pageSize), 10) + "&with_member=false"

	if it.hasCursor {
		if it.forward {
			endpoint += "&after=" + it.cursor.String()
		} else {
			endpoint += "&before=" + it.cursor.String()
		}
	}

	var page []ScheduledEventUser

	err := it.session.Interface.FetchBJ(it.session, http.MethodGet, endpoint, "", nil, nil, &page)
	if err != nil {
		return fmt.Errorf("failed to fetch scheduled event users: %w", err)
	}

	if !it.unlimited {
		it.limit -= int32(len(page))
	}

	// A short page means the end of the collection in this direction.
	if len(page) < scheduledEventUsersPageLimit {
		it.done = true
	}

	if len(page) > 0 {
		if it.forward {
			it.cursor = page[len(page)-1].User.ID
		} else {
			it.cursor = page[0].User.ID
		}

		it.hasCursor = true
	}

	// Pages arrive oldest-first; a backward traversal yields them
	// newest-first.
	if !it.forward {
		for i, j := 0, len(page)-1; i < j; i, j = i+1, j-1 {
			page[i], page[j] = page[j], page[i]
		}
	}

	for _, entry := range page {
		if it.filter != nil && !it.filter(entry.User.ID) {
			continue
		}

		if it.state != nil {
			it.buffer = append(it.buffer, it.state.StoreUser(entry.User))
		} else {
			user := entry.User
			it.buffer = append(it.buffer, &user)
		}
	}

	return nil
}
