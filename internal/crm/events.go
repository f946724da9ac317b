package crm

import (
	"context"
	"fmt"

	"github.com/datanexus/crmstore/internal/store"
)

// Event is a row of the events relation. Time is HH:MM.
type Event struct {
	ID          string `db:"event_id" validate:"required"`
	Title       string `db:"title" validate:"required"`
	Date        string `db:"date" validate:"required,datetime=2006-01-02"`
	Time        string `db:"time" validate:"required,datetime=15:04"`
	Place       string `db:"place"`
	Description string `db:"description"`
	Assignee    string `db:"assignee"`
}

// Events reads and writes calendar events.
type Events struct {
	h   *store.Handle
	cfg *config
}

const eventColumns = `event_id, title, date, time, COALESCE(place, '') AS place,
	COALESCE(description, '') AS description, COALESCE(assignee, '') AS assignee`

// Insert adds an event and returns its identifier. An empty ID is generated.
func (r *Events) Insert(ctx context.Context, e Event) (string, error) {
	if e.ID == "" {
		e.ID = r.cfg.newID()
	}
	if err := validateRecord(e); err != nil {
		return "", fmt.Errorf("insert event: %w", err)
	}
	_, found, err := r.GetByID(ctx, e.ID)
	if err != nil {
		return "", fmt.Errorf("insert event: %w", err)
	}
	if found {
		return "", fmt.Errorf("insert event %q: %w", e.ID, ErrDuplicateKey)
	}

	_, err = r.h.Execute(ctx,
		`INSERT INTO events (event_id, title, date, time, place, description, assignee)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Title, e.Date, e.Time, e.Place, e.Description, e.Assignee)
	if err != nil {
		return "", fmt.Errorf("insert event: %w", err)
	}
	return e.ID, nil
}

// GetAll returns every event ordered by date and time.
func (r *Events) GetAll(ctx context.Context) ([]Event, error) {
	var out []Event
	if err := r.h.Select(ctx, &out, `SELECT `+eventColumns+` FROM events ORDER BY date, time`); err != nil {
		return []Event{}, err
	}
	return emptyIfNil(out), nil
}

// GetByID returns the event with id; found is false when absent.
func (r *Events) GetByID(ctx context.Context, id string) (Event, bool, error) {
	var e Event
	found, err := r.h.Get(ctx, &e, `SELECT `+eventColumns+` FROM events WHERE event_id = ?`, id)
	return e, found, err
}

// ByDate returns the events on date (YYYY-MM-DD) ordered by time.
func (r *Events) ByDate(ctx context.Context, date string) ([]Event, error) {
	var out []Event
	if err := r.h.Select(ctx, &out, `SELECT `+eventColumns+` FROM events WHERE date = ? ORDER BY time`, date); err != nil {
		return []Event{}, err
	}
	return emptyIfNil(out), nil
}

// Update overwrites the event's fields. Missing ids are not an error.
func (r *Events) Update(ctx context.Context, e Event) error {
	if err := validateRecord(e); err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	_, err := r.h.Execute(ctx,
		`UPDATE events SET title = ?, date = ?, time = ?, place = ?, description = ?, assignee = ?
		WHERE event_id = ?`,
		e.Title, e.Date, e.Time, e.Place, e.Description, e.Assignee, e.ID)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return nil
}

// Delete removes the event.
func (r *Events) Delete(ctx context.Context, id string) error {
	if _, err := r.h.Execute(ctx, `DELETE FROM events WHERE event_id = ?`, id); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}
