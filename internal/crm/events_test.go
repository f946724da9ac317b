package crm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvents_InsertAndByDate(t *testing.T) {
	a, _ := newTestAccessors(t)
	ctx := context.Background()

	_, err := a.Events.Insert(ctx, Event{Title: "Lunch", Date: "2024-03-20", Time: "13:00"})
	require.NoError(t, err)
	_, err = a.Events.Insert(ctx, Event{Title: "Standup", Date: "2024-03-20", Time: "09:30", Place: "Office"})
	require.NoError(t, err)
	_, err = a.Events.Insert(ctx, Event{Title: "Review", Date: "2024-03-21", Time: "10:00"})
	require.NoError(t, err)

	day, err := a.Events.ByDate(ctx, "2024-03-20")
	require.NoError(t, err)
	require.Len(t, day, 2)
	assert.Equal(t, "Standup", day[0].Title)
	assert.Equal(t, "Office", day[0].Place)
	assert.Equal(t, "Lunch", day[1].Title)

	all, err := a.Events.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestEvents_Validation(t *testing.T) {
	a, _ := newTestAccessors(t)
	ctx := context.Background()

	_, err := a.Events.Insert(ctx, Event{Title: "Late", Date: "2024-03-20", Time: "25:00"})
	assert.ErrorIs(t, err, ErrInvalidRecord)

	_, err = a.Events.Insert(ctx, Event{Title: "No date", Time: "10:00"})
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestEvents_UpdateAndDelete(t *testing.T) {
	a, _ := newTestAccessors(t)
	ctx := context.Background()
	id, err := a.Events.Insert(ctx, Event{Title: "Demo", Date: "2024-03-20", Time: "11:00"})
	require.NoError(t, err)

	e, found, err := a.Events.GetByID(ctx, id)
	require.NoError(t, err)
	require.True(t, found)
	e.Time = "15:00"
	require.NoError(t, a.Events.Update(ctx, e))

	got, _, err := a.Events.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "15:00", got.Time)

	require.NoError(t, a.Events.Delete(ctx, id))
	_, found, err = a.Events.GetByID(ctx, id)
	require.NoError(t, err)
	assert.False(t, found)
}
