package crm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datanexus/crmstore/internal/testutil"
)

func TestFAQs_InsertDefaultsDate(t *testing.T) {
	a, _ := newTestAccessors(t)
	ctx := context.Background()

	id, err := a.FAQs.Insert(ctx, FAQ{Question: "Opening hours?", Answer: "9 to 5"})
	require.NoError(t, err)

	got, found, err := a.FAQs.GetByID(ctx, id)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "2024-03-15", got.UpdatedOn)
}

func TestFAQs_InsertGetRoundTrip(t *testing.T) {
	a, _ := newTestAccessors(t)
	ctx := context.Background()

	want := FAQ{ID: "F1", Question: "Opening hours?", Answer: "9 to 5", Category: "general", UpdatedOn: "2023-01-02"}
	id, err := a.FAQs.Insert(ctx, want)
	require.NoError(t, err)
	assert.Equal(t, "F1", id)

	got, found, err := a.FAQs.GetByID(ctx, "F1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, want, got)
}

func TestFAQs_Update(t *testing.T) {
	_, h := newTestAccessors(t)
	ctx := context.Background()
	clock := testutil.NewFixedClockOn(2024, 3, 15)
	faqs := New(h, WithClock(clock)).FAQs

	id, err := faqs.Insert(ctx, FAQ{Question: "Refunds?", Answer: "Within 30 days"})
	require.NoError(t, err)

	clock.AdvanceDays(10)
	f, _, err := faqs.GetByID(ctx, id)
	require.NoError(t, err)

	// A caller supplied date is kept.
	f.Answer = "Within 14 days"
	f.UpdatedOn = "2024-03-20"
	require.NoError(t, faqs.Update(ctx, f))
	got, _, err := faqs.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Within 14 days", got.Answer)
	assert.Equal(t, "2024-03-20", got.UpdatedOn)

	// An empty date is stamped with today.
	f.UpdatedOn = ""
	require.NoError(t, faqs.Update(ctx, f))
	got, _, err = faqs.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-25", got.UpdatedOn)
}

func TestFAQs_Search(t *testing.T) {
	a, _ := newTestAccessors(t)
	ctx := context.Background()

	for _, f := range []FAQ{
		{Question: "How do I reset my password?", Answer: "Use the login screen."},
		{Question: "Do you ship abroad?", Answer: "Yes, 100% of orders."},
		{Question: "Payment methods?", Answer: "Card or PASSWORD-protected vouchers."},
	} {
		_, err := a.FAQs.Insert(ctx, f)
		require.NoError(t, err)
	}

	tests := []struct {
		keyword string
		want    int
	}{
		{"password", 2},
		{"abroad", 1},
		{"%", 1},
		{"_", 0},
		{"nothing here", 0},
		{"", 3},
	}
	for _, tt := range tests {
		t.Run(tt.keyword, func(t *testing.T) {
			got, err := a.FAQs.Search(ctx, tt.keyword)
			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestFAQs_Delete(t *testing.T) {
	a, _ := newTestAccessors(t)
	ctx := context.Background()
	id, err := a.FAQs.Insert(ctx, FAQ{Question: "Q", Answer: "A"})
	require.NoError(t, err)

	require.NoError(t, a.FAQs.Delete(ctx, id))
	require.NoError(t, a.FAQs.Delete(ctx, id))

	all, err := a.FAQs.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
