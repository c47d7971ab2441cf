package spark

import (
	"context"
	"testing"
	"time"

	"github.com/bcnelson/spark/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLedgerFixture(t *testing.T) (*memActivityRepo, *memFeedbackRepo, *Ledger, int64) {
	t.Helper()
	activities := newMemActivityRepo()
	feedback := newMemFeedbackRepo()
	a := seedActivity("Pier sketch", models.CategoryMicroEscape, 0.8, "45 min")
	require.NoError(t, activities.Insert(context.Background(), a))
	return activities, feedback, NewLedger(activities, feedback, nil), a.ID
}

func TestRecordSwipeLikeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	activities, _, ledger, id := newLedgerFixture(t)
	first := time.Date(2026, 4, 2, 18, 0, 0, 0, time.UTC)
	ledger.clock = fixedClock(first)

	liked, err := ledger.RecordSwipe(ctx, id, true)
	require.NoError(t, err)
	assert.Equal(t, models.StatePlanned, liked.State())

	writes := activities.writeCount()
	ledger.clock = fixedClock(first.Add(time.Hour))
	again, err := ledger.RecordSwipe(ctx, id, true)
	require.NoError(t, err)
	assert.Equal(t, models.SwipeLiked, again.SwipeStatus)
	assert.Equal(t, first, *again.SelectedAt)
	assert.Equal(t, writes, activities.writeCount())
}

func TestRecordSwipeDislikeRetractsLike(t *testing.T) {
	ctx := context.Background()
	activities, _, ledger, id := newLedgerFixture(t)

	_, err := ledger.RecordSwipe(ctx, id, true)
	require.NoError(t, err)
	disliked, err := ledger.RecordSwipe(ctx, id, false)
	require.NoError(t, err)

	assert.Equal(t, models.SwipeDisliked, disliked.SwipeStatus)
	assert.Equal(t, models.StatusNone, disliked.Status)
	assert.Nil(t, disliked.SelectedAt)

	stored, err := activities.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StateDisliked, stored.State())

	relike, err := ledger.RecordSwipe(ctx, id, true)
	require.NoError(t, err)
	assert.Equal(t, models.StatePlanned, relike.State())
}

func TestRecordSwipeUnknownActivity(t *testing.T) {
	_, _, ledger, _ := newLedgerFixture(t)
	_, err := ledger.RecordSwipe(context.Background(), 99, true)
	assert.True(t, models.IsKind(err, models.KindNotFound))
}

func TestSubmitFeedbackOverwrites(t *testing.T) {
	ctx := context.Background()
	_, feedback, ledger, id := newLedgerFixture(t)
	five, two := 5, 2

	first, err := ledger.SubmitFeedback(ctx, FeedbackInput{ActivityID: id, Polarity: models.PolarityPositive, Enjoyment: &five, Reflection: "great"})
	require.NoError(t, err)
	_, err = ledger.SubmitFeedback(ctx, FeedbackInput{ActivityID: id, Polarity: models.PolarityPositive, Enjoyment: &two, Reflection: "meh"})
	require.NoError(t, err)

	assert.Len(t, feedback.items, 1)
	got, err := ledger.GetFeedback(ctx, id, "")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, 2, *got.Enjoyment)
	assert.Equal(t, "meh", got.Reflection)
}

func TestSubmitFeedbackValidation(t *testing.T) {
	ctx := context.Background()
	_, feedback, ledger, id := newLedgerFixture(t)
	seven, three := 7, 3

	_, err := ledger.SubmitFeedback(ctx, FeedbackInput{ActivityID: id, Polarity: models.PolarityPositive, Enjoyment: &seven})
	assert.True(t, models.IsKind(err, models.KindValidation))

	_, err = ledger.SubmitFeedback(ctx, FeedbackInput{ActivityID: id, Kind: models.FeedbackMorning, Polarity: models.PolarityPositive, Enjoyment: &three})
	assert.True(t, models.IsKind(err, models.KindValidation))

	_, err = ledger.SubmitFeedback(ctx, FeedbackInput{ActivityID: id, Polarity: "meh"})
	assert.True(t, models.IsKind(err, models.KindValidation))

	_, err = ledger.SubmitFeedback(ctx, FeedbackInput{ActivityID: 404, Polarity: models.PolarityPositive})
	assert.True(t, models.IsKind(err, models.KindNotFound))

	assert.Zero(t, feedback.writes)
}

func TestMorningFeedbackIsSeparate(t *testing.T) {
	ctx := context.Background()
	_, feedback, ledger, id := newLedgerFixture(t)

	_, err := ledger.SubmitFeedback(ctx, FeedbackInput{ActivityID: id, Polarity: models.PolarityPositive})
	require.NoError(t, err)
	_, err = ledger.SubmitFeedback(ctx, FeedbackInput{ActivityID: id, Kind: models.FeedbackMorning, Polarity: models.PolarityNegative, Reflection: "tired"})
	require.NoError(t, err)
	assert.Len(t, feedback.items, 2)

	_, err = ledger.GetFeedback(ctx, 404, models.FeedbackMorning)
	assert.True(t, models.IsKind(err, models.KindNotFound))
}

func TestSwipeHistory(t *testing.T) {
	ctx := context.Background()
	activities, _, ledger, id := newLedgerFixture(t)
	other := seedActivity("Clay", models.CategoryCraftBurst, 2, "60 min")
	require.NoError(t, activities.Insert(ctx, other))

	_, err := ledger.RecordSwipe(ctx, id, true)
	require.NoError(t, err)
	_, err = ledger.RecordSwipe(ctx, other.ID, false)
	require.NoError(t, err)

	history, err := ledger.History(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{id}, history.Liked)
	assert.Equal(t, []int64{other.ID}, history.Disliked)
}
