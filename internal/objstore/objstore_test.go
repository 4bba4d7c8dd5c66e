package objstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercent(t *testing.T) {
	tests := []struct {
		transferred, total int64
		percent            int
	}{
		{0, 100, 0},
		{1, 3, 33},
		{2, 3, 66},
		{50, 100, 50},
		{999, 1000, 99},
		{1000, 1000, 100},
		{1200, 1000, 100},
		{0, 0, 100},
	}
	for _, tt := range tests {
		p := Progress{BytesTransferred: tt.transferred, TotalBytes: tt.total}
		assert.Equal(t, tt.percent, p.Percent(), "%d of %d", tt.transferred, tt.total)
	}
}

// chunkedTransfer reports the chunks one by one.
func chunkedTransfer(chunks []int) TransferFunc {
	return func(ctx context.Context, report func(n int)) error {
		for _, n := range chunks {
			report(n)
		}
		return nil
	}
}

// TestProgressIsMonotonicAndEndsAt100 consumes every snapshot of an upload made of uneven chunks.
func TestProgressIsMonotonicAndEndsAt100(t *testing.T) {
	chunks := []int{1, 7, 300, 0, 92, 600}
	upload := Start(context.Background(), Object{Key: "images/a.png", Size: 1000}, chunkedTransfer(chunks))

	var percents []int
	for p := range upload.Progress() {
		percents = append(percents, p.Percent())
	}
	obj, err := upload.Wait()

	require.NoError(t, err)
	assert.Equal(t, Object{Key: "images/a.png", Size: 1000}, obj)
	require.NotEmpty(t, percents)
	assert.IsNonDecreasing(t, percents)
	assert.Equal(t, 100, percents[len(percents)-1])
}

// TestSlowConsumerSeesFinalSnapshot reads the stream only after the upload has finished.
func TestSlowConsumerSeesFinalSnapshot(t *testing.T) {
	upload := Start(context.Background(), Object{Key: "k", Size: 10}, chunkedTransfer([]int{2, 2, 2, 2, 2}))
	<-upload.Done()

	var snapshots []Progress
	for p := range upload.Progress() {
		snapshots = append(snapshots, p)
	}

	assert.Equal(t, []Progress{{BytesTransferred: 10, TotalBytes: 10}}, snapshots)
}

// TestFailedTransfer expects the error of the transfer from Wait, and no final 100%.
func TestFailedTransfer(t *testing.T) {
	failure := errors.New("bucket not found")
	upload := Start(context.Background(), Object{Key: "k", Size: 10}, func(ctx context.Context, report func(n int)) error {
		report(4)
		return failure
	})

	var last Progress
	for p := range upload.Progress() {
		last = p
	}
	_, err := upload.Wait()

	assert.ErrorIs(t, err, failure)
	assert.Equal(t, Progress{BytesTransferred: 4, TotalBytes: 10}, last)
}

// TestCancel expects a transfer that honours its context to end with the cancellation error.
func TestCancel(t *testing.T) {
	started := make(chan struct{})
	upload := Start(context.Background(), Object{Key: "k", Size: 10}, func(ctx context.Context, report func(n int)) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	<-started

	upload.Cancel()
	_, err := upload.Wait()

	assert.ErrorIs(t, err, context.Canceled)
}

func TestFailed(t *testing.T) {
	failure := errors.New("invalid key")
	upload := Failed(failure)

	_, ok := <-upload.Progress()
	assert.False(t, ok)
	_, err := upload.Wait()
	assert.ErrorIs(t, err, failure)
	upload.Cancel()
}
