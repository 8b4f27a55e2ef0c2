package connectivity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockTimeSource struct {
	mock.Mock
}

func (m *mockTimeSource) Offset(ctx context.Context) (time.Duration, error) {
	args := m.Called(ctx)
	return args.Get(0).(time.Duration), args.Error(1)
}

func TestSyncClockSkippedWhileDisconnected(t *testing.T) {
	clock := new(mockTimeSource)
	var sl sleepLog
	m := newManager(&SimRadio{Never: true}, clock, &sl, nil)

	m.SyncClock(context.Background())

	clock.AssertNotCalled(t, "Offset", mock.Anything)
	_, ok := m.TimeOfDay()
	assert.False(t, ok)
}

func TestSyncClockQueriesOnceWhenConnected(t *testing.T) {
	clock := new(mockTimeSource)
	clock.On("Offset", mock.Anything).Return(-30*time.Minute, nil).Once()
	var sl sleepLog
	m := newManager(&SimRadio{}, clock, &sl, nil)
	require.True(t, m.EnsureConnected(context.Background(), 1))

	m.SyncClock(context.Background())

	clock.AssertExpectations(t)
	tod, ok := m.TimeOfDay()
	require.True(t, ok)
	assert.Equal(t, "09:30:00", tod.Format("15:04:05"))
}
