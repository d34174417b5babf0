package backend

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vocalis-dev/vocalis/internal/models"
)

func TestMockBackendScripting(t *testing.T) {
	mock := NewMockBackend()
	mock.QueueResponse("first").QueueResponse("second")
	mock.QueueError(errors.New("scripted failure"))

	resp, err := mock.Generate(context.Background(), &models.GenerationRequest{UserContent: "a"})
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Text)

	resp, err = mock.Generate(context.Background(), &models.GenerationRequest{UserContent: "b"})
	require.NoError(t, err)
	assert.Equal(t, "second", resp.Text)

	_, err = mock.Generate(context.Background(), &models.GenerationRequest{UserContent: "c"})
	require.EqualError(t, err, "scripted failure")

	// Exhausted queue falls back to an echo response.
	resp, err = mock.Generate(context.Background(), &models.GenerationRequest{UserContent: "d"})
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "d")

	assert.Equal(t, 4, mock.CallCount())
	require.Len(t, mock.Requests(), 4)
	assert.Equal(t, "a", mock.Requests()[0].UserContent)
}

func TestMockBackendCancelledContext(t *testing.T) {
	mock := NewMockBackend()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := mock.Generate(ctx, &models.GenerationRequest{UserContent: "x"})
	require.Error(t, err)
	assert.Zero(t, mock.CallCount(), "cancelled calls are not recorded")
}
