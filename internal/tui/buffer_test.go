package tui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBuffer_DrainReturnsInOrder(t *testing.T) {
	b := NewEventBuffer()
	b.Push(recordsMsg{})
	b.Push(pollingMsg{polling: true})

	msgs := b.Drain()
	require.Len(t, msgs, 2)
	assert.Equal(t, recordsMsg{}, msgs[0])
	assert.Equal(t, pollingMsg{polling: true}, msgs[1])

	assert.Nil(t, b.Drain())
}

func TestEventBuffer_WaitForSignal(t *testing.T) {
	b := NewEventBuffer()
	b.Push(recordsMsg{})
	b.Push(recordsMsg{})

	done := make(chan any, 1)
	go func() { done <- b.WaitForSignal()() }()

	select {
	case msg := <-done:
		assert.Equal(t, drainMsg{}, msg)
	case <-time.After(time.Second):
		t.Fatal("WaitForSignal did not return")
	}
}
