package connmgr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBackoffDoublesAndCaps(t *testing.T) {
	b := NewBackoff()
	require.Equal(t, 1*time.Second, b.Next())
	require.Equal(t, 2*time.Second, b.Next())
	require.Equal(t, 4*time.Second, b.Next())
	require.Equal(t, 8*time.Second, b.Next())

	for i := 0; i < 10; i++ {
		b.Next()
	}
	require.Equal(t, backoffCap, b.Next())
}

func TestBackoffResetsToStart(t *testing.T) {
	b := NewBackoff()
	b.Next()
	b.Next()
	b.Reset()
	require.Equal(t, 1*time.Second, b.Next())
}
