package httptransport

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewServerAppliesDefaults(t *testing.T) {
	srv := NewServer(ServerConfig{Address: ":0"}, http.NotFoundHandler())

	require.Equal(t, DefaultReadTimeout, srv.ReadTimeout)
	require.Equal(t, DefaultWriteTimeout, srv.WriteTimeout)
	require.Equal(t, DefaultIdleTimeout, srv.IdleTimeout)
}

func TestNewServerKeepsConfiguredTimeouts(t *testing.T) {
	srv := NewServer(ServerConfig{
		Address:      ":0",
		ReadTimeout:  time.Second,
		WriteTimeout: 2 * time.Second,
		IdleTimeout:  30 * time.Second,
	}, http.NotFoundHandler())

	require.Equal(t, time.Second, srv.ReadTimeout)
	require.Equal(t, 2*time.Second, srv.WriteTimeout)
	require.Equal(t, 30*time.Second, srv.IdleTimeout)
}
