package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dchukwu/identity-server/internal/model"
	srv "github.com/dchukwu/identity-server/internal/server"
)

// recordingLayer hands the accepted listener back to the test so it can
// learn the port chosen for 127.0.0.1:0.
type recordingLayer struct {
	inner model.SecurityLayer
	ch    chan net.Listener
}

func (r recordingLayer) Listen(protocol, addr string) (net.Listener, error) {
	l, err := r.inner.Listen(protocol, addr)
	if err == nil {
		r.ch <- l
	}
	return l, err
}

func TestHTTPServer_Address(t *testing.T) {
	s := NewHTTPServer(echo.New(), ":8080")
	assert.Equal(t, ":8080", s.Address())
}

func TestHTTPServer_StartStop(t *testing.T) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.GET("/ping", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	s := NewHTTPServer(e, "127.0.0.1:0")
	layer := recordingLayer{inner: srv.NewPlainListener(), ch: make(chan net.Listener, 1)}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start(layer)
	}()

	var addr string
	select {
	case l := <-layer.ch:
		addr = l.Addr().String()
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start listening")
	}

	var resp *http.Response
	var err error
	require.Eventually(t, func() bool {
		resp, err = http.Get(fmt.Sprintf("http://%s/ping", addr))
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, http.ErrServerClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
