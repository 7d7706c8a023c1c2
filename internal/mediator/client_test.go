package mediator

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/brotab/internal/model"
)

// newTestMediator starts an httptest server and returns a client pointed
// at it together with the server's port.
func newTestMediator(t *testing.T, handler http.Handler) (*Client, model.Port) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	tcpAddr, ok := srv.Listener.Addr().(*net.TCPAddr)
	require.True(t, ok)

	c := NewClient(2*time.Second, WithHost("127.0.0.1"))
	return c, model.Port(tcpAddr.Port)
}

func TestListTabs(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/list_tabs", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte("1.1\tGMail\thttps://mail.google.com\n1.2\tnews\thttps://news.ycombinator.com"))
	})
	c, port := newTestMediator(t, mux)

	body, err := c.ListTabs(context.Background(), port)
	require.NoError(t, err)
	assert.Equal(t, "1.1\tGMail\thttps://mail.google.com\n1.2\tnews\thttps://news.ycombinator.com", body)
}

// TestListTabs_NonSuccessStatus verifies that an error status is a failure,
// not an empty listing.
func TestListTabs_NonSuccessStatus(t *testing.T) {
	c, port := newTestMediator(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "<ERROR>", http.StatusInternalServerError)
	}))

	_, err := c.ListTabs(context.Background(), port)
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Equal(t, "<ERROR>", statusErr.Body)
	assert.Contains(t, err.Error(), "/list_tabs")
}

// TestListTabs_ConnectionRefused verifies that a transport failure is
// reported as an error.
func TestListTabs_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := model.Port(ln.Addr().(*net.TCPAddr).Port)
	require.NoError(t, ln.Close())

	c := NewClient(time.Second, WithHost("127.0.0.1"))
	_, err = c.ListTabs(context.Background(), port)
	assert.Error(t, err)
}

// TestListTabs_Timeout verifies that the client timeout cuts off a
// mediator that never answers.
func TestListTabs_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	port := model.Port(srv.Listener.Addr().(*net.TCPAddr).Port)
	c := NewClient(50*time.Millisecond, WithHost("127.0.0.1"))

	start := time.Now()
	_, err := c.ListTabs(context.Background(), port)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestCloseTabs(t *testing.T) {
	var gotPath string
	mux := http.NewServeMux()
	mux.HandleFunc("/close_tabs/", func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte("OK"))
	})
	c, port := newTestMediator(t, mux)

	require.NoError(t, c.CloseTabs(context.Background(), port, []string{"12", "34"}))
	assert.Equal(t, "/close_tabs/12,34", gotPath)
}

func TestActiveTabs(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/get_active_tabs", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("1.4,3.9"))
	})
	c, port := newTestMediator(t, mux)

	body, err := c.ActiveTabs(context.Background(), port)
	require.NoError(t, err)
	assert.Equal(t, "1.4,3.9", body)
}

// TestCloseTabs_Empty verifies that no request is sent for an empty id list.
func TestCloseTabs_Empty(t *testing.T) {
	called := false
	c, port := newTestMediator(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
	}))

	require.NoError(t, c.CloseTabs(context.Background(), port, nil))
	assert.False(t, called)
}

func TestActivateTab(t *testing.T) {
	tests := []struct {
		name      string
		focused   bool
		wantQuery string
	}{
		{name: "plain", focused: false, wantQuery: ""},
		{name: "focused", focused: true, wantQuery: "focused=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath, gotQuery string
			c, port := newTestMediator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				gotQuery = r.URL.RawQuery
				_, _ = w.Write([]byte("OK"))
			}))

			require.NoError(t, c.ActivateTab(context.Background(), port, "42", tt.focused))
			assert.Equal(t, "/activate_tab/42", gotPath)
			assert.Equal(t, tt.wantQuery, gotQuery)
		})
	}
}

func TestBrowserAndPID(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/get_browser", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("firefox\n"))
	})
	mux.HandleFunc("/get_pid", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("4242"))
	})
	c, port := newTestMediator(t, mux)

	browser, err := c.Browser(context.Background(), port)
	require.NoError(t, err)
	assert.Equal(t, "firefox", browser)

	pid, err := c.PID(context.Background(), port)
	require.NoError(t, err)
	assert.Equal(t, 4242, pid)
}

func TestPID_Malformed(t *testing.T) {
	c, port := newTestMediator(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not-a-pid"))
	}))

	_, err := c.PID(context.Background(), port)
	assert.Error(t, err)
}
