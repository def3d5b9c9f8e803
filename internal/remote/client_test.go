package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/and161185/userdir/internal/model"
)

const seedBody = `[
  {"id":1,"name":"Leanne Graham","username":"Bret","email":"Sincere@april.biz","address":{"city":"Gwenborough"}},
  {"id":5,"name":"Mrs. Dennis Schulist","email":"Karley_Dach@jasper.info"},
  {"id":9,"name":"Glenna","email":"Chaim_McDermott@dana.io"}
]`

func TestFetchUsers_HappyPath(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(seedBody))
	}))
	defer ts.Close()

	c := New(ts.URL, "")
	out, err := c.FetchUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 3)
	require.Equal(t, User{ID: 1, Name: "Leanne Graham", Email: "Sincere@april.biz"}, out[0])
}

func TestFetchUsers_HTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer ts.Close()

	_, err := New(ts.URL, "").FetchUsers(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "HTTP 502")
}

func TestFetchUsers_BadJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"a list"}`))
	}))
	defer ts.Close()

	_, err := New(ts.URL, "").FetchUsers(context.Background())
	require.Error(t, err)
}

func TestFetchUsers_ContextCanceled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(ts.URL, "").FetchUsers(ctx)
	require.Error(t, err)
}

func TestFetchUsers_TLSWithHTTPClient(t *testing.T) {
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(seedBody))
	}))
	defer ts.Close()

	_, err := New(ts.URL, "").FetchUsers(context.Background())
	require.Error(t, err, "self-signed certificate must be rejected by the default client")

	out, err := New(ts.URL, "", WithHTTPClient(ts.Client())).FetchUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 3)
}

func TestFetchUsers_Timeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer ts.Close()
	defer close(release)

	_, err := New(ts.URL, "", WithTimeout(20*time.Millisecond)).FetchUsers(context.Background())
	require.Error(t, err)
}

func TestMirror_PostsUser(t *testing.T) {
	var got model.User
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":11}`))
	}))
	defer ts.Close()

	u := model.User{ID: 11, FirstName: "Ann", LastName: "Lee", Email: "ann@x.io", Department: "Ops"}
	require.NoError(t, New("http://unused.invalid", ts.URL).Mirror(context.Background(), u))
	require.Equal(t, u, got)
}

func TestMirror_FallsBackToSeedURL(t *testing.T) {
	hits := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusCreated)
	}))
	defer ts.Close()

	require.NoError(t, New(ts.URL, "").Mirror(context.Background(), model.User{ID: 1}))
	require.Equal(t, 1, hits)
}

func TestMirror_Non2xx(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	require.Error(t, New(ts.URL, "").Mirror(context.Background(), model.User{ID: 1}))
}

func TestSplitName(t *testing.T) {
	t.Parallel()
	cases := []struct{ in, first, last string }{
		{"Leanne Graham", "Leanne", "Graham"},
		{"Mrs. Dennis Schulist", "Mrs.", "Dennis"},
		{"Glenna", "Glenna", ""},
		{"", "", ""},
		{"  Kurtis   Weissnat ", "Kurtis", "Weissnat"},
	}
	for _, tc := range cases {
		f, l := SplitName(tc.in)
		require.Equal(t, tc.first, f, tc.in)
		require.Equal(t, tc.last, l, tc.in)
	}
}

func TestToUser(t *testing.T) {
	t.Parallel()
	u := ToUser(User{ID: 2, Name: "Ervin Howell", Email: "Shanna@melissa.tv"})
	require.Equal(t, model.User{
		ID: 2, FirstName: "Ervin", LastName: "Howell", Email: "Shanna@melissa.tv", Department: model.UnknownDepartment,
	}, u)
}
