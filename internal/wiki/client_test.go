package wiki

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/webworld/internal/perlin"
	"github.com/MeKo-Tech/webworld/internal/render"
	"github.com/MeKo-Tech/webworld/internal/world"
)

const (
	testLoginToken = "login+\\"
	testCSRFToken  = "csrf+\\"
)

// fakeWiki imitates the parts of the MediaWiki action API the client uses.
type fakeWiki struct {
	mu          sync.Mutex
	password    string
	editResult  string
	actions     []string
	pages       map[string]string
	uploads     map[string][]byte
	loggedIn    bool
	sawSession  bool
	lastSummary string
}

func newFakeWiki(password string) *fakeWiki {
	return &fakeWiki{
		password:   password,
		editResult: "Success",
		pages:      map[string]string{},
		uploads:    map[string][]byte{},
	}
}

func (f *fakeWiki) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	reply := func(v any) { _ = json.NewEncoder(w).Encode(v) }

	if r.Method == http.MethodGet {
		q := r.URL.Query()
		if q.Get("action") != "query" || q.Get("meta") != "tokens" {
			reply(map[string]any{"error": map[string]string{"code": "badrequest", "info": "unexpected query"}})
			return
		}
		f.actions = append(f.actions, "tokens:"+q.Get("type"))
		if q.Get("type") == "login" {
			http.SetCookie(w, &http.Cookie{Name: "wikisession", Value: "abc", Path: "/"})
			reply(map[string]any{"query": map[string]any{"tokens": map[string]string{"logintoken": testLoginToken}}})
			return
		}
		reply(map[string]any{"query": map[string]any{"tokens": map[string]string{"csrftoken": testCSRFToken}}})
		return
	}

	if err := r.ParseMultipartForm(1 << 20); err != nil && err != http.ErrNotMultipart {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	action := r.FormValue("action")
	f.actions = append(f.actions, action)

	switch action {
	case "login":
		if c, err := r.Cookie("wikisession"); err == nil && c.Value == "abc" {
			f.sawSession = true
		}
		if r.FormValue("lgtoken") != testLoginToken || r.FormValue("lgpassword") != f.password {
			reply(map[string]any{"login": map[string]string{"result": "Failed", "reason": "Incorrect password"}})
			return
		}
		f.loggedIn = true
		reply(map[string]any{"login": map[string]string{"result": "Success"}})
	case "edit":
		if !f.loggedIn || r.FormValue("assert") != "user" {
			reply(map[string]any{"error": map[string]string{"code": "assertuserfailed", "info": "not logged in"}})
			return
		}
		if r.FormValue("token") != testCSRFToken {
			reply(map[string]any{"error": map[string]string{"code": "badtoken", "info": "Invalid CSRF token."}})
			return
		}
		f.pages[r.FormValue("title")] = r.FormValue("text")
		f.lastSummary = r.FormValue("summary")
		reply(map[string]any{"edit": map[string]string{"result": f.editResult}})
	case "upload":
		if r.FormValue("token") != testCSRFToken || r.FormValue("ignorewarnings") == "" {
			reply(map[string]any{"error": map[string]string{"code": "badupload", "info": "bad upload"}})
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		f.uploads[r.FormValue("filename")] = data
		reply(map[string]any{"upload": map[string]string{"result": "Success"}})
	default:
		reply(map[string]any{"error": map[string]string{"code": "unknown_action", "info": action}})
	}
}

func newTestClient(t *testing.T, fw *fakeWiki, password string) *Client {
	t.Helper()
	srv := httptest.NewServer(fw)
	t.Cleanup(srv.Close)

	c, err := New(Config{APIURL: srv.URL + "/api.php", Username: "bot", Password: password}, nil)
	require.NoError(t, err)
	return c
}

func TestClient_Publish(t *testing.T) {
	fw := newFakeWiki("secret")
	c := newTestClient(t, fw, "secret")

	err := c.Publish(context.Background(), Page{
		Title:   "Notes",
		Text:    "hello",
		Summary: "first",
		Files:   []File{{Name: "a.png", Data: []byte{1, 2, 3}}, {Name: "b.png", Data: []byte{4}}},
	})
	require.NoError(t, err)

	assert.True(t, fw.sawSession, "login must reuse the session cookie")
	assert.Equal(t, "hello", fw.pages["Notes"])
	assert.Equal(t, "first", fw.lastSummary)
	assert.Equal(t, []byte{1, 2, 3}, fw.uploads["a.png"])
	assert.Equal(t, []byte{4}, fw.uploads["b.png"])
	assert.Equal(t, []string{"tokens:login", "login", "tokens:", "edit", "tokens:", "upload", "tokens:", "upload"}, fw.actions)
}

func TestClient_LoginFailed(t *testing.T) {
	fw := newFakeWiki("secret")
	c := newTestClient(t, fw, "wrong")

	err := c.Login(context.Background())
	require.ErrorIs(t, err, ErrLoginFailed)
	assert.Contains(t, err.Error(), "Incorrect password")

	err = c.Publish(context.Background(), Page{Title: "Notes"})
	require.ErrorIs(t, err, ErrLoginFailed)
	assert.Empty(t, fw.pages)
}

func TestClient_EditRequiresLogin(t *testing.T) {
	fw := newFakeWiki("secret")
	c := newTestClient(t, fw, "secret")

	err := c.Edit(context.Background(), "Notes", "x", "")
	require.ErrorIs(t, err, ErrAPI)
	assert.Contains(t, err.Error(), "assertuserfailed")
}

func TestClient_EditNotSuccessful(t *testing.T) {
	fw := newFakeWiki("secret")
	fw.editResult = "Failure"
	c := newTestClient(t, fw, "secret")

	require.NoError(t, c.Login(context.Background()))
	err := c.Edit(context.Background(), "Notes", "x", "")
	require.ErrorIs(t, err, ErrAPI)
}

func TestClient_HTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	c, err := New(Config{APIURL: srv.URL}, nil)
	require.NoError(t, err)

	err = c.Login(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestNew_RequiresURL(t *testing.T) {
	_, err := New(Config{}, nil)
	require.Error(t, err)
}

func TestCreateWorldPage(t *testing.T) {
	fw := newFakeWiki("secret")
	c := newTestClient(t, fw, "secret")

	heights, err := perlin.NoiseMap(perlin.Params{Height: 12, Width: 16, Octaves: 3, MinGridSize: 3}, perlin.Options{})
	require.NoError(t, err)
	w, err := world.FromHeightMap(heights, 0.5)
	require.NoError(t, err)

	require.NoError(t, CreateWorldPage(context.Background(), c, w, WorldPageOptions{}))

	assert.Equal(t, "This is the world\n\n[[File:world.png]]", fw.pages[WorldTitle])
	assert.Equal(t, WorldSummary, fw.lastSummary)
	require.NotEmpty(t, fw.uploads[WorldFilename])
	assert.Equal(t, []byte("\x89PNG"), fw.uploads[WorldFilename][:4])
}

func TestWorldPage_Options(t *testing.T) {
	heights, err := perlin.NoiseMap(perlin.Params{Height: 8, Width: 10, Octaves: 2, MinGridSize: 3}, perlin.Options{})
	require.NoError(t, err)
	w, err := world.FromHeightMap(heights, 0.3)
	require.NoError(t, err)

	page, err := WorldPage(w, WorldPageOptions{Title: "Map", Filename: "map.png", Render: render.Options{Scale: 2}})
	require.NoError(t, err)
	assert.Equal(t, "Map", page.Title)
	assert.Equal(t, WorldSummary, page.Summary)
	assert.Equal(t, "This is the world\n\n[[File:map.png]]", page.Text)
	require.Len(t, page.Files, 1)
	assert.Equal(t, "map.png", page.Files[0].Name)
}

func TestWorldPage_BadWaterLevel(t *testing.T) {
	heights, err := perlin.NoiseMap(perlin.Params{Height: 8, Width: 8, Octaves: 2, MinGridSize: 3}, perlin.Options{})
	require.NoError(t, err)
	w, err := world.FromHeightMap(heights, 2)
	require.NoError(t, err)

	_, err = WorldPage(w, WorldPageOptions{})
	require.ErrorIs(t, err, world.ErrWaterLevel)
}
