package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
	"pkg.mon.icu/social/internal/auth"
	"pkg.mon.icu/social/internal/media"
	"pkg.mon.icu/social/internal/service"
	"pkg.mon.icu/social/internal/storage/memory"
)

const testPassword = "Str0ng!Pwd"

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestAPI(t *testing.T) *API {
	t.Helper()
	log := zap.NewNop()
	tokens, err := auth.NewTokens("test-secret", jwt.SigningMethodHS256, time.Minute)
	if err != nil {
		t.Fatalf("couldn't create tokens: %v", err)
	}
	ms := media.NewStore(t.TempDir(), "/static", log)
	svc := service.New(memory.NewStorage(), ms, tokens, log, service.Limits{MaxImageSize: 1 << 10, MaxVideoSize: 1 << 12})
	return NewAPI(context.Background(), log, svc, ms, NewConfig(0, []string{"*"}, 0, 0, 1<<16))
}

type request struct {
	method      string
	path        string
	token       string
	body        io.Reader
	contentType string
}

func (a *API) do(t *testing.T, r request) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(r.method, r.path, r.body)
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, req)
	return w
}

func jsonRequest(method, path, token string, body interface{}) request {
	b, _ := json.Marshal(body)
	return request{method: method, path: path, token: token, body: bytes.NewReader(b), contentType: "application/json"}
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("couldn't decode %q: %v", w.Body.String(), err)
	}
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, w.Code, w.Body.String())
	}
}

// signUp registers a user and logs them in, returning the user id and an access token.
func (a *API) signUp(t *testing.T, name string) (int64, string) {
	t.Helper()
	w := a.do(t, jsonRequest(http.MethodPost, "/users/", "", map[string]string{
		"username":         name,
		"email":            name + "@example.com",
		"password":         testPassword,
		"password_confirm": testPassword,
	}))
	expectStatus(t, w, http.StatusCreated)
	var u userModel
	decode(t, w, &u)

	form := url.Values{"username": {name}, "password": {testPassword}}
	w = a.do(t, request{
		method:      http.MethodPost,
		path:        "/login",
		body:        strings.NewReader(form.Encode()),
		contentType: "application/x-www-form-urlencoded",
	})
	expectStatus(t, w, http.StatusOK)
	var tk tokenModel
	decode(t, w, &tk)
	if tk.TokenType != "bearer" || tk.AccessToken == "" {
		t.Fatalf("unexpected token %+v", tk)
	}
	return u.ID, tk.AccessToken
}

func (a *API) createPost(t *testing.T, token, title string) *postModel {
	t.Helper()
	w := a.do(t, jsonRequest(http.MethodPost, "/posts/", token, map[string]string{"title": title, "content": "body"}))
	expectStatus(t, w, http.StatusCreated)
	var p postModel
	decode(t, w, &p)
	return &p
}

type formFile struct {
	field, name, contentType, content string
}

func multipartRequest(path, token string, fields map[string]string, files ...formFile) request {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.name))
		h.Set("Content-Type", f.contentType)
		pw, _ := mw.CreatePart(h)
		_, _ = pw.Write([]byte(f.content))
	}
	_ = mw.Close()
	return request{method: http.MethodPost, path: path, token: token, body: &buf, contentType: mw.FormDataContentType()}
}

func TestRoot(t *testing.T) {
	a := newTestAPI(t)
	w := a.do(t, request{method: http.MethodGet, path: "/"})
	expectStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), "Hello World") {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}

func TestUsers(t *testing.T) {
	a := newTestAPI(t)
	id, token := a.signUp(t, "alice")

	w := a.do(t, request{method: http.MethodGet, path: "/users/me", token: token})
	expectStatus(t, w, http.StatusOK)
	var me userModel
	decode(t, w, &me)
	if me.ID != id || me.Username != "alice" {
		t.Fatalf("unexpected profile %+v", me)
	}

	w = a.do(t, jsonRequest(http.MethodPost, "/users/", "", map[string]string{
		"username": "alice", "email": "other@example.com", "password": testPassword, "password_confirm": testPassword,
	}))
	expectStatus(t, w, http.StatusConflict)

	w = a.do(t, jsonRequest(http.MethodPost, "/users/", "", map[string]string{
		"username": "carol", "email": "carol@example.com", "password": "weakpass", "password_confirm": "weakpass",
	}))
	expectStatus(t, w, http.StatusUnprocessableEntity)

	form := url.Values{"username": {"alice"}, "password": {"Wr0ng!Pwd"}}
	w = a.do(t, request{method: http.MethodPost, path: "/users/login", body: strings.NewReader(form.Encode()), contentType: "application/x-www-form-urlencoded"})
	expectStatus(t, w, http.StatusUnauthorized)
	if w.Header().Get("WWW-Authenticate") != "Bearer" {
		t.Fatal("missing WWW-Authenticate header")
	}

	w = a.do(t, request{method: http.MethodGet, path: "/users/username/alice"})
	expectStatus(t, w, http.StatusOK)
	w = a.do(t, request{method: http.MethodGet, path: fmt.Sprintf("/users/id/%d", id+100)})
	expectStatus(t, w, http.StatusNotFound)
	w = a.do(t, request{method: http.MethodGet, path: "/users/id/abc"})
	expectStatus(t, w, http.StatusUnprocessableEntity)

	w = a.do(t, jsonRequest(http.MethodPut, "/users/me", token, map[string]string{"email": "new@example.com"}))
	expectStatus(t, w, http.StatusOK)
	decode(t, w, &me)
	if me.Email != "new@example.com" {
		t.Fatalf("email not updated: %+v", me)
	}

	w = a.do(t, request{method: http.MethodDelete, path: "/users/me", token: token})
	expectStatus(t, w, http.StatusNoContent)
	w = a.do(t, request{method: http.MethodGet, path: "/users/me", token: token})
	expectStatus(t, w, http.StatusUnauthorized)
}

func TestAuthRequired(t *testing.T) {
	a := newTestAPI(t)
	for _, token := range []string{"", "garbage"} {
		w := a.do(t, request{method: http.MethodGet, path: "/posts/", token: token})
		expectStatus(t, w, http.StatusUnauthorized)
		if w.Header().Get("WWW-Authenticate") != "Bearer" {
			t.Fatal("missing WWW-Authenticate header")
		}
	}
}

func TestVoteScenario(t *testing.T) {
	a := newTestAPI(t)
	_, alice := a.signUp(t, "alice")
	_, bob := a.signUp(t, "bob")
	p := a.createPost(t, alice, "hello")

	steps := []struct {
		token   string
		message string
		votes   int64
		liked   bool
	}{
		{bob, "Vote added", 1, true},
		{alice, "Vote added", 2, true},
		{bob, "Vote toggled", 1, false},
	}
	for i, st := range steps {
		w := a.do(t, jsonRequest(http.MethodPost, "/vote/", st.token, map[string]int64{"post_id": p.ID}))
		expectStatus(t, w, http.StatusOK)
		var v voteModel
		decode(t, w, &v)
		if v.Message != st.message || v.Votes != st.votes || v.IsLiked != st.liked {
			t.Fatalf("step %d got %+v", i, v)
		}
	}

	w := a.do(t, request{method: http.MethodGet, path: fmt.Sprintf("/posts/%d", p.ID), token: bob})
	expectStatus(t, w, http.StatusOK)
	var got postModel
	decode(t, w, &got)
	if got.Votes != 1 || got.Owner.Username != "alice" {
		t.Fatalf("unexpected post %+v", got)
	}

	for i := 0; i < 2; i++ {
		w = a.do(t, request{method: http.MethodPut, path: fmt.Sprintf("/posts/%d/vote", p.ID), token: bob})
		expectStatus(t, w, http.StatusOK)
	}
	var v voteModel
	decode(t, w, &v)
	if v.Votes != 2 || !v.IsLiked {
		t.Fatalf("unexpected vote state %+v", v)
	}

	w = a.do(t, jsonRequest(http.MethodPost, "/vote/", bob, map[string]int64{"post_id": p.ID + 100}))
	expectStatus(t, w, http.StatusNotFound)
}

func TestVoteTargets(t *testing.T) {
	a := newTestAPI(t)
	_, alice := a.signUp(t, "alice")
	w := a.do(t, multipartRequest("/reels/", alice, map[string]string{"title": "clip"},
		formFile{"video_file", "clip.mp4", "video/mp4", "video bytes"}))
	expectStatus(t, w, http.StatusCreated)
	var r reelModel
	decode(t, w, &r)
	p := a.createPost(t, alice, "hello")

	w = a.do(t, jsonRequest(http.MethodPost, "/vote/", alice, map[string]int64{"reel_id": r.ID}))
	expectStatus(t, w, http.StatusOK)
	var v voteModel
	decode(t, w, &v)
	if v.Message != "Vote added" || v.Votes != 1 || !v.IsLiked {
		t.Fatalf("unexpected reel vote %+v", v)
	}

	for _, body := range []map[string]int64{
		{"post_id": p.ID, "reel_id": r.ID},
		{},
	} {
		w = a.do(t, jsonRequest(http.MethodPost, "/vote/", alice, body))
		expectStatus(t, w, http.StatusBadRequest)
	}
}

func TestBodyTooLarge(t *testing.T) {
	a := newTestAPI(t)
	_, alice := a.signUp(t, "alice")

	w := a.do(t, jsonRequest(http.MethodPost, "/posts/", alice, map[string]string{
		"title":   "big",
		"content": strings.Repeat("x", int(a.config.MaxBodySize)+1),
	}))
	expectStatus(t, w, http.StatusRequestEntityTooLarge)

	w = a.do(t, multipartRequest("/reels/", alice, map[string]string{"title": "big"},
		formFile{"video_file", "clip.mp4", "video/mp4", strings.Repeat("x", int(a.config.MaxBodySize)+1)}))
	expectStatus(t, w, http.StatusRequestEntityTooLarge)
}

func TestDeleteScenario(t *testing.T) {
	a := newTestAPI(t)
	_, alice := a.signUp(t, "alice")
	_, bob := a.signUp(t, "bob")
	p := a.createPost(t, alice, "hello")
	path := fmt.Sprintf("/posts/%d", p.ID)

	w := a.do(t, request{method: http.MethodDelete, path: path, token: bob})
	expectStatus(t, w, http.StatusForbidden)
	w = a.do(t, request{method: http.MethodDelete, path: path, token: alice})
	expectStatus(t, w, http.StatusNoContent)
	w = a.do(t, request{method: http.MethodGet, path: path, token: alice})
	expectStatus(t, w, http.StatusNotFound)
}

func TestPostsListing(t *testing.T) {
	a := newTestAPI(t)
	_, alice := a.signUp(t, "alice")
	a.createPost(t, alice, "first")
	last := a.createPost(t, alice, "second")

	w := a.do(t, request{method: http.MethodGet, path: "/posts/?limit=1", token: alice})
	expectStatus(t, w, http.StatusOK)
	var ps []postModel
	decode(t, w, &ps)
	if len(ps) != 1 || ps[0].ID != last.ID {
		t.Fatalf("unexpected page %+v", ps)
	}

	w = a.do(t, request{method: http.MethodGet, path: "/posts/?search=fir", token: alice})
	decode(t, w, &ps)
	if len(ps) != 1 || ps[0].Title != "first" {
		t.Fatalf("unexpected search result %+v", ps)
	}

	w = a.do(t, request{method: http.MethodGet, path: "/posts/?limit=-1", token: alice})
	expectStatus(t, w, http.StatusUnprocessableEntity)

	w = a.do(t, request{method: http.MethodGet, path: "/posts/latest", token: alice})
	expectStatus(t, w, http.StatusOK)
	var latest postModel
	decode(t, w, &latest)
	if latest.ID != last.ID {
		t.Fatalf("latest is %d, want %d", latest.ID, last.ID)
	}
}

func TestReelUploadScenario(t *testing.T) {
	a := newTestAPI(t)
	_, alice := a.signUp(t, "alice")

	w := a.do(t, multipartRequest("/reels/", alice, map[string]string{"title": "bad"},
		formFile{"video_file", "setup.exe", "application/octet-stream", "MZ"}))
	expectStatus(t, w, http.StatusUnsupportedMediaType)

	w = a.do(t, multipartRequest("/reels/", alice, map[string]string{"title": "clip", "duration": "7"},
		formFile{"video_file", "clip.mp4", "video/mp4", "video bytes"},
		formFile{"thumbnail", "thumb.png", "image/png", "png bytes"}))
	expectStatus(t, w, http.StatusCreated)
	var r reelModel
	decode(t, w, &r)
	if r.Duration != 7 || r.ThumbnailURL == nil || !strings.HasPrefix(r.VideoURL, "/static/reels/") {
		t.Fatalf("unexpected reel %+v", r)
	}

	w = a.do(t, request{method: http.MethodGet, path: r.VideoURL})
	expectStatus(t, w, http.StatusOK)
	if w.Body.String() != "video bytes" {
		t.Fatalf("served %q", w.Body.String())
	}

	w = a.do(t, multipartRequest("/reels/", alice, map[string]string{"title": "none"}))
	expectStatus(t, w, http.StatusUnprocessableEntity)

	w = a.do(t, jsonRequest(http.MethodPost, "/reels/like", alice, map[string]int64{"reel_id": r.ID}))
	expectStatus(t, w, http.StatusOK)

	w = a.do(t, jsonRequest(http.MethodPost, fmt.Sprintf("/reels/%d/comment", r.ID), alice, map[string]string{"content": "nice"}))
	expectStatus(t, w, http.StatusCreated)
	var cm commentModel
	decode(t, w, &cm)
	if cm.ReelID == nil || *cm.ReelID != r.ID || cm.PostID != nil {
		t.Fatalf("unexpected comment %+v", cm)
	}

	w = a.do(t, request{method: http.MethodDelete, path: fmt.Sprintf("/reels/%d", r.ID), token: alice})
	expectStatus(t, w, http.StatusNoContent)
	w = a.do(t, request{method: http.MethodGet, path: r.VideoURL})
	expectStatus(t, w, http.StatusNotFound)
}

func TestProfilePictureUpload(t *testing.T) {
	a := newTestAPI(t)
	_, alice := a.signUp(t, "alice")

	w := a.do(t, multipartRequest("/users/upload-profile-picture", alice, nil,
		formFile{"file", "me.svg", "image/svg+xml", "<svg/>"}))
	expectStatus(t, w, http.StatusUnsupportedMediaType)

	w = a.do(t, multipartRequest("/users/upload-profile-picture", alice, nil,
		formFile{"file", "evil.html", "image/png", "<script>alert(1)</script>"}))
	expectStatus(t, w, http.StatusUnsupportedMediaType)
	w = a.do(t, request{method: http.MethodGet, path: "/users/me", token: alice})
	var me userModel
	decode(t, w, &me)
	if me.ProfilePicture != nil {
		t.Fatalf("rejected upload was stored as %q", *me.ProfilePicture)
	}

	w = a.do(t, multipartRequest("/users/upload-profile-picture", alice, nil,
		formFile{"file", "me.png", "image/png", strings.Repeat("x", 2<<10)}))
	expectStatus(t, w, http.StatusRequestEntityTooLarge)

	w = a.do(t, multipartRequest("/users/upload-profile-picture", alice, nil,
		formFile{"file", "me.png", "image/png", "png"}))
	expectStatus(t, w, http.StatusOK)
	var u userModel
	decode(t, w, &u)
	if u.ProfilePicture == nil || !strings.HasPrefix(*u.ProfilePicture, "/static/profile_pictures/") {
		t.Fatalf("unexpected user %+v", u)
	}
}

func TestComments(t *testing.T) {
	a := newTestAPI(t)
	_, alice := a.signUp(t, "alice")
	_, bob := a.signUp(t, "bob")
	p := a.createPost(t, alice, "hello")

	w := a.do(t, jsonRequest(http.MethodPost, "/comments/", bob, map[string]interface{}{"content": "x", "post_id": p.ID, "reel_id": p.ID}))
	expectStatus(t, w, http.StatusUnprocessableEntity)
	w = a.do(t, jsonRequest(http.MethodPost, "/comments/", bob, map[string]interface{}{"content": "x"}))
	expectStatus(t, w, http.StatusUnprocessableEntity)

	w = a.do(t, jsonRequest(http.MethodPost, "/comments/", bob, map[string]interface{}{"content": "first", "post_id": p.ID}))
	expectStatus(t, w, http.StatusCreated)
	var cm commentModel
	decode(t, w, &cm)

	w = a.do(t, jsonRequest(http.MethodPost, fmt.Sprintf("/posts/%d/comment", p.ID), alice, map[string]string{"content": "second"}))
	expectStatus(t, w, http.StatusCreated)

	w = a.do(t, request{method: http.MethodGet, path: fmt.Sprintf("/posts/%d/comments", p.ID), token: alice})
	expectStatus(t, w, http.StatusOK)
	var cs []commentModel
	decode(t, w, &cs)
	if len(cs) != 2 || cs[0].User.Username != "bob" || cs[1].Content != "second" {
		t.Fatalf("unexpected comments %+v", cs)
	}

	w = a.do(t, jsonRequest(http.MethodPut, fmt.Sprintf("/comments/%d", cm.ID), alice, map[string]string{"content": "mine"}))
	expectStatus(t, w, http.StatusForbidden)
	w = a.do(t, request{method: http.MethodDelete, path: fmt.Sprintf("/comments/%d", cm.ID), token: bob})
	expectStatus(t, w, http.StatusNoContent)
}

func TestFollows(t *testing.T) {
	a := newTestAPI(t)
	aliceID, alice := a.signUp(t, "alice")
	bobID, bob := a.signUp(t, "bob")

	follow := fmt.Sprintf("/users/follow/%d", bobID)
	w := a.do(t, request{method: http.MethodPost, path: follow, token: alice})
	expectStatus(t, w, http.StatusCreated)
	w = a.do(t, request{method: http.MethodPost, path: follow, token: alice})
	expectStatus(t, w, http.StatusConflict)
	w = a.do(t, request{method: http.MethodPost, path: fmt.Sprintf("/users/follow/%d", aliceID), token: alice})
	expectStatus(t, w, http.StatusBadRequest)

	w = a.do(t, request{method: http.MethodGet, path: "/users/followers", token: bob})
	expectStatus(t, w, http.StatusOK)
	var us []userInfoModel
	decode(t, w, &us)
	if len(us) != 1 || us[0].ID != aliceID {
		t.Fatalf("unexpected followers %+v", us)
	}

	w = a.do(t, request{method: http.MethodGet, path: fmt.Sprintf("/users/id/%d/following", aliceID), token: bob})
	decode(t, w, &us)
	if len(us) != 1 || us[0].Username != "bob" {
		t.Fatalf("unexpected following %+v", us)
	}

	w = a.do(t, request{method: http.MethodPost, path: fmt.Sprintf("/users/unfollow/%d", aliceID), token: bob})
	expectStatus(t, w, http.StatusNotFound)
	w = a.do(t, request{method: http.MethodPost, path: fmt.Sprintf("/users/unfollow/%d", bobID), token: alice})
	expectStatus(t, w, http.StatusOK)
}

func TestRateLimiter(t *testing.T) {
	l := newRateLimiter(1, 2)
	now := time.Now()

	if !l.allow("a", now) || !l.allow("a", now) {
		t.Fatal("burst was not allowed")
	}
	if l.allow("a", now) {
		t.Fatal("request over burst was allowed")
	}
	if !l.allow("b", now) {
		t.Fatal("other client was limited")
	}
	if !l.allow("a", now.Add(time.Second)) {
		t.Fatal("bucket did not refill")
	}

	l.prune(now.Add(time.Millisecond))
	if _, ok := l.visitors["b"]; ok {
		t.Fatal("idle client was kept")
	}
	if _, ok := l.visitors["a"]; !ok {
		t.Fatal("active client was dropped")
	}
}
