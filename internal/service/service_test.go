package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
	"pkg.mon.icu/social/internal/auth"
	"pkg.mon.icu/social/internal/media"
	"pkg.mon.icu/social/internal/storage/entity"
	"pkg.mon.icu/social/internal/storage/memory"
)

const testPassword = "Str0ng!Pwd"

func newTestService(t *testing.T) *Service {
	t.Helper()
	tokens, err := auth.NewTokens("test-secret", jwt.SigningMethodHS256, time.Minute)
	if err != nil {
		t.Fatalf("couldn't create tokens: %v", err)
	}
	log := zap.NewNop()
	return New(memory.NewStorage(), media.NewStore(t.TempDir(), "/media", log), tokens, log, Limits{MaxImageSize: 1024, MaxVideoSize: 4096})
}

func register(t *testing.T, s *Service, name string) *entity.User {
	t.Helper()
	u, err := s.Register(context.Background(), Registration{
		Username:        name,
		Email:           name + "@example.com",
		Password:        testPassword,
		PasswordConfirm: testPassword,
	})
	if err != nil {
		t.Fatalf("couldn't register %s: %v", name, err)
	}
	return u
}

func createPost(t *testing.T, s *Service, owner *entity.User, title string) *entity.PostView {
	t.Helper()
	p, err := s.CreatePost(context.Background(), owner, PostInput{Title: title, Content: "content of " + title})
	if err != nil {
		t.Fatalf("couldn't create post: %v", err)
	}
	return p
}

func expectErr(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("expected %v, got %v", target, err)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	alice := register(t, s, "alice")

	if alice.ID == 0 || alice.Password == testPassword {
		t.Fatalf("unexpected user %+v", alice)
	}

	token, err := s.Login(ctx, "alice", testPassword)
	if err != nil {
		t.Fatalf("login error: %v", err)
	}
	u, err := s.Authenticate(ctx, token)
	if err != nil {
		t.Fatalf("authenticate error: %v", err)
	}
	if u.ID != alice.ID {
		t.Fatalf("token resolved to user %d, want %d", u.ID, alice.ID)
	}

	_, err = s.Login(ctx, "alice", "Wr0ng!Pwd")
	expectErr(t, err, auth.ErrInvalidCredentials)
	_, err = s.Login(ctx, "nobody", testPassword)
	expectErr(t, err, auth.ErrInvalidCredentials)
	_, err = s.Authenticate(ctx, token+"x")
	expectErr(t, err, auth.ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	register(t, s, "alice")

	phone := "+100"
	cases := []struct {
		r    Registration
		want error
	}{
		{Registration{Username: " ", Email: "x@example.com", Password: testPassword, PasswordConfirm: testPassword}, ErrValidation},
		{Registration{Username: "x", Email: "not-an-email", Password: testPassword, PasswordConfirm: testPassword}, ErrValidation},
		{Registration{Username: "x", Email: "x@example.com", Password: testPassword, PasswordConfirm: "other"}, ErrValidation},
		{Registration{Username: "x", Email: "x@example.com", Password: "weak", PasswordConfirm: "weak"}, auth.ErrWeakPassword},
		{Registration{Username: "alice", Email: "x@example.com", Password: testPassword, PasswordConfirm: testPassword}, ErrConflict},
		{Registration{Username: "x", Email: "alice@example.com", Password: testPassword, PasswordConfirm: testPassword}, ErrConflict},
		{Registration{Username: "x", Email: "x@example.com", PhoneNumber: &phone, Password: testPassword, PasswordConfirm: testPassword}, nil},
		{Registration{Username: "y", Email: "y@example.com", PhoneNumber: &phone, Password: testPassword, PasswordConfirm: testPassword}, ErrConflict},
	}
	for i, c := range cases {
		_, err := s.Register(ctx, c.r)
		if c.want == nil {
			if err != nil {
				t.Fatalf("case %d expected ok, got %v", i, err)
			}
			continue
		}
		if !errors.Is(err, c.want) {
			t.Fatalf("case %d expected %v, got %v", i, c.want, err)
		}
	}
}

func TestUpdateProfile(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	alice := register(t, s, "alice")
	register(t, s, "bob")

	taken := "bob"
	_, err := s.UpdateProfile(ctx, alice, ProfileUpdate{Username: &taken})
	expectErr(t, err, ErrConflict)

	_, err = s.UpdateProfile(ctx, alice, ProfileUpdate{CurrentPassword: "nope", NewPassword: "N3w!Password"})
	expectErr(t, err, ErrValidation)

	name := "alice2"
	u, err := s.UpdateProfile(ctx, alice, ProfileUpdate{Username: &name, CurrentPassword: testPassword, NewPassword: "N3w!Password"})
	if err != nil {
		t.Fatalf("update error: %v", err)
	}
	if u.Username != "alice2" || u.Email != "alice@example.com" {
		t.Fatalf("unexpected profile %+v", u)
	}
	if _, err := s.Login(ctx, "alice2", "N3w!Password"); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
	if _, err := s.GetUserByUsername(ctx, "alice"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("old username still resolves: %v", err)
	}
}

func TestDeleteUser(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	alice := register(t, s, "alice")
	bob := register(t, s, "bob")
	p := createPost(t, s, alice, "hello")

	expectErr(t, s.DeleteUser(ctx, bob, alice.ID), ErrForbidden)
	if err := s.DeleteUser(ctx, alice, alice.ID); err != nil {
		t.Fatalf("delete error: %v", err)
	}

	_, err := s.GetUser(ctx, alice.ID)
	expectErr(t, err, ErrNotFound)
	_, err = s.GetPost(ctx, p.ID)
	expectErr(t, err, ErrNotFound)
}

func TestPostOwnership(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	alice := register(t, s, "alice")
	bob := register(t, s, "bob")
	p := createPost(t, s, alice, "hello")

	if !p.Published || p.Owner.Username != "alice" {
		t.Fatalf("unexpected post %+v", p)
	}

	_, err := s.UpdatePost(ctx, bob, p.ID, PostInput{Title: "mine", Content: "now"})
	expectErr(t, err, ErrForbidden)
	expectErr(t, s.DeletePost(ctx, bob, p.ID), ErrForbidden)

	off := false
	updated, err := s.UpdatePost(ctx, alice, p.ID, PostInput{Title: "edited", Content: "new", Published: &off})
	if err != nil {
		t.Fatalf("update error: %v", err)
	}
	if updated.Title != "edited" || updated.Published {
		t.Fatalf("unexpected post %+v", updated)
	}

	if err := s.DeletePost(ctx, alice, p.ID); err != nil {
		t.Fatalf("delete error: %v", err)
	}
	_, err = s.GetPost(ctx, p.ID)
	expectErr(t, err, ErrNotFound)
	expectErr(t, s.DeletePost(ctx, alice, p.ID), ErrNotFound)
}

func TestListPostsPaging(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	alice := register(t, s, "alice")

	_, err := s.LatestPost(ctx)
	expectErr(t, err, ErrNotFound)

	for i := 0; i < 12; i++ {
		createPost(t, s, alice, "post")
	}
	last := createPost(t, s, alice, "special")

	ps, err := s.ListPosts(ctx, entity.Page{})
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	if len(ps) != DefaultPageLimit || ps[0].ID != last.ID {
		t.Fatalf("expected %d posts starting with %d, got %d", DefaultPageLimit, last.ID, len(ps))
	}

	ps, _ = s.ListPosts(ctx, entity.Page{Limit: 1000, Search: "spec"})
	if len(ps) != 1 || ps[0].ID != last.ID {
		t.Fatalf("search returned %d posts", len(ps))
	}

	_, err = s.ListPosts(ctx, entity.Page{Skip: -1})
	expectErr(t, err, ErrValidation)

	latest, err := s.LatestPost(ctx)
	if err != nil || latest.ID != last.ID {
		t.Fatalf("latest is %v (%v), want %d", latest, err, last.ID)
	}
}

func TestVotes(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	alice := register(t, s, "alice")
	bob := register(t, s, "bob")
	p := createPost(t, s, alice, "hello")
	target := entity.PostTarget(p.ID)

	steps := []struct {
		user  *entity.User
		votes int64
		liked bool
	}{
		{bob, 1, true},
		{alice, 2, true},
		{bob, 1, false},
		{bob, 2, true},
	}
	for i, st := range steps {
		res, err := s.ToggleVote(ctx, st.user, target)
		if err != nil {
			t.Fatalf("step %d toggle error: %v", i, err)
		}
		if res.Votes != st.votes || res.Liked != st.liked || res.Added != st.liked {
			t.Fatalf("step %d got %+v, want votes %d liked %v", i, res, st.votes, st.liked)
		}
	}

	view, _ := s.GetPost(ctx, p.ID)
	if view.Votes != 2 {
		t.Fatalf("post has %d votes, want 2", view.Votes)
	}

	for i := 0; i < 2; i++ {
		res, err := s.SetVote(ctx, bob, target, true)
		if err != nil || res.Votes != 2 || !res.Liked {
			t.Fatalf("repeated set gave %+v (%v)", res, err)
		}
	}
	res, _ := s.SetVote(ctx, bob, target, false)
	if res.Votes != 1 || res.Liked {
		t.Fatalf("unset gave %+v", res)
	}

	_, err := s.ToggleVote(ctx, bob, entity.PostTarget(9999))
	expectErr(t, err, ErrNotFound)
	_, err = s.ToggleVote(ctx, bob, entity.ReelTarget(p.ID))
	expectErr(t, err, ErrNotFound)
}

func TestComments(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	alice := register(t, s, "alice")
	bob := register(t, s, "bob")
	p := createPost(t, s, alice, "hello")

	id := p.ID
	_, err := TargetFromIDs(&id, &id)
	expectErr(t, err, ErrValidation)
	_, err = TargetFromIDs(nil, nil)
	expectErr(t, err, ErrValidation)

	target, err := TargetFromIDs(&id, nil)
	if err != nil {
		t.Fatalf("target error: %v", err)
	}
	_, err = s.CreateComment(ctx, bob, target, "  ")
	expectErr(t, err, ErrValidation)
	_, err = s.CreateComment(ctx, bob, nil, "hi")
	expectErr(t, err, ErrValidation)
	_, err = s.CreateComment(ctx, bob, entity.PostTarget(9999), "hi")
	expectErr(t, err, ErrNotFound)

	first, err := s.CreateComment(ctx, bob, target, "first")
	if err != nil {
		t.Fatalf("comment error: %v", err)
	}
	if _, err := s.CreateComment(ctx, alice, target, "second"); err != nil {
		t.Fatalf("comment error: %v", err)
	}

	cs, err := s.ListComments(ctx, target)
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	if len(cs) != 2 || cs[0].Content != "first" || cs[0].Author.Username != "bob" {
		t.Fatalf("unexpected comments %+v", cs)
	}

	_, err = s.UpdateComment(ctx, alice, first.ID, "hijacked")
	expectErr(t, err, ErrForbidden)
	if _, err := s.UpdateComment(ctx, bob, first.ID, "edited"); err != nil {
		t.Fatalf("update error: %v", err)
	}
	expectErr(t, s.DeleteComment(ctx, alice, first.ID), ErrForbidden)
	if err := s.DeleteComment(ctx, bob, first.ID); err != nil {
		t.Fatalf("delete error: %v", err)
	}

	if _, err := s.ToggleVote(ctx, bob, target); err != nil {
		t.Fatalf("vote error: %v", err)
	}
	if err := s.DeletePost(ctx, alice, p.ID); err != nil {
		t.Fatalf("delete post error: %v", err)
	}
	_, err = s.ListComments(ctx, target)
	expectErr(t, err, ErrNotFound)
}

func TestFollows(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	alice := register(t, s, "alice")
	bob := register(t, s, "bob")

	expectErr(t, s.Follow(ctx, alice, alice.ID), ErrBadRequest)
	expectErr(t, s.Follow(ctx, alice, 9999), ErrNotFound)
	expectErr(t, s.Unfollow(ctx, alice, bob.ID), ErrNotFound)

	if err := s.Follow(ctx, alice, bob.ID); err != nil {
		t.Fatalf("follow error: %v", err)
	}
	expectErr(t, s.Follow(ctx, alice, bob.ID), ErrConflict)

	followers, err := s.Followers(ctx, bob.ID)
	if err != nil || len(followers) != 1 || followers[0].Username != "alice" {
		t.Fatalf("unexpected followers %+v (%v)", followers, err)
	}
	following, _ := s.Following(ctx, bob.ID)
	if len(following) != 0 {
		t.Fatalf("bob follows %+v", following)
	}
	_, err = s.Following(ctx, 9999)
	expectErr(t, err, ErrNotFound)

	if err := s.Unfollow(ctx, alice, bob.ID); err != nil {
		t.Fatalf("unfollow error: %v", err)
	}
	expectErr(t, s.Unfollow(ctx, alice, bob.ID), ErrNotFound)
}

func mediaFiles(t *testing.T, s *Service, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(s.media.Root(), dir))
	if os.IsNotExist(err) {
		return 0
	}
	if err != nil {
		t.Fatalf("couldn't read %s: %v", dir, err)
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() {
			n++
		}
	}
	return n
}

func TestReels(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	alice := register(t, s, "alice")
	bob := register(t, s, "bob")

	_, err := s.CreateReel(ctx, alice, ReelInput{
		Title: "bad",
		Video: &Upload{Reader: strings.NewReader("MZ"), Filename: "setup.exe"},
	})
	expectErr(t, err, media.ErrUnsupportedMediaType)

	_, err = s.CreateReel(ctx, alice, ReelInput{
		Title:     "bad thumbnail",
		Video:     &Upload{Reader: strings.NewReader("video"), Filename: "clip.mp4"},
		Thumbnail: &Upload{Reader: strings.NewReader("svg"), Filename: "t.svg", ContentType: "image/svg+xml"},
	})
	expectErr(t, err, media.ErrUnsupportedMediaType)
	if n := mediaFiles(t, s, reelVideoDir); n != 0 {
		t.Fatalf("failed uploads left %d files", n)
	}

	r, err := s.CreateReel(ctx, alice, ReelInput{
		Title:     "clip",
		Duration:  12,
		Video:     &Upload{Reader: strings.NewReader("video"), Filename: "clip.mp4"},
		Thumbnail: &Upload{Reader: strings.NewReader("png"), Filename: "t.png", ContentType: "image/png"},
	})
	if err != nil {
		t.Fatalf("create error: %v", err)
	}
	if !strings.HasPrefix(r.VideoURL, "/media/reels/") || r.ThumbnailURL == nil || r.Duration != 12 {
		t.Fatalf("unexpected reel %+v", r)
	}
	if mediaFiles(t, s, reelVideoDir) != 1 || mediaFiles(t, s, reelThumbnailDir) != 1 {
		t.Fatal("reel media not stored")
	}

	res, err := s.ToggleVote(ctx, bob, entity.ReelTarget(r.ID))
	if err != nil || res.Votes != 1 {
		t.Fatalf("reel vote gave %+v (%v)", res, err)
	}

	_, err = s.UpdateReel(ctx, bob, r.ID, "mine", "")
	expectErr(t, err, ErrForbidden)
	updated, err := s.UpdateReel(ctx, alice, r.ID, "renamed", "desc")
	if err != nil || updated.Title != "renamed" || updated.Votes != 1 {
		t.Fatalf("update gave %+v (%v)", updated, err)
	}

	expectErr(t, s.DeleteReel(ctx, bob, r.ID), ErrForbidden)
	if err := s.DeleteReel(ctx, alice, r.ID); err != nil {
		t.Fatalf("delete error: %v", err)
	}
	_, err = s.GetReel(ctx, r.ID)
	expectErr(t, err, ErrNotFound)
	if mediaFiles(t, s, reelVideoDir) != 0 || mediaFiles(t, s, reelThumbnailDir) != 0 {
		t.Fatal("reel media survived deletion")
	}
}

func TestProfilePictureReplacesFile(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	alice := register(t, s, "alice")

	_, err := s.SetProfilePicture(ctx, alice, &Upload{Reader: strings.NewReader("x"), Filename: "a.txt", ContentType: "text/plain"})
	expectErr(t, err, media.ErrUnsupportedMediaType)

	first, err := s.SetProfilePicture(ctx, alice, &Upload{Reader: strings.NewReader("one"), Filename: "a.png", ContentType: "image/png"})
	if err != nil {
		t.Fatalf("upload error: %v", err)
	}
	second, err := s.SetProfilePicture(ctx, alice, &Upload{Reader: strings.NewReader("two"), Filename: "b.jpg", ContentType: "image/jpeg"})
	if err != nil {
		t.Fatalf("upload error: %v", err)
	}
	if *first.ProfilePicture == *second.ProfilePicture {
		t.Fatal("picture was not replaced")
	}
	if n := mediaFiles(t, s, "profile_pictures"); n != 1 {
		t.Fatalf("expected the old picture to be removed, %d files left", n)
	}

	u, _ := s.SetBackgroundImage(ctx, alice, &Upload{Reader: strings.NewReader("bg"), Filename: "bg.gif", ContentType: "image/gif"})
	if u.BackgroundImage == nil || u.ProfilePicture == nil {
		t.Fatalf("unexpected user %+v", u)
	}

	_, err = s.SetBackgroundImage(ctx, alice, &Upload{Reader: strings.NewReader(strings.Repeat("x", 2048)), Filename: "big.png", ContentType: "image/png"})
	expectErr(t, err, media.ErrTooLarge)
}
