package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"pkg.mon.icu/social/internal/storage"
	"pkg.mon.icu/social/internal/storage/entity"
)

var errSelfFollow = errors.New("check constraint violated (follow_no_self)")

type voteKey struct {
	kind   entity.TargetKind
	userID entity.ID
	target entity.ID
}

type state struct {
	seq      entity.ID
	users    map[entity.ID]entity.User
	posts    map[entity.ID]entity.Post
	reels    map[entity.ID]entity.Reel
	comments map[entity.ID]entity.Comment
	votes    map[voteKey]struct{}
	follows  map[entity.Follow]struct{}
}

func newState() *state {
	return &state{
		users:    map[entity.ID]entity.User{},
		posts:    map[entity.ID]entity.Post{},
		reels:    map[entity.ID]entity.Reel{},
		comments: map[entity.ID]entity.Comment{},
		votes:    map[voteKey]struct{}{},
		follows:  map[entity.Follow]struct{}{},
	}
}

func (s *state) clone() *state {
	c := newState()
	c.seq = s.seq
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.posts {
		c.posts[k] = v
	}
	for k, v := range s.reels {
		c.reels[k] = v
	}
	for k, v := range s.comments {
		c.comments[k] = v
	}
	for k := range s.votes {
		c.votes[k] = struct{}{}
	}
	for k := range s.follows {
		c.follows[k] = struct{}{}
	}
	return c
}

func (s *state) next() entity.ID {
	s.seq++
	return s.seq
}

type Storage struct {
	mu    sync.Mutex
	state *state
}

var _ storage.Transactor = (*Storage)(nil)

func NewStorage() *Storage {
	return &Storage{state: newState()}
}

func (s *Storage) Transact(ctx context.Context, fn func(storage.Queries) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	work := s.state.clone()
	if err := fn(&queries{s: work}); err != nil {
		return err
	}
	s.state = work
	return nil
}

func (s *Storage) Close() error {
	return nil
}

type queries struct {
	s *state
}

// Users

func (q *queries) userKeyTaken(k entity.UserKey, value string, exceptID entity.ID) bool {
	for id, u := range q.s.users {
		if id == exceptID {
			continue
		}
		switch k {
		case entity.UserKeyUsername:
			if u.Username == value {
				return true
			}
		case entity.UserKeyEmail:
			if u.Email == value {
				return true
			}
		case entity.UserKeyPhone:
			if u.PhoneNumber != nil && *u.PhoneNumber == value {
				return true
			}
		}
	}
	return false
}

func (q *queries) checkUserUnique(u *entity.User) error {
	if q.userKeyTaken(entity.UserKeyUsername, u.Username, u.ID) ||
		q.userKeyTaken(entity.UserKeyEmail, u.Email, u.ID) ||
		(u.PhoneNumber != nil && q.userKeyTaken(entity.UserKeyPhone, *u.PhoneNumber, u.ID)) {
		return storage.ErrDuplicate
	}
	return nil
}

func (q *queries) CreateUser(_ context.Context, u *entity.User) error {
	if err := q.checkUserUnique(u); err != nil {
		return err
	}
	u.ID, u.CreatedAt = q.s.next(), time.Now().UTC()
	q.s.users[u.ID] = *u
	return nil
}

func (q *queries) FindUser(_ context.Context, id entity.ID) (*entity.User, error) {
	u, ok := q.s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &u, nil
}

func (q *queries) FindUserByUsername(_ context.Context, username string) (*entity.User, error) {
	for _, u := range q.s.users {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (q *queries) IsUserKeyTaken(_ context.Context, k entity.UserKey, value string, exceptID entity.ID) (bool, error) {
	return q.userKeyTaken(k, value, exceptID), nil
}

func (q *queries) FindUsers(_ context.Context) ([]*entity.User, error) {
	us := make([]*entity.User, 0, len(q.s.users))
	for _, u := range q.s.users {
		u := u
		us = append(us, &u)
	}
	sort.Slice(us, func(i, j int) bool { return us[i].ID < us[j].ID })
	return us, nil
}

func (q *queries) UpdateUser(_ context.Context, u *entity.User) error {
	old, ok := q.s.users[u.ID]
	if !ok {
		return storage.ErrNotFound
	}
	if err := q.checkUserUnique(u); err != nil {
		return err
	}
	nu := *u
	nu.CreatedAt = old.CreatedAt
	q.s.users[u.ID] = nu
	return nil
}

func (q *queries) DeleteUser(_ context.Context, id entity.ID) error {
	if _, ok := q.s.users[id]; !ok {
		return storage.ErrNotFound
	}
	for pid, p := range q.s.posts {
		if p.OwnerID == id {
			q.deletePost(pid)
		}
	}
	for rid, r := range q.s.reels {
		if r.OwnerID == id {
			q.deleteReel(rid)
		}
	}
	for cid, c := range q.s.comments {
		if c.UserID == id {
			delete(q.s.comments, cid)
		}
	}
	for k := range q.s.votes {
		if k.userID == id {
			delete(q.s.votes, k)
		}
	}
	for f := range q.s.follows {
		if f.FollowerID == id || f.FollowingID == id {
			delete(q.s.follows, f)
		}
	}
	delete(q.s.users, id)
	return nil
}

func (q *queries) summary(id entity.ID) entity.UserSummary {
	return entity.UserSummary{ID: id, Username: q.s.users[id].Username}
}

// Posts

func (q *queries) CreatePost(_ context.Context, p *entity.Post) error {
	if _, ok := q.s.users[p.OwnerID]; !ok {
		return storage.ErrNotFound
	}
	p.ID, p.CreatedAt = q.s.next(), time.Now().UTC()
	q.s.posts[p.ID] = *p
	return nil
}

func (q *queries) FindPost(_ context.Context, id entity.ID) (*entity.Post, error) {
	p, ok := q.s.posts[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &p, nil
}

func (q *queries) postView(p entity.Post) *entity.PostView {
	return &entity.PostView{Post: p, Owner: q.summary(p.OwnerID), Votes: q.countVotes(entity.PostTarget(p.ID))}
}

func (q *queries) FindPostView(_ context.Context, id entity.ID) (*entity.PostView, error) {
	p, ok := q.s.posts[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return q.postView(p), nil
}

func (q *queries) sortedPosts(search string) []entity.Post {
	ps := make([]entity.Post, 0, len(q.s.posts))
	for _, p := range q.s.posts {
		if search == "" || strings.Contains(p.Title, search) {
			ps = append(ps, p)
		}
	}
	sort.Slice(ps, func(i, j int) bool { return ps[i].ID > ps[j].ID })
	return ps
}

func (q *queries) FindLatestPostView(_ context.Context) (*entity.PostView, error) {
	ps := q.sortedPosts("")
	if len(ps) == 0 {
		return nil, storage.ErrNotFound
	}
	return q.postView(ps[0]), nil
}

func (q *queries) FindPostViews(_ context.Context, pg entity.Page) ([]*entity.PostView, error) {
	ps := q.sortedPosts(pg.Search)
	lo, hi := window(len(ps), pg)
	vs := make([]*entity.PostView, 0, hi-lo)
	for _, p := range ps[lo:hi] {
		vs = append(vs, q.postView(p))
	}
	return vs, nil
}

func (q *queries) UpdatePost(_ context.Context, p *entity.Post) error {
	old, ok := q.s.posts[p.ID]
	if !ok {
		return storage.ErrNotFound
	}
	old.Title, old.Content, old.Published = p.Title, p.Content, p.Published
	q.s.posts[p.ID] = old
	return nil
}

func (q *queries) deletePost(id entity.ID) {
	for k := range q.s.votes {
		if k.kind == entity.TargetPost && k.target == id {
			delete(q.s.votes, k)
		}
	}
	for cid, c := range q.s.comments {
		if c.Target.Kind() == entity.TargetPost && c.Target.TargetID() == id {
			delete(q.s.comments, cid)
		}
	}
	delete(q.s.posts, id)
}

func (q *queries) DeletePost(_ context.Context, id entity.ID) error {
	if _, ok := q.s.posts[id]; !ok {
		return storage.ErrNotFound
	}
	q.deletePost(id)
	return nil
}

// Reels

func (q *queries) CreateReel(_ context.Context, r *entity.Reel) error {
	if _, ok := q.s.users[r.OwnerID]; !ok {
		return storage.ErrNotFound
	}
	r.ID, r.CreatedAt = q.s.next(), time.Now().UTC()
	q.s.reels[r.ID] = *r
	return nil
}

func (q *queries) FindReel(_ context.Context, id entity.ID) (*entity.Reel, error) {
	r, ok := q.s.reels[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &r, nil
}

func (q *queries) FindReelsByOwner(_ context.Context, ownerID entity.ID) ([]*entity.Reel, error) {
	var rs []*entity.Reel
	for _, r := range q.s.reels {
		if r.OwnerID == ownerID {
			r := r
			rs = append(rs, &r)
		}
	}
	sort.Slice(rs, func(i, j int) bool { return rs[i].ID < rs[j].ID })
	return rs, nil
}

func (q *queries) reelView(r entity.Reel) *entity.ReelView {
	return &entity.ReelView{Reel: r, Owner: q.summary(r.OwnerID), Votes: q.countVotes(entity.ReelTarget(r.ID))}
}

func (q *queries) FindReelView(_ context.Context, id entity.ID) (*entity.ReelView, error) {
	r, ok := q.s.reels[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return q.reelView(r), nil
}

func (q *queries) FindReelViews(_ context.Context, pg entity.Page) ([]*entity.ReelView, error) {
	rs := make([]entity.Reel, 0, len(q.s.reels))
	for _, r := range q.s.reels {
		if pg.Search == "" || strings.Contains(r.Title, pg.Search) {
			rs = append(rs, r)
		}
	}
	sort.Slice(rs, func(i, j int) bool { return rs[i].ID > rs[j].ID })

	lo, hi := window(len(rs), pg)
	vs := make([]*entity.ReelView, 0, hi-lo)
	for _, r := range rs[lo:hi] {
		vs = append(vs, q.reelView(r))
	}
	return vs, nil
}

func (q *queries) UpdateReel(_ context.Context, r *entity.Reel) error {
	old, ok := q.s.reels[r.ID]
	if !ok {
		return storage.ErrNotFound
	}
	old.Title, old.Description = r.Title, r.Description
	q.s.reels[r.ID] = old
	return nil
}

func (q *queries) deleteReel(id entity.ID) {
	for k := range q.s.votes {
		if k.kind == entity.TargetReel && k.target == id {
			delete(q.s.votes, k)
		}
	}
	for cid, c := range q.s.comments {
		if c.Target.Kind() == entity.TargetReel && c.Target.TargetID() == id {
			delete(q.s.comments, cid)
		}
	}
	delete(q.s.reels, id)
}

func (q *queries) DeleteReel(_ context.Context, id entity.ID) error {
	if _, ok := q.s.reels[id]; !ok {
		return storage.ErrNotFound
	}
	q.deleteReel(id)
	return nil
}

// Comments

func (q *queries) targetExists(t entity.Target) bool {
	switch t.Kind() {
	case entity.TargetPost:
		_, ok := q.s.posts[t.TargetID()]
		return ok
	case entity.TargetReel:
		_, ok := q.s.reels[t.TargetID()]
		return ok
	}
	return false
}

func (q *queries) CreateComment(_ context.Context, c *entity.Comment) error {
	if _, ok := q.s.users[c.UserID]; !ok || c.Target == nil || !q.targetExists(c.Target) {
		return storage.ErrNotFound
	}
	c.ID, c.CreatedAt = q.s.next(), time.Now().UTC()
	q.s.comments[c.ID] = *c
	return nil
}

func (q *queries) FindComment(_ context.Context, id entity.ID) (*entity.Comment, error) {
	c, ok := q.s.comments[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &c, nil
}

func (q *queries) FindComments(_ context.Context, t entity.Target) ([]*entity.CommentView, error) {
	var cs []*entity.CommentView
	for _, c := range q.s.comments {
		if c.Target.Kind() == t.Kind() && c.Target.TargetID() == t.TargetID() {
			cs = append(cs, &entity.CommentView{Comment: c, Author: q.summary(c.UserID)})
		}
	}
	sort.Slice(cs, func(i, j int) bool { return cs[i].ID < cs[j].ID })
	return cs, nil
}

func (q *queries) UpdateComment(_ context.Context, c *entity.Comment) error {
	old, ok := q.s.comments[c.ID]
	if !ok {
		return storage.ErrNotFound
	}
	old.Content = c.Content
	q.s.comments[c.ID] = old
	return nil
}

func (q *queries) DeleteComment(_ context.Context, id entity.ID) error {
	if _, ok := q.s.comments[id]; !ok {
		return storage.ErrNotFound
	}
	delete(q.s.comments, id)
	return nil
}

// Votes

func keyOf(v *entity.Vote) voteKey {
	return voteKey{kind: v.Target.Kind(), userID: v.UserID, target: v.Target.TargetID()}
}

func (q *queries) CreateVote(_ context.Context, v *entity.Vote) (bool, error) {
	if _, ok := q.s.users[v.UserID]; !ok || !q.targetExists(v.Target) {
		return false, storage.ErrNotFound
	}
	k := keyOf(v)
	if _, ok := q.s.votes[k]; ok {
		return false, nil
	}
	q.s.votes[k] = struct{}{}
	return true, nil
}

func (q *queries) DeleteVote(_ context.Context, v *entity.Vote) (bool, error) {
	k := keyOf(v)
	if _, ok := q.s.votes[k]; !ok {
		return false, nil
	}
	delete(q.s.votes, k)
	return true, nil
}

func (q *queries) VoteExists(_ context.Context, v *entity.Vote) (bool, error) {
	_, ok := q.s.votes[keyOf(v)]
	return ok, nil
}

func (q *queries) countVotes(t entity.Target) int64 {
	var n int64
	for k := range q.s.votes {
		if k.kind == t.Kind() && k.target == t.TargetID() {
			n++
		}
	}
	return n
}

func (q *queries) CountVotes(_ context.Context, t entity.Target) (int64, error) {
	return q.countVotes(t), nil
}

// Follows

func (q *queries) CreateFollow(_ context.Context, f *entity.Follow) (bool, error) {
	if f.FollowerID == f.FollowingID {
		return false, errSelfFollow
	}
	_, okA := q.s.users[f.FollowerID]
	_, okB := q.s.users[f.FollowingID]
	if !okA || !okB {
		return false, storage.ErrNotFound
	}
	if _, ok := q.s.follows[*f]; ok {
		return false, nil
	}
	q.s.follows[*f] = struct{}{}
	return true, nil
}

func (q *queries) DeleteFollow(_ context.Context, f *entity.Follow) (bool, error) {
	if _, ok := q.s.follows[*f]; !ok {
		return false, nil
	}
	delete(q.s.follows, *f)
	return true, nil
}

func (q *queries) followSide(match func(entity.Follow) (entity.ID, bool)) []entity.UserSummary {
	var us []entity.UserSummary
	for f := range q.s.follows {
		if id, ok := match(f); ok {
			us = append(us, q.summary(id))
		}
	}
	sort.Slice(us, func(i, j int) bool { return us[i].ID < us[j].ID })
	return us
}

func (q *queries) FindFollowers(_ context.Context, userID entity.ID) ([]entity.UserSummary, error) {
	return q.followSide(func(f entity.Follow) (entity.ID, bool) {
		return f.FollowerID, f.FollowingID == userID
	}), nil
}

func (q *queries) FindFollowing(_ context.Context, userID entity.ID) ([]entity.UserSummary, error) {
	return q.followSide(func(f entity.Follow) (entity.ID, bool) {
		return f.FollowingID, f.FollowerID == userID
	}), nil
}

func window(n int, pg entity.Page) (lo, hi int) {
	lo = pg.Skip
	if lo > n {
		lo = n
	}
	hi = lo + pg.Limit
	if hi > n {
		hi = n
	}
	return lo, hi
}
