package storage

var schema = []string{
	`create table if not exists "user" (
		id               bigserial primary key,
		username         text        not null unique,
		email            text        not null unique,
		phone_number     text        unique,
		password         text        not null,
		profile_picture  text,
		background_image text,
		created_at       timestamptz not null default now()
	)`,
	`create table if not exists post (
		id         bigserial primary key,
		title      text        not null,
		content    text        not null,
		published  boolean     not null default true,
		created_at timestamptz not null default now(),
		owner_id   bigint      not null references "user" (id) on delete cascade
	)`,
	`create index if not exists post_owner_id_idx on post (owner_id)`,
	`create table if not exists reel (
		id            bigserial primary key,
		title         text        not null,
		description   text        not null default '',
		video_url     text        not null,
		thumbnail_url text,
		duration      integer     not null default 0,
		created_at    timestamptz not null default now(),
		owner_id      bigint      not null references "user" (id) on delete cascade
	)`,
	`create index if not exists reel_owner_id_idx on reel (owner_id)`,
	`create table if not exists comment (
		id         bigserial primary key,
		content    text        not null,
		created_at timestamptz not null default now(),
		user_id    bigint      not null references "user" (id) on delete cascade,
		post_id    bigint      references post (id) on delete cascade,
		reel_id    bigint      references reel (id) on delete cascade,
		constraint comment_single_target check ((post_id is null) <> (reel_id is null))
	)`,
	`create index if not exists comment_post_id_idx on comment (post_id)`,
	`create index if not exists comment_reel_id_idx on comment (reel_id)`,
	`create table if not exists vote (
		user_id bigint not null references "user" (id) on delete cascade,
		post_id bigint not null references post (id) on delete cascade,
		primary key (user_id, post_id)
	)`,
	`create index if not exists vote_post_id_idx on vote (post_id)`,
	`create table if not exists reel_vote (
		user_id bigint not null references "user" (id) on delete cascade,
		reel_id bigint not null references reel (id) on delete cascade,
		primary key (user_id, reel_id)
	)`,
	`create index if not exists reel_vote_reel_id_idx on reel_vote (reel_id)`,
	`create table if not exists follow (
		follower_id  bigint      not null references "user" (id) on delete cascade,
		following_id bigint      not null references "user" (id) on delete cascade,
		created_at   timestamptz not null default now(),
		primary key (follower_id, following_id),
		constraint follow_no_self check (follower_id <> following_id)
	)`,
	`create index if not exists follow_following_id_idx on follow (following_id)`,
}
