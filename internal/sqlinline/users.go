package sqlinline

const QSelectUserByID = `--sql b5bb94f1-e33a-401f-a5c5-2764111239a3
select id, email, first_name, last_name, is_moderator, created_at, updated_at
from users
where id = $1::text
limit 1;
`

const QSelectUserByEmail = `--sql 326dc2c2-ca2c-41ab-9266-05798ab03e28
select id, email, first_name, last_name, is_moderator, created_at, updated_at
from users
where lower(email) = lower($1::text)
limit 1;
`

const QSetUserModerator = `--sql 5d33d2d4-ee83-450d-8de9-206674690ebf
update users
set is_moderator = $2::boolean,
    updated_at = now()
where id = $1::text
returning id, email, first_name, last_name, is_moderator, created_at, updated_at;
`

const QUpsertUser = `--sql 0c6f4b1e-8a52-4d4b-9d0e-3f7f2f6c9b81
insert into users (id, email, first_name, last_name)
values ($1::text, $2::text, $3::text, $4::text)
on conflict (id) do update
set email = excluded.email,
    first_name = excluded.first_name,
    last_name = excluded.last_name,
    updated_at = now()
returning id, email, first_name, last_name, is_moderator, created_at, updated_at;
`
