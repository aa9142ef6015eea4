package sqlinline

const QInsertPool = `--sql c0dbd91b-9664-4048-9d76-0f6b8a869413
insert into funding_pool (name, description, goal_amount, current_amount, created_at, updated_at)
values ($1::text, $2::text, $3::numeric, 0, now(), now())
returning id, name, description, goal_amount::text, current_amount::text, created_at, updated_at;
`

const QUpdatePool = `--sql 60efd718-5cfa-4edc-bb11-b68c707e16d6
update funding_pool
set name = $2::text,
    description = $3::text,
    goal_amount = $4::numeric,
    updated_at = now()
where id = $1::bigint
returning id, name, description, goal_amount::text, current_amount::text, created_at, updated_at;
`

const QSelectPoolByID = `--sql 1cef7c14-b67b-451c-9b43-e80297e5e553
select id, name, description, goal_amount::text, current_amount::text, created_at, updated_at
from funding_pool
where id = $1::bigint;
`

const QListPools = `--sql 41109f23-1be0-4bc5-95af-9a8ceb41cc88
select id, name, description, goal_amount::text, current_amount::text, created_at, updated_at
from funding_pool
order by id;
`

// QLockPools takes row locks in id order so concurrent batches over
// overlapping pool sets cannot deadlock.
const QLockPools = `--sql 77b42017-52a8-46a1-be24-88ecf3834c57
select id, name, description, goal_amount::text, current_amount::text, created_at, updated_at
from funding_pool
where id = any($1::bigint[])
order by id
for update;
`

const QApplyPoolDelta = `--sql 72a4bd35-f627-420e-a67b-69d50a5411b1
update funding_pool
set current_amount = current_amount + $2::numeric,
    updated_at = now()
where id = $1::bigint
returning id, name, description, goal_amount::text, current_amount::text, created_at, updated_at;
`
