package sqlinline

const QInsertTransaction = `--sql 81ea1413-533e-44ef-9eaf-44deba304200
insert into ledger (payment_id, pool_id, transaction_type, origin, amount, description, anonymous, actor_kind, actor_id, actor_name, created_at)
values ($1::text, $2::bigint, $3::text, $4::text, $5::numeric, $6::text, $7::boolean, $8::text, $9::text, $10::text, $11::timestamptz)
returning id, created_at;
`

// QRecordPayment returns no row when the payment id is already taken.
const QRecordPayment = `--sql 3b7e2a90-5d14-4c8f-a6e1-92f0c4d7b35a
insert into payment (payment_id)
values ($1::text)
on conflict (payment_id) do nothing
returning payment_id;
`

const QListTransactions = `--sql d97fc1fa-a2cd-4238-ae20-e8efb67a21ef
select id, payment_id, pool_id, transaction_type, origin, amount::text, description, anonymous,
       actor_kind, actor_id, actor_name, created_at
from ledger
where ($1::text = '' or transaction_type = $1::text)
  and ($2::bigint = 0 or pool_id = $2::bigint)
  and ($3::timestamptz is null or (created_at, id) < ($3::timestamptz, $4::bigint))
order by created_at desc, id desc
limit $5::int;
`

const QLedgerSummary = `--sql ebeceb03-c5bd-4ca0-88ac-58c9804a8f76
select
    coalesce((select sum(amount) from ledger where transaction_type = 'deposit'), 0)::text,
    coalesce((select sum(amount) from ledger where transaction_type = 'withdrawal'), 0)::text,
    coalesce((select sum(current_amount) from funding_pool), 0)::text;
`

const QPoolLedgerSums = `--sql 4692b693-19aa-4f0f-94b8-7070a97c8864
select p.id,
       p.current_amount::text,
       coalesce(sum(case when l.transaction_type = 'deposit' then l.amount else -l.amount end), 0)::text,
       coalesce(sum(l.amount) filter (where l.transaction_type = 'deposit'), 0)::text,
       coalesce(sum(l.amount) filter (where l.transaction_type = 'withdrawal'), 0)::text
from funding_pool p
left join ledger l on l.pool_id = p.id
group by p.id, p.current_amount
order by p.id;
`
