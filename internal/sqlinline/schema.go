package sqlinline

const QEnsureSchema = `--sql c9083534-b193-4ad4-83d3-7e911e16b6c0
create table if not exists funding_pool (
    id             bigserial primary key,
    name           text not null check (length(btrim(name)) > 0),
    description    text,
    goal_amount    numeric(14,2) not null default 0 check (goal_amount >= 0),
    current_amount numeric(14,2) not null default 0 check (current_amount >= 0),
    created_at     timestamptz not null default now(),
    updated_at     timestamptz not null default now()
);

create table if not exists ledger (
    id               bigserial primary key,
    payment_id       text not null,
    pool_id          bigint not null references funding_pool(id),
    transaction_type text not null check (transaction_type in ('deposit', 'withdrawal')),
    origin           text not null check (origin in ('capture', 'external', 'withdrawal')),
    amount           numeric(14,2) not null check (amount > 0),
    description      text,
    anonymous        boolean not null default false,
    actor_kind       text not null,
    actor_id         text not null,
    actor_name       text not null default '',
    created_at       timestamptz not null default now(),
    constraint ledger_payment_pool_key unique (payment_id, pool_id)
);

create table if not exists payment (
    payment_id  text primary key,
    created_at  timestamptz not null default now()
);

insert into payment (payment_id)
select distinct payment_id from ledger
on conflict do nothing;

create index if not exists ledger_created_at_idx on ledger (created_at desc, id desc);
create index if not exists ledger_pool_idx on ledger (pool_id);

create table if not exists users (
    id           text primary key,
    email        text not null unique,
    first_name   text not null default '',
    last_name    text not null default '',
    is_moderator boolean not null default false,
    created_at   timestamptz not null default now(),
    updated_at   timestamptz not null default now()
);

create table if not exists site_instance (
    id            int primary key default 1 check (id = 1),
    site_title    text not null default '',
    site_headline text not null default '',
    updated_at    timestamptz not null default now()
);
`
