package sqlinline

// QEnsureSchema creates the tables used by the API and worker. It runs
// without arguments so it can carry several statements.
const QEnsureSchema = `--sql c0bb413c-f2db-4e3e-94c5-91f489ccca66
create extension if not exists pgcrypto;

create table if not exists integration_tokens (
    id uuid primary key,
    provider text not null unique,
    token text not null,
    properties jsonb not null default '{}'::jsonb,
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);

create table if not exists virtual_nfts (
    id text primary key,
    project_id numeric(78, 0) not null,
    project_title text not null default '',
    donor_address text not null,
    donation_amount numeric(78, 0) not null default 0,
    minted_at bigint not null,
    tier smallint not null,
    tier_name text not null,
    tier_emoji text not null,
    message text not null default '',
    image_url text not null default '',
    tx_hash text unique,
    contract text not null default '',
    theme text not null default 'FOREST',
    reconciled boolean not null default false,
    reconcile_checked_at timestamptz,
    created_at timestamptz not null default now()
);

alter table virtual_nfts add column if not exists reconcile_checked_at timestamptz;

create index if not exists virtual_nfts_donor_idx on virtual_nfts (lower(donor_address));
create index if not exists virtual_nfts_unreconciled_idx on virtual_nfts (reconcile_checked_at nulls first, minted_at) where reconciled = false;

create table if not exists donation_submissions (
    id uuid primary key,
    tx_hash text not null unique,
    contract text not null,
    message text not null default '',
    theme text not null default '',
    status text not null default 'PENDING',
    attempts integer not null default 0,
    last_error text not null default '',
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);

create index if not exists donation_submissions_status_idx on donation_submissions (status, updated_at);
`
