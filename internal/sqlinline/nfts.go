package sqlinline

const QInsertVirtualNFT = `--sql 2d2437b0-9e5a-4196-98d6-96f5fda7f6cf
insert into virtual_nfts (
    id, project_id, project_title, donor_address, donation_amount, minted_at,
    tier, tier_name, tier_emoji, message, image_url, tx_hash, contract, theme, reconciled
)
values (
    $1::text, $2::numeric, $3::text, $4::text, $5::numeric, $6::bigint,
    $7::smallint, $8::text, $9::text, $10::text, $11::text, nullif($12::text, ''), $13::text, $14::text, $15::boolean
)
on conflict do nothing;
`

const QListVirtualNFTs = `--sql bd63d146-207e-45e7-b0fd-d57c38335878
select id, project_id::text, project_title, donor_address, donation_amount::text, minted_at,
       tier, tier_name, tier_emoji, message, image_url, coalesce(tx_hash, ''), contract, theme, reconciled
from virtual_nfts
where $1::text = '' or lower(donor_address) = lower($1::text)
order by minted_at asc, id asc;
`

const QListUnreconciledNFTs = `--sql b00dc3d4-7928-4182-aab0-dbede5e774ea
select id, project_id::text, project_title, donor_address, donation_amount::text, minted_at,
       tier, tier_name, tier_emoji, message, image_url, coalesce(tx_hash, ''), contract, theme, reconciled
from virtual_nfts
where reconciled = false
order by reconcile_checked_at asc nulls first, minted_at asc
limit $1::int;
`

const QMarkNFTReconciled = `--sql 6cb43bda-8463-4912-abcd-91958e21ae43
update virtual_nfts
set reconciled = true
where id = $1::text;
`

const QMarkNFTReconcileChecked = `--sql 3bf29dfa-ebd3-49b9-906c-caa472602633
update virtual_nfts
set reconcile_checked_at = $2::timestamptz
where id = $1::text and reconciled = false;
`
