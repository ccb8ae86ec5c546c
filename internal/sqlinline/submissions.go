package sqlinline

const QInsertSubmission = `--sql a977a57a-8751-4ba6-badc-c9bc2ba1559c
insert into donation_submissions (id, tx_hash, contract, message, theme, status, created_at, updated_at)
values ($1::uuid, lower($2::text), $3::text, $4::text, $5::text, 'PENDING', now(), now())
on conflict (tx_hash) do update set updated_at = donation_submissions.updated_at
returning id::text, status;
`

const QClaimSubmission = `--sql 2d7503bc-d189-4dc0-9bba-6bc0c78ccd51
with next_submission as (
    select id
    from donation_submissions
    where status = 'PENDING'
      and (attempts = 0 or updated_at <= now() - make_interval(secs => $1::double precision))
    order by updated_at asc
    for update skip locked
    limit 1
),
updated as (
    update donation_submissions
    set status = 'PROCESSING', attempts = attempts + 1, updated_at = now()
    where id in (select id from next_submission)
    returning id::text, tx_hash, contract, message, theme, attempts
)
select * from updated;
`

const QUpdateSubmissionStatus = `--sql fd1098f9-4863-4730-826f-5bda1b408c6f
update donation_submissions
set status = $2::text, last_error = $3::text, updated_at = now()
where id = $1::uuid;
`

const QSelectSubmissionByTx = `--sql efbd0fd5-f4d5-4f8f-a5c8-177b373fe792
select id::text, tx_hash, contract, message, theme, status, attempts, last_error
from donation_submissions
where tx_hash = lower($1::text)
limit 1;
`
