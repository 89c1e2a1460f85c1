package sqlinline

const QInsertPayment = `--sql d179ebe8-e3c7-419d-be71-7fb5999172cf
insert into payments (id, user_id, amount, currency, credits_bought, idempotency_key, provider_ref, status, created_at, updated_at)
values ($1, $2, $3, $4, $5, $6, nullif($7, ''), $8, $9, now())
returning updated_at;
`

const QSelectPaymentByID = `--sql b2f5d492-f78c-4e5c-a7e6-5ff246a91e77
select id, user_id, amount, currency, credits_bought, idempotency_key,
       coalesce(provider_ref, ''), status, created_at, updated_at
from payments
where id = $1;
`

const QListRecentPayments = `--sql a504d088-fd76-4a40-a426-28dde7bd7cc5
select id, user_id, amount, currency, credits_bought, idempotency_key,
       coalesce(provider_ref, ''), status, created_at, updated_at
from payments
where user_id = $1
order by created_at desc
limit $2;
`

const QAttachPaymentProviderRef = `--sql 0830496e-9d88-4d16-bc36-b03507401cd5
update payments
set provider_ref = $2,
    updated_at = now()
where id = $1;
`

const QMarkPaymentPaid = `--sql 174f88ab-6778-4017-aa83-34fcf07226c5
update payments
set status = 'paid',
    provider_ref = coalesce(nullif($2, ''), provider_ref),
    updated_at = now()
where id = $1
  and status in ('pending', 'failed')
returning id, user_id, amount, currency, credits_bought, idempotency_key,
          coalesce(provider_ref, ''), status, created_at, updated_at;
`

const QMarkPaymentFailed = `--sql 7de956be-6a2e-41c7-8f3a-ca204bee860a
update payments
set status = 'failed',
    updated_at = now()
where id = $1
  and status = 'pending';
`

const QPaymentExists = `--sql 0e0dbcba-b9c1-4809-9474-ae30fb83d3d1
select exists(select 1 from payments where id = $1);
`

const QWebhookEventExists = `--sql cc2ddd1e-19a1-477d-a620-02493a001bf9
select exists(select 1 from webhook_events where event_id = $1);
`

const QInsertWebhookEvent = `--sql 42565952-eab1-47b4-b91f-b218ec8ce126
insert into webhook_events (event_id, provider, event_type, created_at)
values ($1, $2, $3, $4);
`
