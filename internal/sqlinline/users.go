package sqlinline

const QUpsertUser = `--sql 5adb91ca-baeb-4700-8053-f16786e8cebb
insert into users (id, email, credits, created_at, updated_at)
values ($1, nullif($2, ''), 0, now(), now())
on conflict (id) do update set
    email = coalesce(nullif(excluded.email, ''), users.email),
    updated_at = now()
returning id, coalesce(email, ''), credits, created_at, updated_at;
`

const QSelectUserByID = `--sql a8d52d9f-0701-4ba7-ba85-d96a89a1e17b
select id, coalesce(email, ''), credits, created_at, updated_at
from users
where id = $1;
`

const QSelectUserCredits = `--sql 80a3917f-b6f4-454b-9aac-f894b87baf15
select credits
from users
where id = $1;
`

// QLockUserCredits must run inside a transaction; the row lock is what
// serialises concurrent debits for the same user.
const QLockUserCredits = `--sql d9e03093-2c68-43c6-9468-4e3b755b17a0
select credits
from users
where id = $1
for update;
`

const QDebitUserCredits = `--sql e3e1f224-62e0-49fd-9a11-35f880f8c052
update users
set credits = credits - $2,
    updated_at = now()
where id = $1
  and credits >= $2
returning credits;
`

const QCreditUserCredits = `--sql fe9f0057-5188-4354-bd54-938a6f5533a6
update users
set credits = credits + $2,
    updated_at = now()
where id = $1
returning credits;
`
