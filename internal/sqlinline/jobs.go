package sqlinline

const QInsertJob = `--sql 23283d8e-d023-4d72-9b45-1b1ee069bf35
insert into jobs (id, user_id, prompt, duration_seconds, credit_cost, status, provider_job_id, video_url, error, created_at, updated_at)
values ($1, $2, $3, $4, $5, $6, nullif($7, ''), nullif($8, ''), nullif($9, ''), $10, now())
returning updated_at;
`

const QSelectJobForUser = `--sql 9e5bbecc-aa39-4ebd-afb3-5c9e2db94eb3
select id, user_id, prompt, duration_seconds, credit_cost, status,
       coalesce(provider_job_id, ''), coalesce(video_url, ''), coalesce(error, ''),
       created_at, updated_at
from jobs
where id = $1
  and user_id = $2;
`

const QCountJobsCreatedSince = `--sql 13c03a61-2143-4cc9-87e1-ac3c4e8e004d
select count(*)
from jobs
where user_id = $1
  and created_at >= $2;
`

const QListRecentJobs = `--sql d7ee6105-feac-4d40-9a61-11b5a172ce27
select id, user_id, prompt, duration_seconds, credit_cost, status,
       coalesce(provider_job_id, ''), coalesce(video_url, ''), coalesce(error, ''),
       created_at, updated_at
from jobs
where user_id = $1
order by created_at desc
limit $2;
`

const QMarkJobRunning = `--sql a99583e1-b7d0-4a9f-8fc7-7f42634728df
update jobs
set status = 'running',
    provider_job_id = $2,
    updated_at = now()
where id = $1
  and status = 'queued';
`

const QMarkJobSucceeded = `--sql 057237f4-8614-4ec0-80a0-debaaa6967a6
update jobs
set status = 'succeeded',
    video_url = $2,
    updated_at = now()
where id = $1
  and status in ('queued', 'running');
`

const QMarkJobFailed = `--sql 85ebb7aa-92f3-4ce2-a879-8d0741268697
update jobs
set status = 'failed',
    error = $2,
    updated_at = now()
where id = $1
  and status in ('queued', 'running');
`

const QJobExists = `--sql 7088dfa9-730d-4707-b4fc-a64dd56626b7
select exists(select 1 from jobs where id = $1);
`
