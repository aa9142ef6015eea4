package sqlinline

const QSelectSite = `--sql 3f1b22d5-37a0-43ba-9fbf-e28d812f56db
select site_title, site_headline, updated_at
from site_instance
where id = 1;
`

const QUpsertSite = `--sql b2fa911f-f4aa-4d98-a168-6fd4d99997e6
insert into site_instance (id, site_title, site_headline, updated_at)
values (1, $1::text, $2::text, now())
on conflict (id) do update set
    site_title = excluded.site_title,
    site_headline = excluded.site_headline,
    updated_at = now()
returning site_title, site_headline, updated_at;
`
