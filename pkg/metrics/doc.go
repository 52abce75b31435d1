/*
Package metrics defines Prometheus collectors for leech operations.

Counters track block creation, truncation activity and patch construction,
including how often patch consolidation had to fall back to a full-state
payload. All collectors register on the default registerer at package init;
host programs embedding leech expose them through their own /metrics endpoint.
*/
package metrics
