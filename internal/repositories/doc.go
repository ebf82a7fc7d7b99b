// Package repositories implements SQLite persistence for steamlink's domain entities.
//
// [AccountRepository] stores Steam accounts keyed by Steam ID, with atomic sequence generation for stable ordering
// and soft deletes via deleted_at timestamps. Deleted records are excluded from queries and revived by the next login
// of the same Steam ID.
package repositories
