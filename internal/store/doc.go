// Package store persists pipeline state in SQLite: one row per
// (entity_type, entity_id, phase), plus daemon settings and the audit
// trail. Rows are inserted once and updated in place; nothing here ever
// deletes a pipeline entry.
package store
