// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package kontaktstore

const schema = `
CREATE TABLE IF NOT EXISTS vorlage (
	id          INTEGER PRIMARY KEY,
	name        TEXT    NOT NULL UNIQUE,
	is_standard INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS gruppe (
	id         INTEGER PRIMARY KEY,
	vorlage_id INTEGER NOT NULL REFERENCES vorlage(id) ON DELETE CASCADE,
	name       TEXT    NOT NULL,
	position   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS eigenschaft (
	id                INTEGER PRIMARY KEY,
	gruppe_id         INTEGER NOT NULL REFERENCES gruppe(id) ON DELETE CASCADE,
	name              TEXT    NOT NULL,
	datentyp          TEXT    NOT NULL,
	optionen          TEXT    NOT NULL DEFAULT '',
	allow_multiselect INTEGER NOT NULL DEFAULT 0,
	position          INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS kontakt (
	id         INTEGER PRIMARY KEY,
	vorlage_id INTEGER NOT NULL REFERENCES vorlage(id) ON DELETE CASCADE,
	data       TEXT    NOT NULL,
	vorname    TEXT    NOT NULL DEFAULT '',
	nachname   TEXT    NOT NULL DEFAULT '',
	firma      TEXT    NOT NULL DEFAULT '',
	created_at TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS gruppe_vorlage ON gruppe(vorlage_id, position);
CREATE INDEX IF NOT EXISTS eigenschaft_gruppe ON eigenschaft(gruppe_id, position);
CREATE INDEX IF NOT EXISTS kontakt_vorlage ON kontakt(vorlage_id);
CREATE INDEX IF NOT EXISTS kontakt_name ON kontakt(nachname, vorname);
`
