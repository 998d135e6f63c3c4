// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package kontaktstore persists templates and imported contacts in
// SQLite.
//
// Templates live in three tables (vorlage, gruppe, eigenschaft) that
// mirror [vorlage.Template]. A contact row stores its property bag as
// a JSON object keyed by property name, plus copies of the first name,
// last name and company for searching.
//
// [Store.ImportContacts] is the finalize step of an import: it turns
// the uploaded rows into contacts through the header to property
// mapping, all in one transaction.
package kontaktstore
