// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package vorlage models contact templates: a Template (Vorlage) is an
// ordered list of Groups (Gruppen), each an ordered list of Properties
// (Eigenschaften). Property names are unique across a template and
// serve as the keys of a contact's property bag and of import
// mappings.
//
// Catalogs of templates are exchanged as JSON. Catalog files on disk
// may use JSONC (comments, trailing commas); [ParseCatalog] strips those
// before decoding. [Standard] returns the catalog compiled into the
// binary, used to seed an empty store.
package vorlage
