// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package kontaktstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/kontakte/lib/clock"
	"github.com/bureau-foundation/kontakte/lib/importapi"
	"github.com/bureau-foundation/kontakte/lib/sqlitepool"
	"github.com/bureau-foundation/kontakte/lib/vorlage"
)

// ErrTemplateNotFound is returned for an unknown template id.
var ErrTemplateNotFound = errors.New("kontaktstore: template not found")

// UnknownPropertyError rejects a mapping onto a property the template
// does not have.
type UnknownPropertyError struct {
	Property string
}

func (e *UnknownPropertyError) Error() string {
	return "Unbekannte Eigenschaft: " + e.Property
}

// Search columns and the property names that feed them, first match
// wins.
var searchFields = []struct {
	column     string
	properties []string
}{
	{"vorname", []string{"Vorname", "First Name"}},
	{"nachname", []string{"Nachname", "Last Name"}},
	{"firma", []string{"Firma", "Company"}},
}

// Config configures Open.
type Config struct {
	Path     string
	PoolSize int
	Logger   *slog.Logger
	Clock    clock.Clock
}

// Store is the contact database.
type Store struct {
	pool   *sqlitepool.Pool
	logger *slog.Logger
	clock  clock.Clock
}

// Contact is one stored contact.
type Contact struct {
	ID         int64
	TemplateID int64
	Data       map[string]string
	Vorname    string
	Nachname   string
	Firma      string
	CreatedAt  time.Time
}

// Open opens or creates the database at config.Path.
func Open(ctx context.Context, config Config) (*Store, error) {
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	pool, err := sqlitepool.Open(ctx, sqlitepool.Config{
		Path:     config.Path,
		PoolSize: config.PoolSize,
		Logger:   config.Logger,
		Schema:   schema,
	})
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool, logger: config.Logger, clock: config.Clock}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.pool.Close()
}

// SeedCatalog writes catalog into an empty database, keeping template
// ids. It reports false without writing when templates exist already.
func (s *Store) SeedCatalog(ctx context.Context, catalog *vorlage.Catalog) (seeded bool, err error) {
	if err := catalog.Validate(); err != nil {
		return false, err
	}
	err = s.pool.With(ctx, func(conn *sqlite.Conn) (err error) {
		endFn, err := sqlitex.ImmediateTransaction(conn)
		if err != nil {
			return err
		}
		defer endFn(&err)

		count, err := countRows(conn, "SELECT COUNT(*) FROM vorlage", nil)
		if err != nil || count > 0 {
			return err
		}
		for _, template := range catalog.Templates {
			if err := insertTemplate(conn, &template); err != nil {
				return fmt.Errorf("seeding template %q: %w", template.Name, err)
			}
		}
		seeded = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if seeded {
		s.logger.Info("template catalog seeded", "templates", len(catalog.Templates))
	}
	return seeded, nil
}

func insertTemplate(conn *sqlite.Conn, template *vorlage.Template) error {
	if err := sqlitex.Execute(conn,
		"INSERT INTO vorlage (id, name, is_standard) VALUES (?, ?, ?)",
		&sqlitex.ExecOptions{Args: []any{template.ID, template.Name, flag(template.IsStandard)}},
	); err != nil {
		return err
	}
	for groupIndex, group := range template.Groups {
		if err := sqlitex.Execute(conn,
			"INSERT INTO gruppe (vorlage_id, name, position) VALUES (?, ?, ?)",
			&sqlitex.ExecOptions{Args: []any{template.ID, group.Name, groupIndex}},
		); err != nil {
			return err
		}
		groupID := conn.LastInsertRowID()
		for propertyIndex, property := range group.Properties {
			if err := sqlitex.Execute(conn,
				`INSERT INTO eigenschaft (gruppe_id, name, datentyp, optionen, allow_multiselect, position)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				&sqlitex.ExecOptions{Args: []any{
					groupID, property.Name, string(property.DataType), property.Options,
					flag(property.AllowMultiselect), propertyIndex,
				}},
			); err != nil {
				return err
			}
		}
	}
	return nil
}

func flag(value bool) int {
	if value {
		return 1
	}
	return 0
}

// Catalog loads every template in id order.
func (s *Store) Catalog(ctx context.Context) (*vorlage.Catalog, error) {
	var templates []vorlage.Template
	err := s.pool.With(ctx, func(conn *sqlite.Conn) error {
		var err error
		templates, err = loadTemplates(conn, "", nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	return &vorlage.Catalog{Templates: templates}, nil
}

// Template loads one template.
func (s *Store) Template(ctx context.Context, id int64) (*vorlage.Template, error) {
	var templates []vorlage.Template
	err := s.pool.With(ctx, func(conn *sqlite.Conn) error {
		var err error
		templates, err = loadTemplates(conn, "WHERE v.id = ?", []any{id})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("loading template %d: %w", id, err)
	}
	if len(templates) == 0 {
		return nil, fmt.Errorf("%w: %d", ErrTemplateNotFound, id)
	}
	return &templates[0], nil
}

// loadTemplates reads templates with their groups and properties in
// position order. Groups without properties are kept.
func loadTemplates(conn *sqlite.Conn, where string, args []any) ([]vorlage.Template, error) {
	query := `
		SELECT v.id, v.name, v.is_standard, g.id, g.name,
		       e.name, e.datentyp, e.optionen, e.allow_multiselect
		FROM vorlage v
		LEFT JOIN gruppe g ON g.vorlage_id = v.id
		LEFT JOIN eigenschaft e ON e.gruppe_id = g.id
		` + where + `
		ORDER BY v.id, g.position, e.position`
	var templates []vorlage.Template
	lastGroup := int64(-1)
	err := sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			templateID := stmt.ColumnInt64(0)
			if len(templates) == 0 || templates[len(templates)-1].ID != templateID {
				templates = append(templates, vorlage.Template{
					ID:         templateID,
					Name:       stmt.ColumnText(1),
					IsStandard: stmt.ColumnInt(2) != 0,
				})
				lastGroup = -1
			}
			template := &templates[len(templates)-1]
			if stmt.ColumnIsNull(3) {
				return nil
			}
			if groupID := stmt.ColumnInt64(3); groupID != lastGroup {
				template.Groups = append(template.Groups, vorlage.Group{Name: stmt.ColumnText(4)})
				lastGroup = groupID
			}
			if stmt.ColumnIsNull(5) {
				return nil
			}
			group := &template.Groups[len(template.Groups)-1]
			group.Properties = append(group.Properties, vorlage.Property{
				Name:             stmt.ColumnText(5),
				DataType:         vorlage.DataType(stmt.ColumnText(6)),
				Options:          stmt.ColumnText(7),
				AllowMultiselect: stmt.ColumnInt(8) != 0,
			})
			return nil
		},
	})
	return templates, err
}

// ImportContacts creates one contact per row of rows. mappings is keyed
// by source header; each non-empty value names the template property
// the header feeds. Blank values are left out of the property bag, and
// rows that end up empty are skipped. Two headers feeding the same
// property are joined with ", " in lexical header order, since the
// finalize mappings object carries no column order. Every row is written
// in one transaction; the count of created contacts is returned.
func (s *Store) ImportContacts(ctx context.Context, templateID int64, mappings map[string]string, rows []importapi.Row) (int, error) {
	template, err := s.Template(ctx, templateID)
	if err != nil {
		return 0, err
	}
	names := template.PropertyNames()
	headers := make([]string, 0, len(mappings))
	for header, property := range mappings {
		if property == "" {
			continue
		}
		if !names[property] {
			return 0, &UnknownPropertyError{Property: property}
		}
		headers = append(headers, header)
	}
	slices.Sort(headers)

	created := 0
	createdAt := s.clock.Now().UTC().Format(time.RFC3339Nano)
	err = s.pool.With(ctx, func(conn *sqlite.Conn) (err error) {
		endFn, err := sqlitex.ImmediateTransaction(conn)
		if err != nil {
			return err
		}
		defer endFn(&err)

		for _, row := range rows {
			data := make(map[string]string)
			for _, header := range headers {
				value := strings.TrimSpace(row[header])
				if value == "" {
					continue
				}
				property := mappings[header]
				if existing, ok := data[property]; ok {
					value = existing + ", " + value
				}
				data[property] = value
			}
			if len(data) == 0 {
				continue
			}
			if err := insertContact(conn, templateID, data, createdAt); err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("importing contacts: %w", err)
	}
	s.logger.Info("contacts imported",
		"vorlage_id", templateID,
		"rows", len(rows),
		"created", created,
	)
	return created, nil
}

func insertContact(conn *sqlite.Conn, templateID int64, data map[string]string, createdAt string) error {
	encoded, err := json.Marshal(data)
	if err != nil {
		return err
	}
	args := []any{templateID, string(encoded)}
	for _, field := range searchFields {
		args = append(args, firstValue(data, field.properties))
	}
	args = append(args, createdAt)
	return sqlitex.Execute(conn,
		`INSERT INTO kontakt (vorlage_id, data, vorname, nachname, firma, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{Args: args},
	)
}

func firstValue(data map[string]string, keys []string) string {
	for _, key := range keys {
		if value := data[key]; value != "" {
			return value
		}
	}
	return ""
}

// Contacts returns the contacts of a template, oldest first.
func (s *Store) Contacts(ctx context.Context, templateID int64) ([]Contact, error) {
	var contacts []Contact
	err := s.pool.With(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			`SELECT id, vorlage_id, data, vorname, nachname, firma, created_at
			 FROM kontakt WHERE vorlage_id = ? ORDER BY id`,
			&sqlitex.ExecOptions{
				Args: []any{templateID},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					contact := Contact{
						ID:         stmt.ColumnInt64(0),
						TemplateID: stmt.ColumnInt64(1),
						Vorname:    stmt.ColumnText(3),
						Nachname:   stmt.ColumnText(4),
						Firma:      stmt.ColumnText(5),
					}
					if err := json.Unmarshal([]byte(stmt.ColumnText(2)), &contact.Data); err != nil {
						return fmt.Errorf("contact %d: %w", contact.ID, err)
					}
					createdAt, err := time.Parse(time.RFC3339Nano, stmt.ColumnText(6))
					if err != nil {
						return fmt.Errorf("contact %d: %w", contact.ID, err)
					}
					contact.CreatedAt = createdAt
					contacts = append(contacts, contact)
					return nil
				},
			})
	})
	if err != nil {
		return nil, fmt.Errorf("listing contacts: %w", err)
	}
	return contacts, nil
}

// CountContacts counts the contacts of a template, or of all templates
// when templateID is zero.
func (s *Store) CountContacts(ctx context.Context, templateID int64) (int, error) {
	var count int
	err := s.pool.With(ctx, func(conn *sqlite.Conn) error {
		var err error
		if templateID == 0 {
			count, err = countRows(conn, "SELECT COUNT(*) FROM kontakt", nil)
		} else {
			count, err = countRows(conn, "SELECT COUNT(*) FROM kontakt WHERE vorlage_id = ?", []any{templateID})
		}
		return err
	})
	return count, err
}

func countRows(conn *sqlite.Conn, query string, args []any) (int, error) {
	var count int
	err := sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			count = stmt.ColumnInt(0)
			return nil
		},
	})
	return count, err
}
