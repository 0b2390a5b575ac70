/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package db

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/carverauto/adbmosaic/pkg/devicestore"
	"github.com/carverauto/adbmosaic/pkg/logger"
	"github.com/carverauto/adbmosaic/pkg/models"
)

const defaultDeviceTable = "adbmosaic_devices"

var tableNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// Querier is the subset of *pgxpool.Pool the device store needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresDeviceStore keeps device records as JSONB documents keyed by identity.
type PostgresDeviceStore struct {
	db     Querier
	table  string
	logger logger.Logger
}

// NewPostgresDeviceStore returns a store writing to table (or the default table when empty).
func NewPostgresDeviceStore(db Querier, table string, log logger.Logger) (*PostgresDeviceStore, error) {
	if table == "" {
		table = defaultDeviceTable
	}

	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTableName, table)
	}

	return &PostgresDeviceStore{db: db, table: table, logger: log}, nil
}

func (s *PostgresDeviceStore) schemaSQL() string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	identity   TEXT PRIMARY KEY,
	document   JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, s.table)
}

func (s *PostgresDeviceStore) upsertSQL() string {
	return fmt.Sprintf(`INSERT INTO %s (identity, document, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (identity) DO UPDATE
SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at`, s.table)
}

func (s *PostgresDeviceStore) selectSQL() string {
	return fmt.Sprintf(`SELECT document FROM %s ORDER BY identity`, s.table)
}

func (s *PostgresDeviceStore) deleteSQL() string {
	return fmt.Sprintf(`DELETE FROM %s WHERE identity = $1`, s.table)
}

// EnsureSchema creates the device table when it does not exist.
func (s *PostgresDeviceStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, s.schemaSQL()); err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToInit, err)
	}

	return nil
}

// GetAll implements devicestore.Store.
func (s *PostgresDeviceStore) GetAll(ctx context.Context) ([]*models.Device, error) {
	rows, err := s.db.Query(ctx, s.selectSQL())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToQuery, err)
	}
	defer rows.Close()

	var devices []*models.Device

	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFailedToScan, err)
		}

		var device models.Device
		if err := json.Unmarshal(doc, &device); err != nil {
			if s.logger != nil {
				s.logger.Warn().Err(err).Msg("Skipping undecodable device row")
			}

			continue
		}

		devices = append(devices, &device)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToQuery, err)
	}

	return devices, nil
}

// Put implements devicestore.Store.
func (s *PostgresDeviceStore) Put(ctx context.Context, device *models.Device) error {
	if device == nil || device.Identity == "" {
		return devicestore.ErrEmptyIdentity
	}

	doc, err := json.Marshal(device)
	if err != nil {
		return fmt.Errorf("failed to encode device %s: %w", device.Identity, err)
	}

	if _, err := s.db.Exec(ctx, s.upsertSQL(), device.Identity, doc); err != nil {
		return fmt.Errorf("%w %s: %w", ErrFailedToInsert, device.Identity, err)
	}

	return nil
}

// Delete implements devicestore.Store.
func (s *PostgresDeviceStore) Delete(ctx context.Context, identity string) error {
	if identity == "" {
		return devicestore.ErrEmptyIdentity
	}

	if _, err := s.db.Exec(ctx, s.deleteSQL(), identity); err != nil {
		return fmt.Errorf("%w %s: %w", ErrFailedToDelete, identity, err)
	}

	return nil
}

var _ devicestore.Store = (*PostgresDeviceStore)(nil)
