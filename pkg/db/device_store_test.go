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
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/adbmosaic/pkg/devicestore"
	"github.com/carverauto/adbmosaic/pkg/logger"
	"github.com/carverauto/adbmosaic/pkg/models"
)

type execCall struct {
	sql  string
	args []any
}

type fakeQuerier struct {
	execs    []execCall
	queryErr error
}

func (f *fakeQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, execCall{sql: sql, args: args})
	return pgconn.CommandTag{}, nil
}

func (f *fakeQuerier) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	return nil, f.queryErr
}

func TestBuildPostgresConnURLDefaults(t *testing.T) {
	t.Parallel()

	u, err := buildPostgresConnURL(&models.PostgresDatabase{
		Host:     "db.local",
		Database: "adbmosaic",
		Username: "mosaic",
		Password: "secret",
	})
	require.NoError(t, err)

	assert.Equal(t, "db.local:5432", u.Host)
	assert.Equal(t, "/adbmosaic", u.Path)
	assert.Equal(t, "disable", u.Query().Get("sslmode"))
	assert.Equal(t, "adbmosaic", u.Query().Get("application_name"))

	pass, ok := u.User.Password()
	assert.True(t, ok)
	assert.Equal(t, "secret", pass)
}

func TestBuildPostgresConnURLRequiresHost(t *testing.T) {
	t.Parallel()

	_, err := buildPostgresConnURL(nil)
	require.ErrorIs(t, err, ErrPostgresConfigRequired)

	_, err = buildPostgresConnURL(&models.PostgresDatabase{Database: "x"})
	require.ErrorIs(t, err, ErrPostgresHostRequired)
}

func TestNewPostgresDeviceStoreValidatesTable(t *testing.T) {
	t.Parallel()

	_, err := NewPostgresDeviceStore(&fakeQuerier{}, "devices; drop table x", logger.NewTestLogger())
	require.ErrorIs(t, err, ErrInvalidTableName)

	store, err := NewPostgresDeviceStore(&fakeQuerier{}, "", logger.NewTestLogger())
	require.NoError(t, err)
	assert.Equal(t, defaultDeviceTable, store.table)
}

func TestPostgresDeviceStoreWrites(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	q := &fakeQuerier{}

	store, err := NewPostgresDeviceStore(q, "phones", logger.NewTestLogger())
	require.NoError(t, err)

	require.NoError(t, store.EnsureSchema(ctx))
	require.NoError(t, store.Put(ctx, &models.Device{Identity: "SN123", Name: "Pixel"}))
	require.NoError(t, store.Delete(ctx, "SN123"))

	require.Len(t, q.execs, 3)
	assert.True(t, strings.HasPrefix(q.execs[0].sql, "CREATE TABLE IF NOT EXISTS phones"))
	assert.Contains(t, q.execs[1].sql, "ON CONFLICT (identity)")
	require.Len(t, q.execs[1].args, 2)
	assert.Equal(t, "SN123", q.execs[1].args[0])

	var doc models.Device
	require.NoError(t, json.Unmarshal(q.execs[1].args[1].([]byte), &doc))
	assert.Equal(t, "Pixel", doc.Name)

	assert.Equal(t, []any{"SN123"}, q.execs[2].args)

	require.ErrorIs(t, store.Put(ctx, &models.Device{}), devicestore.ErrEmptyIdentity)
}

func TestPostgresDeviceStoreQueryFailure(t *testing.T) {
	t.Parallel()

	errBoom := errors.New("connection reset")
	store, err := NewPostgresDeviceStore(&fakeQuerier{queryErr: errBoom}, "", logger.NewTestLogger())
	require.NoError(t, err)

	_, err = store.GetAll(context.Background())
	require.ErrorIs(t, err, ErrFailedToQuery)
	require.ErrorIs(t, err, errBoom)
}
