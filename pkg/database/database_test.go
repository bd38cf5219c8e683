package database

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "test.db")}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestLoadMigrations(t *testing.T) {
	for _, dir := range []string{SQLiteMigrations, PostgresMigrations} {
		t.Run(dir, func(t *testing.T) {
			migrations, err := LoadMigrations(dir)
			require.NoError(t, err)
			require.Len(t, migrations, 2)
			assert.Equal(t, 1, migrations[0].Version)
			assert.Equal(t, "initial_schema", migrations[0].Name)
			assert.Equal(t, 2, migrations[1].Version)
			assert.Contains(t, migrations[0].SQL, "application_history")
		})
	}
}

func TestLoadMigrations_Validation(t *testing.T) {
	tests := []struct {
		name    string
		files   fstest.MapFS
		want    []int
		wantErr bool
	}{
		{
			name: "sorted by version, non-sql ignored",
			files: fstest.MapFS{
				"m/010_late.sql":  {Data: []byte("SELECT 1;")},
				"m/002_early.sql": {Data: []byte("SELECT 2;")},
				"m/README.md":     {Data: []byte("docs")},
			},
			want: []int{2, 10},
		},
		{
			name:    "bad filename",
			files:   fstest.MapFS{"m/initial.sql": {Data: []byte("")}},
			wantErr: true,
		},
		{
			name: "duplicate version",
			files: fstest.MapFS{
				"m/001_a.sql": {Data: []byte("")},
				"m/001_b.sql": {Data: []byte("")},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			migrations, err := loadMigrations(tt.files, "m")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			var got []int
			for _, m := range migrations {
				got = append(got, m.Version)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMigrator_RunIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	m := NewMigrator(db, zap.NewNop())

	require.NoError(t, m.Run(ctx))
	require.NoError(t, m.Run(ctx))

	var count int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 2, count)
}

func TestMigrator_HistoryIsAppendOnly(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	require.NoError(t, NewMigrator(db, zap.NewNop()).Run(ctx))

	stmts := []string{
		"INSERT INTO companies (name) VALUES ('Acme')",
		"INSERT INTO users (username, role, company_id) VALUES ('rec', 'recruiter', 1)",
		"INSERT INTO users (username, role) VALUES ('cand', 'candidate')",
		"INSERT INTO jobs (company_id, title) VALUES (1, 'Engineer')",
		`INSERT INTO applications (candidate_id, job_id, company_id, created_at, updated_at)
			VALUES (2, 1, 1, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
		`INSERT INTO application_history (application_id, from_stage, to_stage, actor_id, changed_at)
			VALUES (1, 'Applied', 'Screening', 1, CURRENT_TIMESTAMP)`,
	}
	for _, stmt := range stmts {
		_, err := db.ExecContext(ctx, stmt)
		require.NoError(t, err, stmt)
	}

	_, err := db.ExecContext(ctx, "UPDATE application_history SET to_stage = 'Rejected'")
	assert.ErrorContains(t, err, "append-only")
	_, err = db.ExecContext(ctx, "DELETE FROM application_history")
	assert.ErrorContains(t, err, "append-only")
}

func TestMigrator_RejectsUnknownStage(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	require.NoError(t, NewMigrator(db, zap.NewNop()).Run(ctx))

	_, err := db.ExecContext(ctx, "INSERT INTO companies (name) VALUES ('Acme')")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, "INSERT INTO users (username, role) VALUES ('cand', 'candidate')")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, "INSERT INTO jobs (company_id, title) VALUES (1, 'Engineer')")
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `INSERT INTO applications (candidate_id, job_id, company_id, stage, created_at, updated_at)
		VALUES (1, 1, 1, 'screening', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
	assert.Error(t, err)
}
