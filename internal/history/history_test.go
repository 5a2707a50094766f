package history

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/founderflow-backend/internal/config"
	"github.com/yungbote/founderflow-backend/internal/extract"
	"github.com/yungbote/founderflow-backend/internal/pipeline"
	"github.com/yungbote/founderflow-backend/internal/platform/dbctx"
	"github.com/yungbote/founderflow-backend/internal/prompt"
	"github.com/yungbote/founderflow-backend/internal/surface"
)

func sqliteDB(tb testing.TB) *gorm.DB {
	tb.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(tb.TempDir(), "history.db")), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(tb, err)
	require.NoError(tb, Migrate(db))
	tb.Cleanup(func() { _ = Close(db) })
	return db
}

func seed(t *testing.T, r Repo) []*Record {
	t.Helper()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	recs := []*Record{
		{Surface: "ideation", Template: prompt.IdeaGenerator, Model: "mock-1", CreatedAt: base},
		{Surface: "ideation", Template: prompt.IdeaGenerator, Model: "mock-1", CreatedAt: base.Add(time.Minute)},
		{Surface: "brand", Template: prompt.Branding, Model: "gemini", CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, rec := range recs {
		require.NoError(t, r.Create(dbctx.New(context.Background()), rec))
		require.NotEqual(t, uuid.Nil, rec.ID)
	}
	return recs
}

func exerciseRepo(t *testing.T, r Repo) {
	recs := seed(t, r)
	dbc := dbctx.New(context.Background())

	got, err := r.Get(dbc, recs[1].ID)
	require.NoError(t, err)
	assert.Equal(t, prompt.IdeaGenerator, got.Template)

	_, err = r.Get(dbc, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := r.List(dbc, Filter{})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(all), 3)

	ideas, err := r.List(dbc, Filter{Surface: "ideation", Template: prompt.IdeaGenerator})
	require.NoError(t, err)
	require.Len(t, ideas, 2)
	assert.Equal(t, recs[1].ID, ideas[0].ID, "newest first")

	one, err := r.List(dbc, Filter{Template: prompt.IdeaGenerator, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, one, 1)
}

func TestRepoSQLite(t *testing.T) {
	exerciseRepo(t, NewRepo(sqliteDB(t), nil))
}

func TestRepoPostgres(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("set TEST_POSTGRES_DSN to run history integration tests")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	tx := db.Begin()
	require.NoError(t, tx.Error)
	t.Cleanup(func() { _ = tx.Rollback().Error })

	r := NewRepo(db, nil)
	recs := seed(t, txRepo{r, tx})
	got, err := r.Get(dbctx.Context{Ctx: context.Background(), Tx: tx}, recs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "ideation", got.Surface)
}

// txRepo pins every call to one transaction.
type txRepo struct {
	Repo
	tx *gorm.DB
}

func (r txRepo) Create(dbc dbctx.Context, rec *Record) error {
	dbc.Tx = r.tx
	return r.Repo.Create(dbc, rec)
}

func TestOpenSQLite(t *testing.T) {
	db, err := Open(config.HistoryConfig{Enabled: true, DSN: filepath.Join(t.TempDir(), "ff.db")}, nil)
	require.NoError(t, err)
	defer Close(db)
	assert.True(t, db.Migrator().HasTable(&Record{}))

	_, err = Open(config.HistoryConfig{Enabled: true}, nil)
	assert.Error(t, err)
}

func TestIsPostgresDSN(t *testing.T) {
	assert.True(t, IsPostgresDSN("postgres://u:p@localhost:5432/ff?sslmode=disable"))
	assert.True(t, IsPostgresDSN("postgresql://localhost/ff"))
	assert.True(t, IsPostgresDSN("host=localhost user=ff dbname=ff"))
	assert.False(t, IsPostgresDSN("founderflow.db"))
	assert.False(t, IsPostgresDSN("file::memory:?cache=shared"))
}

func TestRecorder(t *testing.T) {
	r := NewRepo(sqliteDB(t), nil)
	rec := NewRecorder(r, nil)
	ctx := context.Background()
	sub := pipeline.Submission{Template: prompt.Branding, Request: prompt.Request{"keywords": "fast, green"}}

	got, err := rec.Record(ctx, "", sub, pipeline.Outcome{Template: prompt.Branding, State: pipeline.Failed}, 1)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = rec.Record(ctx, "brand", sub, pipeline.Outcome{
		Template: prompt.Branding,
		Model:    "mock-1",
		State:    pipeline.Done,
		Result:   extract.Result{"name": "Verdant", "tagline": "Go green, go fast"},
		Duration: 1500 * time.Millisecond,
	}, 2)
	require.NoError(t, err)
	require.NotNil(t, got)

	stored, err := r.Get(dbctx.New(ctx), got.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.TemplateVersion)
	assert.EqualValues(t, 1500, stored.DurationMS)
	var result map[string]any
	require.NoError(t, json.Unmarshal(stored.Result, &result))
	assert.Equal(t, "Verdant", result["name"])
	var req map[string]string
	require.NoError(t, json.Unmarshal(stored.Request, &req))
	assert.Equal(t, "fast, green", req["keywords"])

	hook := rec.OnSurfaceDone(func(string) int { return 3 })
	done := pipeline.Outcome{Template: prompt.Branding, Model: "mock-1", State: pipeline.Done, Result: extract.Result{"name": "X", "tagline": "Y"}}
	hook(ctx, surface.Completion{Ticket: surface.Ticket{Surface: "brand", Seq: 1}, Submission: sub, Outcome: done, Committed: false})
	hook(ctx, surface.Completion{Ticket: surface.Ticket{Surface: "brand", Seq: 2}, Submission: sub, Outcome: done, Committed: true})

	list, err := r.List(dbctx.New(ctx), Filter{Surface: "brand"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 3, list[0].TemplateVersion)
}
