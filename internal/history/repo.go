package history

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/founderflow-backend/internal/platform/dbctx"
	"github.com/yungbote/founderflow-backend/internal/platform/logger"
)

var ErrNotFound = errors.New("history record not found")

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

type Filter struct {
	Template string
	Surface  string
	Limit    int
}

type Repo interface {
	Create(dbc dbctx.Context, rec *Record) error
	Get(dbc dbctx.Context, id uuid.UUID) (*Record, error)
	List(dbc dbctx.Context, f Filter) ([]*Record, error)
}

type repo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRepo(db *gorm.DB, baseLog *logger.Logger) Repo {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	return &repo{db: db, log: baseLog.With("repo", "HistoryRepo")}
}

func (r *repo) Create(dbc dbctx.Context, rec *Record) error {
	if rec == nil {
		return errors.New("nil record")
	}
	return dbc.DB(r.db).Create(rec).Error
}

func (r *repo) Get(dbc dbctx.Context, id uuid.UUID) (*Record, error) {
	if id == uuid.Nil {
		return nil, ErrNotFound
	}
	var rec Record
	err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&rec).Error
	if err != nil {
		return nil, err
	}
	if rec.ID == uuid.Nil {
		return nil, ErrNotFound
	}
	return &rec, nil
}

// List returns records newest first.
func (r *repo) List(dbc dbctx.Context, f Filter) ([]*Record, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	q := dbc.DB(r.db).Model(&Record{})
	if t := strings.TrimSpace(f.Template); t != "" {
		q = q.Where("template = ?", t)
	}
	if s := strings.TrimSpace(f.Surface); s != "" {
		q = q.Where("surface = ?", s)
	}
	out := []*Record{}
	if err := q.Order("created_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
