package sessionstore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/academyos/console/core"
	"github.com/academyos/console/core/session"
)

// snapshotRecord is one namespaced session snapshot.
type snapshotRecord struct {
	Namespace string `gorm:"primaryKey;size:128"`
	Data      []byte
	UpdatedAt time.Time
}

func (snapshotRecord) TableName() string { return "session_snapshots" }

type sqliteStore struct {
	db        *gorm.DB
	namespace string
}

// NewSQLite opens (and migrates) the sqlite database at conf.SQLiteDSN.
func NewSQLite(conf core.SessionConfig) (session.Persister, error) {
	if conf.SQLiteDSN == "" {
		return nil, errors.New("sqlite dsn required")
	}
	db, err := gorm.Open(sqlite.Open(conf.SQLiteDSN), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, errors.Wrap(err, "opening sqlite")
	}
	return newSQLite(db, conf.Namespace)
}

func newSQLite(db *gorm.DB, namespace string) (session.Persister, error) {
	if err := db.AutoMigrate(&snapshotRecord{}); err != nil {
		return nil, errors.Wrap(err, "migrating session snapshots")
	}
	return &sqliteStore{db: db, namespace: namespace}, nil
}

func (s *sqliteStore) Load(ctx context.Context) ([]byte, error) {
	var rec snapshotRecord
	err := s.db.WithContext(ctx).Where("namespace = ?", s.namespace).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, session.ErrNoSnapshot
	}
	if err != nil {
		return nil, errors.Wrap(err, "loading snapshot")
	}
	return rec.Data, nil
}

func (s *sqliteStore) Save(ctx context.Context, data []byte) error {
	rec := snapshotRecord{Namespace: s.namespace, Data: data, UpdatedAt: time.Now().UTC()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&rec).Error
	return errors.Wrap(err, "saving snapshot")
}

func (s *sqliteStore) Delete(ctx context.Context) error {
	err := s.db.WithContext(ctx).Where("namespace = ?", s.namespace).Delete(&snapshotRecord{}).Error
	return errors.Wrap(err, "deleting snapshot")
}

func (s *sqliteStore) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
