package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type userRow struct {
	ID           string `gorm:"primaryKey;size:64"`
	Email        string `gorm:"size:255;not null;unique"`
	PasswordHash []byte `gorm:"not null"`
	CreatedAt    time.Time
}

func (userRow) TableName() string { return "networth_users" }

type documentRow struct {
	UID       string `gorm:"primaryKey;size:64"`
	Version   int64  `gorm:"not null"`
	Fields    string `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time
}

func (documentRow) TableName() string { return "networth_documents" }

// Postgres stores users and documents through gorm.
type Postgres struct {
	db *gorm.DB
}

// OpenPostgres connects and migrates the two tables.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	if dsn == "" {
		return nil, errors.New("postgres docstore: empty dsn")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting postgres: %w", err)
	}
	db = db.WithContext(ctx)
	if err := db.AutoMigrate(&userRow{}, &documentRow{}); err != nil {
		return nil, fmt.Errorf("migrating docstore tables: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Backend() string { return "postgres" }

func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (p *Postgres) CreateUser(ctx context.Context, email string, passwordHash []byte) (User, error) {
	row := userRow{
		ID:           uuid.NewString(),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := p.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueConstraintError(err) {
			return User{}, ErrUserExists
		}
		return User{}, err
	}
	return User(row), nil
}

func (p *Postgres) UserByEmail(ctx context.Context, email string) (User, error) {
	return p.findUser(ctx, "email = ?", NormalizeEmail(email))
}

func (p *Postgres) UserByID(ctx context.Context, id string) (User, error) {
	return p.findUser(ctx, "id = ?", id)
}

func (p *Postgres) findUser(ctx context.Context, query string, arg any) (User, error) {
	var row userRow
	if err := p.db.WithContext(ctx).Where(query, arg).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return User(row), nil
}

func (p *Postgres) Get(ctx context.Context, uid string) (Snapshot, error) {
	return loadDocument(p.db.WithContext(ctx), uid, false)
}

func loadDocument(tx *gorm.DB, uid string, lock bool) (Snapshot, error) {
	if lock {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row documentRow
	if err := tx.Where("uid = ?", uid).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Snapshot{}, ErrNotFound
		}
		return Snapshot{}, err
	}
	snap := Snapshot{UID: row.UID, Version: row.Version, UpdatedAt: row.UpdatedAt}
	if err := json.Unmarshal([]byte(row.Fields), &snap.Fields); err != nil {
		return Snapshot{}, fmt.Errorf("decoding document %s: %w", uid, err)
	}
	return snap, nil
}

func (p *Postgres) Merge(ctx context.Context, uid string, fields map[string]any) (Snapshot, error) {
	var next Snapshot
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cur, err := loadDocument(tx, uid, true)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		next = Snapshot{
			UID:       uid,
			Version:   cur.Version + 1,
			UpdatedAt: time.Now().UTC(),
			Fields:    MergeFields(cur.Fields, fields),
		}
		raw, err := json.Marshal(next.Fields)
		if err != nil {
			return fmt.Errorf("encoding document %s: %w", uid, err)
		}
		row := documentRow{UID: uid, Version: next.Version, Fields: string(raw), UpdatedAt: next.UpdatedAt}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "uid"}},
			DoUpdates: clause.AssignmentColumns([]string{"version", "fields", "updated_at"}),
		}).Create(&row).Error
	})
	if err != nil {
		return Snapshot{}, err
	}
	return next, nil
}
