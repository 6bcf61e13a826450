package snapshot

import (
	"context"
	"errors"
	"time"

	"quest-voice/feature/quests"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type setRow struct {
	ID                 uint      `gorm:"primaryKey"`
	DataVersion        string    `gorm:"size:128;uniqueIndex"`
	QuestCount         int       `gorm:"not null"`
	Kind               string    `gorm:"size:16;not null"`
	TextOrder          string    `gorm:"size:16"`
	FingerprintVersion string    `gorm:"size:8"`
	CreatedAt          time.Time `gorm:"not null"`
}

func (setRow) TableName() string { return "snapshot_sets" }

type entryRow struct {
	ID          uint      `gorm:"primaryKey"`
	SetID       uint      `gorm:"not null;uniqueIndex:idx_snapshot_entries_set_quest"`
	QuestID     int       `gorm:"not null;uniqueIndex:idx_snapshot_entries_set_quest"`
	Fingerprint string    `gorm:"size:80;not null"`
	Zone        string    `gorm:"size:191"`
	Timestamp   time.Time `gorm:"not null"`
}

func (entryRow) TableName() string { return "snapshot_entries" }

type pointerRow struct {
	Name        string    `gorm:"primaryKey;size:32"`
	SetID       uint      `gorm:"not null"`
	DataVersion string    `gorm:"size:128;not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (pointerRow) TableName() string { return "snapshot_pointers" }

const entryBatchSize = 500

// DBStore keeps sets in the snapshot_sets, snapshot_entries and snapshot_pointers tables.
type DBStore struct {
	db    *gorm.DB
	order quests.TextOrder
}

// NewDBStore creates a database store. Call Migrate before first use.
func NewDBStore(db *gorm.DB, order quests.TextOrder) *DBStore {
	return &DBStore{db: db, order: order}
}

// Migrate creates or updates the snapshot tables.
func (s *DBStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&setRow{}, &entryRow{}, &pointerRow{}); err != nil {
		return storageErr("migrate", err)
	}
	return nil
}

// LoadLast returns the set referenced by the "last" pointer row.
func (s *DBStore) LoadLast(ctx context.Context) (*Set, error) {
	var ptr pointerRow
	err := s.db.WithContext(ctx).Where("name = ?", pointerName).Take(&ptr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("load pointer", err)
	}

	var row setRow
	if err := s.db.WithContext(ctx).Where("id = ?", ptr.SetID).Take(&row).Error; err != nil {
		return nil, storageErr("load "+ptr.DataVersion, err)
	}

	var entries []entryRow
	if err := s.db.WithContext(ctx).Where("set_id = ?", row.ID).Find(&entries).Error; err != nil {
		return nil, storageErr("load entries of "+row.DataVersion, err)
	}

	set := &Set{
		DataVersion:        row.DataVersion,
		CreatedAt:          row.CreatedAt.UTC(),
		Kind:               Kind(row.Kind),
		TextOrder:          quests.TextOrder(row.TextOrder),
		FingerprintVersion: row.FingerprintVersion,
		Entries:            make(map[int]Entry, len(entries)),
	}
	if set.TextOrder == "" {
		set.TextOrder = quests.DefaultTextOrder
	}
	for _, e := range entries {
		set.Entries[e.QuestID] = Entry{Fingerprint: e.Fingerprint, Zone: e.Zone, Timestamp: e.Timestamp.UTC()}
	}
	set.QuestCount = len(set.Entries)
	return set, nil
}

// SaveEntries inserts the set, its entries and the pointer upsert in one transaction.
func (s *DBStore) SaveEntries(ctx context.Context, set *Set) error {
	if err := validateSet(set); err != nil {
		return storageErr("save", err)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&setRow{}).Where("data_version = ?", set.DataVersion).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrVersionExists
		}

		row := setRow{
			DataVersion:        set.DataVersion,
			QuestCount:         set.QuestCount,
			Kind:               string(set.Kind),
			TextOrder:          string(set.TextOrder),
			FingerprintVersion: set.FingerprintVersion,
			CreatedAt:          set.CreatedAt,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}

		if len(set.Entries) > 0 {
			rows := make([]entryRow, 0, len(set.Entries))
			for id, e := range set.Entries {
				rows = append(rows, entryRow{
					SetID:       row.ID,
					QuestID:     id,
					Fingerprint: e.Fingerprint,
					Zone:        e.Zone,
					Timestamp:   e.Timestamp,
				})
			}
			if err := tx.CreateInBatches(rows, entryBatchSize).Error; err != nil {
				return err
			}
		}

		ptr := pointerRow{Name: pointerName, SetID: row.ID, DataVersion: row.DataVersion, UpdatedAt: time.Now().UTC()}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"set_id", "data_version", "updated_at"}),
		}).Create(&ptr).Error
	})
	if err != nil {
		return storageErr("save "+set.DataVersion, err)
	}
	return nil
}

// Save fingerprints the quests and publishes them as an apply baseline.
func (s *DBStore) Save(ctx context.Context, list []quests.Quest, dataVersion string) (*Set, error) {
	set := NewSet(list, dataVersion, KindApply, s.order)
	if err := s.SaveEntries(ctx, set); err != nil {
		return nil, err
	}
	return set, nil
}

// CreateInitial adopts the catalog as baseline.
func (s *DBStore) CreateInitial(ctx context.Context, list []quests.Quest, buildTag string) (*Set, error) {
	set := NewSet(list, buildTag, KindInitial, s.order)
	if err := s.SaveEntries(ctx, set); err != nil {
		return nil, err
	}
	return set, nil
}

// List returns all set headers, newest first.
func (s *DBStore) List(ctx context.Context) ([]SetInfo, error) {
	var rows []setRow
	if err := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, storageErr("list", err)
	}

	var ptr pointerRow
	active := ""
	err := s.db.WithContext(ctx).Where("name = ?", pointerName).Take(&ptr).Error
	switch {
	case err == nil:
		active = ptr.DataVersion
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, storageErr("load pointer", err)
	}

	out := make([]SetInfo, 0, len(rows))
	for _, r := range rows {
		out = append(out, SetInfo{
			DataVersion: r.DataVersion,
			QuestCount:  r.QuestCount,
			CreatedAt:   r.CreatedAt.UTC(),
			Kind:        Kind(r.Kind),
			Active:      r.DataVersion == active,
		})
	}
	return out, nil
}
