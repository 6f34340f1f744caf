package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rishi-singh26/tempbox/internal/model"
)

// CreateFolder inserts a new folder. Generates a UUID if ID is empty and
// returns the stored value.
func (s *SQLiteStore) CreateFolder(ctx context.Context, folder model.Folder) (model.Folder, error) {
	if strings.TrimSpace(folder.Name) == "" {
		return model.Folder{}, fmt.Errorf("folder name must not be empty")
	}
	if folder.ID == "" {
		folder.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	folder.CreatedAt = now
	folder.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO folders (id, name, is_archived, is_deleted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		folder.ID, folder.Name, boolToInt(folder.Archived), boolToInt(folder.Deleted),
		folder.CreatedAt, folder.UpdatedAt,
	)
	if err != nil {
		return model.Folder{}, fmt.Errorf("creating folder: %w", err)
	}
	return folder, nil
}

// RenameFolder replaces the folder's name.
func (s *SQLiteStore) RenameFolder(ctx context.Context, id, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("folder name must not be empty")
	}
	result, err := s.db.ExecContext(ctx,
		"UPDATE folders SET name = ?, updated_at = ? WHERE id = ?",
		name, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("renaming folder %s: %w", id, err)
	}
	return requireRow(result, "folder", id)
}

// SetFolderArchived flips the archived flag.
func (s *SQLiteStore) SetFolderArchived(ctx context.Context, id string, archived bool) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE folders SET is_archived = ?, updated_at = ? WHERE id = ?",
		boolToInt(archived), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("archiving folder %s: %w", id, err)
	}
	return requireRow(result, "folder", id)
}

// DeleteFolder soft-deletes a folder and nullifies the folder reference on
// its member addresses. Member addresses are otherwise untouched.
func (s *SQLiteStore) DeleteFolder(ctx context.Context, id string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	result, err := tx.ExecContext(ctx,
		"UPDATE folders SET is_deleted = 1, updated_at = ? WHERE id = ?",
		now, id,
	)
	if err != nil {
		return fmt.Errorf("deleting folder %s: %w", id, err)
	}
	if err := requireRow(result, "folder", id); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE addresses SET folder_id = NULL, updated_at = ? WHERE folder_id = ?",
		now, id,
	); err != nil {
		return fmt.Errorf("unfiling addresses of folder %s: %w", id, err)
	}

	return tx.Commit()
}

// GetFolders retrieves non-deleted folders, optionally including archived
// ones, newest first.
func (s *SQLiteStore) GetFolders(ctx context.Context, includeArchived bool) ([]model.Folder, error) {
	query := selectFolder + " WHERE is_deleted = 0"
	if !includeArchived {
		query += " AND is_archived = 0"
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying folders: %w", err)
	}
	defer rows.Close()

	var folders []model.Folder
	for rows.Next() {
		folder, err := scanFolder(rows)
		if err != nil {
			return nil, err
		}
		folders = append(folders, folder)
	}
	return folders, rows.Err()
}

// GetFolderByID retrieves a single folder by ID.
func (s *SQLiteStore) GetFolderByID(ctx context.Context, id string) (*model.Folder, error) {
	row := s.db.QueryRowxContext(ctx, selectFolder+" WHERE id = ?", id)
	folder, err := scanFolder(row)
	if err != nil {
		return nil, fmt.Errorf("getting folder %s: %w", id, err)
	}
	return &folder, nil
}

const selectFolder = `
	SELECT id, name, is_archived, is_deleted, created_at, updated_at
	FROM folders`

// scanFolder scans a folder row from either sqlx.Rows or sqlx.Row.
func scanFolder(row interface{ Scan(dest ...interface{}) error }) (model.Folder, error) {
	var (
		folder      model.Folder
		archivedInt int
		deletedInt  int
	)

	err := row.Scan(
		&folder.ID, &folder.Name, &archivedInt, &deletedInt,
		&folder.CreatedAt, &folder.UpdatedAt,
	)
	if err != nil {
		return model.Folder{}, fmt.Errorf("scanning folder row: %w", err)
	}

	folder.Archived = archivedInt != 0
	folder.Deleted = deletedInt != 0

	return folder, nil
}
