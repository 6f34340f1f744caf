package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rishi-singh26/tempbox/internal/model"
)

// CreateAddress inserts a new address. The ID must be the provider-assigned
// account identifier.
func (s *SQLiteStore) CreateAddress(ctx context.Context, addr model.Address) error {
	if strings.TrimSpace(addr.ID) == "" {
		return fmt.Errorf("address id must not be empty")
	}
	if strings.TrimSpace(addr.Email) == "" {
		return fmt.Errorf("address email must not be empty")
	}
	now := time.Now().UTC()
	if addr.CreatedAt.IsZero() {
		addr.CreatedAt = now
	}
	addr.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO addresses (
			id, name, email, password, auth_token,
			quota_bytes, used_bytes, is_archived, is_deleted,
			created_at, updated_at, folder_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		addr.ID, addr.Name, addr.Email, addr.Password, addr.AuthToken,
		addr.QuotaBytes, addr.UsedBytes, boolToInt(addr.Archived), boolToInt(addr.Deleted),
		addr.CreatedAt, addr.UpdatedAt, addr.FolderID,
	)
	if err != nil {
		return fmt.Errorf("creating address %s: %w", addr.ID, err)
	}
	return nil
}

// UpdateAddress updates all mutable fields of an existing address.
func (s *SQLiteStore) UpdateAddress(ctx context.Context, addr model.Address) error {
	addr.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE addresses SET
			name = ?, email = ?, password = ?, auth_token = ?,
			quota_bytes = ?, used_bytes = ?, is_archived = ?, is_deleted = ?,
			folder_id = ?, updated_at = ?
		WHERE id = ?`,
		addr.Name, addr.Email, addr.Password, addr.AuthToken,
		addr.QuotaBytes, addr.UsedBytes, boolToInt(addr.Archived), boolToInt(addr.Deleted),
		addr.FolderID, addr.UpdatedAt,
		addr.ID,
	)
	if err != nil {
		return fmt.Errorf("updating address %s: %w", addr.ID, err)
	}
	return requireRow(result, "address", addr.ID)
}

// UpdateAddressToken replaces the bearer token for an address.
func (s *SQLiteStore) UpdateAddressToken(ctx context.Context, id, token string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE addresses SET auth_token = ?, updated_at = ? WHERE id = ?",
		token, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating token for address %s: %w", id, err)
	}
	return requireRow(result, "address", id)
}

// UpdateAddressName replaces the user label for an address.
func (s *SQLiteStore) UpdateAddressName(ctx context.Context, id, name string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE addresses SET name = ?, updated_at = ? WHERE id = ?",
		name, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("renaming address %s: %w", id, err)
	}
	return requireRow(result, "address", id)
}

// UpdateAddressUsage records the provider-reported storage usage.
func (s *SQLiteStore) UpdateAddressUsage(ctx context.Context, id string, quotaBytes, usedBytes int64) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE addresses SET quota_bytes = ?, used_bytes = ?, updated_at = ? WHERE id = ?",
		quotaBytes, usedBytes, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating usage for address %s: %w", id, err)
	}
	return requireRow(result, "address", id)
}

// SetAddressArchived flips the archived flag.
func (s *SQLiteStore) SetAddressArchived(ctx context.Context, id string, archived bool) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE addresses SET is_archived = ?, updated_at = ? WHERE id = ?",
		boolToInt(archived), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("archiving address %s: %w", id, err)
	}
	return requireRow(result, "address", id)
}

// SetAddressFolder moves an address into a folder, or out of any folder
// when folderID is nil.
func (s *SQLiteStore) SetAddressFolder(ctx context.Context, id string, folderID *string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE addresses SET folder_id = ?, updated_at = ? WHERE id = ?",
		folderID, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("setting folder for address %s: %w", id, err)
	}
	return requireRow(result, "address", id)
}

// SoftDeleteAddress marks an address logically removed. The row stays on
// disk so the remote deletion attempt can still reference it.
func (s *SQLiteStore) SoftDeleteAddress(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE addresses SET is_deleted = 1, updated_at = ? WHERE id = ?",
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("soft-deleting address %s: %w", id, err)
	}
	return requireRow(result, "address", id)
}

// HardDeleteAddress physically removes the row. Deleting an already-absent
// row is not an error; the operation is terminal either way.
func (s *SQLiteStore) HardDeleteAddress(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM addresses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("hard-deleting address %s: %w", id, err)
	}
	return nil
}

// GetAddressByID retrieves a single address by ID, including soft-deleted
// rows.
func (s *SQLiteStore) GetAddressByID(ctx context.Context, id string) (*model.Address, error) {
	row := s.db.QueryRowxContext(ctx, selectAddress+" WHERE id = ?", id)
	addr, err := scanAddress(row)
	if err != nil {
		return nil, fmt.Errorf("getting address %s: %w", id, err)
	}
	return &addr, nil
}

// AddressExists reports whether any row (soft-deleted included) carries
// the given ID.
func (s *SQLiteStore) AddressExists(ctx context.Context, id string) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM addresses WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("checking address %s: %w", id, err)
	}
	return count > 0, nil
}

// GetActiveAddresses returns addresses that are neither archived nor
// deleted, newest first.
func (s *SQLiteStore) GetActiveAddresses(ctx context.Context) ([]model.Address, error) {
	return s.queryAddresses(ctx,
		selectAddress+" WHERE is_archived = 0 AND is_deleted = 0 ORDER BY created_at DESC")
}

// GetArchivedAddresses returns archived, non-deleted addresses, newest first.
func (s *SQLiteStore) GetArchivedAddresses(ctx context.Context) ([]model.Address, error) {
	return s.queryAddresses(ctx,
		selectAddress+" WHERE is_archived = 1 AND is_deleted = 0 ORDER BY created_at DESC")
}

const selectAddress = `
	SELECT id, name, email, password, auth_token,
	       quota_bytes, used_bytes, is_archived, is_deleted,
	       created_at, updated_at, folder_id
	FROM addresses`

func (s *SQLiteStore) queryAddresses(ctx context.Context, query string, args ...interface{}) ([]model.Address, error) {
	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying addresses: %w", err)
	}
	defer rows.Close()

	var addrs []model.Address
	for rows.Next() {
		addr, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, addr)
	}
	return addrs, rows.Err()
}

// scanAddress scans an address row from either sqlx.Rows or sqlx.Row.
func scanAddress(row interface{ Scan(dest ...interface{}) error }) (model.Address, error) {
	var (
		addr        model.Address
		archivedInt int
		deletedInt  int
		folderID    *string
	)

	err := row.Scan(
		&addr.ID, &addr.Name, &addr.Email, &addr.Password, &addr.AuthToken,
		&addr.QuotaBytes, &addr.UsedBytes, &archivedInt, &deletedInt,
		&addr.CreatedAt, &addr.UpdatedAt, &folderID,
	)
	if err != nil {
		return model.Address{}, fmt.Errorf("scanning address row: %w", err)
	}

	addr.Archived = archivedInt != 0
	addr.Deleted = deletedInt != 0
	addr.FolderID = folderID

	return addr, nil
}

// requireRow converts a zero-rows-affected result into a not-found error.
func requireRow(result interface{ RowsAffected() (int64, error) }, kind, id string) error {
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%s %s not found", kind, id)
	}
	return nil
}
