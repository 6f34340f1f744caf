package store

import (
	"context"

	"github.com/rishi-singh26/tempbox/internal/model"
)

// Store defines the persistence interface for addresses and folders.
// Both query shapes ("active" and "archived") exclude soft-deleted rows
// and order by creation time descending. Writes are synchronous: when a
// call returns, the row is durable.
type Store interface {
	// === Addresses ===

	CreateAddress(ctx context.Context, addr model.Address) error
	UpdateAddress(ctx context.Context, addr model.Address) error
	UpdateAddressToken(ctx context.Context, id, token string) error
	UpdateAddressName(ctx context.Context, id, name string) error
	UpdateAddressUsage(ctx context.Context, id string, quotaBytes, usedBytes int64) error
	SetAddressArchived(ctx context.Context, id string, archived bool) error
	SetAddressFolder(ctx context.Context, id string, folderID *string) error

	// SoftDeleteAddress marks the row logically removed. It stays on
	// disk until HardDeleteAddress runs after the remote deletion
	// attempt has completed.
	SoftDeleteAddress(ctx context.Context, id string) error

	// HardDeleteAddress physically removes the row. Terminal.
	HardDeleteAddress(ctx context.Context, id string) error

	GetAddressByID(ctx context.Context, id string) (*model.Address, error)
	AddressExists(ctx context.Context, id string) (bool, error)
	GetActiveAddresses(ctx context.Context) ([]model.Address, error)
	GetArchivedAddresses(ctx context.Context) ([]model.Address, error)

	// === Folders ===

	CreateFolder(ctx context.Context, folder model.Folder) (model.Folder, error)
	RenameFolder(ctx context.Context, id, name string) error
	SetFolderArchived(ctx context.Context, id string, archived bool) error

	// DeleteFolder soft-deletes the folder and nullifies the folder
	// reference on member addresses. Addresses are never cascaded.
	DeleteFolder(ctx context.Context, id string) error

	GetFolders(ctx context.Context, includeArchived bool) ([]model.Folder, error)
	GetFolderByID(ctx context.Context, id string) (*model.Folder, error)

	Close() error
}
