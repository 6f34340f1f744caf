package model

import "time"

// Address is a temporary mailbox credential record. The ID is assigned by
// the remote provider and is stable for the life of the account; everything
// else mirrors either provider state (quota, email) or local lifecycle
// flags (archived, deleted).
type Address struct {
	// ID is the provider-assigned account identifier.
	ID string `json:"id"`

	// Name is an optional user-defined label for the mailbox.
	Name string `json:"name"`

	// Email is the full address string (local part + domain).
	Email string `json:"email"`

	// Password is the account password. The provider does not allow
	// changing it after creation.
	Password string `json:"password,omitempty"`

	// AuthToken is the bearer token for the provider API. An address
	// without a token cannot perform any remote operation.
	AuthToken string `json:"authToken,omitempty"`

	// QuotaBytes and UsedBytes are the provider-reported storage limits.
	QuotaBytes int64 `json:"quotaBytes"`
	UsedBytes  int64 `json:"usedBytes"`

	// Archived marks an address as logged out but retained. Archived
	// addresses are excluded from active views and can be restored.
	Archived bool `json:"archived"`

	// Deleted is the soft-delete marker. A deleted address never appears
	// in address lists; the row is removed physically only after the
	// remote deletion attempt has completed.
	Deleted bool `json:"deleted"`

	// FolderID is a weak reference to a Folder; nil when unfiled.
	FolderID *string `json:"folderId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Authenticated reports whether the address holds a bearer token and can
// be used for remote operations.
func (a Address) Authenticated() bool {
	return a.AuthToken != ""
}

// DisplayName returns the user label when set, otherwise the email address.
func (a Address) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	return a.Email
}

// UsageFraction returns used/quota in the range [0, 1]. Returns 0 when the
// quota is unknown.
func (a Address) UsageFraction() float64 {
	if a.QuotaBytes <= 0 {
		return 0
	}
	return float64(a.UsedBytes) / float64(a.QuotaBytes)
}

// UsagePercent returns storage usage as a percentage.
func (a Address) UsagePercent() float64 {
	return a.UsageFraction() * 100
}
