package mailtm

import "time"

// Domain is an address domain offered by the provider.
type Domain struct {
	ID        string    `json:"id"`
	Domain    string    `json:"domain"`
	IsActive  bool      `json:"isActive"`
	IsPrivate bool      `json:"isPrivate"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Account is the provider's view of a mailbox account.
type Account struct {
	ID         string    `json:"id"`
	Address    string    `json:"address"`
	Quota      int64     `json:"quota"`
	Used       int64     `json:"used"`
	IsDisabled bool      `json:"isDisabled"`
	IsDeleted  bool      `json:"isDeleted"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Token is the result of a successful authentication.
type Token struct {
	ID    string `json:"id"`
	Token string `json:"token"`
}

// The provider wraps collections in Hydra envelopes.

type domainList struct {
	Members []Domain `json:"hydra:member"`
	Total   int      `json:"hydra:totalItems"`
}

type messageList struct {
	Members []messagePayload `json:"hydra:member"`
	Total   int              `json:"hydra:totalItems"`
}

// tokenRequest is the body of POST /token and POST /accounts.
type accountRequest struct {
	Address  string `json:"address"`
	Password string `json:"password"`
}

// seenPatch is the merge-patch body of PATCH /messages/{id}.
type seenPatch struct {
	Seen bool `json:"seen"`
}
