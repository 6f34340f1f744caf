package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rishi-singh26/tempbox/internal/credential"
	"github.com/rishi-singh26/tempbox/internal/inbox"
	"github.com/rishi-singh26/tempbox/internal/mailtm"
	"github.com/rishi-singh26/tempbox/internal/model"
	"github.com/rishi-singh26/tempbox/internal/store"
)

// Controller is the single authority reconciling the persistent store,
// the remote provider, and the inbox cache. It also owns UI-facing
// selection state. Construct one per session and pass it to consumers
// explicitly; all observable-state mutations are serialized internally.
type Controller struct {
	store  store.Store
	client RemoteClient
	cache  *inbox.Cache

	// vault, when non-nil, keeps passwords and tokens out of the
	// database file.
	vault credential.Vault
	log   *logrus.Logger

	mu       sync.Mutex
	active   []model.Address
	archived []model.Address
	loading  bool

	// generation invalidates in-flight fetch fan-outs: results arriving
	// with a stale generation are discarded instead of being applied to
	// reloaded cache slots.
	generation uint64

	// lastMessage is the transient error surface for one-shot
	// operations, cleared on the next attempt.
	lastMessage string

	selectedAddress  *model.Address
	selectedMessage  *model.Message
	selectedComplete *model.Message
}

// New creates a controller. vault may be nil, in which case credentials
// are persisted in the store.
func New(
	s store.Store,
	client RemoteClient,
	cache *inbox.Cache,
	vault credential.Vault,
	log *logrus.Logger,
) *Controller {
	if log == nil {
		log = logrus.New()
	}
	return &Controller{
		store:  s,
		client: client,
		cache:  cache,
		vault:  vault,
		log:    log,
	}
}

// Cache exposes the inbox cache for read access and event subscription.
func (c *Controller) Cache() *inbox.Cache {
	return c.cache
}

// Addresses returns copies of the active and archived address lists.
func (c *Controller) Addresses() (active, archived []model.Address) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]model.Address(nil), c.active...),
		append([]model.Address(nil), c.archived...)
}

// Loading reports whether a bulk address load is in progress.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// LastMessage returns the transient error message from the most recent
// one-shot operation, empty when it succeeded.
func (c *Controller) LastMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastMessage
}

func (c *Controller) beginOp() {
	c.mu.Lock()
	c.lastMessage = ""
	c.mu.Unlock()
}

func (c *Controller) failOp(err error) error {
	c.mu.Lock()
	c.lastMessage = err.Error()
	c.mu.Unlock()
	return err
}

// FetchAddresses reloads the address lists from the store and fans out a
// concurrent message fetch for every address holding a token. Per-address
// results are published to the cache as each fetch finishes; failures are
// isolated per address. Addresses without a token are skipped and their
// cache entries left untouched.
func (c *Controller) FetchAddresses(ctx context.Context) error {
	c.mu.Lock()
	c.loading = true
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.loading = false
		c.mu.Unlock()
	}()

	if err := c.reloadAddressLists(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	all := make([]model.Address, 0, len(c.active)+len(c.archived))
	all = append(all, c.active...)
	all = append(all, c.archived...)
	c.mu.Unlock()

	var wg sync.WaitGroup
	for _, addr := range all {
		if !addr.Authenticated() {
			continue
		}
		wg.Add(1)
		go func(a model.Address) {
			defer wg.Done()
			c.fetchInto(ctx, gen, a)
		}(addr)
	}
	wg.Wait()

	return nil
}

// FetchMessages refreshes the inbox of a single address, e.g. from a
// pull-to-refresh. Returns a typed auth error without touching the
// network or the cache when the address has no token.
func (c *Controller) FetchMessages(ctx context.Context, addr model.Address) error {
	if !addr.Authenticated() {
		return &mailtm.Error{Kind: mailtm.KindAuthRequired, Message: "address has no auth token"}
	}

	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()

	return c.fetchInto(ctx, gen, addr)
}

// fetchInto fetches one address's messages and reconciles the cache.
// Success replaces the store wholesale; failure preserves the previous
// messages and records the error. Results for a stale generation are
// discarded.
func (c *Controller) fetchInto(ctx context.Context, gen uint64, addr model.Address) error {
	if !c.currentGeneration(gen) {
		return nil
	}
	c.cache.MarkFetching(addr.ID)

	msgs, err := c.client.ListMessages(ctx, addr.AuthToken, 1)

	if !c.currentGeneration(gen) {
		// The address list was reloaded mid-flight; this result would
		// land in a stale slot.
		return nil
	}

	prev, _ := c.cache.Get(addr.ID)
	if err != nil {
		c.log.WithError(err).WithField("address", addr.Email).
			Warn("Inbox fetch failed")
		c.cache.Set(addr.ID, model.MessageStore{
			Error:    err.Error(),
			Messages: prev.Messages,
		})
		return err
	}

	c.cache.Set(addr.ID, model.MessageStore{Messages: msgs})
	return nil
}

func (c *Controller) currentGeneration(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen == c.generation
}

// UpdateMessageSeenStatus sets the seen flag of a message on the server
// and, only after confirmation, replaces the cached copy with one
// carrying the new flag. There is no optimistic update: a failed
// roundtrip leaves the cache unchanged.
func (c *Controller) UpdateMessageSeenStatus(ctx context.Context, addr model.Address, messageID string, seen bool) error {
	c.beginOp()

	if !addr.Authenticated() {
		return c.failOp(&mailtm.Error{Kind: mailtm.KindAuthRequired, Message: "address has no auth token"})
	}

	if err := c.client.SetMessageSeen(ctx, messageID, addr.AuthToken, seen); err != nil {
		return c.failOp(err)
	}

	if msg, ok := c.cache.Message(addr.ID, messageID); ok {
		c.cache.UpdateMessage(addr.ID, messageID, msg.WithSeen(seen))
	}

	c.mu.Lock()
	if c.selectedMessage != nil && c.selectedMessage.ID == messageID {
		updated := c.selectedMessage.WithSeen(seen)
		c.selectedMessage = &updated
	}
	if c.selectedComplete != nil && c.selectedComplete.ID == messageID {
		updated := c.selectedComplete.WithSeen(seen)
		c.selectedComplete = &updated
	}
	c.mu.Unlock()

	return nil
}

// DeleteMessage removes a message from the remote mailbox and, on
// success, from the cache. The cache removal matches by id at execution
// time, so a list that changed while the request was in flight cannot
// cause the wrong message to be dropped.
func (c *Controller) DeleteMessage(ctx context.Context, addr model.Address, messageID string) error {
	c.beginOp()

	if !addr.Authenticated() {
		return c.failOp(&mailtm.Error{Kind: mailtm.KindAuthRequired, Message: "address has no auth token"})
	}

	if err := c.client.DeleteMessage(ctx, messageID, addr.AuthToken); err != nil {
		return c.failOp(err)
	}

	c.cache.RemoveMessage(addr.ID, messageID)

	c.mu.Lock()
	if c.selectedMessage != nil && c.selectedMessage.ID == messageID {
		c.selectedMessage = nil
		c.selectedComplete = nil
	}
	c.mu.Unlock()

	return nil
}

// GetMessageSource fetches the raw RFC 822 source of a message.
func (c *Controller) GetMessageSource(ctx context.Context, addr model.Address, messageID string) ([]byte, error) {
	c.beginOp()

	if !addr.Authenticated() {
		return nil, c.failOp(&mailtm.Error{Kind: mailtm.KindAuthRequired, Message: "address has no auth token"})
	}

	src, err := c.client.GetMessageSource(ctx, messageID, addr.AuthToken)
	if err != nil {
		return nil, c.failOp(err)
	}
	return src, nil
}

// AvailableDomains returns the provider's currently active public domains,
// for picking the domain half of a new address.
func (c *Controller) AvailableDomains(ctx context.Context) ([]mailtm.Domain, error) {
	c.beginOp()

	domains, err := c.client.ListDomains(ctx, 1)
	if err != nil {
		return nil, c.failOp(err)
	}

	active := domains[:0]
	for _, d := range domains {
		if d.IsActive && !d.IsPrivate {
			active = append(active, d)
		}
	}
	return active, nil
}

// NewAddress registers a new account with the provider, authenticates it,
// and persists the resulting address.
func (c *Controller) NewAddress(ctx context.Context, name, localPart, domain, password string) (model.Address, error) {
	c.beginOp()

	email := localPart + "@" + domain

	acct, err := c.client.CreateAccount(ctx, email, password)
	if err != nil {
		return model.Address{}, c.failOp(err)
	}

	tok, err := c.client.Authenticate(ctx, email, password)
	if err != nil {
		return model.Address{}, c.failOp(err)
	}

	addr := model.Address{
		ID:         acct.ID,
		Name:       name,
		Email:      acct.Address,
		Password:   password,
		AuthToken:  tok.Token,
		QuotaBytes: acct.Quota,
		UsedBytes:  acct.Used,
		CreatedAt:  acct.CreatedAt,
	}

	if err := c.saveAddress(ctx, addr); err != nil {
		return model.Address{}, c.failOp(err)
	}

	if err := c.reloadAddressLists(ctx); err != nil {
		return addr, err
	}
	return addr, nil
}

// RefreshUsage re-reads the provider's account record and stores the
// reported quota and usage.
func (c *Controller) RefreshUsage(ctx context.Context, addr model.Address) error {
	c.beginOp()

	if !addr.Authenticated() {
		return c.failOp(&mailtm.Error{Kind: mailtm.KindAuthRequired, Message: "address has no auth token"})
	}

	acct, err := c.client.GetAccount(ctx, addr.ID, addr.AuthToken)
	if err != nil {
		return c.failOp(err)
	}

	if err := c.store.UpdateAddressUsage(ctx, addr.ID, acct.Quota, acct.Used); err != nil {
		return c.failOp(err)
	}

	return c.reloadAddressLists(ctx)
}

// UpdateAddressName relabels an address locally.
func (c *Controller) UpdateAddressName(ctx context.Context, id, name string) error {
	c.beginOp()

	if err := c.store.UpdateAddressName(ctx, id, name); err != nil {
		return c.failOp(err)
	}
	return c.reloadAddressLists(ctx)
}

// ArchiveAddress deactivates an address locally. No remote call is made;
// the account keeps existing with the provider and can be restored later.
func (c *Controller) ArchiveAddress(ctx context.Context, addr model.Address) error {
	c.beginOp()

	if err := c.store.SetAddressArchived(ctx, addr.ID, true); err != nil {
		return c.failOp(err)
	}
	return c.reloadAddressLists(ctx)
}

// RestoreAddress reactivates an archived address. Tokens can expire while
// archived, so restoring re-authenticates against the provider before
// flipping the flag back.
func (c *Controller) RestoreAddress(ctx context.Context, addr model.Address) error {
	c.beginOp()

	tok, err := c.client.Authenticate(ctx, addr.Email, addr.Password)
	if err != nil {
		return c.failOp(err)
	}

	if err := c.storeToken(ctx, addr.ID, tok.Token); err != nil {
		return c.failOp(err)
	}
	if err := c.store.SetAddressArchived(ctx, addr.ID, false); err != nil {
		return c.failOp(err)
	}
	return c.reloadAddressLists(ctx)
}

// ToggleAddressStatus archives an active address or restores an archived
// one.
func (c *Controller) ToggleAddressStatus(ctx context.Context, addr model.Address) error {
	if addr.Archived {
		return c.RestoreAddress(ctx, addr)
	}
	return c.ArchiveAddress(ctx, addr)
}

// DeleteAddress removes an address. The remote account deletion is best
// effort: whatever its outcome, the local record is hard-deleted. Local
// state is the durable source of truth for the user-visible list; a
// remote failure (already deleted, expired token) must not strand a
// record the user asked to remove.
func (c *Controller) DeleteAddress(ctx context.Context, addr model.Address) error {
	c.beginOp()

	if err := c.store.SoftDeleteAddress(ctx, addr.ID); err != nil {
		return c.failOp(err)
	}

	if addr.Authenticated() {
		if err := c.client.DeleteAccount(ctx, addr.ID, addr.AuthToken); err != nil {
			c.log.WithError(err).WithField("address", addr.Email).
				Warn("Remote account deletion failed; removing local record anyway")
		}
	}

	if err := c.store.HardDeleteAddress(ctx, addr.ID); err != nil {
		return c.failOp(err)
	}

	if c.vault != nil {
		if err := c.vault.Delete(addr.ID); err != nil {
			c.log.WithError(err).WithField("address", addr.Email).
				Warn("Removing vault credentials failed")
		}
	}

	c.cache.Remove(addr.ID)

	c.mu.Lock()
	if c.selectedAddress != nil && c.selectedAddress.ID == addr.ID {
		c.selectedAddress = nil
		c.selectedMessage = nil
		c.selectedComplete = nil
	}
	c.mu.Unlock()

	return c.reloadAddressLists(ctx)
}

// reloadAddressLists re-queries both address lists, hydrates credentials
// from the vault, and publishes a change notification.
func (c *Controller) reloadAddressLists(ctx context.Context) error {
	active, err := c.store.GetActiveAddresses(ctx)
	if err != nil {
		return fmt.Errorf("loading active addresses: %w", err)
	}
	archived, err := c.store.GetArchivedAddresses(ctx)
	if err != nil {
		return fmt.Errorf("loading archived addresses: %w", err)
	}

	c.hydrateCredentials(active)
	c.hydrateCredentials(archived)

	c.mu.Lock()
	c.active = active
	c.archived = archived
	c.mu.Unlock()

	c.cache.Publish(inbox.Event{Kind: inbox.EventAddressList})
	return nil
}

// hydrateCredentials fills passwords and tokens from the vault. Vault
// read failures are logged and skipped; they never abort a list refresh.
func (c *Controller) hydrateCredentials(addrs []model.Address) {
	if c.vault == nil {
		return
	}
	for i := range addrs {
		pw, err := c.vault.Password(addrs[i].ID)
		if err != nil {
			c.log.WithError(err).WithField("address", addrs[i].Email).
				Warn("Reading password from vault failed")
		} else if pw != "" {
			addrs[i].Password = pw
		}

		tok, err := c.vault.Token(addrs[i].ID)
		if err != nil {
			c.log.WithError(err).WithField("address", addrs[i].Email).
				Warn("Reading token from vault failed")
		} else if tok != "" {
			addrs[i].AuthToken = tok
		}
	}
}

// saveAddress persists a new address. With a vault configured, the
// password and token go to the vault and the stored row carries neither.
func (c *Controller) saveAddress(ctx context.Context, addr model.Address) error {
	if c.vault != nil {
		if err := c.vault.SetPassword(addr.ID, addr.Password); err != nil {
			return fmt.Errorf("storing password in vault: %w", err)
		}
		if err := c.vault.SetToken(addr.ID, addr.AuthToken); err != nil {
			return fmt.Errorf("storing token in vault: %w", err)
		}
		addr.Password = ""
		addr.AuthToken = ""
	}
	return c.store.CreateAddress(ctx, addr)
}

// storeToken records a fresh bearer token, in the vault when configured.
func (c *Controller) storeToken(ctx context.Context, addressID, token string) error {
	if c.vault != nil {
		return c.vault.SetToken(addressID, token)
	}
	return c.store.UpdateAddressToken(ctx, addressID, token)
}

// RandomLocalPart returns a random mailbox local part for new addresses.
func RandomLocalPart() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
