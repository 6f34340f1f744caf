package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/rishi-singh26/tempbox/internal/inbox"
	"github.com/rishi-singh26/tempbox/internal/mailtm"
	"github.com/rishi-singh26/tempbox/internal/model"
	"github.com/rishi-singh26/tempbox/internal/store"
	"github.com/rishi-singh26/tempbox/tests/testutil"
)

// fakeProvider is an in-process stand-in for the mail.tm API. Tokens are
// "tok-<accountID>-<n>" where n increments per authentication, so tests
// can observe re-authentication.
type fakeProvider struct {
	mu sync.Mutex

	passwords map[string]string          // email -> password
	ids       map[string]string          // email -> account id
	messages  map[string][]model.Message // account id -> summaries

	listStatus          map[string]int // account id -> forced status
	getMessageStatus    int
	patchStatus         int
	deleteMessageStatus int
	deleteAccountStatus int

	authCalls       int
	listCalls       map[string]int
	deletedAccounts []string
	seenPatches     []string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		passwords:  make(map[string]string),
		ids:        make(map[string]string),
		messages:   make(map[string][]model.Message),
		listStatus: make(map[string]int),
		listCalls:  make(map[string]int),
	}
}

func (f *fakeProvider) addAccount(id, email, password string, msgs ...model.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.passwords[email] = password
	f.ids[email] = id
	f.messages[id] = msgs
}

// token returns a bearer token as issued on the first authentication.
func (f *fakeProvider) token(accountID string) string {
	return fmt.Sprintf("tok-%s-0", accountID)
}

func (f *fakeProvider) accountFromToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return "", false
	}
	parts := strings.Split(token, "-")
	if len(parts) != 3 || parts[0] != "tok" {
		return "", false
	}
	id := parts[1]
	for _, known := range f.ids {
		if known == id {
			return id, true
		}
	}
	return "", false
}

func (f *fakeProvider) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /domains", func(w http.ResponseWriter, r *http.Request) {
		domains := []mailtm.Domain{
			{ID: "d1", Domain: "example.com", IsActive: true},
			{ID: "d2", Domain: "private.example", IsActive: true, IsPrivate: true},
			{ID: "d3", Domain: "retired.example", IsActive: false},
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"hydra:member":     domains,
			"hydra:totalItems": len(domains),
		})
	})

	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Address  string `json:"address"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		f.mu.Lock()
		defer f.mu.Unlock()

		pw, ok := f.passwords[body.Address]
		if !ok || pw != body.Password {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"message":"Invalid credentials."}`)
			return
		}

		id := f.ids[body.Address]
		_ = json.NewEncoder(w).Encode(map[string]string{
			"id":    id,
			"token": fmt.Sprintf("tok-%s-%d", id, f.authCalls),
		})
		f.authCalls++
	})

	mux.HandleFunc("GET /messages", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		id, ok := f.accountFromTokenLocked(r)
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		f.listCalls[id]++

		if status := f.listStatus[id]; status != 0 {
			w.WriteHeader(status)
			return
		}

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"hydra:member":     f.messages[id],
			"hydra:totalItems": len(f.messages[id]),
		})
	})

	mux.HandleFunc("GET /messages/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		if f.getMessageStatus != 0 {
			w.WriteHeader(f.getMessageStatus)
			return
		}

		msg, ok := f.findMessageLocked(r.PathValue("id"))
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		complete := msg
		complete.Text = "full body text"
		complete.HTML = []string{"<p>full body text</p>"}
		_ = json.NewEncoder(w).Encode(complete)
	})

	mux.HandleFunc("PATCH /messages/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		if f.patchStatus != 0 {
			w.WriteHeader(f.patchStatus)
			return
		}

		var patch struct {
			Seen bool `json:"seen"`
		}
		_ = json.NewDecoder(r.Body).Decode(&patch)

		msgID := r.PathValue("id")
		f.seenPatches = append(f.seenPatches, msgID)
		for accID, msgs := range f.messages {
			for i := range msgs {
				if msgs[i].ID == msgID {
					f.messages[accID][i].Seen = patch.Seen
				}
			}
		}
		fmt.Fprintf(w, `{"seen":%t}`, patch.Seen)
	})

	mux.HandleFunc("DELETE /messages/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		if f.deleteMessageStatus != 0 {
			w.WriteHeader(f.deleteMessageStatus)
			return
		}

		msgID := r.PathValue("id")
		for accID, msgs := range f.messages {
			kept := msgs[:0]
			for _, m := range msgs {
				if m.ID != msgID {
					kept = append(kept, m)
				}
			}
			f.messages[accID] = kept
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("DELETE /accounts/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		f.deletedAccounts = append(f.deletedAccounts, r.PathValue("id"))
		if f.deleteAccountStatus != 0 {
			w.WriteHeader(f.deleteAccountStatus)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("POST /accounts", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Address  string `json:"address"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		f.mu.Lock()
		defer f.mu.Unlock()

		id := "new-" + strings.SplitN(body.Address, "@", 2)[0]
		f.passwords[body.Address] = body.Password
		f.ids[body.Address] = id

		_ = json.NewEncoder(w).Encode(mailtm.Account{
			ID:        id,
			Address:   body.Address,
			Quota:     40000000,
			CreatedAt: time.Now().UTC(),
		})
	})

	return mux
}

// accountFromTokenLocked expects f.mu held.
func (f *fakeProvider) accountFromTokenLocked(r *http.Request) (string, bool) {
	return f.accountFromToken(r)
}

// findMessageLocked expects f.mu held.
func (f *fakeProvider) findMessageLocked(id string) (model.Message, bool) {
	for _, msgs := range f.messages {
		for _, m := range msgs {
			if m.ID == id {
				return m, true
			}
		}
	}
	return model.Message{}, false
}

func (f *fakeProvider) listCallCount(accountID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls[accountID]
}

func (f *fakeProvider) setListStatus(accountID string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listStatus[accountID] = status
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestController(t *testing.T, f *fakeProvider) (*Controller, *store.SQLiteStore, *inbox.Cache) {
	t.Helper()

	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	db := testutil.NewTestStore(t)
	cache := inbox.NewCache()
	client := mailtm.NewClient(srv.URL, 5*time.Second, quietLogger())

	return New(db, client, cache, nil, quietLogger()), db, cache
}

func seedAddress(t *testing.T, db *store.SQLiteStore, f *fakeProvider, id string, withToken bool, msgs ...model.Message) model.Address {
	t.Helper()

	email := id + "@example.com"
	f.addAccount(id, email, "secret", msgs...)

	addr := model.Address{ID: id, Email: email, Password: "secret"}
	if withToken {
		addr.AuthToken = f.token(id)
	}
	require.NoError(t, db.CreateAddress(context.Background(), addr))
	return addr
}

func TestFetchAddressesFanOut(t *testing.T) {
	f := newFakeProvider()
	c, db, cache := newTestController(t, f)
	ctx := context.Background()

	seedAddress(t, db, f, "A", true,
		model.Message{ID: "a1", Subject: "hello", Seen: false},
		model.Message{ID: "a2", Subject: "again", Seen: true},
	)
	seedAddress(t, db, f, "B", false,
		model.Message{ID: "b1", Subject: "unreachable"},
	)
	seedAddress(t, db, f, "C", true)
	f.setListStatus("C", http.StatusInternalServerError)

	require.NoError(t, c.FetchAddresses(ctx))
	require.False(t, c.Loading())

	// A: messages populated, no error.
	storeA, ok := cache.Get("A")
	require.True(t, ok)
	require.False(t, storeA.Fetching)
	require.Empty(t, storeA.Error)
	require.Len(t, storeA.Messages, 2)
	require.Equal(t, 1, storeA.UnreadCount())

	// B: no token, never fetched, cache untouched.
	_, ok = cache.Get("B")
	require.False(t, ok)
	require.Equal(t, 0, f.listCallCount("B"))

	// C: failed with a server error, no messages.
	storeC, ok := cache.Get("C")
	require.True(t, ok)
	require.Contains(t, storeC.Error, "server error")
	require.Empty(t, storeC.Messages)

	active, archived := c.Addresses()
	require.Len(t, active, 3)
	require.Empty(t, archived)
}

func TestFetchMessagesWithoutTokenIsRejectedLocally(t *testing.T) {
	f := newFakeProvider()
	c, db, cache := newTestController(t, f)

	addr := seedAddress(t, db, f, "A", false)

	err := c.FetchMessages(context.Background(), addr)
	require.True(t, mailtm.IsAuthError(err))

	_, ok := cache.Get("A")
	require.False(t, ok)
	require.Equal(t, 0, f.listCallCount("A"))
}

func TestFetchFailurePreservesPreviousMessages(t *testing.T) {
	f := newFakeProvider()
	c, db, cache := newTestController(t, f)
	ctx := context.Background()

	addr := seedAddress(t, db, f, "A", true,
		model.Message{ID: "a1", Subject: "keep me"},
	)

	require.NoError(t, c.FetchMessages(ctx, addr))

	before, _ := cache.Get("A")
	require.Len(t, before.Messages, 1)
	require.Empty(t, before.Error)

	f.setListStatus("A", http.StatusInternalServerError)
	require.Error(t, c.FetchMessages(ctx, addr))

	after, _ := cache.Get("A")
	require.Len(t, after.Messages, 1)
	require.Equal(t, "keep me", after.Messages[0].Subject)
	require.NotEmpty(t, after.Error)
	require.False(t, after.Fetching)
}

func TestFetchRecoveryClearsError(t *testing.T) {
	f := newFakeProvider()
	c, db, cache := newTestController(t, f)
	ctx := context.Background()

	addr := seedAddress(t, db, f, "A", true, model.Message{ID: "a1"})

	f.setListStatus("A", http.StatusInternalServerError)
	require.Error(t, c.FetchMessages(ctx, addr))

	f.setListStatus("A", 0)
	require.NoError(t, c.FetchMessages(ctx, addr))

	slot, _ := cache.Get("A")
	require.Empty(t, slot.Error)
	require.Len(t, slot.Messages, 1)
}

func TestStaleFetchResultDiscarded(t *testing.T) {
	f := newFakeProvider()
	c, db, cache := newTestController(t, f)

	addr := seedAddress(t, db, f, "A", true, model.Message{ID: "a1"})

	c.mu.Lock()
	c.generation = 7
	c.mu.Unlock()

	// A fetch carrying an outdated generation must not touch the cache
	// or the network.
	require.NoError(t, c.fetchInto(context.Background(), 6, addr))

	_, ok := cache.Get("A")
	require.False(t, ok)
	require.Equal(t, 0, f.listCallCount("A"))
}

func TestUpdateMessageSeenStatus(t *testing.T) {
	f := newFakeProvider()
	c, db, cache := newTestController(t, f)
	ctx := context.Background()

	addr := seedAddress(t, db, f, "A", true,
		model.Message{ID: "a1", Subject: "subject stays", Intro: "intro stays", Seen: false, Size: 77},
	)
	require.NoError(t, c.FetchMessages(ctx, addr))

	require.NoError(t, c.UpdateMessageSeenStatus(ctx, addr, "a1", true))

	msg, ok := cache.Message("A", "a1")
	require.True(t, ok)
	require.True(t, msg.Seen)
	require.Equal(t, "subject stays", msg.Subject)
	require.Equal(t, "intro stays", msg.Intro)
	require.Equal(t, int64(77), msg.Size)

	// Toggling an already-seen message is a no-op on every other field.
	require.NoError(t, c.UpdateMessageSeenStatus(ctx, addr, "a1", true))
	again, _ := cache.Message("A", "a1")
	require.Equal(t, msg, again)
	require.Empty(t, c.LastMessage())
}

func TestSeenToggleFailureLeavesCacheUntouched(t *testing.T) {
	f := newFakeProvider()
	c, db, cache := newTestController(t, f)
	ctx := context.Background()

	addr := seedAddress(t, db, f, "A", true, model.Message{ID: "a1", Seen: false})
	require.NoError(t, c.FetchMessages(ctx, addr))

	f.mu.Lock()
	f.patchStatus = http.StatusInternalServerError
	f.mu.Unlock()

	err := c.UpdateMessageSeenStatus(ctx, addr, "a1", true)
	require.Error(t, err)
	require.NotEmpty(t, c.LastMessage())

	msg, _ := cache.Message("A", "a1")
	require.False(t, msg.Seen, "no optimistic update on failure")
}

func TestSeenToggleWithoutTokenMakesNoNetworkCall(t *testing.T) {
	f := newFakeProvider()
	c, db, _ := newTestController(t, f)

	addr := seedAddress(t, db, f, "A", false)

	err := c.UpdateMessageSeenStatus(context.Background(), addr, "a1", true)
	require.True(t, mailtm.IsAuthError(err))

	f.mu.Lock()
	defer f.mu.Unlock()
	require.Empty(t, f.seenPatches)
}

func TestDeleteMessageRemovesFromCacheByID(t *testing.T) {
	f := newFakeProvider()
	c, db, cache := newTestController(t, f)
	ctx := context.Background()

	addr := seedAddress(t, db, f, "A", true,
		model.Message{ID: "a1"},
		model.Message{ID: "a2"},
	)
	require.NoError(t, c.FetchMessages(ctx, addr))

	require.NoError(t, c.DeleteMessage(ctx, addr, "a1"))

	slot, _ := cache.Get("A")
	require.Len(t, slot.Messages, 1)
	require.Equal(t, "a2", slot.Messages[0].ID)
}

func TestDeleteMessageFailureKeepsCache(t *testing.T) {
	f := newFakeProvider()
	c, db, cache := newTestController(t, f)
	ctx := context.Background()

	addr := seedAddress(t, db, f, "A", true, model.Message{ID: "a1"})
	require.NoError(t, c.FetchMessages(ctx, addr))

	f.mu.Lock()
	f.deleteMessageStatus = http.StatusInternalServerError
	f.mu.Unlock()

	require.Error(t, c.DeleteMessage(ctx, addr, "a1"))

	slot, _ := cache.Get("A")
	require.Len(t, slot.Messages, 1)
	require.NotEmpty(t, c.LastMessage())
}

// TestDeleteAddressRemoteFailureStillRemovesLocal pins the deliberate
// local-authoritative policy: the local record is removed even when the
// remote deletion fails, e.g. with an expired token.
func TestDeleteAddressRemoteFailureStillRemovesLocal(t *testing.T) {
	f := newFakeProvider()
	c, db, cache := newTestController(t, f)
	ctx := context.Background()

	addr := seedAddress(t, db, f, "A", true, model.Message{ID: "a1"})
	require.NoError(t, c.FetchMessages(ctx, addr))

	f.mu.Lock()
	f.deleteAccountStatus = http.StatusUnauthorized
	f.mu.Unlock()

	require.NoError(t, c.DeleteAddress(ctx, addr))

	// The remote attempt was made.
	f.mu.Lock()
	require.Equal(t, []string{"A"}, f.deletedAccounts)
	f.mu.Unlock()

	// The local record and cache slot are gone.
	exists, err := db.AddressExists(ctx, "A")
	require.NoError(t, err)
	require.False(t, exists)

	_, ok := cache.Get("A")
	require.False(t, ok)
}

func TestDeleteAddressWithoutTokenSkipsRemote(t *testing.T) {
	f := newFakeProvider()
	c, db, _ := newTestController(t, f)
	ctx := context.Background()

	addr := seedAddress(t, db, f, "A", false)

	require.NoError(t, c.DeleteAddress(ctx, addr))

	f.mu.Lock()
	require.Empty(t, f.deletedAccounts)
	f.mu.Unlock()

	exists, err := db.AddressExists(ctx, "A")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestArchiveDoesNotContactRemote(t *testing.T) {
	f := newFakeProvider()
	c, db, _ := newTestController(t, f)
	ctx := context.Background()

	addr := seedAddress(t, db, f, "A", true)

	require.NoError(t, c.ArchiveAddress(ctx, addr))

	f.mu.Lock()
	require.Zero(t, f.authCalls)
	f.mu.Unlock()

	active, archived := c.Addresses()
	require.Empty(t, active)
	require.Len(t, archived, 1)
}

func TestRestoreReauthenticatesForFreshToken(t *testing.T) {
	f := newFakeProvider()
	c, db, _ := newTestController(t, f)
	ctx := context.Background()

	addr := seedAddress(t, db, f, "A", true)
	require.NoError(t, c.ArchiveAddress(ctx, addr))

	// Authenticate once for another account so the next token differs
	// from the stored "tok-A-0".
	f.mu.Lock()
	f.authCalls = 3
	f.mu.Unlock()

	require.NoError(t, c.RestoreAddress(ctx, addr))

	got, err := db.GetAddressByID(ctx, "A")
	require.NoError(t, err)
	require.False(t, got.Archived)
	require.Equal(t, "tok-A-3", got.AuthToken)
}

func TestToggleAddressStatusRoundTrip(t *testing.T) {
	f := newFakeProvider()
	c, db, _ := newTestController(t, f)
	ctx := context.Background()

	addr := seedAddress(t, db, f, "A", true)

	require.NoError(t, c.ToggleAddressStatus(ctx, addr))
	_, archived := c.Addresses()
	require.Len(t, archived, 1)

	require.NoError(t, c.ToggleAddressStatus(ctx, archived[0]))
	active, archived := c.Addresses()
	require.Len(t, active, 1)
	require.Empty(t, archived)
}

func TestAvailableDomainsFiltersInactiveAndPrivate(t *testing.T) {
	f := newFakeProvider()
	c, _, _ := newTestController(t, f)

	domains, err := c.AvailableDomains(context.Background())
	require.NoError(t, err)
	require.Len(t, domains, 1)
	require.Equal(t, "example.com", domains[0].Domain)
}

func TestNewAddressCreatesAuthenticatesAndPersists(t *testing.T) {
	f := newFakeProvider()
	c, db, _ := newTestController(t, f)
	ctx := context.Background()

	addr, err := c.NewAddress(ctx, "Shopping", "box7", "example.com", "pw123")
	require.NoError(t, err)
	require.Equal(t, "box7@example.com", addr.Email)
	require.True(t, addr.Authenticated())

	got, err := db.GetAddressByID(ctx, addr.ID)
	require.NoError(t, err)
	require.Equal(t, "Shopping", got.Name)
	require.NotEmpty(t, got.AuthToken)

	active, _ := c.Addresses()
	require.Len(t, active, 1)
}

func TestSelectionLoadsCompleteMessageAndFlipsSeen(t *testing.T) {
	f := newFakeProvider()
	c, db, cache := newTestController(t, f)
	ctx := context.Background()

	addr := seedAddress(t, db, f, "A", true,
		model.Message{ID: "a1", Subject: "hello", Seen: false},
	)
	require.NoError(t, c.FetchMessages(ctx, addr))

	c.SelectAddress(&addr)
	msg, _ := cache.Message("A", "a1")
	c.SelectMessage(ctx, &msg)

	require.Eventually(t, func() bool {
		complete := c.SelectedCompleteMessage()
		return complete != nil && complete.Text == "full body text"
	}, 2*time.Second, 10*time.Millisecond, "complete message should arrive")

	require.Eventually(t, func() bool {
		cached, _ := cache.Message("A", "a1")
		return cached.Seen
	}, 2*time.Second, 10*time.Millisecond, "cached summary seen flag should flip")

	selected := c.SelectedMessage()
	require.NotNil(t, selected)
	require.True(t, selected.Seen)
}

func TestSeenFlipSurvivesCompleteFetchFailure(t *testing.T) {
	f := newFakeProvider()
	c, db, cache := newTestController(t, f)
	ctx := context.Background()

	addr := seedAddress(t, db, f, "A", true,
		model.Message{ID: "a1", Seen: false},
	)
	require.NoError(t, c.FetchMessages(ctx, addr))

	f.mu.Lock()
	f.getMessageStatus = http.StatusInternalServerError
	f.mu.Unlock()

	c.SelectAddress(&addr)
	msg, _ := cache.Message("A", "a1")
	c.SelectMessage(ctx, &msg)

	require.Eventually(t, func() bool {
		cached, _ := cache.Message("A", "a1")
		return cached.Seen
	}, 2*time.Second, 10*time.Millisecond)

	require.Nil(t, c.SelectedCompleteMessage())
}

func TestSelectAddressClearsMessageSelection(t *testing.T) {
	f := newFakeProvider()
	c, db, cache := newTestController(t, f)
	ctx := context.Background()

	addr := seedAddress(t, db, f, "A", true,
		model.Message{ID: "a1", Seen: true},
	)
	require.NoError(t, c.FetchMessages(ctx, addr))

	c.SelectAddress(&addr)
	msg, _ := cache.Message("A", "a1")
	c.SelectMessage(ctx, &msg)
	require.NotNil(t, c.SelectedMessage())

	c.SelectAddress(nil)
	require.Nil(t, c.SelectedAddress())
	require.Nil(t, c.SelectedMessage())
	require.Nil(t, c.SelectedCompleteMessage())
}

func TestSelectMessageAlreadySeenSkipsSeenUpdate(t *testing.T) {
	f := newFakeProvider()
	c, db, cache := newTestController(t, f)
	ctx := context.Background()

	addr := seedAddress(t, db, f, "A", true,
		model.Message{ID: "a1", Seen: true},
	)
	require.NoError(t, c.FetchMessages(ctx, addr))

	c.SelectAddress(&addr)
	msg, _ := cache.Message("A", "a1")
	c.SelectMessage(ctx, &msg)

	require.Eventually(t, func() bool {
		return c.SelectedCompleteMessage() != nil
	}, 2*time.Second, 10*time.Millisecond)

	f.mu.Lock()
	defer f.mu.Unlock()
	require.Empty(t, f.seenPatches)
}

func TestImportPartialFailure(t *testing.T) {
	f := newFakeProvider()
	c, db, _ := newTestController(t, f)
	ctx := context.Background()

	f.addAccount("imp1", "one@example.com", "pw1")
	f.addAccount("imp2", "two@example.com", "pw2")
	f.addAccount("imp3", "three@example.com", "pw3")

	candidates := []model.Address{
		{ID: "imp1", Email: "one@example.com", Password: "pw1"},
		{ID: "imp2", Email: "two@example.com", Password: "wrong"},
		{ID: "imp3", Email: "three@example.com", Password: "pw3"},
	}

	failures, err := c.ImportAddresses(ctx, candidates)
	require.NoError(t, err)

	require.Len(t, failures, 1)
	require.Contains(t, failures, "imp2")
	require.Contains(t, failures["imp2"], "authentication required")

	for _, id := range []string{"imp1", "imp3"} {
		got, err := db.GetAddressByID(ctx, id)
		require.NoError(t, err)
		require.True(t, got.Authenticated(), "imported address %s should carry a fresh token", id)
	}

	exists, err := db.AddressExists(ctx, "imp2")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestImportSkipsExistingAddresses(t *testing.T) {
	f := newFakeProvider()
	c, db, _ := newTestController(t, f)
	ctx := context.Background()

	seedAddress(t, db, f, "A", true)

	failures, err := c.ImportAddresses(ctx, []model.Address{
		{ID: "A", Email: "A@example.com", Password: "wrong-but-skipped"},
	})
	require.NoError(t, err)
	require.Empty(t, failures)

	f.mu.Lock()
	require.Zero(t, f.authCalls)
	f.mu.Unlock()
}

func TestRefreshUsageStoresProviderNumbers(t *testing.T) {
	f := newFakeProvider()
	c, db, _ := newTestController(t, f)
	ctx := context.Background()

	// GetAccount is not part of the fake mux; use a dedicated handler.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/accounts/A", r.URL.Path)
		_ = json.NewEncoder(w).Encode(mailtm.Account{ID: "A", Quota: 1000000, Used: 250000})
	}))
	defer srv.Close()

	c.client = mailtm.NewClient(srv.URL, 5*time.Second, quietLogger())

	addr := seedAddress(t, db, f, "A", true)
	require.NoError(t, c.RefreshUsage(ctx, addr))

	got, err := db.GetAddressByID(ctx, "A")
	require.NoError(t, err)
	require.InDelta(t, 25.0, got.UsagePercent(), 1e-9)
}

func TestRandomLocalPart(t *testing.T) {
	a := RandomLocalPart()
	b := RandomLocalPart()
	require.Len(t, a, 12)
	require.NotEqual(t, a, b)
}
