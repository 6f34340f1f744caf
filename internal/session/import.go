package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/rishi-singh26/tempbox/internal/model"
)

// ImportAddresses logs in a batch of candidate credentials (typically
// decoded from an export document) and persists each success as a new
// local address with a fresh token. Candidates already present locally
// (matched by id) are skipped. Authentication runs concurrently; no
// failure aborts the batch. The returned map holds one entry per failed
// candidate, keyed by address id.
func (c *Controller) ImportAddresses(ctx context.Context, candidates []model.Address) (map[string]string, error) {
	c.beginOp()

	var pending []model.Address
	for _, cand := range candidates {
		exists, err := c.store.AddressExists(ctx, cand.ID)
		if err != nil {
			return nil, c.failOp(fmt.Errorf("checking existing address %s: %w", cand.ID, err))
		}
		if !exists {
			pending = append(pending, cand)
		}
	}

	failures := make(map[string]string)
	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		succeeded []model.Address
	)

	for _, cand := range pending {
		wg.Add(1)
		go func(cand model.Address) {
			defer wg.Done()

			tok, err := c.client.Authenticate(ctx, cand.Email, cand.Password)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures[cand.ID] = err.Error()
				return
			}
			cand.AuthToken = tok.Token
			succeeded = append(succeeded, cand)
		}(cand)
	}
	wg.Wait()

	// The store assumes a single writer; persist sequentially.
	for _, addr := range succeeded {
		if err := c.saveAddress(ctx, addr); err != nil {
			c.log.WithError(err).WithField("address", addr.Email).
				Warn("Persisting imported address failed")
			failures[addr.ID] = err.Error()
		}
	}

	if err := c.reloadAddressLists(ctx); err != nil {
		return failures, err
	}
	return failures, nil
}
