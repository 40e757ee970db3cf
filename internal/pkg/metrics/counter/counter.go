package counter

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tenantfox/tenantfox/internal/pkg/cache"
	"github.com/tenantfox/tenantfox/internal/pkg/database"
)

const (
	checkoutStartsKey   = "funnel:counters:checkout_starts"
	paymentRedirectsKey = "funnel:counters:payment_redirects"
)

// AddCheckoutStart increments the pending checkout-start counter for an
// organization in Redis
func AddCheckoutStart(orgID string) error {
	ctx := context.Background()
	return cache.GetClient().HIncrBy(ctx, checkoutStartsKey, orgID, 1).Err()
}

// AddPaymentRedirect increments the pending payment-redirect counter for an
// organization in Redis
func AddPaymentRedirect(orgID string) error {
	ctx := context.Background()
	return cache.GetClient().HIncrBy(ctx, paymentRedirectsKey, orgID, 1).Err()
}

// Funnel adapts the package counters to the gate middleware's recorder
// interface; counter errors are logged, never surfaced into gating.
type Funnel struct{}

func (Funnel) AddPaymentRedirect(orgID string) {
	if err := AddPaymentRedirect(orgID); err != nil {
		log.Printf("counter: payment redirect increment failed: %v", err)
	}
}

func (Funnel) AddCheckoutStart(orgID string) {
	if err := AddCheckoutStart(orgID); err != nil {
		log.Printf("counter: checkout start increment failed: %v", err)
	}
}

// FlushAll flushes both funnel counters to the organizations table
func FlushAll() error {
	if err := flushHashToOrganizations(checkoutStartsKey, "checkout_start_count"); err != nil {
		return err
	}
	return flushHashToOrganizations(paymentRedirectsKey, "payment_redirect_count")
}

// StartFlusher periodically drains the Redis counters into MySQL until the
// context is canceled.
func StartFlusher(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := FlushAll(); err != nil {
					log.Printf("counter: flush failed: %v", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// flushHashToOrganizations drains a Redis hash atomically and applies batched
// increments to the given organizations column. Uses RENAME to a temporary
// key for atomic drain without losing in-flight increments.
func flushHashToOrganizations(key, column string) error {
	ctx := context.Background()
	client := cache.GetClient()

	tmpKey := key + ":flush:" + strconv.FormatInt(time.Now().UnixNano(), 10)
	if err := client.Rename(ctx, key, tmpKey).Err(); err != nil {
		// Nothing to flush when the key does not exist.
		if strings.Contains(err.Error(), "no such key") {
			return nil
		}
		return err
	}
	defer client.Del(ctx, tmpKey)

	counts, err := client.HGetAll(ctx, tmpKey).Result()
	if err != nil {
		return err
	}
	if len(counts) == 0 {
		return nil
	}

	orgIDs := make([]string, 0, len(counts))
	for orgID := range counts {
		orgIDs = append(orgIDs, orgID)
	}
	sort.Strings(orgIDs)

	db := database.GetDB()
	if db == nil {
		return fmt.Errorf("counter: database not initialized")
	}

	var sb strings.Builder
	args := make([]interface{}, 0, 2*len(orgIDs)+len(orgIDs))
	sb.WriteString("UPDATE organizations SET " + column + " = " + column + " + CASE id")
	for _, orgID := range orgIDs {
		sb.WriteString(" WHEN ? THEN ?")
		delta, convErr := strconv.ParseInt(counts[orgID], 10, 64)
		if convErr != nil {
			delta = 0
		}
		args = append(args, orgID, delta)
	}
	sb.WriteString(" ELSE 0 END WHERE id IN (?")
	sb.WriteString(strings.Repeat(",?", len(orgIDs)-1))
	sb.WriteString(")")
	for _, orgID := range orgIDs {
		args = append(args, orgID)
	}

	return db.Exec(sb.String(), args...).Error
}
