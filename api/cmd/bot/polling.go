package main

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"net"
	"time"

	"github.com/apex/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type updatesGetter interface {
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
}

const (
	pollBaseDelay = 1 * time.Second
	pollMaxDelay  = 15 * time.Second
)

// pollBackoff picks the wait before the next getUpdates after failures
// consecutive errors. Telegram's retry_after always wins.
func pollBackoff(err error, failures int) time.Duration {
	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) && tgErr.RetryAfter > 0 {
		return time.Duration(tgErr.RetryAfter) * time.Second
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return 2 * time.Second
	}
	d := pollBaseDelay << min(max(failures-1, 0), 4)
	return min(d, pollMaxDelay)
}

// runPolling long-polls until ctx ends, backing off on errors instead of exiting.
func runPolling(ctx context.Context, bot updatesGetter, handle func(tgbotapi.Update)) {
	offset, failures := 0, 0

	for {
		select {
		case <-ctx.Done():
			log.Info("polling: context cancelled")
			return
		default:
		}

		u := tgbotapi.NewUpdate(offset)
		u.Timeout = 30

		updates, err := bot.GetUpdates(u)
		if err != nil {
			failures++
			d := pollBackoff(err, failures)
			log.WithError(err).WithField("failures", failures).Warnf("polling error; retry in %v", d)
			if !sleep(ctx, d) {
				return
			}
			continue
		}
		failures = 0

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			handle(upd)
		}

		if len(updates) == 0 && !sleep(ctx, 200*time.Millisecond) {
			return
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// webhookPath derives a stable, unguessable path from the bot token.
func webhookPath(token string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(token))
	return fmt.Sprintf("/webhook/%016x", h.Sum64())
}
