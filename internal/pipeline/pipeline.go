package pipeline

import (
	"context"
	"fmt"

	"github.com/chatbook/smsbridge/internal/aggregate"
	"github.com/chatbook/smsbridge/internal/contacts"
	"github.com/chatbook/smsbridge/internal/models"
	"github.com/chatbook/smsbridge/internal/smsdb"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// MessageLister is the slice of the database store the loader needs.
type MessageLister interface {
	List(ctx context.Context, f smsdb.Filter) ([]models.RawMessage, error)
}

// Options controls a conversation load.
type Options struct {
	Country      string
	MaxCount     int
	ContactsPath string
}

// Load fetches the inbox and sent boxes in parallel, merges them into
// conversations, and resolves contact names. Either box failing to read
// fails the load; a missing contacts file only costs the names.
func Load(ctx context.Context, src MessageLister, opts Options, log zerolog.Logger) ([]*models.Conversation, error) {
	var inbox, sent []models.RawMessage

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		inbox, err = src.List(gctx, smsdb.Filter{Box: models.BoxInbox, MaxCount: opts.MaxCount})
		if err != nil {
			return fmt.Errorf("read inbox: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		sent, err = src.List(gctx, smsdb.Filter{Box: models.BoxSent, MaxCount: opts.MaxCount})
		if err != nil {
			return fmt.Errorf("read sent: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Debug().Int("inbox", len(inbox)).Int("sent", len(sent)).Msg("fetched message boxes")

	agg := aggregate.New(opts.Country, log)
	convs := agg.Aggregate(inbox, sent)

	resolver := contacts.NewResolver(opts.Country, log)
	nameMap := map[string]string{}
	if opts.ContactsPath != "" {
		raw, err := contacts.LoadFile(opts.ContactsPath)
		if err != nil {
			log.Warn().Err(err).Str("path", opts.ContactsPath).Msg("contacts file unavailable, numbers shown raw")
		} else {
			nameMap = resolver.BuildMap(raw)
		}
	}
	resolver.ResolveNames(convs, nameMap)

	return convs, nil
}
