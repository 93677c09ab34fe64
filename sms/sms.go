// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package sms

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/now-showing/board"
	"github.com/danielhkuo/now-showing/checkin"
	"github.com/danielhkuo/now-showing/clock"
	"github.com/danielhkuo/now-showing/metrics"
	"github.com/danielhkuo/now-showing/models"
)

const (
	cmdVote = "vote"
	cmdPost = "post"
)

// Reply texts
const (
	ReplyCheckedIn    = "You're checked in! Text POST followed by your message to get on the board, or VOTE to vote for what's showing."
	ReplyInvalidCode  = "Sorry, that code isn't valid. Check the board for the current code."
	ReplyNotCheckedIn = "Text the code on the board to check in first."
	ReplyNoCurrent    = "Nothing is showing right now."
	ReplyEmptyPost    = "Your post was empty. Text POST followed by your message."
	ReplyEmptyBody    = "Text the code on the board to check in."
)

// Dispatcher turns inbound text messages into check-ins, votes and posts.
type Dispatcher struct {
	checkins *checkin.Service
	queue    *board.Queue
	ledger   *board.Ledger
	clock    clock.Clock
	metrics  *metrics.Metrics
}

// NewDispatcher wires the dispatcher. m may be nil.
func NewDispatcher(svc *checkin.Service, queue *board.Queue, ledger *board.Ledger, clk clock.Clock, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{checkins: svc, queue: queue, ledger: ledger, clock: clk, metrics: m}
}

// Handle returns the reply for a message body sent from a phone number.
// Domain failures become reply text; only infrastructure errors are returned.
func (d *Dispatcher) Handle(ctx context.Context, from, body string) (string, error) {
	word, rest := splitWord(strings.TrimSpace(body))
	if word == "" {
		return ReplyEmptyBody, nil
	}

	switch strings.ToLower(word) {
	case cmdVote:
		return d.vote(ctx, from)
	case cmdPost:
		return d.post(ctx, from, rest)
	}

	// Anything else is a check-in code, optionally followed by a command
	if _, err := d.checkins.CheckInWithSMSCode(ctx, from, word); err != nil {
		return d.reply(err)
	}
	d.metrics.CheckedIn("sms")

	cmd, arg := splitWord(rest)
	switch strings.ToLower(cmd) {
	case cmdVote:
		return d.vote(ctx, from)
	case cmdPost:
		return d.post(ctx, from, arg)
	}
	return ReplyCheckedIn, nil
}

func (d *Dispatcher) vote(ctx context.Context, from string) (string, error) {
	u, err := d.checkedIn(ctx, from)
	if err != nil {
		return d.reply(err)
	}
	n, err := d.ledger.Vote(ctx, u, nil)
	if err != nil {
		return d.reply(err)
	}
	return fmt.Sprintf("Vote counted! %d votes so far.", n), nil
}

func (d *Dispatcher) post(ctx context.Context, from, message string) (string, error) {
	u, err := d.checkedIn(ctx, from)
	if err != nil {
		return d.reply(err)
	}
	pos, err := d.queue.Enqueue(ctx, u, message)
	if err != nil {
		return d.reply(err)
	}
	d.metrics.Posted()
	return fmt.Sprintf("Got it! You're #%d in line.", pos), nil
}

func (d *Dispatcher) checkedIn(ctx context.Context, from string) (*models.User, error) {
	u, err := d.checkins.Registry().ByPhone(ctx, from)
	if errors.Is(err, checkin.ErrNoSuchUser) {
		return nil, checkin.ErrNotCheckedIn
	}
	if err != nil {
		return nil, err
	}
	if err := d.checkins.RequireCheckedIn(u); err != nil {
		return nil, err
	}
	return u, nil
}

// reply maps domain errors to text and passes everything else through
func (d *Dispatcher) reply(err error) (string, error) {
	var chill *board.ChillOutError
	switch {
	case errors.As(err, &chill):
		d.metrics.Rejection(models.ReasonChillOut)
		return "Chill out! You can post again " + humanize.RelTime(chill.RetryAt, d.clock.Now(), "ago", "from now") + ".", nil
	case errors.Is(err, checkin.ErrInvalidCode), errors.Is(err, checkin.ErrMissingPhone):
		d.metrics.Rejection(models.ReasonInvalidCode)
		return ReplyInvalidCode, nil
	case errors.Is(err, checkin.ErrNotCheckedIn):
		d.metrics.Rejection(models.ReasonNotCheckedIn)
		return ReplyNotCheckedIn, nil
	case errors.Is(err, board.ErrNoCurrentPost):
		d.metrics.Rejection(models.ReasonNoCurrentPost)
		return ReplyNoCurrent, nil
	case errors.Is(err, board.ErrEmptyMessage):
		d.metrics.Rejection(models.ReasonMissingMessage)
		return ReplyEmptyPost, nil
	}
	return "", err
}

// splitWord returns the first whitespace-delimited word and the trimmed rest
func splitWord(s string) (string, string) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i:])
}
