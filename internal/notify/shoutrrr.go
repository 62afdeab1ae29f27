package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/nicholas-fedor/shoutrrr"
	"github.com/nicholas-fedor/shoutrrr/pkg/router"
	"github.com/nicholas-fedor/shoutrrr/pkg/types"
)

// ShoutrrrSender delivers through every configured shoutrrr service URL
// (smtp://, slack://, telegram://, generic webhooks and so on).
type ShoutrrrSender struct {
	router *router.ServiceRouter
}

// NewShoutrrrSender validates urls and builds one router for all of them.
// The recipient of smtp URLs is part of the URL itself.
func NewShoutrrrSender(urls []string, timeout time.Duration) (*ShoutrrrSender, error) {
	if len(urls) == 0 {
		return nil, errors.New("shoutrrr: at least one URL is required")
	}
	r, err := shoutrrr.CreateSender(urls...)
	if err != nil {
		// The raw error may echo credentials embedded in the URL.
		return nil, errors.New("shoutrrr: invalid service URL")
	}
	if timeout > 0 {
		r.Timeout = timeout
	}
	r.SetLogger(log.New(io.Discard, "", 0))
	return &ShoutrrrSender{router: r}, nil
}

func (s *ShoutrrrSender) Name() string {
	return "shoutrrr"
}

// Send delivers msg to every service. The router enforces its own timeout.
func (s *ShoutrrrSender) Send(_ context.Context, msg Message) error {
	params := types.Params{}
	if msg.Subject != "" {
		params.SetTitle(msg.Subject)
	}

	var failed []error
	for _, err := range s.router.Send(msg.Body, &params) {
		if err != nil {
			failed = append(failed, err)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("shoutrrr: %d service(s) failed: %w", len(failed), errors.Join(failed...))
	}
	return nil
}
