package domain

import (
	"context"
	"fmt"
)

// ClickAction is what a notification click did.
type ClickAction string

const (
	ClickFocused ClickAction = "focused"
	ClickOpened  ClickAction = "opened"
)

// ClickOutcome reports the window a notification click landed on.
type ClickOutcome struct {
	Action ClickAction
	Client Client
}

// routeClick dismisses the notification, then focuses an open window on the
// application origin or, failing that, opens one at the root address.
func routeClick(ctx context.Context, cfg Config, clients Clients, notifications Notifications, notification Notification) (ClickOutcome, error) {
	if err := notifications.Close(ctx, notification.Tag); err != nil {
		return ClickOutcome{}, fmt.Errorf("close notification %q: %w", notification.Tag, err)
	}

	windows, err := clients.MatchAll(ctx, MatchOptions{Type: ClientWindow, IncludeUncontrolled: true})
	if err != nil {
		return ClickOutcome{}, fmt.Errorf("match windows: %w", err)
	}
	for _, window := range windows {
		if !cfg.SameOrigin(window.URL) {
			continue
		}
		focused, err := clients.Focus(ctx, window.ID)
		if err != nil {
			return ClickOutcome{}, fmt.Errorf("focus client %s: %w", window.ID, err)
		}
		return ClickOutcome{Action: ClickFocused, Client: focused}, nil
	}

	opened, err := clients.OpenWindow(ctx, cfg.RootURL())
	if err != nil {
		return ClickOutcome{}, fmt.Errorf("open window %s: %w", cfg.RootURL(), err)
	}
	return ClickOutcome{Action: ClickOpened, Client: opened}, nil
}
