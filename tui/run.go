package tui

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/YashavikaSingh/meeting-summariser/pkg/logging"
	"github.com/YashavikaSingh/meeting-summariser/pkg/session"
)

// Options configures the wizard.
type Options struct {
	Backend       session.Backend
	Logger        logging.Logger
	AutoSubmit    bool
	DeleteTimeout time.Duration
	RefreshDelay  time.Duration
}

// Run shows the wizard until the user quits.
func Run(ctx context.Context, opts Options) error {
	var program atomic.Pointer[tea.Program]
	notices := &noticeBox{}

	afterFunc := func(d time.Duration, f func()) session.Stopper {
		return session.DefaultAfterFunc(d, func() {
			f()
			if p := program.Load(); p != nil {
				p.Send(refreshedMsg{})
			}
		})
	}

	// Deletion is confirmed in the wizard before the session is asked.
	machine := session.New(session.Options{
		Backend:       opts.Backend,
		Confirmer:     session.AlwaysConfirm,
		Notifier:      notices,
		Logger:        opts.Logger,
		AfterFunc:     afterFunc,
		AutoSubmit:    opts.AutoSubmit,
		DeleteTimeout: opts.DeleteTimeout,
		RefreshDelay:  opts.RefreshDelay,
	})
	defer machine.Close()

	p := tea.NewProgram(newModel(ctx, machine, notices), tea.WithAltScreen(), tea.WithContext(ctx))
	program.Store(p)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running wizard: %w", err)
	}
	return nil
}
