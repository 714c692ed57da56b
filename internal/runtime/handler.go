package runtime

import (
	"context"
	"strings"

	"github.com/aretw0/chatsim/pkg/domain"
	"github.com/aretw0/chatsim/pkg/scenario"
)

// Dispatch decodes a block action string and handles it.
func (e *Engine) Dispatch(ctx context.Context, action string) (*domain.Intent, error) {
	return e.Handle(ctx, domain.ParseAction(action))
}

// Send appends a free-text user message and schedules the keyword reply.
func (e *Engine) Send(ctx context.Context, text string) error {
	_, err := e.Handle(ctx, domain.SendText{Text: text})
	return err
}

// TryAppFirst returns the intent for the app-first onboarding alternative.
func (e *Engine) TryAppFirst(ctx context.Context) (*domain.Intent, error) {
	e.mu.Lock()
	if !e.mounted {
		e.mu.Unlock()
		return nil, domain.ErrSessionClosed
	}
	intent := domain.AppFirstIntent()
	e.emitLocked(domain.Event{Type: domain.EventIntent, Intent: &intent})
	e.mu.Unlock()

	e.publish(ctx, intent)
	return &intent, nil
}

// Handle applies a decoded command to the session. It returns the
// navigation intent the command produced, if any. Degenerate commands are
// logged and ignored, never reported as errors.
func (e *Engine) Handle(ctx context.Context, cmd domain.Command) (*domain.Intent, error) {
	e.mu.Lock()
	if !e.mounted {
		e.mu.Unlock()
		return nil, domain.ErrSessionClosed
	}

	var intent *domain.Intent
	switch c := cmd.(type) {
	case domain.OpenBilling:
		i := domain.BillingIntent()
		intent = &i
	case domain.SelectDomain:
		e.toggleDomainLocked(c.DomainID)
	case domain.ConfirmDomains:
		e.confirmDomainsLocked()
	case domain.Connect:
		intent = e.connectLocked(c.IntegrationID)
	case domain.SendText:
		e.sendLocked(c.Text)
	case domain.Unknown:
		e.ignoreLocked("unknown_action", "ignoring unknown action", "action", c.Raw)
	default:
		e.ignoreLocked("unknown_command", "ignoring unsupported command")
	}

	if intent != nil {
		e.emitLocked(domain.Event{Type: domain.EventIntent, Intent: intent})
	}
	e.changedLocked()
	e.mu.Unlock()

	if intent != nil {
		e.publish(ctx, *intent)
	}
	return intent, nil
}

func (e *Engine) toggleDomainLocked(id string) {
	if e.state.FocusConfirmed {
		e.logger.Debug("focus already confirmed", "domain", id)
		return
	}
	if _, ok := e.catalog.Domain(id); !ok {
		e.ignoreLocked("unknown_domain", "ignoring unknown focus domain", "domain", id)
		return
	}

	selected := e.state.SelectedFocusDomains
	for i, v := range selected {
		if v == id {
			e.state.SelectedFocusDomains = append(selected[:i:i], selected[i+1:]...)
			return
		}
	}
	e.state.SelectedFocusDomains = append(selected, id)
}

func (e *Engine) confirmDomainsLocked() {
	if e.state.FocusConfirmed {
		e.logger.Debug("focus already confirmed")
		return
	}
	if len(e.state.SelectedFocusDomains) == 0 {
		e.logger.Debug("confirm with empty selection")
		return
	}

	e.state.FocusConfirmed = true
	selected := append([]string(nil), e.state.SelectedFocusDomains...)
	announce := e.materialize(scenario.SelectionAnnouncement(e.catalog, selected), "user")
	e.state.Conversation = e.state.Conversation.Append(announce)

	e.afterLocked(e.timings.ConfirmDelay, func() {
		e.beginTypingLocked()
		e.afterLocked(e.timings.ConfirmTypingDelay, func() {
			e.endTypingLocked()
			summary := e.materialize(scenario.ConfirmationSummary(e.catalog, selected), "assistant")
			e.state.Conversation = e.state.Conversation.Append(summary)
		})
	})
}

func (e *Engine) connectLocked(id string) *domain.Intent {
	if _, ok := e.catalog.Integration(id); !ok {
		e.ignoreLocked("unknown_integration", "ignoring connect for unknown integration", "integration", id)
		return nil
	}
	if e.state.IsConnected(id) {
		e.logger.Debug("integration already connected", "integration", id)
		return nil
	}
	intent := domain.SignInIntent(id)
	return &intent
}

func (e *Engine) sendLocked(text string) {
	if strings.TrimSpace(text) == "" {
		e.logger.Debug("ignoring empty message")
		return
	}

	msg := e.materialize(domain.MessageTemplate{Sender: domain.SenderUser, Text: text}, "user")
	e.state.Conversation = e.state.Conversation.Append(msg)

	e.afterLocked(e.timings.ReplyDelay, func() {
		e.beginTypingLocked()
		e.afterLocked(e.timings.ReplyTypingDelay, func() {
			e.endTypingLocked()
			reply := scenario.Reply(e.catalog, e.state.ConnectedIntegrations, text)
			e.state.Conversation = e.state.Conversation.Append(e.materialize(reply, "assistant"))
		})
	})
}

// publish hands the intent to the sink. Delivery failures are logged only;
// the intent is still returned to the caller.
func (e *Engine) publish(ctx context.Context, intent domain.Intent) {
	if e.sink == nil {
		return
	}
	if err := e.sink.Publish(ctx, e.id, intent); err != nil {
		e.logger.Warn("failed to publish intent", "kind", intent.Kind, "err", err)
	}
}
