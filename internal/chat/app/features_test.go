package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"studio_marketplace/internal/chat/domain"

	"github.com/cucumber/godog"
)

type negotiationWorld struct {
	f       *chatFixture
	people  map[string]domain.Session
	convID  string
	offers  []string
	lastMsg string
	lastErr error
	tabErrs []error
}

func (w *negotiationWorld) person(id, name string) error {
	w.people[id] = domain.Session{UserID: id, DisplayName: name}
	return nil
}

func (w *negotiationWorld) session(id string) (domain.Session, error) {
	s, ok := w.people[id]
	if !ok {
		return domain.Session{}, fmt.Errorf("unknown user %q", id)
	}
	return s, nil
}

func (w *negotiationWorld) sendOffer(kind domain.MessageType) func(from, refID, title, to string) error {
	return func(from, refID, title, to string) error {
		sender, err := w.session(from)
		if err != nil {
			return err
		}
		recipient, err := w.session(to)
		if err != nil {
			return err
		}
		conv, msg, err := w.f.dispatch.DispatchOffer(context.Background(), sender, recipient.Participant(), domain.OfferDetails{
			Kind:        kind,
			ReferenceID: refID,
			Title:       title,
			StudioID:    from,
		}, "")
		if err != nil {
			return err
		}
		w.convID = conv.ID
		w.offers = append(w.offers, msg.ID)
		w.lastMsg = msg.ID
		return nil
	}
}

func (w *negotiationWorld) writes(from, content string) error {
	sender, err := w.session(from)
	if err != nil {
		return err
	}
	msg, err := w.f.messages.SendText(context.Background(), sender, w.convID, content)
	if err != nil {
		return err
	}
	w.lastMsg = msg.ID
	return nil
}

func (w *negotiationWorld) respond(decision domain.OfferStatus) func(who string, n int) error {
	return func(who string, n int) error {
		if n < 1 || n > len(w.offers) {
			return fmt.Errorf("offer %d was never sent", n)
		}
		return w.answer(who, w.offers[n-1], decision)
	}
}

func (w *negotiationWorld) answerLatest(who, decision string) error {
	return w.answer(who, w.lastMsg, domain.OfferStatus(decision))
}

// answer keeps the error for a later "fails with" step
func (w *negotiationWorld) answer(who, msgID string, decision domain.OfferStatus) error {
	s, err := w.session(who)
	if err != nil {
		return err
	}
	_, w.lastErr = w.f.negotiation.Respond(context.Background(), s, w.convID, msgID, decision)
	return nil
}

func (w *negotiationWorld) acceptFromTabs(who string, n, tabs int) error {
	if n < 1 || n > len(w.offers) {
		return fmt.Errorf("offer %d was never sent", n)
	}
	s, err := w.session(who)
	if err != nil {
		return err
	}

	w.tabErrs = make([]error, tabs)
	var wg sync.WaitGroup
	for i := 0; i < tabs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, w.tabErrs[i] = w.f.negotiation.Respond(context.Background(), s, w.convID, w.offers[n-1], domain.OfferAccepted)
		}(i)
	}
	wg.Wait()
	return nil
}

func (w *negotiationWorld) tabsSucceeded(n int) error {
	ok := 0
	for _, err := range w.tabErrs {
		switch {
		case err == nil:
			ok++
		case !errors.Is(err, domain.ErrStaleState):
			return fmt.Errorf("unexpected error: %w", err)
		}
	}
	if ok != n {
		return fmt.Errorf("%d tabs succeeded, want %d", ok, n)
	}
	return nil
}

func (w *negotiationWorld) failsWith(code string) error {
	if w.lastErr == nil {
		return fmt.Errorf("expected %s, the response succeeded", code)
	}
	if got := string(toAppError(w.lastErr).Code); got != code {
		return fmt.Errorf("expected %s, got %s (%v)", code, got, w.lastErr)
	}
	return nil
}

func (w *negotiationWorld) messages() ([]domain.Message, error) {
	for _, s := range w.people {
		return w.f.messages.ListMessages(context.Background(), s, w.convID)
	}
	return nil, fmt.Errorf("nobody is logged in")
}

func (w *negotiationWorld) offerIs(n int, status string) error {
	if n < 1 || n > len(w.offers) {
		return fmt.Errorf("offer %d was never sent", n)
	}
	msgs, err := w.messages()
	if err != nil {
		return err
	}
	for _, m := range msgs {
		if m.ID == w.offers[n-1] {
			if string(m.Payload.Status) != status {
				return fmt.Errorf("offer %d is %s, want %s", n, m.Payload.Status, status)
			}
			return nil
		}
	}
	return fmt.Errorf("offer %d missing from the conversation", n)
}

func (w *negotiationWorld) endsWith(content string) error {
	msgs, err := w.messages()
	if err != nil {
		return err
	}
	if len(msgs) == 0 || msgs[len(msgs)-1].Content != content {
		return fmt.Errorf("last message is not %q", content)
	}
	return nil
}

func (w *negotiationWorld) hasMessages(n int) error {
	msgs, err := w.messages()
	if err != nil {
		return err
	}
	if len(msgs) != n {
		return fmt.Errorf("conversation has %d messages, want %d", len(msgs), n)
	}
	return nil
}

func (w *negotiationWorld) unread(who string, n int) error {
	conv, err := w.f.store.Conversations.FindByID(context.Background(), w.convID)
	if err != nil {
		return err
	}
	if got := conv.UnreadCount[who]; got != n {
		return fmt.Errorf("%s has %d unread, want %d", who, got, n)
	}
	return nil
}

func initializeNegotiationScenario(ctx *godog.ScenarioContext) {
	w := &negotiationWorld{}
	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		*w = negotiationWorld{f: newChatFixture(fixedClock), people: map[string]domain.Session{}}
		return ctx, nil
	})

	ctx.Step(`^studio "([^"]*)" named "([^"]*)"$`, w.person)
	ctx.Step(`^instructor "([^"]*)" named "([^"]*)"$`, w.person)
	ctx.Step(`^"([^"]*)" sends a job offer "([^"]*)" titled "([^"]*)" to "([^"]*)"$`, w.sendOffer(domain.MessageTypeJobOffer))
	ctx.Step(`^"([^"]*)" sends a gig invite "([^"]*)" titled "([^"]*)" to "([^"]*)"$`, w.sendOffer(domain.MessageTypeGigInvite))
	ctx.Step(`^"([^"]*)" writes "([^"]*)"$`, w.writes)
	ctx.Step(`^"([^"]*)" accepts offer (\d+)$`, w.respond(domain.OfferAccepted))
	ctx.Step(`^"([^"]*)" declines offer (\d+)$`, w.respond(domain.OfferDeclined))
	ctx.Step(`^"([^"]*)" accepts offer (\d+) from (\d+) tabs at once$`, w.acceptFromTabs)
	ctx.Step(`^exactly (\d+) tabs? succeeded and the others were told the offer is no longer pending$`, w.tabsSucceeded)
	ctx.Step(`^"([^"]*)" answers the latest message with "([^"]*)"$`, w.answerLatest)
	ctx.Step(`^the response fails with "([^"]*)"$`, w.failsWith)
	ctx.Step(`^offer (\d+) is "([^"]*)"$`, w.offerIs)
	ctx.Step(`^the conversation ends with "([^"]*)"$`, w.endsWith)
	ctx.Step(`^the conversation has (\d+) messages$`, w.hasMessages)
	ctx.Step(`^"([^"]*)" has (\d+) unread messages?$`, w.unread)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializeNegotiationScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
			Strict:   true,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
