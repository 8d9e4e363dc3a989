package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/avolkov/quickchat/internal/client"
)

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat <contact-username>",
		Short: "Open a conversation with a contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := loadCompleteSession()
			if err != nil {
				return err
			}
			return runChat(session, args[0])
		},
	}
}

func runChat(session *client.Session, contactName string) error {
	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	api := apiWithSession(session)

	contact, err := resolveContact(ctx, api, session.ID, contactName)
	if err != nil {
		return err
	}

	socket, err := client.DialSocket(ctx, wsURL(serverURL))
	if err != nil {
		return err
	}
	defer socket.Close()

	if err := socket.Announce(ctx, session.ID, session.Token); err != nil {
		return fmt.Errorf("announce: %w", err)
	}

	go func() {
		defer cancel()
		if err := socket.Listen(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "relay: %v\n", err)
		}
	}()

	conv := client.NewConversation(contact.ID)
	if err := loadHistory(ctx, api, conv, session.ID, contact.ID); err != nil {
		return err
	}
	printConversation(conv, contact.Username)

	fmt.Println("Type a message and press Enter. Commands: /edit n text, /unsend n, /reload, /quit")

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	// Single goroutine owns the conversation: user input and relay
	// arrivals are merged into one sequential stream.
	for {
		select {
		case <-ctx.Done():
			return nil
		case text, ok := <-socket.Incoming:
			if !ok {
				return nil
			}
			item := conv.ApplyArrival(text)
			fmt.Printf("[%s] %s: %s\n", client.FormatMessageTime(item.Timestamp), contact.Username, item.Body)
		case protoErr := <-socket.Errors:
			fmt.Fprintf(os.Stderr, "relay error: %s (%s)\n", protoErr.Msg, protoErr.Code)
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if done := handleLine(ctx, api, conv, session, contact, line); done {
				return nil
			}
		}
	}
}

func handleLine(ctx context.Context, api *client.API, conv *client.Conversation, session *client.Session, contact client.Contact, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	switch {
	case line == "/quit":
		return true
	case line == "/reload":
		if err := loadHistory(ctx, api, conv, session.ID, contact.ID); err != nil {
			fmt.Fprintf(os.Stderr, "reload: %v\n", err)
			return false
		}
		printConversation(conv, contact.Username)
	case strings.HasPrefix(line, "/edit "):
		idx, body, err := parseEdit(line)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return false
		}
		if !conv.EditAt(idx, body) {
			fmt.Fprintf(os.Stderr, "no message #%d\n", idx)
			return false
		}
		fmt.Printf("edited #%d (local only, lost on reload)\n", idx)
	case strings.HasPrefix(line, "/unsend "):
		idx, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "/unsend ")))
		if err != nil {
			fmt.Fprintln(os.Stderr, "usage: /unsend n")
			return false
		}
		if !conv.UnsendAt(idx) {
			fmt.Fprintf(os.Stderr, "no message #%d\n", idx)
			return false
		}
		fmt.Printf("unsent #%d (local only, lost on reload)\n", idx)
	default:
		// Optimistic append: the message shows as sent immediately.
		// A failed persist is reported but the entry stays.
		item := conv.AppendLocal(line)
		fmt.Printf("[%s] you: %s\n", client.FormatMessageTime(item.Timestamp), item.Body)
		if err := api.SendMessage(ctx, session.ID, contact.ID, line); err != nil {
			fmt.Fprintf(os.Stderr, "send failed (message shown locally only): %v\n", err)
		}
	}
	return false
}

func parseEdit(line string) (int, string, error) {
	rest := strings.TrimPrefix(line, "/edit ")
	parts := strings.SplitN(strings.TrimSpace(rest), " ", 2)
	if len(parts) != 2 {
		return 0, "", fmt.Errorf("usage: /edit n text")
	}
	idx, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, "", fmt.Errorf("usage: /edit n text")
	}
	return idx, parts[1], nil
}

func loadHistory(ctx context.Context, api *client.API, conv *client.Conversation, selfID, contactID string) error {
	items, err := api.History(ctx, selfID, contactID)
	if err != nil {
		return fmt.Errorf("fetch history: %w", err)
	}
	conv.Load(items)
	return nil
}

func printConversation(conv *client.Conversation, contactName string) {
	if banner := conv.StartBanner(time.Now()); banner != "" {
		fmt.Println("--", banner, "--")
	}
	for i, item := range conv.Items() {
		who := contactName
		if item.FromSelf {
			who = "you"
		}
		fmt.Printf("#%d [%s] %s: %s\n", i, client.FormatMessageTime(item.Timestamp), who, item.Body)
	}
}

func resolveContact(ctx context.Context, api *client.API, selfID, name string) (client.Contact, error) {
	contacts, err := api.Contacts(ctx, selfID)
	if err != nil {
		return client.Contact{}, err
	}
	for _, contact := range contacts {
		if contact.Username == name {
			return contact, nil
		}
	}
	return client.Contact{}, fmt.Errorf("no contact named %q", name)
}

func wsURL(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimSuffix(strings.TrimPrefix(base, "https://"), "/") + "/ws"
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimSuffix(strings.TrimPrefix(base, "http://"), "/") + "/ws"
	default:
		return strings.TrimSuffix(base, "/") + "/ws"
	}
}
