// chatctl - command line client for the shop support chat.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/keanu3244/shop-chat/client"
	"github.com/keanu3244/shop-chat/internal/auth"
	"github.com/keanu3244/shop-chat/internal/models"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	baseURL := os.Getenv("CHAT_URL")
	if baseURL == "" {
		baseURL = "http://127.0.0.1:7001"
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger().Level(zerolog.WarnLevel)

	cfg := client.Config{BaseURL: baseURL, Logger: logger}
	sess := client.NewSession(identityFromEnv())
	api := client.NewAPI(baseURL, sess)

	ctx := context.Background()
	cmd := os.Args[1]

	switch cmd {
	case "token":
		// Dev helper: mints a token the way the shop backend would.
		if len(os.Args) < 4 {
			fmt.Fprintln(os.Stderr, "Usage: chatctl token <user_id> <customer|merchant> [username]")
			os.Exit(1)
		}
		id, err := strconv.ParseInt(os.Args[2], 10, 64)
		exitOnError(err)
		username := "dev"
		if len(os.Args) > 4 {
			username = os.Args[4]
		}
		secret := os.Getenv("JWT_SECRET")
		if secret == "" {
			secret = "dev-secret"
		}
		token, err := auth.Sign(secret, models.User{ID: id, Username: username, Role: os.Args[3]}, time.Hour)
		exitOnError(err)
		fmt.Println(token)

	case "rooms":
		directory := client.NewDirectory(cfg, sess, api)
		exitOnError(directory.Refresh(ctx))
		for _, room := range directory.Rooms() {
			fmt.Printf("  %s  (%d msgs, active %s)\n",
				room.ID, room.MessageCount, room.LastActiveAt.Format("2006-01-02 15:04:05"))
		}

	case "history":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: chatctl history <room_id>")
			os.Exit(1)
		}
		messages, err := api.History(ctx, os.Args[2])
		exitOnError(err)
		for _, msg := range messages {
			printMessage(msg)
		}

	case "chat":
		roomID := ""
		if len(os.Args) > 2 {
			roomID = os.Args[2]
		}
		runChat(ctx, cfg, sess, api, roomID)

	case "help", "--help", "-h":
		usage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

// runChat opens a conversation and mirrors the timeline to the terminal
// while relaying stdin lines as messages.
func runChat(ctx context.Context, cfg client.Config, sess *client.Session, api *client.API, roomID string) {
	conv := client.Open(ctx, cfg, sess, api, roomID)
	defer conv.Close()

	fmt.Printf("-- room %s [%s] --\n", conv.RoomID(), conv.ConnectionStatus())

	// Render loop: print timeline entries as they appear.
	go func() {
		printed := 0
		for {
			messages := conv.Messages()
			for _, msg := range messages[min(printed, len(messages)):] {
				printMessage(msg)
			}
			printed = len(messages)
			if typing, who := conv.RemoteTyping(); typing {
				fmt.Printf("... %s is typing\n", who)
			}
			time.Sleep(300 * time.Millisecond)
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "/quit" {
			return
		}
		conv.NotifyTyping()
		if err := conv.Send(line); err != nil {
			fmt.Fprintf(os.Stderr, "send failed: %v\n", err)
		}
	}
}

func printMessage(msg client.Message) {
	if msg.Kind == client.KindNotice {
		fmt.Printf("          * %s\n", msg.Body)
		return
	}
	marker := "<"
	if msg.Direction == client.DirectionOutgoing {
		marker = ">"
	}
	flag := ""
	if msg.Failed {
		flag = " [failed]"
	}
	fmt.Printf("[%s] %s %s (%s): %s%s\n",
		msg.CreatedAt.Format("15:04:05"), marker, msg.SenderUsername, msg.SenderRole, msg.Body, flag)
}

func identityFromEnv() *client.Identity {
	token := os.Getenv("CHAT_TOKEN")
	if token == "" {
		return nil
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-secret"
	}
	claims, err := auth.Parse(secret, token)
	if err != nil {
		// Let the server be the judge; fill what we can.
		return &client.Identity{Token: token}
	}
	return &client.Identity{
		UserID:   claims.UserID,
		Username: claims.Username,
		Role:     claims.Role,
		Token:    token,
	}
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`chatctl - shop support chat client

Usage: chatctl <command> [options]

Commands:
  chat [room_id]                         Interactive chat (room required for merchants)
  history <room_id>                      Print a room's message history
  rooms                                  List support rooms (merchant)
  token <user_id> <role> [username]      Mint a development token
  help                                   Show this help

Environment:
  CHAT_URL     Server base URL (default http://127.0.0.1:7001)
  CHAT_TOKEN   Bearer token for the session
  JWT_SECRET   Shared secret for dev tokens (default dev-secret)`)
}
