package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"

	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"

	"mio-messenger/client"
	"mio-messenger/domain"
	"mio-messenger/infrastructure/ws"
	"mio-messenger/session"
)

// Exit codes for the console client.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerURL      string `envconfig:"SERVER_URL" default:"http://localhost:8080"`
	Phone          string `envconfig:"PHONE" required:"true"`
	TelegramChatID string `envconfig:"TELEGRAM_CHAT_ID"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"warn"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run handles login, the session lifecycle and the input loop. The exit
// code travels back to main so defers always execute.
func run() (int, error) {
	// 1. Load configuration from environment variables.
	_ = godotenv.Load()
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Setup context to handle termination signals (Ctrl+C).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stdin := bufio.NewScanner(os.Stdin)

	// 3. Phone + code login.
	api := client.NewAPI(config.ServerURL)
	if err := api.Login(ctx, config.Phone, config.TelegramChatID); err != nil {
		return exitRuntime, fmt.Errorf("requesting login code: %w", err)
	}
	code := prompt(stdin, "Enter the 4-digit code you received: ")
	verified, err := api.Verify(ctx, config.Phone, code)
	if err != nil {
		return exitRuntime, fmt.Errorf("verifying code: %w", err)
	}
	color.Green.Printf("Logged in as %s\n", verified.User.ID)

	// 4. Live session: WebSocket transport, REST directory and backlog.
	wsURL := "ws" + strings.TrimPrefix(config.ServerURL, "http") + "/ws"
	transport := ws.NewClientTransport(log, wsURL)

	var currentChat struct {
		sync.Mutex
		id domain.ChatID
	}

	hooks := session.Hooks{
		OnStateChange: func(state session.State) {
			color.Gray.Printf("-- connection: %s --\n", state)
		},
		OnChatListChanged: func(chats []domain.Chat) {
			renderChats(chats)
		},
		OnNewMessage: func(m domain.Message) {
			currentChat.Lock()
			selected := currentChat.id
			currentChat.Unlock()
			if selected != "" && m.ChatID != selected {
				return
			}
			color.Cyan.Printf("[%s] %s: ", m.Timestamp.Local().Format("15:04:05"), m.SenderID)
			fmt.Println(m.Text)
		},
	}

	reconciler := session.NewReconciler(log, transport, api, api, session.Options{
		UserID:     verified.User.ID,
		Credential: api.Token(),
	}, hooks)
	reconciler.Connect(ctx)
	defer reconciler.Disconnect()

	// 5. Input loop. Lines starting with / are commands, anything else is
	// posted into the selected chat.
	color.Gray.Println("Commands: /select <chat-id>, /create <name> <phone>..., /history, /quit")
	lines := make(chan string)
	go func() {
		defer close(lines)
		for stdin.Scan() {
			lines <- stdin.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return exitOK, nil
		case line, ok := <-lines:
			if !ok {
				return exitOK, nil
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if line == "/quit" {
				return exitOK, nil
			}
			if err := handleLine(ctx, line, api, reconciler, &currentChat.Mutex, &currentChat.id); err != nil {
				color.Red.Printf("error: %v\n", err)
			}
		}
	}
}

func handleLine(ctx context.Context, line string, api *client.API,
	reconciler *session.Reconciler, mu *sync.Mutex, selected *domain.ChatID) error {
	switch {
	case strings.HasPrefix(line, "/select "):
		mu.Lock()
		*selected = domain.ChatID(strings.TrimSpace(strings.TrimPrefix(line, "/select ")))
		mu.Unlock()
		replayTimeline(reconciler, *selected)
		return nil

	case strings.HasPrefix(line, "/create "):
		fields := strings.Fields(strings.TrimPrefix(line, "/create "))
		if len(fields) < 2 {
			return fmt.Errorf("usage: /create <name> <phone>...")
		}
		chat, err := api.CreateChat(ctx, fields[0], fields[1:])
		if err != nil {
			return err
		}
		color.Green.Printf("Created chat %s (%s)\n", chat.Name, chat.ID)
		return nil

	case line == "/history":
		mu.Lock()
		chatID := *selected
		mu.Unlock()
		if chatID == "" {
			return fmt.Errorf("no chat selected")
		}
		replayTimeline(reconciler, chatID)
		return nil

	case strings.HasPrefix(line, "/"):
		return fmt.Errorf("unknown command %q", line)

	default:
		mu.Lock()
		chatID := *selected
		mu.Unlock()
		if chatID == "" {
			return fmt.Errorf("select a chat first with /select <chat-id>")
		}
		return reconciler.Post(ctx, chatID, line)
	}
}

func replayTimeline(reconciler *session.Reconciler, chatID domain.ChatID) {
	for _, m := range reconciler.Messages(chatID) {
		color.Cyan.Printf("[%s] %s: ", m.Timestamp.Local().Format("15:04:05"), m.SenderID)
		fmt.Println(m.Text)
	}
}

func renderChats(chats []domain.Chat) {
	sort.Slice(chats, func(i, j int) bool { return chats[i].CreatedAt.Before(chats[j].CreatedAt) })

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Chat ID", "Name", "Participants", "Last message"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	for _, chat := range chats {
		table.Append([]string{
			string(chat.ID),
			chat.Name,
			strings.Join(chat.ParticipantIDs, ", "),
			chat.LastMessagePreview,
		})
	}
	table.Render()
}

func prompt(stdin *bufio.Scanner, label string) string {
	fmt.Print(label)
	if !stdin.Scan() {
		return ""
	}
	return strings.TrimSpace(stdin.Text())
}
