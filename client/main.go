package main

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/JRI98/widgetbridge/internal/ed25519"
	"golang.org/x/term"
)

type Args struct {
	ServerURL string
	KeyPath   string
}

func getArgs() Args {
	serverURL := flag.String("server", "http://localhost:3000", "Bridge server URL")
	keyPath := flag.String("key", "client.key", "Path to the ed25519 key file (created if missing)")

	flag.Parse()

	return Args{
		ServerURL: strings.TrimRight(*serverURL, "/"),
		KeyPath:   *keyPath,
	}
}

type Program struct {
	serverURL  string
	privateKey ed25519.PrivateKey
	stdin      *bufio.Reader
	stdout     io.Writer
	prompt     bool
}

func (program Program) readInput() (string, error) {
	text, err := program.stdin.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && text != "" {
			return strings.TrimRight(text, "\r"), nil
		}
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(text[:len(text)-1], "\r"), nil
}

func (program Program) request(method string, path string, body []byte) ([]byte, int, error) {
	requestURL := fmt.Sprintf("%s%s", program.serverURL, path)
	request, err := http.NewRequest(method, requestURL, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		request.Header.Set("Content-Type", "text/plain")
	}
	request.Header.Set("Authorization", ed25519.Authorization(program.privateKey, body))

	response, err := http.DefaultClient.Do(request)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response body: %w", err)
	}

	return responseBody, response.StatusCode, nil
}

func (program Program) print(body []byte, status int) {
	if len(body) == 0 {
		fmt.Fprintf(program.stdout, "%d %s\n", status, http.StatusText(status))
		return
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		fmt.Fprintf(program.stdout, "%d %s\n", status, strings.TrimSpace(string(body)))
		return
	}
	fmt.Fprintf(program.stdout, "%d %s\n", status, pretty.String())
}

func main() {
	args := getArgs()

	privateKey, err := ed25519.LoadOrCreateKey(args.KeyPath)
	if err != nil {
		panic(fmt.Errorf("failed to load key: %w", err))
	}

	program := Program{
		serverURL:  args.ServerURL,
		privateKey: privateKey,
		stdin:      bufio.NewReader(os.Stdin),
		stdout:     os.Stdout,
		prompt:     term.IsTerminal(int(os.Stdin.Fd())),
	}

	if program.prompt {
		publicKey := privateKey.Public().(ed25519.PublicKey)
		fmt.Printf("Public key: %s\n", base64.StdEncoding.EncodeToString(publicKey))
		fmt.Println("Type a widget message per line, or :help")
	}

	err = program.mainScreen()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return
		}
		panic(fmt.Errorf("main screen error: %w", err))
	}
}

func (program Program) mainScreen() error {
	for {
		if program.prompt {
			fmt.Fprint(program.stdout, "> ")
		}
		line, err := program.readInput()
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		quit, err := program.handleLine(line)
		if err != nil {
			fmt.Fprintf(program.stdout, "error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

func (program Program) handleLine(line string) (bool, error) {
	if !strings.HasPrefix(line, ":") {
		body, status, err := program.request(http.MethodPost, "/api/messages", []byte(line))
		if err != nil {
			return false, err
		}
		program.print(body, status)
		return false, nil
	}

	command, argument, _ := strings.Cut(line[1:], " ")
	argument = strings.TrimSpace(argument)

	var (
		body   []byte
		status int
		err    error
	)

	switch command {
	case "history":
		path := "/api/history"
		if argument != "" {
			n, parseErr := strconv.Atoi(argument)
			if parseErr != nil {
				return false, fmt.Errorf("failed to parse history count: %w", parseErr)
			}
			path = fmt.Sprintf("%s?last=%d", path, n)
		}
		body, status, err = program.request(http.MethodGet, path, nil)
	case "stats":
		body, status, err = program.request(http.MethodGet, "/api/stats", nil)
	case "clear":
		body, status, err = program.request(http.MethodDelete, "/api/history", nil)
	case "pending":
		body, status, err = program.request(http.MethodGet, "/api/navigation/pending", nil)
	case "confirm":
		body, status, err = program.request(http.MethodPost, "/api/navigation/confirm", nil)
	case "cancel":
		body, status, err = program.request(http.MethodPost, "/api/navigation/cancel", nil)
	case "link":
		body, status, err = program.request(http.MethodGet, "/api/links/decision?url="+url.QueryEscape(argument), nil)
	case "quit":
		return true, nil
	case "help":
		fmt.Fprintln(program.stdout, "Commands: :history [n], :stats, :clear, :pending, :confirm, :cancel, :link URL, :quit")
		return false, nil
	default:
		return false, fmt.Errorf("unknown command %q", command)
	}
	if err != nil {
		return false, err
	}

	program.print(body, status)
	return false, nil
}
