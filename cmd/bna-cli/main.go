// bna-cli is an interactive terminal client for the gateway's streaming chat
// endpoint. It keeps the conversation history in memory and forwards the
// provider API key from the environment.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/bna-labs/bna-gateway/internal/adapter/httpapi"
	"github.com/bna-labs/bna-gateway/internal/domain/provider"
)

func main() {
	gateway := flag.String("gateway", "http://localhost:8787", "gateway base URL")
	providerName := flag.String("provider", "anthropic", "model provider (anthropic, openai, xai, google, bedrock)")
	model := flag.String("model", "", "model choice override")
	flag.Parse()

	mp, ok := provider.Parse(*providerName)
	if !ok {
		log.Fatalf("unknown provider: %s", *providerName)
	}

	keys := keySetFromEnv()
	if !keys.HasKeyFor(mp) {
		log.Fatalf("no API key for %s; set %s", mp.DisplayName(), envVarFor(mp))
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		HistoryFile:     os.ExpandEnv("$HOME/.bna_cli_history"),
		InterruptPrompt: "^C",
	})
	if err != nil {
		log.Fatalf("readline: %v", err)
	}
	defer rl.Close()

	fmt.Printf("Connected to %s (%s). Type /quit to exit.\n", *gateway, mp.DisplayName())

	var history []httpapi.ChatMessage
	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF or readline.ErrInterrupt
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			break
		}
		if line == "/reset" {
			history = nil
			fmt.Println("(history cleared)")
			continue
		}

		history = append(history, httpapi.ChatMessage{Role: "user", Content: line})

		reply, err := streamChat(*gateway, httpapi.ChatRequestBody{
			Messages:      history,
			ModelProvider: mp,
			ModelChoice:   *model,
			UserAPIKey:    keys,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			history = history[:len(history)-1]
			continue
		}

		history = append(history, httpapi.ChatMessage{Role: "assistant", Content: reply})
	}
}

// streamChat posts one chat request and prints deltas as they arrive,
// returning the assembled reply.
func streamChat(gateway string, body httpapi.ChatRequestBody) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	resp, err := http.Post(strings.TrimRight(gateway, "/")+"/api/chat", "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		return "", fmt.Errorf("gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var reply strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}
		if data == "[DONE]" {
			break
		}
		var event struct {
			Delta string `json:"delta"`
		}
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			continue
		}
		fmt.Print(event.Delta)
		reply.WriteString(event.Delta)
	}
	fmt.Println()
	if err := scanner.Err(); err != nil {
		return reply.String(), err
	}
	return reply.String(), nil
}

func keySetFromEnv() *provider.APIKeySet {
	return &provider.APIKeySet{
		Value:  os.Getenv("ANTHROPIC_API_KEY"),
		OpenAI: os.Getenv("OPENAI_API_KEY"),
		XAI:    os.Getenv("XAI_API_KEY"),
		Google: os.Getenv("GEMINI_API_KEY"),
	}
}

func envVarFor(p provider.ModelProvider) string {
	switch p.KeyProvider() {
	case provider.OpenAI:
		return "OPENAI_API_KEY"
	case provider.XAI:
		return "XAI_API_KEY"
	case provider.Google:
		return "GEMINI_API_KEY"
	default:
		return "ANTHROPIC_API_KEY"
	}
}
