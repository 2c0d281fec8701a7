package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/spf13/cobra"

	"codepad/internal/config"
	"codepad/internal/language"
	"codepad/internal/sandbox"
	"codepad/internal/session"
)

var (
	serverURL  string
	authToken  string
	statePath  string
	sandboxURL string
	apiKey     string
	timeout    string
	languageID string
)

func main() {
	root := &cobra.Command{
		Use:   "codepad",
		Short: "Run and manage code snippets against the remote sandbox",
	}

	defaults := config.DefaultConfig()

	root.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "codepad server URL")
	root.PersistentFlags().StringVar(&authToken, "token", os.Getenv("CODEPAD_TOKEN"), "Bearer token for the server")
	root.PersistentFlags().StringVar(&statePath, "state", defaults.Editor.StatePath, "Editor state file")

	// Run a snippet
	runCmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Execute a file (or stdin) in the remote sandbox",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runRun,
	}
	runCmd.Flags().StringVarP(&languageID, "language", "l", "", "Language (auto-detected from extension)")
	runCmd.Flags().StringVar(&sandboxURL, "sandbox", defaults.Sandbox.Endpoint, "Sandbox execute endpoint")
	runCmd.Flags().StringVar(&apiKey, "api-key", os.Getenv("CODEPAD_SANDBOX_KEY"), "Sandbox API key")
	runCmd.Flags().StringVar(&timeout, "timeout", "0", "Sandbox request timeout (0 = none)")
	root.AddCommand(runCmd)

	// Supported languages
	root.AddCommand(&cobra.Command{
		Use:   "langs",
		Short: "List supported languages",
		RunE:  runLangs,
	})

	// Preferences
	root.AddCommand(&cobra.Command{
		Use:   "set-language [id]",
		Short: "Set the default language",
		Args:  cobra.ExactArgs(1),
		RunE:  runSetLanguage,
	})
	root.AddCommand(&cobra.Command{
		Use:   "set-theme [name]",
		Short: "Set the editor theme",
		Args:  cobra.ExactArgs(1),
		RunE:  runSetTheme,
	})
	root.AddCommand(&cobra.Command{
		Use:   "set-font-size [n]",
		Short: "Set the editor font size (clamped to 12-24)",
		Args:  cobra.ExactArgs(1),
		RunE:  runSetFontSize,
	})

	// Syntax-highlighted view
	viewCmd := &cobra.Command{
		Use:   "view [file]",
		Short: "Print a file (or the saved buffer) with syntax highlighting",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runView,
	}
	viewCmd.Flags().StringVarP(&languageID, "language", "l", "", "Language (auto-detected from extension)")
	root.AddCommand(viewCmd)

	// Server-side history
	root.AddCommand(&cobra.Command{
		Use:   "history",
		Short: "List your execution history from the server",
		RunE:  runHistory,
	})

	// Health check
	root.AddCommand(&cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE:  runHealth,
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// openStore builds the durable session store shared by the preference
// and run commands. The executor may be nil for commands that never run.
func openStore(exec session.Executor) (*session.Store, *language.Registry, error) {
	local, err := session.NewFileStore(statePath)
	if err != nil {
		return nil, nil, err
	}
	registry := language.NewRegistry()
	defaults := config.DefaultConfig().Editor
	store := session.NewStore(registry, exec, local, session.Defaults{
		Language: defaults.DefaultLanguage,
		Theme:    defaults.DefaultTheme,
		FontSize: defaults.DefaultFontSize,
	})
	return store, registry, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	code, source, err := readSource(args)
	if err != nil {
		return err
	}

	requestTimeout, err := time.ParseDuration(timeout)
	if err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}

	registry := language.NewRegistry()
	client := sandbox.NewClient(sandboxURL, apiKey, requestTimeout, registry)

	store, _, err := openStore(client)
	if err != nil {
		return err
	}

	if lang := detectLanguage(source); lang != "" {
		if err := store.SetLanguage(lang); err != nil {
			return err
		}
	}

	// Bind an empty surface, then overwrite with the given code: an
	// explicit file or stdin wins over any saved buffer.
	buf := session.NewBuffer("")
	store.BindSurface(buf)
	buf.SetValue(code)

	store.Run(context.Background())

	snap := store.Snapshot()
	if snap.Error != "" {
		fmt.Fprintln(os.Stderr, snap.Error)
		os.Exit(1)
	}
	fmt.Println(snap.Output)
	return nil
}

func runLangs(_ *cobra.Command, _ []string) error {
	registry := language.NewRegistry()
	fmt.Printf("%-12s %-12s %s\n", "ID", "NAME", "RUNTIME")
	for _, cfg := range registry.List() {
		fmt.Printf("%-12s %-12s %s %s\n", cfg.ID, cfg.DisplayName, cfg.RuntimeName, cfg.RuntimeVersion)
	}
	return nil
}

func runSetLanguage(_ *cobra.Command, args []string) error {
	store, _, err := openStore(nil)
	if err != nil {
		return err
	}
	if err := store.SetLanguage(args[0]); err != nil {
		return err
	}
	fmt.Printf("language set to %s\n", args[0])
	return nil
}

func runSetTheme(_ *cobra.Command, args []string) error {
	store, _, err := openStore(nil)
	if err != nil {
		return err
	}
	store.SetTheme(args[0])
	fmt.Printf("theme set to %s\n", args[0])
	return nil
}

func runSetFontSize(_ *cobra.Command, args []string) error {
	size, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("font size must be a number: %w", err)
	}
	store, _, err := openStore(nil)
	if err != nil {
		return err
	}
	store.SetFontSize(size)
	fmt.Printf("font size set to %d\n", store.Snapshot().FontSize)
	return nil
}

func runView(_ *cobra.Command, args []string) error {
	store, registry, err := openStore(nil)
	if err != nil {
		return err
	}

	var code string
	langID := store.Language()
	if len(args) > 0 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading file: %w", err)
		}
		code = string(data)
		if detected := detectLanguage(args[0]); detected != "" {
			langID = detected
		}
	} else {
		// No file: show the saved buffer for the current language.
		buf := session.NewBuffer("")
		store.BindSurface(buf)
		code = buf.Value()
		if code == "" {
			return fmt.Errorf("no saved buffer for %s", langID)
		}
	}
	if languageID != "" {
		langID = languageID
	}

	cfg, err := registry.Get(langID)
	if err != nil {
		return err
	}

	theme := store.Snapshot().Theme
	if err := quick.Highlight(os.Stdout, code, cfg.EditorSyntaxID, "terminal256", theme); err != nil {
		// Fall back to plain text rather than failing the command.
		fmt.Print(code)
	}
	return nil
}

func runHistory(_ *cobra.Command, _ []string) error {
	req, err := http.NewRequest(http.MethodGet, serverURL+"/executions", nil)
	if err != nil {
		return err
	}
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, body)
	}

	var result any
	json.NewDecoder(resp.Body).Decode(&result)
	formatted, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(formatted))
	return nil
}

func runHealth(_ *cobra.Command, _ []string) error {
	resp, err := http.Get(serverURL + "/health")
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	var result map[string]any
	json.NewDecoder(resp.Body).Decode(&result)
	formatted, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(formatted))
	return nil
}

// readSource reads code from the file argument, or stdin when absent.
// The returned source name feeds extension-based language detection.
func readSource(args []string) (code, source string, err error) {
	if len(args) > 0 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", "", fmt.Errorf("reading file: %w", err)
		}
		return string(data), args[0], nil
	}
	if languageID == "" {
		return "", "", fmt.Errorf("reading from stdin requires --language")
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), "", nil
}

// detectLanguage resolves the -l flag, falling back to the file
// extension. Returns "" when neither applies (saved preference rules).
func detectLanguage(path string) string {
	if languageID != "" {
		return languageID
	}
	switch ext := fileExtension(path); ext {
	case ".js", ".mjs":
		return "javascript"
	case ".ts":
		return "typescript"
	case ".py":
		return "python"
	case ".java":
		return "java"
	case ".go":
		return "go"
	case ".cpp", ".cc", ".cxx":
		return "cpp"
	case ".cs":
		return "csharp"
	case ".rb":
		return "ruby"
	case ".swift":
		return "swift"
	default:
		return ""
	}
}

func fileExtension(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			return path[i:]
		}
	}
	return ""
}
