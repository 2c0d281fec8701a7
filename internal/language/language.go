// Package language holds the static registry of runtimes the remote
// sandbox can execute, plus the editor metadata for each of them.
package language

import (
	"fmt"
	"sort"
)

// DefaultFree is the baseline language available to every user. Running
// or saving executions in any other language requires a pro entitlement.
const DefaultFree = "javascript"

// Config describes one selectable language: how the editor labels and
// highlights it, and which runtime name/version the sandbox expects.
// RuntimeName and RuntimeVersion are not validated locally; a mismatch
// with what the sandbox advertises surfaces as a remote error.
type Config struct {
	ID             string
	DisplayName    string
	EditorSyntaxID string
	RuntimeName    string
	RuntimeVersion string
	DefaultSource  string
}

// Registry maps language IDs to their configs.
type Registry struct {
	configs map[string]Config
}

// NewRegistry creates a registry with all supported languages.
func NewRegistry() *Registry {
	r := &Registry{configs: make(map[string]Config)}
	for _, cfg := range builtin {
		r.Register(cfg)
	}
	return r
}

// Register adds a language config, replacing any existing entry with
// the same ID.
func (r *Registry) Register(cfg Config) {
	r.configs[cfg.ID] = cfg
}

// Get returns the config for the given language ID.
func (r *Registry) Get(id string) (Config, error) {
	cfg, ok := r.configs[id]
	if !ok {
		return Config{}, fmt.Errorf("unsupported language: %q", id)
	}
	return cfg, nil
}

// Has reports whether the language ID is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.configs[id]
	return ok
}

// List returns all configs sorted by ID.
func (r *Registry) List() []Config {
	out := make([]Config, 0, len(r.configs))
	for _, cfg := range r.configs {
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

var builtin = []Config{
	{
		ID:             "javascript",
		DisplayName:    "JavaScript",
		EditorSyntaxID: "javascript",
		RuntimeName:    "javascript",
		RuntimeVersion: "18.15.0",
		DefaultSource:  "const numbers = [1, 2, 3, 4];\nconst doubled = numbers.map((n) => n * 2);\nconsole.log(doubled);\n",
	},
	{
		ID:             "typescript",
		DisplayName:    "TypeScript",
		EditorSyntaxID: "typescript",
		RuntimeName:    "typescript",
		RuntimeVersion: "5.0.3",
		DefaultSource:  "const numbers: number[] = [1, 2, 3, 4];\nconst doubled = numbers.map((n) => n * 2);\nconsole.log(doubled);\n",
	},
	{
		ID:             "python",
		DisplayName:    "Python",
		EditorSyntaxID: "python",
		RuntimeName:    "python",
		RuntimeVersion: "3.10.0",
		DefaultSource:  "numbers = [1, 2, 3, 4]\ndoubled = [n * 2 for n in numbers]\nprint(doubled)\n",
	},
	{
		ID:             "java",
		DisplayName:    "Java",
		EditorSyntaxID: "java",
		RuntimeName:    "java",
		RuntimeVersion: "15.0.2",
		DefaultSource:  "public class Main {\n    public static void main(String[] args) {\n        System.out.println(\"Hello, World!\");\n    }\n}\n",
	},
	{
		ID:             "go",
		DisplayName:    "Go",
		EditorSyntaxID: "go",
		RuntimeName:    "go",
		RuntimeVersion: "1.16.2",
		DefaultSource:  "package main\n\nimport \"fmt\"\n\nfunc main() {\n\tfmt.Println(\"Hello, World!\")\n}\n",
	},
	{
		ID:             "cpp",
		DisplayName:    "C++",
		EditorSyntaxID: "cpp",
		RuntimeName:    "c++",
		RuntimeVersion: "10.2.0",
		DefaultSource:  "#include <iostream>\n\nint main() {\n    std::cout << \"Hello, World!\" << std::endl;\n    return 0;\n}\n",
	},
	{
		ID:             "csharp",
		DisplayName:    "C#",
		EditorSyntaxID: "csharp",
		RuntimeName:    "csharp",
		RuntimeVersion: "6.12.0",
		DefaultSource:  "using System;\n\nclass Program {\n    static void Main() {\n        Console.WriteLine(\"Hello, World!\");\n    }\n}\n",
	},
	{
		ID:             "ruby",
		DisplayName:    "Ruby",
		EditorSyntaxID: "ruby",
		RuntimeName:    "ruby",
		RuntimeVersion: "3.0.1",
		DefaultSource:  "numbers = [1, 2, 3, 4]\ndoubled = numbers.map { |n| n * 2 }\nputs doubled.inspect\n",
	},
	{
		ID:             "swift",
		DisplayName:    "Swift",
		EditorSyntaxID: "swift",
		RuntimeName:    "swift",
		RuntimeVersion: "5.3.3",
		DefaultSource:  "let numbers = [1, 2, 3, 4]\nlet doubled = numbers.map { $0 * 2 }\nprint(doubled)\n",
	},
}
