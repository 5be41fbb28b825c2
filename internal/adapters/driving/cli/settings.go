package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/grimoire/internal/core/domain"
)

var errNoSettings = errors.New("settings service not configured")

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure AI providers, retrieval and ingestion options.

Use subcommands to configure specific settings or run the interactive wizard.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List the keys accepted by 'settings set'",
	Args:  cobra.NoArgs,
	RunE:  runSettingsKeys,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a single setting",
	Long: `Set a single setting by its dotted key, for example:

  grimoire settings set retrieval.similarity_threshold 0.55
  grimoire settings set ingest.include "docs/**/*.md,docs/**/*.mdx"

List values are comma separated. Run 'grimoire settings keys' for every key.`,
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: completeSettingKeys,
	RunE:              runSettingsSet,
}

var settingsSetKeyCmd = &cobra.Command{
	Use:       "set-key [embedding|llm]",
	Short:     "Store a provider API key",
	Long:      `Prompt for an API key without echoing it and store it for the embedding or LLM provider.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"embedding", "llm"},
	RunE:      runSettingsSetKey,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure the embedding and LLM providers step by step.`,
	RunE:  runSettingsWizard,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long:  `Configure the embedding provider used for ingestion and search.`,
	RunE:  runProviderSetup("embedding"),
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long:  `Configure the LLM provider used for answers and explanations.`,
	RunE:  runProviderSetup("llm"),
}

func init() {
	settingsCmd.AddCommand(
		settingsShowCmd,
		settingsKeysCmd,
		settingsSetCmd,
		settingsSetKeyCmd,
		settingsWizardCmd,
		settingsEmbeddingCmd,
		settingsLLMCmd,
	)
	rootCmd.AddCommand(settingsCmd)
}

// providerRole is one of the two AI roles a provider can fill.
type providerRole struct {
	name      string // "embedding" or "llm"
	label     string // used in prompts and messages
	providers []domain.AIProvider
	models    map[domain.AIProvider]string
	store     func(p domain.AIProvider, model, apiKey string) error
	check     func() error
}

func roleFor(name string) (providerRole, error) {
	switch name {
	case "embedding":
		return providerRole{
			name:      name,
			label:     "Embedding",
			providers: domain.AllEmbeddingProviders(),
			models:    domain.DefaultEmbeddingModels(),
			store:     settingsService.SetEmbeddingProvider,
			check:     settingsService.ValidateEmbeddingConfig,
		}, nil
	case "llm":
		return providerRole{
			name:      name,
			label:     "LLM",
			providers: domain.AllLLMProviders(),
			models:    domain.DefaultLLMModels(),
			store:     settingsService.SetLLMProvider,
			check:     settingsService.ValidateLLMConfig,
		}, nil
	}
	return providerRole{}, fmt.Errorf("unknown provider role %q (want embedding or llm)", name)
}

// configure walks the user through choosing a provider, model and key for
// r, stores the choice and pings the provider.
func (r providerRole) configure(cmd *cobra.Command, in *bufio.Reader) error {
	cmd.Printf("Select %s Provider\n", r.label)
	for i, p := range r.providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	provider := r.providers[parseChoice(readLine(in), len(r.providers), 1)-1]

	model := r.models[provider]
	cmd.Printf("Enter model name [%s]: ", model)
	if typed := readLine(in); typed != "" {
		model = typed
	}

	var apiKey string
	if provider.RequiresAPIKey() {
		cmd.Printf("Enter API key (or leave empty to use %s): ", provider.APIKeyEnv())
		apiKey = readSecret(cmd, in)
		cmd.Println()
		if apiKey == "" && os.Getenv(provider.APIKeyEnv()) == "" {
			return fmt.Errorf("%s needs an API key", provider.Description())
		}
	}

	if err := r.store(provider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure %s provider: %w", r.name, err)
	}

	cmd.Print("Validating configuration... ")
	if err := r.check(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("%s configuration validation failed: %w", r.name, err)
	}
	cmd.Println("OK")
	cmd.Printf("%s provider configured: %s (%s)\n\n", r.label, provider.Description(), model)
	return nil
}

func runProviderSetup(role string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		if settingsService == nil {
			return errNoSettings
		}
		r, err := roleFor(role)
		if err != nil {
			return err
		}
		return r.configure(cmd, bufio.NewReader(cmd.InOrStdin()))
	}
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettings
	}

	s, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	printSection(cmd, "Embedding", providerRows(s.Embedding.Provider, s.Embedding.Model,
		s.Embedding.BaseURL, s.Embedding.APIKey, s.Embedding.IsConfigured()))
	printSection(cmd, "LLM", providerRows(s.LLM.Provider, s.LLM.Model,
		s.LLM.BaseURL, s.LLM.APIKey, s.LLM.IsConfigured()))
	printSection(cmd, "Retrieval", [][2]string{
		{"Top K", strconv.Itoa(s.Retrieval.TopK)},
		{"Similarity threshold", fmt.Sprintf("%.2f", s.Retrieval.SimilarityThreshold)},
		{"Context chunks", strconv.Itoa(s.Retrieval.ContextChunks)},
		{"Max context chars", strconv.Itoa(s.Retrieval.MaxContextChars)},
	})
	printSection(cmd, "Validator", [][2]string{
		{"Function top K", strconv.Itoa(s.Validator.FunctionTopK)},
		{"Function keep", strconv.Itoa(s.Validator.FunctionKeep)},
	})
	printSection(cmd, "Ingest", [][2]string{
		{"Include", strings.Join(s.Ingest.Include, ", ")},
		{"Delay", fmt.Sprintf("%dms", s.Ingest.DelayMs)},
	})

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'grimoire settings wizard' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func printSection(cmd *cobra.Command, title string, rows [][2]string) {
	cmd.Printf("[%s]\n", title)
	for _, row := range rows {
		cmd.Printf("  %s: %s\n", row[0], row[1])
	}
	cmd.Println()
}

func providerRows(p domain.AIProvider, model, baseURL, apiKey string, configured bool) [][2]string {
	rows := [][2]string{{"Provider", p.Description()}, {"Model", model}}
	if p.IsLocal() {
		rows = append(rows, [2]string{"Base URL", baseURL})
	}
	if p.RequiresAPIKey() {
		key := maskAPIKey(apiKey)
		if apiKey == "" {
			key = "(not set, or export " + p.APIKeyEnv() + ")"
		}
		rows = append(rows, [2]string{"API Key", key})
	}
	status := "configured"
	if !configured {
		status = "not configured"
	}
	return append(rows, [2]string{"Status", status})
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettings
	}
	for _, key := range settingsService.Keys() {
		cmd.Println(key)
	}
	return nil
}

func completeSettingKeys(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 || settingsService == nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var matches []string
	for _, key := range settingsService.Keys() {
		if strings.HasPrefix(key, toComplete) {
			matches = append(matches, key)
		}
	}
	return matches, cobra.ShellCompDirectiveNoFileComp
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errNoSettings
	}
	if err := settingsService.SetValue(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}
	cmd.Printf("Set %s\n", args[0])
	return nil
}

func runSettingsSetKey(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errNoSettings
	}
	r, err := roleFor(args[0])
	if err != nil {
		return err
	}

	cmd.Print("Enter API key: ")
	apiKey := readSecret(cmd, bufio.NewReader(cmd.InOrStdin()))
	cmd.Println()
	if apiKey == "" {
		return errors.New("API key is required")
	}

	if err := settingsService.SetValue(r.name+".api_key", apiKey); err != nil {
		return fmt.Errorf("failed to store API key: %w", err)
	}
	cmd.Printf("Stored %s API key: %s\n", r.name, maskAPIKey(apiKey))
	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettings
	}
	in := bufio.NewReader(cmd.InOrStdin())
	embedding, _ := roleFor("embedding")
	llm, _ := roleFor("llm")

	cmd.Println("Grimoire Settings Wizard")
	cmd.Println("========================")
	cmd.Println()

	cmd.Println("Step 1: Configure Embedding Provider")
	cmd.Println("------------------------------------")
	cmd.Println("Embeddings are required to index and search documentation.")
	cmd.Println()
	if err := embedding.configure(cmd, in); err != nil {
		return err
	}

	cmd.Println("Step 2: Configure LLM Provider")
	cmd.Println("------------------------------")
	cmd.Print("An LLM enables 'ask' and 'validate --explain'. Configure one now? [Y/n]: ")
	if answer := strings.ToLower(readLine(in)); answer == "n" || answer == "no" {
		cmd.Println("Skipped.")
		cmd.Println()
	} else if err := llm.configure(cmd, in); err != nil {
		return err
	}

	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("All settings are valid and saved.")
	}
	return nil
}

//nolint:errcheck // a short read is an empty answer
func readLine(in *bufio.Reader) string {
	line, _ := in.ReadString('\n')
	return strings.TrimSpace(line)
}

// readSecret reads a line without echo when the command's input is a
// terminal, and as a plain line otherwise.
func readSecret(cmd *cobra.Command, in *bufio.Reader) string {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if secret, err := term.ReadPassword(int(f.Fd())); err == nil {
			return strings.TrimSpace(string(secret))
		}
	}
	return readLine(in)
}

// parseChoice returns the 1-based menu choice in input, or defaultVal when
// input is not a number between 1 and maxVal.
func parseChoice(input string, maxVal, defaultVal int) int {
	val, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
