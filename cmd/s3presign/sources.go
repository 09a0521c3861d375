package main

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pkgfetch/s3presign/config"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Manage the s3_source table",
	Long: `Manage entries of the s3_source table in the configuration file.

Each entry is keyed by bucket host and selects how credentials for that
bucket are obtained: explicit id/secret fields, the AWS_* environment
variables, or the EC2 instance metadata service.`,
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured sources",
	RunE:  runSourcesList,
}

var sourcesAddCmd = &cobra.Command{
	Use:   "add <host>",
	Short: "Add a source entry",
	Long: `Add an s3_source entry interactively.

You will be prompted for the credential provider and, for explicit
entries, the access key id and secret.`,
	Args: cobra.ExactArgs(1),
	RunE: runSourcesAdd,
}

var sourcesRemoveCmd = &cobra.Command{
	Use:     "remove <host>",
	Aliases: []string{"rm"},
	Short:   "Remove a source entry",
	Args:    cobra.ExactArgs(1),
	RunE:    runSourcesRemove,
}

var showSecrets bool

func init() {
	sourcesCmd.AddCommand(sourcesListCmd)
	sourcesCmd.AddCommand(sourcesAddCmd)
	sourcesCmd.AddCommand(sourcesRemoveCmd)

	sourcesListCmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "show secret values")

	rootCmd.AddCommand(sourcesCmd)
}

// sourcesFile returns the config file the sources subcommands edit: the
// first --config value, or ./config.yaml.
func sourcesFile(cmd *cobra.Command) string {
	files, _ := cmd.Flags().GetStringArray("config")
	if len(files) > 0 {
		return files[0]
	}
	return "config.yaml"
}

// loadDocument reads the raw YAML config file into a generic map so
// unrelated keys survive a rewrite. A missing file yields an empty map.
func loadDocument(path string) (map[string]any, error) {
	doc := map[string]any{}

	data, err := os.ReadFile(path) //nolint:gosec // Path is the user's own config file
	if errors.Is(err, os.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return doc, nil
}

func saveDocument(path string, doc map[string]any) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode config file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

func sourceTable(doc map[string]any) map[string]any {
	if table, ok := doc["s3_source"].(map[string]any); ok {
		return table
	}
	table := map[string]any{}
	doc["s3_source"] = table
	return table
}

func runSourcesList(cmd *cobra.Command, _ []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	if len(cfg.Sources) == 0 {
		fmt.Println("No sources configured.")
		fmt.Println("Run 's3presign sources add <host>' to create one.")
		return nil
	}

	hosts := make([]string, 0, len(cfg.Sources))
	for host := range cfg.Sources {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)

	for _, host := range hosts {
		src := cfg.Sources[host]

		provider := src.Provider
		if provider == "" {
			provider = "keys"
		}

		region := src.Region
		if region == "" {
			region = "us-east-1 (default)"
		}

		fmt.Printf("%s\n  provider: %s\n  region:   %s\n", host, provider, region)
		if src.ID != "" {
			fmt.Printf("  id:       %s\n", src.ID)
			fmt.Printf("  secret:   %s\n", maskSecret(src.Secret))
		}
	}
	return nil
}

func maskSecret(s string) string {
	if showSecrets {
		return s
	}
	if s == "" {
		return ""
	}
	return "********"
}

func runSourcesAdd(cmd *cobra.Command, args []string) error {
	host := args[0]
	path := sourcesFile(cmd)

	doc, err := loadDocument(path)
	if err != nil {
		return err
	}
	table := sourceTable(doc)

	if _, exists := table[host]; exists {
		prompt := promptui.Prompt{
			Label:     fmt.Sprintf("Source '%s' already exists. Update it", host),
			IsConfirm: true,
		}
		if _, promptErr := prompt.Run(); promptErr != nil {
			fmt.Println("Cancelled.")
			return nil //nolint:nilerr // User cancelled, not an error
		}
	}

	providerSelect := promptui.Select{
		Label: "Credential provider",
		Items: []string{"keys", "env", "instance_profile"},
	}
	_, provider, err := providerSelect.Run()
	if err != nil {
		return handlePromptError(err)
	}

	entry := map[string]any{}
	if provider != "keys" {
		entry["provider"] = provider
	} else {
		idPrompt := promptui.Prompt{
			Label: "Access Key ID",
			Validate: func(input string) error {
				if input == "" {
					return errors.New("access key id is required")
				}
				return nil
			},
		}
		id, promptErr := idPrompt.Run()
		if promptErr != nil {
			return handlePromptError(promptErr)
		}

		secretPrompt := promptui.Prompt{
			Label: "Secret Access Key",
			Mask:  '*',
			Validate: func(input string) error {
				if input == "" {
					return errors.New("secret access key is required")
				}
				return nil
			},
		}
		secret, promptErr := secretPrompt.Run()
		if promptErr != nil {
			return handlePromptError(promptErr)
		}

		tokenPrompt := promptui.Prompt{
			Label: "Security Token (optional)",
			Mask:  '*',
		}
		token, promptErr := tokenPrompt.Run()
		if promptErr != nil {
			return handlePromptError(promptErr)
		}

		entry["id"] = id
		entry["secret"] = secret
		if token != "" {
			entry["security_token"] = token
		}
	}

	regionPrompt := promptui.Prompt{
		Label:   "Region",
		Default: "us-east-1",
	}
	region, err := regionPrompt.Run()
	if err != nil {
		return handlePromptError(err)
	}
	if region != "" {
		entry["region"] = region
	}

	table[host] = entry

	if err := saveDocument(path, doc); err != nil {
		return err
	}

	fmt.Printf("Source '%s' saved to %s\n", host, path)
	return nil
}

func runSourcesRemove(cmd *cobra.Command, args []string) error {
	host := args[0]
	path := sourcesFile(cmd)

	doc, err := loadDocument(path)
	if err != nil {
		return err
	}
	table := sourceTable(doc)

	if _, exists := table[host]; !exists {
		return fmt.Errorf("no s3_source entry for host %q in %s", host, path)
	}
	delete(table, host)

	if err := saveDocument(path, doc); err != nil {
		return err
	}

	fmt.Printf("Source '%s' removed from %s\n", host, path)
	return nil
}

func handlePromptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrAbort) {
		fmt.Println("Cancelled.")
		return nil
	}
	return err
}
