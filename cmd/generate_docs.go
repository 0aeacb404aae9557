package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/auraflow/internal/tools"
)

func newGenerateDocsCmd() *cobra.Command {
	var (
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate tool documentation",
		Long: `Generate markdown documentation for all tools offered to the model and
over MCP. The output is built from the tool definitions themselves, so it is
always in sync with the implementation.`,
		// Docs need no config or credentials.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerateDocs(outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runGenerateDocs(outputFile string) error {
	// Definitions do not touch the services.
	registry := tools.NewRegistry(nil, nil)
	markdown := generateToolsMarkdown(registry.Definitions())

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(markdown), 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Documentation written to: %s\n", outputFile)
	} else {
		fmt.Print(markdown)
	}

	return nil
}

func generateToolsMarkdown(defs []tools.ToolDefinition) string {
	var sb strings.Builder

	sb.WriteString("# Tools Reference\n\n")
	sb.WriteString("This document lists every tool the assistant can call, in chat and when running auraflow as an MCP server.\n\n")
	sb.WriteString("**Note:** This documentation is automatically generated from the tool definitions.\n\n")

	toolsByCategory := groupToolsByCategory(defs)

	sb.WriteString("## Table of Contents\n\n")
	categories := make([]string, 0, len(toolsByCategory))
	for category := range toolsByCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		anchor := strings.ToLower(strings.ReplaceAll(category, " ", "-"))
		sb.WriteString(fmt.Sprintf("- [%s](#%s)\n", category, anchor))
	}
	sb.WriteString("\n")

	sb.WriteString("## Acting User\n\n")
	sb.WriteString("Every tool takes a `userId` argument. It is always replaced with the authenticated user before the call runs:\n\n")
	sb.WriteString("- **Chat:** the user from the request headers or the local config\n")
	sb.WriteString("- **MCP:** the user given to `auraflow mcp`\n\n")

	for _, category := range categories {
		categoryTools := toolsByCategory[category]
		sort.Slice(categoryTools, func(i, j int) bool {
			return categoryTools[i].Name < categoryTools[j].Name
		})

		sb.WriteString(fmt.Sprintf("## %s\n\n", category))

		for _, def := range categoryTools {
			sb.WriteString(generateToolMarkdown(def))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func groupToolsByCategory(defs []tools.ToolDefinition) map[string][]tools.ToolDefinition {
	categories := make(map[string][]tools.ToolDefinition)
	for _, def := range defs {
		category := getCategoryFromToolName(def.Name)
		categories[category] = append(categories[category], def)
	}
	return categories
}

func getCategoryFromToolName(name string) string {
	prefix, _, _ := strings.Cut(name, "_")
	switch prefix {
	case "calendar":
		return "Google Calendar Tools"
	case "tasks":
		return "Google Tasks Tools"
	default:
		return "Other"
	}
}

func generateToolMarkdown(def tools.ToolDefinition) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("### %s\n\n", def.Name))

	if def.Description != "" {
		sb.WriteString(fmt.Sprintf("%s\n\n", def.Description))
	}

	if len(def.InputSchema.Properties) > 0 {
		sb.WriteString("**Arguments:**\n")

		propNames := make([]string, 0, len(def.InputSchema.Properties))
		for name := range def.InputSchema.Properties {
			propNames = append(propNames, name)
		}
		sort.Strings(propNames)

		for _, name := range propNames {
			propMap, ok := def.InputSchema.Properties[name].(map[string]any)
			if !ok {
				continue
			}

			requiredStr := "optional"
			if def.IsRequired(name) {
				requiredStr = "required"
			}
			propType := getPropertyType(propMap)

			sb.WriteString(fmt.Sprintf("- `%s` (%s, %s): ", name, propType, requiredStr))
			if desc, ok := propMap["description"].(string); ok {
				sb.WriteString(desc)
			} else {
				sb.WriteString(fmt.Sprintf("%s parameter", propType))
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func getPropertyType(prop map[string]any) string {
	if t, ok := prop["type"].(string); ok {
		return t
	}
	return "any"
}
