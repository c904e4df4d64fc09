package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/radz2291/RZ-Property/internal/auth"
	"github.com/radz2291/RZ-Property/internal/errs"
	"github.com/radz2291/RZ-Property/internal/models"
	"github.com/radz2291/RZ-Property/internal/services"
)

func newMigrateImagesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-images",
		Short: "Persist the image gallery for properties still in the legacy shape",
		Long: `Rewrites every property that has no property_images yet, deriving the
gallery from the legacy featured_image and images fields. Running it again
changes nothing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			a, err := newApp(ctx, "cli")
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.properties.MigrateImages(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrated %d properties\n", n)
			return nil
		},
	}
}

// seedFile is the layout of the seed YAML. Content sections are kept as
// generic maps so they go through the same schema validation as the API.
type seedFile struct {
	Agent *services.AgentProfile `yaml:"agent"`
	Admin *struct {
		Username string `yaml:"username"`
		Password string `yaml:"password"`
	} `yaml:"admin"`
	Content map[string]map[string]interface{} `yaml:"content"`
}

func readSeedFile(path string) (*seedFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	var seed seedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	return &seed, nil
}

// defaultContent is written for sections the seed file leaves out and the
// database does not have yet.
var defaultContent = []models.SiteContent{
	models.HeroContent{
		Title:               "Find Your Dream Property",
		Description:         "Browse homes, shops and land for sale or rent.",
		BackgroundImage:     "/images/hero.jpg",
		PrimaryButtonText:   "Browse Properties",
		PrimaryButtonURL:    "/properties",
		SecondaryButtonText: "Contact Us",
		SecondaryButtonURL:  "/contact",
	},
	models.FAQContent{
		Title:       "FAQ",
		Description: "Answers to common questions.",
		Items: []models.FAQItem{
			{Question: "How do I arrange a viewing?", Answer: "Send an inquiry from the property page and we will call you back."},
		},
	},
}

func newSeedCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert the agent profile, an admin user and the site content",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := readSeedFile(file)
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)
			a, err := newApp(ctx, "cli")
			if err != nil {
				return err
			}
			defer a.Close()
			return runSeed(ctx, cmd, a, seed)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "seed.yaml", "seed YAML file")
	return cmd
}

func runSeed(ctx context.Context, cmd *cobra.Command, a *app, seed *seedFile) error {
	out := cmd.OutOrStdout()

	if seed.Agent != nil {
		agent, err := a.agent.SaveProfile(ctx, *seed.Agent)
		if err != nil {
			return fmt.Errorf("agent: %w", err)
		}
		fmt.Fprintf(out, "agent %s saved\n", agent.ID)
	}

	if seed.Admin != nil {
		user, err := a.adminAuth.EnsureAdmin(ctx, seed.Admin.Username, seed.Admin.Password)
		if err != nil {
			return fmt.Errorf("admin: %w", err)
		}
		fmt.Fprintf(out, "admin %s ready\n", user.Username)
	}

	for name, section := range seed.Content {
		payload, err := json.Marshal(section)
		if err != nil {
			return fmt.Errorf("content %s: %w", name, err)
		}
		if _, err := a.content.PutContent(ctx, models.ContentSection(name), payload); err != nil {
			return fmt.Errorf("content %s: %w", name, err)
		}
		fmt.Fprintf(out, "content %s saved\n", name)
	}

	for _, c := range defaultContent {
		if _, ok := seed.Content[string(c.Section())]; ok {
			continue
		}
		_, err := a.content.GetContent(ctx, c.Section())
		if err == nil {
			continue
		}
		if !errors.Is(err, errs.ErrNotFound) {
			return fmt.Errorf("content %s: %w", c.Section(), err)
		}
		if err := a.content.SaveContent(ctx, c); err != nil {
			return fmt.Errorf("content %s: %w", c.Section(), err)
		}
		fmt.Fprintf(out, "content %s defaulted\n", c.Section())
	}
	return nil
}

func newHashPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash for an admin password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
