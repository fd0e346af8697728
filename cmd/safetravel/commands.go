package main

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"safetravel/internal/models"
	"safetravel/internal/services"
)

// withApp builds the graph for a one-shot command and tears it down after.
func withApp(cmd *cobra.Command, configPath string, fn func(ctx context.Context, a *app) error) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}

func newAccessCmd(configPath *string) *cobra.Command {
	var req services.AccessRequest

	cmd := &cobra.Command{
		Use:   "access",
		Short: "Look up emergency data as a trusted contact",
		Long:  "Authenticates by the contact's phone number. An emergency code adds session and location data; the private code adds the private vault.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *configPath, func(ctx context.Context, a *app) error {
				payload, err := a.access.Access(ctx, &req)
				if err != nil {
					if errors.Is(err, services.ErrAccessDenied) || errors.Is(err, services.ErrInvalidCode) {
						return fmt.Errorf("access denied: %w", err)
					}
					return err
				}
				return printJSON(cmd.OutOrStdout(), payload)
			})
		},
	}

	cmd.Flags().StringVar(&req.Phone, "phone", "", "verifier phone number")
	cmd.Flags().StringVar(&req.EmergencyCode, "code", "", "emergency access code from the alert message")
	cmd.Flags().StringVar(&req.PrivateCode, "private-code", "", "private vault access code")
	_ = cmd.MarkFlagRequired("phone")
	return cmd
}

func newVaultCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vault",
		Short: "Manage shared and private vault entries",
	}

	cmd.AddCommand(newVaultAddCmd(configPath))
	cmd.AddCommand(newVaultListCmd(configPath))
	cmd.AddCommand(newVaultDeleteCmd(configPath))
	cmd.AddCommand(newVaultFlagCmd(configPath))
	cmd.AddCommand(newVaultCodeCmd(configPath))
	return cmd
}

func newVaultAddCmd(configPath *string) *cobra.Command {
	var (
		private bool
		entry   services.VaultEntryRequest
		kind    string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a vault entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			entry.Type = models.VaultEntryType(kind)
			return withApp(cmd, *configPath, func(ctx context.Context, a *app) error {
				add := a.vault.AddShared
				if private {
					add = a.vault.AddPrivate
				}
				created, err := add(ctx, &entry)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), created)
			})
		},
	}

	cmd.Flags().BoolVar(&private, "private", false, "store in the private vault")
	cmd.Flags().StringVar(&kind, "type", string(models.VaultEntryText), "entry type: text, photo or voice")
	cmd.Flags().StringVar(&entry.Title, "title", "", "entry title")
	cmd.Flags().StringVar(&entry.Content, "content", "", "text or media reference")
	cmd.Flags().StringVar(&entry.Description, "description", "", "optional description")
	cmd.Flags().BoolVar(&entry.Flagged, "flagged", false, "keep a private entry past its expiry")
	return cmd
}

func newVaultListCmd(configPath *string) *cobra.Command {
	var private bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List vault entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *configPath, func(ctx context.Context, a *app) error {
				list := a.vault.ListShared
				if private {
					list = a.vault.ListPrivate
				}
				entries, err := list(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), entries)
			})
		},
	}

	cmd.Flags().BoolVar(&private, "private", false, "list the private vault")
	return cmd
}

func newVaultDeleteCmd(configPath *string) *cobra.Command {
	var private bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a vault entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *configPath, func(ctx context.Context, a *app) error {
				remove := a.vault.DeleteShared
				if private {
					remove = a.vault.DeletePrivate
				}
				if err := remove(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&private, "private", false, "delete from the private vault")
	return cmd
}

func newVaultFlagCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "flag <id>",
		Short: "Toggle the keep flag on a private entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *configPath, func(ctx context.Context, a *app) error {
				entry, err := a.vault.ToggleFlag(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), entry)
			})
		},
	}
}

func newVaultCodeCmd(configPath *string) *cobra.Command {
	var regenerate bool

	cmd := &cobra.Command{
		Use:   "code",
		Short: "Show or regenerate the private vault access code",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *configPath, func(ctx context.Context, a *app) error {
				code, err := a.vault.GetPrivateAccessCode(ctx)
				if err != nil {
					return err
				}
				if regenerate || code == "" {
					if code, err = a.vault.GeneratePrivateAccessCode(ctx); err != nil {
						return err
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), code)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&regenerate, "regenerate", false, "replace the current code")
	return cmd
}

func newContactsCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contacts",
		Short: "Manage emergency contacts",
	}

	var req services.ContactRequest
	var platform string
	add := &cobra.Command{
		Use:   "add",
		Short: "Add an emergency contact",
		RunE: func(cmd *cobra.Command, args []string) error {
			req.PushPlatform = models.PushPlatform(platform)
			return withApp(cmd, *configPath, func(ctx context.Context, a *app) error {
				contact, err := a.contacts.AddContact(ctx, &req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), contact)
			})
		},
	}
	add.Flags().StringVar(&req.Name, "name", "", "contact name")
	add.Flags().StringVar(&req.Phone, "phone", "", "phone number with country code")
	add.Flags().StringVar(&req.WhatsAppNumber, "whatsapp", "", "WhatsApp number if different")
	add.Flags().StringVar(&req.Email, "email", "", "email address")
	add.Flags().StringVar(&req.Relationship, "relationship", "", "relationship to the owner")
	add.Flags().BoolVar(&req.IsPrimary, "primary", false, "mark as primary contact")
	add.Flags().StringVar(&req.PushToken, "push-token", "", "device token for push alerts")
	add.Flags().StringVar(&platform, "push-platform", "", "fcm or apns")

	list := &cobra.Command{
		Use:   "list",
		Short: "List emergency contacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *configPath, func(ctx context.Context, a *app) error {
				contacts, err := a.contacts.ListContacts(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), contacts)
			})
		},
	}

	remove := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove an emergency contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *configPath, func(ctx context.Context, a *app) error {
				if err := a.contacts.RemoveContact(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
				return nil
			})
		},
	}

	cmd.AddCommand(add, list, remove)
	return cmd
}

func newSessionsCmd(configPath *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "sessions [id]",
		Short: "List stored emergency sessions, newest first, or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *configPath, func(ctx context.Context, a *app) error {
				if len(args) == 1 {
					session, err := a.sessionRepo.GetByID(ctx, args[0])
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), session)
				}
				sessions, err := a.sessionRepo.List(ctx)
				if err != nil {
					return err
				}
				sort.SliceStable(sessions, func(i, j int) bool {
					return sessions[i].StartTime.After(sessions[j].StartTime)
				})
				if limit > 0 && len(sessions) > limit {
					sessions = sessions[:limit]
				}
				return printJSON(cmd.OutOrStdout(), sessions)
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum sessions to show (0 for all)")
	return cmd
}

func newMessagesCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "messages",
		Short: "Show the outbound message log",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *configPath, func(ctx context.Context, a *app) error {
				messages, err := a.notifier.History(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), messages)
			})
		},
	}
}

func newCleanupCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Apply data retention once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *configPath, func(ctx context.Context, a *app) error {
				report, err := a.cleanup.Run(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), report)
			})
		},
	}
}

func newSettingsCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change user settings",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the current settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *configPath, func(ctx context.Context, a *app) error {
				settings, err := a.settings.GetSettings(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), settings)
			})
		},
	}

	var (
		voiceCommand string
		threshold    float64
		retention    int
		whatsApp     bool
		speedOn      bool
	)
	set := &cobra.Command{
		Use:   "set",
		Short: "Change individual settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *configPath, func(ctx context.Context, a *app) error {
				settings, err := a.settings.GetSettings(ctx)
				if err != nil {
					return err
				}
				flags := cmd.Flags()
				if flags.Changed("voice-command") {
					settings.VoiceCommand = voiceCommand
				}
				if flags.Changed("speed-threshold") {
					settings.SpeedThreshold = threshold
				}
				if flags.Changed("retention-days") {
					settings.DataRetentionDays = retention
				}
				if flags.Changed("whatsapp") {
					settings.WhatsAppIntegrationEnabled = whatsApp
				}
				if flags.Changed("speed-detection") {
					settings.SpeedDetectionEnabled = speedOn
				}
				if err := a.settings.UpdateSettings(ctx, settings); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), settings)
			})
		},
	}
	set.Flags().StringVar(&voiceCommand, "voice-command", "", "trigger phrase")
	set.Flags().Float64Var(&threshold, "speed-threshold", 0, "speed alert threshold in km/h")
	set.Flags().IntVar(&retention, "retention-days", 0, "days to keep sessions and speed data")
	set.Flags().BoolVar(&whatsApp, "whatsapp", true, "send alerts over WhatsApp")
	set.Flags().BoolVar(&speedOn, "speed-detection", true, "watch for unusual speed")

	cmd.AddCommand(show, set, newPreferenceCmd(configPath, "theme"), newPreferenceCmd(configPath, "language"))
	return cmd
}

// newPreferenceCmd prints the preference, or stores it when an argument is
// given.
func newPreferenceCmd(configPath *string, name string) *cobra.Command {
	return &cobra.Command{
		Use:   name + " [value]",
		Short: "Show or change the app " + name,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *configPath, func(ctx context.Context, a *app) error {
				get, set := a.settings.GetTheme, a.settings.SetTheme
				if name == "language" {
					get, set = a.settings.GetLanguage, a.settings.SetLanguage
				}
				if len(args) == 1 {
					if err := set(ctx, args[0]); err != nil {
						return err
					}
				}
				value, err := get(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), value)
				return nil
			})
		},
	}
}
