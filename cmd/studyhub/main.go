package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"studyhub/internal/bootstrap"
	goaldto "studyhub/internal/modules/goal/dto"
	subjectdto "studyhub/internal/modules/subject/dto"
	weekdomain "studyhub/internal/modules/week/domain"
	"studyhub/internal/platform/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type globalFlags struct {
	dataDir string
	apiURL  string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "studyhub",
		Short:         "Track study subjects and weekly goals",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", config.DefaultDataDir(), "directory for session, logs and exports")
	root.PersistentFlags().StringVar(&flags.apiURL, "api", "", "API base URL (overrides config)")

	root.AddCommand(newTUICmd(flags))
	root.AddCommand(newLoginCmd(flags))
	root.AddCommand(newRegisterCmd(flags))
	root.AddCommand(newLogoutCmd(flags))
	root.AddCommand(newWhoAmICmd(flags))
	root.AddCommand(newSubjectCmd(flags))
	root.AddCommand(newSectionCmd(flags))
	root.AddCommand(newTopicCmd(flags))
	root.AddCommand(newGoalCmd(flags))
	root.AddCommand(newServeCmd(flags))
	return root
}

func loadConfig(flags *globalFlags) (config.Config, error) {
	cfg, err := config.New(flags.dataDir)
	if err != nil {
		return config.Config{}, err
	}
	if api := strings.TrimSpace(flags.apiURL); api != "" {
		cfg.APIBaseURL = api
	}
	return cfg, nil
}

func loadApp(flags *globalFlags) (*bootstrap.App, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	return bootstrap.New(cfg)
}

// withSession runs fn with a restored session. Commands that talk to the
// API on behalf of the user go through here.
func withSession(flags *globalFlags, fn func(ctx context.Context, app *bootstrap.App) error) error {
	app, err := loadApp(flags)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := context.Background()
	restored, err := app.AccountCLI.Restore(ctx)
	if err != nil {
		return err
	}
	if !restored.Authenticated {
		return fmt.Errorf("not logged in; run `studyhub login` first")
	}
	return fn(ctx, app)
}

func parseWeek(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Now(), nil
	}
	return weekdomain.ParseDay(value, time.Local)
}

// ─── tui ─────────────────────────────────────────────────────────────────────

func newTUICmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the terminal UI",
		RunE: func(_ *cobra.Command, _ []string) error {
			app, err := loadApp(flags)
			if err != nil {
				return err
			}
			defer app.Close()
			return bootstrap.RunTUI(app)
		},
	}
}

// ─── account ─────────────────────────────────────────────────────────────────

func newLoginCmd(flags *globalFlags) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login --email <email> --password <password>",
		Short: "Sign in and store the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(flags)
			if err != nil {
				return err
			}
			defer app.Close()
			user, err := app.AccountCLI.Login(context.Background(), email, password)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s <%s>\n", user.Name, user.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func newRegisterCmd(flags *globalFlags) *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "register --name <name> --email <email> --password <password>",
		Short: "Create an account and store the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(flags)
			if err != nil {
				return err
			}
			defer app.Close()
			user, err := app.AccountCLI.Register(context.Background(), name, email, password)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "registered %s <%s> id=%s\n", user.Name, user.Email, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func newLogoutCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(flags)
			if err != nil {
				return err
			}
			defer app.Close()
			if err := app.AccountCLI.Logout(context.Background()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

func newWhoAmICmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(flags, func(ctx context.Context, app *bootstrap.App) error {
				user, err := app.AccountCLI.WhoAmI(ctx)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "id: %s\nname: %s\nemail: %s\n", user.ID, user.Name, user.Email)
				return nil
			})
		},
	}
}

// ─── subjects ────────────────────────────────────────────────────────────────

func newSubjectCmd(flags *globalFlags) *cobra.Command {
	subject := &cobra.Command{Use: "subject", Short: "Manage subjects"}

	var tree bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List subjects",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(flags, func(ctx context.Context, app *bootstrap.App) error {
				subjects, err := app.SubjectCLI.List(ctx)
				if err != nil {
					return err
				}
				if len(subjects) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no subjects")
					return nil
				}
				for _, s := range subjects {
					printSubject(cmd.OutOrStdout(), s, tree)
				}
				return nil
			})
		},
	}
	list.Flags().BoolVar(&tree, "tree", false, "include sections and topics")

	var color string
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a subject",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(flags, func(ctx context.Context, app *bootstrap.App) error {
				s, err := app.SubjectCLI.Create(ctx, args[0], color)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s) color=%s\n", s.Name, s.ID, s.Color)
				return nil
			})
		},
	}
	add.Flags().StringVar(&color, "color", "", "display colour (defaults to the first palette colour)")

	rm := &cobra.Command{
		Use:   "rm <subject-id>",
		Short: "Delete a subject",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(flags, func(ctx context.Context, app *bootstrap.App) error {
				if err := app.SubjectCLI.Delete(ctx, args[0]); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
				return nil
			})
		},
	}

	colorCmd := &cobra.Command{
		Use:   "color <subject-id> [colour]",
		Short: "Set a subject colour, or advance to the next palette colour",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(flags, func(ctx context.Context, app *bootstrap.App) error {
				var next, current string
				if len(args) == 2 {
					next = args[1]
				} else {
					s, err := findSubject(ctx, app, args[0])
					if err != nil {
						return err
					}
					current = s.Color
				}
				s, err := app.SubjectCLI.SetColor(ctx, args[0], next, current)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s color=%s\n", s.Name, s.Color)
				return nil
			})
		},
	}

	export := &cobra.Command{
		Use:   "export <subject-id>",
		Short: "Write a subject outline as Markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(flags, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.SubjectCLI.Export(ctx, args[0])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "exported %d topics to %s\n", out.TopicCount, out.Path)
				return nil
			})
		},
	}

	subject.AddCommand(list, add, rm, colorCmd, export)
	return subject
}

func findSubject(ctx context.Context, app *bootstrap.App, subjectID string) (subjectdto.SubjectOutput, error) {
	subjects, err := app.SubjectCLI.List(ctx)
	if err != nil {
		return subjectdto.SubjectOutput{}, err
	}
	for _, s := range subjects {
		if s.ID == subjectID {
			return s, nil
		}
	}
	return subjectdto.SubjectOutput{}, fmt.Errorf("subject %s not found", subjectID)
}

func printSubject(w io.Writer, s subjectdto.SubjectOutput, tree bool) {
	_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d topics\n", s.ID, s.Color, s.Name, s.TopicCount)
	if !tree {
		return
	}
	for _, sec := range s.Sections {
		_, _ = fmt.Fprintf(w, "  %s\t%s\n", sec.ID, sec.Name)
		for _, t := range sec.Topics {
			_, _ = fmt.Fprintf(w, "    %s\t%s\n", t.ID, t.Name)
		}
	}
}

func newSectionCmd(flags *globalFlags) *cobra.Command {
	section := &cobra.Command{Use: "section", Short: "Manage sections of a subject"}

	section.AddCommand(&cobra.Command{
		Use:   "add <subject-id> <name>",
		Short: "Add a section",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(flags, func(ctx context.Context, app *bootstrap.App) error {
				s, err := app.SubjectCLI.AddSection(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				printSubject(cmd.OutOrStdout(), s, true)
				return nil
			})
		},
	})
	section.AddCommand(&cobra.Command{
		Use:   "rm <subject-id> <section-id>",
		Short: "Delete a section and its topics",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(flags, func(ctx context.Context, app *bootstrap.App) error {
				s, err := app.SubjectCLI.DeleteSection(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				printSubject(cmd.OutOrStdout(), s, true)
				return nil
			})
		},
	})
	return section
}

func newTopicCmd(flags *globalFlags) *cobra.Command {
	topic := &cobra.Command{Use: "topic", Short: "Manage topics of a section"}

	topic.AddCommand(&cobra.Command{
		Use:   "add <subject-id> <section-id> <name>",
		Short: "Add a topic",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(flags, func(ctx context.Context, app *bootstrap.App) error {
				s, err := app.SubjectCLI.AddTopic(ctx, args[0], args[1], args[2])
				if err != nil {
					return err
				}
				printSubject(cmd.OutOrStdout(), s, true)
				return nil
			})
		},
	})
	topic.AddCommand(&cobra.Command{
		Use:   "rm <subject-id> <section-id> <topic-id>",
		Short: "Delete a topic; the section stays",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(flags, func(ctx context.Context, app *bootstrap.App) error {
				s, err := app.SubjectCLI.DeleteTopic(ctx, args[0], args[1], args[2])
				if err != nil {
					return err
				}
				printSubject(cmd.OutOrStdout(), s, true)
				return nil
			})
		},
	})
	return topic
}

// ─── weekly goals ────────────────────────────────────────────────────────────

func newGoalCmd(flags *globalFlags) *cobra.Command {
	goal := &cobra.Command{Use: "goal", Short: "Manage weekly goals"}

	var weekFlag string
	week := &cobra.Command{
		Use:   "week [--week YYYY-MM-DD]",
		Short: "Show the goals of a week",
		RunE: func(cmd *cobra.Command, _ []string) error {
			day, err := parseWeek(weekFlag)
			if err != nil {
				return err
			}
			return withSession(flags, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.GoalCLI.Week(ctx, day)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(w, "%s (%s)  goals=%d topics=%d/%d\n", out.Label, out.Key,
					out.Summary.Count, out.Summary.CompletedTopics, out.Summary.TotalTopics)
				for _, g := range out.Goals {
					printGoal(w, g)
				}
				return nil
			})
		},
	}
	week.Flags().StringVar(&weekFlag, "week", "", "any date in the week (default today)")

	var addWeek, addColor string
	var addTopics []string
	add := &cobra.Command{
		Use:   "add <subject> [--topic <title>]...",
		Short: "Create a goal for a week",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseWeek(addWeek)
			if err != nil {
				return err
			}
			return withSession(flags, func(ctx context.Context, app *bootstrap.App) error {
				g, err := app.GoalCLI.Create(ctx, args[0], addColor, day, addTopics)
				if err != nil {
					return err
				}
				printGoal(cmd.OutOrStdout(), g)
				return nil
			})
		},
	}
	add.Flags().StringVar(&addWeek, "week", "", "any date in the week (default today)")
	add.Flags().StringVar(&addColor, "color", "", "display colour")
	add.Flags().StringArrayVar(&addTopics, "topic", nil, "topic title (repeatable)")

	var editSubject, editColor string
	edit := &cobra.Command{
		Use:   "edit <goal-id> --subject <label> [--color <colour>]",
		Short: "Change a goal's subject label or colour",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(flags, func(ctx context.Context, app *bootstrap.App) error {
				g, err := app.GoalCLI.Update(ctx, args[0], editSubject, editColor)
				if err != nil {
					return err
				}
				printGoal(cmd.OutOrStdout(), g)
				return nil
			})
		},
	}
	edit.Flags().StringVar(&editSubject, "subject", "", "subject label")
	edit.Flags().StringVar(&editColor, "color", "", "display colour")

	rm := &cobra.Command{
		Use:   "rm <goal-id>",
		Short: "Delete a goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(flags, func(ctx context.Context, app *bootstrap.App) error {
				if err := app.GoalCLI.Delete(ctx, args[0]); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
				return nil
			})
		},
	}

	var stripWeek string
	var before, after int
	strip := &cobra.Command{
		Use:   "strip",
		Short: "Summarise the weeks around a date",
		RunE: func(cmd *cobra.Command, _ []string) error {
			day, err := parseWeek(stripWeek)
			if err != nil {
				return err
			}
			return withSession(flags, func(ctx context.Context, app *bootstrap.App) error {
				summaries, err := app.GoalCLI.Strip(ctx, day, before, after)
				if err != nil {
					return err
				}
				for _, s := range summaries {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\tgoals=%d\ttopics=%d/%d\n", s.Label, s.Count, s.CompletedTopics, s.TotalTopics)
				}
				return nil
			})
		},
	}
	strip.Flags().StringVar(&stripWeek, "week", "", "any date in the centre week (default today)")
	strip.Flags().IntVar(&before, "before", 1, "weeks before")
	strip.Flags().IntVar(&after, "after", 2, "weeks after")

	var exportWeek string
	export := &cobra.Command{
		Use:   "export [--week YYYY-MM-DD]",
		Short: "Write a week's goals as a Markdown note",
		RunE: func(cmd *cobra.Command, _ []string) error {
			day, err := parseWeek(exportWeek)
			if err != nil {
				return err
			}
			return withSession(flags, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.GoalCLI.Export(ctx, day)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "exported %d goals for %s to %s\n", out.Count, out.Key, out.Path)
				return nil
			})
		},
	}
	export.Flags().StringVar(&exportWeek, "week", "", "any date in the week (default today)")

	goal.AddCommand(week, add, edit, rm, newGoalTopicCmd(flags), strip, export)
	return goal
}

func newGoalTopicCmd(flags *globalFlags) *cobra.Command {
	topic := &cobra.Command{Use: "topic", Short: "Manage the topics of a goal"}

	topic.AddCommand(&cobra.Command{
		Use:   "add <goal-id> <title>",
		Short: "Add a topic to a goal",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(flags, func(ctx context.Context, app *bootstrap.App) error {
				g, err := app.GoalCLI.AddTopic(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				printGoal(cmd.OutOrStdout(), g)
				return nil
			})
		},
	})
	topic.AddCommand(&cobra.Command{
		Use:   "toggle <goal-id> <topic-id>",
		Short: "Flip a topic between done and not done",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(flags, func(ctx context.Context, app *bootstrap.App) error {
				g, err := app.GoalCLI.ToggleTopic(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				printGoal(cmd.OutOrStdout(), g)
				return nil
			})
		},
	})
	topic.AddCommand(&cobra.Command{
		Use:   "rm <goal-id> <topic-id>",
		Short: "Remove a topic from a goal",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(flags, func(ctx context.Context, app *bootstrap.App) error {
				g, err := app.GoalCLI.DeleteTopic(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				printGoal(cmd.OutOrStdout(), g)
				return nil
			})
		},
	})
	return topic
}

func printGoal(w io.Writer, g goaldto.GoalOutput) {
	_, _ = fmt.Fprintf(w, "%s\t%s\t%d%%\n", g.ID, g.Subject, g.Progress)
	for _, t := range g.Topics {
		box := "[ ]"
		if t.Completed {
			box = "[x]"
		}
		_, _ = fmt.Fprintf(w, "  %s %s\t%s\n", box, t.ID, t.Title)
	}
}

// ─── server ──────────────────────────────────────────────────────────────────

func newServeCmd(flags *globalFlags) *cobra.Command {
	var listen, db string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reference API server",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Server.ListenAddr = listen
			}
			if db != "" {
				cfg.Server.DBPath = db
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return bootstrap.Serve(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&db, "db", "", "SQLite database path (overrides config)")
	return cmd
}
