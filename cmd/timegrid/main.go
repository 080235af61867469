package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/christopherklint97/timegrid/internal/calendar"
	"github.com/christopherklint97/timegrid/internal/config"
	"github.com/christopherklint97/timegrid/internal/dataverse"
	"github.com/christopherklint97/timegrid/internal/host"
	"github.com/christopherklint97/timegrid/internal/notify"
	"github.com/christopherklint97/timegrid/internal/scheduler"
	"github.com/christopherklint97/timegrid/internal/store"
	"github.com/christopherklint97/timegrid/internal/tui"
	"github.com/christopherklint97/timegrid/internal/week"
)

var rootCmd = &cobra.Command{
	Use:          "timegrid",
	Short:        "Weekly timesheet grid",
	Long:         "timegrid shows a week of time entries as a grid and lets you add, move, clone and submit them against a local database or Dataverse.",
	RunE:         runUI,
	SilenceUsage: true,
}

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Open the interactive week grid",
	RunE:  runUI,
}

var weekCmd = &cobra.Command{
	Use:   "week",
	Short: "Print a week of time entries",
	RunE:  runWeek,
}

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit the draft entries of a week or a single day",
	RunE:  runSubmit,
}

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List projects and their tasks",
	RunE:  runProjects,
}

var projectsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a project to the local database",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectsAdd,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a week as an iCalendar file",
	RunE:  runExport,
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of snapshots and intents",
	RunE:  runSchema,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to Dataverse with a device code",
	RunE:  runLogin,
}

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Run the daily reminder for unsubmitted drafts",
	RunE:  runRemind,
}

var remindStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running reminder",
	RunE:  runRemindStop,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Open config file in your editor",
	RunE:  runConfig,
}

func init() {
	rootCmd.PersistentFlags().String("week", "", `Week to show: a date (2024-01-10) or a phrase ("last week")`)

	submitCmd.Flags().String("day", "", "Submit only this day (YYYY-MM-DD)")
	projectsAddCmd.Flags().StringSlice("task", nil, "Task name (repeatable)")
	projectsAddCmd.Flags().Bool("inactive", false, "Create the project as inactive")
	exportCmd.Flags().StringP("output", "o", "", "Write to file instead of stdout")

	projectsCmd.AddCommand(projectsAddCmd)
	remindCmd.AddCommand(remindStopCmd)

	rootCmd.AddCommand(uiCmd)
	rootCmd.AddCommand(weekCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(projectsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(remindCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func anchorFor(cmd *cobra.Command, e *env) (time.Time, error) {
	value, _ := cmd.Flags().GetString("week")
	last, err := e.db.GetState(store.StateLastWeek)
	if err != nil {
		e.logger.Warn("reading last viewed week failed", "error", err)
	}
	return resolveAnchor(value, last, time.Now())
}

// loadWeek loads the collections once through a control that keeps the last render.
func loadWeek(ctx context.Context, e *env) (*host.Control, week.Snapshot, error) {
	var snap week.Snapshot
	ctrl := host.NewControl(host.Bind(e.session(), func(s week.Snapshot) { snap = s }), e.logger)
	if err := ctrl.Init(ctx); err != nil {
		return nil, snap, err
	}
	return ctrl, snap, nil
}

func runUI(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	anchor, err := anchorFor(cmd, e)
	if err != nil {
		return err
	}

	var p *tea.Program
	render := func(s week.Snapshot) {
		p.Send(tui.SnapshotMsg{Snapshot: s})
	}
	ctrl := host.NewControl(host.Bind(e.session(), render), e.logger)
	defer ctrl.Destroy()

	app := tui.NewApp(ctrl, anchor)
	p = tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}

	if err := e.db.SetState(store.StateLastWeek, week.FormatDate(app.Result())); err != nil {
		e.logger.Warn("saving last viewed week failed", "error", err)
	}
	return nil
}

func runWeek(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	anchor, err := anchorFor(cmd, e)
	if err != nil {
		return err
	}

	_, snap, err := loadWeek(ctx, e)
	if err != nil {
		return err
	}

	printWeek(cmd.OutOrStdout(), week.ComputeWeek(anchor, snap.Entries), snap.Projects)
	return nil
}

func runSubmit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	weekValue, _ := cmd.Flags().GetString("week")
	dayValue, _ := cmd.Flags().GetString("day")
	anchor, err := submitAnchor(weekValue, dayValue, time.Now())
	if err != nil {
		return err
	}

	ctrl, snap, err := loadWeek(ctx, e)
	if err != nil {
		return err
	}

	wk := week.ComputeWeek(anchor, snap.Entries)
	days := wk.Days
	if dayValue != "" {
		d, _ := wk.Day(dayValue)
		days = []week.Day{d}
	}

	var in week.Interaction
	intent, ok := in.SubmitRequest(days...)
	if !ok {
		fmt.Fprintln(cmd.OutOrStdout(), "No draft entries to submit.")
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Submitting %d draft entries for %s...\n", len(intent.EntryIDs), wk.Label())
	if err := ctrl.Dispatch(ctx, intent); err != nil {
		return err
	}
	fmt.Fprintf(out, "Submitted %d entries for %s.\n", len(intent.EntryIDs), wk.Label())
	return nil
}

// submitAnchor picks the week a submit acts on. Unlike the grid it never falls
// back to the last viewed week: without --week or --day it is the current one.
func submitAnchor(weekValue, dayValue string, now time.Time) (time.Time, error) {
	if dayValue != "" {
		day, err := week.ParseDate(dayValue)
		if err != nil {
			return time.Time{}, err
		}
		return week.StartOfWeek(day), nil
	}
	return resolveAnchor(weekValue, "", now)
}

func runProjects(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	projects, err := e.backend.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("fetching projects: %w", err)
	}

	printProjects(cmd.OutOrStdout(), projects)
	return nil
}

func runProjectsAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	if e.cfg.Backend.Kind != config.BackendLocal {
		return fmt.Errorf("projects can only be added to the local backend; manage %s projects in the remote system", e.cfg.Backend.Kind)
	}

	taskNames, _ := cmd.Flags().GetStringSlice("task")
	inactive, _ := cmd.Flags().GetBool("inactive")

	p := week.Project{Name: args[0], Status: week.ProjectActive}
	if inactive {
		p.Status = week.ProjectInactive
	}
	for _, name := range taskNames {
		p.Tasks = append(p.Tasks, week.Task{Name: name})
	}

	saved, err := e.db.UpsertProject(ctx, p)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added project %s (%s) with %d tasks.\n", saved.Name, saved.ID, len(saved.Tasks))
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	anchor, err := anchorFor(cmd, e)
	if err != nil {
		return err
	}

	_, snap, err := loadWeek(ctx, e)
	if err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating export file: %w", err)
		}
		defer f.Close()
		out = f
	}

	return calendar.Export(out, week.ComputeWeek(anchor, snap.Entries), snap.Projects, time.Now())
}

func runSchema(cmd *cobra.Command, args []string) error {
	data, err := host.Schema()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

func runLogin(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	dv := cfg.Dataverse
	if dv.URL == "" || dv.TenantID == "" || dv.ClientID == "" {
		return fmt.Errorf("set dataverse.url, tenant_id and client_id first; run 'timegrid config'")
	}

	out := cmd.OutOrStdout()
	tokens := dataverse.NewTokenStore(dv.TokenFile)
	err = dataverse.Login(cmd.Context(), dataverse.DeviceConfig(dv.TenantID, dv.ClientID, dv.URL), tokens,
		func(da *oauth2.DeviceAuthResponse) {
			fmt.Fprintf(out, "To sign in, open %s and enter the code %s\n", da.VerificationURI, da.UserCode)
		})
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "Signed in.")
	return nil
}

func runRemind(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	s := scheduler.New(e.cfg.Reminder, e.session(), notify.NewDesktop(), e.logger, cmd.OutOrStdout())
	return s.Run(ctx)
}

func runRemindStop(cmd *cobra.Command, args []string) error {
	pid, err := scheduler.ReadPID()
	if err != nil {
		return err
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("finding process %d: %w", pid, err)
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("sending stop signal: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Sent stop signal to timegrid reminder (PID %d)\n", pid)
	return nil
}

func runConfig(cmd *cobra.Command, args []string) error {
	configPath, err := config.WriteDefault()
	if err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}

	editor := editorCommand(os.Getenv("EDITOR"), configPath)
	fmt.Printf("Opening %s with %s...\n", configPath, editor.Args[0])

	if editor.Err != nil {
		fmt.Printf("Could not open editor. Config file is at: %s\n", configPath)
		return nil
	}
	return editor.Run()
}

// editorCommand runs $EDITOR (which may carry flags, like "code -w") on path
// with the terminal attached. The editor is looked up on PATH; vi is the
// fallback.
func editorCommand(editor, path string) *exec.Cmd {
	fields := strings.Fields(editor)
	if len(fields) == 0 {
		fields = []string{"vi"}
	}
	c := exec.Command(fields[0], append(fields[1:], path)...)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	return c
}
