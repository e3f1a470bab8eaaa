package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/amanifadhili/encubation-management-system-sub001/config"
	"github.com/amanifadhili/encubation-management-system-sub001/internal/cli"
	"github.com/amanifadhili/encubation-management-system-sub001/internal/gateway"
	"github.com/amanifadhili/encubation-management-system-sub001/internal/model"
	"github.com/amanifadhili/encubation-management-system-sub001/internal/onboarding"
	"github.com/amanifadhili/encubation-management-system-sub001/pkg/logger"
	"github.com/amanifadhili/encubation-management-system-sub001/pkg/token"
	"github.com/amanifadhili/encubation-management-system-sub001/storage/local"
)

var (
	ownerFlag    string
	tokenFlag    string
	serverFlag   string
	draftDirFlag string
	logLevelFlag string
	tokenTTLFlag time.Duration

	rootCmd = &cobra.Command{
		Use:           "onboard",
		Short:         "Complete your incubation profile from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.InitConsole(logLevelFlag)
		},
	}

	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show profile completion and the state of every phase",
		Args:  cobra.NoArgs,
		RunE:  runStatus,
	}

	submitCmd = &cobra.Command{
		Use:   "submit <phase> field=value...",
		Short: "Submit fields for a phase",
		Example: `  onboard submit 1 first_name=Ada last_name=Lovelace email=ada@example.com phone=+250788123456
  onboard submit phase3 current_role=Developer skills=Go,SQL support_interests=Mentorship`,
		Args: cobra.MinimumNArgs(2),
		RunE: runSubmit,
	}

	fillCmd = &cobra.Command{
		Use:   "fill <phase>",
		Short: "Fill a phase interactively; input is autosaved as a draft",
		Args:  cobra.ExactArgs(1),
		RunE:  runFill,
	}

	draftCmd = &cobra.Command{
		Use:   "draft <phase>",
		Short: "Show the local draft of a phase",
		Args:  cobra.ExactArgs(1),
		RunE:  runDraft,
	}

	devTokenCmd = &cobra.Command{
		Use:   "dev-token <uid>",
		Short: "Mint an access token for local testing (requires JWT_SECRET)",
		Args:  cobra.ExactArgs(1),
		RunE:  runDevToken,
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&ownerFlag, "owner", "", "owner of the local drafts (defaults to the token uid)")
	flags.StringVar(&tokenFlag, "token", config.Cfg.PortalToken, "portal access token")
	flags.StringVar(&serverFlag, "server", config.Cfg.GatewayBaseURL(), "profile service base URL")
	flags.StringVar(&draftDirFlag, "draft-dir", config.Cfg.DraftDir, "directory of the local draft store")
	flags.StringVar(&logLevelFlag, "log-level", "warn", "log level")

	devTokenCmd.Flags().DurationVar(&tokenTTLFlag, "ttl", 0, "token lifetime (defaults to JWT_EXPIRE_MINUTES)")

	rootCmd.AddCommand(statusCmd, submitCmd, fillCmd, draftCmd, devTokenCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var errNotSaved = errors.New("phase was not saved")

// session 一次命令使用的控制器与本地草稿库
type session struct {
	store *local.Store
	ctrl  *onboarding.Controller
}

func openSession(ctx context.Context) (*session, error) {
	verify := false
	if config.Cfg.JWTSecret != "" {
		verify = token.Init() == nil
	}
	owner, err := cli.ResolveOwner(ownerFlag, tokenFlag, verify)
	if err != nil {
		return nil, err
	}

	gw, err := gateway.NewHTTPGateway(serverFlag, tokenFlag, gateway.WithTimeout(config.Cfg.GatewayTimeout))
	if err != nil {
		return nil, err
	}

	store, err := local.Open(local.Options{Path: draftDirFlag})
	if err != nil {
		return nil, err
	}

	ctrl := onboarding.NewController(gw, onboarding.NewDraftStore(store, owner, nil))
	if err := ctrl.LoadProfile(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	logger.Logger.Debug("Session opened",
		zap.String("owner_id", owner),
		zap.String("server", serverFlag),
	)
	return &session{store: store, ctrl: ctrl}, nil
}

func (s *session) Close() {
	s.ctrl.Close()
	if err := s.store.Close(); err != nil {
		logger.Logger.Warn("Failed to close draft store", zap.Error(err))
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderStatus(s.ctrl.Navigation().Progress()))
	return nil
}

func runSubmit(cmd *cobra.Command, args []string) error {
	phase, err := model.ParsePhase(args[0])
	if err != nil {
		return err
	}
	fields, err := cli.ParseAssignments(phase, args[1:])
	if err != nil {
		return err
	}

	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	out := s.ctrl.UpdatePhase(cmd.Context(), phase, fields)
	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderOutcome(out))
	if !out.OK() {
		return errNotSaved
	}
	return nil
}

func runFill(cmd *cobra.Command, args []string) error {
	phase, err := model.ParsePhase(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if nav := s.ctrl.Navigation(); nav.IsLocked(phase) {
		current, _ := nav.Current()
		return fmt.Errorf("%s is locked, continue with %s first", phase.Key(), current.Key())
	}

	initial := s.ctrl.Profile().PhaseValues(phase).Overlay(s.ctrl.Draft(ctx, phase))

	autosaver := onboarding.NewAutosaver(s.ctrl, config.Cfg.AutosaveInterval)
	autosaver.Start(ctx)

	form, err := cli.NewPhaseForm(phase, initial, nil, autosaver)
	if err != nil {
		autosaver.Close(context.WithoutCancel(ctx))
		return err
	}
	if err := form.Run(ctx); err != nil {
		// 中断时保留已输入的内容
		autosaver.Close(context.WithoutCancel(ctx))
		return err
	}
	autosaver.Close(ctx)

	out := s.ctrl.UpdatePhase(ctx, phase, form.Values())
	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderOutcome(out))
	if !out.OK() {
		return errNotSaved
	}
	return nil
}

func runDraft(cmd *cobra.Command, args []string) error {
	phase, err := model.ParsePhase(args[0])
	if err != nil {
		return err
	}

	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderDraft(phase, s.ctrl.Draft(cmd.Context(), phase)))
	return nil
}

func runDevToken(cmd *cobra.Command, args []string) error {
	if err := token.Init(); err != nil {
		return err
	}
	tok, expiresIn, err := token.GenerateAccessToken(args[0], tokenTTLFlag)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), tok)
	fmt.Fprintf(cmd.ErrOrStderr(), "expires in %ds\n", expiresIn)
	return nil
}
