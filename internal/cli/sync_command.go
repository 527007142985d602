package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"yt2mediacms/internal/config"
	"yt2mediacms/internal/mediacms"
	"yt2mediacms/internal/pipeline"
	"yt2mediacms/internal/tui"
	"yt2mediacms/internal/watch"
	"yt2mediacms/internal/youtube"
)

// encodingMonitorInterval drives the dashboard's background encoding
// status refresh while uploads are in flight.
const encodingMonitorInterval = 30 * time.Second

const defaultWatchSchedule = "@every 15m"

// syncFlags are the flags shared by sync, videos, and watch.
type syncFlags struct {
	configPath      string
	outputDir       string
	downloadWorkers int
	uploadWorkers   int
	delay           int
	waitForEncoding string
	keepFiles       string
	progress        bool
	logFile         string
}

func (f *syncFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.configPath, "config", config.DefaultConfigPath, "config file path")
	fs.StringVar(&f.outputDir, "output-dir", "", "output directory override")
	fs.IntVar(&f.downloadWorkers, "download-workers", 0, "download worker override (0 = config)")
	fs.IntVar(&f.uploadWorkers, "upload-workers", 0, "upload worker override (0 = config)")
	fs.IntVar(&f.delay, "delay", 0, "seconds between encoding status polls (0 = config)")
	fs.StringVar(&f.waitForEncoding, "wait-for-encoding", "", "gate uploads on encoding: true|false (empty = config)")
	fs.StringVar(&f.keepFiles, "keep-files", "", "keep local files after upload: true|false (empty = config)")
	fs.BoolVar(&f.progress, "progress", false, "show the live progress dashboard")
	fs.StringVar(&f.logFile, "log-file", "", "also append logs to this file")
}

func (f *syncFlags) overrides() (config.RuntimeOverrides, error) {
	wfe, err := parseBoolFlag("wait-for-encoding", f.waitForEncoding)
	if err != nil {
		return config.RuntimeOverrides{}, err
	}
	kf, err := parseBoolFlag("keep-files", f.keepFiles)
	if err != nil {
		return config.RuntimeOverrides{}, err
	}
	return config.RuntimeOverrides{
		OutputDir:       strings.TrimSpace(f.outputDir),
		DownloadWorkers: f.downloadWorkers,
		UploadWorkers:   f.uploadWorkers,
		DelaySeconds:    f.delay,
		WaitForEncoding: wfe,
		KeepFiles:       kf,
	}, nil
}

func runSync(args []string) error {
	fs := flag.NewFlagSet("sync", flag.ContinueOnError)
	channel := fs.String("channel", "", "channel name to sync")
	all := fs.Bool("all", false, "sync every active channel")
	mode := fs.String("mode", "new", "sync mode: new (since watermark) or full (whole channel)")
	updateProfile := fs.Bool("update-channel", false, "also refresh the MediaCMS channel profile")
	var flags syncFlags
	flags.register(fs)
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	syncMode := strings.ToLower(strings.TrimSpace(*mode))
	if syncMode != "new" && syncMode != "full" {
		return fmt.Errorf("--mode must be new or full, got %q", syncMode)
	}

	env, err := newSyncEnv(flags)
	if err != nil {
		return err
	}
	defer env.close()

	channels, err := env.targetChannels(strings.TrimSpace(*channel), *all)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var failed []string
	for _, ch := range channels {
		if err := env.syncChannel(ctx, ch, syncMode, *updateProfile); err != nil {
			if ctx.Err() != nil {
				return err
			}
			env.logger.Error("channel sync failed", "channel", ch.Name, "error", err)
			failed = append(failed, ch.Name)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("sync failed for: %s", strings.Join(failed, ", "))
	}
	return nil
}

func runVideos(args []string) error {
	fs := flag.NewFlagSet("videos", flag.ContinueOnError)
	ids := fs.String("ids", "", "comma-separated YouTube video IDs")
	channel := fs.String("channel", "", "channel whose MediaCMS token receives the videos")
	username := fs.String("username", "", "MediaCMS username to receive the videos (resolved against configured tokens)")
	var flags syncFlags
	flags.register(fs)
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	videoIDs := splitCommaList(*ids)
	if len(videoIDs) == 0 {
		return errors.New("--ids is required (comma-separated video IDs)")
	}
	if strings.TrimSpace(*channel) == "" && strings.TrimSpace(*username) == "" {
		return errors.New("set --channel or --username to pick the target MediaCMS account")
	}

	env, err := newSyncEnv(flags)
	if err != nil {
		return err
	}
	defer env.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var ch config.Channel
	if strings.TrimSpace(*channel) != "" {
		ch, err = config.FindChannelByName(env.flags.configPath, *channel)
		if err != nil {
			return err
		}
	} else {
		token, err := env.tokenForUsername(ctx, strings.TrimSpace(*username))
		if err != nil {
			return err
		}
		ch = config.Channel{Name: strings.TrimSpace(*username), MediaCMSToken: token}
	}

	coord, done, err := env.newCoordinator(ctx, ch)
	if err != nil {
		return err
	}
	defer done()

	stats, err := coord.SyncVideoIDs(ctx, videoIDs)
	if err != nil {
		return err
	}
	printStats(ch.Name, stats)
	return nil
}

func runUpdateChannel(args []string) error {
	fs := flag.NewFlagSet("update-channel", flag.ContinueOnError)
	channel := fs.String("channel", "", "channel name")
	all := fs.Bool("all", false, "update every active channel")
	configPath := fs.String("config", config.DefaultConfigPath, "config file path")
	logFile := fs.String("log-file", "", "also append logs to this file")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	env, err := newSyncEnv(syncFlags{configPath: *configPath, logFile: *logFile})
	if err != nil {
		return err
	}
	defer env.close()

	channels, err := env.targetChannels(strings.TrimSpace(*channel), *all)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for _, ch := range channels {
		if err := env.updateChannelProfile(ctx, ch); err != nil {
			return fmt.Errorf("update channel %s: %w", ch.Name, err)
		}
		fmt.Printf("updated MediaCMS profile for %s\n", ch.Name)
	}
	return nil
}

func runWatch(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	schedule := fs.String("schedule", defaultWatchSchedule, "cron schedule for feed checks (standard 5-field or @every syntax)")
	var flags syncFlags
	flags.register(fs)
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	env, err := newSyncEnv(flags)
	if err != nil {
		return err
	}
	defer env.close()

	active := config.ActiveChannels(env.registry)
	if len(active) == 0 {
		return config.ErrNoChannelsConfigured
	}

	watched := make([]watch.Channel, 0, len(active))
	for _, ch := range active {
		ch := ch
		watched = append(watched, watch.Channel{
			Name: ch.Name,
			URL:  ch.URL,
			Sync: func(ctx context.Context) error {
				return env.syncChannel(ctx, ch, "new", false)
			},
		})
	}

	w, err := watch.New(nil, watched, strings.TrimSpace(*schedule), env.logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// syncEnv bundles the loaded registry and logger shared by the
// network-touching commands.
type syncEnv struct {
	flags     syncFlags
	registry  config.Registry
	logger    *slog.Logger
	closeLogs func()
}

func newSyncEnv(flags syncFlags) (*syncEnv, error) {
	reg, _, err := config.EnsureRegistry(flags.configPath)
	if err != nil {
		return nil, err
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}

	logger, closeFn, err := config.SetupLogger(reg.Global, strings.TrimSpace(flags.logFile))
	if err != nil {
		return nil, err
	}

	return &syncEnv{
		flags:     flags,
		registry:  reg,
		logger:    logger,
		closeLogs: closeFn,
	}, nil
}

func (e *syncEnv) close() {
	if e.closeLogs != nil {
		e.closeLogs()
	}
}

// targetChannels resolves --channel/--all into concrete registry
// entries.
func (e *syncEnv) targetChannels(name string, all bool) ([]config.Channel, error) {
	if name != "" && all {
		return nil, errors.New("set --channel or --all, not both")
	}
	if name != "" {
		ch, err := config.FindChannelByName(e.flags.configPath, name)
		if err != nil {
			return nil, err
		}
		return []config.Channel{ch}, nil
	}
	if !all {
		return nil, errors.New("set --channel <name> or --all")
	}
	active := config.ActiveChannels(e.registry)
	if len(active) == 0 {
		return nil, config.ErrNoChannelsConfigured
	}
	return active, nil
}

// newCoordinator builds the pipeline for one channel. The returned
// cleanup stops the progress dashboard if one was started.
func (e *syncEnv) newCoordinator(ctx context.Context, ch config.Channel) (*pipeline.Coordinator, func(), error) {
	if strings.TrimSpace(ch.MediaCMSToken) == "" {
		return nil, nil, fmt.Errorf("channel %s has no MediaCMS token", ch.Name)
	}

	over, err := e.flags.overrides()
	if err != nil {
		return nil, nil, err
	}
	settings := config.ResolveRuntimeSettings(ch, e.registry.Global, over)

	logger := e.logger.With("channel", ch.Name)
	client := mediacms.NewClient(e.registry.MediaCMSURL, ch.MediaCMSToken).WithLogger(logger)

	var lister youtube.Lister
	if strings.TrimSpace(e.registry.YouTubeAPIKey) != "" {
		api, err := youtube.NewAPILister(ctx, e.registry.YouTubeAPIKey)
		if err != nil {
			return nil, nil, fmt.Errorf("youtube api client: %w", err)
		}
		lister = api
	}

	opts := pipeline.SyncOptions{
		OutputDir:       settings.OutputDir,
		DownloadWorkers: settings.DownloadWorkers,
		UploadWorkers:   settings.UploadWorkers,
		Delay:           settings.Delay,
		WaitForEncoding: settings.WaitForEncoding,
		KeepFiles:       settings.KeepFiles,
		Logger:          logger,
	}

	done := func() {}
	if e.flags.progress {
		dash := tui.NewDashboard(0)
		dash.Start()
		opts.Observer = dash
		opts.MonitorInterval = encodingMonitorInterval
		done = dash.Stop
	} else {
		opts.Observer = pipeline.LogObserver{Logger: logger}
	}

	return pipeline.NewCoordinator(lister, client, opts), done, nil
}

func (e *syncEnv) syncChannel(ctx context.Context, ch config.Channel, mode string, updateProfile bool) error {
	if strings.TrimSpace(e.registry.YouTubeAPIKey) == "" {
		return fmt.Errorf("youtube_api_key is required for channel sync (config or %sYT_API_KEY)", config.EnvPrefix)
	}

	coord, done, err := e.newCoordinator(ctx, ch)
	if err != nil {
		return err
	}
	defer done()

	var stats pipeline.Stats
	if mode == "full" {
		stats, err = coord.SyncFull(ctx, ch.URL)
	} else {
		stats, err = coord.SyncNew(ctx, ch.URL)
	}
	if err != nil {
		return err
	}
	printStats(ch.Name, stats)

	if updateProfile {
		if err := e.updateChannelProfile(ctx, ch); err != nil {
			return fmt.Errorf("update channel profile: %w", err)
		}
	}
	return nil
}

// updateChannelProfile copies the YouTube channel snippet (name,
// description, avatar) onto the MediaCMS user owning the token.
func (e *syncEnv) updateChannelProfile(ctx context.Context, ch config.Channel) error {
	if strings.TrimSpace(ch.MediaCMSToken) == "" {
		return fmt.Errorf("channel %s has no MediaCMS token", ch.Name)
	}
	if strings.TrimSpace(e.registry.YouTubeAPIKey) == "" {
		return fmt.Errorf("youtube_api_key is required (config or %sYT_API_KEY)", config.EnvPrefix)
	}

	channelID := youtube.ExtractChannelID(ch.URL)
	if channelID == "" {
		return fmt.Errorf("cannot determine channel ID from %q (use a youtube.com/channel/<id> URL or a raw channel ID)", ch.URL)
	}

	api, err := youtube.NewAPILister(ctx, e.registry.YouTubeAPIKey)
	if err != nil {
		return fmt.Errorf("youtube api client: %w", err)
	}
	info, err := api.ChannelInfo(ctx, channelID)
	if err != nil {
		return fmt.Errorf("fetch channel info: %w", err)
	}

	client := mediacms.NewClient(e.registry.MediaCMSURL, ch.MediaCMSToken).WithLogger(e.logger)
	return client.UpdateUserProfile(ctx, info.Name, info.Description, info.ThumbnailURL)
}

// tokenForUsername finds the configured token whose MediaCMS account
// matches the given username.
func (e *syncEnv) tokenForUsername(ctx context.Context, username string) (string, error) {
	bindings := make([]mediacms.TokenBinding, 0, len(e.registry.Channels))
	for _, c := range e.registry.Channels {
		if strings.TrimSpace(c.MediaCMSToken) == "" {
			continue
		}
		bindings = append(bindings, mediacms.TokenBinding{ChannelName: c.Name, Token: c.MediaCMSToken})
	}
	if len(bindings) == 0 {
		return "", errors.New("no channels with a MediaCMS token configured")
	}
	return mediacms.FindTokenForUsername(ctx, e.registry.MediaCMSURL, bindings, username)
}

func printStats(name string, stats pipeline.Stats) {
	fmt.Printf("%s: enumerated %d | downloaded %d (failed %d) | uploaded %d (failed %d)\n",
		name, stats.Enumerated,
		stats.Downloaded, stats.DownloadFailed,
		stats.Uploaded, stats.UploadFailed)
}

func splitCommaList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	seen := make(map[string]bool, len(parts))
	for _, p := range parts {
		v := strings.TrimSpace(p)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
