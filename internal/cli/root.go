package cli

import "fmt"

func Run(args []string) error {
	if len(args) == 0 {
		printRootUsage()
		return nil
	}

	switch args[0] {
	case "init":
		return runInit(args[1:])
	case "doctor":
		return runDoctor(args[1:])
	case "add":
		return runAddChannel(args[1:])
	case "list":
		return runListChannels(args[1:])
	case "remove":
		return runRemoveChannel(args[1:])
	case "manage":
		return runManage(args[1:])
	case "settings":
		return runSettings(args[1:])
	case "sync":
		return runSync(args[1:])
	case "videos":
		return runVideos(args[1:])
	case "update-channel":
		return runUpdateChannel(args[1:])
	case "watch":
		return runWatch(args[1:])
	case "help", "-h", "--help":
		printRootUsage()
		return nil
	default:
		printRootUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printRootUsage() {
	fmt.Println("yt2mediacms: YouTube to MediaCMS sync pipeline")
	fmt.Println()
	fmt.Println("Quick Start:")
	fmt.Println("  yt2mediacms init")
	fmt.Println("  yt2mediacms add --url <channel-url> --token <mediacms-token>")
	fmt.Println("  yt2mediacms sync --all")
	fmt.Println()
	fmt.Println("Channel Commands:")
	fmt.Println("  init            create workspace config + run environment checks")
	fmt.Println("  doctor          run dependency and filesystem preflight checks")
	fmt.Println("  add             add/update a channel in config")
	fmt.Println("  list            list configured channels")
	fmt.Println("  remove          remove a channel from config")
	fmt.Println("  manage          interactive channel manager (wizard + editor)")
	fmt.Println("  settings        show/update global runtime settings")
	fmt.Println()
	fmt.Println("Sync Commands:")
	fmt.Println("  sync            sync channel(s) to MediaCMS (--mode new|full)")
	fmt.Println("  videos          sync an explicit list of video IDs")
	fmt.Println("  update-channel  copy channel name/description/avatar to MediaCMS")
	fmt.Println("  watch           keep running, sync channels when their feed changes")
	fmt.Println()
	fmt.Println("Notes:")
	fmt.Println("  - Use --json on commands for machine-readable output")
	fmt.Println("  - Credentials can live in .env: Y2M_MEDIACMS_URL, Y2M_MEDIACMS_TOKEN, Y2M_YT_API_KEY")
}
