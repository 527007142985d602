package cli

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"yt2mediacms/internal/config"
)

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	outputDir := fs.String("output-dir", config.DefaultOutputDir, "download output directory")
	configPath := fs.String("config", config.DefaultConfigPath, "config file path")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	res, err := config.InitWorkspace(config.InitWorkspaceOptions{
		ConfigPath: strings.TrimSpace(*configPath),
		OutputDir:  strings.TrimSpace(*outputDir),
	})
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(res)
	}

	fmt.Println("workspace initialized")
	fmt.Printf("config: %s\n", res.ConfigPath)
	fmt.Printf("output_dir: %s\n", res.OutputDir)
	fmt.Printf("created_config: %t\n", res.CreatedConfig)
	fmt.Printf("created_output_dir: %t\n", res.CreatedOutputDir)
	fmt.Println("checks:")
	for _, c := range res.DoctorResult.Checks {
		status := "ok"
		if !c.OK {
			status = "fail"
		}
		fmt.Printf("  %s: %s (%s)\n", c.Name, status, c.Message)
	}
	if !res.DoctorResult.OK {
		return errors.New("doctor checks failed")
	}
	fmt.Println("next: yt2mediacms add --url <channel-url> --token <mediacms-token>")
	return nil
}

func runDoctor(args []string) error {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	outputDir := fs.String("output-dir", config.DefaultOutputDir, "download output directory")
	configPath := fs.String("config", config.DefaultConfigPath, "config file path")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	res, err := config.Doctor(config.DoctorOptions{
		ConfigPath: strings.TrimSpace(*configPath),
		OutputDir:  strings.TrimSpace(*outputDir),
	})
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(res)
	}

	for _, c := range res.Checks {
		status := "ok"
		if !c.OK {
			status = "fail"
		}
		fmt.Printf("%s: %s (%s)\n", c.Name, status, c.Message)
	}
	if !res.OK {
		return errors.New("doctor checks failed")
	}
	fmt.Println("doctor: all checks passed")
	return nil
}

func runAddChannel(args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	name := fs.String("name", "", "channel name (optional; auto-generated from URL)")
	url := fs.String("url", "", "YouTube channel URL (youtube.com/channel/<id>) or raw channel ID; @handle URLs are not supported")
	token := fs.String("token", "", "MediaCMS account token for this channel")
	configPath := fs.String("config", config.DefaultConfigPath, "config file path")
	outputDir := fs.String("output-dir", "", "per-channel output directory override")
	downloadWorkers := fs.Int("download-workers", 0, "per-channel download worker override (0 = inherit global)")
	uploadWorkers := fs.Int("upload-workers", 0, "per-channel upload worker override (0 = inherit global)")
	replace := fs.Bool("replace", false, "replace channel if it already exists")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	src := strings.TrimSpace(*url)
	if src == "" {
		var err error
		src, err = promptRequired("channel URL")
		if err != nil {
			return err
		}
	}

	res, err := config.AddChannel(config.AddChannelOptions{
		ConfigPath:          strings.TrimSpace(*configPath),
		Name:                strings.TrimSpace(*name),
		URL:                 src,
		MediaCMSToken:       strings.TrimSpace(*token),
		OutputDir:           strings.TrimSpace(*outputDir),
		DownloadWorkers:     *downloadWorkers,
		UploadWorkers:       *uploadWorkers,
		Active:              boolPtr(true),
		ReplaceIfNameExists: *replace,
	})
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(res)
	}

	action := "added"
	if !res.Created {
		action = "updated"
	}
	fmt.Printf("channel %s: %s\n", action, res.Channel.Name)
	fmt.Printf("url: %s\n", res.Channel.URL)
	fmt.Printf("config: %s\n", strings.TrimSpace(*configPath))
	fmt.Printf("next: yt2mediacms sync --channel %s\n", res.Channel.Name)
	return nil
}

func runListChannels(args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	configPath := fs.String("config", config.DefaultConfigPath, "config file path")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	res, err := config.ListChannels(strings.TrimSpace(*configPath))
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(res)
	}

	fmt.Printf("config: %s\n", res.ConfigPath)
	if len(res.Channels) == 0 {
		fmt.Println("no channels configured")
		fmt.Println("next: yt2mediacms add --url <channel-url> --token <mediacms-token>")
		return nil
	}
	for _, c := range res.Channels {
		mark := "x"
		if c.Active != nil && !*c.Active {
			mark = " "
		}
		fmt.Printf("- [%s] %s | %s\n", mark, c.Name, c.URL)
	}
	return nil
}

func runRemoveChannel(args []string) error {
	fs := flag.NewFlagSet("remove", flag.ContinueOnError)
	name := fs.String("name", "", "channel name")
	configPath := fs.String("config", config.DefaultConfigPath, "config file path")
	yes := fs.Bool("yes", false, "skip confirmation")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	target := strings.TrimSpace(*name)
	if target == "" {
		return errors.New("--name is required")
	}
	if !*yes {
		ok, err := promptConfirm(fmt.Sprintf("remove channel %q? [y/N] ", target))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("aborted")
			return nil
		}
	}

	res, err := config.RemoveChannel(config.RemoveChannelOptions{
		ConfigPath: strings.TrimSpace(*configPath),
		Name:       target,
	})
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(res)
	}
	fmt.Printf("removed channel: %s (%s)\n", res.Channel.Name, res.Channel.URL)
	return nil
}
