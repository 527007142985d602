package cli

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"yt2mediacms/internal/config"
)

func runSettings(args []string) error {
	if len(args) == 0 {
		printSettingsUsage()
		return nil
	}
	switch args[0] {
	case "show":
		return runSettingsShow(args[1:])
	case "set":
		return runSettingsSet(args[1:])
	case "help", "-h", "--help":
		printSettingsUsage()
		return nil
	default:
		printSettingsUsage()
		return fmt.Errorf("unknown settings subcommand %q", args[0])
	}
}

func runSettingsShow(args []string) error {
	fs := flag.NewFlagSet("settings show", flag.ContinueOnError)
	configPath := fs.String("config", config.DefaultConfigPath, "config file path")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	global, err := config.GetGlobalSettings(strings.TrimSpace(*configPath))
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(map[string]any{
			"config_path": strings.TrimSpace(*configPath),
			"global":      global,
		})
	}

	fmt.Printf("config: %s\n", strings.TrimSpace(*configPath))
	fmt.Printf("output_dir: %s\n", global.OutputDir)
	fmt.Printf("download_workers: %d\n", global.DownloadWorkers)
	fmt.Printf("upload_workers: %d\n", global.UploadWorkers)
	fmt.Printf("delay_seconds: %d\n", global.DelaySeconds)
	fmt.Printf("wait_for_encoding: %s\n", yesNo(global.WaitForEncoding == nil || *global.WaitForEncoding))
	fmt.Printf("keep_files: %s\n", yesNo(global.KeepFiles))
	fmt.Printf("log_level: %s\n", global.LogLevel)
	fmt.Printf("log_format: %s\n", global.LogFormat)
	return nil
}

func runSettingsSet(args []string) error {
	fs := flag.NewFlagSet("settings set", flag.ContinueOnError)
	configPath := fs.String("config", config.DefaultConfigPath, "config file path")
	outputDir := fs.String("output-dir", "", "default output directory (empty keeps current)")
	downloadWorkers := fs.Int("download-workers", -1, "default download workers (>=1, -1 keeps current)")
	uploadWorkers := fs.Int("upload-workers", -1, "default upload workers (>=1, -1 keeps current)")
	delay := fs.Int("delay", -1, "seconds between encoding status polls (>=0, -1 keeps current)")
	waitForEncoding := fs.String("wait-for-encoding", "", "gate uploads on encoding: true|false (empty keeps current)")
	keepFiles := fs.String("keep-files", "", "keep local files after upload: true|false (empty keeps current)")
	logLevel := fs.String("log-level", "", "log level: debug|info|warn|error (empty keeps current)")
	logFormat := fs.String("log-format", "", "log format: text|json (empty keeps current)")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	path := strings.TrimSpace(*configPath)
	global, err := config.GetGlobalSettings(path)
	if err != nil {
		return err
	}

	if strings.TrimSpace(*outputDir) != "" {
		global.OutputDir = strings.TrimSpace(*outputDir)
	}
	if *downloadWorkers != -1 {
		if *downloadWorkers <= 0 {
			return errors.New("--download-workers must be >= 1")
		}
		global.DownloadWorkers = *downloadWorkers
	}
	if *uploadWorkers != -1 {
		if *uploadWorkers <= 0 {
			return errors.New("--upload-workers must be >= 1")
		}
		global.UploadWorkers = *uploadWorkers
	}
	if *delay != -1 {
		if *delay < 0 {
			return errors.New("--delay must be >= 0")
		}
		global.DelaySeconds = *delay
	}
	if wfe, err := parseBoolFlag("wait-for-encoding", *waitForEncoding); err != nil {
		return err
	} else if wfe != nil {
		global.WaitForEncoding = wfe
	}
	if kf, err := parseBoolFlag("keep-files", *keepFiles); err != nil {
		return err
	} else if kf != nil {
		global.KeepFiles = *kf
	}
	if strings.TrimSpace(*logLevel) != "" {
		global.LogLevel = strings.TrimSpace(*logLevel)
	}
	if strings.TrimSpace(*logFormat) != "" {
		global.LogFormat = strings.TrimSpace(*logFormat)
	}

	res, err := config.UpdateGlobalSettings(config.UpdateGlobalSettingsOptions{
		ConfigPath: path,
		Global:     global,
	})
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(res)
	}

	fmt.Printf("updated global settings in %s\n", res.ConfigPath)
	fmt.Printf("output_dir: %s\n", res.Global.OutputDir)
	fmt.Printf("download_workers: %d\n", res.Global.DownloadWorkers)
	fmt.Printf("upload_workers: %d\n", res.Global.UploadWorkers)
	fmt.Printf("delay_seconds: %d\n", res.Global.DelaySeconds)
	fmt.Printf("wait_for_encoding: %s\n", yesNo(res.Global.WaitForEncoding == nil || *res.Global.WaitForEncoding))
	fmt.Printf("keep_files: %s\n", yesNo(res.Global.KeepFiles))
	return nil
}

func printSettingsUsage() {
	fmt.Println("settings commands:")
	fmt.Println("  settings show")
	fmt.Println("  settings set [--output-dir <dir>] [--download-workers N] [--upload-workers N]")
	fmt.Println("               [--delay N] [--wait-for-encoding true|false] [--keep-files true|false]")
	fmt.Println("               [--log-level debug|info|warn|error] [--log-format text|json]")
}
