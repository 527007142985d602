package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"yt2mediacms/internal/config"
)

func newManageGlobalForm(global config.GlobalSettings, width int) *manageForm {
	f := &manageForm{
		Kind:  manageFormKindGlobal,
		Title: "Global Settings",
		Fields: []manageFormField{
			{Key: "output_dir", Label: "Output Dir", Help: "Default download directory", Kind: manageFieldString, Value: global.OutputDir},
			{Key: "download_workers", Label: "Download Workers", Help: "Default download worker count", Kind: manageFieldInt, Value: strconv.Itoa(global.DownloadWorkers)},
			{Key: "upload_workers", Label: "Upload Workers", Help: "Default upload worker count", Kind: manageFieldInt, Value: strconv.Itoa(global.UploadWorkers)},
			{Key: "delay_seconds", Label: "Poll Delay (s)", Help: "Seconds between encoding status polls", Kind: manageFieldInt, Value: strconv.Itoa(global.DelaySeconds)},
			{Key: "wait_for_encoding", Label: "Wait For Encoding", Help: "Hold each upload worker until the previous upload finishes encoding", Kind: manageFieldBool, Value: boolToYN(global.WaitForEncoding == nil || *global.WaitForEncoding)},
			{Key: "keep_files", Label: "Keep Files", Help: "Keep local files after a successful upload", Kind: manageFieldBool, Value: boolToYN(global.KeepFiles)},
			{Key: "log_level", Label: "Log Level", Help: "Process-wide log level", Kind: manageFieldSelect, Value: defaultIfEmpty(global.LogLevel, config.DefaultLogLevel), Options: []string{"debug", "info", "warn", "error"}},
			{Key: "log_format", Label: "Log Format", Help: "text or json", Kind: manageFieldSelect, Value: defaultIfEmpty(global.LogFormat, config.DefaultLogFormat), Options: []string{"text", "json"}},
		},
	}

	input := textinput.New()
	input.Prompt = "> "
	input.CharLimit = 2048
	input.Width = clampInt(width-8, 20, 120)
	f.Input = input
	f.loadFieldIntoInput()
	f.Input.Focus()
	return f
}

func (f *manageForm) toGlobalSettings() (config.GlobalSettings, error) {
	if f == nil {
		return config.GlobalSettings{}, fmt.Errorf("internal form error")
	}
	vals := make(map[string]string, len(f.Fields))
	for _, field := range f.Fields {
		v := strings.TrimSpace(field.Value)
		switch field.Kind {
		case manageFieldInt:
			if v == "" {
				v = "0"
			}
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return config.GlobalSettings{}, fmt.Errorf("%s must be an integer >= 0", strings.ToLower(field.Label))
			}
		case manageFieldBool:
			if _, ok := parseBool(v); !ok {
				return config.GlobalSettings{}, fmt.Errorf("%s must be y or n", strings.ToLower(field.Label))
			}
		case manageFieldSelect:
			matched := false
			for _, opt := range field.Options {
				if strings.EqualFold(opt, v) {
					v = opt
					matched = true
					break
				}
			}
			if !matched {
				return config.GlobalSettings{}, fmt.Errorf("%s has invalid value", strings.ToLower(field.Label))
			}
		}
		vals[field.Key] = v
	}

	downloadWorkers, _ := strconv.Atoi(defaultIfEmpty(vals["download_workers"], "0"))
	uploadWorkers, _ := strconv.Atoi(defaultIfEmpty(vals["upload_workers"], "0"))
	if downloadWorkers <= 0 || uploadWorkers <= 0 {
		return config.GlobalSettings{}, fmt.Errorf("worker counts must be >= 1")
	}
	delay, _ := strconv.Atoi(defaultIfEmpty(vals["delay_seconds"], "0"))
	waitForEncoding, _ := parseBool(defaultIfEmpty(vals["wait_for_encoding"], "y"))
	keepFiles, _ := parseBool(defaultIfEmpty(vals["keep_files"], "n"))

	return config.GlobalSettings{
		OutputDir:       strings.TrimSpace(vals["output_dir"]),
		DownloadWorkers: downloadWorkers,
		UploadWorkers:   uploadWorkers,
		DelaySeconds:    delay,
		WaitForEncoding: boolPtr(waitForEncoding),
		KeepFiles:       keepFiles,
		LogLevel:        vals["log_level"],
		LogFormat:       vals["log_format"],
	}, nil
}

func saveGlobalSettingsCmd(configPath string, global config.GlobalSettings) tea.Cmd {
	return func() tea.Msg {
		res, err := config.UpdateGlobalSettings(config.UpdateGlobalSettingsOptions{
			ConfigPath: configPath,
			Global:     global,
		})
		if err != nil {
			return manageSaveMsg{err: err}
		}
		return manageSaveMsg{
			message: fmt.Sprintf(
				"updated global settings: workers=%d/%d delay=%ds wait_for_encoding=%s",
				res.Global.DownloadWorkers,
				res.Global.UploadWorkers,
				res.Global.DelaySeconds,
				yesNo(res.Global.WaitForEncoding == nil || *res.Global.WaitForEncoding),
			),
		}
	}
}
