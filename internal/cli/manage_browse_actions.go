package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"yt2mediacms/internal/config"
)

const (
	manageActionSyncActive = iota
	manageActionGlobalSettings
)

var manageActions = []string{
	"Sync Active Channels",
	"Global Settings",
}

func (m manageModel) renderActionsPanel(width int) string {
	lines := make([]string, 0, len(manageActions)+2)
	lines = append(lines, "Actions")
	lines = append(lines, "")
	for i, action := range manageActions {
		row := "[>] " + action
		if m.isActionCursor() && m.selectedActionIndex() == i {
			row = manageSelStyle.Width(maxInt(width-4, 6)).Render(truncateRunes(row, maxInt(width-6, 10)))
			lines = append(lines, row)
			continue
		}
		lines = append(lines, truncateRunes(row, maxInt(width-6, 10)))
	}
	return managePanelStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func toggleChannelActiveCmd(configPath string, channel config.Channel) tea.Cmd {
	return func() tea.Msg {
		nextActive := !isChannelActive(channel)
		opts := config.AddChannelOptions{
			ConfigPath:          configPath,
			Name:                channel.Name,
			URL:                 channel.URL,
			MediaCMSToken:       channel.MediaCMSToken,
			OutputDir:           channel.OutputDir,
			DownloadWorkers:     channel.DownloadWorkers,
			UploadWorkers:       channel.UploadWorkers,
			Active:              boolPtr(nextActive),
			ReplaceIfNameExists: true,
		}
		res, err := config.AddChannel(opts)
		if err != nil {
			return manageSaveMsg{err: err}
		}
		return manageSaveMsg{message: fmt.Sprintf("channel %s active: %s", res.Channel.Name, yesNo(isChannelActive(res.Channel)))}
	}
}

func (m manageModel) totalBrowseRows() int {
	return (len(m.channels) + 1) + len(manageActions)
}

func (m manageModel) isActionCursor() bool {
	return m.cursor >= len(m.channels)+1
}

func (m manageModel) selectedActionIndex() int {
	idx := m.cursor - (len(m.channels) + 1)
	if idx < 0 {
		return 0
	}
	if idx >= len(manageActions) {
		return len(manageActions) - 1
	}
	return idx
}
