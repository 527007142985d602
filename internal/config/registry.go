package config

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

type AddChannelOptions struct {
	ConfigPath          string
	Name                string
	URL                 string
	MediaCMSToken       string
	OutputDir           string
	DownloadWorkers     int
	UploadWorkers       int
	Active              *bool
	ReplaceIfNameExists bool
}

type AddChannelResult struct {
	Channel Channel
	Created bool
}

type RemoveChannelOptions struct {
	ConfigPath string
	Name       string
}

type RemoveChannelResult struct {
	Channel Channel
	Removed bool
}

type ListChannelsResult struct {
	ConfigPath string
	Channels   []Channel
}

func canonicalChannelName(raw string) string {
	return strings.TrimSpace(raw)
}

func AddChannel(opts AddChannelOptions) (AddChannelResult, error) {
	configPath := normalizeConfigPath(opts.ConfigPath)
	reg, _, err := EnsureRegistry(configPath)
	if err != nil {
		return AddChannelResult{}, err
	}

	url := strings.TrimSpace(opts.URL)
	if url == "" {
		return AddChannelResult{}, fmt.Errorf("channel URL is required")
	}
	if opts.DownloadWorkers < 0 || opts.UploadWorkers < 0 {
		return AddChannelResult{}, fmt.Errorf("worker counts must be >= 0")
	}

	name := canonicalChannelName(opts.Name)
	if name == "" {
		name = suggestChannelName(url)
	}
	if name == "" {
		return AddChannelResult{}, fmt.Errorf("channel name is required")
	}

	for _, c := range reg.Channels {
		if strings.EqualFold(strings.TrimSpace(c.URL), url) && !strings.EqualFold(c.Name, name) {
			return AddChannelResult{}, fmt.Errorf("channel URL already tracked by %q", c.Name)
		}
	}

	channel := Channel{
		Name:            name,
		URL:             url,
		MediaCMSToken:   strings.TrimSpace(opts.MediaCMSToken),
		Active:          opts.Active,
		OutputDir:       strings.TrimSpace(opts.OutputDir),
		DownloadWorkers: opts.DownloadWorkers,
		UploadWorkers:   opts.UploadWorkers,
	}
	if channel.Active == nil {
		channel.Active = boolPtr(true)
	}

	created := true
	for i := range reg.Channels {
		if strings.EqualFold(reg.Channels[i].Name, name) {
			if !opts.ReplaceIfNameExists {
				return AddChannelResult{}, fmt.Errorf("channel %q already exists (use --replace)", name)
			}
			reg.Channels[i] = channel
			created = false
			break
		}
	}
	if created {
		reg.Channels = append(reg.Channels, channel)
	}

	sort.Slice(reg.Channels, func(i, j int) bool {
		return reg.Channels[i].Name < reg.Channels[j].Name
	})
	reg.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	if err := saveRegistry(configPath, reg); err != nil {
		return AddChannelResult{}, err
	}

	return AddChannelResult{Channel: channel, Created: created}, nil
}

func RemoveChannel(opts RemoveChannelOptions) (RemoveChannelResult, error) {
	configPath := normalizeConfigPath(opts.ConfigPath)
	reg, _, err := EnsureRegistry(configPath)
	if err != nil {
		return RemoveChannelResult{}, err
	}

	name := canonicalChannelName(opts.Name)
	if name == "" {
		return RemoveChannelResult{}, fmt.Errorf("channel name is required")
	}

	for i := range reg.Channels {
		if strings.EqualFold(reg.Channels[i].Name, name) {
			removed := reg.Channels[i]
			reg.Channels = append(reg.Channels[:i], reg.Channels[i+1:]...)
			reg.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
			if err := saveRegistry(configPath, reg); err != nil {
				return RemoveChannelResult{}, err
			}
			return RemoveChannelResult{Channel: removed, Removed: true}, nil
		}
	}

	return RemoveChannelResult{}, fmt.Errorf("channel %q not found", name)
}

func ListChannels(configPath string) (ListChannelsResult, error) {
	path := normalizeConfigPath(configPath)
	reg, _, err := EnsureRegistry(path)
	if err != nil {
		return ListChannelsResult{}, err
	}
	channels := append([]Channel(nil), reg.Channels...)
	sort.Slice(channels, func(i, j int) bool {
		return channels[i].Name < channels[j].Name
	})
	return ListChannelsResult{ConfigPath: path, Channels: channels}, nil
}

func FindChannelByName(configPath, name string) (Channel, error) {
	reg, _, err := EnsureRegistry(normalizeConfigPath(configPath))
	if err != nil {
		return Channel{}, err
	}
	target := canonicalChannelName(name)
	if target == "" {
		return Channel{}, fmt.Errorf("channel name is required")
	}
	for _, c := range reg.Channels {
		if strings.EqualFold(c.Name, target) {
			return c, nil
		}
	}
	return Channel{}, fmt.Errorf("channel %q not found", target)
}

// ActiveChannels filters the registry down to entries not explicitly
// marked inactive.
func ActiveChannels(reg Registry) []Channel {
	out := make([]Channel, 0, len(reg.Channels))
	for _, c := range reg.Channels {
		if c.Active == nil || *c.Active {
			out = append(out, c)
		}
	}
	return out
}

// GetGlobalSettings returns the normalized global defaults from the
// config file.
func GetGlobalSettings(configPath string) (GlobalSettings, error) {
	reg, _, err := EnsureRegistry(normalizeConfigPath(configPath))
	if err != nil {
		return GlobalSettings{}, err
	}
	return reg.Global, nil
}

type UpdateGlobalSettingsOptions struct {
	ConfigPath string
	Global     GlobalSettings
}

type UpdateGlobalSettingsResult struct {
	ConfigPath string         `json:"config_path"`
	Global     GlobalSettings `json:"global"`
}

func UpdateGlobalSettings(opts UpdateGlobalSettingsOptions) (UpdateGlobalSettingsResult, error) {
	configPath := normalizeConfigPath(opts.ConfigPath)
	reg, _, err := EnsureRegistry(configPath)
	if err != nil {
		return UpdateGlobalSettingsResult{}, err
	}

	reg.Global = normalizeGlobalSettings(opts.Global)
	reg.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	if err := saveRegistry(configPath, reg); err != nil {
		return UpdateGlobalSettingsResult{}, err
	}
	return UpdateGlobalSettingsResult{ConfigPath: configPath, Global: reg.Global}, nil
}

// suggestChannelName derives a readable default name from the channel URL
// (handle, /channel/ id, or last path segment).
func suggestChannelName(url string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(url), "/")
	if trimmed == "" {
		return ""
	}
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	return strings.TrimPrefix(trimmed, "@")
}
