package dto

import (
	providerdomain "bark/internal/modules/provider/domain"
	providerin "bark/internal/modules/provider/port/in"
)

// Result is what a background task eventually hands back to the event loop.
// Every task delivers exactly one.
type Result interface {
	taskResult()
}

// PluginConnected reports a provider plugin session that is ready to browse.
type PluginConnected struct {
	Provider      providerin.PanelProvider
	ExtensionMode bool
	// Source is the local path that triggered an extension-mode connect.
	Source string
}

// PluginFailed reports a failed plugin connect. PasswordRequired means the
// UI should prompt and retry rather than surface the message as fatal;
// Kind carries the classified failure so config and auth rejections can
// reopen the connection dialog instead.
type PluginFailed struct {
	Message          string
	Kind             providerdomain.ErrorKind
	PasswordRequired bool
	ExtensionMode    bool
	Source           string
}

// RemoteConnected reports a successful remote connection.
type RemoteConnected struct {
	Provider providerin.PanelProvider
}

// RemoteFailed reports a failed remote connection. PromptPassword is set
// when the failure smells like an authentication problem and the dialer
// was given no password.
type RemoteFailed struct {
	Message        string
	PromptPassword bool
}

// FileOpCompleted reports a finished bulk copy, move, or delete.
type FileOpCompleted struct {
	Count  int
	Errors []string
	OpName string
}

func (PluginConnected) taskResult() {}
func (PluginFailed) taskResult()    {}
func (RemoteConnected) taskResult() {}
func (RemoteFailed) taskResult()    {}
func (FileOpCompleted) taskResult() {}
