package types

import "time"

// InstallResult reports a batch binary installation. Success is false only
// when every attempted installation failed; partial completion keeps
// Success=true with the failures listed in Failed.
type InstallResult struct {
	ReportID  string   `json:"report_id"`
	Success   bool     `json:"success"`
	Message   string   `json:"message"`
	Installed []string `json:"installed"`
	Failed    []string `json:"failed"`
}

// FixResult reports a batch service fix-up. ActionsTaken records every
// attempt, successful or not; Success is false only when the gateway
// itself could not dispatch the restarts.
type FixResult struct {
	ReportID     string   `json:"report_id"`
	Success      bool     `json:"success"`
	Message      string   `json:"message"`
	ActionsTaken []string `json:"actions_taken"`
}

// ScriptResult reports one external procedure run: combined output,
// wall-clock duration, and whether the exit code was zero. A timed-out
// script still produces a result with the partial captured output.
type ScriptResult struct {
	ReportID string        `json:"report_id"`
	Success  bool          `json:"success"`
	Output   string        `json:"output"`
	Duration time.Duration `json:"duration"`
}
