package common

// Keys of the three independent slots of the local persistent mirror.
const (
	LogsSlot       = "zyn-tracker/logs"
	NextIDSlot     = "zyn-tracker/next-id"
	SyncConfigSlot = "zyn-tracker/github-config"
)

// Defaults applied to a saved sync configuration.
const (
	DefaultBranch = "main"
	DefaultPath   = "data/logs.json"
)
