// Package events lists the subjects published by squadwatch and builds the
// configured event bus.
package events

// Subjects share a prefix so consumers can subscribe to "squadwatch.>".
const Prefix = "squadwatch"

// All matches every squadwatch subject.
const All = Prefix + ".>"

// State store changes
const (
	SquadsReplaced      = Prefix + ".squads.replaced"
	SquadUpdated        = Prefix + ".squad.updated"
	MessageAppended     = Prefix + ".message.appended"
	MessagesLoaded      = Prefix + ".messages.loaded"
	MessageConfirmed    = Prefix + ".message.confirmed"
	MessageDiscarded    = Prefix + ".message.discarded"
	TasksReplaced       = Prefix + ".tasks.replaced"
	TaskUpdated         = Prefix + ".task.updated"
	ConnectivityChanged = Prefix + ".connectivity.changed"
	SelectionChanged    = Prefix + ".selection.changed"
	LoadErrorChanged    = Prefix + ".load_error.changed"
)

// Out-of-band notifications
const (
	GovernanceAlert = Prefix + ".governance.alert"
	SettingsUpdated = Prefix + ".settings.updated"
)
