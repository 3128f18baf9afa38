package logger

// Output controls what categories of information are shown at each verbosity level.
//
// Unlike log levels (which filter by severity), output categories control
// WHAT types of information are displayed regardless of severity.
//
// Verbosity Levels:
//
//	0 (default) - User-facing output only: results, errors with hints
//	1 (-v)      - + progress, startup info, session lifecycle
//	2 (-vv)     - + handshake/frame timing, config loaded, queue depths
//	3 (-vvv)    - + per-message wire trace, encoder worker flow
//	4 (-vvvv)   - + full request/response bodies, frame buffer dumps

// OutputCategory defines a category of output that can be enabled/disabled
type OutputCategory int

const (
	// Level 0 (default) - Always shown
	OutputResults    OutputCategory = iota // Command output
	OutputErrors                           // Errors with hints and resolution steps
	OutputUserStatus                       // Final success/failure status

	// Level 1 (-v) - Informational
	OutputProgress      // Progress indicators
	OutputStartup       // Startup banners, config summary
	OutputSessionStatus // Session connected/disconnected
	OutputOperationInfo // High-level operation summaries

	// Level 2 (-vv) - Detailed
	OutputTiming      // Operation timing (e.g., "handshake took 2ms")
	OutputConfig      // Config values loaded/applied
	OutputQueueDepth   // Encoder FIFO queue depth
	OutputURIDiscovery // Public-URI enumeration results

	// Level 3 (-vvv) - Debug
	OutputWireTrace    // Per-message wire trace (id, size, status)
	OutputEncoderFlow  // Encoder worker pipeline internal flow
	OutputGraphEvents  // Object graph connect/disconnect events

	// Level 4 (-vvvv) - Full dump
	OutputFrameBody   // Full frame/image body contents
	OutputDataDump    // Full data structure contents
)

// categoryLevels maps each output category to its minimum verbosity level
var categoryLevels = map[OutputCategory]int{
	// Level 0 - Always shown
	OutputResults:    VerbosityUser,
	OutputErrors:     VerbosityUser,
	OutputUserStatus: VerbosityUser,

	// Level 1 - Informational
	OutputProgress:      VerbosityInfo,
	OutputStartup:       VerbosityInfo,
	OutputSessionStatus: VerbosityInfo,
	OutputOperationInfo: VerbosityInfo,

	// Level 2 - Detailed
	OutputTiming:       VerbosityDebug,
	OutputConfig:       VerbosityDebug,
	OutputQueueDepth:   VerbosityDebug,
	OutputURIDiscovery: VerbosityDebug,

	// Level 3 - Debug
	OutputWireTrace:   VerbosityTrace,
	OutputEncoderFlow: VerbosityTrace,
	OutputGraphEvents: VerbosityTrace,

	// Level 4 - Full dump
	OutputFrameBody: VerbosityAll,
	OutputDataDump:  VerbosityAll,
}

// ShouldOutput returns true if the given category should be shown at the given verbosity
func ShouldOutput(verbosity int, category OutputCategory) bool {
	minLevel, ok := categoryLevels[category]
	if !ok {
		// Unknown category, default to highest verbosity required
		return verbosity >= VerbosityAll
	}
	return verbosity >= minLevel
}

// categoryNames provides human-readable names for output categories
var categoryNames = map[OutputCategory]string{
	OutputResults:       "results",
	OutputErrors:        "errors",
	OutputUserStatus:    "status",
	OutputProgress:      "progress",
	OutputStartup:       "startup",
	OutputSessionStatus: "session-status",
	OutputOperationInfo: "operation-info",
	OutputTiming:        "timing",
	OutputConfig:        "config",
	OutputQueueDepth:    "queue-depth",
	OutputURIDiscovery:  "uri-discovery",
	OutputWireTrace:     "wire-trace",
	OutputEncoderFlow:   "encoder-flow",
	OutputGraphEvents:   "graph-events",
	OutputFrameBody:     "frame-body",
	OutputDataDump:      "data-dump",
}

// CategoryName returns the human-readable name for an output category
func CategoryName(category OutputCategory) string {
	if name, ok := categoryNames[category]; ok {
		return name
	}
	return "unknown"
}

// EnabledCategories returns all output categories enabled at the given verbosity
func EnabledCategories(verbosity int) []OutputCategory {
	var enabled []OutputCategory
	for cat, minLevel := range categoryLevels {
		if verbosity >= minLevel {
			enabled = append(enabled, cat)
		}
	}
	return enabled
}

// VerbosityDescription returns a description of what's shown at each level
func VerbosityDescription(verbosity int) string {
	switch verbosity {
	case VerbosityUser:
		return "results and errors only"
	case VerbosityInfo:
		return "results, errors, progress, session status"
	case VerbosityDebug:
		return "above + timing, config, queue depth"
	case VerbosityTrace:
		return "above + wire trace, encoder/graph flow"
	case VerbosityAll:
		return "above + full frame and data dumps"
	default:
		if verbosity > VerbosityAll {
			return "maximum verbosity"
		}
		return "unknown verbosity level"
	}
}

// Wire trace helpers

// ShouldShowWireTrace returns true if per-message wire trace should be displayed
func ShouldShowWireTrace(verbosity int) bool {
	return ShouldOutput(verbosity, OutputWireTrace)
}

// ShouldShowEncoderFlow returns true if encoder pipeline internals should be displayed
func ShouldShowEncoderFlow(verbosity int) bool {
	return ShouldOutput(verbosity, OutputEncoderFlow)
}

// Timing helpers

// SlowThresholdMS is the threshold in milliseconds above which timing is always shown
const SlowThresholdMS = 100

// ShouldShowTiming returns true if timing info should be displayed.
// Shows if: verbosity >= 2 (-vv) OR operation exceeded slow threshold.
func ShouldShowTiming(verbosity int, durationMS int64) bool {
	if durationMS >= SlowThresholdMS {
		return true // Always show slow operations
	}
	return ShouldOutput(verbosity, OutputTiming)
}

// ShouldShowTimingAlways returns true if timing should always be shown (slow operation)
func ShouldShowTimingAlways(durationMS int64) bool {
	return durationMS >= SlowThresholdMS
}
